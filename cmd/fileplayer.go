package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/drgolem/musictools/internal/audio/element"
	"github.com/drgolem/musictools/internal/audio/engine"
	"github.com/drgolem/musictools/internal/audio/format"
	"github.com/drgolem/musictools/internal/audio/sink"

	"github.com/drgolem/go-portaudio/portaudio"
	"github.com/spf13/cobra"
)

const playlistUpdateStepMs = 20

var (
	playlistDeviceIdx int
	playlistFrames    int
	playlistVerbose   bool
)

// playlistCmd represents the playlist command
var playlistCmd = &cobra.Command{
	Use:   "playlist <audio_file> [audio_file...]",
	Short: "Play multiple audio files sequentially",
	Long: `Play multiple audio files one after another on the internal/audio graph
engine: each file is loaded as a FileSource onto the engine's music track and
run to completion (a SourceDoneEvent) before the next one is prepared, reusing
the same engine and device sink across the whole run.

Examples:
  # Play multiple files
  musictools playlist song1.mp3 song2.flac song3.wav

  # Play all MP3 files in current directory
  musictools playlist *.mp3

  # Use specific device with verbose output
  musictools playlist -d 0 -v music/*.flac

  # Lower latency with a smaller PortAudio period
  musictools playlist -f 256 *.wav

Supported Formats:
  MP3:  .mp3 (16-bit lossy)
  FLAC: .flac, .fla (16/24/32-bit lossless)
  OGG:  .ogg (Vorbis)
  WAV:  .wav (8/16/24/32-bit PCM)`,
	Args: cobra.MinimumNArgs(1),
	Run:  runPlaylist,
}

func init() {
	rootCmd.AddCommand(playlistCmd)

	playlistCmd.Flags().IntVarP(&playlistDeviceIdx, "device", "d", 1, "Audio output device index")
	playlistCmd.Flags().IntVarP(&playlistFrames, "frames", "f", 512, "PortAudio frames per buffer")
	playlistCmd.Flags().BoolVarP(&playlistVerbose, "verbose", "v", false, "Verbose output (debug logging)")
}

func runPlaylist(cmd *cobra.Command, args []string) {
	logLevel := slog.LevelInfo
	if playlistVerbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	files := args

	slog.Info("Initializing PortAudio")
	if err := portaudio.Initialize(); err != nil {
		slog.Error("Failed to initialize PortAudio", "error", err)
		os.Exit(1)
	}
	defer portaudio.Terminate()

	slog.Info("PortAudio initialized", "version", portaudio.GetVersion())

	cfg := engine.DefaultConfig()
	cfg.BufferSizeMs = playlistFrames * 1000 / cfg.SampleRate
	if cfg.BufferSizeMs <= 0 {
		cfg.BufferSizeMs = 1
	}
	slog.Info("Configuration",
		"device_index", playlistDeviceIdx,
		"frames_per_buffer", playlistFrames,
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
		"file_count", len(files))

	dev := sink.NewPortAudioSink(playlistDeviceIdx, logger)
	eng := engine.New(cfg, dev, logger)
	defer eng.Shutdown()

	if err := eng.PrepareMusicGraph("playlist"); err != nil {
		slog.Error("Failed to prepare audio engine", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	interrupted := false

	for i, fileName := range files {
		if interrupted {
			break
		}

		slog.Info("Playing file", "index", i+1, "total", len(files), "file", fileName)

		sourceID := fmt.Sprintf("playlist_%d", i)
		if err := eng.PlayMusic(element.CreateArgs{
			Type: "FileSource",
			ID:   sourceID,
			Name: sourceID,
			Args: map[string]any{
				"file":  fileName,
				"type":  format.Int16,
				"loops": 1,
			},
		}, 0); err != nil {
			slog.Error("Failed to start playback", "file", fileName, "error", err)
			continue
		}

		done := make(chan struct{})
		stop := make(chan struct{})
		statusDone := make(chan struct{})
		go monitorEngineStatus(eng, statusDone)
		go runPlaylistEntry(eng, sourceID, done, stop)

		select {
		case <-done:
			slog.Info("File completed", "file", fileName)
		case sig := <-sigChan:
			slog.Info("Signal received, stopping", "signal", sig)
			interrupted = true
			close(stop)
			<-done
		}
		close(statusDone)
	}

	if interrupted {
		slog.Info("Playback interrupted")
	} else {
		slog.Info("All files completed", "total", len(files))
	}

	slog.Info("Exiting")
}

// runPlaylistEntry steps eng at a fixed cadence until sourceID reports
// done via a SourceDoneEvent on the music track, or stop is closed by
// the caller on a signal, then closes done.
func runPlaylistEntry(eng *engine.AudioEngine, sourceID string, done, stop chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(playlistUpdateStepMs * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			events, err := eng.Update(playlistUpdateStepMs)
			if err != nil {
				slog.Error("Engine update failed", "error", err)
				return
			}
			for _, ev := range events {
				if sd, ok := ev.(element.SourceDoneEvent); ok && sd.Mixer == musicTrackName && sd.Src == sourceID {
					return
				}
			}
		}
	}
}
