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

const (
	version = "1.0.0"

	musicTrackName = "music"
	updateStepMs   = 20
)

var (
	deviceIdx   int
	frames      int
	showVersion bool
	verbose     bool
)

// playerCmd represents the player command
var playerCmd = &cobra.Command{
	Use:   "play <audio_file>",
	Short: "Play audio files (MP3, FLAC, WAV)",
	Long: `Audio player built on the internal/audio graph engine: a FileSource feeding
the engine's music track, stepped in fixed-size slices and drained to a
PortAudio device sink through a ring-buffer-decoupled consumer goroutine.
Supports MP3, FLAC, OGG, and WAV formats with real-time status reporting.

Examples:
  # Play an MP3 file
  musictools play music.mp3

  # Play a FLAC file with specific device
  musictools play -d 0 music.flac

  # Play a WAV file
  musictools play audio.wav

  # Lower latency with a smaller PortAudio period
  musictools play -f 256 music.flac

Supported Formats:
  MP3:  .mp3 (decoded to 16-bit stereo)
  FLAC: .flac (16/24/32-bit lossless)
  OGG:  .ogg (Vorbis)
  WAV:  .wav (8/16/24/32-bit PCM)

Status Reporting:
  Playback status is logged every 2 seconds showing the wall-clock
  time elapsed since playback started.`,
	Args: cobra.ExactArgs(1),
	Run:  runPlayer,
}

func init() {
	rootCmd.AddCommand(playerCmd)

	playerCmd.Flags().IntVarP(&deviceIdx, "device", "d", 1, "Audio output device index")
	playerCmd.Flags().IntVarP(&frames, "frames", "f", 512, "PortAudio frames per buffer")
	playerCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (debug logging)")
	playerCmd.Flags().BoolVar(&showVersion, "version", false, "Show version information")
}

func runPlayer(cmd *cobra.Command, args []string) {
	if showVersion {
		fmt.Printf("Audio Player v%s\n", version)
		fmt.Println("Built with:")
		fmt.Println("  - internal/audio graph engine (MixerSource/Graph/AudioEngine)")
		fmt.Println("  - Lock-free SPSC ringbuffer outbound queue")
		fmt.Println("  - PortAudio for cross-platform audio")
		os.Exit(0)
	}

	fileName := args[0]

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if _, err := os.Stat(fileName); os.IsNotExist(err) {
		slog.Error("File not found", "path", fileName)
		os.Exit(1)
	}

	slog.Info("Initializing PortAudio")
	if err := portaudio.Initialize(); err != nil {
		slog.Error("Failed to initialize PortAudio", "error", err)
		slog.Error("Hint: Make sure PortAudio is installed on your system")
		os.Exit(1)
	}
	defer portaudio.Terminate()

	slog.Info("PortAudio initialized", "version", portaudio.GetVersion())

	cfg := engine.DefaultConfig()
	cfg.BufferSizeMs = frames * 1000 / cfg.SampleRate
	if cfg.BufferSizeMs <= 0 {
		cfg.BufferSizeMs = 1
	}
	slog.Info("Audio configuration",
		"device_index", deviceIdx,
		"frames_per_buffer", frames,
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels)

	dev := sink.NewPortAudioSink(deviceIdx, logger)
	eng := engine.New(cfg, dev, logger)
	defer eng.Shutdown()

	if err := eng.PrepareMusicGraph("play"); err != nil {
		slog.Error("Failed to prepare audio engine", "error", err)
		os.Exit(1)
	}

	slog.Info("Opening audio file", "path", fileName)
	sourceID := musicTrackName + "_0"
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
		slog.Error("Failed to start playback", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("Starting playback")
	done := make(chan struct{})
	statusDone := make(chan struct{})
	go monitorEngineStatus(eng, statusDone)
	go runEngineLoop(eng, sourceID, done, sigChan)

	<-done
	close(statusDone)
	slog.Info("Exiting")
}

// runEngineLoop steps the engine at a fixed cadence until the file
// source reports done (via a SourceDoneEvent for sourceID) or a signal
// arrives, then closes done.
func runEngineLoop(eng *engine.AudioEngine, sourceID string, done chan struct{}, sigChan <-chan os.Signal) {
	defer close(done)
	ticker := time.NewTicker(updateStepMs * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case sig := <-sigChan:
			slog.Info("Signal received, stopping playback", "signal", sig)
			return
		case <-ticker.C:
			events, err := eng.Update(updateStepMs)
			if err != nil {
				slog.Error("Engine update failed", "error", err)
				return
			}
			for _, ev := range events {
				if sd, ok := ev.(element.SourceDoneEvent); ok && sd.Mixer == musicTrackName && sd.Src == sourceID {
					slog.Info("Playback completed successfully")
					return
				}
			}
		}
	}
}

// monitorEngineStatus logs elapsed playback time every 2 seconds.
func monitorEngineStatus(eng *engine.AudioEngine, done chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	elapsed := time.Duration(0)

	for {
		select {
		case <-ticker.C:
			elapsed += 2 * time.Second
			totalMilliseconds := elapsed.Milliseconds()
			hours := totalMilliseconds / 3600000
			minutes := (totalMilliseconds % 3600000) / 60000
			seconds := (totalMilliseconds % 60000) / 1000
			milliseconds := totalMilliseconds % 1000
			slog.Info("Playback status",
				"elapsed", fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, milliseconds))
		case <-done:
			return
		}
	}
}
