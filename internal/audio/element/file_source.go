package element

import (
	"context"
	"log/slog"

	"github.com/drgolem/musictools/internal/audio/buffer"
	"github.com/drgolem/musictools/internal/audio/cache"
	"github.com/drgolem/musictools/internal/audio/decoder"
	"github.com/drgolem/musictools/internal/audio/decoder/pcm"
	"github.com/drgolem/musictools/internal/audio/format"
	"github.com/drgolem/musictools/internal/audio/pool"
	"github.com/drgolem/musictools/internal/audio/source"
)

// FileSource decodes a file on disk into PCM frames. It is the graph's
// most involved source: it may share a fully decoded PCM blob with
// another FileSource of the same id, may defer its decoder open to a
// background worker when the file's format is already known, and counts
// a pass on stream exhaustion before either looping or finishing. When
// the decoder reports a frame count, the buffer that completes the final
// pass carries a source_done tag; when it reports 0 frames, exhaustion is
// found by a read that returns no frames, and no buffer carries
// source_done.
//
// Prepare looks up the pcm_cache/file_info_cache caches; if file info
// is already known, decoder opening is submitted to the worker pool as
// an OpenDecoderTask rather than blocking, and each PCM buffer is
// filled once then frozen for reuse.
type FileSource struct {
	base
	log *slog.Logger

	file       string
	sampleType format.SampleType
	loopCount  int // 0 == infinite

	enablePcmCaching  bool
	enableFileCaching bool

	cache *cache.Cache
	pool  *pool.Pool

	dec        decoder.Decoder
	openTask   *pool.Handle
	openFailed bool
	shutdown   bool

	pcmBlob *cache.PCMBlob

	outFormat   format.Format
	totalFrames uint64
	framesRead  uint64
	playCount   int
	done        bool

	scratchF32 []float32
	scratchI16 []int16
	scratchI32 []int32
}

// NewFileSource creates a FileSource. loops <= 0 means loop forever.
func NewFileSource(name, id, file string, sampleType format.SampleType, loops int, c *cache.Cache, p *pool.Pool) *FileSource {
	fs := &FileSource{
		base:              newBase("FileSource", name, id),
		log:               slog.Default(),
		file:              file,
		sampleType:        sampleType,
		loopCount:         loops,
		enablePcmCaching:  true,
		enableFileCaching: false,
		cache:             c,
		pool:              p,
	}
	fs.addOutput(NewPort("out"), fs)
	return fs
}

// SetEnablePcmCaching overrides the per-instance PCM caching flag
// (still gated by the engine-wide PrepareParams.EnablePCMCaching).
func (fs *FileSource) SetEnablePcmCaching(v bool) { fs.enablePcmCaching = v }

// SetEnableFileCaching overrides the per-instance file (stream)
// caching flag.
func (fs *FileSource) SetEnableFileCaching(v bool) { fs.enableFileCaching = v }

// Prepare implements Element.
func (fs *FileSource) Prepare(loader source.Loader, params PrepareParams) bool {
	enablePCM := params.EnablePCMCaching && fs.enablePcmCaching

	if enablePCM {
		if blob, ok := fs.cache.LookupPCM(fs.id); ok {
			fs.pcmBlob = blob
		}
	}

	info, haveInfo := fs.cache.LookupFileInfo(fs.file)

	if fs.pcmBlob != nil {
		if complete, _, blobFormat, frames := fs.pcmBlob.Snapshot(); complete {
			fs.dec = pcm.New(fs.pcmBlob)
			fs.outFormat = blobFormat
			fs.totalFrames = frames
			fs.log.Debug("using cached pcm audio buffer", "elem", fs.name, "file", fs.file, "id", fs.id)
		}
	}

	if fs.dec == nil {
		stream, err := loader.OpenAudioStream(fs.file, params.EnableFileCaching || fs.enableFileCaching)
		if err != nil {
			fs.log.Error("failed to open audio source file", "elem", fs.name, "file", fs.file, "err", err)
			return false
		}
		ext := source.Extension(fs.file)

		if haveInfo && fs.pool != nil {
			fs.openTask = fs.pool.Submit(pool.TaskFunc(func(ctx context.Context) (any, error) {
				return decoder.OpenExt(ext, stream, fs.sampleType)
			}))
			fs.log.Debug("submitted audio decoder open task", "elem", fs.name, "file", fs.file)
		} else {
			dec, err := decoder.OpenExt(ext, stream, fs.sampleType)
			if err != nil {
				fs.log.Error("failed to open audio decoder", "elem", fs.name, "file", fs.file, "err", err)
				return false
			}
			fs.dec = dec
		}

		if fs.dec != nil {
			fs.outFormat = format.Format{SampleRate: fs.dec.SampleRate(), Channels: fs.dec.ChannelCount(), SampleType: fs.sampleType}
			fs.totalFrames = fs.dec.TotalFrames()
		}

		if haveInfo {
			fs.outFormat = format.Format{SampleRate: info.SampleRate, Channels: info.Channels, SampleType: fs.sampleType}
			fs.totalFrames = info.Frames
		} else if fs.dec != nil {
			fs.cache.StoreFileInfo(fs.file, cache.FileInfo{SampleRate: fs.dec.SampleRate(), Channels: fs.dec.ChannelCount(), Frames: fs.dec.TotalFrames()})
		}

		if enablePCM && fs.pcmBlob == nil {
			fs.pcmBlob = fs.cache.RegisterPCM(fs.id, fs.outFormat)
		}
	}

	if !fs.outFormat.IsValid() {
		fs.log.Error("audio file source could not determine format", "elem", fs.name, "file", fs.file)
		return false
	}

	fs.out[0].SetFormat(fs.outFormat)
	fs.log.Debug("audio file source prepared", "elem", fs.name, "file", fs.file, "format", fs.outFormat.String())
	return true
}

// Process implements Element.
func (fs *FileSource) Process(alloc *buffer.Allocator, events *EventQueue, ms int) {
	out := fs.out[0]
	if out.HasBuffer() || fs.shutdown || fs.done || fs.openFailed {
		return
	}

	if fs.dec == nil {
		if fs.openTask == nil || !fs.openTask.IsComplete() {
			return
		}
		if err := fs.openTask.Err(); err != nil {
			fs.log.Error("audio decoder open task failed", "elem", fs.name, "file", fs.file, "err", err)
			fs.openFailed = true
			fs.openTask = nil
			return
		}
		fs.dec = fs.openTask.Value().(decoder.Decoder)
		fs.openTask = nil
		fs.log.Debug("audio decoder open task complete", "elem", fs.name, "file", fs.file)
	}

	frames := fs.outFormat.FramesForMillis(ms)
	if fs.totalFrames > 0 {
		remain := fs.totalFrames - fs.framesRead
		if uint64(frames) > remain {
			frames = int(remain)
		}
	}
	if frames <= 0 {
		fs.onExhausted(out)
		return
	}

	n, err := fs.readFrames(frames)
	if err != nil {
		fs.log.Error("audio decode error", "elem", fs.name, "file", fs.file, "err", err)
	}
	if n == 0 {
		fs.onExhausted(out)
		return
	}

	size := n * fs.outFormat.FrameSize()
	buf, allocErr := alloc.Allocate(size)
	if allocErr != nil {
		return
	}
	buf.SetFormat(fs.outFormat)
	fs.encodeInto(buf.Raw(), n)
	buf.SetByteSize(size)

	fs.framesRead += uint64(n)
	if fs.pcmBlob != nil {
		if complete, _, _, _ := fs.pcmBlob.Snapshot(); !complete {
			fs.pcmBlob.Append(buf.Bytes())
		}
	}

	exhausted := fs.totalFrames > 0 && fs.framesRead >= fs.totalFrames
	if exhausted {
		fs.finishPass()
	}
	buf.AddTag(buffer.InfoTag{ElementID: fs.id, ElementName: fs.name, Source: true, SourceDone: exhausted && fs.done})
	out.PushBuffer(buf)
}

func (fs *FileSource) readFrames(frames int) (int, error) {
	channels := fs.outFormat.Channels
	switch fs.sampleType {
	case format.Float32:
		if cap(fs.scratchF32) < frames*channels {
			fs.scratchF32 = make([]float32, frames*channels)
		}
		s := fs.scratchF32[:frames*channels]
		return fs.dec.ReadFramesF32(s)
	case format.Int16:
		if cap(fs.scratchI16) < frames*channels {
			fs.scratchI16 = make([]int16, frames*channels)
		}
		s := fs.scratchI16[:frames*channels]
		return fs.dec.ReadFramesI16(s)
	case format.Int32:
		if cap(fs.scratchI32) < frames*channels {
			fs.scratchI32 = make([]int32, frames*channels)
		}
		s := fs.scratchI32[:frames*channels]
		return fs.dec.ReadFramesI32(s)
	}
	return 0, nil
}

func (fs *FileSource) encodeInto(dst []byte, n int) {
	channels := fs.outFormat.Channels
	switch fs.sampleType {
	case format.Float32:
		encodeF32(fs.scratchF32[:n*channels], dst)
	case format.Int16:
		encodeI16(fs.scratchI16[:n*channels], dst)
	case format.Int32:
		encodeI32(fs.scratchI32[:n*channels], dst)
	}
}

// onExhausted handles the zero-frames-remaining case when it is
// discovered before any buffer could be built for this step.
func (fs *FileSource) onExhausted(out *Port) {
	fs.finishPass()
	if fs.done {
		return
	}
}

// finishPass runs once a decode pass reaches end of stream: marks the
// cache blob complete, then either resets for another loop or marks the
// source permanently done.
func (fs *FileSource) finishPass() {
	if fs.pcmBlob != nil {
		if complete, _, _, _ := fs.pcmBlob.Snapshot(); !complete {
			fs.pcmBlob.Finish()
			fs.dec = pcm.New(fs.pcmBlob)
		}
	}
	fs.playCount++
	fs.framesRead = 0
	if fs.loopCount > 0 && fs.playCount >= fs.loopCount {
		fs.done = true
		return
	}
	if fs.dec != nil {
		if err := fs.dec.Reset(); err != nil {
			fs.log.Error("audio decoder reset failed", "elem", fs.name, "file", fs.file, "err", err)
			fs.done = true
		}
	}
}

// Advance implements Element.
func (fs *FileSource) Advance(ms int) {}

// IsSource implements Element.
func (fs *FileSource) IsSource() bool { return true }

// IsSourceDone implements Element.
func (fs *FileSource) IsSourceDone() bool { return fs.done || fs.openFailed }

// ReceiveCommand implements Element.
func (fs *FileSource) ReceiveCommand(cmd Command) {}

// DispatchCommand implements Element.
func (fs *FileSource) DispatchCommand(dest string, cmd Command) bool { return false }

// HandleControl implements Element. "Shutdown" releases the decoder; a
// decoder-open task already in flight is left to finish on its worker
// but its result is discarded.
func (fs *FileSource) HandleControl(msg string) {
	if msg == "Shutdown" {
		fs.Shutdown()
	}
}

// Shutdown implements Element.
func (fs *FileSource) Shutdown() {
	fs.shutdown = true
	fs.openTask = nil
	if fs.dec != nil {
		fs.dec.Close()
		fs.dec = nil
	}
}
