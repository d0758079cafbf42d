package element

import (
	"github.com/drgolem/musictools/internal/audio/buffer"
	"github.com/drgolem/musictools/internal/audio/decoder"
	"github.com/drgolem/musictools/internal/audio/format"
	"github.com/drgolem/musictools/internal/audio/source"
)

// StreamSource decodes an in-memory encoded buffer, the same way a
// FileSource decodes a path on disk, but without PCM/file-info caching
// or background decoder open: the data is already resident, so opening
// its codec is cheap enough to do synchronously in Prepare. It is the
// in-memory sibling of FileSource, sharing its decoder machinery.
type StreamSource struct {
	base

	data       []byte
	ext        string
	sampleType format.SampleType
	loopCount  int // 0 == infinite

	dec         decoder.Decoder
	outFormat   format.Format
	totalFrames uint64
	framesRead  uint64
	playCount   int
	done        bool

	scratchF32 []float32
	scratchI16 []int16
	scratchI32 []int32
}

// NewStreamSource creates a StreamSource over an in-memory encoded
// buffer. ext selects the codec (e.g. "mp3", "wav", "ogg", "flac").
// loops <= 0 means loop forever.
func NewStreamSource(name, id string, data []byte, ext string, sampleType format.SampleType, loops int) *StreamSource {
	s := &StreamSource{
		base:       newBase("StreamSource", name, id),
		data:       data,
		ext:        ext,
		sampleType: sampleType,
		loopCount:  loops,
	}
	s.addOutput(NewPort("out"), s)
	return s
}

// Prepare implements Element.
func (s *StreamSource) Prepare(loader source.Loader, params PrepareParams) bool {
	stream := source.NewMemoryStream("stream", s.data)
	dec, err := decoder.OpenExt(s.ext, stream, s.sampleType)
	if err != nil {
		return false
	}
	s.dec = dec
	s.outFormat = format.Format{SampleRate: dec.SampleRate(), Channels: dec.ChannelCount(), SampleType: s.sampleType}
	s.totalFrames = dec.TotalFrames()
	if !s.outFormat.IsValid() {
		return false
	}
	s.out[0].SetFormat(s.outFormat)
	return true
}

// Process implements Element.
func (s *StreamSource) Process(alloc *buffer.Allocator, events *EventQueue, ms int) {
	out := s.out[0]
	if out.HasBuffer() || s.done {
		return
	}

	frames := s.outFormat.FramesForMillis(ms)
	if s.totalFrames > 0 {
		remain := s.totalFrames - s.framesRead
		if uint64(frames) > remain {
			frames = int(remain)
		}
	}
	if frames <= 0 {
		s.finishPass()
		return
	}

	n, _ := s.readFrames(frames)
	if n == 0 {
		s.finishPass()
		return
	}

	size := n * s.outFormat.FrameSize()
	buf, err := alloc.Allocate(size)
	if err != nil {
		return
	}
	buf.SetFormat(s.outFormat)
	s.encodeInto(buf.Raw(), n)
	buf.SetByteSize(size)

	s.framesRead += uint64(n)
	exhausted := s.totalFrames > 0 && s.framesRead >= s.totalFrames
	if exhausted {
		s.finishPass()
	}
	buf.AddTag(buffer.InfoTag{ElementID: s.id, ElementName: s.name, Source: true, SourceDone: exhausted && s.done})
	out.PushBuffer(buf)
}

func (s *StreamSource) readFrames(frames int) (int, error) {
	channels := s.outFormat.Channels
	switch s.sampleType {
	case format.Float32:
		if cap(s.scratchF32) < frames*channels {
			s.scratchF32 = make([]float32, frames*channels)
		}
		sl := s.scratchF32[:frames*channels]
		return s.dec.ReadFramesF32(sl)
	case format.Int16:
		if cap(s.scratchI16) < frames*channels {
			s.scratchI16 = make([]int16, frames*channels)
		}
		sl := s.scratchI16[:frames*channels]
		return s.dec.ReadFramesI16(sl)
	case format.Int32:
		if cap(s.scratchI32) < frames*channels {
			s.scratchI32 = make([]int32, frames*channels)
		}
		sl := s.scratchI32[:frames*channels]
		return s.dec.ReadFramesI32(sl)
	}
	return 0, nil
}

func (s *StreamSource) encodeInto(dst []byte, n int) {
	channels := s.outFormat.Channels
	switch s.sampleType {
	case format.Float32:
		encodeF32(s.scratchF32[:n*channels], dst)
	case format.Int16:
		encodeI16(s.scratchI16[:n*channels], dst)
	case format.Int32:
		encodeI32(s.scratchI32[:n*channels], dst)
	}
}

func (s *StreamSource) finishPass() {
	s.playCount++
	s.framesRead = 0
	if s.loopCount > 0 && s.playCount >= s.loopCount {
		s.done = true
		return
	}
	if s.dec != nil {
		if err := s.dec.Reset(); err != nil {
			s.done = true
		}
	}
}

// Advance implements Element.
func (s *StreamSource) Advance(ms int) {}

// IsSource implements Element.
func (s *StreamSource) IsSource() bool { return true }

// IsSourceDone implements Element.
func (s *StreamSource) IsSourceDone() bool { return s.done }

// ReceiveCommand implements Element.
func (s *StreamSource) ReceiveCommand(cmd Command) {}

// DispatchCommand implements Element.
func (s *StreamSource) DispatchCommand(dest string, cmd Command) bool { return false }

// HandleControl implements Element.
func (s *StreamSource) HandleControl(msg string) {
	if msg == "Shutdown" {
		s.Shutdown()
	}
}

// Shutdown implements Element.
func (s *StreamSource) Shutdown() {
	if s.dec != nil {
		s.dec.Close()
		s.dec = nil
	}
	s.done = true
}
