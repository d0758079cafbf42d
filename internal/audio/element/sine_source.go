package element

import (
	"encoding/binary"
	"math"

	"github.com/drgolem/musictools/internal/audio/buffer"
	"github.com/drgolem/musictools/internal/audio/format"
	"github.com/drgolem/musictools/internal/audio/source"
)

// SineSource emits a sine wave at a configured frequency. Float output
// is in [-1,1]; integer output scales to the type's full range.
//
// Supports an optional hard duration cutoff beyond which the source
// reports itself done.
type SineSource struct {
	base
	format      format.Format
	frequency   float64
	durationMs  int // 0 == unbounded
	hasDuration bool

	frame   uint64
	elapsed float64 // milliseconds emitted so far
}

// NewSineSource creates a sine generator. durationMs <= 0 means the
// source never reports done.
func NewSineSource(name, id string, f format.Format, frequencyHz float64, durationMs int) *SineSource {
	s := &SineSource{
		base:        newBase("SineSource", name, id),
		format:      f,
		frequency:   frequencyHz,
		durationMs:  durationMs,
		hasDuration: durationMs > 0,
	}
	s.addOutput(NewPort("out"), s)
	return s
}

// Prepare implements Element.
func (s *SineSource) Prepare(loader source.Loader, params PrepareParams) bool {
	s.out[0].SetFormat(s.format)
	return true
}

func (s *SineSource) sampleAt(n uint64) float64 {
	return math.Sin(2 * math.Pi * s.frequency * float64(n) / float64(s.format.SampleRate))
}

// Process implements Element.
func (s *SineSource) Process(alloc *buffer.Allocator, events *EventQueue, ms int) {
	out := s.out[0]
	if out.HasBuffer() || s.IsSourceDone() {
		return
	}

	frames := s.format.FramesForMillis(ms)
	if s.hasDuration {
		remainMs := s.durationMs - int(s.elapsed)
		remainFrames := s.format.FramesForMillis(remainMs)
		if remainFrames < frames {
			frames = remainFrames
		}
	}
	if frames <= 0 {
		return
	}

	size := frames * s.format.FrameSize()
	buf, err := alloc.Allocate(size)
	if err != nil {
		return
	}
	buf.SetFormat(s.format)
	raw := buf.Raw()

	for i := 0; i < frames; i++ {
		v := s.sampleAt(s.frame + uint64(i))
		for ch := 0; ch < s.format.Channels; ch++ {
			off := (i*s.format.Channels + ch) * s.format.SampleType.BytesPerSample()
			writeSample(raw[off:], s.format.SampleType, v)
		}
	}
	s.frame += uint64(frames)
	s.elapsed += float64(frames) * 1000 / float64(s.format.SampleRate)

	buf.SetByteSize(size)
	done := s.hasDuration && s.elapsed >= float64(s.durationMs)
	buf.AddTag(buffer.InfoTag{ElementID: s.id, ElementName: s.name, Source: true, SourceDone: done})
	out.PushBuffer(buf)
}

// writeSample encodes a float64 value in [-1,1] as the given sample
// type, little-endian, scaling to the type's full range for integers.
func writeSample(dst []byte, st format.SampleType, v float64) {
	switch st {
	case format.Float32:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(v)))
	case format.Int16:
		s := int16(v * float64(math.MaxInt16))
		binary.LittleEndian.PutUint16(dst, uint16(s))
	case format.Int32:
		s := int32(v * float64(math.MaxInt32))
		binary.LittleEndian.PutUint32(dst, uint32(s))
	}
}

// Advance implements Element.
func (s *SineSource) Advance(ms int) {}

// IsSource implements Element.
func (s *SineSource) IsSource() bool { return true }

// IsSourceDone implements Element.
func (s *SineSource) IsSourceDone() bool {
	return s.hasDuration && s.elapsed >= float64(s.durationMs)
}

// ReceiveCommand implements Element.
func (s *SineSource) ReceiveCommand(cmd Command) {}

// DispatchCommand implements Element.
func (s *SineSource) DispatchCommand(dest string, cmd Command) bool { return false }

// HandleControl implements Element.
func (s *SineSource) HandleControl(msg string) {}

// Shutdown implements Element.
func (s *SineSource) Shutdown() {}
