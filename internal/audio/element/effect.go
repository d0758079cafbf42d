package element

import (
	"github.com/drgolem/musictools/internal/audio/buffer"
	"github.com/drgolem/musictools/internal/audio/format"
	"github.com/drgolem/musictools/internal/audio/source"
)

// FadeEnvelope computes the FadeIn/FadeOut gain curve over
// [startMs, startMs+durationMs] in an element-local clock, shared
// between the standalone Effect element and MixerSource's per-child
// effects.
type FadeEnvelope struct {
	Kind       EffectKind
	StartMs    int
	DurationMs int
}

// GainAt returns the envelope's gain at local time tMs.
func (e FadeEnvelope) GainAt(tMs float64) float64 {
	start := float64(e.StartMs)
	end := start + float64(e.DurationMs)
	switch {
	case tMs < start:
		if e.Kind == FadeIn {
			return 0
		}
		return 1
	case tMs >= end:
		if e.Kind == FadeIn {
			return 1
		}
		return 0
	default:
		frac := (tMs - start) / float64(e.DurationMs)
		if e.Kind == FadeIn {
			return frac
		}
		return 1 - frac
	}
}

// IsDone reports whether the envelope's window has fully elapsed.
func (e FadeEnvelope) IsDone(tMs float64) bool {
	return tMs >= float64(e.StartMs+e.DurationMs)
}

// ApplyGain scales every sample in raw (of byteSize valid bytes) by gain
// in place.
func ApplyGain(raw []byte, byteSize int, st format.SampleType, gain float64) {
	applyGain(raw[:byteSize], raw[:byteSize], st, gain)
}

// Effect applies a FadeIn or FadeOut envelope over its own element-local
// clock, advanced by frames/sample_rate*1000 as it processes frames.
// Samples outside the window pass straight through (FadeOut beyond the
// window silences them).
type Effect struct {
	base
	envelope FadeEnvelope
	clockMs  float64
}

// NewEffect creates a standalone Effect element.
func NewEffect(name, id string, kind EffectKind, startMs, durationMs int) *Effect {
	e := &Effect{
		base:     newBase("Effect", name, id),
		envelope: FadeEnvelope{Kind: kind, StartMs: startMs, DurationMs: durationMs},
	}
	e.addInput(NewPort("in"), e)
	e.addOutput(NewPort("out"), e)
	return e
}

// Prepare implements Element.
func (e *Effect) Prepare(loader source.Loader, params PrepareParams) bool {
	e.out[0].SetFormat(e.in[0].Format())
	return true
}

// Process implements Element.
func (e *Effect) Process(alloc *buffer.Allocator, events *EventQueue, ms int) {
	in := e.in[0]
	out := e.out[0]
	if !in.HasBuffer() || out.HasBuffer() {
		return
	}
	src := in.PullBuffer()
	defer src.Release()

	dst, err := alloc.Allocate(src.ByteSize())
	if err != nil {
		return
	}
	f := src.Format()
	dst.SetFormat(f)

	width := f.SampleType.BytesPerSample()
	frames := src.ByteSize() / (width * f.Channels)
	srcBytes := src.Bytes()
	dstRaw := dst.Raw()

	for i := 0; i < frames; i++ {
		gain := e.envelope.GainAt(e.clockMs)
		off := i * width * f.Channels
		for ch := 0; ch < f.Channels; ch++ {
			chOff := off + ch*width
			v := readSample(srcBytes[chOff:], f.SampleType)
			writeSampleClipped(dstRaw[chOff:], f.SampleType, v*gain)
		}
		e.clockMs += 1000 / float64(f.SampleRate)
	}

	dst.SetByteSize(src.ByteSize())
	buffer.CopyInfoTags(src, dst)
	out.PushBuffer(dst)
}

// IsDone reports whether the effect's fade window has fully elapsed.
func (e *Effect) IsDone() bool { return e.envelope.IsDone(e.clockMs) }

// Advance implements Element. Effect's clock only advances per
// processed frame (see Process), not via Advance.
func (e *Effect) Advance(ms int) {}

// IsSource implements Element.
func (e *Effect) IsSource() bool { return false }

// IsSourceDone implements Element.
func (e *Effect) IsSourceDone() bool { return false }

// ReceiveCommand implements Element. It handles SetEffectCmd, replacing
// the envelope and resetting the local clock.
func (e *Effect) ReceiveCommand(cmd Command) {
	if c, ok := cmd.(SetEffectCmd); ok {
		e.envelope = FadeEnvelope{Kind: c.Effect, StartMs: c.Time, DurationMs: c.Duration}
		e.clockMs = 0
	}
}

// DispatchCommand implements Element.
func (e *Effect) DispatchCommand(dest string, cmd Command) bool { return false }

// HandleControl implements Element.
func (e *Effect) HandleControl(msg string) {}

// Shutdown implements Element.
func (e *Effect) Shutdown() {}
