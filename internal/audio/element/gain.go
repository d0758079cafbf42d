package element

import (
	"encoding/binary"
	"math"

	"github.com/drgolem/musictools/internal/audio/buffer"
	"github.com/drgolem/musictools/internal/audio/format"
	"github.com/drgolem/musictools/internal/audio/source"
)

// Gain multiplies every sample by a scalar. Integer types clip to their
// range rather than wrap.
type Gain struct {
	base
	gain float64
}

// NewGain creates a Gain element with the given initial scalar.
func NewGain(name, id string, gain float64) *Gain {
	g := &Gain{base: newBase("Gain", name, id), gain: gain}
	g.addInput(NewPort("in"), g)
	g.addOutput(NewPort("out"), g)
	return g
}

// Prepare implements Element.
func (g *Gain) Prepare(loader source.Loader, params PrepareParams) bool {
	g.out[0].SetFormat(g.in[0].Format())
	return true
}

// Process implements Element.
func (g *Gain) Process(alloc *buffer.Allocator, events *EventQueue, ms int) {
	in := g.in[0]
	out := g.out[0]
	if !in.HasBuffer() || out.HasBuffer() {
		return
	}
	src := in.PullBuffer()
	defer src.Release()

	dst, err := alloc.Allocate(src.ByteSize())
	if err != nil {
		return
	}
	dst.SetFormat(src.Format())
	applyGain(src.Bytes(), dst.Raw(), src.Format().SampleType, g.gain)
	dst.SetByteSize(src.ByteSize())
	buffer.CopyInfoTags(src, dst)
	out.PushBuffer(dst)
}

func applyGain(src, dst []byte, st format.SampleType, gain float64) {
	width := st.BytesPerSample()
	n := len(src) / width
	for i := 0; i < n; i++ {
		off := i * width
		switch st {
		case format.Float32:
			v := math.Float32frombits(binary.LittleEndian.Uint32(src[off:]))
			binary.LittleEndian.PutUint32(dst[off:], math.Float32bits(float32(float64(v)*gain)))
		case format.Int16:
			v := int16(binary.LittleEndian.Uint16(src[off:]))
			scaled := float64(v) * gain
			scaled = clip(scaled, math.MinInt16, math.MaxInt16)
			binary.LittleEndian.PutUint16(dst[off:], uint16(int16(scaled)))
		case format.Int32:
			v := int32(binary.LittleEndian.Uint32(src[off:]))
			scaled := float64(v) * gain
			scaled = clip(scaled, math.MinInt32, math.MaxInt32)
			binary.LittleEndian.PutUint32(dst[off:], uint32(int32(scaled)))
		}
	}
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Advance implements Element.
func (g *Gain) Advance(ms int) {}

// IsSource implements Element.
func (g *Gain) IsSource() bool { return false }

// IsSourceDone implements Element.
func (g *Gain) IsSourceDone() bool { return false }

// ReceiveCommand implements Element. It handles SetGainCmd.
func (g *Gain) ReceiveCommand(cmd Command) {
	if c, ok := cmd.(SetGainCmd); ok {
		g.gain = c.Gain
	}
}

// DispatchCommand implements Element.
func (g *Gain) DispatchCommand(dest string, cmd Command) bool { return false }

// HandleControl implements Element.
func (g *Gain) HandleControl(msg string) {}

// Shutdown implements Element.
func (g *Gain) Shutdown() {}
