package element

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"

	"github.com/drgolem/musictools/internal/audio/buffer"
	"github.com/drgolem/musictools/internal/audio/format"
	"github.com/drgolem/musictools/internal/audio/source"
)

// Mixer combines N same-format inputs into one output, scaling by
// 1/N. All contributing buffers in a step must have an equal byte size
// except a "last" buffer whose tag has source_done set; a size mismatch
// without that exemption emits nothing for the step.
type Mixer struct {
	base
	log *slog.Logger
}

// NewMixer creates a Mixer with numIns input ports named "in0".."in<N-1>".
func NewMixer(name, id string, numIns int) *Mixer {
	m := &Mixer{base: newBase("Mixer", name, id), log: slog.Default()}
	for i := 0; i < numIns; i++ {
		m.addInput(NewPort(fmt.Sprintf("in%d", i)), m)
	}
	m.addOutput(NewPort("out"), m)
	return m
}

// Prepare implements Element.
func (m *Mixer) Prepare(loader source.Loader, params PrepareParams) bool {
	f := m.in[0].Format()
	for _, p := range m.in[1:] {
		if p.Format() != f {
			return false
		}
	}
	m.out[0].SetFormat(f)
	return true
}

// Process implements Element.
func (m *Mixer) Process(alloc *buffer.Allocator, events *EventQueue, ms int) {
	out := m.out[0]
	if out.HasBuffer() {
		return
	}
	for _, p := range m.in {
		if !p.HasBuffer() {
			return
		}
	}

	bufs := make([]*buffer.Buffer, len(m.in))
	for i, p := range m.in {
		bufs[i] = p.PullBuffer()
	}
	defer func() {
		for _, b := range bufs {
			b.Release()
		}
	}()

	size := bufs[0].ByteSize()
	for _, b := range bufs[1:] {
		if b.ByteSize() != size && !tagsSourceDone(b) {
			m.log.Warn("mixer input size mismatch", "elem", m.name, "expected_bytes", size, "got_bytes", b.ByteSize())
			return
		}
	}

	dst, err := alloc.Allocate(size)
	if err != nil {
		return
	}
	f := bufs[0].Format()
	dst.SetFormat(f)
	gain := 1.0 / float64(len(bufs))
	mixBuffers(bufs, dst.Raw()[:size], f.SampleType, gain)
	dst.SetByteSize(size)
	for _, b := range bufs {
		buffer.CopyInfoTags(b, dst)
	}
	out.PushBuffer(dst)
}

func tagsSourceDone(b *buffer.Buffer) bool {
	for _, t := range b.InfoTags() {
		if t.SourceDone {
			return true
		}
	}
	return false
}

func mixBuffers(bufs []*buffer.Buffer, dst []byte, st format.SampleType, gain float64) {
	width := st.BytesPerSample()
	n := len(dst) / width
	for i := 0; i < n; i++ {
		off := i * width
		var acc float64
		for _, b := range bufs {
			bytes := b.Bytes()
			if off+width > len(bytes) {
				continue
			}
			acc += readSample(bytes[off:], st)
		}
		writeSampleClipped(dst[off:], st, acc*gain)
	}
}

// ReadSampleValue exports readSample for collaborators outside this
// package that need to mix already-decoded PCM bytes (engine.Update
// combining the music and effects tracks).
func ReadSampleValue(src []byte, st format.SampleType) float64 { return readSample(src, st) }

// WriteSampleClippedValue exports writeSampleClipped for the same
// reason as ReadSampleValue.
func WriteSampleClippedValue(dst []byte, st format.SampleType, v float64) {
	writeSampleClipped(dst, st, v)
}

func readSample(src []byte, st format.SampleType) float64 {
	switch st {
	case format.Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(src)))
	case format.Int16:
		return float64(int16(binary.LittleEndian.Uint16(src)))
	case format.Int32:
		return float64(int32(binary.LittleEndian.Uint32(src)))
	}
	return 0
}

// writeSampleClipped is like writeSample but takes an already-scaled
// native-range value (not a [-1,1] one) for integer types, saturating
// at the type's range.
func writeSampleClipped(dst []byte, st format.SampleType, v float64) {
	switch st {
	case format.Float32:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(v)))
	case format.Int16:
		v = clip(v, math.MinInt16, math.MaxInt16)
		binary.LittleEndian.PutUint16(dst, uint16(int16(v)))
	case format.Int32:
		v = clip(v, math.MinInt32, math.MaxInt32)
		binary.LittleEndian.PutUint32(dst, uint32(int32(v)))
	}
}

// Advance implements Element.
func (m *Mixer) Advance(ms int) {}

// IsSource implements Element.
func (m *Mixer) IsSource() bool { return false }

// IsSourceDone implements Element.
func (m *Mixer) IsSourceDone() bool { return false }

// ReceiveCommand implements Element.
func (m *Mixer) ReceiveCommand(cmd Command) {}

// DispatchCommand implements Element.
func (m *Mixer) DispatchCommand(dest string, cmd Command) bool { return false }

// HandleControl implements Element.
func (m *Mixer) HandleControl(msg string) {}

// Shutdown implements Element.
func (m *Mixer) Shutdown() {}
