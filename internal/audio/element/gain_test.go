package element

import (
	"encoding/binary"
	"testing"

	"github.com/drgolem/musictools/internal/audio/buffer"
	"github.com/drgolem/musictools/internal/audio/format"
)

func pushInt16Buffer(t *testing.T, alloc *buffer.Allocator, port *Port, f format.Format, samples []int16) {
	t.Helper()
	buf, err := alloc.Allocate(len(samples) * 2)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	buf.SetFormat(f)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf.Raw()[i*2:], uint16(s))
	}
	buf.SetByteSize(len(samples) * 2)
	if !port.PushBuffer(buf) {
		t.Fatal("PushBuffer into an empty port failed")
	}
}

func readInt16Buffer(buf *buffer.Buffer) []int16 {
	data := buf.Bytes()
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return out
}

func TestGainScalesSamples(t *testing.T) {
	f := format.Format{SampleRate: 44100, Channels: 1, SampleType: format.Int16}
	g := NewGain("gain", "gain_0", 0.5)
	g.InputPorts()[0].SetFormat(f)
	if ok := g.Prepare(nil, PrepareParams{}); !ok {
		t.Fatal("Prepare returned false")
	}
	if got := g.OutputPorts()[0].Format(); got != f {
		t.Errorf("output format = %+v, want %+v", got, f)
	}

	alloc := buffer.NewAllocator()
	events := &EventQueue{}
	pushInt16Buffer(t, alloc, g.InputPorts()[0], f, []int16{1000, -1000, 0})

	g.Process(alloc, events, 20)

	out := g.OutputPorts()[0]
	if !out.HasBuffer() {
		t.Fatal("Gain did not produce an output buffer")
	}
	got := readInt16Buffer(out.PullBuffer())
	want := []int16{500, -500, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestGainClipsOnOverflow(t *testing.T) {
	f := format.Format{SampleRate: 44100, Channels: 1, SampleType: format.Int16}
	g := NewGain("gain", "gain_0", 10.0)

	alloc := buffer.NewAllocator()
	events := &EventQueue{}
	pushInt16Buffer(t, alloc, g.InputPorts()[0], f, []int16{20000})

	g.Process(alloc, events, 20)

	got := readInt16Buffer(g.OutputPorts()[0].PullBuffer())
	if got[0] != 32767 {
		t.Errorf("clipped sample = %d, want 32767", got[0])
	}
}

func TestGainSetGainCommand(t *testing.T) {
	g := NewGain("gain", "gain_0", 1.0)
	g.ReceiveCommand(SetGainCmd{Gain: 0.25})
	if g.gain != 0.25 {
		t.Errorf("gain = %v, want 0.25", g.gain)
	}
	// An unrelated command type must be ignored, not panic.
	g.ReceiveCommand(loopStartedCmdForTest{})
	if g.gain != 0.25 {
		t.Errorf("gain changed on an unrelated command: %v", g.gain)
	}
}

type loopStartedCmdForTest struct{}

func (loopStartedCmdForTest) isCommand() {}

func TestGainProcessNoopWhenNoInput(t *testing.T) {
	g := NewGain("gain", "gain_0", 1.0)
	alloc := buffer.NewAllocator()
	events := &EventQueue{}
	g.Process(alloc, events, 20)
	if g.OutputPorts()[0].HasBuffer() {
		t.Fatal("Gain produced output with no input buffer available")
	}
}
