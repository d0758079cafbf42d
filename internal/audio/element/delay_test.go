package element

import (
	"testing"

	"github.com/drgolem/musictools/internal/audio/buffer"
	"github.com/drgolem/musictools/internal/audio/format"
)

func TestDelayWithholdsUntilCountdownElapses(t *testing.T) {
	f := format.Format{SampleRate: 44100, Channels: 1, SampleType: format.Int16}
	d := NewDelay("delay", "delay_0", 100)
	d.InputPorts()[0].SetFormat(f)
	d.Prepare(nil, PrepareParams{})

	alloc := buffer.NewAllocator()
	events := &EventQueue{}
	pushInt16Buffer(t, alloc, d.InputPorts()[0], f, []int16{1})

	d.Process(alloc, events, 20)
	if d.OutputPorts()[0].HasBuffer() {
		t.Fatal("Delay emitted output before its countdown elapsed")
	}

	d.Advance(60)
	d.Process(alloc, events, 20)
	if d.OutputPorts()[0].HasBuffer() {
		t.Fatal("Delay emitted output before its countdown fully elapsed")
	}

	d.Advance(60)
	d.Process(alloc, events, 20)
	if !d.OutputPorts()[0].HasBuffer() {
		t.Fatal("Delay withheld output after its countdown fully elapsed")
	}
}

func TestDelayRemainingNeverGoesNegative(t *testing.T) {
	d := NewDelay("delay", "delay_0", 50)
	d.Advance(1000)
	if d.remainingMs != 0 {
		t.Errorf("remainingMs = %d, want 0", d.remainingMs)
	}
	d.Advance(10)
	if d.remainingMs != 0 {
		t.Errorf("remainingMs after further Advance = %d, want 0", d.remainingMs)
	}
}
