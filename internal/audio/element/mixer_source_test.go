package element

import (
	"testing"

	"github.com/drgolem/musictools/internal/audio/buffer"
	"github.com/drgolem/musictools/internal/audio/format"
)

func TestMixerSourceAddSourceAndProcess(t *testing.T) {
	f := format.Format{SampleRate: 44100, Channels: 2, SampleType: format.Int16}
	m := NewMixerSource("music", "music_0", true)
	m.Prepare(nil, PrepareParams{})

	z := NewZeroSource("z1", "z1_0", f)
	m.ReceiveCommand(AddSourceCmd{Src: z})

	if len(m.order) != 1 {
		t.Fatalf("children after AddSourceCmd = %d, want 1", len(m.order))
	}

	alloc := buffer.NewAllocator()
	events := &EventQueue{}
	m.Process(alloc, events, 20)

	if !m.OutputPorts()[0].HasBuffer() {
		t.Fatal("MixerSource with one active child produced no output")
	}
}

func TestMixerSourceNeverDoneIgnoresEmptyChildren(t *testing.T) {
	m := NewMixerSource("music", "music_0", true)
	if m.IsSourceDone() {
		t.Fatal("neverDone mixer reports done with no children")
	}
}

func TestMixerSourceDoneWhenEmptyAndNotNeverDone(t *testing.T) {
	m := NewMixerSource("fx", "fx_0", false)
	if !m.IsSourceDone() {
		t.Fatal("non-neverDone mixer with no children should report done")
	}
}

func TestMixerSourcePauseSuppressesChildProcessing(t *testing.T) {
	f := format.Format{SampleRate: 44100, Channels: 2, SampleType: format.Int16}
	m := NewMixerSource("music", "music_0", true)
	m.Prepare(nil, PrepareParams{})

	z := NewZeroSource("z1", "z1_0", f)
	m.ReceiveCommand(AddSourceCmd{Src: z})
	m.ReceiveCommand(PauseSourceCmd{Name: "z1", Paused: true})

	alloc := buffer.NewAllocator()
	events := &EventQueue{}
	m.Process(alloc, events, 20)

	if m.OutputPorts()[0].HasBuffer() {
		t.Fatal("MixerSource produced output from a paused child")
	}
}

func TestMixerSourceDeleteSourceRemovesChild(t *testing.T) {
	f := format.Format{SampleRate: 44100, Channels: 2, SampleType: format.Int16}
	m := NewMixerSource("music", "music_0", true)
	m.Prepare(nil, PrepareParams{})

	z := NewZeroSource("z1", "z1_0", f)
	m.ReceiveCommand(AddSourceCmd{Src: z})
	m.ReceiveCommand(DeleteSourceCmd{Name: "z1", Millisecs: 0})

	if len(m.order) != 0 {
		t.Fatalf("children after synchronous DeleteSourceCmd = %d, want 0", len(m.order))
	}
}

func TestMixerSourceDelayedCommandQueuesUntilAdvance(t *testing.T) {
	f := format.Format{SampleRate: 44100, Channels: 2, SampleType: format.Int16}
	m := NewMixerSource("music", "music_0", true)
	m.Prepare(nil, PrepareParams{})

	z := NewZeroSource("z1", "z1_0", f)
	m.ReceiveCommand(AddSourceCmd{Src: z})
	m.ReceiveCommand(DeleteSourceCmd{Name: "z1", Millisecs: 100})

	if len(m.order) != 1 {
		t.Fatal("delayed delete ran synchronously; it should have queued")
	}

	m.Advance(50)
	if len(m.order) != 1 {
		t.Fatal("delayed delete fired before its delay elapsed")
	}

	m.Advance(60)
	if len(m.order) != 0 {
		t.Fatal("delayed delete did not fire once its delay elapsed")
	}
}

func TestMixerSourceTwoChildrenMixAtGainOne(t *testing.T) {
	f := format.Format{SampleRate: 44100, Channels: 1, SampleType: format.Int16}
	m := NewMixerSource("music", "music_0", true)
	m.Prepare(nil, PrepareParams{})

	z1 := NewZeroSource("z1", "z1_0", f)
	z2 := NewZeroSource("z2", "z2_0", f)
	m.ReceiveCommand(AddSourceCmd{Src: z1})
	m.ReceiveCommand(AddSourceCmd{Src: z2})

	alloc := buffer.NewAllocator()
	events := &EventQueue{}
	m.Process(alloc, events, 20)

	// Both children emit silence, so the sum is still silence; this
	// mainly verifies the two-child mixing path runs without error and
	// produces a correctly sized buffer.
	out := m.OutputPorts()[0]
	if !out.HasBuffer() {
		t.Fatal("MixerSource with two active children produced no output")
	}
	buf := out.PullBuffer()
	wantBytes := f.FramesForMillis(20) * f.FrameSize()
	if buf.ByteSize() != wantBytes {
		t.Errorf("ByteSize() = %d, want %d", buf.ByteSize(), wantBytes)
	}
}
