package graph

import (
	"errors"
	"testing"

	"github.com/drgolem/musictools/internal/audio/audioerr"
	"github.com/drgolem/musictools/internal/audio/buffer"
	"github.com/drgolem/musictools/internal/audio/element"
	"github.com/drgolem/musictools/internal/audio/format"
)

func TestGraphPreparePropagatesFormat(t *testing.T) {
	f := format.Format{SampleRate: 44100, Channels: 2, SampleType: format.Int16}
	g := New("gain", nil)

	zero := element.NewZeroSource("zero", "zero_0", f)
	gain := element.NewGain("gain", "gain_0", 1.0)
	if err := g.AddElement(zero); err != nil {
		t.Fatalf("AddElement(zero): %v", err)
	}
	if err := g.AddElement(gain); err != nil {
		t.Fatalf("AddElement(gain): %v", err)
	}
	g.Link(Link{SrcElem: "zero", SrcPort: "out", DstElem: "gain", DstPort: "in"})

	if err := g.Prepare(nil, element.PrepareParams{}); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if got := gain.OutputPorts()[0].Format(); got != f {
		t.Errorf("gain output format = %+v, want %+v", got, f)
	}
}

func TestGraphPrepareMissingSink(t *testing.T) {
	g := New("nonexistent", nil)
	err := g.Prepare(nil, element.PrepareParams{})
	if !errors.Is(err, audioerr.ErrInvalidGraph) {
		t.Fatalf("err = %v, want wrapping ErrInvalidGraph", err)
	}
}

func TestGraphPrepareDanglingLink(t *testing.T) {
	g := New("gain", nil)
	gain := element.NewGain("gain", "gain_0", 1.0)
	g.AddElement(gain)
	g.Link(Link{SrcElem: "missing", SrcPort: "out", DstElem: "gain", DstPort: "in"})

	err := g.Prepare(nil, element.PrepareParams{})
	if !errors.Is(err, audioerr.ErrInvalidGraph) {
		t.Fatalf("err = %v, want wrapping ErrInvalidGraph for a dangling link source", err)
	}
}

func TestGraphPrepareDetectsCycle(t *testing.T) {
	g := New("a", nil)
	a := element.NewGain("a", "a_0", 1.0)
	b := element.NewGain("b", "b_0", 1.0)
	g.AddElement(a)
	g.AddElement(b)
	g.Link(Link{SrcElem: "a", SrcPort: "out", DstElem: "b", DstPort: "in"})
	g.Link(Link{SrcElem: "b", SrcPort: "out", DstElem: "a", DstPort: "in"})

	err := g.Prepare(nil, element.PrepareParams{})
	if !errors.Is(err, audioerr.ErrInvalidGraph) {
		t.Fatalf("err = %v, want wrapping ErrInvalidGraph for a cycle", err)
	}
}

func TestGraphAddElementDuplicateName(t *testing.T) {
	g := New("gain", nil)
	gain1 := element.NewGain("gain", "gain_0", 1.0)
	gain2 := element.NewGain("gain", "gain_1", 1.0)
	if err := g.AddElement(gain1); err != nil {
		t.Fatalf("first AddElement: %v", err)
	}
	if err := g.AddElement(gain2); err == nil {
		t.Fatal("expected an error adding a second element with the same name")
	}
}

func TestGraphProcessDrainsSinkBuffer(t *testing.T) {
	f := format.Format{SampleRate: 44100, Channels: 2, SampleType: format.Int16}
	g := New("gain", nil)
	zero := element.NewZeroSource("zero", "zero_0", f)
	gain := element.NewGain("gain", "gain_0", 1.0)
	g.AddElement(zero)
	g.AddElement(gain)
	g.Link(Link{SrcElem: "zero", SrcPort: "out", DstElem: "gain", DstPort: "in"})

	if err := g.Prepare(nil, element.PrepareParams{}); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	alloc := buffer.NewAllocator()
	events := &element.EventQueue{}
	buf := g.Process(alloc, events, 20)
	if buf == nil {
		t.Fatal("Process returned no buffer from the sink")
	}
	wantBytes := f.FramesForMillis(20) * f.FrameSize()
	if buf.ByteSize() != wantBytes {
		t.Errorf("buf.ByteSize() = %d, want %d", buf.ByteSize(), wantBytes)
	}
}

func TestGraphProcessBeforePrepareReturnsNil(t *testing.T) {
	g := New("gain", nil)
	gain := element.NewGain("gain", "gain_0", 1.0)
	g.AddElement(gain)

	alloc := buffer.NewAllocator()
	events := &element.EventQueue{}
	if buf := g.Process(alloc, events, 20); buf != nil {
		t.Fatal("Process before Prepare should return nil")
	}
}
