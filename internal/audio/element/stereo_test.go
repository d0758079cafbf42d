package element

import (
	"testing"

	"github.com/drgolem/musictools/internal/audio/buffer"
	"github.com/drgolem/musictools/internal/audio/format"
)

func TestStereoMakerDuplicatesMonoIntoBothChannels(t *testing.T) {
	f := format.Format{SampleRate: 44100, Channels: 1, SampleType: format.Int16}
	s := NewStereoMaker("stereo", "stereo_0", ChannelBoth)
	s.InputPorts()[0].SetFormat(f)
	s.Prepare(nil, PrepareParams{})

	if got := s.OutputPorts()[0].Format().Channels; got != 2 {
		t.Fatalf("output channels = %d, want 2", got)
	}

	alloc := buffer.NewAllocator()
	events := &EventQueue{}
	pushInt16Buffer(t, alloc, s.InputPorts()[0], f, []int16{100})

	s.Process(alloc, events, 20)

	got := readInt16Buffer(s.OutputPorts()[0].PullBuffer())
	want := []int16{100, 100}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestStereoMakerLeftOnlyChannel(t *testing.T) {
	f := format.Format{SampleRate: 44100, Channels: 1, SampleType: format.Int16}
	s := NewStereoMaker("stereo", "stereo_0", ChannelLeft)

	alloc := buffer.NewAllocator()
	events := &EventQueue{}
	pushInt16Buffer(t, alloc, s.InputPorts()[0], f, []int16{100})
	s.Process(alloc, events, 20)

	got := readInt16Buffer(s.OutputPorts()[0].PullBuffer())
	if got[0] != 100 || got[1] != 0 {
		t.Errorf("got %v, want [100 0]", got)
	}
}

func TestStereoMakerPassesStereoThrough(t *testing.T) {
	f := format.Format{SampleRate: 44100, Channels: 2, SampleType: format.Int16}
	s := NewStereoMaker("stereo", "stereo_0", ChannelBoth)

	alloc := buffer.NewAllocator()
	events := &EventQueue{}
	pushInt16Buffer(t, alloc, s.InputPorts()[0], f, []int16{11, 22})
	s.Process(alloc, events, 20)

	got := readInt16Buffer(s.OutputPorts()[0].PullBuffer())
	if got[0] != 11 || got[1] != 22 {
		t.Errorf("got %v, want [11 22]", got)
	}
}

func TestStereoJoinerCombinesLeftRight(t *testing.T) {
	f := format.Format{SampleRate: 44100, Channels: 1, SampleType: format.Int16}
	j := NewStereoJoiner("join", "join_0")
	j.InputPorts()[0].SetFormat(f)
	j.InputPorts()[1].SetFormat(f)
	if !j.Prepare(nil, PrepareParams{}) {
		t.Fatal("Prepare returned false for matching mono inputs")
	}

	alloc := buffer.NewAllocator()
	events := &EventQueue{}
	pushInt16Buffer(t, alloc, j.InputPorts()[0], f, []int16{10})
	pushInt16Buffer(t, alloc, j.InputPorts()[1], f, []int16{20})
	j.Process(alloc, events, 20)

	got := readInt16Buffer(j.OutputPorts()[0].PullBuffer())
	if got[0] != 10 || got[1] != 20 {
		t.Errorf("got %v, want [10 20]", got)
	}
}

func TestStereoJoinerPrepareFailsOnChannelMismatch(t *testing.T) {
	j := NewStereoJoiner("join", "join_0")
	j.InputPorts()[0].SetFormat(format.Format{SampleRate: 44100, Channels: 1, SampleType: format.Int16})
	j.InputPorts()[1].SetFormat(format.Format{SampleRate: 44100, Channels: 2, SampleType: format.Int16})
	if j.Prepare(nil, PrepareParams{}) {
		t.Fatal("Prepare should fail when an input is not mono")
	}
}

func TestStereoJoinerSkipsOnSizeMismatch(t *testing.T) {
	f := format.Format{SampleRate: 44100, Channels: 1, SampleType: format.Int16}
	j := NewStereoJoiner("join", "join_0")

	alloc := buffer.NewAllocator()
	events := &EventQueue{}
	pushInt16Buffer(t, alloc, j.InputPorts()[0], f, []int16{1, 2})
	pushInt16Buffer(t, alloc, j.InputPorts()[1], f, []int16{1})
	j.Process(alloc, events, 20)

	if j.OutputPorts()[0].HasBuffer() {
		t.Fatal("StereoJoiner produced output despite a left/right size mismatch")
	}
}

func TestStereoSplitterSplitsChannels(t *testing.T) {
	f := format.Format{SampleRate: 44100, Channels: 2, SampleType: format.Int16}
	s := NewStereoSplitter("split", "split_0")
	s.InputPorts()[0].SetFormat(f)
	if !s.Prepare(nil, PrepareParams{}) {
		t.Fatal("Prepare returned false for a stereo input")
	}

	alloc := buffer.NewAllocator()
	events := &EventQueue{}
	pushInt16Buffer(t, alloc, s.InputPorts()[0], f, []int16{10, 20})
	s.Process(alloc, events, 20)

	left := readInt16Buffer(s.OutputPorts()[0].PullBuffer())
	right := readInt16Buffer(s.OutputPorts()[1].PullBuffer())
	if left[0] != 10 {
		t.Errorf("left[0] = %d, want 10", left[0])
	}
	if right[0] != 20 {
		t.Errorf("right[0] = %d, want 20", right[0])
	}
}

func TestStereoSplitterPrepareFailsOnMonoInput(t *testing.T) {
	s := NewStereoSplitter("split", "split_0")
	s.InputPorts()[0].SetFormat(format.Format{SampleRate: 44100, Channels: 1, SampleType: format.Int16})
	if s.Prepare(nil, PrepareParams{}) {
		t.Fatal("Prepare should fail for a mono input")
	}
}
