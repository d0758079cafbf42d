package element

import (
	"testing"

	"github.com/drgolem/musictools/internal/audio/buffer"
	"github.com/drgolem/musictools/internal/audio/format"
)

func TestPlaylistAdvancesOnSourceDoneTag(t *testing.T) {
	f := format.Format{SampleRate: 44100, Channels: 1, SampleType: format.Int16}
	p := NewPlaylist("playlist", "playlist_0", 2)

	alloc := buffer.NewAllocator()
	events := &EventQueue{}

	pushInt16Buffer(t, alloc, p.InputPorts()[0], f, []int16{1})
	p.Process(alloc, events, 20)
	if !p.OutputPorts()[0].HasBuffer() {
		t.Fatal("Playlist did not forward the first track's buffer")
	}
	p.OutputPorts()[0].PullBuffer()
	if p.current != 0 {
		t.Fatalf("current track = %d, want 0 (no source_done tag yet)", p.current)
	}

	buf, _ := alloc.Allocate(2)
	buf.SetFormat(f)
	buf.SetByteSize(2)
	buf.AddTag(buffer.InfoTag{Source: true, SourceDone: true})
	p.InputPorts()[0].PushBuffer(buf)
	p.Process(alloc, events, 20)
	p.OutputPorts()[0].PullBuffer()

	if p.current != 1 {
		t.Errorf("current track after source_done = %d, want 1", p.current)
	}
}

func TestPlaylistDoneAfterLastTrackFinishes(t *testing.T) {
	f := format.Format{SampleRate: 44100, Channels: 1, SampleType: format.Int16}
	p := NewPlaylist("playlist", "playlist_0", 1)

	alloc := buffer.NewAllocator()
	events := &EventQueue{}

	buf, _ := alloc.Allocate(2)
	buf.SetFormat(f)
	buf.SetByteSize(2)
	buf.AddTag(buffer.InfoTag{Source: true, SourceDone: true})
	p.InputPorts()[0].PushBuffer(buf)

	p.Process(alloc, events, 20)
	p.OutputPorts()[0].PullBuffer()

	if !p.IsSourceDone() {
		t.Fatal("Playlist with one track should report done once that track finishes")
	}
}

func TestPlaylistWaitsWhenCurrentInputEmpty(t *testing.T) {
	p := NewPlaylist("playlist", "playlist_0", 2)
	alloc := buffer.NewAllocator()
	events := &EventQueue{}

	p.Process(alloc, events, 20)
	if p.OutputPorts()[0].HasBuffer() {
		t.Fatal("Playlist produced output with no buffer on the current input")
	}
}
