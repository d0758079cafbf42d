package element

import (
	"testing"

	"github.com/drgolem/musictools/internal/audio/buffer"
	"github.com/drgolem/musictools/internal/audio/format"
)

func TestPortPushPullBuffer(t *testing.T) {
	p := NewPort("out")
	if p.HasBuffer() {
		t.Fatal("fresh port reports a buffer present")
	}
	if b := p.PullBuffer(); b != nil {
		t.Fatal("PullBuffer on an empty port returned non-nil")
	}

	alloc := buffer.NewAllocator()
	buf, _ := alloc.Allocate(64)

	if !p.PushBuffer(buf) {
		t.Fatal("PushBuffer into an empty port should succeed")
	}
	if !p.HasBuffer() {
		t.Fatal("HasBuffer false after a successful PushBuffer")
	}
	if p.PushBuffer(buf) {
		t.Fatal("PushBuffer into an occupied port should fail")
	}

	got := p.PullBuffer()
	if got != buf {
		t.Fatal("PullBuffer did not return the pushed buffer")
	}
	if p.HasBuffer() {
		t.Fatal("port still reports a buffer after PullBuffer")
	}
}

func TestPortFormat(t *testing.T) {
	p := NewPort("in")
	f := format.Format{SampleRate: 44100, Channels: 2, SampleType: format.Int16}
	p.SetFormat(f)
	if p.Format() != f {
		t.Errorf("Format() = %+v, want %+v", p.Format(), f)
	}
}

type recordingReceiver struct {
	got []string
}

func (r *recordingReceiver) HandleControl(msg string) { r.got = append(r.got, msg) }

func TestPortSendControl(t *testing.T) {
	p := NewPort("in")
	p.SendControl("Shutdown") // no owner, must not panic

	r := &recordingReceiver{}
	p.SetOwner(r)
	p.SendControl("Shutdown")
	if len(r.got) != 1 || r.got[0] != "Shutdown" {
		t.Errorf("got = %v, want one Shutdown message", r.got)
	}
}

func TestPortName(t *testing.T) {
	p := NewPort("left")
	if p.Name() != "left" {
		t.Errorf("Name() = %q, want left", p.Name())
	}
}
