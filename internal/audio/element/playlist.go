package element

import (
	"fmt"

	"github.com/drgolem/musictools/internal/audio/buffer"
	"github.com/drgolem/musictools/internal/audio/source"
)

// Playlist pulls from N input ports sequentially: it emits buffers from
// the current port until every source tag on a pulled buffer has its
// source_done flag set, then advances to the next port. Once all ports
// are exhausted it emits nothing.
type Playlist struct {
	base
	current int
	done    bool
}

// NewPlaylist creates a Playlist with numIns input ports named
// "in0".."in<N-1>".
func NewPlaylist(name, id string, numIns int) *Playlist {
	p := &Playlist{base: newBase("Playlist", name, id)}
	for i := 0; i < numIns; i++ {
		p.addInput(NewPort(fmt.Sprintf("in%d", i)), p)
	}
	p.addOutput(NewPort("out"), p)
	return p
}

func allSourceTagsDone(b *buffer.Buffer) bool {
	any := false
	for _, t := range b.InfoTags() {
		if !t.Source {
			continue
		}
		any = true
		if !t.SourceDone {
			return false
		}
	}
	return any
}

// Prepare implements Element.
func (p *Playlist) Prepare(loader source.Loader, params PrepareParams) bool {
	p.out[0].SetFormat(p.in[0].Format())
	return true
}

// Process implements Element.
func (p *Playlist) Process(alloc *buffer.Allocator, events *EventQueue, ms int) {
	out := p.out[0]
	if out.HasBuffer() || p.done {
		return
	}

	for p.current < len(p.in) {
		in := p.in[p.current]
		if !in.HasBuffer() {
			return
		}
		buf := in.PullBuffer()
		if allSourceTagsDone(buf) {
			out.PushBuffer(buf)
			p.current++
			if p.current >= len(p.in) {
				p.done = true
			}
			return
		}
		out.PushBuffer(buf)
		return
	}
	p.done = true
}

// Advance implements Element.
func (p *Playlist) Advance(ms int) {}

// IsSource implements Element.
func (p *Playlist) IsSource() bool { return false }

// IsSourceDone implements Element.
func (p *Playlist) IsSourceDone() bool { return p.done }

// ReceiveCommand implements Element.
func (p *Playlist) ReceiveCommand(cmd Command) {}

// DispatchCommand implements Element.
func (p *Playlist) DispatchCommand(dest string, cmd Command) bool { return false }

// HandleControl implements Element.
func (p *Playlist) HandleControl(msg string) {}

// Shutdown implements Element.
func (p *Playlist) Shutdown() {}
