package element

import (
	"github.com/drgolem/musictools/internal/audio/buffer"
	"github.com/drgolem/musictools/internal/audio/source"
)

// Delay passes buffers through unchanged once a countdown of msDelay
// milliseconds, decremented by Advance, reaches zero. Until then Process
// emits nothing.
type Delay struct {
	base
	remainingMs int
}

// NewDelay creates a Delay that starts passing buffers through after
// msDelay milliseconds of Advance calls.
func NewDelay(name, id string, msDelay int) *Delay {
	d := &Delay{base: newBase("Delay", name, id), remainingMs: msDelay}
	d.addInput(NewPort("in"), d)
	d.addOutput(NewPort("out"), d)
	return d
}

// Prepare implements Element.
func (d *Delay) Prepare(loader source.Loader, params PrepareParams) bool {
	d.out[0].SetFormat(d.in[0].Format())
	return true
}

// Process implements Element.
func (d *Delay) Process(alloc *buffer.Allocator, events *EventQueue, ms int) {
	if d.remainingMs > 0 {
		return
	}
	in := d.in[0]
	out := d.out[0]
	if !in.HasBuffer() || out.HasBuffer() {
		return
	}
	out.PushBuffer(in.PullBuffer())
}

// Advance implements Element.
func (d *Delay) Advance(ms int) {
	if d.remainingMs <= 0 {
		return
	}
	d.remainingMs -= ms
	if d.remainingMs < 0 {
		d.remainingMs = 0
	}
}

// IsSource implements Element.
func (d *Delay) IsSource() bool { return false }

// IsSourceDone implements Element.
func (d *Delay) IsSourceDone() bool { return false }

// ReceiveCommand implements Element.
func (d *Delay) ReceiveCommand(cmd Command) {}

// DispatchCommand implements Element.
func (d *Delay) DispatchCommand(dest string, cmd Command) bool { return false }

// HandleControl implements Element.
func (d *Delay) HandleControl(msg string) {}

// Shutdown implements Element.
func (d *Delay) Shutdown() {}
