package element

import (
	"github.com/drgolem/musictools/internal/audio/buffer"
	"github.com/drgolem/musictools/internal/audio/source"
)

// PrepareParams carries the engine-wide toggles an element's Prepare
// call needs but that aren't part of its own constructor arguments:
// whether decoded PCM should be cached in memory, and whether whole
// source files should be cached as well.
type PrepareParams struct {
	EnablePCMCaching  bool
	EnableFileCaching bool
}

// Element is the processing-node contract every node in the graph
// implements: identity, ports, and the Prepare/Process/Advance
// lifecycle.
type Element interface {
	ID() string
	Name() string
	Kind() string

	InputPorts() []*Port
	OutputPorts() []*Port

	// Prepare negotiates formats: it must set each output port's format
	// before returning true. Returning false aborts Graph.Prepare.
	Prepare(loader source.Loader, params PrepareParams) bool

	// Process performs one scheduling step, pulling at most one buffer
	// per input port and pushing at most one per output port.
	Process(alloc *buffer.Allocator, events *EventQueue, milliseconds int)

	// Advance propagates real-time elapsed milliseconds, used by Delay
	// and MixerSource's queued commands.
	Advance(milliseconds int)

	IsSource() bool
	IsSourceDone() bool

	ReceiveCommand(cmd Command)
	// DispatchCommand recursively routes cmd to a named child element,
	// returning whether any element in the subtree accepted it.
	DispatchCommand(destName string, cmd Command) bool

	// HandleControl reacts to a port-forwarded control message, namely
	// "Shutdown".
	HandleControl(msg string)

	Shutdown()
}

// EventQueue accumulates events emitted during a Process/Advance pass.
// The caller of Graph.Process (AudioEngine.Update creates one per step)
// owns it and the graph hands it down to each Process by reference; it
// is not safe for concurrent use because the whole graph runs on one
// audio thread.
type EventQueue struct {
	events []Event
}

// Push appends an event to the queue.
func (q *EventQueue) Push(e Event) { q.events = append(q.events, e) }

// Drain returns and clears all queued events.
func (q *EventQueue) Drain() []Event {
	out := q.events
	q.events = nil
	return out
}

// base is embedded by every concrete element to provide the common
// identity fields and port slices: a name and id plus one Port per
// declared pin.
type base struct {
	id   string
	name string
	kind string
	in   []*Port
	out  []*Port
}

func newBase(kind, name, id string) base {
	return base{kind: kind, name: name, id: id}
}

func (b *base) ID() string            { return b.id }
func (b *base) Name() string          { return b.name }
func (b *base) Kind() string          { return b.kind }
func (b *base) InputPorts() []*Port   { return b.in }
func (b *base) OutputPorts() []*Port  { return b.out }

func (b *base) addInput(p *Port, owner controlReceiver) *Port {
	p.SetOwner(owner)
	b.in = append(b.in, p)
	return p
}

func (b *base) addOutput(p *Port, owner controlReceiver) *Port {
	p.SetOwner(owner)
	b.out = append(b.out, p)
	return p
}

func (b *base) port(ports []*Port, name string) *Port {
	for _, p := range ports {
		if p.Name() == name {
			return p
		}
	}
	return nil
}
