package element

import (
	"github.com/drgolem/musictools/internal/audio/buffer"
	"github.com/drgolem/musictools/internal/audio/source"
)

// Queue decouples a producer from a consumer that briefly stalls: it
// accepts one buffer per step into an internal FIFO and emits one
// buffer per step whenever the output port has capacity.
type Queue struct {
	base
	pending []*buffer.Buffer
}

// NewQueue creates an empty Queue.
func NewQueue(name, id string) *Queue {
	q := &Queue{base: newBase("Queue", name, id)}
	q.addInput(NewPort("in"), q)
	q.addOutput(NewPort("out"), q)
	return q
}

// Prepare implements Element.
func (q *Queue) Prepare(loader source.Loader, params PrepareParams) bool {
	q.out[0].SetFormat(q.in[0].Format())
	return true
}

// Process implements Element.
func (q *Queue) Process(alloc *buffer.Allocator, events *EventQueue, ms int) {
	in := q.in[0]
	if in.HasBuffer() {
		q.pending = append(q.pending, in.PullBuffer())
	}

	out := q.out[0]
	if out.HasBuffer() || len(q.pending) == 0 {
		return
	}
	out.PushBuffer(q.pending[0])
	q.pending = q.pending[1:]
}

// Advance implements Element.
func (q *Queue) Advance(ms int) {}

// IsSource implements Element.
func (q *Queue) IsSource() bool { return false }

// IsSourceDone implements Element.
func (q *Queue) IsSourceDone() bool { return false }

// ReceiveCommand implements Element.
func (q *Queue) ReceiveCommand(cmd Command) {}

// DispatchCommand implements Element.
func (q *Queue) DispatchCommand(dest string, cmd Command) bool { return false }

// HandleControl implements Element.
func (q *Queue) HandleControl(msg string) {}

// Shutdown implements Element. Any buffers still queued are released
// back to their allocator.
func (q *Queue) Shutdown() {
	for _, b := range q.pending {
		b.Release()
	}
	q.pending = nil
}
