package element

import (
	"fmt"

	"github.com/drgolem/musictools/internal/audio/buffer"
	"github.com/drgolem/musictools/internal/audio/source"
)

// Splitter fans one input buffer out to N identical outputs: each
// output's bytes and tags are an independent copy of the input's.
type Splitter struct {
	base
}

// NewSplitter creates a Splitter with numOuts output ports named
// "out0".."out<N-1>".
func NewSplitter(name, id string, numOuts int) *Splitter {
	s := &Splitter{base: newBase("Splitter", name, id)}
	s.addInput(NewPort("in"), s)
	for i := 0; i < numOuts; i++ {
		s.addOutput(NewPort(fmt.Sprintf("out%d", i)), s)
	}
	return s
}

// Prepare implements Element.
//
// Each output port keeps its own pre-set format rather than copying the
// input's. This is a no-op in practice since outputs are never given a
// different format, but the behaviour is preserved deliberately, not
// "fixed" to copy the input format.
func (s *Splitter) Prepare(loader source.Loader, params PrepareParams) bool {
	for _, o := range s.out {
		o.SetFormat(o.Format())
	}
	return true
}

// Process implements Element.
func (s *Splitter) Process(alloc *buffer.Allocator, events *EventQueue, ms int) {
	in := s.in[0]
	if !in.HasBuffer() {
		return
	}
	for _, o := range s.out {
		if o.HasBuffer() {
			return
		}
	}

	src := in.PullBuffer()
	defer src.Release()

	for _, o := range s.out {
		dst, err := alloc.Allocate(src.ByteSize())
		if err != nil {
			continue
		}
		dst.SetFormat(src.Format())
		buffer.CopyData(src, dst)
		buffer.CopyInfoTags(src, dst)
		o.PushBuffer(dst)
	}
}

// Advance implements Element.
func (s *Splitter) Advance(ms int) {}

// IsSource implements Element.
func (s *Splitter) IsSource() bool { return false }

// IsSourceDone implements Element.
func (s *Splitter) IsSourceDone() bool { return false }

// ReceiveCommand implements Element.
func (s *Splitter) ReceiveCommand(cmd Command) {}

// DispatchCommand implements Element.
func (s *Splitter) DispatchCommand(dest string, cmd Command) bool { return false }

// HandleControl implements Element.
func (s *Splitter) HandleControl(msg string) {}

// Shutdown implements Element.
func (s *Splitter) Shutdown() {}
