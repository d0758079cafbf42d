package element

import (
	"github.com/drgolem/musictools/internal/audio/buffer"
	"github.com/drgolem/musictools/internal/audio/format"
	"github.com/drgolem/musictools/internal/audio/source"
)

// ZeroSource emits a zero-filled (silent) buffer every step. It is never
// done; useful as a placeholder child or for testing downstream mixing.
type ZeroSource struct {
	base
	format format.Format
}

// NewZeroSource creates a ZeroSource producing f-formatted silence.
func NewZeroSource(name, id string, f format.Format) *ZeroSource {
	z := &ZeroSource{base: newBase("ZeroSource", name, id), format: f}
	z.addOutput(NewPort("out"), z)
	return z
}

// Prepare implements Element.
func (z *ZeroSource) Prepare(loader source.Loader, params PrepareParams) bool {
	z.out[0].SetFormat(z.format)
	return true
}

// Process implements Element.
func (z *ZeroSource) Process(alloc *buffer.Allocator, events *EventQueue, ms int) {
	out := z.out[0]
	if out.HasBuffer() {
		return
	}
	frames := z.format.FramesForMillis(ms)
	size := frames * z.format.FrameSize()
	buf, err := alloc.Allocate(size)
	if err != nil {
		return
	}
	buf.SetFormat(z.format)
	for i := range buf.Raw()[:size] {
		buf.Raw()[i] = 0
	}
	buf.SetByteSize(size)
	buf.AddTag(buffer.InfoTag{ElementID: z.id, ElementName: z.name, Source: true})
	out.PushBuffer(buf)
}

// Advance implements Element.
func (z *ZeroSource) Advance(ms int) {}

// IsSource implements Element.
func (z *ZeroSource) IsSource() bool { return true }

// IsSourceDone implements Element.
func (z *ZeroSource) IsSourceDone() bool { return false }

// ReceiveCommand implements Element.
func (z *ZeroSource) ReceiveCommand(cmd Command) {}

// DispatchCommand implements Element.
func (z *ZeroSource) DispatchCommand(dest string, cmd Command) bool { return false }

// HandleControl implements Element.
func (z *ZeroSource) HandleControl(msg string) {}

// Shutdown implements Element.
func (z *ZeroSource) Shutdown() {}
