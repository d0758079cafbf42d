// Package element implements the audio graph's processing nodes: ports,
// the Element contract, the command/event sum types dispatched between
// them, and the full element catalog (FileSource, Mixer, Resampler,
// MixerSource, and the rest of the constructible node types).
package element

import (
	"github.com/drgolem/musictools/internal/audio/buffer"
	"github.com/drgolem/musictools/internal/audio/format"
)

// controlReceiver lets a Port forward string control messages (e.g.
// "Shutdown") to its owning Element without importing the Element
// interface, which would create a cycle with ports living inside
// elements.
type controlReceiver interface {
	HandleControl(msg string)
}

// Port is a typed, single-slot mailbox between two elements. It holds a
// format (set during Graph.Prepare) and at most one buffer at a time.
type Port struct {
	name   string
	format format.Format
	buf    *buffer.Buffer
	owner  controlReceiver
}

// NewPort creates a named, unformatted, empty port.
func NewPort(name string) *Port {
	return &Port{name: name}
}

// Name returns the port's name, unique among an element's ports of the
// same direction (e.g. "left"/"right" for StereoSplitter's outputs).
func (p *Port) Name() string { return p.name }

// Format returns the port's negotiated format.
func (p *Port) Format() format.Format { return p.format }

// SetFormat sets the port's format, normally done once during Prepare.
func (p *Port) SetFormat(f format.Format) { p.format = f }

// SetOwner registers the element a "Shutdown" (or other) control
// message should be forwarded to.
func (p *Port) SetOwner(owner controlReceiver) { p.owner = owner }

// HasBuffer reports whether the port currently holds a buffer.
func (p *Port) HasBuffer() bool { return p.buf != nil }

// PushBuffer installs buf in the port's slot. It returns false and
// leaves the port unchanged if the slot is already occupied.
func (p *Port) PushBuffer(buf *buffer.Buffer) bool {
	if p.buf != nil {
		return false
	}
	p.buf = buf
	return true
}

// PullBuffer empties the port's slot and returns what was in it, or nil
// if the port was empty.
func (p *Port) PullBuffer() *buffer.Buffer {
	b := p.buf
	p.buf = nil
	return b
}

// SendControl forwards a control message (e.g. "Shutdown") to the
// port's owning element, if one has been registered.
func (p *Port) SendControl(msg string) {
	if p.owner != nil {
		p.owner.HandleControl(msg)
	}
}
