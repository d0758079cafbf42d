package element

import (
	"github.com/drgolem/musictools/internal/audio/buffer"
	"github.com/drgolem/musictools/internal/audio/format"
	"github.com/drgolem/musictools/internal/audio/source"
)

// child wraps one MixerSource entry: its element, active/paused state,
// and an optional per-source fade effect.
type child struct {
	name    string
	elem    Element
	paused  bool
	effect  *FadeEnvelope
	clockMs float64
	hasDone bool
}

// queuedCmd is a scheduled mutation awaiting its millisecs delay.
type queuedCmd struct {
	cmd      Command
	remainMs int
}

// MixerSource is a composite source: to its own graph it looks like one
// element, but it owns an insertion-ordered set of named child elements
// that it drives, mixes, and fades internally. Used by AudioEngine for
// the music and effects tracks.
//
// Children mix at gain 1.0, not 1/N, so overlapping children fade
// rather than averaging into reduced loudness. Commands with a zero
// delay run synchronously; others queue and tick down via Advance.
type MixerSource struct {
	base

	order     []string
	children  map[string]*child
	queued    []queuedCmd
	neverDone bool

	outFormat format.Format
}

// NewMixerSource creates an empty MixerSource. neverDone forces
// IsSourceDone to always report false, used for the engine's
// long-lived music/effects tracks.
func NewMixerSource(name, id string, neverDone bool) *MixerSource {
	m := &MixerSource{
		base:      newBase("MixerSource", name, id),
		children:  make(map[string]*child),
		neverDone: neverDone,
	}
	m.addOutput(NewPort("out"), m)
	return m
}

// Prepare implements Element. A MixerSource with no children yet still
// prepares successfully; its output format is fixed by the first child
// attached via AddSourceCmd and re-validated against later children.
func (m *MixerSource) Prepare(loader source.Loader, params PrepareParams) bool {
	for _, name := range m.order {
		c := m.children[name]
		if !c.elem.Prepare(loader, params) {
			return false
		}
		f := c.elem.OutputPorts()[0].Format()
		if !m.outFormat.IsValid() {
			m.outFormat = f
		} else if f != m.outFormat {
			return false
		}
	}
	if m.outFormat.IsValid() {
		m.out[0].SetFormat(m.outFormat)
	}
	return true
}

// prepareChild runs Prepare on a newly added child against the mixer's
// already-established format (or establishes it, if this is the first
// child ever attached).
func (m *MixerSource) prepareChild(c *child, loader source.Loader, params PrepareParams) bool {
	if !c.elem.Prepare(loader, params) {
		return false
	}
	f := c.elem.OutputPorts()[0].Format()
	if !m.outFormat.IsValid() {
		m.outFormat = f
		m.out[0].SetFormat(f)
	} else if f != m.outFormat {
		return false
	}
	return true
}

// Process implements Element.
func (m *MixerSource) Process(alloc *buffer.Allocator, events *EventQueue, ms int) {
	out := m.out[0]
	if out.HasBuffer() {
		return
	}

	var bufs []*buffer.Buffer
	var names []string

	for _, name := range m.order {
		c := m.children[name]
		if c.paused || c.hasDone {
			continue
		}
		c.elem.Process(alloc, events, ms)
		port := c.elem.OutputPorts()[0]
		if !port.HasBuffer() {
			continue
		}
		buf := port.PullBuffer()

		if c.effect != nil {
			width := m.outFormat.SampleType.BytesPerSample()
			frames := buf.ByteSize() / (width * m.outFormat.Channels)
			raw := buf.Raw()
			for i := 0; i < frames; i++ {
				gain := c.effect.GainAt(c.clockMs)
				off := i * width * m.outFormat.Channels
				ApplyGain(raw[off:off+width*m.outFormat.Channels], width*m.outFormat.Channels, m.outFormat.SampleType, gain)
				c.clockMs += 1000 / float64(m.outFormat.SampleRate)
			}
			if c.effect.IsDone(c.clockMs) {
				events.Push(EffectDoneEvent{Mixer: m.name, Src: name, Effect: c.effect.Kind})
				c.effect = nil
			}
		}

		bufs = append(bufs, buf)
		names = append(names, name)
	}

	for _, name := range names {
		c := m.children[name]
		if c.elem.IsSourceDone() {
			c.hasDone = true
		}
	}

	switch len(bufs) {
	case 0:
		// nothing to push
	case 1:
		out.PushBuffer(bufs[0])
	default:
		size := bufs[0].ByteSize()
		for _, b := range bufs[1:] {
			if b.ByteSize() > size {
				size = b.ByteSize()
			}
		}
		dst, err := alloc.Allocate(size)
		if err == nil {
			dst.SetFormat(m.outFormat)
			mixBuffersGain(bufs, dst.Raw()[:size], m.outFormat.SampleType, 1.0)
			dst.SetByteSize(size)
			for _, b := range bufs {
				buffer.CopyInfoTags(b, dst)
			}
			out.PushBuffer(dst)
		}
		for _, b := range bufs {
			b.Release()
		}
	}

	m.reapDoneChildren(events)
}

// mixBuffersGain is mixBuffers generalized to an arbitrary gain and
// buffers of possibly differing byte sizes (shorter buffers simply stop
// contributing once exhausted).
func mixBuffersGain(bufs []*buffer.Buffer, dst []byte, st format.SampleType, gain float64) {
	width := st.BytesPerSample()
	n := len(dst) / width
	for i := 0; i < n; i++ {
		off := i * width
		var acc float64
		for _, b := range bufs {
			raw := b.Bytes()
			if off+width > len(raw) {
				continue
			}
			acc += readSample(raw[off:], st)
		}
		writeSampleClipped(dst[off:], st, acc*gain)
	}
}

func (m *MixerSource) reapDoneChildren(events *EventQueue) {
	kept := m.order[:0]
	for _, name := range m.order {
		c := m.children[name]
		if c.hasDone {
			c.elem.Shutdown()
			delete(m.children, name)
			events.Push(SourceDoneEvent{Mixer: m.name, Src: name})
			continue
		}
		kept = append(kept, name)
	}
	m.order = kept
}

// Advance implements Element: ticks down queued command delays,
// executes any that reach zero, and advances every active child plus
// any child currently paused (so a Delay-backed child keeps its own
// real-time clock while paused).
func (m *MixerSource) Advance(ms int) {
	var ready []Command
	remaining := m.queued[:0]
	for _, q := range m.queued {
		q.remainMs -= ms
		if q.remainMs <= 0 {
			ready = append(ready, q.cmd)
			continue
		}
		remaining = append(remaining, q)
	}
	m.queued = remaining
	for _, cmd := range ready {
		m.applyCommand(cmd)
	}
	for _, name := range m.order {
		m.children[name].elem.Advance(ms)
	}
}

// ReceiveCommand implements Element. Commands whose delay is 0 run
// synchronously; otherwise they are queued for Advance to apply later.
func (m *MixerSource) ReceiveCommand(cmd Command) {
	delay := commandDelay(cmd)
	if delay <= 0 {
		m.applyCommand(cmd)
		return
	}
	m.queued = append(m.queued, queuedCmd{cmd: cmd, remainMs: delay})
}

func commandDelay(cmd Command) int {
	switch c := cmd.(type) {
	case DeleteSourceCmd:
		return c.Millisecs
	case DeleteAllSrcCmd:
		return c.Millisecs
	case PauseSourceCmd:
		return c.Millisecs
	}
	return 0
}

func (m *MixerSource) applyCommand(cmd Command) {
	switch c := cmd.(type) {
	case AddSourceCmd:
		m.addChild(c.Src, c.Paused)
	case DeleteSourceCmd:
		m.removeChild(c.Name)
	case DeleteAllSrcCmd:
		for _, name := range append([]string(nil), m.order...) {
			m.removeChild(name)
		}
	case PauseSourceCmd:
		if ch, ok := m.children[c.Name]; ok {
			ch.paused = c.Paused
		}
	case CancelSourceCmdCmd:
		kept := m.queued[:0]
		for _, q := range m.queued {
			if named, ok := commandTarget(q.cmd); ok && named == c.Name {
				continue
			}
			kept = append(kept, q)
		}
		m.queued = kept
	case SetEffectCmd:
		if ch, ok := m.children[c.Src]; ok {
			ch.effect = &FadeEnvelope{Kind: c.Effect, StartMs: c.Time, DurationMs: c.Duration}
			ch.clockMs = 0
		}
	case SetGainCmd:
		// gain at the terminal stage is the engine's concern, not a
		// per-child mixer operation; ignored here.
	}
}

func commandTarget(cmd Command) (string, bool) {
	switch c := cmd.(type) {
	case DeleteSourceCmd:
		return c.Name, true
	case PauseSourceCmd:
		return c.Name, true
	}
	return "", false
}

func (m *MixerSource) addChild(elem Element, paused bool) {
	name := elem.Name()
	c := &child{name: name, elem: elem, paused: paused}
	m.children[name] = c
	m.order = append(m.order, name)
	if !m.prepareChild(c, source.DefaultLoader{}, PrepareParams{}) {
		m.removeChild(name)
	}
}

func (m *MixerSource) removeChild(name string) {
	c, ok := m.children[name]
	if !ok {
		return
	}
	c.elem.Shutdown()
	delete(m.children, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// DispatchCommand implements Element: tries a direct child by name
// first, then recurses into every child (composite sources nest).
func (m *MixerSource) DispatchCommand(dest string, cmd Command) bool {
	if dest == m.name {
		m.ReceiveCommand(cmd)
		return true
	}
	if c, ok := m.children[dest]; ok {
		c.elem.ReceiveCommand(cmd)
		return true
	}
	for _, name := range m.order {
		if m.children[name].elem.DispatchCommand(dest, cmd) {
			return true
		}
	}
	return false
}

// IsSource implements Element.
func (m *MixerSource) IsSource() bool { return true }

// IsSourceDone implements Element. A never_done mixer (the engine's
// music/effects tracks) reports false regardless of child state.
func (m *MixerSource) IsSourceDone() bool {
	if m.neverDone {
		return false
	}
	return len(m.order) == 0
}

// HandleControl implements Element.
func (m *MixerSource) HandleControl(msg string) {
	if msg == "Shutdown" {
		m.Shutdown()
	}
}

// Shutdown implements Element.
func (m *MixerSource) Shutdown() {
	for _, name := range m.order {
		m.children[name].elem.Shutdown()
	}
	m.children = make(map[string]*child)
	m.order = nil
}
