// Package graph assembles elements into a directed acyclic processing
// graph, negotiates formats in topological order during Prepare, and
// drives one step per device tick during Process.
//
// Elements are wired by named link rather than hand-assembled per
// track, with explicit stage wiring and slog-reported errors.
package graph

import (
	"fmt"
	"log/slog"

	"github.com/drgolem/musictools/internal/audio/audioerr"
	"github.com/drgolem/musictools/internal/audio/buffer"
	"github.com/drgolem/musictools/internal/audio/element"
	"github.com/drgolem/musictools/internal/audio/source"
)

// Link connects one element's output port to another's input port.
type Link struct {
	SrcElem string
	SrcPort string
	DstElem string
	DstPort string
}

// Graph owns a set of named elements and the links between their ports,
// computes a topological processing order, and exposes the sink
// element's pulled buffers to its caller.
type Graph struct {
	log   *slog.Logger
	elems map[string]element.Element
	order []string // insertion order, for stable iteration before Prepare
	links []Link

	sinkName string
	topo     []string
	prepared bool
}

// New creates an empty Graph. sinkName names the single terminal
// element whose "out" port the caller drains each step.
func New(sinkName string, log *slog.Logger) *Graph {
	if log == nil {
		log = slog.Default()
	}
	return &Graph{log: log, elems: make(map[string]element.Element), sinkName: sinkName}
}

// AddElement registers elem under its own Name(). It is an error to add
// two elements with the same name.
func (g *Graph) AddElement(elem element.Element) error {
	name := elem.Name()
	if _, exists := g.elems[name]; exists {
		return fmt.Errorf("graph: element %q already added", name)
	}
	g.elems[name] = elem
	g.order = append(g.order, name)
	g.prepared = false
	return nil
}

// Link records a port-to-port connection, resolved when Prepare builds
// the topological order.
func (g *Graph) Link(l Link) {
	g.links = append(g.links, l)
	g.prepared = false
}

// Element returns the named element, if present.
func (g *Graph) Element(name string) (element.Element, bool) {
	e, ok := g.elems[name]
	return e, ok
}

// Prepare resolves the topological order, propagates formats along
// every link, and calls Prepare on each element in dependency order.
// Returns audioerr.ErrInvalidGraph for a cycle, a dangling link
// endpoint, or a missing sink.
func (g *Graph) Prepare(loader source.Loader, params element.PrepareParams) error {
	if _, ok := g.elems[g.sinkName]; !ok {
		return fmt.Errorf("graph prepare: %w: sink %q not found", audioerr.ErrInvalidGraph, g.sinkName)
	}

	for _, l := range g.links {
		if _, ok := g.elems[l.SrcElem]; !ok {
			return fmt.Errorf("graph prepare: %w: link source %q not found", audioerr.ErrInvalidGraph, l.SrcElem)
		}
		if _, ok := g.elems[l.DstElem]; !ok {
			return fmt.Errorf("graph prepare: %w: link dest %q not found", audioerr.ErrInvalidGraph, l.DstElem)
		}
	}

	order, err := topoSort(g.order, g.links)
	if err != nil {
		return err
	}
	g.topo = order

	for _, name := range g.topo {
		elem := g.elems[name]
		for _, l := range g.links {
			if l.DstElem != name {
				continue
			}
			srcPort := portByName(g.elems[l.SrcElem].OutputPorts(), l.SrcPort)
			dstPort := portByName(elem.InputPorts(), l.DstPort)
			if srcPort == nil || dstPort == nil {
				return fmt.Errorf("graph prepare: %w: link %s.%s -> %s.%s references unknown port",
					audioerr.ErrInvalidGraph, l.SrcElem, l.SrcPort, l.DstElem, l.DstPort)
			}
			dstPort.SetFormat(srcPort.Format())
		}
		if !elem.Prepare(loader, params) {
			return fmt.Errorf("graph prepare: %w: element %q failed to prepare", audioerr.ErrInvalidGraph, name)
		}
	}

	g.prepared = true
	g.log.Debug("graph prepared", "elements", len(g.elems), "order", g.topo)
	return nil
}

func portByName(ports []*element.Port, name string) *element.Port {
	for _, p := range ports {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// topoSort returns elems ordered so every link's source precedes its
// destination (Kahn's algorithm), or audioerr.ErrInvalidGraph if the
// link set contains a cycle.
func topoSort(elems []string, links []Link) ([]string, error) {
	indegree := make(map[string]int, len(elems))
	adj := make(map[string][]string, len(elems))
	for _, name := range elems {
		indegree[name] = 0
	}
	for _, l := range links {
		adj[l.SrcElem] = append(adj[l.SrcElem], l.DstElem)
		indegree[l.DstElem]++
	}

	var queue []string
	for _, name := range elems {
		if indegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	var order []string
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		order = append(order, name)
		for _, next := range adj[name] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) != len(elems) {
		return nil, fmt.Errorf("graph prepare: %w: cycle detected", audioerr.ErrInvalidGraph)
	}
	return order, nil
}

// Process runs one step of every element in topological order, passing
// the same (allocator, events, milliseconds) to each, then drains and
// returns the sink's pulled buffer (nil if the sink produced nothing
// this step).
func (g *Graph) Process(alloc *buffer.Allocator, events *element.EventQueue, milliseconds int) *buffer.Buffer {
	if !g.prepared {
		return nil
	}
	for _, name := range g.topo {
		g.elems[name].Process(alloc, events, milliseconds)
	}
	sink := g.elems[g.sinkName]
	out := sink.OutputPorts()
	if len(out) == 0 || !out[0].HasBuffer() {
		return nil
	}
	return out[0].PullBuffer()
}

// Advance propagates a real-time tick to every element, used by Delay
// and MixerSource's queued commands.
func (g *Graph) Advance(milliseconds int) {
	for _, name := range g.order {
		g.elems[name].Advance(milliseconds)
	}
}

// Shutdown releases every element's resources.
func (g *Graph) Shutdown() {
	for _, name := range g.order {
		g.elems[name].Shutdown()
	}
}
