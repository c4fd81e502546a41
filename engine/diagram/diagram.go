// Package diagram synthesizes an auto-wired diagram for a component
// selection: one node per component and one styled edge per reference
// connection.
package diagram

import (
	"fmt"

	"github.com/WessleyAI/wessley-circuits/engine/domain"
	"github.com/WessleyAI/wessley-circuits/engine/topology"
	"github.com/WessleyAI/wessley-circuits/pkg/fn"
)

// Diagram is a synthesized set of nodes and edges.
type Diagram struct {
	Layout      string                     `json:"layout"`
	Nodes       []domain.Node              `json:"nodes"`
	Edges       []domain.Edge              `json:"edges"`
	Connections []domain.CorrectConnection `json:"connections"`
}

// LayeredLayout names the generic layout in Diagram.Layout.
const LayeredLayout = "layered"

// Synthesizer builds diagrams from a topology engine.
type Synthesizer struct {
	engine  *topology.Engine
	layouts []NamedLayout
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLayouts replaces the named layouts.
func WithLayouts(layouts ...NamedLayout) Option {
	return func(s *Synthesizer) { s.layouts = layouts }
}

// New creates a Synthesizer.
func New(engine *topology.Engine, opts ...Option) *Synthesizer {
	s := &Synthesizer{engine: engine, layouts: DefaultLayouts()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Generate lays out one node per known selected component (node id equals
// component id) and one edge per reference connection. Unknown and repeated
// ids are ignored.
func (s *Synthesizer) Generate(selected []string) Diagram {
	cat := s.engine.Catalog()
	ids := fn.Unique(fn.Filter(selected, cat.Has))
	conns := s.engine.CorrectConnections(ids)

	d := Diagram{Layout: LayeredLayout, Connections: conns}

	var pos map[string]domain.Position
	for _, l := range s.layouts {
		if l.matches(ids) {
			d.Layout = l.Name
			pos = l.Positions
			break
		}
	}
	if pos == nil {
		pos = layeredPositions(cat, ids, conns)
	}

	d.Nodes = fn.Map(ids, func(id string) domain.Node {
		return domain.Node{ID: id, ComponentID: id, Position: pos[id]}
	})

	d.Edges = make([]domain.Edge, 0, len(conns))
	for i, c := range conns {
		style := StyleFor(cat, c)
		d.Edges = append(d.Edges, domain.Edge{
			ID:           EdgeID(i, c),
			Source:       c.SourceComponent,
			SourceHandle: c.SourceTerminal,
			Target:       c.TargetComponent,
			TargetHandle: c.TargetTerminal,
			WireType:     c.WireType,
			Style:        &style,
		})
	}
	return d
}

// EdgeID builds the stable id of the i-th synthesized edge.
func EdgeID(i int, c domain.CorrectConnection) string {
	return fmt.Sprintf("e-%d-%s-%s-%s-%s", i, c.SourceComponent, c.SourceTerminal, c.TargetComponent, c.TargetTerminal)
}
