// Package validator scores a user-drawn wiring against the reference circuit
// of the placed components and derives the circuit's health.
//
// Wires are undirected: a user edge matches a reference connection drawn in
// either direction. An edge between two terminals of the same node is a
// short circuit and is never matched.
package validator

import (
	"fmt"
	"strings"

	"github.com/WessleyAI/wessley-circuits/engine/domain"
	"github.com/WessleyAI/wessley-circuits/engine/topology"
)

// ShortCircuitMarker prefixes every short-circuit diagnostic.
const ShortCircuitMarker = "SHORT CIRCUIT"

// IncorrectKind classifies an incorrect edge.
type IncorrectKind string

const (
	KindShortCircuit IncorrectKind = "short_circuit"
	KindMiswired     IncorrectKind = "miswired"
	KindInvalid      IncorrectKind = "invalid"
)

// IncorrectEdge is a user edge that matches no reference connection.
type IncorrectEdge struct {
	Edge       domain.Edge               `json:"edge"`
	Kind       IncorrectKind             `json:"kind"`
	Reason     string                    `json:"reason"`
	Suggestion *domain.CorrectConnection `json:"suggestion,omitempty"`
}

// Result is the outcome of validating a user diagram. CorrectEdges lists
// every matching edge, duplicates included, while Score counts each matched
// reference connection once, so Score never exceeds TotalExpected.
type Result struct {
	IsValid             bool                       `json:"isValid"`
	Connections         []domain.CorrectConnection `json:"connections"`
	CorrectEdges        []domain.Edge              `json:"correctEdges"`
	IncorrectEdges      []IncorrectEdge            `json:"incorrectEdges"`
	MissingConnections  []domain.CorrectConnection `json:"missingConnections"`
	Score               int                        `json:"score"`
	TotalExpected       int                        `json:"totalExpected"`
	ShortCircuits       int                        `json:"shortCircuits"`
	DuplicateComponents []string                   `json:"duplicateComponents,omitempty"`
	Status              CircuitStatus              `json:"circuitStatus"`
}

// Validator matches user edges against the topology engine's reference
// circuit. It holds no mutable state.
type Validator struct {
	engine *topology.Engine
}

// New creates a Validator.
func New(engine *topology.Engine) *Validator {
	return &Validator{engine: engine}
}

// IsShortCircuit reports whether a diagnostic reason denotes a short circuit.
func IsShortCircuit(reason string) bool {
	return strings.HasPrefix(reason, ShortCircuitMarker)
}

// Validate scores edges against the reference circuit of the components
// placed in nodes. Edges naming unknown nodes are skipped.
func (v *Validator) Validate(edges []domain.Edge, nodes []domain.Node) Result {
	componentOf := make(map[string]string, len(nodes))
	var placed []string
	perComponent := make(map[string]int)
	for _, n := range nodes {
		componentOf[n.ID] = n.ComponentID
		if perComponent[n.ComponentID] == 0 {
			placed = append(placed, n.ComponentID)
		}
		perComponent[n.ComponentID]++
	}

	conns := v.engine.CorrectConnections(placed)
	index := make(map[domain.ConnectionKey]int, len(conns))
	for i, c := range conns {
		index[c.Key()] = i
	}

	res := Result{
		Connections:    conns,
		CorrectEdges:   []domain.Edge{},
		IncorrectEdges: []IncorrectEdge{},
		TotalExpected:  len(conns),
	}
	for _, id := range placed {
		if perComponent[id] > 1 {
			res.DuplicateComponents = append(res.DuplicateComponents, id)
		}
	}

	found := make(map[domain.ConnectionKey]bool, len(conns))
	for _, e := range edges {
		src, okSrc := componentOf[e.Source]
		dst, okDst := componentOf[e.Target]
		if !okSrc || !okDst {
			continue
		}

		if e.Source == e.Target {
			res.ShortCircuits++
			reason := fmt.Sprintf("%s: %s.%s is wired to %s.%s on the same component",
				ShortCircuitMarker, src, e.SourceHandle, dst, e.TargetHandle)
			res.IncorrectEdges = append(res.IncorrectEdges, IncorrectEdge{Edge: e, Kind: KindShortCircuit, Reason: reason})
			continue
		}

		key := domain.ConnectionKey{
			SourceComponent: src,
			SourceTerminal:  e.SourceHandle,
			TargetComponent: dst,
			TargetTerminal:  e.TargetHandle,
		}
		i, ok := index[key]
		if !ok {
			i, ok = index[key.Reversed()]
		}
		if ok {
			res.CorrectEdges = append(res.CorrectEdges, e)
			found[conns[i].Key()] = true
			continue
		}
		res.IncorrectEdges = append(res.IncorrectEdges, diagnose(e, key, conns))
	}

	res.MissingConnections = []domain.CorrectConnection{}
	for _, c := range conns {
		if !found[c.Key()] {
			res.MissingConnections = append(res.MissingConnections, c)
		}
	}

	// Duplicate edges for one connection score once, so Score never exceeds
	// TotalExpected.
	res.Score = len(found)
	res.IsValid = len(res.IncorrectEdges) == 0 && len(res.MissingConnections) == 0
	res.Status = EvaluateStatus(placed, res.MissingConnections, len(res.IncorrectEdges))
	return res
}

// diagnose explains an unmatched edge by pointing at the reference
// connection that shares its source terminal, or failing that its target
// terminal.
func diagnose(e domain.Edge, key domain.ConnectionKey, conns []domain.CorrectConnection) IncorrectEdge {
	for _, c := range conns {
		if c.SourceTerminal == key.SourceTerminal {
			return IncorrectEdge{
				Edge:       e,
				Kind:       KindMiswired,
				Reason:     fmt.Sprintf("%s.%s should connect to %s.%s", key.SourceComponent, key.SourceTerminal, c.TargetComponent, c.TargetTerminal),
				Suggestion: &c,
			}
		}
	}
	for _, c := range conns {
		if c.TargetTerminal == key.TargetTerminal {
			return IncorrectEdge{
				Edge:       e,
				Kind:       KindMiswired,
				Reason:     fmt.Sprintf("%s.%s should be fed from %s.%s", key.TargetComponent, key.TargetTerminal, c.SourceComponent, c.SourceTerminal),
				Suggestion: &c,
			}
		}
	}
	return IncorrectEdge{
		Edge:   e,
		Kind:   KindInvalid,
		Reason: fmt.Sprintf("invalid connection: %s.%s to %s.%s", key.SourceComponent, key.SourceTerminal, key.TargetComponent, key.TargetTerminal),
	}
}
