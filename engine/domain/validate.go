package domain

import (
	"fmt"
	"strings"
)

// Payload limits for the outer surfaces. The engine itself has no limits.
const (
	MaxNodes     = 256
	MaxEdges     = 1024
	MaxSelection = 64
)

// ValidateSelection checks a component selection before synthesis.
// Unknown component ids are not rejected here; the engine ignores them.
func ValidateSelection(ids []string) error {
	if len(ids) == 0 {
		return NewValidationError("components", "", ErrEmptySelection)
	}
	if len(ids) > MaxSelection {
		return NewValidationError("components", fmt.Sprintf("%d", len(ids)), ErrSelectionTooLong)
	}
	for i, id := range ids {
		if strings.TrimSpace(id) == "" {
			return NewValidationError(fmt.Sprintf("components[%d]", i), id, ErrEmptyID)
		}
	}
	return nil
}

// ValidateDiagram checks the structural shape of a user diagram. It does not
// judge the wiring; edges pointing at unknown nodes are tolerated because the
// validator skips them.
func ValidateDiagram(nodes []Node, edges []Edge) error {
	if len(nodes) > MaxNodes {
		return NewValidationError("nodes", fmt.Sprintf("%d", len(nodes)), ErrTooManyNodes)
	}
	if len(edges) > MaxEdges {
		return NewValidationError("edges", fmt.Sprintf("%d", len(edges)), ErrTooManyEdges)
	}

	seen := make(map[string]bool, len(nodes))
	for i, n := range nodes {
		if n.ID == "" {
			return NewValidationError(fmt.Sprintf("nodes[%d].id", i), n.ID, ErrEmptyID)
		}
		if n.ComponentID == "" {
			return NewValidationError(fmt.Sprintf("nodes[%d].componentId", i), n.ComponentID, ErrEmptyID)
		}
		if seen[n.ID] {
			return NewValidationError(fmt.Sprintf("nodes[%d].id", i), n.ID, ErrDuplicateNodeID)
		}
		seen[n.ID] = true
	}

	for i, e := range edges {
		if e.Source == "" || e.Target == "" {
			return NewValidationError(fmt.Sprintf("edges[%d]", i), e.ID, ErrEmptyID)
		}
		// Wire type is a presentation hint; an empty one is allowed.
		if e.WireType != "" && !ValidWireTypes[e.WireType] {
			return NewValidationError(fmt.Sprintf("edges[%d].wireType", i), string(e.WireType), ErrUnknownWireType)
		}
	}
	return nil
}
