// Package domain defines the value types shared by the circuit engine: wire
// types, placed nodes, drawn edges and reference connections. It also acts as
// the validation gate for payloads arriving from the HTTP and NATS surfaces.
package domain

// WireType classifies a conductor by its electrical role.
type WireType string

const (
	WireLive    WireType = "live"
	WireNeutral WireType = "neutral"
	WireEarth   WireType = "earth"
	WireDC      WireType = "dc"
)

// ValidWireTypes is the set of recognised wire types.
var ValidWireTypes = map[WireType]bool{
	WireLive: true, WireNeutral: true, WireEarth: true, WireDC: true,
}

// Position is a 2D canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a placed instance of a catalog component.
type Node struct {
	ID          string   `json:"id"`
	ComponentID string   `json:"componentId"`
	Position    Position `json:"position"`
}

// EdgeStyle carries presentation hints rendered verbatim by the editor.
type EdgeStyle struct {
	Stroke      string `json:"stroke"`
	StrokeWidth int    `json:"strokeWidth"`
	Animated    bool   `json:"animated"`
	Label       string `json:"label"`
}

// Edge is a wire between two terminals (handles) of two nodes.
// Source/target order is not electrically significant.
type Edge struct {
	ID           string     `json:"id"`
	Source       string     `json:"source"`
	SourceHandle string     `json:"sourceHandle"`
	Target       string     `json:"target"`
	TargetHandle string     `json:"targetHandle"`
	WireType     WireType   `json:"wireType,omitempty"`
	Style        *EdgeStyle `json:"style,omitempty"`
}

// ConnectionKey identifies a connection by its four endpoint fields.
type ConnectionKey struct {
	SourceComponent string
	SourceTerminal  string
	TargetComponent string
	TargetTerminal  string
}

// Reversed returns the key with source and target swapped.
func (k ConnectionKey) Reversed() ConnectionKey {
	return ConnectionKey{
		SourceComponent: k.TargetComponent,
		SourceTerminal:  k.TargetTerminal,
		TargetComponent: k.SourceComponent,
		TargetTerminal:  k.SourceTerminal,
	}
}

func (k ConnectionKey) String() string {
	return k.SourceComponent + "." + k.SourceTerminal + "->" + k.TargetComponent + "." + k.TargetTerminal
}

// CorrectConnection is one expected wiring fact of a reference circuit.
type CorrectConnection struct {
	SourceComponent string   `json:"sourceComponent"`
	SourceTerminal  string   `json:"sourceTerminal"`
	TargetComponent string   `json:"targetComponent"`
	TargetTerminal  string   `json:"targetTerminal"`
	WireType        WireType `json:"wireType"`
	Description     string   `json:"description"`
}

// Key returns the canonical key of the connection.
func (c CorrectConnection) Key() ConnectionKey {
	return ConnectionKey{
		SourceComponent: c.SourceComponent,
		SourceTerminal:  c.SourceTerminal,
		TargetComponent: c.TargetComponent,
		TargetTerminal:  c.TargetTerminal,
	}
}
