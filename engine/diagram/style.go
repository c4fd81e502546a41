package diagram

import (
	"github.com/WessleyAI/wessley-circuits/engine/catalog"
	"github.com/WessleyAI/wessley-circuits/engine/domain"
)

// wireStyles maps each wire type to its stroke. Live wires are thicker and
// animated.
var wireStyles = map[domain.WireType]domain.EdgeStyle{
	domain.WireLive:    {Stroke: "#ef4444", StrokeWidth: 3, Animated: true, Label: "L"},
	domain.WireNeutral: {Stroke: "#3b82f6", StrokeWidth: 2, Label: "N"},
	domain.WireEarth:   {Stroke: "#22c55e", StrokeWidth: 2, Label: "E"},
	domain.WireDC:      {Stroke: "#f59e0b", StrokeWidth: 2, Label: "DC"},
}

// StyleFor returns the presentation hints for a connection. DC wires take
// their polarity label from the source terminal.
func StyleFor(cat *catalog.Catalog, c domain.CorrectConnection) domain.EdgeStyle {
	st, ok := wireStyles[c.WireType]
	if !ok {
		return domain.EdgeStyle{Stroke: "#9ca3af", StrokeWidth: 1}
	}
	if c.WireType == domain.WireDC && cat != nil {
		if t, ok := cat.Terminal(c.SourceComponent, c.SourceTerminal); ok {
			switch t.Type {
			case catalog.TypeDCPos, catalog.TypeDCNeg:
				st.Label = t.Type
			}
		}
	}
	return st
}
