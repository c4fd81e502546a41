// Package catalog holds the read-only registry of electrical components and
// their terminals. A Catalog is built once at startup and passed by reference
// to the rule engine, synthesizer and validator.
package catalog

import (
	"errors"
	"fmt"
	"sort"
)

// Category groups components by their role in a circuit.
type Category string

const (
	CategoryPower   Category = "power"
	CategoryControl Category = "control"
	CategoryLoad    Category = "load"
	CategoryBackup  Category = "backup"
)

// Side is the display edge of a component a terminal handle sits on.
type Side string

const (
	SideTop    Side = "top"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
	SideRight  Side = "right"
)

// Terminal semantic types.
const (
	TypeLive    = "L"
	TypeNeutral = "N"
	TypeEarth   = "E"
	TypeDCPos   = "DC+"
	TypeDCNeg   = "DC-"
	TypeIn      = "IN"
	TypeOut     = "OUT"
)

var (
	ErrDuplicateComponent = errors.New("catalog: duplicate component id")
	ErrDuplicateTerminal  = errors.New("catalog: duplicate terminal id")
	ErrEmptyComponentID   = errors.New("catalog: empty component id")
)

// Terminal is a connection point on a component.
type Terminal struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Position Side   `json:"position"`
	Color    string `json:"color"`
}

// Component is a catalog entry.
type Component struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Category   Category   `json:"category"`
	Terminals  []Terminal `json:"terminals"`
	Requires   []string   `json:"requires,omitempty"`
	RequiredBy []string   `json:"requiredBy,omitempty"`
}

// Terminal returns the terminal with the given id.
func (c Component) Terminal(id string) (Terminal, bool) {
	for _, t := range c.Terminals {
		if t.ID == id {
			return t, true
		}
	}
	return Terminal{}, false
}

// Catalog is an immutable component registry.
type Catalog struct {
	byID  map[string]Component
	order []string
}

// New builds a Catalog from the given components, preserving their order.
func New(components ...Component) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]Component, len(components))}
	for _, comp := range components {
		if comp.ID == "" {
			return nil, ErrEmptyComponentID
		}
		if _, ok := c.byID[comp.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateComponent, comp.ID)
		}
		seen := make(map[string]bool, len(comp.Terminals))
		for _, t := range comp.Terminals {
			if seen[t.ID] {
				return nil, fmt.Errorf("%w: %s.%s", ErrDuplicateTerminal, comp.ID, t.ID)
			}
			seen[t.ID] = true
		}
		comp.Terminals = append([]Terminal(nil), comp.Terminals...)
		c.byID[comp.ID] = comp
		c.order = append(c.order, comp.ID)
	}
	return c, nil
}

// MustNew is like New but panics on error. Intended for static tables.
func MustNew(components ...Component) *Catalog {
	c, err := New(components...)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the component with the given id. Unknown ids report false
// and callers ignore them.
func (c *Catalog) Lookup(id string) (Component, bool) {
	comp, ok := c.byID[id]
	return comp, ok
}

// Has reports whether id is in the catalog.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Terminal resolves a terminal of a component.
func (c *Catalog) Terminal(componentID, terminalID string) (Terminal, bool) {
	comp, ok := c.byID[componentID]
	if !ok {
		return Terminal{}, false
	}
	return comp.Terminal(terminalID)
}

// Category returns the category of a component, or "" when unknown.
func (c *Catalog) Category(id string) Category {
	return c.byID[id].Category
}

// Components returns all components in catalog order.
func (c *Catalog) Components() []Component {
	out := make([]Component, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// IDs returns all component ids, sorted.
func (c *Catalog) IDs() []string {
	ids := append([]string(nil), c.order...)
	sort.Strings(ids)
	return ids
}

// ByCategory returns the components of one category in catalog order.
func (c *Catalog) ByCategory(cat Category) []Component {
	var out []Component
	for _, id := range c.order {
		if comp := c.byID[id]; comp.Category == cat {
			out = append(out, comp)
		}
	}
	return out
}

// Index returns the catalog position of id, or -1 when unknown.
func (c *Catalog) Index(id string) int {
	for i, cid := range c.order {
		if cid == id {
			return i
		}
	}
	return -1
}

// Len returns the number of components.
func (c *Catalog) Len() int { return len(c.order) }
