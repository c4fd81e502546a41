// Package topology maps a component selection to its reference circuit: the
// ordered list of connections a correctly wired circuit must contain.
//
// The mapping is a declarative rule table. Every rule whose required
// components are all selected (and whose guard holds) contributes its
// connection templates, in table order.
package topology

import (
	"errors"
	"fmt"

	"github.com/WessleyAI/wessley-circuits/engine/catalog"
	"github.com/WessleyAI/wessley-circuits/engine/domain"
	"github.com/WessleyAI/wessley-circuits/pkg/fn"
)

// ErrUnresolved marks a rule template that references an unknown component
// or terminal.
var ErrUnresolved = errors.New("topology: unresolved connection")

// Selection is a set of selected component ids.
type Selection map[string]bool

// NewSelection builds a Selection from ids.
func NewSelection(ids ...string) Selection {
	s := make(Selection, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

// Has reports whether id is selected.
func (s Selection) Has(id string) bool { return s[id] }

// HasAll reports whether every id is selected.
func (s Selection) HasAll(ids ...string) bool {
	for _, id := range ids {
		if !s[id] {
			return false
		}
	}
	return true
}

// HasAny reports whether at least one id is selected.
func (s Selection) HasAny(ids ...string) bool {
	for _, id := range ids {
		if s[id] {
			return true
		}
	}
	return false
}

// Unresolved describes a template the engine dropped.
type Unresolved struct {
	Rule       string
	Connection domain.CorrectConnection
	Reason     string
}

func (u Unresolved) Error() string {
	return fmt.Sprintf("%s: rule %s: %s: %s", ErrUnresolved, u.Rule, u.Connection.Key(), u.Reason)
}

func (u Unresolved) Unwrap() error { return ErrUnresolved }

// Engine evaluates a rule table against selections. It is immutable and safe
// for concurrent use.
type Engine struct {
	catalog *catalog.Catalog
	rules   []Rule
	dropped []Unresolved
}

// New creates an Engine over cat. With no rules, DefaultRules is used.
// Templates that do not resolve against cat are dropped, not fatal.
func New(cat *catalog.Catalog, rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	e := &Engine{catalog: cat}
	for _, r := range rules {
		kept := r
		kept.Connections = nil
		for _, c := range r.Connections {
			if u, bad := resolve(cat, r.Name, c); bad {
				e.dropped = append(e.dropped, u)
				continue
			}
			kept.Connections = append(kept.Connections, c)
		}
		e.rules = append(e.rules, kept)
	}
	return e
}

// Catalog returns the catalog the engine was built with.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Rules returns a copy of the resolved rule table.
func (e *Engine) Rules() []Rule { return append([]Rule(nil), e.rules...) }

// Dropped returns the templates removed at construction.
func (e *Engine) Dropped() []Unresolved { return append([]Unresolved(nil), e.dropped...) }

// CorrectConnections returns the reference circuit for the selected ids.
// Unknown ids are ignored. Output order follows the rule table.
func (e *Engine) CorrectConnections(selected []string) []domain.CorrectConnection {
	known := fn.Filter(selected, e.catalog.Has)
	return e.ForSelection(NewSelection(known...))
}

// ForSelection evaluates the rule table against sel.
func (e *Engine) ForSelection(sel Selection) []domain.CorrectConnection {
	var out []domain.CorrectConnection
	for _, r := range e.rules {
		if r.Applies(sel) {
			out = append(out, r.Connections...)
		}
	}
	return fn.UniqueBy(out, domain.CorrectConnection.Key)
}

// CheckRules reports every template in rules that does not resolve against cat.
func CheckRules(cat *catalog.Catalog, rules []Rule) error {
	var errs []error
	for _, r := range rules {
		for _, c := range r.Connections {
			if u, bad := resolve(cat, r.Name, c); bad {
				errs = append(errs, u)
			}
		}
	}
	return errors.Join(errs...)
}

func resolve(cat *catalog.Catalog, rule string, c domain.CorrectConnection) (Unresolved, bool) {
	u := Unresolved{Rule: rule, Connection: c}
	switch {
	case !domain.ValidWireTypes[c.WireType]:
		u.Reason = fmt.Sprintf("unknown wire type %q", c.WireType)
	case c.SourceComponent == c.TargetComponent:
		u.Reason = "source and target are the same component"
	case !cat.Has(c.SourceComponent):
		u.Reason = fmt.Sprintf("unknown component %q", c.SourceComponent)
	case !cat.Has(c.TargetComponent):
		u.Reason = fmt.Sprintf("unknown component %q", c.TargetComponent)
	default:
		if _, ok := cat.Terminal(c.SourceComponent, c.SourceTerminal); !ok {
			u.Reason = fmt.Sprintf("unknown terminal %q", c.SourceTerminal)
		} else if _, ok := cat.Terminal(c.TargetComponent, c.TargetTerminal); !ok {
			u.Reason = fmt.Sprintf("unknown terminal %q", c.TargetTerminal)
		} else {
			return u, false
		}
	}
	return u, true
}
