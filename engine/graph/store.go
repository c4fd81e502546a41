// Package graph stores the component catalog in Neo4j as
// (:CatalogComponent)-[:HAS_TERMINAL]->(:Terminal) and loads it back into an
// immutable catalog.Catalog at startup.
package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/WessleyAI/wessley-circuits/engine/catalog"
	"github.com/WessleyAI/wessley-circuits/pkg/fn"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ErrEmptyCatalog is returned when the store holds no components.
var ErrEmptyCatalog = errors.New("graph: catalog is empty")

// result is the minimal interface needed from a neo4j result.
type result interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
}

// runner is the minimal interface needed from a neo4j session.
type runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (result, error)
	Close(ctx context.Context) error
}

type sessionAdapter struct {
	sess neo4j.SessionWithContext
}

func (a *sessionAdapter) Run(ctx context.Context, cypher string, params map[string]any) (result, error) {
	return a.sess.Run(ctx, cypher, params)
}

func (a *sessionAdapter) Close(ctx context.Context) error { return a.sess.Close(ctx) }

// CatalogStore reads and writes the catalog graph.
type CatalogStore struct {
	driver     neo4j.DriverWithContext
	log        *slog.Logger
	newSession func(ctx context.Context) runner // for testing
}

// NewCatalogStore creates a CatalogStore on driver.
func NewCatalogStore(driver neo4j.DriverWithContext, log *slog.Logger) *CatalogStore {
	if log == nil {
		log = slog.Default()
	}
	return &CatalogStore{driver: driver, log: log}
}

func (s *CatalogStore) session(ctx context.Context) runner {
	if s.newSession != nil {
		return s.newSession(ctx)
	}
	return &sessionAdapter{sess: s.driver.NewSession(ctx, neo4j.SessionConfig{})}
}

const saveCatalogCypher = `
UNWIND $components AS c
MERGE (n:CatalogComponent {id: c.id})
SET n.name = c.name, n.category = c.category, n.order = c.order,
    n.requires = c.requires, n.required_by = c.required_by
WITH n, c
UNWIND c.terminals AS t
MERGE (term:Terminal {key: c.id + '/' + t.id})
SET term.id = t.id, term.type = t.type, term.position = t.position, term.color = t.color
MERGE (n)-[r:HAS_TERMINAL]->(term)
SET r.order = t.order`

const loadCatalogCypher = `
MATCH (n:CatalogComponent)
OPTIONAL MATCH (n)-[r:HAS_TERMINAL]->(t:Terminal)
WITH n, r, t ORDER BY n.order, r.order
RETURN n, collect(t) AS terminals
ORDER BY n.order`

// SaveCatalog merges every component and terminal of cat into the graph.
func (s *CatalogStore) SaveCatalog(ctx context.Context, cat *catalog.Catalog) error {
	sess := s.session(ctx)
	defer sess.Close(ctx)

	comps := cat.Components()
	params := make([]map[string]any, 0, len(comps))
	for i, c := range comps {
		params = append(params, componentToMap(c, i))
	}
	if _, err := sess.Run(ctx, saveCatalogCypher, map[string]any{"components": params}); err != nil {
		return fmt.Errorf("graph: save catalog: %w", err)
	}
	s.log.Info("graph: catalog saved", "components", len(comps))
	return nil
}

// LoadCatalog reads the catalog graph. Malformed terminals are skipped.
func (s *CatalogStore) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	sess := s.session(ctx)
	defer sess.Close(ctx)

	res, err := sess.Run(ctx, loadCatalogCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("graph: load catalog: %w", err)
	}

	var comps []catalog.Component
	for res.Next(ctx) {
		c, err := componentFromRecord(res.Record())
		if err != nil {
			return nil, fmt.Errorf("graph: load catalog: %w", err)
		}
		comps = append(comps, c)
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("graph: load catalog: %w", err)
	}
	if len(comps) == 0 {
		return nil, ErrEmptyCatalog
	}
	return catalog.New(comps...)
}

// LoadWithRetry loads the catalog, retrying while the database comes up.
func (s *CatalogStore) LoadWithRetry(ctx context.Context, opts fn.RetryOpts) (*catalog.Catalog, error) {
	attempt := 0
	return fn.Retry(ctx, opts, func(ctx context.Context) fn.Result[*catalog.Catalog] {
		attempt++
		cat, err := s.LoadCatalog(ctx)
		if err != nil {
			s.log.Warn("graph: catalog load failed", "attempt", attempt, "error", err)
		}
		return fn.FromPair(cat, err)
	}).Unwrap()
}
