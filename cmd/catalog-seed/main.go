// Command catalog-seed writes the built-in component catalog into Neo4j so
// the API and workers can load it with CATALOG_SOURCE=neo4j.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/WessleyAI/wessley-circuits/engine/catalog"
	"github.com/WessleyAI/wessley-circuits/engine/graph"
	"github.com/WessleyAI/wessley-circuits/engine/topology"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Config holds the seed target and credentials.
type Config struct {
	Neo4jURL  string
	Neo4jUser string
	Neo4jPass string
	Timeout   time.Duration
}

func main() {
	var cfg Config
	flag.StringVar(&cfg.Neo4jURL, "neo4j", envOr("NEO4J_URL", "neo4j://localhost:7687"), "Neo4j bolt URL")
	flag.StringVar(&cfg.Neo4jUser, "neo4j-user", envOr("NEO4J_USER", "neo4j"), "Neo4j username")
	flag.StringVar(&cfg.Neo4jPass, "neo4j-pass", envOr("NEO4J_PASS", "password"), "Neo4j password")
	flag.DurationVar(&cfg.Timeout, "timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	log := slog.Default()
	if err := run(cfg, catalog.Builtin(), log); err != nil {
		log.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg Config, cat *catalog.Catalog, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := topology.CheckRules(cat, topology.DefaultRules()); err != nil {
		return fmt.Errorf("rule table does not match catalog: %w", err)
	}

	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		return fmt.Errorf("neo4j connect: %w", err)
	}
	defer driver.Close(ctx)
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("neo4j verify: %w", err)
	}

	if err := graph.NewCatalogStore(driver, log).SaveCatalog(ctx, cat); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	log.Info("catalog seeded", "components", cat.Len())
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
