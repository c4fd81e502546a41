// Command validator-worker serves circuit validation and synthesis over NATS
// request/reply and publishes a validated event for every check.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/WessleyAI/wessley-circuits/engine/catalog"
	"github.com/WessleyAI/wessley-circuits/engine/circuit"
	"github.com/WessleyAI/wessley-circuits/engine/graph"
	"github.com/WessleyAI/wessley-circuits/pkg/fn"
	"github.com/WessleyAI/wessley-circuits/pkg/metrics"
	"github.com/WessleyAI/wessley-circuits/pkg/natsutil"
	"github.com/WessleyAI/wessley-circuits/pkg/resilience"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Config holds all environment-based configuration.
type Config struct {
	NATSURL       string
	Queue         string
	MetricsPort   int
	CatalogSource string
	Neo4jURL      string
	Neo4jUser     string
	Neo4jPass     string
}

func loadConfig() Config {
	port, err := strconv.Atoi(os.Getenv("METRICS_PORT"))
	if err != nil {
		port = 9092
	}
	return Config{
		NATSURL:       envOr("NATS_URL", nats.DefaultURL),
		Queue:         envOr("NATS_QUEUE", "circuit-workers"),
		MetricsPort:   port,
		CatalogSource: envOr("CATALOG_SOURCE", "builtin"),
		Neo4jURL:      envOr("NEO4J_URL", "neo4j://localhost:7687"),
		Neo4jUser:     envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:     envOr("NEO4J_PASS", "password"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(loadConfig(), logger); err != nil {
		logger.Error("worker exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat := catalog.Builtin()
	if cfg.CatalogSource == "neo4j" {
		driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
		if err != nil {
			return fmt.Errorf("neo4j driver: %w", err)
		}
		cat, err = graph.NewCatalogStore(driver, logger).LoadWithRetry(ctx, fn.DefaultRetry)
		driver.Close(ctx)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
	}

	nc, err := nats.Connect(cfg.NATSURL,
		nats.Name("circuit-validator-worker"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Drain()

	reg := metrics.New()
	reg.ServeAsync(cfg.MetricsPort, logger)

	svc := circuit.New(cat, circuit.Options{
		Publisher: circuit.NewGuardedPublisher(circuit.NewNATSPublisher(nc), resilience.DefaultBreakerOpts, logger),
		Metrics:   reg,
		Logger:    logger,
		RequestID: natsutil.RequestIDFrom,
	})
	if _, err := svc.Serve(nc, cfg.Queue); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	logger.Info("validator worker ready",
		"subjects", []string{circuit.SubjectValidate, circuit.SubjectSynthesize},
		"queue", cfg.Queue,
		"components", cat.Len(),
	)

	<-ctx.Done()
	logger.Info("shutdown signal received")
	return nil
}
