// Package main implements the circuit API server: catalog listing, diagram
// synthesis and wiring validation over HTTP, plus a gRPC health endpoint.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/WessleyAI/wessley-circuits/engine/catalog"
	"github.com/WessleyAI/wessley-circuits/engine/circuit"
	"github.com/WessleyAI/wessley-circuits/engine/domain"
	"github.com/WessleyAI/wessley-circuits/engine/graph"
	"github.com/WessleyAI/wessley-circuits/pkg/fn"
	"github.com/WessleyAI/wessley-circuits/pkg/metrics"
	"github.com/WessleyAI/wessley-circuits/pkg/mid"
	"github.com/WessleyAI/wessley-circuits/pkg/resilience"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Config holds all environment-based configuration.
type Config struct {
	Port           string
	GRPCPort       string
	MetricsPort    int
	CORSOrigin     string
	RateLimitRPS   float64
	RateLimitBurst int
	CatalogSource  string
	Neo4jURL       string
	Neo4jUser      string
	Neo4jPass      string
	NATSURL        string
	ServiceName    string
}

func loadConfig() Config {
	return Config{
		Port:           envOr("PORT", "8080"),
		GRPCPort:       envOr("GRPC_PORT", "9090"),
		MetricsPort:    envInt("METRICS_PORT", 9091),
		CORSOrigin:     envOr("CORS_ORIGIN", "*"),
		RateLimitRPS:   envFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 40),
		CatalogSource:  envOr("CATALOG_SOURCE", "builtin"),
		Neo4jURL:       envOr("NEO4J_URL", "neo4j://localhost:7687"),
		Neo4jUser:      envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:      envOr("NEO4J_PASS", "password"),
		NATSURL:        os.Getenv("NATS_URL"),
		ServiceName:    envOr("SERVICE_NAME", "circuit-api"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(loadConfig(), logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

// loadCatalog returns the built-in catalog, or the one stored in Neo4j when
// CATALOG_SOURCE=neo4j.
func loadCatalog(ctx context.Context, cfg Config, logger *slog.Logger) (*catalog.Catalog, error) {
	if cfg.CatalogSource != "neo4j" {
		return catalog.Builtin(), nil
	}
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	defer driver.Close(ctx)
	return graph.NewCatalogStore(driver, logger).LoadWithRetry(ctx, fn.DefaultRetry)
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := loadCatalog(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	logger.Info("catalog loaded", "source", cfg.CatalogSource, "components", cat.Len())

	reg := metrics.New()
	opts := circuit.Options{Metrics: reg, Logger: logger, RequestID: mid.RequestIDFrom}

	// --- Optional NATS event publishing ---
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name(cfg.ServiceName))
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Drain()
		opts.Publisher = circuit.NewGuardedPublisher(circuit.NewNATSPublisher(nc), resilience.DefaultBreakerOpts, logger)
		logger.Info("publishing validation events", "subject", circuit.SubjectValidated)
	}

	svc := circuit.New(cat, opts)
	reg.ServeAsync(cfg.MetricsPort, logger)

	// --- gRPC health ---
	grpcSrv, healthSrv := newHealthServer()
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	go func() {
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("grpc server stopped", "err", err)
		}
	}()
	defer grpcSrv.GracefulStop()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newHandler(svc, cfg, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port, "grpc_port", cfg.GRPCPort)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}
	healthSrv.Shutdown()

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// newHealthServer returns a gRPC server exposing the standard health service.
// Status starts as NOT_SERVING until the caller flips it.
func newHealthServer() (*grpc.Server, *health.Server) {
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	grpcSrv := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	return grpcSrv, healthSrv
}

func newHandler(svc *circuit.Service, cfg Config, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/components", handleComponents(svc))
	mux.HandleFunc("POST /api/diagram", handleDiagram(svc, logger))
	mux.HandleFunc("POST /api/validate", handleValidate(svc, logger))

	return mid.Chain(mux,
		mid.Recover(logger),
		mid.RequestID(),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		mid.OTel(cfg.ServiceName),
	)
}

// --- Handlers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ComponentsResponse is the JSON response for GET /api/components.
type ComponentsResponse struct {
	Components []catalog.Component `json:"components"`
}

func handleComponents(svc *circuit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, ComponentsResponse{Components: svc.Catalog().Components()})
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// requestError maps payload validation failures to 400 and anything else to 500.
func requestError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, ve.Error())
		return
	}
	logger.Error("circuit request failed", "err", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func handleDiagram(svc *circuit.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req circuit.SynthesizeRequest
		if !decode(w, r, &req) {
			return
		}
		d, err := svc.Synthesize(r.Context(), req)
		if err != nil {
			requestError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func handleValidate(svc *circuit.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req circuit.ValidateRequest
		if !decode(w, r, &req) {
			return
		}
		res, err := svc.Validate(r.Context(), req)
		if err != nil {
			requestError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
