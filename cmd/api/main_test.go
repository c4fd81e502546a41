package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/WessleyAI/wessley-circuits/engine/catalog"
	"github.com/WessleyAI/wessley-circuits/engine/circuit"
	"github.com/WessleyAI/wessley-circuits/engine/diagram"
	"github.com/WessleyAI/wessley-circuits/engine/validator"
	"github.com/WessleyAI/wessley-circuits/pkg/mid"
)

func testHandler(t *testing.T, cfg Config) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := circuit.New(catalog.Builtin(), circuit.Options{Logger: logger, RequestID: mid.RequestIDFrom})
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "test"
	}
	return newHandler(svc, cfg, logger)
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	h.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(testHandler(t, Config{}), "GET", "/api/health", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(mid.RequestIDHeader) == "" {
		t.Fatal("missing request id header")
	}
}

func TestComponents(t *testing.T) {
	rec := do(testHandler(t, Config{}), "GET", "/api/components", "")
	var resp ComponentsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Components) != 12 || resp.Components[0].ID != catalog.PowerSupply {
		t.Fatalf("unexpected components %+v", resp.Components)
	}
}

func TestDiagramThenValidate(t *testing.T) {
	h := testHandler(t, Config{})
	rec := do(h, "POST", "/api/diagram", `{"components":["power-supply","mcb","distribution-board","switch","regulator","fan"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("diagram: %d %s", rec.Code, rec.Body.String())
	}
	var d diagram.Diagram
	if err := json.NewDecoder(rec.Body).Decode(&d); err != nil {
		t.Fatal(err)
	}
	if d.Layout != "fan-regulator-switch" || len(d.Edges) != 10 {
		t.Fatalf("unexpected diagram layout=%s edges=%d", d.Layout, len(d.Edges))
	}

	body, _ := json.Marshal(circuit.ValidateRequest{Nodes: d.Nodes, Edges: d.Edges[1:]})
	rec = do(h, "POST", "/api/validate", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("validate: %d %s", rec.Code, rec.Body.String())
	}
	raw := rec.Body.Bytes()
	var res validator.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		t.Fatal(err)
	}
	if res.IsValid || res.Score != 9 || res.TotalExpected != 10 || res.Status.Message != validator.MsgMissingLive {
		t.Fatalf("unexpected result %+v", res)
	}
	if !bytes.Contains(raw, []byte(`"circuitStatus"`)) {
		t.Fatal("status should be serialized as circuitStatus")
	}
}

func TestBadRequests(t *testing.T) {
	h := testHandler(t, Config{})
	tests := []struct {
		name, path, body string
		want             string
	}{
		{"malformed diagram body", "/api/diagram", `{`, "invalid request body"},
		{"empty selection", "/api/diagram", `{"components":[]}`, "empty selection"},
		{"malformed validate body", "/api/validate", `nope`, "invalid request body"},
		{"unknown wire type", "/api/validate", `{"nodes":[{"id":"a","componentId":"fan"}],"edges":[{"source":"a","target":"a","wireType":"plasma"}]}`, "unknown wire type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, "POST", tt.path, tt.body)
			if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), tt.want) {
				t.Fatalf("got %d %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(testHandler(t, Config{}), "GET", "/api/validate", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("got %d", rec.Code)
	}
}

func TestRateLimited(t *testing.T) {
	h := testHandler(t, Config{RateLimitRPS: 0.001, RateLimitBurst: 1})
	if rec := do(h, "GET", "/api/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("first request: %d", rec.Code)
	}
	if rec := do(h, "GET", "/api/health", ""); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: %d", rec.Code)
	}
}

func TestGRPCHealth(t *testing.T) {
	grpcSrv, healthSrv := newHealthServer()
	lis := bufconn.Listen(1 << 20)
	go grpcSrv.Serve(lis)
	defer grpcSrv.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING before startup, got %v", resp.Status)
	}

	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	resp, err = client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil || resp.Status != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %v %v", resp, err)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("CIRCUIT_TEST_STR", "x")
	t.Setenv("CIRCUIT_TEST_INT", "7")
	t.Setenv("CIRCUIT_TEST_BAD", "seven")
	t.Setenv("CIRCUIT_TEST_FLOAT", "2.5")
	if envOr("CIRCUIT_TEST_STR", "d") != "x" || envOr("CIRCUIT_TEST_UNSET", "d") != "d" {
		t.Fatal("envOr")
	}
	if envInt("CIRCUIT_TEST_INT", 1) != 7 || envInt("CIRCUIT_TEST_BAD", 1) != 1 {
		t.Fatal("envInt")
	}
	if envFloat("CIRCUIT_TEST_FLOAT", 1) != 2.5 || envFloat("CIRCUIT_TEST_BAD", 1) != 1 {
		t.Fatal("envFloat")
	}
}

func TestLoadCatalogBuiltin(t *testing.T) {
	cat, err := loadCatalog(context.Background(), Config{CatalogSource: "builtin"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil || cat.Len() != 12 {
		t.Fatalf("got %v, %v", cat, err)
	}
}
