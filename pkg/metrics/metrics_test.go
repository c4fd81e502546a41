package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCounterAndGauge(t *testing.T) {
	r := New()
	c := r.Counter("requests_total", "Requests")
	c.Inc()
	c.Add(2)
	if r.Counter("requests_total", "") != c || c.Value() != 3 {
		t.Fatalf("counter not reused or wrong value %d", c.Value())
	}
	g := r.Gauge("in_flight", "In flight")
	g.Set(5)
	g.Inc()
	g.Dec()
	g.Dec()
	if g.Value() != 4 {
		t.Fatalf("gauge = %d", g.Value())
	}
}

func TestWithLabels(t *testing.T) {
	if got := WithLabels("m", "a", "1", "b", "x"); got != `m{a="1",b="x"}` {
		t.Fatalf("got %s", got)
	}
	if got := WithLabels("m", "odd"); got != "m" {
		t.Fatalf("odd labels should be ignored, got %s", got)
	}
}

func TestRenderGroupsFamilies(t *testing.T) {
	r := New()
	r.Counter(WithLabels("hits_total", "op", "b"), "Hits").Inc()
	r.Counter(WithLabels("hits_total", "op", "a"), "Hits").Add(2)
	out := r.Render()

	if strings.Count(out, "# TYPE hits_total counter") != 1 {
		t.Fatalf("family header should appear once:\n%s", out)
	}
	a := strings.Index(out, `hits_total{op="a"} 2`)
	b := strings.Index(out, `hits_total{op="b"} 1`)
	if a == -1 || b == -1 || a > b {
		t.Fatalf("series missing or unsorted:\n%s", out)
	}
}

func TestHistogram(t *testing.T) {
	r := New()
	h := r.Histogram(WithLabels("latency_seconds", "op", "x"), "Latency", []float64{0.1, 1})
	h.Observe(0.0625)
	h.Observe(0.5)
	h.Observe(4)
	out := r.Render()
	for _, want := range []string{
		`latency_seconds_bucket{le="0.1",op="x"} 1`,
		`latency_seconds_bucket{le="1",op="x"} 2`,
		`latency_seconds_bucket{le="+Inf",op="x"} 3`,
		`latency_seconds_sum{op="x"} 4.5625`,
		`latency_seconds_count{op="x"} 3`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in\n%s", want, out)
		}
	}
}

func TestHandler(t *testing.T) {
	r := New()
	r.Counter("up", "Up").Inc()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("content type %s", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "up 1") {
		t.Fatalf("body %s", rec.Body.String())
	}
}
