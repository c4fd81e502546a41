package circuit

import (
	"strconv"

	"github.com/WessleyAI/wessley-circuits/engine/validator"
	"github.com/WessleyAI/wessley-circuits/pkg/fn"
	"github.com/WessleyAI/wessley-circuits/pkg/metrics"
)

type serviceMetrics struct {
	reg           *metrics.Registry
	synthesized   *metrics.Counter
	shortCircuits *metrics.Counter
	publishErrors *metrics.Counter
	inFlight      *metrics.Gauge
}

func newServiceMetrics(reg *metrics.Registry) *serviceMetrics {
	return &serviceMetrics{
		reg:           reg,
		synthesized:   reg.Counter("circuit_diagrams_synthesized_total", "Auto-wired diagrams generated"),
		shortCircuits: reg.Counter("circuit_short_circuits_total", "Same-component wires detected"),
		publishErrors: reg.Counter("circuit_event_publish_errors_total", "Validation events that failed to publish"),
		inFlight:      reg.Gauge("circuit_requests_in_flight", "Engine calls currently running"),
	}
}

func (m *serviceMetrics) validations(valid bool) *metrics.Counter {
	return m.reg.Counter(metrics.WithLabels("circuit_validations_total", "valid", strconv.FormatBool(valid)), "Diagrams validated")
}

func (m *serviceMetrics) incorrect(kind validator.IncorrectKind) *metrics.Counter {
	return m.reg.Counter(metrics.WithLabels("circuit_incorrect_edges_total", "kind", string(kind)), "Incorrect edges by kind")
}

func (m *serviceMetrics) rejected(op string) *metrics.Counter {
	return m.reg.Counter(metrics.WithLabels("circuit_rejected_requests_total", "op", op), "Requests rejected by payload validation")
}

func (m *serviceMetrics) stageDuration(op string) *metrics.Histogram {
	return m.reg.Histogram(metrics.WithLabels("circuit_stage_duration_seconds", "op", op), "Engine call latency", nil)
}

func (m *serviceMetrics) observe(res validator.Result) {
	m.validations(res.IsValid).Inc()
	m.shortCircuits.Add(int64(res.ShortCircuits))
	byKind := fn.CountBy(res.IncorrectEdges, func(e validator.IncorrectEdge) validator.IncorrectKind { return e.Kind })
	for kind, n := range byKind {
		m.incorrect(kind).Add(int64(n))
	}
}
