// Package circuit is the service facade over the circuit engine. It validates
// incoming payloads, runs the synthesizer and validator as traced stages,
// records metrics and publishes a ValidatedEvent for every validation.
package circuit

import (
	"context"
	"log/slog"
	"time"

	"github.com/WessleyAI/wessley-circuits/engine/catalog"
	"github.com/WessleyAI/wessley-circuits/engine/diagram"
	"github.com/WessleyAI/wessley-circuits/engine/domain"
	"github.com/WessleyAI/wessley-circuits/engine/topology"
	"github.com/WessleyAI/wessley-circuits/engine/validator"
	"github.com/WessleyAI/wessley-circuits/pkg/fn"
	"github.com/WessleyAI/wessley-circuits/pkg/metrics"
	"github.com/google/uuid"
)

// NATS subjects served and published by the circuit service.
const (
	SubjectValidate   = "circuit.validate"
	SubjectSynthesize = "circuit.synthesize"
	SubjectValidated  = "circuit.validated"
)

// SynthesizeRequest asks for an auto-wired diagram.
type SynthesizeRequest struct {
	Components []string `json:"components"`
}

// ValidateRequest carries a user-drawn diagram.
type ValidateRequest struct {
	Nodes []domain.Node `json:"nodes"`
	Edges []domain.Edge `json:"edges"`
}

// ValidatedEvent summarises one validation for downstream consumers.
type ValidatedEvent struct {
	ID            string    `json:"id"`
	RequestID     string    `json:"requestId,omitempty"`
	At            time.Time `json:"at"`
	Valid         bool      `json:"valid"`
	Score         int       `json:"score"`
	TotalExpected int       `json:"totalExpected"`
	ShortCircuits int       `json:"shortCircuits"`
	Closed        bool      `json:"closed"`
	Message       string    `json:"message"`
}

// Publisher delivers validation events.
type Publisher interface {
	PublishValidated(ctx context.Context, ev ValidatedEvent) error
}

// Options configures a Service.
type Options struct {
	Publisher Publisher
	Metrics   *metrics.Registry
	Logger    *slog.Logger
	// RequestID extracts a correlation id from the context, if any.
	RequestID func(context.Context) string
}

// Service wires the engine stages together.
type Service struct {
	catalog    *catalog.Catalog
	engine     *topology.Engine
	synth      *diagram.Synthesizer
	validator  *validator.Validator
	pub        Publisher
	log        *slog.Logger
	met        *serviceMetrics
	requestID  func(context.Context) string
	synthesize fn.Stage[SynthesizeRequest, diagram.Diagram]
	validate   fn.Stage[ValidateRequest, validator.Result]
}

// New builds a Service over cat using the default rule table.
func New(cat *catalog.Catalog, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	reg := opts.Metrics
	if reg == nil {
		reg = metrics.New()
	}
	engine := topology.New(cat)
	for _, u := range engine.Dropped() {
		log.Warn("circuit: dropped unresolved rule template", "rule", u.Rule, "connection", u.Connection.Key().String(), "reason", u.Reason)
	}

	s := &Service{
		catalog:   cat,
		engine:    engine,
		synth:     diagram.New(engine),
		validator: validator.New(engine),
		pub:       opts.Publisher,
		log:       log,
		met:       newServiceMetrics(reg),
		requestID: opts.RequestID,
	}

	s.synthesize = fn.Then(
		fn.TracedStage("circuit.check_selection", fn.CheckStage(func(r SynthesizeRequest) error {
			return domain.ValidateSelection(r.Components)
		})),
		fn.TracedStage("circuit.synthesize", fn.MapStage(func(r SynthesizeRequest) diagram.Diagram {
			return s.synth.Generate(r.Components)
		})),
	)
	s.validate = fn.Then(
		fn.TracedStage("circuit.check_diagram", fn.CheckStage(func(r ValidateRequest) error {
			return domain.ValidateDiagram(r.Nodes, r.Edges)
		})),
		fn.TracedStage("circuit.validate", fn.MapStage(func(r ValidateRequest) validator.Result {
			return s.validator.Validate(r.Edges, r.Nodes)
		})),
	)
	return s
}

// Catalog returns the component catalog.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// Connections returns the reference circuit for a selection.
func (s *Service) Connections(ids []string) []domain.CorrectConnection {
	return s.engine.CorrectConnections(ids)
}

// Synthesize returns the auto-wired diagram for a selection.
func (s *Service) Synthesize(ctx context.Context, req SynthesizeRequest) (diagram.Diagram, error) {
	s.met.inFlight.Inc()
	defer s.met.inFlight.Dec()
	start := time.Now()
	d, err := s.synthesize(ctx, req).Unwrap()
	s.met.stageDuration("synthesize").Since(start)
	if err != nil {
		s.met.rejected("synthesize").Inc()
		return diagram.Diagram{}, err
	}
	s.met.synthesized.Inc()
	s.log.Debug("circuit: synthesized", "components", len(d.Nodes), "edges", len(d.Edges), "layout", d.Layout)
	return d, nil
}

// Validate scores a user diagram and publishes the outcome.
func (s *Service) Validate(ctx context.Context, req ValidateRequest) (validator.Result, error) {
	s.met.inFlight.Inc()
	defer s.met.inFlight.Dec()
	start := time.Now()
	res, err := s.validate(ctx, req).Unwrap()
	s.met.stageDuration("validate").Since(start)
	if err != nil {
		s.met.rejected("validate").Inc()
		return validator.Result{}, err
	}

	s.met.observe(res)
	if res.ShortCircuits > 0 {
		s.log.Warn("circuit: short circuit drawn", "count", res.ShortCircuits)
	}
	if len(res.DuplicateComponents) > 0 {
		s.log.Info("circuit: component placed more than once", "components", res.DuplicateComponents)
	}
	s.publish(ctx, res)
	return res, nil
}

func (s *Service) publish(ctx context.Context, res validator.Result) {
	if s.pub == nil {
		return
	}
	ev := ValidatedEvent{
		ID:            uuid.NewString(),
		At:            time.Now().UTC(),
		Valid:         res.IsValid,
		Score:         res.Score,
		TotalExpected: res.TotalExpected,
		ShortCircuits: res.ShortCircuits,
		Closed:        res.Status.IsClosed,
		Message:       res.Status.Message,
	}
	if s.requestID != nil {
		ev.RequestID = s.requestID(ctx)
	}
	if err := s.pub.PublishValidated(ctx, ev); err != nil {
		s.met.publishErrors.Inc()
		s.log.Error("circuit: publish validated event failed", "error", err, "event_id", ev.ID)
	}
}
