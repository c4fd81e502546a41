package circuit

import (
	"context"
	"log/slog"

	"github.com/WessleyAI/wessley-circuits/pkg/natsutil"
	"github.com/WessleyAI/wessley-circuits/pkg/resilience"
	"github.com/nats-io/nats.go"
)

// NATSPublisher publishes validation events on SubjectValidated.
type NATSPublisher struct {
	nc *nats.Conn
}

// NewNATSPublisher creates a publisher on an open connection.
func NewNATSPublisher(nc *nats.Conn) *NATSPublisher {
	return &NATSPublisher{nc: nc}
}

// PublishValidated implements Publisher.
func (p *NATSPublisher) PublishValidated(ctx context.Context, ev ValidatedEvent) error {
	return natsutil.Publish(ctx, p.nc, SubjectValidated, ev)
}

// GuardedPublisher stops calling a failing Publisher until its breaker
// cools down. While open, events are dropped with resilience.ErrOpen.
type GuardedPublisher struct {
	next    Publisher
	breaker *resilience.Breaker
}

// NewGuardedPublisher wraps next. State changes are logged on log.
func NewGuardedPublisher(next Publisher, opts resilience.BreakerOpts, log *slog.Logger) *GuardedPublisher {
	if log == nil {
		log = slog.Default()
	}
	opts.OnStateChange = func(from, to resilience.State) {
		log.Warn("circuit: event publisher breaker", "from", from.String(), "to", to.String())
	}
	return &GuardedPublisher{next: next, breaker: resilience.NewBreaker(opts)}
}

// PublishValidated implements Publisher.
func (p *GuardedPublisher) PublishValidated(ctx context.Context, ev ValidatedEvent) error {
	return p.breaker.Call(ctx, func(ctx context.Context) error {
		return p.next.PublishValidated(ctx, ev)
	})
}

// Serve registers the request/reply handlers for validation and synthesis in
// the given queue group.
func (s *Service) Serve(nc *nats.Conn, queue string) ([]*nats.Subscription, error) {
	var subs []*nats.Subscription
	v, err := natsutil.Respond(nc, SubjectValidate, queue, s.Validate)
	if err != nil {
		return nil, err
	}
	subs = append(subs, v)
	syn, err := natsutil.Respond(nc, SubjectSynthesize, queue, s.Synthesize)
	if err != nil {
		v.Unsubscribe()
		return nil, err
	}
	return append(subs, syn), nil
}
