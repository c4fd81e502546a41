package circuit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/WessleyAI/wessley-circuits/engine/catalog"
	"github.com/WessleyAI/wessley-circuits/engine/diagram"
	"github.com/WessleyAI/wessley-circuits/engine/domain"
	"github.com/WessleyAI/wessley-circuits/engine/validator"
	"github.com/WessleyAI/wessley-circuits/pkg/natsutil"
)

func startTestNATS(t *testing.T) *nats.Conn {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{Port: -1})
	if err != nil {
		t.Fatal(err)
	}
	srv.Start()
	if !srv.ReadyForConnections(3 * time.Second) {
		t.Fatal("nats not ready")
	}
	nc, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		nc.Close()
		srv.Shutdown()
	})
	return nc
}

func TestServeOverNATS(t *testing.T) {
	nc := startTestNATS(t)
	svc := newTestService(NewNATSPublisher(nc), nil)

	events := make(chan *nats.Msg, 1)
	evSub, err := nc.ChanSubscribe(SubjectValidated, events)
	if err != nil {
		t.Fatal(err)
	}
	defer evSub.Unsubscribe()

	subs, err := svc.Serve(nc, "test-workers")
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", len(subs))
	}
	ctx := context.Background()

	d, err := natsutil.Request[SynthesizeRequest, diagram.Diagram](ctx, nc, SubjectSynthesize, SynthesizeRequest{Components: fanCircuit}, 2*time.Second)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if len(d.Edges) != 10 {
		t.Fatalf("expected 10 edges, got %d", len(d.Edges))
	}

	res, err := natsutil.Request[ValidateRequest, validator.Result](ctx, nc, SubjectValidate, ValidateRequest{Nodes: d.Nodes, Edges: d.Edges}, 2*time.Second)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !res.IsValid || res.Score != 10 {
		t.Fatalf("unexpected result %+v", res)
	}

	select {
	case msg := <-events:
		var ev ValidatedEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			t.Fatal(err)
		}
		if !ev.Valid || ev.Score != 10 || !ev.Closed {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no validated event")
	}

	_, err = natsutil.Request[SynthesizeRequest, diagram.Diagram](ctx, nc, SubjectSynthesize, SynthesizeRequest{}, 2*time.Second)
	if !errors.Is(err, natsutil.ErrRemote) {
		t.Fatalf("expected remote error for empty selection, got %v", err)
	}

	_, err = natsutil.Request[ValidateRequest, validator.Result](ctx, nc, SubjectValidate, ValidateRequest{
		Nodes: []domain.Node{{ID: "", ComponentID: "fan"}},
	}, 2*time.Second)
	if !errors.Is(err, natsutil.ErrRemote) {
		t.Fatalf("expected remote error for bad node, got %v", err)
	}
}

func TestServeForwardsRequestID(t *testing.T) {
	nc := startTestNATS(t)
	svc := New(catalog.Builtin(), Options{
		Publisher: NewNATSPublisher(nc),
		Logger:    discard(),
		RequestID: natsutil.RequestIDFrom,
	})

	events := make(chan *nats.Msg, 1)
	evSub, err := nc.ChanSubscribe(SubjectValidated, events)
	if err != nil {
		t.Fatal(err)
	}
	defer evSub.Unsubscribe()
	if _, err := svc.Serve(nc, "test-workers"); err != nil {
		t.Fatal(err)
	}

	ctx := natsutil.WithRequestID(context.Background(), "corr-7")
	d, err := svc.Synthesize(ctx, SynthesizeRequest{Components: fanCircuit})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := natsutil.Request[ValidateRequest, validator.Result](ctx, nc, SubjectValidate, ValidateRequest{Nodes: d.Nodes, Edges: d.Edges}, 2*time.Second); err != nil {
		t.Fatalf("validate: %v", err)
	}

	select {
	case msg := <-events:
		var ev ValidatedEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			t.Fatal(err)
		}
		if ev.RequestID != "corr-7" {
			t.Fatalf("requestId = %q, want corr-7", ev.RequestID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no validated event")
	}
}
