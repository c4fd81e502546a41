// Package natsutil provides typed NATS publish/subscribe/request/respond
// helpers with OpenTelemetry trace propagation through message headers.
package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
)

// RequestIDHeader carries a correlation id across a request/reply hop.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// WithRequestID stores a correlation id that NewMsg copies into headers.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the correlation id stored in ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// headerCarrier adapts nats.Msg headers for the OTel TextMapCarrier.
type headerCarrier nats.Msg

func (c *headerCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *headerCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *headerCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

// ErrorReply is the body sent back when a responder handler fails.
type ErrorReply struct {
	Error string `json:"error"`
}

// ErrRemote wraps an error reported by a responder.
var ErrRemote = errors.New("natsutil: remote error")

// NewMsg JSON-encodes v into a message for subject and injects the trace
// context from ctx.
func NewMsg[T any](ctx context.Context, subject string, v T) (*nats.Msg, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	msg := nats.NewMsg(subject)
	msg.Data = data
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))
	if id := RequestIDFrom(ctx); id != "" {
		(*headerCarrier)(msg).Set(RequestIDHeader, id)
	}
	return msg, nil
}

// Context extracts the trace context and correlation id carried by msg.
func Context(msg *nats.Msg) context.Context {
	ctx := otel.GetTextMapPropagator().Extract(context.Background(), (*headerCarrier)(msg))
	if id := (*headerCarrier)(msg).Get(RequestIDHeader); id != "" {
		ctx = WithRequestID(ctx, id)
	}
	return ctx
}

// Publish serializes v as JSON and publishes it to subject.
func Publish[T any](ctx context.Context, nc *nats.Conn, subject string, v T) error {
	msg, err := NewMsg(ctx, subject, v)
	if err != nil {
		return err
	}
	return nc.PublishMsg(msg)
}

// Subscribe registers a handler for JSON messages of type T. Malformed
// messages are dropped.
func Subscribe[T any](nc *nats.Conn, subject string, handler func(context.Context, T)) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		var v T
		if err := json.Unmarshal(msg.Data, &v); err != nil {
			return
		}
		handler(Context(msg), v)
	})
}

// Request sends a JSON request and decodes the JSON response. A zero timeout
// uses nats.DefaultTimeout.
func Request[Req, Resp any](ctx context.Context, nc *nats.Conn, subject string, req Req, timeout time.Duration) (Resp, error) {
	var zero Resp
	if timeout <= 0 {
		timeout = nats.DefaultTimeout
	}
	msg, err := NewMsg(ctx, subject, req)
	if err != nil {
		return zero, err
	}
	reply, err := nc.RequestMsg(msg, timeout)
	if err != nil {
		return zero, err
	}
	return DecodeReply[Resp](reply.Data)
}

// DecodeReply decodes a responder reply, turning an ErrorReply into ErrRemote.
func DecodeReply[Resp any](data []byte) (Resp, error) {
	var zero Resp
	var e ErrorReply
	if err := json.Unmarshal(data, &e); err == nil && e.Error != "" {
		return zero, errors.Join(ErrRemote, errors.New(e.Error))
	}
	var resp Resp
	if err := json.Unmarshal(data, &resp); err != nil {
		return zero, err
	}
	return resp, nil
}

// Respond serves request/reply traffic on subject within a queue group.
// Handler errors and malformed requests are answered with an ErrorReply.
// Requests without a correlation id are assigned a new one.
func Respond[Req, Resp any](nc *nats.Conn, subject, queue string, handler func(context.Context, Req) (Resp, error)) (*nats.Subscription, error) {
	return nc.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		if msg.Reply == "" {
			return
		}
		ctx := Context(msg)
		if RequestIDFrom(ctx) == "" {
			ctx = WithRequestID(ctx, uuid.NewString())
		}
		_ = msg.Respond(Reply(ctx, msg.Data, handler))
	})
}

// Reply runs handler on a JSON request body and returns the encoded reply.
func Reply[Req, Resp any](ctx context.Context, data []byte, handler func(context.Context, Req) (Resp, error)) []byte {
	var req Req
	if err := json.Unmarshal(data, &req); err != nil {
		return errorBody(err)
	}
	resp, err := handler(ctx, req)
	if err != nil {
		return errorBody(err)
	}
	out, err := json.Marshal(resp)
	if err != nil {
		return errorBody(err)
	}
	return out
}

func errorBody(err error) []byte {
	out, _ := json.Marshal(ErrorReply{Error: err.Error()})
	return out
}
