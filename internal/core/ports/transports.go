package ports

import (
	"context"

	"hazardlens/internal/core/domain"
)

type MessageKind string

const (
	MessageFrame     MessageKind = "frame"
	MessageAlert     MessageKind = "alert"
	MessageAnalytics MessageKind = "analytics"
	MessageComplete  MessageKind = "complete"
)

// StreamMessage is one classified inbound message. Exactly one of the payload
// fields is set, matching Kind.
type StreamMessage struct {
	Kind      MessageKind
	Frame     *domain.Frame
	Alert     *domain.Alert
	Analytics *domain.AnalyticsSnapshot
}

// Transport is the wire-level half of a stream session: one long-lived
// connection delivering classified messages in arrival order.
type Transport interface {
	Kind() domain.TransportKind

	Connect(ctx context.Context) error

	// Receive blocks until the next well-formed message. Malformed payloads
	// are skipped per message and never terminate the connection. After the
	// stream ends cleanly Receive returns a MessageComplete message once,
	// then domain.ErrSessionClosed.
	Receive(ctx context.Context) (*StreamMessage, error)

	// Send pushes an outbound capture frame. Only the socket transport
	// implements it; it returns domain.ErrSocketNotOpen otherwise.
	Send(ctx context.Context, frameB64 string) error

	Close() error
}

// TransportFactory builds a fresh transport for one connection attempt.
type TransportFactory func(kind domain.TransportKind, jobID domain.JobID) (Transport, error)
