package domain

type TransportKind string

const (
	TransportPushStream TransportKind = "push-stream"
	TransportSocket     TransportKind = "socket"
)

// ConnectionState is the stream session lifecycle. Failed may re-enter
// Connecting, but only for the socket transport.
type ConnectionState string

const (
	StateIdle       ConnectionState = "idle"
	StateConnecting ConnectionState = "connecting"
	StateOpen       ConnectionState = "open"
	StateClosed     ConnectionState = "closed"
	StateFailed     ConnectionState = "failed"
)

// SessionSnapshot is the unified derived state the orchestrator exposes to
// presentation collaborators.
type SessionSnapshot struct {
	ID        SessionID
	Transport TransportKind
	State     ConnectionState
	Frame     *Frame
	Analytics *AnalyticsSnapshot
	Stats     Stats

	// Err is set when State is Failed. errors.Is(Err, ErrStreamStarting)
	// distinguishes "pipeline has not begun emitting" from a hard failure.
	Err error
}
