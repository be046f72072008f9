package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"hazardlens/internal/core/domain"
	"hazardlens/internal/core/ports"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// SocketClient is the bidirectional transport: a WebSocket carrying
// {frame?, events?} inbound and {frame} outbound. One inbound payload can
// expand into several stream messages; they are queued and handed out one at
// a time so the session applies them in arrival order.
type SocketClient struct {
	url    string
	dialer *websocket.Dialer
	logger *zap.SugaredLogger

	// Outbound capture frames above this rate are dropped rather than
	// buffered; a backed-up socket must not grow a frame queue.
	limiter *rate.Limiter

	writeTimeout time.Duration

	mu      sync.Mutex
	conn    *websocket.Conn
	pending []*ports.StreamMessage
	closed  bool
}

func NewSocketClient(url string, captureRate float64, logger *zap.SugaredLogger) *SocketClient {
	return &SocketClient{
		url:          url,
		dialer:       &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		logger:       logger,
		limiter:      rate.NewLimiter(rate.Limit(captureRate), 1),
		writeTimeout: 10 * time.Second,
	}
}

func (c *SocketClient) Kind() domain.TransportKind {
	return domain.TransportSocket
}

// Connect dials the socket. Called again by the session for each reconnect
// attempt; any previous connection is discarded first.
func (c *SocketClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ErrSessionClosed
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.pending = nil

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial socket: %w", err)
	}
	c.conn = conn

	c.logger.Infow("socket open", "url", c.url)
	return nil
}

func (c *SocketClient) Receive(ctx context.Context) (*ports.StreamMessage, error) {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return nil, domain.ErrSessionClosed
		}
		if len(c.pending) > 0 {
			msg := c.pending[0]
			c.pending = c.pending[1:]
			c.mu.Unlock()
			return msg, nil
		}
		conn := c.conn
		c.mu.Unlock()

		if conn == nil {
			return nil, domain.ErrSocketNotOpen
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("socket read failed: %w", err)
		}

		msgs := c.expand(data)
		if len(msgs) == 0 {
			continue
		}

		c.mu.Lock()
		c.pending = append(c.pending, msgs[1:]...)
		c.mu.Unlock()
		return msgs[0], nil
	}
}

// socketInbound is one inbound socket payload.
type socketInbound struct {
	FrameNumber       int         `json:"frame_number"`
	AnnotatedFrameB64 string      `json:"annotated_frame_b64"`
	Frame             string      `json:"frame"`
	RiskScore         *float64    `json:"risk_score"`
	ComplianceRate    *float64    `json:"compliance_rate"`
	TrackedObjects    *int        `json:"tracked_objects"`
	Events            []alertWire `json:"events"`
}

// expand turns one inbound payload into zero or more stream messages.
// Malformed payloads are dropped silently per message.
func (c *SocketClient) expand(data []byte) []*ports.StreamMessage {
	var in socketInbound
	if err := json.Unmarshal(data, &in); err != nil {
		c.logger.Debugw("dropping malformed socket payload", "error", err)
		return nil
	}

	var msgs []*ports.StreamMessage

	fw := frameWire{
		FrameNumber:       in.FrameNumber,
		AnnotatedFrameB64: in.AnnotatedFrameB64,
		Frame:             in.Frame,
		RiskScore:         in.RiskScore,
		ComplianceRate:    in.ComplianceRate,
		TrackedObjects:    in.TrackedObjects,
	}
	if fw.payload() != "" {
		msgs = append(msgs, &ports.StreamMessage{Kind: ports.MessageFrame, Frame: fw.toFrame()})
	}

	for i := range in.Events {
		msgs = append(msgs, &ports.StreamMessage{Kind: ports.MessageAlert, Alert: in.Events[i].toAlert()})
	}

	return msgs
}

// Send pushes one outbound capture frame. Frames beyond the capture rate are
// dropped, and sending on a closed or never-opened socket reports
// ErrSocketNotOpen so the session layer can treat it as a no-op.
func (c *SocketClient) Send(ctx context.Context, frameB64 string) error {
	c.mu.Lock()
	conn := c.conn
	closed := c.closed
	c.mu.Unlock()

	if closed || conn == nil {
		return domain.ErrSocketNotOpen
	}
	if !c.limiter.Allow() {
		return nil
	}

	payload, err := json.Marshal(map[string]string{"frame": frameB64})
	if err != nil {
		return fmt.Errorf("failed to encode outbound frame: %w", err)
	}

	conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("socket write failed: %w", err)
	}
	return nil
}

func (c *SocketClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.conn != nil {
		c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.conn.Close()
		c.conn = nil
	}
	return nil
}

var _ ports.Transport = (*SocketClient)(nil)
