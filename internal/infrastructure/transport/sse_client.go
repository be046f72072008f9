package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"hazardlens/internal/core/domain"
	"hazardlens/internal/core/ports"

	"github.com/gin-contrib/sse"
	"go.uber.org/zap"
)

// PushStreamClient is the one-way push transport: a long-lived server-sent
// event stream carrying frame/alert/analytics/complete messages. It never
// self-reconnects; a transport error surfaces and the orchestrator decides.
type PushStreamClient struct {
	url        string
	httpClient *http.Client
	logger     *zap.SugaredLogger

	mu        sync.Mutex
	body      io.ReadCloser
	scanner   *bufio.Scanner
	completed bool
	closed    bool
}

const sseScanBuffer = 8 << 20 // annotated frames arrive base64-encoded

func NewPushStreamClient(url string, logger *zap.SugaredLogger) *PushStreamClient {
	return &PushStreamClient{
		url: url,
		httpClient: &http.Client{
			// No overall timeout: the stream lives as long as the job.
			Timeout: 0,
		},
		logger: logger,
	}
}

func (c *PushStreamClient) Kind() domain.TransportKind {
	return domain.TransportPushStream
}

func (c *PushStreamClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ErrSessionClosed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to open push stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return fmt.Errorf("push stream rejected: status %d", resp.StatusCode)
	}

	c.body = resp.Body
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), sseScanBuffer)
	scanner.Split(scanRecords)
	c.scanner = scanner

	c.logger.Infow("push stream open", "url", c.url)
	return nil
}

func (c *PushStreamClient) Receive(ctx context.Context) (*ports.StreamMessage, error) {
	c.mu.Lock()
	scanner := c.scanner
	completed := c.completed
	closed := c.closed
	c.mu.Unlock()

	if closed || completed {
		return nil, domain.ErrSessionClosed
	}
	if scanner == nil {
		return nil, domain.ErrSessionClosed
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("push stream read failed: %w", err)
			}
			return nil, io.ErrUnexpectedEOF
		}

		events, err := sse.Decode(strings.NewReader(scanner.Text() + "\n\n"))
		if err != nil || len(events) == 0 {
			// One bad record never terminates the session.
			c.logger.Debugw("dropping malformed push-stream record", "error", err)
			continue
		}

		msg, ok := c.classify(events[0])
		if !ok {
			continue
		}
		if msg.Kind == ports.MessageComplete {
			c.mu.Lock()
			c.completed = true
			c.mu.Unlock()
		}
		return msg, nil
	}
}

// classify maps one decoded SSE event onto a stream message. Unknown event
// names and undecodable payloads are dropped per message.
func (c *PushStreamClient) classify(ev sse.Event) (*ports.StreamMessage, bool) {
	data, _ := ev.Data.(string)

	switch ev.Event {
	case "frame":
		var w frameWire
		if err := json.Unmarshal([]byte(data), &w); err != nil {
			c.logger.Debugw("dropping undecodable frame event", "error", err)
			return nil, false
		}
		if w.payload() == "" {
			return nil, false
		}
		return &ports.StreamMessage{Kind: ports.MessageFrame, Frame: w.toFrame()}, true

	case "alert":
		var w alertWire
		if err := json.Unmarshal([]byte(data), &w); err != nil {
			c.logger.Debugw("dropping undecodable alert event", "error", err)
			return nil, false
		}
		return &ports.StreamMessage{Kind: ports.MessageAlert, Alert: w.toAlert()}, true

	case "analytics":
		snap, err := decodeAnalytics([]byte(data))
		if err != nil {
			c.logger.Debugw("dropping undecodable analytics event", "error", err)
			return nil, false
		}
		return &ports.StreamMessage{Kind: ports.MessageAnalytics, Analytics: snap}, true

	case "complete":
		return &ports.StreamMessage{Kind: ports.MessageComplete}, true

	default:
		return nil, false
	}
}

func (c *PushStreamClient) Send(ctx context.Context, frameB64 string) error {
	return domain.ErrSocketNotOpen
}

func (c *PushStreamClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.body != nil {
		c.body.Close()
		c.body = nil
	}
	return nil
}

// scanRecords splits an SSE byte stream into records at blank lines.
func scanRecords(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	for _, sep := range []string{"\n\n", "\r\n\r\n"} {
		if i := bytes.Index(data, []byte(sep)); i >= 0 {
			return i + len(sep), data[:i], nil
		}
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var _ ports.Transport = (*PushStreamClient)(nil)
