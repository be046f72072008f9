package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hazardlens/internal/core/domain"
	"hazardlens/internal/core/ports"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testUpgrader = websocket.Upgrader{}

// newSocketServer runs handler for every socket connection and returns the
// ws:// URL to dial.
func newSocketServer(t *testing.T, handler func(*websocket.Conn)) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// drain keeps the server side open until the peer goes away.
func drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func connectSocket(t *testing.T, url string, captureRate float64) *SocketClient {
	t.Helper()
	client := NewSocketClient(url, captureRate, zaptest.NewLogger(t).Sugar())
	require.NoError(t, client.Connect(context.Background()))
	t.Cleanup(func() { client.Close() })
	return client
}

func TestSocketClient_ExpandsInboundPayload(t *testing.T) {
	payload := `{
		"frame_number": 3,
		"annotated_frame_b64": "img",
		"risk_score": 0.8,
		"events": [
			{"id": "e1", "severity": "warning", "event_type": "ppe_violation"},
			{"id": "e2", "severity": "critical", "event_type": "fall"}
		]
	}`
	url := newSocketServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(payload))
		drain(conn)
	})
	client := connectSocket(t, url, 100)

	ctx := context.Background()

	// One inbound payload fans out into frame + alerts, in arrival order.
	msg, err := client.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, ports.MessageFrame, msg.Kind)
	require.Equal(t, 3, msg.Frame.Number)
	require.Equal(t, "img", msg.Frame.Payload)
	require.NotNil(t, msg.Frame.RiskScore)

	msg, err = client.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, ports.MessageAlert, msg.Kind)
	require.Equal(t, domain.AlertID("e1"), msg.Alert.ID)

	msg, err = client.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, ports.MessageAlert, msg.Kind)
	require.Equal(t, domain.SeverityCritical, msg.Alert.Severity)
}

func TestSocketClient_SkipsMalformedPayloads(t *testing.T) {
	url := newSocketServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte("not json at all"))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"risk_score": 0.1}`)) // no image, no events
		conn.WriteMessage(websocket.TextMessage, []byte(`{"frame_number": 9, "frame": "ok"}`))
		drain(conn)
	})
	client := connectSocket(t, url, 100)

	msg, err := client.Receive(context.Background())
	require.NoError(t, err)
	require.Equal(t, ports.MessageFrame, msg.Kind)
	require.Equal(t, 9, msg.Frame.Number)
}

func TestSocketClient_EventsOnlyPayload(t *testing.T) {
	url := newSocketServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"events": [{"id": "solo", "severity": "info", "event_type": "near_miss"}]}`))
		drain(conn)
	})
	client := connectSocket(t, url, 100)

	msg, err := client.Receive(context.Background())
	require.NoError(t, err)
	require.Equal(t, ports.MessageAlert, msg.Kind)
	require.Equal(t, domain.AlertID("solo"), msg.Alert.ID)
}

func TestSocketClient_SendWritesCaptureFrame(t *testing.T) {
	received := make(chan []byte, 1)
	url := newSocketServer(t, func(conn *websocket.Conn) {
		_, data, err := conn.ReadMessage()
		if err == nil {
			received <- data
		}
		drain(conn)
	})
	client := connectSocket(t, url, 100)

	require.NoError(t, client.Send(context.Background(), "capture-b64"))

	select {
	case data := <-received:
		var out map[string]string
		require.NoError(t, json.Unmarshal(data, &out))
		require.Equal(t, "capture-b64", out["frame"])
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the capture frame")
	}
}

func TestSocketClient_SendDropsAboveCaptureRate(t *testing.T) {
	count := make(chan struct{}, 16)
	url := newSocketServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			count <- struct{}{}
		}
	})
	// Burst of 1 at a negligible refill rate: only the first frame goes out.
	client := connectSocket(t, url, 0.001)

	require.NoError(t, client.Send(context.Background(), "f1"))
	require.NoError(t, client.Send(context.Background(), "f2"))
	require.NoError(t, client.Send(context.Background(), "f3"))

	select {
	case <-count:
	case <-time.After(2 * time.Second):
		t.Fatal("first frame should have been sent")
	}
	select {
	case <-count:
		t.Fatal("frames above the capture rate must be dropped, not sent")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSocketClient_SendBeforeConnect(t *testing.T) {
	client := NewSocketClient("ws://unused", 100, zaptest.NewLogger(t).Sugar())
	require.ErrorIs(t, client.Send(context.Background(), "x"), domain.ErrSocketNotOpen)
}

func TestSocketClient_CloseIsTerminal(t *testing.T) {
	url := newSocketServer(t, func(conn *websocket.Conn) {
		drain(conn)
	})
	client := connectSocket(t, url, 100)

	require.NoError(t, client.Close())

	_, err := client.Receive(context.Background())
	require.ErrorIs(t, err, domain.ErrSessionClosed)
	require.ErrorIs(t, client.Connect(context.Background()), domain.ErrSessionClosed)
	require.ErrorIs(t, client.Send(context.Background(), "x"), domain.ErrSocketNotOpen)
}

func TestSocketClient_ReconnectClearsPending(t *testing.T) {
	payload := `{"frame_number": 1, "frame": "img", "events": [{"id": "e1", "severity": "info"}]}`
	url := newSocketServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(payload))
		drain(conn)
	})
	client := connectSocket(t, url, 100)

	msg, err := client.Receive(context.Background())
	require.NoError(t, err)
	require.Equal(t, ports.MessageFrame, msg.Kind)
	// The alert from the same payload is queued now.

	// A reconnect discards the stale queue: the next message comes from the
	// new connection, not the old one.
	require.NoError(t, client.Connect(context.Background()))

	msg, err = client.Receive(context.Background())
	require.NoError(t, err)
	require.Equal(t, ports.MessageFrame, msg.Kind)
}
