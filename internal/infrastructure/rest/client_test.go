package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hazardlens/internal/core/domain"
	"hazardlens/pkg/geometry"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func trianglePoints() []geometry.Point {
	return []geometry.Point{{X: 0.1, Y: 0.1}, {X: 0.5, Y: 0.1}, {X: 0.5, Y: 0.5}}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, 5*time.Second, zaptest.NewLogger(t))
}

func TestClient_ListZones(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/zones", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": "z1", "name": "Crane", "zone_type": "hazard", "polygon": [[0.1,0.1],[0.5,0.1],[0.5,0.5]]},
			{"id": "z2", "name": "Gate", "zone_type": "restricted", "polygon": [[0.7,0.7],[0.9,0.7],[0.9,0.9]]}
		]`))
	})
	client := newTestClient(t, mux)

	zones, err := client.List(context.Background())
	require.NoError(t, err)
	require.Len(t, zones, 2)
	require.Equal(t, domain.ZoneID("z1"), zones[0].ID)
	require.Equal(t, domain.ZoneHazard, zones[0].Type)
	require.Len(t, zones[0].Vertices, 3)
	require.InDelta(t, 0.5, zones[0].Vertices[2].Y, 1e-9)
}

func TestClient_CreateZone(t *testing.T) {
	var got zoneWire
	mux := http.NewServeMux()
	mux.HandleFunc("/zones", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "srv-7", "status": "created"}`))
	})
	client := newTestClient(t, mux)

	zone := &domain.Zone{
		Name:     "Loading Dock",
		Type:     domain.ZonePPERequired,
		Vertices: trianglePoints(),
	}
	id, err := client.Create(context.Background(), zone)
	require.NoError(t, err)
	require.Equal(t, domain.ZoneID("srv-7"), id)

	// Vertices travel as [x,y] pairs.
	require.Equal(t, "Loading Dock", got.Name)
	require.Equal(t, "ppe_required", got.ZoneType)
	require.Equal(t, [][2]float64{{0.1, 0.1}, {0.5, 0.1}, {0.5, 0.5}}, got.Polygon)
}

func TestClient_DeleteZone(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/zones/known", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		w.Write([]byte(`{"status": "deleted"}`))
	})
	mux.HandleFunc("/zones/ghost", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	client := newTestClient(t, mux)

	require.NoError(t, client.Delete(context.Background(), "known"))
	require.ErrorIs(t, client.Delete(context.Background(), "ghost"), domain.ErrNotFound)
}

func TestClient_Health(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ok", "model_available": true, "model_name": "hazard-v2"}`))
	})
	client := newTestClient(t, mux)

	h, err := client.Health(context.Background())
	require.NoError(t, err)
	require.True(t, h.ModelAvailable)
	require.Equal(t, "hazard-v2", h.ModelName)
}

func TestClient_UpdateSettingsOmitsUnsetFields(t *testing.T) {
	var body map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("/settings", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{"status": "updated"}`))
	})
	client := newTestClient(t, mux)

	threshold := 0.6
	err := client.UpdateSettings(context.Background(), SettingsUpdate{
		ConfidenceThreshold: &threshold,
	})
	require.NoError(t, err)

	require.Contains(t, body, "confidence_threshold")
	require.NotContains(t, body, "skip_frames")
	require.NotContains(t, body, "stream_fps")
}

func TestClient_JobStatusAndAnalytics(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs/j1/status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"job_id": "j1", "status": "processing", "progress": 0.4, "total_frames": 500, "processed_frames": 200}`))
	})
	mux.HandleFunc("/jobs/j1/analytics", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total_events": 12, "critical_events": 3, "event_type_counts": {"ppe_violation": 7}}`))
	})
	client := newTestClient(t, mux)

	status, err := client.JobStatus(context.Background(), "j1")
	require.NoError(t, err)
	require.Equal(t, "processing", status.Status)
	require.Equal(t, 200, status.ProcessedFrames)

	snap, err := client.JobAnalytics(context.Background(), "j1")
	require.NoError(t, err)
	require.Equal(t, 12, snap.TotalEvents)
	require.Equal(t, 7, snap.EventTypeCounts["ppe_violation"])
}

func TestClient_Upload(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "site.mp4", header.Filename)
		w.Write([]byte(`{"job_id": "job-42", "status": "queued"}`))
	})
	client := newTestClient(t, mux)

	jobID, err := client.Upload(context.Background(), "site.mp4", strings.NewReader("fake video bytes"))
	require.NoError(t, err)
	require.Equal(t, domain.JobID("job-42"), jobID)
}

func TestClient_JobEventsFilter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs/j1/events", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "critical", r.URL.Query().Get("severity"))
		require.Equal(t, "10", r.URL.Query().Get("limit"))
		w.Write([]byte(`[{"id": "e1", "severity": "critical", "event_type": "fall", "description": "worker down", "timestamp": "2026-08-23T10:00:00Z"}]`))
	})
	client := newTestClient(t, mux)

	alerts, err := client.JobEvents(context.Background(), "j1", domain.SeverityCritical, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.Equal(t, "fall", alerts[0].EventType)
	require.Equal(t, 2026, alerts[0].Timestamp.Year())
}

func TestClient_ServerErrorSurfaces(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.Health(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrNotFound)
	require.Contains(t, err.Error(), "500")
}
