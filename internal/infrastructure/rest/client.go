package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"hazardlens/internal/core/domain"
	"hazardlens/internal/core/ports"
	"hazardlens/pkg/geometry"
	"hazardlens/pkg/logger"
	"hazardlens/pkg/tracing"

	"go.uber.org/zap"
)

// Client talks to the backend's REST surface: zones, settings, health, jobs
// and analytics. It implements ports.ZoneRegistry and ports.AnalyticsRegistry.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.ContextLogger
}

func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.NewContextLogger(log),
	}
}

// zoneWire is the backend's zone shape; polygons travel as [x,y] pairs.
type zoneWire struct {
	ID       string       `json:"id,omitempty"`
	Name     string       `json:"name"`
	ZoneType string       `json:"zone_type"`
	Polygon  [][2]float64 `json:"polygon"`
}

func toZoneWire(z *domain.Zone) zoneWire {
	w := zoneWire{
		Name:     z.Name,
		ZoneType: string(z.Type),
		Polygon:  make([][2]float64, 0, len(z.Vertices)),
	}
	for _, v := range z.Vertices {
		w.Polygon = append(w.Polygon, [2]float64{v.X, v.Y})
	}
	return w
}

func (w *zoneWire) toZone() *domain.Zone {
	z := &domain.Zone{
		ID:       domain.ZoneID(w.ID),
		Name:     w.Name,
		Type:     domain.ZoneType(w.ZoneType),
		Vertices: make([]geometry.Point, 0, len(w.Polygon)),
	}
	for _, p := range w.Polygon {
		z.Vertices = append(z.Vertices, geometry.Point{X: p[0], Y: p[1]})
	}
	return z
}

func (c *Client) List(ctx context.Context) ([]*domain.Zone, error) {
	var wires []zoneWire
	if err := c.get(ctx, "/zones", &wires); err != nil {
		return nil, err
	}

	zones := make([]*domain.Zone, 0, len(wires))
	for i := range wires {
		zones = append(zones, wires[i].toZone())
	}
	return zones, nil
}

func (c *Client) Create(ctx context.Context, zone *domain.Zone) (domain.ZoneID, error) {
	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := c.post(ctx, "/zones", toZoneWire(zone), &resp); err != nil {
		return "", err
	}
	return domain.ZoneID(resp.ID), nil
}

func (c *Client) Delete(ctx context.Context, id domain.ZoneID) error {
	return c.do(ctx, http.MethodDelete, "/zones/"+url.PathEscape(string(id)), nil, nil)
}

// SettingsUpdate carries the backend's tunables; nil fields are left alone.
type SettingsUpdate struct {
	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty"`
	SkipFrames          *int     `json:"skip_frames,omitempty"`
	ProximityThreshold  *float64 `json:"proximity_threshold,omitempty"`
	LoiterSeconds       *float64 `json:"loiter_seconds,omitempty"`
	StreamFPS           *float64 `json:"stream_fps,omitempty"`
}

func (c *Client) UpdateSettings(ctx context.Context, update SettingsUpdate) error {
	return c.do(ctx, http.MethodPut, "/settings", update, nil)
}

// Health is the backend's liveness response; ModelAvailable drives the
// "model online" indicator.
type Health struct {
	Status         string `json:"status"`
	ModelAvailable bool   `json:"model_available"`
	ModelName      string `json:"model_name"`
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.get(ctx, "/health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) JobAnalytics(ctx context.Context, jobID domain.JobID) (*domain.AnalyticsSnapshot, error) {
	var snap domain.AnalyticsSnapshot
	if err := c.get(ctx, "/jobs/"+url.PathEscape(string(jobID))+"/analytics", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) DemoAnalytics(ctx context.Context) (*domain.AnalyticsSnapshot, error) {
	var snap domain.AnalyticsSnapshot
	if err := c.get(ctx, "/demo/analytics", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// JobStatus mirrors the backend's processing-job record.
type JobStatus struct {
	JobID           string  `json:"job_id"`
	Status          string  `json:"status"`
	Progress        float64 `json:"progress"`
	TotalFrames     int     `json:"total_frames"`
	ProcessedFrames int     `json:"processed_frames"`
	Error           string  `json:"error,omitempty"`
}

func (c *Client) JobStatus(ctx context.Context, jobID domain.JobID) (*JobStatus, error) {
	var status JobStatus
	if err := c.get(ctx, "/jobs/"+url.PathEscape(string(jobID))+"/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Upload posts a video for processing and returns the queued job id.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (domain.JobID, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("failed to buffer upload: %w", err)
	}
	writer.Close()

	ctx, span := tracing.TraceHTTPRequest(ctx, http.MethodPost, "/upload")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	if err := c.send(ctx, req, "/upload", &resp); err != nil {
		return "", err
	}
	return domain.JobID(resp.JobID), nil
}

// JobEvents fetches the stored event log, optionally filtered by severity.
func (c *Client) JobEvents(ctx context.Context, jobID domain.JobID, severity domain.Severity, limit int) ([]domain.Alert, error) {
	path := "/jobs/" + url.PathEscape(string(jobID)) + "/events"
	query := url.Values{}
	if severity != "" {
		query.Set("severity", string(severity))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var wires []struct {
		ID          string    `json:"id"`
		Severity    string    `json:"severity"`
		EventType   string    `json:"event_type"`
		Description string    `json:"description"`
		Timestamp   time.Time `json:"timestamp"`
	}
	if err := c.get(ctx, path, &wires); err != nil {
		return nil, err
	}

	alerts := make([]domain.Alert, 0, len(wires))
	for _, w := range wires {
		alerts = append(alerts, domain.Alert{
			ID:          domain.AlertID(w.ID),
			Severity:    domain.Severity(w.Severity),
			EventType:   w.EventType,
			Description: w.Description,
			Timestamp:   w.Timestamp,
		})
	}
	return alerts, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	ctx, span := tracing.TraceHTTPRequest(ctx, method, path)
	defer span.End()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(ctx, req, path, out)
}

func (c *Client) send(ctx context.Context, req *http.Request, path string, out interface{}) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		tracing.RecordError(ctx, err)
		return fmt.Errorf("request %s %s failed: %w", req.Method, path, err)
	}
	defer resp.Body.Close()

	c.logger.LogRequest(ctx, req.Method, path, resp.StatusCode, time.Since(start).Milliseconds())

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("request %s %s: unexpected status %d", req.Method, path, resp.StatusCode)
		tracing.RecordError(ctx, err)
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

var (
	_ ports.ZoneRegistry      = (*Client)(nil)
	_ ports.AnalyticsRegistry = (*Client)(nil)
)
