package transport

import (
	"encoding/json"
	"time"

	"hazardlens/internal/core/domain"
)

// Wire structs for the backend's streaming contract. Both transports decode
// through these so field-merge behavior cannot drift between them.

type frameWire struct {
	FrameNumber       int      `json:"frame_number"`
	AnnotatedFrameB64 string   `json:"annotated_frame_b64"`
	Frame             string   `json:"frame"`
	Image             string   `json:"image"`
	RiskScore         *float64 `json:"risk_score"`
	ComplianceRate    *float64 `json:"compliance_rate"`
	TrackedObjects    *int     `json:"tracked_objects"`
}

// payload returns the frame image under whichever key the backend used.
func (w *frameWire) payload() string {
	switch {
	case w.AnnotatedFrameB64 != "":
		return w.AnnotatedFrameB64
	case w.Frame != "":
		return w.Frame
	default:
		return w.Image
	}
}

func (w *frameWire) toFrame() *domain.Frame {
	return &domain.Frame{
		Number:         w.FrameNumber,
		Payload:        w.payload(),
		ReceivedAt:     time.Now(),
		RiskScore:      w.RiskScore,
		ComplianceRate: w.ComplianceRate,
		TrackedObjects: w.TrackedObjects,
	}
}

type alertWire struct {
	ID          string `json:"id"`
	Severity    string `json:"severity"`
	EventType   string `json:"event_type"`
	TypeAlias   string `json:"type"`
	Description string `json:"description"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
}

func (w *alertWire) toAlert() *domain.Alert {
	eventType := w.EventType
	if eventType == "" {
		eventType = w.TypeAlias
	}
	description := w.Description
	if description == "" {
		description = w.Message
	}

	ts := time.Now()
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999"} {
		if parsed, err := time.Parse(layout, w.Timestamp); err == nil {
			ts = parsed
			break
		}
	}

	return &domain.Alert{
		ID:          domain.AlertID(w.ID),
		Severity:    domain.Severity(w.Severity),
		EventType:   eventType,
		Description: description,
		Timestamp:   ts,
	}
}

func decodeAnalytics(data []byte) (*domain.AnalyticsSnapshot, error) {
	var snap domain.AnalyticsSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
