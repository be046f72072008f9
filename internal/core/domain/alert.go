package domain

import "time"

type AlertID string

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is a discrete safety event emitted by the pipeline. Immutable once
// ingested; the aggregator keeps them newest-first.
type Alert struct {
	ID          AlertID
	Severity    Severity
	EventType   string
	Description string
	Timestamp   time.Time
}
