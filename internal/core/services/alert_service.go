package services

import (
	"sync"

	"hazardlens/internal/core/domain"
	"hazardlens/internal/core/ports"
	"hazardlens/pkg/utils"

	"go.uber.org/zap"
)

// MaxAlerts bounds the aggregator's log; eviction is oldest-first.
const MaxAlerts = 200

type alertService struct {
	mu            sync.Mutex
	log           []domain.Alert // newest first
	criticalCount int

	notify  func(domain.Alert)
	metrics ports.Metrics
	logger  *zap.SugaredLogger
}

// NewAlertService creates the alert aggregator. notify is the escalation cue;
// it fires only when the number of critical alerts in the log increases and
// the log was non-empty before the ingestion. That keeps a backend replaying
// history on session start from triggering a cue storm.
func NewAlertService(notify func(domain.Alert), metrics ports.Metrics, logger *zap.SugaredLogger) ports.AlertService {
	if notify == nil {
		notify = func(domain.Alert) {}
	}
	return &alertService{
		notify:  notify,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *alertService) Ingest(alert domain.Alert) {
	if alert.ID == "" {
		alert.ID = domain.AlertID(utils.GenerateAlertID())
	}

	s.mu.Lock()
	wasEmpty := len(s.log) == 0
	prevCritical := s.criticalCount

	s.log = append([]domain.Alert{alert}, s.log...)
	if alert.Severity == domain.SeverityCritical {
		s.criticalCount++
	}
	if len(s.log) > MaxAlerts {
		evicted := s.log[len(s.log)-1]
		s.log = s.log[:MaxAlerts]
		if evicted.Severity == domain.SeverityCritical {
			s.criticalCount--
		}
	}
	escalated := !wasEmpty && s.criticalCount > prevCritical
	s.mu.Unlock()

	s.metrics.AlertReceived(string(alert.Severity))
	s.logger.Debugw("alert ingested",
		"alert_id", alert.ID,
		"severity", alert.Severity,
		"event_type", alert.EventType,
	)

	if escalated {
		s.notify(alert)
	}
}

// Alerts returns the log newest-first.
func (s *alertService) Alerts() []domain.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Alert, len(s.log))
	copy(out, s.log)
	return out
}

func (s *alertService) CriticalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criticalCount
}

// Reset clears the log. Called by the orchestrator when a new session starts
// so the fresh session's first alert never cues.
func (s *alertService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = nil
	s.criticalCount = 0
}
