package ports

import (
	"context"

	"hazardlens/internal/core/domain"
)

type SessionService interface {
	// Start tears down any prior session, then begins a new one on the given
	// transport. Teardown completes before the new session starts connecting.
	Start(ctx context.Context, kind domain.TransportKind, jobID domain.JobID) (domain.SessionID, error)
	Stop()
	Send(ctx context.Context, frameB64 string) error
	Snapshot() domain.SessionSnapshot
}

type AlertService interface {
	Ingest(alert domain.Alert)
	Alerts() []domain.Alert
	CriticalCount() int
	Reset()
}

type ZoneService interface {
	Hydrate(ctx context.Context)
	Create(ctx context.Context, draft domain.ZoneDraft) (*domain.Zone, error)
	Delete(ctx context.Context, id domain.ZoneID)
	List() []*domain.Zone
}
