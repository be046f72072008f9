package ports

import (
	"context"

	"hazardlens/internal/core/domain"
)

// ZoneRegistry is the remote zone store. Calls are best-effort side effects
// with respect to local state; only Create's returned id feeds back in.
type ZoneRegistry interface {
	List(ctx context.Context) ([]*domain.Zone, error)
	Create(ctx context.Context, zone *domain.Zone) (domain.ZoneID, error)
	Delete(ctx context.Context, id domain.ZoneID) error
}

// AnalyticsRegistry fetches stored per-job aggregates over REST.
type AnalyticsRegistry interface {
	JobAnalytics(ctx context.Context, jobID domain.JobID) (*domain.AnalyticsSnapshot, error)
	DemoAnalytics(ctx context.Context) (*domain.AnalyticsSnapshot, error)
}
