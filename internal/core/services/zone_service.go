package services

import (
	"context"
	"fmt"
	"sync"

	"hazardlens/internal/core/domain"
	"hazardlens/internal/core/ports"
	"hazardlens/pkg/retry"
	"hazardlens/pkg/utils"

	"go.uber.org/zap"
)

// zoneService mirrors the remote zone registry with an optimistic-always-
// commit policy: local state is the source of truth for rendering, and the
// remote call is a side effect that never blocks or reverts the local
// mutation. An operator must not lose a hand-drawn polygon to a failed
// network call.
type zoneService struct {
	mu    sync.RWMutex
	zones map[domain.ZoneID]*domain.Zone
	order []domain.ZoneID

	registry ports.ZoneRegistry
	metrics  ports.Metrics
	logger   *zap.SugaredLogger

	hydrateOnce sync.Once
}

func NewZoneService(registry ports.ZoneRegistry, metrics ports.Metrics, logger *zap.SugaredLogger) ports.ZoneService {
	return &zoneService{
		zones:    make(map[domain.ZoneID]*domain.Zone),
		registry: registry,
		metrics:  metrics,
		logger:   logger,
	}
}

// Hydrate loads the initial zone set from the registry, once. A failed
// hydration leaves local state empty; that is logged, not surfaced.
func (s *zoneService) Hydrate(ctx context.Context) {
	s.hydrateOnce.Do(func() {
		zones, err := retry.RetryWithResult(ctx, retry.DefaultConfig(), func() ([]*domain.Zone, error) {
			return s.registry.List(ctx)
		})
		if err != nil {
			s.logger.Warnw("zone hydration failed, starting empty", "error", err)
			return
		}

		s.mu.Lock()
		for _, z := range zones {
			if !z.Valid() {
				continue
			}
			s.zones[z.ID] = z
			s.order = append(s.order, z.ID)
		}
		s.mu.Unlock()

		s.logger.Infow("zones hydrated", "count", len(zones))
	})
}

func (s *zoneService) Create(ctx context.Context, draft domain.ZoneDraft) (*domain.Zone, error) {
	if len(draft.Vertices) < domain.MinZoneVertices {
		return nil, domain.ErrZoneTooFewPoints
	}

	name := draft.Name
	if name == "" {
		s.mu.RLock()
		name = fmt.Sprintf("Zone %d", len(s.order)+1)
		s.mu.RUnlock()
	}

	zone := &domain.Zone{
		ID:       domain.ZoneID(utils.GenerateZoneID()),
		Name:     name,
		Type:     draft.Type,
		Vertices: draft.Vertices,
	}

	remoteID, err := s.registry.Create(ctx, zone)
	switch {
	case err != nil:
		// Local state still commits; the registry may catch up later.
		s.metrics.ZoneSyncFailure("create")
		s.logger.Warnw("zone create not acknowledged by registry, keeping local copy",
			"zone_id", zone.ID, "error", err)
	case remoteID != "":
		zone.ID = remoteID
	}

	s.mu.Lock()
	s.zones[zone.ID] = zone
	s.order = append(s.order, zone.ID)
	s.mu.Unlock()

	s.logger.Infow("zone created", "zone_id", zone.ID, "type", zone.Type, "vertices", len(zone.Vertices))
	return zone, nil
}

func (s *zoneService) Delete(ctx context.Context, id domain.ZoneID) {
	if err := s.registry.Delete(ctx, id); err != nil {
		// The registry may have independently removed it already (404) or be
		// unreachable; local removal proceeds either way.
		s.metrics.ZoneSyncFailure("delete")
		s.logger.Warnw("zone delete not acknowledged by registry", "zone_id", id, "error", err)
	}

	s.mu.Lock()
	delete(s.zones, id)
	for i, zid := range s.order {
		if zid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.logger.Infow("zone deleted", "zone_id", id)
}

// List returns zones in creation order.
func (s *zoneService) List() []*domain.Zone {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Zone, 0, len(s.order))
	for _, id := range s.order {
		if z, ok := s.zones[id]; ok {
			out = append(out, z)
		}
	}
	return out
}
