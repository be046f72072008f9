package monitoring

import (
	"context"
	"sync"
	"time"

	"hazardlens/internal/infrastructure/rest"

	"go.uber.org/zap"
)

// HealthPoller periodically polls the backend's health endpoint and tracks
// whether the detection model is online. Presentation code reads Online();
// transitions are logged.
type HealthPoller struct {
	client   *rest.Client
	interval time.Duration
	logger   *zap.SugaredLogger

	mu        sync.RWMutex
	online    bool
	modelName string
	lastCheck time.Time
}

func NewHealthPoller(client *rest.Client, interval time.Duration, logger *zap.SugaredLogger) *HealthPoller {
	return &HealthPoller{
		client:   client,
		interval: interval,
		logger:   logger,
	}
}

// Run polls until the context is cancelled. The first check runs immediately.
func (p *HealthPoller) Run(ctx context.Context) {
	p.check(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.check(ctx)
		}
	}
}

func (p *HealthPoller) check(ctx context.Context) {
	health, err := p.client.Health(ctx)

	online := err == nil && health.ModelAvailable
	modelName := ""
	if err == nil {
		modelName = health.ModelName
	}

	p.mu.Lock()
	was := p.online
	p.online = online
	p.modelName = modelName
	p.lastCheck = time.Now()
	p.mu.Unlock()

	if was != online {
		if online {
			p.logger.Infow("model online", "model", modelName)
		} else {
			p.logger.Warnw("model offline", "error", err)
		}
	}
}

func (p *HealthPoller) Online() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.online
}

func (p *HealthPoller) ModelName() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modelName
}
