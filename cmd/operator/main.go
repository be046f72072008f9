package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hazardlens/internal/core/domain"
	"hazardlens/internal/core/ports"
	"hazardlens/internal/core/services"
	"hazardlens/internal/infrastructure/monitoring"
	"hazardlens/internal/infrastructure/rest"
	"hazardlens/internal/infrastructure/transport"
	"hazardlens/pkg/config"
	"hazardlens/pkg/logger"
	"hazardlens/pkg/tracing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	configPaths := []string{
		"configs/operator.yaml",
		"./operator.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error
	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}
	if err != nil {
		cfg = config.DefaultConfig()
	}

	zapLogger := logger.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "hazardlens-operator",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: "production",
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	collector := monitoring.NewPrometheusCollector()
	if cfg.Monitoring.PrometheusEnabled {
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort)
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			log.Infow("metrics endpoint listening", "addr", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Errorw("metrics endpoint stopped", "error", err)
			}
		}()
	}

	restClient := rest.NewClient(cfg.Backend.BaseURL, cfg.Backend.RequestTimeout, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthPoller := monitoring.NewHealthPoller(restClient, cfg.Backend.HealthInterval, log)
	go healthPoller.Run(ctx)

	zoneService := services.NewZoneService(restClient, collector, log)
	zoneService.Hydrate(ctx)

	alertService := services.NewAlertService(func(alert domain.Alert) {
		// Escalation cue: surfaced for the presentation layer.
		log.Warnw("critical alert escalation",
			"alert_id", alert.ID,
			"event_type", alert.EventType,
			"description", alert.Description,
		)
	}, collector, log)

	factory := streamFactory(cfg, log)
	sessionService := services.NewSessionService(
		factory, alertService, collector, log,
		cfg.Session.ReconnectDelay, cfg.Session.FPSInterval,
	)

	kind, jobID := sessionTarget(cfg)
	if jobID != "" {
		if status, err := restClient.JobStatus(ctx, jobID); err != nil {
			log.Warnw("job status unavailable", "job_id", jobID, "error", err)
		} else {
			log.Infow("attaching to job",
				"job_id", jobID,
				"status", status.Status,
				"progress", status.Progress,
				"processed_frames", status.ProcessedFrames,
			)
		}
	}

	sessionID, err := sessionService.Start(ctx, kind, jobID)
	if err != nil {
		log.Fatalw("failed to start stream session", "error", err)
	}
	log.Infow("operator console running",
		"session_id", sessionID,
		"mode", cfg.Session.Mode,
		"backend", cfg.Backend.BaseURL,
	)

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, syscall.SIGINT, syscall.SIGTERM)
	<-sigC

	log.Info("shutting down")
	sessionService.Stop()
	logAnalyticsSummary(context.Background(), restClient, jobID, log)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warnw("tracer shutdown failed", "error", err)
	}
}

// streamFactory builds one transport per connection, routed by the backend's
// endpoint layout: demo and job streams are push (SSE), live capture is the
// socket.
func streamFactory(cfg *config.Config, log *zap.SugaredLogger) ports.TransportFactory {
	return func(kind domain.TransportKind, jobID domain.JobID) (ports.Transport, error) {
		switch kind {
		case domain.TransportPushStream:
			url := cfg.Backend.BaseURL + "/demo/stream"
			if jobID != "" {
				url = cfg.Backend.BaseURL + "/jobs/" + string(jobID) + "/stream"
			}
			return transport.NewPushStreamClient(url, log), nil
		case domain.TransportSocket:
			return transport.NewSocketClient(cfg.Backend.SocketURL, cfg.Session.CaptureRate, log), nil
		default:
			return nil, fmt.Errorf("unknown transport kind %q", kind)
		}
	}
}

// logAnalyticsSummary pulls the stored aggregates one last time so the final
// numbers land in the log even if the session ended mid-stream.
func logAnalyticsSummary(ctx context.Context, registry ports.AnalyticsRegistry, jobID domain.JobID, log *zap.SugaredLogger) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		snap *domain.AnalyticsSnapshot
		err  error
	)
	if jobID != "" {
		snap, err = registry.JobAnalytics(ctx, jobID)
	} else {
		snap, err = registry.DemoAnalytics(ctx)
	}
	if err != nil {
		log.Debugw("final analytics unavailable", "error", err)
		return
	}

	log.Infow("session analytics",
		"total_events", snap.TotalEvents,
		"critical_events", snap.CriticalEvents,
		"avg_risk_score", snap.AvgRiskScore,
		"compliance_rate", snap.ComplianceRate,
	)
}

func sessionTarget(cfg *config.Config) (domain.TransportKind, domain.JobID) {
	switch cfg.Session.Mode {
	case "live":
		return domain.TransportSocket, ""
	case "job":
		return domain.TransportPushStream, domain.JobID(cfg.Session.JobID)
	default:
		return domain.TransportPushStream, ""
	}
}
