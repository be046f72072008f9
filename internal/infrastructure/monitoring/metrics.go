package monitoring

import (
	"hazardlens/internal/core/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector implements ports.Metrics for the operator console.
type PrometheusCollector struct {
	framesReceivedTotal *prometheus.CounterVec
	alertsTotal         *prometheus.CounterVec
	reconnectsTotal     *prometheus.CounterVec
	zoneSyncFailures    *prometheus.CounterVec

	streamFPS       prometheus.Gauge
	connectionState *prometheus.GaugeVec
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		framesReceivedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hazardlens_frames_received_total",
			Help: "Total annotated frames received, by transport",
		}, []string{"transport"}),

		alertsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hazardlens_alerts_total",
			Help: "Total safety alerts ingested, by severity",
		}, []string{"severity"}),

		reconnectsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hazardlens_reconnects_total",
			Help: "Total automatic reconnect attempts scheduled, by transport",
		}, []string{"transport"}),

		zoneSyncFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hazardlens_zone_sync_failures_total",
			Help: "Zone registry calls that failed and were absorbed locally",
		}, []string{"operation"}),

		streamFPS: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hazardlens_stream_fps",
			Help: "Current windowed frames-per-second estimate",
		}),

		connectionState: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hazardlens_connection_state",
			Help: "Active session connection state (1 for the current state)",
		}, []string{"state"}),
	}
}

func (c *PrometheusCollector) FrameReceived(transport string) {
	c.framesReceivedTotal.WithLabelValues(transport).Inc()
}

func (c *PrometheusCollector) AlertReceived(severity string) {
	c.alertsTotal.WithLabelValues(severity).Inc()
}

func (c *PrometheusCollector) ReconnectScheduled(transport string) {
	c.reconnectsTotal.WithLabelValues(transport).Inc()
}

func (c *PrometheusCollector) ZoneSyncFailure(operation string) {
	c.zoneSyncFailures.WithLabelValues(operation).Inc()
}

func (c *PrometheusCollector) SetFPS(fps float64) {
	c.streamFPS.Set(fps)
}

func (c *PrometheusCollector) SetConnectionState(state string) {
	c.connectionState.Reset()
	c.connectionState.WithLabelValues(state).Set(1)
}

var _ ports.Metrics = (*PrometheusCollector)(nil)

// NopMetrics discards all instrumentation. Useful in tests.
type NopMetrics struct{}

func (NopMetrics) FrameReceived(string)      {}
func (NopMetrics) AlertReceived(string)      {}
func (NopMetrics) ReconnectScheduled(string) {}
func (NopMetrics) SetFPS(float64)            {}
func (NopMetrics) SetConnectionState(string) {}
func (NopMetrics) ZoneSyncFailure(string)    {}

var _ ports.Metrics = NopMetrics{}
