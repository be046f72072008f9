package ports

// Metrics is the instrumentation hook implemented by the monitoring
// collector. A no-op implementation is fine for tests.
type Metrics interface {
	FrameReceived(transport string)
	AlertReceived(severity string)
	ReconnectScheduled(transport string)
	SetFPS(fps float64)
	SetConnectionState(state string)
	ZoneSyncFailure(operation string)
}
