package domain

// TimeSeriesPoint is one bucket of a per-session time series.
type TimeSeriesPoint struct {
	Timestamp float64 `json:"timestamp"`
	Value     float64 `json:"value"`
}

// AnalyticsSnapshot is the aggregated view of the active session. Snapshots
// are wholesale-replaced on each arrival, never merged field by field.
type AnalyticsSnapshot struct {
	TotalDetections    int               `json:"total_detections"`
	TotalEvents        int               `json:"total_events"`
	CriticalEvents     int               `json:"critical_events"`
	WarningEvents      int               `json:"warning_events"`
	InfoEvents         int               `json:"info_events"`
	AvgRiskScore       float64           `json:"avg_risk_score"`
	PeakRiskScore      float64           `json:"peak_risk_score"`
	ComplianceRate     float64           `json:"compliance_rate"`
	PPEViolations      int               `json:"ppe_violations"`
	ZoneViolations     int               `json:"zone_violations"`
	NearMisses         int               `json:"near_misses"`
	FallenWorkers      int               `json:"fallen_workers"`
	RiskOverTime       []TimeSeriesPoint `json:"risk_over_time"`
	ComplianceOverTime []TimeSeriesPoint `json:"compliance_over_time"`
	AlertsPerMinute    []TimeSeriesPoint `json:"alerts_per_minute"`
	EventTypeCounts    map[string]int    `json:"event_type_counts"`
}
