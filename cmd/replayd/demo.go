package main

import (
	"encoding/base64"
	"fmt"
	"math"
	"time"
)

// Synthetic replay data: a narrative arc over 500 frames (~50s at 10 fps).
// Phase 1: compliant activity. Phase 2: PPE violation. Phase 3: zone
// violation. Phase 4: near-miss (critical). Phase 5: compliance restored.

const (
	demoTotalFrames = 500
	demoFPS         = 10
)

type demoAlert struct {
	ID          string `json:"id"`
	Severity    string `json:"severity"`
	EventType   string `json:"event_type"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}

type demoFrame struct {
	Number         int
	RiskScore      float64
	ComplianceRate float64
	TrackedObjects int
	PayloadB64     string
	Alerts         []demoAlert
}

type demoSet struct {
	Frames    []demoFrame
	Analytics map[string]interface{}
}

func generateDemoSet() *demoSet {
	frames := make([]demoFrame, 0, demoTotalFrames)
	start := time.Now()

	var totalEvents, criticalEvents, warningEvents int
	riskSeries := make([]map[string]float64, 0, demoTotalFrames/demoFPS)
	complianceSeries := make([]map[string]float64, 0, demoTotalFrames/demoFPS)
	eventTypeCounts := map[string]int{}
	var peakRisk, riskSum float64

	for i := 0; i < demoTotalFrames; i++ {
		phase := i / 100
		risk := 10 + 8*math.Sin(float64(i)/15)
		compliance := 1.0
		tracked := 4

		var alerts []demoAlert
		ts := start.Add(time.Duration(i) * time.Second / demoFPS).Format(time.RFC3339Nano)

		switch phase {
		case 1:
			compliance = 0.75
			risk += 20
			if i%100 == 20 {
				alerts = append(alerts, demoAlert{
					ID: fmt.Sprintf("demo-ev-%d", i), Severity: "warning",
					EventType: "ppe_violation", Description: "Worker 2 removed hardhat",
					Timestamp: ts,
				})
			}
		case 2:
			tracked = 5
			risk += 35
			if i%100 == 10 {
				alerts = append(alerts, demoAlert{
					ID: fmt.Sprintf("demo-ev-%d", i), Severity: "warning",
					EventType: "zone_violation", Description: "Vehicle entered Equipment Storage",
					Timestamp: ts,
				})
			}
		case 3:
			tracked = 5
			risk += 55
			if i%100 == 50 {
				alerts = append(alerts, demoAlert{
					ID: fmt.Sprintf("demo-ev-%d", i), Severity: "critical",
					EventType: "near_miss", Description: "Worker 3 within 1.2m of moving vehicle",
					Timestamp: ts,
				})
			}
		}
		if risk > 100 {
			risk = 100
		}

		for _, a := range alerts {
			totalEvents++
			eventTypeCounts[a.EventType]++
			switch a.Severity {
			case "critical":
				criticalEvents++
			case "warning":
				warningEvents++
			}
		}

		riskSum += risk
		if risk > peakRisk {
			peakRisk = risk
		}
		if i%demoFPS == 0 {
			t := float64(start.Unix()) + float64(i)/demoFPS
			riskSeries = append(riskSeries, map[string]float64{"timestamp": t, "value": risk})
			complianceSeries = append(complianceSeries, map[string]float64{"timestamp": t, "value": compliance})
		}

		frames = append(frames, demoFrame{
			Number:         i,
			RiskScore:      risk,
			ComplianceRate: compliance,
			TrackedObjects: tracked,
			PayloadB64:     base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("synthetic-frame-%03d", i))),
			Alerts:         alerts,
		})
	}

	analytics := map[string]interface{}{
		"total_detections":     demoTotalFrames * 4,
		"total_events":         totalEvents,
		"critical_events":      criticalEvents,
		"warning_events":       warningEvents,
		"info_events":          totalEvents - criticalEvents - warningEvents,
		"avg_risk_score":       riskSum / demoTotalFrames,
		"peak_risk_score":      peakRisk,
		"compliance_rate":      0.9,
		"ppe_violations":       eventTypeCounts["ppe_violation"],
		"zone_violations":      eventTypeCounts["zone_violation"],
		"near_misses":          eventTypeCounts["near_miss"],
		"fallen_workers":       0,
		"risk_over_time":       riskSeries,
		"compliance_over_time": complianceSeries,
		"alerts_per_minute":    []map[string]float64{},
		"event_type_counts":    eventTypeCounts,
	}

	return &demoSet{Frames: frames, Analytics: analytics}
}
