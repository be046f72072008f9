package domain

import "time"

type JobID string
type SessionID string

// Frame is the single most recent annotated frame delivered by a transport.
// Payload is the base64-encoded annotated image exactly as received; older
// frames are replaced on arrival, never queued.
type Frame struct {
	Number     int
	Payload    string
	ReceivedAt time.Time

	// Inline metrics; nil means the payload did not carry the field.
	RiskScore      *float64
	ComplianceRate *float64
	TrackedObjects *int
}

// Stats is the derived per-connection view exposed to presentation code.
// FrameCount resets to zero each time a connection attempt begins.
type Stats struct {
	FrameCount     int
	FPS            float64
	RiskScore      float64
	ComplianceRate float64
	TrackedObjects int
}

// ApplyFrame merges a frame's inline metrics into the stats. Only fields
// present in the payload overwrite; absent fields retain their prior value.
// This is the one merge policy shared by both transports.
func (s *Stats) ApplyFrame(f *Frame) {
	s.FrameCount++
	if f.RiskScore != nil {
		s.RiskScore = *f.RiskScore
	}
	if f.ComplianceRate != nil {
		s.ComplianceRate = *f.ComplianceRate
	}
	if f.TrackedObjects != nil {
		s.TrackedObjects = *f.TrackedObjects
	}
}
