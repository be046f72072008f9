package domain

import "hazardlens/pkg/geometry"

type ZoneID string

type ZoneType string

const (
	ZoneRestricted  ZoneType = "restricted"
	ZoneHazard      ZoneType = "hazard"
	ZonePPERequired ZoneType = "ppe_required"
)

// MinZoneVertices is the smallest polygon that is a valid zone.
const MinZoneVertices = 3

// Zone is a hazard-zone polygon in unit-square coordinates. Device pixels are
// converted at the input boundary and never stored.
type Zone struct {
	ID       ZoneID
	Name     string
	Type     ZoneType
	Vertices []geometry.Point
}

// Valid reports whether the zone has enough vertices to be persisted or
// rendered as a filled polygon.
func (z *Zone) Valid() bool {
	return len(z.Vertices) >= MinZoneVertices
}

// Centroid is where the zone's label is anchored.
func (z *Zone) Centroid() geometry.Point {
	return geometry.Centroid(z.Vertices)
}

// ZoneDraft is a completed polygon emitted by the editor, not yet registered.
type ZoneDraft struct {
	Name     string
	Type     ZoneType
	Vertices []geometry.Point
}
