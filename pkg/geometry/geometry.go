package geometry

import "math"

// Point is a position in the unit square (0.0–1.0 per axis). Values slightly
// outside the square are legal while a drag is in flight near a surface edge.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds describes a rendering surface in device pixels.
type Bounds struct {
	Width  float64
	Height float64
}

// ToUnit converts a device-pixel position into unit-square coordinates.
// The result is not clamped.
func ToUnit(px, py float64, b Bounds) Point {
	if b.Width == 0 || b.Height == 0 {
		return Point{}
	}
	return Point{X: px / b.Width, Y: py / b.Height}
}

// ToSurface converts a unit-square point back into device pixels.
func ToSurface(p Point, b Bounds) (float64, float64) {
	return p.X * b.Width, p.Y * b.Height
}

// Distance returns the Euclidean distance between two unit-square points.
func Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Centroid returns the arithmetic mean of the given points.
func Centroid(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var c Point
	for _, p := range pts {
		c.X += p.X
		c.Y += p.Y
	}
	c.X /= float64(len(pts))
	c.Y /= float64(len(pts))
	return c
}
