package geometry

import (
	"fmt"
	"image"
	"math"
)

// Point is a 2D point in image coordinates (x right, y down).
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// FromImagePoint converts an integer pixel position.
func FromImagePoint(p image.Point) Point {
	return Point{X: float64(p.X), Y: float64(p.Y)}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

func (p Point) String() string { return fmt.Sprintf("(%.1f, %.1f)", p.X, p.Y) }

// Quad is a quadrilateral in canonical order.
type Quad struct {
	TopLeft     Point `json:"top_left"`
	BottomLeft  Point `json:"bottom_left"`
	BottomRight Point `json:"bottom_right"`
	TopRight    Point `json:"top_right"`
}

// Points returns the corners in canonical order.
func (q Quad) Points() [4]Point {
	return [4]Point{q.TopLeft, q.BottomLeft, q.BottomRight, q.TopRight}
}

// Degenerate reports whether any corner is the parallel-line sentinel.
func (q Quad) Degenerate() bool {
	for _, p := range q.Points() {
		if p == Sentinel {
			return true
		}
	}
	return false
}

// AngleCosine returns the cosine of the angle at p0 between the rays to p1
// and p2.
func AngleCosine(p1, p2, p0 Point) float64 {
	dx1, dy1 := p1.X-p0.X, p1.Y-p0.Y
	dx2, dy2 := p2.X-p0.X, p2.Y-p0.Y
	return (dx1*dx2 + dy1*dy2) / math.Sqrt((dx1*dx1+dy1*dy1)*(dx2*dx2+dy2*dy2)+cosineEpsilon)
}

// OrderCorners relabels four points by sum and difference extrema:
// TopLeft has the smallest x+y, BottomRight the largest x+y, TopRight the
// smallest x-y and BottomLeft the largest x-y. The first point found wins
// ties.
func OrderCorners(pts [4]Point) Quad {
	minSum, maxSum, minDiff, maxDiff := 0, 0, 0, 0
	for i := 1; i < len(pts); i++ {
		sum, diff := pts[i].X+pts[i].Y, pts[i].X-pts[i].Y
		if sum < pts[minSum].X+pts[minSum].Y {
			minSum = i
		}
		if sum > pts[maxSum].X+pts[maxSum].Y {
			maxSum = i
		}
		if diff < pts[minDiff].X-pts[minDiff].Y {
			minDiff = i
		}
		if diff > pts[maxDiff].X-pts[maxDiff].Y {
			maxDiff = i
		}
	}
	return Quad{
		TopLeft:     pts[minSum],
		BottomLeft:  pts[maxDiff],
		BottomRight: pts[maxSum],
		TopRight:    pts[minDiff],
	}
}

// IntersectLines intersects the infinite lines through a and b. Parallel
// lines yield Sentinel.
func IntersectLines(a, b Segment) Point {
	x1, y1 := a.From.X, a.From.Y
	x2, y2 := a.To.X, a.To.Y
	x3, y3 := b.From.X, b.From.Y
	x4, y4 := b.To.X, b.To.Y

	denom := (x1-x2)*(y3-y4) - (y1-y2)*(x3-x4)
	if denom == 0 {
		return Sentinel
	}
	c1 := x1*y2 - y1*x2
	c2 := x3*y4 - y3*x4
	return Point{
		X: (c1*(x3-x4) - (x1-x2)*c2) / denom,
		Y: (c1*(y3-y4) - (y1-y2)*c2) / denom,
	}
}
