package geometry

import (
	"math"
	"sort"
)

// Segment is a directed line segment with cached length and angle.
type Segment struct {
	From, To Point
	Length   float64
	Angle    float64 // atan2, radians in (-pi, pi]
}

// NewSegment builds the segment from a to b.
func NewSegment(a, b Point) Segment {
	return Segment{
		From:   a,
		To:     b,
		Length: a.Dist(b),
		Angle:  math.Atan2(b.Y-a.Y, b.X-a.X),
	}
}

// Outline turns a closed polygon into its consecutive edges.
func Outline(poly []Point) []Segment {
	if len(poly) < 2 {
		return nil
	}
	segs := make([]Segment, len(poly))
	for i := range poly {
		segs[i] = NewSegment(poly[i], poly[(i+1)%len(poly)])
	}
	return segs
}

// angleGap is the absolute angle difference as a fraction of a full turn,
// measured the short way round.
func angleGap(a, b float64) float64 {
	d := math.Abs(a-b) / (2 * math.Pi)
	return math.Min(d, 1-d)
}

// MergeCollinear replaces runs of consecutive segments whose angles differ
// by less than tol (fraction of a full turn) with a single spanning
// segment. The closing pair (last, first) is merged too.
func MergeCollinear(segs []Segment, tol float64) []Segment {
	lines := append([]Segment(nil), segs...)
	for i := 0; i+1 < len(lines); {
		if angleGap(lines[i].Angle, lines[i+1].Angle) < tol {
			lines[i] = NewSegment(lines[i].From, lines[i+1].To)
			lines = append(lines[:i+1], lines[i+2:]...)
			continue
		}
		i++
	}
	for len(lines) > 2 {
		last, first := lines[len(lines)-1], lines[0]
		if angleGap(last.Angle, first.Angle) >= tol {
			break
		}
		lines[0] = NewSegment(last.From, first.To)
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Perimeter sums segment lengths.
func Perimeter(segs []Segment) float64 {
	var p float64
	for _, s := range segs {
		p += s.Length
	}
	return p
}

// Rejection names why an outline did not yield a quad.
type Rejection int

const (
	Accepted Rejection = iota
	RejectNoPoints
	RejectPerimeter
	RejectTooFewSides
	RejectDominance
	RejectDegenerate
)

func (r Rejection) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case RejectNoPoints:
		return "no edge points"
	case RejectPerimeter:
		return "perimeter too small"
	case RejectTooFewSides:
		return "fewer than four sides"
	case RejectDominance:
		return "four longest sides do not dominate"
	case RejectDegenerate:
		return "parallel sides"
	default:
		return "unknown"
	}
}

// OutlineConfig holds the outline acceptance thresholds.
type OutlineConfig struct {
	MergeTolerance float64
	MinPerimeter   float64
	DominanceRatio float64
}

// DefaultOutlineConfig returns the card-sized thresholds.
func DefaultOutlineConfig() OutlineConfig {
	return OutlineConfig{
		MergeTolerance: MergeAngleTolerance,
		MinPerimeter:   MinPerimeter,
		DominanceRatio: DominanceRatio,
	}
}

// OutlineResult carries the recovered quad and the numbers that gated it.
type OutlineResult struct {
	Quad      Quad
	Rejection Rejection
	Perimeter float64
	Dominance float64
	Sides     int
}

// QuadFromPoints recovers a quadrilateral from a cloud of edge points: hull,
// straighten, keep the four longest sides and intersect them.
func QuadFromPoints(pts []Point, cfg OutlineConfig) OutlineResult {
	if len(pts) == 0 {
		return OutlineResult{Rejection: RejectNoPoints}
	}
	return QuadFromHull(ConvexHull(pts), cfg)
}

// QuadFromHull runs the side selection on an already computed hull.
func QuadFromHull(hull []Point, cfg OutlineConfig) OutlineResult {
	lines := MergeCollinear(Outline(hull), cfg.MergeTolerance)
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Length > lines[j].Length })

	res := OutlineResult{Perimeter: Perimeter(lines), Sides: len(lines)}
	if res.Perimeter <= cfg.MinPerimeter {
		res.Rejection = RejectPerimeter
		return res
	}
	if len(lines) < 4 {
		res.Rejection = RejectTooFewSides
		return res
	}

	sides := append([]Segment(nil), lines[:4]...)
	res.Dominance = Perimeter(sides) / res.Perimeter
	if res.Dominance <= cfg.DominanceRatio {
		res.Rejection = RejectDominance
		return res
	}

	sort.SliceStable(sides, func(i, j int) bool { return sides[i].Angle > sides[j].Angle })
	var corners [4]Point
	for i := range sides {
		corners[i] = IntersectLines(sides[i], sides[(i+1)%4])
	}
	for _, c := range corners {
		if c == Sentinel {
			res.Rejection = RejectDegenerate
			return res
		}
	}
	res.Quad = OrderCorners(corners)
	if res.Quad.Degenerate() {
		res.Rejection = RejectDegenerate
	}
	return res
}
