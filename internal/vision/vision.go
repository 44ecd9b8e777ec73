// Package vision recovers card outlines from camera frames
package vision

import (
	"image"
	"math"

	"github.com/GriffinCanCode/cardscan/internal/config"
	apperrors "github.com/GriffinCanCode/cardscan/internal/errors"
	"github.com/GriffinCanCode/cardscan/internal/geometry"
	"github.com/GriffinCanCode/cardscan/internal/scanner"
)

// New returns the quad finder for a detection strategy name. The squares
// strategy needs a gocv build; hull works in every build.
func New(strategy string) (scanner.QuadFinder, error) {
	switch strategy {
	case config.StrategyHull, "":
		return NewHullFinder(geometry.DefaultOutlineConfig()), nil
	case config.StrategySquares:
		if !openCV {
			return nil, apperrors.New(apperrors.Unavailable, "squares strategy needs the gocv build tag").
				WithMetadata("field", "detection_strategy")
		}
		return NewSquaresFinder(), nil
	}
	return nil, apperrors.Newf(apperrors.ConfigInvalid, "unknown detection strategy %q", strategy).
		WithMetadata("field", "detection_strategy")
}

// edgePoints flattens every contour with more than minVertices vertices.
// Small contours are mostly sensor noise.
func edgePoints(contours [][]image.Point, minVertices int) []geometry.Point {
	var pts []geometry.Point
	for _, c := range contours {
		if len(c) <= minVertices {
			continue
		}
		for _, p := range c {
			pts = append(pts, geometry.FromImagePoint(p))
		}
	}
	return pts
}

func toQuadPoints(poly []image.Point) [4]geometry.Point {
	var q [4]geometry.Point
	for i := range 4 {
		q[i] = geometry.FromImagePoint(poly[i])
	}
	return q
}

// maxCornerCosine is the largest |cos| over the corners of a 4-gon.
func maxCornerCosine(q [4]geometry.Point) float64 {
	var worst float64
	for j := 2; j < 5; j++ {
		c := math.Abs(geometry.AngleCosine(q[j%4], q[j-2], q[j-1]))
		worst = math.Max(worst, c)
	}
	return worst
}

// isSquare reports whether an approximated polygon is a card candidate:
// four vertices, large enough, convex and close to right angled.
func isSquare(poly []image.Point) bool {
	if len(poly) != 4 {
		return false
	}
	q := toQuadPoints(poly)
	if geometry.Area(q[:]) <= MinSquareArea || !geometry.IsConvex(q[:]) {
		return false
	}
	return maxCornerCosine(q) < MaxSquareCosine
}

// largestSquare picks the biggest candidate that does not cover most of the
// frame; a near full-frame square is the camera border, not a card.
func largestSquare(squares [][4]geometry.Point, frame image.Point) geometry.OutlineResult {
	limit := MaxFrameCover * float64(frame.X*frame.Y)
	best, bestArea := -1, 0.0
	for i, sq := range squares {
		a := geometry.Area(sq[:])
		if a >= limit || a <= bestArea {
			continue
		}
		best, bestArea = i, a
	}
	if best < 0 {
		return geometry.OutlineResult{Rejection: geometry.RejectNoPoints}
	}
	sq := squares[best]
	return geometry.OutlineResult{
		Quad:      geometry.OrderCorners(sq),
		Perimeter: perimeter(sq),
		Dominance: 1,
		Sides:     4,
	}
}

func perimeter(q [4]geometry.Point) float64 {
	var p float64
	for i := range 4 {
		p += q[i].Dist(q[(i+1)%4])
	}
	return p
}
