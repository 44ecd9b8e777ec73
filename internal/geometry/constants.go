// Package geometry holds the planar primitives used to recover and rectify a
// card outline: corner ordering, line intersection, convex hulls, outline
// simplification and perspective warps.
package geometry

// Outline recovery constants
const (
	// Two consecutive hull segments merge when their angle differs by less
	// than this fraction of a full turn
	MergeAngleTolerance = 0.0027

	// Outlines with a perimeter at or below this are too small to be a card
	MinPerimeter = 700.0

	// The four longest sides must cover more than this share of the perimeter
	DominanceRatio = 0.7

	// Added to cosine denominators so zero-length rays stay finite
	cosineEpsilon = 1e-10
)

// Sentinel is returned by IntersectLines for parallel lines.
var Sentinel = Point{X: -1, Y: -1}
