//go:build gocv
// +build gocv

package vision

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/GriffinCanCode/cardscan/internal/geometry"
	"github.com/GriffinCanCode/cardscan/internal/scanner"
)

// SquaresFinder searches every colour plane of the current frame, at
// several threshold levels, for convex right-angled quadrilaterals and
// keeps the largest. It ignores the background.
type SquaresFinder struct {
	Levels    int
	CannyHigh float32
}

// NewSquaresFinder creates a squares finder with the stock levels.
func NewSquaresFinder() *SquaresFinder {
	return &SquaresFinder{Levels: SquaresLevels, CannyHigh: SquaresCannyHigh}
}

func (s *SquaresFinder) FindQuad(current, _ *scanner.Frame) (geometry.OutlineResult, error) {
	src, err := colorMat(current)
	if err != nil {
		return geometry.OutlineResult{}, err
	}
	defer src.Close()

	// pyramid round trip suppresses sensor noise
	pyr := gocv.NewMat()
	defer pyr.Close()
	smooth := gocv.NewMat()
	defer smooth.Close()
	size := current.Size()
	gocv.PyrDown(src, &pyr, image.Pt(size.X/2, size.Y/2), gocv.BorderDefault)
	gocv.PyrUp(pyr, &smooth, size, gocv.BorderDefault)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()

	var squares [][4]geometry.Point
	planes := gocv.Split(smooth)
	for _, plane := range planes {
		for lvl := range s.Levels {
			squares = append(squares, s.level(plane, lvl, kernel)...)
		}
		plane.Close()
	}
	return largestSquare(squares, size), nil
}

func (s *SquaresFinder) level(plane gocv.Mat, lvl int, kernel gocv.Mat) [][4]geometry.Point {
	bin := gocv.NewMat()
	defer bin.Close()
	if lvl == 0 {
		// edges catch cards with gradient shading
		edges := gocv.NewMat()
		defer edges.Close()
		gocv.Canny(plane, &edges, 0, s.CannyHigh)
		gocv.Dilate(edges, &bin, kernel)
	} else {
		// binary plane >= (lvl+1)*255/levels
		cut := (lvl + 1) * 255 / s.Levels
		gocv.Threshold(plane, &bin, float32(cut-1), 255, gocv.ThresholdBinary)
	}

	contours := gocv.FindContours(bin, gocv.RetrievalList, gocv.ChainApproxSimple)
	defer contours.Close()

	var out [][4]geometry.Point
	for i := range contours.Size() {
		c := contours.At(i)
		approx := gocv.ApproxPolyDP(c, ApproxEpsilon*gocv.ArcLength(c, true), true)
		poly := approx.ToPoints()
		approx.Close()
		if isSquare(poly) {
			out = append(out, toQuadPoints(poly))
		}
	}
	return out
}
