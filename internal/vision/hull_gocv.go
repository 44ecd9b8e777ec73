//go:build gocv
// +build gocv

package vision

import (
	"gocv.io/x/gocv"

	"github.com/GriffinCanCode/cardscan/internal/geometry"
	"github.com/GriffinCanCode/cardscan/internal/scanner"
)

// HullFinder outlines whatever changed against the background: edges of
// the difference image are hulled and the hull simplified to four lines.
type HullFinder struct {
	cfg geometry.OutlineConfig
}

// NewHullFinder creates a hull finder with the given outline thresholds.
func NewHullFinder(cfg geometry.OutlineConfig) *HullFinder {
	return &HullFinder{cfg: cfg}
}

func (h *HullFinder) FindQuad(current, background *scanner.Frame) (geometry.OutlineResult, error) {
	cur, err := grayMat(current)
	if err != nil {
		return geometry.OutlineResult{}, err
	}
	defer cur.Close()
	bg, err := grayMat(background)
	if err != nil {
		return geometry.OutlineResult{}, err
	}
	defer bg.Close()

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(cur, bg, &diff)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(diff, &edges, CannyLow, CannyHigh)

	contours := gocv.FindContours(edges, gocv.RetrievalList, gocv.ChainApproxSimple)
	defer contours.Close()

	return geometry.QuadFromPoints(edgePoints(contourPoints(contours), MinVertices), h.cfg), nil
}
