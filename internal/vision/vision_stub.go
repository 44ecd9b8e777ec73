//go:build !gocv
// +build !gocv

package vision

import (
	apperrors "github.com/GriffinCanCode/cardscan/internal/errors"
	"github.com/GriffinCanCode/cardscan/internal/geometry"
	"github.com/GriffinCanCode/cardscan/internal/scanner"
)

// openCV reports whether the gocv backed finders are compiled in.
const openCV = false

var errNoOpenCV = apperrors.New(apperrors.Unavailable, "gocv build tag is not enabled")

// HullFinder outlines whatever changed against the background. Without
// OpenCV the difference image goes through a Sobel edge pass and
// 8-connected edge chains stand in for contours.
type HullFinder struct {
	cfg geometry.OutlineConfig
}

// NewHullFinder creates a hull finder with the given outline thresholds.
func NewHullFinder(cfg geometry.OutlineConfig) *HullFinder {
	return &HullFinder{cfg: cfg}
}

func (h *HullFinder) FindQuad(current, background *scanner.Frame) (geometry.OutlineResult, error) {
	return outlineDifference(current, background, h.cfg), nil
}

type SquaresFinder struct {
	Levels    int
	CannyHigh float32
}

func NewSquaresFinder() *SquaresFinder {
	return &SquaresFinder{Levels: SquaresLevels, CannyHigh: SquaresCannyHigh}
}

// FindQuad returns an error if built without the gocv tag.
func (s *SquaresFinder) FindQuad(_, _ *scanner.Frame) (geometry.OutlineResult, error) {
	return geometry.OutlineResult{}, errNoOpenCV
}
