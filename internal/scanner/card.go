package scanner

import (
	"image"

	"github.com/nfnt/resize"

	apperrors "github.com/GriffinCanCode/cardscan/internal/errors"
	"github.com/GriffinCanCode/cardscan/internal/geometry"
	"github.com/GriffinCanCode/cardscan/internal/phash"
)

// Rectify warps the quad region of img flat, scales it to the card size and
// turns it 180 degrees for the upside-down camera mount.
func Rectify(img image.Image, q geometry.Quad) (*image.RGBA, error) {
	if q.Degenerate() {
		return nil, apperrors.New(apperrors.InvalidArgument, "degenerate quad")
	}
	w, h := geometry.TargetSize(q)
	if w < 1 || h < 1 || w > MaxRectifiedSide || h > MaxRectifiedSide {
		return nil, apperrors.Newf(apperrors.InvalidArgument, "rectified size %dx%d out of range", w, h)
	}

	flat, err := geometry.PerspectiveRectify(q, image.Rect(0, 0, w, h), img)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "perspective rectify")
	}
	scaled := resize.Resize(phash.CardWidth, phash.CardHeight, flat, resize.Bilinear)
	return geometry.Rotate180(scaled), nil
}
