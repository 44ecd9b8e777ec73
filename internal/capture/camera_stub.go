//go:build !gocv
// +build !gocv

package capture

import (
	"context"

	apperrors "github.com/GriffinCanCode/cardscan/internal/errors"
)

// OpenCamera returns an error if built without the gocv tag.
func OpenCamera(_ context.Context, device string, _, _ int) (Source, error) {
	return nil, apperrors.New(apperrors.SourceUnavailable, "gocv build tag is not enabled").
		WithMetadata("device", device)
}
