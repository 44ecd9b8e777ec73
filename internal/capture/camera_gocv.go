//go:build gocv
// +build gocv

package capture

import (
	"context"
	"image"

	"gocv.io/x/gocv"

	apperrors "github.com/GriffinCanCode/cardscan/internal/errors"
	"github.com/GriffinCanCode/cardscan/internal/resilience"
)

type cameraBackend struct {
	vc  *gocv.VideoCapture
	mat gocv.Mat
}

// OpenCamera opens a capture device, retrying while it enumerates.
// device is an index such as "0" or a stream URL.
func OpenCamera(ctx context.Context, device string, width, height int) (Source, error) {
	var vc *gocv.VideoCapture
	err := resilience.Retry(ctx, resilience.CameraRetryConfig(), func() error {
		v, err := gocv.OpenVideoCapture(device)
		if err != nil {
			return apperrors.Wrap(err, apperrors.SourceUnavailable, "open camera").WithMetadata("device", device)
		}
		if !v.IsOpened() {
			v.Close()
			return apperrors.New(apperrors.SourceUnavailable, "camera not opened").WithMetadata("device", device)
		}
		vc = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	if width > 0 && height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}
	return newBase("camera:"+device, &cameraBackend{vc: vc, mat: gocv.NewMat()}), nil
}

func (c *cameraBackend) grab(context.Context) (image.Image, error) {
	if ok := c.vc.Read(&c.mat); !ok {
		return nil, apperrors.New(apperrors.SourceReadFailed, "camera read failed")
	}
	if c.mat.Empty() {
		return nil, apperrors.New(apperrors.SourceReadFailed, "camera returned an empty frame")
	}
	img, err := c.mat.ToImage()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.SourceReadFailed, "convert camera frame")
	}
	return img, nil
}

func (c *cameraBackend) cleanup() error {
	c.mat.Close()
	return c.vc.Close()
}
