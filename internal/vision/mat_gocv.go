//go:build gocv
// +build gocv

package vision

import (
	"image"

	"gocv.io/x/gocv"

	apperrors "github.com/GriffinCanCode/cardscan/internal/errors"
	"github.com/GriffinCanCode/cardscan/internal/scanner"
)

// openCV reports whether the gocv backed finders are compiled in.
const openCV = true

func grayMat(f *scanner.Frame) (gocv.Mat, error) {
	size := f.Size()
	m, err := gocv.NewMatFromBytes(size.Y, size.X, gocv.MatTypeCV8UC1, f.Gray.Pix)
	if err != nil {
		return gocv.Mat{}, apperrors.Wrap(err, apperrors.Internal, "gray frame to mat")
	}
	return m, nil
}

func colorMat(f *scanner.Frame) (gocv.Mat, error) {
	size := f.Size()
	rgba, err := gocv.NewMatFromBytes(size.Y, size.X, gocv.MatTypeCV8UC4, f.Color.Pix)
	if err != nil {
		return gocv.Mat{}, apperrors.Wrap(err, apperrors.Internal, "color frame to mat")
	}
	defer rgba.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(rgba, &bgr, gocv.ColorRGBAToBGR)
	return bgr, nil
}

func contourPoints(contours gocv.PointsVector) [][]image.Point {
	out := make([][]image.Point, 0, contours.Size())
	for i := range contours.Size() {
		out = append(out, contours.At(i).ToPoints())
	}
	return out
}
