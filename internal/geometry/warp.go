package geometry

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/mat"
)

// Homography is a row-major 3x3 projective transform.
type Homography [9]float64

// ComputeHomography solves for the transform mapping src[i] to dst[i] with
// h22 fixed at 1.
func ComputeHomography(src, dst [4]Point) (Homography, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := range 4 {
		X, Y := src[i].X, src[i].Y
		x, y := dst[i].X, dst[i].Y
		r := 2 * i
		a.SetRow(r, []float64{X, Y, 1, 0, 0, 0, -X * x, -Y * x})
		a.SetRow(r+1, []float64{0, 0, 0, X, Y, 1, -X * y, -Y * y})
		b.SetVec(r, x)
		b.SetVec(r+1, y)
	}

	var h mat.VecDense
	if err := usable(h.SolveVec(a, b)); err != nil {
		return Homography{}, fmt.Errorf("solve homography: %w", err)
	}
	return Homography{
		h.AtVec(0), h.AtVec(1), h.AtVec(2),
		h.AtVec(3), h.AtVec(4), h.AtVec(5),
		h.AtVec(6), h.AtVec(7), 1,
	}, nil
}

// usable accepts results that are ill-conditioned but finite.
func usable(err error) error {
	var cond mat.Condition
	if errors.As(err, &cond) && !math.IsInf(float64(cond), 0) {
		return nil
	}
	return err
}

// Apply maps p through the transform.
func (h Homography) Apply(p Point) Point {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if w == 0 {
		return Point{X: math.Inf(1), Y: math.Inf(1)}
	}
	return Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}
}

// Inverse returns the inverse transform.
func (h Homography) Inverse() (Homography, error) {
	m := mat.NewDense(3, 3, h[:])
	var inv mat.Dense
	if err := usable(inv.Inverse(m)); err != nil {
		return Homography{}, fmt.Errorf("invert homography: %w", err)
	}
	var out Homography
	for r := range 3 {
		for c := range 3 {
			out[r*3+c] = inv.At(r, c)
		}
	}
	return out, nil
}

// RectQuad returns the w x h rectangle at the origin labelled by
// OrderCorners, so its corners pair up with any ordered source quad.
func RectQuad(w, h int) Quad {
	fw, fh := float64(w), float64(h)
	return OrderCorners([4]Point{Pt(0, 0), Pt(fw, 0), Pt(fw, fh), Pt(0, fh)})
}

// TargetSize derives the rectified size from an ordered quad: width from
// the visually top and bottom edges, height from the left and right edges.
// Under the sum/difference labelling the top edge runs TopLeft to
// BottomLeft.
func TargetSize(q Quad) (w, h int) {
	width := math.Max(q.TopLeft.Dist(q.BottomLeft), q.TopRight.Dist(q.BottomRight))
	height := math.Max(q.TopLeft.Dist(q.TopRight), q.BottomLeft.Dist(q.BottomRight))
	return int(math.Round(width)), int(math.Round(height))
}

// PerspectiveRectify warps the region of img bounded by src onto a dst-sized
// image. Pixels that map outside img are black.
func PerspectiveRectify(src Quad, dst image.Rectangle, img image.Image) (*image.RGBA, error) {
	w, h := dst.Dx(), dst.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("empty destination %dx%d", w, h)
	}
	fwd, err := ComputeHomography(src.Points(), RectQuad(w, h).Points())
	if err != nil {
		return nil, err
	}
	inv, err := fwd.Inverse()
	if err != nil {
		return nil, err
	}
	return Warp(img, inv, w, h), nil
}

// Warp fills a w x h image by sampling img at inv(x, y) with bilinear
// interpolation.
func Warp(img image.Image, inv Homography, w, h int) *image.RGBA {
	src := toRGBA(img)
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			p := inv.Apply(Pt(float64(x), float64(y)))
			out.SetRGBA(x, y, bilinear(src, p.X, p.Y))
		}
	}
	return out
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(rgba, image.Point{}, img, b, draw.Src, nil)
	return rgba
}

func bilinear(src *image.RGBA, fx, fy float64) color.RGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if math.IsInf(fx, 0) || fx < -1 || fy < -1 || fx > float64(w) || fy > float64(h) {
		return color.RGBA{}
	}
	x0, y0 := int(math.Floor(fx)), int(math.Floor(fy))
	ax, ay := fx-float64(x0), fy-float64(y0)

	var acc [4]float64
	for dy := range 2 {
		for dx := range 2 {
			wgt := (1 - ax) * (1 - ay)
			switch {
			case dx == 1 && dy == 0:
				wgt = ax * (1 - ay)
			case dx == 0 && dy == 1:
				wgt = (1 - ax) * ay
			case dx == 1 && dy == 1:
				wgt = ax * ay
			}
			px, py := x0+dx, y0+dy
			if wgt == 0 || px < 0 || py < 0 || px >= w || py >= h {
				continue
			}
			i := src.PixOffset(px, py)
			for c := range 4 {
				acc[c] += wgt * float64(src.Pix[i+c])
			}
		}
	}
	return color.RGBA{
		R: clamp8(acc[0]), G: clamp8(acc[1]), B: clamp8(acc[2]), A: clamp8(acc[3]),
	}
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(math.Round(v))
}

// Rotate180 returns img reflected through its centre (flip both axes).
func Rotate180(img image.Image) *image.RGBA {
	src := toRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		si := src.PixOffset(0, y)
		di := out.PixOffset(w-1, h-1-y)
		for x := range w {
			copy(out.Pix[di-4*x:di-4*x+4], src.Pix[si+4*x:si+4*x+4])
		}
	}
	return out
}
