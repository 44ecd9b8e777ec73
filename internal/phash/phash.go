package phash

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/corona10/goimagehash"
	"github.com/corona10/goimagehash/transforms"
	"github.com/nfnt/resize"
	"golang.org/x/image/draw"

	apperrors "github.com/GriffinCanCode/cardscan/internal/errors"
)

// Fingerprint is a rows x cols bit matrix packed MSB-first, row-major.
type Fingerprint struct {
	hash       *goimagehash.ExtImageHash
	rows, cols int
}

// Rows returns the matrix height.
func (f Fingerprint) Rows() int { return f.rows }

// Cols returns the matrix width.
func (f Fingerprint) Cols() int { return f.cols }

// IsZero reports whether f was never computed.
func (f Fingerprint) IsZero() bool { return f.hash == nil }

// Bit returns the cell at row r, column c.
func (f Fingerprint) Bit(r, c int) bool {
	i := r*f.cols + c
	return f.hash.GetHash()[i/64]>>(63-uint(i%64))&1 == 1
}

// String renders the packed words as hex.
func (f Fingerprint) String() string {
	if f.hash == nil {
		return ""
	}
	var b strings.Builder
	for _, w := range f.hash.GetHash() {
		fmt.Fprintf(&b, "%016x", w)
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (f Fingerprint) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// FromBits packs a row-major bit matrix.
func FromBits(rows, cols int, bits []bool) (Fingerprint, error) {
	if rows <= 0 || cols <= 0 || len(bits) != rows*cols {
		return Fingerprint{}, apperrors.Newf(apperrors.InvalidArgument,
			"%d bits do not fill a %dx%d fingerprint", len(bits), rows, cols)
	}
	words := make([]uint64, (len(bits)+63)/64)
	for i, set := range bits {
		if set {
			words[i/64] |= 1 << (63 - uint(i%64))
		}
	}
	return Fingerprint{
		hash: goimagehash.NewExtImageHash(words, goimagehash.PHash, len(bits)),
		rows: rows,
		cols: cols,
	}, nil
}

// Hash fingerprints a card image. Images that are not card sized are scaled
// to CardWidth x CardHeight first so the art crop lands on the same region.
func Hash(img image.Image) (Fingerprint, error) {
	if img == nil || img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return Fingerprint{}, apperrors.New(apperrors.ImageTooSmall, "empty image")
	}

	gray := toGray16(img)
	if gray.Bounds().Dx() != CardWidth || gray.Bounds().Dy() != CardHeight {
		gray = toGray16(resize.Resize(CardWidth, CardHeight, gray, resize.Bilinear))
	}

	art := toGray16(gray.SubImage(image.Rect(CropX, CropY, CropX+CropWidth, CropY+CropHeight)))
	sample := resize.Resize(SampleSize, SampleSize, art, resize.Bilinear)

	coeffs := transforms.DCT2D(samplePixels(sample), SampleSize, SampleSize)

	block := make([]float64, 0, BlockSize*BlockSize)
	var mean float64
	for r := BlockOffset; r < BlockOffset+BlockSize; r++ {
		for c := BlockOffset; c < BlockOffset+BlockSize; c++ {
			block = append(block, coeffs[r][c])
			mean += coeffs[r][c]
		}
	}
	mean /= float64(len(block))

	bits := make([]bool, len(block))
	for i, v := range block {
		bits[i] = v > mean
	}
	return FromBits(BlockSize, BlockSize, bits)
}

// samplePixels returns the intensities in [0,1] as a fresh row-major grid.
func samplePixels(img image.Image) [][]float64 {
	b := img.Bounds()
	px := make([][]float64, b.Dy())
	for y := range px {
		px[y] = make([]float64, b.Dx())
		for x := range px[y] {
			g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
			px[y][x] = float64(g.Y) / 0xffff
		}
	}
	return px
}

func toGray16(img image.Image) *image.Gray16 {
	if g, ok := img.(*image.Gray16); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	g := image.NewGray16(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(g, image.Point{}, img, b, draw.Src, nil)
	return g
}

// Distance returns the Hamming distance between two fingerprints of the
// same shape.
func Distance(a, b Fingerprint) (int, error) {
	if a.IsZero() || b.IsZero() || a.rows != b.rows || a.cols != b.cols {
		return 0, apperrors.Newf(apperrors.SizeMismatch,
			"fingerprint shapes %dx%d and %dx%d differ", a.rows, a.cols, b.rows, b.cols)
	}
	return a.hash.Distance(b.hash)
}

// MustDistance is Distance for callers that treat a shape mismatch as a bug.
func MustDistance(a, b Fingerprint) int {
	d, err := Distance(a, b)
	if err != nil {
		panic(err)
	}
	return d
}
