package phash

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	apperrors "github.com/GriffinCanCode/cardscan/internal/errors"
)

// cardImage paints random grey blocks on a card-sized canvas, offset by
// brightness.
func cardImage(seed int64, brightness uint8) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, CardWidth, CardHeight))
	const block = 24
	for by := 0; by < CardHeight; by += block {
		for bx := 0; bx < CardWidth; bx += block {
			v := uint8(20+rng.Intn(180)) + brightness
			for y := by; y < min(by+block, CardHeight); y++ {
				for x := bx; x < min(bx+block, CardWidth); x++ {
					img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
				}
			}
		}
	}
	return img
}

func mustHash(t *testing.T, img image.Image) Fingerprint {
	t.Helper()
	fp, err := Hash(img)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	return fp
}

func TestHashDeterministic(t *testing.T) {
	img := cardImage(1, 0)
	a, b := mustHash(t, img), mustHash(t, img)

	if a.String() != b.String() {
		t.Errorf("hash changed between calls: %s vs %s", a, b)
	}
	if a.Rows() != BlockSize || a.Cols() != BlockSize {
		t.Errorf("shape = %dx%d, want %dx%d", a.Rows(), a.Cols(), BlockSize, BlockSize)
	}
	if d := MustDistance(a, a); d != 0 {
		t.Errorf("self distance = %d, want 0", d)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	fps := make([]Fingerprint, 4)
	for i := range fps {
		fps[i] = mustHash(t, cardImage(int64(i+10), 0))
	}
	for i := range fps {
		for j := range fps {
			if MustDistance(fps[i], fps[j]) != MustDistance(fps[j], fps[i]) {
				t.Errorf("distance(%d,%d) not symmetric", i, j)
			}
		}
	}
	if MustDistance(fps[0], fps[1]) == 0 {
		t.Error("unrelated images should not share a fingerprint")
	}
}

func TestHashIgnoresBrightness(t *testing.T) {
	a := mustHash(t, cardImage(3, 0))
	b := mustHash(t, cardImage(3, 40))
	if d := MustDistance(a, b); d > 2 {
		t.Errorf("brightness shift moved %d bits, want <= 2", d)
	}
}

func TestHashScalesOffSizeImages(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 50, 70))
	for y := range 70 {
		for x := range 50 {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 5)})
		}
	}
	fp := mustHash(t, img)
	if fp.Rows() != BlockSize {
		t.Errorf("Rows = %d", fp.Rows())
	}
}

func TestHashEmptyImage(t *testing.T) {
	_, err := Hash(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	if !apperrors.IsCode(err, apperrors.ImageTooSmall) {
		t.Errorf("err = %v, want IMAGE_TOO_SMALL", err)
	}
}

func TestFromBits(t *testing.T) {
	bits := make([]bool, 64)
	bits[0], bits[9], bits[63] = true, true, true
	fp, err := FromBits(8, 8, bits)
	if err != nil {
		t.Fatal(err)
	}
	if !fp.Bit(0, 0) || !fp.Bit(1, 1) || !fp.Bit(7, 7) || fp.Bit(0, 1) {
		t.Errorf("bits not packed row-major: %s", fp)
	}
	if fp.String() != "8040000000000001" {
		t.Errorf("String() = %s", fp)
	}

	if _, err := FromBits(8, 8, bits[:10]); !apperrors.IsCode(err, apperrors.InvalidArgument) {
		t.Errorf("short bits: err = %v", err)
	}
}

func TestDistanceShapeMismatch(t *testing.T) {
	a, _ := FromBits(8, 8, make([]bool, 64))
	b, _ := FromBits(4, 4, make([]bool, 16))

	if _, err := Distance(a, b); !apperrors.IsCode(err, apperrors.SizeMismatch) {
		t.Errorf("err = %v, want SIZE_MISMATCH", err)
	}
	if _, err := Distance(a, Fingerprint{}); !apperrors.IsCode(err, apperrors.SizeMismatch) {
		t.Errorf("zero fingerprint: err = %v, want SIZE_MISMATCH", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("MustDistance should panic on mismatch")
		}
	}()
	MustDistance(a, b)
}
