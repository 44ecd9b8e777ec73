// Package phash computes DCT fingerprints of card images and compares them
// by Hamming distance.
package phash

// Card geometry. Rectified cards and catalog images share this size.
const (
	CardWidth  = 222
	CardHeight = 311
)

// Hash geometry, in card pixels
const (
	// Interior art region, excluding border and frame
	CropX      = 16
	CropY      = 31
	CropWidth  = 194
	CropHeight = 144

	// The art is scaled to a square before the transform
	SampleSize = 32

	// Low-frequency block kept from the transform, skipping the DC row/column
	BlockOffset = 1
	BlockSize   = 8
)
