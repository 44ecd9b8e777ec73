// Package scanner turns a frame stream into rectified card images. A
// Detector watches for motion against a captured background and, once the
// scene settles with something new in it, recovers and rectifies the card
// outline.
package scanner

// Detector defaults
const (
	// Frames kept for the short-term motion estimate
	DefaultHistorySize = 3

	// Mean squared grey difference above which the scene is moving
	DefaultMotionThreshold = 10.0

	// Correlation with the background above which a settled scene is empty
	DefaultBackgroundSimilarity = 0.75

	// Rectified intermediates larger than this on either side are rejected
	MaxRectifiedSide = 4096
)
