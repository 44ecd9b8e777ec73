// Package catalog loads the reference card images and their fingerprints.
package catalog

// Catalog loading constants
const (
	// Workers used when Options.Workers is unset
	DefaultWorkers = 4

	// Separates set label and card name in an entry ID
	IDSeparator = "/"
)

// DefaultExtensions are the image formats decoded by default.
var DefaultExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".webp"}
