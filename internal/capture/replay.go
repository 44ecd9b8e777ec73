package capture

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"slices"
	"strings"

	// Decoders for replayed frames.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	apperrors "github.com/GriffinCanCode/cardscan/internal/errors"
)

// DefaultReplayExtensions are the frame files picked up by NewReplay.
var DefaultReplayExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".webp"}

type replayBackend struct {
	paths []string
	next  int
}

// NewReplay returns a source that plays the image files of dir in name
// order, then reports END_OF_STREAM.
func NewReplay(dir string) (Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.SourceUnavailable, "open replay directory").
			WithMetadata("dir", dir)
	}
	var paths []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !slices.Contains(DefaultReplayExtensions, ext) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return newBase("replay:"+dir, &replayBackend{paths: paths}), nil
}

func (r *replayBackend) grab(context.Context) (image.Image, error) {
	if r.next >= len(r.paths) {
		return nil, apperrors.New(apperrors.EndOfStream, "replay finished")
	}
	path := r.paths[r.next]
	r.next++

	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.SourceReadFailed, "open frame").WithMetadata("path", path)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.SourceReadFailed, "decode frame").WithMetadata("path", path)
	}
	return img, nil
}

func (r *replayBackend) cleanup() error { return nil }
