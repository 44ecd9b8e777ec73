// Package capture provides frame sources for the detector
package capture

import (
	"context"
	"image"
	"sync/atomic"

	apperrors "github.com/GriffinCanCode/cardscan/internal/errors"
	"github.com/GriffinCanCode/cardscan/internal/scanner"
)

// Source yields frames until it returns an END_OF_STREAM error or is
// closed. Read is not safe for concurrent use.
type Source interface {
	Read(ctx context.Context) (*scanner.Frame, error)
	Frames() int64
	Close() error
}

// backend implements the raw grab for one kind of device
type backend interface {
	grab(ctx context.Context) (image.Image, error)
	cleanup() error
}

// baseSource provides the shared bookkeeping around a backend
type baseSource struct {
	backend
	name   string
	frames atomic.Int64
	closed atomic.Bool
}

func newBase(name string, b backend) *baseSource {
	return &baseSource{backend: b, name: name}
}

func (s *baseSource) Read(ctx context.Context) (*scanner.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.Cancelled, "read cancelled")
	}
	if s.closed.Load() {
		return nil, apperrors.New(apperrors.SourceUnavailable, "source closed").WithMetadata("source", s.name)
	}
	img, err := s.grab(ctx)
	if err != nil {
		return nil, err
	}
	s.frames.Add(1)
	return scanner.NewFrame(img), nil
}

// Frames returns the number of frames read so far.
func (s *baseSource) Frames() int64 { return s.frames.Load() }

func (s *baseSource) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.cleanup()
}

// String names the source for logs.
func (s *baseSource) String() string { return s.name }

type memoryBackend struct {
	images []image.Image
	next   int
}

func (m *memoryBackend) grab(context.Context) (image.Image, error) {
	if m.next >= len(m.images) {
		return nil, apperrors.New(apperrors.EndOfStream, "no more images")
	}
	img := m.images[m.next]
	m.next++
	return img, nil
}

func (m *memoryBackend) cleanup() error { return nil }

// NewImages returns a source that yields imgs in order.
func NewImages(imgs ...image.Image) Source {
	return newBase("memory", &memoryBackend{images: imgs})
}
