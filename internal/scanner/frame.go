package scanner

import (
	"image"

	"golang.org/x/image/draw"
)

// Frame is one captured image with its grayscale derivative. Frames are
// never mutated after NewFrame.
type Frame struct {
	Color *image.RGBA
	Gray  *image.Gray

	// grey levels as float64, row-major, for the motion statistics
	levels []float64
}

// NewFrame converts img into a frame anchored at the origin.
func NewFrame(img image.Image) *Frame {
	b := img.Bounds()
	rect := image.Rect(0, 0, b.Dx(), b.Dy())

	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		rgba = image.NewRGBA(rect)
		draw.Copy(rgba, image.Point{}, img, b, draw.Src, nil)
	}
	gray := image.NewGray(rect)
	draw.Copy(gray, image.Point{}, rgba, rect, draw.Src, nil)

	levels := make([]float64, 0, rect.Dx()*rect.Dy())
	for y := range rect.Dy() {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+rect.Dx()]
		for _, v := range row {
			levels = append(levels, float64(v))
		}
	}
	return &Frame{Color: rgba, Gray: gray, levels: levels}
}

// Size returns the frame dimensions.
func (f *Frame) Size() image.Point { return f.Color.Rect.Size() }

// Pixels returns the pixel count.
func (f *Frame) Pixels() int { return len(f.levels) }

// History is a bounded FIFO of recent frames.
type History struct {
	size   int
	frames []*Frame
}

// NewHistory creates a history holding at most size frames.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{size: size, frames: make([]*Frame, 0, size+1)}
}

// Push appends f, evicting the oldest frame beyond capacity.
func (h *History) Push(f *Frame) {
	h.frames = append(h.frames, f)
	if len(h.frames) > h.size {
		copy(h.frames, h.frames[1:])
		h.frames[len(h.frames)-1] = nil
		h.frames = h.frames[:len(h.frames)-1]
	}
}

// Frames returns the held frames, oldest first.
func (h *History) Frames() []*Frame { return h.frames }

// Len returns the number of held frames.
func (h *History) Len() int { return len(h.frames) }

// Cap returns the capacity.
func (h *History) Cap() int { return h.size }

// Reset drops every frame.
func (h *History) Reset() {
	clear(h.frames)
	h.frames = h.frames[:0]
}

// Background is the captured empty scene.
type Background struct {
	*Frame

	// Flipped is the colour image rotated 180 degrees, matching the
	// orientation of rectified cards.
	Flipped *image.RGBA
}
