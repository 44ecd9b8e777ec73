package scanner

import (
	"context"
	"image"

	"github.com/GriffinCanCode/cardscan/internal/geometry"
	"github.com/GriffinCanCode/cardscan/internal/trace"
)

// State is the detector's motion state.
type State int

const (
	Steady State = iota
	Moved
)

func (s State) String() string {
	if s == Moved {
		return "moved"
	}
	return "steady"
}

// QuadFinder locates a card outline in current given the empty background.
// Implementations report why nothing was found through the Rejection.
type QuadFinder interface {
	FindQuad(current, background *Frame) (geometry.OutlineResult, error)
}

// QuadFinderFunc adapts a function to QuadFinder.
type QuadFinderFunc func(current, background *Frame) (geometry.OutlineResult, error)

// FindQuad calls f.
func (f QuadFinderFunc) FindQuad(current, background *Frame) (geometry.OutlineResult, error) {
	return f(current, background)
}

// Config holds detector thresholds.
type Config struct {
	HistorySize          int
	MotionThreshold      float64
	BackgroundSimilarity float64
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		HistorySize:          DefaultHistorySize,
		MotionThreshold:      DefaultMotionThreshold,
		BackgroundSimilarity: DefaultBackgroundSimilarity,
	}
}

// Result is the outcome of one Process call.
type Result struct {
	Found bool
	Card  *image.RGBA
	Quad  geometry.Quad
	State State

	// Difference is the motion statistic for this frame.
	Difference float64
	// Similarity is set when a settled scene was compared to the background.
	Similarity float64
	Checked    bool
	// Rejection explains a failed extraction.
	Rejection geometry.Rejection
}

// Detector is the motion-gated card detector. It must be driven from a
// single goroutine.
type Detector struct {
	cfg        Config
	finder     QuadFinder
	history    *History
	background *Background
	state      State
}

// NewDetector creates a detector using finder for outline recovery.
func NewDetector(cfg Config, finder QuadFinder) *Detector {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultHistorySize
	}
	return &Detector{
		cfg:     cfg,
		finder:  finder,
		history: NewHistory(cfg.HistorySize),
	}
}

// State returns the current motion state.
func (d *Detector) State() State { return d.state }

// Background returns the captured background, or nil before the first frame.
func (d *Detector) Background() *Background { return d.background }

// History returns the recent frames.
func (d *Detector) History() *History { return d.history }

// Reset forgets the background, the history and any pending motion. The
// next frame becomes the new background.
func (d *Detector) Reset() {
	d.history.Reset()
	d.background = nil
	d.state = Steady
}

// Process consumes one frame. Extraction failures are reported through the
// result, never as errors.
func (d *Detector) Process(ctx context.Context, f *Frame) Result {
	log := trace.Logger(ctx)

	if d.background != nil && d.background.Size() != f.Size() {
		log.Info("frame size changed, resetting background",
			"from", d.background.Size(), "to", f.Size())
		d.Reset()
	}

	d.history.Push(f)
	if d.background == nil {
		d.background = &Background{Frame: f, Flipped: geometry.Rotate180(f.Color)}
		log.Debug("background captured", "size", f.Size())
	}

	res := Result{Difference: biggestDifference(f, d.history.Frames())}
	if res.Difference > d.cfg.MotionThreshold {
		if d.state != Moved {
			log.Debug("movement detected", "difference", res.Difference)
		}
		d.state = Moved
		res.State = d.state
		return res
	}
	if d.state != Moved {
		res.State = d.state
		return res
	}

	res.Similarity = backgroundSimilarity(d.background.Frame, d.history.Frames())
	res.Checked = true
	d.state = Steady
	res.State = d.state
	if res.Similarity > d.cfg.BackgroundSimilarity {
		log.Debug("false alarm, scene matches background", "similarity", res.Similarity)
		return res
	}

	d.extract(ctx, f, &res)
	return res
}

func (d *Detector) extract(ctx context.Context, f *Frame, res *Result) {
	log := trace.Logger(ctx)

	outline, err := d.finder.FindQuad(f, d.background.Frame)
	if err != nil {
		log.Warn("quad search failed", "error", err)
		res.Rejection = geometry.RejectNoPoints
		return
	}
	if outline.Rejection == geometry.Accepted && outline.Quad.Degenerate() {
		outline.Rejection = geometry.RejectDegenerate
	}
	if outline.Rejection != geometry.Accepted {
		log.Debug("card not found", "reason", outline.Rejection.String(),
			"perimeter", outline.Perimeter, "dominance", outline.Dominance)
		res.Rejection = outline.Rejection
		return
	}

	card, err := Rectify(f.Color, outline.Quad)
	if err != nil {
		log.Debug("card not rectified", "error", err)
		res.Rejection = geometry.RejectDegenerate
		return
	}
	log.Debug("card found",
		"top_left", outline.Quad.TopLeft, "bottom_left", outline.Quad.BottomLeft,
		"bottom_right", outline.Quad.BottomRight, "top_right", outline.Quad.TopRight)
	res.Found = true
	res.Card = card
	res.Quad = outline.Quad
}
