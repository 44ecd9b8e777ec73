// Package pipeline drives frames from a source through the detector and
// ranks every extracted card against the catalog.
package pipeline

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/GriffinCanCode/cardscan/internal/capture"
	"github.com/GriffinCanCode/cardscan/internal/catalog"
	apperrors "github.com/GriffinCanCode/cardscan/internal/errors"
	"github.com/GriffinCanCode/cardscan/internal/geometry"
	"github.com/GriffinCanCode/cardscan/internal/history"
	"github.com/GriffinCanCode/cardscan/internal/matcher"
	"github.com/GriffinCanCode/cardscan/internal/phash"
	"github.com/GriffinCanCode/cardscan/internal/resilience"
	"github.com/GriffinCanCode/cardscan/internal/scanner"
	"github.com/GriffinCanCode/cardscan/internal/syncx"
	"github.com/GriffinCanCode/cardscan/internal/trace"
)

// Config holds pipeline settings.
type Config struct {
	FrameRate float64 // Hz; zero reads as fast as the source allows
	TopK      int     // zero or less ranks the whole catalog
	Breaker   resilience.Config

	// OnHealth, if set, is told when the frame source breaker opens
	// (false) and leaves the open state (true).
	OnHealth func(healthy bool)
}

type extraction struct {
	ctx  context.Context
	card *image.RGBA
	quad geometry.Quad
}

// Pipeline owns the detector. Frames are processed on one goroutine and
// ranking happens on another, so a slow catalog never stalls capture.
type Pipeline struct {
	cfg      Config
	src      capture.Source
	det      *scanner.Detector
	cat      *catalog.Catalog
	breaker  *resilience.Breaker
	cards    chan extraction
	events   chan Event
	stopCh   chan struct{}
	stopOnce sync.Once
	resetReq atomic.Bool

	history    *history.Store
	latest     syncx.Versioned[*Event]
	background syncx.Versioned[*image.RGBA]
	stats      *syncx.RWGuard[Stats]
}

// New creates a pipeline reading src and matching against cat.
func New(cfg Config, src capture.Source, det *scanner.Detector, cat *catalog.Catalog) *Pipeline {
	breaker := resilience.New("frame_source", cfg.Breaker)
	if cfg.OnHealth != nil {
		breaker.WithHook(func(from, to resilience.State) {
			if from == resilience.Open || to == resilience.Open {
				cfg.OnHealth(to != resilience.Open)
			}
		})
	}
	return &Pipeline{
		cfg:     cfg,
		src:     src,
		det:     det,
		cat:     cat,
		breaker: breaker,
		cards:   make(chan extraction, CardBuffer),
		events:  make(chan Event, EventBuffer),
		stopCh:  make(chan struct{}),
		history: history.NewStore(HistorySize),
		stats:   syncx.NewGuard(Stats{State: scanner.Steady.String()}),
	}
}

// Events returns the channel of recognised cards. It is closed when Run
// returns.
func (p *Pipeline) Events() <-chan Event { return p.events }

// Latest returns the most recent event and its version, or nil before the
// first card.
func (p *Pipeline) Latest() (*Event, uint64) { return p.latest.Get() }

// Background returns the captured background rotated to card orientation.
func (p *Pipeline) Background() *image.RGBA {
	bg, _ := p.background.Get()
	return bg
}

// Recent returns the cards recognised within window, oldest first.
func (p *Pipeline) Recent(window time.Duration) []history.Entry {
	return p.history.Recent(window)
}

// Stats returns a snapshot of the counters.
func (p *Pipeline) Stats() Stats {
	st := p.stats.Get()
	st.Source = p.breaker.State().String()
	return st
}

// Catalog returns the reference catalog.
func (p *Pipeline) Catalog() *catalog.Catalog { return p.cat }

// RequestReset asks the pump to forget the background before its next
// frame. Safe to call from any goroutine.
func (p *Pipeline) RequestReset() {
	p.resetReq.Store(true)
}

// Stop ends Run. Safe to call more than once.
func (p *Pipeline) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

// Run pumps frames until the source is exhausted, Stop is called or ctx is
// cancelled. End of stream is a clean exit.
func (p *Pipeline) Run(ctx context.Context) error {
	log := trace.Logger(ctx)
	p.stats.Write(func(s *Stats) { s.Running = true })

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.rankLoop()
	}()

	err := p.pumpLoop(ctx)
	close(p.cards)
	wg.Wait()
	close(p.events)

	p.stats.Write(func(s *Stats) { s.Running = false })
	if err != nil {
		log.Error("pipeline stopped", "error", err)
		return err
	}
	log.Info("pipeline stopped", "frames", p.src.Frames())
	return nil
}

func (p *Pipeline) pumpLoop(ctx context.Context) error {
	var tick <-chan time.Time
	if p.cfg.FrameRate > 0 {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / p.cfg.FrameRate))
		defer ticker.Stop()
		tick = ticker.C
	}

	var lastBackground *scanner.Background
	for {
		select {
		case <-ctx.Done():
			return apperrors.Wrap(ctx.Err(), apperrors.Cancelled, "pipeline cancelled")
		case <-p.stopCh:
			return nil
		default:
		}
		if tick != nil {
			select {
			case <-ctx.Done():
				return apperrors.Wrap(ctx.Err(), apperrors.Cancelled, "pipeline cancelled")
			case <-p.stopCh:
				return nil
			case <-tick:
			}
		}

		done, err := p.step(ctx)
		if done {
			return err
		}
		if bg := p.det.Background(); bg != lastBackground {
			lastBackground = bg
			if bg != nil {
				p.background.Set(bg.Flipped)
			}
		}
	}
}

// step reads and processes one frame. It reports done when the pump
// must stop.
func (p *Pipeline) step(ctx context.Context) (bool, error) {
	if p.resetReq.Swap(false) {
		trace.Logger(ctx).Info("background reset requested")
		p.det.Reset()
		p.background.Clear()
		p.stats.Write(func(s *Stats) { s.Resets++ })
	}

	frame, err := resilience.ExecuteWithResult(p.breaker, func() (*scanner.Frame, error) {
		return p.src.Read(ctx)
	}, resilience.IsRetryable)
	switch {
	case apperrors.IsCode(err, apperrors.EndOfStream):
		trace.Logger(ctx).Info("frame source exhausted")
		return true, nil
	case apperrors.IsCode(err, apperrors.Cancelled):
		return true, err
	case errors.Is(err, resilience.ErrOpen):
		return false, nil
	case err != nil:
		trace.Logger(ctx).Warn("frame read failed", "error", err)
		p.stats.Write(func(s *Stats) { s.ReadErrors++ })
		return false, nil
	}

	prev := p.det.State()
	fctx, span := trace.StartSpan(ctx, "frame")
	defer span.End()
	res := p.det.Process(fctx, frame)
	span.SetAttr("state", res.State.String())
	p.record(prev, res)

	if res.Found {
		select {
		case p.cards <- extraction{ctx: fctx, card: res.Card, quad: res.Quad}:
		default:
			trace.Logger(fctx).Warn("ranker busy, dropping card")
			p.stats.Write(func(s *Stats) { s.DroppedCards++ })
		}
	}
	return false, nil
}

func (p *Pipeline) record(prev scanner.State, res scanner.Result) {
	p.stats.Write(func(s *Stats) {
		s.Frames++
		s.State = res.State.String()
		if prev == scanner.Steady && res.State == scanner.Moved {
			s.Movements++
		}
		if !res.Checked {
			return
		}
		switch {
		case res.Found:
			s.Cards++
			s.LastCard = time.Now()
		case res.Rejection == geometry.Accepted:
			s.FalseAlarms++
		default:
			s.Rejections++
		}
	})
}

func (p *Pipeline) rankLoop() {
	for x := range p.cards {
		p.rank(x)
	}
}

func (p *Pipeline) rank(x extraction) {
	ctx, span := trace.StartSpan(x.ctx, "rank_card")
	defer span.End()
	log := trace.Logger(ctx)

	fp, err := phash.Hash(x.card)
	if err != nil {
		log.Error("hash card", "error", err)
		return
	}
	matches, err := matcher.RankFingerprint(fp, p.cat, p.cfg.TopK)
	if err != nil {
		log.Error("rank card", "error", err)
		return
	}

	tc, _ := trace.FromContext(ctx)
	ev := Event{
		ID:          uuid.NewString(),
		TraceID:     tc.TraceID,
		Time:        time.Now(),
		Corners:     x.quad,
		Fingerprint: fp.String(),
		Candidates:  candidates(matches),
		Card:        x.card,
	}
	p.latest.Set(&ev)
	p.history.Add(ev.entry())
	span.SetAttr("candidates", len(ev.Candidates))
	if best, ok := ev.Best(); ok {
		log.Info("card matched", "id", ev.ID, "best", best.ID, "distance", best.Distance)
	} else {
		log.Info("card extracted, catalog empty", "id", ev.ID)
	}

	select {
	case p.events <- ev:
	default:
		log.Warn("event consumer lagging, dropping event", "id", ev.ID)
	}
}
