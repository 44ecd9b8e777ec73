package pipeline

import (
	"image"
	"time"

	"github.com/GriffinCanCode/cardscan/internal/geometry"
	"github.com/GriffinCanCode/cardscan/internal/history"
	"github.com/GriffinCanCode/cardscan/internal/matcher"
)

// Candidate is one ranked catalog entry.
type Candidate struct {
	ID       string `json:"id"`
	Set      string `json:"set"`
	Name     string `json:"name"`
	Distance int    `json:"distance"`
}

// Event is a recognised card and its ranked candidates.
type Event struct {
	ID          string        `json:"id"`
	TraceID     string        `json:"trace_id"`
	Time        time.Time     `json:"time"`
	Corners     geometry.Quad `json:"corners"`
	Fingerprint string        `json:"fingerprint"`
	Candidates  []Candidate   `json:"candidates"`

	Card *image.RGBA `json:"-"`
}

// Best returns the closest candidate, if any.
func (e *Event) Best() (Candidate, bool) {
	if e == nil || len(e.Candidates) == 0 {
		return Candidate{}, false
	}
	return e.Candidates[0], true
}

func (e *Event) entry() history.Entry {
	h := history.Entry{Time: e.Time, EventID: e.ID, TraceID: e.TraceID}
	if best, ok := e.Best(); ok {
		h.BestID, h.Distance, h.Matched = best.ID, best.Distance, true
	}
	return h
}

func candidates(ms []matcher.Match) []Candidate {
	out := make([]Candidate, len(ms))
	for i, m := range ms {
		out[i] = Candidate{
			ID:       m.Entry.ID,
			Set:      m.Entry.Set,
			Name:     m.Entry.Name,
			Distance: m.Distance,
		}
	}
	return out
}

// Stats counts what the pipeline has seen since start.
type Stats struct {
	Frames       int64     `json:"frames"`
	ReadErrors   int64     `json:"read_errors"`
	Movements    int64     `json:"movements"`
	FalseAlarms  int64     `json:"false_alarms"`
	Rejections   int64     `json:"rejections"`
	Cards        int64     `json:"cards"`
	DroppedCards int64     `json:"dropped_cards"`
	Resets       int64     `json:"resets"`
	State        string    `json:"state"`
	Source       string    `json:"source"` // frame source breaker state
	Running      bool      `json:"running"`
	LastCard     time.Time `json:"last_card,omitzero"`
}
