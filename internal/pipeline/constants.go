package pipeline

// Channel buffer sizes
const (
	// One card waits while the ranker is busy; further cards are dropped.
	CardBuffer  = 1
	EventBuffer = 16
)

// HistorySize is how many recognised cards the pipeline remembers.
const HistorySize = 200
