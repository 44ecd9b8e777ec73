package vision

// Hull strategy
const (
	CannyLow    = 100.0
	CannyHigh   = 100.0
	MinVertices = 10
)

// Squares strategy
const (
	SquaresCannyHigh = 50.0
	SquaresLevels    = 11
	MinSquareArea    = 1000.0
	MaxSquareCosine  = 0.3
	MaxFrameCover    = 0.95
	ApproxEpsilon    = 0.02
)
