package geometry

import (
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAngleCosine(t *testing.T) {
	assert.InDelta(t, 0, AngleCosine(Pt(1, 0), Pt(0, 1), Pt(0, 0)), 1e-9)
	assert.InDelta(t, 1, AngleCosine(Pt(2, 0), Pt(5, 0), Pt(0, 0)), 1e-9)
	assert.InDelta(t, -1, AngleCosine(Pt(-3, 0), Pt(4, 0), Pt(0, 0)), 1e-9)

	// zero-length ray stays finite
	c := AngleCosine(Pt(0, 0), Pt(1, 1), Pt(0, 0))
	assert.False(t, math.IsNaN(c))
	assert.False(t, math.IsInf(c, 0))
}

func TestOrderCornersAxisAligned(t *testing.T) {
	q := OrderCorners([4]Point{Pt(100, 10), Pt(10, 200), Pt(10, 10), Pt(100, 200)})

	assert.Equal(t, Pt(10, 10), q.TopLeft)
	assert.Equal(t, Pt(100, 200), q.BottomRight)
	assert.Equal(t, Pt(10, 200), q.TopRight, "smallest x-y")
	assert.Equal(t, Pt(100, 10), q.BottomLeft, "largest x-y")
}

func TestOrderCornersInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for range 200 {
		// jittered convex quad around a random centre
		cx, cy := 200+rng.Float64()*400, 200+rng.Float64()*400
		w, h := 50+rng.Float64()*150, 50+rng.Float64()*150
		pts := [4]Point{
			Pt(cx-w+rng.Float64()*10, cy-h+rng.Float64()*10),
			Pt(cx+w+rng.Float64()*10, cy-h+rng.Float64()*10),
			Pt(cx+w+rng.Float64()*10, cy+h+rng.Float64()*10),
			Pt(cx-w+rng.Float64()*10, cy+h+rng.Float64()*10),
		}
		rng.Shuffle(4, func(i, j int) { pts[i], pts[j] = pts[j], pts[i] })

		q := OrderCorners(pts)
		for _, p := range pts {
			assert.LessOrEqual(t, q.TopLeft.X+q.TopLeft.Y, p.X+p.Y)
			assert.GreaterOrEqual(t, q.BottomRight.X+q.BottomRight.Y, p.X+p.Y)
			assert.LessOrEqual(t, q.TopRight.X-q.TopRight.Y, p.X-p.Y)
			assert.GreaterOrEqual(t, q.BottomLeft.X-q.BottomLeft.Y, p.X-p.Y)
		}
	}
}

func TestOrderCornersTiesFirstWins(t *testing.T) {
	// a diamond: two points share the minimum x+y
	q := OrderCorners([4]Point{Pt(0, 5), Pt(5, 0), Pt(10, 5), Pt(5, 10)})
	assert.Equal(t, Pt(0, 5), q.TopLeft)
	assert.Equal(t, Pt(10, 5), q.BottomRight)
}

func TestIntersectLines(t *testing.T) {
	p := IntersectLines(NewSegment(Pt(0, 0), Pt(10, 10)), NewSegment(Pt(0, 10), Pt(10, 0)))
	assert.InDelta(t, 5, p.X, 1e-9)
	assert.InDelta(t, 5, p.Y, 1e-9)

	// extension beyond the segments
	p = IntersectLines(NewSegment(Pt(0, 0), Pt(1, 0)), NewSegment(Pt(5, 3), Pt(5, 4)))
	assert.Equal(t, Pt(5, 0), p)

	parallel := IntersectLines(NewSegment(Pt(0, 0), Pt(10, 0)), NewSegment(Pt(0, 5), Pt(10, 5)))
	assert.Equal(t, Sentinel, parallel)
}

func TestRectQuadPairsWithOrderedQuads(t *testing.T) {
	r := RectQuad(100, 140)
	assert.Equal(t, Pt(0, 0), r.TopLeft)
	assert.Equal(t, Pt(100, 140), r.BottomRight)
	assert.Equal(t, Pt(100, 0), r.BottomLeft, "largest x-y")
	assert.Equal(t, Pt(0, 140), r.TopRight, "smallest x-y")
}

func TestQuadDegenerate(t *testing.T) {
	q := RectQuad(10, 10)
	assert.False(t, q.Degenerate())
	q.BottomLeft = Sentinel
	assert.True(t, q.Degenerate())
}

func TestQuadOffFrameCornerIsNotDegenerate(t *testing.T) {
	// a card overhanging the frame edge can put one coordinate at -1
	q := Quad{TopLeft: Pt(-1, 20), BottomLeft: Pt(3, 300), BottomRight: Pt(220, 298), TopRight: Pt(218, -1)}
	assert.False(t, q.Degenerate())
}

func TestConvexHull(t *testing.T) {
	pts := []Point{Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10), Pt(5, 5), Pt(2, 7), Pt(5, 0)}
	hull := ConvexHull(pts)

	require.Len(t, hull, 4, "interior and collinear points dropped")
	assert.ElementsMatch(t, []Point{Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10)}, hull)
	assert.True(t, IsConvex(hull))
	assert.InDelta(t, 100, Area(hull), 1e-9)
}

func TestIsConvex(t *testing.T) {
	arrow := []Point{Pt(0, 0), Pt(10, 0), Pt(5, 3), Pt(10, 10), Pt(0, 10)}
	assert.False(t, IsConvex(arrow))
	assert.False(t, IsConvex([]Point{Pt(0, 0), Pt(1, 1)}))
}

func TestMergeCollinear(t *testing.T) {
	// top edge split in three, plus the wrap-around pair on the left edge
	poly := []Point{
		Pt(0, 100), Pt(0, 0), Pt(100, 0), Pt(200, 0), Pt(300, 0),
		Pt(300, 400), Pt(0, 400), Pt(0, 200),
	}
	lines := MergeCollinear(Outline(poly), MergeAngleTolerance)

	require.Len(t, lines, 4)
	assert.InDelta(t, 1400, Perimeter(lines), 1e-9)
	for _, l := range lines {
		assert.Contains(t, []float64{300, 400}, math.Round(l.Length))
	}
}

func TestMergeCollinearAcrossPi(t *testing.T) {
	// two leftward segments with angles either side of +-pi
	a := NewSegment(Pt(100, 0), Pt(50, 0.01))
	b := NewSegment(Pt(50, 0.01), Pt(0, 0))
	lines := MergeCollinear([]Segment{a, b}, MergeAngleTolerance)
	require.Len(t, lines, 1)
	assert.InDelta(t, 100, lines[0].Length, 1e-6)
}

func rectPoints(x0, y0, x1, y1 float64, step float64) []Point {
	var pts []Point
	for x := x0; x <= x1; x += step {
		pts = append(pts, Pt(x, y0), Pt(x, y1))
	}
	for y := y0; y <= y1; y += step {
		pts = append(pts, Pt(x0, y), Pt(x1, y))
	}
	return pts
}

func TestQuadFromPoints(t *testing.T) {
	res := QuadFromPoints(rectPoints(100, 50, 400, 500, 5), DefaultOutlineConfig())

	require.Equal(t, Accepted, res.Rejection, res.Rejection.String())
	assert.Greater(t, res.Dominance, 0.99)
	assert.InDelta(t, 1500, res.Perimeter, 1e-6)
	assert.InDelta(t, 100, res.Quad.TopLeft.X, 1e-6)
	assert.InDelta(t, 50, res.Quad.TopLeft.Y, 1e-6)
	assert.InDelta(t, 400, res.Quad.BottomRight.X, 1e-6)
	assert.InDelta(t, 500, res.Quad.BottomRight.Y, 1e-6)
}

func TestQuadFromPointsRejections(t *testing.T) {
	cfg := DefaultOutlineConfig()

	assert.Equal(t, RejectNoPoints, QuadFromPoints(nil, cfg).Rejection)
	assert.Equal(t, RejectPerimeter, QuadFromPoints(rectPoints(0, 0, 100, 100, 5), cfg).Rejection)

	// a triangle is big enough but has only three sides
	tri := []Point{Pt(0, 0), Pt(600, 0), Pt(300, 500)}
	assert.Equal(t, RejectTooFewSides, QuadFromPoints(tri, cfg).Rejection)

	// a near-circle has no dominant sides
	var circle []Point
	for i := range 64 {
		a := 2 * math.Pi * float64(i) / 64
		circle = append(circle, Pt(500+300*math.Cos(a), 500+300*math.Sin(a)))
	}
	assert.Equal(t, RejectDominance, QuadFromPoints(circle, cfg).Rejection)
}

func TestHomographyMapsCorners(t *testing.T) {
	src := [4]Point{Pt(12, 30), Pt(20, 260), Pt(210, 250), Pt(190, 15)}
	dst := RectQuad(200, 300).Points()

	h, err := ComputeHomography(src, dst)
	require.NoError(t, err)
	for i := range src {
		p := h.Apply(src[i])
		assert.InDelta(t, dst[i].X, p.X, 1e-6)
		assert.InDelta(t, dst[i].Y, p.Y, 1e-6)
	}

	inv, err := h.Inverse()
	require.NoError(t, err)
	back := inv.Apply(dst[2])
	assert.InDelta(t, src[2].X, back.X, 1e-6)
	assert.InDelta(t, src[2].Y, back.Y, 1e-6)
}

func TestHomographySingular(t *testing.T) {
	same := [4]Point{Pt(1, 1), Pt(1, 1), Pt(1, 1), Pt(1, 1)}
	_, err := ComputeHomography(same, RectQuad(10, 10).Points())
	assert.Error(t, err)
}

func TestTargetSize(t *testing.T) {
	q := OrderCorners([4]Point{Pt(0, 0), Pt(220, 0), Pt(222, 311), Pt(0, 311)})
	w, h := TargetSize(q)
	assert.Equal(t, 222, w)
	assert.Equal(t, 311, h)
}

// drawPattern paints a white 100x140 page with a black horizontal bar onto a
// grey canvas, projected onto q.
func drawPattern(canvas *image.RGBA, q Quad) {
	toCanvas, _ := ComputeHomography(RectQuad(100, 140).Points(), q.Points())
	fwd, _ := toCanvas.Inverse()
	b := canvas.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p := fwd.Apply(Pt(float64(x), float64(y)))
			if p.X < 0 || p.Y < 0 || p.X >= 100 || p.Y >= 140 {
				canvas.SetRGBA(x, y, color.RGBA{R: 60, G: 60, B: 60, A: 255})
				continue
			}
			if p.Y > 60 && p.Y < 80 {
				canvas.SetRGBA(x, y, color.RGBA{A: 255})
				continue
			}
			canvas.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
}

func TestPerspectiveRectifyRoundTrip(t *testing.T) {
	canvas := image.NewRGBA(image.Rect(0, 0, 400, 400))
	q := OrderCorners([4]Point{Pt(80, 60), Pt(260, 50), Pt(280, 340), Pt(70, 330)})
	drawPattern(canvas, q)

	out, err := PerspectiveRectify(q, image.Rect(0, 0, 100, 140), canvas)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 140), out.Bounds())

	// bar band rows are dark, the rest light
	assert.Less(t, int(out.RGBAAt(50, 70).R), 40)
	assert.Greater(t, int(out.RGBAAt(50, 20).R), 200)
	assert.Greater(t, int(out.RGBAAt(50, 120).R), 200)

	// re-measure the light region: it spans the full destination
	var minX, maxX = 100, -1
	for x := range 100 {
		if out.RGBAAt(x, 30).R > 200 {
			minX = min(minX, x)
			maxX = max(maxX, x)
		}
	}
	var minY, maxY = 140, -1
	for y := range 140 {
		if out.RGBAAt(20, y).R > 200 {
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}
	aspect := float64(maxX-minX+1) / float64(maxY-minY+1)
	assert.InDelta(t, 100.0/140.0, aspect, 0.03)
}

func TestPerspectiveRectifyEmpty(t *testing.T) {
	_, err := PerspectiveRectify(RectQuad(10, 10), image.Rect(0, 0, 0, 5), image.NewRGBA(image.Rect(0, 0, 10, 10)))
	assert.Error(t, err)
}

func TestRotate180(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(0, 0, color.RGBA{R: 1, A: 255})
	img.SetRGBA(2, 1, color.RGBA{R: 9, A: 255})

	out := Rotate180(img)
	assert.Equal(t, uint8(1), out.RGBAAt(2, 1).R)
	assert.Equal(t, uint8(9), out.RGBAAt(0, 0).R)
}
