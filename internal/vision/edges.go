package vision

import (
	"image"

	"github.com/GriffinCanCode/cardscan/internal/geometry"
	"github.com/GriffinCanCode/cardscan/internal/scanner"
)

// absDiff returns |a-b| per pixel. Both images must share bounds.
func absDiff(a, b *image.Gray) *image.Gray {
	out := image.NewGray(a.Rect)
	for i := range a.Pix {
		d := int(a.Pix[i]) - int(b.Pix[i])
		if d < 0 {
			d = -d
		}
		out.Pix[i] = uint8(d)
	}
	return out
}

// sobelEdges marks pixels whose L1 Sobel gradient |gx|+|gy| exceeds
// threshold. The one-pixel border is never marked.
func sobelEdges(g *image.Gray, threshold float64) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	edges := image.NewGray(image.Rect(0, 0, w, h))
	at := func(x, y int) int { return int(g.Pix[y*g.Stride+x]) }

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			if float64(absInt(gx)+absInt(gy)) > threshold {
				edges.Pix[y*edges.Stride+x] = 255
			}
		}
	}
	return edges
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// edgeContours groups marked pixels into 8-connected chains, scanning in
// row-major order. Each chain lists its pixels in visit order.
func edgeContours(edges *image.Gray) [][]image.Point {
	w, h := edges.Rect.Dx(), edges.Rect.Dy()
	seen := make([]bool, w*h)
	var contours [][]image.Point
	var stack []image.Point

	for y := range h {
		for x := range w {
			i := y*w + x
			if seen[i] || edges.Pix[y*edges.Stride+x] == 0 {
				continue
			}
			seen[i] = true
			stack = append(stack[:0], image.Pt(x, y))
			var chain []image.Point
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				chain = append(chain, p)
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := p.X+dx, p.Y+dy
						if nx < 0 || ny < 0 || nx >= w || ny >= h {
							continue
						}
						j := ny*w + nx
						if seen[j] || edges.Pix[ny*edges.Stride+nx] == 0 {
							continue
						}
						seen[j] = true
						stack = append(stack, image.Pt(nx, ny))
					}
				}
			}
			contours = append(contours, chain)
		}
	}
	return contours
}

// outlineDifference runs the hull strategy on the grey difference between
// current and background without OpenCV.
func outlineDifference(current, background *scanner.Frame, cfg geometry.OutlineConfig) geometry.OutlineResult {
	edges := sobelEdges(absDiff(current.Gray, background.Gray), CannyHigh)
	return geometry.QuadFromPoints(edgePoints(edgeContours(edges), MinVertices), cfg)
}
