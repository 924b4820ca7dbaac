package segment

import (
	"image"

	"github.com/dcsflight/cduocr/internal/grid"
	"github.com/dcsflight/cduocr/internal/utils"
)

// BestShift estimates the horizontal offset of a row's text relative to the
// expected column raster. Candidate shifts in [-maxShift, maxShift] are
// scored by the ink mass falling under the expected inter-column gutters; the
// shift leaving the gutters cleanest wins. Used by the per-character
// recognizer to refine cell boundaries.
func BestShift(bin *image.Gray, band grid.Band, cols, maxShift int) int {
	w := bin.Bounds().Dx()
	if cols <= 0 || w < cols || maxShift <= 0 {
		return 0
	}
	proj := VerticalProjection(bin, band.Y1, band.Y2)

	best, bestScore := 0, gutterInk(proj, cols, 0)
	for s := -maxShift; s <= maxShift; s++ {
		if s == 0 {
			continue
		}
		if score := gutterInk(proj, cols, s); score < bestScore {
			best, bestScore = s, score
		}
	}
	return best
}

// gutterInk sums projection density at the expected cell boundaries under a
// candidate shift. Lower is better: character columns should sit between
// boundaries, not under them.
func gutterInk(proj []float64, cols, shift int) float64 {
	w := len(proj)
	var total float64
	for k := 1; k < cols; k++ {
		x := k*w/cols + shift
		if x < 0 || x >= w {
			// Penalize shifts that push boundaries outside the strip.
			total += float64(w)
			continue
		}
		total += proj[x]
	}
	return total
}

// RefineCells applies a horizontal shift to interior cell boundaries,
// preserving the [0, width) partition: the first cell keeps its left edge
// and the last keeps its right edge.
func RefineCells(cells []image.Rectangle, shift, width int) []image.Rectangle {
	if shift == 0 || len(cells) < 2 {
		return cells
	}
	out := make([]image.Rectangle, len(cells))
	copy(out, cells)
	for i := 0; i+1 < len(out); i++ {
		edge := utils.ClampInt(out[i].Max.X+shift, out[i].Min.X+1, width-(len(out)-1-i))
		out[i].Max.X = edge
		out[i+1].Min.X = edge
	}
	return out
}
