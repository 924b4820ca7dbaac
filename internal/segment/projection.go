// Package segment partitions a binarized frame into row bands and
// per-column character cells using ink-density projections.
package segment

import (
	"image"

	"github.com/dcsflight/cduocr/internal/utils"
)

// HorizontalProjection returns the ink pixel count per image row.
func HorizontalProjection(bin *image.Gray) []float64 {
	b := bin.Bounds()
	out := make([]float64, b.Dy())
	for y := 0; y < b.Dy(); y++ {
		off := bin.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < b.Dx(); x++ {
			if bin.Pix[off+x] >= utils.Foreground/2 {
				out[y]++
			}
		}
	}
	return out
}

// VerticalProjection returns the ink pixel count per column within the
// vertical interval [y1, y2).
func VerticalProjection(bin *image.Gray, y1, y2 int) []float64 {
	b := bin.Bounds()
	y1 = utils.ClampInt(y1, 0, b.Dy())
	y2 = utils.ClampInt(y2, 0, b.Dy())
	out := make([]float64, b.Dx())
	for y := y1; y < y2; y++ {
		off := bin.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < b.Dx(); x++ {
			if bin.Pix[off+x] >= utils.Foreground/2 {
				out[x]++
			}
		}
	}
	return out
}

// Smooth applies a moving average of the given radius.
func Smooth(sig []float64, radius int) []float64 {
	if radius <= 0 || len(sig) == 0 {
		return sig
	}
	out := make([]float64, len(sig))
	for i := range sig {
		lo := utils.ClampInt(i-radius, 0, len(sig))
		hi := utils.ClampInt(i+radius+1, 0, len(sig))
		var sum float64
		for j := lo; j < hi; j++ {
			sum += sig[j]
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}

// maxOf returns the maximum of the signal, 0 when empty.
func maxOf(sig []float64) float64 {
	var m float64
	for _, v := range sig {
		if v > m {
			m = v
		}
	}
	return m
}

// sumRange sums sig over [lo, hi) clamped to the signal bounds.
func sumRange(sig []float64, lo, hi int) float64 {
	lo = utils.ClampInt(lo, 0, len(sig))
	hi = utils.ClampInt(hi, 0, len(sig))
	var s float64
	for i := lo; i < hi; i++ {
		s += sig[i]
	}
	return s
}

// valleyBetween finds the index of the density minimum strictly inside
// (lo, hi). Returns -1 when the interval is degenerate or uniformly dense
// (no point falls meaningfully below the surrounding density), in which case
// callers fall back to the midpoint.
func valleyBetween(sig []float64, lo, hi int) int {
	lo = utils.ClampInt(lo, 0, len(sig)-1)
	hi = utils.ClampInt(hi, 0, len(sig))
	if hi-lo < 3 {
		return -1
	}
	best := lo + 1
	var maxV float64
	for i := lo + 1; i < hi-1; i++ {
		if sig[i] < sig[best] {
			best = i
		}
		if sig[i] > maxV {
			maxV = sig[i]
		}
	}
	// Uniformly dense: the minimum is not a real valley.
	if maxV > 0 && sig[best] > 0.95*maxV {
		return -1
	}
	return best
}
