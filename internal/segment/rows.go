package segment

import (
	"image"
	"sort"

	"github.com/dcsflight/cduocr/internal/grid"
	"github.com/dcsflight/cduocr/internal/profile"
	"github.com/dcsflight/cduocr/internal/utils"
)

// Projection smoothing radius and relative density thresholds.
const (
	smoothRadius  = 2
	runThreshold  = 0.25 // α: run detection threshold as fraction of max density
	growThreshold = 0.05 // ink-presence threshold for band edge growth
)

// Config holds row segmentation parameters from the display profile.
type Config struct {
	Mode       string
	RowCenters []int
	MinHeight  int
	MaxHeight  int
	Gap        int
	YOffset    int
}

// ConfigFromProfile extracts the segmentation configuration.
func ConfigFromProfile(p *profile.Profile) Config {
	return Config{
		Mode:       p.SegmentationMode,
		RowCenters: p.RowCenters,
		MinHeight:  p.MinRowHeight,
		MaxHeight:  p.MaxRowHeight,
		Gap:        p.RowGap,
		YOffset:    p.YOffset,
	}
}

// Rows partitions the frame into exactly rows horizontal bands. Bands are
// ordered by Y1, non-overlapping, within image bounds and never empty.
// Detection failures fall back to uniform slicing, so the band count is
// guaranteed for any input taller than rows pixels. Returns nil when the
// frame is too short to hold rows one-pixel bands.
func Rows(bin *image.Gray, rows int, cfg Config) []grid.Band {
	h := bin.Bounds().Dy()
	if rows <= 0 || h < rows {
		return nil
	}
	var bands []grid.Band
	switch cfg.Mode {
	case profile.SegmentAnchored:
		bands = anchoredBands(bin, cfg, h)
	case profile.SegmentFree:
		bands = freeBands(bin, rows, cfg, h)
	default:
		bands = staticBands(h, rows)
	}
	return sanitize(bands, rows, h)
}

// staticBands slices [0, h) uniformly.
func staticBands(h, rows int) []grid.Band {
	bands := make([]grid.Band, rows)
	for i := 0; i < rows; i++ {
		bands[i] = grid.Band{Y1: i * h / rows, Y2: (i + 1) * h / rows}
	}
	return bands
}

// anchoredBands grows one band around each known row center.
func anchoredBands(bin *image.Gray, cfg Config, h int) []grid.Band {
	proj := Smooth(HorizontalProjection(bin), smoothRadius)
	growAt := growThreshold * maxOf(proj)

	bands := make([]grid.Band, 0, len(cfg.RowCenters))
	for _, hint := range cfg.RowCenters {
		bands = append(bands, growBand(proj, hint, cfg, h, growAt))
	}
	enforceGaps(bands, cfg)
	for i := range bands {
		bands[i].Score = sumRange(proj, bands[i].Y1, bands[i].Y2)
	}
	return bands
}

// growBand builds a minimum-height band around the row anchor, then extends
// its edges while the adjacent smoothed density stays above the growth
// threshold, capped at the maximum height. The band center may deviate from
// the clamped hint by at most YOffset: the anchor first snaps to the
// strongest projection line inside that allowance, and edge growth stops
// when it would push the center outside it.
func growBand(proj []float64, hint int, cfg Config, h int, growAt float64) grid.Band {
	ch := utils.ClampInt(hint, 0, h-1)
	c := anchorCenter(proj, ch, cfg.YOffset, h)
	y1 := c - cfg.MinHeight/2
	y2 := y1 + cfg.MinHeight

	lo, hi := ch-cfg.YOffset, ch+cfg.YOffset
	for y1 > 0 && y2-y1 < cfg.MaxHeight && (y1-1+y2)/2 >= lo && proj[utils.ClampInt(y1-1, 0, h-1)] > growAt {
		y1--
	}
	for y2 < h && y2-y1 < cfg.MaxHeight && (y1+y2+1)/2 <= hi && proj[utils.ClampInt(y2, 0, h-1)] > growAt {
		y2++
	}

	// Re-clamp to image bounds.
	if y1 < 0 {
		y1 = 0
	}
	if y2 > h {
		y2 = h
	}
	// If clamping left the band short, extend inward from whichever edge is
	// free of the image boundary.
	for y2-y1 < cfg.MinHeight {
		switch {
		case y2 < h:
			y2++
		case y1 > 0:
			y1--
		default:
			return grid.Band{Y1: y1, Y2: y2}
		}
	}
	return grid.Band{Y1: y1, Y2: y2}
}

// anchorCenter snaps a row hint to the densest projection line within the
// deviation allowance. The search runs outward so ties go to the line
// nearest the hint.
func anchorCenter(proj []float64, hint, yOffset, h int) int {
	best, bestV := hint, proj[hint]
	for d := 1; d <= yOffset; d++ {
		for _, y := range [2]int{hint - d, hint + d} {
			if y < 0 || y >= h {
				continue
			}
			if proj[y] > bestV {
				best, bestV = y, proj[y]
			}
		}
	}
	return best
}

// enforceGaps redistributes the boundary between adjacent bands that violate
// the minimum inter-band gap, splitting at the midpoint of their anchors
// while preserving minimum heights on both sides.
func enforceGaps(bands []grid.Band, cfg Config) {
	for i := 0; i+1 < len(bands); i++ {
		a, b := &bands[i], &bands[i+1]
		if a.Y2+cfg.Gap <= b.Y1 {
			continue
		}
		mid := (a.Y1 + a.Y2 + b.Y1 + b.Y2) / 4
		bot := mid - cfg.Gap/2
		top := bot + cfg.Gap
		if bot-a.Y1 < cfg.MinHeight {
			bot = a.Y1 + cfg.MinHeight
			top = bot + cfg.Gap
		}
		if b.Y2-top < cfg.MinHeight {
			top = b.Y2 - cfg.MinHeight
			if bot > top-cfg.Gap {
				bot = top - cfg.Gap
			}
		}
		if bot > a.Y1 {
			a.Y2 = bot
		}
		if top < b.Y2 {
			b.Y1 = top
		}
	}
}

// freeBands derives bands purely from the ink-density projection.
func freeBands(bin *image.Gray, rows int, cfg Config, h int) []grid.Band {
	proj := Smooth(HorizontalProjection(bin), smoothRadius)
	maxD := maxOf(proj)
	if maxD == 0 {
		return staticBands(h, rows)
	}

	bands := detectRuns(proj, runThreshold*maxD, cfg.MinHeight)
	growRuns(bands, proj, growThreshold*maxD, cfg.MaxHeight, h)
	bands = mergeClose(bands, cfg.Gap)
	splitOverlaps(bands, proj)
	for i := range bands {
		bands[i].Score = sumRange(proj, bands[i].Y1, bands[i].Y2)
	}

	bands = adjustCount(bands, proj, rows, cfg, h)
	return bands
}

// detectRuns finds contiguous projection runs above the threshold with at
// least the minimum length.
func detectRuns(proj []float64, threshold float64, minLen int) []grid.Band {
	var bands []grid.Band
	start := -1
	for y := 0; y <= len(proj); y++ {
		above := y < len(proj) && proj[y] > threshold
		switch {
		case above && start < 0:
			start = y
		case !above && start >= 0:
			if y-start >= minLen {
				bands = append(bands, grid.Band{Y1: start, Y2: y})
			}
			start = -1
		}
	}
	return bands
}

// growRuns extends each band's edges while adjacent density stays above the
// ink-presence threshold.
func growRuns(bands []grid.Band, proj []float64, threshold float64, maxHeight, h int) {
	for i := range bands {
		b := &bands[i]
		for b.Y1 > 0 && b.Height() < maxHeight && proj[b.Y1-1] > threshold {
			b.Y1--
		}
		for b.Y2 < h && b.Height() < maxHeight && proj[b.Y2] > threshold {
			b.Y2++
		}
	}
}

// mergeClose merges bands separated by less than gap pixels.
func mergeClose(bands []grid.Band, gap int) []grid.Band {
	if len(bands) < 2 {
		return bands
	}
	out := bands[:1]
	for _, b := range bands[1:] {
		last := &out[len(out)-1]
		if b.Y1-last.Y2 < gap {
			if b.Y2 > last.Y2 {
				last.Y2 = b.Y2
			}
		} else {
			out = append(out, b)
		}
	}
	return out
}

// splitOverlaps separates residual overlapping bands at the density valley
// between their centers, falling back to the midpoint when the overlap
// region is uniformly dense.
func splitOverlaps(bands []grid.Band, proj []float64) {
	for i := 0; i+1 < len(bands); i++ {
		a, b := &bands[i], &bands[i+1]
		if !a.Overlaps(*b) {
			continue
		}
		ca := (a.Y1 + a.Y2) / 2
		cb := (b.Y1 + b.Y2) / 2
		v := valleyBetween(proj, ca, cb)
		if v < 0 {
			v = (ca + cb) / 2
		}
		if v <= a.Y1 {
			v = a.Y1 + 1
		}
		if v >= b.Y2 {
			v = b.Y2 - 1
		}
		a.Y2 = v
		b.Y1 = v
	}
}

// adjustCount reconciles the detected band count with the expected row
// count. Surplus bands are dropped by score; missing bands are created by
// splitting the tallest band at its best valley. Uniform resampling is the
// last resort: valley splits preserve character-aligned boundaries, which
// resampling tends to bisect.
func adjustCount(bands []grid.Band, proj []float64, rows int, cfg Config, h int) []grid.Band {
	if len(bands) == 0 {
		return staticBands(h, rows)
	}
	if len(bands) > rows {
		sort.SliceStable(bands, func(i, j int) bool { return bands[i].Score > bands[j].Score })
		bands = bands[:rows]
		sort.Slice(bands, func(i, j int) bool { return bands[i].Y1 < bands[j].Y1 })
		return bands
	}
	for len(bands) < rows {
		idx := splitCandidate(bands, cfg.MaxHeight)
		if idx < 0 {
			return staticBands(h, rows)
		}
		b := bands[idx]
		v := valleyBetween(proj, b.Y1+1, b.Y2-1)
		if v <= b.Y1 || v >= b.Y2-1 {
			return staticBands(h, rows)
		}
		lower := grid.Band{Y1: b.Y1, Y2: v, Score: sumRange(proj, b.Y1, v)}
		upper := grid.Band{Y1: v, Y2: b.Y2, Score: sumRange(proj, v, b.Y2)}
		bands = append(bands[:idx], append([]grid.Band{lower, upper}, bands[idx+1:]...)...)
	}
	return bands
}

// splitCandidate picks the band to split: any band over the maximum height
// first, otherwise the tallest. Bands shorter than 4 pixels cannot split.
func splitCandidate(bands []grid.Band, maxHeight int) int {
	best := -1
	for i, b := range bands {
		if b.Height() < 4 {
			continue
		}
		if b.Height() > maxHeight {
			return i
		}
		if best < 0 || b.Height() > bands[best].Height() {
			best = i
		}
	}
	return best
}

// sanitize clamps bands to image bounds, restores ordering and strict
// non-overlap, and falls back to uniform slicing when the invariants cannot
// be repaired.
func sanitize(bands []grid.Band, rows, h int) []grid.Band {
	if len(bands) != rows {
		return staticBands(h, rows)
	}
	sort.Slice(bands, func(i, j int) bool { return bands[i].Y1 < bands[j].Y1 })
	prev := 0
	for i := range bands {
		b := &bands[i]
		b.Y1 = utils.ClampInt(b.Y1, prev, h)
		b.Y2 = utils.ClampInt(b.Y2, b.Y1, h)
		if b.Y2 <= b.Y1 {
			b.Y2 = b.Y1 + 1
		}
		if b.Y2 > h {
			return staticBands(h, rows)
		}
		prev = b.Y2
	}
	return bands
}
