package segment

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcsflight/cduocr/internal/grid"
	"github.com/dcsflight/cduocr/internal/profile"
	"github.com/dcsflight/cduocr/internal/utils"
)

func freeConfig() Config {
	return Config{Mode: profile.SegmentFree, MinHeight: 8, MaxHeight: 40, Gap: 2, YOffset: 10}
}

// drawStripe fills [y1, y2) with ink in every column.
func drawStripe(g *image.Gray, y1, y2 int) {
	utils.FillGray(g, image.Rect(0, y1, g.Bounds().Dx(), y2), 255)
}

// assertBandInvariants checks the band-count contract: exactly rows bands,
// ordered, non-overlapping, non-empty and within [0, h).
func assertBandInvariants(t *testing.T, bands []grid.Band, rows, h int) {
	t.Helper()
	require.Len(t, bands, rows)
	prev := 0
	for i, b := range bands {
		assert.Greater(t, b.Y2, b.Y1, "band %d is empty", i)
		assert.GreaterOrEqual(t, b.Y1, prev, "band %d overlaps its predecessor", i)
		assert.LessOrEqual(t, b.Y2, h, "band %d exceeds image bounds", i)
		prev = b.Y2
	}
}

func TestRowsFreeModeFindsStripes(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 200, 150))
	stripes := [][2]int{{10, 28}, {60, 78}, {110, 128}}
	for _, s := range stripes {
		drawStripe(g, s[0], s[1])
	}

	bands := Rows(g, 3, freeConfig())
	assertBandInvariants(t, bands, 3, 150)
	for i, s := range stripes {
		assert.LessOrEqual(t, bands[i].Y1, s[0], "band %d misses stripe top", i)
		assert.GreaterOrEqual(t, bands[i].Y2, s[1], "band %d misses stripe bottom", i)
	}
}

func TestRowsFreeModeEmptyFrameFallsBackUniform(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 100, 90))
	bands := Rows(g, 3, freeConfig())
	assertBandInvariants(t, bands, 3, 90)
	assert.Equal(t, grid.Band{Y1: 0, Y2: 30}, bands[0])
	assert.Equal(t, grid.Band{Y1: 30, Y2: 60}, bands[1])
	assert.Equal(t, grid.Band{Y1: 60, Y2: 90}, bands[2])
}

func TestRowsFreeModeDropsWeakestSurplusBand(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 200, 200))
	drawStripe(g, 10, 30)
	drawStripe(g, 60, 80)
	// Weak stripe: above the run threshold but half the ink mass.
	utils.FillGray(g, image.Rect(0, 120, 100, 140), 255)

	bands := Rows(g, 2, freeConfig())
	assertBandInvariants(t, bands, 2, 200)
	assert.LessOrEqual(t, bands[0].Y1, 10)
	assert.GreaterOrEqual(t, bands[1].Y2, 80)
	assert.Less(t, bands[1].Y1, 120, "weak stripe should have been dropped")
}

func TestRowsFreeModeSplitsTallBandAtValley(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 200, 200))
	// One double-height region with a thin low-density waist in the middle.
	drawStripe(g, 20, 44)
	utils.FillGray(g, image.Rect(0, 44, 70, 50), 255) // waist: 35% density
	drawStripe(g, 50, 74)
	// A second, normal stripe.
	drawStripe(g, 120, 140)

	bands := Rows(g, 3, freeConfig())
	assertBandInvariants(t, bands, 3, 200)
	// The split boundary must land inside the waist, not bisect a stripe.
	assert.InDelta(t, 47, bands[0].Y2, 5)
	assert.Equal(t, bands[0].Y2, bands[1].Y1)
}

func TestRowsStaticMode(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 50, 100))
	drawStripe(g, 5, 15) // ink placement is irrelevant for static slicing
	bands := Rows(g, 4, Config{Mode: profile.SegmentStatic})
	assertBandInvariants(t, bands, 4, 100)
	for i, b := range bands {
		assert.Equal(t, i*25, b.Y1)
		assert.Equal(t, (i+1)*25, b.Y2)
	}
}

func TestRowsAnchoredMode(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 200, 160))
	drawStripe(g, 20, 40)
	drawStripe(g, 70, 90)
	drawStripe(g, 120, 140)

	cfg := Config{
		Mode:       profile.SegmentAnchored,
		RowCenters: []int{30, 80, 130},
		MinHeight:  12, MaxHeight: 30, Gap: 2, YOffset: 10,
	}
	bands := Rows(g, 3, cfg)
	assertBandInvariants(t, bands, 3, 160)

	for i, anchor := range cfg.RowCenters {
		b := bands[i]
		assert.GreaterOrEqual(t, b.Height(), cfg.MinHeight, "band %d under min height", i)
		assert.LessOrEqual(t, b.Height(), cfg.MaxHeight, "band %d over max height", i)
		center := (b.Y1 + b.Y2) / 2
		deviation := center - anchor
		if deviation < 0 {
			deviation = -deviation
		}
		assert.LessOrEqual(t, deviation, cfg.YOffset,
			"band %d center drifted past the allowance", i)
	}
}

func TestRowsAnchoredYOffsetBoundsCenterDrift(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 200, 120))
	drawStripe(g, 40, 56) // the true row sits below the stale hint

	base := Config{
		Mode:       profile.SegmentAnchored,
		RowCenters: []int{40},
		MinHeight:  12, MaxHeight: 24, Gap: 2,
	}

	wide := base
	wide.YOffset = 10
	bands := Rows(g, 1, wide)
	assertBandInvariants(t, bands, 1, 120)
	assert.LessOrEqual(t, bands[0].Y1, 40)
	assert.GreaterOrEqual(t, bands[0].Y2, 56, "allowance should let the band reach the stripe")

	tight := base
	tight.YOffset = 2
	bands = Rows(g, 1, tight)
	assertBandInvariants(t, bands, 1, 120)
	center := (bands[0].Y1 + bands[0].Y2) / 2
	assert.InDelta(t, float64(40), float64(center), 2, "center must stay within the allowance")
	assert.Less(t, bands[0].Y2, 56, "growth past the allowance must stop")
}

func TestRowsAnchoredClampsOutOfBoundsHints(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 100, 120))
	cfg := Config{
		Mode:       profile.SegmentAnchored,
		RowCenters: []int{-30, 60, 400},
		MinHeight:  10, MaxHeight: 20, Gap: 2,
	}
	bands := Rows(g, 3, cfg)
	assertBandInvariants(t, bands, 3, 120)
	for _, b := range bands {
		assert.GreaterOrEqual(t, b.Height(), cfg.MinHeight)
	}
}

func TestRowsDegenerateInputs(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 10, 2))
	assert.Nil(t, Rows(g, 5, freeConfig())) // too short for 5 bands
	assert.Nil(t, Rows(g, 0, freeConfig()))

	// Exactly rows pixels tall still yields one-pixel bands.
	g = image.NewGray(image.Rect(0, 0, 10, 5))
	bands := Rows(g, 5, freeConfig())
	assertBandInvariants(t, bands, 5, 5)
}

func TestRowsInvariantsAcrossModesAndContent(t *testing.T) {
	contents := map[string]func(*image.Gray){
		"empty":      func(*image.Gray) {},
		"full":       func(g *image.Gray) { drawStripe(g, 0, g.Bounds().Dy()) },
		"speckle":    func(g *image.Gray) { utils.FillGray(g, image.Rect(3, 3, 5, 5), 255) },
		"one stripe": func(g *image.Gray) { drawStripe(g, 40, 55) },
	}
	modes := []Config{
		{Mode: profile.SegmentStatic},
		freeConfig(),
		{Mode: profile.SegmentAnchored, RowCenters: []int{15, 45, 75}, MinHeight: 8, MaxHeight: 40, Gap: 2},
	}
	for name, draw := range contents {
		for _, cfg := range modes {
			g := image.NewGray(image.Rect(0, 0, 80, 100))
			draw(g)
			bands := Rows(g, 3, cfg)
			t.Run(name+"/"+cfg.Mode, func(t *testing.T) {
				assertBandInvariants(t, bands, 3, 100)
			})
		}
	}
}
