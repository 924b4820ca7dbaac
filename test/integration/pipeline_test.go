package integration

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcsflight/cduocr/internal/normalize"
	"github.com/dcsflight/cduocr/internal/preprocess"
	"github.com/dcsflight/cduocr/internal/profile"
	"github.com/dcsflight/cduocr/internal/segment"
	"github.com/dcsflight/cduocr/internal/testutil"
	"github.com/dcsflight/cduocr/internal/utils"
)

// TestFrameToCells runs a rendered display frame through preprocessing,
// normalization and both segmentation passes, checking the structural
// guarantees the recognizer depends on.
func TestFrameToCells(t *testing.T) {
	lines := []string{
		"ALT    10000",
		"HDG      275",
		"SPD      250",
	}
	cfg := testutil.DefaultDisplayConfig(lines...)
	frame := testutil.RenderDisplay(cfg)

	p := profile.Default(len(lines), 12)
	p.GlobalThreshold = true
	p.ThresholdValue = 84

	bin := preprocess.Preprocess(frame, preprocess.ParamsFromProfile(p))
	require.Equal(t, frame.Bounds().Dx(), bin.Bounds().Dx())

	bin, inverted := normalize.Normalize(bin, normalize.DefaultConfig())
	assert.Empty(t, inverted, "clean frame has no highlighted regions")

	bands := segment.Rows(bin, p.Rows, segment.ConfigFromProfile(p))
	require.Len(t, bands, p.Rows)
	for i, band := range bands {
		assert.Greater(t, band.Y2, band.Y1, "band %d must not be empty", i)
		if i > 0 {
			assert.GreaterOrEqual(t, band.Y1, bands[i-1].Y2, "bands must not overlap")
		}
		cells := segment.Cells(bin, band, p.Cols)
		require.Len(t, cells, p.Cols, "row %d", i)
		assert.Equal(t, 0, cells[0].Min.X)
		assert.Equal(t, bin.Bounds().Dx(), cells[len(cells)-1].Max.X)
	}
}

// TestHighlightedFieldNormalization renders an inverted box over one field
// and checks that normalization restores uniform polarity and reports the
// region.
func TestHighlightedFieldNormalization(t *testing.T) {
	cfg := testutil.DefaultDisplayConfig(
		"FUEL    8400",
		"FLOW     120",
	)
	box := image.Rect(8*cfg.CellWidth, 0, 12*cfg.CellWidth, cfg.RowHeight)
	cfg.Inverted = []image.Rectangle{box}
	frame := testutil.RenderDisplay(cfg)

	p := profile.Default(2, 12)
	bin := preprocess.Preprocess(frame, preprocess.ParamsFromProfile(p))

	before := utils.ForegroundRatio(bin, box)
	require.Greater(t, before, 0.4, "highlighted field should be mostly white before normalization")

	normalized, regions := normalize.Normalize(bin, normalize.DefaultConfig())
	require.NotEmpty(t, regions, "the highlighted field should be detected")
	assert.Less(t, utils.ForegroundRatio(normalized, regions[0]), before,
		"normalization re-polarizes the highlighted field")
}
