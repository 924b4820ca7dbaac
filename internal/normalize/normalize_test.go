package normalize

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcsflight/cduocr/internal/utils"
)

// highlightBox fills r with foreground and punches dark "text" holes so the
// region reads as a highlighted field: mostly white with dark glyphs.
func highlightBox(g *image.Gray, r image.Rectangle) {
	utils.FillGray(g, r, 255)
	for x := r.Min.X + 6; x < r.Max.X-6; x += 8 {
		utils.FillGray(g, image.Rect(x, r.Min.Y+8, x+3, r.Max.Y-8), 0)
	}
}

func TestNormalizeNoRegions(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 100, 80))
	// Sparse text-like ink only.
	utils.FillGray(g, image.Rect(10, 10, 14, 20), 255)
	utils.FillGray(g, image.Rect(30, 10, 34, 20), 255)

	out, regions := Normalize(g, DefaultConfig())
	assert.Empty(t, regions)
	assert.Equal(t, 255, int(out.GrayAt(11, 12).Y)) // untouched
}

func TestNormalizeInvertsHighlightedField(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 200, 120))
	box := image.Rect(40, 30, 120, 80) // 80x50, above the 20x35 minimum
	highlightBox(g, box)

	before := utils.ForegroundRatio(g, box)
	require.Greater(t, before, 0.40)

	_, regions := Normalize(g, DefaultConfig())
	require.Len(t, regions, 1)
	assert.True(t, regions[0].Overlaps(box))

	// Polarity flipped: the dense white field is now mostly dark, the former
	// dark glyph strokes are now ink.
	after := utils.ForegroundRatio(g, regions[0])
	assert.Less(t, after, before)
	assert.Equal(t, uint8(255), g.GrayAt(46, 55).Y) // inside a former glyph hole
}

func TestNormalizeBlackensRegionBorder(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 200, 120))
	box := image.Rect(40, 30, 120, 80)
	highlightBox(g, box)

	_, regions := Normalize(g, DefaultConfig())
	require.Len(t, regions, 1)
	r := regions[0]
	for x := r.Min.X; x < r.Max.X; x++ {
		assert.Equal(t, uint8(0), g.GrayAt(x, r.Min.Y).Y)
		assert.Equal(t, uint8(0), g.GrayAt(x, r.Max.Y-1).Y)
	}
}

func TestNormalizeRejectsWholeFrame(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 100, 80))
	utils.FillGray(g, image.Rect(1, 1, 99, 79), 255) // covers >90% of both dims

	_, regions := Normalize(g, DefaultConfig())
	assert.Empty(t, regions)
}

func TestNormalizeRejectsSmallBoxes(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 100, 80))
	utils.FillGray(g, image.Rect(10, 10, 28, 30), 255) // 18x20, below minimum

	_, regions := Normalize(g, DefaultConfig())
	assert.Empty(t, regions)
}

func TestNormalizeMergesAdjacentBoxes(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 300, 120))
	// Two dense fields separated by a single-pixel gap merge into one region.
	utils.FillGray(g, image.Rect(20, 20, 60, 70), 255)
	utils.FillGray(g, image.Rect(61, 20, 101, 70), 255)

	_, regions := Normalize(g, DefaultConfig())
	require.Len(t, regions, 1)
	assert.Equal(t, image.Rect(20, 20, 101, 70), regions[0])
}

func TestMergeBoxesIterativeUnion(t *testing.T) {
	boxes := []image.Rectangle{
		image.Rect(0, 0, 10, 10),
		image.Rect(30, 0, 40, 10),
		image.Rect(9, 0, 31, 10), // bridges the other two
	}
	out := mergeBoxes(boxes, 2)
	require.Len(t, out, 1)
	assert.Equal(t, image.Rect(0, 0, 40, 10), out[0])
}
