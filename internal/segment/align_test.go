package segment

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dcsflight/cduocr/internal/grid"
	"github.com/dcsflight/cduocr/internal/utils"
)

func TestBestShiftZeroForAlignedText(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 100, 30))
	band := grid.Band{Y1: 0, Y2: 30}
	// Glyphs centered in their 10px slots: boundaries fall in clean gutters.
	for i := 0; i < 10; i++ {
		utils.FillGray(g, image.Rect(i*10+2, 2, i*10+8, 28), 255)
	}
	assert.Equal(t, 0, BestShift(g, band, 10, 3))
}

func TestBestShiftRecoversOffset(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 100, 30))
	band := grid.Band{Y1: 0, Y2: 30}
	// Same raster shifted right: boundaries at k*10 now cut into glyphs.
	for i := 0; i < 9; i++ {
		utils.FillGray(g, image.Rect(i*10+4, 2, i*10+12, 28), 255)
	}
	shift := BestShift(g, band, 10, 4)
	assert.InDelta(t, 3, shift, 1)
}

func TestBestShiftDegenerate(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 4, 10))
	band := grid.Band{Y1: 0, Y2: 10}
	assert.Equal(t, 0, BestShift(g, band, 0, 3))
	assert.Equal(t, 0, BestShift(g, band, 8, 3))
	assert.Equal(t, 0, BestShift(g, band, 2, 0))
}

func TestRefineCellsPreservesPartition(t *testing.T) {
	band := grid.Band{Y1: 0, Y2: 20}
	cells := []image.Rectangle{
		image.Rect(0, 0, 10, 20),
		image.Rect(10, 0, 20, 20),
		image.Rect(20, 0, 30, 20),
	}
	out := RefineCells(cells, 2, 30)
	assertPartition(t, out, 3, 30, band)
	assert.Equal(t, 12, out[0].Max.X)
	assert.Equal(t, 22, out[1].Max.X)

	// Zero shift returns the input untouched.
	assert.Equal(t, cells, RefineCells(cells, 0, 30))
}

func TestRefineCellsClampsExtremeShift(t *testing.T) {
	band := grid.Band{Y1: 0, Y2: 20}
	cells := []image.Rectangle{
		image.Rect(0, 0, 10, 20),
		image.Rect(10, 0, 20, 20),
		image.Rect(20, 0, 30, 20),
	}
	out := RefineCells(cells, 100, 30)
	assertPartition(t, out, 3, 30, band)
}
