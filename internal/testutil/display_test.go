package testutil

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDisplayDimensions(t *testing.T) {
	cfg := DefaultDisplayConfig("ALT 10000", "HDG   275")
	img := RenderDisplay(cfg)

	require.Equal(t, 9*cfg.CellWidth, img.Bounds().Dx())
	require.Equal(t, 2*cfg.RowHeight, img.Bounds().Dy())
}

func TestRenderDisplayDrawsInk(t *testing.T) {
	img := RenderDisplay(DefaultDisplayConfig("X"))

	lit := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, g, _, _ := img.At(x, y).RGBA(); g > 0x8000 {
				lit++
			}
		}
	}
	assert.Positive(t, lit, "glyph pixels should be drawn in the foreground color")
	assert.Less(t, lit, b.Dx()*b.Dy()/2, "background stays dark")
}

func TestRenderDisplayInvertedRegion(t *testing.T) {
	cfg := DefaultDisplayConfig("AB")
	cfg.Inverted = []image.Rectangle{image.Rect(0, 0, cfg.CellWidth, cfg.RowHeight)}
	img := RenderDisplay(cfg)

	// A background pixel inside the inverted box turns bright.
	c := img.RGBAAt(1, 1)
	assert.Equal(t, uint8(255), c.R)
}

func TestRenderDisplayNoiseIsDeterministic(t *testing.T) {
	cfg := DefaultDisplayConfig("ABC")
	cfg.NoiseLevel = 0.05
	cfg.Seed = 7

	a := RenderDisplay(cfg)
	b := RenderDisplay(cfg)
	assert.Equal(t, a.Pix, b.Pix)
}

func TestRenderDisplayEmpty(t *testing.T) {
	img := RenderDisplay(DisplayConfig{Background: color.Black})
	assert.False(t, img.Bounds().Empty())
}
