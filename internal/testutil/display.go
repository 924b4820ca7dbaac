// Package testutil renders synthetic display frames for pipeline tests:
// monospace character grids in the style of a simulated avionics unit,
// with optional highlighted boxes and noise.
package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DisplayConfig describes a synthetic display frame.
type DisplayConfig struct {
	Lines      []string    // one string per row
	CellWidth  int         // pixel width per character cell
	RowHeight  int         // pixel height per row
	Background color.Color // defaults to black
	Foreground color.Color // defaults to display green
	Inverted   []image.Rectangle
	NoiseLevel float64 // fraction of pixels to flip, 0 for clean frames
	Seed       int64
}

// DefaultDisplayConfig sizes cells for the 7x13 basic font with margins
// matching the segmenter's default row heights.
func DefaultDisplayConfig(lines ...string) DisplayConfig {
	return DisplayConfig{
		Lines:      lines,
		CellWidth:  14,
		RowHeight:  36,
		Background: color.Black,
		Foreground: color.RGBA{0, 255, 80, 255},
	}
}

// RenderDisplay draws the configured grid. The frame is
// cols*CellWidth × rows*RowHeight where cols is the longest line.
func RenderDisplay(cfg DisplayConfig) *image.RGBA {
	cols := 0
	for _, line := range cfg.Lines {
		if n := len([]rune(line)); n > cols {
			cols = n
		}
	}
	if cfg.CellWidth <= 0 {
		cfg.CellWidth = 14
	}
	if cfg.RowHeight <= 0 {
		cfg.RowHeight = 36
	}
	if cfg.Background == nil {
		cfg.Background = color.Black
	}
	if cfg.Foreground == nil {
		cfg.Foreground = color.RGBA{0, 255, 80, 255}
	}

	w := cols * cfg.CellWidth
	h := len(cfg.Lines) * cfg.RowHeight
	img := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	draw.Draw(img, img.Bounds(), &image.Uniform{cfg.Background}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	ascent := face.Metrics().Ascent.Ceil()
	for ri, line := range cfg.Lines {
		baseline := ri*cfg.RowHeight + (cfg.RowHeight-13)/2 + ascent
		for ci, ch := range []rune(line) {
			if ch == ' ' {
				continue
			}
			d := &font.Drawer{
				Dst:  img,
				Src:  &image.Uniform{cfg.Foreground},
				Face: face,
				Dot:  fixed.P(ci*cfg.CellWidth+(cfg.CellWidth-7)/2, baseline),
			}
			d.DrawString(string(ch))
		}
	}

	for _, r := range cfg.Inverted {
		invertRect(img, r)
	}
	if cfg.NoiseLevel > 0 {
		addNoise(img, cfg.NoiseLevel, cfg.Seed)
	}
	return img
}

// invertRect swaps foreground and background inside r, simulating a
// highlighted field.
func invertRect(img *image.RGBA, r image.Rectangle) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := img.RGBAAt(x, y)
			img.SetRGBA(x, y, color.RGBA{255 - c.R, 255 - c.G, 255 - c.B, 255})
		}
	}
}

// addNoise flips a random fraction of pixels to salt-and-pepper values.
func addNoise(img *image.RGBA, level float64, seed int64) {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic test noise
	b := img.Bounds()
	n := int(level * float64(b.Dx()*b.Dy()))
	for i := 0; i < n; i++ {
		x := b.Min.X + rng.Intn(b.Dx())
		y := b.Min.Y + rng.Intn(b.Dy())
		v := uint8(0)
		if rng.Intn(2) == 1 {
			v = 255
		}
		img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
	}
}

// SavePNG writes an image for offline inspection of failing tests.
func SavePNG(t *testing.T, img image.Image, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	f, err := os.Create(path) //nolint:gosec // test artifact path
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()
	require.NoError(t, png.Encode(f, img))
}

// LoadPNG reads an image fixture.
func LoadPNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path) //nolint:gosec // test fixture path
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}
