package recognize

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/dcsflight/cduocr/internal/utils"
)

const (
	// glyphPadding is added around the cell rectangle before cropping so
	// that ascenders clipped by the cell boundary survive.
	glyphPadding = 2

	// minInkCoverage is the foreground ratio below which a cell is treated
	// as blank without running inference.
	minInkCoverage = 0.05

	// minFragmentPx rejects tight crops this small in either dimension;
	// such fragments are segmentation noise, not glyphs.
	minFragmentPx = 2
)

// prepareGlyph crops one cell, fixes polarity, tight-crops to the ink and
// centers it on a square canvas resized to inputSize. Returns nil when the
// cell holds no recognizable glyph.
func prepareGlyph(bin *image.Gray, rect image.Rectangle, inputSize int) *image.Gray {
	padded := rect.Inset(-glyphPadding).Intersect(bin.Bounds())
	if padded.Empty() {
		return nil
	}
	crop := utils.CropGray(bin, padded)
	b := crop.Bounds()

	// Inverted cells carry white backgrounds; the classifier expects
	// white-on-black.
	if utils.ForegroundRatio(crop, b) > 0.5 {
		utils.InvertGray(crop, b)
	}
	if utils.ForegroundRatio(crop, b) < minInkCoverage {
		return nil
	}
	box, ok := utils.InkBounds(crop)
	if !ok {
		return nil
	}
	if box.Dx() <= minFragmentPx || box.Dy() <= minFragmentPx {
		return nil
	}
	tight := utils.CropGray(crop, box)

	side := max(box.Dx(), box.Dy())
	canvas := image.NewGray(image.Rect(0, 0, side, side))
	offX := (side - box.Dx()) / 2
	offY := (side - box.Dy()) / 2
	tb := tight.Bounds()
	for y := 0; y < tb.Dy(); y++ {
		for x := 0; x < tb.Dx(); x++ {
			canvas.SetGray(offX+x, offY+y, tight.GrayAt(tb.Min.X+x, tb.Min.Y+y))
		}
	}
	if side == inputSize {
		return canvas
	}
	resized := imaging.Resize(canvas, inputSize, inputSize, imaging.Lanczos)
	return utils.ToGray(resized)
}
