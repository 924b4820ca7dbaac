// Package utils provides shared single-channel image helpers for the
// display reading pipeline. All pipeline stages operate on *image.Gray
// buffers where foreground (ink) is 255 and background is 0.
package utils

import (
	"image"
	"image/color"
)

// Foreground is the pixel value of ink in a binarized frame.
const Foreground = 255

// ClampInt clamps v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampFloat clamps v to [lo, hi].
func ClampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ToGray converts an arbitrary image to 8-bit luminance. The result never
// aliases img, so callers may mutate it without touching the source frame.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		out := image.NewGray(image.Rect(0, 0, g.Bounds().Dx(), g.Bounds().Dy()))
		b := g.Bounds()
		for y := 0; y < b.Dy(); y++ {
			copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()], g.Pix[(b.Min.Y+y)*g.Stride+b.Min.X:])
		}
		return out
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x-b.Min.X, y-b.Min.Y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return out
}

// GreenChannel extracts the green channel as a gray image. Simulated display
// text is often rendered in green; dropping the other channels suppresses
// background bleed.
func GreenChannel(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, g, _, _ := img.At(x, y).RGBA()
			out.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{Y: uint8(g >> 8)})
		}
	}
	return out
}

// CropGray copies the given rectangle out of g into a fresh buffer with
// origin (0,0). The rectangle is clamped to the image bounds.
func CropGray(g *image.Gray, r image.Rectangle) *image.Gray {
	r = r.Intersect(g.Bounds())
	out := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		srcOff := g.PixOffset(r.Min.X, y)
		dstOff := out.PixOffset(0, y-r.Min.Y)
		copy(out.Pix[dstOff:dstOff+r.Dx()], g.Pix[srcOff:srcOff+r.Dx()])
	}
	return out
}

// CountForeground counts ink pixels inside r (clamped to bounds).
func CountForeground(g *image.Gray, r image.Rectangle) int {
	r = r.Intersect(g.Bounds())
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := g.PixOffset(r.Min.X, y)
		for x := 0; x < r.Dx(); x++ {
			if g.Pix[off+x] >= Foreground/2 {
				n++
			}
		}
	}
	return n
}

// ForegroundRatio returns the fraction of ink pixels inside r, 0 for an
// empty rectangle.
func ForegroundRatio(g *image.Gray, r image.Rectangle) float64 {
	r = r.Intersect(g.Bounds())
	area := r.Dx() * r.Dy()
	if area == 0 {
		return 0
	}
	return float64(CountForeground(g, r)) / float64(area)
}

// InkBounds returns the tight bounding box of ink pixels in g, and false
// when the image holds no ink.
func InkBounds(g *image.Gray) (image.Rectangle, bool) {
	b := g.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := g.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			if g.Pix[off+x] >= Foreground/2 {
				px := b.Min.X + x
				if px < minX {
					minX = px
				}
				if px > maxX {
					maxX = px
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}
	if maxX < minX || maxY < minY {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// InvertGray flips pixel polarity inside r in place.
func InvertGray(g *image.Gray, r image.Rectangle) {
	r = r.Intersect(g.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := g.PixOffset(r.Min.X, y)
		for x := 0; x < r.Dx(); x++ {
			g.Pix[off+x] = 255 - g.Pix[off+x]
		}
	}
}

// FillGray sets every pixel inside r to v.
func FillGray(g *image.Gray, r image.Rectangle, v uint8) {
	r = r.Intersect(g.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := g.PixOffset(r.Min.X, y)
		for x := 0; x < r.Dx(); x++ {
			g.Pix[off+x] = v
		}
	}
}
