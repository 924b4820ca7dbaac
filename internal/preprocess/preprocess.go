// Package preprocess turns a captured frame into a clean binary image for
// segmentation and recognition. The stage order is fixed: channel reduction,
// contrast, optional unsharp sharpening, smoothing blur, binarization and
// optional dilation.
package preprocess

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/dcsflight/cduocr/internal/profile"
	"github.com/dcsflight/cduocr/internal/utils"
)

// Params holds the preprocessing knobs from the display profile.
type Params struct {
	Invert           bool
	GlobalThreshold  bool
	ThresholdValue   uint8
	GreenChannelOnly bool
	Sharpness        float64
	Contrast         float64
	Dilation         int
}

// ParamsFromProfile extracts the preprocessing knobs from a profile.
func ParamsFromProfile(p *profile.Profile) Params {
	return Params{
		Invert:           p.Invert,
		GlobalThreshold:  p.GlobalThreshold,
		ThresholdValue:   p.ThresholdValue,
		GreenChannelOnly: p.GreenChannelOnly,
		Sharpness:        p.Sharpness,
		Contrast:         p.Contrast,
		Dilation:         p.Dilation,
	}
}

// adaptiveWindow is the local-mean window size for adaptive binarization.
const adaptiveWindow = 15

// adaptiveBias is subtracted from the local mean before comparison, so flat
// regions do not flicker between polarities.
const adaptiveBias = 10

// Preprocess converts img into a two-valued (0/255) single-channel image.
// Degenerate input (all-black or all-white frames) yields an all-background
// output rather than an error.
func Preprocess(img image.Image, p Params) *image.Gray {
	var g *image.Gray
	if p.GreenChannelOnly {
		g = utils.GreenChannel(img)
	} else {
		g = utils.ToGray(img)
	}

	if p.Contrast > 0 && p.Contrast != 1.0 {
		scaleContrast(g, p.Contrast)
	}

	if p.Sharpness > 0 {
		g = unsharpMask(g, p.Sharpness)
	}

	g = boxBlur3(g)

	if p.GlobalThreshold {
		binarizeGlobal(g, p.ThresholdValue, p.Invert)
	} else {
		g = binarizeAdaptive(g, p.Invert)
	}

	if p.Dilation > 0 {
		g = dilate(g, 1+2*p.Dilation)
	}
	return g
}

// scaleContrast multiplies every pixel by factor, clamped to [0, 255].
func scaleContrast(g *image.Gray, factor float64) {
	for i, v := range g.Pix {
		g.Pix[i] = uint8(utils.ClampFloat(float64(v)*factor, 0, 255))
	}
}

// unsharpMask sharpens by blurring and linearly recombining the original
// with the blur: out = (1+s)*orig - s*blur.
func unsharpMask(g *image.Gray, s float64) *image.Gray {
	sigma := 0.5 + s
	blurred := utils.ToGray(imaging.Blur(g, sigma))
	out := image.NewGray(g.Bounds())
	for i := range g.Pix {
		v := (1+s)*float64(g.Pix[i]) - s*float64(blurred.Pix[i])
		out.Pix[i] = uint8(utils.ClampFloat(v, 0, 255))
	}
	return out
}

// boxBlur3 applies a fixed 3x3 smoothing blur to suppress single-pixel
// rendering noise before thresholding.
func boxBlur3(g *image.Gray) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum, n int
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					sum += int(g.Pix[ny*g.Stride+nx])
					n++
				}
			}
			out.Pix[y*out.Stride+x] = uint8(sum / n)
		}
	}
	return out
}

// binarizeGlobal thresholds in place at a fixed value.
func binarizeGlobal(g *image.Gray, threshold uint8, invert bool) {
	for i, v := range g.Pix {
		on := v > threshold
		if invert {
			on = !on
		}
		if on {
			g.Pix[i] = utils.Foreground
		} else {
			g.Pix[i] = 0
		}
	}
}

// binarizeAdaptive thresholds against the local window mean, computed from a
// summed-area table so the window size does not affect cost.
func binarizeAdaptive(g *image.Gray, invert bool) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	if w == 0 || h == 0 {
		return out
	}

	// integral[y][x] = sum of pixels in [0,x) x [0,y)
	integral := make([]int64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var rowSum int64
		for x := 0; x < w; x++ {
			rowSum += int64(g.Pix[y*g.Stride+x])
			integral[(y+1)*(w+1)+x+1] = integral[y*(w+1)+x+1] + rowSum
		}
	}

	half := adaptiveWindow / 2
	for y := 0; y < h; y++ {
		y1 := utils.ClampInt(y-half, 0, h)
		y2 := utils.ClampInt(y+half+1, 0, h)
		for x := 0; x < w; x++ {
			x1 := utils.ClampInt(x-half, 0, w)
			x2 := utils.ClampInt(x+half+1, 0, w)
			area := int64((x2 - x1) * (y2 - y1))
			sum := integral[y2*(w+1)+x2] - integral[y1*(w+1)+x2] -
				integral[y2*(w+1)+x1] + integral[y1*(w+1)+x1]
			mean := sum / area
			on := int64(g.Pix[y*g.Stride+x]) > mean-adaptiveBias
			if invert {
				on = !on
			}
			if on {
				out.Pix[y*out.Stride+x] = utils.Foreground
			}
		}
	}
	return out
}

// dilate grows foreground with a square kernel of the given size.
func dilate(g *image.Gray, kernel int) *image.Gray {
	if kernel <= 1 {
		return g
	}
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	half := kernel / 2
	out := image.NewGray(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var maxV uint8
			for dy := -half; dy <= half && maxV < utils.Foreground; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -half; dx <= half; dx++ {
					nx := x + dx
					if nx < 0 || nx >= w {
						continue
					}
					if v := g.Pix[ny*g.Stride+nx]; v > maxV {
						maxV = v
						if maxV == utils.Foreground {
							break
						}
					}
				}
			}
			out.Pix[y*out.Stride+x] = maxV
		}
	}
	return out
}
