// Package normalize detects highlighted (inverted) boxes in a binarized
// frame and re-polarizes them so all text reads light-on-dark before
// segmentation and recognition.
package normalize

import (
	"container/list"
	"image"

	"github.com/dcsflight/cduocr/internal/utils"
)

// Config tunes inverted-region detection.
type Config struct {
	MinWidth     int     // minimum candidate box width in pixels
	MinHeight    int     // minimum candidate box height in pixels
	MinDensity   float64 // white-pixel density above which a box counts as inverted
	MergeGap     int     // boxes closer than this are merged into one region
	BorderInset  int     // width of the border blackened inside each region
	MaxCoverage  float64 // boxes covering this fraction of both dimensions are rejected
}

// DefaultConfig returns detection defaults tuned for CDU-style renders.
func DefaultConfig() Config {
	return Config{
		MinWidth:    20,
		MinHeight:   35,
		MinDensity:  0.40,
		MergeGap:    2,
		BorderInset: 2,
		MaxCoverage: 0.90,
	}
}

// Normalize finds high-density bounding boxes of connected foreground,
// inverts the pixels inside each accepted region in place and blackens a
// thin border to remove the residual box outline. Returns the same image and
// the accepted regions so downstream stages can flag cells inside them.
func Normalize(bin *image.Gray, cfg Config) (*image.Gray, []image.Rectangle) {
	boxes := componentBoxes(bin)
	w := bin.Bounds().Dx()
	h := bin.Bounds().Dy()

	accepted := make([]image.Rectangle, 0, len(boxes))
	for _, box := range boxes {
		if box.Dx() < cfg.MinWidth || box.Dy() < cfg.MinHeight {
			continue
		}
		// A box spanning nearly the whole frame is the display background,
		// not a highlighted field.
		if float64(box.Dx()) >= cfg.MaxCoverage*float64(w) &&
			float64(box.Dy()) >= cfg.MaxCoverage*float64(h) {
			continue
		}
		if utils.ForegroundRatio(bin, box) > cfg.MinDensity {
			accepted = append(accepted, box)
		}
	}

	regions := mergeBoxes(accepted, cfg.MergeGap)
	for _, r := range regions {
		utils.InvertGray(bin, r)
		blackenBorder(bin, r, cfg.BorderInset)
	}
	return bin, regions
}

// componentBoxes returns the bounding box of every 4-connected foreground
// component.
func componentBoxes(bin *image.Gray) []image.Rectangle {
	b := bin.Bounds()
	w, h := b.Dx(), b.Dy()
	visited := make([]bool, w*h)
	var boxes []image.Rectangle

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if visited[idx] || bin.Pix[y*bin.Stride+x] < utils.Foreground/2 {
				continue
			}
			boxes = append(boxes, componentBFS(bin, visited, w, h, x, y))
		}
	}
	return boxes
}

// componentBFS traverses one component from a seed pixel and returns its
// bounding box.
func componentBFS(bin *image.Gray, visited []bool, w, h, startX, startY int) image.Rectangle {
	minX, minY, maxX, maxY := startX, startY, startX, startY
	q := list.New()
	q.PushBack(startY*w + startX)
	visited[startY*w+startX] = true
	dirs := [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

	for q.Len() > 0 {
		e := q.Front()
		q.Remove(e)
		ci, ok := e.Value.(int)
		if !ok {
			continue
		}
		cx, cy := ci%w, ci/w
		if cx < minX {
			minX = cx
		}
		if cx > maxX {
			maxX = cx
		}
		if cy < minY {
			minY = cy
		}
		if cy > maxY {
			maxY = cy
		}
		for _, d := range dirs {
			nx, ny := cx+d[0], cy+d[1]
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			ni := ny*w + nx
			if visited[ni] || bin.Pix[ny*bin.Stride+nx] < utils.Foreground/2 {
				continue
			}
			visited[ni] = true
			q.PushBack(ni)
		}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// mergeBoxes unions overlapping or near (within gap pixels) boxes until no
// pair can be merged.
func mergeBoxes(boxes []image.Rectangle, gap int) []image.Rectangle {
	out := append([]image.Rectangle(nil), boxes...)
	for {
		merged := false
		for i := 0; i < len(out) && !merged; i++ {
			for j := i + 1; j < len(out); j++ {
				a := out[i].Inset(-gap)
				if a.Overlaps(out[j]) {
					out[i] = out[i].Union(out[j])
					out = append(out[:j], out[j+1:]...)
					merged = true
					break
				}
			}
		}
		if !merged {
			return out
		}
	}
}

// blackenBorder clears a border of the given width just inside r, removing
// the box outline that survives inversion.
func blackenBorder(bin *image.Gray, r image.Rectangle, inset int) {
	if inset <= 0 {
		return
	}
	utils.FillGray(bin, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+inset), 0)
	utils.FillGray(bin, image.Rect(r.Min.X, r.Max.Y-inset, r.Max.X, r.Max.Y), 0)
	utils.FillGray(bin, image.Rect(r.Min.X, r.Min.Y, r.Min.X+inset, r.Max.Y), 0)
	utils.FillGray(bin, image.Rect(r.Max.X-inset, r.Min.Y, r.Max.X, r.Max.Y), 0)
}
