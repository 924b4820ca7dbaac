// Package capture produces raw pixel buffers for rectangular screen
// regions. Every call returns a freshly owned buffer; frames are never
// shared between pipeline runs.
package capture

import (
	"errors"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"

	"github.com/dcsflight/cduocr/internal/profile"
)

// ErrEmptyFrame signals a capture that produced no usable pixels. Callers
// skip the cycle and retry on the next tick.
var ErrEmptyFrame = errors.New("captured frame is empty")

// Capturer produces one frame per call for a screen rectangle.
type Capturer interface {
	Capture(r profile.Rect) (image.Image, error)
}

// ScreenCapturer grabs pixels from the live display.
type ScreenCapturer struct{}

// Capture reads the given screen rectangle.
func (ScreenCapturer) Capture(r profile.Rect) (image.Image, error) {
	if r.W <= 0 || r.H <= 0 {
		return nil, fmt.Errorf("capture rectangle %dx%d at (%d,%d): %w", r.W, r.H, r.X, r.Y, ErrEmptyFrame)
	}
	img, err := screenshot.Capture(r.X, r.Y, r.W, r.H)
	if err != nil {
		return nil, fmt.Errorf("screen capture failed: %w", err)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyFrame
	}
	return img, nil
}

// StaticCapturer replays a fixed image, cropped to the requested
// rectangle. Used for file-based runs and tests.
type StaticCapturer struct {
	Image image.Image
}

// Capture returns the configured image's intersection with the rectangle.
// A zero rectangle returns the whole image.
func (c StaticCapturer) Capture(r profile.Rect) (image.Image, error) {
	if c.Image == nil {
		return nil, ErrEmptyFrame
	}
	if r.W <= 0 || r.H <= 0 {
		return c.Image, nil
	}
	want := image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
	region := want.Intersect(c.Image.Bounds())
	if region.Empty() {
		return nil, fmt.Errorf("rectangle %v outside image bounds %v: %w", want, c.Image.Bounds(), ErrEmptyFrame)
	}
	type subImager interface {
		SubImage(image.Rectangle) image.Image
	}
	if s, ok := c.Image.(subImager); ok {
		return s.SubImage(region), nil
	}
	return c.Image, nil
}
