package capture

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcsflight/cduocr/internal/profile"
)

func TestScreenCapturerRejectsZeroRect(t *testing.T) {
	_, err := ScreenCapturer{}.Capture(profile.Rect{X: 0, Y: 0, W: 0, H: 40})
	assert.ErrorIs(t, err, ErrEmptyFrame)
}

func TestStaticCapturerCropsRegion(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 80))
	c := StaticCapturer{Image: img}

	out, err := c.Capture(profile.Rect{X: 10, Y: 10, W: 30, H: 20})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(10, 10, 40, 30), out.Bounds())
}

func TestStaticCapturerZeroRectReturnsWholeImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 80))
	out, err := StaticCapturer{Image: img}.Capture(profile.Rect{})
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), out.Bounds())
}

func TestStaticCapturerOutOfBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 80))
	_, err := StaticCapturer{Image: img}.Capture(profile.Rect{X: 500, Y: 500, W: 10, H: 10})
	assert.ErrorIs(t, err, ErrEmptyFrame)
}

func TestStaticCapturerNilImage(t *testing.T) {
	_, err := StaticCapturer{}.Capture(profile.Rect{W: 10, H: 10})
	assert.ErrorIs(t, err, ErrEmptyFrame)
}
