// Package onnx wraps the ONNX Runtime plumbing shared by both recognizer
// strategies: tensor preparation for single-channel display crops and
// shared-library discovery.
package onnx

import (
	"errors"
	"fmt"
	"image"
)

// Tensor is a float32 tensor prepared for ONNX input, NCHW row-major.
type Tensor struct {
	Data  []float32
	Shape []int64
}

// NewGrayTensor builds a single-image single-channel tensor [1, 1, H, W].
func NewGrayTensor(data []float32, h, w int) (Tensor, error) {
	if data == nil {
		return Tensor{}, errors.New("nil data")
	}
	if len(data) != h*w {
		return Tensor{}, fmt.Errorf("unexpected data length: got %d, want %d", len(data), h*w)
	}
	return Tensor{Data: data, Shape: []int64{1, 1, int64(h), int64(w)}}, nil
}

// GrayToFloats normalizes an 8-bit gray image to [0, 1] floats in row-major
// order, sized for NewGrayTensor.
func GrayToFloats(g *image.Gray) []float32 {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]float32, w*h)
	for y := 0; y < h; y++ {
		off := g.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			out[y*w+x] = float32(g.Pix[off+x]) / 255.0
		}
	}
	return out
}

// ValidateNCHW ensures a shape is [N, C, H, W] with positive dimensions.
func ValidateNCHW(shape []int64) error {
	if len(shape) != 4 {
		return fmt.Errorf("shape rank %d != 4", len(shape))
	}
	for i, v := range shape {
		if v <= 0 {
			return fmt.Errorf("dimension %d must be > 0, got %d", i, v)
		}
	}
	return nil
}

// Verify checks data length against the tensor's NCHW shape.
func Verify(t Tensor) error {
	if err := ValidateNCHW(t.Shape); err != nil {
		return err
	}
	expected := int(t.Shape[0] * t.Shape[1] * t.Shape[2] * t.Shape[3])
	if len(t.Data) != expected {
		return fmt.Errorf("tensor data length %d != expected %d for shape %v", len(t.Data), expected, t.Shape)
	}
	return nil
}
