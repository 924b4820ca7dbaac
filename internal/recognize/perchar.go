package recognize

import (
	"fmt"
	"image"

	"github.com/dcsflight/cduocr/internal/grid"
	"github.com/dcsflight/cduocr/internal/mempool"
	"github.com/dcsflight/cduocr/internal/onnx"
	"github.com/dcsflight/cduocr/internal/profile"
	"github.com/dcsflight/cduocr/internal/segment"
)

// maxAlignShift bounds the horizontal alignment search per row, in pixels.
const maxAlignShift = 3

// CharRecognizer classifies each cell glyph independently. Slower than the
// line strategy but robust to uneven cell spacing.
type CharRecognizer struct {
	cfg     Config
	sess    *session
	charset *Charset
}

// NewCharRecognizer loads the alphabet and opens the glyph classifier model.
func NewCharRecognizer(cfg Config) (*CharRecognizer, error) {
	charset, err := LoadCharset(cfg.CharsetPath)
	if err != nil {
		return nil, fmt.Errorf("load charset: %w", err)
	}
	if cfg.CharInputSize <= 0 {
		cfg.CharInputSize = DefaultConfig().CharInputSize
	}
	sess, err := newSession(cfg.CharModelPath, cfg.NumThreads)
	if err != nil {
		return nil, fmt.Errorf("open char model: %w", err)
	}
	return &CharRecognizer{cfg: cfg, sess: sess, charset: charset}, nil
}

// IsLoaded reports whether the model session is ready.
func (r *CharRecognizer) IsLoaded() bool {
	return r != nil && r.sess != nil && r.sess.sess != nil
}

// Close releases the model session.
func (r *CharRecognizer) Close() error {
	if r != nil && r.sess != nil {
		r.sess.close()
	}
	return nil
}

// Recognize segments the frame into rows and cells and classifies each
// cell's glyph.
func (r *CharRecognizer) Recognize(bin *image.Gray, inverted []image.Rectangle, p *profile.Profile) (*grid.Grid, error) {
	if !r.IsLoaded() {
		return nil, ErrModelNotLoaded
	}
	if bin == nil {
		return nil, fmt.Errorf("nil frame")
	}
	bands := segment.Rows(bin, p.Rows, segment.ConfigFromProfile(p))
	if bands == nil {
		return nil, fmt.Errorf("frame %dx%d too small for %d rows", bin.Bounds().Dx(), bin.Bounds().Dy(), p.Rows)
	}
	allowed := p.AllowedChars()
	width := bin.Bounds().Dx()

	g := grid.New(p.Rows, p.Cols)
	for ri, band := range bands {
		cells := segment.Cells(bin, band, p.Cols)
		if cells == nil {
			return nil, fmt.Errorf("frame width %d too narrow for %d columns", width, p.Cols)
		}
		shift := segment.BestShift(bin, band, p.Cols, maxAlignShift)
		cells = segment.RefineCells(cells, shift, width)
		for ci, rect := range cells {
			cell, err := r.classifyCell(bin, rect, inverted, allowed)
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", ri, ci, err)
			}
			g.Set(ri, ci, cell)
		}
	}
	return g, nil
}

func (r *CharRecognizer) classifyCell(bin *image.Gray, rect image.Rectangle, inverted []image.Rectangle, allowed map[rune]bool) (grid.Cell, error) {
	cell := grid.Cell{
		X: rect.Min.X, Y: rect.Min.Y, W: rect.Dx(), H: rect.Dy(),
		Located:  true,
		Inverted: cellInverted(rect, inverted),
	}
	glyph := prepareGlyph(bin, rect, r.cfg.CharInputSize)
	if glyph == nil {
		cell.Char = ' '
		cell.Confidence = 1
		return cell, nil
	}

	size := r.cfg.CharInputSize
	data := mempool.GetFloat32(size * size)
	defer mempool.PutFloat32(data)
	fillGrayFloats(glyph, data[:size*size])

	tensor, err := onnx.NewGrayTensor(data[:size*size], size, size)
	if err != nil {
		return cell, err
	}
	out, _, err := r.sess.run(tensor)
	if err != nil {
		return cell, err
	}
	idx, _ := argmax(out)
	cell.Char = grid.Remap(r.charset.Rune(idx), allowed)
	cell.Confidence = softmaxProbOfIndex(out, idx)
	return cell, nil
}

// fillGrayFloats writes the normalized pixel values of g into dst, which
// must hold exactly width*height elements.
func fillGrayFloats(g *image.Gray, dst []float32) {
	b := g.Bounds()
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if i >= len(dst) {
				return
			}
			dst[i] = float32(g.GrayAt(x, y).Y) / 255.0
			i++
		}
	}
}
