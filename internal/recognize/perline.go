package recognize

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/dcsflight/cduocr/internal/grid"
	"github.com/dcsflight/cduocr/internal/mempool"
	"github.com/dcsflight/cduocr/internal/onnx"
	"github.com/dcsflight/cduocr/internal/profile"
	"github.com/dcsflight/cduocr/internal/segment"
	"github.com/dcsflight/cduocr/internal/utils"
)

// lineChar is a decoded emission projected back to frame x coordinates.
type lineChar struct {
	ch   rune
	prob float64
	x1   int // inclusive
	x2   int // exclusive
}

// LineRecognizer feeds each row strip through a CTC sequence model and maps
// the decoded characters onto grid columns by position. One inference per
// row instead of one per cell.
type LineRecognizer struct {
	cfg     Config
	sess    *session
	charset *Charset
}

// NewLineRecognizer loads the alphabet and opens the sequence model.
func NewLineRecognizer(cfg Config) (*LineRecognizer, error) {
	charset, err := LoadCharset(cfg.CharsetPath)
	if err != nil {
		return nil, fmt.Errorf("load charset: %w", err)
	}
	if cfg.LineHeight <= 0 {
		cfg.LineHeight = DefaultConfig().LineHeight
	}
	sess, err := newSession(cfg.LineModelPath, cfg.NumThreads)
	if err != nil {
		return nil, fmt.Errorf("open line model: %w", err)
	}
	return &LineRecognizer{cfg: cfg, sess: sess, charset: charset}, nil
}

// IsLoaded reports whether the model session is ready.
func (r *LineRecognizer) IsLoaded() bool {
	return r != nil && r.sess != nil && r.sess.sess != nil
}

// Close releases the model session.
func (r *LineRecognizer) Close() error {
	if r != nil && r.sess != nil {
		r.sess.close()
	}
	return nil
}

// Recognize decodes each row strip and places the results into a grid.
func (r *LineRecognizer) Recognize(bin *image.Gray, inverted []image.Rectangle, p *profile.Profile) (*grid.Grid, error) {
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
		chars, err := r.decodeRow(bin, band, width)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", ri, err)
		}
		for i := range chars {
			chars[i].ch = grid.Remap(chars[i].ch, allowed)
		}
		chars = suppressDuplicates(chars, p.MinCharDistance)
		placeChars(g, ri, chars, cells, inverted)
	}
	return g, nil
}

// decodeRow runs the sequence model over one band and returns emissions in
// frame x coordinates.
func (r *LineRecognizer) decodeRow(bin *image.Gray, band grid.Band, width int) ([]lineChar, error) {
	strip := utils.CropGray(bin, image.Rect(bin.Bounds().Min.X, band.Y1, bin.Bounds().Min.X+width, band.Y2))
	h := r.cfg.LineHeight
	scaledW := width * h / max(band.Height(), 1)
	if scaledW < h {
		scaledW = h
	}
	resized := utils.ToGray(imaging.Resize(strip, scaledW, h, imaging.Lanczos))

	data := mempool.GetFloat32(scaledW * h)
	defer mempool.PutFloat32(data)
	fillGrayFloats(resized, data[:scaledW*h])
	tensor, err := onnx.NewGrayTensor(data[:scaledW*h], h, scaledW)
	if err != nil {
		return nil, err
	}
	out, shape, err := r.sess.run(tensor)
	if err != nil {
		return nil, err
	}

	classesFirst := classesFirstLayout(shape, r.charset.LineClasses())
	steps := decodeSteps(out, shape, classesFirst)
	if steps == nil {
		return nil, fmt.Errorf("unexpected output shape %v", shape)
	}
	decoded := collapseSteps(steps, 0)

	chars := make([]lineChar, 0, len(decoded))
	tDim := len(steps)
	for _, d := range decoded {
		ch, ok := r.charset.LineRune(d.class)
		if !ok || ch == ' ' {
			continue
		}
		chars = append(chars, lineChar{
			ch:   ch,
			prob: d.prob,
			x1:   d.t1 * width / tDim,
			x2:   (d.t2 + 1) * width / tDim,
		})
	}
	return chars, nil
}

// suppressDuplicates drops the weaker of two identical adjacent emissions
// closer than minDist pixels. CTC runs split by a single blank step often
// produce these ghost repeats.
func suppressDuplicates(chars []lineChar, minDist int) []lineChar {
	if minDist <= 0 || len(chars) < 2 {
		return chars
	}
	out := chars[:0]
	for _, c := range chars {
		if len(out) > 0 {
			prev := &out[len(out)-1]
			if prev.ch == c.ch && c.x1-prev.x2 < minDist {
				if c.prob > prev.prob {
					*prev = c
				}
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// placeChars assigns emissions to cells by maximum horizontal overlap. When
// two emissions land on the same cell, the higher-confidence one wins.
func placeChars(g *grid.Grid, row int, chars []lineChar, cells []image.Rectangle, inverted []image.Rectangle) {
	for ci, rect := range cells {
		g.Set(row, ci, grid.Cell{
			Char: ' ', Confidence: 1,
			X: rect.Min.X, Y: rect.Min.Y, W: rect.Dx(), H: rect.Dy(),
			Located:  true,
			Inverted: cellInverted(rect, inverted),
		})
	}
	for _, c := range chars {
		ci := bestCell(c, cells)
		if ci < 0 {
			continue
		}
		existing := g.At(row, ci)
		if !existing.Blank() && existing.Confidence >= c.prob {
			continue
		}
		existing.Char = c.ch
		existing.Confidence = c.prob
		g.Set(row, ci, existing)
	}
}

// bestCell picks the cell with the most horizontal overlap, falling back to
// the cell nearest the emission center.
func bestCell(c lineChar, cells []image.Rectangle) int {
	best, bestOverlap := -1, 0
	for i, rect := range cells {
		lo := max(c.x1, rect.Min.X)
		hi := min(c.x2, rect.Max.X)
		if hi-lo > bestOverlap {
			bestOverlap = hi - lo
			best = i
		}
	}
	if best >= 0 {
		return best
	}
	center := (c.x1 + c.x2) / 2
	bestDist := -1
	for i, rect := range cells {
		d := center - (rect.Min.X+rect.Max.X)/2
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}
