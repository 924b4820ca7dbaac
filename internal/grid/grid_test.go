package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewGridShape(t *testing.T) {
	g := New(3, 10)
	assert.Equal(t, 3, g.RowCount)
	assert.Equal(t, 10, g.ColCount)
	assert.Len(t, g.Cells, 3)
	for _, row := range g.Cells {
		assert.Len(t, row, 10)
	}
	assert.True(t, g.Empty())
}

func TestNewGridNegativeDims(t *testing.T) {
	g := New(-1, -5)
	assert.Equal(t, 0, g.RowCount)
	assert.Equal(t, 0, g.ColCount)
	assert.True(t, g.Empty())
}

func TestGridSetAt(t *testing.T) {
	g := New(2, 4)
	g.Set(0, 1, Cell{Char: 'A', Confidence: 0.9})
	assert.Equal(t, 'A', g.At(0, 1).Char)
	assert.InDelta(t, 0.9, g.At(0, 1).Confidence, 1e-9)

	// Out-of-bounds writes are dropped, reads return zero cells.
	g.Set(5, 0, Cell{Char: 'X'})
	g.Set(0, -1, Cell{Char: 'X'})
	assert.Equal(t, Cell{}, g.At(5, 0))
	assert.Equal(t, Cell{}, g.At(0, -1))
}

func TestGridSetCharPreservesGeometry(t *testing.T) {
	g := New(1, 2)
	g.Set(0, 0, Cell{Char: '?', X: 10, Y: 20, W: 8, H: 12, Located: true})
	g.SetChar(0, 0, 'Z', 0.75)
	c := g.At(0, 0)
	assert.Equal(t, 'Z', c.Char)
	assert.InDelta(t, 0.75, c.Confidence, 1e-9)
	assert.Equal(t, 10, c.X)
	assert.True(t, c.Located)
}

func TestGridRowRendering(t *testing.T) {
	g := New(2, 5)
	g.SetChar(0, 0, 'H', 1)
	g.SetChar(0, 1, 'D', 1)
	g.SetChar(0, 2, 'G', 1)
	g.SetChar(1, 4, '7', 1)
	assert.Equal(t, "HDG  ", g.Row(0))
	assert.Equal(t, "    7", g.Row(1))
	assert.Equal(t, []string{"HDG  ", "    7"}, g.Rows())
	assert.Equal(t, "", g.Row(9))
}

func TestCellBlankAndCenter(t *testing.T) {
	assert.True(t, Cell{}.Blank())
	assert.True(t, Cell{Char: ' '}.Blank())
	assert.False(t, Cell{Char: '0'}.Blank())

	x, y := Cell{X: 10, Y: 4, W: 6, H: 8}.Center()
	assert.Equal(t, 13, x)
	assert.Equal(t, 8, y)
}

func TestBandHeightOverlap(t *testing.T) {
	a := Band{Y1: 0, Y2: 10}
	b := Band{Y1: 10, Y2: 20}
	c := Band{Y1: 5, Y2: 15}
	assert.Equal(t, 10, a.Height())
	assert.False(t, a.Overlaps(b)) // half-open intervals touch without overlap
	assert.True(t, a.Overlaps(c))
	assert.True(t, c.Overlaps(a))
}
