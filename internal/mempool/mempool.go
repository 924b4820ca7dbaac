// Package mempool pools []float32 tensor buffers so per-cell inference on
// the hot path does not allocate one slice per glyph.
package mempool

import (
	"sync"
)

// step is the bucket granularity; sizes round up to the next multiple so a
// handful of pools covers all tensor shapes in use.
const step = 1024

var pools sync.Map // bucket size (int) -> *sync.Pool

func bucket(n int) int {
	if n <= step {
		return step
	}
	return (n + step - 1) / step * step
}

func poolFor(size int) *sync.Pool {
	p, _ := pools.LoadOrStore(size, &sync.Pool{
		New: func() any { return make([]float32, size) },
	})
	return p.(*sync.Pool) //nolint:forcetypeassert // only *sync.Pool is ever stored
}

// GetFloat32 returns a []float32 of length n, possibly with larger
// capacity and stale contents. Return it via PutFloat32 when done.
func GetFloat32(n int) []float32 {
	size := bucket(n)
	buf, ok := poolFor(size).Get().([]float32)
	if !ok || cap(buf) < size {
		buf = make([]float32, size)
	}
	return buf[:n]
}

// PutFloat32 hands a buffer back to its pool. Nil is a no-op.
func PutFloat32(buf []float32) {
	if buf == nil {
		return
	}
	size := bucket(cap(buf))
	if cap(buf) < size {
		return
	}
	poolFor(size).Put(buf[:cap(buf)]) //nolint:staticcheck // slices pool fine here
}
