package stability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(rows ...string) []string { return rows }

func TestFirstFrameCommitsImmediately(t *testing.T) {
	f := New(DefaultConfig(), nil)
	out, committed := f.Push(page("ALT 10000", "HDG 275", "SPD 250"))

	assert.True(t, committed, "going from empty to populated is a major change")
	assert.Equal(t, page("ALT 10000", "HDG 275", "SPD 250"), out)
}

func TestMinorChangeDebounces(t *testing.T) {
	f := New(Config{RequiredFrames: 3}, nil)
	initial := page("ALT 10000", "HDG 275", "SPD 250")
	f.Push(initial)

	// One of three rows changed: below the bypass ratio.
	flicker := page("ALT 10000", "HDG 276", "SPD 250")
	out, committed := f.Push(flicker)
	assert.False(t, committed)
	assert.Equal(t, initial, out, "unstable input never leaks out")

	out, committed = f.Push(flicker)
	assert.False(t, committed)
	assert.Equal(t, initial, out)

	out, committed = f.Push(flicker)
	assert.True(t, committed, "third consecutive identical frame commits")
	assert.Equal(t, flicker, out)
}

func TestFlickerResetsCounter(t *testing.T) {
	f := New(Config{RequiredFrames: 2}, nil)
	initial := page("AAA", "BBB", "CCC")
	f.Push(initial)

	a := page("AAA", "BBX", "CCC")
	b := page("AAA", "BBY", "CCC")
	_, committed := f.Push(a)
	assert.False(t, committed)
	_, committed = f.Push(b)
	assert.False(t, committed, "alternating frames never accumulate")
	out, committed := f.Push(b)
	assert.True(t, committed)
	assert.Equal(t, b, out)
}

func TestMajorChangeBypassesDebounce(t *testing.T) {
	f := New(Config{RequiredFrames: 5}, nil)
	f.Push(page("AAA", "BBB", "CCC", "DDD"))

	// Page turn: all rows differ.
	next := page("111", "222", "333", "444")
	out, committed := f.Push(next)
	assert.True(t, committed, "over half the rows changed")
	assert.Equal(t, next, out)
}

func TestMajorChangeRatioConfigurable(t *testing.T) {
	f := New(Config{RequiredFrames: 5, MajorChangeRatio: 0.9}, nil)
	f.Push(page("AAA", "BBB", "CCC", "DDD"))

	// 3 of 4 rows differ: enough at the default ratio, not at 0.9.
	next := page("111", "222", "333", "DDD")
	_, committed := f.Push(next)
	assert.False(t, committed)
}

func TestRepeatedStableFrameDoesNotRecommit(t *testing.T) {
	f := New(Config{RequiredFrames: 2}, nil)
	stable := page("AAA", "BBB")
	f.Push(stable)

	out, committed := f.Push(stable)
	assert.False(t, committed, "re-confirming the stable state is not a new commit")
	assert.Equal(t, stable, out)
}

func TestStableAndReset(t *testing.T) {
	f := New(DefaultConfig(), nil)
	require.Nil(t, f.Stable())

	stable := page("AAA")
	f.Push(stable)
	assert.Equal(t, stable, f.Stable())

	f.Reset()
	assert.Nil(t, f.Stable())
}

func TestRowCountDifferenceCountsTowardMajorChange(t *testing.T) {
	assert.Equal(t, 3, diffRows(page("A", "B"), page("A", "X", "Y", "Z")))
	assert.Equal(t, 0, diffRows(page("A"), page("A")))
}
