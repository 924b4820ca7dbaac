package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarSymmetric(t *testing.T) {
	pairs := []struct{ a, b rune }{
		{'0', 'O'}, {'1', 'I'}, {'5', 'S'}, {'8', 'B'}, {':', '/'},
		{'*', '°'}, {'*', 'o'}, {'°', 'o'},
	}
	for _, p := range pairs {
		assert.True(t, Similar(p.a, p.b), "Similar(%q,%q)", p.a, p.b)
		assert.True(t, Similar(p.b, p.a), "Similar(%q,%q)", p.b, p.a)
	}
}

func TestSimilarReflexive(t *testing.T) {
	for _, r := range []rune{'A', '0', 'O', ' ', '°', 'x'} {
		assert.True(t, Similar(r, r))
	}
}

func TestSimilarRejectsUnrelated(t *testing.T) {
	assert.False(t, Similar('0', '1'))
	assert.False(t, Similar('A', 'B'))
	assert.False(t, Similar('S', 'B'))
}

func TestRemap(t *testing.T) {
	allowed := map[rune]bool{'0': true, '1': true, 'A': true}
	assert.Equal(t, '0', Remap('O', allowed))
	assert.Equal(t, '1', Remap('I', allowed))
	assert.Equal(t, 'A', Remap('A', allowed)) // already allowed
	assert.Equal(t, 'Z', Remap('Z', allowed)) // no group member allowed
	assert.Equal(t, 'O', Remap('O', nil))     // empty charset keeps input
}
