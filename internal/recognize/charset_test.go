package recognize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCharset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "alphabet.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCharset(t *testing.T) {
	path := writeCharset(t, "0\n1\nA\nB\n")
	cs, err := LoadCharset(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cs.Size())
	assert.Equal(t, '0', cs.Rune(0))
	assert.Equal(t, 'A', cs.Rune(2))
	assert.Equal(t, 2, cs.Index['A'])
}

func TestLoadCharsetSkipsBlankLinesAndBOM(t *testing.T) {
	path := writeCharset(t, "\uFEFFX\n\nY\n")
	cs, err := LoadCharset(path)
	require.NoError(t, err)

	assert.Equal(t, []rune{'X', 'Y'}, cs.Tokens)
}

func TestLoadCharsetKeepsFirstDuplicate(t *testing.T) {
	path := writeCharset(t, "A\nB\nA\n")
	cs, err := LoadCharset(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cs.Size())
	assert.Equal(t, 0, cs.Index['A'])
}

func TestLoadCharsetErrors(t *testing.T) {
	_, err := LoadCharset("")
	assert.Error(t, err)

	_, err = LoadCharset(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)

	_, err = LoadCharset(writeCharset(t, "\n\n"))
	assert.Error(t, err, "empty alphabet should be rejected")

	_, err = LoadCharset(writeCharset(t, "AB\n"))
	assert.Error(t, err, "multi-character lines should be rejected")
}

func TestCharsetRuneOutOfRange(t *testing.T) {
	cs, err := LoadCharset(writeCharset(t, "A\n"))
	require.NoError(t, err)

	assert.Equal(t, '�', cs.Rune(-1))
	assert.Equal(t, '�', cs.Rune(1))
}

func TestCharsetLineRune(t *testing.T) {
	cs, err := LoadCharset(writeCharset(t, "0\n1\nA\nB\n"))
	require.NoError(t, err)

	assert.Equal(t, 6, cs.LineClasses())

	_, ok := cs.LineRune(0)
	assert.False(t, ok, "class 0 is the CTC blank")

	ch, ok := cs.LineRune(1)
	require.True(t, ok)
	assert.Equal(t, '0', ch)

	ch, ok = cs.LineRune(4)
	require.True(t, ok)
	assert.Equal(t, 'B', ch)

	ch, ok = cs.LineRune(5)
	require.True(t, ok)
	assert.Equal(t, ' ', ch)

	_, ok = cs.LineRune(6)
	assert.False(t, ok)
}
