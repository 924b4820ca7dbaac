package recognize

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Charset is the alphabet shared by both recognizer strategies, loaded from
// a text file with one character per line.
//
// The character classifier model emits one class per alphabet entry, in file
// order. The line CTC model prepends a blank class at index 0 and appends a
// space class after the last alphabet entry.
type Charset struct {
	Tokens []rune
	Index  map[rune]int
}

// LoadCharset reads an alphabet file. Leading/trailing whitespace is
// trimmed and a UTF-8 BOM on the first line is removed.
func LoadCharset(path string) (*Charset, error) {
	if path == "" {
		return nil, errors.New("charset path cannot be empty")
	}
	f, err := os.Open(path) //nolint:gosec // G304: opening a user-provided alphabet file is expected
	if err != nil {
		return nil, fmt.Errorf("failed to open charset: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing charset file: %v\n", err)
		}
	}()

	cs := &Charset{Index: make(map[rune]int)}
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) != 1 {
			return nil, fmt.Errorf("charset line %d: expected a single character, got %q", lineNum, line)
		}
		ch := runes[0]
		if _, ok := cs.Index[ch]; ok {
			continue
		}
		cs.Index[ch] = len(cs.Tokens)
		cs.Tokens = append(cs.Tokens, ch)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read charset: %w", err)
	}
	if len(cs.Tokens) == 0 {
		return nil, errors.New("charset file contains no characters")
	}
	return cs, nil
}

// Size returns the number of alphabet characters.
func (cs *Charset) Size() int { return len(cs.Tokens) }

// Rune returns the alphabet character for a classifier class index, or the
// Unicode replacement character when the index is out of range.
func (cs *Charset) Rune(class int) rune {
	if class < 0 || class >= len(cs.Tokens) {
		return '�'
	}
	return cs.Tokens[class]
}

// LineClasses returns the class count of the line CTC head: blank, the
// alphabet, and a trailing space class.
func (cs *Charset) LineClasses() int { return len(cs.Tokens) + 2 }

// LineRune maps a CTC class index to its character. ok is false for the
// blank class and out-of-range indices.
func (cs *Charset) LineRune(class int) (rune, bool) {
	switch {
	case class <= 0:
		return 0, false
	case class <= len(cs.Tokens):
		return cs.Tokens[class-1], true
	case class == len(cs.Tokens)+1:
		return ' ', true
	default:
		return 0, false
	}
}
