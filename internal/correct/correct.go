// Package correct post-processes recognized grids: deterministic context
// substitution rules first, then an optional reference-grid merge, then
// fuzzy overwrites from out-of-band ground-truth fragments.
package correct

import (
	"sort"

	"github.com/dcsflight/cduocr/internal/grid"
	"github.com/dcsflight/cduocr/internal/profile"
)

// ocrTrust is the confidence above which a recognized character is taken
// at face value during rendering and fragment comparison.
const ocrTrust = 0.5

// minFragmentLen is the shortest ground-truth fragment worth matching;
// shorter strings anchor too easily on coincidental cells.
const minFragmentLen = 3

// Corrector applies a profile's correction policy to recognized grids.
// Stateless; safe to reuse across frames.
type Corrector struct {
	p *profile.Profile
}

// New returns a corrector for the given profile.
func New(p *profile.Profile) *Corrector {
	return &Corrector{p: p}
}

// row is the mutable working form of one grid row.
type row struct {
	chars []rune
	confs []float64
}

// Correct turns a recognized grid into corrected row strings. ref is an
// optional rows×cols reference character grid (0 means no reference for
// that cell); fragments are optional ground-truth values with no known
// position. The input grid is not modified.
func (c *Corrector) Correct(g *grid.Grid, ref [][]rune, fragments []string) []string {
	rows := c.extract(g)
	c.applyContextRules(rows)
	c.mergeReference(rows, ref)
	c.applyFragments(rows, fragments)

	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = string(r.chars)
	}
	return out
}

// extract copies the grid into working rows, rendering untrusted cells as
// blanks up front.
func (c *Corrector) extract(g *grid.Grid) []row {
	rows := make([]row, c.p.Rows)
	for ri := range rows {
		rows[ri] = row{
			chars: make([]rune, c.p.Cols),
			confs: make([]float64, c.p.Cols),
		}
		for ci := 0; ci < c.p.Cols; ci++ {
			cell := g.At(ri, ci)
			rows[ri].confs[ci] = cell.Confidence
			if cell.Blank() {
				rows[ri].chars[ci] = ' '
			} else {
				rows[ri].chars[ci] = cell.Char
			}
		}
	}
	return rows
}

// applyContextRules rewrites whitespace-delimited words that match a rule
// pattern. Only characters below the rule's confidence threshold change,
// and at most one rule fires per word.
func (c *Corrector) applyContextRules(rows []row) {
	if len(c.p.ContextRules) == 0 {
		return
	}
	for ri := range rows {
		for _, span := range wordSpans(rows[ri].chars) {
			c.applyRuleToWord(&rows[ri], span.start, span.end)
		}
	}
}

type span struct{ start, end int }

// wordSpans returns half-open index ranges of non-space runs.
func wordSpans(chars []rune) []span {
	var spans []span
	start := -1
	for i, ch := range chars {
		if ch != ' ' && ch != 0 {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			spans = append(spans, span{start, i})
			start = -1
		}
	}
	if start >= 0 {
		spans = append(spans, span{start, len(chars)})
	}
	return spans
}

func (c *Corrector) applyRuleToWord(r *row, start, end int) {
	word := string(r.chars[start:end])
	for _, rule := range c.p.ContextRules {
		target := []rune(rule.Target)
		if len(target) != end-start {
			continue
		}
		if !matchesPattern(word, rule.Patterns) {
			continue
		}
		for i, ch := range target {
			if r.chars[start+i] == ch {
				continue
			}
			if r.confs[start+i] < rule.Threshold {
				r.chars[start+i] = ch
				r.confs[start+i] = 1
			}
		}
		return
	}
}

func matchesPattern(word string, patterns []string) bool {
	for _, p := range patterns {
		if word == p {
			return true
		}
	}
	return false
}

// mergeReference substitutes reference characters where recognition is not
// confident enough to stand on its own, then blanks out untrusted leftovers.
func (c *Corrector) mergeReference(rows []row, ref [][]rune) {
	for ri := range rows {
		for ci := range rows[ri].chars {
			refCh := refAt(ref, ri, ci)
			switch {
			case refCh != 0 && rows[ri].confs[ci] < c.p.ReferenceGate:
				rows[ri].chars[ci] = refCh
				rows[ri].confs[ci] = 1
			case rows[ri].confs[ci] > ocrTrust:
				// keep the recognized character
			default:
				rows[ri].chars[ci] = ' '
			}
		}
	}
}

func refAt(ref [][]rune, ri, ci int) rune {
	if ri >= len(ref) || ci >= len(ref[ri]) {
		return 0
	}
	ch := ref[ri][ci]
	if ch == ' ' {
		return 0
	}
	return ch
}

// applyFragments slides each ground-truth fragment across every row and
// overwrites the best-matching span when the match is strong enough.
// Longest fragments first, so specific values win over their substrings.
func (c *Corrector) applyFragments(rows []row, fragments []string) {
	if len(fragments) == 0 {
		return
	}
	ordered := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if len([]rune(f)) >= minFragmentLen {
			ordered = append(ordered, f)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return len([]rune(ordered[i])) > len([]rune(ordered[j]))
	})

	for _, frag := range ordered {
		fr := []rune(frag)
		bestRow, bestCol, bestScore := -1, -1, 0.0
		for ri := range rows {
			for ci := 0; ci+len(fr) <= len(rows[ri].chars); ci++ {
				score := windowScore(&rows[ri], ci, fr)
				if score > bestScore {
					bestRow, bestCol, bestScore = ri, ci, score
				}
			}
		}
		if bestRow < 0 || bestScore <= c.p.FragmentMatchThreshold {
			continue
		}
		r := &rows[bestRow]
		for i, ch := range fr {
			r.chars[bestCol+i] = ch
			r.confs[bestCol+i] = 1
		}
	}
}

// windowScore compares a fragment against the cells starting at col,
// counting only trusted cells and treating visually similar characters as
// equal. Returns the fraction of compared positions that match, 0 when
// nothing was comparable.
func windowScore(r *row, col int, frag []rune) float64 {
	compared, matched := 0, 0
	for i, ch := range frag {
		conf := r.confs[col+i]
		if conf <= ocrTrust {
			continue
		}
		compared++
		if grid.Similar(r.chars[col+i], ch) {
			matched++
		}
	}
	if compared == 0 {
		return 0
	}
	return float64(matched) / float64(compared)
}
