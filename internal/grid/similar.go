package grid

// Visually confusable character groups seen on simulated CDU renders. The
// recognizer frequently swaps these within a group; correction treats members
// of a group as equal.
var similarGroups = [][]rune{
	{'0', 'O'},
	{'1', 'I'},
	{'5', 'S'},
	{'8', 'B'},
	{':', '/'},
	{'*', '°', 'o'},
}

var similarSets = buildSimilarSets()

func buildSimilarSets() map[rune]map[rune]bool {
	m := make(map[rune]map[rune]bool)
	for _, group := range similarGroups {
		for _, a := range group {
			if m[a] == nil {
				m[a] = make(map[rune]bool)
			}
			for _, b := range group {
				m[a][b] = true
			}
		}
	}
	return m
}

// Similar reports whether two characters are equal or members of the same
// confusable group. Symmetric; Similar(a, a) is always true.
func Similar(a, b rune) bool {
	if a == b {
		return true
	}
	return similarSets[a][b]
}

// Remap substitutes ch with a member of its confusable group contained in the
// allowed charset. Returns ch unchanged when it is already allowed or no
// group member is.
func Remap(ch rune, allowed map[rune]bool) rune {
	if len(allowed) == 0 || allowed[ch] {
		return ch
	}
	for alt := range similarSets[ch] {
		if allowed[alt] {
			return alt
		}
	}
	return ch
}
