// Package indication turns out-of-band telemetry text blobs into reference
// grids and ground-truth fragments for the corrector. Malformed input
// degrades to empty results; it never fails the pipeline.
package indication

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dcsflight/cduocr/internal/profile"
)

var (
	bracketEntryRe = regexp.MustCompile(`\[(\d+)\]\s*=\s*"([^"]*)"`)
	bracketIDRe    = regexp.MustCompile(`\[(\d+)\]`)
	blockSepRe     = regexp.MustCompile(`(?m)^-{10,}\s*$`)
	guidRe         = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

// Parsed is the projection of one telemetry blob onto a display profile.
type Parsed struct {
	// Reference is a rows×cols character grid; 0 marks positions with no
	// reference data.
	Reference [][]rune

	// Fragments are all distinct field values, unassigned to positions.
	Fragments []string
}

// entry is one key/value pair from the blob, keyed by numeric id or by
// display name.
type entry struct {
	id    int // -1 when name-keyed
	name  string
	value string
}

// Parse extracts field values from a blob and projects them onto the
// profile's grid via its field map. Unrecognized fields still contribute
// fragments.
func Parse(blob string, p *profile.Profile) Parsed {
	entries := parseEntries(norm.NFC.String(blob))
	ref := make([][]rune, p.Rows)
	for i := range ref {
		ref[i] = make([]rune, p.Cols)
	}
	for _, e := range entries {
		if fr, ok := lookupField(p.FieldMap, e); ok {
			place(ref, fr, e.value)
		}
	}
	return Parsed{Reference: ref, Fragments: collectValues(entries)}
}

// ExtractValues returns the distinct non-empty, non-GUID field values of a
// blob, in first-seen order.
func ExtractValues(blob string) []string {
	return collectValues(parseEntries(norm.NFC.String(blob)))
}

// parseEntries tries the bracket-id grammar first, then the dash-delimited
// block grammar.
func parseEntries(blob string) []entry {
	if ms := bracketEntryRe.FindAllStringSubmatch(blob, -1); len(ms) > 0 {
		entries := make([]entry, 0, len(ms))
		for _, m := range ms {
			id, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			entries = append(entries, entry{id: id, value: m[2]})
		}
		return entries
	}
	return parseBlocks(blob)
}

// parseBlocks handles the dash-delimited form: blocks separated by lines
// of ten or more dashes, each a key line and an optional value line.
func parseBlocks(blob string) []entry {
	if !blockSepRe.MatchString(blob) {
		return nil
	}
	var entries []entry
	for _, block := range blockSepRe.Split(blob, -1) {
		var lines []string
		for _, line := range strings.Split(block, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) == 0 {
			continue
		}
		key := lines[0]
		value := ""
		if len(lines) > 1 {
			value = strings.Trim(lines[1], `"`)
		}
		if m := bracketIDRe.FindStringSubmatch(key); m != nil {
			id, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			entries = append(entries, entry{id: id, value: value})
			continue
		}
		entries = append(entries, entry{id: -1, name: key, value: value})
	}
	return entries
}

// lookupField resolves an entry against the profile's field map: exact id
// match, or case-insensitive substring match on names in either direction.
func lookupField(fields []profile.FieldRef, e entry) (profile.FieldRef, bool) {
	for _, fr := range fields {
		if e.id >= 0 {
			if fr.ID == e.id {
				return fr, true
			}
			continue
		}
		if fr.Name == "" || e.name == "" {
			continue
		}
		a := strings.ToLower(fr.Name)
		b := strings.ToLower(e.name)
		if strings.Contains(a, b) || strings.Contains(b, a) {
			return fr, true
		}
	}
	return profile.FieldRef{}, false
}

// place writes a value into the reference grid starting at the field's
// position, silently dropping characters past the grid edge.
func place(ref [][]rune, fr profile.FieldRef, value string) {
	if fr.Row < 0 || fr.Row >= len(ref) {
		return
	}
	row := ref[fr.Row]
	for i, ch := range []rune(value) {
		col := fr.Col + i
		if col < 0 || col >= len(row) {
			continue
		}
		row[col] = ch
	}
}

// collectValues deduplicates non-empty, non-GUID values in order.
func collectValues(entries []entry) []string {
	seen := make(map[string]bool, len(entries))
	var out []string
	for _, e := range entries {
		v := strings.TrimSpace(e.value)
		if v == "" || guidRe.MatchString(v) || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
