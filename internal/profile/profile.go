// Package profile defines the immutable per-display configuration consumed
// by the reading pipeline: capture rectangle, grid shape, preprocessing and
// segmentation parameters, correction rules and telemetry field mappings.
package profile

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Segmentation modes.
const (
	SegmentStatic   = "static"   // uniform row bands
	SegmentAnchored = "anchored" // bands grown around known row centers
	SegmentFree     = "free"     // bands derived from ink-density projection
)

// Recognizer strategies.
const (
	RecognizeChar = "char" // isolated glyph classifier per cell
	RecognizeLine = "line" // CTC sequence classifier per row
)

// Defaults for optional fields.
const (
	DefaultThresholdValue    = 84
	DefaultMinRowHeight      = 32
	DefaultMaxRowHeight      = 60
	DefaultRowGap            = 2
	DefaultYOffset           = 10
	DefaultFragmentThreshold = 0.6
	DefaultReferenceGate     = 0.9
)

// Rect is a capture rectangle in screen coordinates.
type Rect struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// ContextRule is a whole-word substitution rule. A word matching one of the
// rule's patterns is rewritten to Target, but only in positions whose
// recognition confidence falls below Threshold.
type ContextRule struct {
	Target    string   `yaml:"target"`
	Patterns  []string `yaml:"patterns"`
	Threshold float64  `yaml:"threshold"`
}

// FieldRef maps a telemetry indication field (by numeric id or display name)
// to a grid position.
type FieldRef struct {
	ID   int    `yaml:"id,omitempty"`
	Name string `yaml:"name,omitempty"`
	Row  int    `yaml:"row"`
	Col  int    `yaml:"col"`
}

// Profile is the complete configuration for one display instance. Loaded
// once; never mutated while the pipeline runs.
type Profile struct {
	Name    string `yaml:"name"`
	Capture Rect   `yaml:"capture"`
	Rows    int    `yaml:"rows"`
	Cols    int    `yaml:"cols"`
	Charset string `yaml:"charset,omitempty"`

	// Preprocessing.
	Invert           bool    `yaml:"invert"`
	GlobalThreshold  bool    `yaml:"global_threshold"`
	ThresholdValue   uint8   `yaml:"threshold_value"`
	GreenChannelOnly bool    `yaml:"green_channel_only"`
	Sharpness        float64 `yaml:"sharpness"`
	Contrast         float64 `yaml:"contrast"`
	Dilation         int     `yaml:"dilation"`

	// Segmentation.
	SegmentationMode string `yaml:"segmentation_mode"`
	RowCenters       []int  `yaml:"row_centers,omitempty"`
	MinRowHeight     int    `yaml:"min_row_height"`
	MaxRowHeight     int    `yaml:"max_row_height"`
	RowGap           int    `yaml:"row_gap"`
	YOffset          int    `yaml:"y_offset"`

	// Recognition and correction.
	RecognizerMode         string        `yaml:"recognizer_mode"`
	MinCharDistance        int           `yaml:"min_char_distance,omitempty"`
	ContextRules           []ContextRule `yaml:"context_rules,omitempty"`
	FieldMap               []FieldRef    `yaml:"field_map,omitempty"`
	FragmentMatchThreshold float64       `yaml:"fragment_match_threshold"`
	ReferenceGate          float64       `yaml:"reference_gate"`
}

// Default returns a profile with documented defaults for a rows×cols display.
func Default(rows, cols int) *Profile {
	return &Profile{
		Name:                   "default",
		Rows:                   rows,
		Cols:                   cols,
		ThresholdValue:         DefaultThresholdValue,
		GlobalThreshold:        true,
		Contrast:               1.0,
		SegmentationMode:       SegmentFree,
		MinRowHeight:           DefaultMinRowHeight,
		MaxRowHeight:           DefaultMaxRowHeight,
		RowGap:                 DefaultRowGap,
		YOffset:                DefaultYOffset,
		RecognizerMode:         RecognizeChar,
		FragmentMatchThreshold: DefaultFragmentThreshold,
		ReferenceGate:          DefaultReferenceGate,
	}
}

// applyDefaults fills zero-valued optional fields with documented defaults.
func (p *Profile) applyDefaults() {
	if p.ThresholdValue == 0 {
		p.ThresholdValue = DefaultThresholdValue
	}
	if p.Contrast == 0 {
		p.Contrast = 1.0
	}
	if p.SegmentationMode == "" {
		p.SegmentationMode = SegmentFree
	}
	if p.MinRowHeight == 0 {
		p.MinRowHeight = DefaultMinRowHeight
	}
	if p.MaxRowHeight == 0 {
		p.MaxRowHeight = DefaultMaxRowHeight
	}
	if p.RowGap == 0 {
		p.RowGap = DefaultRowGap
	}
	if p.YOffset == 0 {
		p.YOffset = DefaultYOffset
	}
	if p.RecognizerMode == "" {
		p.RecognizerMode = RecognizeChar
	}
	if p.FragmentMatchThreshold == 0 {
		p.FragmentMatchThreshold = DefaultFragmentThreshold
	}
	if p.ReferenceGate == 0 {
		p.ReferenceGate = DefaultReferenceGate
	}
}

// Validate checks the profile for internal consistency.
func (p *Profile) Validate() error {
	if p.Rows <= 0 || p.Cols <= 0 {
		return fmt.Errorf("grid shape must be positive, got %dx%d", p.Rows, p.Cols)
	}
	switch p.SegmentationMode {
	case SegmentStatic, SegmentFree:
	case SegmentAnchored:
		if len(p.RowCenters) != p.Rows {
			return fmt.Errorf("anchored segmentation needs %d row centers, got %d", p.Rows, len(p.RowCenters))
		}
	default:
		return fmt.Errorf("unknown segmentation mode %q", p.SegmentationMode)
	}
	switch p.RecognizerMode {
	case RecognizeChar, RecognizeLine:
	default:
		return fmt.Errorf("unknown recognizer mode %q", p.RecognizerMode)
	}
	if p.MinRowHeight <= 0 || p.MaxRowHeight < p.MinRowHeight {
		return fmt.Errorf("invalid row height bounds [%d, %d]", p.MinRowHeight, p.MaxRowHeight)
	}
	if p.Contrast <= 0 {
		return errors.New("contrast must be positive")
	}
	if p.Dilation < 0 {
		return errors.New("dilation must be non-negative")
	}
	if p.FragmentMatchThreshold < 0 || p.FragmentMatchThreshold > 1 {
		return fmt.Errorf("fragment match threshold %.3f outside [0,1]", p.FragmentMatchThreshold)
	}
	for i, r := range p.ContextRules {
		if r.Target == "" || len(r.Patterns) == 0 {
			return fmt.Errorf("context rule %d needs a target and at least one pattern", i)
		}
	}
	return nil
}

// AllowedChars returns the charset as a lookup set; nil when unrestricted.
func (p *Profile) AllowedChars() map[rune]bool {
	if p.Charset == "" {
		return nil
	}
	m := make(map[rune]bool, len(p.Charset))
	for _, r := range p.Charset {
		m[r] = true
	}
	return m
}

// Load reads and validates a profile YAML document.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided profile path is expected
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	p.applyDefaults()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", path, err)
	}
	return &p, nil
}

// Save writes the profile as a YAML document.
func (p *Profile) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}
