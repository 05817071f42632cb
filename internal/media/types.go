package media

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Static errors for media parameters.
var (
	// ErrInvalidDimensions is returned when the provided dimensions are not positive.
	ErrInvalidDimensions = errors.New("invalid dimensions: width and height must be positive")
	// ErrInvalidResolution is returned when a resolution string is not WIDTHxHEIGHT.
	ErrInvalidResolution = errors.New("invalid resolution: expected WIDTHxHEIGHT")
	// ErrInvalidQuality is returned when a prores quality is outside 0..3.
	ErrInvalidQuality = errors.New("invalid prores quality: must be 0-3")
)

// Resolution is an output size. With HeightOnly set only the height is
// enforced and the width follows the aspect ratio.
type Resolution struct {
	Width      int
	Height     int
	HeightOnly bool
}

// ParseResolution parses "1920x1080".
func ParseResolution(s string) (Resolution, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %q", ErrInvalidResolution, s)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return Resolution{}, fmt.Errorf("%w: %q", ErrInvalidResolution, s)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return Resolution{}, fmt.Errorf("%w: %q", ErrInvalidResolution, s)
	}
	r := Resolution{Width: width, Height: height}
	if err := r.Validate(); err != nil {
		return Resolution{}, err
	}
	return r, nil
}

// Validate checks that the enforced dimensions are positive.
func (r Resolution) Validate() error {
	if r.Height <= 0 || (!r.HeightOnly && r.Width <= 0) {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, r.Width, r.Height)
	}
	return nil
}

// String renders "WIDTHxHEIGHT", or "xHEIGHT" when only the height is enforced.
func (r Resolution) String() string {
	if r.HeightOnly {
		return fmt.Sprintf("x%d", r.Height)
	}
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// ProresQuality is the prores_ks profile index.
type ProresQuality int

// Prores profiles.
const (
	ProresProxy ProresQuality = iota
	ProresLow
	ProresStandard
	ProresHigh
)

var proresLabels = [...]string{"proxy", "low", "standard", "high"}

// Valid reports whether q is a known profile.
func (q ProresQuality) Valid() bool {
	return q >= ProresProxy && q <= ProresHigh
}

// Label returns the human name used in default output filenames.
func (q ProresQuality) Label() string {
	if !q.Valid() {
		return ""
	}
	return proresLabels[q]
}

// Category is the coarse file type an extension maps to.
type Category string

// Categories.
const (
	CategoryMovie    Category = "movie"
	CategorySequence Category = "sequence"
	CategoryImage    Category = "image"
)

// ExtMap maps a lowercase extension with its dot to a Category.
type ExtMap map[string]Category

// NewExtMap converts a configured string map.
func NewExtMap(m map[string]string) ExtMap {
	out := make(ExtMap, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = Category(v)
	}
	return out
}

// Lookup returns the category for the extension of path.
func (m ExtMap) Lookup(path string) (Category, string, bool) {
	ext := filepath.Ext(path)
	c, ok := m[strings.ToLower(ext)]
	return c, ext, ok
}

// ChangeExtension replaces the extension of path. The new extension may be
// given with or without its leading dot.
func ChangeExtension(path, ext string) string {
	return Stem(path) + "." + strings.TrimPrefix(ext, ".")
}

// Stem returns path without its extension.
func Stem(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}
