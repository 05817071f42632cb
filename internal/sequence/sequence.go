// Package sequence parses frame sequence patterns and resolves the frames
// of a sequence on disk.
//
// A pattern names a family of files that share a prefix and extension and
// differ by a zero-padded frame number, for example:
//
//	/shots/sh010/comp/sh010_comp.*.exr
//	/shots/sh010/comp/sh010_comp.####.exr
//	/shots/sh010/comp/sh010_comp.%04d.exr 1001-1100
//
// A trailing space-separated frame range is optional.
package sequence

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// DefaultPadding is used when no padding can be derived from the pattern or disk.
const DefaultPadding = 4

// ErrInvalidPattern is returned when a path does not follow the sequence grammar.
var ErrInvalidPattern = errors.New("invalid sequence pattern")

var (
	patternRe = regexp.MustCompile(`^(.*?)(\*|#+|%0?(\d*)d)(\.[A-Za-z0-9]{2,5})$`)
	rangeRe   = regexp.MustCompile(`^(\d+)(?:-(\d+))?$`)
	// frameRe finds the frame number in a concrete filename: a run of three
	// or more digits right before a short extension.
	frameRe = regexp.MustCompile(`(\d{3,})\.(\w{2,4})$`)
)

// Range is an inclusive frame range.
type Range struct {
	Start int
	End   int
}

// Contains reports whether frame lies within the range.
func (r Range) Contains(frame int) bool {
	return frame >= r.Start && frame <= r.End
}

func (r Range) String() string {
	if r.Start == r.End {
		return strconv.Itoa(r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Sequence is a parsed sequence pattern.
type Sequence struct {
	// Dir is the directory holding the frames.
	Dir string
	// Base is the static filename prefix before the frame token.
	Base string
	// Token is the frame token as written: "*", "####" or "%04d".
	Token string
	// Ext is the extension including the leading dot.
	Ext string
	// Padding is the frame number width. Always positive.
	Padding int
	// StartFrame is the first frame, from the range or from disk.
	StartFrame int
	// Range is the explicit frame range, nil when none was given.
	Range *Range
}

type options struct {
	padding        int
	defaultPadding int
}

// Option configures Parse.
type Option func(*options)

// WithPadding forces the padding regardless of the pattern token.
func WithPadding(n int) Option {
	return func(o *options) {
		o.padding = n
	}
}

// WithDefaultPadding sets the padding used when neither the token nor the
// files on disk determine one.
func WithDefaultPadding(n int) Option {
	return func(o *options) {
		o.defaultPadding = n
	}
}

// Parse parses a sequence pattern.
//
// The returned Sequence is never nil. On error it holds whatever could be
// derived from the path, so callers running in best-effort mode can continue
// with it; the error wraps ErrInvalidPattern.
func Parse(pattern string, opts ...Option) (*Sequence, error) {
	o := options{defaultPadding: DefaultPadding}
	for _, opt := range opts {
		opt(&o)
	}
	if o.defaultPadding <= 0 {
		o.defaultPadding = DefaultPadding
	}

	path, frameRange := SplitRange(strings.TrimSpace(pattern))
	path = Normalize(path)

	seq := &Sequence{
		Dir:     filepath.Dir(path),
		Range:   frameRange,
		Padding: o.defaultPadding,
	}
	name := filepath.Base(path)

	m := patternRe.FindStringSubmatch(name)
	if m == nil || path == "." {
		seq.Ext = filepath.Ext(name)
		seq.Base = strings.TrimSuffix(name, seq.Ext)
		if o.padding > 0 {
			seq.Padding = o.padding
		}
		return seq, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}

	seq.Base, seq.Token, seq.Ext = m[1], m[2], m[4]

	frames := seq.scan()
	width, _ := strconv.Atoi(m[3])

	switch {
	case o.padding > 0:
		seq.Padding = o.padding
	case strings.HasPrefix(seq.Token, "#"):
		seq.Padding = len(seq.Token)
	case width > 0:
		seq.Padding = width
	case len(frames) > 0:
		seq.Padding = len(frames[0].digits)
	}

	switch {
	case frameRange != nil:
		seq.StartFrame = frameRange.Start
	case len(frames) > 0:
		seq.StartFrame = frames[0].number
		for _, f := range frames[1:] {
			if f.number < seq.StartFrame {
				seq.StartFrame = f.number
			}
		}
	}

	return seq, nil
}

// IsPattern reports whether path has a frame token, ignoring any trailing
// frame range. It does not touch the filesystem.
func IsPattern(path string) bool {
	p, _ := SplitRange(strings.TrimSpace(path))
	return patternRe.MatchString(filepath.Base(Normalize(p)))
}

// Normalize converts separators to the platform form and cleans the path.
func Normalize(path string) string {
	if path == "" {
		return path
	}
	return filepath.Clean(filepath.FromSlash(path))
}

// SplitRange splits a trailing " START-END" or " FRAME" token off pattern.
// A trailing word that is not a frame range stays part of the path.
func SplitRange(pattern string) (string, *Range) {
	i := strings.LastIndex(pattern, " ")
	if i < 0 {
		return pattern, nil
	}
	m := rangeRe.FindStringSubmatch(pattern[i+1:])
	if m == nil {
		return pattern, nil
	}
	start, err := strconv.Atoi(m[1])
	if err != nil {
		return pattern, nil
	}
	end := start
	if m[2] != "" {
		if end, err = strconv.Atoi(m[2]); err != nil {
			return pattern, nil
		}
	}
	if end < start {
		start, end = end, start
	}
	return strings.TrimRight(pattern[:i], " "), &Range{Start: start, End: end}
}

type diskFrame struct {
	digits string
	number int
}

// scan lists files in Dir named Base<digits>Ext. Unreadable directories
// yield no frames.
func (s *Sequence) scan() []diskFrame {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil
	}
	exact := regexp.MustCompile(`^` + regexp.QuoteMeta(s.Base) + `(\d+)` + regexp.QuoteMeta(s.Ext) + `$`)
	var frames []diskFrame
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := exact.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		frames = append(frames, diskFrame{digits: m[1], number: n})
	}
	return frames
}

// Prefix returns the directory joined with the static filename prefix.
func (s *Sequence) Prefix() string {
	return filepath.Join(s.Dir, s.Base)
}

// StarPattern renders the pattern with a "*" frame token.
func (s *Sequence) StarPattern() string {
	return filepath.Join(s.Dir, s.Base+"*"+s.Ext)
}

// NumPattern renders the pattern with a printf placeholder, e.g. "%04d".
func (s *Sequence) NumPattern() string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s%%0%dd%s", s.Base, s.Padding, s.Ext))
}

// HashPattern renders the pattern with a run of "#" as wide as the padding.
func (s *Sequence) HashPattern() string {
	return filepath.Join(s.Dir, s.Base+strings.Repeat("#", s.Padding)+s.Ext)
}

// Frame renders the concrete filename for frame n.
func (s *Sequence) Frame(n int) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s%0*d%s", s.Base, s.Padding, n, s.Ext))
}

// String returns the numeric pattern followed by the range, if any.
func (s *Sequence) String() string {
	if s.Range == nil {
		return s.NumPattern()
	}
	return s.NumPattern() + " " + s.Range.String()
}
