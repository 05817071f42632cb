package sequence

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FrameMatch pairs an on-disk input frame with its output filename.
type FrameMatch struct {
	// Frame is the parsed frame number.
	Frame int
	// Digits is the frame number exactly as it appears in the input name.
	Digits string
	// Input is the full path of the input file.
	Input string
	// Output is the full path of the output file.
	Output string
}

// MatchFrames lists in.Dir and pairs every file whose name contains the
// input prefix and ends in a frame number with its output filename. The
// output frame number is zero-padded to out.Padding. ext overrides the
// output extension when non-empty.
//
// Files are returned in directory order. When in carries a frame range,
// frames outside it are skipped. An empty result is not an error.
func MatchFrames(in, out *Sequence, ext string) ([]FrameMatch, error) {
	entries, err := os.ReadDir(in.Dir)
	if err != nil {
		return nil, fmt.Errorf("list sequence directory: %w", err)
	}

	outExt := strings.TrimPrefix(ext, ".")
	if outExt == "" {
		outExt = strings.TrimPrefix(out.Ext, ".")
	}

	var matches []FrameMatch
	for _, e := range entries {
		if e.IsDir() || !strings.Contains(e.Name(), in.Base) {
			continue
		}
		m := frameRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if in.Range != nil && !in.Range.Contains(n) {
			continue
		}
		matches = append(matches, FrameMatch{
			Frame:  n,
			Digits: m[1],
			Input:  filepath.Join(in.Dir, e.Name()),
			Output: filepath.Join(out.Dir, fmt.Sprintf("%s%0*d.%s", out.Base, out.Padding, n, outExt)),
		})
	}
	return matches, nil
}

// FrameNumber extracts the frame number digits from a concrete filename.
func FrameNumber(name string) (string, bool) {
	m := frameRe.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return "", false
	}
	return m[1], true
}
