// Package audio builds ffmpeg invocations that pull the audio track out of
// a movie.
package audio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/maauso/mediaconv/internal/media"
)

// ErrNotWav is returned when a wav extraction targets a non-.wav file.
var ErrNotWav = errors.New("output is not a .wav file")

// AudioOnlySuffix is appended to the stem of audio-only mp4 outputs.
const AudioOnlySuffix = "_audio"

// Extractor builds audio extraction invocations.
type Extractor struct {
	ffmpegPath string
}

// NewExtractor creates an Extractor.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found in PATH).
func NewExtractor(ffmpegPath string) *Extractor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Extractor{ffmpegPath: ffmpegPath}
}

// Wav extracts stereo 16-bit PCM. out must end in .wav.
func (e *Extractor) Wav(in, out string) (media.Invocation, error) {
	if !IsWav(out) {
		return media.Invocation{}, fmt.Errorf("%w: %s", ErrNotWav, out)
	}
	return media.Invocation{
		Binary: e.ffmpegPath,
		Args: []string{
			"-y",
			"-i", in,
			"-c:a", "pcm_s16le",
			"-ac", "2",
			out,
		},
	}, nil
}

// AAC drops the video stream and re-encodes audio to stereo aac in an mp4.
func (e *Extractor) AAC(in, out string) media.Invocation {
	return media.Invocation{
		Binary: e.ffmpegPath,
		Args: []string{
			"-y",
			"-i", in,
			"-vn",
			"-strict", "experimental",
			"-c:a", "aac",
			"-b:a", "160k",
			"-ac", "2",
			out,
		},
	}
}

// IsWav reports whether path has a .wav extension.
func IsWav(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".wav")
}

// AudioOnlyName turns "clip.mp4" into "clip_audio.mp4". Names that already
// carry the suffix are returned unchanged.
func AudioOnlyName(path string) string {
	stem := media.Stem(path)
	if strings.HasSuffix(stem, AudioOnlySuffix) {
		return path
	}
	return stem + AudioOnlySuffix + filepath.Ext(path)
}
