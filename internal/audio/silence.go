// Package audio implements the silence gate: a cheap loudness pre-check
// that skips transcription calls on near-silent uploads.
//
// The gate is a courtesy optimization, never a correctness gate. A false
// "not silent" costs one engine call; a false "silent" loses speech. Every
// measurement failure therefore fails open — the audio proceeds to
// transcription.
package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"log/slog"
	"math"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Loudness thresholds as linear RMS of full-scale. Compressed formats use
// the lower (more lenient) threshold: lossy compression flattens dynamics,
// so quiet speech measures quieter than in PCM.
const (
	WAVSilenceThreshold        = 0.02
	CompressedSilenceThreshold = 0.01
)

// Option configures a Gate.
type Option func(*Gate)

// WithFFmpegPath overrides the ffmpeg binary used for compressed formats.
// Defaults to "ffmpeg" resolved via PATH.
func WithFFmpegPath(path string) Option {
	return func(g *Gate) {
		g.ffmpegPath = path
	}
}

// Gate measures audio loudness and reports whether a chunk is silent.
// Safe for concurrent use.
type Gate struct {
	logger     *slog.Logger
	ffmpegPath string
}

// NewGate creates a Gate. logger may be nil, in which case slog.Default is
// used.
func NewGate(logger *slog.Logger, opts ...Option) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gate{logger: logger, ffmpegPath: "ffmpeg"}
	for _, o := range opts {
		o(g)
	}
	return g
}

// IsSilent reports whether data is near-silent. filename hints the
// container format: WAV/RIFF content is measured in-process; everything
// else is delegated to ffmpeg's volumedetect filter. Any failure along
// either path returns false (fail open).
func (g *Gate) IsSilent(ctx context.Context, data []byte, filename string) bool {
	if len(data) == 0 {
		return false
	}

	if isWAV(data, filename) {
		rms, ok := wavRMS(data)
		if !ok {
			g.logger.Debug("silence gate: WAV parse failed, failing open", "filename", filename)
			return false
		}
		return rms < WAVSilenceThreshold
	}

	rms, ok := g.ffmpegRMS(ctx, data)
	if !ok {
		return false
	}
	return rms < CompressedSilenceThreshold
}

// isWAV detects the RIFF/WAVE container by magic bytes, falling back to the
// file extension.
func isWAV(data []byte, filename string) bool {
	if len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")) {
		return true
	}
	return strings.EqualFold(filepath.Ext(filename), ".wav")
}

// wavRMS computes the root-mean-square of the normalized 16-bit PCM samples
// in a RIFF/WAVE file. Returns ok=false on any structural problem.
func wavRMS(data []byte) (float64, bool) {
	if len(data) < 44 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return 0, false
	}

	// Walk the chunk list for "data"; files from browsers often carry extra
	// chunks (LIST, fact) between fmt and data.
	offset := 12
	for offset+8 <= len(data) {
		chunkID := data[offset : offset+4]
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if chunkSize < 0 || body+chunkSize > len(data) {
			chunkSize = len(data) - body
			if chunkSize <= 0 {
				return 0, false
			}
		}
		if bytes.Equal(chunkID, []byte("data")) {
			return pcm16RMS(data[body : body+chunkSize]), true
		}
		// Chunks are word-aligned.
		offset = body + chunkSize + chunkSize%2
	}
	return 0, false
}

// pcm16RMS computes RMS over little-endian signed 16-bit samples,
// normalized to [-1, 1].
func pcm16RMS(samples []byte) float64 {
	n := len(samples) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(samples[i*2 : i*2+2]))
		v := float64(s) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}

var (
	meanVolumeRe = regexp.MustCompile(`mean_volume:\s*(-?[\d.]+)\s*dB`)
	maxVolumeRe  = regexp.MustCompile(`max_volume:\s*(-?[\d.]+)\s*dB`)
)

// ffmpegRMS pipes data through ffmpeg's volumedetect filter and converts
// the reported mean volume (falling back to max volume) from decibels to
// linear RMS via 10^(dB/20).
func (g *Gate) ffmpegRMS(ctx context.Context, data []byte) (float64, bool) {
	cmd := exec.CommandContext(ctx, g.ffmpegPath,
		"-hide_banner",
		"-i", "pipe:0",
		"-af", "volumedetect",
		"-f", "null", "-",
	)
	cmd.Stdin = bytes.NewReader(data)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		g.logger.Debug("silence gate: ffmpeg volumedetect failed, failing open", "error", err)
		return 0, false
	}

	out := stderr.String()
	db, ok := parseVolume(meanVolumeRe, out)
	if !ok {
		db, ok = parseVolume(maxVolumeRe, out)
	}
	if !ok {
		g.logger.Debug("silence gate: no volume in ffmpeg output, failing open")
		return 0, false
	}
	return math.Pow(10, db/20), true
}

func parseVolume(re *regexp.Regexp, out string) (float64, bool) {
	m := re.FindStringSubmatch(out)
	if m == nil {
		return 0, false
	}
	db, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return db, true
}
