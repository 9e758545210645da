package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/provoice/interview-agent/internal/observability"
)

// ErrNoRecorder signals that no local capture backend exists at all. Unlike
// ErrNotUnderstood this is not retryable by asking the user to repeat.
var ErrNoRecorder = errors.New("no audio capture backend available")

// Recorder captures one spoken utterance from the local microphone as a
// 16kHz mono PCM16 WAV, used by the standalone flow. Capture is bounded by a
// maximum utterance length; sox additionally stops on trailing silence.
type Recorder struct {
	binary     string
	maxSeconds int
	log        zerolog.Logger
}

// NewRecorder locates a local capture command (arecord, sox/rec or ffmpeg).
func NewRecorder(maxSeconds int) *Recorder {
	r := &Recorder{
		maxSeconds: maxSeconds,
		log:        observability.GetLogger().With().Str("component", "recorder").Logger(),
	}
	for _, binary := range []string{"arecord", "rec", "ffmpeg"} {
		if path, err := exec.LookPath(binary); err == nil {
			r.binary = path
			break
		}
	}
	return r
}

// Available reports whether a capture backend was found.
func (r *Recorder) Available() bool {
	return r.binary != ""
}

// Record captures one utterance and returns the WAV bytes.
func (r *Recorder) Record(ctx context.Context) ([]byte, error) {
	if !r.Available() {
		return nil, ErrNoRecorder
	}

	f, err := os.CreateTemp("", "utterance-*.wav")
	if err != nil {
		return nil, fmt.Errorf("buffering capture: %w", err)
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	seconds := strconv.Itoa(r.maxSeconds)
	var args []string
	switch filepath.Base(r.binary) {
	case "arecord":
		args = []string{"-q", "-f", "S16_LE", "-r", "16000", "-c", "1", "-d", seconds, path}
	case "rec":
		// sox stops early after 1.5s of trailing silence
		args = []string{"-q", "-r", "16000", "-c", "1", "-b", "16", path,
			"trim", "0", seconds, "silence", "1", "0.1", "2%", "1", "1.5", "2%"}
	default: // ffmpeg
		args = []string{"-loglevel", "quiet", "-y", "-f", "alsa", "-i", "default",
			"-t", seconds, "-ar", "16000", "-ac", "1", path}
	}

	cmd := exec.CommandContext(ctx, r.binary, args...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.log.Warn().Err(err).Msg("Audio capture failed")
		return nil, fmt.Errorf("capturing utterance: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading capture: %w", err)
	}
	return data, nil
}
