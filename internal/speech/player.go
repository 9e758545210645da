package speech

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/provoice/interview-agent/internal/observability"
)

// playerCommands lists local MP3 players in preference order, with the
// arguments needed to play one file and exit.
var playerCommands = []struct {
	binary string
	args   []string
}{
	{"mpg123", []string{"-q"}},
	{"ffplay", []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}},
	{"afplay", nil},
	{"mplayer", []string{"-really-quiet"}},
}

// Player renders synthesized audio on the local machine, blocking until
// playback completes. When no player binary or no audio is available it
// degrades to printing the text, which must not fail the session.
type Player struct {
	binary string
	args   []string
	out    *os.File
	log    zerolog.Logger
}

// NewPlayer locates a local audio player. A Player is returned even when none
// is found; it then operates in print-only mode.
func NewPlayer() *Player {
	p := &Player{
		out: os.Stdout,
		log: observability.GetLogger().With().Str("component", "player").Logger(),
	}
	for _, c := range playerCommands {
		if path, err := exec.LookPath(c.binary); err == nil {
			p.binary = path
			p.args = c.args
			break
		}
	}
	if p.binary == "" {
		p.log.Debug().Msg("No local audio player found, using print-only mode")
	}
	return p
}

// Play renders the audio, falling back to printing the text. It never reports
// failure.
func (p *Player) Play(ctx context.Context, audioData []byte, text string) {
	fmt.Fprintf(p.out, "AI: %s\n", text)

	if p.binary == "" || len(audioData) == 0 {
		return
	}

	f, err := os.CreateTemp("", "interview-*.mp3")
	if err != nil {
		p.log.Warn().Err(err).Msg("Could not buffer audio for playback")
		return
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(audioData); err != nil {
		f.Close()
		p.log.Warn().Err(err).Msg("Could not buffer audio for playback")
		return
	}
	f.Close()

	args := append(append([]string{}, p.args...), path)
	cmd := exec.CommandContext(ctx, p.binary, args...)
	if err := cmd.Run(); err != nil && ctx.Err() == nil {
		p.log.Warn().Err(err).Str("player", filepath.Base(p.binary)).Msg("Audio playback failed")
	}
}
