package speech

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/provoice/interview-agent/internal/observability"
)

// Bridge is the speech surface handed to an interview session. Speak renders
// a line of the interviewer; Transcribe extracts text from a captured answer.
//
// Two shapes exist: the gateway bridge returns synthesized audio bytes for
// the caller to deliver, while the standalone bridge additionally plays the
// audio locally, blocking until playback completes.
type Bridge struct {
	synth  Synthesizer
	stt    Transcriber
	player *Player
	log    zerolog.Logger
}

// NewBridge creates a bridge that returns synthesized audio to the caller.
func NewBridge(synth Synthesizer, stt Transcriber) *Bridge {
	return &Bridge{
		synth: synth,
		stt:   stt,
		log:   observability.GetLogger().With().Str("component", "speech").Logger(),
	}
}

// NewPlaybackBridge creates a bridge that also plays synthesized audio on the
// local machine, for the standalone flow.
func NewPlaybackBridge(synth Synthesizer, stt Transcriber, player *Player) *Bridge {
	b := NewBridge(synth, stt)
	b.player = player
	return b
}

// Speak synthesizes the text and, in the playback shape, plays it locally.
// Degradation (no voice backend, no local player) logs the text and signals
// success so the session proceeds.
func (b *Bridge) Speak(ctx context.Context, text string) ([]byte, error) {
	var data []byte
	if b.synth != nil {
		data, _ = b.synth.Synthesize(ctx, text)
	}

	if b.player != nil {
		b.player.Play(ctx, data, text)
	}
	return data, nil
}

// Transcribe extracts text from one captured utterance.
func (b *Bridge) Transcribe(ctx context.Context, audioData []byte) (string, error) {
	if b.stt == nil {
		return "", ErrNotUnderstood
	}
	return b.stt.Transcribe(ctx, audioData)
}
