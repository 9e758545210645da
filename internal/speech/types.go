// Package speech bridges between text and audio via the TTS/STT backends.
//
// Transcription failure is a distinguishable outcome, not a fatal error: the
// orchestrator interprets ErrNotUnderstood as "ask the user to retry". The
// bridge deliberately reports an unreachable backend the same way.
package speech

import (
	"context"
	"errors"
)

// ErrNotUnderstood signals that a captured utterance produced no usable
// transcript, either because the audio was not comprehensible or because the
// speech backend was unreachable.
var ErrNotUnderstood = errors.New("speech not understood")

// Synthesizer converts text into an encoded audio stream (MP3).
type Synthesizer interface {
	// Synthesize returns MP3 bytes for the text. In degraded mode it returns
	// (nil, nil): the caller renders the text without audio and the session
	// proceeds.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Transcriber extracts text from one captured utterance.
type Transcriber interface {
	// Transcribe returns the transcript, or ErrNotUnderstood when no usable
	// text could be extracted.
	Transcribe(ctx context.Context, audioData []byte) (string, error)
}
