package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	listenv1rest "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
	"github.com/rs/zerolog"

	"github.com/provoice/interview-agent/internal/audio"
	"github.com/provoice/interview-agent/internal/config"
	"github.com/provoice/interview-agent/internal/observability"
)

const speakEndpoint = "https://api.deepgram.com/v1/speak"

// DeepgramSpeech implements Synthesizer and Transcriber against Deepgram's
// REST APIs. Capture is whole-utterance, so the pre-recorded listen API is
// used rather than the live WebSocket one. With no API key configured the
// bridge degrades: synthesis yields no audio and transcription reports
// ErrNotUnderstood.
type DeepgramSpeech struct {
	apiKey     string
	sttModel   string
	language   string
	ttsModel   string
	speakURL   string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewDeepgramSpeech creates the speech bridge backend from configuration.
func NewDeepgramSpeech(cfg *config.Config) *DeepgramSpeech {
	return &DeepgramSpeech{
		apiKey:     cfg.DeepgramAPIKey,
		sttModel:   cfg.DeepgramModel,
		language:   cfg.DeepgramLanguage,
		ttsModel:   cfg.TTSModel,
		speakURL:   speakEndpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        observability.GetLogger().With().Str("component", "speech").Logger(),
	}
}

// Configured reports whether a speech credential is present.
func (d *DeepgramSpeech) Configured() bool {
	return d.apiKey != ""
}

// Synthesize converts text to an MP3 byte stream.
func (d *DeepgramSpeech) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if !d.Configured() {
		d.log.Debug().Msg("No speech credential, skipping synthesis")
		return nil, nil
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	start := time.Now()
	data, err := d.synthesize(ctx, text)
	observability.RecordTTS(start, err)
	if err != nil {
		// Degraded synthesis never fails the flow.
		d.log.Warn().Err(err).Msg("Speech synthesis failed, continuing without audio")
		return nil, nil
	}
	return data, nil
}

func (d *DeepgramSpeech) synthesize(ctx context.Context, text string) ([]byte, error) {
	u, err := url.Parse(d.speakURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("model", d.ttsModel)
	q.Set("encoding", "mp3")
	u.RawQuery = q.Encode()

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("deepgram speak: status=%d body=%s", resp.StatusCode, string(b))
	}
	return io.ReadAll(resp.Body)
}

// Transcribe extracts the transcript of one captured utterance.
func (d *DeepgramSpeech) Transcribe(ctx context.Context, audioData []byte) (string, error) {
	if len(audioData) == 0 {
		return "", ErrNotUnderstood
	}
	if !d.Configured() {
		// Backend unreachable and unintelligible audio are deliberately the
		// same signal to the orchestrator.
		return "", ErrNotUnderstood
	}

	// Empty-room captures are rejected locally without a backend call.
	if audio.IsSilence(audioData, audio.DefaultSilenceThreshold) {
		d.log.Debug().Msg("Capture contains no voice energy")
		return "", ErrNotUnderstood
	}

	start := time.Now()
	transcript, err := d.transcribe(ctx, audioData)
	observability.RecordSTT(start, err)
	if err != nil {
		d.log.Warn().Err(err).Msg("Transcription failed")
		return "", ErrNotUnderstood
	}
	if strings.TrimSpace(transcript) == "" {
		return "", ErrNotUnderstood
	}
	return strings.TrimSpace(transcript), nil
}

func (d *DeepgramSpeech) transcribe(ctx context.Context, audioData []byte) (string, error) {
	c := listenClient.NewREST(d.apiKey, &interfaces.ClientOptions{})
	dg := listenv1rest.New(c)

	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       d.sttModel,
		Language:    d.language,
		Punctuate:   true,
		SmartFormat: true,
	}

	resp, err := dg.FromStream(ctx, bytes.NewReader(audioData), options)
	if err != nil {
		return "", fmt.Errorf("deepgram listen: %w", err)
	}
	if len(resp.Results.Channels) == 0 || len(resp.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}
	return resp.Results.Channels[0].Alternatives[0].Transcript, nil
}

// Check probes the speech backend for readiness reporting.
func (d *DeepgramSpeech) Check(ctx context.Context) (bool, error) {
	if !d.Configured() {
		return false, fmt.Errorf("no speech credential configured")
	}
	return true, nil
}
