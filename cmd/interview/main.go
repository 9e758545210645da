// The interview command runs a mock interview as a blocking loop on the local
// machine: it speaks each question aloud, records the answer from the
// microphone, and prints the evaluation after every round.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/provoice/interview-agent/internal/config"
	"github.com/provoice/interview-agent/internal/genai"
	"github.com/provoice/interview-agent/internal/observability"
	"github.com/provoice/interview-agent/internal/session"
	"github.com/provoice/interview-agent/internal/speech"
	"github.com/provoice/interview-agent/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	prompts, err := genai.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.PromptsFile).Msg("Failed to load prompt templates")
	}

	transcripts, err := store.Open(cfg.DatabasePath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to open transcript store")
	}
	defer transcripts.Close()

	generator := genai.NewClient(cfg, prompts)
	voice := speech.NewDeepgramSpeech(cfg)
	player := speech.NewPlayer()
	bridge := speech.NewPlaybackBridge(voice, voice, player)
	recorder := speech.NewRecorder(cfg.RecordSeconds)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stdin := bufio.NewReader(os.Stdin)
	jobRole := promptLine(stdin, "Which job role are you interviewing for? ")
	if jobRole == "" {
		jobRole = "Software Engineer"
	}
	count := promptCount(stdin, cfg.DefaultQuestionCount)

	iv := session.New(generator, bridge, transcripts)
	res, err := iv.Begin(ctx, jobRole, count)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to start the interview")
	}

	for res.State != session.StateFinished {
		if ctx.Err() != nil {
			fmt.Println("\nInterview interrupted.")
			return
		}

		res, err = answerCurrentQuestion(ctx, iv, recorder, cfg.MaxListenRetries)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Println("\nInterview interrupted.")
				return
			}
			logger.Fatal().Err(err).Msg("Interview failed")
		}
		if res.Evaluation != "" {
			fmt.Printf("\nEvaluation: %s\n\n", res.Evaluation)
		}
	}

	fmt.Printf("%s\n\n%s\n", "Interview complete.", res.Report)
}

// answerCurrentQuestion captures and submits one answer. Capture failures and
// not-understood transcripts are retried up to maxRetries; after that the
// question is skipped so the interview can still complete.
func answerCurrentQuestion(ctx context.Context, iv *session.Interview, recorder *speech.Recorder, maxRetries int) (*session.TurnResult, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, context.Canceled
		}
		fmt.Println("Listening... (speak your answer)")
		audio, err := recorder.Record(ctx)
		if err != nil {
			if errors.Is(err, speech.ErrNoRecorder) {
				break
			}
			if ctx.Err() != nil {
				return nil, context.Canceled
			}
			fmt.Println("Could not capture audio, trying again.")
			continue
		}

		res, err := iv.SubmitAnswer(ctx, audio)
		if err != nil {
			return nil, err
		}
		if !res.Retry {
			return res, nil
		}
	}

	fmt.Println("Moving on to the next question.")
	return iv.Skip(ctx)
}

func promptLine(stdin *bufio.Reader, prompt string) string {
	fmt.Print(prompt)
	line, err := stdin.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

func promptCount(stdin *bufio.Reader, fallback int) int {
	answer := promptLine(stdin, fmt.Sprintf("How many questions? [%d] ", fallback))
	count, err := strconv.Atoi(answer)
	if err != nil || count < 1 {
		return fallback
	}
	return count
}
