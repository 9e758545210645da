package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/provoice/interview-agent/internal/genai"
	"github.com/provoice/interview-agent/internal/observability"
	"github.com/provoice/interview-agent/internal/speech"
	"github.com/provoice/interview-agent/internal/store"
)

const (
	// retryNotice is spoken when a captured answer produced no transcript.
	retryNotice = "Sorry, I didn't catch that. Please answer the question again."
	// skippedEvaluation marks a round recorded without a usable answer.
	skippedEvaluation = "Not evaluated: the answer could not be captured."
	// closingLine is spoken before the final report.
	closingLine = "That concludes the interview. Here is your report."
)

// Interview owns the mutable state of one interview session and drives its
// transitions. It is exclusively owned by one caller; the mutex only guards
// Snapshot against a concurrent reader.
type Interview struct {
	gen    QuestionGenerator
	speech SpeechBridge
	store  TranscriptStore
	log    zerolog.Logger

	mu              sync.Mutex
	state           State
	sessionID       uint
	jobRole         string
	conv            *genai.Conversation
	currentQuestion string
	questionCount   int
	targetCount     int
	rounds          []store.Round
	retries         int
	report          string
	startedAt       time.Time
}

// New creates an interview orchestrator in NOT_STARTED.
func New(gen QuestionGenerator, bridge SpeechBridge, transcripts TranscriptStore) *Interview {
	return &Interview{
		gen:    gen,
		speech: bridge,
		store:  transcripts,
		conv:   genai.NewConversation(),
		state:  StateNotStarted,
		log:    observability.GetLogger().With().Str("component", "session").Logger(),
	}
}

// Begin starts a new interview: creates the persisted session, resets all
// per-session state, produces the first question and renders it. Valid from
// NOT_STARTED, FINISHED or REVIEWING.
func (iv *Interview) Begin(ctx context.Context, jobRole string, target int) (*TurnResult, error) {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	if !iv.state.Idle() {
		return nil, fmt.Errorf("%w: state=%s", ErrInterviewActive, iv.state)
	}
	if target < 1 {
		return nil, fmt.Errorf("target question count must be positive, got %d", target)
	}

	sess, err := iv.store.CreateSession(ctx, jobRole)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	iv.state = StateGeneratingQuestion
	iv.sessionID = sess.ID
	iv.jobRole = jobRole
	iv.targetCount = target
	iv.questionCount = 0
	iv.retries = 0
	iv.rounds = nil
	iv.report = ""
	iv.startedAt = time.Now()
	iv.log = observability.WithSession(sess.ID, observability.NewCorrelationID()).
		With().Str("component", "session").Logger()

	observability.RecordInterviewStart()
	iv.log.Info().Str("job_role", jobRole).Int("target", target).Msg("Interview started")

	question := contentOrError(iv.gen.InitialQuestion(ctx, iv.conv, jobRole))
	audio, _ := iv.speech.Speak(ctx, question)
	iv.currentQuestion = question
	iv.state = StateWaitingForUser

	return &TurnResult{State: iv.state, Question: question, Audio: audio}, nil
}

// SubmitAnswer processes one captured answer. On a usable transcript the
// round is evaluated, persisted and counted, and the session advances to the
// next question or to the final report. A not-understood capture re-asks the
// same question without persisting anything.
func (iv *Interview) SubmitAnswer(ctx context.Context, audio []byte) (*TurnResult, error) {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	if iv.state != StateWaitingForUser {
		return nil, fmt.Errorf("%w: state=%s", ErrNoActiveQuestion, iv.state)
	}
	iv.state = StateProcessingAnswer

	answer, err := iv.speech.Transcribe(ctx, audio)
	if err != nil {
		if !errors.Is(err, speech.ErrNotUnderstood) {
			iv.state = StateWaitingForUser
			return nil, fmt.Errorf("transcribing answer: %w", err)
		}
		iv.retries++
		observability.RecordTranscriptionRetry()
		iv.log.Info().Int("retries", iv.retries).Msg("Answer not understood, re-asking")

		noticeAudio, _ := iv.speech.Speak(ctx, retryNotice)
		iv.state = StateWaitingForUser
		return &TurnResult{
			State:    iv.state,
			Question: iv.currentQuestion,
			Notice:   retryNotice,
			Audio:    noticeAudio,
			Retry:    true,
		}, nil
	}

	iv.log.Debug().Str("answer", answer).Msg("Answer transcribed")
	evaluation := contentOrError(iv.gen.EvaluateAnswer(ctx, iv.currentQuestion, answer))
	return iv.completeRound(ctx, answer, evaluation)
}

// Skip records the current question as unanswered with a placeholder
// evaluation and advances, used by the standalone flow once its capture
// retry budget is exhausted.
func (iv *Interview) Skip(ctx context.Context) (*TurnResult, error) {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	if iv.state != StateWaitingForUser {
		return nil, fmt.Errorf("%w: state=%s", ErrNoActiveQuestion, iv.state)
	}
	iv.state = StateProcessingAnswer
	iv.log.Warn().Str("question", iv.currentQuestion).Msg("Question skipped")

	return iv.completeRound(ctx, "", skippedEvaluation)
}

// completeRound persists and counts one finished round, then produces either
// the next question or the final report. Caller holds the lock.
func (iv *Interview) completeRound(ctx context.Context, answer, evaluation string) (*TurnResult, error) {
	round := store.Round{
		SessionID:  iv.sessionID,
		Question:   iv.currentQuestion,
		Answer:     answer,
		Evaluation: evaluation,
	}
	if err := iv.store.SaveRound(ctx, iv.sessionID, round.Question, round.Answer, round.Evaluation); err != nil {
		// The flow keeps moving; the round survives in memory for the report.
		iv.log.Error().Err(err).Msg("Failed to persist round")
	} else {
		observability.RecordRoundPersisted()
	}
	iv.rounds = append(iv.rounds, round)
	iv.questionCount++
	iv.retries = 0

	result := &TurnResult{Answer: answer, Evaluation: evaluation}

	if iv.questionCount < iv.targetCount {
		iv.state = StateGeneratingQuestion
		question := contentOrError(iv.gen.NextQuestion(ctx, iv.conv, answer))
		audio, _ := iv.speech.Speak(ctx, question)
		iv.currentQuestion = question
		iv.state = StateWaitingForUser

		result.State = iv.state
		result.Question = question
		result.Audio = audio
		return result, nil
	}

	iv.state = StateGeneratingReport
	report := contentOrError(iv.gen.FinalReport(ctx, iv.rounds))
	audio, _ := iv.speech.Speak(ctx, closingLine)
	iv.currentQuestion = ""
	iv.report = report
	iv.state = StateFinished

	observability.RecordInterviewEnd(iv.startedAt)
	iv.log.Info().Int("rounds", iv.questionCount).Msg("Interview finished")

	result.State = iv.state
	result.Report = report
	result.Audio = audio
	return result, nil
}

// Review loads the persisted rounds of a past session for read-only replay.
// No generation or speech calls are made. Valid from NOT_STARTED, FINISHED
// or REVIEWING.
func (iv *Interview) Review(ctx context.Context, sessionID uint) ([]store.Round, error) {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	if !iv.state.Idle() {
		return nil, fmt.Errorf("%w: state=%s", ErrInterviewActive, iv.state)
	}

	rounds, err := iv.store.GetRounds(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading rounds: %w", err)
	}

	iv.state = StateReviewing
	iv.sessionID = sessionID
	iv.rounds = rounds
	iv.log.Info().Uint("session_id", sessionID).Int("rounds", len(rounds)).Msg("Reviewing past session")
	return rounds, nil
}

// Snapshot returns the current session state.
func (iv *Interview) Snapshot() Snapshot {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	rounds := make([]store.Round, len(iv.rounds))
	copy(rounds, iv.rounds)

	return Snapshot{
		State:           iv.state,
		SessionID:       iv.sessionID,
		JobRole:         iv.jobRole,
		CurrentQuestion: iv.currentQuestion,
		QuestionCount:   iv.questionCount,
		TargetCount:     iv.targetCount,
		Rounds:          rounds,
		Retries:         iv.retries,
		Report:          iv.report,
	}
}

// contentOrError turns a generation failure into speakable content so the
// interview flow is never interrupted by a backend outage.
func contentOrError(text string, err error) string {
	if err != nil {
		return "The interviewer is temporarily unavailable: " + err.Error()
	}
	return text
}
