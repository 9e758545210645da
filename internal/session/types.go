// Package session drives one mock interview through its lifecycle: generate
// a question, render it, capture and evaluate the spoken answer, persist the
// round, repeat until the target count, then produce a final report.
//
// The orchestrator is step-driven: every exported method performs one
// transition and returns, and Snapshot exposes the state in between. The
// blocking CLI loop and the WebSocket gateway both compose these same steps.
package session

import (
	"context"

	"github.com/provoice/interview-agent/internal/genai"
	"github.com/provoice/interview-agent/internal/store"
)

// QuestionGenerator produces questions, evaluations and the final report.
// Question generation threads the session conversation; evaluation and the
// report deliberately do not receive it.
type QuestionGenerator interface {
	InitialQuestion(ctx context.Context, conv *genai.Conversation, jobRole string) (string, error)
	NextQuestion(ctx context.Context, conv *genai.Conversation, previousAnswer string) (string, error)
	EvaluateAnswer(ctx context.Context, question, answer string) (string, error)
	FinalReport(ctx context.Context, rounds []store.Round) (string, error)
}

// SpeechBridge renders interviewer lines and transcribes captured answers.
type SpeechBridge interface {
	Speak(ctx context.Context, text string) ([]byte, error)
	Transcribe(ctx context.Context, audioData []byte) (string, error)
}

// TranscriptStore is the append-only persistence surface the session needs.
type TranscriptStore interface {
	CreateSession(ctx context.Context, jobRole string) (*store.Session, error)
	SaveRound(ctx context.Context, sessionID uint, question, answer, evaluation string) error
	GetRounds(ctx context.Context, sessionID uint) ([]store.Round, error)
}

// TurnResult describes the outcome of one transition, including the line the
// interviewer spoke and its synthesized audio (nil in degraded mode).
type TurnResult struct {
	State      State  `json:"state"`
	Answer     string `json:"answer,omitempty"`
	Evaluation string `json:"evaluation,omitempty"`
	Question   string `json:"question,omitempty"`
	Notice     string `json:"notice,omitempty"`
	Report     string `json:"report,omitempty"`
	Audio      []byte `json:"-"`
	Retry      bool   `json:"retry,omitempty"`
}

// Snapshot is the externally inspectable session state between transitions.
type Snapshot struct {
	State           State         `json:"state"`
	SessionID       uint          `json:"session_id"`
	JobRole         string        `json:"job_role"`
	CurrentQuestion string        `json:"current_question,omitempty"`
	QuestionCount   int           `json:"question_count"`
	TargetCount     int           `json:"target_count"`
	Rounds          []store.Round `json:"rounds,omitempty"`
	Retries         int           `json:"retries"`
	Report          string        `json:"report,omitempty"`
}
