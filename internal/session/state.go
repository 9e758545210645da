package session

import (
	"errors"
	"fmt"
)

// State is the lifecycle state of an interview session.
type State int

const (
	// StateNotStarted - No interview has begun yet.
	StateNotStarted State = iota
	// StateGeneratingQuestion - Waiting on the backend for the next question.
	StateGeneratingQuestion
	// StateWaitingForUser - A question is active, an answer is expected.
	StateWaitingForUser
	// StateProcessingAnswer - Transcribing and evaluating a captured answer.
	StateProcessingAnswer
	// StateGeneratingReport - All rounds done, producing the final report.
	StateGeneratingReport
	// StateFinished - Terminal; only a new Begin leaves it.
	StateFinished
	// StateReviewing - Read-only replay of a persisted session.
	StateReviewing
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NOT_STARTED"
	case StateGeneratingQuestion:
		return "GENERATING_QUESTION"
	case StateWaitingForUser:
		return "WAITING_FOR_USER"
	case StateProcessingAnswer:
		return "PROCESSING_ANSWER"
	case StateGeneratingReport:
		return "GENERATING_REPORT"
	case StateFinished:
		return "FINISHED"
	case StateReviewing:
		return "REVIEWING"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Idle reports whether a new interview may begin from this state.
func (s State) Idle() bool {
	return s == StateNotStarted || s == StateFinished || s == StateReviewing
}

// Errors for invalid state transitions.
var (
	ErrInterviewActive  = errors.New("an interview is already in progress")
	ErrNoActiveQuestion = errors.New("no question is awaiting an answer")
)
