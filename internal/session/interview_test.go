package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/provoice/interview-agent/internal/genai"
	"github.com/provoice/interview-agent/internal/speech"
	"github.com/provoice/interview-agent/internal/store"
)

type fakeGen struct {
	questions    []string
	qi           int
	evaluations  []string
	ei           int
	report       string
	err          error
	initialCalls int
	nextCalls    int
	evalCalls    int
	reportCalls  int
}

func (f *fakeGen) nextScripted() string {
	if f.qi >= len(f.questions) {
		return "Out of scripted questions."
	}
	q := f.questions[f.qi]
	f.qi++
	return q
}

func (f *fakeGen) InitialQuestion(ctx context.Context, conv *genai.Conversation, jobRole string) (string, error) {
	f.initialCalls++
	if f.err != nil {
		return "", f.err
	}
	return f.nextScripted(), nil
}

func (f *fakeGen) NextQuestion(ctx context.Context, conv *genai.Conversation, previousAnswer string) (string, error) {
	f.nextCalls++
	if f.err != nil {
		return "", f.err
	}
	return f.nextScripted(), nil
}

func (f *fakeGen) EvaluateAnswer(ctx context.Context, question, answer string) (string, error) {
	f.evalCalls++
	if f.err != nil {
		return "", f.err
	}
	if f.ei >= len(f.evaluations) {
		return "Score: 5/10.", nil
	}
	e := f.evaluations[f.ei]
	f.ei++
	return e, nil
}

func (f *fakeGen) FinalReport(ctx context.Context, rounds []store.Round) (string, error) {
	f.reportCalls++
	if f.err != nil {
		return "", f.err
	}
	return f.report, nil
}

// fakeBridge scripts transcripts per Transcribe call; "" means not understood.
type fakeBridge struct {
	transcripts     []string
	ti              int
	spoken          []string
	transcribeCalls int
}

func (f *fakeBridge) Speak(ctx context.Context, text string) ([]byte, error) {
	f.spoken = append(f.spoken, text)
	return []byte("mp3"), nil
}

func (f *fakeBridge) Transcribe(ctx context.Context, audioData []byte) (string, error) {
	f.transcribeCalls++
	if f.ti >= len(f.transcripts) {
		return "", speech.ErrNotUnderstood
	}
	t := f.transcripts[f.ti]
	f.ti++
	if t == "" {
		return "", speech.ErrNotUnderstood
	}
	return t, nil
}

type fakeStore struct {
	nextID   uint
	sessions []store.Session
	rounds   map[uint][]store.Round
	saveErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{rounds: make(map[uint][]store.Round)}
}

func (f *fakeStore) CreateSession(ctx context.Context, jobRole string) (*store.Session, error) {
	f.nextID++
	s := store.Session{ID: f.nextID, JobRole: jobRole, CreatedAt: time.Now()}
	f.sessions = append(f.sessions, s)
	return &s, nil
}

func (f *fakeStore) SaveRound(ctx context.Context, sessionID uint, question, answer, evaluation string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.rounds[sessionID] = append(f.rounds[sessionID], store.Round{
		ID:         uint(len(f.rounds[sessionID]) + 1),
		SessionID:  sessionID,
		Question:   question,
		Answer:     answer,
		Evaluation: evaluation,
	})
	return nil
}

func (f *fakeStore) GetRounds(ctx context.Context, sessionID uint) ([]store.Round, error) {
	return f.rounds[sessionID], nil
}

func TestBackendEngineerTwoQuestionScenario(t *testing.T) {
	gen := &fakeGen{
		questions: []string{
			"Tell me about your experience with distributed systems.",
			"How do you handle partial failures between services?",
		},
		evaluations: []string{"Score: 8/10. Solid depth.", "Score: 7/10. Good instincts."},
		report:      "Strengths: systems background. Weaknesses: needs more detail.",
	}
	bridge := &fakeBridge{transcripts: []string{
		"I have three years of experience with distributed systems.",
		"I use timeouts, retries and idempotent handlers.",
	}}
	st := newFakeStore()
	iv := New(gen, bridge, st)

	res, err := iv.Begin(context.Background(), "Backend Engineer", 2)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if res.State != StateWaitingForUser {
		t.Fatalf("expected WAITING_FOR_USER after Begin, got %s", res.State)
	}
	if res.Question != gen.questions[0] {
		t.Fatalf("unexpected first question %q", res.Question)
	}

	res, err = iv.SubmitAnswer(context.Background(), []byte("take1"))
	if err != nil {
		t.Fatalf("SubmitAnswer round 1: %v", err)
	}
	if res.State != StateWaitingForUser {
		t.Fatalf("expected another question, got state %s", res.State)
	}
	if res.Answer != bridge.transcripts[0] {
		t.Errorf("unexpected answer %q", res.Answer)
	}
	if res.Evaluation != gen.evaluations[0] {
		t.Errorf("unexpected evaluation %q", res.Evaluation)
	}
	if res.Question != gen.questions[1] {
		t.Errorf("unexpected second question %q", res.Question)
	}

	res, err = iv.SubmitAnswer(context.Background(), []byte("take2"))
	if err != nil {
		t.Fatalf("SubmitAnswer round 2: %v", err)
	}
	if res.State != StateFinished {
		t.Fatalf("expected FINISHED, got %s", res.State)
	}
	if res.Report != gen.report {
		t.Errorf("unexpected report %q", res.Report)
	}

	snap := iv.Snapshot()
	if snap.State != StateFinished || snap.QuestionCount != 2 {
		t.Fatalf("unexpected snapshot state=%s count=%d", snap.State, snap.QuestionCount)
	}
	rounds := st.rounds[snap.SessionID]
	if len(rounds) != 2 {
		t.Fatalf("expected exactly 2 persisted rounds, got %d", len(rounds))
	}
	if rounds[0].Answer != bridge.transcripts[0] || rounds[1].Answer != bridge.transcripts[1] {
		t.Errorf("rounds persisted out of order: %+v", rounds)
	}
	if gen.reportCalls != 1 {
		t.Errorf("expected one report call, got %d", gen.reportCalls)
	}
}

func TestFailedTranscriptionReasksSameQuestion(t *testing.T) {
	gen := &fakeGen{questions: []string{"What is a goroutine?"}, report: "ok"}
	bridge := &fakeBridge{transcripts: []string{""}}
	st := newFakeStore()
	iv := New(gen, bridge, st)

	if _, err := iv.Begin(context.Background(), "Go Developer", 1); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	res, err := iv.SubmitAnswer(context.Background(), []byte("noise"))
	if err != nil {
		t.Fatalf("not-understood must not be an error: %v", err)
	}
	if !res.Retry {
		t.Fatal("expected a retry result")
	}
	if res.Question != "What is a goroutine?" {
		t.Fatalf("expected the same question re-presented, got %q", res.Question)
	}
	if res.Notice == "" {
		t.Error("expected a user-visible retry notice")
	}

	snap := iv.Snapshot()
	if snap.State != StateWaitingForUser {
		t.Fatalf("expected WAITING_FOR_USER, got %s", snap.State)
	}
	if snap.QuestionCount != 0 {
		t.Errorf("round counter must not advance, got %d", snap.QuestionCount)
	}
	if snap.Retries != 1 {
		t.Errorf("expected retry counter 1, got %d", snap.Retries)
	}
	if len(st.rounds[snap.SessionID]) != 0 {
		t.Errorf("no round may be persisted on failed transcription")
	}
}

func TestNotUnderstoodTwiceThenSuccess(t *testing.T) {
	gen := &fakeGen{questions: []string{"Describe a hard bug you fixed."}, report: "done"}
	bridge := &fakeBridge{transcripts: []string{"", "", "A race in our cache invalidation."}}
	st := newFakeStore()
	iv := New(gen, bridge, st)

	if _, err := iv.Begin(context.Background(), "SRE", 1); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	for i := 0; i < 2; i++ {
		res, err := iv.SubmitAnswer(context.Background(), []byte("mumble"))
		if err != nil || !res.Retry {
			t.Fatalf("attempt %d: expected retry, got res=%+v err=%v", i+1, res, err)
		}
	}

	res, err := iv.SubmitAnswer(context.Background(), []byte("clear"))
	if err != nil {
		t.Fatalf("third attempt: %v", err)
	}
	if res.State != StateFinished {
		t.Fatalf("expected FINISHED, got %s", res.State)
	}

	rounds := st.rounds[iv.Snapshot().SessionID]
	if len(rounds) != 1 {
		t.Fatalf("expected exactly one persisted round, got %d", len(rounds))
	}
	if rounds[0].Answer != "A race in our cache invalidation." {
		t.Fatalf("expected the third transcript as the answer, got %q", rounds[0].Answer)
	}
}

func TestReviewMakesNoGenerationOrSpeechCalls(t *testing.T) {
	gen := &fakeGen{}
	bridge := &fakeBridge{}
	st := newFakeStore()
	st.rounds[7] = []store.Round{
		{ID: 1, SessionID: 7, Question: "Q1", Answer: "A1", Evaluation: "E1"},
		{ID: 2, SessionID: 7, Question: "Q2", Answer: "A2", Evaluation: "E2"},
	}
	iv := New(gen, bridge, st)

	rounds, err := iv.Review(context.Background(), 7)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if len(rounds) != 2 || rounds[0].Question != "Q1" || rounds[1].Question != "Q2" {
		t.Fatalf("replay does not match persisted rounds: %+v", rounds)
	}
	if iv.Snapshot().State != StateReviewing {
		t.Fatalf("expected REVIEWING, got %s", iv.Snapshot().State)
	}
	if gen.initialCalls+gen.nextCalls+gen.evalCalls+gen.reportCalls != 0 {
		t.Error("review must not call the generator")
	}
	if len(bridge.spoken) != 0 || bridge.transcribeCalls != 0 {
		t.Error("review must not call the speech bridge")
	}
}

func TestBeginWhileActiveIsRejected(t *testing.T) {
	gen := &fakeGen{questions: []string{"Q1", "Q2"}}
	iv := New(gen, &fakeBridge{}, newFakeStore())

	if _, err := iv.Begin(context.Background(), "Backend Engineer", 2); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := iv.Begin(context.Background(), "Backend Engineer", 2); !errors.Is(err, ErrInterviewActive) {
		t.Fatalf("expected ErrInterviewActive, got %v", err)
	}
}

func TestSubmitAnswerRequiresActiveQuestion(t *testing.T) {
	iv := New(&fakeGen{}, &fakeBridge{}, newFakeStore())

	if _, err := iv.SubmitAnswer(context.Background(), []byte("early")); !errors.Is(err, ErrNoActiveQuestion) {
		t.Fatalf("expected ErrNoActiveQuestion, got %v", err)
	}
}

func TestGenerationFailureSurfacesAsContent(t *testing.T) {
	gen := &fakeGen{err: errors.New("backend unreachable")}
	bridge := &fakeBridge{}
	iv := New(gen, bridge, newFakeStore())

	res, err := iv.Begin(context.Background(), "Backend Engineer", 1)
	if err != nil {
		t.Fatalf("generation failure must not abort the session: %v", err)
	}
	if res.State != StateWaitingForUser {
		t.Fatalf("expected WAITING_FOR_USER, got %s", res.State)
	}
	if !strings.Contains(res.Question, "backend unreachable") {
		t.Fatalf("expected the error text as question content, got %q", res.Question)
	}
	if len(bridge.spoken) != 1 {
		t.Fatalf("the degraded question must still be rendered, spoken=%v", bridge.spoken)
	}
}

func TestSkipRecordsPlaceholderRound(t *testing.T) {
	gen := &fakeGen{questions: []string{"Q1"}, report: "short report"}
	st := newFakeStore()
	iv := New(gen, &fakeBridge{}, st)

	if _, err := iv.Begin(context.Background(), "Data Engineer", 1); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	res, err := iv.Skip(context.Background())
	if err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if res.State != StateFinished {
		t.Fatalf("expected FINISHED after skipping the last question, got %s", res.State)
	}

	rounds := st.rounds[iv.Snapshot().SessionID]
	if len(rounds) != 1 {
		t.Fatalf("expected one skipped round, got %d", len(rounds))
	}
	if rounds[0].Answer != "" {
		t.Errorf("skipped round must have an empty answer, got %q", rounds[0].Answer)
	}
	if rounds[0].Evaluation != skippedEvaluation {
		t.Errorf("expected the placeholder evaluation, got %q", rounds[0].Evaluation)
	}
}

func TestRestartAfterFinish(t *testing.T) {
	gen := &fakeGen{questions: []string{"Q1", "Q2"}, report: "r"}
	bridge := &fakeBridge{transcripts: []string{"first answer", "second answer"}}
	st := newFakeStore()
	iv := New(gen, bridge, st)

	if _, err := iv.Begin(context.Background(), "QA Engineer", 1); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := iv.SubmitAnswer(context.Background(), []byte("a")); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	res, err := iv.Begin(context.Background(), "QA Engineer", 1)
	if err != nil {
		t.Fatalf("Begin after FINISHED: %v", err)
	}
	if res.State != StateWaitingForUser {
		t.Fatalf("expected a fresh question, got %s", res.State)
	}
	snap := iv.Snapshot()
	if snap.QuestionCount != 0 || len(snap.Rounds) != 0 || snap.Report != "" {
		t.Fatalf("per-session state must reset on Begin: %+v", snap)
	}
	if snap.SessionID == 1 {
		t.Error("a restart must create a new persisted session")
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateNotStarted:         "NOT_STARTED",
		StateGeneratingQuestion: "GENERATING_QUESTION",
		StateWaitingForUser:     "WAITING_FOR_USER",
		StateProcessingAnswer:   "PROCESSING_ANSWER",
		StateGeneratingReport:   "GENERATING_REPORT",
		StateFinished:           "FINISHED",
		StateReviewing:          "REVIEWING",
	}
	for state, want := range cases {
		if state.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", state, state.String(), want)
		}
	}
	if State(42).String() != "UNKNOWN(42)" {
		t.Errorf("unexpected unknown rendering %q", State(42).String())
	}
}
