package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/provoice/interview-agent/internal/genai"
	"github.com/provoice/interview-agent/internal/store"
)

type scriptedGen struct {
	questions []string
	qi        int
}

func (f *scriptedGen) question() string {
	if f.qi >= len(f.questions) {
		return "No more questions."
	}
	q := f.questions[f.qi]
	f.qi++
	return q
}

func (f *scriptedGen) InitialQuestion(ctx context.Context, conv *genai.Conversation, jobRole string) (string, error) {
	return f.question(), nil
}

func (f *scriptedGen) NextQuestion(ctx context.Context, conv *genai.Conversation, previousAnswer string) (string, error) {
	return f.question(), nil
}

func (f *scriptedGen) EvaluateAnswer(ctx context.Context, question, answer string) (string, error) {
	return "Score: 6/10.", nil
}

func (f *scriptedGen) FinalReport(ctx context.Context, rounds []store.Round) (string, error) {
	return "Overall a fair performance.", nil
}

type echoBridge struct{}

func (echoBridge) Speak(ctx context.Context, text string) ([]byte, error) {
	return []byte("mp3:" + text), nil
}

func (echoBridge) Transcribe(ctx context.Context, audioData []byte) (string, error) {
	return string(audioData), nil
}

type memStore struct {
	nextID   uint
	sessions []store.Session
	rounds   map[uint][]store.Round
}

func newMemStore() *memStore {
	return &memStore{rounds: make(map[uint][]store.Round)}
}

func (m *memStore) CreateSession(ctx context.Context, jobRole string) (*store.Session, error) {
	m.nextID++
	s := store.Session{ID: m.nextID, JobRole: jobRole, CreatedAt: time.Now()}
	m.sessions = append([]store.Session{s}, m.sessions...)
	return &s, nil
}

func (m *memStore) SaveRound(ctx context.Context, sessionID uint, question, answer, evaluation string) error {
	m.rounds[sessionID] = append(m.rounds[sessionID], store.Round{
		ID: uint(len(m.rounds[sessionID]) + 1), SessionID: sessionID,
		Question: question, Answer: answer, Evaluation: evaluation,
	})
	return nil
}

func (m *memStore) ListSessions(ctx context.Context) ([]store.Session, error) {
	return m.sessions, nil
}

func (m *memStore) GetRounds(ctx context.Context, sessionID uint) ([]store.Round, error) {
	return m.rounds[sessionID], nil
}

func dialGateway(t *testing.T, g *Gateway) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(g.HandleInterviewWS())
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		server.Close()
		t.Fatalf("dialing gateway: %v", err)
	}
	return conn, func() {
		conn.Close()
		server.Close()
	}
}

func send(t *testing.T, conn *websocket.Conn, msg *ClientMessage) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func receive(t *testing.T, conn *websocket.Conn) *ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg ServerMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return &msg
}

func TestInterviewOverWebSocket(t *testing.T) {
	gen := &scriptedGen{questions: []string{"Why backend engineering?", "Describe a system you built."}}
	st := newMemStore()
	g := New(gen, echoBridge{}, st)

	conn, cleanup := dialGateway(t, g)
	defer cleanup()

	send(t, conn, &ClientMessage{Type: "start", JobRole: "Backend Engineer", QuestionCount: 2})
	msg := receive(t, conn)
	if msg.Type != "question" || msg.Question != "Why backend engineering?" {
		t.Fatalf("expected first question event, got %+v", msg)
	}
	if msg.State != "WAITING_FOR_USER" {
		t.Errorf("unexpected state %q", msg.State)
	}
	if audio, _ := base64.StdEncoding.DecodeString(msg.Audio); string(audio) != "mp3:Why backend engineering?" {
		t.Errorf("expected synthesized audio for the question, got %q", msg.Audio)
	}

	answer := base64.StdEncoding.EncodeToString([]byte("I like building APIs."))
	send(t, conn, &ClientMessage{Type: "answer", Audio: answer})
	if msg = receive(t, conn); msg.Type != "feedback" || msg.Answer != "I like building APIs." {
		t.Fatalf("expected feedback event, got %+v", msg)
	}
	if msg = receive(t, conn); msg.Type != "question" || msg.Question != "Describe a system you built." {
		t.Fatalf("expected second question event, got %+v", msg)
	}

	answer = base64.StdEncoding.EncodeToString([]byte("A payment pipeline."))
	send(t, conn, &ClientMessage{Type: "answer", Audio: answer})
	if msg = receive(t, conn); msg.Type != "feedback" {
		t.Fatalf("expected feedback event, got %+v", msg)
	}
	if msg = receive(t, conn); msg.Type != "report" || msg.State != "FINISHED" {
		t.Fatalf("expected report event, got %+v", msg)
	}

	if rounds := st.rounds[1]; len(rounds) != 2 {
		t.Fatalf("expected 2 persisted rounds, got %d", len(rounds))
	}
}

func TestSnapshotBetweenTransitions(t *testing.T) {
	gen := &scriptedGen{questions: []string{"First question?"}}
	g := New(gen, echoBridge{}, newMemStore())

	conn, cleanup := dialGateway(t, g)
	defer cleanup()

	send(t, conn, &ClientMessage{Type: "start", JobRole: "SRE", QuestionCount: 1})
	receive(t, conn)

	send(t, conn, &ClientMessage{Type: "snapshot"})
	msg := receive(t, conn)
	if msg.Type != "snapshot" || msg.Snapshot == nil {
		t.Fatalf("expected snapshot event, got %+v", msg)
	}
	if msg.Snapshot.CurrentQuestion != "First question?" || msg.Snapshot.TargetCount != 1 {
		t.Fatalf("unexpected snapshot %+v", msg.Snapshot)
	}
}

func TestAnswerBeforeStartIsAnError(t *testing.T) {
	g := New(&scriptedGen{}, echoBridge{}, newMemStore())

	conn, cleanup := dialGateway(t, g)
	defer cleanup()

	send(t, conn, &ClientMessage{Type: "answer", Audio: ""})
	if msg := receive(t, conn); msg.Type != "error" {
		t.Fatalf("expected error event, got %+v", msg)
	}
}

func TestReviewOverWebSocket(t *testing.T) {
	st := newMemStore()
	st.rounds[3] = []store.Round{
		{ID: 1, SessionID: 3, Question: "Q1", Answer: "A1", Evaluation: "E1"},
	}
	g := New(&scriptedGen{}, echoBridge{}, st)

	conn, cleanup := dialGateway(t, g)
	defer cleanup()

	send(t, conn, &ClientMessage{Type: "review", SessionID: 3})
	msg := receive(t, conn)
	if msg.Type != "rounds" || len(msg.Rounds) != 1 || msg.Rounds[0].Question != "Q1" {
		t.Fatalf("expected replayed rounds, got %+v", msg)
	}
	if msg.State != "REVIEWING" {
		t.Errorf("unexpected state %q", msg.State)
	}
}

func TestReviewAPI(t *testing.T) {
	st := newMemStore()
	st.CreateSession(context.Background(), "Backend Engineer")
	st.CreateSession(context.Background(), "Data Engineer")
	st.SaveRound(context.Background(), 1, "Q1", "A1", "E1")
	st.SaveRound(context.Background(), 1, "Q2", "A2", "E2")
	g := New(&scriptedGen{}, echoBridge{}, st)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /sessions", g.HandleListSessions())
	mux.HandleFunc("GET /sessions/{id}/rounds", g.HandleGetRounds())
	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := http.Get(server.URL + "/sessions")
	if err != nil {
		t.Fatalf("GET /sessions: %v", err)
	}
	var sessions []store.Session
	if err := json.NewDecoder(resp.Body).Decode(&sessions); err != nil {
		t.Fatalf("decoding sessions: %v", err)
	}
	resp.Body.Close()
	if len(sessions) != 2 || sessions[0].JobRole != "Data Engineer" {
		t.Fatalf("expected most recent session first, got %+v", sessions)
	}

	resp, err = http.Get(server.URL + "/sessions/1/rounds")
	if err != nil {
		t.Fatalf("GET rounds: %v", err)
	}
	var rounds []store.Round
	if err := json.NewDecoder(resp.Body).Decode(&rounds); err != nil {
		t.Fatalf("decoding rounds: %v", err)
	}
	resp.Body.Close()
	if len(rounds) != 2 || rounds[0].Question != "Q1" || rounds[1].Question != "Q2" {
		t.Fatalf("expected rounds in insertion order, got %+v", rounds)
	}

	resp, _ = http.Get(server.URL + "/sessions/not-a-number/rounds")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad id, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
