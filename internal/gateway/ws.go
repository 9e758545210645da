// Package gateway exposes the interview over HTTP: a WebSocket endpoint
// where each inbound message drives one session transition, and a read-only
// REST surface for reviewing persisted sessions.
package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/provoice/interview-agent/internal/observability"
	"github.com/provoice/interview-agent/internal/session"
	"github.com/provoice/interview-agent/internal/store"
)

var upgrader = websocket.Upgrader{
	// The gateway fronts a browser UI; origin policy is left to the deployment.
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// ClientMessage is one command from the client. Type selects the transition.
type ClientMessage struct {
	Type          string `json:"type"` // start | answer | skip | review | snapshot
	JobRole       string `json:"job_role,omitempty"`
	QuestionCount int    `json:"question_count,omitempty"`
	Audio         string `json:"audio,omitempty"` // base64 captured answer
	SessionID     uint   `json:"session_id,omitempty"`
}

// ServerMessage is one event emitted back to the client. Audio carries the
// synthesized MP3 of the spoken line, base64-encoded, empty in degraded mode.
type ServerMessage struct {
	Type       string            `json:"type"` // question | feedback | notice | report | rounds | snapshot | error
	State      string            `json:"state,omitempty"`
	Question   string            `json:"question,omitempty"`
	Answer     string            `json:"answer,omitempty"`
	Evaluation string            `json:"evaluation,omitempty"`
	Notice     string            `json:"notice,omitempty"`
	Report     string            `json:"report,omitempty"`
	Audio      string            `json:"audio,omitempty"`
	Rounds     []store.Round     `json:"rounds,omitempty"`
	Snapshot   *session.Snapshot `json:"snapshot,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Gateway wires the session collaborators into HTTP handlers.
type Gateway struct {
	gen         session.QuestionGenerator
	speech      session.SpeechBridge
	transcripts store.TranscriptStore
	log         zerolog.Logger
}

// New creates the gateway.
func New(gen session.QuestionGenerator, bridge session.SpeechBridge, transcripts store.TranscriptStore) *Gateway {
	return &Gateway{
		gen:         gen,
		speech:      bridge,
		transcripts: transcripts,
		log:         observability.GetLogger().With().Str("component", "gateway").Logger(),
	}
}

// HandleInterviewWS upgrades the connection and runs one interview session
// over it. The session lives exactly as long as the connection.
func (g *Gateway) HandleInterviewWS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			g.log.Error().Err(err).Msg("WebSocket upgrade failed")
			return
		}
		defer conn.Close()

		iv := session.New(g.gen, g.speech, g.transcripts)
		g.log.Info().Str("remote", r.RemoteAddr).Msg("Interview connection established")

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					g.log.Warn().Err(err).Msg("WebSocket read error")
				}
				return
			}

			var msg ClientMessage
			if err := json.Unmarshal(message, &msg); err != nil {
				g.writeError(conn, "malformed message")
				continue
			}
			g.dispatch(r.Context(), conn, iv, &msg)
		}
	}
}

func (g *Gateway) dispatch(ctx context.Context, conn *websocket.Conn, iv *session.Interview, msg *ClientMessage) {
	switch msg.Type {
	case "start":
		count := msg.QuestionCount
		if count < 1 {
			count = 3
		}
		res, err := iv.Begin(ctx, msg.JobRole, count)
		if err != nil {
			g.writeError(conn, err.Error())
			return
		}
		g.writeTurn(conn, res)

	case "answer":
		audio, err := base64.StdEncoding.DecodeString(msg.Audio)
		if err != nil {
			g.writeError(conn, "malformed audio payload")
			return
		}
		res, err := iv.SubmitAnswer(ctx, audio)
		if err != nil {
			g.writeError(conn, err.Error())
			return
		}
		g.writeTurn(conn, res)

	case "skip":
		res, err := iv.Skip(ctx)
		if err != nil {
			g.writeError(conn, err.Error())
			return
		}
		g.writeTurn(conn, res)

	case "review":
		rounds, err := iv.Review(ctx, msg.SessionID)
		if err != nil {
			g.writeError(conn, err.Error())
			return
		}
		g.write(conn, &ServerMessage{Type: "rounds", State: iv.Snapshot().State.String(), Rounds: rounds})

	case "snapshot":
		snap := iv.Snapshot()
		g.write(conn, &ServerMessage{Type: "snapshot", State: snap.State.String(), Snapshot: &snap})

	default:
		g.writeError(conn, "unknown message type: "+msg.Type)
	}
}

// writeTurn renders one TurnResult as protocol events: feedback for the
// completed round (if any), then the next question, retry notice or report.
func (g *Gateway) writeTurn(conn *websocket.Conn, res *session.TurnResult) {
	state := res.State.String()
	audio := base64.StdEncoding.EncodeToString(res.Audio)

	if res.Evaluation != "" {
		g.write(conn, &ServerMessage{
			Type:       "feedback",
			State:      state,
			Answer:     res.Answer,
			Evaluation: res.Evaluation,
		})
	}

	switch {
	case res.Retry:
		g.write(conn, &ServerMessage{
			Type:     "notice",
			State:    state,
			Notice:   res.Notice,
			Question: res.Question,
			Audio:    audio,
		})
	case res.Report != "":
		g.write(conn, &ServerMessage{
			Type:   "report",
			State:  state,
			Report: res.Report,
			Audio:  audio,
		})
	default:
		g.write(conn, &ServerMessage{
			Type:     "question",
			State:    state,
			Question: res.Question,
			Audio:    audio,
		})
	}
}

func (g *Gateway) write(conn *websocket.Conn, msg *ServerMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		g.log.Warn().Err(err).Msg("WebSocket write failed")
	}
}

func (g *Gateway) writeError(conn *websocket.Conn, text string) {
	g.write(conn, &ServerMessage{Type: "error", Error: text})
}
