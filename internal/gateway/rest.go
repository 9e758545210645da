package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// HandleListSessions serves the persisted session index, most recent first.
func (g *Gateway) HandleListSessions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, err := g.transcripts.ListSessions(r.Context())
		if err != nil {
			g.log.Error().Err(err).Msg("Failed to list sessions")
			http.Error(w, "storage unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, sessions)
	}
}

// HandleGetRounds serves the rounds of one session in insertion order.
func (g *Gateway) HandleGetRounds() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
		if err != nil {
			http.Error(w, "invalid session id", http.StatusBadRequest)
			return
		}

		rounds, err := g.transcripts.GetRounds(r.Context(), uint(id))
		if err != nil {
			g.log.Error().Err(err).Uint64("session_id", id).Msg("Failed to load rounds")
			http.Error(w, "storage unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, rounds)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
