package gateway

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for challenge
// snapshot feeds
type WebSocketHandler struct {
	connectionManager *ConnectionManager
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
	}
}

// HandleChallengeConnection handles WebSocket connections for a specific challenge
func (h *WebSocketHandler) HandleChallengeConnection(w http.ResponseWriter, r *http.Request) {
	challengeIDStr := r.URL.Query().Get("challenge_id")
	if challengeIDStr == "" {
		http.Error(w, "challenge_id is required", http.StatusBadRequest)
		return
	}

	challengeID, err := uuid.Parse(challengeIDStr)
	if err != nil {
		http.Error(w, "invalid challenge_id format", http.StatusBadRequest)
		return
	}

	// In production this would come from a session or token
	participantID := r.URL.Query().Get("participant_id")
	if participantID == "" {
		participantID = "anonymous"
	}

	if err := h.connectionManager.UpgradeConnection(w, r, participantID, challengeID); err != nil {
		log.Error().
			Err(err).
			Str("challenge_id", challengeID.String()).
			Str("participant_id", participantID).
			Msg("failed to upgrade WebSocket connection")
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
		return
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	total, challenges := h.connectionManager.GetConnectionStats()
	writeJSON(w, http.StatusOK, map[string]int{
		"total_connections": total,
		"active_challenges": challenges,
	})
}
