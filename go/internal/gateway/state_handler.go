package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hordle/horde/go/internal/challenge"
	"github.com/hordle/horde/go/internal/models"
)

// SnapshotSource builds the broadcastable view of a challenge.
type SnapshotSource interface {
	Build(ctx context.Context, challengeID uuid.UUID) (*models.Snapshot, error)
}

// ChallengeFinder locates challenges for the read endpoints.
type ChallengeFinder interface {
	ListChallengesByStatus(ctx context.Context, status models.ChallengeStatus) ([]uuid.UUID, error)
}

// StateHandler handles HTTP requests for challenge state
type StateHandler struct {
	snapshots  SnapshotSource
	challenges ChallengeFinder
}

// NewStateHandler creates a new state handler
func NewStateHandler(snapshots SnapshotSource, challenges ChallengeFinder) *StateHandler {
	return &StateHandler{
		snapshots:  snapshots,
		challenges: challenges,
	}
}

// HandleGetChallengeState handles GET /api/challenges/{id}/state
func (h *StateHandler) HandleGetChallengeState(w http.ResponseWriter, r *http.Request) {
	challengeID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid challenge id")
		return
	}

	snap, err := h.snapshots.Build(r.Context(), challengeID)
	if err != nil {
		if errors.Is(err, challenge.ErrNotFound) {
			writeError(w, http.StatusNotFound, "CHALLENGE_NOT_FOUND", "challenge not found")
			return
		}
		log.Error().Err(err).Str("challenge_id", challengeID.String()).Msg("failed to build challenge snapshot")
		writeError(w, http.StatusInternalServerError, "STORE_UNAVAILABLE", "failed to load challenge state")
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// HandleGetCurrentChallenge handles GET /api/challenges/current
func (h *StateHandler) HandleGetCurrentChallenge(w http.ResponseWriter, r *http.Request) {
	ids, err := h.challenges.ListChallengesByStatus(r.Context(), models.ChallengeStatusRunning)
	if err != nil {
		log.Error().Err(err).Msg("failed to list running challenges")
		writeError(w, http.StatusInternalServerError, "STORE_UNAVAILABLE", "failed to list challenges")
		return
	}
	if len(ids) == 0 {
		writeError(w, http.StatusNotFound, "CHALLENGE_NOT_FOUND", "no running challenge")
		return
	}

	snap, err := h.snapshots.Build(r.Context(), ids[0])
	if err != nil {
		log.Error().Err(err).Str("challenge_id", ids[0].String()).Msg("failed to build challenge snapshot")
		writeError(w, http.StatusInternalServerError, "STORE_UNAVAILABLE", "failed to load challenge state")
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
