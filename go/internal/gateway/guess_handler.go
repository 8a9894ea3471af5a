package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hordle/horde/go/internal/challenge"
	"github.com/hordle/horde/go/internal/guess"
	"github.com/hordle/horde/go/internal/models"
	"github.com/hordle/horde/go/internal/oracle"
)

// GuessProcessor applies scored guess batches.
type GuessProcessor interface {
	SubmitGuesses(ctx context.Context, req guess.SubmitGuessesRequest) (*models.Snapshot, error)
	GiveUp(ctx context.Context, challengeID uuid.UUID, participantID string) error
	GetUserState(ctx context.Context, challengeID uuid.UUID, participantID string) (*models.UserChallengeState, error)
}

// ChallengeReader fetches challenges for secret-word lookup.
type ChallengeReader interface {
	GetChallenge(ctx context.Context, id uuid.UUID) (*models.Challenge, error)
}

// GuessHandler handles HTTP requests for guess submission. Raw words are
// scored against the wave's secret via the oracle before the batch is
// handed to the processor.
type GuessHandler struct {
	processor  GuessProcessor
	challenges ChallengeReader
	oracle     oracle.Oracle
}

// NewGuessHandler creates a new guess handler
func NewGuessHandler(processor GuessProcessor, challenges ChallengeReader, o oracle.Oracle) *GuessHandler {
	return &GuessHandler{
		processor:  processor,
		challenges: challenges,
		oracle:     o,
	}
}

type submitGuessesBody struct {
	ParticipantID string      `json:"participant_id"`
	Wave          int         `json:"wave"`
	Guesses       []guessBody `json:"guesses"`
}

type guessBody struct {
	Word   string `json:"word"`
	IsHint bool   `json:"is_hint"`
}

type giveUpBody struct {
	ParticipantID string `json:"participant_id"`
}

// HandleSubmitGuesses handles POST /api/challenges/{id}/guesses
func (h *GuessHandler) HandleSubmitGuesses(w http.ResponseWriter, r *http.Request) {
	challengeID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid challenge id")
		return
	}

	var body submitGuessesBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body")
		return
	}
	if body.ParticipantID == "" || body.Wave < 1 || len(body.Guesses) == 0 {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "participant_id, wave and guesses are required")
		return
	}

	ch, err := h.challenges.GetChallenge(r.Context(), challengeID)
	if err != nil {
		if errors.Is(err, challenge.ErrNotFound) {
			writeError(w, http.StatusNotFound, "CHALLENGE_NOT_FOUND", "challenge not found")
			return
		}
		log.Error().Err(err).Str("challenge_id", challengeID.String()).Msg("failed to get challenge")
		writeError(w, http.StatusInternalServerError, "STORE_UNAVAILABLE", "failed to load challenge")
		return
	}

	secret, ok := ch.SecretWord(body.Wave)
	if !ok {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "wave out of range")
		return
	}

	inputs := make([]guess.GuessInput, 0, len(body.Guesses))
	for _, g := range body.Guesses {
		word := strings.TrimSpace(strings.ToLower(g.Word))
		if word == "" {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "empty word in batch")
			return
		}

		result, err := h.oracle.Rank(r.Context(), word, secret)
		if err != nil {
			log.Error().
				Err(err).
				Str("challenge_id", challengeID.String()).
				Str("word", word).
				Msg("oracle ranking failed")
			writeError(w, http.StatusBadGateway, "ORACLE_UNAVAILABLE", "failed to score guess")
			return
		}

		inputs = append(inputs, guess.GuessInput{
			Word:       word,
			Rank:       result.Rank,
			Similarity: result.Similarity,
			IsHint:     g.IsHint,
		})
	}

	snap, err := h.processor.SubmitGuesses(r.Context(), guess.SubmitGuessesRequest{
		ChallengeID:   challengeID,
		ParticipantID: body.ParticipantID,
		Wave:          body.Wave,
		Guesses:       inputs,
	})
	if err != nil {
		switch {
		case errors.Is(err, guess.ErrDuplicateGuess):
			writeError(w, http.StatusConflict, "DUPLICATE_GUESS", "word already guessed in this wave")
		case errors.Is(err, guess.ErrChallengeOver):
			writeError(w, http.StatusConflict, "CHALLENGE_OVER", "challenge has already ended")
		case errors.Is(err, guess.ErrInvalidGuess):
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		case errors.Is(err, challenge.ErrNotFound):
			writeError(w, http.StatusNotFound, "CHALLENGE_NOT_FOUND", "challenge not found")
		default:
			log.Error().Err(err).Str("challenge_id", challengeID.String()).Msg("failed to process guesses")
			writeError(w, http.StatusInternalServerError, "STORE_UNAVAILABLE", "failed to process guesses")
		}
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// HandleGiveUp handles POST /api/challenges/{id}/give-up
func (h *GuessHandler) HandleGiveUp(w http.ResponseWriter, r *http.Request) {
	challengeID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid challenge id")
		return
	}

	var body giveUpBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ParticipantID == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "participant_id is required")
		return
	}

	if err := h.processor.GiveUp(r.Context(), challengeID, body.ParticipantID); err != nil {
		if errors.Is(err, challenge.ErrNotFound) {
			writeError(w, http.StatusNotFound, "CHALLENGE_NOT_FOUND", "challenge not found")
			return
		}
		if errors.Is(err, guess.ErrChallengeOver) {
			writeError(w, http.StatusConflict, "CHALLENGE_OVER", "challenge has already ended")
			return
		}
		log.Error().Err(err).Str("challenge_id", challengeID.String()).Msg("failed to give up")
		writeError(w, http.StatusInternalServerError, "STORE_UNAVAILABLE", "failed to give up")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleGetUserState handles GET /api/challenges/{id}/participants/{participant_id}
func (h *GuessHandler) HandleGetUserState(w http.ResponseWriter, r *http.Request) {
	challengeID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid challenge id")
		return
	}
	participantID := r.PathValue("participant_id")
	if participantID == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "participant id is required")
		return
	}

	state, err := h.processor.GetUserState(r.Context(), challengeID, participantID)
	if err != nil {
		log.Error().Err(err).Str("challenge_id", challengeID.String()).Msg("failed to get user state")
		writeError(w, http.StatusInternalServerError, "STORE_UNAVAILABLE", "failed to load participant state")
		return
	}

	writeJSON(w, http.StatusOK, state)
}
