package guess

import (
	"errors"

	"github.com/google/uuid"
)

// ErrDuplicateGuess is returned when a participant re-submits a word they
// already guessed in the same wave. The caller can safely ignore it.
var ErrDuplicateGuess = errors.New("duplicate guess")

// ErrInvalidGuess is returned when a guess payload fails validation
// before any mutation.
var ErrInvalidGuess = errors.New("invalid guess")

// ErrChallengeOver is returned when the challenge is already WON or
// LOST. A terminal challenge is read-only history; no counters, history
// rows, or leaderboard entries change after it ends.
var ErrChallengeOver = errors.New("challenge is over")

// GuessInput is one guess of a batch, already scored by the similarity
// oracle.
type GuessInput struct {
	Word       string  `json:"word"`
	Rank       int     `json:"rank"`
	Similarity float64 `json:"similarity"`
	IsHint     bool    `json:"is_hint"`
}

// SubmitGuessesRequest represents one participant's guess batch. Wave is
// the wave in effect when the guesses were issued, passed explicitly so a
// concurrent wave advance is detected instead of silently re-targeted.
type SubmitGuessesRequest struct {
	ChallengeID   uuid.UUID    `json:"challenge_id"`
	ParticipantID string       `json:"participant_id"`
	Wave          int          `json:"wave"`
	Guesses       []GuessInput `json:"guesses"`
}
