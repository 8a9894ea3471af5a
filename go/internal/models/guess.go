package models

import (
	"time"

	"github.com/google/uuid"
)

// Guess is one recorded guess in a participant's history.
type Guess struct {
	Word       string    `json:"word"`
	Rank       int       `json:"rank"`
	Similarity float64   `json:"similarity"`
	Wave       int       `json:"wave"`
	IsHint     bool      `json:"is_hint"`
	GuessedAt  time.Time `json:"guessed_at"`
}

// Exact reports whether the guess matched the secret word exactly.
func (g Guess) Exact() bool {
	return g.Similarity == 1
}

// UserChallengeState is a participant's per-challenge record, created
// lazily on their first guess.
type UserChallengeState struct {
	ChallengeID   uuid.UUID  `json:"challenge_id"`
	ParticipantID string     `json:"participant_id"`
	Guesses       []Guess    `json:"guesses"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	GaveUpAt      *time.Time `json:"gave_up_at,omitempty"`
}

// DisplayInfo is best-effort participant metadata from the identity
// directory.
type DisplayInfo struct {
	Handle    string `json:"handle"`
	AvatarURL string `json:"avatar_url,omitempty"`
}
