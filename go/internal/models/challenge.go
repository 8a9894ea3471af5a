package models

import (
	"time"

	"github.com/google/uuid"
)

// ChallengeStatus defines the lifecycle state of a challenge.
type ChallengeStatus string

const (
	ChallengeStatusRunning ChallengeStatus = "RUNNING"
	ChallengeStatusLost    ChallengeStatus = "LOST"
	ChallengeStatusWon     ChallengeStatus = "WON"
)

// Terminal reports whether the status can never transition again.
func (s ChallengeStatus) Terminal() bool {
	return s == ChallengeStatusLost || s == ChallengeStatusWon
}

// WaveClear is one entry of the append-only wave clear log.
type WaveClear struct {
	Wave      int       `json:"wave"`
	Claimant  string    `json:"claimant"`
	Word      string    `json:"word"`
	ClearedAt time.Time `json:"cleared_at"`
}

// Challenge represents one running horde game instance. The word list is
// fixed at creation; everything else mutates under concurrent guess traffic.
type Challenge struct {
	ID     uuid.UUID `json:"id"`
	Number int64     `json:"number"`

	// Words holds one secret word per wave; index 0 is wave 1.
	Words []string `json:"words"`

	// Winners is parallel to Words. An empty slot means the wave is
	// unclaimed; at most one write per slot ever succeeds.
	Winners []string `json:"winners"`

	WaveClears []WaveClear `json:"wave_clears"`

	TotalPlayers int64 `json:"total_players"`
	TotalGuesses int64 `json:"total_guesses"`

	// CurrentWave is the active wave, always >= 1. Wave i is cleared
	// exactly when Winners[i-1] is non-empty.
	CurrentWave int `json:"current_wave"`

	TimeRemaining time.Duration `json:"time_remaining_ms"`
	LastTick      time.Time     `json:"last_tick"`

	Status ChallengeStatus `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SecretWord returns the secret word for the given wave, or false if the
// wave is out of range.
func (c *Challenge) SecretWord(wave int) (string, bool) {
	if wave < 1 || wave > len(c.Words) {
		return "", false
	}
	return c.Words[wave-1], true
}

// WaveCount returns the number of waves in the challenge.
func (c *Challenge) WaveCount() int {
	return len(c.Words)
}
