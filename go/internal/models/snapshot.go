package models

import (
	"time"

	"github.com/google/uuid"
)

// LeaderboardEntry is one row of a rank-ordered word leaderboard. Handle
// and AvatarURL are hydrated best-effort and may be empty.
type LeaderboardEntry struct {
	Word      string    `json:"word"`
	BestRank  int       `json:"best_rank"`
	Claimant  string    `json:"claimant"`
	Handle    string    `json:"handle,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	FirstSeen time.Time `json:"first_seen"`
}

// TopGuesser is one row of the per-challenge guess-count leaderboard.
type TopGuesser struct {
	ParticipantID string `json:"participant_id"`
	Handle        string `json:"handle,omitempty"`
	GuessCount    int64  `json:"guess_count"`
}

// Snapshot is the broadcastable view of a challenge's current state,
// published after every state-changing operation and served by the read
// API. Consumers must tolerate missed or duplicated snapshots.
type Snapshot struct {
	ChallengeID     uuid.UUID          `json:"challenge_id"`
	ChallengeNumber int64              `json:"challenge_number"`
	Status          ChallengeStatus    `json:"status"`
	CurrentWave     int                `json:"current_wave"`
	WaveCount       int                `json:"wave_count"`
	TotalPlayers    int64              `json:"total_players"`
	TotalGuesses    int64              `json:"total_guesses"`
	TimeRemainingMs int64              `json:"time_remaining_ms"`
	WaveClears      []WaveClear        `json:"wave_clears"`
	TopWords        []LeaderboardEntry `json:"top_words"`
	TopGuessers     []TopGuesser       `json:"top_guessers"`
	TakenAt         time.Time          `json:"taken_at"`
}
