package challenge

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no challenge exists for the given ID.
var ErrNotFound = errors.New("challenge not found")

// CreateChallengeRequest represents a request to create a new challenge.
// The word list is immutable after creation.
type CreateChallengeRequest struct {
	ID          uuid.UUID     `json:"id"`
	Words       []string      `json:"words"`
	InitialTime time.Duration `json:"initial_time_ms"`
}
