package wordqueue

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidWordSet is returned when a word set fails schema validation.
// Storage is never touched on a validation failure.
var ErrInvalidWordSet = errors.New("invalid word set")

// WordSet is one queued wave-word list for a future challenge.
type WordSet struct {
	Words []string `json:"words"`
}

// Validate checks the word set schema: at least one word, no empty or
// whitespace-only entries.
func (s WordSet) Validate() error {
	if len(s.Words) == 0 {
		return fmt.Errorf("%w: word set must contain at least one word", ErrInvalidWordSet)
	}
	for i, w := range s.Words {
		if strings.TrimSpace(w) == "" {
			return fmt.Errorf("%w: word at index %d is empty", ErrInvalidWordSet, i)
		}
	}
	return nil
}

func validateSets(sets []WordSet) error {
	for i, set := range sets {
		if err := set.Validate(); err != nil {
			return fmt.Errorf("set %d: %w", i, err)
		}
	}
	return nil
}
