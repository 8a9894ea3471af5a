package guess

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hordle/horde/go/internal/models"
)

type stateKey struct {
	challengeID   uuid.UUID
	participantID string
}

type memState struct {
	startedAt *time.Time
	gaveUpAt  *time.Time
	guesses   []models.Guess
	seen      map[guessKey]struct{}
}

type guessKey struct {
	wave int
	word string
}

// MemoryHistoryRepository is an in-memory HistoryRepository for tests and
// single-process deployments.
type MemoryHistoryRepository struct {
	mu     sync.Mutex
	states map[stateKey]*memState
}

func NewMemoryHistoryRepository() *MemoryHistoryRepository {
	return &MemoryHistoryRepository{states: make(map[stateKey]*memState)}
}

func (r *MemoryHistoryRepository) state(challengeID uuid.UUID, participantID string) *memState {
	key := stateKey{challengeID: challengeID, participantID: participantID}
	st, ok := r.states[key]
	if !ok {
		st = &memState{seen: make(map[guessKey]struct{})}
		r.states[key] = st
	}
	return st
}

func (r *MemoryHistoryRepository) AppendGuess(_ context.Context, challengeID uuid.UUID, participantID string, g models.Guess) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.state(challengeID, participantID)
	key := guessKey{wave: g.Wave, word: g.Word}
	if _, ok := st.seen[key]; ok {
		return fmt.Errorf("%w: %q in wave %d", ErrDuplicateGuess, g.Word, g.Wave)
	}
	st.seen[key] = struct{}{}
	st.guesses = append(st.guesses, g)
	return nil
}

func (r *MemoryHistoryRepository) MarkStarted(_ context.Context, challengeID uuid.UUID, participantID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.state(challengeID, participantID)
	if st.startedAt != nil {
		return false, nil
	}
	t := at
	st.startedAt = &t
	return true, nil
}

func (r *MemoryHistoryRepository) MarkGaveUp(_ context.Context, challengeID uuid.UUID, participantID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.state(challengeID, participantID)
	if st.gaveUpAt != nil {
		return false, nil
	}
	t := at
	st.gaveUpAt = &t
	return true, nil
}

func (r *MemoryHistoryRepository) GetUserState(_ context.Context, challengeID uuid.UUID, participantID string) (*models.UserChallengeState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := &models.UserChallengeState{
		ChallengeID:   challengeID,
		ParticipantID: participantID,
	}
	st, ok := r.states[stateKey{challengeID: challengeID, participantID: participantID}]
	if !ok {
		return state, nil
	}
	if st.startedAt != nil {
		t := *st.startedAt
		state.StartedAt = &t
	}
	if st.gaveUpAt != nil {
		t := *st.gaveUpAt
		state.GaveUpAt = &t
	}
	state.Guesses = append([]models.Guess(nil), st.guesses...)
	return state, nil
}
