package challenge

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hordle/horde/go/internal/models"
)

// MemoryRepository keeps challenges in process, guarded by one mutex per
// challenge. It offers the same per-operation atomicity as the Postgres
// store and nothing stronger, so the claim algorithm is exercised under
// identical guarantees.
type MemoryRepository struct {
	mu         sync.RWMutex
	challenges map[uuid.UUID]*memChallenge
	nextNumber int64
}

type memChallenge struct {
	mu sync.Mutex
	ch models.Challenge
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{challenges: make(map[uuid.UUID]*memChallenge)}
}

func (m *MemoryRepository) CreateChallenge(_ context.Context, req CreateChallengeRequest) (*models.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextNumber++
	now := time.Now()
	mc := &memChallenge{
		ch: models.Challenge{
			ID:            req.ID,
			Number:        m.nextNumber,
			Words:         append([]string(nil), req.Words...),
			Winners:       make([]string, len(req.Words)),
			CurrentWave:   1,
			TimeRemaining: req.InitialTime,
			LastTick:      now,
			Status:        models.ChallengeStatusRunning,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
	m.challenges[req.ID] = mc

	snapshot := cloneChallenge(&mc.ch)
	return snapshot, nil
}

func (m *MemoryRepository) GetChallenge(_ context.Context, id uuid.UUID) (*models.Challenge, error) {
	mc, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return cloneChallenge(&mc.ch), nil
}

func (m *MemoryRepository) ListChallengesByStatus(_ context.Context, status models.ChallengeStatus) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type numbered struct {
		id     uuid.UUID
		number int64
	}
	var matches []numbered
	for id, mc := range m.challenges {
		mc.mu.Lock()
		if mc.ch.Status == status {
			matches = append(matches, numbered{id: id, number: mc.ch.Number})
		}
		mc.mu.Unlock()
	}
	// Stable order by challenge number, matching the SQL store.
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].number < matches[j-1].number; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
	ids := make([]uuid.UUID, len(matches))
	for i, mtc := range matches {
		ids[i] = mtc.id
	}
	return ids, nil
}

func (m *MemoryRepository) IncrementPlayers(_ context.Context, id uuid.UUID) error {
	mc, err := m.lookup(id)
	if err != nil {
		return err
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.ch.TotalPlayers++
	mc.ch.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryRepository) IncrementGuesses(_ context.Context, id uuid.UUID) error {
	mc, err := m.lookup(id)
	if err != nil {
		return err
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.ch.TotalGuesses++
	mc.ch.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryRepository) AdvanceWave(_ context.Context, id uuid.UUID, wave int) error {
	mc, err := m.lookup(id)
	if err != nil {
		return err
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if mc.ch.CurrentWave < wave {
		mc.ch.CurrentWave = wave
		mc.ch.UpdatedAt = time.Now()
	}
	return nil
}

func (m *MemoryRepository) CreditTime(_ context.Context, id uuid.UUID, delta time.Duration) (time.Duration, error) {
	mc, err := m.lookup(id)
	if err != nil {
		return 0, err
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.ch.TimeRemaining += delta
	if mc.ch.TimeRemaining < 0 {
		mc.ch.TimeRemaining = 0
	}
	mc.ch.UpdatedAt = time.Now()
	return mc.ch.TimeRemaining, nil
}

func (m *MemoryRepository) TickTime(_ context.Context, id uuid.UUID, now time.Time) (time.Duration, bool, error) {
	mc, err := m.lookup(id)
	if err != nil {
		return 0, false, err
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.ch.Status != models.ChallengeStatusRunning {
		return mc.ch.TimeRemaining, false, nil
	}

	elapsed := now.Sub(mc.ch.LastTick)
	if elapsed < 0 {
		// Tolerate clock skew and out-of-order ticks.
		elapsed = 0
	}
	mc.ch.TimeRemaining -= elapsed
	if mc.ch.TimeRemaining < 0 {
		mc.ch.TimeRemaining = 0
	}
	mc.ch.LastTick = now
	mc.ch.UpdatedAt = time.Now()
	return mc.ch.TimeRemaining, true, nil
}

func (m *MemoryRepository) ClaimWinner(_ context.Context, id uuid.UUID, wave int, claimant string) (bool, error) {
	mc, err := m.lookup(id)
	if err != nil {
		return false, err
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if wave < 1 || wave > len(mc.ch.Winners) {
		return false, nil
	}
	if mc.ch.Winners[wave-1] != "" {
		return false, nil
	}
	mc.ch.Winners[wave-1] = claimant
	mc.ch.UpdatedAt = time.Now()
	return true, nil
}

func (m *MemoryRepository) AppendWaveClear(_ context.Context, id uuid.UUID, entry models.WaveClear) error {
	mc, err := m.lookup(id)
	if err != nil {
		return err
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for _, wc := range mc.ch.WaveClears {
		if wc.Wave == entry.Wave {
			return nil
		}
	}
	// Insert keeping wave order.
	i := len(mc.ch.WaveClears)
	for i > 0 && mc.ch.WaveClears[i-1].Wave > entry.Wave {
		i--
	}
	mc.ch.WaveClears = append(mc.ch.WaveClears, models.WaveClear{})
	copy(mc.ch.WaveClears[i+1:], mc.ch.WaveClears[i:])
	mc.ch.WaveClears[i] = entry
	mc.ch.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryRepository) SetStatus(_ context.Context, id uuid.UUID, status models.ChallengeStatus) (bool, error) {
	mc, err := m.lookup(id)
	if err != nil {
		return false, err
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.ch.Status != models.ChallengeStatusRunning {
		return false, nil
	}
	mc.ch.Status = status
	mc.ch.UpdatedAt = time.Now()
	return true, nil
}

func (m *MemoryRepository) lookup(id uuid.UUID) (*memChallenge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mc, ok := m.challenges[id]
	if !ok {
		return nil, ErrNotFound
	}
	return mc, nil
}

func cloneChallenge(ch *models.Challenge) *models.Challenge {
	out := *ch
	out.Words = append([]string(nil), ch.Words...)
	out.Winners = append([]string(nil), ch.Winners...)
	out.WaveClears = append([]models.WaveClear(nil), ch.WaveClears...)
	return &out
}
