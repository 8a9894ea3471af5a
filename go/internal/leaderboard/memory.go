package leaderboard

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hordle/horde/go/internal/models"
)

type rankKey struct {
	challenge uuid.UUID
	wave      int
	word      string
}

type authorKey struct {
	challenge   uuid.UUID
	word        string
	participant string
}

type countKey struct {
	challenge   uuid.UUID
	participant string
}

type rankEntry struct {
	bestRank  int
	claimant  string
	firstSeen time.Time
}

// MemoryRepository is the in-process leaderboard store for
// single-process deployments and tests.
type MemoryRepository struct {
	mu      sync.Mutex
	ranks   map[rankKey]rankEntry
	authors map[authorKey]time.Time
	counts  map[countKey]int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		ranks:   make(map[rankKey]rankEntry),
		authors: make(map[authorKey]time.Time),
		counts:  make(map[countKey]int64),
	}
}

func (m *MemoryRepository) RecordRank(_ context.Context, challengeID uuid.UUID, wave int, word string, rank int, participantID string, seenAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := rankKey{challenge: challengeID, wave: wave, word: word}
	entry, ok := m.ranks[key]
	if !ok {
		m.ranks[key] = rankEntry{bestRank: rank, claimant: participantID, firstSeen: seenAt}
		return nil
	}
	if rank < entry.bestRank {
		entry.bestRank = rank
		m.ranks[key] = entry
	}
	return nil
}

func (m *MemoryRepository) RecordAuthor(_ context.Context, challengeID uuid.UUID, word, participantID string, seenAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := authorKey{challenge: challengeID, word: word, participant: participantID}
	if _, ok := m.authors[key]; !ok {
		m.authors[key] = seenAt
	}
	return nil
}

func (m *MemoryRepository) IncrementGuessCount(_ context.Context, challengeID uuid.UUID, participantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[countKey{challenge: challengeID, participant: participantID}]++
	return nil
}

func (m *MemoryRepository) TopByRank(_ context.Context, challengeID uuid.UUID, wave int, limit int) ([]models.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []models.LeaderboardEntry
	for key, entry := range m.ranks {
		if key.challenge != challengeID || key.wave != wave {
			continue
		}
		entries = append(entries, models.LeaderboardEntry{
			Word:      key.word,
			BestRank:  entry.bestRank,
			Claimant:  entry.claimant,
			FirstSeen: entry.firstSeen,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].BestRank != entries[j].BestRank {
			return entries[i].BestRank < entries[j].BestRank
		}
		return entries[i].Word < entries[j].Word
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *MemoryRepository) TopGuessers(_ context.Context, challengeID uuid.UUID, limit int) ([]models.TopGuesser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var guessers []models.TopGuesser
	for key, count := range m.counts {
		if key.challenge != challengeID {
			continue
		}
		guessers = append(guessers, models.TopGuesser{
			ParticipantID: key.participant,
			GuessCount:    count,
		})
	}
	sort.Slice(guessers, func(i, j int) bool {
		if guessers[i].GuessCount != guessers[j].GuessCount {
			return guessers[i].GuessCount > guessers[j].GuessCount
		}
		return guessers[i].ParticipantID < guessers[j].ParticipantID
	})
	if len(guessers) > limit {
		guessers = guessers[:limit]
	}
	return guessers, nil
}
