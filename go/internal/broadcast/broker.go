package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hordle/horde/go/internal/models"
)

// Broker is an in-process pub/sub used for single-process deployments
// and tests, keyed by broadcast channel. Slow subscribers drop messages
// rather than block a publisher.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[chan []byte]struct{})}
}

// Subscribe returns a channel receiving JSON-encoded snapshots published
// to the given broadcast channel.
func (b *Broker) Subscribe(channel string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[chan []byte]struct{})
	}
	b.subs[channel][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel.
func (b *Broker) Unsubscribe(channel string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[channel], ch)
	if len(b.subs[channel]) == 0 {
		delete(b.subs, channel)
	}
	b.mu.Unlock()
}

// Publish sends the snapshot to every subscriber of the channel.
func (b *Broker) Publish(_ context.Context, channel string, snap *models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	b.mu.RLock()
	for ch := range b.subs[channel] {
		select {
		case ch <- data:
		default:
			// Drop if the subscriber is slow.
		}
	}
	b.mu.RUnlock()
	return nil
}
