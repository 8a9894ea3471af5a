package broadcast

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hordle/horde/go/internal/models"
)

// Publisher delivers a snapshot to a per-challenge broadcast channel.
// Delivery is at-most-once and best-effort; consumers reconcile by
// polling the read API.
type Publisher interface {
	Publish(ctx context.Context, channel string, snap *models.Snapshot) error
}

// SnapshotSource computes the current broadcastable view of a challenge.
type SnapshotSource interface {
	Build(ctx context.Context, challengeID uuid.UUID) (*models.Snapshot, error)
}

// ChannelFor returns the broadcast channel key of a challenge.
func ChannelFor(challengeID uuid.UUID) string {
	return fmt.Sprintf("challenge.%s", challengeID)
}

// Broadcaster publishes fresh state snapshots after state-changing
// operations. Failures are logged and swallowed; they are never
// propagated to the guesser.
type Broadcaster struct {
	source    SnapshotSource
	publisher Publisher
}

func NewBroadcaster(source SnapshotSource, publisher Publisher) *Broadcaster {
	return &Broadcaster{source: source, publisher: publisher}
}

// PublishState builds and publishes the current snapshot of a challenge,
// fire-and-forget.
func (b *Broadcaster) PublishState(ctx context.Context, challengeID uuid.UUID) {
	snap, err := b.source.Build(ctx, challengeID)
	if err != nil {
		log.Error().
			Err(err).
			Str("challenge_id", challengeID.String()).
			Msg("failed to build snapshot for broadcast")
		return
	}
	if err := b.publisher.Publish(ctx, ChannelFor(challengeID), snap); err != nil {
		log.Error().
			Err(err).
			Str("challenge_id", challengeID.String()).
			Msg("failed to publish snapshot")
	}
}
