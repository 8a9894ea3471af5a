package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/hordle/horde/go/internal/oracle"
)

// Service is the challenge gateway: it serves the HTTP API, upgrades
// WebSocket connections, and relays JetStream snapshots to them.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	eventConsumer     *EventConsumer
	stateHandler      *StateHandler
	guessHandler      *GuessHandler
}

// Config holds configuration for the gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	JetStreamConfig  JetStreamConsumerConfig
}

// DefaultConfig returns default configuration for the gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		JetStreamConfig:  DefaultJetStreamConsumerConfig(),
	}
}

// NewService creates a new challenge gateway service
func NewService(
	config Config,
	snapshots SnapshotSource,
	finder ChallengeFinder,
	reader ChallengeReader,
	processor GuessProcessor,
	o oracle.Oracle,
) (*Service, error) {
	connectionManager := NewConnectionManager(config.ConnectionConfig)
	wsHandler := NewWebSocketHandler(connectionManager)

	eventConsumer, err := NewEventConsumer(connectionManager, config.JetStreamConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create event consumer: %w", err)
	}

	return &Service{
		connectionManager: connectionManager,
		wsHandler:         wsHandler,
		eventConsumer:     eventConsumer,
		stateHandler:      NewStateHandler(snapshots, finder),
		guessHandler:      NewGuessHandler(processor, reader, o),
	}, nil
}

// Start begins the gateway service and blocks until the context ends
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting challenge gateway service")

	go s.connectionManager.Start(ctx)

	go func() {
		if err := s.eventConsumer.Start(ctx); err != nil {
			log.Error().Err(err).Msg("event consumer failed")
		}
	}()

	<-ctx.Done()

	log.Info().Msg("challenge gateway service shutting down")
	s.eventConsumer.Close()
	return nil
}

// RegisterRoutes registers the HTTP and WebSocket routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/challenges/current", s.stateHandler.HandleGetCurrentChallenge)
	mux.HandleFunc("GET /api/challenges/{id}/state", s.stateHandler.HandleGetChallengeState)
	mux.HandleFunc("POST /api/challenges/{id}/guesses", s.guessHandler.HandleSubmitGuesses)
	mux.HandleFunc("POST /api/challenges/{id}/give-up", s.guessHandler.HandleGiveUp)
	mux.HandleFunc("GET /api/challenges/{id}/participants/{participant_id}", s.guessHandler.HandleGetUserState)
	mux.HandleFunc("GET /ws/challenge", s.wsHandler.HandleChallengeConnection)
	mux.HandleFunc("GET /ws/stats", s.wsHandler.HandleConnectionStats)
	log.Info().Msg("challenge gateway routes registered")
}
