package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the game-balance and service settings loaded from YAML.
// Connection settings come from the environment instead, so one config
// file serves every deployment.
type Config struct {
	Game struct {
		InitialTimeMs    int64 `yaml:"initial_time_ms"`
		WaveClearBonusMs int64 `yaml:"wave_clear_bonus_ms"`
		TickPollMs       int64 `yaml:"tick_poll_ms"`
	} `yaml:"game"`
	Identity struct {
		CacheTTLMs int64 `yaml:"cache_ttl_ms"`
	} `yaml:"identity"`
}

// InitialTime returns the starting countdown of a new challenge.
func (c *Config) InitialTime() time.Duration {
	return time.Duration(c.Game.InitialTimeMs) * time.Millisecond
}

// WaveClearBonus returns the time credited when a wave is cleared.
func (c *Config) WaveClearBonus() time.Duration {
	return time.Duration(c.Game.WaveClearBonusMs) * time.Millisecond
}

// TickPoll returns how often the lifecycle scheduler ticks idle challenges.
func (c *Config) TickPoll() time.Duration {
	return time.Duration(c.Game.TickPollMs) * time.Millisecond
}

// IdentityCacheTTL returns how long display info lookups are memoized.
func (c *Config) IdentityCacheTTL() time.Duration {
	return time.Duration(c.Identity.CacheTTLMs) * time.Millisecond
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func loadConfig(path string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No config file means defaults for everything.
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if config.Game.InitialTimeMs <= 0 {
		config.Game.InitialTimeMs = 600000
	}
	if config.Game.WaveClearBonusMs <= 0 {
		config.Game.WaveClearBonusMs = 120000
	}
	if config.Game.TickPollMs <= 0 {
		config.Game.TickPollMs = 1000
	}
	if config.Identity.CacheTTLMs <= 0 {
		config.Identity.CacheTTLMs = 300000
	}

	// Environment overrides win over the file.
	config.Game.InitialTimeMs = int64(getEnvAsInt("GAME_INITIAL_TIME_MS", int(config.Game.InitialTimeMs)))
	config.Game.WaveClearBonusMs = int64(getEnvAsInt("GAME_WAVE_CLEAR_BONUS_MS", int(config.Game.WaveClearBonusMs)))
	config.Game.TickPollMs = int64(getEnvAsInt("GAME_TICK_POLL_MS", int(config.Game.TickPollMs)))
	config.Identity.CacheTTLMs = int64(getEnvAsInt("IDENTITY_CACHE_TTL_MS", int(config.Identity.CacheTTLMs)))

	return &config, nil
}
