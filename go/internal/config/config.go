// Package config loads engine settings from a YAML file, a .env file and the
// process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/mcdev12/bingosync/go/clients"
	"github.com/mcdev12/bingosync/go/internal/bingo/animation"
	"github.com/mcdev12/bingosync/go/internal/bingo/poller"
	"github.com/mcdev12/bingosync/go/internal/bingo/timeline"
	"github.com/mcdev12/bingosync/go/internal/events"
	"github.com/mcdev12/bingosync/go/internal/lobby"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	API     APIConfig     `yaml:"api"`
	Funding FundingConfig `yaml:"funding"`
	Timing  TimingConfig  `yaml:"timing"`
	Polling PollingConfig `yaml:"polling"`
	Source  SourceConfig  `yaml:"source"`
	NATS    NATSConfig    `yaml:"nats"`
	Archive ArchiveConfig `yaml:"archive"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

// APIConfig points at the round API that serves snapshots, cards and rooms.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Player  string        `yaml:"player"`
	Timeout time.Duration `yaml:"timeout"`
}

type FundingConfig struct {
	BaseURL           string        `yaml:"base_url"`
	RequiresAllowance bool          `yaml:"requires_allowance"`
	Timeout           time.Duration `yaml:"timeout"`
}

type TimingConfig struct {
	timeline.Timing `yaml:",inline"`
	Tick            time.Duration `yaml:"tick"`
}

type PollingConfig struct {
	Snapshot  time.Duration `yaml:"snapshot"`
	Discovery time.Duration `yaml:"discovery"`
	RoomList  time.Duration `yaml:"room_list"`
}

type SourceConfig struct {
	Kind clients.RoundSourceKind `yaml:"kind"`
}

type NATSConfig struct {
	Enabled                bool `yaml:"enabled"`
	events.JetStreamConfig `yaml:",inline"`
}

// ArchiveConfig enables the resolved round history in Postgres.
type ArchiveConfig struct {
	Enabled bool `yaml:"enabled"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// Default returns the production defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		API: APIConfig{
			BaseURL: "http://localhost:3000",
			Timeout: 10 * time.Second,
		},
		Funding: FundingConfig{
			BaseURL:           "http://localhost:3001",
			RequiresAllowance: true,
			Timeout:           2 * time.Minute,
		},
		Timing: TimingConfig{
			Timing: timeline.DefaultTiming,
			Tick:   animation.DefaultTickInterval,
		},
		Polling: PollingConfig{
			Snapshot:  poller.DefaultInterval,
			Discovery: lobby.DefaultDiscoveryInterval,
			RoomList:  lobby.DefaultRoomListInterval,
		},
		Source:  SourceConfig{Kind: clients.RoundSourceHTTP},
		NATS:    NATSConfig{JetStreamConfig: events.DefaultJetStreamConfig()},
		Archive: ArchiveConfig{},
		Log:     LogConfig{Level: "info", Console: true},
	}
}

// Load reads path over the defaults, then applies environment overrides. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Info().Str("path", path).Msg("config file not found, using defaults")
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvAsInt("PORT", c.Server.Port)
	c.API.BaseURL = getEnv("ROUND_API_URL", c.API.BaseURL)
	c.API.Player = getEnv("PLAYER_ADDRESS", c.API.Player)
	c.Funding.BaseURL = getEnv("FUNDING_API_URL", c.Funding.BaseURL)
	c.Funding.RequiresAllowance = getEnvAsBool("FUNDING_REQUIRES_ALLOWANCE", c.Funding.RequiresAllowance)
	c.Source.Kind = clients.RoundSourceKind(getEnv("ROUND_SOURCE", string(c.Source.Kind)))
	c.NATS.Enabled = getEnvAsBool("NATS_ENABLED", c.NATS.Enabled)
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.Archive.Enabled = getEnvAsBool("ARCHIVE_ENABLED", c.Archive.Enabled)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Console = getEnvAsBool("LOG_CONSOLE", c.Log.Console)
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if !clients.ValidateRoundSource(c.Source.Kind) {
		return fmt.Errorf("unsupported round source %q", c.Source.Kind)
	}
	if c.Source.Kind == clients.RoundSourceHTTP && c.API.BaseURL == "" {
		return errors.New("api.base_url is required for the http round source")
	}
	if c.Timing.BallInterval <= 0 {
		return fmt.Errorf("timing.ball_interval must be positive, got %s", c.Timing.BallInterval)
	}
	if c.Timing.LinePause < 0 || c.Timing.BingoPause < 0 {
		return errors.New("timing pauses must not be negative")
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	return nil
}

// SourceNotifies reports whether the selected source pushes change notifications.
func (c *Config) SourceNotifies() bool {
	return clients.GetRoundSources()[c.Source.Kind].Notifies
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
