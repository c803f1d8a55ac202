package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mcdev12/bingosync/go/clients"
	"github.com/mcdev12/bingosync/go/internal/bingo/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, timeline.DefaultTiming, cfg.Timing.Timing)
	assert.Equal(t, clients.RoundSourceHTTP, cfg.Source.Kind)
	assert.Equal(t, "BINGO_EVENTS", cfg.NATS.StreamName)
	assert.False(t, cfg.SourceNotifies())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
timing:
  ball_interval: 3s
  line_pause: 4s
  bingo_pause: 5s
  tick: 500ms
polling:
  snapshot: 2s
source:
  kind: postgres
nats:
  enabled: true
  stream: TEST_EVENTS
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Timing.BallInterval)
	assert.Equal(t, 4*time.Second, cfg.Timing.LinePause)
	assert.Equal(t, 5*time.Second, cfg.Timing.BingoPause)
	assert.Equal(t, 500*time.Millisecond, cfg.Timing.Tick)
	assert.Equal(t, 2*time.Second, cfg.Polling.Snapshot)
	assert.Equal(t, Default().Polling.RoomList, cfg.Polling.RoomList)
	assert.Equal(t, clients.RoundSourcePostgres, cfg.Source.Kind)
	assert.True(t, cfg.SourceNotifies())
	assert.True(t, cfg.NATS.Enabled)
	assert.Equal(t, "TEST_EVENTS", cfg.NATS.StreamName)
	assert.Equal(t, Default().NATS.SubjectPrefix, cfg.NATS.SubjectPrefix)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("PORT", "7070")
	t.Setenv("ROUND_API_URL", "http://rounds.internal")
	t.Setenv("ARCHIVE_ENABLED", "true")
	t.Setenv("FUNDING_REQUIRES_ALLOWANCE", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "http://rounds.internal", cfg.API.BaseURL)
	assert.True(t, cfg.Archive.Enabled)
	assert.False(t, cfg.Funding.RequiresAllowance)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"unknown source", func(c *Config) { c.Source.Kind = "carrier-pigeon" }},
		{"missing api url", func(c *Config) { c.API.BaseURL = "" }},
		{"zero ball interval", func(c *Config) { c.Timing.BallInterval = 0 }},
		{"negative pause", func(c *Config) { c.Timing.LinePause = -time.Second }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a map")
	_, err := Load(path)
	assert.Error(t, err)
}
