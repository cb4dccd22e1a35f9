package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("SCANSVC_CONFIG", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/scans")
	t.Setenv("AMQP_URL", "amqp://localhost:5672")
	t.Setenv("POLL_INTERVAL", "500ms")
	t.Setenv("POLL_TIMEOUT", "750ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 750*time.Millisecond, cfg.PollTimeout)
	assert.Equal(t, 4.0, cfg.SlotsPerPage)
	assert.Equal(t, 24*time.Hour, cfg.SummaryTTL)
}

func TestLoadYAMLFileWithEnvWinning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"listen_addr: \":9090\"\ndatabase_url: postgres://file/db\namqp_url: amqp://file:5672\nslots_per_page: 6\n",
	), 0o600))

	t.Setenv("SCANSVC_CONFIG", path)
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("AMQP_URL", "")
	t.Setenv("POLL_INTERVAL", "")
	t.Setenv("POLL_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "postgres://env/db", cfg.DatabaseURL)
	assert.Equal(t, "amqp://file:5672", cfg.AMQPURL)
	assert.Equal(t, 6.0, cfg.SlotsPerPage)
}

func TestLoadMissingRequiredValues(t *testing.T) {
	t.Setenv("SCANSVC_CONFIG", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("AMQP_URL", "")
	t.Setenv("POLL_INTERVAL", "")
	t.Setenv("POLL_TIMEOUT", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestValidateRejectsBadTuning(t *testing.T) {
	cfg := Config{DatabaseURL: "x", AMQPURL: "y", PollInterval: -time.Second, SlotsPerPage: 4}
	assert.Error(t, cfg.Validate())

	cfg.PollInterval = time.Second
	cfg.SlotsPerPage = 0
	assert.Error(t, cfg.Validate())

	cfg.SlotsPerPage = 4
	assert.NoError(t, cfg.Validate())
}
