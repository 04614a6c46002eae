package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setDBPath(t *testing.T) {
	t.Helper()
	t.Setenv("ARGUS_DB_PATH", filepath.Join(t.TempDir(), "argus.db"))
}

func TestLoadDefaults(t *testing.T) {
	setDBPath(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "", cfg.Docker.Host)
	assert.Equal(t, 30*time.Second, cfg.Dashboard.RefreshInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.Dashboard.CPUSampleInterval)
	assert.Equal(t, 20, cfg.Dashboard.LogTail)
	assert.Equal(t, 30, cfg.ProbeLog.RetentionDays)
}

func TestLoadOverrides(t *testing.T) {
	setDBPath(t)
	t.Setenv("ARGUS_SERVER_PORT", "9090")
	t.Setenv("ARGUS_SERVER_MODE", "release")
	t.Setenv("ARGUS_DOCKER_HOST", "unix:///run/user/1000/docker.sock")
	t.Setenv("ARGUS_REFRESH_INTERVAL", "10s")
	t.Setenv("ARGUS_CPU_SAMPLE_INTERVAL", "250ms")
	t.Setenv("ARGUS_LOG_TAIL", "50")
	t.Setenv("ARGUS_PROBE_LOG_RETENTION_DAYS", "7")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "unix:///run/user/1000/docker.sock", cfg.Docker.Host)
	assert.Equal(t, 10*time.Second, cfg.Dashboard.RefreshInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.Dashboard.CPUSampleInterval)
	assert.Equal(t, 50, cfg.Dashboard.LogTail)
	assert.Equal(t, 7, cfg.ProbeLog.RetentionDays)
}

func TestLoadInvalidValuesFallBackToDefaults(t *testing.T) {
	setDBPath(t)
	t.Setenv("ARGUS_REFRESH_INTERVAL", "not-a-duration")
	t.Setenv("ARGUS_LOG_TAIL", "lots")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Dashboard.RefreshInterval)
	assert.Equal(t, 20, cfg.Dashboard.LogTail)
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"refresh interval below one second", "ARGUS_REFRESH_INTERVAL", "500ms"},
		{"cpu sample interval too short", "ARGUS_CPU_SAMPLE_INTERVAL", "5ms"},
		{"cpu sample interval too long", "ARGUS_CPU_SAMPLE_INTERVAL", "10s"},
		{"zero log tail", "ARGUS_LOG_TAIL", "0"},
		{"zero retention", "ARGUS_PROBE_LOG_RETENTION_DAYS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setDBPath(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
