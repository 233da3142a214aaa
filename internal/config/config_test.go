package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestHome(t *testing.T) {
	assert.Equal(t, "/srv/inplace", Home(env(map[string]string{"INPLACE_HOME": "/srv/inplace/", "HOME": "/home/u"})))
	assert.Equal(t, "/home/u/.config/inplace", Home(env(map[string]string{"HOME": "/home/u"})))
}

func TestParse_KeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("server:\n  port: 9000\nclient:\n  method: PATCH\n"))
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, Default().Server.Database, cfg.Server.Database)
	assert.Equal(t, "PATCH", cfg.Client.Method)

	d, err := cfg.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, d)
	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, lvl)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"syntax", "server: [", "parsing config"},
		{"method", "client:\n  method: POST\n", "client.method"},
		{"timeout", "client:\n  timeout: soon\n", "client.timeout"},
		{"negative timeout", "client:\n  timeout: -1s\n", "must be positive"},
		{"level", "log:\n  level: loud\n", "log.level"},
		{"port", "server:\n  port: 70000\n", "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg, "missing file yields defaults")

	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("log:\n  level: debug\n"), 0o600))
	cfg, err = Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestFromEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("server:\n  port: 9000\n"), 0o600))

	cfg, err := FromEnv(env(map[string]string{
		"INPLACE_HOME":    dir,
		"PORT":            "7070",
		"DATABASE_URL":    "file::memory:",
		"INPLACE_TIMEOUT": "2s",
		"INPLACE_HISTORY": "file:history.db",
	}))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "file::memory:", cfg.Server.Database)
	d, err := cfg.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, d)
	assert.Equal(t, "file:history.db", cfg.Client.History)

	_, err = FromEnv(env(map[string]string{"INPLACE_HOME": dir, "PORT": "http"}))
	assert.ErrorContains(t, err, "invalid PORT")
}
