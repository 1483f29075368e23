package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func env(kv map[string]string) func(string) string {
	return func(k string) string { return kv[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(env(nil))
	require.NoError(t, err)

	assert.Equal(t, DevelopEnv, cfg.AppEnv)
	assert.Equal(t, zapcore.InfoLevel, cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "http://localhost:8080", cfg.Relay.URL)
	assert.Equal(t, TransportWebsocket, cfg.Transport)
	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, 64, cfg.SendBuffer)
	assert.False(t, cfg.Identity.Moderator)
	assert.Empty(t, cfg.Database.DSN)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"APP_ENV":              "production",
		"LOG_LEVEL":            "debug",
		"RISEHAND_TRANSPORT":   "Redis",
		"REDIS_DB":             "3",
		"RISEHAND_MODERATOR":   "true",
		"RISEHAND_USER_ID":     "gm",
		"RISEHAND_USER_NAME":   "Game Master",
		"RISEHAND_ROOM":        "ABC123",
		"RISEHAND_SEND_BUFFER": "8",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, zapcore.DebugLevel, cfg.LogLevel)
	assert.Equal(t, TransportRedis, cfg.Transport)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, Identity{UserID: "gm", UserName: "Game Master", Moderator: true}, cfg.Identity)
	assert.Equal(t, "ABC123", cfg.Relay.Room)
	assert.Equal(t, 8, cfg.SendBuffer)
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"log level":   {"LOG_LEVEL": "loud"},
		"transport":   {"RISEHAND_TRANSPORT": "pigeon"},
		"redis db":    {"REDIS_DB": "zero"},
		"moderator":   {"RISEHAND_MODERATOR": "sometimes"},
		"send buffer": {"RISEHAND_SEND_BUFFER": "0"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromEnv(env(kv))
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), "invalid config")
		})
	}
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("RISEHAND_ROOM=FROMFILE\n"), 0o600))
	t.Setenv("RISEHAND_ROOM", "")
	require.NoError(t, os.Unsetenv("RISEHAND_ROOM"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "FROMFILE", cfg.Relay.Room)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "load env files")
}
