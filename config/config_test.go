package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"PORT", "SHUTDOWN_TIMEOUT", "CORS_ALLOWED_ORIGINS", "DATABASE_URL", "MONGO_URI",
		"DB_CONNECT_TIMEOUT", "APP_ENV", "LOG_LEVEL", "APP_VERSION", "SEED_FROM",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "memory://")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "memory://", cfg.Database.URI)
	assert.Equal(t, 10*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Empty(t, cfg.App.SeedFrom)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017/mgmt_db")
	t.Setenv("DB_CONNECT_TIMEOUT", "3s")
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("SEED_FROM", "sample.json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "mongodb://localhost:27017/mgmt_db", cfg.Database.URI)
	assert.Equal(t, 3*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "sample.json", cfg.App.SeedFrom)
}

func TestLoad_DatabaseURLWinsOverMongoURI(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "redis://localhost:6379/0")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Database.URI)
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DATABASE_URL", "memory://")
	t.Setenv("PORT", "http")
	_, err = Load()
	assert.ErrorContains(t, err, "PORT")
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{App: AppConfig{Environment: "production", LogLevel: "warn"}}
	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	cfg.App.LogLevel = "loud"
	_, err = cfg.NewLogger()
	assert.Error(t, err)
}
