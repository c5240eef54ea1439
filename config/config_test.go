package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, int64(10<<20), cfg.API.MaxUploadBytes)
	assert.Equal(t, "unitary/toxic-bert", cfg.Models.TextModel)
	assert.Equal(t, "Falconsai/nsfw_image_detection", cfg.Models.ImageModel)
	assert.Equal(t, 5*time.Minute, cfg.Alerts.Window)
	assert.Equal(t, 10, cfg.Alerts.Threshold)
	assert.Equal(t, 30*time.Second, cfg.Analytics.SummaryTTL)
	assert.Equal(t, "localhost:6379", cfg.GetRedisAddr())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("ALERT_WINDOW", "90s")
	t.Setenv("ALERT_THRESHOLD", "3")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, *.b.test ,")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "mod")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 90*time.Second, cfg.Alerts.Window)
	assert.Equal(t, 3, cfg.Alerts.Threshold)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"http://a.test", "*.b.test"}, cfg.CORS.AllowedOrigins)
	assert.Contains(t, cfg.GetDSN(), "host=db")
	assert.Contains(t, cfg.GetDSN(), "dbname=mod")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "default secret in production", env: map[string]string{"ENV": "production"}},
		{name: "default secret in prod", env: map[string]string{"ENV": "prod"}},
		{name: "default secret in PRODUCTION", env: map[string]string{"ENV": "PRODUCTION"}},
		{name: "unknown storage driver", env: map[string]string{"STORAGE_DRIVER": "sqlite"}},
		{name: "zero upload limit", env: map[string]string{"MAX_UPLOAD_BYTES": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_ProductionWithSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "a-real-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestIsProductionEnv(t *testing.T) {
	tests := map[string]bool{
		"production":  true,
		"prod":        true,
		" Prod ":      true,
		"development": false,
		"staging":     false,
		"":            false,
	}

	for env, want := range tests {
		assert.Equal(t, want, IsProductionEnv(env), env)
	}
}
