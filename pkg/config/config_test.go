package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, SessionDriverFile, cfg.Session.Driver)
	assert.Equal(t, "auth-storage", cfg.Session.StorageKey)
	assert.Equal(t, 500*time.Millisecond, cfg.Locality.Debounce)
	assert.Equal(t, 5, cfg.Uploads.MaxFiles)
	assert.Equal(t, int64(10*1024*1024), cfg.Uploads.MaxFileSize)
	assert.Equal(t, "primary", cfg.Wizard.Flow)
}

func TestOverridesAndFallbacks(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("API_BASE_URL", "https://api.matrific.example/")
	v.Set("LOOKUP_DEBOUNCE", "not-a-duration")
	v.Set("UPLOAD_MAX_FILES", -1)
	v.Set("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	v.Set("SESSION_DRIVER", "REDIS")

	cfg := fromViper(v)
	assert.Equal(t, "https://api.matrific.example", cfg.API.BaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.Locality.Debounce)
	assert.Equal(t, 5, cfg.Uploads.MaxFiles)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, SessionDriverRedis, cfg.Session.Driver)
}
