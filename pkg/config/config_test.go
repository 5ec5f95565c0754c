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
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, 15*time.Minute, cfg.JWT.Expiration)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshExpiration)
	assert.Equal(t, cfg.JWT.Secret, cfg.JWT.RefreshSecret)
	assert.Equal(t, 5, cfg.RateLimit.AuthMax)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.AuthWindow)
	assert.Equal(t, StorageDriverLocal, cfg.Storage.Driver)
	assert.False(t, cfg.Cookie.Secure)
	assert.Empty(t, cfg.TrustedProxies)
}

func TestTrustedProxiesList(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")

	cfg := fromViper(v)

	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies)
}

func TestProductionCookiesAreSecure(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("ENV", EnvProduction)
	v.Set("REFRESH_TOKEN_SECRET", "refresh")
	v.Set("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg := fromViper(v)

	assert.True(t, cfg.Cookie.Secure)
	assert.Equal(t, "refresh", cfg.JWT.RefreshSecret)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 2*time.Hour, parseDuration("2h", time.Minute))
}
