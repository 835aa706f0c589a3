package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestLoadClientDefaults(t *testing.T) {
	t.Setenv("STOREFRONT_API_URL", "")
	t.Setenv("STOREFRONT_HTTP_TIMEOUT", "")
	t.Setenv("STOREFRONT_STRICT_TRANSITIONS", "")

	cfg := LoadClient()
	assert.Equal(t, "http://localhost:5001/api", cfg.APIURL)
	assert.Zero(t, cfg.HTTPTimeout)
	assert.True(t, cfg.StrictTransitions)
	assert.NotEmpty(t, cfg.TokenFile)
}

func TestLoadClientOverrides(t *testing.T) {
	t.Setenv("STOREFRONT_API_URL", "http://shop.test/api")
	t.Setenv("STOREFRONT_HTTP_TIMEOUT", "3s")
	t.Setenv("STOREFRONT_STRICT_TRANSITIONS", "false")
	t.Setenv("STOREFRONT_TOKEN_FILE", "/tmp/tok")

	cfg := LoadClient()
	assert.Equal(t, "http://shop.test/api", cfg.APIURL)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.False(t, cfg.StrictTransitions)
	assert.Equal(t, "/tmp/tok", cfg.TokenFile)

	t.Setenv("STOREFRONT_HTTP_TIMEOUT", "soon")
	t.Setenv("STOREFRONT_STRICT_TRANSITIONS", "maybe")
	cfg = LoadClient()
	assert.Zero(t, cfg.HTTPTimeout)
	assert.True(t, cfg.StrictTransitions)
}

func TestLoadServerIgnoresBadDuration(t *testing.T) {
	t.Setenv("TOKEN_TTL", "forever")
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("POSTGRES_DSN", "")

	cfg := LoadServer()
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Empty(t, cfg.PostgresDSN)
}

func TestLoadServerThrottleAndOrigins(t *testing.T) {
	t.Setenv("CORS_ORIGINS", " https://shop.example , ,http://localhost:3000")
	t.Setenv("AUTH_RATE_PER_MINUTE", "-4")
	t.Setenv("AUTH_BURST", "3")

	cfg := LoadServer()
	want := []string{"https://shop.example", "http://localhost:3000"}
	if diff := cmp.Diff(want, cfg.CORSOrigins); diff != "" {
		t.Errorf("CORSOrigins mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 60, cfg.AuthRatePerMinute)
	assert.Equal(t, 3, cfg.AuthBurst)

	t.Setenv("CORS_ORIGINS", "")
	assert.Empty(t, LoadServer().CORSOrigins)
}
