package app

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/keyfront/keyfront/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: "development",
		Keycloak: config.KeycloakConfig{
			URL:      "https://idp.example.com",
			Realm:    "main",
			ClientID: "keyfront",
		},
		Observability: config.ObservabilityConfig{LogLevel: "info"},
	}
}

func TestNewDependenciesMinimal(t *testing.T) {
	deps, err := NewDependencies(context.Background(), testConfig(), zap.NewNop())
	require.NoError(t, err)

	assert.NotNil(t, deps.Keycloak)
	assert.NotNil(t, deps.Validator)
	assert.NotNil(t, deps.Accounts)
	assert.NotNil(t, deps.AuthMiddleware)

	// Optional backends stay nil when unconfigured.
	assert.Nil(t, deps.DB)
	assert.Nil(t, deps.LoginEvents)
	assert.Nil(t, deps.Redis)
	assert.Nil(t, deps.Cache)

	assert.NoError(t, deps.Close(context.Background()))
}

func TestNewDependenciesWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig()
	cfg.Redis.Addr = mr.Addr()
	cfg.RateLimit.Enabled = true

	deps, err := NewDependencies(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close(context.Background()) })

	require.NotNil(t, deps.Cache)
	assert.NotNil(t, deps.LoginThrottle)

	// The wired cache round-trips through the configured backend.
	ctx := context.Background()
	deps.Cache.Set(ctx, "k", "v", 0)

	var got string
	require.True(t, deps.Cache.Get(ctx, "k", &got))
	assert.Equal(t, "v", got)
}

func TestNewDependenciesUnreachableRedisIsNotFatal(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig()
	cfg.Redis.Addr = addr

	deps, err := NewDependencies(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close(context.Background()) })

	assert.NotNil(t, deps.Cache)
}

func TestNewDependenciesInvalidKeycloakConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Keycloak.URL = ""

	_, err := NewDependencies(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keycloak")
}
