package app

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scriptsmith/internal/config"
	"scriptsmith/internal/service/generate"
)

func fakeConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	base := map[string]string{"LLM_PROVIDER": "fake", "PORT": "0"}
	for k, v := range env {
		base[k] = v
	}
	cfg, err := config.FromEnv(func(k string) string { return base[k] })
	require.NoError(t, err)
	return cfg
}

func TestNewWithFakeProviderGeneratesAndSaves(t *testing.T) {
	cfg := fakeConfig(t, map[string]string{"MAX_ATTEMPTS": "3"})
	a, err := New(context.Background(), cfg, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	resp, err := a.Service().Generate(context.Background(), generate.Request{Title: "Why cats purr", Duration: "short"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.LessOrEqual(t, resp.Attempts, 3)

	recent, err := a.Service().Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, resp.RunID, recent[0].ID)

	roles := map[string]bool{}
	for _, u := range a.Usage().Snapshot() {
		roles[u.Role] = true
	}
	assert.Len(t, roles, 4)
}

func TestNewSharesClientPerModel(t *testing.T) {
	cfg := fakeConfig(t, map[string]string{"VALIDATOR_MODEL": "gemini-other"})
	a, err := New(context.Background(), cfg, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	assert.Len(t, a.clients, 2)
}

func TestShutdownWithoutStartClosesStores(t *testing.T) {
	cfg := fakeConfig(t, nil)
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NoError(t, a.Shutdown(context.Background()))
	assert.Nil(t, a.stores)
}

func TestSeedPatternsRequiresDatabase(t *testing.T) {
	_, err := SeedPatterns(context.Background(), fakeConfig(t, nil), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
