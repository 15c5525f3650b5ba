package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pidstore/pkg/platform/secrets"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{DefaultDOIPrefix}, cfg.Crossref.Prefixes)
	assert.False(t, cfg.Crossref.TestMode)
	assert.Empty(t, cfg.Crossref.URL)
	assert.Equal(t, 30*time.Second, cfg.Crossref.Timeout)
	assert.Equal(t, 5, cfg.Crossref.BreakerThreshold)
	assert.Equal(t, 30*time.Second, cfg.Crossref.BreakerCooldown)
	assert.Equal(t, 24*time.Hour, cfg.Sync.CacheTTL)
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PIDSTORE_CROSSREF_USERNAME", "depositor")
	t.Setenv("PIDSTORE_CROSSREF_PASSWORD", "s3cret")
	t.Setenv("PIDSTORE_CROSSREF_PREFIXES", "10.1234, 10.5678,10.1234")
	t.Setenv("PIDSTORE_CROSSREF_TEST_MODE", "true")
	t.Setenv("PIDSTORE_KAFKA_BROKERS", "localhost:9092")

	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)

	assert.Equal(t, "depositor", cfg.Crossref.Username)
	assert.Equal(t, "s3cret", cfg.Crossref.Password)
	assert.Equal(t, []string{"10.1234", "10.5678"}, cfg.Crossref.Prefixes)
	assert.True(t, cfg.Crossref.TestMode)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pidstore.yaml")
	content := `
server:
  addr: ":9090"
crossref:
  username: file-user
  prefixes: ["10.9999"]
  url: https://deposit.example.org
sync:
  cache_ttl: 1h
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "file-user", cfg.Crossref.Username)
	assert.Equal(t, []string{"10.9999"}, cfg.Crossref.Prefixes)
	assert.Equal(t, "https://deposit.example.org", cfg.Crossref.URL)
	assert.Equal(t, time.Hour, cfg.Sync.CacheTTL)
}

func TestValidate(t *testing.T) {
	t.Run("rejects non-DOI prefixes", func(t *testing.T) {
		cfg := FromViper(NewViper())
		cfg.Crossref.Prefixes = []string{"abc"}
		assert.ErrorContains(t, cfg.Validate(), "not a DOI prefix")
	})

	t.Run("rejects a plaintext admin token", func(t *testing.T) {
		cfg := FromViper(NewViper())
		cfg.Server.AdminTokenHash = "ops-token"
		assert.ErrorContains(t, cfg.Validate(), "server.admin_token_hash")
	})

	t.Run("accepts a bcrypt admin token hash", func(t *testing.T) {
		hash, err := secrets.Hash("ops-token")
		require.NoError(t, err)
		cfg := FromViper(NewViper())
		cfg.Server.AdminTokenHash = hash
		assert.NoError(t, cfg.Validate())
	})

	t.Run("rejects missing file", func(t *testing.T) {
		_, err := Load(NewViper(), filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}
