package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeConnectionString(t *testing.T) {
	got := normalizeConnectionString("Host=db;Port=5432;Database=ledger;Username=app;Password=x;CommandTimeout=30")

	assert.Equal(t, "host=db port=5432 dbname=ledger user=app password=x statement_timeout=30s sslmode=disable", got)
}

func TestNormalizeConnectionStringKeepsURL(t *testing.T) {
	dsn := "postgres://app:x@db:5432/ledger?sslmode=require"

	assert.Equal(t, dsn, normalizeConnectionString(dsn))
}

func TestLoadAppliesYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte("httpAddr: \":9000\"\nlogLevel: debug\nmaxOpenConns: 5\n"), 0o600))

	t.Setenv("LEDGER_CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 5, cfg.MaxOpenConns)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestLoadRejectsBadPoolSize(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "0")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsUnparsableInt(t *testing.T) {
	t.Setenv("DB_MAX_IDLE_CONNS", "many")

	_, err := Load()
	require.Error(t, err)
}
