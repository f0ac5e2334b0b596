package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  user: detective
  dbname: detective
jwt:
  secret: test-secret
scoring:
  resolve_multiplier: 20
expiry:
  registered_ttl: 2h
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, int64(20), cfg.Scoring.ResolveMultiplier)
	assert.Equal(t, int64(1), cfg.Scoring.ClientStart)
	assert.Equal(t, int64(2), cfg.Scoring.PoliceAssign)
	assert.Equal(t, 2*time.Hour, cfg.Expiry.RegisteredTTL)
	assert.Equal(t, time.Duration(0), cfg.Expiry.FabricatedTTL)
	assert.Equal(t, 30*time.Second, cfg.Ranking.CacheTTL)
	assert.Equal(t, "configs/cases.yaml", cfg.Seed.CasesFile)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "warn", cfg.Database.LogLevel)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  user: detective
  dbname: detective
jwt:
  secret: from-file
`)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestLoad_MissingSecret(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  user: detective
  dbname: detective
`)

	_, err := Load(path)

	assert.Error(t, err)
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "cases", SSLMode: "disable"}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=cases sslmode=disable", d.PostgresConnectionString())
}
