package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9000"
storage:
  type: postgres
  dsn: postgres://file
auth:
  tokenTTL: 2h
log:
  level: debug
`), 0o600))

	cfg, err := load(path, envFrom(map[string]string{
		"DATABASE_URL": "postgres://env",
		"JWT_SECRET":   "s3cr3t",
		"CORS_ORIGINS": "http://a.io, http://b.io",
	}))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, StoragePostgres, cfg.Storage.Type)
	assert.Equal(t, "postgres://env", cfg.Storage.DSN)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"http://a.io", "http://b.io"}, cfg.Server.CORSOrigins)
	// не заданное в файле остается по умолчанию
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
}

func TestValidate_Rejects(t *testing.T) {
	cfg := Default()
	cfg.Storage.Type = "mongo"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Storage.Type = StoragePostgres
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DSN")

	cfg = Default()
	cfg.Auth.JWTSecret = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Auth.TokenTTL = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_DevSecretWithPostgres(t *testing.T) {
	cfg, err := load("", envFrom(map[string]string{
		"STORAGE":      StoragePostgres,
		"DATABASE_URL": "postgres://db",
	}))
	require.NoError(t, err)
	assert.Equal(t, DevJWTSecret, cfg.Auth.JWTSecret)
	assert.ErrorIs(t, cfg.Validate(), ErrDevJWTSecret)

	cfg.Auth.JWTSecret = "s3cr3t"
	assert.NoError(t, cfg.Validate())
}

func TestRequireJWTSecret(t *testing.T) {
	cfg := Default()
	// in-memory с ключом разработки допустим для локального запуска
	require.NoError(t, cfg.Validate())
	assert.ErrorIs(t, cfg.RequireJWTSecret(), ErrDevJWTSecret)

	cfg.Auth.JWTSecret = "s3cr3t"
	assert.NoError(t, cfg.RequireJWTSecret())
}

func TestLoad_BadEnv(t *testing.T) {
	_, err := load("", envFrom(map[string]string{"TOKEN_TTL": "forever"}))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "nope.yaml"), envFrom(nil))
	assert.Error(t, err)
}
