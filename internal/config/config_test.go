package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Store.TTL)
	assert.Equal(t, time.Minute, cfg.Store.SweepInterval)
	assert.Equal(t, "memory", cfg.Queue.Driver)
	assert.Equal(t, 4, cfg.Worker.Count)
	assert.True(t, cfg.Worker.Embedded)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, []string{"https://www.googleapis.com/auth/cloud-platform"}, cfg.Google.Scopes)
	assert.Equal(t, int64(50<<20), cfg.Inference.MaxMediaBytes)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAMLAndEnv(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
  ttl: 2h
log:
  level: debug
  format: console
gemini:
  requests_per_second: 0.5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("KAEVA_SERVER_PORT", "9090")
	t.Setenv("KAEVA_GEMINI_API_KEY", "k-123")
	t.Setenv("KAEVA_INFERENCE_BASE_URL", "http://inference:8000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 2*time.Hour, cfg.Store.TTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "k-123", cfg.Gemini.APIKey)
	assert.Equal(t, "http://inference:8000", cfg.Inference.BaseURL)
	assert.InDelta(t, 0.5, cfg.Gemini.RequestsPerSecond, 1e-9)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Store:  StoreConfig{Driver: "postgres"},
		Queue:  QueueConfig{Driver: "redis"},
		Worker: WorkerConfig{Embedded: true},
	}
	assert.Error(t, cfg.Validate())

	cfg.Store.DatabaseURL = "postgres://u:p@db/kaeva"
	assert.NoError(t, cfg.Validate())

	cfg.Queue.Driver = "kafka"
	assert.Error(t, cfg.Validate())

	cfg.Queue.Driver = "memory"
	cfg.Worker.Embedded = false
	assert.Error(t, cfg.Validate())
}

func TestServiceAccount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sa.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"client_email":"a@b"}`), 0o600))

	cfg := &Config{}
	b, err := cfg.ServiceAccount()
	require.NoError(t, err)
	assert.Nil(t, b)

	cfg.Google.ServiceAccountFile = path
	b, err = cfg.ServiceAccount()
	require.NoError(t, err)
	assert.JSONEq(t, `{"client_email":"a@b"}`, string(b))

	cfg.Google.ServiceAccountJSON = ` {"client_email":"inline@b"} `
	b, err = cfg.ServiceAccount()
	require.NoError(t, err)
	assert.Equal(t, `{"client_email":"inline@b"}`, string(b))

	cfg.Google.ServiceAccountJSON = ""
	cfg.Google.ServiceAccountFile = filepath.Join(dir, "missing.json")
	_, err = cfg.ServiceAccount()
	assert.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))

	assert.Error(t, InitLogger(LogConfig{Level: "loud", Format: "json"}))
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "postgres://kaeva:****@db:5432/kaeva?sslmode=disable",
		RedactDSN("postgres://kaeva:s3cret@db:5432/kaeva?sslmode=disable"))
	assert.Equal(t, "postgres://db:5432/kaeva", RedactDSN("postgres://db:5432/kaeva"))
}
