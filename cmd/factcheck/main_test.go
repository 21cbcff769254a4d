package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kaeva-factcheck/internal/config"
	"kaeva-factcheck/internal/entity"
)

func testConfig() *config.Config {
	return &config.Config{
		Log:    config.LogConfig{Level: "error", Format: "console"},
		Store:  config.StoreConfig{Driver: "memory"},
		Queue:  config.QueueConfig{Driver: "memory"},
		Worker: config.WorkerConfig{Count: 1, Embedded: true},
		Gemini: config.GeminiConfig{Model: "gemini-2.5-flash", Location: "us-central1"},
	}
}

func TestClassifyCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"classify", "https://www.snopes.com/fact-check/x", "https://unknown.example/a"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())

	got := out.String()
	assert.Contains(t, got, "Fact-Checkers & Primary Sources")
	assert.Contains(t, got, "Unranked")
}

func TestNewAppMemoryHealth(t *testing.T) {
	a, err := newApp(context.Background(), testConfig())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.tokens)
	assert.Nil(t, a.media)

	rec := httptest.NewRecorder()
	a.handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "memory", body["store"])

	// no inference service configured
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/media", strings.NewReader(`{"mediaUrl":"https://x.test/a.png"}`))
	req.Header.Set("Content-Type", "application/json")
	a.handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNewAppRejectsUnknownStore(t *testing.T) {
	c := testConfig()
	c.Store.Driver = "cassandra"

	_, err := newApp(context.Background(), c)
	require.Error(t, err)
}

func TestCheckWithoutCredentialsFails(t *testing.T) {
	c := testConfig()
	a, err := newApp(context.Background(), c)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.orchestrator(nil).Run(context.Background(), "job-1", entity.AnalysisInput{Claim: "the earth is flat"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials not configured")
}
