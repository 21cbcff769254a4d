package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kaeva-factcheck/internal/entity"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type inferenceCall struct {
	path     string
	platform string
	hasQuery bool
	filename string
	body     []byte
}

// newServers starts one server that hosts the media and plays the inference service.
func newServers(t *testing.T, contentType string, inferStatus int, inferBody string) (*httptest.Server, *[]inferenceCall) {
	t.Helper()
	var calls []inferenceCall

	mux := http.NewServeMux()
	mux.HandleFunc("/files/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte("MEDIA-BYTES"))
	})
	mux.HandleFunc("/analyze/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		calls = append(calls, inferenceCall{
			path:     r.URL.Path,
			platform: r.URL.Query().Get("platform"),
			hasQuery: r.URL.RawQuery != "",
			filename: hdr.Filename,
			body:     data,
		})
		w.WriteHeader(inferStatus)
		_, _ = w.Write([]byte(inferBody))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestAnalyze_ImageWithPlatform(t *testing.T) {
	srv, calls := newServers(t, "image/png", http.StatusOK,
		`{"fake_probability":0.1234,"verdict":"likely_real","scores":{"a":0.1},"ensemble_scores":[0.1,0.2],"model":"ens-v2","version":"2.1"}`)

	a := NewAnalyzer(srv.URL)
	res := a.Analyze(context.Background(), srv.URL+"/files/photo.png", "instagram")

	require.NotNil(t, res)
	assert.Equal(t, entity.MediaImage, res.Type)
	require.NotNil(t, res.AuthenticityScore)
	assert.Equal(t, 0.8766, *res.AuthenticityScore)
	assert.Equal(t, "likely_real", res.VerdictText())
	assert.JSONEq(t, `{"a":0.1}`, string(res.Scores))
	assert.JSONEq(t, `"ens-v2"`, string(res.Model))
	assert.Empty(t, res.Notes)

	require.Len(t, *calls, 1)
	c := (*calls)[0]
	assert.Equal(t, "/analyze/image", c.path)
	assert.Equal(t, "instagram", c.platform)
	assert.Equal(t, "photo.png", c.filename)
	assert.Equal(t, []byte("MEDIA-BYTES"), c.body)
}

func TestAnalyze_VideoEndpoint(t *testing.T) {
	srv, calls := newServers(t, "video/mp4", http.StatusOK, `{"fake_probability":1}`)

	res := NewAnalyzer(srv.URL).Analyze(context.Background(), srv.URL+"/files/", "tiktok")

	assert.Equal(t, entity.MediaVideo, res.Type)
	require.NotNil(t, res.AuthenticityScore)
	assert.Equal(t, 0.0, *res.AuthenticityScore)
	require.Len(t, *calls, 1)
	assert.Equal(t, "/analyze/video", (*calls)[0].path)
	assert.Equal(t, "tiktok", (*calls)[0].platform)
	assert.Equal(t, "media.mp4", (*calls)[0].filename)
}

func TestAnalyze_AudioOmitsPlatform(t *testing.T) {
	srv, calls := newServers(t, "audio/mpeg", http.StatusOK, `{"verdict":"uncertain"}`)

	res := NewAnalyzer(srv.URL).Analyze(context.Background(), srv.URL+"/files/clip.mp3", "youtube")

	assert.Equal(t, entity.MediaAudio, res.Type)
	require.NotNil(t, res.AuthenticityScore)
	assert.Equal(t, 0.5, *res.AuthenticityScore, "missing fake_probability defaults to 0.5")
	require.Len(t, *calls, 1)
	assert.Equal(t, "/analyze/audio", (*calls)[0].path)
	assert.False(t, (*calls)[0].hasQuery)
}

func TestAnalyze_InferenceErrorIsDegraded(t *testing.T) {
	srv, _ := newServers(t, "image/jpeg", http.StatusServiceUnavailable, `busy`)

	res := NewAnalyzer(srv.URL).Analyze(context.Background(), srv.URL+"/files/a.jpg", "")

	require.NotNil(t, res)
	assert.Equal(t, entity.MediaImage, res.Type)
	assert.Nil(t, res.AuthenticityScore)
	assert.False(t, res.HasScore())
	assert.Contains(t, res.Notes, "503")
}

func TestAnalyze_UndecodableResponseIsDegraded(t *testing.T) {
	srv, _ := newServers(t, "image/jpeg", http.StatusOK, `<html>`)

	res := NewAnalyzer(srv.URL).Analyze(context.Background(), srv.URL+"/files/a.jpg", "")

	assert.Nil(t, res.AuthenticityScore)
	assert.NotEmpty(t, res.Notes)
}

func TestAnalyze_UnreachableMediaIsDegraded(t *testing.T) {
	srv, calls := newServers(t, "image/jpeg", http.StatusOK, `{}`)

	res := NewAnalyzer(srv.URL).Analyze(context.Background(), "http://127.0.0.1:1/missing.jpg", "")

	require.NotNil(t, res)
	assert.Equal(t, entity.MediaUnknown, res.Type)
	assert.Nil(t, res.AuthenticityScore)
	assert.Contains(t, res.Notes, "could not be fetched")
	assert.Empty(t, *calls)
}

func TestAnalyze_InvalidURLIsDegraded(t *testing.T) {
	res := NewAnalyzer("http://127.0.0.1:1").Analyze(context.Background(), "ftp://example.org/a.png", "")
	assert.Nil(t, res.AuthenticityScore)
	assert.NotEmpty(t, res.Notes)
}

func TestFetch_SizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	_, err := NewFetcher(nil, 32).Fetch(context.Background(), srv.URL+"/big.bin")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestClassifyType(t *testing.T) {
	assert.Equal(t, entity.MediaVideo, ClassifyType("video/webm"))
	assert.Equal(t, entity.MediaAudio, ClassifyType("audio/ogg; codecs=opus"))
	assert.Equal(t, entity.MediaImage, ClassifyType("image/png"))
	assert.Equal(t, entity.MediaImage, ClassifyType("application/octet-stream"))
	assert.Equal(t, entity.MediaImage, ClassifyType(""))
}
