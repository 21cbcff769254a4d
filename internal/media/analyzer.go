// Package media scores how likely an image, video or audio clip is to be synthetic.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"kaeva-factcheck/internal/entity"
)

// defaultFakeProbability is assumed when the inference service omits it.
const defaultFakeProbability = 0.5

type inferenceResponse struct {
	FakeProbability *float64        `json:"fake_probability"`
	Verdict         json.RawMessage `json:"verdict"`
	Scores          json.RawMessage `json:"scores"`
	EnsembleScores  json.RawMessage `json:"ensemble_scores"`
	Model           json.RawMessage `json:"model"`
	Version         json.RawMessage `json:"version"`
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithHTTPClient sets the client used for inference calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *Analyzer) {
		a.http = hc
	}
}

// WithFetcher sets the media downloader.
func WithFetcher(f *Fetcher) Option {
	return func(a *Analyzer) {
		a.fetcher = f
	}
}

type Analyzer struct {
	baseURL string
	http    *http.Client
	fetcher *Fetcher
}

func NewAnalyzer(baseURL string, opts ...Option) *Analyzer {
	a := &Analyzer{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 120 * time.Second},
	}
	for _, o := range opts {
		o(a)
	}
	if a.fetcher == nil {
		a.fetcher = NewFetcher(nil, 0)
	}
	return a
}

// Analyze never fails: any error along the way produces a degraded result
// with a nil AuthenticityScore and a note describing what went wrong.
func (a *Analyzer) Analyze(ctx context.Context, mediaURL, platform string) *entity.MediaAnalysis {
	payload, err := a.fetcher.Fetch(ctx, mediaURL)
	if err != nil {
		zap.L().Warn("media fetch failed", zap.String("url", mediaURL), zap.Error(err))
		return degraded(entity.MediaUnknown, fmt.Sprintf("media could not be fetched: %v", err))
	}

	res, err := a.infer(ctx, payload, platform)
	if err != nil {
		zap.L().Warn("media inference failed",
			zap.String("url", mediaURL),
			zap.String("type", string(payload.Type)),
			zap.Error(err),
		)
		return degraded(payload.Type, err.Error())
	}
	return res
}

func (a *Analyzer) endpoint(typ entity.MediaType, platform string) string {
	if typ == entity.MediaAudio {
		return a.baseURL + "/analyze/audio"
	}
	ep := a.baseURL + "/analyze/" + string(typ)
	if platform != "" {
		ep += "?platform=" + url.QueryEscape(platform)
	}
	return ep
}

func (a *Analyzer) infer(ctx context.Context, p *Payload, platform string) (*entity.MediaAnalysis, error) {
	body, contentType, err := multipartBody(p)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint(p.Type, platform), body)
	if err != nil {
		return nil, eris.Wrap(err, "media: build inference request")
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "media: inference call")
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "media: read inference response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, eris.Errorf("media: inference service returned %d", resp.StatusCode)
	}

	var ir inferenceResponse
	if err := json.Unmarshal(raw, &ir); err != nil {
		return nil, eris.Wrap(err, "media: decode inference response")
	}

	fake := defaultFakeProbability
	if ir.FakeProbability != nil {
		fake = *ir.FakeProbability
	}
	score := authenticity(fake)

	return &entity.MediaAnalysis{
		Type:              p.Type,
		AuthenticityScore: &score,
		Verdict:           ir.Verdict,
		Scores:            ir.Scores,
		EnsembleScores:    ir.EnsembleScores,
		Model:             ir.Model,
		Version:           ir.Version,
	}, nil
}

// multipartBody puts the media under form field "file".
func multipartBody(p *Payload) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", p.Filename)
	if err != nil {
		return nil, "", eris.Wrap(err, "media: create form file")
	}
	if _, err := part.Write(p.Data); err != nil {
		return nil, "", eris.Wrap(err, "media: write form file")
	}
	if err := mw.Close(); err != nil {
		return nil, "", eris.Wrap(err, "media: close multipart")
	}
	return &buf, mw.FormDataContentType(), nil
}

// authenticity is 1 - fakeProbability rounded to four places.
func authenticity(fakeProbability float64) float64 {
	if fakeProbability < 0 {
		fakeProbability = 0
	}
	if fakeProbability > 1 {
		fakeProbability = 1
	}
	return math.Round((1-fakeProbability)*10000) / 10000
}

func degraded(typ entity.MediaType, note string) *entity.MediaAnalysis {
	return &entity.MediaAnalysis{Type: typ, Notes: note}
}
