// Package gemini runs search-grounded claim verification against a generative model.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"kaeva-factcheck/internal/entity"
)

const (
	defaultModel    = "gemini-2.5-flash"
	defaultLocation = "us-central1"
)

// VerifyRequest is one claim to verify.
type VerifyRequest struct {
	Claim string
	Token string
	Media *entity.MediaAnalysis
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the generateContent URL.
func WithEndpoint(u string) Option {
	return func(c *Client) {
		c.endpoint = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithAPIKey sends the key in x-goog-api-key alongside the bearer token.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithRateLimit bounds outbound model calls.
func WithRateLimit(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithTierLabels sets the source priority labels listed in the prompt.
func WithTierLabels(labels []string) Option {
	return func(c *Client) {
		c.tierLabels = labels
	}
}

type Client struct {
	endpoint   string
	apiKey     string
	http       *http.Client
	limiter    *rate.Limiter
	tierLabels []string
}

// VertexEndpoint builds the generateContent URL for a project-scoped model.
func VertexEndpoint(project, location, model string) string {
	if location == "" {
		location = defaultLocation
	}
	if model == "" {
		model = defaultModel
	}
	return fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s:generateContent",
		location, project, location, model)
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		http: &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type part struct {
	Text string `json:"text,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type tool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	Tools            []tool           `json:"tools"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type groundingChunk struct {
	Web *struct {
		URI   string `json:"uri"`
		Title string `json:"title"`
	} `json:"web,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content           content `json:"content"`
		GroundingMetadata *struct {
			GroundingChunks  []groundingChunk `json:"groundingChunks"`
			WebSearchQueries []string         `json:"webSearchQueries"`
		} `json:"groundingMetadata,omitempty"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Verify asks the model to fact-check the claim with search grounding. The
// returned text is unparsed; grounding sources come back with stance
// "referenced". Any transport failure or non-2xx status is an error.
func (c *Client) Verify(ctx context.Context, req VerifyRequest) (*entity.Verification, error) {
	if c.endpoint == "" {
		return nil, eris.New("gemini: endpoint not configured")
	}
	if strings.TrimSpace(req.Claim) == "" {
		return nil, eris.New("gemini: empty claim")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "gemini: rate limiter wait")
		}
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: BuildPrompt(req.Claim, c.tierLabels, req.Media)}},
		}},
		Tools:            []tool{{GoogleSearch: &struct{}{}}},
		GenerationConfig: generationConfig{Temperature: 0.2},
	})
	if err != nil {
		return nil, eris.Wrap(err, "gemini: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "gemini: build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}
	if c.apiKey != "" {
		httpReq.Header.Set("x-goog-api-key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: generateContent call")
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, eris.Errorf("gemini: generateContent returned %d", resp.StatusCode)
	}

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return nil, eris.Wrap(err, "gemini: decode response")
	}
	if gr.Error != nil {
		return nil, eris.Errorf("gemini: %s", gr.Error.Message)
	}

	out := &entity.Verification{}
	if len(gr.Candidates) > 0 {
		cand := gr.Candidates[0]
		var text strings.Builder
		for _, p := range cand.Content.Parts {
			text.WriteString(p.Text)
		}
		out.Text = text.String()

		if gm := cand.GroundingMetadata; gm != nil {
			for _, ch := range gm.GroundingChunks {
				if ch.Web == nil || ch.Web.URI == "" {
					continue
				}
				out.GroundingSources = append(out.GroundingSources, entity.Source{
					Title:  ch.Web.Title,
					URL:    ch.Web.URI,
					Stance: entity.StanceReferenced,
				})
			}
			out.SearchQueries = gm.WebSearchQueries
		}
	}

	zap.L().Debug("gemini verify complete",
		zap.Int("text_len", len(out.Text)),
		zap.Int("grounding_sources", len(out.GroundingSources)),
		zap.Int("search_queries", len(out.SearchQueries)),
		zap.Duration("duration", time.Since(start)),
	)
	return out, nil
}
