// Package ocr extracts on-image text from remote media through the inference service.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"kaeva-factcheck/internal/entity"
	"kaeva-factcheck/internal/media"
)

// Option configures an Extractor.
type Option func(*Extractor)

// WithHTTPClient sets the client used for OCR calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(e *Extractor) {
		e.http = hc
	}
}

// WithFetcher sets the media downloader.
func WithFetcher(f *media.Fetcher) Option {
	return func(e *Extractor) {
		e.fetcher = f
	}
}

type Extractor struct {
	endpoint string
	http     *http.Client
	fetcher  *media.Fetcher
}

func NewExtractor(baseURL string, opts ...Option) *Extractor {
	e := &Extractor{
		endpoint: strings.TrimRight(baseURL, "/") + "/ocr",
		http:     &http.Client{Timeout: 120 * time.Second},
	}
	for _, o := range opts {
		o(e)
	}
	if e.fetcher == nil {
		e.fetcher = media.NewFetcher(nil, 0)
	}
	return e
}

// Extract downloads the media and returns the recognized text. Keys of the
// OCR response other than "text" are kept in Fields.
func (e *Extractor) Extract(ctx context.Context, mediaURL string) (*entity.TextExtraction, error) {
	p, err := e.fetcher.Fetch(ctx, mediaURL)
	if err != nil {
		return nil, eris.Wrap(err, "ocr: fetch media")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", p.Filename)
	if err != nil {
		return nil, eris.Wrap(err, "ocr: create form file")
	}
	if _, err := part.Write(p.Data); err != nil {
		return nil, eris.Wrap(err, "ocr: write form file")
	}
	if err := mw.Close(); err != nil {
		return nil, eris.Wrap(err, "ocr: close multipart")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, &buf)
	if err != nil {
		return nil, eris.Wrap(err, "ocr: build request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "ocr: API call")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "ocr: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("ocr: API returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, eris.Wrap(err, "ocr: decode response")
	}

	out := &entity.TextExtraction{}
	if raw, ok := fields["text"]; ok {
		if err := json.Unmarshal(raw, &out.Text); err != nil {
			return nil, eris.Wrap(err, "ocr: text field is not a string")
		}
		delete(fields, "text")
	}
	out.Text = strings.TrimSpace(out.Text)
	if len(fields) > 0 {
		out.Fields = fields
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
