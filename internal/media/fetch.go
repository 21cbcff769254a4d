package media

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"kaeva-factcheck/internal/entity"
)

// DefaultMaxBytes caps how much of a remote media file is downloaded.
const DefaultMaxBytes int64 = 50 << 20

// ErrTooLarge is returned when the media exceeds the configured cap.
var ErrTooLarge = eris.New("media: payload exceeds size limit")

// Payload is a downloaded media file.
type Payload struct {
	Data        []byte
	ContentType string
	Filename    string
	Type        entity.MediaType
}

type Fetcher struct {
	http     *http.Client
	maxBytes int64
}

// NewFetcher returns a Fetcher; maxBytes <= 0 uses DefaultMaxBytes.
func NewFetcher(hc *http.Client, maxBytes int64) *Fetcher {
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{http: hc, maxBytes: maxBytes}
}

func (f *Fetcher) Fetch(ctx context.Context, mediaURL string) (*Payload, error) {
	u, err := url.Parse(strings.TrimSpace(mediaURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, eris.Errorf("media: invalid url %q", mediaURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "media: build request")
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "media: fetch")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, eris.Errorf("media: fetch returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, eris.Wrap(err, "media: read body")
	}
	if int64(len(data)) > f.maxBytes {
		return nil, ErrTooLarge
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	typ := ClassifyType(ct)

	return &Payload{
		Data:        data,
		ContentType: ct,
		Filename:    filenameFor(u, typ),
		Type:        typ,
	}, nil
}

// ClassifyType maps a content type to a media type: video/* and audio/* are
// recognized, everything else is treated as an image.
func ClassifyType(contentType string) entity.MediaType {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch {
	case strings.HasPrefix(mt, "video/"):
		return entity.MediaVideo
	case strings.HasPrefix(mt, "audio/"):
		return entity.MediaAudio
	default:
		return entity.MediaImage
	}
}

func filenameFor(u *url.URL, typ entity.MediaType) string {
	base := path.Base(u.Path)
	if base != "" && base != "." && base != "/" && strings.Contains(base, ".") {
		return base
	}
	switch typ {
	case entity.MediaVideo:
		return "media.mp4"
	case entity.MediaAudio:
		return "media.mp3"
	default:
		return "media.jpg"
	}
}
