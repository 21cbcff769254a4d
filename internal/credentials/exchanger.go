// Package credentials trades a service-account key for a short-lived bearer token
// using the signed-assertion (JWT bearer) OAuth grant.
package credentials

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
)

// DefaultScope grants access to the model and inference APIs.
const DefaultScope = "https://www.googleapis.com/auth/cloud-platform"

// Option configures an Exchanger.
type Option func(*Exchanger)

// WithScopes replaces the requested OAuth scopes.
func WithScopes(scopes ...string) Option {
	return func(e *Exchanger) {
		if len(scopes) > 0 {
			e.scopes = scopes
		}
	}
}

// WithHTTPClient sets the client used to call the token endpoint.
func WithHTTPClient(hc *http.Client) Option {
	return func(e *Exchanger) {
		e.http = hc
	}
}

// WithTokenURL overrides the token_uri from the service-account file.
func WithTokenURL(u string) Option {
	return func(e *Exchanger) {
		e.tokenURL = u
	}
}

type Exchanger struct {
	raw       []byte
	scopes    []string
	tokenURL  string
	http      *http.Client
	projectID string
	email     string
}

type serviceAccountMeta struct {
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
}

// NewExchanger parses a service-account JSON document. The private key itself
// is only parsed when a token is requested, so a malformed key fails Token.
func NewExchanger(serviceAccountJSON []byte, opts ...Option) (*Exchanger, error) {
	if len(serviceAccountJSON) == 0 {
		return nil, eris.New("credentials: empty service account")
	}

	var meta serviceAccountMeta
	if err := json.Unmarshal(serviceAccountJSON, &meta); err != nil {
		return nil, eris.Wrap(err, "credentials: decode service account")
	}
	if meta.ClientEmail == "" {
		return nil, eris.New("credentials: service account has no client_email")
	}

	e := &Exchanger{
		raw:       serviceAccountJSON,
		scopes:    []string{DefaultScope},
		http:      &http.Client{Timeout: 30 * time.Second},
		projectID: meta.ProjectID,
		email:     meta.ClientEmail,
	}
	for _, o := range opts {
		o(e)
	}

	// Validate the document shape up front.
	if _, err := e.config(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Exchanger) config() (*jwt.Config, error) {
	cfg, err := google.JWTConfigFromJSON(e.raw, e.scopes...)
	if err != nil {
		return nil, eris.Wrap(err, "credentials: parse service account")
	}
	if e.tokenURL != "" {
		cfg.TokenURL = e.tokenURL
	}
	return cfg, nil
}

// Token signs a fresh RS256 assertion (iss, scope, aud=token endpoint,
// iat, exp=iat+1h) and exchanges it for an access token.
func (e *Exchanger) Token(ctx context.Context) (string, error) {
	cfg, err := e.config()
	if err != nil {
		return "", err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.http)
	tok, err := cfg.TokenSource(ctx).Token()
	if err != nil {
		return "", eris.Wrap(err, "credentials: token exchange")
	}
	if tok.AccessToken == "" {
		return "", eris.New("credentials: token response missing access_token")
	}
	return tok.AccessToken, nil
}

func (e *Exchanger) ProjectID() string { return e.projectID }

func (e *Exchanger) Email() string { return e.email }
