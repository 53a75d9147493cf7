// Package auth implements the one-shot OAuth2 client-credentials token
// exchange the API requires before any fetch.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrAuth is returned when the token exchange fails. It is fatal: the
// caller should fix credentials or configuration, not retry.
var ErrAuth = errors.New("token exchange failed")

// Credentials are the client-credentials grant parameters.
type Credentials struct {
	ClientID     string
	ClientSecret string

	// Scope is optional; empty means the API's default scope.
	Scope string
}

// TokenSource performs the token exchange against a token URL.
type TokenSource struct {
	tokenURL   string
	creds      Credentials
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewTokenSource creates a token source for the given token URL and
// credentials.
func NewTokenSource(tokenURL string, creds Credentials) *TokenSource {
	return &TokenSource{
		tokenURL: tokenURL,
		creds:    creds,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: log.With().Str("component", "auth").Logger(),
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (s *TokenSource) SetHTTPClient(client *http.Client) {
	s.httpClient = client
}

// Token exchanges the credentials for a bearer token. Token lifetime is
// the caller's concern; one token is assumed to cover a whole run.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", s.creds.ClientID)
	form.Set("client_secret", s.creds.ClientSecret)
	if s.creds.Scope != "" {
		form.Set("scope", s.creds.Scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrAuth, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error().Err(err).Msg("Token request failed")
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrAuth, err)
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.Error().
			Int("status", resp.StatusCode).
			Msg("Token endpoint rejected credentials")
		return "", fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("%w: parse response: %v", ErrAuth, err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("%w: response carried no access_token", ErrAuth)
	}

	s.logger.Info().Msg("Token acquired")
	return payload.AccessToken, nil
}
