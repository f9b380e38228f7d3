// Package session adapts the external session-token verifier. Token
// cryptography lives entirely on the remote side; this client only relays
// the bearer credential and trusts the verifier's answer.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"gatehouse/internal/config"
	"gatehouse/internal/domain"
)

type Authenticator struct {
	verifyURL  string
	httpClient *http.Client
}

type Option func(*Authenticator)

func WithHTTPClient(client *http.Client) Option {
	return func(a *Authenticator) {
		if client != nil {
			a.httpClient = client
		}
	}
}

func NewAuthenticator(cfg config.Config, opts ...Option) (*Authenticator, error) {
	verifyURL := strings.TrimSpace(cfg.SessionVerifyURL)
	if verifyURL == "" {
		return nil, errors.New("SESSION_VERIFY_URL is required")
	}
	auth := &Authenticator{
		verifyURL:  verifyURL,
		httpClient: &http.Client{Timeout: cfg.SessionVerifyTimeout()},
	}
	for _, opt := range opts {
		opt(auth)
	}
	return auth, nil
}

// Authenticate resolves a bearer token to a verified identity. Every failure
// mode (missing token, transport error, non-200, expired session) collapses
// to ErrIdentityUnverified; callers never retry.
func (a *Authenticator) Authenticate(ctx context.Context, bearerToken string) (domain.Identity, error) {
	token := strings.TrimSpace(bearerToken)
	if token == "" {
		return domain.Identity{}, domain.ErrIdentityUnverified
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.verifyURL, nil)
	if err != nil {
		return domain.Identity{}, domain.ErrIdentityUnverified
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return domain.Identity{}, domain.ErrIdentityUnverified
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Identity{}, domain.ErrIdentityUnverified
	}
	var payload struct {
		UserID string `json:"user_id"`
		Email  string `json:"email"`
		Phone  string `json:"phone"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.Identity{}, domain.ErrIdentityUnverified
	}
	if payload.UserID == "" {
		return domain.Identity{}, domain.ErrIdentityUnverified
	}
	return domain.Identity{
		UserID: payload.UserID,
		Email:  payload.Email,
		Phone:  payload.Phone,
	}, nil
}
