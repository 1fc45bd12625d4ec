package twitchapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	defaultTokenURL = "https://id.twitch.tv/oauth2/token"
	// tokenExpiryBuffer forces a refresh this long before the token expires.
	tokenExpiryBuffer = 60 * time.Second
)

// TokenSource fetches and caches a Twitch app access (client credentials) token.
type TokenSource struct {
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
	TokenURL     string // defaults to the Twitch id endpoint

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

func (ts *TokenSource) fresh() bool {
	return ts.token != "" && time.Until(ts.expiresAt) > tokenExpiryBuffer
}

// Get returns a valid (fresh or cached) app access token.
func (ts *TokenSource) Get(ctx context.Context) (string, error) {
	ts.mu.RLock()
	if ts.fresh() {
		tok := ts.token
		ts.mu.RUnlock()
		return tok, nil
	}
	ts.mu.RUnlock()
	return ts.refresh(ctx)
}

// SetToken seeds the cache. Used by tests and by callers that already hold a token.
func (ts *TokenSource) SetToken(token string, expiresAt time.Time) {
	ts.mu.Lock()
	ts.token = token
	ts.expiresAt = expiresAt
	ts.mu.Unlock()
}

// Invalidate drops the cached token so the next Get fetches a new one.
func (ts *TokenSource) Invalidate() {
	ts.mu.Lock()
	ts.token = ""
	ts.expiresAt = time.Time{}
	ts.mu.Unlock()
}

func (ts *TokenSource) refresh(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.fresh() {
		return ts.token, nil
	}
	if ts.ClientID == "" || ts.ClientSecret == "" {
		return "", errors.New("missing client id/secret for twitch app token")
	}
	tokenURL := ts.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	cfg := clientcredentials.Config{
		ClientID:     ts.ClientID,
		ClientSecret: ts.ClientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	if ts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, ts.HTTPClient)
	}
	tok, err := cfg.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("twitch token request failed: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("empty access_token in twitch response")
	}
	ts.token = tok.AccessToken
	ts.expiresAt = tok.Expiry
	if ts.expiresAt.IsZero() {
		ts.expiresAt = time.Now().Add(time.Hour)
	}
	return ts.token, nil
}
