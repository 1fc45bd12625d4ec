// Package twitchapi is a small Twitch Helix client: user lookup and batched
// live-stream queries, authenticated with an app access token.
package twitchapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	helixBaseURL = "https://api.twitch.tv/helix"
	// helixMaxRetries is the number of attempts per token for one request.
	helixMaxRetries = 3
	// MaxLoginsPerRequest is the Helix limit for user_login parameters.
	MaxLoginsPerRequest = 100
)

// User is a Twitch account.
type User struct {
	ID              string
	Login           string
	DisplayName     string
	ProfileImageURL string
}

// Stream is a live broadcast.
type Stream struct {
	UserID       string
	UserLogin    string // lowercase
	UserName     string // display name
	GameName     string
	Title        string
	ViewerCount  int
	StartedAt    time.Time
	ThumbnailURL string // contains {width} and {height} placeholders
}

// StatusError is a non-2xx Helix response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("helix request failed: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// HelixClient queries the Helix API.
type HelixClient struct {
	AppTokenSource *TokenSource
	ClientID       string
	HTTPClient     *http.Client
	// RetryDelay is the base backoff delay between attempts (default 200ms).
	RetryDelay time.Duration
}

// NewHelixClient builds a client with its own app token source.
func NewHelixClient(clientID, clientSecret string, httpClient *http.Client) *HelixClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &HelixClient{
		AppTokenSource: &TokenSource{ClientID: clientID, ClientSecret: clientSecret, HTTPClient: httpClient},
		ClientID:       clientID,
		HTTPClient:     httpClient,
	}
}

func (hc *HelixClient) http() *http.Client {
	if hc.HTTPClient != nil {
		return hc.HTTPClient
	}
	return http.DefaultClient
}

func (hc *HelixClient) retryDelay() time.Duration {
	if hc.RetryDelay > 0 {
		return hc.RetryDelay
	}
	return 200 * time.Millisecond
}

func isUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
}

// shouldRetry reports whether err is transient: 429, 5xx or a transport failure.
func shouldRetry(err error) bool {
	if !retry.IsRecoverable(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	return true
}

// get performs GET <helix>/<path>?query and decodes the JSON body into dest.
// Transient failures are retried with backoff; a 401 refreshes the app token
// once and starts a new round of attempts.
func (hc *HelixClient) get(ctx context.Context, path string, query url.Values, dest any) error {
	tok, err := hc.AppTokenSource.Get(ctx)
	if err != nil {
		return err
	}
	refreshed := false
	for {
		err = retry.Do(
			func() error { return hc.do(ctx, path, query, tok, dest) },
			retry.Context(ctx),
			retry.Attempts(helixMaxRetries),
			retry.Delay(hc.retryDelay()),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
			retry.RetryIf(shouldRetry),
			retry.OnRetry(func(n uint, err error) {
				slog.Debug("retrying helix request", slog.String("path", path), slog.Uint64("attempt", uint64(n+1)), slog.Any("err", err))
			}),
		)
		if err == nil || !isUnauthorized(err) || refreshed {
			return err
		}
		refreshed = true
		slog.Info("helix returned 401; refreshing app token", slog.String("path", path))
		hc.AppTokenSource.Invalidate()
		if tok, err = hc.AppTokenSource.Get(ctx); err != nil {
			return err
		}
	}
}

func (hc *HelixClient) do(ctx context.Context, path string, query url.Values, tok string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, helixBaseURL+path, nil)
	if err != nil {
		return retry.Unrecoverable(err)
	}
	req.URL.RawQuery = query.Encode()
	req.Header.Set("Client-Id", hc.ClientID)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := hc.http().Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return retry.Unrecoverable(fmt.Errorf("decode helix %s response: %w", path, err))
	}
	return nil
}

// GetUser looks up a login. The bool is false when no such user exists.
func (hc *HelixClient) GetUser(ctx context.Context, login string) (User, bool, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	if login == "" {
		return User{}, false, fmt.Errorf("login empty")
	}
	var body struct {
		Data []struct {
			ID              string `json:"id"`
			Login           string `json:"login"`
			DisplayName     string `json:"display_name"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"data"`
	}
	if err := hc.get(ctx, "/users", url.Values{"login": {login}}, &body); err != nil {
		return User{}, false, err
	}
	if len(body.Data) == 0 {
		return User{}, false, nil
	}
	u := body.Data[0]
	return User{ID: u.ID, Login: u.Login, DisplayName: u.DisplayName, ProfileImageURL: u.ProfileImageURL}, true, nil
}

type streamData struct {
	UserID       string `json:"user_id"`
	UserLogin    string `json:"user_login"`
	UserName     string `json:"user_name"`
	GameName     string `json:"game_name"`
	Title        string `json:"title"`
	ViewerCount  int    `json:"viewer_count"`
	StartedAt    string `json:"started_at"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (s streamData) toStream() Stream {
	st := Stream{
		UserID:       s.UserID,
		UserLogin:    strings.ToLower(s.UserLogin),
		UserName:     s.UserName,
		GameName:     s.GameName,
		Title:        s.Title,
		ViewerCount:  s.ViewerCount,
		ThumbnailURL: s.ThumbnailURL,
	}
	if t, err := time.Parse(time.RFC3339, s.StartedAt); err == nil {
		st.StartedAt = t
	}
	if st.UserName == "" {
		st.UserName = s.UserLogin
	}
	return st
}

// GetStreams returns the live subset of logins. Logins are queried in chunks
// of MaxLoginsPerRequest. Any failed chunk fails the whole call so callers
// never mistake a partial answer for "offline".
func (hc *HelixClient) GetStreams(ctx context.Context, logins ...string) ([]Stream, error) {
	seen := make(map[string]struct{}, len(logins))
	uniq := make([]string, 0, len(logins))
	for _, l := range logins {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		uniq = append(uniq, l)
	}
	out := []Stream{}
	for start := 0; start < len(uniq); start += MaxLoginsPerRequest {
		end := min(start+MaxLoginsPerRequest, len(uniq))
		q := url.Values{"user_login": uniq[start:end], "first": {strconv.Itoa(MaxLoginsPerRequest)}}
		var body struct {
			Data []streamData `json:"data"`
		}
		if err := hc.get(ctx, "/streams", q, &body); err != nil {
			return nil, fmt.Errorf("get streams (logins %d-%d): %w", start, end-1, err)
		}
		for _, s := range body.Data {
			out = append(out, s.toStream())
		}
	}
	return out, nil
}
