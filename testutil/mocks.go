// Package testutil holds shared fixtures: a mock Twitch server and store
// setup helpers for the relational and document backends.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// MockTwitchServer creates a test server that mocks Twitch Helix API responses
type MockTwitchServer struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	hits     map[string]int
}

// NewMockTwitchServer creates a new mock Twitch API server
func NewMockTwitchServer(t *testing.T) *MockTwitchServer {
	t.Helper()
	m := &MockTwitchServer{
		handlers: make(map[string]http.HandlerFunc),
		hits:     make(map[string]int),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.hits[r.URL.Path]++
		handler, ok := m.handlers[r.URL.Path]
		m.mu.Unlock()
		if ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// Handle installs handler for path, replacing any previous one.
func (m *MockTwitchServer) Handle(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// Hits returns how many requests path has received.
func (m *MockTwitchServer) Hits(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[path]
}

// Client returns an HTTP client that sends every request, whatever its host,
// to the mock server.
func (m *MockTwitchServer) Client() *http.Client {
	return &http.Client{Transport: &RewriteTransport{Transport: http.DefaultTransport, Host: m.URL}}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // test mock response
}

// MockUser is one entry served by /helix/users.
type MockUser struct {
	ID              string `json:"id"`
	Login           string `json:"login"`
	DisplayName     string `json:"display_name"`
	ProfileImageURL string `json:"profile_image_url"`
}

// MockUserResponse serves /helix/users, answering only the requested login.
func (m *MockTwitchServer) MockUserResponse(users ...MockUser) {
	m.Handle("/helix/users", func(w http.ResponseWriter, r *http.Request) {
		login := strings.ToLower(r.URL.Query().Get("login"))
		data := []MockUser{}
		for _, u := range users {
			if u.Login == login {
				data = append(data, u)
			}
		}
		writeJSON(w, map[string]any{"data": data})
	})
}

// MockStream is one entry served by /helix/streams.
type MockStream struct {
	UserID       string `json:"user_id"`
	UserLogin    string `json:"user_login"`
	UserName     string `json:"user_name"`
	GameName     string `json:"game_name"`
	Title        string `json:"title"`
	ViewerCount  int    `json:"viewer_count"`
	StartedAt    string `json:"started_at"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// MockStreamsResponse serves /helix/streams, returning the subset of streams
// whose login was requested via user_login.
func (m *MockTwitchServer) MockStreamsResponse(streams ...MockStream) {
	m.Handle("/helix/streams", func(w http.ResponseWriter, r *http.Request) {
		wanted := make(map[string]bool)
		for _, l := range r.URL.Query()["user_login"] {
			wanted[strings.ToLower(l)] = true
		}
		data := []MockStream{}
		for _, s := range streams {
			if wanted[s.UserLogin] {
				data = append(data, s)
			}
		}
		writeJSON(w, map[string]any{"data": data, "pagination": map[string]any{}})
	})
}

// MockOAuthTokenResponse adds a handler for OAuth token endpoint
func (m *MockTwitchServer) MockOAuthTokenResponse(accessToken string, expiresIn int) {
	m.Handle("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"access_token": accessToken,
			"expires_in":   expiresIn,
			"token_type":   "bearer",
		})
	})
}

// MockError makes path answer with status.
func (m *MockTwitchServer) MockError(path string, status int) {
	m.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(status), status)
	})
}

// RewriteTransport rewrites all requests to use the test server
type RewriteTransport struct {
	Transport http.RoundTripper
	Host      string
}

func (t *RewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = "http"
	if t.Host != "" {
		host := strings.TrimPrefix(t.Host, "http://")
		host = strings.TrimPrefix(host, "https://")
		req.URL.Host = host
	}
	return t.Transport.RoundTrip(req)
}
