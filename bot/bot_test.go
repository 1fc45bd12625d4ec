package bot

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestFetchAvatar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/avatar.png":
			_, _ = w.Write(pngHeader)
		case "/page.png":
			_, _ = w.Write([]byte("<html><body>not an image</body></html>"))
		case "/huge.png":
			_, _ = w.Write(append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, maxAvatarBytes)...))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	ctx := context.Background()

	got, err := fetchAvatar(ctx, srv.Client(), srv.URL+"/avatar.png")
	if err != nil {
		t.Fatalf("fetchAvatar: %v", err)
	}
	want := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)
	if got != want {
		t.Errorf("data URI = %q, want %q", got, want)
	}

	for _, path := range []string{"/missing.png", "/page.png", "/huge.png"} {
		if _, err := fetchAvatar(ctx, srv.Client(), srv.URL+path); err == nil {
			t.Errorf("%s: expected error", path)
		}
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := fetchAvatar(canceled, srv.Client(), srv.URL+"/avatar.png"); err == nil || !strings.Contains(err.Error(), "download avatar") {
		t.Errorf("canceled context: err = %v", err)
	}
}
