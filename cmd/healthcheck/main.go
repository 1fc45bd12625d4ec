// Command healthcheck probes the local /healthz endpoint and exits non-zero
// when the service is unhealthy. It is used as the container HEALTHCHECK.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// probeURL derives the liveness URL from HTTP_ADDR or PORT.
func probeURL() string {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		port := os.Getenv("PORT")
		if port == "" {
			port = "10000"
		}
		addr = ":" + port
	}
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/healthz"
}

func probe(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("failed to close response body: %v", err)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}

type statusError struct{ code int }

func (e *statusError) Error() string { return "unhealthy: " + http.StatusText(e.code) }

func main() {
	client := &http.Client{Timeout: 3 * time.Second}
	if err := probe(context.Background(), client, probeURL()); err != nil {
		log.Print(err)
		os.Exit(1)
	}
}
