package config

import (
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DISCORD_TOKEN", "OWNER_ID", "COMMAND_PREFIX", "STATUS_TYPE", "STATUS_ACTIVITY", "STATUS_IMAGE_URL",
		"TWITCH_CLIENT_ID", "TWITCH_CLIENT_SECRET", "DEFAULT_MESSAGE", "EMBED_COLOR",
		"STORAGE_BACKEND", "DB_DSN", "SQLITE_PATH", "MONGODB_URI", "MONGODB_DATABASE",
		"POLL_INTERVAL", "SCHEDULER_TICK_TIMEOUT", "SCHEDULER_WORKERS", "HTTP_ADDR", "PORT", "HEALTH_RATE_LIMIT",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_FILE", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_TRACES_SAMPLER_ARG",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.CommandPrefix != "!" {
		t.Errorf("CommandPrefix = %q", cfg.CommandPrefix)
	}
	if cfg.StorageBackend != "postgres" {
		t.Errorf("StorageBackend = %q", cfg.StorageBackend)
	}
	if cfg.PollInterval != time.Minute {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.SchedulerWorkers != 1 {
		t.Errorf("SchedulerWorkers = %d", cfg.SchedulerWorkers)
	}
	if cfg.HTTPAddr != ":10000" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.HealthRateLimit != 60 {
		t.Errorf("HealthRateLimit = %d", cfg.HealthRateLimit)
	}
	if cfg.EmbedColor != 9520895 {
		t.Errorf("EmbedColor = %d", cfg.EmbedColor)
	}
	if cfg.DefaultMessage != "@everyone **{streamer}** is now streaming!" {
		t.Errorf("DefaultMessage = %q", cfg.DefaultMessage)
	}
	if cfg.StatusType != "WATCHING" || cfg.StatusActivity != "Twitch Streams" {
		t.Errorf("status = %q %q", cfg.StatusType, cfg.StatusActivity)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("logging = %q %q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("STORAGE_BACKEND", "SQLite")
	t.Setenv("POLL_INTERVAL", "30s")
	t.Setenv("SCHEDULER_WORKERS", "4")
	t.Setenv("EMBED_COLOR", "#9146FF")
	t.Setenv("STATUS_TYPE", "playing")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080 from PORT", cfg.HTTPAddr)
	}
	if cfg.StorageBackend != "sqlite" {
		t.Errorf("StorageBackend = %q", cfg.StorageBackend)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.SchedulerWorkers != 4 {
		t.Errorf("SchedulerWorkers = %d", cfg.SchedulerWorkers)
	}
	if cfg.EmbedColor != 0x9146FF {
		t.Errorf("EmbedColor = %d", cfg.EmbedColor)
	}
	if cfg.StatusType != "PLAYING" {
		t.Errorf("StatusType = %q", cfg.StatusType)
	}

	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	cfg, _ = Load()
	if cfg.HTTPAddr != "127.0.0.1:9000" {
		t.Errorf("HTTP_ADDR should win over PORT, got %q", cfg.HTTPAddr)
	}
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	tests := map[string]string{
		"POLL_INTERVAL":           "soon",
		"SCHEDULER_TICK_TIMEOUT":  "-5s",
		"SCHEDULER_WORKERS":       "0",
		"EMBED_COLOR":             "purple",
		"OTEL_TRACES_SAMPLER_ARG": "2",
		"HEALTH_RATE_LIMIT":       "-1",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%q should fail", key, val)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("TWITCH_CLIENT_ID", "id")
	t.Setenv("TWITCH_CLIENT_SECRET", "secret")
	cfg, _ := Load()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	bad := *cfg
	bad.DiscordToken = ""
	bad.StorageBackend = "cassandra"
	err := bad.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"DISCORD_TOKEN", "STORAGE_BACKEND"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}

	mongo := *cfg
	mongo.StorageBackend = "mongodb"
	if err := mongo.Validate(); err == nil || !strings.Contains(err.Error(), "MONGODB_URI") {
		t.Errorf("expected MONGODB_URI error, got %v", err)
	}

	img := *cfg
	img.StatusImageURL = "https://example.com/avatar.svg"
	if err := img.Validate(); err == nil || !strings.Contains(err.Error(), "STATUS_IMAGE_URL") {
		t.Errorf("expected STATUS_IMAGE_URL error, got %v", err)
	}
	img.StatusImageURL = "https://example.com/avatar.PNG"
	if err := img.Validate(); err != nil {
		t.Errorf("valid image URL rejected: %v", err)
	}

	slow := *cfg
	slow.TickTimeout = 2 * time.Minute
	if err := slow.Validate(); err == nil {
		t.Error("expected error when tick timeout exceeds interval")
	}
}

func TestValidStatusType(t *testing.T) {
	for _, s := range []string{"playing", "STREAMING", "Listening", "watching", "competing"} {
		if !ValidStatusType(s) {
			t.Errorf("ValidStatusType(%q) = false", s)
		}
	}
	if ValidStatusType("dancing") {
		t.Error("ValidStatusType(dancing) = true")
	}
}

func TestValidImageURL(t *testing.T) {
	tests := map[string]bool{
		"https://cdn.example.com/a.png":    true,
		"http://example.com/x/y.JPEG":      true,
		"https://example.com/anim.gif":     true,
		"https://example.com/pic.webp":     true,
		"https://example.com/pic.png?w=64": false,
		"ftp://example.com/a.png":          false,
		"https://example.com/a.svg":        false,
		"not a url":                        false,
	}
	for in, want := range tests {
		if got := ValidImageURL(in); got != want {
			t.Errorf("ValidImageURL(%q) = %v, want %v", in, got, want)
		}
	}
}
