// Package store defines the persistence contract for guild registrations and
// watched streamers, and ships the interchangeable backends that implement it:
// a relational store (Postgres or SQLite), a MongoDB document store, and an
// in-memory store.
//
// User-initiated mutations (add/remove streamer, set channel, custom messages)
// never return a Go error. They return a Result whose Message is shown to the
// user verbatim. Reads and liveness-flag updates run inside the background
// scheduler, so they log failures and fall back to a safe zero value.
package store

import (
	"context"
	"time"
)

// Backend names accepted by Open.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMongo    = "mongodb"
	BackendMemory   = "memory"
)

// Guild is one registered chat server.
type Guild struct {
	GuildID               string
	NotificationChannelID string // empty until set
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Streamer is one (guild, username) watch entry.
type Streamer struct {
	GuildID       string
	Username      string // always normalized
	IsLive        bool
	CustomMessage string // empty when unset
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Stats are best-effort aggregate counts for the health endpoint.
type Stats struct {
	TotalGuilds        int `json:"totalGuilds"`
	TotalStreamers     int `json:"totalStreamers"`
	TotalLiveStreamers int `json:"totalLiveStreamers"`
}

// Store is the contract shared by every backend. All username arguments are
// normalized by the implementation; callers may pass raw user input.
type Store interface {
	// EnsureGuild creates the guild registration if it does not exist yet.
	EnsureGuild(ctx context.Context, guildID string) error

	AddStreamer(ctx context.Context, guildID, username string) Result
	RemoveStreamer(ctx context.Context, guildID, username string) Result
	Streamers(ctx context.Context, guildID string) []string

	SetNotificationChannel(ctx context.Context, guildID, channelID string) Result
	// NotificationChannel returns "" when no channel is configured.
	NotificationChannel(ctx context.Context, guildID string) string

	IsLive(ctx context.Context, guildID, username string) bool
	SetLive(ctx context.Context, guildID, username string) Outcome
	SetOffline(ctx context.Context, guildID, username string) Outcome

	SetCustomMessage(ctx context.Context, guildID, username, message string) Result
	// CustomMessage returns "" when no custom message is set.
	CustomMessage(ctx context.Context, guildID, username string) string
	RemoveCustomMessage(ctx context.Context, guildID, username string) Result

	Guilds(ctx context.Context) []string
	Stats(ctx context.Context) Stats

	// Name reports the backend name (one of the Backend constants).
	Name() string
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
