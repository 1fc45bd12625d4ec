package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/onnwee/livewatch/backend/db"
)

// SQLStore implements Store on a relational database. Queries are written
// with '?' placeholders and rebound for Postgres.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

// NewSQL wraps an open, migrated database. dialect is db.DialectPostgres or
// db.DialectSQLite.
func NewSQL(conn *sql.DB, dialect string) *SQLStore {
	return &SQLStore{db: conn, dialect: dialect}
}

// DB exposes the underlying handle (health checks, tests).
func (s *SQLStore) DB() *sql.DB { return s.db }

func (s *SQLStore) Name() string { return s.dialect }

func (s *SQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLStore) Close(context.Context) error { return s.db.Close() }

func (s *SQLStore) q(query string) string {
	if s.dialect != db.DialectPostgres {
		return query
	}
	return rebind(query)
}

// rebind rewrites '?' placeholders to $1..$n.
func rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLStore) EnsureGuild(ctx context.Context, guildID string) error {
	_, err := s.exec(ctx, `INSERT INTO guilds (guild_id) VALUES (?) ON CONFLICT (guild_id) DO NOTHING`, guildID)
	return err
}

func (s *SQLStore) AddStreamer(ctx context.Context, guildID, username string) Result {
	u := NormalizeUsername(username)
	if err := s.EnsureGuild(ctx, guildID); err != nil {
		return dbFailure(s.dialect, "adding streamer", err)
	}
	n, err := s.exec(ctx, `INSERT INTO streamers (guild_id, username) VALUES (?, ?)
		ON CONFLICT (guild_id, username) DO NOTHING`, guildID, u)
	if err != nil {
		return dbFailure(s.dialect, "adding streamer", err)
	}
	if n == 0 {
		return alreadyWatched(u)
	}
	return added(u)
}

func (s *SQLStore) RemoveStreamer(ctx context.Context, guildID, username string) Result {
	u := NormalizeUsername(username)
	n, err := s.exec(ctx, `DELETE FROM streamers WHERE guild_id = ? AND username = ?`, guildID, u)
	if err != nil {
		return dbFailure(s.dialect, "removing streamer", err)
	}
	if n == 0 {
		return notWatched(u)
	}
	return removed(u)
}

func (s *SQLStore) Streamers(ctx context.Context, guildID string) []string {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT username FROM streamers WHERE guild_id = ? ORDER BY username`), guildID)
	if err != nil {
		logRead(s.dialect, "streamers", err, "guild", guildID)
		return []string{}
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			logRead(s.dialect, "streamers", err, "guild", guildID)
			return []string{}
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		logRead(s.dialect, "streamers", err, "guild", guildID)
		return []string{}
	}
	return out
}

func (s *SQLStore) SetNotificationChannel(ctx context.Context, guildID, channelID string) Result {
	_, err := s.exec(ctx, `INSERT INTO guilds (guild_id, notification_channel_id) VALUES (?, ?)
		ON CONFLICT (guild_id) DO UPDATE SET
			notification_channel_id = excluded.notification_channel_id,
			updated_at = CURRENT_TIMESTAMP`, guildID, channelID)
	if err != nil {
		return dbFailure(s.dialect, "setting notification channel", err)
	}
	return channelSet()
}

func (s *SQLStore) NotificationChannel(ctx context.Context, guildID string) string {
	var ch sql.NullString
	err := s.db.QueryRowContext(ctx, s.q(`SELECT notification_channel_id FROM guilds WHERE guild_id = ?`), guildID).Scan(&ch)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logRead(s.dialect, "notification_channel", err, "guild", guildID)
		}
		return ""
	}
	return ch.String
}

func (s *SQLStore) IsLive(ctx context.Context, guildID, username string) bool {
	var live bool
	err := s.db.QueryRowContext(ctx, s.q(`SELECT is_live FROM streamers WHERE guild_id = ? AND username = ?`),
		guildID, NormalizeUsername(username)).Scan(&live)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logRead(s.dialect, "is_live", err, "guild", guildID, "streamer", username)
		}
		return false
	}
	return live
}

func (s *SQLStore) setLive(ctx context.Context, op, guildID, username string, live bool) Outcome {
	_, err := s.exec(ctx, `UPDATE streamers SET is_live = ?, updated_at = CURRENT_TIMESTAMP
		WHERE guild_id = ? AND username = ?`, live, guildID, NormalizeUsername(username))
	return logged(s.dialect, op, guildID, username, err)
}

func (s *SQLStore) SetLive(ctx context.Context, guildID, username string) Outcome {
	return s.setLive(ctx, "set_live", guildID, username, true)
}

func (s *SQLStore) SetOffline(ctx context.Context, guildID, username string) Outcome {
	return s.setLive(ctx, "set_offline", guildID, username, false)
}

func (s *SQLStore) SetCustomMessage(ctx context.Context, guildID, username, message string) Result {
	u := NormalizeUsername(username)
	n, err := s.exec(ctx, `UPDATE streamers SET custom_message = ?, updated_at = CURRENT_TIMESTAMP
		WHERE guild_id = ? AND username = ?`, message, guildID, u)
	if err != nil {
		return dbFailure(s.dialect, "setting custom message", err)
	}
	if n == 0 {
		return notWatchedForMessage(u)
	}
	return messageSet(u)
}

func (s *SQLStore) CustomMessage(ctx context.Context, guildID, username string) string {
	var msg sql.NullString
	err := s.db.QueryRowContext(ctx, s.q(`SELECT custom_message FROM streamers WHERE guild_id = ? AND username = ?`),
		guildID, NormalizeUsername(username)).Scan(&msg)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logRead(s.dialect, "custom_message", err, "guild", guildID, "streamer", username)
		}
		return ""
	}
	return msg.String
}

func (s *SQLStore) RemoveCustomMessage(ctx context.Context, guildID, username string) Result {
	u := NormalizeUsername(username)
	n, err := s.exec(ctx, `UPDATE streamers SET custom_message = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE guild_id = ? AND username = ?`, guildID, u)
	if err != nil {
		return dbFailure(s.dialect, "removing custom message", err)
	}
	if n == 0 {
		return streamerNotFound(u)
	}
	return messageRemoved(u)
}

func (s *SQLStore) Guilds(ctx context.Context) []string {
	rows, err := s.db.QueryContext(ctx, `SELECT guild_id FROM guilds ORDER BY guild_id`)
	if err != nil {
		logRead(s.dialect, "guilds", err)
		return []string{}
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			logRead(s.dialect, "guilds", err)
			return []string{}
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		logRead(s.dialect, "guilds", err)
		return []string{}
	}
	return out
}

func (s *SQLStore) Stats(ctx context.Context) Stats {
	var st Stats
	counts := []struct {
		dst   *int
		query string
	}{
		{&st.TotalGuilds, `SELECT COUNT(*) FROM guilds`},
		{&st.TotalStreamers, `SELECT COUNT(*) FROM streamers`},
		{&st.TotalLiveStreamers, `SELECT COUNT(*) FROM streamers WHERE is_live`},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			logRead(s.dialect, "stats", err)
			return Stats{}
		}
	}
	return st
}
