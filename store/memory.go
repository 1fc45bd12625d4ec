package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps all state in process memory. It backs tests and local
// runs without a database; nothing survives a restart.
type MemoryStore struct {
	mu        sync.RWMutex
	guilds    map[string]*Guild
	streamers map[string]map[string]*Streamer // guild -> username -> entry
	now       func() time.Time
}

// NewMemory returns an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		guilds:    make(map[string]*Guild),
		streamers: make(map[string]map[string]*Streamer),
		now:       time.Now,
	}
}

func (m *MemoryStore) Name() string { return BackendMemory }

func (m *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (m *MemoryStore) Close(context.Context) error { return nil }

// ensureGuildLocked must be called with mu held for writing.
func (m *MemoryStore) ensureGuildLocked(guildID string) *Guild {
	g, ok := m.guilds[guildID]
	if !ok {
		now := m.now()
		g = &Guild{GuildID: guildID, CreatedAt: now, UpdatedAt: now}
		m.guilds[guildID] = g
	}
	return g
}

func (m *MemoryStore) EnsureGuild(ctx context.Context, guildID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureGuildLocked(guildID)
	return nil
}

func (m *MemoryStore) lookup(guildID, username string) *Streamer {
	return m.streamers[guildID][username]
}

func (m *MemoryStore) AddStreamer(ctx context.Context, guildID, username string) Result {
	if err := ctx.Err(); err != nil {
		return dbFailure(BackendMemory, "adding streamer", err)
	}
	u := NormalizeUsername(username)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureGuildLocked(guildID)
	if m.lookup(guildID, u) != nil {
		return alreadyWatched(u)
	}
	if m.streamers[guildID] == nil {
		m.streamers[guildID] = make(map[string]*Streamer)
	}
	now := m.now()
	m.streamers[guildID][u] = &Streamer{GuildID: guildID, Username: u, CreatedAt: now, UpdatedAt: now}
	return added(u)
}

func (m *MemoryStore) RemoveStreamer(ctx context.Context, guildID, username string) Result {
	if err := ctx.Err(); err != nil {
		return dbFailure(BackendMemory, "removing streamer", err)
	}
	u := NormalizeUsername(username)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookup(guildID, u) == nil {
		return notWatched(u)
	}
	delete(m.streamers[guildID], u)
	return removed(u)
}

func (m *MemoryStore) Streamers(_ context.Context, guildID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.streamers[guildID]))
	for u := range m.streamers[guildID] {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

func (m *MemoryStore) SetNotificationChannel(ctx context.Context, guildID, channelID string) Result {
	if err := ctx.Err(); err != nil {
		return dbFailure(BackendMemory, "setting notification channel", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	g := m.ensureGuildLocked(guildID)
	g.NotificationChannelID = channelID
	g.UpdatedAt = m.now()
	return channelSet()
}

func (m *MemoryStore) NotificationChannel(_ context.Context, guildID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.guilds[guildID]; ok {
		return g.NotificationChannelID
	}
	return ""
}

func (m *MemoryStore) IsLive(_ context.Context, guildID, username string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s := m.lookup(guildID, NormalizeUsername(username)); s != nil {
		return s.IsLive
	}
	return false
}

func (m *MemoryStore) setLive(guildID, username string, live bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Updating a missing pair is a no-op, matching an UPDATE that touches zero rows.
	if s := m.lookup(guildID, NormalizeUsername(username)); s != nil {
		s.IsLive = live
		s.UpdatedAt = m.now()
	}
}

func (m *MemoryStore) SetLive(ctx context.Context, guildID, username string) Outcome {
	if err := ctx.Err(); err != nil {
		return logged(BackendMemory, "set_live", guildID, username, err)
	}
	m.setLive(guildID, username, true)
	return Outcome{}
}

func (m *MemoryStore) SetOffline(ctx context.Context, guildID, username string) Outcome {
	if err := ctx.Err(); err != nil {
		return logged(BackendMemory, "set_offline", guildID, username, err)
	}
	m.setLive(guildID, username, false)
	return Outcome{}
}

func (m *MemoryStore) SetCustomMessage(ctx context.Context, guildID, username, message string) Result {
	if err := ctx.Err(); err != nil {
		return dbFailure(BackendMemory, "setting custom message", err)
	}
	u := NormalizeUsername(username)
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.lookup(guildID, u)
	if s == nil {
		return notWatchedForMessage(u)
	}
	s.CustomMessage = message
	s.UpdatedAt = m.now()
	return messageSet(u)
}

func (m *MemoryStore) CustomMessage(_ context.Context, guildID, username string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s := m.lookup(guildID, NormalizeUsername(username)); s != nil {
		return s.CustomMessage
	}
	return ""
}

func (m *MemoryStore) RemoveCustomMessage(ctx context.Context, guildID, username string) Result {
	if err := ctx.Err(); err != nil {
		return dbFailure(BackendMemory, "removing custom message", err)
	}
	u := NormalizeUsername(username)
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.lookup(guildID, u)
	if s == nil {
		return streamerNotFound(u)
	}
	s.CustomMessage = ""
	s.UpdatedAt = m.now()
	return messageRemoved(u)
}

func (m *MemoryStore) Guilds(context.Context) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.guilds))
	for id := range m.guilds {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (m *MemoryStore) Stats(context.Context) Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := Stats{TotalGuilds: len(m.guilds)}
	for _, byName := range m.streamers {
		for _, s := range byName {
			st.TotalStreamers++
			if s.IsLive {
				st.TotalLiveStreamers++
			}
		}
	}
	return st
}
