// Package storetest is a behavioural test suite every store.Store backend
// must pass.
package storetest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/onnwee/livewatch/backend/store"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) store.Store

// Run executes the contract suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"AddAndList", testAddAndList},
		{"AddDuplicate", testAddDuplicate},
		{"AddNormalizesUsername", testAddNormalizes},
		{"Remove", testRemove},
		{"RemoveMissing", testRemoveMissing},
		{"NotificationChannel", testNotificationChannel},
		{"LiveFlags", testLiveFlags},
		{"LiveFlagsMissingPair", testLiveFlagsMissingPair},
		{"CustomMessage", testCustomMessage},
		{"CustomMessageMissing", testCustomMessageMissing},
		{"GuildIsolation", testGuildIsolation},
		{"GuildsAndStats", testGuildsAndStats},
		{"EnsureGuildIdempotent", testEnsureGuildIdempotent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close(context.Background()) })
			tt.fn(t, s)
		})
	}
}

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func equal(a, b []string) bool {
	a, b = sorted(a), sorted(b)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func mustSucceed(t *testing.T, r store.Result) {
	t.Helper()
	if !r.Success {
		t.Fatalf("expected success, got %+v", r)
	}
}

func testAddAndList(t *testing.T, s store.Store) {
	ctx := context.Background()
	if got := s.Streamers(ctx, "g1"); got == nil || len(got) != 0 {
		t.Fatalf("Streamers on empty guild = %#v, want empty non-nil slice", got)
	}
	r := s.AddStreamer(ctx, "g1", "ninja")
	mustSucceed(t, r)
	if !strings.Contains(r.Message, "ninja") {
		t.Errorf("message %q does not name the streamer", r.Message)
	}
	mustSucceed(t, s.AddStreamer(ctx, "g1", "pokimane"))

	if got := s.Streamers(ctx, "g1"); !equal(got, []string{"ninja", "pokimane"}) {
		t.Errorf("Streamers = %v", got)
	}
	if s.IsLive(ctx, "g1", "ninja") {
		t.Error("new streamer should start offline")
	}
	if got := s.CustomMessage(ctx, "g1", "ninja"); got != "" {
		t.Errorf("new streamer custom message = %q, want empty", got)
	}
}

func testAddDuplicate(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustSucceed(t, s.AddStreamer(ctx, "g1", "ninja"))
	r := s.AddStreamer(ctx, "g1", "ninja")
	if r.Success {
		t.Fatal("duplicate add should fail")
	}
	if !errors.Is(r.Err, store.ErrAlreadyWatched) {
		t.Errorf("err = %v, want ErrAlreadyWatched", r.Err)
	}
	if want := `Streamer "ninja" is already being monitored.`; r.Message != want {
		t.Errorf("message = %q, want %q", r.Message, want)
	}
	if got := s.Streamers(ctx, "g1"); len(got) != 1 {
		t.Errorf("duplicate add changed the list: %v", got)
	}
}

func testAddNormalizes(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustSucceed(t, s.AddStreamer(ctx, "g1", "  @NinJa "))
	if got := s.Streamers(ctx, "g1"); !equal(got, []string{"ninja"}) {
		t.Fatalf("Streamers = %v, want [ninja]", got)
	}
	if r := s.AddStreamer(ctx, "g1", "NINJA"); !errors.Is(r.Err, store.ErrAlreadyWatched) {
		t.Errorf("case-variant add err = %v, want ErrAlreadyWatched", r.Err)
	}
}

func testRemove(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustSucceed(t, s.AddStreamer(ctx, "g1", "ninja"))
	mustSucceed(t, s.RemoveStreamer(ctx, "g1", "Ninja"))
	if got := s.Streamers(ctx, "g1"); len(got) != 0 {
		t.Errorf("Streamers after remove = %v", got)
	}
	// Re-adding starts from a clean record.
	mustSucceed(t, s.AddStreamer(ctx, "g1", "ninja"))
	if s.IsLive(ctx, "g1", "ninja") {
		t.Error("re-added streamer should be offline")
	}
}

func testRemoveMissing(t *testing.T, s store.Store) {
	r := s.RemoveStreamer(context.Background(), "g1", "ghost")
	if r.Success || !errors.Is(r.Err, store.ErrNotWatched) {
		t.Fatalf("remove missing = %+v, want NotWatched", r)
	}
	if want := `Streamer "ghost" is not being monitored.`; r.Message != want {
		t.Errorf("message = %q, want %q", r.Message, want)
	}
}

func testNotificationChannel(t *testing.T, s store.Store) {
	ctx := context.Background()
	if got := s.NotificationChannel(ctx, "g1"); got != "" {
		t.Fatalf("unset channel = %q, want empty", got)
	}
	mustSucceed(t, s.SetNotificationChannel(ctx, "g1", "c1"))
	if got := s.NotificationChannel(ctx, "g1"); got != "c1" {
		t.Errorf("channel = %q, want c1", got)
	}
	mustSucceed(t, s.SetNotificationChannel(ctx, "g1", "c2"))
	if got := s.NotificationChannel(ctx, "g1"); got != "c2" {
		t.Errorf("channel after overwrite = %q, want c2", got)
	}
}

func testLiveFlags(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustSucceed(t, s.AddStreamer(ctx, "g1", "ninja"))
	if o := s.SetLive(ctx, "g1", "ninja"); !o.OK() {
		t.Fatalf("SetLive: %v", o.Err)
	}
	if !s.IsLive(ctx, "g1", "NINJA") {
		t.Error("expected live after SetLive")
	}
	// Idempotent.
	s.SetLive(ctx, "g1", "ninja")
	if !s.IsLive(ctx, "g1", "ninja") {
		t.Error("expected live after repeated SetLive")
	}
	if o := s.SetOffline(ctx, "g1", "ninja"); !o.OK() {
		t.Fatalf("SetOffline: %v", o.Err)
	}
	if s.IsLive(ctx, "g1", "ninja") {
		t.Error("expected offline after SetOffline")
	}
}

func testLiveFlagsMissingPair(t *testing.T, s store.Store) {
	ctx := context.Background()
	s.SetLive(ctx, "g1", "ghost")
	if s.IsLive(ctx, "g1", "ghost") {
		t.Error("SetLive must not create a record")
	}
	if got := s.Streamers(ctx, "g1"); len(got) != 0 {
		t.Errorf("Streamers = %v, want empty", got)
	}
}

func testCustomMessage(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustSucceed(t, s.AddStreamer(ctx, "g1", "ninja"))
	mustSucceed(t, s.SetCustomMessage(ctx, "g1", "Ninja", "{streamer} is up!"))
	if got := s.CustomMessage(ctx, "g1", "ninja"); got != "{streamer} is up!" {
		t.Errorf("custom message = %q", got)
	}
	mustSucceed(t, s.RemoveCustomMessage(ctx, "g1", "ninja"))
	if got := s.CustomMessage(ctx, "g1", "ninja"); got != "" {
		t.Errorf("custom message after remove = %q, want empty", got)
	}
}

func testCustomMessageMissing(t *testing.T, s store.Store) {
	ctx := context.Background()
	r := s.SetCustomMessage(ctx, "g1", "ghost", "hi")
	if r.Success || !errors.Is(r.Err, store.ErrNotWatched) {
		t.Errorf("set on missing = %+v, want NotWatched", r)
	}
	if !strings.Contains(r.Message, "Add them first") {
		t.Errorf("message = %q, want add hint", r.Message)
	}
	r = s.RemoveCustomMessage(ctx, "g1", "ghost")
	if r.Success || !errors.Is(r.Err, store.ErrNotWatched) {
		t.Errorf("remove on missing = %+v, want NotWatched", r)
	}
	if r.Message != `Streamer "ghost" not found.` {
		t.Errorf("remove message = %q", r.Message)
	}
	if got := s.Streamers(ctx, "g1"); len(got) != 0 {
		t.Errorf("custom message ops created a record: %v", got)
	}
}

func testGuildIsolation(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustSucceed(t, s.AddStreamer(ctx, "g1", "ninja"))
	mustSucceed(t, s.AddStreamer(ctx, "g2", "ninja"))
	s.SetLive(ctx, "g1", "ninja")
	if s.IsLive(ctx, "g2", "ninja") {
		t.Error("liveness leaked across guilds")
	}
	mustSucceed(t, s.SetCustomMessage(ctx, "g1", "ninja", "only g1"))
	if got := s.CustomMessage(ctx, "g2", "ninja"); got != "" {
		t.Errorf("custom message leaked across guilds: %q", got)
	}
	mustSucceed(t, s.RemoveStreamer(ctx, "g1", "ninja"))
	if got := s.Streamers(ctx, "g2"); !equal(got, []string{"ninja"}) {
		t.Errorf("remove in g1 affected g2: %v", got)
	}
}

func testGuildsAndStats(t *testing.T, s store.Store) {
	ctx := context.Background()
	if got := s.Stats(ctx); got != (store.Stats{}) {
		t.Fatalf("empty stats = %+v", got)
	}
	mustSucceed(t, s.AddStreamer(ctx, "g1", "ninja"))
	mustSucceed(t, s.AddStreamer(ctx, "g1", "pokimane"))
	mustSucceed(t, s.SetNotificationChannel(ctx, "g2", "c9"))
	s.SetLive(ctx, "g1", "ninja")

	if got := s.Guilds(ctx); !equal(got, []string{"g1", "g2"}) {
		t.Errorf("Guilds = %v", got)
	}
	want := store.Stats{TotalGuilds: 2, TotalStreamers: 2, TotalLiveStreamers: 1}
	if got := s.Stats(ctx); got != want {
		t.Errorf("Stats = %+v, want %+v", got, want)
	}
}

func testEnsureGuildIdempotent(t *testing.T, s store.Store) {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := s.EnsureGuild(ctx, "g1"); err != nil {
			t.Fatalf("EnsureGuild: %v", err)
		}
	}
	mustSucceed(t, s.SetNotificationChannel(ctx, "g1", "c1"))
	if err := s.EnsureGuild(ctx, "g1"); err != nil {
		t.Fatalf("EnsureGuild: %v", err)
	}
	if got := s.NotificationChannel(ctx, "g1"); got != "c1" {
		t.Errorf("EnsureGuild clobbered channel: %q", got)
	}
	if got := s.Guilds(ctx); len(got) != 1 {
		t.Errorf("Guilds = %v, want one entry", got)
	}
	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
