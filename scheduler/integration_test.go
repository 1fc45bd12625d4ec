package scheduler_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/onnwee/livewatch/backend/notify"
	"github.com/onnwee/livewatch/backend/scheduler"
	"github.com/onnwee/livewatch/backend/testutil"
	"github.com/onnwee/livewatch/backend/twitchapi"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingSender) CanSend(channelID string) bool { return channelID == "announcements" }

func (r *recordingSender) Send(_, content string, _ *discordgo.MessageEmbed) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, content)
	return nil
}

func (r *recordingSender) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

// TestReconcileAgainstHelix drives the scheduler through a real Helix client
// and a migrated SQLite store.
func TestReconcileAgainstHelix(t *testing.T) {
	ctx := context.Background()
	twitch := testutil.NewMockTwitchServer(t)
	twitch.MockOAuthTokenResponse("app-token", 3600)
	ninja := testutil.MockStream{
		UserID:      "1",
		UserLogin:   "ninja",
		UserName:    "Ninja",
		GameName:    "Fortnite",
		Title:       "Friday games",
		ViewerCount: 12345,
		StartedAt:   "2024-10-15T14:30:00Z",
	}
	twitch.MockStreamsResponse(ninja)

	helix := twitchapi.NewHelixClient("client-id", "secret", twitch.Client())
	helix.RetryDelay = time.Millisecond

	st := testutil.SetupSQLiteStore(t)
	st.AddStreamer(ctx, "g1", "ninja")
	st.AddStreamer(ctx, "g1", "pokimane")
	st.SetNotificationChannel(ctx, "g1", "announcements")
	st.SetCustomMessage(ctx, "g1", "ninja", "{streamer} dropped in!")

	sender := &recordingSender{}
	sched := scheduler.New(st, helix, sender, notify.NewDispatcher(sender, st, "", 0), scheduler.Config{Interval: time.Minute})

	sched.Tick(ctx)
	if got := sender.messages(); len(got) != 1 || got[0] != "Ninja dropped in!" {
		t.Fatalf("after first tick sent %q", got)
	}
	if !st.IsLive(ctx, "g1", "ninja") || st.IsLive(ctx, "g1", "pokimane") {
		t.Fatal("liveness flags not updated")
	}
	if n := twitch.Hits("/oauth2/token"); n != 1 {
		t.Errorf("token endpoint hit %d times, want 1", n)
	}

	sched.Tick(ctx)
	if n := len(sender.messages()); n != 1 {
		t.Fatalf("still-live streamer re-announced: %d messages", n)
	}

	twitch.MockError("/helix/streams", http.StatusBadGateway)
	sched.Tick(ctx)
	if !st.IsLive(ctx, "g1", "ninja") {
		t.Fatal("failed query must not clear liveness")
	}

	twitch.MockStreamsResponse()
	sched.Tick(ctx)
	if st.IsLive(ctx, "g1", "ninja") {
		t.Fatal("offline streamer still flagged live")
	}
	if stats := st.Stats(ctx); stats.TotalLiveStreamers != 0 || stats.TotalStreamers != 2 {
		t.Errorf("stats = %+v", stats)
	}
}
