// Package scheduler runs the periodic reconciliation loop: for every guild it
// compares the watched streamers against Twitch's live set, flips stored
// liveness flags and announces offline-to-live transitions.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/livewatch/backend/notify"
	"github.com/onnwee/livewatch/backend/store"
	"github.com/onnwee/livewatch/backend/telemetry"
	"github.com/onnwee/livewatch/backend/twitchapi"
)

// DefaultInterval matches the once-a-minute cadence of the reconciliation loop.
const DefaultInterval = time.Minute

// StreamClient answers which of a set of logins are live.
type StreamClient interface {
	GetStreams(ctx context.Context, logins ...string) ([]twitchapi.Stream, error)
}

// Notifier announces a go-live event.
type Notifier interface {
	NotifyLive(ctx context.Context, guildID, channelID string, s twitchapi.Stream) error
}

// Config tunes the loop.
type Config struct {
	Interval time.Duration
	// TickTimeout bounds one tick; zero means 80% of Interval.
	TickTimeout time.Duration
	// Workers is the number of guilds reconciled concurrently; <= 1 is sequential.
	Workers int
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.TickTimeout <= 0 {
		c.TickTimeout = c.Interval * 8 / 10
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	return c
}

// Scheduler drives reconciliation ticks.
type Scheduler struct {
	store    store.Store
	client   StreamClient
	sender   notify.Sender
	notifier Notifier
	cfg      Config

	running  sync.Mutex // held for the duration of a tick
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu      sync.Mutex // orders Run's wg.Add against Stop's wg.Wait
	stopped bool
}

// New creates a Scheduler. sender is only consulted for CanSend; delivery
// goes through notifier.
func New(st store.Store, client StreamClient, sender notify.Sender, notifier Notifier, cfg Config) *Scheduler {
	return &Scheduler{
		store:    st,
		client:   client,
		sender:   sender,
		notifier: notifier,
		cfg:      cfg.withDefaults(),
		stopChan: make(chan struct{}),
	}
}

// Run ticks until ctx is cancelled or Stop is called. The first tick runs
// immediately. Run returns at once if Stop was already called or ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	s.mu.Lock()
	if s.stopped || ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	slog.Info("scheduler started",
		slog.Duration("interval", s.cfg.Interval),
		slog.Duration("tick_timeout", s.cfg.TickTimeout),
		slog.Int("workers", s.cfg.Workers),
		slog.String("component", "scheduler"))

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.spawnTick(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped (context cancelled)", slog.String("component", "scheduler"))
			return
		case <-s.stopChan:
			slog.Info("scheduler stopped", slog.String("component", "scheduler"))
			return
		case <-ticker.C:
			s.spawnTick(ctx)
		}
	}
}

// spawnTick runs a tick off the loop goroutine so a slow tick is observed
// (and skipped) by the next one instead of silently delaying it.
func (s *Scheduler) spawnTick(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Tick(ctx)
	}()
}

// Stop ends the loop and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
}

// Tick runs one reconciliation pass over all guilds. It returns false when the
// previous tick is still running and this one was skipped.
func (s *Scheduler) Tick(ctx context.Context) bool {
	if !s.running.TryLock() {
		telemetry.IncSkippedTicks()
		slog.Warn("previous tick still running; skipping", slog.String("component", "scheduler"))
		return false
	}
	defer s.running.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.TickTimeout)
	defer cancel()
	ctx = telemetry.WithCorrelation(ctx, uuid.NewString())
	ctx, span := telemetry.StartSpan(ctx, "scheduler.tick")
	log := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "scheduler"))
	telemetry.IncTicks()

	var guilds []string
	d := telemetry.TimeFunc(telemetry.TickDuration, func() {
		guilds = s.store.Guilds(ctx)
		span.SetAttributes(attribute.Int("guilds", len(guilds)))
		if s.cfg.Workers <= 1 {
			for _, g := range guilds {
				if ctx.Err() != nil {
					break
				}
				s.checkGuildSafe(ctx, g)
			}
			return
		}
		p := pool.New().WithMaxGoroutines(s.cfg.Workers)
		for _, g := range guilds {
			p.Go(func() { s.checkGuildSafe(ctx, g) })
		}
		p.Wait()
	})

	st := s.store.Stats(ctx)
	telemetry.SetStoreGauges(st.TotalGuilds, st.TotalStreamers, st.TotalLiveStreamers)

	err := ctx.Err()
	if err != nil {
		log.Warn("tick did not finish before its deadline", slog.Any("err", err), slog.Duration("elapsed", d))
	} else {
		log.Info("tick complete", slog.Int("guilds", len(guilds)), slog.Duration("elapsed", d))
	}
	telemetry.EndSpan(span, err)
	return true
}

// checkGuildSafe isolates one guild: errors and panics are logged and counted.
func (s *Scheduler) checkGuildSafe(ctx context.Context, guildID string) {
	var pc panics.Catcher
	var err error
	pc.Try(func() { err = s.CheckGuild(ctx, guildID) })
	if r := pc.Recovered(); r != nil {
		err = r.AsError()
	}
	if err != nil {
		telemetry.IncGuildErrors()
		telemetry.LoggerWithCorr(ctx).Error("guild reconciliation failed",
			slog.String("guild", guildID),
			slog.Any("err", err),
			slog.String("component", "scheduler"))
	}
}

// CheckGuild reconciles one guild. It makes no platform query when the guild
// has no streamers, no channel, or a channel the bot cannot post in. A failed
// query leaves every stored flag untouched.
func (s *Scheduler) CheckGuild(ctx context.Context, guildID string) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "scheduler.guild", attribute.String("guild", guildID))
	defer func() { telemetry.EndSpan(span, err) }()
	log := telemetry.LoggerWithCorr(ctx).With(slog.String("guild", guildID), slog.String("component", "scheduler"))

	usernames := s.store.Streamers(ctx, guildID)
	if len(usernames) == 0 {
		return nil
	}
	channelID := s.store.NotificationChannel(ctx, guildID)
	if channelID == "" {
		log.Debug("guild has no notification channel set")
		return nil
	}
	if !s.sender.CanSend(channelID) {
		log.Warn("notification channel missing or not writable", slog.String("channel", channelID))
		return nil
	}

	var streams []twitchapi.Stream
	telemetry.TimeFunc(telemetry.PlatformDuration, func() {
		streams, err = s.client.GetStreams(ctx, usernames...)
	})
	if err != nil {
		telemetry.IncPlatformQueryFailures()
		return fmt.Errorf("query live streams: %w", err)
	}

	watched := make(map[string]struct{}, len(usernames))
	for _, u := range usernames {
		watched[u] = struct{}{}
	}
	live := make(map[string]struct{}, len(streams))
	for _, st := range streams {
		login := strings.ToLower(st.UserLogin)
		if _, ok := watched[login]; !ok {
			continue
		}
		if _, dup := live[login]; dup {
			continue
		}
		live[login] = struct{}{}
		if s.store.IsLive(ctx, guildID, login) {
			continue
		}
		// No notification until the flag is stored; the edge is retried next tick.
		if o := s.store.SetLive(ctx, guildID, login); !o.OK() {
			continue
		}
		log.Info("streamer went live", slog.String("streamer", login))
		if nerr := s.notifier.NotifyLive(ctx, guildID, channelID, st); nerr != nil {
			log.Error("failed to send live notification", slog.String("streamer", login), slog.Any("err", nerr))
		}
	}

	for _, u := range usernames {
		if _, ok := live[u]; ok {
			continue
		}
		if s.store.IsLive(ctx, guildID, u) {
			s.store.SetOffline(ctx, guildID, u)
			log.Debug("streamer went offline", slog.String("streamer", u))
		}
	}

	log.Debug("guild reconciled", slog.Int("watched", len(usernames)), slog.Int("live", len(live)))
	return nil
}
