// Package bot connects to the Discord gateway, answers prefix commands and
// delivers go-live announcements on behalf of the scheduler.
package bot

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/onnwee/livewatch/backend/config"
	"github.com/onnwee/livewatch/backend/notify"
	"github.com/onnwee/livewatch/backend/store"
	"github.com/onnwee/livewatch/backend/telemetry"
)

// Permissions the bot needs in a notification channel.
const sendPermissions = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages

// commandTimeout bounds the store and Twitch work done for one command.
const commandTimeout = 30 * time.Second

// maxAvatarBytes is Discord's upload limit for user avatars.
const maxAvatarBytes = 10 << 20

// Bot is the Discord side of the service.
type Bot struct {
	session  *discordgo.Session
	store    store.Store
	commands *Commands

	ready   atomic.Bool
	readyCh chan struct{}
}

// New creates a Bot. onRestart is invoked when the owner issues the restart
// command; it should trigger a graceful process exit.
func New(cfg *config.Config, st store.Store, users UserLookup, onRestart func()) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	b := &Bot{
		session: session,
		store:   st,
		readyCh: make(chan struct{}),
	}
	b.commands = newCommands(b, st, users, cfg, onRestart)
	b.registerHandlers()
	return b, nil
}

// Start opens the gateway connection.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	return nil
}

// Stop closes the gateway connection.
func (b *Bot) Stop() error {
	b.ready.Store(false)
	return b.session.Close()
}

// Ready reports whether the gateway has delivered the Ready event.
func (b *Bot) Ready() bool { return b.ready.Load() }

// WaitReady blocks until the bot is ready or ctx is done.
func (b *Bot) WaitReady(ctx context.Context) error {
	select {
	case <-b.readyCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bot) registerHandlers() {
	b.session.AddHandlerOnce(b.onReady)
	b.session.AddHandler(b.onGuildCreate)
	b.session.AddHandler(b.onMessageCreate)
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	slog.Info("discord session ready",
		slog.String("user", r.User.Username),
		slog.Int("guilds", len(r.Guilds)),
		slog.String("component", "bot"))

	p := b.commands.Status()
	if err := b.SetPresence(p); err != nil {
		slog.Warn("failed to set presence", slog.Any("err", err), slog.String("component", "bot"))
	} else {
		slog.Info("bot status set", slog.String("type", p.Type), slog.String("activity", p.Activity), slog.String("component", "bot"))
	}
	if p.ImageURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		if err := b.SetAvatar(ctx, p.ImageURL); err != nil {
			slog.Warn("could not update bot avatar", slog.String("url", p.ImageURL), slog.Any("err", err), slog.String("component", "bot"))
		} else {
			slog.Info("bot avatar updated", slog.String("url", p.ImageURL), slog.String("component", "bot"))
		}
		cancel()
	}

	if b.ready.CompareAndSwap(false, true) {
		close(b.readyCh)
	}
}

// onGuildCreate registers every guild the bot is a member of.
func (b *Bot) onGuildCreate(_ *discordgo.Session, g *discordgo.GuildCreate) {
	if g.Unavailable {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := b.store.EnsureGuild(ctx, g.ID); err != nil {
		slog.Error("failed to register guild", slog.String("guild", g.ID), slog.Any("err", err), slog.String("component", "bot"))
	}
}

func (b *Bot) onMessageCreate(_ *discordgo.Session, mc *discordgo.MessageCreate) {
	if mc.Author == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	ctx = telemetry.WithCorrelation(ctx, uuid.NewString())
	b.commands.Handle(ctx, &Message{
		ID:        mc.ID,
		ChannelID: mc.ChannelID,
		GuildID:   mc.GuildID,
		AuthorID:  mc.Author.ID,
		AuthorBot: mc.Author.Bot,
		Content:   mc.Content,
	})
}

// ActivityType maps a STATUS_TYPE name to a presence activity type.
// Unknown names fall back to watching.
func ActivityType(name string) discordgo.ActivityType {
	switch strings.ToUpper(name) {
	case "PLAYING":
		return discordgo.ActivityTypeGame
	case "STREAMING":
		return discordgo.ActivityTypeStreaming
	case "LISTENING":
		return discordgo.ActivityTypeListening
	case "COMPETING":
		return discordgo.ActivityTypeCompeting
	default:
		return discordgo.ActivityTypeWatching
	}
}

// SetPresence advertises p. A non-empty ImageURL becomes the large
// rich-presence image.
func (b *Bot) SetPresence(p Presence) error {
	activity := &discordgo.Activity{
		Name: p.Activity,
		Type: ActivityType(p.Type),
	}
	if p.ImageURL != "" {
		activity.Assets = discordgo.Assets{LargeImageID: p.ImageURL, LargeText: p.Activity}
	}
	return b.session.UpdateStatusComplex(discordgo.UpdateStatusData{
		Status:     string(discordgo.StatusOnline),
		Activities: []*discordgo.Activity{activity},
	})
}

// SetAvatar downloads imageURL and makes it the bot user's avatar.
func (b *Bot) SetAvatar(ctx context.Context, imageURL string) error {
	avatar, err := fetchAvatar(ctx, b.session.Client, imageURL)
	if err != nil {
		return err
	}
	if _, err := b.session.UserUpdate("", avatar, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("update avatar: %w", err)
	}
	return nil
}

// fetchAvatar downloads an image and encodes it as the data URI Discord
// expects for avatar uploads.
func fetchAvatar(ctx context.Context, client *http.Client, imageURL string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build avatar request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download avatar: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close avatar response body", slog.Any("err", err), slog.String("component", "bot"))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download avatar: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAvatarBytes+1))
	if err != nil {
		return "", fmt.Errorf("read avatar: %w", err)
	}
	if len(data) > maxAvatarBytes {
		return "", fmt.Errorf("avatar exceeds %d bytes", maxAvatarBytes)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("avatar is %s, not an image", mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// GuildCount is the number of guilds in the session state.
func (b *Bot) GuildCount() int {
	if b.session.State == nil {
		return 0
	}
	b.session.State.RLock()
	defer b.session.State.RUnlock()
	return len(b.session.State.Guilds)
}

// HeartbeatLatency is the last gateway heartbeat round trip.
func (b *Bot) HeartbeatLatency() time.Duration { return b.session.HeartbeatLatency() }

// Reply answers m in its channel as a reply.
func (b *Bot) Reply(m *Message, content string, embed *discordgo.MessageEmbed) (string, error) {
	send := &discordgo.MessageSend{
		Content: content,
		Reference: &discordgo.MessageReference{
			MessageID: m.ID,
			ChannelID: m.ChannelID,
			GuildID:   m.GuildID,
		},
	}
	if embed != nil {
		send.Embeds = []*discordgo.MessageEmbed{embed}
	}
	msg, err := b.session.ChannelMessageSendComplex(m.ChannelID, send)
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

// Edit replaces the content and embed of a message the bot sent.
func (b *Bot) Edit(channelID, messageID, content string, embed *discordgo.MessageEmbed) error {
	edit := discordgo.NewMessageEdit(channelID, messageID).SetContent(content)
	if embed != nil {
		edit.SetEmbed(embed)
	}
	_, err := b.session.ChannelMessageEditComplex(edit)
	return err
}

// IsAdmin reports whether userID holds the Administrator permission in channelID.
func (b *Bot) IsAdmin(userID, channelID string) bool {
	perms, err := b.session.UserChannelPermissions(userID, channelID)
	if err != nil {
		slog.Warn("permission lookup failed", slog.String("user", userID), slog.Any("err", err), slog.String("component", "bot"))
		return false
	}
	return perms&discordgo.PermissionAdministrator != 0
}

func (b *Bot) channel(channelID string) (*discordgo.Channel, error) {
	if ch, err := b.session.State.Channel(channelID); err == nil {
		return ch, nil
	}
	return b.session.Channel(channelID)
}

// ChannelExists reports whether channelID resolves to a channel.
func (b *Bot) ChannelExists(channelID string) bool {
	_, err := b.channel(channelID)
	return err == nil
}

// CanSend reports whether the bot can view and post in channelID.
func (b *Bot) CanSend(channelID string) bool {
	if channelID == "" {
		return false
	}
	if _, err := b.channel(channelID); err != nil {
		return false
	}
	if b.session.State == nil || b.session.State.User == nil {
		return false
	}
	perms, err := b.session.UserChannelPermissions(b.session.State.User.ID, channelID)
	if err != nil {
		return false
	}
	return perms&sendPermissions == sendPermissions
}

// Send posts content and embed to channelID.
func (b *Bot) Send(channelID, content string, embed *discordgo.MessageEmbed) error {
	if !b.CanSend(channelID) {
		return notify.ErrChannelUnavailable
	}
	send := &discordgo.MessageSend{Content: content}
	if embed != nil {
		send.Embeds = []*discordgo.MessageEmbed{embed}
	}
	if _, err := b.session.ChannelMessageSendComplex(channelID, send); err != nil {
		var rest *discordgo.RESTError
		if errors.As(err, &rest) && rest.Response != nil {
			return fmt.Errorf("send to %s: status %d: %w", channelID, rest.Response.StatusCode, err)
		}
		return fmt.Errorf("send to %s: %w", channelID, err)
	}
	return nil
}

var _ notify.Sender = (*Bot)(nil)
