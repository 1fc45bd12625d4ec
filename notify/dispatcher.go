package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/onnwee/livewatch/backend/telemetry"
	"github.com/onnwee/livewatch/backend/twitchapi"
)

// ErrChannelUnavailable is returned when the destination channel cannot be
// resolved or the bot lacks permission to post there.
var ErrChannelUnavailable = errors.New("notification channel unavailable")

// Sender delivers a message to a chat channel.
type Sender interface {
	// CanSend reports whether channelID resolves to a channel the bot can view and post in.
	CanSend(channelID string) bool
	Send(channelID, content string, embed *discordgo.MessageEmbed) error
}

// MessageSource provides per-streamer custom templates. store.Store satisfies it.
type MessageSource interface {
	CustomMessage(ctx context.Context, guildID, username string) string
}

// Dispatcher turns a live stream into an announcement in a guild's channel.
type Dispatcher struct {
	Sender         Sender
	Messages       MessageSource
	DefaultMessage string
	EmbedColor     int
	Now            func() time.Time
}

// NewDispatcher returns a Dispatcher with defaults applied for empty settings.
func NewDispatcher(sender Sender, messages MessageSource, defaultMessage string, color int) *Dispatcher {
	if defaultMessage == "" {
		defaultMessage = DefaultMessage
	}
	if color == 0 {
		color = DefaultEmbedColor
	}
	return &Dispatcher{Sender: sender, Messages: messages, DefaultMessage: defaultMessage, EmbedColor: color, Now: time.Now}
}

// NotifyLive announces s in channelID. Failures are counted and returned; the
// caller decides whether to log them.
func (d *Dispatcher) NotifyLive(ctx context.Context, guildID, channelID string, s twitchapi.Stream) error {
	ctx, span := telemetry.StartSpan(ctx, "notify.live")
	var err error
	defer func() {
		telemetry.RecordNotification(err == nil)
		telemetry.EndSpan(span, err)
	}()

	custom := ""
	if d.Messages != nil {
		custom = d.Messages.CustomMessage(ctx, guildID, s.UserLogin)
	}
	display := s.UserName
	if display == "" {
		display = s.UserLogin
	}
	content := RenderMessage(custom, d.DefaultMessage, display)

	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	embed := BuildEmbed(s, d.EmbedColor, now())

	if err = d.Sender.Send(channelID, content, embed); err != nil {
		err = fmt.Errorf("send live notification for %s: %w", s.UserLogin, err)
		return err
	}
	telemetry.LoggerWithCorr(ctx).Info("sent live notification",
		slog.String("guild", guildID),
		slog.String("channel", channelID),
		slog.String("streamer", s.UserLogin),
		slog.String("component", "notify"))
	return nil
}
