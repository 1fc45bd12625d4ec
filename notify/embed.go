package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/onnwee/livewatch/backend/twitchapi"
)

const (
	// DefaultEmbedColor is the Twitch purple.
	DefaultEmbedColor = 9520895
	embedFooter       = "Twitch Stream Bot"
	thumbnailWidth    = "1920"
	thumbnailHeight   = "1080"
)

// ChannelURL is the public page for a Twitch login.
func ChannelURL(login string) string {
	return "https://twitch.tv/" + strings.ToLower(login)
}

// ThumbnailURL fills the {width}/{height} placeholders of a Helix thumbnail template.
func ThumbnailURL(template string) string {
	if template == "" {
		return ""
	}
	r := strings.NewReplacer("{width}", thumbnailWidth, "{height}", thumbnailHeight)
	return r.Replace(template)
}

// RelativeTimestamp formats t as a Discord relative timestamp (<t:unix:R>).
func RelativeTimestamp(t time.Time) string {
	return fmt.Sprintf("<t:%d:R>", t.Unix())
}

// FormatCount renders n with comma thousands separators.
func FormatCount(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// BuildEmbed renders the rich card attached to a go-live announcement.
func BuildEmbed(s twitchapi.Stream, color int, now time.Time) *discordgo.MessageEmbed {
	display := s.UserName
	if display == "" {
		display = s.UserLogin
	}
	description := s.Title
	if description == "" {
		description = "No stream title"
	}
	game := s.GameName
	if game == "" {
		game = "No category"
	}
	started := "Unknown"
	if !s.StartedAt.IsZero() {
		started = RelativeTimestamp(s.StartedAt)
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🔴 %s is now live!", display),
		URL:         ChannelURL(s.UserLogin),
		Description: description,
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🎮 Game", Value: game, Inline: true},
			{Name: "👥 Viewers", Value: FormatCount(s.ViewerCount), Inline: true},
			{Name: "⏰ Started", Value: started, Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: embedFooter},
		Timestamp: now.UTC().Format(time.RFC3339),
	}
	if img := ThumbnailURL(s.ThumbnailURL); img != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: img}
	}
	return embed
}
