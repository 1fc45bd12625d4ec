package bot

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/onnwee/livewatch/backend/config"
	"github.com/onnwee/livewatch/backend/notify"
	"github.com/onnwee/livewatch/backend/store"
	"github.com/onnwee/livewatch/backend/telemetry"
	"github.com/onnwee/livewatch/backend/twitchapi"
)

// Embed colors used by command replies.
const (
	colorSuccess = 0x00FF00
	colorRemoved = 0xFF0000
	colorNotice  = 0xFFFF00
	colorInfo    = 0x9146FF
	colorRestart = 0xFF9900
)

// MaxCustomMessageLength bounds !setmessage input.
const MaxCustomMessageLength = 500

const defaultRestartDelay = 2 * time.Second

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{4,25}$`)
	channelMention  = regexp.MustCompile(`^<#(\d+)>$`)
)

const errGeneric = "❌ An error occurred while processing your command. Please try again."

// ValidUsername reports whether a normalized login has Twitch's shape.
func ValidUsername(u string) bool { return usernamePattern.MatchString(u) }

// ParseChannelMention extracts the id from a <#id> mention.
func ParseChannelMention(s string) (string, bool) {
	m := channelMention.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// LatencyStatus labels a gateway latency for !ping.
func LatencyStatus(d time.Duration) string {
	switch ms := d.Milliseconds(); {
	case ms < 100:
		return "🟢 Excellent"
	case ms < 200:
		return "🟡 Good"
	default:
		return "🔴 Poor"
	}
}

// Message is the subset of an incoming chat message the router needs.
type Message struct {
	ID        string
	ChannelID string
	GuildID   string
	AuthorID  string
	AuthorBot bool
	Content   string
}

// chat is the slice of the Discord session the command handlers use.
type chat interface {
	// Reply answers m and returns the id of the reply.
	Reply(m *Message, content string, embed *discordgo.MessageEmbed) (string, error)
	Edit(channelID, messageID, content string, embed *discordgo.MessageEmbed) error
	IsAdmin(userID, channelID string) bool
	ChannelExists(channelID string) bool
	CanSend(channelID string) bool
	HeartbeatLatency() time.Duration
	GuildCount() int
	SetPresence(p Presence) error
	SetAvatar(ctx context.Context, imageURL string) error
}

// Presence is the activity the bot advertises.
type Presence struct {
	Type     string
	Activity string
	// ImageURL is the custom image, used for both the avatar and the
	// rich-presence large image. Empty means the defaults.
	ImageURL string
}

// UserLookup resolves a Twitch login to a user.
type UserLookup interface {
	GetUser(ctx context.Context, login string) (twitchapi.User, bool, error)
}

type handlerFunc func(ctx context.Context, m *Message, args []string) error

type command struct {
	// admin gates the command behind the Administrator permission; the
	// value is the denial text.
	admin string
	run   handlerFunc
}

// Commands routes prefix commands to their handlers.
type Commands struct {
	chat    chat
	store   store.Store
	users   UserLookup
	prefix  string
	ownerID string

	started      time.Time
	now          func() time.Time
	restartDelay time.Duration
	onRestart    func()

	mu       sync.Mutex
	presence Presence

	table map[string]command
}

func newCommands(c chat, st store.Store, users UserLookup, cfg *config.Config, onRestart func()) *Commands {
	cmds := &Commands{
		chat:           c,
		store:          st,
		users:          users,
		prefix:         cfg.CommandPrefix,
		ownerID:        cfg.OwnerID,
		started:        time.Now(),
		now:            time.Now,
		restartDelay:   defaultRestartDelay,
		onRestart:      onRestart,
		presence: Presence{
			Type:     strings.ToUpper(cfg.StatusType),
			Activity: cfg.StatusActivity,
			ImageURL: cfg.StatusImageURL,
		},
	}
	if cmds.prefix == "" {
		cmds.prefix = "!"
	}
	const (
		denyStreamers = "❌ You need administrator permissions to manage streamers."
		denyChannel   = "❌ You need administrator permissions to set notification channels."
		denyMessages  = "❌ You need administrator permissions to manage custom messages."
	)
	cmds.table = map[string]command{
		"addstreamer":    {admin: denyStreamers, run: cmds.addStreamer},
		"removestreamer": {admin: denyStreamers, run: cmds.removeStreamer},
		"liststreamers":  {run: cmds.listStreamers},
		"setchannel":     {admin: denyChannel, run: cmds.setChannel},
		"getchannel":     {run: cmds.getChannel},
		"setmessage":     {admin: denyMessages, run: cmds.setMessage},
		"getmessage":     {run: cmds.getMessage},
		"removemessage":  {admin: denyMessages, run: cmds.removeMessage},
		"setimage":       {run: cmds.setImage},
		"removeimage":    {run: cmds.removeImage},
		"getimage":       {run: cmds.getImage},
		"setstatus":      {run: cmds.setStatus},
		"setstatusimage": {run: cmds.setStatusImage},
		"getstatus":      {run: cmds.getStatus},
		"ping":           {run: cmds.ping},
		"start":          {run: cmds.start},
		"help":           {run: cmds.help},
	}
	return cmds
}

// Status returns the presence currently advertised.
func (c *Commands) Status() Presence {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.presence
}

// Handle parses and runs a prefix command. Messages from bots, outside a
// guild, without the prefix, or naming an unknown command are ignored.
func (c *Commands) Handle(ctx context.Context, m *Message) {
	if m.AuthorBot || m.GuildID == "" || !strings.HasPrefix(m.Content, c.prefix) {
		return
	}
	args := strings.Fields(m.Content[len(c.prefix):])
	if len(args) == 0 {
		return
	}
	name := strings.ToLower(args[0])
	cmd, ok := c.table[name]
	if !ok {
		return
	}
	log := telemetry.LoggerWithCorr(ctx).With(
		slog.String("command", name),
		slog.String("guild", m.GuildID),
		slog.String("user", m.AuthorID),
		slog.String("component", "bot"))

	if cmd.admin != "" && !c.chat.IsAdmin(m.AuthorID, m.ChannelID) {
		telemetry.RecordCommand(name, "denied")
		c.reply(log, m, cmd.admin)
		return
	}
	if err := cmd.run(ctx, m, args[1:]); err != nil {
		telemetry.RecordCommand(name, "error")
		log.Error("command failed", slog.Any("err", err))
		c.reply(log, m, errGeneric)
		return
	}
	telemetry.RecordCommand(name, "ok")
	log.Debug("command handled")
}

func (c *Commands) reply(log *slog.Logger, m *Message, content string) {
	if _, err := c.chat.Reply(m, content, nil); err != nil {
		log.Warn("failed to send reply", slog.Any("err", err))
	}
}

func (c *Commands) replyText(m *Message, content string) error {
	_, err := c.chat.Reply(m, content, nil)
	return err
}

func (c *Commands) replyEmbed(m *Message, e *discordgo.MessageEmbed) error {
	_, err := c.chat.Reply(m, "", e)
	return err
}

func (c *Commands) embed(color int, title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Color:       color,
		Title:       title,
		Description: description,
		Timestamp:   c.now().UTC().Format(time.RFC3339),
	}
}

func inline(name, value string) *discordgo.MessageEmbedField {
	return &discordgo.MessageEmbedField{Name: name, Value: value, Inline: true}
}

// remainder returns the raw text following the first n whitespace-separated
// words of s, preserving interior spacing and newlines.
func remainder(s string, n int) string {
	s = strings.TrimLeft(s, " \t\r\n")
	for i := 0; i < n; i++ {
		idx := strings.IndexAny(s, " \t\r\n")
		if idx < 0 {
			return ""
		}
		s = strings.TrimLeft(s[idx:], " \t\r\n")
	}
	return strings.TrimSpace(s)
}

func (c *Commands) addStreamer(ctx context.Context, m *Message, args []string) error {
	if len(args) == 0 {
		return c.replyText(m, "❌ Please provide a Twitch username. Usage: `!addstreamer <username>`")
	}
	username := store.NormalizeUsername(args[0])
	if !ValidUsername(username) {
		return c.replyText(m, "❌ Invalid Twitch username format. Usernames must be 4-25 characters and contain only letters, numbers, and underscores.")
	}

	user, found, err := c.users.GetUser(ctx, username)
	if err != nil {
		slog.Error("twitch user lookup failed", slog.String("streamer", username), slog.Any("err", err), slog.String("component", "bot"))
		return c.replyText(m, "❌ Failed to add streamer. Please try again later.")
	}
	if !found {
		return c.replyText(m, fmt.Sprintf("❌ Twitch user \"%s\" not found.", username))
	}

	res := c.store.AddStreamer(ctx, m.GuildID, username)
	if !res.Success {
		return c.replyText(m, "❌ "+res.Message)
	}
	e := c.embed(colorSuccess, "✅ Streamer Added", fmt.Sprintf("Successfully added **%s** to the watch list!", username))
	if user.ProfileImageURL != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: user.ProfileImageURL}
	}
	slog.Info("streamer added", slog.String("guild", m.GuildID), slog.String("streamer", username), slog.String("component", "bot"))
	return c.replyEmbed(m, e)
}

func (c *Commands) removeStreamer(ctx context.Context, m *Message, args []string) error {
	if len(args) == 0 {
		return c.replyText(m, "❌ Please provide a Twitch username. Usage: `!removestreamer <username>`")
	}
	username := store.NormalizeUsername(args[0])
	res := c.store.RemoveStreamer(ctx, m.GuildID, username)
	if !res.Success {
		return c.replyText(m, "❌ "+res.Message)
	}
	slog.Info("streamer removed", slog.String("guild", m.GuildID), slog.String("streamer", username), slog.String("component", "bot"))
	return c.replyEmbed(m, c.embed(colorRemoved, "✅ Streamer Removed", fmt.Sprintf("Successfully removed **%s** from the watch list.", username)))
}

func (c *Commands) listStreamers(ctx context.Context, m *Message, _ []string) error {
	names := c.store.Streamers(ctx, m.GuildID)
	if len(names) == 0 {
		return c.replyEmbed(m, c.embed(colorNotice, "📋 Monitored Streamers",
			"No streamers are currently being monitored.\nUse `!addstreamer <username>` to add some!"))
	}
	var b strings.Builder
	for i, n := range names {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. **%s**", i+1, n)
	}
	e := c.embed(colorInfo, "📋 Monitored Streamers", b.String())
	e.Fields = []*discordgo.MessageEmbedField{
		{Name: "Total", Value: fmt.Sprintf("%d streamer(s)", len(names))},
	}
	return c.replyEmbed(m, e)
}

func (c *Commands) setChannel(ctx context.Context, m *Message, args []string) error {
	var channelID string
	for _, a := range args {
		if id, ok := ParseChannelMention(a); ok {
			channelID = id
			break
		}
	}
	if channelID == "" {
		return c.replyText(m, "❌ Please mention a channel. Usage: `!setchannel #channel-name`")
	}
	if !c.chat.CanSend(channelID) {
		return c.replyText(m, fmt.Sprintf("❌ I don't have permission to send messages in <#%s>. Please ensure I have the required permissions.", channelID))
	}
	res := c.store.SetNotificationChannel(ctx, m.GuildID, channelID)
	if !res.Success {
		return c.replyText(m, "❌ "+res.Message)
	}
	slog.Info("notification channel set", slog.String("guild", m.GuildID), slog.String("channel", channelID), slog.String("component", "bot"))
	return c.replyEmbed(m, c.embed(colorSuccess, "✅ Notification Channel Set", fmt.Sprintf("Stream notifications will now be sent to <#%s>", channelID)))
}

func (c *Commands) getChannel(ctx context.Context, m *Message, _ []string) error {
	channelID := c.store.NotificationChannel(ctx, m.GuildID)
	switch {
	case channelID == "":
		return c.replyEmbed(m, c.embed(colorNotice, "📢 Notification Channel",
			"No notification channel is currently set.\nUse `!setchannel #channel-name` to set one!"))
	case !c.chat.ChannelExists(channelID):
		return c.replyEmbed(m, c.embed(colorRemoved, "⚠️ Channel Not Found",
			"The previously set notification channel no longer exists.\nPlease set a new one using `!setchannel #channel-name`"))
	default:
		return c.replyEmbed(m, c.embed(colorInfo, "📢 Current Notification Channel",
			fmt.Sprintf("Stream notifications are sent to <#%s>", channelID)))
	}
}

func (c *Commands) setMessage(ctx context.Context, m *Message, args []string) error {
	if len(args) < 2 {
		return c.replyText(m, "❌ Please provide a username and custom message. Usage: `!setmessage <username> <custom message>`\n\nExample: `!setmessage ninja 🥷 The ninja is live! Go check out the stream!`")
	}
	username := store.NormalizeUsername(args[0])
	// prefix+command and the username
	msg := remainder(m.Content[len(c.prefix):], 2)
	if utf8.RuneCountInString(msg) > MaxCustomMessageLength {
		return c.replyText(m, "❌ Custom message is too long. Please keep it under 500 characters.")
	}
	res := c.store.SetCustomMessage(ctx, m.GuildID, username, msg)
	if !res.Success {
		return c.replyText(m, "❌ "+res.Message)
	}
	e := c.embed(colorSuccess, "✅ Custom Message Set", fmt.Sprintf("Custom notification message set for **%s**", username))
	e.Fields = []*discordgo.MessageEmbedField{{Name: "Custom Message", Value: msg}}
	e.Footer = &discordgo.MessageEmbedFooter{Text: "Use " + notify.Placeholder + " in your message to include the streamer name"}
	return c.replyEmbed(m, e)
}

func (c *Commands) getMessage(ctx context.Context, m *Message, args []string) error {
	if len(args) == 0 {
		return c.replyText(m, "❌ Please provide a username. Usage: `!getmessage <username>`")
	}
	username := store.NormalizeUsername(args[0])
	msg := c.store.CustomMessage(ctx, m.GuildID, username)
	if msg == "" {
		e := c.embed(colorNotice, "📝 Custom Message for "+username, "No custom message set. Using default notification.")
		e.Footer = &discordgo.MessageEmbedFooter{Text: "Use !setmessage to create a custom notification"}
		return c.replyEmbed(m, e)
	}
	return c.replyEmbed(m, c.embed(colorInfo, "📝 Custom Message for "+username, msg))
}

func (c *Commands) removeMessage(ctx context.Context, m *Message, args []string) error {
	if len(args) == 0 {
		return c.replyText(m, "❌ Please provide a username. Usage: `!removemessage <username>`")
	}
	username := store.NormalizeUsername(args[0])
	res := c.store.RemoveCustomMessage(ctx, m.GuildID, username)
	if !res.Success {
		return c.replyText(m, "❌ "+res.Message)
	}
	return c.replyEmbed(m, c.embed(colorRemoved, "✅ Custom Message Removed",
		fmt.Sprintf("Custom message removed for **%s**.\nNow using default notification.", username)))
}

func (c *Commands) isOwner(m *Message) bool {
	return c.ownerID != "" && m.AuthorID == c.ownerID
}

func (c *Commands) setStatus(_ context.Context, m *Message, args []string) error {
	if !c.isOwner(m) {
		return c.replyText(m, "❌ Only the bot owner can change these settings.")
	}
	if len(args) < 2 {
		return c.replyText(m, "❌ Usage: `!setstatus <type> <activity>`\nTypes: PLAYING, STREAMING, LISTENING, WATCHING, COMPETING")
	}
	statusType := strings.ToUpper(args[0])
	if !config.ValidStatusType(statusType) {
		return c.replyText(m, "❌ Invalid status type. Valid types: PLAYING, STREAMING, LISTENING, WATCHING, COMPETING")
	}
	activity := remainder(m.Content[len(c.prefix):], 2)

	p := c.Status()
	p.Type, p.Activity = statusType, activity
	if err := c.chat.SetPresence(p); err != nil {
		slog.Error("failed to update presence", slog.Any("err", err), slog.String("component", "bot"))
		return c.replyText(m, "❌ Failed to update bot status.")
	}
	c.setPresence(p)

	slog.Info("bot status updated", slog.String("type", statusType), slog.String("activity", activity), slog.String("component", "bot"))
	return c.replyEmbed(m, c.embed(colorSuccess, "✅ Bot Status Updated",
		fmt.Sprintf("**Type:** %s\n**Activity:** %s", statusType, activity)))
}

func (c *Commands) getStatus(_ context.Context, m *Message, _ []string) error {
	p := c.Status()
	custom := "Disabled"
	if p.ImageURL != "" {
		custom = "Enabled"
	}
	e := c.embed(colorInfo, "🤖 Bot Status Settings", "")
	e.Fields = []*discordgo.MessageEmbedField{
		inline("Type", p.Type),
		inline("Activity", p.Activity),
		inline("Custom Image", custom),
	}
	if p.ImageURL != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: p.ImageURL}
	}
	return c.replyEmbed(m, e)
}

func (c *Commands) setPresence(p Presence) {
	c.mu.Lock()
	c.presence = p
	c.mu.Unlock()
}

// imageArg returns the URL argument of an image command, replying with the
// usage or validation error when it is missing or malformed.
func (c *Commands) imageArg(m *Message, args []string, usage string) (string, bool, error) {
	if len(args) == 0 {
		return "", false, c.replyText(m, "❌ Please provide an image URL. Usage: `"+c.prefix+usage+" <image_url>`")
	}
	if !config.ValidImageURL(args[0]) {
		return "", false, c.replyText(m, "❌ Please provide a valid image URL (jpg, jpeg, png, gif, or webp).")
	}
	return args[0], true, nil
}

func (c *Commands) setImage(ctx context.Context, m *Message, args []string) error {
	if !c.isOwner(m) {
		return c.replyText(m, "❌ Only the bot owner can change these settings.")
	}
	imageURL, ok, err := c.imageArg(m, args, "setimage")
	if !ok {
		return err
	}
	if err := c.chat.SetAvatar(ctx, imageURL); err != nil {
		slog.Error("failed to update avatar", slog.String("url", imageURL), slog.Any("err", err), slog.String("component", "bot"))
		return c.replyText(m, "❌ Failed to update bot image. Please check if the URL is valid and accessible.")
	}
	p := c.Status()
	p.ImageURL = imageURL
	c.setPresence(p)

	slog.Info("bot image updated", slog.String("user", m.AuthorID), slog.String("guild", m.GuildID), slog.String("component", "bot"))
	e := c.embed(colorSuccess, "✅ Bot Image Updated", "Bot avatar has been updated successfully!")
	e.Image = &discordgo.MessageEmbedImage{URL: imageURL}
	return c.replyEmbed(m, e)
}

func (c *Commands) removeImage(_ context.Context, m *Message, _ []string) error {
	if !c.isOwner(m) {
		return c.replyText(m, "❌ Only the bot owner can change these settings.")
	}
	p := c.Status()
	p.ImageURL = ""
	c.setPresence(p)
	if err := c.chat.SetPresence(p); err != nil {
		slog.Warn("failed to refresh presence", slog.Any("err", err), slog.String("component", "bot"))
	}
	slog.Info("bot image removed", slog.String("user", m.AuthorID), slog.String("guild", m.GuildID), slog.String("component", "bot"))
	return c.replyEmbed(m, c.embed(colorSuccess, "✅ Custom Image Removed", "Bot will now use the default avatar."))
}

func (c *Commands) getImage(_ context.Context, m *Message, _ []string) error {
	p := c.Status()
	if p.ImageURL == "" {
		return c.replyEmbed(m, c.embed(colorInfo, "🖼️ Bot Image Settings", "**Status:** Disabled\nUsing default bot avatar."))
	}
	e := c.embed(colorInfo, "🖼️ Bot Image Settings", fmt.Sprintf("**Status:** Enabled\n**Image URL:** %s", p.ImageURL))
	e.Image = &discordgo.MessageEmbedImage{URL: p.ImageURL}
	return c.replyEmbed(m, e)
}

func (c *Commands) setStatusImage(_ context.Context, m *Message, args []string) error {
	if !c.isOwner(m) {
		return c.replyText(m, "❌ Only the bot owner can change these settings.")
	}
	imageURL, ok, err := c.imageArg(m, args, "setstatusimage")
	if !ok {
		return err
	}
	p := c.Status()
	p.ImageURL = imageURL
	if err := c.chat.SetPresence(p); err != nil {
		slog.Error("failed to update presence image", slog.String("url", imageURL), slog.Any("err", err), slog.String("component", "bot"))
		return c.replyText(m, "❌ Failed to update bot status image. Please check if the URL is valid and accessible.")
	}
	c.setPresence(p)

	slog.Info("bot status image updated", slog.String("user", m.AuthorID), slog.String("guild", m.GuildID), slog.String("component", "bot"))
	e := c.embed(colorSuccess, "✅ Bot Status Image Updated", "Bot status now displays the custom image!")
	e.Image = &discordgo.MessageEmbedImage{URL: imageURL}
	return c.replyEmbed(m, e)
}

func (c *Commands) ping(_ context.Context, m *Message, _ []string) error {
	start := c.now()
	replyID, err := c.chat.Reply(m, "🏓 Pinging...", nil)
	if err != nil {
		return err
	}
	msgLatency := c.now().Sub(start)
	apiLatency := c.chat.HeartbeatLatency()

	e := c.embed(colorSuccess, "🏓 Pong!", "")
	e.Fields = []*discordgo.MessageEmbedField{
		inline("Message Latency", fmt.Sprintf("%dms", msgLatency.Milliseconds())),
		inline("API Latency", fmt.Sprintf("%dms", apiLatency.Milliseconds())),
		inline("Status", LatencyStatus(apiLatency)),
	}
	return c.chat.Edit(m.ChannelID, replyID, "", e)
}

func (c *Commands) start(_ context.Context, m *Message, _ []string) error {
	if !c.isOwner(m) {
		return c.replyText(m, "❌ Only the bot owner can use this command.")
	}
	e := c.embed(colorRestart, "🔄 Restarting Bot", "livewatch is restarting...")
	e.Fields = []*discordgo.MessageEmbedField{
		inline("Current Uptime", fmt.Sprintf("%ds", int(c.now().Sub(c.started).Seconds()))),
		inline("Guilds Served", fmt.Sprintf("%d", c.chat.GuildCount())),
		inline("Database", c.store.Name()),
	}
	if err := c.replyEmbed(m, e); err != nil {
		return err
	}
	slog.Warn("restart requested by owner", slog.String("user", m.AuthorID), slog.String("component", "bot"))
	if c.onRestart != nil {
		time.AfterFunc(c.restartDelay, c.onRestart)
	}
	return nil
}

func (c *Commands) help(_ context.Context, m *Message, _ []string) error {
	section := func(name string) *discordgo.MessageEmbedField {
		return &discordgo.MessageEmbedField{Name: name, Value: "\u200b"}
	}
	entry := func(name, value string) *discordgo.MessageEmbedField {
		return &discordgo.MessageEmbedField{Name: c.prefix + name, Value: value}
	}
	e := c.embed(colorInfo, "livewatch Commands", "Here are all available commands:")
	e.Fields = []*discordgo.MessageEmbedField{
		section("**Streamer Management** (Admin Only)"),
		entry("addstreamer <username>", "Add a Twitch streamer to the watch list"),
		entry("removestreamer <username>", "Remove a streamer from the watch list"),
		entry("liststreamers", "Show all monitored streamers"),
		section("**Channel Settings** (Admin Only)"),
		entry("setchannel #channel", "Set the notification channel"),
		entry("getchannel", "Show the current notification channel"),
		section("**Custom Messages** (Admin Only)"),
		entry("setmessage <username> <message>", "Set custom notification for a streamer"),
		entry("getmessage <username>", "View custom message for a streamer"),
		entry("removemessage <username>", "Remove custom message (use default)"),
		section("**Bot Settings** (Owner Only)"),
		entry("setimage <url>", "Set custom bot avatar image"),
		entry("removeimage", "Remove custom avatar (use default)"),
		entry("getimage", "View current bot image settings"),
		entry("setstatus <type> <activity>", "Change bot status (PLAYING/WATCHING/etc.)"),
		entry("setstatusimage <url>", "Set image for bot status/rich presence"),
		entry("getstatus", "View current bot status settings"),
		section("**Other**"),
		entry("ping", "Check bot latency and response time"),
		entry("help", "Show this help message"),
		entry("start", "Restart the bot (Owner only)"),
	}
	e.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("Use %s in custom messages | Database: %s", notify.Placeholder, c.store.Name()),
	}
	return c.replyEmbed(m, e)
}
