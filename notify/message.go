// Package notify renders go-live announcements and hands them to a chat
// sender.
package notify

import "strings"

// Placeholder is replaced by the streamer's display name in message templates.
const Placeholder = "{streamer}"

// DefaultMessage is used when neither a per-streamer nor a configured default
// template is available.
const DefaultMessage = "@everyone **{streamer}** is now streaming!"

// RenderMessage picks the custom template when it is non-empty, otherwise
// def, and replaces every placeholder with displayName.
func RenderMessage(custom, def, displayName string) string {
	tmpl := custom
	if tmpl == "" {
		tmpl = def
	}
	if tmpl == "" {
		tmpl = DefaultMessage
	}
	return strings.ReplaceAll(tmpl, Placeholder, displayName)
}
