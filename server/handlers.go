package server

import (
	"time"

	"github.com/onnwee/livewatch/backend/store"
)

// BotStatus is the view of the Discord session the health endpoint reports.
type BotStatus interface {
	Ready() bool
	GuildCount() int
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	store   store.Store
	bot     BotStatus
	started time.Time
	now     func() time.Time
}

// NewHandlers creates a new Handlers instance with the given dependencies.
// bot may be nil when the Discord session is not running.
func NewHandlers(st store.Store, bot BotStatus) *Handlers {
	return &Handlers{
		store:   st,
		bot:     bot,
		started: time.Now(),
		now:     time.Now,
	}
}
