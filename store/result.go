package store

import (
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrAlreadyWatched is reported when a (guild, username) pair already exists.
	ErrAlreadyWatched = errors.New("streamer already watched")
	// ErrNotWatched is reported when a (guild, username) pair does not exist.
	ErrNotWatched = errors.New("streamer not watched")
)

// Result is the outcome of a user-initiated mutation. Message is meant to be
// rendered to the user as-is; Err carries a sentinel or the backend error.
type Result struct {
	Success bool
	Message string
	Err     error
}

func ok(msg string) Result { return Result{Success: true, Message: msg} }

func fail(err error, msg string) Result { return Result{Message: msg, Err: err} }

func alreadyWatched(username string) Result {
	return fail(ErrAlreadyWatched, fmt.Sprintf("Streamer \"%s\" is already being monitored.", username))
}

func notWatched(username string) Result {
	return fail(ErrNotWatched, fmt.Sprintf("Streamer \"%s\" is not being monitored.", username))
}

func notWatchedForMessage(username string) Result {
	return fail(ErrNotWatched, fmt.Sprintf("Streamer \"%s\" is not being monitored. Add them first with !addstreamer.", username))
}

func streamerNotFound(username string) Result {
	return fail(ErrNotWatched, fmt.Sprintf("Streamer \"%s\" not found.", username))
}

func added(username string) Result {
	return ok(fmt.Sprintf("Successfully added streamer \"%s\".", username))
}

func removed(username string) Result {
	return ok(fmt.Sprintf("Successfully removed streamer \"%s\".", username))
}

func messageSet(username string) Result {
	return ok(fmt.Sprintf("Custom notification message set for \"%s\".", username))
}

func messageRemoved(username string) Result {
	return ok(fmt.Sprintf("Custom message removed for \"%s\". Using default notification.", username))
}

func channelSet() Result { return ok("Notification channel set successfully.") }

// dbFailure logs err and returns the generic failure shown to users.
func dbFailure(backend, op string, err error) Result {
	slog.Error("store mutation failed", slog.String("backend", backend), slog.String("op", op), slog.Any("err", err))
	return fail(err, fmt.Sprintf("Database error occurred while %s.", op))
}

// Outcome is returned by fire-and-forget mutations (liveness flags). Any error
// has already been logged when the Outcome is built, so callers may discard it.
type Outcome struct {
	Err error
}

// OK reports whether the mutation was applied.
func (o Outcome) OK() bool { return o.Err == nil }

func logged(backend, op, guildID, username string, err error) Outcome {
	if err != nil {
		slog.Error("store flag update failed",
			slog.String("backend", backend),
			slog.String("op", op),
			slog.String("guild", guildID),
			slog.String("streamer", username),
			slog.Any("err", err))
	}
	return Outcome{Err: err}
}

// logRead logs a failed background read; the caller returns its safe default.
func logRead(backend, op string, err error, attrs ...any) {
	args := append([]any{slog.String("backend", backend), slog.String("op", op), slog.Any("err", err)}, attrs...)
	slog.Error("store read failed", args...)
}
