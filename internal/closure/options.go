package closure

import (
	"io"
	"log/slog"
	"time"
)

// Options control one resolver invocation. The zero value means: no
// inactivity filtering, nested expansion off, unbounded traversal.
type Options struct {
	// InactivityThreshold classifies a user as inactive when its last
	// activity is older than this. Zero disables activity classification.
	InactivityThreshold time.Duration

	// IncludeInactive keeps inactive users in descendant results, flagged,
	// instead of dropping them.
	IncludeInactive bool

	// ExpandNested recurses into nested groups during descendant closure.
	ExpandNested bool

	// MaxDepth bounds nesting depth; 0 means unlimited. Exceeding it
	// truncates the traversal and flags the result, it is not an error.
	MaxDepth int

	// MaxNodes bounds the number of expanded nodes (ancestor) or emitted
	// rows (descendant); 0 means unlimited.
	MaxNodes int

	// Now is the clock used for activity classification; defaults to
	// time.Now. Tests pin it.
	Now func() time.Time

	// Logger receives per-node lookup warnings. Defaults to a discard
	// logger.
	Logger *slog.Logger
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
