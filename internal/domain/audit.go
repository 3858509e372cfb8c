package domain

import "time"

// Audit run directions.
const (
	DirectionAncestor   = "ancestor"
	DirectionDescendant = "descendant"
)

// Audit run statuses.
const (
	RunStatusRunning   = "RUNNING"
	RunStatusCompleted = "COMPLETED"
	RunStatusFailed    = "FAILED"
)

// AuditRun is one recorded invocation of a closure resolver.
type AuditRun struct {
	ID           string // uuid
	Direction    string // "ancestor" or "descendant"
	RootIdentity string // identity as supplied by the caller
	RootDN       string // resolved DN, empty when resolution failed
	Status       string
	ObjectCount  int
	WarningCount int
	Truncated    bool
	ErrorMessage *string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// AuditFinding is one object discovered during a recorded run.
type AuditFinding struct {
	ID          int64
	RunID       string
	DN          string
	Kind        ObjectKind
	Name        string
	Depth       int
	SourceGroup string
	Inactive    bool
}
