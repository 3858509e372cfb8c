package domain

import "context"

// DirectoryRepository is the directory query collaborator: the read-only
// view of the directory the closure engine traverses. Implementations are
// LDAP-backed in production and in-memory fakes in tests.
//
// Every method may fail with a transport or permission error. The engine
// treats such failures as localized (the failing node is skipped and the
// traversal continues), so implementations should return errors rather than
// retry indefinitely.
type DirectoryRepository interface {
	// ResolveObject resolves a loosely-typed identity (sAMAccountName, DN,
	// or userPrincipalName) to exactly one object. Zero or ambiguous
	// multiple matches yield a NotFoundError.
	ResolveObject(ctx context.Context, identity string) (*DirectoryObject, error)

	// GetMembershipsOf returns the DNs of the groups the object is a direct
	// member of, in directory order.
	GetMembershipsOf(ctx context.Context, dn string) ([]string, error)

	// GetMembersOf returns the direct members of a group with their kinds,
	// in directory order.
	GetMembersOf(ctx context.Context, groupDN string) ([]MemberRef, error)

	// GetAttributes fetches display/activity/organizational attributes for
	// an object whose DN and kind are already known.
	GetAttributes(ctx context.Context, dn string, kind ObjectKind) (*DirectoryObject, error)
}

// AuditRepository persists audit run history.
type AuditRepository interface {
	CreateRun(ctx context.Context, run *AuditRun) error
	FinishRun(ctx context.Context, run *AuditRun) error
	AddFindings(ctx context.Context, runID string, findings []AuditFinding) error
	GetRun(ctx context.Context, id string) (*AuditRun, error)
	ListRuns(ctx context.Context, limit int) ([]AuditRun, error)
	ListFindings(ctx context.Context, runID string) ([]AuditFinding, error)
}
