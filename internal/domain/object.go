package domain

import "time"

// ObjectKind classifies a directory object.
type ObjectKind string

const (
	KindUser     ObjectKind = "user"
	KindGroup    ObjectKind = "group"
	KindComputer ObjectKind = "computer"
	KindUnknown  ObjectKind = "unknown"
)

// DirectoryObject is a node in the membership graph. The DN is the identity
// key: two objects with the same DN are the same node, no matter at which
// traversal depth they were fetched.
type DirectoryObject struct {
	DN             string
	Kind           ObjectKind
	Name           string
	SAMAccountName string
	Enabled        bool
	LastActivity   *time.Time // nil when the directory has never recorded activity
	Description    string
	Department     string
	Mail           string
}

// DisplayName returns the best human-readable label for the object.
func (o *DirectoryObject) DisplayName() string {
	if o.Name != "" {
		return o.Name
	}
	if o.SAMAccountName != "" {
		return o.SAMAccountName
	}
	return o.DN
}

// MemberRef is a direct "has-member" edge endpoint as reported by the
// directory: the member's DN plus its kind, before attributes are fetched.
type MemberRef struct {
	DN   string
	Kind ObjectKind
}

// MembershipEdge is a directed relation: Child is a member of Parent.
// Both endpoints are DNs.
type MembershipEdge struct {
	Child  string
	Parent string
}
