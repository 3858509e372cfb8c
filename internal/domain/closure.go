package domain

// TraversalWarning records a per-node lookup failure that did not abort the
// traversal. The node contributed no further edges past the failure point.
type TraversalWarning struct {
	NodeDN string
	Op     string // "memberships", "members", "attributes"
	Err    string
}

// AncestorClosure is the result of expanding "is-member-of" edges outward
// from a root principal: every group transitively containing it.
type AncestorClosure struct {
	// Root is the object the traversal started from.
	Root *DirectoryObject

	// Objects maps DN to the deduplicated object, root included.
	Objects map[string]*DirectoryObject

	// Parents maps a DN to every edge discovered into it. A group reachable
	// over several independent paths keeps one entry per discovered parent,
	// so the map is a DAG of provenance, not a spanning tree.
	Parents map[string][]MembershipEdge

	// Warnings holds per-node lookup failures encountered underway.
	Warnings []TraversalWarning

	// Truncated is set when a node-count guard cut the traversal short.
	Truncated bool
}

// Groups returns all non-root objects in the closure, i.e. the groups the
// root transitively belongs to.
func (c *AncestorClosure) Groups() []*DirectoryObject {
	out := make([]*DirectoryObject, 0, len(c.Objects))
	for dn, obj := range c.Objects {
		if c.Root != nil && dn == c.Root.DN {
			continue
		}
		out = append(out, obj)
	}
	return out
}

// Member is one row of a descendant closure: a discovered object tagged with
// its nesting depth and the immediate group it was found under.
type Member struct {
	Object *DirectoryObject

	// Depth is the nesting level; direct members of the root have depth 0.
	Depth int

	// SourceGroup is the DN of the group this object was enumerated from.
	SourceGroup string

	// Nested marks rows that are themselves groups.
	Nested bool

	// Inactive is set for users whose last activity predates the configured
	// threshold. Only meaningful for KindUser.
	Inactive bool

	// DaysSinceActivity is the whole days since the user's last recorded
	// activity, or -1 when the directory has no activity timestamp.
	DaysSinceActivity int
}

// DescendantClosure is the result of expanding a group's membership inward,
// nested groups included: a flat, depth-tagged member list.
type DescendantClosure struct {
	Root *DirectoryObject

	// Members is the flat result list in discovery order.
	Members []Member

	// Objects maps DN to every object touched during traversal, groups
	// included, for display-name resolution in projections.
	Objects map[string]*DirectoryObject

	Warnings  []TraversalWarning
	Truncated bool
}
