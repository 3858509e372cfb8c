package closure

// CycleGuard tracks which nodes have had their outgoing edges expanded
// during one traversal. It is a monotonically-growing set owned by a single
// resolver invocation; it is never shared across runs or roots.
type CycleGuard struct {
	seen map[string]struct{}
}

// NewCycleGuard returns an empty guard.
func NewCycleGuard() *CycleGuard {
	return &CycleGuard{seen: make(map[string]struct{})}
}

// ShouldExpand reports whether the node's outgoing edges should be queried.
// It returns true the first time a given DN is passed and false on every
// subsequent call, recording the DN as expanded regardless of outcome.
func (g *CycleGuard) ShouldExpand(dn string) bool {
	if _, ok := g.seen[dn]; ok {
		return false
	}
	g.seen[dn] = struct{}{}
	return true
}

// Expanded returns the number of nodes recorded so far.
func (g *CycleGuard) Expanded() int {
	return len(g.seen)
}

// hasSeen reports whether the DN was already recorded, without recording it.
func (g *CycleGuard) hasSeen(dn string) bool {
	_, ok := g.seen[dn]
	return ok
}
