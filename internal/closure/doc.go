// Package closure implements the bidirectional membership-closure engine:
// transitive expansion of "is-member-of" edges outward from a principal
// (ancestor closure) and of "has-member" edges inward from a group
// (descendant closure), over a directory relation that may contain cycles.
//
// Both resolvers share the same cycle discipline, a CycleGuard scoped to a
// single invocation: every node's outgoing edges are queried at most once,
// so traversal depth is bounded by the number of distinct objects and the
// engine terminates on any input.
//
// The two resolvers deliberately deduplicate differently:
//
//   - AncestorResolver guards the node being expanded and records edges to
//     already-known targets unconditionally, so multiple independent
//     membership paths into the same group are all preserved as provenance.
//   - DescendantResolver guards the target group before expanding it, so a
//     group referenced by several parents contributes its members exactly
//     once; the repeat branch is dropped entirely, including its depth tags.
//
// State is traversal-scoped: each Resolve call owns its guard, accumulators,
// and result; nothing is shared across invocations or goroutines.
package closure
