package closure

import (
	"context"
	"fmt"

	"adlens/internal/domain"
)

// AncestorResolver computes, for a starting principal, the full set of
// groups reachable by following "is-member-of" edges outward, together with
// every parent edge that contributed to discovering a node.
type AncestorResolver struct {
	dir  domain.DirectoryRepository
	opts Options
}

// NewAncestorResolver creates a resolver over the given directory.
func NewAncestorResolver(dir domain.DirectoryRepository, opts Options) *AncestorResolver {
	return &AncestorResolver{dir: dir, opts: opts}
}

// workItem is one queued node with the hop count at which it was discovered.
type workItem struct {
	dn    string
	depth int
}

// Resolve expands the ancestor closure of the given identity.
//
// The root must resolve to exactly one object; a NotFoundError aborts before
// traversal begins and yields no partial result. Every other failure is a
// per-node warning: the failing node contributes no further edges and the
// traversal continues.
func (r *AncestorResolver) Resolve(ctx context.Context, identity string) (*domain.AncestorClosure, error) {
	root, err := r.dir.ResolveObject(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", identity, err)
	}

	cl := &domain.AncestorClosure{
		Root:    root,
		Objects: map[string]*domain.DirectoryObject{root.DN: root},
		Parents: make(map[string][]domain.MembershipEdge),
	}
	guard := NewCycleGuard()
	seenEdges := make(map[domain.MembershipEdge]struct{})
	queue := []workItem{{dn: root.DN, depth: 0}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		// A node popped twice (multi-parent discovery) was fully expanded
		// on its first visit; its edges are already recorded.
		if r.opts.MaxNodes > 0 && guard.Expanded() >= r.opts.MaxNodes {
			cl.Truncated = true
			break
		}
		if r.opts.MaxDepth > 0 && item.depth >= r.opts.MaxDepth {
			if !guard.hasSeen(item.dn) {
				cl.Truncated = true
			}
			continue
		}
		if !guard.ShouldExpand(item.dn) {
			continue
		}

		parents, err := r.dir.GetMembershipsOf(ctx, item.dn)
		if err != nil {
			r.warn(cl, item.dn, "memberships", err)
			continue
		}

		for _, parentDN := range parents {
			edge := domain.MembershipEdge{Child: item.dn, Parent: parentDN}

			// Record the edge even when the target is already known: a
			// group reached over several paths keeps all of its parents.
			if _, dup := seenEdges[edge]; !dup {
				seenEdges[edge] = struct{}{}
				cl.Parents[parentDN] = append(cl.Parents[parentDN], edge)
			}

			if _, known := cl.Objects[parentDN]; known {
				continue
			}
			obj, err := r.dir.GetAttributes(ctx, parentDN, domain.KindGroup)
			if err != nil {
				// The node still enters the closure so its provenance is
				// explained; only the decoration is missing.
				r.warn(cl, parentDN, "attributes", err)
				obj = &domain.DirectoryObject{DN: parentDN, Kind: domain.KindGroup}
			}
			cl.Objects[parentDN] = obj
			queue = append(queue, workItem{dn: parentDN, depth: item.depth + 1})
		}
	}

	return cl, nil
}

func (r *AncestorResolver) warn(cl *domain.AncestorClosure, dn, op string, err error) {
	r.opts.logger().Warn("lookup failed, skipping node",
		"node", dn,
		"op", op,
		"error", err,
	)
	cl.Warnings = append(cl.Warnings, domain.TraversalWarning{NodeDN: dn, Op: op, Err: err.Error()})
}
