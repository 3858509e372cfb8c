package closure

import (
	"context"
	"fmt"

	"adlens/internal/domain"
)

// DescendantResolver computes, for a starting group, every object it
// transitively contains once nested groups are expanded, tagging each result
// with its nesting depth and the immediate group it was found under.
type DescendantResolver struct {
	dir  domain.DirectoryRepository
	opts Options
}

// NewDescendantResolver creates a resolver over the given directory.
func NewDescendantResolver(dir domain.DirectoryRepository, opts Options) *DescendantResolver {
	return &DescendantResolver{dir: dir, opts: opts}
}

// descendantRun holds the traversal-scoped state of one Resolve call: the
// shared guard, the accumulating result, and the options snapshot. It is
// created per invocation and never escapes it.
type descendantRun struct {
	dir   domain.DirectoryRepository
	opts  Options
	cl    *domain.DescendantClosure
	guard *CycleGuard
}

// Resolve expands the descendant closure of the given identity, which must
// resolve to a group. Direct members of the root have depth 0.
//
// A group's membership is expanded exactly once per traversal regardless of
// how many parent groups reference it; a branch reaching an already-expanded
// group contributes nothing, and the depth shown for that group is the one
// from its first discovery.
func (r *DescendantResolver) Resolve(ctx context.Context, identity string) (*domain.DescendantClosure, error) {
	root, err := r.dir.ResolveObject(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", identity, err)
	}
	if root.Kind != domain.KindGroup {
		return nil, domain.ErrValidation("object %q is a %s, not a group", root.DisplayName(), root.Kind)
	}

	run := &descendantRun{
		dir:  r.dir,
		opts: r.opts,
		cl: &domain.DescendantClosure{
			Root:    root,
			Objects: map[string]*domain.DirectoryObject{root.DN: root},
		},
		guard: NewCycleGuard(),
	}
	run.expandGroup(ctx, root.DN, 0)
	return run.cl, nil
}

// expandGroup enumerates the direct members of groupDN and recurses into
// nested groups. depth is the nesting level its members are emitted at.
func (run *descendantRun) expandGroup(ctx context.Context, groupDN string, depth int) {
	if !run.guard.ShouldExpand(groupDN) {
		return
	}

	members, err := run.dir.GetMembersOf(ctx, groupDN)
	if err != nil {
		run.warn(groupDN, "members", err)
		return
	}

	for _, ref := range members {
		if run.opts.MaxNodes > 0 && len(run.cl.Members) >= run.opts.MaxNodes {
			run.cl.Truncated = true
			return
		}

		switch ref.Kind {
		case domain.KindUser:
			run.emitUser(ctx, ref.DN, groupDN, depth)
		case domain.KindGroup:
			run.emitGroup(ctx, ref.DN, groupDN, depth)
		case domain.KindComputer:
			run.emitComputer(ctx, ref.DN, groupDN, depth)
		default:
			run.warn(ref.DN, "members", fmt.Errorf("unsupported object kind %q", ref.Kind))
		}
	}
}

func (run *descendantRun) emitUser(ctx context.Context, dn, sourceGroup string, depth int) {
	obj, err := run.dir.GetAttributes(ctx, dn, domain.KindUser)
	if err != nil {
		run.warn(dn, "attributes", err)
		return
	}

	inactive, days := run.classifyActivity(obj)
	if inactive && !run.opts.IncludeInactive {
		return
	}

	run.cl.Objects[dn] = obj
	run.cl.Members = append(run.cl.Members, domain.Member{
		Object:            obj,
		Depth:             depth,
		SourceGroup:       sourceGroup,
		Inactive:          inactive,
		DaysSinceActivity: days,
	})
}

func (run *descendantRun) emitGroup(ctx context.Context, dn, sourceGroup string, depth int) {
	obj, err := run.dir.GetAttributes(ctx, dn, domain.KindGroup)
	if err != nil {
		run.warn(dn, "attributes", err)
		return
	}

	run.cl.Objects[dn] = obj
	run.cl.Members = append(run.cl.Members, domain.Member{
		Object:            obj,
		Depth:             depth,
		SourceGroup:       sourceGroup,
		Nested:            true,
		DaysSinceActivity: -1,
	})

	if !run.opts.ExpandNested {
		return
	}
	if run.opts.MaxDepth > 0 && depth+1 > run.opts.MaxDepth {
		run.cl.Truncated = true
		return
	}
	run.expandGroup(ctx, dn, depth+1)
}

func (run *descendantRun) emitComputer(ctx context.Context, dn, sourceGroup string, depth int) {
	obj, err := run.dir.GetAttributes(ctx, dn, domain.KindComputer)
	if err != nil {
		run.warn(dn, "attributes", err)
		return
	}

	_, days := run.classifyActivity(obj)
	run.cl.Objects[dn] = obj
	run.cl.Members = append(run.cl.Members, domain.Member{
		Object:            obj,
		Depth:             depth,
		SourceGroup:       sourceGroup,
		DaysSinceActivity: days,
	})
}

// classifyActivity compares the object's last activity against the
// configured threshold. An object with no recorded activity at all counts
// as inactive once a threshold is set: never-used accounts are exactly what
// an inactivity audit is after.
func (run *descendantRun) classifyActivity(obj *domain.DirectoryObject) (inactive bool, days int) {
	days = -1
	if obj.LastActivity != nil {
		age := run.opts.now().Sub(*obj.LastActivity)
		days = int(age.Hours() / 24)
		if days < 0 {
			days = 0
		}
		inactive = run.opts.InactivityThreshold > 0 && age > run.opts.InactivityThreshold
		return inactive, days
	}
	return run.opts.InactivityThreshold > 0, days
}

func (run *descendantRun) warn(dn, op string, err error) {
	run.opts.logger().Warn("lookup failed, skipping object",
		"node", dn,
		"op", op,
		"error", err,
	)
	run.cl.Warnings = append(run.cl.Warnings, domain.TraversalWarning{NodeDN: dn, Op: op, Err: err.Error()})
}
