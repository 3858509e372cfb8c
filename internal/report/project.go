package report

import (
	"sort"
	"strings"

	"adlens/internal/domain"
)

// Summary returns the descendant closure deduplicated by DN and sorted by
// display name. An object enumerated under several groups keeps its first
// discovered row.
func Summary(cl *domain.DescendantClosure) []domain.Member {
	seen := make(map[string]struct{}, len(cl.Members))
	out := make([]domain.Member, 0, len(cl.Members))
	for _, m := range cl.Members {
		if _, dup := seen[m.Object.DN]; dup {
			continue
		}
		seen[m.Object.DN] = struct{}{}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Object.DisplayName()) < strings.ToLower(out[j].Object.DisplayName())
	})
	return out
}

// DetailRow is one descendant row with its source group resolved to a
// display name for presentation.
type DetailRow struct {
	domain.Member

	// SourceGroupName is the display name of the immediate containing
	// group, falling back to the raw DN when the group never made it into
	// the object map. That inconsistency is tolerated, not fatal.
	SourceGroupName string
}

// Detailed returns every closure row, in discovery order, with provenance
// resolved for display.
func Detailed(cl *domain.DescendantClosure) []DetailRow {
	out := make([]DetailRow, 0, len(cl.Members))
	for _, m := range cl.Members {
		name := m.SourceGroup
		if obj, ok := cl.Objects[m.SourceGroup]; ok {
			name = obj.DisplayName()
		}
		out = append(out, DetailRow{Member: m, SourceGroupName: name})
	}
	return out
}

// AncestorGroups returns the closure's groups sorted by display name, for
// flat presentation of a member-of result.
func AncestorGroups(cl *domain.AncestorClosure) []*domain.DirectoryObject {
	groups := cl.Groups()
	sort.Slice(groups, func(i, j int) bool {
		return strings.ToLower(groups[i].DisplayName()) < strings.ToLower(groups[j].DisplayName())
	})
	return groups
}
