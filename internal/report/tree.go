// Package report contains pure projections over already-computed closure
// results: indented trees, flat summaries, detailed provenance views, and
// CSV export. Nothing here re-queries the directory.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"adlens/internal/domain"
)

// Tree renders the ancestor closure as an indented hierarchy, root first.
// A group with multiple recorded parents legitimately appears at every
// position it was reached through; that reflects true multi-path membership.
// Re-entry into a node already on the current rendering path is cut, so the
// projection terminates even though the underlying relation may be cyclic.
func Tree(cl *domain.AncestorClosure) string {
	var b strings.Builder
	WriteTree(&b, cl)
	return b.String()
}

// WriteTree writes the indented hierarchy to w.
func WriteTree(w io.Writer, cl *domain.AncestorClosure) {
	if cl.Root == nil {
		return
	}
	onPath := map[string]bool{}
	writeTreeNode(w, cl, cl.Root.DN, 0, onPath)
}

func writeTreeNode(w io.Writer, cl *domain.AncestorClosure, dn string, depth int, onPath map[string]bool) {
	label := dn
	if obj, ok := cl.Objects[dn]; ok {
		label = obj.DisplayName()
	}
	fmt.Fprintf(w, "%s%s\n", strings.Repeat("    ", depth), label)

	onPath[dn] = true
	defer delete(onPath, dn)

	for _, child := range containersOf(cl, dn) {
		if onPath[child] {
			continue
		}
		writeTreeNode(w, cl, child, depth+1, onPath)
	}
}

// containersOf returns the groups dn is a direct member of, i.e. every node
// whose recorded-parent edges name dn as the child, in stable order.
func containersOf(cl *domain.AncestorClosure, dn string) []string {
	var out []string
	for parent, edges := range cl.Parents {
		for _, e := range edges {
			if e.Child == dn {
				out = append(out, parent)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}
