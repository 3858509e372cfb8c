package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"adlens/internal/closure"
	"adlens/internal/domain"
	"adlens/internal/report"
	"adlens/internal/service"
)

func newMemberOfCmd(conn *connFlags) *cobra.Command {
	var (
		maxDepth int
		maxNodes int
		htmlPath string
	)

	cmd := &cobra.Command{
		Use:   "memberof <identity>",
		Short: "List every group an identity transitively belongs to",
		Long:  "Resolves the identity (DN, sAMAccountName or UPN) and walks its memberOf chain to the top, cycles included. Use -o tree to see the nesting paths.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closer, err := conn.auditService()
			if err != nil {
				return err
			}
			defer closer()

			cl, run, err := svc.MemberOf(cmd.Context(), args[0], closure.Options{
				MaxDepth: maxDepth,
				MaxNodes: maxNodes,
			})
			if err != nil {
				return err
			}

			switch conn.output {
			case "tree":
				fmt.Fprint(os.Stdout, report.Tree(cl))
			case "csv":
				if err := report.WriteGroupsCSV(os.Stdout, cl); err != nil {
					return err
				}
			case "json":
				if err := json.NewEncoder(os.Stdout).Encode(ancestorJSON(cl)); err != nil {
					return err
				}
			default:
				printAncestorTable(cl)
			}
			if htmlPath != "" {
				if err := writeHTMLReport(htmlPath, run, service.AncestorFindings(cl)); err != nil {
					return err
				}
			}
			reportTruncation(cl.Truncated, len(cl.Warnings))
			return nil
		},
	}

	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "stop expanding past this nesting depth (0 = unlimited)")
	cmd.Flags().IntVar(&maxNodes, "max-nodes", 0, "stop after visiting this many objects (0 = unlimited)")
	cmd.Flags().StringVar(&htmlPath, "html", "", "also write the report as a standalone HTML file")
	return cmd
}

type ancestorGroupOut struct {
	Name       string   `json:"name"`
	DN         string   `json:"dn"`
	ReachedVia []string `json:"reached_via"`
}

type ancestorOut struct {
	Root      string                    `json:"root"`
	Groups    []ancestorGroupOut        `json:"groups"`
	Warnings  []domain.TraversalWarning `json:"warnings,omitempty"`
	Truncated bool                      `json:"truncated"`
}

func ancestorJSON(cl *domain.AncestorClosure) ancestorOut {
	out := ancestorOut{Root: cl.Root.DN, Warnings: cl.Warnings, Truncated: cl.Truncated}
	for _, g := range report.AncestorGroups(cl) {
		row := ancestorGroupOut{Name: g.DisplayName(), DN: g.DN}
		for _, e := range cl.Parents[g.DN] {
			if obj, ok := cl.Objects[e.Child]; ok {
				row.ReachedVia = append(row.ReachedVia, obj.DisplayName())
			} else {
				row.ReachedVia = append(row.ReachedVia, e.Child)
			}
		}
		out.Groups = append(out.Groups, row)
	}
	return out
}

func printAncestorTable(cl *domain.AncestorClosure) {
	w := newTabWriter()
	defer flushTabWriter(w)
	fmt.Fprintln(w, "NAME\tDN")
	for _, g := range report.AncestorGroups(cl) {
		fmt.Fprintf(w, "%s\t%s\n", g.DisplayName(), g.DN)
	}
}

// reportTruncation prints result-quality caveats to stderr so they never
// corrupt machine-readable stdout.
func reportTruncation(truncated bool, warnings int) {
	if truncated {
		fmt.Fprintln(os.Stderr, "warning: traversal truncated by depth or node limit; results are incomplete")
	}
	if warnings > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d lookup(s) failed during traversal\n", warnings)
	}
}

// daysLabel renders a day count, with "-" standing in for never-recorded.
func daysLabel(days int) string {
	if days < 0 {
		return "-"
	}
	return fmt.Sprintf("%d", days)
}
