package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"adlens/internal/closure"
	"adlens/internal/domain"
	"adlens/internal/report"
	"adlens/internal/service"
)

func newMembersCmd(conn *connFlags) *cobra.Command {
	var (
		nested          bool
		includeInactive bool
		inactiveDays    int
		maxDepth        int
		maxNodes        int
		detailed        bool
		htmlPath        string
	)

	cmd := &cobra.Command{
		Use:   "members <group>",
		Short: "List every object a group transitively contains",
		Long:  "Enumerates the group's members, descending into nested groups, and tags each user with its activity status. The default view deduplicates objects reachable over several paths; --detailed keeps one row per discovery.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closer, err := conn.auditService()
			if err != nil {
				return err
			}
			defer closer()

			cl, run, err := svc.MembersOf(cmd.Context(), args[0], closure.Options{
				InactivityThreshold: time.Duration(inactiveDays) * 24 * time.Hour,
				IncludeInactive:     includeInactive,
				ExpandNested:        nested,
				MaxDepth:            maxDepth,
				MaxNodes:            maxNodes,
			})
			if err != nil {
				return err
			}

			switch conn.output {
			case "tree":
				return fmt.Errorf("tree output is only available for memberof")
			case "csv":
				if err := report.WriteMembersCSV(os.Stdout, cl); err != nil {
					return err
				}
			case "json":
				if err := json.NewEncoder(os.Stdout).Encode(descendantJSON(cl)); err != nil {
					return err
				}
			default:
				if detailed {
					printDetailedTable(cl)
				} else {
					printSummaryTable(cl)
				}
			}
			if htmlPath != "" {
				if err := writeHTMLReport(htmlPath, run, service.DescendantFindings(cl)); err != nil {
					return err
				}
			}
			reportTruncation(cl.Truncated, len(cl.Warnings))
			return nil
		},
	}

	cmd.Flags().BoolVar(&nested, "nested", true, "descend into nested groups")
	cmd.Flags().BoolVar(&includeInactive, "include-inactive", false, "keep users inactive past the threshold")
	cmd.Flags().IntVar(&inactiveDays, "inactive-days", 90, "inactivity threshold in days (0 disables the check)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "stop expanding past this nesting depth (0 = unlimited)")
	cmd.Flags().IntVar(&maxNodes, "max-nodes", 0, "stop after this many member rows (0 = unlimited)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "one row per discovery with depth and source group")
	cmd.Flags().StringVar(&htmlPath, "html", "", "also write the report as a standalone HTML file")
	return cmd
}

type memberOut struct {
	Name              string `json:"name"`
	SAMAccountName    string `json:"sam_account_name,omitempty"`
	Kind              string `json:"kind"`
	DN                string `json:"dn"`
	Depth             int    `json:"depth"`
	SourceGroup       string `json:"source_group"`
	Enabled           bool   `json:"enabled"`
	Inactive          bool   `json:"inactive"`
	DaysSinceActivity int    `json:"days_since_activity"`
}

type descendantOut struct {
	Root      string                    `json:"root"`
	Members   []memberOut               `json:"members"`
	Warnings  []domain.TraversalWarning `json:"warnings,omitempty"`
	Truncated bool                      `json:"truncated"`
}

func descendantJSON(cl *domain.DescendantClosure) descendantOut {
	out := descendantOut{Root: cl.Root.DN, Warnings: cl.Warnings, Truncated: cl.Truncated}
	for _, row := range report.Detailed(cl) {
		out.Members = append(out.Members, memberOut{
			Name:              row.Object.DisplayName(),
			SAMAccountName:    row.Object.SAMAccountName,
			Kind:              string(row.Object.Kind),
			DN:                row.Object.DN,
			Depth:             row.Depth,
			SourceGroup:       row.SourceGroupName,
			Enabled:           row.Object.Enabled,
			Inactive:          row.Inactive,
			DaysSinceActivity: row.DaysSinceActivity,
		})
	}
	return out
}

func printSummaryTable(cl *domain.DescendantClosure) {
	w := newTabWriter()
	defer flushTabWriter(w)
	fmt.Fprintln(w, "NAME\tKIND\tENABLED\tINACTIVE\tDAYS IDLE")
	for _, m := range report.Summary(cl) {
		fmt.Fprintf(w, "%s\t%s\t%t\t%t\t%s\n",
			m.Object.DisplayName(), m.Object.Kind, m.Object.Enabled, m.Inactive, daysLabel(m.DaysSinceActivity))
	}
}

func printDetailedTable(cl *domain.DescendantClosure) {
	w := newTabWriter()
	defer flushTabWriter(w)
	fmt.Fprintln(w, "NAME\tKIND\tDEPTH\tSOURCE GROUP\tINACTIVE\tDAYS IDLE")
	for _, row := range report.Detailed(cl) {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%t\t%s\n",
			row.Object.DisplayName(), row.Object.Kind, row.Depth, row.SourceGroupName, row.Inactive, daysLabel(row.DaysSinceActivity))
	}
}
