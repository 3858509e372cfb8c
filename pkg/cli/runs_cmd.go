package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"adlens/internal/domain"
)

func newRunsCmd(conn *connFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded audit runs",
	}
	cmd.AddCommand(newRunsListCmd(conn))
	cmd.AddCommand(newRunsShowCmd(conn))
	return cmd
}

func newRunsListCmd(conn *connFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent audit runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closer, err := conn.historyService()
			if err != nil {
				return err
			}
			defer closer()

			runs, err := svc.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if conn.output == "json" {
				return json.NewEncoder(os.Stdout).Encode(runs)
			}

			w := newTabWriter()
			defer flushTabWriter(w)
			fmt.Fprintln(w, "ID\tDIRECTION\tROOT\tSTATUS\tOBJECTS\tWARNINGS\tSTARTED")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
					run.ID, run.Direction, run.RootIdentity, run.Status,
					run.ObjectCount, run.WarningCount, run.StartedAt.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	return cmd
}

func newRunsShowCmd(conn *connFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one recorded run with its findings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closer, err := conn.historyService()
			if err != nil {
				return err
			}
			defer closer()

			run, err := svc.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			findings, err := svc.ListFindings(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if conn.output == "json" {
				return json.NewEncoder(os.Stdout).Encode(struct {
					Run      *domain.AuditRun      `json:"run"`
					Findings []domain.AuditFinding `json:"findings"`
				}{run, findings})
			}

			fmt.Printf("Run:       %s\n", run.ID)
			fmt.Printf("Direction: %s\n", run.Direction)
			fmt.Printf("Root:      %s", run.RootIdentity)
			if run.RootDN != "" {
				fmt.Printf(" (%s)", run.RootDN)
			}
			fmt.Println()
			fmt.Printf("Status:    %s\n", run.Status)
			if run.ErrorMessage != nil {
				fmt.Printf("Error:     %s\n", *run.ErrorMessage)
			}
			fmt.Printf("Started:   %s\n", run.StartedAt.Format(time.RFC3339))
			if run.FinishedAt != nil {
				fmt.Printf("Finished:  %s\n", run.FinishedAt.Format(time.RFC3339))
			}
			if run.Truncated {
				fmt.Println("Truncated: true")
			}
			fmt.Println()

			w := newTabWriter()
			defer flushTabWriter(w)
			fmt.Fprintln(w, "NAME\tKIND\tDEPTH\tSOURCE GROUP\tINACTIVE")
			for _, f := range findings {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%t\n", f.Name, f.Kind, f.Depth, f.SourceGroup, f.Inactive)
			}
			return nil
		},
	}
}
