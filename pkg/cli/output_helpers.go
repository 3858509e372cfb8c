package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"adlens/internal/domain"
	"adlens/internal/ui"
)

func newTabWriter() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func flushTabWriter(w *tabwriter.Writer) {
	_ = w.Flush()
}

// writeHTMLReport saves the audit run as a self-contained HTML file.
func writeHTMLReport(path string, run *domain.AuditRun, findings []domain.AuditFinding) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	if err := ui.WriteRunReport(f, run, findings); err != nil {
		_ = f.Close()
		return fmt.Errorf("render report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "report written to %s\n", path)
	return nil
}
