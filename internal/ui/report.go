package ui

import (
	"fmt"
	"io"

	"adlens/internal/domain"
	"adlens/internal/ui/assets"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// WriteRunReport renders the run report as a self-contained HTML document.
// The stylesheet is inlined so the file opens correctly without the server.
func WriteRunReport(w io.Writer, run *domain.AuditRun, findings []domain.AuditFinding) error {
	css, err := assets.StaticFS().ReadFile("static/app.css")
	if err != nil {
		return fmt.Errorf("load report stylesheet: %w", err)
	}

	title := runReportTitle(run)
	doc := HTML(
		Lang("en"),
		Head(
			Meta(Charset("utf-8")),
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
			TitleEl(Text(title+" | adlens")),
			StyleEl(Raw(string(css))),
			Script(
				Type("module"),
				Src("https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.7/bundles/datastar.js"),
			),
		),
		Body(
			Main(Class("app-shell"),
				Section(Class("app-main"),
					H1(Class("page-title"), Text(title)),
					Group(runReportSections(run, findings)),
				),
			),
		),
	)
	return doc.Render(w)
}
