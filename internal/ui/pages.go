// Package ui renders the read-only audit report browser.
package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"adlens/internal/domain"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"
)

type navItem struct {
	Label string
	Href  string
	Key   string
}

var navItems = []navItem{
	{Label: "Audit Runs", Href: "/ui", Key: "runs"},
}

func appPage(title, active string, body ...Node) Node {
	nav := make([]Node, 0, len(navItems))
	for _, item := range navItems {
		className := "app-nav-link"
		if item.Key == active {
			className += " active"
		}
		nav = append(nav, A(Href(item.Href), Class(className), Text(item.Label)))
	}

	return HTML(
		Lang("en"),
		Head(
			Meta(Charset("utf-8")),
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
			TitleEl(Text(title+" | adlens")),
			Link(Rel("icon"), Href("data:,")),
			Link(Rel("stylesheet"), Href("/ui/static/app.css")),
			Script(
				Type("module"),
				Src("https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.7/bundles/datastar.js"),
			),
		),
		Body(
			Main(Class("app-shell"),
				Aside(
					Class("app-sidebar"),
					Div(
						Class("brand"),
						Strong(Text("adlens")),
						P(Class("muted"), Text("Directory membership audits")),
					),
					Nav(Class("app-nav"), Group(nav)),
				),
				Section(
					Class("app-main"),
					H1(Class("page-title"), Text(title)),
					Group(body),
				),
			),
		),
	)
}

func errorPage(title, message string) Node {
	return appPage(title, "",
		Div(Class("card"),
			P(Text(message)),
			P(A(Href("/ui"), Text("Back to audit runs"))),
		),
	)
}

// runsPage lists recorded runs, newest first, with a client-side quick filter
// over the root identity.
func runsPage(runs []domain.AuditRun) Node {
	if len(runs) == 0 {
		return appPage("Audit Runs", "runs",
			Div(Class("card"),
				P(Class("muted"), Text("No audit runs recorded yet. Run an audit via the CLI or the API and it will show up here.")),
			),
		)
	}

	rows := make([]Node, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, Tr(
			data.Show(containsExpr(run.RootIdentity)),
			Td(A(Href("/ui/runs/"+run.ID), Text(run.RootIdentity))),
			Td(Text(directionLabel(run.Direction))),
			Td(statusLabel(run)),
			Td(Text(strconv.Itoa(run.ObjectCount))),
			Td(Text(strconv.Itoa(run.WarningCount))),
			Td(Text(formatTime(run.StartedAt))),
		))
	}

	return appPage("Audit Runs", "runs",
		Div(Class("card"),
			data.Signals(map[string]any{"q": ""}),
			Input(Type("search"), Class("filter-input"), Placeholder("Filter by root identity"), data.Bind("q"), AutoComplete("off")),
			Table(
				THead(Tr(
					Th(Text("Root")),
					Th(Text("Direction")),
					Th(Text("Status")),
					Th(Text("Objects")),
					Th(Text("Warnings")),
					Th(Text("Started")),
				)),
				TBody(Group(rows)),
			),
		),
	)
}

// runReportPage renders one run: metadata first, then the findings table.
// Depth shows as indentation; inactive rows are highlighted.
func runReportPage(run *domain.AuditRun, findings []domain.AuditFinding) Node {
	return appPage(runReportTitle(run), "runs", Group(runReportSections(run, findings)))
}

func runReportTitle(run *domain.AuditRun) string {
	return fmt.Sprintf("%s of %s", directionLabel(run.Direction), run.RootIdentity)
}

// runReportSections builds the metadata cards and the findings table. Shared
// by the server page and the standalone file report.
func runReportSections(run *domain.AuditRun, findings []domain.AuditFinding) []Node {
	sections := []Node{Div(Class("card"),
		Table(
			Tr(Th(Text("Root DN")), Td(Text(orDash(run.RootDN)))),
			Tr(Th(Text("Status")), Td(statusLabel(*run))),
			Tr(Th(Text("Started")), Td(Text(formatTime(run.StartedAt)))),
			Tr(Th(Text("Finished")), Td(Text(formatTimePtr(run.FinishedAt)))),
			Tr(Th(Text("Objects")), Td(Text(strconv.Itoa(run.ObjectCount)))),
			Tr(Th(Text("Warnings")), Td(Text(strconv.Itoa(run.WarningCount)))),
			Tr(Th(Text("Truncated")), Td(Text(strconv.FormatBool(run.Truncated)))),
		),
	)}
	if run.ErrorMessage != nil {
		sections = append(sections, Div(Class("card"),
			Span(Class("label label-danger"), Text("error")),
			P(Text(*run.ErrorMessage)),
		))
	}

	if len(findings) == 0 {
		sections = append(sections,
			Div(Class("card"), P(Class("muted"), Text("No findings recorded for this run."))),
		)
		return sections
	}

	rows := make([]Node, 0, len(findings))
	for _, f := range findings {
		rows = append(rows, Tr(
			If(f.Inactive, Class("inactive-row")),
			data.Show(containsExpr(f.Name+" "+f.DN)),
			Td(depthIndent(f.Depth), Text(f.Name)),
			Td(kindLabel(f.Kind)),
			Td(Text(f.DN)),
			Td(Text(orDash(f.SourceGroup))),
			Td(If(f.Inactive, Span(Class("label label-attention"), Text("inactive")))),
		))
	}

	sections = append(sections, Div(Class("card"),
		data.Signals(map[string]any{"q": ""}),
		Input(Type("search"), Class("filter-input"), Placeholder("Filter by name or DN"), data.Bind("q"), AutoComplete("off")),
		Table(
			THead(Tr(
				Th(Text("Name")),
				Th(Text("Kind")),
				Th(Text("DN")),
				Th(Text("Source group")),
				Th(Text("")),
			)),
			TBody(Group(rows)),
		),
	))
	return sections
}

// --- helpers ---

func directionLabel(direction string) string {
	switch direction {
	case domain.DirectionAncestor:
		return "Memberships"
	case domain.DirectionDescendant:
		return "Members"
	default:
		return direction
	}
}

func statusLabel(run domain.AuditRun) Node {
	switch run.Status {
	case domain.RunStatusCompleted:
		return Span(Class("label label-success"), Text("completed"))
	case domain.RunStatusFailed:
		return Span(Class("label label-danger"), Text("failed"))
	default:
		return Span(Class("label"), Text(strings.ToLower(run.Status)))
	}
}

func kindLabel(kind domain.ObjectKind) Node {
	return Span(Class("label"), Text(string(kind)))
}

func depthIndent(depth int) Node {
	if depth <= 0 {
		return nil
	}
	return Span(
		Class("depth-pad"),
		StyleAttr(fmt.Sprintf("width: %dpx", depth*20)),
		Attr("aria-hidden", "true"),
	)
}

func containsExpr(value string) string {
	lower := strings.ToLower(value)
	return "$q === '' || " + strconv.Quote(lower) + ".includes($q.toLowerCase())"
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format(time.RFC3339)
}

func formatTimePtr(ts *time.Time) string {
	if ts == nil || ts.IsZero() {
		return "-"
	}
	return ts.Format(time.RFC3339)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
