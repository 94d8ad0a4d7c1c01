package cli

import (
	"argspec/internal/core/ports"
	"argspec/internal/data/history"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	failureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// renderSummary prints one line per role followed by the run totals.
func renderSummary(res ports.GenerateResult) string {
	var b strings.Builder
	title := "argspec run " + shortID(res.RunID)
	if res.DryRun {
		title += " (dry run)"
	}
	b.WriteString(titleStyle.Render(title) + "\n")

	var elapsed time.Duration
	for _, outcome := range res.Roles {
		elapsed += outcome.Duration
		if outcome.Err != nil {
			fmt.Fprintf(&b, "  %s %-20s %s\n", failureStyle.Render("FAIL"), outcome.Role, outcome.Err)
			continue
		}
		a := outcome.Analysis
		d := a.Diagnostics
		line := fmt.Sprintf("entry_points=%d options=%d files=%d", len(a.EntryPoints), a.OptionCount(), d.FilesScanned)
		if d.FilesSkipped > 0 || d.MalformedExpressions > 0 {
			line += " " + warningStyle.Render(fmt.Sprintf("skipped=%d malformed=%d", d.FilesSkipped, d.MalformedExpressions))
		}
		fmt.Fprintf(&b, "  %s %-20s %s %s\n", successStyle.Render("ok  "), outcome.Role, line, statusStyle.Render(outcomeState(res, outcome)))
	}

	totals := fmt.Sprintf("%d roles processed, %d failed", res.RolesProcessed, res.RolesFailed)
	if res.RolesFailed > 0 {
		totals = failureStyle.Render(totals)
	} else {
		totals = successStyle.Render(totals)
	}
	fmt.Fprintf(&b, "%s %s\n", totals, statusStyle.Render(fmt.Sprintf("in %s", elapsed.Round(time.Millisecond))))
	for _, path := range res.Reports {
		fmt.Fprintf(&b, "  report: %s\n", path)
	}
	return b.String()
}

func outcomeState(res ports.GenerateResult, outcome ports.RoleOutcome) string {
	switch {
	case res.DryRun:
		return "not written"
	case res.Combined != "":
		return "combined"
	case outcome.Written:
		return "written"
	case outcome.Unchanged:
		return "unchanged"
	}
	return ""
}

func renderValidation(results []ports.ValidateResult) string {
	var b strings.Builder
	for _, res := range results {
		switch {
		case res.Err != nil:
			fmt.Fprintf(&b, "%s %s: %v\n", failureStyle.Render("FAIL"), res.Role, res.Err)
		case res.Missing:
			fmt.Fprintf(&b, "%s %s: no %s\n", warningStyle.Render("skip"), res.Role, res.Path)
		case len(res.Issues) == 0:
			fmt.Fprintf(&b, "%s %s\n", successStyle.Render("ok  "), res.Role)
		default:
			fmt.Fprintf(&b, "%s %s: %d issues\n", failureStyle.Render("FAIL"), res.Role, len(res.Issues))
			for _, issue := range res.Issues {
				fmt.Fprintf(&b, "    %s\n", issue.String())
			}
		}
	}
	return b.String()
}

func renderRuns(runs []history.Run) string {
	if len(runs) == 0 {
		return statusStyle.Render("History: no runs recorded.") + "\n"
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%-20s %-8s %-20s %-6s %7s %7s %7s", "TIME", "RUN", "ROLE", "STATUS", "ENTRY", "OPTIONS", "SKIPPED")) + "\n")
	for _, run := range runs {
		status := successStyle.Render(fmt.Sprintf("%-6s", run.Status))
		if run.Status != history.StatusOK {
			status = failureStyle.Render(fmt.Sprintf("%-6s", run.Status))
		}
		fmt.Fprintf(&b, "%-20s %-8s %-20s %s %7d %7d %7d\n",
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			shortID(run.RunID),
			run.Role,
			status,
			run.EntryPoints,
			run.Options,
			run.FilesSkipped,
		)
	}
	return b.String()
}

func renderTrend(role string, points []history.TrendPoint) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Trend: "+role) + "\n")
	if len(points) == 0 {
		b.WriteString(statusStyle.Render("  no runs recorded") + "\n")
		return b.String()
	}
	for _, p := range points {
		delta := "first run"
		if !p.First {
			delta = fmt.Sprintf("options %+d, entry points %+d", p.DeltaOptions, p.DeltaEntryPoints)
		}
		if p.Status != history.StatusOK {
			delta = failureStyle.Render("failed")
		}
		fmt.Fprintf(&b, "  %s options=%d entry_points=%d %s\n",
			p.Timestamp.Local().Format("2006-01-02 15:04:05"), p.Options, p.EntryPoints, statusStyle.Render(delta))
	}
	return b.String()
}
