// Package reporter renders schedules and timelines for the terminal.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/steilerDev/cornerstone-sub004/internal/cpm"
	"github.com/steilerDev/cornerstone-sub004/internal/domain"
	"github.com/steilerDev/cornerstone-sub004/internal/graph"
	"github.com/steilerDev/cornerstone-sub004/internal/milestone"
	"github.com/steilerDev/cornerstone-sub004/internal/timeline"
	"github.com/steilerDev/cornerstone-sub004/internal/ui"
)

// Reporter provides display for an assembled timeline.
type Reporter struct {
	Timeline *timeline.Timeline
}

// New creates a new Reporter.
func New(tl *timeline.Timeline) *Reporter {
	return &Reporter{Timeline: tl}
}

// PrintTimeline writes a terminal-friendly timeline table.
func (r *Reporter) PrintTimeline(w io.Writer) {
	tl := r.Timeline

	completed := 0
	critical := 0
	for _, e := range tl.WorkItems {
		if e.Status == domain.StatusCompleted {
			completed++
		}
		if e.IsCritical {
			critical++
		}
	}

	fmt.Fprintf(w, "%s %s %d of %d work items complete, %d critical",
		ui.BoldCyan("🏗  Cornerstone"),
		ui.Dim("—"),
		completed, len(tl.WorkItems), critical)
	if tl.DateRange != nil {
		fmt.Fprintf(w, " %s", ui.Dim(fmt.Sprintf("[%s … %s]", tl.DateRange.Earliest, tl.DateRange.Latest)))
	}
	fmt.Fprintf(w, " %s\n\n", ui.Dim("today "+tl.Today.String()))

	fmt.Fprintf(w, "  📋 %s\n", ui.BoldWhite("WORK ITEMS"))
	for i := range tl.WorkItems {
		printEntry(w, &tl.WorkItems[i])
	}
	fmt.Fprintln(w)

	if len(tl.Milestones) > 0 {
		fmt.Fprintf(w, "  🚩 %s\n", ui.BoldWhite("MILESTONES"))
		for _, m := range tl.Milestones {
			printMilestone(w, m)
		}
		fmt.Fprintln(w)
	}

	if len(tl.CriticalPath) > 0 {
		fmt.Fprintf(w, "Critical:  %s\n", ui.BoldYellow("⚡ "+strings.Join(tl.CriticalPath, " → ")))
	}
	if finish := r.Finish(); finish != nil {
		fmt.Fprintf(w, "Finish:    %s\n", ui.Bold(finish.String()))
	}
	if len(tl.CycleNodes) > 0 {
		fmt.Fprintf(w, "Cycle:     %s\n", ui.BoldRed(strings.Join(tl.CycleNodes, ", ")))
	}
	printWarnings(w, tl.Warnings)
}

func printEntry(w io.Writer, e *timeline.Entry) {
	title := truncate(e.DisplayName(), 40)

	dates := ui.Dim("unscheduled")
	if e.ScheduledStartDate != nil && e.ScheduledEndDate != nil {
		dates = fmt.Sprintf("%s → %s", e.ScheduledStartDate, e.ScheduledEndDate)
	}

	stored := ""
	if moved(e) {
		stored = ui.Dim(fmt.Sprintf("(stored %s → %s)", dateOrDash(e.StartDate), dateOrDash(e.EndDate)))
	}

	fmt.Fprintf(w, "    %s %s %-12s %-40s %s  %s %s\n",
		ui.StatusIcon(e.Status), ui.CriticalMarker(e.IsCritical), ui.ItemID(e.ID), title,
		dates, ui.Float(e.TotalFloat), stored)
}

func printMilestone(w io.Writer, m milestone.Projection) {
	projected := ui.Dim("not scheduled")
	if m.ProjectedDate != nil {
		projected = "projected " + m.ProjectedDate.String()
	}
	fmt.Fprintf(w, "    %s %-40s target %s  %s  %s\n",
		ui.CriticalMarker(m.IsCritical), truncate(m.Title, 40), m.TargetDate,
		projected, ui.MilestoneState(m.IsCompleted, m.IsLate))
}

func printWarnings(w io.Writer, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", ui.BoldYellow("Warnings:"))
	for _, msg := range warnings {
		fmt.Fprintf(w, "  %s %s\n", ui.Yellow("!"), msg)
	}
}

// Finish returns the latest scheduled end date, or nil when nothing was
// scheduled.
func (r *Reporter) Finish() *domain.Date {
	var finish *domain.Date
	for i := range r.Timeline.WorkItems {
		end := r.Timeline.WorkItems[i].ScheduledEndDate
		if end != nil && (finish == nil || end.After(*finish)) {
			finish = end
		}
	}
	return finish
}

// Summary returns a one-paragraph summary of the timeline.
func (r *Reporter) Summary() string {
	var b strings.Builder
	tl := r.Timeline

	fmt.Fprintf(&b, "%d work items, %d dependencies, %d milestones.", len(tl.WorkItems), len(tl.Dependencies), len(tl.Milestones))
	if finish := r.Finish(); finish != nil {
		fmt.Fprintf(&b, " Projected finish %s.", finish)
	}
	if len(tl.CycleNodes) > 0 {
		fmt.Fprintf(&b, " Dependency cycle through %s; critical path unavailable.", strings.Join(tl.CycleNodes, ", "))
	} else if len(tl.CriticalPath) > 0 {
		fmt.Fprintf(&b, " Critical path: %s.", strings.Join(tl.CriticalPath, " → "))
	}

	var late []string
	for _, m := range tl.Milestones {
		if m.IsLate && !m.IsCompleted {
			late = append(late, fmt.Sprintf("%s (%s, target %s)", m.Title, m.EffectiveDate, m.TargetDate))
		}
	}
	if len(late) > 0 {
		fmt.Fprintf(&b, " Late milestones: %s.", strings.Join(late, "; "))
	}
	return b.String()
}

// JSON returns the timeline as indented JSON.
func (r *Reporter) JSON() ([]byte, error) {
	return json.MarshalIndent(r.Timeline, "", "  ")
}

// PrintSchedule writes the result of a standalone scheduling call. In
// preview mode only the items that would move are listed.
func PrintSchedule(w io.Writer, res *cpm.Result, items []domain.WorkItem, mode cpm.Mode) {
	titles := make(map[string]string, len(items))
	for i := range items {
		titles[items[i].ID] = items[i].DisplayName()
	}

	header := "Schedule"
	if mode == cpm.ModePreview {
		header = "Preview"
	}
	fmt.Fprintf(w, "%s %s %d items\n\n", ui.BoldCyan("🗓  "+header), ui.Dim("—"), len(res.ScheduledItems))

	if mode == cpm.ModePreview && len(res.ScheduledItems) == 0 {
		fmt.Fprintf(w, "  %s\n", ui.Green("No stored dates would change."))
	}
	for _, si := range res.ScheduledItems {
		was := ""
		if si.Moved() {
			was = ui.Dim(fmt.Sprintf("was %s → %s", dateOrDash(si.PreviousStartDate), dateOrDash(si.PreviousEndDate)))
		}
		fmt.Fprintf(w, "    %s %-12s %-40s %s → %s  %s %s\n",
			ui.CriticalMarker(si.IsCritical), ui.ItemID(si.WorkItemID), truncate(titles[si.WorkItemID], 40),
			si.ScheduledStartDate, si.ScheduledEndDate, ui.Float(si.TotalFloat), was)
	}

	if len(res.Gates) > 0 {
		fmt.Fprintln(w)
		for _, g := range res.Gates {
			fmt.Fprintf(w, "    %s %-53s %s\n", ui.CriticalMarker(g.IsCritical), g.ID, g.Date)
		}
	}

	if len(res.CriticalPath) > 0 {
		fmt.Fprintf(w, "\nCritical:  %s\n", ui.BoldYellow("⚡ "+strings.Join(res.CriticalPath, " → ")))
	}
	if len(res.CycleNodes) > 0 {
		fmt.Fprintf(w, "\nCycle:     %s\n", ui.BoldRed(strings.Join(res.CycleNodes, ", ")))
	}
	printWarnings(w, res.Warnings)
}

// PrintDOT writes the dependency graph in Graphviz format, highlighting
// critical items and the edges between them.
func PrintDOT(w io.Writer, g *graph.Graph, res *cpm.Result, titles map[string]string, criticalOnly bool) {
	scheduled := res.Items()
	isCritical := func(id string) bool {
		si := scheduled[id]
		return si != nil && si.IsCritical
	}
	if criticalOnly {
		g = g.Filter(isCritical)
	}

	fmt.Fprintln(w, "digraph cornerstone {")
	fmt.Fprintln(w, "  rankdir=LR;")
	fmt.Fprintln(w, "  node [shape=box, style=rounded];")
	fmt.Fprintln(w)

	for _, id := range g.Order {
		label := id
		if title := titles[id]; title != "" && title != id {
			label += `\n` + escapeDOT(title)
		}
		if si := scheduled[id]; si != nil {
			label += fmt.Sprintf(`\n%s..%s`, si.ScheduledStartDate, si.ScheduledEndDate)
		}
		attrs := fmt.Sprintf(`label="%s"`, label)
		if isCritical(id) {
			attrs += `, style="rounded,bold", color=red`
		}
		fmt.Fprintf(w, "  %q [%s];\n", id, attrs)
	}

	fmt.Fprintln(w)

	for _, id := range g.Order {
		for _, e := range g.Adj[id] {
			attrs := []string{}
			if label := edgeLabel(e); label != "" {
				attrs = append(attrs, fmt.Sprintf("label=%q", label))
			}
			if isCritical(e.From) && isCritical(e.To) {
				attrs = append(attrs, "color=red", "penwidth=2")
			}
			style := ""
			if len(attrs) > 0 {
				style = " [" + strings.Join(attrs, ", ") + "]"
			}
			fmt.Fprintf(w, "  %q -> %q%s;\n", e.From, e.To, style)
		}
	}

	fmt.Fprintln(w, "}")
}

// edgeLabel is empty for the common FS edge without lag.
func edgeLabel(e graph.Edge) string {
	typ := e.Type
	if typ == "" {
		typ = domain.FinishToStart
	}
	if typ == domain.FinishToStart && e.Lag == 0 {
		return ""
	}
	if e.Lag == 0 {
		return typ.Short()
	}
	return fmt.Sprintf("%s%+d", typ.Short(), e.Lag)
}

func moved(e *timeline.Entry) bool {
	if e.ScheduledStartDate == nil {
		return false
	}
	if e.StartDate != nil && !e.StartDate.Equal(*e.ScheduledStartDate) {
		return true
	}
	return e.EndDate != nil && e.ScheduledEndDate != nil && !e.EndDate.Equal(*e.ScheduledEndDate)
}

func dateOrDash(d *domain.Date) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func escapeDOT(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
