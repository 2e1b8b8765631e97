package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/steilerDev/cornerstone-sub004/internal/domain"
)

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	Magenta     = color.New(color.FgMagenta).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen   = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
	BoldWhite   = color.New(color.Bold, color.FgWhite).SprintFunc()
)

// PrintBanner renders the cornerstone banner.
func PrintBanner(w io.Writer) {
	frame := color.New(color.FgCyan)
	stone := color.New(color.FgYellow)
	brand := color.New(color.Bold, color.FgMagenta)

	fmt.Fprintln(w)
	frame.Fprintln(w, "   +----------------------------+")
	stone.Fprintln(w, "   |  [##][##][##][##][##][##]  |")
	stone.Fprintln(w, "   |[##][##][##][##][##][##][##]|")
	brand.Fprintln(w, "   |   C O R N E R S T O N E    |")
	frame.Fprintln(w, "   +----------------------------+")
	fmt.Fprintf(w, "   %s\n", Dim("Construction schedule planning"))
	fmt.Fprintln(w)
}

// idColors is a palette of distinct bold colors for telling ids apart.
var idColors = []func(a ...interface{}) string{
	BoldMagenta,
	BoldCyan,
	BoldYellow,
	BoldGreen,
	color.New(color.Bold, color.FgHiBlue).SprintFunc(),
	color.New(color.Bold, color.FgHiRed).SprintFunc(),
}

// idColorIndex hashes an id to a palette index.
func idColorIndex(id string) int {
	var h uint32
	for _, c := range id {
		h = h*31 + uint32(c)
	}
	return int(h % uint32(len(idColors)))
}

// ItemID returns the id colored by a stable hash, so the same work item
// looks the same across sections of a report.
func ItemID(id string) string {
	return idColors[idColorIndex(id)](id)
}

// StatusIcon returns a colored icon for a work item status.
func StatusIcon(status domain.Status) string {
	switch status {
	case domain.StatusCompleted:
		return Green("✓")
	case domain.StatusInProgress:
		return Cyan("●")
	case domain.StatusBlocked:
		return Red("✗")
	default:
		return Dim("◌")
	}
}

// CriticalMarker returns the critical path marker, or a blank of the same width.
func CriticalMarker(critical bool) string {
	if critical {
		return BoldYellow("⚡")
	}
	return " "
}

// Float renders total float in days. Negative float means a gate or
// deadline is already missed.
func Float(f *int) string {
	switch {
	case f == nil:
		return Dim("-")
	case *f < 0:
		return BoldRed(fmt.Sprintf("%dd", *f))
	case *f == 0:
		return BoldYellow("0d")
	default:
		return Green(fmt.Sprintf("+%dd", *f))
	}
}

// MilestoneState returns a colored milestone state word.
func MilestoneState(completed, late bool) string {
	switch {
	case completed:
		return Green("reached")
	case late:
		return BoldRed("late")
	default:
		return Cyan("on track")
	}
}
