package timeline

import (
	"github.com/steilerDev/cornerstone-sub004/internal/cpm"
	"github.com/steilerDev/cornerstone-sub004/internal/domain"
	"github.com/steilerDev/cornerstone-sub004/internal/milestone"
)

// Assemble merges a snapshot with its full-mode schedule. A non-empty
// CycleNodes always comes with an empty CriticalPath.
func Assemble(snap *domain.Snapshot, r *cpm.Result, projections []milestone.Projection, today domain.Date) *Timeline {
	tl := &Timeline{
		Today:        today,
		WorkItems:    make([]Entry, 0, len(snap.WorkItems)),
		Dependencies: snap.Dependencies,
		Milestones:   projections,
		CriticalPath: r.CriticalPath,
		Warnings:     r.Warnings,
		CycleNodes:   r.CycleNodes,
		DateRange:    DateRangeOf(snap.WorkItems),
	}
	if tl.Dependencies == nil {
		tl.Dependencies = []domain.Dependency{}
	}
	if len(tl.CycleNodes) > 0 || tl.CriticalPath == nil {
		tl.CriticalPath = []string{}
	}

	scheduled := r.Items()
	for _, w := range snap.WorkItems {
		e := Entry{WorkItem: w}
		if si := scheduled[w.ID]; si != nil {
			start, end := si.ScheduledStartDate, si.ScheduledEndDate
			e.ScheduledStartDate = &start
			e.ScheduledEndDate = &end
			e.TotalFloat = si.TotalFloat
			e.IsCritical = si.IsCritical
		}
		tl.WorkItems = append(tl.WorkItems, e)
	}
	return tl
}

// DateRangeOf spans the stored dates: earliest start to latest end. When
// only starts or only ends exist, both bounds take that side's value; with
// no stored dates there is no range.
func DateRangeOf(items []domain.WorkItem) *DateRange {
	var earliest, latest *domain.Date
	for i := range items {
		if s := items[i].StartDate; s != nil && (earliest == nil || s.Before(*earliest)) {
			earliest = s
		}
		if e := items[i].EndDate; e != nil && (latest == nil || e.After(*latest)) {
			latest = e
		}
	}

	switch {
	case earliest != nil && latest != nil:
		return &DateRange{Earliest: *earliest, Latest: *latest}
	case earliest != nil:
		return &DateRange{Earliest: *earliest, Latest: *earliest}
	case latest != nil:
		return &DateRange{Earliest: *latest, Latest: *latest}
	}
	return nil
}
