package cpm

import "github.com/steilerDev/cornerstone-sub004/internal/domain"

// Mode selects how much of the analysis Schedule performs.
type Mode string

const (
	// ModeFull schedules every item and runs the backward pass.
	ModeFull Mode = "full"
	// ModePreview runs the forward pass only and reports items whose
	// current dates would move.
	ModePreview Mode = "preview"
)

// IsValid checks if the mode value is valid
func (m Mode) IsValid() bool {
	return m == ModeFull || m == ModePreview
}

// Gate is a zero-duration node that is not a work item, used to fold
// milestones into the graph. Contributors must finish on or before the
// gate; dependents may not start before it.
type Gate struct {
	ID           string // must not collide with a work item id
	Name         string // shown in warnings; defaults to ID
	Floor        domain.Date
	Contributors []string
	Dependents   []string
}

// Input is one scheduling call. Today must be set: it is the start date of
// every item nothing else constrains.
type Input struct {
	WorkItems    []domain.WorkItem
	Dependencies []domain.Dependency
	Gates        []Gate
	Mode         Mode
	Today        domain.Date
}

// ScheduledItem holds the computed dates for a single work item.
type ScheduledItem struct {
	WorkItemID         string       `json:"workItemId"`
	PreviousStartDate  *domain.Date `json:"previousStartDate"`
	PreviousEndDate    *domain.Date `json:"previousEndDate"`
	ScheduledStartDate domain.Date  `json:"scheduledStartDate"`
	ScheduledEndDate   domain.Date  `json:"scheduledEndDate"`
	TotalFloat         *int         `json:"totalFloat,omitempty"` // full mode only
	IsCritical         bool         `json:"isCritical"`
}

// Moved reports whether the computed dates differ from the item's current
// ones (its saved schedule, else its own dates). Items with neither never
// count as moved.
func (s *ScheduledItem) Moved() bool {
	if s.PreviousStartDate != nil && !s.PreviousStartDate.Equal(s.ScheduledStartDate) {
		return true
	}
	return s.PreviousEndDate != nil && !s.PreviousEndDate.Equal(s.ScheduledEndDate)
}

// ScheduledGate is the projected date of a gate.
type ScheduledGate struct {
	ID         string      `json:"id"`
	Date       domain.Date `json:"projectedDate"`
	IsCritical bool        `json:"isCritical"`
}

// Result holds the complete critical path analysis.
// A non-empty CycleNodes means the schedule is partial and CriticalPath is empty.
type Result struct {
	ScheduledItems []ScheduledItem `json:"scheduledItems"`
	CriticalPath   []string        `json:"criticalPath"` // ordered work item ids
	Warnings       []string        `json:"warnings"`
	CycleNodes     []string        `json:"cycleNodes"`
	Gates          []ScheduledGate `json:"gates,omitempty"`
}

// Item returns the scheduled entry for a work item, or nil.
// Callers looking up many items should use Items.
func (r *Result) Item(id string) *ScheduledItem {
	for i := range r.ScheduledItems {
		if r.ScheduledItems[i].WorkItemID == id {
			return &r.ScheduledItems[i]
		}
	}
	return nil
}

// Items indexes the scheduled entries by work item id.
func (r *Result) Items() map[string]*ScheduledItem {
	byID := make(map[string]*ScheduledItem, len(r.ScheduledItems))
	for i := range r.ScheduledItems {
		byID[r.ScheduledItems[i].WorkItemID] = &r.ScheduledItems[i]
	}
	return byID
}

// Gate returns the scheduled entry for a gate, or nil.
func (r *Result) Gate(id string) *ScheduledGate {
	for i := range r.Gates {
		if r.Gates[i].ID == id {
			return &r.Gates[i]
		}
	}
	return nil
}
