package domain

import (
	"fmt"
	"strings"
)

// Status is the progress state of a work item.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusBlocked    Status = "blocked"
)

// IsValid checks if the status value is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusBlocked:
		return true
	}
	return false
}

// WorkItem is a unit of construction work that can be scheduled.
type WorkItem struct {
	ID           string `json:"id" yaml:"id"`
	Title        string `json:"title,omitempty" yaml:"title,omitempty"`
	DurationDays *int   `json:"durationDays,omitempty" yaml:"durationDays,omitempty"`
	StartDate    *Date  `json:"startDate,omitempty" yaml:"startDate,omitempty"`
	EndDate      *Date  `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	StartAfter   *Date  `json:"startAfter,omitempty" yaml:"startAfter,omitempty"`
	StartBefore  *Date  `json:"startBefore,omitempty" yaml:"startBefore,omitempty"`
	Status       Status `json:"status" yaml:"status"`

	// Dates saved by the last reschedule. The scheduler never treats them
	// as constraints; StartDate and EndDate are the user's own dates.
	ScheduledStart *Date `json:"-" yaml:"-"`
	ScheduledEnd   *Date `json:"-" yaml:"-"`
}

// Validate checks field values before a work item is stored.
func (w *WorkItem) Validate() error {
	if strings.TrimSpace(w.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if w.DurationDays != nil && *w.DurationDays < 0 {
		return fmt.Errorf("durationDays cannot be negative (got %d)", *w.DurationDays)
	}
	if w.Status != "" && !w.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", w.Status)
	}
	if w.StartDate != nil && w.EndDate != nil && w.EndDate.Before(*w.StartDate) {
		return fmt.Errorf("endDate %s is before startDate %s", w.EndDate, w.StartDate)
	}
	if w.StartAfter != nil && w.StartBefore != nil && w.StartBefore.Before(*w.StartAfter) {
		return fmt.Errorf("startBefore %s is before startAfter %s", w.StartBefore, w.StartAfter)
	}
	return nil
}

// CurrentDates returns the dates the item is currently shown with: the saved
// schedule when there is one, otherwise the user's dates.
func (w *WorkItem) CurrentDates() (start, end *Date) {
	if w.ScheduledStart != nil || w.ScheduledEnd != nil {
		return w.ScheduledStart, w.ScheduledEnd
	}
	return w.StartDate, w.EndDate
}

// DisplayName returns the title, or the id for untitled items.
func (w *WorkItem) DisplayName() string {
	if w.Title != "" {
		return w.Title
	}
	return w.ID
}

// DependencyType says which endpoint of the predecessor constrains which
// endpoint of the successor.
type DependencyType string

const (
	FinishToStart  DependencyType = "finish_to_start"
	StartToStart   DependencyType = "start_to_start"
	FinishToFinish DependencyType = "finish_to_finish"
	StartToFinish  DependencyType = "start_to_finish"
)

// DependencyTypes lists every dependency type.
var DependencyTypes = []DependencyType{FinishToStart, StartToStart, FinishToFinish, StartToFinish}

// IsValid checks if the dependency type value is valid
func (t DependencyType) IsValid() bool {
	switch t {
	case FinishToStart, StartToStart, FinishToFinish, StartToFinish:
		return true
	}
	return false
}

// Short returns the two-letter abbreviation (FS, SS, FF, SF).
func (t DependencyType) Short() string {
	switch t {
	case FinishToStart:
		return "FS"
	case StartToStart:
		return "SS"
	case FinishToFinish:
		return "FF"
	case StartToFinish:
		return "SF"
	}
	return string(t)
}

// ParseDependencyType accepts the full name or its abbreviation in any case.
// An empty string means finish_to_start.
func ParseDependencyType(s string) (DependencyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fs", string(FinishToStart):
		return FinishToStart, nil
	case "ss", string(StartToStart):
		return StartToStart, nil
	case "ff", string(FinishToFinish):
		return FinishToFinish, nil
	case "sf", string(StartToFinish):
		return StartToFinish, nil
	}
	return "", fmt.Errorf("invalid dependency type: %s", s)
}

// Dependency is a directed precedence edge between two work items.
// LeadLagDays is positive for lag and negative for lead.
type Dependency struct {
	PredecessorID  string         `json:"predecessorId" yaml:"predecessorId"`
	SuccessorID    string         `json:"successorId" yaml:"successorId"`
	DependencyType DependencyType `json:"dependencyType" yaml:"dependencyType"`
	LeadLagDays    int            `json:"leadLagDays" yaml:"leadLagDays"`
}

func (d Dependency) String() string {
	s := fmt.Sprintf("%s -[%s]-> %s", d.PredecessorID, d.DependencyType.Short(), d.SuccessorID)
	if d.LeadLagDays != 0 {
		s += fmt.Sprintf(" (%+dd)", d.LeadLagDays)
	}
	return s
}

// Milestone is a dated checkpoint. Contributors feed its completion;
// dependents may not start before it is reached.
type Milestone struct {
	ID           string   `json:"id" yaml:"id"`
	Title        string   `json:"title" yaml:"title"`
	TargetDate   Date     `json:"targetDate" yaml:"targetDate"`
	IsCompleted  bool     `json:"isCompleted" yaml:"isCompleted"`
	CompletedAt  *Date    `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
	Contributors []string `json:"contributingWorkItemIds,omitempty" yaml:"contributingWorkItemIds,omitempty"`
	Dependents   []string `json:"dependentWorkItemIds,omitempty" yaml:"dependentWorkItemIds,omitempty"`
}

// Validate checks field values before a milestone is stored.
func (m *Milestone) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if m.TargetDate.IsZero() {
		return fmt.Errorf("targetDate is required")
	}
	return nil
}

// Snapshot is a consistent read of everything the scheduler needs.
type Snapshot struct {
	WorkItems    []WorkItem   `json:"workItems" yaml:"workItems"`
	Dependencies []Dependency `json:"dependencies" yaml:"dependencies"`
	Milestones   []Milestone  `json:"milestones,omitempty" yaml:"milestones,omitempty"`
}

// Titles maps work item ids to display names.
func (s *Snapshot) Titles() map[string]string {
	titles := make(map[string]string, len(s.WorkItems))
	for i := range s.WorkItems {
		titles[s.WorkItems[i].ID] = s.WorkItems[i].DisplayName()
	}
	return titles
}
