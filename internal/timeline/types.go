package timeline

import (
	"github.com/steilerDev/cornerstone-sub004/internal/domain"
	"github.com/steilerDev/cornerstone-sub004/internal/milestone"
)

// Timeline is the assembled read model behind the Gantt view.
type Timeline struct {
	Today        domain.Date            `json:"today"`
	WorkItems    []Entry                `json:"workItems"`
	Dependencies []domain.Dependency    `json:"dependencies"`
	Milestones   []milestone.Projection `json:"milestones"`
	CriticalPath []string               `json:"criticalPath"`
	Warnings     []string               `json:"warnings"`
	CycleNodes   []string               `json:"cycleNodes"`
	DateRange    *DateRange             `json:"dateRange"` // nil when no item has a stored date
}

// Entry is a work item with its stored and computed dates.
type Entry struct {
	domain.WorkItem
	ScheduledStartDate *domain.Date `json:"scheduledStartDate"`
	ScheduledEndDate   *domain.Date `json:"scheduledEndDate"`
	TotalFloat         *int         `json:"totalFloat,omitempty"`
	IsCritical         bool         `json:"isCritical"`
}

// DateRange spans the stored dates of the project.
type DateRange struct {
	Earliest domain.Date `json:"earliest"`
	Latest   domain.Date `json:"latest"`
}
