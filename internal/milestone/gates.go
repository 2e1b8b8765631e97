// Package milestone folds milestones into the scheduler as gate nodes and
// manages the links between milestones and work items.
package milestone

import (
	"strings"

	"github.com/steilerDev/cornerstone-sub004/internal/cpm"
	"github.com/steilerDev/cornerstone-sub004/internal/domain"
)

const gatePrefix = "milestone:"

// GateID is the scheduler node id of a milestone.
func GateID(milestoneID string) string {
	return gatePrefix + milestoneID
}

// MilestoneID reverses GateID.
func MilestoneID(gateID string) (string, bool) {
	return strings.CutPrefix(gateID, gatePrefix)
}

// Gates converts milestones into scheduler gates. An open milestone's gate
// may not fall before its target date and waits for every contributor. A
// completed milestone is pinned to the day it was reached.
func Gates(milestones []domain.Milestone) []cpm.Gate {
	gates := make([]cpm.Gate, 0, len(milestones))
	for _, m := range milestones {
		g := cpm.Gate{
			ID:           GateID(m.ID),
			Name:         "milestone " + m.ID,
			Floor:        m.TargetDate,
			Contributors: m.Contributors,
			Dependents:   m.Dependents,
		}
		if m.IsCompleted {
			if m.CompletedAt != nil {
				g.Floor = *m.CompletedAt
			}
			g.Contributors = nil
		}
		gates = append(gates, g)
	}
	return gates
}

// Projection is a milestone as the schedule sees it.
type Projection struct {
	MilestoneID   string       `json:"milestoneId"`
	Title         string       `json:"title"`
	TargetDate    domain.Date  `json:"targetDate"`
	ProjectedDate *domain.Date `json:"projectedDate"` // nil when the gate was not scheduled
	EffectiveDate domain.Date  `json:"effectiveDate"`
	IsLate        bool         `json:"isLate"`
	IsCompleted   bool         `json:"isCompleted"`
	IsCritical    bool         `json:"isCritical"`
}

// Project reads each milestone's projected date off a schedule. The
// effective date is the projected date when it slips past the target,
// otherwise the target.
func Project(milestones []domain.Milestone, r *cpm.Result) []Projection {
	out := make([]Projection, 0, len(milestones))
	for _, m := range milestones {
		p := Projection{
			MilestoneID:   m.ID,
			Title:         m.Title,
			TargetDate:    m.TargetDate,
			EffectiveDate: m.TargetDate,
			IsCompleted:   m.IsCompleted,
		}
		if g := r.Gate(GateID(m.ID)); g != nil {
			projected := g.Date
			p.ProjectedDate = &projected
			p.IsCritical = g.IsCritical
			if projected.After(m.TargetDate) {
				p.IsLate = true
				p.EffectiveDate = projected
			}
		}
		out = append(out, p)
	}
	return out
}

// Schedule runs the scheduler over a snapshot with its milestones folded in.
func Schedule(snap *domain.Snapshot, mode cpm.Mode, today domain.Date) (*cpm.Result, []Projection) {
	r := cpm.Schedule(cpm.Input{
		WorkItems:    snap.WorkItems,
		Dependencies: snap.Dependencies,
		Gates:        Gates(snap.Milestones),
		Mode:         mode,
		Today:        today,
	})
	return r, Project(snap.Milestones, r)
}
