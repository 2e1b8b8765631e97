package milestone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steilerDev/cornerstone-sub004/internal/cpm"
	"github.com/steilerDev/cornerstone-sub004/internal/domain"
)

func days(n int) *int { return &n }

func TestGates(t *testing.T) {
	done := domain.NewDate(2026, 3, 4)
	gates := Gates([]domain.Milestone{
		{ID: "m1", TargetDate: domain.NewDate(2026, 3, 10), Contributors: []string{"a"}, Dependents: []string{"b"}},
		{ID: "m2", TargetDate: domain.NewDate(2026, 3, 1), IsCompleted: true, CompletedAt: &done,
			Contributors: []string{"a"}, Dependents: []string{"c"}},
	})

	require.Len(t, gates, 2)
	assert.Equal(t, "milestone:m1", gates[0].ID)
	assert.Equal(t, domain.NewDate(2026, 3, 10), gates[0].Floor)
	assert.Equal(t, []string{"a"}, gates[0].Contributors)

	assert.Equal(t, done, gates[1].Floor, "completed milestone is pinned to completedAt")
	assert.Empty(t, gates[1].Contributors, "completed milestone no longer waits on contributors")
	assert.Equal(t, []string{"c"}, gates[1].Dependents)

	id, ok := MilestoneID(gates[1].ID)
	assert.True(t, ok)
	assert.Equal(t, "m2", id)
}

func TestSchedule_Projections(t *testing.T) {
	snap := &domain.Snapshot{
		WorkItems: []domain.WorkItem{
			{ID: "framing", DurationDays: days(12)},
			{ID: "paint", DurationDays: days(3)},
			{ID: "roof", DurationDays: days(2)},
		},
		Milestones: []domain.Milestone{
			// framing ends 03-12, after the 03-10 target
			{ID: "late", Title: "Framed", TargetDate: domain.NewDate(2026, 3, 10),
				Contributors: []string{"framing"}, Dependents: []string{"paint"}},
			// roof ends 03-02, well before target
			{ID: "ok", Title: "Dry", TargetDate: domain.NewDate(2026, 3, 20), Contributors: []string{"roof"}},
		},
	}

	r, projections := Schedule(snap, cpm.ModeFull, domain.NewDate(2026, 3, 1))
	require.Len(t, projections, 2)

	late := projections[0]
	assert.True(t, late.IsLate)
	assert.Equal(t, "2026-03-12", late.ProjectedDate.String())
	assert.Equal(t, "2026-03-12", late.EffectiveDate.String())

	ok := projections[1]
	assert.False(t, ok.IsLate)
	assert.Equal(t, "2026-03-20", ok.ProjectedDate.String())
	assert.Equal(t, "2026-03-20", ok.EffectiveDate.String())

	// dependents wait for the gate
	assert.Equal(t, "2026-03-12", r.Item("paint").ScheduledStartDate.String())
}

func TestProject_UnscheduledGate(t *testing.T) {
	ms := []domain.Milestone{{ID: "m", TargetDate: domain.NewDate(2026, 3, 10)}}
	p := Project(ms, &cpm.Result{})

	require.Len(t, p, 1)
	assert.Nil(t, p[0].ProjectedDate)
	assert.Equal(t, ms[0].TargetDate, p[0].EffectiveDate)
	assert.False(t, p[0].IsLate)
}
