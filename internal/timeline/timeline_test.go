package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steilerDev/cornerstone-sub004/internal/cpm"
	"github.com/steilerDev/cornerstone-sub004/internal/domain"
)

func date(s string) *domain.Date {
	return domain.MustParseDate(s).Ptr()
}

func TestDateRangeOf(t *testing.T) {
	tests := []struct {
		name     string
		items    []domain.WorkItem
		earliest string
		latest   string
		none     bool
	}{
		{
			name: "both sides",
			items: []domain.WorkItem{
				{ID: "a", StartDate: date("2026-03-05"), EndDate: date("2026-03-09")},
				{ID: "b", StartDate: date("2026-03-01")},
				{ID: "c", EndDate: date("2026-04-02")},
			},
			earliest: "2026-03-01",
			latest:   "2026-04-02",
		},
		{
			name:     "only starts",
			items:    []domain.WorkItem{{ID: "a", StartDate: date("2026-03-05")}, {ID: "b", StartDate: date("2026-03-02")}},
			earliest: "2026-03-02",
			latest:   "2026-03-02",
		},
		{
			name:     "only ends",
			items:    []domain.WorkItem{{ID: "a", EndDate: date("2026-03-05")}, {ID: "b", EndDate: date("2026-03-08")}},
			earliest: "2026-03-08",
			latest:   "2026-03-08",
		},
		{
			name:  "no dates",
			items: []domain.WorkItem{{ID: "a"}},
			none:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DateRangeOf(tt.items)
			if tt.none {
				assert.Nil(t, r)
				return
			}
			require.NotNil(t, r)
			assert.Equal(t, tt.earliest, r.Earliest.String())
			assert.Equal(t, tt.latest, r.Latest.String())
		})
	}
}

func TestAssemble_CycleForcesEmptyCriticalPath(t *testing.T) {
	snap := &domain.Snapshot{WorkItems: []domain.WorkItem{{ID: "a"}, {ID: "b"}}}
	r := &cpm.Result{
		CriticalPath: []string{"a"},
		CycleNodes:   []string{"b"},
		Warnings:     []string{},
	}

	tl := Assemble(snap, r, nil, domain.NewDate(2026, 3, 1))

	assert.Empty(t, tl.CriticalPath)
	assert.NotNil(t, tl.CriticalPath)
	assert.Equal(t, []string{"b"}, tl.CycleNodes)
	require.Len(t, tl.WorkItems, 2)
	assert.Nil(t, tl.WorkItems[1].ScheduledStartDate)
}
