package milestone

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steilerDev/cornerstone-sub004/internal/domain"
	appErrors "github.com/steilerDev/cornerstone-sub004/internal/errors"
	"github.com/steilerDev/cornerstone-sub004/internal/store"
)

type countingRescheduler struct{ calls int }

func (c *countingRescheduler) Reschedule(context.Context) (int, error) {
	c.calls++
	return 0, nil
}

func setupService(t *testing.T) (*Service, *store.Store, *countingRescheduler) {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.RunInTx(ctx, func(tx *store.Tx) error {
		for _, id := range []string{"a", "b"} {
			w := domain.WorkItem{ID: id, Title: "Item " + id}
			if err := tx.CreateWorkItem(ctx, &w); err != nil {
				return err
			}
		}
		return tx.CreateMilestone(ctx, &domain.Milestone{ID: "m", Title: "Handover", TargetDate: domain.NewDate(2026, 6, 1)})
	}))

	r := &countingRescheduler{}
	return NewService(st, r), st, r
}

func TestLinkContributor(t *testing.T) {
	svc, _, r := setupService(t)
	ctx := context.Background()

	require.NoError(t, svc.LinkContributor(ctx, "m", "a"))
	assert.Equal(t, 1, r.calls, "a successful link reschedules")

	m, err := svc.Get(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, m.Contributors)

	err = svc.LinkContributor(ctx, "m", "a")
	assert.True(t, appErrors.IsCode(err, appErrors.CodeDuplicateLink))
	assert.Equal(t, 1, r.calls, "a rejected link does not reschedule")
}

func TestLink_NotFound(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	assert.True(t, appErrors.IsCode(svc.LinkContributor(ctx, "ghost", "a"), appErrors.CodeNotFound))
	assert.True(t, appErrors.IsCode(svc.AddDependent(ctx, "m", "ghost"), appErrors.CodeNotFound))
	assert.True(t, appErrors.IsCode(svc.RemoveDependent(ctx, "m", "a"), appErrors.CodeNotFound))
}

func TestContributorDependentConflict(t *testing.T) {
	tests := []struct {
		name   string
		first  func(*Service, context.Context) error
		second func(*Service, context.Context) error
	}{
		{
			name:   "dependent after contributor",
			first:  func(s *Service, ctx context.Context) error { return s.LinkContributor(ctx, "m", "a") },
			second: func(s *Service, ctx context.Context) error { return s.AddDependent(ctx, "m", "a") },
		},
		{
			name:   "contributor after dependent",
			first:  func(s *Service, ctx context.Context) error { return s.AddDependent(ctx, "m", "a") },
			second: func(s *Service, ctx context.Context) error { return s.LinkContributor(ctx, "m", "a") },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, st, _ := setupService(t)
			ctx := context.Background()

			require.NoError(t, tt.first(svc, ctx))
			err := tt.second(svc, ctx)
			assert.True(t, appErrors.IsCode(err, appErrors.CodeContributorDependentConflict), "got %v", err)

			snap, err := st.Snapshot(ctx)
			require.NoError(t, err)
			m := snap.Milestones[0]
			assert.Equal(t, 1, len(m.Contributors)+len(m.Dependents), "rejected link must not be stored")
		})
	}
}

func TestUnlink(t *testing.T) {
	svc, _, r := setupService(t)
	ctx := context.Background()

	require.NoError(t, svc.AddDependent(ctx, "m", "b"))
	require.NoError(t, svc.RemoveDependent(ctx, "m", "b"))
	assert.Equal(t, 2, r.calls)

	m, err := svc.Get(ctx, "m")
	require.NoError(t, err)
	assert.Empty(t, m.Dependents)

	// the link is gone; removing it again is NOT_FOUND
	assert.True(t, appErrors.IsCode(svc.RemoveDependent(ctx, "m", "b"), appErrors.CodeNotFound))
	// b was never a contributor
	assert.True(t, appErrors.IsCode(svc.UnlinkContributor(ctx, "m", "b"), appErrors.CodeNotFound))
}

func TestCreateAndComplete(t *testing.T) {
	svc, _, r := setupService(t)
	ctx := context.Background()

	m := &domain.Milestone{Title: "Inspection", TargetDate: domain.NewDate(2026, 4, 1), Contributors: []string{"a"}, Dependents: []string{"b"}}
	require.NoError(t, svc.Create(ctx, m))
	assert.NotEmpty(t, m.ID)

	require.NoError(t, svc.Complete(ctx, m.ID, domain.NewDate(2026, 3, 30)))
	assert.Equal(t, 2, r.calls)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[1].IsCompleted)
	assert.Equal(t, []string{"a"}, all[1].Contributors)

	bad := &domain.Milestone{Title: "Bad", TargetDate: domain.NewDate(2026, 4, 1), Contributors: []string{"a"}, Dependents: []string{"a"}}
	err = svc.Create(ctx, bad)
	assert.True(t, appErrors.IsCode(err, appErrors.CodeContributorDependentConflict))
}
