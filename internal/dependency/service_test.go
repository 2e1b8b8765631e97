package dependency

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

func setupService(t *testing.T, ids ...string) (*Service, *store.Store, *countingRescheduler) {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.RunInTx(ctx, func(tx *store.Tx) error {
		for _, id := range ids {
			w := domain.WorkItem{ID: id, Title: "Title " + id}
			if err := tx.CreateWorkItem(ctx, &w); err != nil {
				return err
			}
		}
		return nil
	}))

	r := &countingRescheduler{}
	return NewService(st, r), st, r
}

func fs(from, to string) domain.Dependency {
	return domain.Dependency{PredecessorID: from, SuccessorID: to, DependencyType: domain.FinishToStart}
}

func storedDeps(t *testing.T, st *store.Store) []domain.Dependency {
	t.Helper()
	snap, err := st.Snapshot(context.Background())
	require.NoError(t, err)
	return snap.Dependencies
}

func TestCreate(t *testing.T) {
	svc, st, r := setupService(t, "a", "b")

	d, err := svc.Create(context.Background(), domain.Dependency{PredecessorID: "a", SuccessorID: "b", LeadLagDays: 2})
	require.NoError(t, err)
	assert.Equal(t, domain.FinishToStart, d.DependencyType, "type defaults to finish_to_start")
	assert.Equal(t, 1, r.calls)
	assert.Len(t, storedDeps(t, st), 1)
}

func TestCreate_RejectsCycle(t *testing.T) {
	svc, st, r := setupService(t, "a", "b")
	ctx := context.Background()

	_, err := svc.Create(ctx, fs("a", "b"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, fs("b", "a"))
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.CodeCircularDependency))

	details := appErrors.DetailsOf(err)
	assert.Equal(t, []string{"a", "b", "a"}, details["cycle"])
	assert.Equal(t, []string{"Title a", "Title b", "Title a"}, details["titles"])
	assert.Contains(t, err.Error(), "Title a → Title b → Title a")

	assert.Len(t, storedDeps(t, st), 1, "rejected edge must not be stored")
	assert.Equal(t, 1, r.calls, "rejections do not reschedule")
}

func TestCreate_RejectsLongCycle(t *testing.T) {
	svc, _, _ := setupService(t, "a", "b", "c")
	ctx := context.Background()

	for _, d := range []domain.Dependency{fs("a", "b"), fs("b", "c")} {
		_, err := svc.Create(ctx, d)
		require.NoError(t, err)
	}

	_, err := svc.Create(ctx, fs("c", "a"))
	assert.True(t, appErrors.IsCode(err, appErrors.CodeCircularDependency))
	assert.Equal(t, []string{"a", "b", "c", "a"}, appErrors.DetailsOf(err)["cycle"])
}

func TestCreate_RejectsCycleThroughMilestone(t *testing.T) {
	svc, st, _ := setupService(t, "a", "b")
	ctx := context.Background()

	// a contributes to the milestone and b waits for it, so b -> a loops
	require.NoError(t, st.RunInTx(ctx, func(tx *store.Tx) error {
		m := domain.Milestone{ID: "m", Title: "Dried in", TargetDate: domain.NewDate(2026, 4, 1)}
		if err := tx.CreateMilestone(ctx, &m); err != nil {
			return err
		}
		if err := tx.AddMilestoneLink(ctx, "m", "a", store.RoleContributor); err != nil {
			return err
		}
		return tx.AddMilestoneLink(ctx, "m", "b", store.RoleDependent)
	}))

	_, err := svc.Create(ctx, fs("b", "a"))
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.CodeCircularDependency))
	assert.Equal(t, []string{"a", "milestone:m", "b", "a"}, appErrors.DetailsOf(err)["cycle"])
	assert.Equal(t, []string{"Title a", "milestone Dried in", "Title b", "Title a"}, appErrors.DetailsOf(err)["titles"])
	assert.Empty(t, storedDeps(t, st))

	_, err = svc.Create(ctx, fs("a", "b"))
	assert.NoError(t, err, "the same direction as the milestone is fine")
}

func TestCreate_RejectsSelfReference(t *testing.T) {
	svc, st, _ := setupService(t, "a")

	_, err := svc.Create(context.Background(), fs("a", "a"))
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.CodeValidation))
	assert.Equal(t, []string{"a", "a"}, appErrors.DetailsOf(err)["cycle"])
	assert.Empty(t, storedDeps(t, st))
}

func TestCreate_DuplicateIsNotACycle(t *testing.T) {
	svc, st, _ := setupService(t, "a", "b")
	ctx := context.Background()

	_, err := svc.Create(ctx, fs("a", "b"))
	require.NoError(t, err)

	dup := fs("a", "b")
	dup.DependencyType = domain.StartToStart
	_, err = svc.Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.CodeDuplicateDependency))
	assert.False(t, appErrors.IsCode(err, appErrors.CodeCircularDependency))

	deps := storedDeps(t, st)
	require.Len(t, deps, 1)
	assert.Equal(t, domain.FinishToStart, deps[0].DependencyType, "original edge unchanged")
}

func TestCreate_Validation(t *testing.T) {
	svc, _, _ := setupService(t, "a", "b")
	ctx := context.Background()

	_, err := svc.Create(ctx, fs("a", "ghost"))
	assert.True(t, appErrors.IsCode(err, appErrors.CodeNotFound))

	bad := fs("a", "b")
	bad.DependencyType = "blocks"
	_, err = svc.Create(ctx, bad)
	assert.True(t, appErrors.IsCode(err, appErrors.CodeValidation))
}

func TestUpdateAndDelete(t *testing.T) {
	svc, st, r := setupService(t, "a", "b")
	ctx := context.Background()

	_, err := svc.Create(ctx, fs("a", "b"))
	require.NoError(t, err)

	ff := domain.FinishToFinish
	lead := -3
	d, err := svc.Update(ctx, "a", "b", &ff, &lead)
	require.NoError(t, err)
	assert.Equal(t, domain.FinishToFinish, d.DependencyType)
	assert.Equal(t, -3, d.LeadLagDays)

	// lag only; type kept
	lag := 1
	d, err = svc.Update(ctx, "a", "b", nil, &lag)
	require.NoError(t, err)
	assert.Equal(t, domain.FinishToFinish, d.DependencyType)
	assert.Equal(t, 1, d.LeadLagDays)

	_, err = svc.Update(ctx, "b", "a", &ff, nil)
	assert.True(t, appErrors.IsCode(err, appErrors.CodeNotFound))

	require.NoError(t, svc.Delete(ctx, "a", "b"))
	assert.Empty(t, storedDeps(t, st))
	assert.True(t, appErrors.IsCode(svc.Delete(ctx, "a", "b"), appErrors.CodeNotFound))
	assert.Equal(t, 4, r.calls)
}

func TestApplyBatch(t *testing.T) {
	svc, st, r := setupService(t, "a", "b", "c")

	res, err := svc.ApplyBatch(context.Background(), []domain.Dependency{
		fs("a", "b"),
		fs("b", "c"),
		fs("c", "a"), // closes a cycle with the two above
		fs("a", "b"), // duplicate
	})
	require.NoError(t, err)

	assert.Len(t, res.Created, 2)
	require.Len(t, res.Rejected, 2)
	assert.True(t, appErrors.IsCode(res.Rejected[0].Err, appErrors.CodeCircularDependency))
	assert.True(t, appErrors.IsCode(res.Rejected[1].Err, appErrors.CodeDuplicateDependency))
	assert.Len(t, storedDeps(t, st), 2)
	assert.Equal(t, 1, r.calls, "one reschedule per batch")
}
