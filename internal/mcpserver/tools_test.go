package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steilerDev/cornerstone-sub004/internal/dependency"
	"github.com/steilerDev/cornerstone-sub004/internal/domain"
	"github.com/steilerDev/cornerstone-sub004/internal/milestone"
	"github.com/steilerDev/cornerstone-sub004/internal/store"
	"github.com/steilerDev/cornerstone-sub004/internal/timeline"
)

func intPtr(n int) *int { return &n }

var fixedNow = func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC) }

func setupTools(t *testing.T) (*Tools, *store.Store) {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.Import(ctx, &domain.Snapshot{
		WorkItems: []domain.WorkItem{
			{ID: "F", Title: "Foundation", DurationDays: intPtr(10), StartDate: domain.NewDate(2026, 3, 1).Ptr()},
			{ID: "R", Title: "Roof", DurationDays: intPtr(5)},
			{ID: "P", Title: "Paint", DurationDays: intPtr(3)},
		},
		Dependencies: []domain.Dependency{
			{PredecessorID: "F", SuccessorID: "R", DependencyType: domain.FinishToStart},
		},
		Milestones: []domain.Milestone{
			{ID: "m1", Title: "Dried in", TargetDate: domain.NewDate(2026, 3, 20)},
		},
	}))

	tl := timeline.NewService(st, timeline.WithClock(fixedNow))
	return &Tools{
		Timeline:     tl,
		Dependencies: dependency.NewService(st, tl),
		Milestones:   milestone.NewService(st, tl),
	}, st
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

func TestGetTimeline(t *testing.T) {
	tools, _ := setupTools(t)

	res, _, err := tools.GetTimeline(context.Background(), nil, struct{}{})
	require.NoError(t, err)
	require.False(t, res.IsError)

	var tl struct {
		CriticalPath []string `json:"criticalPath"`
		WorkItems    []struct {
			ID                 string `json:"id"`
			ScheduledStartDate string `json:"scheduledStartDate"`
		} `json:"workItems"`
	}
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &tl))
	assert.Equal(t, []string{"F", "R"}, tl.CriticalPath)
	require.Len(t, tl.WorkItems, 3)
	assert.Equal(t, "2026-03-11", tl.WorkItems[1].ScheduledStartDate)
}

func TestAddDependency_Cycle(t *testing.T) {
	tools, st := setupTools(t)
	ctx := context.Background()

	res, _, err := tools.AddDependency(ctx, nil, AddDependencyInput{PredecessorID: "R", SuccessorID: "F"})
	require.NoError(t, err)
	require.True(t, res.IsError)

	var failure struct {
		Code    string `json:"code"`
		Details struct {
			Cycle []string `json:"cycle"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &failure))
	assert.Equal(t, "CIRCULAR_DEPENDENCY", failure.Code)
	assert.Contains(t, failure.Details.Cycle, "F")
	assert.Contains(t, failure.Details.Cycle, "R")

	snap, err := st.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Dependencies, 1, "a rejected dependency is not stored")
}

func TestDependencyLifecycle(t *testing.T) {
	tools, st := setupTools(t)
	ctx := context.Background()

	res, _, err := tools.AddDependency(ctx, nil, AddDependencyInput{PredecessorID: "R", SuccessorID: "P", DependencyType: "ss", LeadLagDays: 2})
	require.NoError(t, err)
	require.False(t, res.IsError, textOf(t, res))

	res, _, err = tools.AddDependency(ctx, nil, AddDependencyInput{PredecessorID: "R", SuccessorID: "P"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), "DUPLICATE_DEPENDENCY")

	res, _, err = tools.UpdateDependency(ctx, nil, UpdateDependencyInput{PredecessorID: "R", SuccessorID: "P", LeadLagDays: intPtr(-1)})
	require.NoError(t, err)
	require.False(t, res.IsError, textOf(t, res))

	d, err := readDependency(ctx, st, "R", "P")
	require.NoError(t, err)
	assert.Equal(t, domain.StartToStart, d.DependencyType)
	assert.Equal(t, -1, d.LeadLagDays)

	res, _, err = tools.RemoveDependency(ctx, nil, RemoveDependencyInput{PredecessorID: "R", SuccessorID: "P"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "Removed dependency R -> P", textOf(t, res))

	res, _, err = tools.RemoveDependency(ctx, nil, RemoveDependencyInput{PredecessorID: "R", SuccessorID: "P"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), "NOT_FOUND")
}

func TestAddDependency_MissingFields(t *testing.T) {
	tools, _ := setupTools(t)
	res, _, err := tools.AddDependency(context.Background(), nil, AddDependencyInput{PredecessorID: "F"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "predecessorId and successorId are required", textOf(t, res))
}

func TestMilestoneLinks(t *testing.T) {
	tools, _ := setupTools(t)
	ctx := context.Background()

	res, _, err := tools.LinkContributor(ctx, nil, MilestoneLinkInput{MilestoneID: "m1", WorkItemID: "R"})
	require.NoError(t, err)
	require.False(t, res.IsError, textOf(t, res))
	assert.Equal(t, "R now contributes to milestone m1", textOf(t, res))

	res, _, err = tools.AddDependent(ctx, nil, MilestoneLinkInput{MilestoneID: "m1", WorkItemID: "R"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), "CONTRIBUTOR_DEPENDENT_CONFLICT")

	res, _, err = tools.AddDependent(ctx, nil, MilestoneLinkInput{MilestoneID: "m1", WorkItemID: "P"})
	require.NoError(t, err)
	require.False(t, res.IsError, textOf(t, res))

	res, _, err = tools.ListMilestones(ctx, nil, struct{}{})
	require.NoError(t, err)
	var ms []domain.Milestone
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &ms))
	require.Len(t, ms, 1)
	assert.Equal(t, []string{"R"}, ms[0].Contributors)
	assert.Equal(t, []string{"P"}, ms[0].Dependents)

	res, _, err = tools.UnlinkContributor(ctx, nil, MilestoneLinkInput{MilestoneID: "m1", WorkItemID: "R"})
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, _, err = tools.RemoveDependent(ctx, nil, MilestoneLinkInput{MilestoneID: "m1", WorkItemID: "R"})
	require.NoError(t, err)
	assert.True(t, res.IsError, "R was never a dependent")
}

func TestServerOverInMemoryTransport(t *testing.T) {
	tools, _ := setupTools(t)
	ctx := context.Background()

	srv := New(tools.Timeline, tools.Dependencies, tools.Milestones)
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	_, err := srv.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	listed, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(listed.Tools))
	for _, tool := range listed.Tools {
		names = append(names, tool.Name)
	}
	for _, want := range []string{"get_timeline", "preview_schedule", "add_dependency", "update_dependency", "remove_dependency", "link_contributor", "unlink_contributor", "add_dependent", "remove_dependent"} {
		assert.Contains(t, names, want)
	}

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "add_dependency",
		Arguments: map[string]any{"predecessorId": "F", "successorId": "F"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), "VALIDATION_ERROR")
}

func readDependency(ctx context.Context, st *store.Store, pred, succ string) (*domain.Dependency, error) {
	var d *domain.Dependency
	err := st.RunInTx(ctx, func(tx *store.Tx) error {
		var err error
		d, err = tx.Dependency(ctx, pred, succ)
		return err
	})
	return d, err
}

func TestServe_UnknownTransport(t *testing.T) {
	err := Serve(context.Background(), nil, "carrier-pigeon", "")
	assert.ErrorContains(t, err, "unknown transport")
}
