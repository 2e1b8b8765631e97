package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/steilerDev/cornerstone-sub004/internal/dependency"
	"github.com/steilerDev/cornerstone-sub004/internal/domain"
	appErrors "github.com/steilerDev/cornerstone-sub004/internal/errors"
	"github.com/steilerDev/cornerstone-sub004/internal/milestone"
	"github.com/steilerDev/cornerstone-sub004/internal/timeline"
)

// Tools holds references needed by the tool handlers.
type Tools struct {
	Timeline     *timeline.Service
	Dependencies *dependency.Service
	Milestones   *milestone.Service
}

// --- Input types ---

type AddDependencyInput struct {
	PredecessorID  string `json:"predecessorId" jsonschema:"Work item that constrains the successor"`
	SuccessorID    string `json:"successorId" jsonschema:"Work item being constrained"`
	DependencyType string `json:"dependencyType,omitempty" jsonschema:"finish_to_start (default), start_to_start, finish_to_finish or start_to_finish"`
	LeadLagDays    int    `json:"leadLagDays,omitempty" jsonschema:"Positive lag or negative lead in days"`
}

type UpdateDependencyInput struct {
	PredecessorID  string `json:"predecessorId" jsonschema:"Predecessor of the dependency to change"`
	SuccessorID    string `json:"successorId" jsonschema:"Successor of the dependency to change"`
	DependencyType string `json:"dependencyType,omitempty" jsonschema:"New dependency type; omit to keep the current one"`
	LeadLagDays    *int   `json:"leadLagDays,omitempty" jsonschema:"New lead/lag in days; omit to keep the current value"`
}

type RemoveDependencyInput struct {
	PredecessorID string `json:"predecessorId" jsonschema:"Predecessor of the dependency to remove"`
	SuccessorID   string `json:"successorId" jsonschema:"Successor of the dependency to remove"`
}

type MilestoneLinkInput struct {
	MilestoneID string `json:"milestoneId" jsonschema:"Milestone to change"`
	WorkItemID  string `json:"workItemId" jsonschema:"Work item to link or unlink"`
}

// --- Handlers ---

func (t *Tools) GetTimeline(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	tl, err := t.Timeline.Get(ctx)
	if err != nil {
		return toolFailure("Failed to compute timeline", err), nil, nil
	}
	return toolJSON(tl)
}

func (t *Tools) PreviewSchedule(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	res, err := t.Timeline.Preview(ctx)
	if err != nil {
		return toolFailure("Failed to preview schedule", err), nil, nil
	}
	if len(res.ScheduledItems) == 0 && len(res.Warnings) == 0 {
		return toolText("No stored dates would change."), nil, nil
	}
	return toolJSON(res)
}

func (t *Tools) AddDependency(ctx context.Context, _ *mcp.CallToolRequest, input AddDependencyInput) (*mcp.CallToolResult, any, error) {
	if input.PredecessorID == "" || input.SuccessorID == "" {
		return toolError("predecessorId and successorId are required"), nil, nil
	}

	d, err := t.Dependencies.Create(ctx, domain.Dependency{
		PredecessorID:  input.PredecessorID,
		SuccessorID:    input.SuccessorID,
		DependencyType: domain.DependencyType(input.DependencyType),
		LeadLagDays:    input.LeadLagDays,
	})
	if err != nil {
		return toolFailure("Dependency rejected", err), nil, nil
	}
	return toolJSON(d)
}

func (t *Tools) UpdateDependency(ctx context.Context, _ *mcp.CallToolRequest, input UpdateDependencyInput) (*mcp.CallToolResult, any, error) {
	if input.PredecessorID == "" || input.SuccessorID == "" {
		return toolError("predecessorId and successorId are required"), nil, nil
	}

	var typ *domain.DependencyType
	if input.DependencyType != "" {
		dt := domain.DependencyType(input.DependencyType)
		typ = &dt
	}
	d, err := t.Dependencies.Update(ctx, input.PredecessorID, input.SuccessorID, typ, input.LeadLagDays)
	if err != nil {
		return toolFailure("Dependency update rejected", err), nil, nil
	}
	return toolJSON(d)
}

func (t *Tools) RemoveDependency(ctx context.Context, _ *mcp.CallToolRequest, input RemoveDependencyInput) (*mcp.CallToolResult, any, error) {
	if input.PredecessorID == "" || input.SuccessorID == "" {
		return toolError("predecessorId and successorId are required"), nil, nil
	}
	if err := t.Dependencies.Delete(ctx, input.PredecessorID, input.SuccessorID); err != nil {
		return toolFailure("Failed to remove dependency", err), nil, nil
	}
	return toolText(fmt.Sprintf("Removed dependency %s -> %s", input.PredecessorID, input.SuccessorID)), nil, nil
}

func (t *Tools) ListMilestones(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	ms, err := t.Milestones.List(ctx)
	if err != nil {
		return toolFailure("Failed to list milestones", err), nil, nil
	}
	if ms == nil {
		ms = []domain.Milestone{}
	}
	return toolJSON(ms)
}

func (t *Tools) LinkContributor(ctx context.Context, _ *mcp.CallToolRequest, input MilestoneLinkInput) (*mcp.CallToolResult, any, error) {
	return t.changeLink(ctx, input, t.Milestones.LinkContributor, "%s now contributes to milestone %s")
}

func (t *Tools) UnlinkContributor(ctx context.Context, _ *mcp.CallToolRequest, input MilestoneLinkInput) (*mcp.CallToolResult, any, error) {
	return t.changeLink(ctx, input, t.Milestones.UnlinkContributor, "%s no longer contributes to milestone %s")
}

func (t *Tools) AddDependent(ctx context.Context, _ *mcp.CallToolRequest, input MilestoneLinkInput) (*mcp.CallToolResult, any, error) {
	return t.changeLink(ctx, input, t.Milestones.AddDependent, "%s now depends on milestone %s")
}

func (t *Tools) RemoveDependent(ctx context.Context, _ *mcp.CallToolRequest, input MilestoneLinkInput) (*mcp.CallToolResult, any, error) {
	return t.changeLink(ctx, input, t.Milestones.RemoveDependent, "%s no longer depends on milestone %s")
}

func (t *Tools) changeLink(ctx context.Context, input MilestoneLinkInput, apply func(ctx context.Context, milestoneID, workItemID string) error, done string) (*mcp.CallToolResult, any, error) {
	if input.MilestoneID == "" || input.WorkItemID == "" {
		return toolError("milestoneId and workItemId are required"), nil, nil
	}
	if err := apply(ctx, input.MilestoneID, input.WorkItemID); err != nil {
		return toolFailure("Milestone link rejected", err), nil, nil
	}
	return toolText(fmt.Sprintf(done, input.WorkItemID, input.MilestoneID)), nil, nil
}

// --- Result helpers ---

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

// toolFailure renders a structured error as JSON so clients can read the
// code and the offending path; other errors become plain text.
func toolFailure(prefix string, err error) *mcp.CallToolResult {
	structured, ok := appErrors.As(err)
	if !ok {
		return toolError("%s: %v", prefix, err)
	}
	data, mErr := json.MarshalIndent(map[string]any{
		"code":    structured.Code,
		"message": structured.Message,
		"details": structured.Details,
	}, "", "  ")
	if mErr != nil {
		return toolError("%s: %v", prefix, err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
