// Package claude asks Claude to suggest dependencies between work items.
package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/steilerDev/cornerstone-sub004/internal/domain"
)

// ItemSummary is the minimal work item info sent to Claude.
type ItemSummary struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	DurationDays *int          `json:"durationDays,omitempty"`
	Status       domain.Status `json:"status"`
}

// Suggestion is a single inferred dependency.
type Suggestion struct {
	PredecessorID  string                `json:"predecessorId"` // item that must finish first
	SuccessorID    string                `json:"successorId"`
	DependencyType domain.DependencyType `json:"dependencyType"`
	LeadLagDays    int                   `json:"leadLagDays"`
	Reason         string                `json:"reason"`
}

// Dependency converts the suggestion into a dependency record.
func (s Suggestion) Dependency() domain.Dependency {
	return domain.Dependency{
		PredecessorID:  s.PredecessorID,
		SuccessorID:    s.SuccessorID,
		DependencyType: s.DependencyType,
		LeadLagDays:    s.LeadLagDays,
	}
}

// InferResult holds the full response from Claude.
type InferResult struct {
	Suggestions []Suggestion `json:"suggestions"`
	Summary     string       `json:"summary"`
	Dropped     []string     `json:"-"` // suggestions discarded while sanitizing
}

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-5-20250929"

// Client wraps the Anthropic SDK for Claude API calls.
type Client struct {
	inner anthropic.Client
	model anthropic.Model
}

// NewClient creates a Claude client. apiKey defaults to ANTHROPIC_API_KEY env.
// model defaults to Claude Sonnet.
func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	inner := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	if model == "" {
		model = DefaultModel
	}

	return &Client{inner: inner, model: anthropic.Model(model)}, nil
}

const inferDepsPrompt = `You are an experienced construction project scheduler. Given the open work items of a building project and the dependencies that already exist, suggest missing finish-to-start dependencies.

Rules:
- Only add a dependency when the successor physically cannot start until the predecessor is finished (e.g. framing before roofing, rough-in before drywall).
- Prefer fewer edges. Do not add transitive or speculative dependencies.
- Do not repeat existing dependencies and do not create cycles.
- Only use work item IDs from the provided list.
- A work item cannot depend on itself.
- Use "finish_to_start" and leadLagDays 0 unless a curing or drying time is clearly needed; then give it as a positive leadLagDays.

Return your answer as JSON with this exact structure:
{
  "suggestions": [
    {"predecessorId": "<item that must finish first>", "successorId": "<item that waits>", "dependencyType": "finish_to_start", "leadLagDays": 0, "reason": "<short explanation>"}
  ],
  "summary": "<one paragraph summary of the sequencing>"
}

Return ONLY the JSON object. No markdown fences, no commentary outside the JSON.
`

// OpenItems summarises the work items that are not completed.
func OpenItems(items []domain.WorkItem) []ItemSummary {
	var out []ItemSummary
	for _, w := range items {
		if w.Status == domain.StatusCompleted {
			continue
		}
		out = append(out, ItemSummary{ID: w.ID, Title: w.DisplayName(), DurationDays: w.DurationDays, Status: w.Status})
	}
	return out
}

// buildPrompt constructs the full prompt for dependency inference.
func buildPrompt(items []ItemSummary, existing []domain.Dependency) (string, error) {
	itemData, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal work items: %w", err)
	}
	if existing == nil {
		existing = []domain.Dependency{}
	}
	depData, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal dependencies: %w", err)
	}

	var b strings.Builder
	b.WriteString(inferDepsPrompt)
	b.WriteString("\nWork items:\n")
	b.Write(itemData)
	b.WriteString("\n\nExisting dependencies:\n")
	b.Write(depData)
	return b.String(), nil
}

// InferDeps calls the Claude API to suggest dependencies between open items.
// Suggestions naming unknown items, self edges or existing pairs are dropped.
func (c *Client) InferDeps(ctx context.Context, items []ItemSummary, existing []domain.Dependency) (*InferResult, error) {
	if len(items) < 2 {
		return &InferResult{Summary: "Not enough open work items to sequence."}, nil
	}

	prompt, err := buildPrompt(items, existing)
	if err != nil {
		return nil, err
	}

	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(4096),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude API call: %w", err)
	}

	// Extract text from response
	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return parseResponse(text, items, existing)
}

// parseResponse decodes Claude's answer and drops unusable suggestions.
func parseResponse(text string, items []ItemSummary, existing []domain.Dependency) (*InferResult, error) {
	text = stripJSONFences(text)

	var result InferResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("parse claude response: %w\nraw: %s", err, text)
	}

	known := make(map[string]bool, len(items))
	for _, it := range items {
		known[it.ID] = true
	}
	seen := make(map[[2]string]bool, len(existing)+len(result.Suggestions))
	for _, d := range existing {
		seen[[2]string{d.PredecessorID, d.SuccessorID}] = true
	}

	kept := result.Suggestions[:0]
	for _, s := range result.Suggestions {
		pair := [2]string{s.PredecessorID, s.SuccessorID}
		typ, err := domain.ParseDependencyType(string(s.DependencyType))
		switch {
		case !known[s.PredecessorID] || !known[s.SuccessorID]:
			result.Dropped = append(result.Dropped, fmt.Sprintf("%s -> %s: unknown work item", s.PredecessorID, s.SuccessorID))
		case s.PredecessorID == s.SuccessorID:
			result.Dropped = append(result.Dropped, fmt.Sprintf("%s -> %s: self dependency", s.PredecessorID, s.SuccessorID))
		case err != nil:
			result.Dropped = append(result.Dropped, fmt.Sprintf("%s -> %s: %v", s.PredecessorID, s.SuccessorID, err))
		case seen[pair]:
			result.Dropped = append(result.Dropped, fmt.Sprintf("%s -> %s: already exists", s.PredecessorID, s.SuccessorID))
		default:
			seen[pair] = true
			s.DependencyType = typ
			kept = append(kept, s)
		}
	}
	result.Suggestions = kept
	return &result, nil
}

// stripJSONFences removes markdown code fences that Claude sometimes adds.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	// Remove ```json ... ``` or ``` ... ```
	if strings.HasPrefix(s, "```") {
		// Strip opening fence line
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		// Strip closing fence
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
