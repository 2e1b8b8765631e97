package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steilerDev/cornerstone-sub004/internal/claude"
	"github.com/steilerDev/cornerstone-sub004/internal/config"
	"github.com/steilerDev/cornerstone-sub004/internal/domain"
	appErrors "github.com/steilerDev/cornerstone-sub004/internal/errors"
	"github.com/steilerDev/cornerstone-sub004/internal/ui"
)

func inferDepsCmd() *cobra.Command {
	var (
		flagApply    bool
		flagModel    string
		flagFromFile string
	)

	cmd := &cobra.Command{
		Use:   "infer-deps",
		Short: "Use Claude to suggest dependencies between open work items",
		Long: `Sends the open work items and existing dependencies to Claude and
suggests missing dependencies. By default runs in dry-run mode; use --apply to
add them. Every suggestion goes through the same checks as 'dep add', so
duplicates and cycles are rejected.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				snap, err := a.store.Snapshot(ctx)
				if err != nil {
					return err
				}
				open := claude.OpenItems(snap.WorkItems)
				if len(open) == 0 {
					return fmt.Errorf("no open work items found")
				}

				result, err := loadSuggestions(ctx, flagFromFile, flagModel, open, snap.Dependencies)
				if err != nil {
					return err
				}
				for _, msg := range result.Dropped {
					fmt.Printf("  %s %s\n", ui.Yellow("⏭️  SKIP:"), msg)
				}

				if !flagApply {
					if flagJSON {
						return outputJSON(result)
					}
					printSuggestions(result, snap.Titles())
					fmt.Printf("\n%s\n", ui.Dim("Dry run. Re-run with --apply to add these dependencies."))
					return nil
				}

				deps := make([]domain.Dependency, len(result.Suggestions))
				for i, s := range result.Suggestions {
					deps[i] = s.Dependency()
				}
				batch, err := a.deps.ApplyBatch(ctx, deps)
				if batch != nil {
					for _, d := range batch.Created {
						fmt.Printf("  %s %s\n", ui.Green("✓"), d)
					}
					for _, r := range batch.Rejected {
						fmt.Printf("  %s %s %s\n", ui.Red("✗"), r.Dependency, ui.Dim(string(appErrors.CodeOf(r.Err))+": "+r.Err.Error()))
					}
				}
				if err != nil {
					return err
				}
				fmt.Printf("\n🔗 Added %s of %d suggested dependencies\n", ui.Bold(len(batch.Created)), len(deps))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&flagApply, "apply", false, "Add the suggested dependencies")
	cmd.Flags().StringVar(&flagModel, "model", "", "Claude model (default: claude.model config, then Sonnet)")
	cmd.Flags().StringVar(&flagFromFile, "from-file", "", "Read suggestions from a JSON file instead of calling Claude")

	return cmd
}

func loadSuggestions(ctx context.Context, fromFile, model string, open []claude.ItemSummary, existing []domain.Dependency) (*claude.InferResult, error) {
	if fromFile != "" {
		data, err := os.ReadFile(fromFile)
		if err != nil {
			return nil, fmt.Errorf("read from-file: %w", err)
		}
		var result claude.InferResult
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("parse from-file: %w", err)
		}
		fmt.Printf("📂 Loaded %s suggestions from %s\n", ui.Bold(len(result.Suggestions)), ui.Dim(fromFile))
		return &result, nil
	}

	if model == "" {
		model = config.GetString(config.KeyClaudeModel)
	}
	client, err := claude.NewClient("", model)
	if err != nil {
		return nil, err
	}
	fmt.Printf("🔍 Sending %s open work items to Claude for dependency inference...\n", ui.Bold(len(open)))
	result, err := client.InferDeps(ctx, open, existing)
	if err != nil {
		return nil, fmt.Errorf("infer deps: %w", err)
	}
	return result, nil
}

func printSuggestions(result *claude.InferResult, titles map[string]string) {
	fmt.Printf("\n🔗 %s suggested dependencies:\n\n", ui.Bold(len(result.Suggestions)))
	for _, s := range result.Suggestions {
		fmt.Printf("  %s %s → %s %s\n", ui.Cyan("•"), ui.ItemID(s.PredecessorID), ui.ItemID(s.SuccessorID),
			ui.Dim(fmt.Sprintf("(%s → %s)", titles[s.PredecessorID], titles[s.SuccessorID])))
		if s.Reason != "" {
			fmt.Printf("      %s\n", ui.Dim(s.Reason))
		}
	}
	if result.Summary != "" {
		fmt.Printf("\n%s %s\n", ui.Bold("Summary:"), result.Summary)
	}
}
