package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/steilerDev/cornerstone-sub004/internal/domain"
	"github.com/steilerDev/cornerstone-sub004/internal/ui"
)

func milestoneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "milestone",
		Short: "Manage milestones and the work items linked to them",
	}
	cmd.AddCommand(milestoneAddCmd())
	cmd.AddCommand(milestoneListCmd())
	cmd.AddCommand(milestoneCompleteCmd())
	cmd.AddCommand(milestoneLinkCmd("link", "Make a work item contribute to a milestone",
		func(ctx context.Context, a *app, m, w string) error { return a.milestones.LinkContributor(ctx, m, w) }))
	cmd.AddCommand(milestoneLinkCmd("unlink", "Stop a work item contributing to a milestone",
		func(ctx context.Context, a *app, m, w string) error { return a.milestones.UnlinkContributor(ctx, m, w) }))
	cmd.AddCommand(milestoneLinkCmd("gate", "Make a work item wait for a milestone",
		func(ctx context.Context, a *app, m, w string) error { return a.milestones.AddDependent(ctx, m, w) }))
	cmd.AddCommand(milestoneLinkCmd("ungate", "Stop a work item waiting for a milestone",
		func(ctx context.Context, a *app, m, w string) error { return a.milestones.RemoveDependent(ctx, m, w) }))
	return cmd
}

func milestoneAddCmd() *cobra.Command {
	var (
		flagID           string
		flagTitle        string
		flagTarget       string
		flagContributors []string
		flagDependents   []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a milestone",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseDateFlag("target", flagTarget)
			if err != nil {
				return err
			}
			if target == nil {
				return fmt.Errorf("--target is required")
			}
			m := domain.Milestone{
				ID:           flagID,
				Title:        flagTitle,
				TargetDate:   *target,
				Contributors: flagContributors,
				Dependents:   flagDependents,
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.milestones.Create(ctx, &m); err != nil {
					return err
				}
				if flagJSON {
					return outputJSON(m)
				}
				fmt.Printf("%s Created milestone %s %s\n", ui.Green("✓"), ui.Bold(m.ID), ui.Dim(m.Title))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&flagID, "id", "", "Milestone id (default: generated)")
	cmd.Flags().StringVar(&flagTitle, "title", "", "Title")
	cmd.Flags().StringVar(&flagTarget, "target", "", "Target date YYYY-MM-DD")
	cmd.Flags().StringSliceVar(&flagContributors, "contributor", nil, "Contributing work item id (repeatable)")
	cmd.Flags().StringSliceVar(&flagDependents, "dependent", nil, "Dependent work item id (repeatable)")

	return cmd
}

func milestoneListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List milestones with projected dates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				tl, err := a.timeline.Get(ctx)
				if err != nil {
					return err
				}
				if flagJSON {
					return outputJSON(tl.Milestones)
				}
				if len(tl.Milestones) == 0 {
					fmt.Println(ui.Dim("No milestones."))
					return nil
				}
				for _, p := range tl.Milestones {
					fmt.Printf("  %s %-12s %-40s target %s  effective %s  %s\n",
						ui.CriticalMarker(p.IsCritical), ui.Bold(p.MilestoneID), p.Title,
						p.TargetDate, p.EffectiveDate, ui.MilestoneState(p.IsCompleted, p.IsLate))
				}
				return nil
			})
		},
	}
}

func milestoneCompleteCmd() *cobra.Command {
	var flagAt string

	cmd := &cobra.Command{
		Use:   "complete <milestone>",
		Short: "Mark a milestone reached; its date is pinned to the completion day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at := domain.DateOf(time.Now())
			d, err := parseDateFlag("at", flagAt)
			if err != nil {
				return err
			}
			if d != nil {
				at = *d
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.milestones.Complete(ctx, args[0], at); err != nil {
					return err
				}
				fmt.Printf("%s Milestone %s reached on %s\n", ui.Green("✓"), ui.Bold(args[0]), at)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&flagAt, "at", "", "Completion date YYYY-MM-DD (default: today)")

	return cmd
}

func milestoneLinkCmd(use, short string, apply func(ctx context.Context, a *app, milestoneID, workItemID string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <milestone> <work-item>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := apply(ctx, a, args[0], args[1]); err != nil {
					return err
				}
				fmt.Printf("%s %s %s %s\n", ui.Green("✓"), use, ui.Bold(args[0]), ui.ItemID(args[1]))
				return nil
			})
		},
	}
}
