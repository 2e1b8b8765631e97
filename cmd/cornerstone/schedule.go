package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/steilerDev/cornerstone-sub004/internal/cpm"
	"github.com/steilerDev/cornerstone-sub004/internal/domain"
	"github.com/steilerDev/cornerstone-sub004/internal/graph"
	"github.com/steilerDev/cornerstone-sub004/internal/milestone"
	"github.com/steilerDev/cornerstone-sub004/internal/reporter"
	"github.com/steilerDev/cornerstone-sub004/internal/snapshot"
	"github.com/steilerDev/cornerstone-sub004/internal/ui"
)

func scheduleCmd() *cobra.Command {
	var (
		flagFile         string
		flagMode         string
		flagToday        string
		flagDOT          bool
		flagCriticalOnly bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule a snapshot file without touching the database",
		Long: `Reads work items, dependencies and milestones from a JSON or YAML
snapshot file and prints the computed schedule. Mode and today default to the
values in the file, then to full mode and the current date.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagFile == "" {
				return fmt.Errorf("--file is required")
			}
			req, err := snapshot.Load(flagFile)
			if err != nil {
				return err
			}

			mode := req.Mode
			if flagMode != "" {
				mode = cpm.Mode(flagMode)
			}
			if mode == "" {
				mode = cpm.ModeFull
			}
			if !mode.IsValid() {
				return fmt.Errorf("invalid mode: %s (use full or preview)", mode)
			}

			today := domain.DateOf(time.Now())
			if req.Today != nil {
				today = *req.Today
			}
			t, err := parseDateFlag("today", flagToday)
			if err != nil {
				return err
			}
			if t != nil {
				today = *t
			}

			res, _ := milestone.Schedule(&req.Snapshot, mode, today)

			switch {
			case flagJSON:
				return outputJSON(res)
			case flagDOT:
				g, _ := graph.FromDependencies(req.WorkItems, req.Dependencies)
				reporter.PrintDOT(os.Stdout, g, res, req.Titles(), flagCriticalOnly)
				return nil
			default:
				reporter.PrintSchedule(os.Stdout, res, req.WorkItems, mode)
				return nil
			}
		},
	}

	cmd.Flags().StringVarP(&flagFile, "file", "f", "", "Snapshot file (.json, .yaml or .yml)")
	cmd.Flags().StringVar(&flagMode, "mode", "", "Scheduling mode (full, preview)")
	cmd.Flags().StringVar(&flagToday, "today", "", "Reference date YYYY-MM-DD (default: today)")
	cmd.Flags().BoolVar(&flagDOT, "dot", false, "Print the dependency graph in Graphviz DOT format")
	cmd.Flags().BoolVar(&flagCriticalOnly, "critical-only", false, "With --dot, only show critical items")

	return cmd
}

func timelineCmd() *cobra.Command {
	var flagPreview bool

	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Compute the project timeline from the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if flagPreview {
					res, err := a.timeline.Preview(ctx)
					if err != nil {
						return err
					}
					if flagJSON {
						return outputJSON(res)
					}
					snap, err := a.store.Snapshot(ctx)
					if err != nil {
						return err
					}
					reporter.PrintSchedule(os.Stdout, res, snap.WorkItems, cpm.ModePreview)
					return nil
				}

				tl, err := a.timeline.Get(ctx)
				if err != nil {
					return err
				}
				rpt := reporter.New(tl)
				if flagJSON {
					data, err := rpt.JSON()
					if err != nil {
						return err
					}
					fmt.Println(string(data))
					return nil
				}
				rpt.PrintTimeline(os.Stdout)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&flagPreview, "preview", false, "Only list items whose stored dates would move")

	return cmd
}

func importCmd() *cobra.Command {
	var flagReschedule bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load a snapshot file into the database",
		Long: `Writes every work item, dependency and milestone of a snapshot file in
one transaction. Existing records with the same ids are replaced. Dependencies
are not checked for cycles on import; the next timeline reports any cycle.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := snapshot.Load(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.store.Import(ctx, &req.Snapshot); err != nil {
					return err
				}
				fmt.Printf("📥 Imported %s work items, %s dependencies, %s milestones\n",
					ui.Bold(len(req.WorkItems)), ui.Bold(len(req.Dependencies)), ui.Bold(len(req.Milestones)))

				if !flagReschedule {
					return nil
				}
				n, err := a.timeline.Reschedule(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("🗓  Rescheduled %s work items\n", ui.Bold(n))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&flagReschedule, "reschedule", false, "Save the computed schedule after importing")

	return cmd
}
