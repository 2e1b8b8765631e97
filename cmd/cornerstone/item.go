package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steilerDev/cornerstone-sub004/internal/ctxlog"
	"github.com/steilerDev/cornerstone-sub004/internal/domain"
	"github.com/steilerDev/cornerstone-sub004/internal/store"
	"github.com/steilerDev/cornerstone-sub004/internal/ui"
)

// itemFlags are the editable work item fields shared by add and set.
type itemFlags struct {
	title       string
	duration    int
	start       string
	end         string
	startAfter  string
	startBefore string
	status      string
}

func (f *itemFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Title")
	cmd.Flags().IntVar(&f.duration, "duration", 0, "Duration in days")
	cmd.Flags().StringVar(&f.start, "start", "", "Fixed start date YYYY-MM-DD")
	cmd.Flags().StringVar(&f.end, "end", "", "Fixed end date YYYY-MM-DD")
	cmd.Flags().StringVar(&f.startAfter, "start-after", "", "Earliest allowed start YYYY-MM-DD")
	cmd.Flags().StringVar(&f.startBefore, "start-before", "", "Latest desired start YYYY-MM-DD")
	cmd.Flags().StringVar(&f.status, "status", "", "Status (not_started, in_progress, completed, blocked)")
}

// apply copies every flag the user set onto w. An empty date value clears
// the field.
func (f *itemFlags) apply(cmd *cobra.Command, w *domain.WorkItem) error {
	changed := cmd.Flags().Changed
	if changed("title") {
		w.Title = f.title
	}
	if changed("duration") {
		d := f.duration
		w.DurationDays = &d
	}
	if changed("status") {
		w.Status = domain.Status(f.status)
	}

	dates := []struct {
		name  string
		value string
		field **domain.Date
	}{
		{"start", f.start, &w.StartDate},
		{"end", f.end, &w.EndDate},
		{"start-after", f.startAfter, &w.StartAfter},
		{"start-before", f.startBefore, &w.StartBefore},
	}
	for _, d := range dates {
		if !changed(d.name) {
			continue
		}
		parsed, err := parseDateFlag(d.name, d.value)
		if err != nil {
			return err
		}
		*d.field = parsed
	}
	return nil
}

func itemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage work items",
	}
	cmd.AddCommand(itemAddCmd())
	cmd.AddCommand(itemListCmd())
	cmd.AddCommand(itemSetCmd())
	return cmd
}

func itemAddCmd() *cobra.Command {
	var (
		flags  itemFlags
		flagID string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a work item",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := domain.WorkItem{ID: flagID}
			if err := flags.apply(cmd, &w); err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.store.RunInTx(ctx, func(tx *store.Tx) error {
					return tx.CreateWorkItem(ctx, &w)
				}); err != nil {
					return err
				}
				ctxlog.FromContext(ctx).Info("work item created", "id", w.ID)
				if flagJSON {
					return outputJSON(w)
				}
				fmt.Printf("%s Created work item %s %s\n", ui.Green("✓"), ui.ItemID(w.ID), ui.Dim(w.Title))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&flagID, "id", "", "Work item id (default: generated)")
	flags.register(cmd)

	return cmd
}

func itemSetCmd() *cobra.Command {
	var flags itemFlags

	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Change fields of a work item and reschedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				var w *domain.WorkItem
				if err := a.store.RunInTx(ctx, func(tx *store.Tx) error {
					var err error
					if w, err = tx.WorkItem(ctx, args[0]); err != nil {
						return err
					}
					if err := flags.apply(cmd, w); err != nil {
						return err
					}
					return tx.UpdateWorkItem(ctx, w)
				}); err != nil {
					return err
				}
				ctxlog.FromContext(ctx).Info("work item updated", "id", w.ID)

				n, err := a.timeline.Reschedule(ctx)
				if err != nil {
					return fmt.Errorf("reschedule: %w", err)
				}
				if flagJSON {
					return outputJSON(w)
				}
				fmt.Printf("%s Updated %s, %d work items rescheduled\n", ui.Green("✓"), ui.ItemID(w.ID), n)
				return nil
			})
		},
	}

	flags.register(cmd)

	return cmd
}

func itemListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List work items with their own and scheduled dates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				snap, err := a.store.Snapshot(ctx)
				if err != nil {
					return err
				}
				if flagJSON {
					return outputJSON(snap.WorkItems)
				}
				if len(snap.WorkItems) == 0 {
					fmt.Println(ui.Dim("No work items."))
					return nil
				}
				for _, w := range snap.WorkItems {
					duration := ui.Dim("-")
					if w.DurationDays != nil {
						duration = fmt.Sprintf("%dd", *w.DurationDays)
					}
					scheduled := ""
					if w.ScheduledStart != nil {
						scheduled = ui.Dim(fmt.Sprintf("  scheduled %s → %s", dateOr(w.ScheduledStart), dateOr(w.ScheduledEnd)))
					}
					fmt.Printf("  %s %-12s %-40s %5s  %s → %s%s\n",
						ui.StatusIcon(w.Status), ui.ItemID(w.ID), w.DisplayName(), duration,
						dateOr(w.StartDate), dateOr(w.EndDate), scheduled)
				}
				return nil
			})
		},
	}
}

func dateOr(d *domain.Date) string {
	if d == nil {
		return ui.Dim("----------")
	}
	return d.String()
}
