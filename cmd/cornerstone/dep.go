package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steilerDev/cornerstone-sub004/internal/domain"
	"github.com/steilerDev/cornerstone-sub004/internal/ui"
)

func depCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dep",
		Short: "Add, change and remove dependencies between work items",
	}
	cmd.AddCommand(depAddCmd())
	cmd.AddCommand(depUpdateCmd())
	cmd.AddCommand(depRmCmd())
	return cmd
}

func depAddCmd() *cobra.Command {
	var (
		flagType string
		flagLag  int
	)

	cmd := &cobra.Command{
		Use:   "add <predecessor> <successor>",
		Short: "Add a dependency; rejected when it duplicates an edge or closes a cycle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				d, err := a.deps.Create(ctx, domain.Dependency{
					PredecessorID:  args[0],
					SuccessorID:    args[1],
					DependencyType: domain.DependencyType(flagType),
					LeadLagDays:    flagLag,
				})
				if err != nil {
					return err
				}
				if flagJSON {
					return outputJSON(d)
				}
				fmt.Printf("%s Added %s\n", ui.Green("✓"), d)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&flagType, "type", "t", "fs", "Dependency type (fs, ss, ff, sf)")
	cmd.Flags().IntVar(&flagLag, "lag", 0, "Lag in days; negative for lead")

	return cmd
}

func depUpdateCmd() *cobra.Command {
	var (
		flagType string
		flagLag  int
	)

	cmd := &cobra.Command{
		Use:   "update <predecessor> <successor>",
		Short: "Change the type or lag of a dependency",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				typ *domain.DependencyType
				lag *int
			)
			if cmd.Flags().Changed("type") {
				t := domain.DependencyType(flagType)
				typ = &t
			}
			if cmd.Flags().Changed("lag") {
				lag = &flagLag
			}
			if typ == nil && lag == nil {
				return fmt.Errorf("nothing to update: pass --type and/or --lag")
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				d, err := a.deps.Update(ctx, args[0], args[1], typ, lag)
				if err != nil {
					return err
				}
				if flagJSON {
					return outputJSON(d)
				}
				fmt.Printf("%s Updated %s\n", ui.Green("✓"), d)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&flagType, "type", "t", "", "Dependency type (fs, ss, ff, sf)")
	cmd.Flags().IntVar(&flagLag, "lag", 0, "Lag in days; negative for lead")

	return cmd
}

func depRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <predecessor> <successor>",
		Aliases: []string{"remove"},
		Short:   "Remove a dependency",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.deps.Delete(ctx, args[0], args[1]); err != nil {
					return err
				}
				fmt.Printf("%s Removed %s -> %s\n", ui.Green("✓"), args[0], args[1])
				return nil
			})
		},
	}
}
