package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/steilerDev/cornerstone-sub004/internal/config"
	"github.com/steilerDev/cornerstone-sub004/internal/ctxlog"
	"github.com/steilerDev/cornerstone-sub004/internal/dependency"
	"github.com/steilerDev/cornerstone-sub004/internal/domain"
	appErrors "github.com/steilerDev/cornerstone-sub004/internal/errors"
	"github.com/steilerDev/cornerstone-sub004/internal/milestone"
	"github.com/steilerDev/cornerstone-sub004/internal/store"
	"github.com/steilerDev/cornerstone-sub004/internal/timeline"
	"github.com/steilerDev/cornerstone-sub004/internal/ui"
)

var (
	flagDB       string
	flagJSON     bool
	flagLogLevel string
	flagConfig   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cornerstone",
		Short: "Schedule construction work items with the critical path method",
		Long: `Cornerstone keeps the work items, dependencies and milestones of a
construction project in a local SQLite database and computes the project
schedule: earliest dates, float, the critical path and milestone projections.`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			ui.PrintBanner(os.Stderr)
			return cmd.Help()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default .cornerstone/cornerstone.db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Project config file (default: discovered .cornerstone/config.yaml)")

	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(timelineCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(itemCmd())
	rootCmd.AddCommand(depCmd())
	rootCmd.AddCommand(milestoneCmd())
	rootCmd.AddCommand(inferDepsCmd())
	rootCmd.AddCommand(serveCmd())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)
		cancel()
		os.Exit(1)
	}
}

// setup loads configuration, applies flag overrides and installs the logger
// on the command context.
func setup(cmd *cobra.Command, args []string) error {
	var opts []config.Option
	if flagConfig != "" {
		opts = append(opts, config.WithProjectConfig(flagConfig))
	}
	if err := config.Initialize(opts...); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	overrides := map[string]any{}
	if cmd.Flags().Changed("db") {
		overrides[config.KeyDatabasePath] = flagDB
	}
	if cmd.Flags().Changed("json") {
		overrides[config.KeyOutputJSON] = flagJSON
	}
	if cmd.Flags().Changed("log-level") {
		overrides[config.KeyLogLevel] = flagLogLevel
	}
	if err := config.ApplyOverrides(overrides); err != nil {
		return err
	}
	flagJSON = config.GetBool(config.KeyOutputJSON)

	logger := ctxlog.New(config.GetString(config.KeyLogLevel), config.GetString(config.KeyLogFormat), os.Stderr)
	slog.SetDefault(logger)
	cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
	return nil
}

// app bundles the store and the services built on it.
type app struct {
	store      *store.Store
	timeline   *timeline.Service
	deps       *dependency.Service
	milestones *milestone.Service
}

func openApp(ctx context.Context) (*app, error) {
	path := config.DatabasePath()
	st, err := store.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	tl := timeline.NewService(st)
	return &app{
		store:      st,
		timeline:   tl,
		deps:       dependency.NewService(st, tl),
		milestones: milestone.NewService(st, tl),
	}, nil
}

// withApp opens the database for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.store.Close()
	return fn(ctx, a)
}

func outputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// printError writes err to stderr. Structured errors show their code and
// any cycle path they carry.
func printError(err error) {
	structured, ok := appErrors.As(err)
	if flagJSON {
		out := map[string]any{"error": err.Error()}
		if ok {
			out["code"] = structured.Code
			if len(structured.Details) > 0 {
				out["details"] = structured.Details
			}
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
		return
	}

	if !ok {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.BoldRed("✗"), err)
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s %s\n", ui.BoldRed("✗"), ui.Red(string(structured.Code)), err)
	if path, ok := structured.Details["cycle"].([]string); ok {
		fmt.Fprintf(os.Stderr, "  %s %s\n", ui.Dim("path:"), strings.Join(path, " → "))
	}
	keys := make([]string, 0, len(structured.Details))
	for k := range structured.Details {
		if k != "cycle" && k != "titles" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(os.Stderr, "  %s %v\n", ui.Dim(k+":"), structured.Details[k])
	}
}

// parseDateFlag parses an optional YYYY-MM-DD flag value.
func parseDateFlag(name, value string) (*domain.Date, error) {
	if value == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(value)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &d, nil
}
