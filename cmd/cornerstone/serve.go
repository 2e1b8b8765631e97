package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/steilerDev/cornerstone-sub004/internal/config"
	"github.com/steilerDev/cornerstone-sub004/internal/mcpserver"
)

func serveCmd() *cobra.Command {
	var (
		flagTransport string
		flagAddr      string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP tool server over stdio or streamable HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := map[string]any{}
			if cmd.Flags().Changed("transport") {
				overrides[config.KeyServeTransport] = flagTransport
			}
			if cmd.Flags().Changed("addr") {
				overrides[config.KeyServeAddr] = flagAddr
			}
			if err := config.ApplyOverrides(overrides); err != nil {
				return err
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				srv := mcpserver.New(a.timeline, a.deps, a.milestones)
				return mcpserver.Serve(ctx, srv,
					config.GetString(config.KeyServeTransport),
					config.GetString(config.KeyServeAddr))
			})
		},
	}

	cmd.Flags().StringVar(&flagTransport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().StringVar(&flagAddr, "addr", ":8081", "HTTP listen address (only used with --transport http)")

	return cmd
}
