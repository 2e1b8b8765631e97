// Package mcpserver exposes the timeline and the dependency and milestone
// mutation surfaces as MCP tools.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/steilerDev/cornerstone-sub004/internal/ctxlog"
	"github.com/steilerDev/cornerstone-sub004/internal/dependency"
	"github.com/steilerDev/cornerstone-sub004/internal/milestone"
	"github.com/steilerDev/cornerstone-sub004/internal/timeline"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// New creates a fully configured MCP server with all tools registered.
func New(tl *timeline.Service, deps *dependency.Service, ms *milestone.Service) *mcp.Server {
	t := &Tools{Timeline: tl, Dependencies: deps, Milestones: ms}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "cornerstone",
		Version: Version,
	}, nil)

	// Timeline tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_timeline",
		Description: "Compute the full project schedule: scheduled dates, float, critical path, milestone projections and warnings",
	}, t.GetTimeline)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "preview_schedule",
		Description: "List the work items whose stored dates would move if the project were rescheduled now (nothing is written)",
	}, t.PreviewSchedule)

	// Dependency tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "add_dependency",
		Description: "Add a dependency between two work items; rejected with DUPLICATE_DEPENDENCY or CIRCULAR_DEPENDENCY when invalid",
	}, t.AddDependency)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "update_dependency",
		Description: "Change the type or lead/lag of an existing dependency",
	}, t.UpdateDependency)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "remove_dependency",
		Description: "Remove a dependency between two work items",
	}, t.RemoveDependency)

	// Milestone tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_milestones",
		Description: "List milestones with their contributing and dependent work items",
	}, t.ListMilestones)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "link_contributor",
		Description: "Make a work item contribute to a milestone (the milestone waits for it to finish)",
	}, t.LinkContributor)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "unlink_contributor",
		Description: "Stop a work item contributing to a milestone",
	}, t.UnlinkContributor)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "add_dependent",
		Description: "Make a work item depend on a milestone (it may not start before the milestone date)",
	}, t.AddDependent)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "remove_dependent",
		Description: "Remove a work item's dependency on a milestone",
	}, t.RemoveDependent)

	return srv
}

// Transport names accepted by Serve.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Serve runs srv until ctx is cancelled. The http transport serves the
// streamable HTTP handler on addr.
func Serve(ctx context.Context, srv *mcp.Server, transport, addr string) error {
	log := ctxlog.FromContext(ctx)

	switch transport {
	case TransportStdio:
		log.Info("MCP server starting", "transport", transport)
		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("run stdio server: %w", err)
		}
		return nil
	case TransportHTTP:
		handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
			return srv
		}, nil)
		httpSrv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

		errCh := make(chan error, 1)
		go func() {
			log.Info("MCP server listening", "transport", transport, "addr", addr)
			errCh <- httpSrv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			return fmt.Errorf("http server: %w", err)
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown http server: %w", err)
			}
			return nil
		}
	default:
		return fmt.Errorf("unknown transport: %s (use stdio or http)", transport)
	}
}
