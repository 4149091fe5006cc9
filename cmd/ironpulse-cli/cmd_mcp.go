package main

import (
	"context"

	"github.com/claude/ironpulse/internal/auth"
	"github.com/claude/ironpulse/internal/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var (
	mcpRemote string
	mcpToken  string
)

// mcpCmd serves MCP over stdio
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve MCP tools over stdio",
	Long: `Serve the IronPulse MCP tools over stdio for a local MCP client.

By default tools operate on the configured store as the signed-in user.
With --remote they call a running IronPulse server's REST API instead,
authenticated by --token.`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpRemote, "remote", "", "base URL of a remote IronPulse server")
	mcpCmd.Flags().StringVar(&mcpToken, "token", "", "bearer token for --remote (see 'login')")
}

func runMCP(cmd *cobra.Command, args []string) error {
	if mcpRemote != "" {
		logger.Info("mcp: serving remote", "url", mcpRemote)
		s := mcp.New(mcp.NewHTTPClient(mcpRemote, mcpToken), Version, logger)
		return server.ServeStdio(s)
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	s := mcp.New(&mcp.Local{Plans: a.plans, Alarms: a.alarms}, Version, logger)
	return server.ServeStdio(s, server.WithStdioContextFunc(func(ctx context.Context) context.Context {
		if u, ok := a.sessions.Current(); ok {
			return auth.WithUser(ctx, u)
		}
		return ctx
	}))
}
