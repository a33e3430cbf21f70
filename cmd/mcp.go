package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/xvierd/focusflow/internal/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol (MCP) server for integration with AI assistants.
The server exposes the timer, the task board, distraction logging and
analytics for the local account. It communicates over stdio.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the protocol, so status goes to stderr.
		fmt.Fprintln(os.Stderr, "🚀 Starting MCP server on stdio (Ctrl+C to stop)")

		ctx, stop := setupSignalHandler()
		defer stop()

		state, err := localState(ctx)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = app.timer.Run(ctx, app.config.Timer.TickInterval.Std())
		}()

		server := mcp.NewServer(state, Version)
		err = server.Start(ctx)
		cancel()
		wg.Wait()
		if err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	},
}
