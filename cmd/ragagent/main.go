// Package main provides the CLI entry point for the ragagent dispatch and
// tool-orchestration service.
//
// Start the server:
//
//	ragagent serve --config ragagent.yaml
//
// Validate a configuration file without starting the server:
//
//	ragagent config validate --config ragagent.yaml
//
// Configuration can also be supplied via environment variables read by the
// configured model providers (ANTHROPIC_API_KEY, OPENAI_API_KEY) when the
// config file leaves apiKey fields blank.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information, populated by ldflags during release builds.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ragagent",
		Short: "Retrieval-augmented, tool-calling agent service",
		Long: `ragagent dispatches chat requests to a locally or remotely routed model,
lets that model call a registry of tools (including a retrieval tool backed
by an embedding and vector search pipeline), persists conversation turns,
and streams the reply back over Server-Sent Events.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}
	root.AddCommand(buildServeCmd(), buildConfigCmd())
	return root
}
