package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tmfmockd",
		Short: "Mock server for TMF Open APIs",
		Long: `tmfmockd serves mock TMF Open API endpoints from an OpenAPI spec or an
inline resource catalog: full CRUD with seed data, TMF-style event
notifications to registered listeners, and a debug surface for tests.

It can also expose the same operations to AI assistants over the Model
Context Protocol (stdio transport).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newMCPCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tmfmockd %s (commit %s, built %s)\n", Version, Commit, BuildDate)
		},
	}
}
