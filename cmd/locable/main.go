// Package main implements the locable CLI.
//
// Running locable with no subcommand inspects the default collection: it
// opens the persistent vector store of the current project, runs one
// similarity query and prints the result to stdout. Logs go to stderr.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	root       string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	inspect := &inspectOptions{}

	cmd := &cobra.Command{
		Use:   "locable",
		Short: "Inspect the locable vector store",
		Long: `locable opens the project's persistent vector store and queries it.

With no subcommand it behaves like "locable inspect": the "bootstrap"
collection under <package>/data/chroma is queried for "container class css"
and the 3 closest documents are printed as JSON.

Configuration is read from ./locable.yaml at the project root (or --config),
then overridden by LOCABLE_* environment variables and flags.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd, g, inspect)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "config file (default: <project>/locable.yaml or ~/.config/locable/config.yaml)")
	pf.StringVar(&g.root, "root", "", "directory inside the project (default: current directory)")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: trace, debug, info, warn, error or off")

	// The bare root command accepts the inspect flags too.
	inspect.bind(cmd)

	cmd.AddCommand(
		newInspectCmd(g),
		newAddCmd(g),
		newPathsCmd(g),
	)
	addPlatformCommands(cmd, g)
	return cmd
}
