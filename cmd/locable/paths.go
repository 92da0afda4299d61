package main

import (
	"fmt"
	"io"

	"github.com/locable/locable/internal/searchpath"
	"github.com/spf13/cobra"
)

// pathsReport is the machine readable output of the paths command.
type pathsReport struct {
	Root       string              `json:"root" yaml:"root"`
	Source     string              `json:"source" yaml:"source"`
	Namespace  string              `json:"namespace" yaml:"namespace"`
	SearchPath []string            `json:"search_path" yaml:"search_path"`
	PersistDir string              `json:"persist_dir" yaml:"persist_dir"`
	Modules    []searchpath.Module `json:"modules,omitempty" yaml:"modules,omitempty"`
}

func newPathsCmd(g *globalOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "paths [PATTERN]",
		Short: "Show the namespace search path",
		Long: `Print the project root, the merged namespace search path and the store
directory. With a PATTERN, also list the modules it matches; "*" matches
within one dotted segment and "**" across segments.

Examples:
  locable paths
  locable paths 'rag.*'
  locable paths '**' -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "text" {
				if err := checkOutput(output); err != nil {
					return err
				}
			}

			a, ctx, err := newApp(cmd, g, "")
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			report := pathsReport{
				Root:       a.layout.Project.Root,
				Source:     string(a.layout.Project.Source),
				Namespace:  a.cfg.Namespace.Name,
				SearchPath: a.searchPath(),
				PersistDir: a.layout.PersistDir,
			}
			if len(args) == 1 {
				if a.layout.Namespace == nil {
					return fmt.Errorf("namespace %q not found under %s", a.cfg.Namespace.Name, report.Root)
				}
				modules, err := a.layout.Namespace.Glob(args[0])
				if err != nil {
					return err
				}
				report.Modules = modules
			}

			if output == "text" {
				writePathsText(cmd.OutOrStdout(), &report)
				return nil
			}
			return render(cmd.OutOrStdout(), output, &report)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	return cmd
}

func writePathsText(w io.Writer, r *pathsReport) {
	fmt.Fprintf(w, "root:        %s (%s)\n", r.Root, r.Source)
	fmt.Fprintf(w, "persist dir: %s\n", r.PersistDir)
	fmt.Fprintf(w, "%s:\n", r.Namespace)
	if len(r.SearchPath) == 0 {
		fmt.Fprintln(w, "  (not found)")
	}
	for _, dir := range r.SearchPath {
		fmt.Fprintf(w, "  %s\n", dir)
	}
	for _, m := range r.Modules {
		fmt.Fprintf(w, "%s.%s\t%s\n", r.Namespace, m.Name, m.Path)
	}
}
