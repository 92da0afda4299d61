//go:build cgo

package main

import (
	"github.com/locable/locable/internal/embeddings"
	"github.com/spf13/cobra"
)

func addPlatformCommands(root *cobra.Command, g *globalOptions) {
	root.AddCommand(newInitCmd(g))
}

func newInitCmd(g *globalOptions) *cobra.Command {
	var force, skipModel bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Download the local embedding runtime and model",
		Long: `Prepare local embeddings with FastEmbed.

Downloads the ONNX runtime library to ~/.config/locable/lib/ (unless
ONNX_PATH points at an installed one) and then loads the configured
embedding model once so that it is cached for later runs.

Examples:
  locable init
  locable init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var rt embeddings.ONNXRuntime
			if path := rt.Path(); path != "" && !force {
				cmd.Printf("ONNX runtime already installed at: %s\n", path)
			} else {
				cmd.Printf("Downloading ONNX runtime v%s...\n", embeddings.DefaultONNXRuntimeVersion)
				path, err := rt.Install(cmd.Context())
				if err != nil {
					return err
				}
				cmd.Printf("Installed ONNX runtime to: %s\n", path)
			}
			if skipModel {
				return nil
			}

			a, ctx, err := newApp(cmd, g, "")
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			p, err := a.embedder.get(ctx)
			if err != nil {
				return err
			}
			cmd.Printf("Embedding model %s ready (dimension %d)\n", a.cfg.Embeddings.Model, p.Dimension())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "re-download even if the runtime exists")
	cmd.Flags().BoolVar(&skipModel, "skip-model", false, "only install the runtime")
	return cmd
}
