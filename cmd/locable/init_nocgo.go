//go:build !cgo

package main

import "github.com/spf13/cobra"

// Local embeddings need cgo; there is nothing to initialise without it.
func addPlatformCommands(*cobra.Command, *globalOptions) {}
