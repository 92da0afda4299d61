// Package project locates the project a command operates on.
//
// Root Detection:
//
// FindRoot walks up from a start directory:
//   - inside a git work tree, the work tree root wins (go-git DetectDotGit)
//   - otherwise the nearest directory holding a locable.yaml marker
//   - otherwise the start directory itself
//
// Layout:
//
// A Layout ties the root to the namespace registry. Building it prepends the
// root to the registry (so the project's own package directory is preferred
// over installed copies) and derives the store persistence directory,
// data/chroma, through the namespace search path.
package project
