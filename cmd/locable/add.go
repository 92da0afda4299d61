package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/locable/locable/internal/ingest"
	"github.com/locable/locable/internal/secrets"
	"github.com/locable/locable/internal/vectorstore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type addOptions struct {
	collection  string
	persistDir  string
	include     []string
	exclude     []string
	maxFileSize int64
	noIgnore    bool
	noRedact    bool
}

func newAddCmd(g *globalOptions) *cobra.Command {
	o := &addOptions{}
	cmd := &cobra.Command{
		Use:   "add PATH...",
		Short: "Add files to the store, one document per file",
		Long: `Add files to the collection so that inspect has something to find.

Each file becomes one document. Its ID and "source" metadata are the path
relative to the project root, so adding a file again replaces it.
Directories are walked recursively. Hidden entries, dependency and build
directories, the store directory and paths listed in .gitignore or
.locableignore are skipped; --include and --exclude filter relative paths.
Empty, binary and oversized files are skipped with a warning.

Secrets found by the gitleaks rules are replaced with [REDACTED:rule-id]
before embedding. Paths and values listed under [allowlist] in the
project's .gitleaks.toml (or secrets.allowlist) are left alone.

Examples:
  locable add locable/templates/base.css
  locable add docs --include '**.md' --exclude 'docs/drafts/**'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, g, o, args)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.collection, "collection", "", "collection to add to (default: bootstrap)")
	f.StringVar(&o.persistDir, "persist-dir", "", "store persistence directory (default: <package>/data/chroma)")
	f.StringSliceVar(&o.include, "include", nil, "glob patterns on the relative path, e.g. '**.css' (default: all files)")
	f.StringSliceVar(&o.exclude, "exclude", nil, "glob patterns on the relative path to leave out")
	f.Int64Var(&o.maxFileSize, "max-file-size", ingest.DefaultMaxFileSize, "largest file to add, in bytes")
	f.BoolVar(&o.noIgnore, "no-ignore", false, "do not read .gitignore and .locableignore")
	f.BoolVar(&o.noRedact, "no-redact", false, "store file contents without secret redaction")
	return cmd
}

func runAdd(cmd *cobra.Command, g *globalOptions, o *addOptions, args []string) error {
	a, ctx, err := newApp(cmd, g, o.persistDir)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	if o.collection != "" {
		a.cfg.Store.Collection = o.collection
	}

	opts := ingest.Options{
		Include:       o.include,
		Exclude:       o.exclude,
		MaxFileSize:   o.maxFileSize,
		SkipDirs:      []string{a.layout.PersistDir},
		NoIgnoreFiles: o.noIgnore,
	}
	if a.cfg.Secrets.Redact && !o.noRedact {
		if opts.Redactor, err = a.redactor(); err != nil {
			return err
		}
	}
	collector, err := ingest.New(a.layout.Project.Root, opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Query.Timeout.Duration())
	defer cancel()

	res, err := collector.Collect(ctx, args...)
	if err != nil {
		return err
	}
	for _, s := range res.Skipped {
		a.logger.Warn(ctx, "skipping file", zap.String("path", s.Path), zap.String("reason", s.Reason))
	}
	for _, r := range res.Redacted {
		a.logger.Warn(ctx, "redacted secrets", zap.String("path", r.Path), zap.Strings("rules", r.Rules))
	}
	if len(res.Documents) == 0 {
		return fmt.Errorf("no files to add in: %s", strings.Join(args, " "))
	}

	ids, err := a.add(ctx, res.Documents)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

// add upserts docs and records metrics.
func (a *app) add(ctx context.Context, docs []vectorstore.Document) ([]string, error) {
	backend := a.cfg.Store.Provider

	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	ids, err := store.AddDocuments(ctx, docs)
	if err != nil {
		a.metrics.RecordError(backend, "add")
		return nil, fmt.Errorf("adding to collection %q: %w", store.Collection(), err)
	}
	a.metrics.AddDocuments(backend, store.Collection(), len(ids))

	a.logger.Info(ctx, "documents added",
		zap.String("collection", store.Collection()),
		zap.Int("count", len(ids)))
	return ids, nil
}

// redactor loads the project allowlists and the gitleaks rules.
func (a *app) redactor() (*secrets.Redactor, error) {
	root := a.layout.Project.Root
	files := []string{filepath.Join(root, secrets.ProjectAllowlistName)}
	if extra := a.cfg.Secrets.Allowlist; extra != "" {
		if !filepath.IsAbs(extra) {
			extra = filepath.Join(root, extra)
		}
		files = append(files, extra)
	}

	allowlist, err := secrets.LoadAllowlists(files...)
	if err != nil {
		return nil, err
	}
	return secrets.New(allowlist)
}
