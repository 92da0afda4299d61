package main

import (
	"context"
	"fmt"
	"time"

	"github.com/locable/locable/internal/vectorstore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// inspectOptions are the flags of the inspect command.
type inspectOptions struct {
	collection string
	persistDir string
	query      string
	nResults   int
	output     string
}

func (o *inspectOptions) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.collection, "collection", "", "collection to query (default: bootstrap)")
	f.StringVar(&o.persistDir, "persist-dir", "", "store persistence directory (default: <package>/data/chroma)")
	f.StringVar(&o.query, "query", "", `query text (default: "container class css")`)
	f.IntVarP(&o.nResults, "n-results", "n", 0, "number of results (default: 3)")
	f.StringVarP(&o.output, "output", "o", "json", "output format: json or yaml")
}

func newInspectCmd(g *globalOptions) *cobra.Command {
	o := &inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Query the store and print the closest documents",
		Long: `Open the persistent vector store, run one similarity query and print
the result.

The store directory is created when missing, in which case the result is
empty. The result is columnar: ids, documents, metadatas and distances, one
entry per match, closest first. Distances are cosine distances.

Examples:
  # Smoke test with the defaults
  locable inspect

  # Another query against another collection
  locable inspect --collection docs --query "grid layout" -n 5 -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd, g, o)
		},
	}
	o.bind(cmd)
	return cmd
}

func runInspect(cmd *cobra.Command, g *globalOptions, o *inspectOptions) error {
	if err := checkOutput(o.output); err != nil {
		return err
	}

	a, ctx, err := newApp(cmd, g, o.persistDir)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	if o.collection != "" {
		a.cfg.Store.Collection = o.collection
	}
	text := a.cfg.Query.Text
	if o.query != "" {
		text = o.query
	}
	n := a.cfg.Query.NResults
	if cmd.Flags().Changed("n-results") {
		n = o.nResults
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Query.Timeout.Duration())
	defer cancel()

	result, err := a.query(ctx, text, n)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), o.output, result)
}

// query runs one similarity query and records its metrics.
func (a *app) query(ctx context.Context, text string, n int) (*vectorstore.QueryResult, error) {
	backend := a.cfg.Store.Provider

	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	start := time.Now()
	result, err := store.Query(ctx, text, n)
	if err != nil {
		a.metrics.RecordError(backend, "query")
		return nil, fmt.Errorf("querying collection %q: %w", store.Collection(), err)
	}
	elapsed := time.Since(start)
	a.metrics.ObserveQuery(backend, store.Collection(), elapsed, result.Len())

	a.logger.Info(ctx, "query complete",
		zap.String("collection", store.Collection()),
		zap.String("query", text),
		zap.Int("n_results", n),
		zap.Int("matches", result.Len()),
		zap.Duration("elapsed", elapsed))
	return result, nil
}
