package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/NobleMathews/dev-versioner/pkg/ecosystem"
	"github.com/NobleMathews/dev-versioner/pkg/report"
	"github.com/NobleMathews/dev-versioner/pkg/resolver"
)

// purlOptions holds flags for the purl command.
type purlOptions struct {
	outputOptions
	noCache bool
}

// purlCommand creates the purl command.
func (c *CLI) purlCommand() *cobra.Command {
	var opts purlOptions

	cmd := &cobra.Command{
		Use:   "purl <purl>...",
		Short: "Resolve packages given as package URLs",
		Long: `Resolve packages given as package URLs (pkg:pypi, pkg:npm, pkg:golang).

A version in the URL pins the resolution to that version. URLs may mix
ecosystems; each result is keyed by the URL as given.`,
		Example: `  devversioner purl pkg:npm/react@17.0.2
  devversioner purl pkg:pypi/requests pkg:golang/github.com/spf13/cobra -f table`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPURL(cmd.Context(), args, opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the cache store")

	return cmd
}

func (c *CLI) runPURL(ctx context.Context, purls []string, opts purlOptions) error {
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	sess, err := c.openSession(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer sess.Close()

	spin := c.startSpinner(ctx, fmt.Sprintf("Resolving %d package URL(s)...", len(purls)))
	results := resolvePURLs(ctx, sess.resolver, purls, sess.cfg.Concurrency)
	spin.Stop()

	if err := c.writeResults(opts.outputOptions, format, results); err != nil {
		return err
	}
	return resultsError(results)
}

// resolvePURLs resolves every package URL with at most limit in flight.
// Results keep the input order; a malformed URL only fails its own entry.
func resolvePURLs(ctx context.Context, r *resolver.Resolver, purls []string, limit int) resolver.Results {
	if limit < 1 {
		limit = resolver.DefaultConcurrency
	}
	results := make(resolver.Results, len(purls))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, raw := range purls {
		results[i].ID = raw
		g.Go(func() error {
			p, err := ecosystem.ParsePURL(raw)
			if err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Record, results[i].Err = r.Resolve(ctx, p.Ecosystem, p.Name, p.Version)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
