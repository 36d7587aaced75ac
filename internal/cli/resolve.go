package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/report"
	"github.com/NobleMathews/dev-versioner/pkg/resolver"
)

// resolveOptions holds flags for the resolve command.
type resolveOptions struct {
	outputOptions
	version  string
	noCache  bool
	progress bool
}

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var opts resolveOptions

	cmd := &cobra.Command{
		Use:   "resolve <ecosystem> <package>...",
		Short: "Resolve packages to their version, license and dependencies",
		Long: `Resolve one or more packages from the same ecosystem.

Ecosystems are python (pypi), javascript (npm) and go. Go packages unknown
to pkg.go.dev are looked up as GitHub repositories.`,
		Example: `  devversioner resolve javascript react
  devversioner resolve python requests flask django -f table
  devversioner resolve go github.com/spf13/cobra --version v1.8.0
  devversioner resolve npm react vue svelte -f svg -o deps.svg`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runResolve(cmd.Context(), args[0], args[1:], opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.version, "version", "", "resolve this version instead of the latest (single package only)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the cache store")
	cmd.Flags().BoolVar(&opts.progress, "progress", false, "show an interactive progress view while resolving")

	return cmd
}

func (c *CLI) runResolve(ctx context.Context, eco string, pkgs []string, opts resolveOptions) error {
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if opts.version != "" && len(pkgs) > 1 {
		return errors.New(errors.ErrCodeInvalidInput, "--version applies to exactly one package, got %d", len(pkgs))
	}

	sess, err := c.openSession(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer sess.Close()

	prog := newProgress(c.Logger)
	var results resolver.Results
	switch {
	case len(pkgs) == 1:
		results = c.resolveSingle(ctx, sess.resolver, eco, pkgs[0], opts.version)
	case opts.progress:
		results, err = runBatchProgress(ctx, sess.resolver, eco, pkgs)
	default:
		results, err = c.resolveBatch(ctx, sess.resolver, eco, pkgs)
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Resolved %d %s package(s), %d failed", len(results), eco, results.Failed()))

	if err := c.writeResults(opts.outputOptions, format, results); err != nil {
		return err
	}
	return resultsError(results)
}

// resolveSingle resolves one package behind a spinner.
func (c *CLI) resolveSingle(ctx context.Context, r *resolver.Resolver, eco, pkg, version string) resolver.Results {
	id := pkg
	if version != "" {
		id = pkg + "@" + version
	}

	spin := c.startSpinner(ctx, fmt.Sprintf("Resolving %s %s...", eco, id))
	rec, err := r.Resolve(ctx, eco, pkg, version)
	spin.Stop()

	return resolver.Results{{ID: id, Record: rec, Err: err}}
}

// resolveBatch resolves pkgs behind a spinner.
func (c *CLI) resolveBatch(ctx context.Context, r *resolver.Resolver, eco string, pkgs []string) (resolver.Results, error) {
	spin := c.startSpinner(ctx, fmt.Sprintf("Resolving %d %s packages...", len(pkgs), eco))
	defer spin.Stop()

	logger := loggerFromContext(ctx)
	return r.ResolveBatch(ctx, eco, pkgs, resolver.BatchOptions{
		OnResult: func(res resolver.Result) {
			logger.Debug("resolved", "ecosystem", eco, "package", res.ID, "error", res.Err)
		},
	})
}

// startSpinner starts a spinner unless verbose logging would interleave
// with it.
func (c *CLI) startSpinner(ctx context.Context, msg string) *Spinner {
	s := newSpinnerWithContext(ctx, msg)
	if !c.verbose {
		s.Start()
	}
	return s
}
