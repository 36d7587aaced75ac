package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/NobleMathews/dev-versioner/pkg/cache"
	"github.com/NobleMathews/dev-versioner/pkg/config"
	"github.com/NobleMathews/dev-versioner/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the record cache",
	}

	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cacheGetCommand())
	cmd.AddCommand(c.cacheDeleteCommand())

	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache store lives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			fmt.Fprintln(c.Out, storeLocation(cfg.Store))
			return nil
		},
	}
}

// storeLocation describes where a backend keeps its data.
func storeLocation(s config.Store) string {
	switch s.Backend {
	case config.BackendFile, "":
		if s.Dir == "" {
			return config.DefaultCacheDir()
		}
		return s.Dir
	case config.BackendRedis:
		return fmt.Sprintf("redis://%s/%d", s.Addr, s.DB)
	case config.BackendMongo:
		return fmt.Sprintf("%s (%s.%s)", s.URI, s.Database, s.Collection)
	case config.BackendSQLite, config.BackendPostgres:
		return s.DSN
	default:
		return "(" + s.Backend + ")"
	}
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached record in this namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCacheClear(cmd.Context())
		},
	}
}

func (c *CLI) runCacheClear(ctx context.Context) error {
	sess, err := c.openSession(ctx, false)
	if err != nil {
		return err
	}
	defer sess.Close()

	clearer, ok := sess.store.(cache.Clearer)
	if !ok {
		return errors.New(errors.ErrCodeInvalidConfig, "store backend %q cannot be cleared", sess.cfg.Store.Backend)
	}

	prefix := sess.resolver.Cache().Prefix()
	spin := c.startSpinner(ctx, "Clearing cache...")
	n, err := clearer.Clear(ctx, prefix)
	if err != nil {
		spin.StopWithError("Clear failed")
		return err
	}
	spin.StopWithSuccess(fmt.Sprintf("Cleared %d cached records", n))
	printDetail("Store: %s", storeLocation(sess.cfg.Store))
	return nil
}

// cacheGetCommand creates the "cache get" subcommand.
func (c *CLI) cacheGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <ecosystem> <package>",
		Short: "Print a cached record without contacting any registry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCacheGet(cmd.Context(), args[0], args[1])
		},
	}
}

func (c *CLI) runCacheGet(ctx context.Context, eco, pkg string) error {
	sess, err := c.openSession(ctx, false)
	if err != nil {
		return err
	}
	defer sess.Close()

	desc, _, err := sess.resolver.Registry().Lookup(eco)
	if err != nil {
		return err
	}
	rec, ok, err := sess.resolver.Cache().Get(ctx, desc.ID, pkg)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "%s %s is not cached", desc.ID, pkg)
	}

	now := time.Now()
	state := "stale"
	if rec.Fresh(now, sess.cfg.CacheTTL.Std()) {
		state = "fresh"
	}
	age := now.Sub(rec.Timestamp).Round(time.Second)
	loggerFromContext(ctx).Info("cached record", "key", sess.resolver.Cache().Key(desc.ID, pkg), "age", age, "state", state)

	enc := json.NewEncoder(c.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

// cacheDeleteCommand creates the "cache delete" subcommand.
func (c *CLI) cacheDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <ecosystem> <package>",
		Short: "Remove one cached record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCacheDelete(cmd.Context(), args[0], args[1])
		},
	}
}

func (c *CLI) runCacheDelete(ctx context.Context, eco, pkg string) error {
	sess, err := c.openSession(ctx, false)
	if err != nil {
		return err
	}
	defer sess.Close()

	desc, _, err := sess.resolver.Registry().Lookup(eco)
	if err != nil {
		return err
	}
	if err := sess.resolver.Cache().Delete(ctx, desc.ID, pkg); err != nil {
		return err
	}
	printSuccess("Deleted %s", sess.resolver.Cache().Key(desc.ID, pkg))
	return nil
}
