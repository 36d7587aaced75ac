package cli

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/NobleMathews/dev-versioner/pkg/buildinfo"
	"github.com/NobleMathews/dev-versioner/pkg/config"
	"github.com/NobleMathews/dev-versioner/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for the command and display.
const appName = "devversioner"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command results (records, reports, config dumps).
	Out io.Writer

	configPath string
	store      string
	verbose    bool
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Resolve package versions, licenses and dependencies",
		Long: `devversioner looks packages up in their ecosystem's registry (PyPI, npm,
pkg.go.dev) and reports the latest version, license and direct dependencies.
Go modules the registry does not know are resolved from their GitHub
repository instead. Results are cached.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default: $DEVVERSIONER_CONFIG or the user config dir)")
	flags.StringVar(&c.store, "store", "", "cache backend override: "+strings.Join(config.Backends, ", "))
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.purlCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup runs before every command: it applies the log level, installs the
// log-backed hooks when verbose and attaches the logger to the context.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	level := LogInfo
	if c.verbose {
		level = LogDebug
		observability.NewLogHooks(c.Logger).Register()
	}
	c.SetLogLevel(level)
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// config loads the configuration on first use. Commands that never need it
// (completion) therefore work with a broken config file.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.store != "" {
		cfg.Store.Backend = c.store
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	c.Logger.Debug("config loaded", "store", cfg.Store.Backend, "ttl", cfg.CacheTTL.Std(), "concurrency", cfg.Concurrency)
	c.cfg = cfg
	return cfg, nil
}
