package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NobleMathews/dev-versioner/pkg/config"
	"github.com/NobleMathews/dev-versioner/pkg/errors"
)

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}

	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configPathCommand())

	return cmd
}

// configShowCommand creates the "config show" subcommand.
func (c *CLI) configShowCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := config.Format(format)
			if f != config.FormatTOML && f != config.FormatYAML {
				return errors.New(errors.ErrCodeInvalidInput, "unknown config format %q (want toml or yaml)", format)
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}
			return cfg.Redacted().Encode(c.Out, f)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(config.FormatTOML), "toml or yaml")
	return cmd
}

// configPathCommand creates the "config path" subcommand.
func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the default config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(c.Out, config.DefaultPath())
			return nil
		},
	}
}
