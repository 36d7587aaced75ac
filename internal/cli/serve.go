package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NobleMathews/dev-versioner/pkg/api"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the resolver over HTTP",
		Long: `Serve the resolver over HTTP until interrupted.

Routes:
  GET  /healthz
  GET  /v1/ecosystems
  GET  /v1/purl?purl=<purl>
  GET  /v1/{ecosystem}/packages/{package}[?version=v]
  POST /v1/{ecosystem}/resolve   {"packages": [...]}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	sess, err := c.openSession(ctx, false)
	if err != nil {
		return err
	}
	defer sess.Close()

	printInfo("Serving %s on %s", appName, StyleHighlight.Render(addr))
	printDetail("store: %s", sess.cfg.Store.Backend)
	host := addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	printNextStep("Try", "curl http://"+host+"/v1/ecosystems")

	err = api.NewServer(sess.resolver, c.Logger).ListenAndServe(ctx, addr)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
