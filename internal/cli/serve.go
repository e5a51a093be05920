package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layerstack/internal/server"
	"github.com/matzehuels/layerstack/pkg/io"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr, data string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a sample document over HTTP",
		Long: `Serve a sample document over HTTP.

Routes:
  GET /api/testdata   the document as stored in the data file
  GET /api/sample     a model (?model=N) normalized and renumbered
  GET /api/render     a model drawn as ?format=svg|dot
  GET /healthz        liveness

The address defaults to :3000 or $PORT; the data file to
examples/samples/207296_model.json or $LAYERSTACK_DATA.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg()
			if addr == "" {
				addr = cfg.Server.Addr
			}
			if data == "" {
				data = cfg.Server.Data
			}

			raw, err := io.ReadFile(data)
			if err != nil {
				return fmt.Errorf("load data file: %w", err)
			}
			srv, err := server.New(raw, data, c.Logger)
			if err != nil {
				return fmt.Errorf("load data file: %w", err)
			}
			printInfo("Serving %s on %s", data, StyleHighlight.Render(addr))
			printNextStep("Fetch", fmt.Sprintf("%s show http://localhost%s/api/testdata", appName, addr))

			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :3000)")
	cmd.Flags().StringVar(&data, "data", "", "sample document to serve (default from config)")
	return cmd
}
