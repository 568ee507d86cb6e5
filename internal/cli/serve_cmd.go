package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (webhook, admin CRUD, read views)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Serve == nil {
				return fmt.Errorf("http server not wired")
			}
			if addr == "" {
				addr = app.HTTPAddr
			}
			fmt.Printf("listening on %s\n", addr)
			return app.Serve(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from ADVISORY_HTTP_ADDR)")
	return cmd
}
