package main

import (
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/goforj/usersearch/server"
	"github.com/goforj/usersearch/telemetry"
)

func newServeCmd(f *flags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search page over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, log.Default())
			if err != nil {
				return err
			}
			defer func() {
				if err := a.close(ctx); err != nil {
					log.Printf("close: %v", err)
				}
			}()

			srv := server.New(cfg.HTTPAddr, a.users, server.WithMiddleware(func(h http.Handler) http.Handler {
				return telemetry.Handler(h, "usersearch")
			}))
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (overrides USERSEARCH_HTTP_ADDR)")
	return cmd
}
