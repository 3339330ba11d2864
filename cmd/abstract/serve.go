// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/abstractsdk/abstract/internal/deploy"
	"github.com/abstractsdk/abstract/internal/httpapi"
	"github.com/abstractsdk/abstract/internal/telemetry"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(app *App) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only HTTP API",
		Long: `Serve a read-only JSON view of the registry and accounts, plus Prometheus
metrics on /metrics when metrics are enabled in the configuration.

The server holds the state directory open until it is interrupted.`,
		Args: cobra.NoArgs,
		RunE: app.run("serve API", func(cmd *cobra.Command, _ []string) error {
			return app.withDeployment(cmd.Context(), func(s *session, d *deploy.Deployment) error {
				addr := s.cfg.API.Listen
				if cmd.Flags().Changed("listen") {
					addr = listen
				}
				opts := []httpapi.Option{httpapi.WithLogger(s.log)}
				if s.cfg.Metrics.Enabled {
					collector := telemetry.NewCollector(telemetry.DefaultNamespace)
					if err := collector.Attach(d.Chain.Bus()); err != nil {
						return err
					}
					defer collector.Detach()
					opts = append(opts, httpapi.WithMetrics(collector.Handler()))
				}
				return serve(cmd.Context(), s, addr, httpapi.New(d, opts...).Handler())
			})
		}),
	}
	cmd.Flags().StringVar(&listen, "listen", "", "address to listen on (default from config)")
	return cmd
}

// serve runs handler on addr until ctx is done, then shuts down gracefully.
func serve(ctx context.Context, s *session, addr string, handler http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info("serving API", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
