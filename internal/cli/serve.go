package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/ellie/internal/httpapi"
	"github.com/mesh-intelligence/ellie/internal/lifecycle"
	"github.com/mesh-intelligence/ellie/internal/telemetry"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP JSON API",
		Long: "Serve the equipment API under /api, plus /healthz and /metrics.\n" +
			"Tracing is exported over OTLP/HTTP when ELLIE_OTEL_ENDPOINT is set.",
		Args: cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.settings.HTTPAddr
			}
			return a.serve(cmd, addr)
		}),
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: http_addr from config.yaml)")
	return cmd
}

func (a *app) serve(cmd *cobra.Command, addr string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.New(cmd.ErrOrStderr(), "ellie: ", log.LstdFlags)

	shutdown, err := telemetry.Setup(ctx, "ellie")
	if err != nil {
		return sysError{fmt.Errorf("setup tracing: %w", err)}
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Printf("tracing shutdown: %v", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc, done, err := a.openService(cmd, lifecycle.WithMetrics(telemetry.NewMetrics(reg)))
	if err != nil {
		return err
	}
	defer done()

	router := httpapi.NewRouter(svc, httpapi.Options{
		WriteRate:  a.settings.WriteRate,
		WriteBurst: a.settings.WriteBurst,
		Gatherer:   reg,
		Logger:     log.New(cmd.ErrOrStderr(), "http: ", log.LstdFlags),
	})

	ready := make(chan string, 1)
	go func() {
		if bound, ok := <-ready; ok {
			logger.Printf("listening on http://%s (backend %s)", bound, a.settings.Backend)
		}
	}()
	if err := httpapi.Serve(ctx, addr, router, ready); err != nil {
		close(ready)
		return sysError{err}
	}
	logger.Printf("stopped")
	return nil
}
