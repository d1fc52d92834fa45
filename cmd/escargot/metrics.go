package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/exporter-toolkit/web"
	"golang.org/x/sync/errgroup"

	"escargot/internal/telemetry"
)

const metricsShutdownTimeout = 3 * time.Second

// serveMetrics starts a Prometheus HTTP endpoint over m's registry at
// addr and joins it into g, the way kube-state-metrics' pkg/app/server.go
// runs its telemetry server through an errgroup-style run group built
// on exporter-toolkit's web.ListenAndServe (TLS/basic-auth config file
// support, here left unset since escargot's metrics server is a local
// debugging aid rather than a cluster-facing endpoint). Shutdown is
// driven by ctx. serveMetrics returns as soon as both goroutines are
// started; g.Wait reports the server's error, or the shutdown result
// once ctx is cancelled.
func serveMetrics(ctx context.Context, g *errgroup.Group, addr string, m *telemetry.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux}
	flags := web.FlagConfig{WebListenAddresses: &[]string{addr}}
	sLogger := slog.New(logr.ToSlogHandler(logger))

	g.Go(func() error {
		return web.ListenAndServe(srv, &flags, sLogger)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
