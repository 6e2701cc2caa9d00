// Command server runs the ticklob TCP gateway in front of an
// engine.Engine registry (SPEC_FULL.md §2 component F).
package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"syscall"

	"ticklob/internal/engine"
	"ticklob/internal/net"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	address := flag.String("address", "0.0.0.0", "Address to listen on")
	port := flag.Int("port", 9001, "Port to listen on")
	metricsAddress := flag.String("metrics-address", ":9090", "Address to serve Prometheus metrics on")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	registry := prometheus.NewRegistry()
	metrics := engine.NewMetrics(registry)

	eng := engine.New(
		engine.WithLogger(log.Logger),
		engine.WithMetrics(metrics),
	)
	srv := net.New(*address, *port, eng, net.WithMetricsRegistry(registry))

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		if err := http.ListenAndServe(*metricsAddress, mux); err != nil {
			log.Error().Err(err).Msg("metrics listener exited")
		}
	}()

	go srv.Run(ctx)
	<-ctx.Done()
}
