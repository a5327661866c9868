// Package main runs a single screening pass over the perpetual futures
// universe and writes the surviving pairs to the configured output.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"pairscan/internal/config"
	"pairscan/internal/exchange"
	"pairscan/internal/observability"
	"pairscan/internal/screener"
	"pairscan/internal/storage"
	"pairscan/internal/storage/clickhouse"
	"pairscan/internal/storage/csvfile"
	"pairscan/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration (built-in defaults when empty)")
	verbose := flag.Bool("verbose", false, "Force debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}

	log := observability.NewLogger(cfg.Log)
	metrics := observability.NewMetrics("pairscan", nil)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Warn().Str("signal", sig.String()).Msg("shutdown signal received, cancelling run")
		cancel()
	}()

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, log)
	}

	client := exchange.NewClient(
		exchange.WithBaseURL(cfg.Exchange.BaseURL),
		exchange.WithWSURL(cfg.Exchange.WSURL),
		exchange.WithWSSnapshot(cfg.Exchange.UseWSSnapshot),
		exchange.WithRateLimit(cfg.Exchange.RateLimit),
		exchange.WithTimeout(cfg.Exchange.Timeout),
		exchange.WithLogger(log),
	)

	opts := screener.Options{
		Provider:    client,
		ResultStore: csvfile.NewResultStore(cfg.OutputFile),
		Config:      cfg,
		Logger:      log,
		Metrics:     metrics,
	}

	if cfg.PostgresDSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to postgres: %v\n", err)
			os.Exit(1)
		}
		defer pool.Close()
		opts.MirrorStores = []storage.ResultStore{postgres.NewResultStore(pool)}
	}

	if cfg.ClickHouseDSN != "" {
		conn, err := clickhouse.NewConn(ctx, cfg.ClickHouseDSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to clickhouse: %v\n", err)
			os.Exit(1)
		}
		defer conn.Close()
		opts.SeriesArchive = clickhouse.NewSeriesArchive(conn)
	}

	result, err := screener.New(opts).Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Run cancelled")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Screening failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Screening run %s completed (%s):\n", result.RunID, result.Outcome)
	fmt.Printf("  Universe:    %d instruments\n", result.UniverseSize)
	fmt.Printf("  Filtered:    %d instruments\n", result.FilteredSize)
	fmt.Printf("  Series kept: %d\n", result.SeriesRetained)
	fmt.Printf("  Pairs tested: %d (%d failed)\n", result.PairsTested, result.PairsFailed)
	fmt.Printf("  Significant: %d\n", result.Significant)
	if result.Outcome == screener.OutcomeOK {
		fmt.Printf("  Output: %s\n", cfg.OutputFile)
	}
}

func serveMetrics(addr string, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("metrics server error")
	}
}
