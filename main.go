package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldops-forecast/config"
	"fieldops-forecast/formatter"
	"fieldops-forecast/metrics"
	"fieldops-forecast/pipeline"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Flags override the environment
	outputDir := flag.String("output-dir", cfg.OutputDir, "Directory holding the exports; outputs and models are written there (required)")
	format := flag.String("format", cfg.ReportFormat, "Report format: text|json|csv")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "Address to expose Prometheus metrics (e.g., :9090)")
	pushGateway := flag.String("push-url", cfg.PushURL, "Pushgateway URL to push metrics to (e.g., http://localhost:9091)")
	workers := flag.Int("workers", cfg.GridWorkers, "Concurrent grid search fits (0 = number of CPUs)")
	wait := flag.Bool("wait", false, "Keep process running after completion to allow for metric scraping")
	flag.Parse()

	cfg.OutputDir = *outputDir
	cfg.ReportFormat = *format
	cfg.MetricsAddr = *metricsAddr
	cfg.PushURL = *pushGateway
	cfg.GridWorkers = *workers

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "\nUsage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	runID := uuid.NewString()
	logger := zerolog.New(os.Stderr).Level(level).With().
		Timestamp().
		Str("service", "fieldops-forecast").
		Str("run_id", runID).
		Logger()

	// Start metrics server if address provided
	if cfg.MetricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server listening")
			if err := http.ListenAndServe(cfg.MetricsAddr, nil); err != nil {
				logger.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := pipeline.New(pipeline.Options{
		OutputDir:     cfg.OutputDir,
		RunID:         runID,
		Seed:          cfg.RandomSeed,
		HorizonMonths: cfg.HorizonMonths,
		GridWorkers:   cfg.GridWorkers,
	}, logger)
	summary, runErr := runner.Run(ctx)

	// Output based on format
	switch cfg.ReportFormat {
	case "json":
		fmt.Println(formatter.FormatJSON(summary))
	case "csv":
		fmt.Print(formatter.FormatCSV(summary))
	default: // "text"
		fmt.Print(formatter.FormatText(summary))
	}

	// Handle metrics pushing or waiting
	if cfg.PushURL != "" {
		jobName := "fieldops_forecast"
		if err := push.New(cfg.PushURL, jobName).Gatherer(metrics.Registry).Push(); err != nil {
			logger.Error().Err(err).Msg("error pushing to Pushgateway")
		} else {
			logger.Info().Msg("metrics pushed to Pushgateway")
		}
	}

	if *wait && cfg.MetricsAddr != "" && runErr == nil {
		logger.Info().Msg("process kept alive for metric scraping, press Ctrl+C to exit")
		<-ctx.Done()
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		stop()
		os.Exit(1)
	}
}
