package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"entrosift/config"
	"entrosift/logger"
	"entrosift/output"
	"entrosift/scanner"
	"entrosift/tracing"
	"entrosift/version"
)

func main() {
	if err := tracing.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start trace: %v\n", err)
	} else {
		defer tracing.Stop()
	}

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.LogLevel)
	logger.Infof("entrosift %s starting, writing results to %s", version.Version, cfg.OutputFileName)

	// Record start time
	startTime := time.Now()

	// Prepare metrics
	metrics := output.Metrics{
		StartTime: startTime.Format(time.RFC3339),
	}

	// Prepare output
	sink, err := output.NewSink(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize output: %v", err)
	}

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleSignals(cancel)

	// Start scanning
	scanErr := scanner.Run(ctx, cfg, &metrics, sink)

	// Record end time
	metrics.EndTime = time.Now().Format(time.RFC3339)

	// Flush whatever made it to the sink; an interrupted run still
	// leaves a valid partial CSV behind.
	if err := sink.Close(&metrics); err != nil {
		logger.Fatalf("Failed to close output: %v", err)
	}

	if scanErr != nil {
		logger.Fatalf("Scanning failed: %v", scanErr)
	}

	if err := sink.Finalize(); err != nil {
		logger.Fatalf("Failed to sort output: %v", err)
	}

	logger.Infof("Scanning completed successfully: %d files processed, %d matches found.",
		metrics.FilesProcessed, metrics.MatchesFound)
}

func handleSignals(cancelFunc context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	handleSignalEvent(cancelFunc, sigChan)
}

func handleSignalEvent(cancelFunc context.CancelFunc, sigChan <-chan os.Signal) {
	<-sigChan
	logger.Info("Interrupt signal received. Shutting down...")
	cancelFunc()
}
