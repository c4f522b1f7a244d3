package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/OldStager01/pool-occupancy/internal/logger"
	"github.com/OldStager01/pool-occupancy/internal/simulator"
	"github.com/OldStager01/pool-occupancy/pkg/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	port := flag.Int("port", 9000, "simulator server port")
	logLevel := flag.String("log-level", "info", "log level")
	configPath := flag.String("config", "", "config file whose pool hours the feed follows")
	base := flag.Float64("base", 25, "average headcount before the pattern is applied")
	variance := flag.Float64("variance", 0, "random spread around the expected headcount")
	samples := flag.Int("samples", 4, "readings per open hour")
	pattern := flag.String("pattern", "weekday_peak", "traffic pattern: "+strings.Join(simulator.PatternNames(), ", "))
	flag.Parse()

	logger.Setup(*logLevel, "development")
	logger.Info("Starting occupancy simulator")

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	domain, err := cfg.Pool.Domain()
	if err != nil {
		return fmt.Errorf("invalid pool hours: %w", err)
	}

	sim := simulator.New(simulator.Config{
		Port:           *port,
		Domain:         domain,
		BaseOccupancy:  *base,
		Variance:       *variance,
		SamplesPerHour: *samples,
		Pattern:        *pattern,
	})

	if err := sim.Start(); err != nil {
		return fmt.Errorf("failed to start simulator: %w", err)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down simulator")
	return sim.Stop()
}
