package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/framesafe/framesafe/internal/audit"
	"github.com/framesafe/framesafe/internal/cache"
	"github.com/framesafe/framesafe/internal/config"
	"github.com/framesafe/framesafe/internal/filter"
	"github.com/framesafe/framesafe/internal/logger"
	"github.com/framesafe/framesafe/internal/masking"
	"github.com/framesafe/framesafe/internal/pii"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	// Parse command line flags
	var (
		configPath   = flag.String("config", "", "Path to configuration file")
		showVersion  = flag.Bool("version", false, "Show version information")
		reportWindow = flag.Duration("report", 0, "Print an audit report for the trailing window (e.g. 24h) and exit")
		runCleanup   = flag.Bool("cleanup", false, "Prune audit events past retention and exit")
	)
	flag.Parse()

	// Show version and exit
	if *showVersion {
		fmt.Printf("FrameSafe %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Logging.File.Enabled {
		loggerConfig.File = &logger.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		}
	}

	log, err := logger.New(loggerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting FrameSafe",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("build_date", date),
	)

	// Audit storage backend
	var store audit.Store
	switch cfg.Audit.Backend {
	case "postgres":
		pg, err := audit.NewPostgresStore(&cfg.Audit.Postgres, log.WithComponent("audit-store").Logger)
		if err != nil {
			log.Fatal("Failed to initialize audit store", zap.Error(err))
		}
		store = pg
	default:
		store = audit.NewMemoryStore()
	}

	auditor := audit.New(cfg.Audit.Config, store, log.WithComponent("audit").Logger)
	defer auditor.Close()

	// Report and cleanup modes run against the configured store and exit.
	if *reportWindow > 0 {
		now := time.Now()
		fmt.Print(auditor.Report(now.Add(-*reportWindow), now))
		return
	}
	if *runCleanup {
		deleted := auditor.CleanupOldRecords()
		fmt.Printf("Deleted %d expired audit events\n", deleted)
		return
	}

	auditor.StartCleanupRoutine(time.Hour)

	detector, err := pii.New(cfg.PII.Detectors, log.WithComponent("pii").Logger)
	if err != nil {
		log.Fatal("Failed to initialize PII detector", zap.Error(err))
	}
	masker := masking.New(detector, log.WithComponent("masking").Logger)

	// Result cache; a configured but unreachable Redis degrades to in-memory.
	var resultCache cache.Cache
	if cfg.Cache.Enabled {
		if cfg.Cache.RedisURL != "" {
			redisCache, err := cache.NewRedisCache(cfg.Cache, log.WithComponent("cache").Logger)
			if err != nil {
				log.Warn("Redis cache unavailable, using in-memory cache", zap.Error(err))
				resultCache = cache.NewMemoryCache(cfg.Cache)
			} else {
				resultCache = redisCache
			}
		} else {
			resultCache = cache.NewMemoryCache(cfg.Cache)
		}
		defer resultCache.Close()
	}

	piiFilter := filter.New(filter.Options{
		Config:  cfg.Filter,
		Masking: cfg.Masking,
		Cache:   resultCache,
	}, detector, masker, auditor, log.WithComponent("filter").Logger)

	// Hot reload: a valid config file change swaps the filter policy live.
	if err := config.Watch(func(newCfg *config.Config) {
		piiFilter.UpdateConfig(newCfg.Filter)
	}); err != nil {
		log.Warn("Config watch unavailable", zap.Error(err))
	}

	// Filter text blocks from stdin, one per line, emitting JSON results.
	processingDone := make(chan error, 1)
	go func() {
		processingDone <- processStdin(piiFilter)
	}()

	// Setup graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-processingDone:
		if err != nil {
			log.Error("Input processing error", zap.Error(err))
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))
	}

	auditor.Flush()
	log.Info("Shutdown complete",
		zap.Int64("dropped_events", auditor.DroppedEvents()),
		zap.Int64("persist_failures", auditor.PersistFailures()))
}

// outcome is the per-line JSON emitted on stdout.
type outcome struct {
	FilteredText   string   `json:"filtered_text"`
	ContainedPII   bool     `json:"contained_pii"`
	DetectedTypes  []string `json:"detected_types,omitempty"`
	BlockedTypes   []string `json:"blocked_types,omitempty"`
	MaskingApplied bool     `json:"masking_applied"`
	ShouldStore    bool     `json:"should_store"`
}

// processStdin filters each input line and writes one JSON outcome per line.
func processStdin(f *filter.Filter) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	encoder := json.NewEncoder(os.Stdout)

	for scanner.Scan() {
		result := f.FilterText(scanner.Text(), "stdin")
		if err := encoder.Encode(outcome{
			FilteredText:   result.FilteredText,
			ContainedPII:   result.ContainedPII,
			DetectedTypes:  typeNames(result.DetectedTypes.Sorted()),
			BlockedTypes:   typeNames(result.BlockedTypes.Sorted()),
			MaskingApplied: result.MaskingApplied,
			ShouldStore:    result.ShouldStore,
		}); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func typeNames(types []pii.Type) []string {
	if len(types) == 0 {
		return nil
	}
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}
	return names
}
