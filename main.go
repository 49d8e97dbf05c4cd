package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rental-notifier/commute"
	"rental-notifier/config"
	"rental-notifier/notify"
	"rental-notifier/scraper/openrent"
	"rental-notifier/services"
	"rental-notifier/storage"
	"rental-notifier/utils"
)

func main() {
	noNotify := flag.Bool("nonotify", false, "discover and extract listings without sending notifications")
	listingID := flag.String("listing", "", "extract a single listing id, print it as JSON and exit")
	flag.Parse()

	bootLogger := utils.NewLogger()
	cfg, err := config.Load()
	if err != nil {
		bootLogger.Error("Invalid configuration: %v", err)
		os.Exit(1)
	}
	logger := utils.NewLoggerTo(os.Stdout, utils.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("=== Rental notifier starting ===")
	logger.Info("Config: store %s | price %.0f-%.0f | routes %d | rate %dms | failed listings: %s",
		cfg.StoreBackend, cfg.PriceMin, cfg.PriceMax, len(cfg.Routes), cfg.RateLimitMs, cfg.FailedListingPolicy)

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open %s store: %v", cfg.StoreBackend, err)
		if cfg.StoreBackend == config.BackendPostgres {
			logger.Error("Make sure Docker is running: docker compose up -d")
		}
		os.Exit(1)
	}
	defer store.Close()

	var resolver services.CommuteResolver = commute.Unknown{}
	if cfg.MapsAPIKey != "" {
		r, err := commute.NewDirectionsResolver(cfg.MapsAPIKey, logger)
		if err != nil {
			logger.Error("Commute lookups disabled: %v", err)
		} else {
			resolver = r
		}
	} else {
		logger.Warn("MAPS_API_KEY not set, all commute durations will be unknown")
	}

	var notifier services.Notifier = notify.NewLogNotifier(logger)
	if cfg.SlackToken != "" {
		notifier = notify.NewSlackNotifier(cfg.SlackToken, logger)
	} else {
		logger.Warn("SLACK_TOKEN not set, notifications go to the log")
	}

	extractor := services.NewListingExtractor(store, openrent.NewPageFetcher(cfg, logger), resolver, cfg.Routes, logger)
	policy := services.NewNotificationPolicy(services.PolicyFromConfig(cfg))
	opts := services.PipelineOptions{
		RetryFailed: cfg.FailedListingPolicy == config.FailedRetry,
		BaseURL:     cfg.BaseURL,
		Routes:      cfg.Routes,
	}

	if *listingID != "" {
		pipeline := services.NewPipeline(nil, store, extractor, policy, notifier, nil, opts, logger)
		if err := debugListing(ctx, pipeline, *listingID); err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
		return
	}

	decisions, err := storage.NewDecisionLog(cfg.DecisionLogPath)
	if err != nil {
		logger.Error("Failed to open decision log: %v", err)
		os.Exit(1)
	}
	defer decisions.Close()

	index := openrent.NewIndexScraper(cfg, logger)
	pipeline := services.NewPipeline(index, store, extractor, policy, notifier, decisions, opts, logger)

	report, err := pipeline.Run(ctx, !*noNotify)
	if report != nil {
		services.NewReportService(logger).Print(os.Stdout, report)
	}
	if err != nil {
		logger.Error("Run failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("  Done. Records → %s | Decisions → %s\n\n", storeLocation(cfg), cfg.DecisionLogPath)
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.StoreBackend == config.BackendPostgres {
		return storage.NewPostgresStore(ctx, cfg.DSN())
	}
	return storage.NewFileStore(cfg.DataDir)
}

func storeLocation(cfg *config.Config) string {
	if cfg.StoreBackend == config.BackendPostgres {
		return "PostgreSQL (listings table)"
	}
	return cfg.DataDir
}

func debugListing(ctx context.Context, p *services.Pipeline, id string) error {
	l, d, err := p.Debug(ctx, id)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(struct {
		Listing  any `json:"listing"`
		Decision any `json:"decision"`
	}{l, d}, "", "    ")
	if err != nil {
		return fmt.Errorf("encode listing: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
