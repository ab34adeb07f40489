package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"cei-crawler/internal/cei"
	"cei-crawler/internal/cei/ceiobs"
	"cei-crawler/internal/export"
	"cei-crawler/internal/interfaces"
	"cei-crawler/internal/logger"
	"cei-crawler/internal/store"
	"cei-crawler/internal/trace"
)

// initializeSystem initializes logger and tracer
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		logger.Warn(context.Background(), "Failed to initialize tracer", "error", err)
	}
	return nil
}

// loadConfig loads the configuration and applies the output flags
func loadConfig(ctx context.Context) (*store.Config, error) {
	cfg, err := store.LoadConfig(configPath)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", configPath)
		return nil, err
	}
	if format != "" {
		cfg.Output.Format = format
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	return cfg, nil
}

// initializeCrawler builds the crawler with observability; sessions log in on first use
func initializeCrawler(cfg *store.Config) (interfaces.Crawler, error) {
	username, password := store.Credentials()
	c, err := cei.New(cfg, username, password)
	if err != nil {
		return nil, err
	}
	return ceiobs.Wrap(c), nil
}

// run loads config, builds the crawler, fetches and writes one extract
func run(ctx context.Context, fetch func(context.Context, interfaces.Crawler) (export.Extract, error)) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	outFormat, err := export.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	crawler, err := initializeCrawler(cfg)
	if err != nil {
		return err
	}
	defer crawler.Close()

	extract, err := fetch(ctx, crawler)
	if err != nil {
		return err
	}

	if !save && outputDir == "" {
		return export.Render(os.Stdout, extract, outFormat)
	}
	path, err := export.NewExporter(cfg.Output.Dir).SaveExtract(extract, outFormat)
	if err != nil {
		return err
	}
	logger.Info(ctx, "Extract saved", "path", path, "records", len(extract.Records))
	return nil
}
