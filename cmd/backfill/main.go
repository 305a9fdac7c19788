// Command backfill resolves product images for article content ahead of readers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/wtsr/backend/config"
	"github.com/wtsr/backend/internal/app"
	"github.com/wtsr/backend/internal/logging"
	"github.com/wtsr/backend/internal/usecase"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		refetch    = flag.Bool("refetch", false, "ignore cached images and ask PA-API again")
		sinceDays  = flag.Int("since-days", 0, "only scan articles modified in the last N days")
		limit      = flag.Int("limit", 0, "maximum number of products to process")
		verbose    = flag.Bool("verbose", false, "log PA-API requests and failure reasons")
		products   = flag.Bool("products", false, "retry stored products that still have no image")
		sleep      = flag.Float64("sleep", 0, "seconds to wait between upstream lookups")
		configPath = flag.String("config", "", "path to a config file")
	)
	flag.Parse()

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	level := cfg.Log.Level
	if *verbose {
		level = "debug"
	}
	logger := logging.New(level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		return 1
	}
	defer components.Close()

	if *verbose {
		components.Client.SetVerbose(true)
	}

	job := usecase.NewBackfillJob(components.Articles, components.Products, components.Resolver, logger)
	stats, err := job.Run(ctx, usecase.BackfillOptions{
		Refetch:   *refetch,
		SinceDays: *sinceDays,
		Limit:     *limit,
		Products:  *products,
		Sleep:     time.Duration(*sleep * float64(time.Second)),
	})
	if stats != nil {
		fmt.Printf("Done. Updated %d products. Processed %d.\n", stats.Updated, stats.Processed)
	}
	if err != nil {
		logger.Error("backfill failed", "error", err)
		return 1
	}
	return 0
}
