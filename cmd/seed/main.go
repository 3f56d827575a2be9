// Package main provides a CLI tool that loads a JSON dataset into PostgreSQL.
//
// Usage: seed [dataset.json]
//
// Without an argument the dataset path comes from ANTHRILO_APP_DATASETPATH.
// Existing rows in the report tables are replaced.
package main

import (
	"context"
	"fmt"
	"os"

	"anthrilo/internal/infrastructure/cache"
	"anthrilo/internal/infrastructure/config"
	"anthrilo/internal/infrastructure/storage/memory"
	"anthrilo/internal/infrastructure/storage/postgres"
	"anthrilo/pkg/logger"
)

// tables in dependency order; truncation cascades.
var tables = []string{
	"fabrics", "yarns", "garments", "inventory", "panels",
	"sales", "production_plans", "production_activities", "discounts", "paid_ads",
}

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	path := cfg.App.DatasetPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if path == "" {
		log.Fatal("dataset path is required")
	}

	data, err := memory.ReadDataset(path)
	if err != nil {
		log.Fatalw("failed to read dataset", "path", path, "error", err)
	}

	ctx := logger.WithLogger(context.Background(), log)

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.DSN()))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txm := postgres.NewTxManager(pool)
	if err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return seed(ctx, postgres.NewBatchInserter(txm), data, log)
	}); err != nil {
		log.Fatalw("failed to seed dataset", "error", err)
	}

	// Running servers drop their cached reports.
	if _, err := pool.Exec(ctx, "SELECT pg_notify($1, $2)", cache.DataChangedChannel, "seed"); err != nil {
		log.Warnw("failed to notify report cache", "error", err)
	}

	log.Info("seeding completed successfully")
}

func seed(ctx context.Context, b *postgres.BatchInserter, data memory.Dataset, log *logger.Logger) error {
	truncate := make([]string, len(tables))
	for i, table := range tables {
		truncate[i] = fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)
	}
	if err := b.ExecuteBatch(ctx, truncate...); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	steps := []struct {
		table string
		copy  func() (int64, error)
	}{
		{"fabrics", func() (int64, error) { return postgres.CopyStructs(ctx, b, "fabrics", data.Fabrics) }},
		{"yarns", func() (int64, error) { return postgres.CopyStructs(ctx, b, "yarns", data.Yarns) }},
		{"garments", func() (int64, error) { return postgres.CopyStructs(ctx, b, "garments", data.Garments) }},
		{"inventory", func() (int64, error) { return postgres.CopyStructs(ctx, b, "inventory", data.Inventory) }},
		{"panels", func() (int64, error) { return postgres.CopyStructs(ctx, b, "panels", data.Panels) }},
		{"sales", func() (int64, error) { return postgres.CopyStructs(ctx, b, "sales", data.Sales) }},
		{"production_plans", func() (int64, error) { return postgres.CopyStructs(ctx, b, "production_plans", data.Plans) }},
		{"production_activities", func() (int64, error) {
			return postgres.CopyStructs(ctx, b, "production_activities", data.Activities)
		}},
		{"discounts", func() (int64, error) { return postgres.CopyStructs(ctx, b, "discounts", data.Discounts) }},
		{"paid_ads", func() (int64, error) { return postgres.CopyStructs(ctx, b, "paid_ads", data.PaidAds) }},
	}

	for _, step := range steps {
		n, err := step.copy()
		if err != nil {
			return err
		}
		log.Infow("table seeded", "table", step.table, "rows", n)
	}
	return nil
}
