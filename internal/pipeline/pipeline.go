// Package pipeline wires the stages into the two end-to-end runs: building
// the sales cube and rebuilding the warehouse.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"salescube/internal/config"
	"salescube/internal/cube"
	"salescube/internal/logging"
	"salescube/internal/metrics"
	"salescube/internal/source"
	"salescube/internal/storage"
	"salescube/internal/warehouse"
)

// CubeResult summarizes one cube build.
type CubeResult struct {
	RunID      string
	FactRows   int
	CubeRows   int
	OutputPath string
}

// BuildCube runs read, join, derive, aggregate, write.
func BuildCube(ctx context.Context, cfg *config.Config, m metrics.Backend) (CubeResult, error) {
	var res CubeResult
	res.RunID = uuid.NewString()
	log := logging.Logger.With().Str("run_id", res.RunID).Logger()

	ref, err := cfg.ReferenceInstant()
	if err != nil {
		return res, err
	}

	start := time.Now()
	tables, stats, err := source.LoadCube(ctx, source.Paths{
		Sales:     cfg.Sources.SalesPath,
		Customers: cfg.Sources.CustomersPath,
		Products:  cfg.Sources.ProductsPath,
	})
	if err != nil {
		metrics.StageDone(m, "read", "error", time.Since(start))
		return res, fmt.Errorf("read inputs: %w", err)
	}
	metrics.StageRows(m, "read", "in", tables.Sales.Len())
	metrics.StageDone(m, "read", "ok", time.Since(start))
	log.Info().
		Int("sales", tables.Sales.Len()).
		Int("customers", tables.Customers.Len()).
		Int("products", tables.Products.Len()).
		Int("malformed", stats.MalformedRecords).
		Int("parse_failures", stats.ParseFailures).
		Strs("missing_inputs", stats.MissingInputs).
		Dur("duration", time.Since(start)).
		Msg("stage=read")

	start = time.Now()
	facts, joinStats, err := cube.Join(tables.Sales, tables.Customers, tables.Products)
	if err != nil {
		metrics.StageDone(m, "join", "error", time.Since(start))
		return res, fmt.Errorf("join: %w", err)
	}
	metrics.StageRows(m, "join", "in", joinStats.SalesIn)
	metrics.StageRows(m, "join", "out", joinStats.FactsOut)
	metrics.StageRows(m, "join", "dropped", joinStats.DroppedNoCustomer+joinStats.DroppedNoProduct)
	metrics.StageDone(m, "join", "ok", time.Since(start))
	log.Info().
		Int("in", joinStats.SalesIn).
		Int("out", joinStats.FactsOut).
		Int("dropped_no_customer", joinStats.DroppedNoCustomer).
		Int("dropped_no_product", joinStats.DroppedNoProduct).
		Dur("duration", time.Since(start)).
		Msg("stage=join")

	start = time.Now()
	derived, deriveStats, err := cube.Derive(facts, ref)
	if err != nil {
		metrics.StageDone(m, "derive", "error", time.Since(start))
		return res, fmt.Errorf("derive: %w", err)
	}
	metrics.StageRows(m, "derive", "out", derived.Len())
	metrics.StageDone(m, "derive", "ok", time.Since(start))
	log.Info().
		Int("rows", deriveStats.RowsIn).
		Int("parse_failures", deriveStats.ParseFailures).
		Time("reference", ref).
		Dur("duration", time.Since(start)).
		Msg("stage=derive")

	start = time.Now()
	result, err := cube.Aggregate(derived, cube.AggregateOptions{GroupByAmount: cfg.Cube.GroupByAmount})
	if err != nil {
		metrics.StageDone(m, "aggregate", "error", time.Since(start))
		return res, fmt.Errorf("aggregate: %w", err)
	}
	metrics.StageRows(m, "aggregate", "out", result.Len())
	metrics.StageDone(m, "aggregate", "ok", time.Since(start))
	log.Info().
		Int("groups", result.Len()).
		Dur("duration", time.Since(start)).
		Msg("stage=aggregate")

	start = time.Now()
	out, err := os.Create(cfg.Cube.OutputPath)
	if err != nil {
		metrics.StageDone(m, "write", "error", time.Since(start))
		return res, fmt.Errorf("create output: %w", err)
	}
	if err := cube.WriteCSV(out, result); err != nil {
		_ = out.Close()
		metrics.StageDone(m, "write", "error", time.Since(start))
		return res, fmt.Errorf("write cube: %w", err)
	}
	if err := out.Close(); err != nil {
		return res, err
	}
	metrics.StageDone(m, "write", "ok", time.Since(start))
	log.Info().
		Str("path", cfg.Cube.OutputPath).
		Dur("duration", time.Since(start)).
		Msg("stage=write")

	res.FactRows = derived.Len()
	res.CubeRows = result.Len()
	res.OutputPath = cfg.Cube.OutputPath
	return res, nil
}

// LoadResult summarizes one warehouse rebuild.
type LoadResult struct {
	RunID string
	Stats warehouse.LoadStats
}

// LoadWarehouse runs read, dedupe, rebuild against the configured backend.
func LoadWarehouse(ctx context.Context, cfg *config.Config, m metrics.Backend) (LoadResult, error) {
	var res LoadResult
	res.RunID = uuid.NewString()
	log := logging.Logger.With().Str("run_id", res.RunID).Logger()

	start := time.Now()
	tables, stats, err := source.LoadWarehouse(ctx, source.Paths{
		Sales:     cfg.Sources.SalesPath,
		Customers: cfg.Sources.CustomersPath,
		Products:  cfg.Sources.ProductsPath,
	})
	if err != nil {
		metrics.StageDone(m, "read", "error", time.Since(start))
		return res, fmt.Errorf("read inputs: %w", err)
	}
	metrics.StageRows(m, "read", "in", tables.Sales.Len())
	metrics.StageDone(m, "read", "ok", time.Since(start))
	log.Info().
		Int("sales", tables.Sales.Len()).
		Int("customers", tables.Customers.Len()).
		Int("products", tables.Products.Len()).
		Int("malformed", stats.MalformedRecords).
		Int("parse_failures", stats.ParseFailures).
		Strs("missing_inputs", stats.MissingInputs).
		Dur("duration", time.Since(start)).
		Msg("stage=read")

	repo, err := storage.New(ctx, storage.Config{
		Kind:      cfg.Warehouse.Kind,
		DSN:       os.ExpandEnv(cfg.Warehouse.DSN),
		BatchSize: cfg.Warehouse.BatchSize,
	})
	if err != nil {
		return res, fmt.Errorf("open %s repository: %w", cfg.Warehouse.Kind, err)
	}
	defer repo.Close()

	start = time.Now()
	loadStats, err := warehouse.Load(ctx, repo, warehouse.Batch{
		Customers: tables.Customers,
		Products:  tables.Products,
		Sales:     tables.Sales,
	})
	if err != nil {
		metrics.StageDone(m, "load", "error", time.Since(start))
		return res, fmt.Errorf("load warehouse: %w", err)
	}
	metrics.StageRows(m, "load", "in", loadStats.CustomersIn+loadStats.SalesIn+loadStats.ProductsLoaded)
	metrics.StageRows(m, "load", "out", loadStats.CustomersLoaded+loadStats.SalesLoaded+loadStats.ProductsLoaded)
	metrics.StageRows(m, "load", "deduped", loadStats.CustomerDupes+loadStats.SaleDupes)
	metrics.StageDone(m, "load", "ok", time.Since(start))
	log.Info().
		Int("customers", loadStats.CustomersLoaded).
		Int("customer_dupes", loadStats.CustomerDupes).
		Int("products", loadStats.ProductsLoaded).
		Int("sales", loadStats.SalesLoaded).
		Int("sale_dupes", loadStats.SaleDupes).
		Dur("duration", time.Since(start)).
		Msg("stage=load")

	res.Stats = loadStats
	return res, nil
}
