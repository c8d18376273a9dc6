// Package pipeline wires fetching, cleaning and persistence into one run.
package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"accidentes/internal/config"
	"accidentes/internal/fetcher"
	"accidentes/internal/logger"
	"accidentes/internal/metrics"
	"accidentes/internal/models"
	"accidentes/internal/normalizer"
	"accidentes/internal/writer"
	"accidentes/pkg/metadata"

	"github.com/google/uuid"
)

// Options tune a single run.
type Options struct {
	// DryRun runs every stage but writes nothing.
	DryRun bool
	// Client overrides the HTTP client used by the fetcher.
	Client *http.Client
}

// Result summarizes a run.
type Result struct {
	RunID      string
	Fetch      fetcher.Metrics
	Report     *normalizer.Report
	Table      *models.CanonicalTable
	BytesOut   int64
	OutputPath string
	XLSXPath   string
	Manifest   *metadata.Manifest
	Duration   time.Duration
	DryRun     bool
}

// Run executes one fetch, clean and write cycle. On any error the
// destination files are left as they were.
func Run(ctx context.Context, cfg *config.Config, log *logger.Logger, opts Options) (*Result, error) {
	startTime := time.Now()

	result := &Result{
		RunID:  uuid.NewString(),
		DryRun: opts.DryRun,
	}

	log = log.With("run_id", result.RunID)
	m := metrics.New()

	err := run(ctx, cfg, log, opts, m, result)
	result.Duration = time.Since(startTime)

	if err == nil {
		m.RecordSuccess(result.Duration, time.Now())
	}

	if cfg.Metrics.TextfilePath != "" && !opts.DryRun {
		if mErr := m.WriteTextfile(cfg.Metrics.TextfilePath); mErr != nil {
			log.Warn("Metrics export failed", "path", cfg.Metrics.TextfilePath, "error", mErr)
		}
	}

	if err != nil {
		log.Error("Run failed", "error", err, "duration", result.Duration)

		return result, err
	}

	log.Info("Run complete",
		"rows", result.Report.CanonicalRows,
		"excluded", result.Report.ExcludedRows,
		"duration", result.Duration,
		"dry_run", opts.DryRun,
	)

	return result, nil
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger, opts Options, m *metrics.Metrics, result *Result) error {
	// Phase 1: ingestion
	log.Info("Fetching source table", "source", cfg.Source.GetSource())

	f := fetcher.New(cfg.Source)
	if opts.Client != nil {
		f = fetcher.NewWithClient(cfg.Source, opts.Client)
	}

	raw, fetchMetrics, err := f.Fetch(ctx)
	result.Fetch = fetchMetrics

	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	m.RowsFetched.Add(float64(len(raw.Records)))
	log.Info("Fetched source table",
		"bytes", fetchMetrics.Bytes,
		"status", fetchMetrics.StatusCode,
		"rows", len(raw.Records),
		"columns", len(raw.Header),
		"duration", fetchMetrics.Duration,
	)

	// Phase 2: cleaning
	processor := normalizer.NewProcessor(cfg.Cleaning, cfg.Features)

	table, report, err := processor.Process(raw)
	if err != nil {
		return fmt.Errorf("clean: %w", err)
	}

	result.Table = table
	result.Report = report
	m.RecordExclusions(report.Exclusions)

	logReport(log, report)

	if opts.DryRun {
		log.Info("Dry run, skipping writes", "output", cfg.Output.Path)

		return nil
	}

	// Phase 3: persistence
	size, err := writer.NewCSVWriter(writer.Options{CreateDirs: cfg.Output.CreateDirs}).Write(cfg.Output.Path, table)
	if err != nil {
		return err
	}

	result.OutputPath = cfg.Output.Path
	result.BytesOut = size
	m.RowsWritten.Add(float64(table.Len()))
	log.Info("Wrote canonical table", "path", cfg.Output.Path, "rows", table.Len(), "bytes", size)

	if cfg.Output.XLSXPath != "" {
		xw := writer.NewXLSXWriter(writer.Options{CreateDirs: cfg.Output.CreateDirs})
		if err := xw.Write(cfg.Output.XLSXPath, table); err != nil {
			return err
		}

		result.XLSXPath = cfg.Output.XLSXPath
		log.Info("Wrote spreadsheet copy", "path", cfg.Output.XLSXPath)
	}

	if cfg.Output.Manifest {
		manifest, err := metadata.Sign(cfg.Output.Path, cfg.ManifestPath(), metadata.Manifest{
			RunID:   result.RunID,
			Source:  cfg.Source.GetSource(),
			Rows:    table.Len(),
			Columns: table.Header(),
		})
		if err != nil {
			return fmt.Errorf("sign output: %w", err)
		}

		result.Manifest = manifest
		log.Debug("Signed canonical table", "manifest", cfg.ManifestPath(), "hash", manifest.Hash)
	}

	return nil
}

func logReport(log *logger.Logger, report *normalizer.Report) {
	if len(report.DroppedColumns) > 0 {
		log.Info("Dropped columns", "columns", report.DroppedColumns)
	}

	for _, nc := range report.NullCounts {
		if nc.Count > 0 {
			log.Info("Missing values", "column", nc.Column, "count", nc.Count)
		}
	}

	log.Info("Rows with missing values dropped", "rows", report.RowsWithNulls())

	for _, reason := range models.Reasons {
		if n := report.Exclusions[reason]; n > 0 {
			log.Info("Rows excluded", "reason", string(reason), "rows", n)
		}
	}

	log.Info("Cleaning complete",
		"source_rows", report.SourceRows,
		"canonical_rows", report.CanonicalRows,
		"high_risk_settlements", len(report.HighRiskSettlements),
		"kept_accident_types", report.KeptAccidentTypes,
	)
}
