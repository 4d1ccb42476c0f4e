// Package pipeline orchestrates one pass over a plate reader export:
// read sheets, discover cycles, extract observations, annotate conditions,
// and report diagnostics.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/plateworks/od600-etl/internal/adapter/csvfile"
	"github.com/plateworks/od600-etl/internal/adapter/xlsx"
	"github.com/plateworks/od600-etl/internal/config"
	"github.com/plateworks/od600-etl/internal/domain"
	"github.com/plateworks/od600-etl/internal/observability"
)

// Result bundles one run's table with its diagnostics. The diagnostics are
// returned, not printed — the caller decides the presentation.
type Result struct {
	Table       domain.Table
	Diagnostics *domain.Diagnostics
}

// Pipeline processes export files. Safe for sequential reuse across files;
// each run owns its own diagnostics collector.
type Pipeline struct {
	logger     *slog.Logger
	metrics    *observability.Metrics
	scanWindow int
}

// New creates a Pipeline with the given observability.
func New(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		logger:     logger,
		metrics:    metrics,
		scanWindow: cfg.ScanWindow,
	}
}

// ProcessFile runs the full pass over one export. mappingPath may be empty,
// in which case the table stays unannotated. Fatal errors (unreadable input,
// no markers, nothing extracted, invalid mapping) come back as errors;
// everything recoverable lands in the result's diagnostics.
func (p *Pipeline) ProcessFile(ctx context.Context, inputPath, mappingPath string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	start := time.Now()
	p.metrics.RunsTotal.Inc()

	sheets, opts, err := p.loadSheets(inputPath)
	if err != nil {
		p.metrics.RunErrors.Inc()
		return Result{}, err
	}

	var mapping domain.WellMapping
	annotate := mappingPath != ""
	if annotate {
		// Validate the mapping before scanning so a broken mapping fails
		// fast instead of mid-join.
		if mapping, err = p.LoadMapping(mappingPath); err != nil {
			p.metrics.RunErrors.Inc()
			return Result{}, err
		}
	}

	d := domain.NewDiagnostics()
	table, err := domain.BuildTable(sheets, opts, d)
	if err != nil {
		p.metrics.RunErrors.Inc()
		return Result{}, fmt.Errorf("%s: %w", inputPath, err)
	}

	if annotate {
		table = domain.Annotate(table, mapping, d)
	}
	d.Finalize()

	p.report(inputPath, d)
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())

	return Result{Table: table, Diagnostics: d}, nil
}

// LoadMapping reads a well→condition mapping from a CSV or XLSX source.
// For workbooks the first sheet carries the mapping.
func (p *Pipeline) LoadMapping(path string) (domain.WellMapping, error) {
	var sheet domain.Sheet
	switch ext(path) {
	case ".csv":
		s, err := csvfile.ReadFile(path)
		if err != nil {
			return domain.WellMapping{}, fmt.Errorf("load mapping: %w", err)
		}
		sheet = s
	case ".xlsx", ".xls":
		sheets, err := xlsx.ReadFile(path)
		if err != nil {
			return domain.WellMapping{}, fmt.Errorf("load mapping: %w", err)
		}
		if len(sheets) == 0 {
			return domain.WellMapping{}, fmt.Errorf("load mapping: %w", domain.ErrMappingFields)
		}
		sheet = sheets[0]
	default:
		return domain.WellMapping{}, fmt.Errorf("unsupported mapping format %q: use CSV or XLSX", ext(path))
	}

	mapping, err := domain.NewWellMapping(sheet)
	if err != nil {
		return domain.WellMapping{}, fmt.Errorf("%s: %w", path, err)
	}
	p.logger.Info("mapping loaded", "path", path, "wells", mapping.Len())
	return mapping, nil
}

// loadSheets picks the row source by extension and returns the scan options
// matching that export shape.
func (p *Pipeline) loadSheets(path string) ([]domain.Sheet, domain.ScanOptions, error) {
	switch ext(path) {
	case ".csv":
		sheet, err := csvfile.ReadFile(path)
		if err != nil {
			return nil, domain.ScanOptions{}, err
		}
		return []domain.Sheet{sheet}, domain.ScanOptions{MarkerMatch: domain.MatchPrefix}, nil
	case ".xlsx", ".xls":
		sheets, err := xlsx.ReadFile(path)
		if err != nil {
			return nil, domain.ScanOptions{}, err
		}
		return sheets, domain.ScanOptions{
			MarkerMatch:      domain.MatchContains,
			GridSearchWindow: p.scanWindow,
		}, nil
	default:
		return nil, domain.ScanOptions{}, fmt.Errorf("unsupported input format %q: use CSV or XLSX", ext(path))
	}
}

// report logs the run's diagnostics and feeds the metrics.
func (p *Pipeline) report(inputPath string, d *domain.Diagnostics) {
	for _, s := range d.Sheets {
		p.logger.Info("sheet scanned", "file", inputPath, "sheet", s.Sheet, "cycles", s.Cycles)
	}
	for _, w := range d.Warnings {
		p.logger.Warn("parse anomaly", "file", inputPath, "detail", w.String())
	}
	if len(d.UnmappedWells) > 0 {
		p.logger.Warn("wells with no condition mapping",
			"file", inputPath, "wells", strings.Join(d.UnmappedWells, ", "))
	}
	p.logger.Info("export processed",
		"file", inputPath,
		"time_markers", d.TimeMarkers,
		"observations", d.Observations,
		"sheets_scanned", d.SheetsScanned,
		"sheets_skipped", d.SheetsSkipped,
	)

	p.metrics.TimeMarkers.Add(float64(d.TimeMarkers))
	p.metrics.Observations.Add(float64(d.Observations))
	p.metrics.ParseWarnings.Add(float64(len(d.Warnings)))
	p.metrics.SheetsSkipped.Add(float64(d.SheetsSkipped))
	p.metrics.UnmappedWells.Set(float64(len(d.UnmappedWells)))
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
