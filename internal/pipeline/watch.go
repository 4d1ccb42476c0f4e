package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/plateworks/od600-etl/internal/adapter/csvout"
	"github.com/plateworks/od600-etl/internal/domain"
	"github.com/plateworks/od600-etl/internal/observability"
)

// defaultSettle is how long the watcher waits after a create event before
// reading, so the instrument software finishes writing the export.
const defaultSettle = 500 * time.Millisecond

// ObservationSink receives the observations of each processed export.
// The Kafka adapter implements it; a nil sink disables publishing.
type ObservationSink interface {
	PublishTable(ctx context.Context, sourceFile string, table domain.Table) error
}

// Watcher processes every new export dropped into a directory. Failures on
// one file are logged and skipped; the watcher keeps running.
type Watcher struct {
	pipeline    *Pipeline
	inDir       string
	outDir      string
	mappingPath string
	policy      csvout.Policy
	sink        ObservationSink
	logger      *slog.Logger
	metrics     *observability.Metrics
	settle      time.Duration
	ready       atomic.Bool
}

// NewWatcher creates a Watcher. sink may be nil.
func NewWatcher(p *Pipeline, inDir, outDir, mappingPath string, policy csvout.Policy,
	sink ObservationSink, logger *slog.Logger, metrics *observability.Metrics) *Watcher {
	return &Watcher{
		pipeline:    p,
		inDir:       inDir,
		outDir:      outDir,
		mappingPath: mappingPath,
		policy:      policy,
		sink:        sink,
		logger:      logger,
		metrics:     metrics,
		settle:      defaultSettle,
	}
}

// SetSettle overrides the post-create settle delay. Tests use a short one.
func (w *Watcher) SetSettle(d time.Duration) { w.settle = d }

// CheckReadiness returns nil once at least one export has been processed.
func (w *Watcher) CheckReadiness(_ context.Context) error {
	if !w.ready.Load() {
		return errors.New("no exports processed yet")
	}
	return nil
}

// Run watches the inbox until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.inDir); err != nil {
		return fmt.Errorf("watch %s: %w", w.inDir, err)
	}

	w.logger.Info("watching for exports", "in", w.inDir, "out", w.outDir)
	w.metrics.WatcherRunning.Set(1)
	defer w.metrics.WatcherRunning.Set(0)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopping", "reason", ctx.Err())
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) || !isExport(ev.Name) {
				continue
			}
			if !sleepWithContext(ctx, w.settle) {
				return nil
			}
			w.processOne(ctx, ev.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// processOne runs the pipeline over a single new export and writes its table.
func (w *Watcher) processOne(ctx context.Context, path string) {
	result, err := w.pipeline.ProcessFile(ctx, path, w.mappingPath)
	if err != nil {
		w.logger.Error("processing failed, skipping file", "file", path, "error", err)
		return
	}

	outPath := filepath.Join(w.outDir, outputName(filepath.Base(path)))
	if err := csvout.WriteFile(outPath, result.Table, w.policy); err != nil {
		w.logger.Error("write output failed", "file", path, "output", outPath, "error", err)
		return
	}

	if w.sink != nil {
		if err := w.sink.PublishTable(ctx, filepath.Base(path), result.Table); err != nil {
			w.logger.Error("publish observations failed", "file", path, "error", err)
		}
	}

	w.ready.Store(true)
	w.logger.Info("export written", "file", path, "output", outPath,
		"rows", len(result.Table.Observations))
}

// isExport reports whether the path looks like a plate reader export.
func isExport(path string) bool {
	switch ext(path) {
	case ".csv", ".xlsx", ".xls":
		return true
	}
	return false
}

// outputName derives the processed table's file name from the export's.
func outputName(base string) string {
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + "_processed.csv"
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
