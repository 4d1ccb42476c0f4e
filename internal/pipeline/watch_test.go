package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateworks/od600-etl/internal/adapter/csvout"
	"github.com/plateworks/od600-etl/internal/config"
	"github.com/plateworks/od600-etl/internal/domain"
	"github.com/plateworks/od600-etl/internal/observability"
)

type captureSink struct {
	mu     sync.Mutex
	files  []string
	tables []domain.Table
}

func (c *captureSink) PublishTable(_ context.Context, sourceFile string, table domain.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = append(c.files, sourceFile)
	c.tables = append(c.tables, table)
	return nil
}

func startWatcher(t *testing.T, inDir, outDir string, sink ObservationSink) *Watcher {
	t.Helper()

	cfg := &config.Config{ScanWindow: 10}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	p := New(cfg, logger, metrics)

	w := NewWatcher(p, inDir, outDir, "", csvout.Policy{}, sink, logger, metrics)
	w.SetSettle(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, w.Run(ctx))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give fsnotify a moment to establish the watch before files arrive.
	time.Sleep(50 * time.Millisecond)
	return w
}

func TestWatcher(t *testing.T) {
	t.Run("processes a dropped export", func(t *testing.T) {
		inDir, outDir := t.TempDir(), t.TempDir()
		sink := &captureSink{}
		w := startWatcher(t, inDir, outDir, sink)

		require.Error(t, w.CheckReadiness(context.Background()))

		require.NoError(t, os.WriteFile(filepath.Join(inDir, "run.csv"), []byte(exportCSV), 0o644))

		outPath := filepath.Join(outDir, "run_processed.csv")
		require.Eventually(t, func() bool {
			_, err := os.Stat(outPath)
			return err == nil
		}, 5*time.Second, 20*time.Millisecond)

		data, err := os.ReadFile(outPath)
		require.NoError(t, err)
		assert.Contains(t, string(data), "Well,Time_s,Time_h,OD")
		assert.Contains(t, string(data), "A1,0,0,0.1")

		require.NoError(t, w.CheckReadiness(context.Background()))

		sink.mu.Lock()
		defer sink.mu.Unlock()
		require.Len(t, sink.files, 1)
		assert.Equal(t, "run.csv", sink.files[0])
		assert.Len(t, sink.tables[0].Observations, 5)
	})

	t.Run("bad export is skipped, watcher keeps running", func(t *testing.T) {
		inDir, outDir := t.TempDir(), t.TempDir()
		w := startWatcher(t, inDir, outDir, nil)

		require.NoError(t, os.WriteFile(filepath.Join(inDir, "broken.csv"), []byte("no markers here\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(inDir, "good.csv"), []byte(exportCSV), 0o644))

		require.Eventually(t, func() bool {
			_, err := os.Stat(filepath.Join(outDir, "good_processed.csv"))
			return err == nil
		}, 5*time.Second, 20*time.Millisecond)

		require.NoError(t, w.CheckReadiness(context.Background()))
		_, err := os.Stat(filepath.Join(outDir, "broken_processed.csv"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("non-export files are ignored", func(t *testing.T) {
		inDir, outDir := t.TempDir(), t.TempDir()
		w := startWatcher(t, inDir, outDir, nil)

		require.NoError(t, os.WriteFile(filepath.Join(inDir, "notes.txt"), []byte("hello"), 0o644))

		time.Sleep(200 * time.Millisecond)
		require.Error(t, w.CheckReadiness(context.Background()))
	})
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "run_processed.csv", outputName("run.csv"))
	assert.Equal(t, "plate7_processed.csv", outputName("plate7.xlsx"))
}
