package export

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"kifu/internal/config"
	"kifu/internal/metrics"
	"kifu/pkg/kifu"
)

// Stats summarizes one export run.
type Stats struct {
	Files    int
	Failed   int
	Rows     int
	Skipped  int
	Duration time.Duration
}

// Exporter parses a directory of KIF files with a worker pool and streams
// their rows into one parquet file.
type Exporter struct {
	workers  int
	parallel int64
	log      *zap.SugaredLogger
	metrics  *metrics.Collector
}

// NewExporter builds an exporter. m may be nil.
func NewExporter(cfg config.ExportConfig, log *zap.SugaredLogger, m *metrics.Collector) *Exporter {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	parallel := cfg.Parallel
	if parallel < 1 {
		parallel = 1
	}
	return &Exporter{workers: workers, parallel: parallel, log: log, metrics: m}
}

// ExportDir writes every KIF file under root to out. Files that fail to
// decode are counted and logged, not fatal. maxFiles <= 0 means all files.
func (e *Exporter) ExportDir(root, out string, maxFiles int) (Stats, error) {
	start := time.Now()
	total, err := kifu.CountKIF(root)
	if err != nil {
		return Stats{}, err
	}
	if total == 0 {
		return Stats{}, fmt.Errorf("no KIF files found in %s", root)
	}
	if maxFiles > 0 && total > maxFiles {
		total = maxFiles
	}
	e.log.Infow("export started", "root", root, "files", total, "workers", e.workers, "output", out)

	paths := make(chan string, e.workers*4)
	rows := make(chan MoveRow, e.workers*64)

	type written struct {
		n   int
		err error
	}
	done := make(chan written, 1)
	go func() {
		n, err := WriteParquet(out, rows, e.parallel)
		done <- written{n, err}
	}()

	var processed, failed, skipped atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range paths {
				rec, err := kifu.ParseFile(path)
				if err != nil {
					failed.Add(1)
					e.log.Warnw("skipping file", "path", path, "error", err)
					continue
				}
				skipped.Add(int64(len(rec.Skipped)))
				if e.metrics != nil {
					e.metrics.RecordParse("export", len(rec.Skipped))
				}
				for _, row := range Rows(recordID(root, path), rec) {
					rows <- row
				}
				if n := processed.Add(1); n%1000 == 0 {
					e.log.Infow("export progress", "processed", n, "total", total)
				}
			}
		}()
	}

	walkErr := feedFiles(root, maxFiles, paths)
	wg.Wait()
	close(rows)
	res := <-done

	if e.metrics != nil {
		e.metrics.RecordExportRows(res.n)
	}
	stats := Stats{
		Files:    int(processed.Load()),
		Failed:   int(failed.Load()),
		Rows:     res.n,
		Skipped:  int(skipped.Load()),
		Duration: time.Since(start),
	}
	if res.err != nil {
		return stats, fmt.Errorf("write %s: %w", out, res.err)
	}
	if walkErr != nil {
		return stats, fmt.Errorf("walk %s: %w", root, walkErr)
	}
	e.log.Infow("export finished", "files", stats.Files, "failed", stats.Failed, "rows", stats.Rows,
		"duration", stats.Duration.Round(time.Millisecond))
	return stats, nil
}

// feedFiles streams paths from WalkKIF into ch, respecting maxFiles. ch is
// closed even when the walk fails part way.
func feedFiles(root string, maxFiles int, ch chan<- string) error {
	defer close(ch)
	sent := 0
	return kifu.WalkKIF(root, func(path string) error {
		if maxFiles > 0 && sent >= maxFiles {
			return filepath.SkipAll
		}
		ch <- path
		sent++
		return nil
	})
}

// recordID names a file by its slash-separated path relative to root.
func recordID(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
