package main

import (
	"flag"
	"fmt"
	"os"

	"kifu/internal/config"
	"kifu/internal/export"
	"kifu/internal/logging"
	"kifu/internal/metrics"
)

func main() {
	inputDir := flag.String("input", "kif", "input directory for KIF files")
	outputPath := flag.String("output", "moves.parquet", "output parquet file")
	maxFiles := flag.Int("max-files", 0, "maximum number of files to process (0=all)")
	workers := flag.Int("workers", 0, "number of parallel workers (0=export.workers, then NumCPU)")
	verify := flag.Bool("verify", false, "read the output back and report rows per line kind")
	configPath := flag.String("config", "", "config file (default: KIFU_CONFIG or nearest kifu.yaml)")
	flag.Parse()

	cfg, err := config.Load(config.Resolve(*configPath))
	if err != nil {
		fatal(err)
	}
	if *workers > 0 {
		cfg.Export.Workers = *workers
	}

	logger := logging.Must(cfg.Log)
	defer func() { _ = logger.Sync() }()

	exporter := export.NewExporter(cfg.Export, logger, metrics.NewCollector())
	stats, err := exporter.ExportDir(*inputDir, *outputPath, *maxFiles)
	if err != nil {
		fatal(err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d rows from %d files, %d failed, %d skipped lines) in %v\n",
		*outputPath, stats.Rows, stats.Files, stats.Failed, stats.Skipped, stats.Duration)

	if *verify {
		rows, err := export.ReadParquet(*outputPath, cfg.Export.Parallel)
		if err != nil {
			fatal(err)
		}
		if len(rows) != stats.Rows {
			fatal(fmt.Errorf("read %d rows back, wrote %d", len(rows), stats.Rows))
		}
		records := map[string]struct{}{}
		mainLine := 0
		for _, r := range rows {
			records[r.RecordID] = struct{}{}
			if r.ParentLineID < 0 {
				mainLine++
			}
		}
		fmt.Fprintf(os.Stderr, "verified %d records: %d main line rows, %d variation rows\n",
			len(records), mainLine, len(rows)-mainLine)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
