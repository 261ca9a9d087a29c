// Command batch scores a newline-delimited JSON file of transactions.
//
// Usage:
//
//	batch -in transactions.ndjson -out decisions.ndjson
//	batch -in transactions.ndjson -out decisions.ndjson -workers 16 -strict
//
// Each input line is one transaction context; each output line is either a
// decision package or a per-line error record, in input order. Decisions are
// recorded to postgres when DATABASE_URL is set, otherwise not recorded.
package main

import (
	"context"
	"database/sql"
	"flag"
	"os"

	_ "github.com/lib/pq"

	"github.com/jlowen/riskgate/internal/batch"
	"github.com/jlowen/riskgate/internal/config"
	"github.com/jlowen/riskgate/internal/decision"
	"github.com/jlowen/riskgate/internal/logging"
	"github.com/jlowen/riskgate/internal/server"
	"github.com/jlowen/riskgate/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		inPath  = flag.String("in", "", "input NDJSON file (required)")
		outPath = flag.String("out", "", "output NDJSON file (required)")
		workers = flag.Int("workers", 0, "concurrent scoring workers (default BATCH_WORKERS)")
		strict  = flag.Bool("strict", false, "abort on the first malformed line")
	)
	flag.Parse()

	logger := logging.New("info", "text")

	if *inPath == "" || *outPath == "" {
		logger.Error("both -in and -out are required")
		flag.Usage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}
	if *workers <= 0 {
		*workers = cfg.BatchWorkers
	}

	var recorder decision.Recorder
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			return 1
		}
		if err := db.Ping(); err != nil {
			logger.Error("failed to connect to database", "error", err)
			return 1
		}
		defer func() { _ = db.Close() }()
		recorder = store.NewPostgresStore(db)
		logger.Info("recording decisions to postgres")
	} else {
		logger.Info("DATABASE_URL not set, decisions will not be recorded")
	}

	engine, err := server.BuildEngine(cfg, recorder, logger)
	if err != nil {
		logger.Error("failed to build engine", "error", err)
		return 1
	}

	processor := batch.NewProcessor(engine, *workers).
		WithStrict(*strict || cfg.BatchStrict).
		WithLogger(logger)

	summary, err := processor.ProcessFile(context.Background(), *inPath, *outPath)
	if err != nil {
		logger.Error("batch failed", "error", err)
		return 1
	}

	logger.Info("batch complete",
		"lines", summary.Lines,
		"scored", summary.Scored,
		"malformed", summary.Malformed,
		"failed", summary.Failed,
	)

	if summary.Malformed > 0 || summary.Failed > 0 {
		return 3
	}
	return 0
}
