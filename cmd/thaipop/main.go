package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thaipop/internal/config"
	"thaipop/internal/fetch"
	"thaipop/internal/metrics"
	"thaipop/internal/metrics/prompush"
	"thaipop/internal/parser/population"
	"thaipop/internal/pipeline"
	"thaipop/internal/storage/duckdb"
)

// main is the entry point for the thaipop binary. It loads the pipeline
// config, optionally initializes a metrics backend, and executes the
// year-by-year ingestion run followed by the Parquet export.
func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "configs/pipelines/thai_population.json", "pipeline config JSON path")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (pushgateway, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	p, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}

	// Validate pipeline config.
	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}

	// If validate flag is set, only validate the configuration and exit.
	if validate {
		log.Printf("configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	// Decide metrics backend: flag → env → default.
	backendName := metricsBackendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		// Decide Pushgateway URL: flag → env → default.
		gwURL := pushGatewayURLFlg
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}

		b, err := prompush.NewBackend(p.Job, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init pushgateway backend: %v; using nop", err)
		} else {
			log.Printf("metrics: url=%v, backend=%v, job=%v", gwURL, backendName, p.Job)
			metrics.SetBackend(b)
			defer func() {
				if err := metrics.Flush(); err != nil {
					log.Printf("metrics: flush error: %v", err)
				}
			}()
		}

	case "", "none":
		// metrics disabled; nop backend remains
		if *verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}

	// A SIGINT/SIGTERM mid-run cancels the loop cleanly; the process exits
	// without exporting a half-loaded dataset.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()

	repo, closeRepo, err := duckdb.NewRepository(ctx, duckdb.Config{
		DSN:   p.Storage.DSN,
		Table: p.Storage.Table,
	})
	if err != nil {
		fatalf("storage: %v", err)
	}
	defer closeRepo()

	if err := repo.CreateTable(ctx); err != nil {
		fatalf("storage: %v", err)
	}

	client := fetch.NewClient(fetch.Config{
		BaseURL: p.Source.BaseURL,
		Timeout: time.Duration(p.Source.TimeoutSeconds) * time.Second,
	})

	run := &pipeline.Pipeline{
		Job:       p.Job,
		StartYear: p.Source.StartYear,
		MaxYears:  p.Source.MaxYears,
		FetchYear: client.StatByYear,
		Insert: func(ctx context.Context, year int, rec population.Record) error {
			return repo.InsertRecord(ctx, year, rec)
		},
		Export: func(ctx context.Context) error {
			return repo.ExportPartitions(ctx, p.Export.Dir)
		},
		Verbose: *verbose,
	}

	summary, err := run.Run(ctx)
	if err != nil {
		log.Fatalf("%v", err)
	}

	log.Printf("run complete: years=%d rows=%d last_year=%d stop=%q duplicates=%d",
		summary.YearsLoaded, summary.RowsInserted, summary.LastYear,
		summary.StopReason, summary.DuplicateBodies)
	metrics.RecordYears(p.Job, int64(summary.YearsLoaded))

	if *verbose {
		counts, err := repo.CountByYear(ctx)
		if err != nil {
			log.Printf("count by year: %v", err)
		} else {
			for year, n := range counts {
				log.Printf("  %d: %d rows", year, n)
			}
		}
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
