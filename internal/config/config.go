// Package config defines the canonical, JSON-serializable configuration model
// for the ingestion application. It is intentionally small, explicit, and
// dependency-free so that pipelines can be loaded from disk (or other sources)
// and passed through the program without additional glue code.
//
// Design goals:
//
//  1. Stability: Changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: Field names in Go mirror the JSON structure used in pipeline
//     files under configs/pipelines/*.json.
//  3. Minimalism: No third-party config libraries; decoding is performed by
//     the standard library.
//
// Example:
//
//	{
//	  "job":     "thai_population",
//	  "source":  { "base_url": "https://stat.bora.dopa.go.th/new_stat/file",
//	               "start_year": 1993, "max_years": 0, "timeout_seconds": 30 },
//	  "storage": { "dsn": "", "table": "thai_population" },
//	  "export":  { "dir": "./datasets/thai_population" }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Pipeline describes one yearly ingestion job in JSON. It is the top-level
// object decoded from a pipeline file (e.g., configs/pipelines/*.json).
type Pipeline struct {
	// Job names the run; it is used for log prefixes and metrics labels.
	Job string `json:"job"`

	// Source describes where the yearly files come from.
	Source Source `json:"source"`

	// Storage describes the analytical database the records are loaded into.
	Storage Storage `json:"storage"`

	// Export describes the Parquet dataset written after the run.
	Export Export `json:"export"`
}

// Source configures the per-year HTTP fetch.
type Source struct {
	// BaseURL is the prefix the per-year path is appended to.
	BaseURL string `json:"base_url"`

	// StartYear is the first Gregorian year fetched.
	StartYear int `json:"start_year"`

	// MaxYears caps how many years the loop may attempt. 0 means no cap.
	MaxYears int `json:"max_years"`

	// TimeoutSeconds bounds each HTTP request. 0 uses the client default.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// Storage configures the DuckDB sink.
type Storage struct {
	// DSN is the DuckDB data source name. Empty means an in-memory database,
	// which matches the usual run-then-export lifecycle of this job.
	DSN string `json:"dsn"`

	// Table is the destination table name.
	Table string `json:"table"`
}

// Export configures the partitioned Parquet output.
type Export struct {
	// Dir is the dataset root directory. One subdirectory per data_year is
	// written beneath it.
	Dir string `json:"dir"`
}

// Load reads and decodes a pipeline file from disk.
func Load(path string) (Pipeline, error) {
	var p Pipeline

	f, err := os.Open(path)
	if err != nil {
		return p, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	if err := Decode(f, &p); err != nil {
		return p, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return p, nil
}

// Decode decodes a pipeline from r. Unknown fields are rejected so typos in
// config files surface immediately instead of being silently ignored.
func Decode(r io.Reader, p *Pipeline) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(p)
}
