// Package config provides configuration models and helpers for ingestion
// pipelines.
//
// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "source.base_url"). Message is
// human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue in the slice is a blocking error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not.
//
// Example:
//
//	p, err := config.Load(path)
//	if err != nil { ... }
//	issues := config.ValidatePipeline(p)
//	for _, iss := range issues {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateExport(p.Export)...)

	return issues
}

// validateSource validates the fetch configuration.
func validateSource(s Source) []Issue {
	var issues []Issue

	base := strings.TrimSpace(s.BaseURL)
	if base == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.base_url",
			Message:  "source.base_url must not be empty",
		})
	} else if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.base_url",
			Message:  fmt.Sprintf("source.base_url %q must start with http:// or https://", base),
		})
	}

	if s.StartYear <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.start_year",
			Message:  fmt.Sprintf("start_year=%d; a positive Gregorian year is required", s.StartYear),
		})
	} else if s.StartYear < 1900 || s.StartYear > 2500 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.start_year",
			Message:  fmt.Sprintf("start_year=%d looks unusual; the registry publishes files from 1993 onward", s.StartYear),
		})
	}

	if s.MaxYears < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.max_years",
			Message:  "max_years must not be negative; use 0 for no cap",
		})
	}
	if s.TimeoutSeconds < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.timeout_seconds",
			Message:  "timeout_seconds must not be negative; use 0 for the client default",
		})
	}

	return issues
}

// validateStorage validates the DuckDB sink settings.
func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.table",
			Message:  "storage.table must not be empty",
		})
	}
	// An empty DSN is valid (in-memory database) but worth surfacing, since
	// the table is gone once the process exits and only the export survives.
	if strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.dsn",
			Message:  "dsn is empty; using an in-memory database, only the exported dataset persists",
		})
	}

	return issues
}

// validateExport validates the Parquet export settings.
func validateExport(e Export) []Issue {
	var issues []Issue

	if strings.TrimSpace(e.Dir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "export.dir",
			Message:  "export.dir must not be empty",
		})
	}

	return issues
}
