// Package pipeline contains the sequential year-loop driver.
//
// The driver is a two-state machine: RUNNING(year) advances to
// RUNNING(year+1) on a successful fetch+load, and moves to STOPPED on the
// first fetch that does not return a body. Once stopped, the export hook
// runs exactly once. Everything is single-threaded: the fetch for a year
// blocks the loop until it resolves, and only then does parsing and loading
// for that year begin.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"thaipop/internal/fetch"
	"thaipop/internal/metrics"
	"thaipop/internal/parser/population"
)

// Stop reasons reported in the run summary. The two fetch-driven reasons
// are deliberately distinct so an operator can tell "the source has no more
// years" from "the network broke mid-run".
const (
	StopSourceExhausted = "source exhausted"
	StopFetchFailed     = "fetch failed"
	StopMaxYears        = "max years reached"
)

// Pipeline wires the extract/parse/load/export stages. The function fields
// are seams: production code binds them to the fetch client and the DuckDB
// repository, tests substitute stubs.
type Pipeline struct {
	// Job names the run for logs and metrics labels.
	Job string

	// StartYear is the first Gregorian year fetched.
	StartYear int

	// MaxYears caps the number of loop iterations as a safety net against a
	// source that never exhausts. 0 means no cap.
	MaxYears int

	// FetchYear performs the blocking per-year GET.
	FetchYear func(ctx context.Context, year int) fetch.Result

	// Insert appends one parsed record for the given year.
	Insert func(ctx context.Context, year int, rec population.Record) error

	// Export flushes the accumulated table to disk. Called exactly once,
	// after the loop stops.
	Export func(ctx context.Context) error

	// Verbose enables per-year progress logs.
	Verbose bool
}

// Summary describes a completed (or aborted) run.
type Summary struct {
	YearsLoaded     int    // years whose rows were all inserted
	RowsInserted    int64  // total rows appended across all years
	LastYear        int    // last year successfully loaded (0 if none)
	StopYear        int    // year whose fetch (or cap) stopped the loop
	StopReason      string // one of the Stop* constants
	DuplicateBodies int    // fetches whose body hashed identically to a prior year
}

// Run executes the year loop from StartYear until the first fetch that does
// not produce a body, then exports once. Parse, insert, and export errors
// are fatal and abort the run; a fetch failure is the normal termination
// path, not an error.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	var s Summary

	if p.FetchYear == nil || p.Insert == nil || p.Export == nil {
		return s, fmt.Errorf("pipeline: FetchYear, Insert, and Export must all be set")
	}
	if p.StartYear <= 0 {
		return s, fmt.Errorf("pipeline: StartYear must be positive, got %d", p.StartYear)
	}

	seen := map[uint64]int{} // body checksum -> first year

loop:
	for year := p.StartYear; ; year++ {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		if p.MaxYears > 0 && year-p.StartYear >= p.MaxYears {
			s.StopYear = year
			s.StopReason = StopMaxYears
			break
		}

		fetchStart := time.Now()
		res := p.FetchYear(ctx, year)
		metrics.RecordStep(p.Job, "fetch", fetchErr(res), time.Since(fetchStart))

		// Explicit branch on the result tag: success continues the loop,
		// both failure variants stop it.
		switch res.Status {
		case fetch.StatusOK:
			// fall through to parse+load below

		case fetch.StatusExhausted:
			log.Printf("year %d: source exhausted: %s", year, res.Err)
			s.StopYear = year
			s.StopReason = StopSourceExhausted
			break loop

		case fetch.StatusFailed:
			log.Printf("year %d: fetch failed: %s", year, res.Err)
			s.StopYear = year
			s.StopReason = StopFetchFailed
			break loop

		default:
			return s, fmt.Errorf("pipeline: year %d: unknown fetch status %v", year, res.Status)
		}

		if first, ok := seen[res.Checksum]; ok {
			log.Printf("year %d: body identical to year %d (checksum %x)", year, first, res.Checksum)
			s.DuplicateBodies++
		} else {
			seen[res.Checksum] = year
		}

		parseStart := time.Now()
		recs, err := population.ParseBody(population.DecodeBody(res.Body))
		metrics.RecordStep(p.Job, "parse", err, time.Since(parseStart))
		if err != nil {
			return s, fmt.Errorf("pipeline: year %d: %w", year, err)
		}
		metrics.RecordRow(p.Job, "parsed", int64(len(recs)))

		loadStart := time.Now()
		for _, rec := range recs {
			if err := p.Insert(ctx, year, rec); err != nil {
				metrics.RecordStep(p.Job, "load", err, time.Since(loadStart))
				return s, fmt.Errorf("pipeline: year %d: %w", year, err)
			}
			s.RowsInserted++
		}
		metrics.RecordStep(p.Job, "load", nil, time.Since(loadStart))
		metrics.RecordRow(p.Job, "inserted", int64(len(recs)))

		s.YearsLoaded++
		s.LastYear = year
		if p.Verbose {
			log.Printf("year %d: loaded %d rows (checksum %x)", year, len(recs), res.Checksum)
		}
	}

	exportStart := time.Now()
	err := p.Export(ctx)
	metrics.RecordStep(p.Job, "export", err, time.Since(exportStart))
	if err != nil {
		return s, fmt.Errorf("pipeline: export: %w", err)
	}
	return s, nil
}

// fetchErr converts a non-ok fetch result to an error for metrics labeling.
func fetchErr(res fetch.Result) error {
	if res.Status == fetch.StatusOK {
		return nil
	}
	return fmt.Errorf("%s: %s", res.Status, res.Err)
}
