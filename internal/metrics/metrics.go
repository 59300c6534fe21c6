// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the ingestion pipeline.
//
// The package is intentionally minimal:
//
//   - It exposes a narrow interface (Backend) focused on counters and
//     duration observations.
//   - It provides a global, pluggable backend that defaults to a no-op
//     implementation, so metric calls are always safe even when no real
//     backend is configured.
//   - Concrete metric systems live in subpackages (see prompush); the rest
//     of the codebase depends only on this interface.
//
// The primary use case is instrumentation of the pipeline stages (fetch,
// parse, load, export) without coupling the driver to Prometheus.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveDuration records a duration-style value in seconds.
	ObserveDuration(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)      {}
func (nopBackend) ObserveDuration(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                              { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency plus success/failure for one pipeline stage.
//
// Typical steps: "fetch", "parse", "load", "export".
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter("ingest_step_total", 1, lbls)
	backend.ObserveDuration("ingest_step_duration_seconds", d.Seconds(), lbls)
}

// RecordRow increments a record-level counter for the given job and kind.
//
// Typical kinds mirror the run summary fields:
//   - "parsed"
//   - "inserted"
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("ingest_records_total", float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordYears increments the per-run loaded-year counter.
func RecordYears(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("ingest_years_total", float64(delta), Labels{
		"job": job,
	})
}
