// Package fetch downloads the yearly Thai population statistics file
// published by the Department of Provincial Administration (DOPA). It is
// the extract stage of the pipeline: one blocking HTTP GET per calendar
// year, no retries, no concurrency.
//
// Design goals:
//
//   - Keep a tiny, explicit API (Client, StatByYear).
//   - Report the fetch outcome as a tagged Result value with explicit
//     variants; a failure never escapes this package as a panic.
//   - Distinguish "the source has no file for this year" (a normal HTTP
//     response with a non-2xx status) from a transport-level fault, so the
//     driver and its tests can tell the two stop conditions apart.
//   - Be easy to test by injecting a custom RoundTripper.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
)

// DefaultBaseURL is the DOPA statistics file root. The derived Thai year is
// appended twice: once as a path segment and once in the file name.
const DefaultBaseURL = "https://stat.bora.dopa.go.th/new_stat/file"

// ThaiYear converts a Gregorian year to the shortened Buddhist-calendar
// year used in the source URL path: (year + 543) - 2500. ThaiYear(1993) == 36.
func ThaiYear(year int) int {
	return (year + 543) - 2500
}

// StatURL builds the source URL for one Gregorian year.
func StatURL(baseURL string, year int) string {
	ty := ThaiYear(year)
	return fmt.Sprintf("%s/%d/stat_c%d.txt", strings.TrimRight(baseURL, "/"), ty, ty)
}

// Status tags the outcome of a fetch.
type Status int

const (
	// StatusOK means a 2xx response was received; Result.Body holds the raw
	// payload.
	StatusOK Status = iota

	// StatusExhausted means the server answered with a non-2xx status. For
	// this source that is how "no data published for this year" manifests;
	// the driver treats it as the terminal signal for the year loop.
	StatusExhausted

	// StatusFailed means the request never produced an HTTP response
	// (DNS failure, timeout, connection reset).
	StatusFailed
)

// String returns a short label for logs and summaries.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusExhausted:
		return "exhausted"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Result is the tagged outcome of fetching one year. Callers must branch on
// Status; exactly one of Body (ok) or Err (exhausted/failed) is meaningful.
type Result struct {
	Year   int
	Status Status

	// Body is the raw response payload with leading/trailing spaces and
	// newlines trimmed. Only set when Status == StatusOK.
	Body []byte

	// Checksum is the xxh3 hash of Body, recorded for provenance logging.
	Checksum uint64

	// Err carries diagnostic text: the response's error payload for
	// StatusExhausted, or the transport error for StatusFailed.
	Err string
}

// Config configures the fetch client. Zero values are given sensible
// defaults: Timeout 30s.
type Config struct {
	// BaseURL is the statistics file root; DefaultBaseURL when empty.
	BaseURL string

	// Timeout is the per-request timeout applied at the http.Client level.
	// A hung request would otherwise block the whole pipeline indefinitely.
	Timeout time.Duration

	// UserAgent is sent with every request when non-empty.
	UserAgent string

	// Transport is an optional custom RoundTripper, mainly for tests.
	Transport http.RoundTripper
}

// Client performs the per-year GET. It carries no retry logic: the driver
// stops on the first failed fetch.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient constructs a Client from Config, applying defaults for zero values.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
	}
}

// StatByYear fetches the statistics file for one Gregorian year and returns
// the outcome as a Result. It never returns an error; every failure mode is
// encoded in the result's Status so that the caller handles both variants
// explicitly.
func (c *Client) StatByYear(ctx context.Context, year int) Result {
	url := StatURL(c.baseURL, year)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Year: year, Status: StatusFailed, Err: fmt.Sprintf("build request: %v", err)}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Year: year, Status: StatusFailed, Err: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Year: year, Status: StatusFailed, Err: fmt.Sprintf("read body: %v", err)}
	}

	if resp.StatusCode/100 != 2 {
		// The response's own payload is the diagnostic; the source answers
		// missing years with an HTML error page.
		return Result{
			Year:   year,
			Status: StatusExhausted,
			Err:    fmt.Sprintf("HTTP %d from %s: %s", resp.StatusCode, url, trimDiag(body)),
		}
	}

	trimmed := []byte(strings.Trim(string(body), " \n"))
	return Result{
		Year:     year,
		Status:   StatusOK,
		Body:     trimmed,
		Checksum: xxh3.Hash(trimmed),
	}
}

// trimDiag truncates an error payload to a log-friendly length.
func trimDiag(b []byte) string {
	const max = 200
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
