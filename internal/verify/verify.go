package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/haanna/anna/internal/logging"
	"github.com/haanna/anna/pkg/anna"
)

// Options configures how a write is confirmed against the gateway
type Options struct {
	// MaxRetries is the number of re-reads after the first one
	// Default: 5
	MaxRetries int

	// InitialDelay gives the gateway time to apply the change before the first read
	// Default: 1s
	InitialDelay time.Duration

	// RetryDelay is the delay between re-reads
	// Default: 2s
	RetryDelay time.Duration

	// UseExponentialBackoff doubles RetryDelay after each attempt, up to MaxRetryDelay
	// Default: true
	UseExponentialBackoff bool

	// MaxRetryDelay caps the backoff
	// Default: 8s
	MaxRetryDelay time.Duration
}

// DefaultOptions returns defaults suited to the Anna, which can take several
// seconds to reflect a preset change in domain_objects.
func DefaultOptions() *Options {
	return &Options{
		MaxRetries:            5,
		InitialDelay:          1 * time.Second,
		RetryDelay:            2 * time.Second,
		UseExponentialBackoff: true,
		MaxRetryDelay:         8 * time.Second,
	}
}

// Result contains the outcome of a confirmation run
type Result struct {
	Success  bool
	Attempts int

	// Status is the snapshot read on the last successful fetch, if any
	Status *anna.Status

	// Mismatches from the last attempt
	Mismatches []string

	Error error
}

// Fetcher reads the domain objects document. *anna.Client satisfies it.
type Fetcher interface {
	DomainObjects(ctx context.Context) (*anna.Document, error)
}

// Check compares a fetched document with the expected value.
type Check func(doc *anna.Document) (*anna.Mismatch, error)

// Temperature checks the target temperature.
func Temperature(want float64) Check {
	return func(doc *anna.Document) (*anna.Mismatch, error) {
		return anna.ConfirmTemperature(doc, want)
	}
}

// Preset checks the active preset.
func Preset(want string) Check {
	return func(doc *anna.Document) (*anna.Mismatch, error) {
		return anna.ConfirmPreset(doc, want)
	}
}

// Endpoint checks that req's path still names the thermostat.
func Endpoint(req *anna.Request) Check {
	return func(doc *anna.Document) (*anna.Mismatch, error) {
		return anna.ConfirmEndpoint(doc, req)
	}
}

// Run re-reads the gateway until every check passes, the retries are spent
// or ctx is done. host is only used for logging.
func Run(ctx context.Context, f Fetcher, host string, opts *Options, checks ...Check) *Result {
	if opts == nil {
		opts = DefaultOptions()
	}
	retries := max(opts.MaxRetries, 0)

	result := &Result{}
	start := time.Now()

	if err := sleep(ctx, opts.InitialDelay); err != nil {
		result.Error = err
		return result
	}

	delay := opts.RetryDelay
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, delay); err != nil {
				result.Error = fmt.Errorf("verification interrupted after %d attempts: %w", result.Attempts, err)
				return result
			}
			if opts.UseExponentialBackoff {
				delay *= 2
				if delay > opts.MaxRetryDelay {
					delay = opts.MaxRetryDelay
				}
			}
		}
		result.Attempts++

		doc, err := f.DomainObjects(ctx)
		if err != nil {
			// Transient read failures are retried
			result.Error = fmt.Errorf("attempt %d: %w", result.Attempts, err)
			logging.LogVerification(host, result.Attempts, err.Error(), time.Since(start))
			continue
		}

		if s, err := anna.ReadStatus(doc); err == nil {
			result.Status = s
		}

		mismatches, err := evaluate(doc, checks)
		if err != nil {
			// The document no longer has what the check needs; retrying will not help
			result.Error = fmt.Errorf("attempt %d: %w", result.Attempts, err)
			return result
		}
		result.Mismatches = mismatches

		if len(mismatches) == 0 {
			logging.LogVerification(host, result.Attempts, "", time.Since(start))
			result.Success = true
			result.Error = nil
			return result
		}

		logging.LogVerification(host, result.Attempts, formatMismatches(mismatches), time.Since(start))
		result.Error = fmt.Errorf("verification failed after %d attempts: %s", result.Attempts, formatMismatches(mismatches))
	}

	return result
}

func evaluate(doc *anna.Document, checks []Check) ([]string, error) {
	var mismatches []string
	for _, check := range checks {
		m, err := check(doc)
		if err != nil {
			return nil, err
		}
		if m != nil {
			mismatches = append(mismatches, m.String())
		}
	}
	return mismatches, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// formatMismatches creates a human-readable summary of mismatches
func formatMismatches(mismatches []string) string {
	switch len(mismatches) {
	case 0:
		return "none"
	case 1:
		return mismatches[0]
	}
	return fmt.Sprintf("%d mismatches: %s", len(mismatches), strings.Join(mismatches, "; "))
}
