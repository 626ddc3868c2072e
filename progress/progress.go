// Package progress rate-limits transfer progress reporting.
//
// A [Reporter] gates non-terminal events behind a minimum interval so
// rapid chunk commits cannot flood the owner, while the terminal event
// is always delivered. Callers supply the observation time, keeping the
// gate deterministic under test.
package progress

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"
)

// Event is a single progress observation.
type Event struct {
	// Bytes is the total committed so far, not a delta.
	Bytes int64
	// Done marks the terminal event of a successful transfer.
	Done bool
}

// Func receives progress events.
type Func func(Event)

// Reporter emits progress events at most once per minimum interval,
// plus a final unthrottled terminal event. It is not safe for
// concurrent use; a transfer reports from a single goroutine.
type Reporter struct {
	limiter *rate.Limiter
	fn      Func
	logger  *slog.Logger
	start   time.Time
}

// NewReporter creates a Reporter that invokes fn for each emitted event.
// minInterval is the minimum spacing between non-terminal events; zero
// disables throttling. fn may be nil, in which case events are only
// logged when a logger is configured.
func NewReporter(minInterval time.Duration, fn Func, optFns ...Option) (*Reporter, error) {
	if minInterval < 0 {
		return nil, fmt.Errorf("min interval[%v] must not be negative", minInterval)
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	return &Reporter{
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
		fn:      fn,
		logger:  opts.logger,
		start:   time.Now(),
	}, nil
}

// MaybeReport emits a non-terminal event carrying bytes if the minimum
// interval has elapsed since the last emission, and drops it otherwise.
// now is the observation time.
func (r *Reporter) MaybeReport(bytes int64, now time.Time) {
	if !r.limiter.AllowN(now, 1) {
		return
	}

	r.emit(Event{Bytes: bytes}, now)
}

// Done emits the terminal event. It is never throttled.
func (r *Reporter) Done(bytes int64) {
	r.emit(Event{Bytes: bytes, Done: true}, time.Now())
}

func (r *Reporter) emit(e Event, now time.Time) {
	if r.fn != nil {
		r.fn(e)
	}

	if r.logger == nil {
		return
	}

	msg := "transferring"
	if e.Done {
		msg = "transfer complete"
	}

	attrs := []any{
		"transferred_bytes", e.Bytes,
		"transferred", humanize.Bytes(uint64(e.Bytes)),
	}
	if elapsed := now.Sub(r.start); elapsed > 0 {
		speed := int64(float64(e.Bytes) / elapsed.Seconds())
		attrs = append(attrs,
			"elapsed", elapsed.Round(time.Millisecond),
			"speed", humanize.Bytes(uint64(speed))+"/s",
		)
	}

	r.logger.Info(msg, attrs...)
}

// Option is a functional option for configuring a [Reporter].
type Option func(*options) error

type options struct {
	logger *slog.Logger
}

// WithLogger makes the Reporter log each emitted event.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		opts.logger = logger
		return nil
	}
}
