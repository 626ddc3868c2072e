package sinker

import (
	"errors"
	"fmt"
	"hash"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/sinker/progress"
)

const (
	// DefaultBufferSize is the chunk buffer size used when
	// WithBufferSize is not given.
	DefaultBufferSize = 32 << 10 // 32KB
	// DefaultProgressInterval is the minimum spacing between
	// non-terminal progress events when WithProgressInterval is not
	// given.
	DefaultProgressInterval = 100 * time.Millisecond
)

// Option is a functional option for configuring a [Transfer] via [New].
type Option func(*options) error

type options struct {
	bufSize    int
	progressFn progress.Func
	interval   *time.Duration
	checksum   *checksumVerifier
	logger     *slog.Logger
	tracer     trace.Tracer
}

// WithBufferSize sets the size of the transfer's single chunk buffer.
// One buffer bounds memory per transfer and paces the source against
// the sink.
func WithBufferSize(n int) Option {
	return func(opts *options) error {
		if n <= 0 {
			return fmt.Errorf("buffer size[%d] must be greater than zero", n)
		}
		opts.bufSize = n
		return nil
	}
}

// WithProgress invokes fn with rate-limited progress events while the
// transfer runs, plus a final terminal event when it completes.
func WithProgress(fn progress.Func) Option {
	return func(opts *options) error {
		if fn == nil {
			return errors.New("progress func must not be nil")
		}
		opts.progressFn = fn
		return nil
	}
}

// WithProgressInterval sets the minimum spacing between non-terminal
// progress events. Zero disables throttling. Enables progress logging
// even when no progress func is registered.
func WithProgressInterval(d time.Duration) Option {
	return func(opts *options) error {
		if d < 0 {
			return fmt.Errorf("progress interval[%v] must not be negative", d)
		}
		opts.interval = &d
		return nil
	}
}

// WithChecksum enables digest validation of the transferred stream.
// h is a hash.Hash instance (e.g. sha256.New()), and expected is the
// hex-encoded expected checksum string. The digest covers the bytes
// committed to the sink; a mismatch fails the transfer after the
// stream is drained, and the written file is retained.
func WithChecksum(h hash.Hash, expected string) Option {
	return func(opts *options) error {
		if h == nil {
			return errors.New("hash must not be nil")
		}

		if expected == "" {
			return errors.New("expected checksum must not be empty")
		}

		opts.checksum = &checksumVerifier{hash: h, expected: expected}
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Transfer].
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		opts.logger = logger
		return nil
	}
}

// WithTracer records a span per transfer on the given tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(opts *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		opts.tracer = tracer
		return nil
	}
}
