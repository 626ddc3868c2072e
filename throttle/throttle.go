package throttle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/adamwoolhether/sinker"
)

// source decorates a transfer source, using the time/rate token
// bucket limiter to restrict read bandwidth.
type source struct {
	limiter     *rate.Limiter
	bytesPerSec int
	burst       int
	next        sinker.Source
	logFn       func() *slog.Logger
}

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
	ErrContextEnded  = errors.New("throttle context ended")
)

// NewSource returns a source that limits reads from next to bytesPerSec,
// with burst bytes of headroom before shaping kicks in. logFn lazily
// resolves the logger at read time, making option ordering irrelevant.
// A nil or nil-returning logFn skips wait logging.
func NewSource(bytesPerSec, burst int, logFn func() *slog.Logger, next sinker.Source) (sinker.Source, error) {
	if bytesPerSec <= 0 || burst <= 0 {
		return nil, fmt.Errorf("bytesPerSec[%d] and burst[%d] %w", bytesPerSec, burst, ErrMustNotBeZero)
	}
	if next == nil {
		return nil, errors.New("next source must not be nil")
	}

	s := &source{
		limiter:     rate.NewLimiter(rate.Limit(bytesPerSec), burst),
		bytesPerSec: bytesPerSec,
		burst:       burst,
		next:        next,
		logFn:       logFn,
	}

	return s, nil
}

func (s *source) Start(ctx context.Context) error {
	return s.next.Start(ctx)
}

// Read pulls a chunk from the wrapped source, then waits until the
// bucket covers its size. Chunks larger than the burst are billed at
// the burst so the wait can always be satisfied.
func (s *source) Read(ctx context.Context, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	n, err := s.next.Read(ctx, p)
	if n <= 0 {
		return n, err
	}

	tokens := n
	if tokens > s.burst {
		tokens = s.burst
	}

	var logger *slog.Logger
	if s.logFn != nil {
		logger = s.logFn()
	}

	var waited time.Duration
	if logger != nil && s.limiter.Tokens() < float64(tokens) {
		logger.Info("throttle tokens exhausted", "bytes", n, "rate", s.bytesPerSec, "burst", s.burst)

		defer func() {
			logger.Info("throttle wait complete", "waited", waited.String(), "rate", s.bytesPerSec, "burst", s.burst)
		}()
	}

	start := time.Now()

	werr := s.limiter.WaitN(ctx, tokens)
	waited = time.Since(start)
	if werr != nil && err == nil {
		return n, fmt.Errorf("%w: %w", ErrWaitingFailed, werr)
	}

	return n, err
}

func (s *source) Cancel() {
	s.next.Cancel()
}
