package sinker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/sinker/progress"
)

// Transfer streams bytes from a Source into a Sink at a fixed offset,
// bounded by the allowance a Ledger grants. A Transfer runs exactly
// once; Run drives a single goroutine that alternates one read and one
// write through one reusable buffer, so at most one operation is ever
// in flight.
type Transfer struct {
	id          string
	src         Source
	sink        Sink
	startOffset int64
	ledger      Ledger

	buf      []byte
	reporter *progress.Reporter
	checksum *checksumVerifier
	logger   *slog.Logger
	tracer   trace.Tracer

	// headroom is the number of bytes still allowed into the sink:
	// the snapshot's growth allowance adjusted by the distance from
	// the offset to the current end of the sink. Existing bytes being
	// overwritten are credited; the zero-filled gap left by an offset
	// past the end is debited. Only the pump goroutine touches it.
	headroom int64

	state        atomic.Int32
	started      atomic.Bool
	bytesRead    atomic.Int64
	bytesWritten atomic.Int64

	releaseOnce sync.Once
}

// New instantiates a Transfer writing to sink at offset. Ownership of
// sink passes to the Transfer: it is closed exactly once on every exit
// path of Run, whether or not the transfer succeeds.
func New(src Source, sink Sink, offset int64, ledger Ledger, optFns ...Option) (*Transfer, error) {
	switch {
	case src == nil:
		return nil, errors.New("source must not be nil")
	case sink == nil:
		return nil, errors.New("sink must not be nil")
	case ledger == nil:
		return nil, errors.New("ledger must not be nil")
	case offset < 0:
		return nil, fmt.Errorf("offset[%d] must not be negative", offset)
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	t := &Transfer{
		id:          uuid.New().String(),
		src:         src,
		sink:        sink,
		startOffset: offset,
		ledger:      ledger,
		checksum:    opts.checksum,
		logger:      slog.Default(),
		tracer:      noop.NewTracerProvider().Tracer("no-op tracer"),
	}

	if opts.logger != nil {
		t.logger = opts.logger
	}
	if opts.tracer != nil {
		t.tracer = opts.tracer
	}

	size := DefaultBufferSize
	if opts.bufSize > 0 {
		size = opts.bufSize
	}
	t.buf = make([]byte, size)

	if opts.progressFn != nil || opts.interval != nil {
		interval := DefaultProgressInterval
		if opts.interval != nil {
			interval = *opts.interval
		}

		reporter, err := progress.NewReporter(interval, opts.progressFn, progress.WithLogger(t.logger))
		if err != nil {
			return nil, fmt.Errorf("configuring progress: %w", err)
		}
		t.reporter = reporter
	}

	return t, nil
}

// ID returns the transfer's identifier, carried in logs and spans.
func (t *Transfer) ID() string { return t.id }

// State returns the transfer's current lifecycle state. Safe to call
// concurrently with Run.
func (t *Transfer) State() State { return State(t.state.Load()) }

// BytesRead returns the bytes accepted from the source so far.
func (t *Transfer) BytesRead() int64 { return t.bytesRead.Load() }

// BytesWritten returns the bytes committed to the sink so far.
func (t *Transfer) BytesWritten() int64 { return t.bytesWritten.Load() }

// Run executes the transfer and blocks until it reaches a terminal
// state. It returns the bytes committed to the sink and, on anything
// but success, an error wrapping exactly one of the package sentinels.
// Bytes already committed when a source, sink, or quota failure occurs
// are retained in the sink. A second call returns ErrAlreadyStarted.
func (t *Transfer) Run(ctx context.Context) (int64, error) {
	if !t.started.CompareAndSwap(false, true) {
		return t.bytesWritten.Load(), ErrAlreadyStarted
	}

	ctx, span := t.tracer.Start(ctx, "sinker.transfer")
	span.SetAttributes(
		attribute.String("transfer_id", t.id),
		attribute.Int64("offset", t.startOffset),
	)
	defer span.End()

	defer func() {
		if err := t.release(); err != nil {
			t.logger.Error("closing sink", "transfer_id", t.id, "error", err)
		}
	}()

	t.logger.Debug("transfer starting", "transfer_id", t.id, "offset", t.startOffset)

	if err := t.prepare(ctx); err != nil {
		// Cancellation during preparation settles as cancelled, not
		// as a setup failure.
		if cerr := ctx.Err(); cerr != nil {
			return t.finish(span, StateCancelled, fmt.Errorf("%w: %w", ErrCancelled, cerr))
		}
		return t.finish(span, StateFailed, err)
	}

	err := t.pump(ctx)
	switch {
	case err == nil:
		return t.complete(span)
	case errors.Is(err, ErrCancelled):
		return t.finish(span, StateCancelled, err)
	default:
		return t.finish(span, StateFailed, err)
	}
}

// prepare reads the usage snapshot, positions the sink, and starts the
// source. Nothing is written until all three succeed.
func (t *Transfer) prepare(ctx context.Context) error {
	t.setState(StatePreparing)

	snap, err := t.ledger.Prepare(ctx)
	if err != nil {
		return fmt.Errorf("%w: reading usage snapshot: %w", ErrSetup, err)
	}

	size, err := t.sink.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("%w: sizing sink: %w", ErrSetup, err)
	}
	if _, err := t.sink.Seek(t.startOffset, io.SeekStart); err != nil {
		return fmt.Errorf("%w: positioning sink: %w", ErrSetup, err)
	}

	// Bytes between the offset and the current end rewrite existing
	// content, so they consume no allowance. An offset past the end
	// grows the sink by the zero-filled gap before the first byte
	// lands, so a negative overlap is charged up front.
	overlap := size - t.startOffset
	t.headroom = snap.AllowedGrowth
	if overlap > 0 && t.headroom > math.MaxInt64-overlap {
		t.headroom = math.MaxInt64
	} else {
		t.headroom += overlap
	}
	if t.headroom < 0 {
		t.headroom = 0
	}

	t.logger.Debug("usage snapshot read",
		"transfer_id", t.id,
		"used", snap.Used,
		"allowed_growth", snap.AllowedGrowth,
		"headroom", t.headroom,
	)

	if err := t.src.Start(ctx); err != nil {
		return fmt.Errorf("%w: starting source: %w", ErrSource, err)
	}

	return nil
}

// pump alternates reads and writes until the source drains or a leg
// fails. A nil return means the stream completed.
func (t *Transfer) pump(ctx context.Context) error {
	for {
		t.setState(StateReading)
		n, rerr := t.src.Read(ctx, t.buf)

		// A read that lands after cancellation is discarded without
		// touching the counters.
		if cerr := ctx.Err(); cerr != nil {
			return fmt.Errorf("%w: %w", ErrCancelled, cerr)
		}

		if n > 0 {
			t.bytesRead.Add(int64(n))

			if err := t.write(ctx, t.buf[:n]); err != nil {
				return err
			}
		}

		switch {
		case rerr == nil:
			// A zero-length read with no error is not end-of-data;
			// issue the next read.
		case errors.Is(rerr, io.EOF):
			return nil
		default:
			return fmt.Errorf("%w: %w", ErrSource, rerr)
		}
	}
}

// write commits one chunk to the sink. The chunk is rejected whole when
// it exceeds the remaining allowance.
func (t *Transfer) write(ctx context.Context, p []byte) error {
	t.setState(StateWriting)

	if int64(len(p)) > t.headroom {
		return &Error{
			Err:    ErrQuotaExceeded,
			Detail: fmt.Sprintf("chunk of %d bytes exceeds remaining allowance of %d", len(p), t.headroom),
		}
	}

	nw, werr := t.sink.Write(p)

	// A write that lands after cancellation is discarded without
	// touching the counters.
	if cerr := ctx.Err(); cerr != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, cerr)
	}

	if nw > 0 {
		t.bytesWritten.Add(int64(nw))
		t.headroom -= int64(nw)
		t.checksum.observe(p[:nw])
	}

	if werr == nil && nw < len(p) {
		werr = io.ErrShortWrite
	}
	if werr != nil {
		return fmt.Errorf("%w: %w", ErrSink, werr)
	}

	if t.reporter != nil {
		t.reporter.MaybeReport(t.bytesWritten.Load(), time.Now())
	}

	return nil
}

// complete validates the stream digest, flushes the sink, and settles
// the transfer as completed.
func (t *Transfer) complete(span trace.Span) (int64, error) {
	if err := t.checksum.verify(); err != nil {
		return t.finish(span, StateFailed, err)
	}

	if s, ok := t.sink.(syncer); ok {
		if err := s.Sync(); err != nil {
			return t.finish(span, StateFailed, fmt.Errorf("%w: syncing sink: %w", ErrSink, err))
		}
	}

	return t.finish(span, StateCompleted, nil)
}

// finish releases resources, settles the terminal state, and yields
// the transfer's single outcome. Resources are released before the
// outcome becomes observable.
func (t *Transfer) finish(span trace.Span, state State, ferr error) (int64, error) {
	closeErr := t.release()
	switch {
	case closeErr == nil:
	case ferr == nil:
		state = StateFailed
		ferr = fmt.Errorf("%w: closing sink: %w", ErrSink, closeErr)
	default:
		t.logger.Error("closing sink", "transfer_id", t.id, "error", closeErr)
	}

	t.setState(state)

	written := t.bytesWritten.Load()
	span.SetAttributes(attribute.Int64("bytes_written", written))

	switch {
	case ferr == nil:
		t.logger.Info("transfer complete", "transfer_id", t.id, "written", written)
		if t.reporter != nil {
			t.reporter.Done(written)
		}
	case errors.Is(ferr, ErrCancelled):
		t.logger.Info("transfer cancelled", "transfer_id", t.id, "written", written)
	default:
		t.logger.Error("transfer failed", "transfer_id", t.id, "state", state.String(), "written", written, "error", ferr)
	}

	return written, ferr
}

// release drops the source and closes the sink exactly once. The close
// error reaches the transfer outcome only through the first call.
func (t *Transfer) release() error {
	var closeErr error
	t.releaseOnce.Do(func() {
		t.src.Cancel()
		closeErr = t.sink.Close()
	})

	return closeErr
}

func (t *Transfer) setState(s State) {
	t.state.Store(int32(s))
}
