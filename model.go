package sinker

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/adamwoolhether/sinker/quota"
)

var (
	// ErrSetup indicates the transfer failed before any byte moved:
	// the usage snapshot was unavailable or the sink could not be
	// positioned.
	ErrSetup = errors.New("transfer setup failed")
	// ErrSource indicates the source failed to start or deliver bytes.
	ErrSource = errors.New("source failure")
	// ErrSink indicates the sink rejected bytes, wrote short, or could
	// not be flushed.
	ErrSink = errors.New("sink failure")
	// ErrQuotaExceeded indicates a chunk would overrun the area's
	// remaining allowance. No byte of the offending chunk is written.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrCancelled indicates the owner cancelled the transfer via context.
	ErrCancelled = errors.New("transfer cancelled")
	// ErrChecksumMismatch indicates the stream digest did not match the
	// expected value. The written file is retained.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrAlreadyStarted indicates Run was called more than once.
	ErrAlreadyStarted = errors.New("transfer already started")
	// ErrQueueShutdown indicates the transfer queue was shut down.
	ErrQueueShutdown = errors.New("queue was shut down")
)

// Error carries human-readable detail alongside a sentinel cause.
type Error struct {
	Detail string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// State identifies where a [Transfer] is in its lifecycle. It can be
// observed concurrently via [Transfer.State] while Run is in flight.
type State int32

const (
	StateUninitialized State = iota
	StatePreparing
	StateReading
	StateWriting
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StatePreparing:
		return "preparing"
	case StateReading:
		return "reading"
	case StateWriting:
		return "writing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Source delivers the bytes a transfer consumes. Implementations are
// driven by a single goroutine: Start is called once, then Read
// repeatedly until it returns io.EOF or an error. Cancel is an
// advisory abort and must be safe to call at any point, including
// after the source is drained.
type Source interface {
	Start(ctx context.Context) error
	Read(ctx context.Context, p []byte) (int, error)
	Cancel()
}

// Sink is the destination file handle. The owner opens it and hands
// ownership to the transfer, which seeks it to the write offset and
// closes it exactly once on every exit path. A sink that also
// implements interface{ Sync() error } is flushed before close when
// the transfer completes.
type Sink interface {
	io.WriteSeeker
	io.Closer
}

// syncer is satisfied by sinks that can flush to stable storage,
// *os.File among them.
type syncer interface {
	Sync() error
}

// Ledger yields the usage snapshot governing how much a transfer may
// write. *quota.Area implements it.
type Ledger interface {
	Prepare(ctx context.Context) (quota.Snapshot, error)
}
