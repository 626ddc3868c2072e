// Package sinker streams bytes from an asynchronous source into a file
// sink at a fixed offset, enforcing a storage-area quota and reporting
// rate-limited progress.
//
// # Running a Transfer
//
// Open a sink inside a quota area, build a [Transfer] with [New], and
// drive it with [Transfer.Run]:
//
//	area, err := quota.NewArea(osfs.New(root), quota.Config{Name: "attachments", Quota: 1 << 30})
//	f, err := area.OpenFile("report.bin", os.O_RDWR|os.O_CREATE, 0o644)
//	t, err := sinker.New(src, f, 0, area)
//	written, err := t.Run(ctx)
//
// Run settles exactly one outcome: the committed byte count plus nil on
// success, or an error wrapping one of [ErrSetup], [ErrSource],
// [ErrSink], [ErrQuotaExceeded], or [ErrCancelled]. The sink handle is
// closed before the outcome is returned, on every path.
//
// # Quota
//
// The allowance is read once per transfer from the area's usage record
// and never renegotiated. A chunk that would overrun the allowance is
// rejected whole; bytes committed by earlier chunks stay in the file.
// Overwriting existing bytes consumes no allowance.
//
// # Progress
//
// [WithProgress] registers a callback for rate-limited progress events.
// Intermediate events are throttled to one per interval; the terminal
// event always arrives:
//
//	t, err := sinker.New(src, f, 0, area,
//		sinker.WithProgress(func(e progress.Event) { ... }),
//		sinker.WithProgressInterval(250*time.Millisecond),
//	)
//
// # Async Transfers
//
// A [Queue] runs transfers on managed goroutines with an optional
// concurrency limit:
//
//	q := sinker.NewQueue(4)
//	r := q.Start(ctx, t)
//	// ... do other work ...
//	if err := r.Err(); err != nil { ... }
//	err = q.Wait() // blocks until the whole batch settles
//
// Sources over HTTP live in the
// [github.com/adamwoolhether/sinker/httpsource] package; byte-rate
// shaping for any source lives in
// [github.com/adamwoolhether/sinker/throttle].
package sinker
