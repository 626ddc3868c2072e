// Package throttle provides a bandwidth-limiting decorator for
// transfer sources using a token-bucket algorithm from
// [golang.org/x/time/rate].
//
// # Usage
//
// Wrap an existing source with [NewSource]:
//
//	src, err := throttle.NewSource(
//		64<<10, // bytes per second
//		32<<10, // burst capacity in bytes
//		func() *slog.Logger { return slog.Default() },
//		next,
//	)
//
// When the byte budget is exhausted, reads block until enough tokens
// accumulate or the transfer context is cancelled.
package throttle
