package httpsource

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedStatusCode indicates the response status did not
	// match the code the source expects. The concrete error is an
	// [UnexpectedStatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrAuthChallenge indicates a 401 or 407 response. It is joined
	// with [ErrUnexpectedStatusCode] after the challenge hook runs.
	ErrAuthChallenge = errors.New("authentication challenge")
	// ErrCertificate indicates TLS certificate verification failed.
	ErrCertificate = errors.New("certificate verification failed")
	// ErrAlreadyStarted indicates Start was called more than once.
	ErrAlreadyStarted = errors.New("source already started")
	// ErrNotStarted indicates Read was called before a successful Start.
	ErrNotStarted = errors.New("source not started")
)

// maxErrBodySize bounds how much of a rejected response lands in
// [UnexpectedStatusError]; the rest of the body is drained and
// discarded.
const maxErrBodySize = 4 << 10

// UnexpectedStatusError reports a response the source refused for its
// status code.
type UnexpectedStatusError struct {
	StatusCode int
	// Body holds up to maxErrBodySize bytes of the rejected response.
	Body string
	// Err is [ErrUnexpectedStatusCode], joined with [ErrAuthChallenge]
	// on 401 and 407 responses.
	Err error
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *UnexpectedStatusError) Unwrap() error {
	return e.Err
}
