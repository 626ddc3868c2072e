package httpsource

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// RedirectFunc mirrors [http.Client.CheckRedirect]. Returning an error
// aborts the redirect chain; returning [http.ErrUseLastResponse]
// delivers the most recent response as-is.
type RedirectFunc func(req *http.Request, via []*http.Request) error

// AuthChallengeFunc observes an authentication challenge from the
// server. challenge holds the WWW-Authenticate or Proxy-Authenticate
// header verbatim and may be empty.
type AuthChallengeFunc func(statusCode int, challenge string)

// CertificateFunc observes a TLS certificate verification failure.
type CertificateFunc func(err error)

// Option is a functional option for configuring a [Source] via [New].
type Option func(*options) error

type options struct {
	expCode     int
	redirect    RedirectFunc
	challenge   AuthChallengeFunc
	certificate CertificateFunc
	logger      *slog.Logger
}

// WithExpectStatus sets the status code Start accepts.
// Defaults to 200 OK.
func WithExpectStatus(code int) Option {
	return func(o *options) error {
		if code < 100 || code > 599 {
			return fmt.Errorf("status code[%d] out of range", code)
		}
		o.expCode = code
		return nil
	}
}

// WithRedirectFunc installs a hook consulted before each redirect
// is followed.
func WithRedirectFunc(fn RedirectFunc) Option {
	return func(o *options) error {
		if fn == nil {
			return errors.New("redirect func must not be nil")
		}
		o.redirect = fn
		return nil
	}
}

// WithAuthChallengeFunc installs a hook that observes 401 and 407
// responses. The source never negotiates credentials itself; Start
// still fails with [ErrAuthChallenge].
func WithAuthChallengeFunc(fn AuthChallengeFunc) Option {
	return func(o *options) error {
		if fn == nil {
			return errors.New("auth challenge func must not be nil")
		}
		o.challenge = fn
		return nil
	}
}

// WithCertificateFunc installs a hook that observes TLS certificate
// verification failures.
func WithCertificateFunc(fn CertificateFunc) Option {
	return func(o *options) error {
		if fn == nil {
			return errors.New("certificate func must not be nil")
		}
		o.certificate = fn
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Source].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}
