// Package httpsource adapts an HTTP response body into a streaming
// transfer source, with hooks for observing redirects, authentication
// challenges, and certificate failures.
package httpsource

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
)

// Source streams the body of a single HTTP response. Start issues the
// request and classifies the response, Read hands out body chunks, and
// Cancel aborts the request and releases the connection.
type Source struct {
	client *http.Client
	req    *http.Request
	opts   options
	logger *slog.Logger

	started    atomic.Bool
	cancel     context.CancelFunc
	body       io.ReadCloser
	length     int64
	cancelOnce sync.Once
}

// New builds a Source that issues req through client.
// A nil client falls back to [http.DefaultClient].
func New(client *http.Client, req *http.Request, optFns ...Option) (*Source, error) {
	if req == nil {
		return nil, errors.New("request must not be nil")
	}

	opts := options{expCode: http.StatusOK}
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	if client == nil {
		client = http.DefaultClient
	}

	s := &Source{
		client: client,
		req:    req,
		opts:   opts,
		logger: opts.logger,
		length: -1,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// Start issues the request and verifies the response status. On
// success the response body is retained for subsequent Read calls.
func (s *Source) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	ctx, s.cancel = context.WithCancel(ctx)
	req := s.req.Clone(ctx)

	client := s.client
	if s.opts.redirect != nil {
		// Copy so the hook does not leak into a shared client.
		cpy := *client
		cpy.CheckRedirect = s.opts.redirect
		client = &cpy
	}

	resp, err := client.Do(req)
	if err != nil {
		var certErr *tls.CertificateVerificationError
		if errors.As(err, &certErr) {
			if s.opts.certificate != nil {
				s.opts.certificate(certErr)
			}
			return fmt.Errorf("%w: %w", ErrCertificate, err)
		}

		return fmt.Errorf("exec http do: %w", err)
	}

	if resp.StatusCode != s.opts.expCode {
		return s.classifyStatus(resp)
	}

	s.body = resp.Body
	s.length = resp.ContentLength

	s.logger.Debug("response accepted",
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"content_length", resp.ContentLength,
	)

	return nil
}

// classifyStatus drains resp into an [UnexpectedStatusError], invoking
// the auth challenge hook for 401 and 407 responses.
func (s *Source) classifyStatus(resp *http.Response) error {
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
	if err != nil {
		b = []byte("unable to read body")
	}

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		s.logger.Error("failed to discard unused body", "error", err)
	}
	if err := resp.Body.Close(); err != nil {
		s.logger.Error("failed to close response body", "error", err)
	}

	cause := ErrUnexpectedStatusCode
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if s.opts.challenge != nil {
			s.opts.challenge(resp.StatusCode, resp.Header.Get("WWW-Authenticate"))
		}
		cause = fmt.Errorf("%w: %w", ErrAuthChallenge, ErrUnexpectedStatusCode)
	case http.StatusProxyAuthRequired:
		if s.opts.challenge != nil {
			s.opts.challenge(resp.StatusCode, resp.Header.Get("Proxy-Authenticate"))
		}
		cause = fmt.Errorf("%w: %w", ErrAuthChallenge, ErrUnexpectedStatusCode)
	}

	return &UnexpectedStatusError{
		StatusCode: resp.StatusCode,
		Body:       string(b),
		Err:        cause,
	}
}

// Read fills p from the response body.
func (s *Source) Read(ctx context.Context, p []byte) (int, error) {
	if s.body == nil {
		return 0, ErrNotStarted
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	return s.body.Read(p)
}

// Cancel aborts the in-flight request and closes the response body,
// unblocking any pending Read. Safe to call more than once and
// before Start.
func (s *Source) Cancel() {
	s.cancelOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		if s.body != nil {
			if err := s.body.Close(); err != nil {
				s.logger.Error("failed to close response body", "error", err)
			}
		}
	})
}

// ContentLength reports the length advertised by the response, or -1
// when unknown or before Start.
func (s *Source) ContentLength() int64 {
	return s.length
}
