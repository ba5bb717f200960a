package httpsource

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"scoregaps/adapters/excel"
	"scoregaps/domain/facts"
	"scoregaps/internal"
	"scoregaps/internal/errors"
)

// Source downloads the fact table as CSV, e.g. a published spreadsheet export.
// Request timeouts and 408/504 responses are retried after a fixed delay;
// any other failure ends the fetch.
type Source struct {
	url        string
	client     *http.Client
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	logger     *internal.Logger
}

// Option configures a Source
type Option func(*Source)

// WithClient replaces the default HTTP client
func WithClient(c *http.Client) Option {
	return func(s *Source) { s.client = c }
}

// WithRetries sets the attempt budget and the wait between attempts
func WithRetries(maxRetries int, delay time.Duration) Option {
	return func(s *Source) {
		if maxRetries > 0 {
			s.maxRetries = maxRetries
		}
		s.retryDelay = delay
	}
}

// WithTimeout bounds each individual request. It applies to a copy of the
// client, so a shared client passed to WithClient is left alone.
func WithTimeout(d time.Duration) Option {
	return func(s *Source) { s.timeout = d }
}

// WithLogger replaces the default logger
func WithLogger(l *internal.Logger) Option {
	return func(s *Source) { s.logger = l }
}

// New creates an HTTP fact source with 5 attempts spaced 60s apart
func New(url string, opts ...Option) *Source {
	s := &Source{
		url:        url,
		client:     &http.Client{Timeout: 30 * time.Second},
		maxRetries: 5,
		retryDelay: 60 * time.Second,
		logger:     internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.timeout > 0 {
		client := *s.client
		client.Timeout = s.timeout
		s.client = &client
	}
	if s.logger == nil {
		s.logger = internal.DefaultLogger
	}
	s.logger = s.logger.With("HTTPSource")
	return s
}

// Describe names the source for logs
func (s *Source) Describe() string {
	return "http:" + s.url
}

// retryableError marks a failure worth another attempt
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Fetch downloads and decodes the table
func (s *Source) Fetch(ctx context.Context) (*facts.Table, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		body, err := s.download(ctx)
		if err == nil {
			data, err := excel.ReadCSV(body)
			body.Close()
			if err != nil {
				return nil, errors.DataUnavailable(err)
			}
			table, err := excel.DecodeFacts(data)
			if err != nil {
				return nil, errors.DataUnavailable(fmt.Errorf("%s: %w", s.url, err))
			}
			return table, nil
		}

		lastErr = err
		var retry *retryableError
		if !stderrors.As(err, &retry) {
			return nil, errors.DataUnavailable(err)
		}
		if attempt == s.maxRetries {
			break
		}
		s.logger.Warn("Attempt %d/%d failed: %v. Retrying in %s", attempt, s.maxRetries, err, s.retryDelay)

		timer := time.NewTimer(s.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.DataUnavailable(ctx.Err())
		case <-timer.C:
		}
	}
	return nil, errors.DataUnavailable(fmt.Errorf("gave up after %d attempts: %w", s.maxRetries, lastErr))
}

func (s *Source) download(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		var netErr net.Error
		if stderrors.As(err, &netErr) && netErr.Timeout() && ctx.Err() == nil {
			return nil, &retryableError{err}
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		resp.Body.Close()
		return nil, &retryableError{fmt.Errorf("server returned %s", resp.Status)}
	default:
		resp.Body.Close()
		return nil, errors.ExternalServiceError(s.url, fmt.Errorf("server returned %s", resp.Status))
	}
}
