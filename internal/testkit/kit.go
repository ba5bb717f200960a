// Package testkit provides in-memory fact sources and fixture tables for tests.
package testkit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"scoregaps/domain/facts"
	"scoregaps/internal/errors"
)

// StaticSource is an in-memory ports.FactSource. It can fail a set number of
// times before succeeding and can delay each fetch.
type StaticSource struct {
	mu       sync.Mutex
	table    *facts.Table
	failures int
	delay    time.Duration
	calls    int32
}

// NewStaticSource serves the given rows
func NewStaticSource(rows []facts.FactRow) *StaticSource {
	return &StaticSource{table: facts.NewTable(rows)}
}

// FailTimes makes the next n fetches fail
func (s *StaticSource) FailTimes(n int) *StaticSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = n
	return s
}

// WithDelay makes every fetch wait d
func (s *StaticSource) WithDelay(d time.Duration) *StaticSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
	return s
}

// SetRows swaps the served table
func (s *StaticSource) SetRows(rows []facts.FactRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = facts.NewTable(rows)
}

// Calls reports how many fetches were made
func (s *StaticSource) Calls() int {
	return int(atomic.LoadInt32(&s.calls))
}

// Describe names the source for logs
func (s *StaticSource) Describe() string {
	return "static"
}

// Fetch returns the table or an injected failure
func (s *StaticSource) Fetch(ctx context.Context) (*facts.Table, error) {
	atomic.AddInt32(&s.calls, 1)

	s.mu.Lock()
	delay := s.delay
	fail := s.failures > 0
	if fail {
		s.failures--
	}
	table := s.table
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, errors.DataUnavailable(ctx.Err())
		case <-time.After(delay):
		}
	}
	if fail {
		return nil, errors.DataUnavailable(fmt.Errorf("injected failure"))
	}
	return table, nil
}
