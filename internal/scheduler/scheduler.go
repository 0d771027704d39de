// Package scheduler decides when the next stats fetch is due.
package scheduler

import (
	"math/rand"
	"time"
)

// Scheduler is a rate limiter for snapshot fetches. It is not safe for
// concurrent use.
type Scheduler struct {
	interval time.Duration
	jitter   func() time.Duration
	next     time.Time
}

type Option func(*Scheduler)

// WithJitter replaces the random jitter added to every interval.
func WithJitter(fn func() time.Duration) Option {
	return func(s *Scheduler) {
		s.jitter = fn
	}
}

// New returns a Scheduler whose first Due call always returns true.
func New(interval time.Duration, opts ...Option) *Scheduler {
	s := &Scheduler{
		interval: interval,
		jitter:   randomJitter,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Due reports whether a fetch should happen at now. When it returns true the
// next fetch is pushed one interval plus jitter ahead, whether or not the
// fetch then succeeds.
func (s *Scheduler) Due(now time.Time) bool {
	if now.Before(s.next) {
		return false
	}
	s.next = now.Add(s.interval + s.jitter())
	return true
}

// Next returns the earliest time Due will return true again.
func (s *Scheduler) Next() time.Time {
	return s.next
}

// Interval returns the configured fetch interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

func randomJitter() time.Duration {
	return time.Duration(rand.Int63n(int64(time.Second)))
}
