// Package engine ties the stats fetch, state tracking and verdict together.
//
// An Engine owns the tracker, aggregator and fetch scheduler and serializes
// access to them with one mutex. The stats fetch itself runs outside the lock.
package engine
