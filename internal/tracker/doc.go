// Package tracker keeps the last seen status of every backend pool and server
// across snapshots.
//
// A status change is anchored to the time HAProxy reports it happened
// (observation time minus lastchg), not to the time the snapshot was taken, so
// polling jitter never resets a backend's uptime. Individual servers that stay
// DOWN produce one "still down" notice once the log-down interval has passed.
//
// A Tracker is not safe for concurrent use.
package tracker
