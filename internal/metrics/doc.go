// Package metrics collects engine events in the background and exposes them
// as a JSON snapshot.
//
// Events are sent on a buffered channel and processed by a single goroutine,
// so the status path never waits on bookkeeping. Senders drop events when the
// buffer is full.
//
// Example usage:
//
//	collector := metrics.NewCollector(256, logger)
//	collector.Start(ctx)
//
//	collector.EventChannel() <- metrics.MetricEvent{
//		Type:     metrics.EventFetchSucceeded,
//		Duration: 12 * time.Millisecond,
//	}
//
//	snapshot := collector.Snapshot()
//
// Remaining events are drained when the context is cancelled.
package metrics
