package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventFetchSucceeded EventType = "fetch_succeeded"
	EventFetchFailed    EventType = "fetch_failed"
	EventServerStatus   EventType = "server_status"
	EventStillDown      EventType = "still_down"
	EventVerdictServed  EventType = "verdict_served"
	EventVerdictChanged EventType = "verdict_changed"
)

type MetricEvent struct {
	Type      EventType
	Timestamp time.Time
	Site      string
	Server    string
	Status    string
	Reason    string
	Duration  time.Duration
}

type Collector struct {
	eventCh chan MetricEvent
	metrics *Metrics
	logger  *slog.Logger
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		eventCh: make(chan MetricEvent, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
	}
}

func (c *Collector) EventChannel() chan<- MetricEvent {
	return c.eventCh
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventFetchSucceeded:
		c.metrics.RecordFetch(event.Timestamp, event.Duration, true)

	case EventFetchFailed:
		c.metrics.RecordFetch(event.Timestamp, event.Duration, false)

	case EventServerStatus:
		c.metrics.RecordServerStatus(event.Site, event.Server, event.Status)

	case EventStillDown:
		c.metrics.RecordStillDown(event.Site, event.Server, event.Duration)

	case EventVerdictServed:
		c.metrics.RecordVerdict(event.Status, event.Reason, false)

	case EventVerdictChanged:
		c.metrics.RecordVerdict(event.Status, event.Reason, true)

	default:
		c.logger.Debug("Ignoring unknown metric event", slog.String("type", string(event.Type)))
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot() Snapshot {
	return c.metrics.Snapshot()
}
