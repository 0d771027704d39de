package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/angeloszaimis/haproxy-status/internal/metrics"
	"github.com/angeloszaimis/haproxy-status/internal/scheduler"
	"github.com/angeloszaimis/haproxy-status/internal/snapshot"
	"github.com/angeloszaimis/haproxy-status/internal/tracker"
	"github.com/angeloszaimis/haproxy-status/internal/transport"
	"github.com/angeloszaimis/haproxy-status/internal/verdict"
)

const pong = "pong\n"

// Override reports whether the verdict is forced to admin down.
type Override interface {
	IsForcedDown() bool
}

type Options struct {
	Fetcher    transport.Fetcher
	Tracker    *tracker.Tracker
	Aggregator *verdict.Aggregator
	Scheduler  *scheduler.Scheduler
	Override   Override
	Logger     *slog.Logger
	// Events receives metric events. Optional; events are dropped when the
	// channel is full.
	Events chan<- metrics.MetricEvent
	// Clock defaults to time.Now.
	Clock func() time.Time
}

type Engine struct {
	mutex      sync.Mutex
	fetcher    transport.Fetcher
	tracker    *tracker.Tracker
	aggregator *verdict.Aggregator
	scheduler  *scheduler.Scheduler
	override   Override
	logger     *slog.Logger
	events     chan<- metrics.MetricEvent
	now        func() time.Time
}

func New(opts Options) *Engine {
	e := &Engine{
		fetcher:    opts.Fetcher,
		tracker:    opts.Tracker,
		aggregator: opts.Aggregator,
		scheduler:  opts.Scheduler,
		override:   opts.Override,
		logger:     opts.Logger,
		events:     opts.Events,
		now:        opts.Clock,
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Status fetches fresh stats when a fetch is due and returns the current
// verdict. A failed fetch leaves tracked state as it was; the verdict is
// computed regardless.
func (e *Engine) Status(ctx context.Context) verdict.Verdict {
	e.mutex.Lock()
	due := e.scheduler.Due(e.now())
	e.mutex.Unlock()

	if due {
		e.refresh(ctx)
	}

	forcedDown := e.override != nil && e.override.IsForcedDown()

	e.mutex.Lock()
	lastUpdate, _ := e.tracker.LastUpdate()
	v, changed := e.aggregator.Evaluate(e.tracker.States(), lastUpdate, forcedDown, e.now())
	e.mutex.Unlock()

	e.emit(metrics.MetricEvent{Type: metrics.EventVerdictServed, Status: string(v.Status), Reason: v.Reason})
	if changed {
		e.emit(metrics.MetricEvent{Type: metrics.EventVerdictChanged, Status: string(v.Status), Reason: v.Reason})
	}

	e.logger.Debug("Verdict",
		slog.String("status", string(v.Status)),
		slog.String("reason", v.Reason),
		slog.Int64("ttl", v.TTL))

	return v
}

// Ping is the liveness check. It never touches tracked state.
func (e *Engine) Ping() string {
	return pong
}

func (e *Engine) refresh(ctx context.Context) {
	start := e.now()

	sites, err := e.fetch(ctx)
	took := e.now().Sub(start)
	if err != nil {
		e.logger.Warn("No fresh haproxy status this cycle", slog.Any("err", err))
		e.emit(metrics.MetricEvent{Type: metrics.EventFetchFailed, Timestamp: start, Duration: took})
		return
	}

	e.mutex.Lock()
	events := e.tracker.Observe(sites, e.now())
	e.mutex.Unlock()

	e.emit(metrics.MetricEvent{Type: metrics.EventFetchSucceeded, Timestamp: start, Duration: took})
	for _, ev := range events {
		e.emit(toMetricEvent(ev, start))
	}
}

func (e *Engine) fetch(ctx context.Context) ([]*snapshot.Site, error) {
	raw, err := e.fetcher.Fetch(ctx, transport.QueryShowStat)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("haproxy command result",
		slog.String("query", transport.QueryShowStat),
		slog.Int("bytes", len(raw)))

	return snapshot.Parse(raw, e.logger)
}

func (e *Engine) emit(event metrics.MetricEvent) {
	if e.events == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = e.now()
	}

	select {
	case e.events <- event:
	default:
	}
}

func toMetricEvent(ev tracker.Event, at time.Time) metrics.MetricEvent {
	me := metrics.MetricEvent{
		Type:      metrics.EventServerStatus,
		Timestamp: at,
		Site:      ev.Site,
		Server:    ev.Server,
		Status:    ev.Status,
		Duration:  ev.Duration,
	}
	if ev.Kind == tracker.EventStillDown {
		me.Type = metrics.EventStillDown
	}
	return me
}
