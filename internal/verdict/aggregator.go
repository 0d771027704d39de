package verdict

import (
	"log/slog"
	"time"

	"github.com/angeloszaimis/haproxy-status/internal/tracker"
)

// Aggregator computes verdicts and reports status transitions to a Sink. It
// is not safe for concurrent use.
type Aggregator struct {
	cfg    Config
	sink   Sink
	logger *slog.Logger
	last   Status
}

// NewAggregator returns an Aggregator. A nil sink disables transition output.
func NewAggregator(cfg Config, sink Sink, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{cfg: cfg, sink: sink, logger: logger}
}

// Evaluate computes the verdict, applies the admin override and writes the
// result to the sink when the status differs from the last one returned.
func (a *Aggregator) Evaluate(
	states map[string]map[string]tracker.ServerState,
	lastUpdate time.Time,
	forcedDown bool,
	now time.Time,
) (v Verdict, changed bool) {
	v = Compute(states, lastUpdate, now, a.cfg)
	if forcedDown {
		v.Status = StatusAdminDown
	}

	if v.Status == a.last {
		return v, false
	}
	a.last = v.Status

	a.logger.Info("Status changed",
		slog.String("status", string(v.Status)),
		slog.String("reason", v.Reason))

	if a.sink != nil {
		if err := a.sink.Write(v); err != nil {
			a.logger.Error("Failed to write status output",
				slog.String("status", string(v.Status)),
				slog.Any("err", err))
		}
	}

	return v, true
}

// Last returns the status of the last transition, or "" before the first
// evaluation.
func (a *Aggregator) Last() Status {
	return a.last
}

// Config returns the thresholds the aggregator was built with.
func (a *Aggregator) Config() Config {
	return a.cfg
}
