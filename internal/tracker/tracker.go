package tracker

import (
	"log/slog"
	"time"

	"github.com/angeloszaimis/haproxy-status/internal/snapshot"
	"github.com/angeloszaimis/haproxy-status/pkg/timefmt"
)

// ServerState is the tracked status of one pool or server.
type ServerState struct {
	Status string
	// ChangeTS is the epoch second the current status began.
	ChangeTS int64
	// NextLogDown is the epoch second after which a still-down notice may be
	// logged. Zero when unset.
	NextLogDown int64
}

// Since returns how long the state has held at now.
func (s ServerState) Since(now time.Time) time.Duration {
	return time.Duration(now.Unix()-s.ChangeTS) * time.Second
}

type EventKind string

const (
	EventInitialStatus EventKind = "initial_status"
	EventStatusChanged EventKind = "status_changed"
	EventStillDown     EventKind = "still_down"
)

// Event is a notable change for an individual server. Pool rows never
// produce events.
type Event struct {
	Kind       EventKind
	Site       string
	Server     string
	Status     string
	PrevStatus string
	// Duration is how long the server has been DOWN, for EventStillDown.
	Duration time.Duration
}

type Tracker struct {
	logDownInterval time.Duration
	logger          *slog.Logger
	states          map[string]map[string]*ServerState
	lastUpdate      time.Time
	updated         bool
}

func New(logDownInterval time.Duration, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		logDownInterval: logDownInterval,
		logger:          logger,
		states:          make(map[string]map[string]*ServerState),
	}
}

// Observe folds one snapshot into the tracked state and records now as the
// time of the last successful fetch. Frontend rows are ignored.
func (t *Tracker) Observe(sites []*snapshot.Site, now time.Time) []Event {
	t.lastUpdate = now
	t.updated = true

	var events []Event
	for _, site := range sites {
		for _, rec := range site.Servers {
			if ev, ok := t.register(site.Name(), rec, now); ok {
				events = append(events, ev)
			}
		}
		for _, rec := range site.Backends {
			t.register(site.Name(), rec, now)
		}
	}

	t.logger.Debug("Tracked state updated",
		slog.Int("sites", len(t.states)),
		slog.Int("events", len(events)))

	return events
}

func (t *Tracker) register(site string, rec *snapshot.Record, now time.Time) (Event, bool) {
	server := rec.ServerName()
	status := rec.Status()
	isPool := rec.IsBackend()
	ts := now.Unix()

	servers, ok := t.states[site]
	if !ok {
		servers = make(map[string]*ServerState)
		t.states[site] = servers
	}

	state, seen := servers[server]
	if !seen {
		state = &ServerState{}
		servers[server] = state
	}

	if !seen || state.Status != status {
		lastchg, ok := rec.LastChange()
		if !ok {
			t.logger.Debug("Record has no usable lastchg",
				slog.String("site", site),
				slog.String("server", server))
		}

		prev := state.Status
		state.Status = status
		state.ChangeTS = ts - lastchg

		if isPool {
			return Event{}, false
		}

		if status == snapshot.StatusDown {
			state.NextLogDown = ts + int64(t.logDownInterval/time.Second)
		}

		ev := Event{Site: site, Server: server, Status: status}
		if !seen {
			ev.Kind = EventInitialStatus
			t.logger.Info("Backend server initial status",
				slog.String("site", site),
				slog.String("server", server),
				slog.String("status", status))
		} else {
			ev.Kind = EventStatusChanged
			ev.PrevStatus = prev
			t.logger.Info("Backend server changed status",
				slog.String("site", site),
				slog.String("server", server),
				slog.String("from", prev),
				slog.String("status", status))
		}
		t.logger.Debug("All server data", slog.String("record", rec.String()))

		return ev, true
	}

	if !isPool && status == snapshot.StatusDown && ts >= state.NextLogDown {
		down := state.Since(now)
		t.logger.Info("Backend server is still DOWN",
			slog.String("site", site),
			slog.String("server", server),
			slog.String("downtime", timefmt.Short(down)))
		return Event{
			Kind:     EventStillDown,
			Site:     site,
			Server:   server,
			Status:   status,
			Duration: down,
		}, true
	}

	return Event{}, false
}

// LastUpdate returns the time of the last Observe call. ok is false when no
// snapshot has been observed yet.
func (t *Tracker) LastUpdate() (at time.Time, ok bool) {
	return t.lastUpdate, t.updated
}

// State returns the tracked state of one server or pool.
func (t *Tracker) State(site, server string) (ServerState, bool) {
	state, ok := t.states[site][server]
	if !ok {
		return ServerState{}, false
	}
	return *state, true
}

// States returns a copy of all tracked state keyed by site, then server.
func (t *Tracker) States() map[string]map[string]ServerState {
	out := make(map[string]map[string]ServerState, len(t.states))
	for site, servers := range t.states {
		copied := make(map[string]ServerState, len(servers))
		for name, state := range servers {
			copied[name] = *state
		}
		out[site] = copied
	}
	return out
}
