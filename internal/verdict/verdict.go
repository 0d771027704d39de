package verdict

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/angeloszaimis/haproxy-status/internal/snapshot"
	"github.com/angeloszaimis/haproxy-status/internal/tracker"
	"github.com/angeloszaimis/haproxy-status/pkg/timefmt"
)

type Status string

const (
	StatusUp        Status = "STATUS_UP"
	StatusDown      Status = "STATUS_DOWN"
	StatusAdminDown Status = "STATUS_ADMIN_DOWN"
	StatusUnknown   Status = "STATUS_UNKNOWN"
)

const (
	ReasonNoData = "No backend data received from haproxy"
	// Restarting replaces UP for pools younger than the healthy uptime.
	Restarting = "(RE)STARTING"
)

type Verdict struct {
	Status Status `json:"status"`
	Reason string `json:"reason"`
	// TTL is the number of seconds until fresh data is due. Negative when
	// the last fetch is overdue.
	TTL int64 `json:"ttl"`
}

type Config struct {
	PollInterval  time.Duration
	HealthyUptime time.Duration
}

// Compute derives the verdict from tracked state. A zero lastUpdate means no
// snapshot has been observed. Compute has no side effects.
func Compute(states map[string]map[string]tracker.ServerState, lastUpdate, now time.Time, cfg Config) Verdict {
	var age time.Duration
	if !lastUpdate.IsZero() {
		age = now.Sub(lastUpdate)
	}

	res := Verdict{
		Status: StatusUnknown,
		Reason: ReasonNoData,
		TTL:    int64((cfg.PollInterval - age) / time.Second),
	}

	if lastUpdate.IsZero() {
		return res
	}

	sites := make([]string, 0, len(states))
	for site := range states {
		sites = append(sites, site)
	}
	sort.Strings(sites)

	var (
		count     int
		downCount int
		msg       []string
	)

	for _, site := range sites {
		pool, ok := states[site][snapshot.ServerBackend]
		if !ok {
			continue
		}
		count++

		uptime := pool.Since(now)
		status := pool.Status
		if status == snapshot.StatusUp {
			if uptime >= cfg.HealthyUptime {
				continue
			}
			status = Restarting
		}

		downCount++
		msg = append(msg, fmt.Sprintf("%s is %s (%s)", site, status, timefmt.Short(uptime)))
	}

	switch {
	case downCount > 0:
		res.Status = StatusDown
		res.Reason = fmt.Sprintf("%d/%d %s not UP: %s", downCount, count, plural(count), strings.Join(msg, ", "))
	case count > 0:
		res.Status = StatusUp
		res.Reason = fmt.Sprintf("%d %s UP", count, plural(count))
	}

	return res
}

func plural(count int) string {
	if count == 1 {
		return "backend"
	}
	return "backends"
}
