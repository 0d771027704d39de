package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mutex          sync.RWMutex
	fetchOK        int64
	fetchFailed    int64
	lastFetch      time.Time
	lastFetchTook  time.Duration
	lastFetchOK    bool
	servers        map[string]*serverMetrics
	verdictsServed int64
	verdictChanges int64
	status         string
	reason         string
	startTime      time.Time
}

type serverMetrics struct {
	status      string
	transitions int64
	stillDown   int64
	downtime    time.Duration
}

type Snapshot struct {
	Uptime  time.Duration            `json:"uptime"`
	Fetches FetchMetrics             `json:"fetches"`
	Verdict VerdictMetrics           `json:"verdict"`
	Servers map[string]ServerMetrics `json:"servers"`
}

type FetchMetrics struct {
	Succeeded    int64         `json:"succeeded"`
	Failed       int64         `json:"failed"`
	Last         time.Time     `json:"last,omitempty"`
	LastDuration time.Duration `json:"last_duration"`
	LastOK       bool          `json:"last_ok"`
}

type VerdictMetrics struct {
	Status  string `json:"status"`
	Reason  string `json:"reason"`
	Served  int64  `json:"served"`
	Changes int64  `json:"changes"`
}

type ServerMetrics struct {
	Status       string        `json:"status"`
	Transitions  int64         `json:"transitions"`
	StillDown    int64         `json:"still_down_notices"`
	LastDowntime time.Duration `json:"last_downtime"`
}

// ServerKey joins a site and server name as used in Snapshot.Servers.
func ServerKey(site, server string) string {
	return site + "/" + server
}

func NewMetrics() *Metrics {
	return &Metrics{
		servers:   make(map[string]*serverMetrics),
		startTime: time.Now(),
	}
}

func (m *Metrics) RecordFetch(at time.Time, took time.Duration, ok bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if ok {
		m.fetchOK++
	} else {
		m.fetchFailed++
	}
	m.lastFetch = at
	m.lastFetchTook = took
	m.lastFetchOK = ok
}

func (m *Metrics) RecordServerStatus(site, server, status string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	sm := m.server(site, server)
	sm.status = status
	sm.transitions++
}

func (m *Metrics) RecordStillDown(site, server string, downtime time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	sm := m.server(site, server)
	sm.stillDown++
	sm.downtime = downtime
}

func (m *Metrics) RecordVerdict(status, reason string, changed bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.status = status
	m.reason = reason
	if changed {
		m.verdictChanges++
	} else {
		m.verdictsServed++
	}
}

// server must be called with the write lock held.
func (m *Metrics) server(site, server string) *serverMetrics {
	key := ServerKey(site, server)
	sm, ok := m.servers[key]
	if !ok {
		sm = &serverMetrics{}
		m.servers[key] = sm
	}
	return sm
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime: time.Since(m.startTime),
		Fetches: FetchMetrics{
			Succeeded:    m.fetchOK,
			Failed:       m.fetchFailed,
			Last:         m.lastFetch,
			LastDuration: m.lastFetchTook,
			LastOK:       m.lastFetchOK,
		},
		Verdict: VerdictMetrics{
			Status:  m.status,
			Reason:  m.reason,
			Served:  m.verdictsServed,
			Changes: m.verdictChanges,
		},
		Servers: make(map[string]ServerMetrics, len(m.servers)),
	}

	for key, sm := range m.servers {
		snap.Servers[key] = ServerMetrics{
			Status:       sm.status,
			Transitions:  sm.transitions,
			StillDown:    sm.stillDown,
			LastDowntime: sm.downtime,
		}
	}

	return snap
}
