package tracker_test

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/haproxy-status/internal/snapshot"
	"github.com/angeloszaimis/haproxy-status/internal/tracker"
)

// row is pxname, svname, status, lastchg.
type row [4]string

func sitesFrom(rows ...row) []*snapshot.Site {
	lines := []string{"# pxname,svname,status,lastchg,"}
	for _, r := range rows {
		lines = append(lines, strings.Join(r[:], ",")+",")
	}
	sites, err := snapshot.Parse(strings.Join(lines, "\n"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	Expect(err).NotTo(HaveOccurred())
	return sites
}

var _ = Describe("Tracker", func() {
	var (
		t      *tracker.Tracker
		logBuf *bytes.Buffer
		now    time.Time
	)

	BeforeEach(func() {
		logBuf = &bytes.Buffer{}
		t = tracker.New(60*time.Second, slog.New(slog.NewTextHandler(logBuf, nil)))
		now = time.Unix(1_700_000_000, 0)
	})

	Describe("LastUpdate", func() {
		It("should report no update before the first snapshot", func() {
			_, ok := t.LastUpdate()
			Expect(ok).To(BeFalse())
		})

		It("should record the observation time", func() {
			t.Observe(sitesFrom(row{"www", "BACKEND", "UP", "10"}), now)
			at, ok := t.LastUpdate()
			Expect(ok).To(BeTrue())
			Expect(at).To(Equal(now))
		})
	})

	Describe("first observation", func() {
		It("should anchor change time to lastchg", func() {
			t.Observe(sitesFrom(row{"www", "BACKEND", "UP", "1000"}), now)
			state, ok := t.State("www", "BACKEND")
			Expect(ok).To(BeTrue())
			Expect(state.Status).To(Equal("UP"))
			Expect(state.ChangeTS).To(Equal(now.Unix() - 1000))
		})

		It("should emit initial status events for servers only", func() {
			events := t.Observe(sitesFrom(
				row{"www", "web-1", "UP", "10"},
				row{"www", "BACKEND", "UP", "10"},
			), now)
			Expect(events).To(HaveLen(1))
			Expect(events[0].Kind).To(Equal(tracker.EventInitialStatus))
			Expect(events[0].Site).To(Equal("www"))
			Expect(events[0].Server).To(Equal("web-1"))
			Expect(logBuf.String()).To(ContainSubstring("initial status"))
		})

		It("should ignore frontend rows", func() {
			t.Observe(sitesFrom(row{"www", "FRONTEND", "OPEN", ""}), now)
			_, ok := t.State("www", "FRONTEND")
			Expect(ok).To(BeFalse())
		})

		It("should arm the still-down timer for a down server", func() {
			t.Observe(sitesFrom(row{"www", "web-1", "DOWN", "5"}), now)
			state, _ := t.State("www", "web-1")
			Expect(state.NextLogDown).To(Equal(now.Unix() + 60))
		})

		It("should never arm the still-down timer for the pool row", func() {
			t.Observe(sitesFrom(row{"www", "BACKEND", "DOWN", "5"}), now)
			state, _ := t.State("www", "BACKEND")
			Expect(state.NextLogDown).To(BeZero())
		})
	})

	Describe("subsequent observations", func() {
		BeforeEach(func() {
			t.Observe(sitesFrom(
				row{"www", "web-1", "UP", "100"},
				row{"www", "BACKEND", "UP", "100"},
			), now)
		})

		It("should keep change time when status is unchanged", func() {
			before, _ := t.State("www", "BACKEND")
			events := t.Observe(sitesFrom(
				row{"www", "web-1", "UP", "3"},
				row{"www", "BACKEND", "UP", "3"},
			), now.Add(15*time.Second))
			after, _ := t.State("www", "BACKEND")

			Expect(events).To(BeEmpty())
			Expect(after.ChangeTS).To(Equal(before.ChangeTS))
		})

		It("should re-anchor change time on a transition", func() {
			later := now.Add(30 * time.Second)
			events := t.Observe(sitesFrom(
				row{"www", "web-1", "DOWN", "7"},
				row{"www", "BACKEND", "DOWN", "7"},
			), later)

			state, _ := t.State("www", "BACKEND")
			Expect(state.ChangeTS).To(Equal(later.Unix() - 7))

			Expect(events).To(HaveLen(1))
			Expect(events[0].Kind).To(Equal(tracker.EventStatusChanged))
			Expect(events[0].PrevStatus).To(Equal("UP"))
			Expect(events[0].Status).To(Equal("DOWN"))
		})

		It("should re-anchor on every flap", func() {
			t.Observe(sitesFrom(row{"www", "BACKEND", "DOWN", "0"}), now.Add(10*time.Second))
			t.Observe(sitesFrom(row{"www", "BACKEND", "UP", "1"}), now.Add(20*time.Second))

			state, _ := t.State("www", "BACKEND")
			Expect(state.Status).To(Equal("UP"))
			Expect(state.ChangeTS).To(Equal(now.Add(20*time.Second).Unix() - 1))
		})

		It("should keep state for servers missing from later snapshots", func() {
			t.Observe(sitesFrom(row{"api", "BACKEND", "UP", "1"}), now.Add(time.Second))
			_, ok := t.State("www", "web-1")
			Expect(ok).To(BeTrue())
		})
	})

	Describe("still-down notices", func() {
		BeforeEach(func() {
			t.Observe(sitesFrom(row{"www", "web-1", "DOWN", "0"}), now)
		})

		It("should stay quiet inside the log-down interval", func() {
			events := t.Observe(sitesFrom(row{"www", "web-1", "DOWN", "30"}), now.Add(30*time.Second))
			Expect(events).To(BeEmpty())
		})

		It("should report the downtime once the interval has passed", func() {
			events := t.Observe(sitesFrom(row{"www", "web-1", "DOWN", "60"}), now.Add(60*time.Second))
			Expect(events).To(HaveLen(1))
			Expect(events[0].Kind).To(Equal(tracker.EventStillDown))
			Expect(events[0].Duration).To(Equal(60 * time.Second))
			Expect(logBuf.String()).To(ContainSubstring("downtime=1m"))
		})

		It("should not re-arm the timer", func() {
			before, _ := t.State("www", "web-1")
			t.Observe(sitesFrom(row{"www", "web-1", "DOWN", "61"}), now.Add(61*time.Second))
			events := t.Observe(sitesFrom(row{"www", "web-1", "DOWN", "76"}), now.Add(76*time.Second))
			after, _ := t.State("www", "web-1")

			Expect(after).To(Equal(before))
			Expect(events).To(HaveLen(1))
			Expect(events[0].Duration).To(Equal(76 * time.Second))
		})
	})

	Describe("States", func() {
		It("should return an independent copy", func() {
			t.Observe(sitesFrom(row{"www", "BACKEND", "UP", "1"}), now)
			states := t.States()
			Expect(states).To(HaveKey("www"))

			states["www"]["BACKEND"] = tracker.ServerState{Status: "DOWN"}
			state, _ := t.State("www", "BACKEND")
			Expect(state.Status).To(Equal("UP"))
		})

		It("should keep proxies with groups apart", func() {
			t.Observe(sitesFrom(
				row{"www__a", "BACKEND", "UP", "1"},
				row{"www__b", "BACKEND", "DOWN", "1"},
			), now)
			states := t.States()
			Expect(states).To(HaveLen(2))
			Expect(states["www__b"]["BACKEND"].Status).To(Equal("DOWN"))
		})
	})

	It("should track many servers", func() {
		var rows []row
		for i := 0; i < 20; i++ {
			rows = append(rows, row{"www", fmt.Sprintf("web-%d", i), "UP", "1"})
		}
		events := t.Observe(sitesFrom(rows...), now)
		Expect(events).To(HaveLen(20))
		Expect(t.States()["www"]).To(HaveLen(20))
	})
})
