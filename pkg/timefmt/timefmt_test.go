package timefmt_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/haproxy-status/pkg/timefmt"
)

var _ = Describe("Short", func() {
	DescribeTable("formats durations by their largest unit",
		func(d time.Duration, expected string) {
			Expect(timefmt.Short(d)).To(Equal(expected))
		},
		Entry("sub-second", 250*time.Millisecond, "250ms"),
		Entry("zero", time.Duration(0), "0ms"),
		Entry("negative", -5*time.Second, "0ms"),
		Entry("seconds", 45*time.Second, "45s"),
		Entry("minutes", 125*time.Second, "2m"),
		Entry("hours", 5*time.Hour+59*time.Minute, "5h"),
		Entry("exactly one day", 24*time.Hour, "1d0h"),
		Entry("days and hours", 3*24*time.Hour+4*time.Hour+30*time.Minute, "3d4h"),
	)

	It("should format whole seconds", func() {
		Expect(timefmt.Seconds(1000)).To(Equal("16m"))
		Expect(timefmt.Seconds(0)).To(Equal("0ms"))
	})
})
