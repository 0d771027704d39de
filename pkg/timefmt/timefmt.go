package timefmt

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// Short formats d using its largest whole unit. Durations of a day or more
// also carry the remaining hours. Negative durations render as "0ms".
func Short(d time.Duration) string {
	switch {
	case d < time.Second:
		if d < 0 {
			d = 0
		}
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int64(d/time.Second))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int64(d/time.Minute))
	case d < day:
		return fmt.Sprintf("%dh", int64(d/time.Hour))
	}

	days := int64(d / day)
	hours := int64((d % day) / time.Hour)
	return fmt.Sprintf("%dd%dh", days, hours)
}

// Seconds is Short for a whole number of seconds.
func Seconds(s int64) string {
	return Short(time.Duration(s) * time.Second)
}
