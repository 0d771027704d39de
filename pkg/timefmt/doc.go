// Package timefmt renders durations as the short strings used in status
// reasons and log lines, such as "45s", "12m" or "3d4h".
package timefmt
