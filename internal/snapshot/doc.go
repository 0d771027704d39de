// Package snapshot parses the CSV output of the HAProxy "show stat" command
// into records grouped by proxy.
//
// The column set varies between HAProxy versions, so records are not bound to
// a fixed struct. Each Record keeps the header's field names in order and the
// well known columns (pxname, svname, status, lastchg) are projected by name.
package snapshot
