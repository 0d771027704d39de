// Package override checks for operator-written marker files that force the
// verdict to STATUS_ADMIN_DOWN.
//
// A marker counts as present as soon as the file exists. Its content is
// decoded as YAML for future use, but an unreadable or malformed marker still
// forces the override: only a missing file leaves the verdict alone.
package override
