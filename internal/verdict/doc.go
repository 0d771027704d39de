// Package verdict turns tracked backend state into the single status reported
// to callers.
//
// Only sites with a BACKEND pool row take part. A pool counts as healthy once
// it has been UP for at least the healthy-uptime threshold; younger UP pools
// are reported as (RE)STARTING. An admin-down marker overrides the computed
// status but keeps its reason.
package verdict
