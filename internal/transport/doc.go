// Package transport fetches raw HAProxy statistics. A stats URL starting with
// http:// or https:// is fetched with a GET request; anything else is taken to
// be the path of the HAProxy unix control socket, optionally prefixed with
// file://.
package transport
