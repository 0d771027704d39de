// Package poller queries the engine on a fixed interval so the fetch, the
// still-down notices and the status output file advance even when nothing
// polls the HTTP endpoint.
package poller
