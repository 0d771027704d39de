// Package handler implements the HTTP endpoints: the JSON status verdict and
// the liveness ping.
package handler
