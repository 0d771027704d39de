// Package logger builds the process-wide slog logger. Production environments
// log JSON, everything else logs logfmt-style text. Every record carries the
// environment and, when set, the service name that drives admin overrides.
package logger
