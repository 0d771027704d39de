// Package config handles loading and parsing of configuration from YAML files
// and environment variables. It covers the listen address, the HAProxy stats
// source and fetch timing, the admin-down signal directory and the status
// output file.
package config
