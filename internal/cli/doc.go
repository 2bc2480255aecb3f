// Package cli implements the command-line interface for worldcup-events.
//
// The cli package provides the Cobra-based CLI: run performs a single poll,
// watch polls on a cron schedule and serves the status endpoints, and the
// remaining commands validate and inspect the configuration, the locale
// tables and the stored snapshot.
package cli
