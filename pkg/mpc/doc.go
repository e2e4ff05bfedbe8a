// Package mpc drives the mpc command line client of the Music Player Daemon
// and parses its free-form text output into typed playback state.
//
// The parsers are lenient: output that does not have the expected shape
// produces empty values rather than errors, since the format varies across
// daemon versions and player states.
package mpc
