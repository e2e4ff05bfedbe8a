// Package icecast reads listener statistics from an Icecast server's
// status-json.xsl document.
//
// Listener counts are best-effort telemetry: every failure mode yields a
// zeroed Snapshot instead of an error.
package icecast
