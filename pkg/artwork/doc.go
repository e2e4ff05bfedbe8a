// Package artwork retrieves cover art for the file MPD is playing.
//
// A Fetcher walks an ordered list of stages: the chunked albumart command,
// the single-shot readpicture command, a search for cover files next to the
// track, and optionally the tags embedded in the file itself. Stage failures
// are expected and are never surfaced; only exhausting every stage yields
// ErrNotFound.
package artwork
