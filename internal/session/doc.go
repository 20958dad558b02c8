// Package session owns what one client is looking at: the file list, the
// open file, and the filters applied to both.
//
// # Overview
//
// A Session composes a tail.Poller and a grouping.Registry with its
// Refresher. The poller requests a grouping refresh whenever new lines
// arrive; Run drives both streams on an errgroup.
//
// # Opening a File
//
// Open performs these steps in order:
//
//  1. Stop the tail trigger and clear the cursor and buffer
//  2. Drop pending grouping work, clear the rules and hold grouping refreshes
//  3. Record the new selection and close the analytics view
//  4. Ask the server to reset its grouping bookkeeping
//  5. Release grouping refreshes and start polling the new file
//
// Fetches that were already outstanding for the previous file finish but
// their results, successful or not, are discarded. No grouping fetch is
// issued while the reset is outstanding.
//
// # Filters
//
// The list filter selects file names. The content filter selects lines whose
// content or line number matches, and analytics entries whose pattern
// matches. Patterns that do not compile match nothing.
package session
