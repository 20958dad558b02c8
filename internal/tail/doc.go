// Package tail follows a server-side log file by polling for lines past a
// cursor.
//
// # Overview
//
// A Poller owns the cursor (the highest line position received) and the line
// buffer for the selected file. Each fetch asks for lines starting at
// cursor+1, so the server only ever sends what the client has not seen.
//
// # Scheduling
//
// Run waits on a single timer and calls one step per firing:
//
//	no live selection   → nothing, the timer stays stopped
//	polling disabled    → re-arm, no fetch
//	fetch outstanding   → re-arm, no fetch
//	otherwise           → fetch, then re-arm after completion
//
// An atomic flag guarantees at most one outstanding fetch even when PollNow
// is called from another goroutine.
//
// # Failure Handling
//
// A failed fetch leaves the buffer and cursor untouched and is retried after
// the interval, forever. Outcomes are recorded in a state.Store so the UI can
// show an offline banner. A response that cannot be decoded is not retried:
// Run returns it.
//
// # Selection Changes
//
// Select stops the pending trigger, clears the buffer and bumps a generation
// counter. Every fetch carries the generation it was issued under, and a
// result for an older generation is dropped without touching state.
package tail
