// Package state tracks the health of the background fetch loops.
//
// # Overview
//
// The tail poller and the grouping refresher run on their own goroutines and
// report every fetch outcome here. The UI reads a Snapshot on its own refresh
// schedule to decide whether to show an offline banner.
//
//	Producers:                      Consumer (UI):
//	┌──────────────────────┐        ┌──────────────────┐
//	│ tail.Poller          │──┐     │                  │
//	│ grouping.Refresher   │──┴────→│ store.Snapshot() │
//	└──────────────────────┘ mutex  └──────────────────┘
//
// # Update Semantics
//
// Record(stream, nil) resets the failure count. Record(stream, err) keeps the
// last error and increments it. A stream is offline after two consecutive
// failures. Errors are copied on read so the UI never holds the producer's
// value.
//
// A zero Store is ready to use, and methods on a nil *Store are no-ops, so
// components can be built without health tracking in tests.
package state
