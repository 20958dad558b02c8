package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100
)

// Timing constants.
const (
	// DefaultUIInterval is how often the UI checks the session for changes.
	DefaultUIInterval = 250 * time.Millisecond

	// ActionTimeout bounds requests started from a key press.
	ActionTimeout = 10 * time.Second

	// StatusLifetime is how long a transient status message stays visible.
	StatusLifetime = 5 * time.Second
)

// Clipboard writes are capped by most terminals.
const clipboardLimit = 100 * 1024
