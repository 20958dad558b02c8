// Package app wires configuration, logging, the livelog client and a session
// into the commands livelog runs.
//
// # Startup
//
// Setup is shared by every command that talks to a server:
//
//  1. Load ~/.config/livelog/config.toml and apply command line overrides
//  2. Send zerolog output to the log file so the terminal stays clean
//  3. Load UI preferences
//  4. Build the HTTP client and probe /api/login/enabled, logging in with
//     the token when the server asks for one (3 second timeout)
//  5. Create the session that owns the tail and grouping streams
//
// A server that does not answer the probe is a fatal startup error. Once
// running, fetch failures are only reported through the session's health.
//
// # Commands
//
//   - Run: the terminal UI, with the session streams in an errgroup next to
//     the Bubble Tea program; quitting the UI cancels the streams
//   - ListFiles: print the file list once
//   - Follow: print new lines of one file until cancelled
//   - ShowLog: print the end of livelog's own log file
package app
