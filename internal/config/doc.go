// Package config loads the livelog client configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/livelog/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or empty, use defaults
//
// # Configuration Fields
//
//	server_url = "127.0.0.1:8080/livelog/"  # scheme defaults to http, mount path kept
//	token = ""                               # login token, used when the server requires one
//	poll_interval_ms = 1000                  # tail and grouping retry cadence
//	request_timeout_ms = 5000                # per-request HTTP timeout
//	buffer_limit = 0                         # lines kept per file, 0 keeps everything
//	log_level = "info"
//	log_file = "~/.local/state/livelog/livelog.log"
//
// Paths starting with ~ are expanded to the user's home directory. Durations
// and limits out of range are reported as parse errors rather than replaced.
package config
