// Package livelog provides an HTTP client for the livelog server API.
//
// # Overview
//
// The livelog server exposes a directory of log files over HTTP together with
// the grouping rules used to color them. This package mirrors that API with
// typed requests and responses; it holds no state besides the login cookie.
//
// # Client Usage
//
//	client, err := livelog.NewClient("127.0.0.1:8080/livelog/", 5*time.Second)
//	if err != nil {
//		return err
//	}
//	from := int64(42)
//	lines, err := client.FetchTail(ctx, livelog.TailQuery{File: "server.log", From: &from})
//
// # API Endpoints
//
// Paths are resolved relative to the server URL, so a server mounted under a
// prefix works unchanged:
//
//   - GET  api/login/enabled: whether a token is required
//   - GET  api/login?t=: exchanges a token for a session cookie
//   - GET  api/list-files: file names
//   - GET  api/list-files/default-filter: suggested file list pattern
//   - POST api/grouping/reset: restarts grouping bookkeeping on the server
//   - GET  api/grouping: ordered grouping rules
//   - GET  api/tail?f=&l=: lines of f starting at line l
//   - GET  api/analytics?f=: match counts per grouping
//   - GET  api/download?f=: the whole file (URL only, never fetched here)
//
// # Error Handling
//
// Errors fall into three groups:
//
//   - Transport errors: wrapped as "execute request: ..."
//   - HTTP errors: *StatusError, "api api/tail returned status 500"
//   - Shape errors: wrap ErrMalformedResponse, "malformed response: decode response: ..."
//
// IsTransient separates the first two, which pollers retry, from malformed
// responses, which indicate a server that does not speak this API.
//
// # Thread Safety
//
// The Client is safe for concurrent use.
package livelog
