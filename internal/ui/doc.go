// Package ui provides the Bubble Tea terminal interface for livelog.
//
// The model never talks to the server on the render path. Network work runs
// in tea.Cmds against an Engine (a *session.Session in production), and a
// ticker compares Engine.Version with the last rendered version to decide
// when to copy a new snapshot into the model.
//
// # Views
//
//   - Files: the server's file list narrowed by the list filter
//   - Logs: the live tail of the open file, colored by grouping
//   - Analytics: per-grouping counts; the tail is paused while it is open
//
// The "/" prompt edits the list filter on the Files view and the content
// filter elsewhere. Patterns apply while typing; esc restores the previous
// one. An invalid pattern shows nothing rather than an error.
//
// Themes are defined in theme.go and cycled with T; the choice and the last
// opened file are saved to the preferences file.
package ui
