// Package grouping keeps the server's line classification rules.
//
// A Registry stores the ordered rules and answers Classify with the first
// match. It holds no timer; the Refresher runs the grouping stream, fed by
// Request calls from the tail poller whenever new lines arrive.
package grouping
