// Package logtail reads the end of a local log file.
//
// livelog writes its own diagnostics to a file (see the logging package) so
// the terminal UI stays clean. Last lets the CLI show the recent part of that
// file without loading it all: lines stream through a fixed-size ring, so
// memory stays bounded by n regardless of file size. Lines longer than 1 MiB
// fail the read.
package logtail
