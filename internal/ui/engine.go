package ui

import (
	"context"

	"github.com/five82/livelog/internal/livelog"
	"github.com/five82/livelog/internal/session"
	"github.com/five82/livelog/internal/state"
)

// Engine is the session surface the UI drives. *session.Session implements it.
type Engine interface {
	LoadFiles(ctx context.Context) error
	VisibleFiles() []string
	ListFilter() string
	SetListFilter(pattern string)
	ContentFilter() string
	SetContentFilter(pattern string)

	Open(ctx context.Context, file string) error
	Selected() string
	Snapshot() session.Snapshot
	PollNow(ctx context.Context) error
	SetPollingEnabled(enabled bool)
	PollingEnabled() bool

	OpenAnalytics(ctx context.Context) error
	CloseAnalytics()
	AnalyticsOpen() bool
	VisibleAnalytics() []livelog.AnalyticsEntry

	DownloadURL() (string, error)
	Health() state.Snapshot
	Version() uint64
}

var _ Engine = (*session.Session)(nil)
