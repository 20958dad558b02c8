package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/five82/livelog/internal/grouping"
	"github.com/five82/livelog/internal/livelog"
	"github.com/five82/livelog/internal/logging"
	"github.com/five82/livelog/internal/state"
	"github.com/five82/livelog/internal/tail"
)

var (
	// ErrNoSelection is returned by operations that need an open file.
	ErrNoSelection = errors.New("no file selected")
	// ErrSelectionChanged is returned when another file was opened while a
	// request for the previous one was outstanding.
	ErrSelectionChanged = errors.New("selection changed during request")
)

// Client is the part of the livelog API a session uses.
type Client interface {
	tail.Fetcher
	grouping.Fetcher
	FetchFileList(ctx context.Context) ([]string, error)
	FetchDefaultFilter(ctx context.Context) (string, error)
	ResetGroupings(ctx context.Context) error
	FetchAnalytics(ctx context.Context, file string) ([]livelog.AnalyticsEntry, error)
	DownloadURL(file string) string
}

// Options configure a Session.
type Options struct {
	PollInterval time.Duration // zero uses tail.DefaultInterval
	BufferLimit  int
	Logger       *zerolog.Logger // nil uses the global logger
	Health       *state.Store    // nil creates a private store
}

// Session is one client view onto a livelog server: the file list, the open
// file and its tail, the grouping rules, and the filters applied to them.
// Sessions are independent of each other.
type Session struct {
	id        string
	client    Client
	log       zerolog.Logger
	health    *state.Store
	poller    *tail.Poller
	registry  *grouping.Registry
	refresher *grouping.Refresher

	openMu sync.Mutex

	mu            sync.RWMutex
	selected      string
	files         []string
	listFilter    string
	contentFilter string
	analytics     []livelog.AnalyticsEntry
	analyticsOpen bool
	version       uint64
}

// New returns a session with no file open. Call Run to start its streams.
func New(client Client, opts Options) *Session {
	id := uuid.NewString()
	base := logging.Logger
	if opts.Logger != nil {
		base = *opts.Logger
	}
	logger := base.With().Str("session", id).Logger()

	health := opts.Health
	if health == nil {
		health = &state.Store{}
	}

	registry := grouping.NewRegistry(client, logger)
	refresher := grouping.NewRefresher(registry, grouping.RefresherOptions{
		RetryDelay: opts.PollInterval,
		Health:     health,
	})
	poller := tail.NewPoller(client, tail.Options{
		Interval:    opts.PollInterval,
		BufferLimit: opts.BufferLimit,
		Logger:      &logger,
		Health:      health,
		OnNewLines:  func(int) { refresher.Request() },
	})

	return &Session{
		id:        id,
		client:    client,
		log:       logger,
		health:    health,
		poller:    poller,
		registry:  registry,
		refresher: refresher,
	}
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// Run drives the tail and grouping streams until ctx is done or one of them
// fails with a contract violation.
func (s *Session) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.poller.Run(gctx) })
	g.Go(func() error { return s.refresher.Run(gctx) })
	return g.Wait()
}

// Open switches the session to file. State belonging to the previous file is
// discarded before anything is fetched for the new one. A failure to reset
// the server's grouping bookkeeping is returned, but polling starts anyway.
func (s *Session) Open(ctx context.Context, file string) error {
	if file == "" {
		return ErrNoSelection
	}
	s.openMu.Lock()
	defer s.openMu.Unlock()

	s.poller.Select(file)
	s.refresher.Cancel()
	s.registry.Reset()

	s.mu.Lock()
	s.selected = file
	closeAnalytics := s.analyticsOpen
	s.analytics = nil
	s.analyticsOpen = false
	s.version++
	s.mu.Unlock()
	if closeAnalytics {
		s.poller.SetEnabled(true)
	}

	s.log.Info().Str("file", file).Msg("opening file")

	var err error
	if resetErr := s.client.ResetGroupings(ctx); resetErr != nil {
		s.log.Warn().Err(resetErr).Str("file", file).Msg("grouping reset failed")
		err = fmt.Errorf("reset groupings for %s: %w", file, resetErr)
	}
	s.refresher.Start()
	s.poller.Start()
	return err
}

// Selected returns the open file, or "" when none is open.
func (s *Session) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// SetPollingEnabled pauses or resumes tailing.
func (s *Session) SetPollingEnabled(enabled bool) {
	s.poller.SetEnabled(enabled)
}

// PollingEnabled reports whether tailing is active.
func (s *Session) PollingEnabled() bool {
	return s.poller.Enabled()
}

// PollNow fetches new lines immediately unless a fetch is outstanding.
func (s *Session) PollNow(ctx context.Context) error {
	return s.poller.PollNow(ctx)
}

// LoadFiles fetches the file list. When no list filter is set yet, the
// server's default filter is adopted.
func (s *Session) LoadFiles(ctx context.Context) error {
	files, err := s.client.FetchFileList(ctx)
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}

	s.mu.RLock()
	needFilter := s.listFilter == ""
	s.mu.RUnlock()

	var filter string
	if needFilter {
		filter, err = s.client.FetchDefaultFilter(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("default filter unavailable")
			filter = ""
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append([]string(nil), files...)
	if needFilter && s.listFilter == "" {
		s.listFilter = filter
	}
	s.version++
	s.log.Debug().Int("files", len(files)).Str("filter", s.listFilter).Msg("file list loaded")
	return nil
}

// Files returns every file the server listed.
func (s *Session) Files() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.files...)
}

// ListFilter returns the file list pattern.
func (s *Session) ListFilter() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listFilter
}

// SetListFilter replaces the file list pattern.
func (s *Session) SetListFilter(pattern string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listFilter = pattern
	s.version++
}

// ContentFilter returns the pattern applied to lines and analytics entries.
func (s *Session) ContentFilter() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contentFilter
}

// SetContentFilter replaces the pattern applied to lines and analytics entries.
func (s *Session) SetContentFilter(pattern string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contentFilter = pattern
	s.version++
}

// OpenAnalytics pauses tailing and fetches the grouping summary for the open
// file. On failure tailing resumes and the error is returned. A summary that
// arrives after another file was opened is dropped with ErrSelectionChanged.
func (s *Session) OpenAnalytics(ctx context.Context) error {
	file := s.Selected()
	if file == "" {
		return ErrNoSelection
	}
	s.poller.SetEnabled(false)

	entries, err := s.client.FetchAnalytics(ctx, file)
	if err != nil {
		s.poller.SetEnabled(true)
		s.log.Warn().Err(err).Str("file", file).Msg("analytics fetch failed")
		return fmt.Errorf("analytics for %s: %w", file, err)
	}

	s.mu.Lock()
	if s.selected != file {
		s.mu.Unlock()
		s.poller.SetEnabled(true)
		s.log.Debug().Str("file", file).Msg("discarding analytics for previous selection")
		return ErrSelectionChanged
	}
	s.analytics = entries
	s.analyticsOpen = true
	s.version++
	s.mu.Unlock()
	return nil
}

// CloseAnalytics discards the summary and resumes tailing.
func (s *Session) CloseAnalytics() {
	s.mu.Lock()
	s.analytics = nil
	s.analyticsOpen = false
	s.version++
	s.mu.Unlock()

	s.poller.SetEnabled(true)
}

// AnalyticsOpen reports whether the analytics view is active.
func (s *Session) AnalyticsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analyticsOpen
}

// Classify returns the grouping style for text.
func (s *Session) Classify(text string) (grouping.Style, bool) {
	return s.registry.Classify(text)
}

// Groupings returns the current grouping rules.
func (s *Session) Groupings() []livelog.Grouping {
	return s.registry.Groupings()
}

// DownloadURL returns the download link for the open file.
func (s *Session) DownloadURL() (string, error) {
	file := s.Selected()
	if file == "" {
		return "", ErrNoSelection
	}
	return s.client.DownloadURL(file), nil
}

// Health returns the state of the background streams.
func (s *Session) Health() state.Snapshot {
	return s.health.Snapshot()
}

// Version changes whenever anything a view renders may have changed.
func (s *Session) Version() uint64 {
	s.mu.RLock()
	v := s.version
	s.mu.RUnlock()
	return v + s.poller.Version() + s.registry.Version()
}
