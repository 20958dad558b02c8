package session

import (
	"strconv"

	"github.com/five82/livelog/internal/grouping"
	"github.com/five82/livelog/internal/livelog"
	"github.com/five82/livelog/internal/match"
	"github.com/five82/livelog/internal/state"
	"github.com/five82/livelog/internal/tail"
)

// Line is a buffered log line with its grouping style.
type Line struct {
	livelog.LogLine
	Style  grouping.Style
	Styled bool
}

// Snapshot is everything the log view renders, taken at one instant.
type Snapshot struct {
	File      string
	Lines     []Line // after the content filter
	Total     int    // buffered lines before filtering
	Cursor    int64
	HasCursor bool
	PollState tail.PollState
	Polling   bool
	Health    state.Snapshot
}

// Snapshot returns the open file's lines, classified and filtered.
func (s *Session) Snapshot() Snapshot {
	poll := s.poller.Snapshot()
	filter := s.ContentFilter()

	out := make([]Line, 0, len(poll.Lines))
	for _, l := range poll.Lines {
		if !lineVisible(l, filter) {
			continue
		}
		style, ok := s.registry.Classify(l.Content)
		out = append(out, Line{LogLine: l, Style: style, Styled: ok})
	}

	return Snapshot{
		File:      poll.File,
		Lines:     out,
		Total:     len(poll.Lines),
		Cursor:    poll.Cursor,
		HasCursor: poll.HasCursor,
		PollState: poll.State,
		Polling:   poll.Enabled,
		Health:    s.health.Snapshot(),
	}
}

// Lines returns the visible lines of the open file.
func (s *Session) Lines() []Line {
	return s.Snapshot().Lines
}

// A line is visible when the filter matches its content or its line number.
func lineVisible(l livelog.LogLine, filter string) bool {
	if filter == "" {
		return true
	}
	return match.Matches(l.Content, filter) || match.Matches(strconv.FormatInt(l.Line, 10), filter)
}

// VisibleFiles returns the listed files matching the list filter.
func (s *Session) VisibleFiles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.files))
	for _, f := range s.files {
		if match.Matches(f, s.listFilter) {
			out = append(out, f)
		}
	}
	return out
}

// VisibleAnalytics returns the analytics entries whose pattern matches the
// content filter.
func (s *Session) VisibleAnalytics() []livelog.AnalyticsEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]livelog.AnalyticsEntry, 0, len(s.analytics))
	for _, e := range s.analytics {
		if match.Matches(e.Pattern, s.contentFilter) {
			out = append(out, e)
		}
	}
	return out
}
