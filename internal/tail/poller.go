package tail

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/livelog/internal/livelog"
	"github.com/five82/livelog/internal/logging"
	"github.com/five82/livelog/internal/state"
)

// DefaultInterval is the delay between the end of one fetch and the next.
const DefaultInterval = time.Second

// Fetcher retrieves lines of a file starting at a line position.
type Fetcher interface {
	FetchTail(ctx context.Context, query livelog.TailQuery) ([]livelog.LogLine, error)
}

// PollState reports whether a tail fetch is outstanding.
type PollState int

const (
	Idle PollState = iota
	InFlight
)

func (s PollState) String() string {
	if s == InFlight {
		return "in-flight"
	}
	return "idle"
}

// Options configure a Poller.
type Options struct {
	Interval    time.Duration // zero uses DefaultInterval
	BufferLimit int           // maximum buffered lines; zero keeps everything
	Logger      *zerolog.Logger
	Health      *state.Store
	// OnNewLines is called after a fetch for the still selected file appended
	// at least one line. It runs with the poller locked, so it must not block
	// or call back into the Poller.
	OnNewLines func(n int)
}

// Snapshot is a copy of the poller state for rendering.
type Snapshot struct {
	File       string
	Lines      []livelog.LogLine
	Cursor     int64
	HasCursor  bool
	State      PollState
	Enabled    bool
	Generation uint64
}

// Poller follows one file at a time. Run drives a single timer; each firing
// performs at most one fetch and re-arms the timer when it completes.
type Poller struct {
	fetcher    Fetcher
	interval   time.Duration
	log        zerolog.Logger
	health     *state.Store
	onNewLines func(int)

	inFlight atomic.Bool
	timer    *time.Timer

	mu         sync.Mutex
	file       string
	generation uint64
	live       bool
	enabled    bool
	buffer     *Buffer
	version    uint64
}

// NewPoller returns a Poller with polling enabled and no file selected.
func NewPoller(fetcher Fetcher, opts Options) *Poller {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := logging.Component("tail")
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "tail").Logger()
	}
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	return &Poller{
		fetcher:    fetcher,
		interval:   interval,
		log:        logger,
		health:     opts.Health,
		onNewLines: opts.OnNewLines,
		timer:      timer,
		enabled:    true,
		buffer:     NewBuffer(opts.BufferLimit),
	}
}

// Run polls until ctx is done. It returns nil on cancellation and an error
// only when the server sends a response that does not fit the API.
func (p *Poller) Run(ctx context.Context) error {
	defer p.timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.timer.C:
			if err := p.step(ctx); err != nil {
				return err
			}
		}
	}
}

func (p *Poller) step(ctx context.Context) error {
	p.mu.Lock()
	if p.file == "" || !p.live {
		p.mu.Unlock()
		return nil
	}
	if !p.enabled {
		p.armLocked(p.interval)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.poll(ctx)
}

// PollNow fetches immediately unless a fetch is already outstanding, in
// which case the next attempt is rescheduled instead.
func (p *Poller) PollNow(ctx context.Context) error {
	return p.step(ctx)
}

func (p *Poller) poll(ctx context.Context) error {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.mu.Lock()
		p.armLocked(p.interval)
		p.mu.Unlock()
		return nil
	}

	p.mu.Lock()
	if p.file == "" || !p.live {
		p.mu.Unlock()
		p.inFlight.Store(false)
		return nil
	}
	gen := p.generation
	query := livelog.TailQuery{File: p.file, From: p.buffer.Next()}
	p.mu.Unlock()

	lines, fetchErr := p.fetcher.FetchTail(ctx, query)
	err := p.complete(ctx, gen, query, lines, fetchErr)
	p.inFlight.Store(false)
	return err
}

func (p *Poller) complete(ctx context.Context, gen uint64, query livelog.TailQuery, lines []livelog.LogLine, fetchErr error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation {
		p.log.Debug().Str("file", query.File).Msg("discarding tail result for previous selection")
		return nil
	}

	if fetchErr != nil {
		if errors.Is(fetchErr, livelog.ErrMalformedResponse) {
			return fmt.Errorf("tail %s: %w", query.File, fetchErr)
		}
		if ctx.Err() != nil {
			return nil
		}
		if livelog.IsTransient(fetchErr) {
			p.health.Record(state.StreamTail, fetchErr)
			p.log.Warn().Err(fetchErr).Str("file", query.File).Msg("tail fetch failed")
		}
		p.armLocked(p.interval)
		return nil
	}

	p.health.Record(state.StreamTail, nil)
	appended := p.buffer.Append(lines)
	if appended > 0 {
		p.version++
		cursor, _ := p.buffer.Cursor()
		p.log.Debug().Str("file", query.File).Int("lines", appended).Int64("cursor", cursor).Msg("tail appended")
	}
	p.armLocked(p.interval)
	p.notifyLocked(gen, appended)
	return nil
}

// notifyLocked reports appended lines unless the selection changed since the
// fetch for gen was issued.
func (p *Poller) notifyLocked(gen uint64, n int) {
	if n == 0 || p.onNewLines == nil || gen != p.generation {
		return
	}
	p.onNewLines(n)
}

// Select switches to file. The pending trigger is cancelled, the buffer and
// cursor are cleared, and results of fetches issued for the previous file are
// dropped when they arrive. Polling resumes on Start.
func (p *Poller) Select(file string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.timer.Stop()
	p.generation++
	p.file = file
	p.live = false
	p.buffer.Reset()
	p.version++
}

// Start begins polling the selected file, firing the first fetch right away.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == "" {
		return
	}
	p.live = true
	p.armLocked(0)
}

// SetEnabled toggles whether new fetches may be issued. An outstanding fetch
// still completes and re-arms the timer.
func (p *Poller) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	resume := enabled && !p.enabled && p.live
	p.enabled = enabled
	p.version++
	if resume {
		p.armLocked(0)
	}
}

// Enabled reports whether polling is enabled.
func (p *Poller) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// State reports whether a fetch is outstanding.
func (p *Poller) State() PollState {
	if p.inFlight.Load() {
		return InFlight
	}
	return Idle
}

// Version changes whenever the snapshot contents change.
func (p *Poller) Version() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.version
}

// Snapshot returns a copy of the selected file's buffer and cursor.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	cursor, ok := p.buffer.Cursor()
	return Snapshot{
		File:       p.file,
		Lines:      p.buffer.Lines(),
		Cursor:     cursor,
		HasCursor:  ok,
		State:      p.State(),
		Enabled:    p.enabled,
		Generation: p.generation,
	}
}

func (p *Poller) armLocked(d time.Duration) {
	p.timer.Reset(d)
}
