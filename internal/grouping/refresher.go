package grouping

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/livelog/internal/livelog"
	"github.com/five82/livelog/internal/state"
)

// DefaultRetryDelay is the wait before retrying a failed refresh.
const DefaultRetryDelay = time.Second

// RefresherOptions configure a Refresher.
type RefresherOptions struct {
	RetryDelay time.Duration // zero uses DefaultRetryDelay
	Health     *state.Store
}

// Refresher schedules registry refreshes. Requests are coalesced: any number
// of Request calls while one is pending or running yield one more attempt.
// A failed attempt re-arms the single retry timer. Between Cancel and Start
// requests are ignored.
type Refresher struct {
	registry   *Registry
	retryDelay time.Duration
	health     *state.Store
	log        zerolog.Logger

	paused   atomic.Bool
	requests chan struct{}
	retry    *time.Timer
}

// NewRefresher returns a Refresher for registry.
func NewRefresher(registry *Registry, opts RefresherOptions) *Refresher {
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	retry := time.NewTimer(time.Hour)
	retry.Stop()
	return &Refresher{
		registry:   registry,
		retryDelay: delay,
		health:     opts.Health,
		log:        registry.log,
		requests:   make(chan struct{}, 1),
		retry:      retry,
	}
}

// Request asks for a refresh. It never blocks.
func (r *Refresher) Request() {
	if r.paused.Load() {
		return
	}
	select {
	case r.requests <- struct{}{}:
	default:
	}
}

// Cancel drops a pending request and the retry timer, and ignores requests
// until Start.
func (r *Refresher) Cancel() {
	r.paused.Store(true)
	r.retry.Stop()
	select {
	case <-r.requests:
	default:
	}
}

// Start accepts requests again and releases the registry held by Reset.
func (r *Refresher) Start() {
	r.registry.Release()
	r.paused.Store(false)
}

// Run performs requested refreshes until ctx is done. It returns an error
// only for responses that do not fit the API.
func (r *Refresher) Run(ctx context.Context) error {
	defer r.retry.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.requests:
		case <-r.retry.C:
		}
		r.retry.Stop()
		if err := r.attempt(ctx); err != nil {
			return err
		}
	}
}

func (r *Refresher) attempt(ctx context.Context) error {
	groupings, err := r.registry.Refresh(ctx)
	switch {
	case err == nil:
		r.health.Record(state.StreamGroupings, nil)
		r.log.Debug().Int("rules", len(groupings)).Msg("groupings refreshed")
	case errors.Is(err, ErrStale):
		r.log.Debug().Msg("discarding groupings for previous selection")
	case errors.Is(err, ErrHeld):
		r.log.Debug().Msg("grouping refresh skipped until reset completes")
	case errors.Is(err, ErrRefreshInFlight):
		r.retry.Reset(r.retryDelay)
	case errors.Is(err, livelog.ErrMalformedResponse), errors.Is(err, errCompile):
		return err
	case !livelog.IsTransient(err) || ctx.Err() != nil:
	default:
		r.health.Record(state.StreamGroupings, err)
		r.log.Warn().Err(err).Dur("retry_in", r.retryDelay).Msg("grouping refresh failed")
		r.retry.Reset(r.retryDelay)
	}
	return nil
}
