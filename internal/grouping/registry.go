package grouping

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/five82/livelog/internal/livelog"
	"github.com/five82/livelog/internal/match"
)

var (
	// ErrRefreshInFlight is returned by Refresh while another refresh is outstanding.
	ErrRefreshInFlight = errors.New("grouping refresh already in flight")
	// ErrStale is returned when the registry was reset while the fetch was outstanding.
	ErrStale = errors.New("grouping result for previous selection")
	// ErrHeld is returned by Refresh between Reset and Release.
	ErrHeld = errors.New("grouping refresh held until release")

	errCompile = errors.New("compile grouping")
)

// Fetcher retrieves the server's grouping rules.
type Fetcher interface {
	FetchGroupings(ctx context.Context) ([]livelog.Grouping, error)
}

// Style is how a classified line is highlighted.
type Style struct {
	Color string
}

type rule struct {
	grouping livelog.Grouping
	re       *regexp.Regexp // nil when the pattern does not compile
}

// Registry holds the ordered grouping rules for the selected file.
type Registry struct {
	fetcher    Fetcher
	log        zerolog.Logger
	refreshing atomic.Bool

	mu         sync.RWMutex
	rules      []rule
	generation uint64
	held       bool
	version    uint64
}

// NewRegistry returns an empty registry backed by fetcher.
func NewRegistry(fetcher Fetcher, logger zerolog.Logger) *Registry {
	return &Registry{
		fetcher: fetcher,
		log:     logger.With().Str("component", "grouping").Logger(),
	}
}

// Refresh fetches the rules and replaces the stored list on success. On
// failure the previous list is kept. Any outcome of a fetch that was
// overtaken by Reset is reported as ErrStale.
func (r *Registry) Refresh(ctx context.Context) ([]livelog.Grouping, error) {
	if !r.refreshing.CompareAndSwap(false, true) {
		return nil, ErrRefreshInFlight
	}
	defer r.refreshing.Store(false)

	r.mu.RLock()
	gen, held := r.generation, r.held
	r.mu.RUnlock()
	if held {
		return nil, ErrHeld
	}

	groupings, err := r.fetcher.FetchGroupings(ctx)
	if err != nil {
		if !r.current(gen) {
			return nil, ErrStale
		}
		return nil, fmt.Errorf("fetch groupings: %w", err)
	}

	rules := make([]rule, 0, len(groupings))
	for _, g := range groupings {
		re, err := match.Compile(g.Regex)
		if err != nil {
			if !errors.Is(err, match.ErrInvalidPattern) {
				if !r.current(gen) {
					return nil, ErrStale
				}
				return nil, fmt.Errorf("%w %q: %w", errCompile, g.Regex, err)
			}
			r.log.Warn().Str("regex", g.Regex).Str("color", g.Color).Msg("grouping pattern does not compile, it will never match")
		}
		rules = append(rules, rule{grouping: g, re: re})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation {
		return nil, ErrStale
	}
	r.rules = rules
	r.version++
	return cloneGroupings(groupings), nil
}

// Classify returns the style of the first rule matching text.
func (r *Registry) Classify(text string) (Style, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rule := range r.rules {
		if rule.re != nil && rule.re.MatchString(text) {
			return Style{Color: rule.grouping.Color}, true
		}
	}
	return Style{}, false
}

// Reset clears the rules. A refresh outstanding at the time of the reset
// returns ErrStale instead of installing its result, and later refreshes
// return ErrHeld without fetching until Release is called.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = nil
	r.generation++
	r.held = true
	r.version++
}

// Release lets Refresh fetch again after a Reset.
func (r *Registry) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.held = false
}

func (r *Registry) current(gen uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return gen == r.generation
}

// Groupings returns a copy of the current rules in order.
func (r *Registry) Groupings() []livelog.Grouping {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]livelog.Grouping, len(r.rules))
	for i, rule := range r.rules {
		out[i] = rule.grouping
	}
	return out
}

// Version changes whenever the rule list changes.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

func cloneGroupings(in []livelog.Grouping) []livelog.Grouping {
	out := make([]livelog.Grouping, len(in))
	copy(out, in)
	return out
}
