// Package match evaluates user-supplied regular expressions against log text.
//
// Filter and grouping patterns come from people typing into a prompt or from
// server configuration, so a pattern that does not compile is an expected
// input: it simply matches nothing. Only compile errors get that treatment;
// every other failure is reported to the caller.
package match

import (
	"errors"
	"fmt"
	"regexp"
	"regexp/syntax"
	"sync"
)

// ErrInvalidPattern is reported (via errors.Is) for every pattern that fails to compile.
var ErrInvalidPattern = errors.New("invalid pattern")

// PatternError describes a pattern that failed to compile.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInvalidPattern) hold for any *PatternError.
func (e *PatternError) Is(target error) bool { return target == ErrInvalidPattern }

// Compile compiles pattern. Syntax errors come back as *PatternError.
func Compile(pattern string) (*regexp.Regexp, error) {
	return defaultCache.compile(pattern)
}

// Match reports whether text contains a match for pattern. A pattern that
// does not compile yields false and a nil error.
func Match(text, pattern string) (bool, error) {
	re, err := Compile(pattern)
	if err != nil {
		if errors.Is(err, ErrInvalidPattern) {
			return false, nil
		}
		return false, err
	}
	return re.MatchString(text), nil
}

// Matches is Match for callers that only want the boolean. A failure other
// than an invalid pattern is a defect in the engine and panics.
func Matches(text, pattern string) bool {
	ok, err := Match(text, pattern)
	if err != nil {
		panic(fmt.Sprintf("match: %v", err))
	}
	return ok
}

const cacheLimit = 256

type entry struct {
	re  *regexp.Regexp
	err error
}

// cache keeps compiled patterns; the same filter text is evaluated for every
// visible line on every render.
type cache struct {
	mu      sync.Mutex
	entries map[string]entry
}

var defaultCache = &cache{entries: make(map[string]entry)}

func (c *cache) compile(pattern string) (*regexp.Regexp, error) {
	c.mu.Lock()
	if e, ok := c.entries[pattern]; ok {
		c.mu.Unlock()
		return e.re, e.err
	}
	c.mu.Unlock()

	re, err := regexp.Compile(pattern)
	if err != nil {
		var synErr *syntax.Error
		if !errors.As(err, &synErr) {
			return nil, err
		}
		err = &PatternError{Pattern: pattern, Err: err}
	}

	c.mu.Lock()
	if len(c.entries) >= cacheLimit {
		c.entries = make(map[string]entry, cacheLimit)
	}
	c.entries[pattern] = entry{re: re, err: err}
	c.mu.Unlock()
	return re, err
}
