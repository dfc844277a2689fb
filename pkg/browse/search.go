package browse

import (
	"strings"
	"time"

	"github.com/vanderheijden86/warren/pkg/model"
)

// DefaultSearchDebounce is the quiet window before a typed query executes.
const DefaultSearchDebounce = 350 * time.Millisecond

// SearchGroup is one originating container's matches, so identical leaf
// names under different containers stay distinguishable.
type SearchGroup struct {
	ContainerKey  string
	ContainerName string
	Matches       []model.Node
}

// SearchResult is an executed pass: the query it ran with and its grouped
// matches.
type SearchResult struct {
	Query  string
	Groups []SearchGroup
}

// ShouldApplySearch is the pure accept/discard decision for an arriving
// result: only the latest issued generation may apply. Independent of any
// timer so the stale-response race is testable without real delays.
func ShouldApplySearch(latestIssued, incoming uint64) bool {
	return incoming == latestIssued
}

// SearchController debounces text input and tags each executed pass with a
// monotonically increasing generation, discarding out-of-order results. It
// holds no timer itself: the caller asks for the deadline from OnInput,
// schedules a wake-up however it likes, and calls Due when it fires.
type SearchController struct {
	window time.Duration

	pending  string
	deadline time.Time
	armed    bool

	gen    uint64 // latest issued generation
	result *SearchResult
}

// NewSearchController creates a controller with the given quiet window;
// zero means DefaultSearchDebounce.
func NewSearchController(window time.Duration) *SearchController {
	if window <= 0 {
		window = DefaultSearchDebounce
	}
	return &SearchController{window: window}
}

// Window returns the configured quiet window.
func (s *SearchController) Window() time.Duration { return s.window }

// OnInput records a keystroke and restarts the quiet window. The returned
// deadline is when the pass should execute if no further input arrives;
// each new call supersedes the previous deadline, so only the last input of
// a burst ever executes.
func (s *SearchController) OnInput(text string, now time.Time) time.Time {
	s.pending = text
	s.deadline = now.Add(s.window)
	s.armed = true
	return s.deadline
}

// Due reports whether the quiet window has elapsed. When it has, the
// pending query is issued under a fresh generation and the window disarms.
func (s *SearchController) Due(now time.Time) (query string, gen uint64, ok bool) {
	if !s.armed || now.Before(s.deadline) {
		return "", 0, false
	}
	s.armed = false
	s.gen++
	return s.pending, s.gen, true
}

// Apply installs an executed pass's results. Results from a superseded
// generation are silently discarded (not an error) and false is returned.
func (s *SearchController) Apply(gen uint64, result SearchResult) bool {
	if !ShouldApplySearch(s.gen, gen) {
		return false
	}
	s.result = &result
	return true
}

// Result returns the most recently applied pass, or nil when no pass has
// completed (or Clear was called).
func (s *SearchController) Result() *SearchResult { return s.result }

// Clear drops pending input and applied results. Any in-flight pass is
// orphaned: its generation can no longer match.
func (s *SearchController) Clear() {
	s.pending = ""
	s.armed = false
	s.gen++
	s.result = nil
}

// matchName is the search predicate: case-insensitive substring match on
// the display name.
func matchName(name, query string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(query))
}
