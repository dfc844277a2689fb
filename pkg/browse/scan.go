package browse

import (
	"github.com/vanderheijden86/warren/pkg/model"
)

// ScanCursorStart is the cursor value that starts a scan from the
// beginning. A returned cursor equal to ScanCursorStart (or empty) means
// the scan is complete.
const ScanCursorStart = "0"

// DefaultScanBatch is the batch size used when the caller passes zero.
const DefaultScanBatch = 100

// cursorDone reports whether a server-returned cursor is the completion
// sentinel.
func cursorDone(cursor string) bool {
	return cursor == "" || cursor == ScanCursorStart
}

// ScanSession accumulates a flat, possibly huge leaf collection for one
// (connection, container) context via repeated bounded fetches. Like Cache
// it is confined to the update loop; batches arriving from a superseded
// generation (the pattern or container changed while the request was in
// flight) are discarded instead of being mixed into the new listing.
type ScanSession struct {
	ConnID      string
	ContainerID string

	pattern     string
	cursor      string
	accumulated []model.LeafDescriptor
	gen         uint64 // bumped on every reset; tags in-flight requests
	inflight    bool
	started     bool // at least one batch applied since the last reset
	complete    bool
}

// ScanRequest describes one bounded fetch the caller must run.
type ScanRequest struct {
	ConnID      string
	ContainerID string
	Pattern     string
	Cursor      string
	Gen         uint64
}

// NewScanSession creates a session with the default "*" pattern.
func NewScanSession(connID, containerID string) *ScanSession {
	return &ScanSession{
		ConnID:      connID,
		ContainerID: containerID,
		pattern:     "*",
		cursor:      ScanCursorStart,
	}
}

// Pattern returns the current filter pattern.
func (s *ScanSession) Pattern() string { return s.pattern }

// SetPattern changes the filter pattern. A change discards accumulated
// results and forces the next Begin to reset; in-flight batches for the old
// pattern are orphaned by the generation bump.
func (s *ScanSession) SetPattern(pattern string) {
	if pattern == "" {
		pattern = "*"
	}
	if pattern == s.pattern {
		return
	}
	s.pattern = pattern
	s.reset()
}

func (s *ScanSession) reset() {
	s.gen++
	s.cursor = ScanCursorStart
	s.accumulated = nil
	s.inflight = false
	s.started = false
	s.complete = false
}

// Begin prepares the next fetch. reset=true restarts from the beginning;
// reset=false continues from the stored cursor ("load more"). ok is false
// when nothing should be fetched: a request is already in flight, or the
// scan is complete and more was asked for (a no-op, not an error).
func (s *ScanSession) Begin(reset bool) (ScanRequest, bool) {
	if reset {
		s.reset()
	} else {
		if s.inflight || s.complete || !s.started {
			return ScanRequest{}, false
		}
	}
	if s.inflight {
		return ScanRequest{}, false
	}
	s.inflight = true
	return ScanRequest{
		ConnID:      s.ConnID,
		ContainerID: s.ContainerID,
		Pattern:     s.pattern,
		Cursor:      s.cursor,
		Gen:         s.gen,
	}, true
}

// Apply appends a returned batch and stores the new cursor. Batches tagged
// with a stale generation are discarded and false is returned.
func (s *ScanSession) Apply(gen uint64, batch []model.LeafDescriptor, cursor string) bool {
	if gen != s.gen || !s.inflight {
		return false
	}
	s.inflight = false
	s.started = true
	s.accumulated = append(s.accumulated, batch...)
	s.cursor = cursor
	s.complete = cursorDone(cursor)
	return true
}

// Fail clears the in-flight flag after a scan error. Accumulated results
// are kept; the session stays resumable from the stored cursor.
func (s *ScanSession) Fail(gen uint64) bool {
	if gen != s.gen || !s.inflight {
		return false
	}
	s.inflight = false
	return true
}

// Accumulated returns the leaves gathered so far, in arrival order. The
// slice is shared; callers must not mutate.
func (s *ScanSession) Accumulated() []model.LeafDescriptor {
	return s.accumulated
}

// HasMore reports whether the server still holds unscanned leaves.
func (s *ScanSession) HasMore() bool {
	return s.started && !s.complete
}

// Started reports whether at least one batch has been applied since the
// last reset.
func (s *ScanSession) Started() bool { return s.started }

// InFlight reports whether a request is currently outstanding.
func (s *ScanSession) InFlight() bool { return s.inflight }
