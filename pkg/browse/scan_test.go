package browse

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/warren/pkg/model"
)

func leafBatch(prefix string, from, to int) []model.LeafDescriptor {
	var out []model.LeafDescriptor
	for i := from; i <= to; i++ {
		out = append(out, model.LeafDescriptor{Name: fmt.Sprintf("%s%d", prefix, i)})
	}
	return out
}

// TestScanResetThenLoadMore walks the canonical two-batch scan: reset
// returns 50 keys with a continuation cursor, load-more appends 30 and
// completes.
func TestScanResetThenLoadMore(t *testing.T) {
	s := NewScanSession("c1", "0")

	req, ok := s.Begin(true)
	if !ok {
		t.Fatal("reset Begin should issue a request")
	}
	if req.Cursor != ScanCursorStart || req.Pattern != "*" {
		t.Errorf("first request = %+v, want cursor %q pattern *", req, ScanCursorStart)
	}
	if !s.Apply(req.Gen, leafBatch("k", 1, 50), "120") {
		t.Fatal("first batch should apply")
	}
	if !s.HasMore() {
		t.Error("cursor 120 means more to scan")
	}

	req2, ok := s.Begin(false)
	if !ok {
		t.Fatal("load-more Begin should issue a request")
	}
	if req2.Cursor != "120" {
		t.Errorf("load-more cursor = %q, want 120", req2.Cursor)
	}
	if !s.Apply(req2.Gen, leafBatch("k", 51, 80), "0") {
		t.Fatal("second batch should apply")
	}
	if got := len(s.Accumulated()); got != 80 {
		t.Errorf("accumulated = %d, want 80", got)
	}
	if s.HasMore() {
		t.Error("sentinel cursor means scan complete")
	}

	// Further load-more calls are a no-op, not an error.
	if _, ok := s.Begin(false); ok {
		t.Error("load-more after completion must be a no-op")
	}
}

// TestScanSingleFlight verifies only one scan request is outstanding at a
// time.
func TestScanSingleFlight(t *testing.T) {
	s := NewScanSession("c1", "0")
	req, _ := s.Begin(true)
	if _, ok := s.Begin(false); ok {
		t.Error("Begin while in flight must not issue a second request")
	}
	s.Apply(req.Gen, leafBatch("k", 1, 10), "42")
	if _, ok := s.Begin(false); !ok {
		t.Error("Begin after the batch applied should issue")
	}
}

// TestScanPatternChangeResets verifies a pattern change discards
// accumulated results and orphans in-flight batches of the old pattern, so
// two patterns never mix in one listing.
func TestScanPatternChangeResets(t *testing.T) {
	s := NewScanSession("c1", "0")
	req, _ := s.Begin(true)
	s.Apply(req.Gen, leafBatch("user:", 1, 20), "77")

	// A load-more for "*" goes out...
	stale, _ := s.Begin(false)

	// ...then the user types a pattern before it lands.
	s.SetPattern("session:*")
	if len(s.Accumulated()) != 0 {
		t.Fatal("pattern change must discard accumulated results")
	}
	fresh, ok := s.Begin(true)
	if !ok {
		t.Fatal("reset after pattern change should issue")
	}
	if fresh.Pattern != "session:*" || fresh.Cursor != ScanCursorStart {
		t.Errorf("fresh request = %+v", fresh)
	}

	// The stale batch lands late: dropped, not mixed in.
	if s.Apply(stale.Gen, leafBatch("user:", 21, 40), "99") {
		t.Error("stale-generation batch must be discarded")
	}
	if !s.Apply(fresh.Gen, leafBatch("session:", 1, 5), "0") {
		t.Error("fresh batch should apply")
	}
	if got := len(s.Accumulated()); got != 5 {
		t.Errorf("accumulated = %d, want 5 (no mixing)", got)
	}
}

// TestScanSetSamePatternKeepsResults verifies setting the identical
// pattern is not a reset.
func TestScanSetSamePatternKeepsResults(t *testing.T) {
	s := NewScanSession("c1", "0")
	req, _ := s.Begin(true)
	s.Apply(req.Gen, leafBatch("k", 1, 10), "0")
	s.SetPattern("*")
	if len(s.Accumulated()) != 10 {
		t.Error("re-setting the same pattern must keep results")
	}
}

// TestScanFailureKeepsSessionResumable verifies a scan error clears the
// in-flight flag but keeps accumulated results and the cursor.
func TestScanFailureKeepsSessionResumable(t *testing.T) {
	s := NewScanSession("c1", "0")
	req, _ := s.Begin(true)
	s.Apply(req.Gen, leafBatch("k", 1, 10), "55")

	req2, _ := s.Begin(false)
	if !s.Fail(req2.Gen) {
		t.Fatal("failure for current generation should apply")
	}
	if len(s.Accumulated()) != 10 {
		t.Error("failure must not discard accumulated results")
	}
	req3, ok := s.Begin(false)
	if !ok {
		t.Fatal("session should be resumable after a failure")
	}
	if req3.Cursor != "55" {
		t.Errorf("resume cursor = %q, want 55", req3.Cursor)
	}
}

// TestScanMonotonicAccumulation is the cursor monotonicity property:
// across any sequence of load-mores, accumulated length equals the sum of
// applied batch sizes, until completion.
func TestScanMonotonicAccumulation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := NewScanSession("c1", "0")
		req, ok := s.Begin(true)
		if !ok {
			t.Fatal("reset must issue")
		}
		total := 0
		steps := rapid.IntRange(1, 20).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			size := rapid.IntRange(0, 50).Draw(t, "batch")
			last := i == steps-1
			cursor := fmt.Sprintf("%d", (i+1)*10)
			if last {
				cursor = "0"
			}
			if !s.Apply(req.Gen, leafBatch("k", 1, size), cursor) {
				t.Fatal("batch should apply")
			}
			total += size
			if len(s.Accumulated()) != total {
				t.Fatalf("accumulated %d, want %d", len(s.Accumulated()), total)
			}
			if last {
				break
			}
			var more bool
			req, more = s.Begin(false)
			if !more {
				t.Fatal("load-more should issue while cursor is live")
			}
		}
		if s.HasMore() {
			t.Error("scan should be complete")
		}
	})
}
