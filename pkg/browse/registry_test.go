package browse

import (
	"errors"
	"testing"
)

// TestRegistryConnectHappyPath walks Disconnected -> Connecting ->
// Connected.
func TestRegistryConnectHappyPath(t *testing.T) {
	r := NewRegistry()
	req, pending, err := r.Connect("a")
	if err != nil || pending != nil {
		t.Fatalf("err=%v pending=%v", err, pending)
	}
	if r.Status("a") != StatusConnecting {
		t.Errorf("status = %v, want connecting", r.Status("a"))
	}
	if surfaced := r.ApplyConnectDone("a", req.Gen, nil); surfaced != nil {
		t.Fatalf("unexpected error: %v", surfaced)
	}
	if r.Status("a") != StatusConnected || r.Active() != "a" {
		t.Errorf("status=%v active=%q", r.Status("a"), r.Active())
	}
}

// TestRegistryConnectFailureReverts verifies an error during Connecting
// returns to Disconnected and surfaces a ConnectionError.
func TestRegistryConnectFailureReverts(t *testing.T) {
	r := NewRegistry()
	req, _, _ := r.Connect("a")
	surfaced := r.ApplyConnectDone("a", req.Gen, errors.New("refused"))
	var connErr *ConnectionError
	if !errors.As(surfaced, &connErr) {
		t.Fatalf("want ConnectionError, got %v", surfaced)
	}
	if r.Status("a") != StatusDisconnected {
		t.Errorf("status = %v, want disconnected (no ambiguous state)", r.Status("a"))
	}
	if r.Active() != "" {
		t.Errorf("active = %q, want empty", r.Active())
	}
}

// TestRegistryStaleConnectDropped verifies a connect result arriving after
// the user disconnected is ignored.
func TestRegistryStaleConnectDropped(t *testing.T) {
	r := NewRegistry()
	req, _, _ := r.Connect("a")
	if _, err := r.Disconnect("a"); err != nil {
		t.Fatal(err)
	}
	if surfaced := r.ApplyConnectDone("a", req.Gen, nil); surfaced != nil {
		t.Fatalf("stale result must be silent, got %v", surfaced)
	}
	if r.Status("a") != StatusDisconnected {
		t.Error("stale connect result must not resurrect the connection")
	}
}

// TestRegistrySwitchFlow verifies the confirmed-switch ordering: pending
// until confirmation, disconnect(from) strictly before connect(to).
func TestRegistrySwitchFlow(t *testing.T) {
	r := NewRegistry()
	req, _, _ := r.Connect("a")
	r.ApplyConnectDone("a", req.Gen, nil)

	// connect(b) while a is Connected: no network call, pending switch.
	connReq, pending, err := r.Connect("b")
	if err != nil {
		t.Fatal(err)
	}
	if pending == nil || pending.From != "a" || pending.To != "b" {
		t.Fatalf("pending = %+v, want a->b", pending)
	}
	if connReq.ConnID != "" {
		t.Fatal("no connect may be issued before confirmation")
	}
	if r.Status("b") != StatusDisconnected {
		t.Error("b must stay Disconnected until the switch is confirmed")
	}

	// Confirm: disconnect(a) is issued, b still untouched.
	discReq, err := r.ConfirmSwitch()
	if err != nil {
		t.Fatal(err)
	}
	if discReq.ConnID != "a" {
		t.Fatalf("disconnect target = %q, want a", discReq.ConnID)
	}
	if r.Status("a") != StatusDisconnected {
		t.Error("a should be Disconnected locally once the switch executes")
	}
	if r.Status("b") != StatusDisconnected {
		t.Error("connect(b) must not begin before disconnect(a) completes")
	}

	// Disconnect completes: now, and only now, the connect(b) follows.
	next, ok, reportErr := r.ApplyDisconnectDone("a", discReq.Gen, nil)
	if reportErr != nil {
		t.Fatal(reportErr)
	}
	if !ok || next.ConnID != "b" {
		t.Fatalf("follow-up = %+v ok=%v, want connect b", next, ok)
	}
	if r.Status("b") != StatusConnecting {
		t.Error("b should be Connecting after the follow-up is issued")
	}
	r.ApplyConnectDone("b", next.Gen, nil)
	if r.Active() != "b" || r.Status("a") != StatusDisconnected {
		t.Errorf("final state active=%q a=%v", r.Active(), r.Status("a"))
	}
}

// TestRegistrySwitchProceedsAfterDisconnectError verifies a failed
// disconnect is reported for logging but does not block the switch.
func TestRegistrySwitchProceedsAfterDisconnectError(t *testing.T) {
	r := NewRegistry()
	req, _, _ := r.Connect("a")
	r.ApplyConnectDone("a", req.Gen, nil)
	r.Connect("b")
	discReq, _ := r.ConfirmSwitch()

	next, ok, reportErr := r.ApplyDisconnectDone("a", discReq.Gen, errors.New("broken pipe"))
	if reportErr == nil {
		t.Error("disconnect failure should be reported for logging")
	}
	if !ok || next.ConnID != "b" {
		t.Error("switch must proceed after the disconnect was attempted")
	}
}

// TestRegistryCancelSwitchKeepsCurrent verifies cancelling a pending
// switch leaves the current connection untouched.
func TestRegistryCancelSwitchKeepsCurrent(t *testing.T) {
	r := NewRegistry()
	req, _, _ := r.Connect("a")
	r.ApplyConnectDone("a", req.Gen, nil)
	r.Connect("b")
	r.CancelSwitch()

	if r.Active() != "a" || r.Status("a") != StatusConnected {
		t.Error("cancel must keep the current connection")
	}
	if r.Pending() != nil {
		t.Error("pending switch should be cleared")
	}

	// Lifecycle operations work again after the cancel.
	if _, _, err := r.Connect("a"); err != nil {
		t.Errorf("connect after cancel: %v", err)
	}
}

// TestRegistryOverlappingConnectsPrompt verifies a connect issued while
// another connection is still mid-handshake goes through the switch prompt
// instead of racing it: without the funnel, both results would land
// Connected in the same family.
func TestRegistryOverlappingConnectsPrompt(t *testing.T) {
	r := NewRegistry()
	reqA, _, _ := r.Connect("a")

	// a has not resolved yet; b must not get a second in-flight connect.
	connReq, pending, err := r.Connect("b")
	if err != nil {
		t.Fatal(err)
	}
	if pending == nil || pending.From != "a" || pending.To != "b" {
		t.Fatalf("pending = %+v, want a->b", pending)
	}
	if connReq.ConnID != "" {
		t.Fatal("no second connect may be issued while a is Connecting")
	}

	// Confirming orphans a's handshake before b begins.
	discReq, _ := r.ConfirmSwitch()
	next, ok, _ := r.ApplyDisconnectDone("a", discReq.Gen, nil)
	if !ok || next.ConnID != "b" {
		t.Fatalf("follow-up = %+v ok=%v, want connect b", next, ok)
	}
	if surfaced := r.ApplyConnectDone("a", reqA.Gen, nil); surfaced != nil {
		t.Fatalf("orphaned result must be silent, got %v", surfaced)
	}
	r.ApplyConnectDone("b", next.Gen, nil)

	connected := 0
	for _, id := range []string{"a", "b"} {
		if r.Status(id) == StatusConnected {
			connected++
		}
	}
	if connected != 1 || r.Active() != "b" {
		t.Fatalf("connected=%d active=%q, want exactly b", connected, r.Active())
	}
}

// TestRegistryConnectDoneRespectsSeatedActive verifies a connect result
// cannot seat a second Connected when another id already holds the slot.
func TestRegistryConnectDoneRespectsSeatedActive(t *testing.T) {
	r := NewRegistry()
	req, _, _ := r.Connect("a")
	r.ApplyConnectDone("a", req.Gen, nil)

	// Force b into Connecting behind the registry's back and complete it.
	r.state("b").status = StatusConnecting
	r.state("b").gen = 99
	if surfaced := r.ApplyConnectDone("b", 99, nil); surfaced != nil {
		t.Fatalf("unexpected error: %v", surfaced)
	}
	if r.Status("b") != StatusDisconnected {
		t.Errorf("b = %v, want disconnected", r.Status("b"))
	}
	if r.Active() != "a" || r.Status("a") != StatusConnected {
		t.Errorf("active=%q a=%v, want a still seated", r.Active(), r.Status("a"))
	}
}

// TestRegistryAtMostOneConnected drives a handful of sequential connects
// and checks the invariant holds by construction.
func TestRegistryAtMostOneConnected(t *testing.T) {
	r := NewRegistry()
	ids := []string{"a", "b", "c"}
	req, _, _ := r.Connect(ids[0])
	r.ApplyConnectDone(ids[0], req.Gen, nil)

	for _, next := range ids[1:] {
		_, pending, _ := r.Connect(next)
		if pending == nil {
			t.Fatalf("connect(%s) with an active connection must prompt", next)
		}
		discReq, _ := r.ConfirmSwitch()
		connReq, ok, _ := r.ApplyDisconnectDone(pending.From, discReq.Gen, nil)
		if !ok {
			t.Fatal("switch should produce a follow-up connect")
		}
		r.ApplyConnectDone(next, connReq.Gen, nil)

		connected := 0
		for _, id := range ids {
			if r.Status(id) == StatusConnected {
				connected++
			}
		}
		if connected != 1 {
			t.Fatalf("%d connections Connected, want exactly 1", connected)
		}
		if r.Active() != next {
			t.Fatalf("active = %q, want %s", r.Active(), next)
		}
	}
}
