package browse

// ConnStatus is the lifecycle state of one connection.
type ConnStatus int

const (
	StatusDisconnected ConnStatus = iota
	StatusConnecting
	StatusConnected
)

func (s ConnStatus) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// PendingSwitch records a connect request that arrived while another
// connection in the family was Connected. Nothing happens until the user
// confirms or cancels.
type PendingSwitch struct {
	From string
	To   string
}

// ConnectRequest asks the caller to run the backend connect for ConnID.
type ConnectRequest struct {
	ConnID string
	Gen    uint64
}

// DisconnectRequest asks the caller to run the backend disconnect for
// ConnID. Local state has already transitioned; the request exists so the
// backend call completes (or is attempted and logged) before any follow-up
// connect begins.
type DisconnectRequest struct {
	ConnID string
	Gen    uint64
}

type connState struct {
	status ConnStatus
	gen    uint64
}

// Registry tracks connection statuses for one resource family and enforces
// the at-most-one-Connected invariant by construction: a second connect is
// funneled through PendingSwitch and the disconnect-before-connect order,
// never validated after the fact. Confined to the update loop like Cache.
type Registry struct {
	conns     map[string]*connState
	active    string
	pending   *PendingSwitch
	switching bool // pending switch confirmed, disconnect in flight
	gen       uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*connState)}
}

func (r *Registry) state(id string) *connState {
	s, ok := r.conns[id]
	if !ok {
		s = &connState{}
		r.conns[id] = s
	}
	return s
}

// occupant returns the id currently holding the family slot, if any: the
// Connected connection, or one whose connect is still in flight. A peer
// mid-handshake blocks a second connect the same way a Connected one does,
// otherwise two overlapping connects could both land Connected.
func (r *Registry) occupant(id string) string {
	if r.active != "" && r.active != id {
		return r.active
	}
	for cid, s := range r.conns {
		if cid != id && s.status == StatusConnecting {
			return cid
		}
	}
	return ""
}

// Status returns the lifecycle state for id.
func (r *Registry) Status(id string) ConnStatus {
	if s, ok := r.conns[id]; ok {
		return s.status
	}
	return StatusDisconnected
}

// Active returns the id of the Connected connection, or "".
func (r *Registry) Active() string { return r.active }

// Pending returns the switch awaiting confirmation, if any.
func (r *Registry) Pending() *PendingSwitch { return r.pending }

// Connect starts connecting id. When another connection holds the family
// slot, Connected or still Connecting, no network call is made: a
// PendingSwitch is returned instead and the caller must ask the user to
// confirm. Connecting an already Connected or Connecting id is a no-op.
func (r *Registry) Connect(id string) (ConnectRequest, *PendingSwitch, error) {
	if r.pending != nil {
		return ConnectRequest{}, nil, ErrSwitchPending
	}
	s := r.state(id)
	if s.status == StatusConnected || s.status == StatusConnecting {
		return ConnectRequest{}, nil, nil
	}
	if from := r.occupant(id); from != "" {
		r.pending = &PendingSwitch{From: from, To: id}
		return ConnectRequest{}, r.pending, nil
	}
	r.gen++
	s.status = StatusConnecting
	s.gen = r.gen
	return ConnectRequest{ConnID: id, Gen: r.gen}, nil, nil
}

// ConfirmSwitch executes a pending switch: the returned DisconnectRequest
// must complete before the connect to the new id is issued (the follow-up
// comes out of ApplyDisconnectDone).
func (r *Registry) ConfirmSwitch() (DisconnectRequest, error) {
	if r.pending == nil {
		return DisconnectRequest{}, ErrUnknownNode
	}
	r.switching = true
	req, _ := r.disconnect(r.pending.From)
	return req, nil
}

// CancelSwitch abandons a pending switch; the current connection stays
// Connected.
func (r *Registry) CancelSwitch() {
	r.pending = nil
	r.switching = false
}

// Disconnect transitions id to Disconnected immediately and returns the
// backend request. The generation bump orphans any in-flight connect for
// the same id.
func (r *Registry) Disconnect(id string) (DisconnectRequest, error) {
	if r.pending != nil && !r.switching {
		return DisconnectRequest{}, ErrSwitchPending
	}
	return r.disconnect(id)
}

func (r *Registry) disconnect(id string) (DisconnectRequest, error) {
	r.gen++
	s := r.state(id)
	s.status = StatusDisconnected
	s.gen = r.gen
	if r.active == id {
		r.active = ""
	}
	return DisconnectRequest{ConnID: id, Gen: r.gen}, nil
}

// ApplyConnectDone records the outcome of a backend connect. An error
// reverts to Disconnected and is surfaced via the returned ConnectionError.
// Stale results, where the user disconnected or re-issued while the call
// was in flight, are dropped.
func (r *Registry) ApplyConnectDone(id string, gen uint64, err error) error {
	s, ok := r.conns[id]
	if !ok || s.status != StatusConnecting || s.gen != gen {
		return nil
	}
	if err != nil {
		s.status = StatusDisconnected
		return &ConnectionError{ConnID: id, Op: "connect", Err: err}
	}
	if r.active != "" && r.active != id {
		// Another connection took the slot while this one was in flight.
		// Connect funnels overlapping attempts through PendingSwitch, so
		// this only happens on a state the registry did not hand out; drop
		// the result rather than seat a second Connected.
		s.status = StatusDisconnected
		return nil
	}
	s.status = StatusConnected
	r.active = id
	return nil
}

// ApplyDisconnectDone records the outcome of a backend disconnect. The
// local state already flipped in Disconnect; a backend failure is reported
// for logging but changes nothing. When a confirmed switch was waiting on
// this disconnect, the follow-up ConnectRequest for the new connection is
// returned; this is what makes disconnect-before-connect strict.
func (r *Registry) ApplyDisconnectDone(id string, gen uint64, err error) (ConnectRequest, bool, error) {
	var reportErr error
	if err != nil {
		reportErr = &ConnectionError{ConnID: id, Op: "disconnect", Err: err}
	}
	if r.switching && r.pending != nil && r.pending.From == id {
		to := r.pending.To
		r.pending = nil
		r.switching = false
		r.gen++
		s := r.state(to)
		s.status = StatusConnecting
		s.gen = r.gen
		return ConnectRequest{ConnID: to, Gen: r.gen}, true, reportErr
	}
	return ConnectRequest{}, false, reportErr
}
