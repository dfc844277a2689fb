// Package browse implements the lazy tree-structured resource browser core:
// on-demand fetching with an idempotent single-flight cache, cursor-based
// incremental scanning of huge leaf collections, debounced search with
// stale-result supersession, and a one-active-connection lifecycle with
// confirmed switching.
//
// Everything here is confined to a single goroutine, the Bubble Tea update
// loop. Concurrency comes only from overlapping asynchronous fetches: an
// operation returns an Effect describing the backend call to run, the
// caller runs it off-loop (a tea.Cmd with a cancellable context) and feeds
// the outcome back through the Apply methods, which discard results whose
// generation has been superseded.
package browse

import (
	"io"
	"log"
	"sort"
	"time"

	"github.com/vanderheijden86/warren/pkg/model"
)

// FetchOp says what a FetchRequest lists.
type FetchOp int

const (
	// FetchContainers lists the containers under a connection.
	FetchContainers FetchOp = iota
	// FetchLeaves lists the leaves under a container (non-paginated family).
	FetchLeaves
)

// FetchRequest describes one children listing the caller must run against
// the backend and feed back via ApplyContainers or ApplyLeaves.
type FetchRequest struct {
	Key         string
	Gen         uint64
	ConnID      string
	ContainerID string // set for FetchLeaves
	Op          FetchOp
}

// Effect is the asynchronous work an operation asks its caller to perform.
// At most one field is set. A nil-everything Effect means the operation was
// satisfied locally (cache hit, no-op toggle).
type Effect struct {
	Fetch      *FetchRequest
	Scan       *ScanRequest
	Connect    *ConnectRequest
	Disconnect *DisconnectRequest
	Prompt     *PendingSwitch
}

// None reports whether the effect carries no work.
func (e Effect) None() bool {
	return e.Fetch == nil && e.Scan == nil && e.Connect == nil && e.Disconnect == nil && e.Prompt == nil
}

// ExpansionState is the per-node UI state machine driven by the cache.
type ExpansionState int

const (
	Collapsed ExpansionState = iota
	Expanding
	Expanded
)

func (s ExpansionState) String() string {
	switch s {
	case Expanding:
		return "expanding"
	case Expanded:
		return "expanded"
	default:
		return "collapsed"
	}
}

// Option configures a Browser.
type Option func(*Browser)

// WithSearchWindow sets the search debounce window.
func WithSearchWindow(d time.Duration) Option {
	return func(b *Browser) { b.search = NewSearchController(d) }
}

// WithScanBatch sets the cursor scan batch size.
func WithScanBatch(n int) Option {
	return func(b *Browser) {
		if n > 0 {
			b.scanBatch = n
		}
	}
}

// WithPagination overrides the family default for leaf listing: paginated
// containers scan incrementally, non-paginated ones list in one fetch.
func WithPagination(paginated bool) Option {
	return func(b *Browser) { b.paginated = paginated }
}

// WithLogger sets the logger for non-surfaced failures (e.g. a disconnect
// that errored during a confirmed switch).
func WithLogger(l *log.Logger) Option {
	return func(b *Browser) { b.logger = l }
}

// Browser composes the tree cache, connection registry, scan sessions and
// search controller for one resource family (one page). State is explicit
// and constructor-injected, never ambient, so tests get independent
// instances.
type Browser struct {
	family    model.Family
	paginated bool
	scanBatch int

	cache    *Cache
	reg      *Registry
	search   *SearchController
	nodes    map[string]model.Node
	expanded map[string]bool
	sessions map[string]*ScanSession // by container key

	logger *log.Logger
}

// NewBrowser creates a browser for one family. The redis family paginates
// leaf listings by default; the sql family lists tables in one fetch.
func NewBrowser(family model.Family, opts ...Option) *Browser {
	b := &Browser{
		family:    family,
		paginated: family == model.FamilyRedis,
		scanBatch: DefaultScanBatch,
		cache:     NewCache(),
		reg:       NewRegistry(),
		search:    NewSearchController(0),
		nodes:     make(map[string]model.Node),
		expanded:  make(map[string]bool),
		sessions:  make(map[string]*ScanSession),
		logger:    log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Family returns the resource family this browser serves.
func (b *Browser) Family() model.Family { return b.family }

// Cache exposes the tree cache for inspection (tests, status lines).
func (b *Browser) Cache() *Cache { return b.cache }

// Registry exposes the connection registry.
func (b *Browser) Registry() *Registry { return b.reg }

// ScanBatch returns the configured scan batch size.
func (b *Browser) ScanBatch() int { return b.scanBatch }

// SetConnections installs the connection roots. Existing statuses, cache
// entries and expansion state for still-present connections are preserved;
// removed connections are evicted.
func (b *Browser) SetConnections(descs []model.ConnectionDescriptor) {
	present := make(map[string]bool, len(descs))
	for _, d := range descs {
		present[d.ID] = true
		n := model.ConnectionNode(d)
		b.nodes[n.Key] = n
	}
	for key, n := range b.nodes {
		if n.Kind != model.KindConnection {
			continue
		}
		id := n.Payload.Connection.ConnectionID
		if !present[id] {
			b.evictConnection(id)
			delete(b.nodes, key)
		}
	}
}

// Connections returns the connection nodes sorted by display name.
func (b *Browser) Connections() []model.Node {
	var out []model.Node
	for _, n := range b.nodes {
		if n.Kind == model.KindConnection {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayName == out[j].DisplayName {
			return out[i].Key < out[j].Key
		}
		return out[i].DisplayName < out[j].DisplayName
	})
	return out
}

// Node returns the registered node for key.
func (b *Browser) Node(key string) (model.Node, bool) {
	n, ok := b.nodes[key]
	return n, ok
}

// ExpState derives the expansion state for key from user intent plus the
// cache (or scan session) state.
func (b *Browser) ExpState(key string) ExpansionState {
	if !b.expanded[key] {
		return Collapsed
	}
	if s, ok := b.sessions[key]; ok && b.isPaginatedContainer(key) {
		switch {
		case s.Started():
			return Expanded
		case s.InFlight():
			return Expanding
		default:
			return Collapsed
		}
	}
	switch b.cache.State(key) {
	case StateFetched:
		return Expanded
	case StateFetching:
		return Expanding
	default:
		return Collapsed
	}
}

func (b *Browser) isPaginatedContainer(key string) bool {
	n, ok := b.nodes[key]
	return ok && n.Kind == model.KindContainer && b.paginated
}

// connectionOf resolves the owning connection id for any key in the tree.
func (b *Browser) connectionOf(key string) string {
	return model.ConnIDOf(key)
}

// Toggle expands a collapsed node or collapses an expanded one. Toggling a
// node that is still Expanding is a no-op, which is what defuses rapid
// double-clicks.
func (b *Browser) Toggle(key string) (Effect, error) {
	switch b.ExpState(key) {
	case Expanding:
		return Effect{}, nil
	case Expanded:
		b.Collapse(key)
		return Effect{}, nil
	default:
		return b.Expand(key)
	}
}

// Expand marks key expanded and, when its children are not cached, returns
// the fetch (or scan) to run. Expanding under a connection that is not
// Connected fails fast with ErrNotConnected before any cache access.
func (b *Browser) Expand(key string) (Effect, error) {
	n, ok := b.nodes[key]
	if !ok {
		return Effect{}, ErrUnknownNode
	}
	if !n.Kind.CanHaveChildren() {
		return Effect{}, ErrNotExpandable
	}
	connID := b.connectionOf(key)
	if connID != "" && b.reg.Status(connID) != StatusConnected {
		return Effect{}, ErrNotConnected
	}
	b.expanded[key] = true

	if n.Kind == model.KindContainer && b.paginated {
		s := b.session(key, n)
		if s.Started() || s.InFlight() {
			return Effect{}, nil
		}
		req, ok := s.Begin(true)
		if !ok {
			return Effect{}, nil
		}
		return Effect{Scan: &req}, nil
	}

	gen, start := b.cache.Begin(key)
	if !start {
		return Effect{}, nil
	}
	req := &FetchRequest{Key: key, Gen: gen, ConnID: connID}
	if n.Kind == model.KindContainer {
		req.Op = FetchLeaves
		req.ContainerID = n.Payload.Container.ContainerID
	}
	return Effect{Fetch: req}, nil
}

// Collapse hides key's children. The cache is deliberately kept so
// re-expansion costs nothing.
func (b *Browser) Collapse(key string) {
	delete(b.expanded, key)
}

// Refresh evicts key's subtree from the cache and, when the node is
// expanded, re-issues the fetch.
func (b *Browser) Refresh(key string) (Effect, error) {
	n, ok := b.nodes[key]
	if !ok {
		return Effect{}, ErrUnknownNode
	}
	if !n.Kind.CanHaveChildren() {
		return Effect{}, ErrNotExpandable
	}
	b.invalidateSubtree(key)
	if !b.expanded[key] {
		return Effect{}, nil
	}
	delete(b.expanded, key)
	return b.Expand(key)
}

// invalidateSubtree evicts cache entries, scan sessions and descendant node
// records below key. The node at key itself stays registered.
func (b *Browser) invalidateSubtree(key string) {
	b.cache.Invalidate(key)
	for k := range b.sessions {
		if model.InSubtree(k, key) {
			delete(b.sessions, k)
		}
	}
	for k := range b.expanded {
		if k != key && model.InSubtree(k, key) {
			delete(b.expanded, k)
		}
	}
	for k := range b.nodes {
		if k != key && model.InSubtree(k, key) {
			delete(b.nodes, k)
		}
	}
}

func (b *Browser) session(key string, n model.Node) *ScanSession {
	if s, ok := b.sessions[key]; ok {
		return s
	}
	p := n.Payload.Container
	s := NewScanSession(p.ConnectionID, p.ContainerID)
	b.sessions[key] = s
	return s
}

// Session returns the scan session for a paginated container key, if one
// exists.
func (b *Browser) Session(key string) (*ScanSession, bool) {
	s, ok := b.sessions[key]
	return s, ok
}

// Children returns the visible children for an expandable key: cached
// nodes, or the scan session's accumulated leaves for paginated containers.
func (b *Browser) Children(key string) []model.Node {
	if b.isPaginatedContainer(key) {
		s, ok := b.sessions[key]
		if !ok {
			return nil
		}
		n := b.nodes[key]
		p := n.Payload.Container
		acc := s.Accumulated()
		out := make([]model.Node, 0, len(acc))
		for _, d := range acc {
			out = append(out, model.LeafNode(p.ConnectionID, p.ContainerID, d))
		}
		return out
	}
	children, _ := b.cache.Children(key)
	return children
}

// LoadMore continues a paginated container's scan from its cursor. Calling
// it once the scan completed is a no-op, not an error.
func (b *Browser) LoadMore(key string) (Effect, error) {
	n, ok := b.nodes[key]
	if !ok {
		return Effect{}, ErrUnknownNode
	}
	if !b.isPaginatedContainer(key) {
		return Effect{}, ErrNotExpandable
	}
	if b.reg.Status(b.connectionOf(key)) != StatusConnected {
		return Effect{}, ErrNotConnected
	}
	s := b.session(key, n)
	req, ok := s.Begin(false)
	if !ok {
		return Effect{}, nil
	}
	return Effect{Scan: &req}, nil
}

// SetScanPattern changes a paginated container's filter pattern. A changed
// pattern discards accumulated leaves and restarts the scan; batches still
// in flight for the old pattern are never mixed in.
func (b *Browser) SetScanPattern(key, pattern string) (Effect, error) {
	n, ok := b.nodes[key]
	if !ok {
		return Effect{}, ErrUnknownNode
	}
	if !b.isPaginatedContainer(key) {
		return Effect{}, ErrNotExpandable
	}
	// Status first: a failed pattern change must not discard what the
	// session has accumulated.
	if b.reg.Status(b.connectionOf(key)) != StatusConnected {
		return Effect{}, ErrNotConnected
	}
	s := b.session(key, n)
	old := s.Pattern()
	s.SetPattern(pattern)
	if s.Pattern() == old {
		return Effect{}, nil
	}
	req, ok := s.Begin(true)
	if !ok {
		return Effect{}, nil
	}
	return Effect{Scan: &req}, nil
}

// ApplyContainers feeds back a FetchContainers outcome. Stale generations
// are dropped silently; failures mark the entry Error and surface a
// FetchError.
func (b *Browser) ApplyContainers(req FetchRequest, descs []model.ContainerDescriptor, fetchErr error) error {
	if fetchErr != nil {
		if b.cache.Fail(req.Key, req.Gen, fetchErr.Error()) {
			return &FetchError{Key: req.Key, Err: fetchErr}
		}
		return nil
	}
	children := make([]model.Node, 0, len(descs))
	for _, d := range descs {
		children = append(children, model.ContainerNode(req.ConnID, d))
	}
	if !b.cache.Resolve(req.Key, req.Gen, children) {
		return nil
	}
	for _, c := range children {
		b.nodes[c.Key] = c
	}
	return nil
}

// ApplyLeaves feeds back a FetchLeaves outcome (non-paginated family).
func (b *Browser) ApplyLeaves(req FetchRequest, descs []model.LeafDescriptor, fetchErr error) error {
	if fetchErr != nil {
		if b.cache.Fail(req.Key, req.Gen, fetchErr.Error()) {
			return &FetchError{Key: req.Key, Err: fetchErr}
		}
		return nil
	}
	children := make([]model.Node, 0, len(descs))
	for _, d := range descs {
		children = append(children, model.LeafNode(req.ConnID, req.ContainerID, d))
	}
	if !b.cache.Resolve(req.Key, req.Gen, children) {
		return nil
	}
	for _, c := range children {
		b.nodes[c.Key] = c
	}
	return nil
}

// ApplyScan feeds back one scan batch. Stale generations are dropped.
func (b *Browser) ApplyScan(req ScanRequest, batch []model.LeafDescriptor, cursor string, scanErr error) error {
	key := model.ContainerKey(req.ConnID, req.ContainerID)
	s, ok := b.sessions[key]
	if !ok {
		return nil
	}
	if scanErr != nil {
		if s.Fail(req.Gen) {
			return &ScanError{ConnID: req.ConnID, ContainerID: req.ContainerID, Err: scanErr}
		}
		return nil
	}
	s.Apply(req.Gen, batch, cursor)
	return nil
}

// Connect starts connecting id, or returns a Prompt effect when another
// connection is active and the user must confirm the switch.
func (b *Browser) Connect(id string) (Effect, error) {
	req, pending, err := b.reg.Connect(id)
	if err != nil {
		return Effect{}, err
	}
	if pending != nil {
		return Effect{Prompt: pending}, nil
	}
	if req.ConnID == "" {
		return Effect{}, nil
	}
	return Effect{Connect: &req}, nil
}

// Disconnect transitions id to Disconnected, evicts its subtree and clears
// panels sourced from it (the search result), then returns the backend
// disconnect to run.
func (b *Browser) Disconnect(id string) (Effect, error) {
	req, err := b.reg.Disconnect(id)
	if err != nil {
		return Effect{}, err
	}
	b.evictConnection(id)
	return Effect{Disconnect: &req}, nil
}

// ConfirmSwitch executes the pending switch: the old connection is
// disconnected and evicted now; the connect to the new one is issued by
// ApplyDisconnectDone once the backend disconnect has completed.
func (b *Browser) ConfirmSwitch() (Effect, error) {
	p := b.reg.Pending()
	if p == nil {
		return Effect{}, ErrUnknownNode
	}
	from := p.From
	req, err := b.reg.ConfirmSwitch()
	if err != nil {
		return Effect{}, err
	}
	b.evictConnection(from)
	return Effect{Disconnect: &req}, nil
}

// CancelSwitch abandons a pending switch.
func (b *Browser) CancelSwitch() { b.reg.CancelSwitch() }

// ApplyConnectDone feeds back a backend connect outcome. A failure reverts
// the registry to Disconnected and is surfaced, never swallowed.
func (b *Browser) ApplyConnectDone(id string, gen uint64, err error) error {
	return b.reg.ApplyConnectDone(id, gen, err)
}

// ApplyDisconnectDone feeds back a backend disconnect outcome. A failed
// disconnect is logged, not surfaced: the local state already flipped. The
// returned effect carries the follow-up connect when a confirmed switch was
// waiting on this disconnect.
func (b *Browser) ApplyDisconnectDone(id string, gen uint64, err error) Effect {
	next, ok, reportErr := b.reg.ApplyDisconnectDone(id, gen, err)
	if reportErr != nil {
		b.logger.Printf("disconnect %s failed: %v", id, reportErr)
	}
	if !ok {
		return Effect{}
	}
	return Effect{Connect: &next}
}

// evictConnection drops everything sourced from a connection's subtree:
// cache entries, scan sessions, expansion flags, descendant nodes, and the
// current search result (which may reference evicted nodes).
func (b *Browser) evictConnection(id string) {
	key := model.ConnKey(id)
	b.invalidateSubtree(key)
	delete(b.expanded, key)
	b.search.Clear()
}
