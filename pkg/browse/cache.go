package browse

import (
	"github.com/vanderheijden86/warren/pkg/model"
)

// EntryState is the fetch state of one cache entry.
type EntryState int

const (
	// StateNotFetched means no fetch has been attempted for the key.
	StateNotFetched EntryState = iota
	// StateFetching means a fetch is in flight. At most one per key.
	StateFetching
	// StateFetched means children are cached and immutable until the entry
	// is explicitly invalidated.
	StateFetched
	// StateError means the last fetch failed; the entry is retryable.
	StateError
)

func (s EntryState) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateFetched:
		return "fetched"
	case StateError:
		return "error"
	default:
		return "not-fetched"
	}
}

type cacheEntry struct {
	state    EntryState
	gen      uint64
	children []model.Node
	errMsg   string
}

// Cache is the keyed store of fetched children per container node. It is
// not safe for concurrent use; callers confine access to a single goroutine
// (the Bubble Tea update loop). All asynchronous results re-enter through
// Resolve/Fail, which discard anything from a superseded generation, so an
// invalidated or re-issued fetch can never clobber newer state.
type Cache struct {
	entries map[string]*cacheEntry
	gen     uint64 // monotonic fetch generation counter
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*cacheEntry)}
}

// State returns the fetch state for key.
func (c *Cache) State(key string) EntryState {
	e, ok := c.entries[key]
	if !ok {
		return StateNotFetched
	}
	return e.state
}

// Children returns the cached children for key. ok is false unless the
// entry is Fetched. The returned slice is shared; callers must not mutate.
func (c *Cache) Children(key string) ([]model.Node, bool) {
	e, ok := c.entries[key]
	if !ok || e.state != StateFetched {
		return nil, false
	}
	return e.children, true
}

// ErrorMessage returns the stored failure message for an Error entry.
func (c *Cache) ErrorMessage(key string) string {
	if e, ok := c.entries[key]; ok {
		return e.errMsg
	}
	return ""
}

// Begin transitions key to Fetching and hands out the generation the caller
// must echo back through Resolve or Fail. start is false when no fetch
// should be issued: either the children are already cached or a fetch is
// already in flight (the single-flight guarantee).
func (c *Cache) Begin(key string) (gen uint64, start bool) {
	e, ok := c.entries[key]
	if ok {
		switch e.state {
		case StateFetched, StateFetching:
			return e.gen, false
		}
	}
	c.gen++
	c.entries[key] = &cacheEntry{state: StateFetching, gen: c.gen}
	return c.gen, true
}

// Resolve stores the fetched children for key and transitions it to
// Fetched. Results from a stale generation (the entry was invalidated or
// re-fetched while this call was in flight) are discarded and false is
// returned.
func (c *Cache) Resolve(key string, gen uint64, children []model.Node) bool {
	e, ok := c.entries[key]
	if !ok || e.state != StateFetching || e.gen != gen {
		return false
	}
	e.state = StateFetched
	e.children = children
	e.errMsg = ""
	return true
}

// Fail records a fetch failure. The entry transitions to Error and stays
// retryable: the next Begin on the key issues a fresh fetch. Stale
// generations are discarded like in Resolve.
func (c *Cache) Fail(key string, gen uint64, msg string) bool {
	e, ok := c.entries[key]
	if !ok || e.state != StateFetching || e.gen != gen {
		return false
	}
	e.state = StateError
	e.children = nil
	e.errMsg = msg
	return true
}

// Invalidate evicts the entry for root and every entry in its subtree,
// forcing the next Begin to re-fetch. Entries outside the subtree are
// untouched. Returns the number of evicted entries.
func (c *Cache) Invalidate(root string) int {
	n := 0
	for key := range c.entries {
		if model.InSubtree(key, root) {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

// Len returns the number of live entries, in any state.
func (c *Cache) Len() int {
	return len(c.entries)
}
