package browse

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Browser operations. These are user-facing
// conditions, not backend failures: nothing here reaches the network.
var (
	// ErrNotConnected is returned when an expand or scan targets a subtree
	// whose connection is not Connected. The caller surfaces a warning; no
	// fetch is issued.
	ErrNotConnected = errors.New("connection is not connected")

	// ErrUnknownNode is returned for keys the browser has never seen.
	ErrUnknownNode = errors.New("unknown node key")

	// ErrNotExpandable is returned when toggling a leaf node.
	ErrNotExpandable = errors.New("node has no children")

	// ErrSwitchPending is returned when a lifecycle operation arrives while
	// a connection switch is awaiting confirmation.
	ErrSwitchPending = errors.New("connection switch awaiting confirmation")
)

// FetchError is a backend failure while listing containers or leaves. It is
// recorded on the affected cache entry; the rest of the tree is unaffected.
type FetchError struct {
	Key string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Key, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ScanError is a backend failure during a cursor scan. The session keeps its
// accumulated results and stays resumable.
type ScanError struct {
	ConnID      string
	ContainerID string
	Err         error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s/%s: %v", e.ConnID, e.ContainerID, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// ConnectionError is a connect or disconnect failure. A failed connect
// reverts the registry to Disconnected; it never leaves an ambiguous state.
type ConnectionError struct {
	ConnID string
	Op     string // "connect" | "disconnect"
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.ConnID, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// PermissionDeniedError reports a destructive action blocked at the call
// site. Pre-empted before reaching the core; carried here so the UI has one
// error vocabulary.
type PermissionDeniedError struct {
	Capability string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Capability)
}
