// Package backend defines the contracts the browser core consumes. The
// remote side (a database server, a Redis instance, or the ops-console
// REST gateway fronting them) is an external collaborator; the core only
// ever sees these interfaces.
package backend

import (
	"context"
	"errors"

	"github.com/vanderheijden86/warren/pkg/model"
)

// ErrUnknownConnection is returned for connection ids the service has no
// profile for.
var ErrUnknownConnection = errors.New("unknown connection id")

// ScanPage is one bounded slice of a cursor scan. A returned Cursor equal
// to the start sentinel ("0" or empty) means the scan is complete.
type ScanPage struct {
	Items  []model.LeafDescriptor
	Cursor string
}

// Service is the family-specific backend. Every call takes a context; a
// torn-down view cancels it and late results are discarded by the core's
// generation checks, so implementations only need to respect ctx.
type Service interface {
	// Connect establishes (and verifies) the connection for id.
	Connect(ctx context.Context, connID string) error

	// Disconnect tears down the connection for id. Idempotent.
	Disconnect(ctx context.Context, connID string) error

	// ListContainers lists the containers under a connected connection.
	ListContainers(ctx context.Context, connID string) ([]model.ContainerDescriptor, error)

	// ListLeaves lists all leaves of a container in one call. The
	// non-paginated family (sql tables); paginated backends may reject it.
	ListLeaves(ctx context.Context, connID, containerID string) ([]model.LeafDescriptor, error)

	// ScanLeaves returns one bounded batch of leaves matching pattern,
	// resuming from cursor. batchSize <= 0 selects the backend default.
	ScanLeaves(ctx context.Context, connID, containerID, pattern, cursor string, batchSize int) (ScanPage, error)
}

// LeafDeleter is implemented by backends that can destroy a leaf resource.
// Optional: the sql backend does not implement it, dropping tables is not a
// browser operation.
type LeafDeleter interface {
	DeleteLeaf(ctx context.Context, connID, containerID, name string) error
}

// Capability names used with PermissionChecker. Destructive operations are
// gated at the call site; the core assumes the check already happened.
const (
	CapDeleteLeaf  = "resource:delete"
	CapBatchDelete = "resource:batch-delete"
)

// PermissionChecker answers capability checks. The real implementation
// lives with the console's auth layer; tests and the local CLI use
// AllowAll.
type PermissionChecker interface {
	HasPermission(capability string) bool
}

// AllowAll grants every capability.
type AllowAll struct{}

func (AllowAll) HasPermission(string) bool { return true }
