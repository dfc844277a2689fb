// Package model defines the resource tree node types shared by the browse
// core, the backends, and the UI. Nodes are plain data: all behavior
// (fetching, caching, expansion) lives in pkg/browse.
package model

// Kind identifies what a tree node represents. Only Connection and
// Container nodes may have children; Leaf nodes are terminal.
type Kind int

const (
	// KindRoot is the invisible tree root grouping all connections.
	KindRoot Kind = iota
	// KindConnection is a configured remote connection (a database server,
	// a Redis instance).
	KindConnection
	// KindContainer is an expandable grouping under a connection: a schema
	// for the sql family, a db index for the redis family.
	KindContainer
	// KindLeaf is a terminal resource: a table or a key.
	KindLeaf
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindConnection:
		return "connection"
	case KindContainer:
		return "container"
	case KindLeaf:
		return "leaf"
	default:
		return "unknown"
	}
}

// CanHaveChildren reports whether nodes of this kind are expandable.
func (k Kind) CanHaveChildren() bool {
	return k == KindRoot || k == KindConnection || k == KindContainer
}

// Family distinguishes the two independent resource families. Each family
// has its own active-connection slot; connecting in one family never
// affects the other.
type Family string

const (
	FamilySQL   Family = "sql"
	FamilyRedis Family = "redis"
)

// Node is a single entry in the resource tree. Key is stable and unique
// within the owning tree; ParentKey is a lookup-only back reference, never
// an ownership edge.
type Node struct {
	Key         string
	DisplayName string
	Kind        Kind
	ParentKey   string
	Payload     Payload
}

// Payload carries kind-specific metadata. Exactly one variant is non-nil,
// matching the node's Kind.
type Payload struct {
	Connection *ConnectionPayload
	Container  *ContainerPayload
	Leaf       *LeafPayload
}

// ConnectionPayload describes a connection node.
type ConnectionPayload struct {
	ConnectionID string
	Family       Family
	Driver       string // "postgres", "mysql", "redis"
}

// ContainerPayload describes a container node.
type ContainerPayload struct {
	ConnectionID string
	ContainerID  string // schema name or db index ("0".."15")
	LeafCount    int64  // server-reported estimate, -1 when unknown
}

// LeafPayload describes a terminal resource.
type LeafPayload struct {
	ConnectionID string
	ContainerID  string
	Name         string
	LeafType     string // table type or redis value type
	TTLSeconds   int64  // redis only, -1 = no expiry
	SizeEstimate int64  // row estimate or encoded length, -1 when unknown
}
