package model

// Descriptors are what backends return from listing calls. The browse core
// converts them into Nodes; backends never build tree keys themselves.

// ConnectionDescriptor describes a configured connection profile as shown
// in the tree before any network traffic happens.
type ConnectionDescriptor struct {
	ID     string
	Name   string
	Family Family
	Driver string
}

// ContainerDescriptor describes one container (schema, db index) under a
// connection.
type ContainerDescriptor struct {
	ID        string
	Name      string
	LeafCount int64 // server estimate, -1 when unknown
}

// LeafDescriptor describes one terminal resource (table, key).
type LeafDescriptor struct {
	Name         string
	LeafType     string
	TTLSeconds   int64
	SizeEstimate int64
}

// ConnectionNode builds the tree node for a connection descriptor.
func ConnectionNode(d ConnectionDescriptor) Node {
	return Node{
		Key:         ConnKey(d.ID),
		DisplayName: d.Name,
		Kind:        KindConnection,
		ParentKey:   RootKey,
		Payload: Payload{Connection: &ConnectionPayload{
			ConnectionID: d.ID,
			Family:       d.Family,
			Driver:       d.Driver,
		}},
	}
}

// ContainerNode builds the tree node for a container descriptor.
func ContainerNode(connID string, d ContainerDescriptor) Node {
	return Node{
		Key:         ContainerKey(connID, d.ID),
		DisplayName: d.Name,
		Kind:        KindContainer,
		ParentKey:   ConnKey(connID),
		Payload: Payload{Container: &ContainerPayload{
			ConnectionID: connID,
			ContainerID:  d.ID,
			LeafCount:    d.LeafCount,
		}},
	}
}

// LeafNode builds the tree node for a leaf descriptor.
func LeafNode(connID, containerID string, d LeafDescriptor) Node {
	return Node{
		Key:         LeafKey(connID, containerID, d.Name),
		DisplayName: d.Name,
		Kind:        KindLeaf,
		ParentKey:   ContainerKey(connID, containerID),
		Payload: Payload{Leaf: &LeafPayload{
			ConnectionID: connID,
			ContainerID:  containerID,
			Name:         d.Name,
			LeafType:     d.LeafType,
			TTLSeconds:   d.TTLSeconds,
			SizeEstimate: d.SizeEstimate,
		}},
	}
}
