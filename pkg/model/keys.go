package model

import "strings"

// Key scheme. Keys are hierarchical, slash-separated, and prefix-ordered so
// that subtree membership is a prefix test:
//
//	conn:{id}
//	conn:{id}/ctr:{container}
//	conn:{id}/ctr:{container}/leaf:{name}
//
// The tree root uses the empty key.

// RootKey is the key of the invisible tree root.
const RootKey = ""

// ConnKey returns the node key for a connection.
func ConnKey(connID string) string {
	return "conn:" + connID
}

// ContainerKey returns the node key for a container under a connection.
func ContainerKey(connID, containerID string) string {
	return ConnKey(connID) + "/ctr:" + containerID
}

// LeafKey returns the node key for a leaf under a container.
func LeafKey(connID, containerID, name string) string {
	return ContainerKey(connID, containerID) + "/leaf:" + name
}

// ParentKey returns the key of the node's parent, or RootKey for a
// connection key.
func ParentKey(key string) string {
	i := strings.LastIndexByte(key, '/')
	if i < 0 {
		return RootKey
	}
	return key[:i]
}

// ConnIDOf extracts the owning connection id from any key in a connection
// subtree, or "" for the root key.
func ConnIDOf(key string) string {
	first := key
	if i := strings.IndexByte(key, '/'); i >= 0 {
		first = key[:i]
	}
	if !strings.HasPrefix(first, "conn:") {
		return ""
	}
	return strings.TrimPrefix(first, "conn:")
}

// InSubtree reports whether key lies in the subtree rooted at root
// (inclusive). The empty root contains every key.
func InSubtree(key, root string) bool {
	if root == RootKey {
		return true
	}
	if key == root {
		return true
	}
	return strings.HasPrefix(key, root+"/")
}
