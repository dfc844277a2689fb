// Package backendtest provides a scripted in-memory backend service for
// tests. Calls are counted and failures can be injected per operation.
package backendtest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/vanderheijden86/warren/pkg/backend"
	"github.com/vanderheijden86/warren/pkg/model"
)

// Fake is a backend.Service whose answers come from scripted maps. The
// zero value is not usable; construct with New.
type Fake struct {
	mu sync.Mutex

	containers map[string][]model.ContainerDescriptor // connID -> containers
	leaves     map[string][]model.LeafDescriptor      // connID/containerID -> leaves

	failConnect    map[string]error
	failContainers map[string]error
	failLeaves     map[string]error

	calls map[string]int
}

// New returns an empty Fake. Script it with SetContainers and SetLeaves.
func New() *Fake {
	return &Fake{
		containers:     make(map[string][]model.ContainerDescriptor),
		leaves:         make(map[string][]model.LeafDescriptor),
		failConnect:    make(map[string]error),
		failContainers: make(map[string]error),
		failLeaves:     make(map[string]error),
		calls:          make(map[string]int),
	}
}

func scopeKey(connID, containerID string) string {
	return connID + "/" + containerID
}

// SetContainers scripts the container listing for a connection.
func (f *Fake) SetContainers(connID string, cs []model.ContainerDescriptor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.containers[connID] = cs
}

// SetLeaves scripts the leaf listing for a container. The same data backs
// ListLeaves and ScanLeaves.
func (f *Fake) SetLeaves(connID, containerID string, ls []model.LeafDescriptor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaves[scopeKey(connID, containerID)] = ls
}

// FailConnect makes the next Connect calls for connID return err. Pass nil
// to clear.
func (f *Fake) FailConnect(connID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failConnect, connID)
		return
	}
	f.failConnect[connID] = err
}

// FailContainers injects a listing error for a connection.
func (f *Fake) FailContainers(connID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failContainers, connID)
		return
	}
	f.failContainers[connID] = err
}

// FailLeaves injects a leaf listing / scan error for a container.
func (f *Fake) FailLeaves(connID, containerID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := scopeKey(connID, containerID)
	if err == nil {
		delete(f.failLeaves, key)
		return
	}
	f.failLeaves[key] = err
}

// Calls returns how many times the named operation ran. Operation names
// are "connect:{id}", "disconnect:{id}", "containers:{id}",
// "leaves:{id}/{container}", "scan:{id}/{container}".
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *Fake) count(op string) {
	f.calls[op]++
}

func (f *Fake) Connect(_ context.Context, connID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("connect:" + connID)
	if err := f.failConnect[connID]; err != nil {
		return err
	}
	if _, ok := f.containers[connID]; !ok {
		return fmt.Errorf("%w: %s", backend.ErrUnknownConnection, connID)
	}
	return nil
}

func (f *Fake) Disconnect(_ context.Context, connID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("disconnect:" + connID)
	return nil
}

func (f *Fake) ListContainers(_ context.Context, connID string) ([]model.ContainerDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("containers:" + connID)
	if err := f.failContainers[connID]; err != nil {
		return nil, err
	}
	cs, ok := f.containers[connID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", backend.ErrUnknownConnection, connID)
	}
	return cs, nil
}

func (f *Fake) ListLeaves(_ context.Context, connID, containerID string) ([]model.LeafDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := scopeKey(connID, containerID)
	f.count("leaves:" + key)
	if err := f.failLeaves[key]; err != nil {
		return nil, err
	}
	return f.leaves[key], nil
}

// ScanLeaves pages through the scripted leaves in offset order. The cursor
// is the numeric offset of the next item; "0" or "" starts over and "0" is
// returned when the scan is done, matching the redis sentinel.
func (f *Fake) ScanLeaves(_ context.Context, connID, containerID, pattern, cursor string, batchSize int) (backend.ScanPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := scopeKey(connID, containerID)
	f.count("scan:" + key)
	if err := f.failLeaves[key]; err != nil {
		return backend.ScanPage{}, err
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	all := filterLeaves(f.leaves[key], pattern)
	offset := 0
	if cursor != "" && cursor != "0" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return backend.ScanPage{}, fmt.Errorf("bad cursor %q", cursor)
		}
		offset = n
	}
	if offset >= len(all) {
		return backend.ScanPage{Cursor: "0"}, nil
	}

	end := offset + batchSize
	next := "0"
	if end < len(all) {
		next = strconv.Itoa(end)
	} else {
		end = len(all)
	}
	return backend.ScanPage{Items: all[offset:end], Cursor: next}, nil
}

// DeleteLeaf removes a scripted leaf by name.
func (f *Fake) DeleteLeaf(_ context.Context, connID, containerID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := scopeKey(connID, containerID)
	f.count("delete:" + key)
	if err := f.failLeaves[key]; err != nil {
		return err
	}
	ls := f.leaves[key]
	for i, d := range ls {
		if d.Name == name {
			f.leaves[key] = append(ls[:i:i], ls[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no leaf %q in %s", name, key)
}

// filterLeaves applies a star-only glob, the subset the fake needs.
func filterLeaves(ls []model.LeafDescriptor, pattern string) []model.LeafDescriptor {
	if pattern == "" || pattern == "*" {
		out := make([]model.LeafDescriptor, len(ls))
		copy(out, ls)
		return out
	}
	var out []model.LeafDescriptor
	for _, d := range ls {
		if globMatch(pattern, d.Name) {
			out = append(out, d)
		}
	}
	return out
}

func globMatch(pattern, name string) bool {
	// Only prefix*, *suffix and *infix* forms appear in tests.
	switch {
	case pattern[0] == '*' && pattern[len(pattern)-1] == '*':
		return strings.Contains(name, pattern[1:len(pattern)-1])
	case pattern[0] == '*':
		return strings.HasSuffix(name, pattern[1:])
	case pattern[len(pattern)-1] == '*':
		return strings.HasPrefix(name, pattern[:len(pattern)-1])
	default:
		return name == pattern
	}
}

// Leaves is a helper that builds n leaf descriptors named prefix0..n-1 in
// sorted order.
func Leaves(prefix string, n int) []model.LeafDescriptor {
	out := make([]model.LeafDescriptor, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.LeafDescriptor{
			Name:         fmt.Sprintf("%s%03d", prefix, i),
			LeafType:     "string",
			TTLSeconds:   -1,
			SizeEstimate: -1,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
