// Package hashring implements a weighted consistent hashing ring with
// virtual nodes. Keys map to the nearest clockwise vnode, so adding or
// removing one server only remaps the keys that fell into that server's
// vnode ranges.
package hashring

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

const (
	// DefaultVNodesPerWeight is the number of virtual nodes generated
	// per weight unit. A higher number smooths the distribution but
	// grows the ring.
	DefaultVNodesPerWeight = 150
)

var (
	ErrDuplicateServer = errors.New("server already registered")
	ErrServerNotFound  = errors.New("server not found")
	ErrEmptyRing       = errors.New("ring is empty")
	ErrInvalidWeight   = errors.New("weight must be a positive integer")
)

type serverEntry struct {
	weight int
	vnodes int
}

// Ring manages the consistent hashing ring. All mutations are applied
// under the write lock, so a concurrent lookup observes either the old
// or the new topology, never a partially-mutated one.
type Ring struct {
	mu              sync.RWMutex
	hasher          Hasher
	vnodesPerWeight int
	vnodes          []VirtualNode // sorted by (hash, seq)
	servers         map[string]serverEntry
	nextSeq         uint64
}

// NewRing creates a ring using the named hash algorithm. One ring owns
// exactly one hasher for its whole lifetime, so vnode placement and key
// lookup always share the same output domain.
func NewRing(algorithm string, vnodesPerWeight int) (*Ring, error) {
	hasher, err := NewHasher(algorithm)
	if err != nil {
		return nil, err
	}
	return NewRingWithHasher(hasher, vnodesPerWeight), nil
}

// NewRingWithHasher creates a ring around an explicit hasher.
func NewRingWithHasher(hasher Hasher, vnodesPerWeight int) *Ring {
	if vnodesPerWeight <= 0 {
		vnodesPerWeight = DefaultVNodesPerWeight
	}
	return &Ring{
		hasher:          hasher,
		vnodesPerWeight: vnodesPerWeight,
		vnodes:          make([]VirtualNode, 0),
		servers:         make(map[string]serverEntry),
	}
}

// AddServer registers a server and inserts weight * vnodesPerWeight
// virtual nodes into the ring.
func (r *Ring) AddServer(serverID string, weight int) error {
	if weight < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidWeight, weight)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.servers[serverID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateServer, serverID)
	}

	count := weight * r.vnodesPerWeight
	for i := 0; i < count; i++ {
		vn := VirtualNode{
			ServerID: serverID,
			Replica:  i,
			Hash:     r.hasher.Sum64([]byte(replicaKey(serverID, i))),
			seq:      r.nextSeq,
		}
		r.nextSeq++
		r.insertLocked(vn)
	}

	r.servers[serverID] = serverEntry{weight: weight, vnodes: count}
	return nil
}

// RemoveServer deletes the server and every virtual node it owns.
func (r *Ring) RemoveServer(serverID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.servers[serverID]; !exists {
		return fmt.Errorf("%w: %s", ErrServerNotFound, serverID)
	}

	delete(r.servers, serverID)

	kept := make([]VirtualNode, 0, len(r.vnodes))
	for _, vn := range r.vnodes {
		if vn.ServerID != serverID {
			kept = append(kept, vn)
		}
	}
	r.vnodes = kept
	return nil
}

// Lookup resolves a key to the server owning the first vnode clockwise
// from the key's hash, wrapping around past the largest vnode.
func (r *Ring) Lookup(key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.vnodes) == 0 {
		return "", ErrEmptyRing
	}

	idx := r.searchLocked(r.hasher.Sum64([]byte(key)))
	return r.vnodes[idx].ServerID, nil
}

// LookupCandidates walks the ring clockwise from the key's position and
// collects up to n distinct servers in preference order. Fewer than n
// are returned when fewer than n servers are registered.
func (r *Ring) LookupCandidates(key string, n int) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.vnodes) == 0 {
		return nil, ErrEmptyRing
	}
	if n <= 0 {
		return []string{}, nil
	}
	if n > len(r.servers) {
		n = len(r.servers)
	}

	candidates := make([]string, 0, n)
	seen := make(map[string]struct{}, n)

	idx := r.searchLocked(r.hasher.Sum64([]byte(key)))
	for i := 0; i < len(r.vnodes) && len(candidates) < n; i++ {
		vn := r.vnodes[(idx+i)%len(r.vnodes)]
		if _, ok := seen[vn.ServerID]; ok {
			continue
		}
		seen[vn.ServerID] = struct{}{}
		candidates = append(candidates, vn.ServerID)
	}

	return candidates, nil
}

// HashKey exposes the ring's own hash of a key, for debug endpoints.
func (r *Ring) HashKey(key string) uint64 {
	return r.hasher.Sum64([]byte(key))
}

// Has reports whether a server is registered.
func (r *Ring) Has(serverID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.servers[serverID]
	return ok
}

// Servers returns the registered server IDs in lexicographic order.
func (r *Ring) Servers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.servers))
	for id := range r.servers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ServerCount returns the number of registered servers.
func (r *Ring) ServerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.servers)
}

// Len returns the total number of virtual nodes on the ring.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.vnodes)
}

// VNodeCounts returns the number of virtual nodes per server.
func (r *Ring) VNodeCounts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int, len(r.servers))
	for id, entry := range r.servers {
		counts[id] = entry.vnodes
	}
	return counts
}

// Sample returns up to limit vnodes in ring order, for debug endpoints.
func (r *Ring) Sample(limit int) []VirtualNode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.vnodes) {
		limit = len(r.vnodes)
	}
	out := make([]VirtualNode, limit)
	copy(out, r.vnodes[:limit])
	return out
}

// searchLocked finds the index of the first vnode with hash >= h,
// wrapping to index 0 when h is past the largest vnode.
func (r *Ring) searchLocked(h uint64) int {
	idx := sort.Search(len(r.vnodes), func(i int) bool {
		return r.vnodes[i].Hash >= h
	})
	if idx == len(r.vnodes) {
		idx = 0
	}
	return idx
}

// insertLocked inserts a vnode keeping the slice sorted by (hash, seq).
// Colliding hashes stay adjacent in insertion order, so neither of two
// colliding vnodes is ever silently dropped.
func (r *Ring) insertLocked(vn VirtualNode) {
	idx := sort.Search(len(r.vnodes), func(i int) bool {
		if r.vnodes[i].Hash != vn.Hash {
			return r.vnodes[i].Hash > vn.Hash
		}
		return r.vnodes[i].seq > vn.seq
	})
	r.vnodes = append(r.vnodes, VirtualNode{})
	copy(r.vnodes[idx+1:], r.vnodes[idx:])
	r.vnodes[idx] = vn
}
