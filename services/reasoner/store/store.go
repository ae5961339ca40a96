// Copyright (C) 2026 Treelight Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"errors"
	"fmt"
	"sync"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates the requested node id is not in the store.
	// Evicted ids report ErrNotFound exactly like ids that never existed.
	ErrNotFound = errors.New("node not found")

	// ErrCycleDetected indicates a parent walk did not terminate within
	// the capacity bound. Should never happen with store-created links.
	ErrCycleDetected = errors.New("cycle detected in parent chain")
)

// DefaultCapacity bounds the node table when no capacity is configured.
const DefaultCapacity = 1000

// Store is a capacity-bounded arena of thought nodes.
//
// Nodes are kept in a flat id -> node table plus an insertion-order list
// used for oldest-first eviction. The store assigns no semantics to node
// content; strategies own scoring and auxiliary indices.
//
// Thread Safety: The node table is guarded by an RWMutex so concurrent
// reads are safe. Mutating calls (Put, Clear) must still be serialized by
// the caller together with any strategy index updates, because those
// indices are read-modify-write across a whole ProcessThought call.
type Store struct {
	mu       sync.RWMutex
	nodes    map[string]*Node
	order    []string // insertion order, oldest first
	capacity int

	evictions int64
}

// New creates a store bounded to the given capacity.
// Non-positive capacities fall back to DefaultCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		nodes:    make(map[string]*Node),
		order:    make([]string, 0, capacity),
		capacity: capacity,
	}
}

// Capacity returns the configured node bound.
func (s *Store) Capacity() int {
	return s.capacity
}

// Len returns the current number of nodes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Evictions returns the number of nodes aged out since creation or the
// last Clear.
func (s *Store) Evictions() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evictions
}

// Put inserts or overwrites a node by id, evicting the least-recently
// inserted node(s) once the capacity bound is exceeded.
//
// Inputs:
//   - n: The node to persist. Must have a non-empty id.
//
// Outputs:
//   - error: Non-nil if the node has no id.
func (s *Store) Put(n *Node) error {
	if n == nil || n.ID == "" {
		return fmt.Errorf("put: node must have an id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[n.ID]; !exists {
		s.order = append(s.order, n.ID)
	}
	s.nodes[n.ID] = n

	for len(s.nodes) > s.capacity {
		s.evictOldestLocked()
	}
	return nil
}

// evictOldestLocked removes the oldest inserted node. Caller holds mu.
func (s *Store) evictOldestLocked() {
	for len(s.order) > 0 {
		oldest := s.order[0]
		s.order = s.order[1:]
		if _, ok := s.nodes[oldest]; ok {
			delete(s.nodes, oldest)
			s.evictions++
			return
		}
		// Stale order entry from an overwrite; skip it.
	}
}

// Get returns the node for the given id.
//
// Outputs:
//   - *Node: The stored node.
//   - error: ErrNotFound if the id is absent or has been evicted.
func (s *Store) Get(id string) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return nil, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	return n, nil
}

// Has reports whether the id is currently in the store.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.nodes[id]
	return ok
}

// All returns every node in insertion order, oldest first.
func (s *Store) All() []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Node, 0, len(s.nodes))
	for _, id := range s.order {
		if n, ok := s.nodes[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Recent returns up to limit of the most recently inserted nodes, oldest
// first. Used by the hybrid arbiter's uncertainty signal.
func (s *Store) Recent(limit int) []*Node {
	all := s.All()
	if limit <= 0 || len(all) <= limit {
		return all
	}
	return all[len(all)-limit:]
}

// Path reconstructs the root-to-node path for the given id by following
// parent links upward, then reversing.
//
// The walk is bounded by the store capacity as a defence against a
// corrupted parent chain. If an ancestor has been evicted the path is
// truncated at the oldest surviving node rather than failing: the evicted
// id is treated as NotFound, which for a back reference means "no parent".
//
// Inputs:
//   - id: The node to trace. Must be present in the store.
//
// Outputs:
//   - []*Node: Nodes ordered root (or oldest survivor) to id.
//   - error: ErrNotFound if id is absent, ErrCycleDetected if the walk
//     exceeds the capacity bound.
func (s *Store) Path(id string) ([]*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return nil, fmt.Errorf("path %q: %w", id, ErrNotFound)
	}

	var path []*Node
	for n != nil {
		if len(path) > s.capacity {
			return nil, fmt.Errorf("path %q: %w", id, ErrCycleDetected)
		}
		path = append(path, n)
		if n.ParentID == "" {
			break
		}
		parent, ok := s.nodes[n.ParentID]
		if !ok {
			// Ancestor evicted; the surviving prefix acts as root.
			break
		}
		n = parent
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// PathScore sums node scores along the root path to id. This is the g(n)
// cost used by the A* strategy.
func (s *Store) PathScore(id string) (float64, error) {
	path, err := s.Path(id)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, n := range path {
		sum += n.Score
	}
	return sum, nil
}

// Clear removes every node. Strategy auxiliary indices are cleared
// separately by their owners.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = make(map[string]*Node)
	s.order = s.order[:0]
	s.evictions = 0
}
