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
	"strings"
	"testing"
)

func TestPut_AssignsUniqueIDs(t *testing.T) {
	s := New(10)
	seen := make(map[string]bool)

	for i := 0; i < 5; i++ {
		n := NewNode(fmt.Sprintf("thought %d", i), i)
		if err := s.Put(n); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		if seen[n.ID] {
			t.Fatalf("duplicate node id %q", n.ID)
		}
		seen[n.ID] = true
	}

	if s.Len() != 5 {
		t.Errorf("Len() = %d, want 5", s.Len())
	}
}

func TestPut_RejectsEmptyID(t *testing.T) {
	s := New(10)
	if err := s.Put(&Node{}); err == nil {
		t.Error("Put() with empty id should fail")
	}
}

func TestGet_NotFound(t *testing.T) {
	s := New(10)
	_, err := s.Get("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestPath_RootToNodeOrder(t *testing.T) {
	s := New(10)

	root := NewNode("root", 0)
	mid := NewNode("mid", 1, WithParentID(root.ID))
	leaf := NewNode("leaf", 2, WithParentID(mid.ID))
	root.AddChild(mid.ID)
	mid.AddChild(leaf.ID)
	for _, n := range []*Node{root, mid, leaf} {
		if err := s.Put(n); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}

	path, err := s.Path(leaf.ID)
	if err != nil {
		t.Fatalf("Path() error = %v", err)
	}

	wantIDs := []string{root.ID, mid.ID, leaf.ID}
	if len(path) != len(wantIDs) {
		t.Fatalf("Path() length = %d, want %d", len(path), len(wantIDs))
	}
	for i, n := range path {
		if n.ID != wantIDs[i] {
			t.Errorf("path[%d].ID = %q, want %q", i, n.ID, wantIDs[i])
		}
	}
	// The parent must sit immediately before the new node.
	if path[len(path)-2].ID != mid.ID {
		t.Errorf("second-to-last path node = %q, want parent %q", path[len(path)-2].ID, mid.ID)
	}
}

func TestPath_NotFound(t *testing.T) {
	s := New(10)
	if _, err := s.Path("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Path() error = %v, want ErrNotFound", err)
	}
}

func TestPath_CycleDetected(t *testing.T) {
	s := New(4)

	// Manufacture a corrupted chain: a node that is its own ancestor.
	a := NewNode("a", 0)
	b := NewNode("b", 1, WithParentID(a.ID))
	a.ParentID = b.ID
	if err := s.Put(a); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Put(b); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if _, err := s.Path(b.ID); !errors.Is(err, ErrCycleDetected) {
		t.Errorf("Path() error = %v, want ErrCycleDetected", err)
	}
}

func TestPath_TruncatesAtEvictedAncestor(t *testing.T) {
	s := New(2)

	root := NewNode("root", 0)
	mid := NewNode("mid", 1, WithParentID(root.ID))
	leaf := NewNode("leaf", 2, WithParentID(mid.ID))
	for _, n := range []*Node{root, mid, leaf} {
		if err := s.Put(n); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}

	// Capacity 2: root was evicted by the third insert.
	if s.Has(root.ID) {
		t.Fatal("root should have been evicted")
	}

	path, err := s.Path(leaf.ID)
	if err != nil {
		t.Fatalf("Path() error = %v", err)
	}
	if len(path) != 2 || path[0].ID != mid.ID || path[1].ID != leaf.ID {
		t.Errorf("Path() after eviction = %v, want [mid leaf]", path)
	}
}

func TestEviction_OldestFirst(t *testing.T) {
	const capacity = 3
	s := New(capacity)

	ids := make([]string, 0, capacity+1)
	for i := 0; i < capacity+1; i++ {
		n := NewNode(fmt.Sprintf("t%d", i), i)
		if err := s.Put(n); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		ids = append(ids, n.ID)
	}

	if s.Len() != capacity {
		t.Errorf("Len() = %d, want %d", s.Len(), capacity)
	}
	if s.Has(ids[0]) {
		t.Error("oldest node should no longer be retrievable")
	}
	for _, id := range ids[1:] {
		if !s.Has(id) {
			t.Errorf("node %q should survive eviction", id)
		}
	}
	if s.Evictions() != 1 {
		t.Errorf("Evictions() = %d, want 1", s.Evictions())
	}
}

func TestPut_OverwriteDoesNotEvict(t *testing.T) {
	s := New(2)
	n := NewNode("x", 0)
	if err := s.Put(n); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Put(n); err != nil {
		t.Fatalf("Put() overwrite error = %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after overwrite", s.Len())
	}
	if s.Evictions() != 0 {
		t.Errorf("Evictions() = %d, want 0", s.Evictions())
	}
}

func TestAll_InsertionOrder(t *testing.T) {
	s := New(10)
	var want []string
	for i := 0; i < 4; i++ {
		n := NewNode(fmt.Sprintf("t%d", i), i)
		if err := s.Put(n); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		want = append(want, n.ID)
	}

	all := s.All()
	if len(all) != len(want) {
		t.Fatalf("All() length = %d, want %d", len(all), len(want))
	}
	for i, n := range all {
		if n.ID != want[i] {
			t.Errorf("All()[%d] = %q, want %q", i, n.ID, want[i])
		}
	}
}

func TestRecent_Limit(t *testing.T) {
	s := New(20)
	for i := 0; i < 12; i++ {
		if err := s.Put(NewNode(fmt.Sprintf("t%d", i), i)); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}

	recent := s.Recent(10)
	if len(recent) != 10 {
		t.Fatalf("Recent(10) length = %d, want 10", len(recent))
	}
	if recent[len(recent)-1].Thought != "t11" {
		t.Errorf("most recent thought = %q, want t11", recent[len(recent)-1].Thought)
	}
}

func TestClear_EmptiesStore(t *testing.T) {
	s := New(5)
	for i := 0; i < 3; i++ {
		if err := s.Put(NewNode("x", i)); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}

	s.Clear()

	if s.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", s.Len())
	}
	if got := s.All(); len(got) != 0 {
		t.Errorf("All() length = %d after Clear, want 0", len(got))
	}
}

func TestPathScore_SumsAlongPath(t *testing.T) {
	s := New(10)
	root := NewNode("root", 0)
	root.Score = 4
	child := NewNode("child", 1, WithParentID(root.ID))
	child.Score = 6
	root.AddChild(child.ID)
	for _, n := range []*Node{root, child} {
		if err := s.Put(n); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}

	got, err := s.PathScore(child.ID)
	if err != nil {
		t.Fatalf("PathScore() error = %v", err)
	}
	if got != 10 {
		t.Errorf("PathScore() = %v, want 10", got)
	}
}

func TestFormat_RendersTree(t *testing.T) {
	s := New(10)
	root := NewNode("design the core loop", 0)
	child := NewNode("add a scoring twist", 1, WithParentID(root.ID), WithComplete(true))
	root.AddChild(child.ID)
	for _, n := range []*Node{root, child} {
		if err := s.Put(n); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}

	out := s.Format()
	if !strings.Contains(out, "design the core loop") {
		t.Errorf("Format() missing root thought:\n%s", out)
	}
	if !strings.Contains(out, "add a scoring twist") {
		t.Errorf("Format() missing child thought:\n%s", out)
	}
}

func TestFormat_Empty(t *testing.T) {
	if got := New(5).Format(); got != "Empty store" {
		t.Errorf("Format() = %q, want Empty store", got)
	}
}
