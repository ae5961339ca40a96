// Copyright (C) 2026 Treelight Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package strategy

import (
	"errors"
	"math"
	"testing"

	"github.com/treelight/reasoner/services/reasoner/store"
)

func TestScorer_NeutralWithoutEvaluations(t *testing.T) {
	sc := DefaultScorer()
	n := store.NewNode("x", 0)

	got := sc.Score(n, nil)

	if got != sc.NeutralScore {
		t.Errorf("Score() = %v, want neutral %v", got, sc.NeutralScore)
	}
}

func TestScorer_BlendsEvaluationsWithParent(t *testing.T) {
	sc := DefaultScorer()
	sc.DepthPenalty = 0 // isolate the blend

	parent := store.NewNode("p", 0)
	parent.Score = 2.0
	n := store.NewNode("c", 1, store.WithEvaluations(map[string]float64{
		"feasibility": 8,
		"novelty":     6,
	}))

	got := sc.Score(n, parent)
	want := 0.7*7.0 + 0.3*2.0

	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Score() = %v, want %v", got, want)
	}
}

func TestScorer_DepthDecay(t *testing.T) {
	sc := DefaultScorer()
	shallow := store.NewNode("a", 0, store.WithEvaluations(map[string]float64{"q": 8}))
	deep := store.NewNode("b", sc.MaxDepth, store.WithEvaluations(map[string]float64{"q": 8}))

	if sc.Score(deep, nil) >= sc.Score(shallow, nil) {
		t.Error("deeper node should score lower under depth decay")
	}
}

func TestScorer_Clamped(t *testing.T) {
	sc := DefaultScorer()
	sc.Temperature = 50 // extreme spread must still clamp

	high := store.NewNode("h", 0, store.WithEvaluations(map[string]float64{"q": 10}))
	low := store.NewNode("l", 0, store.WithEvaluations(map[string]float64{"q": 0}))

	if got := sc.Score(high, nil); got > 10 {
		t.Errorf("Score() = %v, want <= 10", got)
	}
	if got := sc.Score(low, nil); got < 0 {
		t.Errorf("Score() = %v, want >= 0", got)
	}
}

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *Request
		wantErr bool
	}{
		{"valid", &Request{Thought: "x", ThoughtNumber: 1, TotalThoughts: 1}, false},
		{"missing thought", &Request{ThoughtNumber: 1, TotalThoughts: 1}, true},
		{"zero thought number", &Request{Thought: "x", TotalThoughts: 1}, true},
		{"zero total", &Request{Thought: "x", ThoughtNumber: 1}, true},
		{"nil", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("Validate() error = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestCreateNode_UnknownParent(t *testing.T) {
	st := store.New(10)
	req := &Request{Thought: "x", ThoughtNumber: 2, TotalThoughts: 3, ParentID: "ghost"}

	_, _, err := createNode(st, DefaultScorer(), req)

	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("createNode() error = %v, want store.ErrNotFound", err)
	}
}

func TestCreateNode_LinksParentAndChild(t *testing.T) {
	st := store.New(10)
	sc := DefaultScorer()

	root, _, err := createNode(st, sc, &Request{
		Thought: "root", ThoughtNumber: 1, TotalThoughts: 3, NextThoughtNeeded: true,
	})
	if err != nil {
		t.Fatalf("createNode() error = %v", err)
	}
	if !root.IsRoot() || root.Depth != 0 {
		t.Errorf("root node = %v, want depth 0 root", root)
	}

	child, parent, err := createNode(st, sc, &Request{
		Thought: "child", ThoughtNumber: 2, TotalThoughts: 3,
		NextThoughtNeeded: true, ParentID: root.ID,
	})
	if err != nil {
		t.Fatalf("createNode() error = %v", err)
	}
	if parent.ID != root.ID {
		t.Errorf("parent.ID = %q, want %q", parent.ID, root.ID)
	}
	if len(root.Children) != 1 || root.Children[0] != child.ID {
		t.Errorf("root.Children = %v, want exactly [%q]", root.Children, child.ID)
	}

	path, err := st.Path(child.ID)
	if err != nil {
		t.Fatalf("Path() error = %v", err)
	}
	if len(path) != 2 || path[0].ID != root.ID || path[1].ID != child.ID {
		t.Errorf("Path() = %v, want parent immediately before child", path)
	}
}
