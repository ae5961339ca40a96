// Copyright (C) 2026 Treelight Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Node is one step in a reasoning tree.
//
// The thought payload is opaque to the store: scoring and completion
// semantics belong to the strategy that created the node. Children and
// parent links are held as ids, never pointers, so eviction and path
// walking stay cycle-checkable.
//
// Thread Safety: Node itself carries no lock. All mutation happens within
// the synchronous extent of one ProcessThought call; the owning Store
// guards its node table independently.
type Node struct {
	// Immutable after creation
	ID        string    `json:"id"`
	Thought   string    `json:"thought"`
	Depth     int       `json:"depth"`
	CreatedAt time.Time `json:"createdAt"`

	// Score is computed once at creation and read by all strategies.
	Score float64 `json:"score"`

	// Children holds child node ids in creation order. Appended to by the
	// parent's owner when a child is created, never removed.
	Children []string `json:"children"`

	// ParentID is a lookup-only back reference. Empty for roots.
	ParentID string `json:"parentId,omitempty"`

	// IsComplete is true when the caller signalled no further continuation.
	IsComplete bool `json:"isComplete"`

	// Evaluations holds caller-supplied named sub-metrics, opaque to the core.
	Evaluations map[string]float64 `json:"evaluations,omitempty"`

	// Strategy-owned optional fields. Each is mutated only by its strategy.
	Simulation     *SimulationStats `json:"simulationResults,omitempty"`
	HeuristicValue float64          `json:"heuristicValue,omitempty"`
	Constraints    *ConstraintState `json:"constraints,omitempty"`
}

// SimulationStats accumulates rollout statistics for a node (MCTS only).
type SimulationStats struct {
	Visits      int64   `json:"visits"`
	TotalReward float64 `json:"totalReward"`
}

// AvgReward returns the mean reward per visit, or 0 with no visits.
func (s *SimulationStats) AvgReward() float64 {
	if s == nil || s.Visits == 0 {
		return 0
	}
	return s.TotalReward / float64(s.Visits)
}

// ConstraintState holds the CSP payload attached to a node.
type ConstraintState struct {
	Domains     map[string][]any `json:"domains,omitempty"`
	Assignments map[string]any   `json:"assignments,omitempty"`
	Satisfied   bool             `json:"satisfied"`
}

// NodeOption configures a Node during creation.
type NodeOption func(*Node)

// WithParentID sets the parent back reference.
func WithParentID(parentID string) NodeOption {
	return func(n *Node) {
		n.ParentID = parentID
	}
}

// WithEvaluations attaches caller-supplied sub-metrics.
func WithEvaluations(evals map[string]float64) NodeOption {
	return func(n *Node) {
		if len(evals) == 0 {
			return
		}
		n.Evaluations = make(map[string]float64, len(evals))
		for k, v := range evals {
			n.Evaluations[k] = v
		}
	}
}

// WithComplete marks the node as a terminal step.
func WithComplete(complete bool) NodeOption {
	return func(n *Node) {
		n.IsComplete = complete
	}
}

// NewNode creates a node with a generated id at the given depth.
//
// Inputs:
//   - thought: Caller-supplied step text. Opaque to the store.
//   - depth: Zero-based step index (thoughtNumber - 1).
//   - opts: Optional configuration functions.
//
// Outputs:
//   - *Node: The created node, never nil. Score is left at zero; the
//     creating strategy assigns it before the node is persisted.
func NewNode(thought string, depth int, opts ...NodeOption) *Node {
	n := &Node{
		ID:        uuid.NewString(),
		Thought:   thought,
		Depth:     depth,
		CreatedAt: time.Now(),
		Children:  make([]string, 0),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// IsRoot returns true if the node has no parent reference.
func (n *Node) IsRoot() bool {
	return n.ParentID == ""
}

// IsLeaf returns true if the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// AddChild appends a child id. The store never removes entries from
// Children; eviction is handled at lookup time instead.
func (n *Node) AddChild(childID string) {
	n.Children = append(n.Children, childID)
}

// String returns a human-readable representation of the node.
func (n *Node) String() string {
	return fmt.Sprintf("Node{id=%s, depth=%d, score=%.2f, complete=%v, children=%d}",
		n.ID, n.Depth, n.Score, n.IsComplete, len(n.Children))
}
