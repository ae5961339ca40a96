// Copyright (C) 2026 Treelight Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package strategy

import (
	"github.com/treelight/reasoner/services/reasoner/store"
)

// Scoring policy constants. These are tunable policy values, not derived
// figures; they mirror the original heuristics and carry no optimality
// guarantee.
const (
	// defaultBlendWeight is the weight given to a node's own evaluation
	// mean over the inherited parent score.
	defaultBlendWeight = 0.7

	// defaultNeutralScore is assumed when the caller supplies no
	// evaluations. Midpoint of the 0-10 range.
	defaultNeutralScore = 5.0

	// defaultDepthPenalty is the maximum fractional decay applied at the
	// configured max depth.
	defaultDepthPenalty = 0.05

	// scoreMax bounds the caller-understood score range.
	scoreMax = 10.0
)

// Scorer blends caller-supplied evaluations with the inherited parent
// score into a single 0-10 quality measure.
//
// Thread Safety: Safe to read concurrently. Not safe to modify after
// creation.
type Scorer struct {
	// BlendWeight is the share of the node's own evaluation mean in the
	// final score; the remainder inherits from the parent.
	BlendWeight float64

	// NeutralScore substitutes for the evaluation mean when the caller
	// supplies no evaluations.
	NeutralScore float64

	// DepthPenalty is the fractional score decay reached at MaxDepth.
	DepthPenalty float64

	// MaxDepth caps the depth used for the decay ramp.
	MaxDepth int

	// Temperature widens (>1) or narrows (<1) the spread of scores around
	// the neutral midpoint. The diversity knob from the config surface.
	Temperature float64
}

// DefaultScorer returns the policy defaults.
func DefaultScorer() *Scorer {
	return &Scorer{
		BlendWeight:  defaultBlendWeight,
		NeutralScore: defaultNeutralScore,
		DepthPenalty: defaultDepthPenalty,
		MaxDepth:     10,
		Temperature:  1.0,
	}
}

// Score computes the quality measure for a node given its parent.
// Parent may be nil for roots.
//
// The blend is policy, not proof: it approximates the original scoring
// behaviour and makes no admissibility claim for downstream heuristics.
func (sc *Scorer) Score(n *store.Node, parent *store.Node) float64 {
	base := sc.NeutralScore
	if len(n.Evaluations) > 0 {
		var sum float64
		for _, v := range n.Evaluations {
			sum += v
		}
		base = sum / float64(len(n.Evaluations))
	}

	inherited := base
	if parent != nil {
		inherited = parent.Score
	}

	score := sc.BlendWeight*base + (1-sc.BlendWeight)*inherited

	// Mild decay with depth so long chains must keep earning their keep.
	maxDepth := sc.MaxDepth
	if maxDepth < 1 {
		maxDepth = 1
	}
	depth := n.Depth
	if depth > maxDepth {
		depth = maxDepth
	}
	score *= 1 - sc.DepthPenalty*float64(depth)/float64(maxDepth)

	if sc.Temperature > 0 && sc.Temperature != 1.0 {
		score = sc.NeutralScore + (score-sc.NeutralScore)*sc.Temperature
	}

	return clampScore(score)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > scoreMax {
		return scoreMax
	}
	return v
}

// createNode validates the request, builds the node, scores it, links it
// under its parent and persists it. Shared by all five strategies so the
// node lifecycle stays uniform.
//
// Outputs:
//   - *store.Node: The created node.
//   - *store.Node: The parent node, nil for roots.
//   - error: ErrInvalidRequest or store.ErrNotFound (unknown parentId).
func createNode(st *store.Store, sc *Scorer, req *Request) (*store.Node, *store.Node, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	var parent *store.Node
	if req.ParentID != "" {
		p, err := st.Get(req.ParentID)
		if err != nil {
			return nil, nil, err
		}
		parent = p
	}

	n := store.NewNode(req.Thought, req.Depth(),
		store.WithParentID(req.ParentID),
		store.WithEvaluations(req.Evaluations),
		store.WithComplete(!req.NextThoughtNeeded),
	)
	n.Score = sc.Score(n, parent)

	if parent != nil {
		parent.AddChild(n.ID)
	}
	if err := st.Put(n); err != nil {
		return nil, nil, err
	}
	return n, parent, nil
}

// baseResponse fills the fields common to every strategy.
func baseResponse(n *store.Node, name Type) *Response {
	return &Response{
		NodeID:            n.ID,
		Thought:           n.Thought,
		Score:             n.Score,
		Depth:             n.Depth,
		IsComplete:        n.IsComplete,
		NextThoughtNeeded: !n.IsComplete,
		StrategyUsed:      name,
	}
}
