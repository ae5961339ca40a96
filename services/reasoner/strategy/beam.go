// Copyright (C) 2026 Treelight Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package strategy

import (
	"context"
	"log/slog"

	"github.com/treelight/reasoner/services/reasoner/store"
)

// BeamSearch keeps no frontier of its own: selection is recomputed from a
// full store scan on demand, so the shared store is the only state.
//
// Tie-break rule: among equal-scoring complete nodes, the first
// encountered in insertion-order scan wins. This is stable and explicit.
type BeamSearch struct {
	store          *store.Store
	scorer         *Scorer
	beamWidth      int
	minViableScore float64
	logger         *slog.Logger
}

// NewBeamSearch creates a beam search strategy over the given store.
func NewBeamSearch(st *store.Store, sc *Scorer, beamWidth int, minViableScore float64, logger *slog.Logger) *BeamSearch {
	if logger == nil {
		logger = slog.Default()
	}
	if beamWidth < 1 {
		beamWidth = 3
	}
	return &BeamSearch{
		store:          st,
		scorer:         sc,
		beamWidth:      beamWidth,
		minViableScore: minViableScore,
		logger:         logger,
	}
}

// Name implements Strategy.
func (b *BeamSearch) Name() Type {
	return TypeBeamSearch
}

// ProcessThought implements Strategy.
func (b *BeamSearch) ProcessThought(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n, _, err := createNode(b.store, b.scorer, req)
	if err != nil {
		return nil, err
	}

	resp := baseResponse(n, TypeBeamSearch)

	if best := b.bestNode(); best != nil {
		resp.BestScore = fptr(best.Score)
	}
	resp.PossiblePaths = iptr(b.liveLeaves())

	b.logger.Debug("beam search processed thought",
		slog.String("node", n.ID),
		slog.Float64("score", n.Score),
		slog.Int("depth", n.Depth))

	return resp, nil
}

// bestNode returns the highest-scoring complete node, or the
// highest-scoring node overall when nothing is complete yet.
func (b *BeamSearch) bestNode() *store.Node {
	var best, bestIncomplete *store.Node
	for _, n := range b.store.All() {
		if n.IsComplete {
			if best == nil || n.Score > best.Score {
				best = n
			}
			continue
		}
		if bestIncomplete == nil || n.Score > bestIncomplete.Score {
			bestIncomplete = n
		}
	}
	if best != nil {
		return best
	}
	return bestIncomplete
}

// liveLeaves counts leaves still worth continuing: not complete and at or
// above the minimum viable score.
func (b *BeamSearch) liveLeaves() int {
	count := 0
	for _, n := range b.store.All() {
		if n.IsComplete || n.Score < b.minViableScore {
			continue
		}
		if b.isLeaf(n) {
			count++
		}
	}
	return count
}

// isLeaf ignores evicted children: a node whose children all aged out is
// a leaf again.
func (b *BeamSearch) isLeaf(n *store.Node) bool {
	for _, id := range n.Children {
		if b.store.Has(id) {
			return false
		}
	}
	return true
}

// BestPath implements Strategy.
func (b *BeamSearch) BestPath() ([]*store.Node, error) {
	best := b.bestNode()
	if best == nil {
		return nil, nil
	}
	return b.store.Path(best.ID)
}

// Metrics implements Strategy.
func (b *BeamSearch) Metrics() map[string]float64 {
	m := map[string]float64{
		"beamWidth":  float64(b.beamWidth),
		"liveLeaves": float64(b.liveLeaves()),
	}
	complete := 0
	for _, n := range b.store.All() {
		if n.IsComplete {
			complete++
		}
	}
	m["completeNodes"] = float64(complete)
	return m
}

// Clear implements Strategy. Beam search holds no auxiliary index.
func (b *BeamSearch) Clear() {}
