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
	"math"

	"github.com/treelight/reasoner/services/reasoner/store"
)

// Weight of the quality factor in the remaining-cost estimate. The
// heuristic is an approximation with no admissibility guarantee.
const heuristicQualityWeight = 1.0

// AStar maintains the classic open/closed discipline over caller-driven
// expansion: every created node enters the open set, and each request
// then expands (moves open -> closed) the current minimum-f node. Neighbor
// generation is never internal; subsequent caller requests supply the
// neighbors, so the frontier drains at the same rate it fills.
//
// Invariant: openSet and closedSet are disjoint, and every node this
// strategy created sits in exactly one of them until evicted from the
// shared store.
type AStar struct {
	store  *store.Store
	scorer *Scorer
	logger *slog.Logger

	openSet   map[string]bool
	closedSet map[string]bool

	expansions int64
}

// NewAStar creates an A* strategy over the given store.
func NewAStar(st *store.Store, sc *Scorer, logger *slog.Logger) *AStar {
	if logger == nil {
		logger = slog.Default()
	}
	return &AStar{
		store:     st,
		scorer:    sc,
		logger:    logger,
		openSet:   make(map[string]bool),
		closedSet: make(map[string]bool),
	}
}

// Name implements Strategy.
func (a *AStar) Name() Type {
	return TypeAStar
}

// ProcessThought implements Strategy.
func (a *AStar) ProcessThought(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n, _, err := createNode(a.store, a.scorer, req)
	if err != nil {
		return nil, err
	}

	h := a.heuristic(n, req)
	n.HeuristicValue = h
	a.openSet[n.ID] = true

	g, err := a.store.PathScore(n.ID)
	if err != nil {
		g = n.Score
	}

	a.expand()

	resp := baseResponse(n, TypeAStar)
	resp.OpenSetSize = iptr(a.openSize())
	resp.ClosedSetSize = iptr(a.closedSize())
	resp.EstimatedDistanceToGoal = fptr(h)
	resp.TotalCost = fptr(g + h)
	if best, ok := a.bestOpenScore(); ok {
		resp.BestScore = fptr(best)
	}

	a.logger.Debug("a* processed thought",
		slog.String("node", n.ID),
		slog.Float64("h", h),
		slog.Int("open", a.openSize()),
		slog.Int("closed", a.closedSize()))

	return resp, nil
}

// heuristic estimates remaining cost: steps left scaled by a quality
// factor from the score (lower score, higher estimated remaining cost).
func (a *AStar) heuristic(n *store.Node, req *Request) float64 {
	remaining := req.TotalThoughts - req.ThoughtNumber
	if remaining < 0 {
		remaining = 0
	}
	quality := (scoreMax - n.Score) / scoreMax
	return float64(remaining) * (1 + heuristicQualityWeight*quality)
}

// f computes g(n) + h(n) from the stored path cost.
func (a *AStar) f(n *store.Node) float64 {
	g, err := a.store.PathScore(n.ID)
	if err != nil {
		g = n.Score
	}
	return g + n.HeuristicValue
}

// expand moves the minimum-f open node to the closed set. A complete node
// halts its branch: it closes without neighbor generation, which is
// caller-driven anyway. Ties go to the first node in insertion order;
// evicted ids drop out of the bookkeeping silently.
func (a *AStar) expand() {
	a.dropEvicted()

	var selected *store.Node
	bestF := math.Inf(1)
	for _, n := range a.store.All() {
		if !a.openSet[n.ID] {
			continue
		}
		if f := a.f(n); f < bestF {
			bestF = f
			selected = n
		}
	}
	if selected == nil {
		return
	}

	delete(a.openSet, selected.ID)
	a.closedSet[selected.ID] = true
	a.expansions++
}

// dropEvicted prunes set entries whose node aged out of the shared store.
// An evicted id must behave as NotFound, never crash the strategy.
func (a *AStar) dropEvicted() {
	for id := range a.openSet {
		if !a.store.Has(id) {
			delete(a.openSet, id)
		}
	}
	for id := range a.closedSet {
		if !a.store.Has(id) {
			delete(a.closedSet, id)
		}
	}
}

func (a *AStar) openSize() int   { return len(a.openSet) }
func (a *AStar) closedSize() int { return len(a.closedSet) }

// bestOpenScore returns the maximum raw score currently in the open set.
func (a *AStar) bestOpenScore() (float64, bool) {
	best, found := 0.0, false
	for _, n := range a.store.All() {
		if !a.openSet[n.ID] {
			continue
		}
		if !found || n.Score > best {
			best = n.Score
			found = true
		}
	}
	return best, found
}

// BestPath implements Strategy: a complete node with the highest score
// across both sets wins; with nothing complete, the node with the lowest
// f(n) across both sets is the fallback.
func (a *AStar) BestPath() ([]*store.Node, error) {
	a.dropEvicted()

	var best *store.Node
	for _, n := range a.store.All() {
		if !a.openSet[n.ID] && !a.closedSet[n.ID] {
			continue
		}
		if !n.IsComplete {
			continue
		}
		if best == nil || n.Score > best.Score {
			best = n
		}
	}

	if best == nil {
		best = a.lowestF()
	}
	if best == nil {
		return nil, nil
	}
	return a.store.Path(best.ID)
}

func (a *AStar) lowestF() *store.Node {
	var selected *store.Node
	bestF := math.Inf(1)
	for _, n := range a.store.All() {
		if !a.openSet[n.ID] && !a.closedSet[n.ID] {
			continue
		}
		if f := a.f(n); f < bestF {
			bestF = f
			selected = n
		}
	}
	return selected
}

// InOpenSet reports whether the id is currently on the frontier.
func (a *AStar) InOpenSet(id string) bool {
	return a.openSet[id]
}

// InClosedSet reports whether the id has been expanded.
func (a *AStar) InClosedSet(id string) bool {
	return a.closedSet[id]
}

// Metrics implements Strategy.
func (a *AStar) Metrics() map[string]float64 {
	return map[string]float64{
		"openSetSize":   float64(a.openSize()),
		"closedSetSize": float64(a.closedSize()),
		"expansions":    float64(a.expansions),
	}
}

// Clear implements Strategy.
func (a *AStar) Clear() {
	a.openSet = make(map[string]bool)
	a.closedSet = make(map[string]bool)
	a.expansions = 0
}
