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

// MonteCarloTreeSearch treats each incoming thought as a newly expanded
// leaf of a rollout: the node's score is the rollout reward, recorded on
// the node and backpropagated along the stored root path.
//
// Best-path tie-break, in order: highest reward/visit ratio among complete
// nodes, then most visits, then highest raw score. Nodes without visit
// data fall back to raw score.
type MonteCarloTreeSearch struct {
	store               *store.Store
	scorer              *Scorer
	explorationConstant float64
	logger              *slog.Logger

	simulations int64
}

// NewMonteCarloTreeSearch creates an MCTS strategy over the given store.
func NewMonteCarloTreeSearch(st *store.Store, sc *Scorer, explorationConstant float64, logger *slog.Logger) *MonteCarloTreeSearch {
	if logger == nil {
		logger = slog.Default()
	}
	if explorationConstant <= 0 {
		explorationConstant = math.Sqrt2
	}
	return &MonteCarloTreeSearch{
		store:               st,
		scorer:              sc,
		explorationConstant: explorationConstant,
		logger:              logger,
	}
}

// Name implements Strategy.
func (m *MonteCarloTreeSearch) Name() Type {
	return TypeMCTS
}

// ProcessThought implements Strategy.
func (m *MonteCarloTreeSearch) ProcessThought(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n, _, err := createNode(m.store, m.scorer, req)
	if err != nil {
		return nil, err
	}

	// The new leaf counts as one rollout with reward equal to its score.
	n.Simulation = &store.SimulationStats{Visits: 1, TotalReward: n.Score}
	m.backpropagate(n)
	m.simulations++

	resp := baseResponse(n, TypeMCTS)
	resp.SimulationVisits = i64ptr(n.Simulation.Visits)
	resp.AverageReward = fptr(n.Simulation.AvgReward())
	if best := m.bestNode(); best != nil {
		resp.BestScore = fptr(best.Score)
	}

	m.logger.Debug("mcts processed thought",
		slog.String("node", n.ID),
		slog.Float64("reward", n.Score),
		slog.Int64("visits", n.Simulation.Visits))

	return resp, nil
}

// backpropagate folds the leaf's reward into every stored ancestor.
func (m *MonteCarloTreeSearch) backpropagate(leaf *store.Node) {
	path, err := m.store.Path(leaf.ID)
	if err != nil {
		// Leaf was just inserted; a failed walk means the chain was
		// corrupted elsewhere. Record nothing beyond the leaf itself.
		m.logger.Warn("backpropagation skipped", slog.String("error", err.Error()))
		return
	}
	for _, n := range path {
		if n.ID == leaf.ID {
			continue
		}
		if n.Simulation == nil {
			n.Simulation = &store.SimulationStats{}
		}
		n.Simulation.Visits++
		n.Simulation.TotalReward += leaf.Score
	}
}

// SelectChild picks the UCB1-best child of the given node. Exposed as a
// queryable helper: the request cycle itself never drives selection, the
// caller decides which branch to continue.
//
// Outputs:
//   - *store.Node: The selected child, nil if the node has no live children.
//   - error: store.ErrNotFound if the parent id is absent.
func (m *MonteCarloTreeSearch) SelectChild(parentID string) (*store.Node, error) {
	parent, err := m.store.Get(parentID)
	if err != nil {
		return nil, err
	}

	parentVisits := int64(1)
	if parent.Simulation != nil && parent.Simulation.Visits > 0 {
		parentVisits = parent.Simulation.Visits
	}

	var best *store.Node
	bestValue := math.Inf(-1)
	for _, id := range parent.Children {
		child, err := m.store.Get(id)
		if err != nil {
			continue // evicted
		}
		value := m.ucb1(child, parentVisits)
		if value > bestValue {
			best = child
			bestValue = value
		}
	}
	return best, nil
}

// ucb1 computes the UCB1 value of a child. Unvisited children score
// +Inf so each gets explored at least once.
func (m *MonteCarloTreeSearch) ucb1(child *store.Node, parentVisits int64) float64 {
	if child.Simulation == nil || child.Simulation.Visits == 0 {
		return math.Inf(1)
	}
	exploit := child.Simulation.AvgReward() / scoreMax
	explore := m.explorationConstant *
		math.Sqrt(math.Log(float64(parentVisits))/float64(child.Simulation.Visits))
	return exploit + explore
}

// bestNode applies the documented tie-break over complete nodes, falling
// back to the best raw score when nothing is complete.
func (m *MonteCarloTreeSearch) bestNode() *store.Node {
	var best *store.Node
	for _, n := range m.store.All() {
		if !n.IsComplete {
			continue
		}
		if best == nil || m.better(n, best) {
			best = n
		}
	}
	if best != nil {
		return best
	}
	for _, n := range m.store.All() {
		if best == nil || n.Score > best.Score {
			best = n
		}
	}
	return best
}

func (m *MonteCarloTreeSearch) better(a, b *store.Node) bool {
	ar, br := a.Simulation.AvgReward(), b.Simulation.AvgReward()
	if ar != br {
		return ar > br
	}
	av, bv := int64(0), int64(0)
	if a.Simulation != nil {
		av = a.Simulation.Visits
	}
	if b.Simulation != nil {
		bv = b.Simulation.Visits
	}
	if av != bv {
		return av > bv
	}
	return a.Score > b.Score
}

// BestPath implements Strategy.
func (m *MonteCarloTreeSearch) BestPath() ([]*store.Node, error) {
	best := m.bestNode()
	if best == nil {
		return nil, nil
	}
	return m.store.Path(best.ID)
}

// Metrics implements Strategy.
func (m *MonteCarloTreeSearch) Metrics() map[string]float64 {
	var totalVisits int64
	simulated := 0
	for _, n := range m.store.All() {
		if n.Simulation != nil {
			simulated++
			totalVisits += n.Simulation.Visits
		}
	}
	return map[string]float64{
		"simulations":         float64(m.simulations),
		"simulatedNodes":      float64(simulated),
		"totalVisits":         float64(totalVisits),
		"explorationConstant": m.explorationConstant,
	}
}

// Clear implements Strategy. Visit accounting lives on the nodes, so the
// only independent state is the rollout counter.
func (m *MonteCarloTreeSearch) Clear() {
	m.simulations = 0
}
