// Copyright (C) 2026 Treelight Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package reasoner

import (
	"github.com/treelight/reasoner/services/reasoner/strategy"
)

// Stats aggregates store-wide figures plus per-strategy metrics.
type Stats struct {
	TotalNodes          int     `json:"totalNodes"`
	MeanScore           float64 `json:"meanScore"`
	MaxDepth            int     `json:"maxDepth"`
	MeanBranchingFactor float64 `json:"meanBranchingFactor"`
	CompleteNodes       int     `json:"completeNodes"`
	Evictions           int64   `json:"evictions"`
	Capacity            int     `json:"capacity"`

	CurrentStrategy strategy.Type            `json:"currentStrategy"`
	Strategies      map[string]StrategyStats `json:"strategies"`
}

// StrategyStats is one strategy's auxiliary-index report.
type StrategyStats struct {
	Active  bool               `json:"active"`
	Metrics map[string]float64 `json:"metrics"`
}

// Stats computes the session aggregates.
//
// Description:
//
//	A pure read: calling Stats twice with no intervening ProcessThought
//	or Clear returns identical aggregates. Mean branching factor counts
//	children only on nodes that have any, so leaves do not drag the
//	figure to zero.
func (r *Reasoner) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Stats{
		TotalNodes:      r.store.Len(),
		Evictions:       r.store.Evictions(),
		Capacity:        r.store.Capacity(),
		CurrentStrategy: r.current,
		Strategies:      make(map[string]StrategyStats, len(r.strategies)),
	}

	var scoreSum float64
	var parents, childLinks int
	for _, n := range r.store.All() {
		scoreSum += n.Score
		if n.Depth > out.MaxDepth {
			out.MaxDepth = n.Depth
		}
		if n.IsComplete {
			out.CompleteNodes++
		}
		if len(n.Children) > 0 {
			parents++
			childLinks += len(n.Children)
		}
	}
	if out.TotalNodes > 0 {
		out.MeanScore = scoreSum / float64(out.TotalNodes)
	}
	if parents > 0 {
		out.MeanBranchingFactor = float64(childLinks) / float64(parents)
	}

	for t, s := range r.strategies {
		out.Strategies[t.String()] = StrategyStats{
			Active:  t == r.current,
			Metrics: s.Metrics(),
		}
	}

	return out
}
