// Copyright (C) 2026 Treelight Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package category holds the per-problem-type default bundles the
// dispatcher merges into incoming requests. The taxonomy covers the
// game-design application area; everything unknown falls back to the
// mechanics bundle.
package category

import (
	"sort"
	"strings"

	"github.com/treelight/reasoner/services/reasoner/strategy"
)

// Fallback is the bundle used when a problem type is unknown.
const Fallback = "mechanics"

// Bundle is one category's preset: the strategy that historically works
// for that problem shape, sizing defaults, the evaluation metrics a
// caller is expected to score against, a worked example, and next-step
// recommendations surfaced verbatim in responses.
//
// Thread Safety: bundles are immutable after library construction.
type Bundle struct {
	Name              string        `json:"name" yaml:"name"`
	Strategy          strategy.Type `json:"strategy" yaml:"strategy"`
	BranchingFactor   int           `json:"branchingFactor" yaml:"branching_factor"`
	ExplorationDepth  int           `json:"explorationDepth" yaml:"exploration_depth"`
	EvaluationMetrics []string      `json:"evaluationMetrics" yaml:"evaluation_metrics"`
	WorkedExample     []string      `json:"workedExample,omitempty" yaml:"worked_example"`
	NextSteps         []string      `json:"nextSteps,omitempty" yaml:"next_steps"`
}

// Override adjusts one bundle's tunables from configuration. Zero values
// leave the built-in default in place.
type Override struct {
	Strategy          strategy.Type `json:"strategy" yaml:"strategy"`
	BranchingFactor   int           `json:"branchingFactor" yaml:"branching_factor"`
	ExplorationDepth  int           `json:"explorationDepth" yaml:"exploration_depth"`
	EvaluationMetrics []string      `json:"evaluationMetrics" yaml:"evaluation_metrics"`
}

// Library resolves problem types to bundles.
type Library struct {
	bundles map[string]Bundle
}

// NewLibrary builds the built-in taxonomy with optional per-category
// configuration overrides applied on top.
func NewLibrary(overrides map[string]Override) *Library {
	lib := &Library{bundles: defaultBundles()}
	for name, o := range overrides {
		key := normalize(name)
		b, ok := lib.bundles[key]
		if !ok {
			continue
		}
		if o.Strategy != "" {
			b.Strategy = o.Strategy
		}
		if o.BranchingFactor > 0 {
			b.BranchingFactor = o.BranchingFactor
		}
		if o.ExplorationDepth > 0 {
			b.ExplorationDepth = o.ExplorationDepth
		}
		if len(o.EvaluationMetrics) > 0 {
			b.EvaluationMetrics = o.EvaluationMetrics
		}
		lib.bundles[key] = b
	}
	return lib
}

// Lookup resolves a problem type to its bundle. Unknown or empty types
// resolve to the mechanics bundle; the boolean reports whether the match
// was exact.
func (l *Library) Lookup(problemType string) (Bundle, bool) {
	if b, ok := l.bundles[normalize(problemType)]; ok {
		return b, true
	}
	return l.bundles[Fallback], false
}

// Names lists every known category, sorted.
func (l *Library) Names() []string {
	out := make([]string, 0, len(l.bundles))
	for name := range l.bundles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Alignment reports how well the request's evaluations cover the
// bundle's expected metrics: one presence entry per expected metric and
// a "coverage" aggregate in [0,1]. A bundle with no expected metrics is
// fully covered.
func (b Bundle) Alignment(evaluations map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(b.EvaluationMetrics)+1)
	if len(b.EvaluationMetrics) == 0 {
		out["coverage"] = 1
		return out
	}

	covered := 0
	for _, metric := range b.EvaluationMetrics {
		if _, ok := evaluations[metric]; ok {
			out[metric] = 1
			covered++
		} else {
			out[metric] = 0
		}
	}
	out["coverage"] = float64(covered) / float64(len(b.EvaluationMetrics))
	return out
}

// normalize folds the wire spellings of a category name ("Level Design",
// "level-design") onto the canonical snake_case key.
func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "-", "_")
	return strings.ReplaceAll(name, " ", "_")
}

func defaultBundles() map[string]Bundle {
	return map[string]Bundle{
		"mechanics": {
			Name:              "mechanics",
			Strategy:          strategy.TypeBeamSearch,
			BranchingFactor:   3,
			ExplorationDepth:  5,
			EvaluationMetrics: []string{"fun_factor", "clarity", "depth"},
			WorkedExample: []string{
				"Name the core verb the player repeats",
				"List three variations of the verb under pressure",
				"Prototype the cheapest variation on paper",
			},
			NextSteps: []string{
				"Isolate the core loop and describe it in one sentence",
				"Enumerate failure states the mechanic can produce",
			},
		},
		"balance": {
			Name:              "balance",
			Strategy:          strategy.TypeCSP,
			BranchingFactor:   2,
			ExplorationDepth:  6,
			EvaluationMetrics: []string{"fairness", "counterplay", "win_rate_spread"},
			WorkedExample: []string{
				"Fix the dominant option's cost as a constraint",
				"Sweep the under-picked options against it",
				"Check win-rate spread stays inside the tolerance band",
			},
			NextSteps: []string{
				"Express each tuning knob as a variable with an explicit domain",
				"State the matchup outcomes that must not change",
			},
		},
		"narrative": {
			Name:              "narrative",
			Strategy:          strategy.TypeBeamSearch,
			BranchingFactor:   4,
			ExplorationDepth:  7,
			EvaluationMetrics: []string{"coherence", "emotional_impact", "pacing"},
			WorkedExample: []string{
				"State the protagonist's want and need",
				"Branch the midpoint on the want/need conflict",
				"Keep the two most coherent branches alive",
			},
			NextSteps: []string{
				"Write the one-line premise each branch must preserve",
				"Mark the beats where player agency can diverge the plot",
			},
		},
		"progression": {
			Name:              "progression",
			Strategy:          strategy.TypeAStar,
			BranchingFactor:   3,
			ExplorationDepth:  8,
			EvaluationMetrics: []string{"pacing", "retention", "mastery_curve"},
			WorkedExample: []string{
				"Define the end-state power level as the goal",
				"Cost each unlock by expected sessions to reach it",
				"Expand the cheapest path that still gates mastery",
			},
			NextSteps: []string{
				"Fix the target session count for the full curve",
				"Identify dead zones where no unlock is within reach",
			},
		},
		"economy": {
			Name:              "economy",
			Strategy:          strategy.TypeCSP,
			BranchingFactor:   2,
			ExplorationDepth:  6,
			EvaluationMetrics: []string{"inflation_rate", "sink_source_ratio", "scarcity"},
			WorkedExample: []string{
				"List every faucet and every sink with its rate",
				"Constrain net currency flow to near zero at the cap",
				"Assign prices and re-check the flow constraint",
			},
			NextSteps: []string{
				"Write the sink/source balance as an explicit constraint",
				"Stress the model at the hoarder and spender extremes",
			},
		},
		"level_design": {
			Name:              "level_design",
			Strategy:          strategy.TypeAStar,
			BranchingFactor:   3,
			ExplorationDepth:  6,
			EvaluationMetrics: []string{"flow", "readability", "challenge_curve"},
			WorkedExample: []string{
				"Fix the critical path length as the goal distance",
				"Score each room layout for readability",
				"Expand layouts along the best flow estimate",
			},
			NextSteps: []string{
				"Sketch the intended golden path before any side content",
				"Place one landmark visible from each decision point",
			},
		},
		"player_psychology": {
			Name:              "player_psychology",
			Strategy:          strategy.TypeMCTS,
			BranchingFactor:   4,
			ExplorationDepth:  7,
			EvaluationMetrics: []string{"motivation", "frustration", "flow_state"},
			WorkedExample: []string{
				"Hypothesize the player motivation being served",
				"Sample play sequences that stress the hypothesis",
				"Back off designs whose sampled frustration spikes",
			},
			NextSteps: []string{
				"Separate extrinsic reward loops from intrinsic ones",
				"Sample worst-case frustration paths, not just the happy path",
			},
		},
		"systems_integration": {
			Name:              "systems_integration",
			Strategy:          strategy.TypeHybrid,
			BranchingFactor:   3,
			ExplorationDepth:  8,
			EvaluationMetrics: []string{"coupling", "emergence", "stability"},
			WorkedExample: []string{
				"Map every pairwise interaction between systems",
				"Constrain the interactions that must stay inert",
				"Explore emergent combinations under those constraints",
			},
			NextSteps: []string{
				"List the cross-system feedback loops and their signs",
				"Decide which emergent behaviors are features versus bugs",
			},
		},
	}
}
