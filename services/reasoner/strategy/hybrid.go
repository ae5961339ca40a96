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
	"regexp"

	"github.com/treelight/reasoner/services/reasoner/store"
)

// Goal-clarity policy weights. These are policy constants, not derived
// values: they mirror the original arbiter and carry no principled
// justification.
const (
	goalClarityBaseline    = 0.3 // always present
	goalClarityEvaluations = 0.4 // evaluation metrics were supplied
	goalClarityStepBudget  = 0.3 // a total-step budget was supplied
)

// uncertaintyScale normalizes score variance into [0,1]. Scores span
// 0-10, so variance tops out at 25 for a two-point extreme split.
const uncertaintyScale = 25.0

// uncertaintyWindow is the number of recent nodes the variance looks at.
const uncertaintyWindow = 10

// uncertaintyDefault applies when fewer than two nodes exist.
const uncertaintyDefault = 0.5

// obligationPattern matches thought-text terms implying obligations.
var obligationPattern = regexp.MustCompile(`(?i)\b(must|should|required|necessary|constraint)\b`)

// Thresholds are the named tunables of the hybrid switch policy.
type Thresholds struct {
	ConstraintDensity float64 `json:"constraint_density" yaml:"constraint_density"`
	GoalClarity       float64 `json:"goal_clarity" yaml:"goal_clarity"`
	Uncertainty       float64 `json:"uncertainty" yaml:"uncertainty"`
}

// DefaultThresholds returns the policy defaults for strategy switching.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ConstraintDensity: 5,
		GoalClarity:       0.7,
		Uncertainty:       0.3,
	}
}

// Signals are the three raw figures driving the switch decision.
type Signals struct {
	Uncertainty       float64 `json:"uncertainty"`
	GoalClarity       float64 `json:"goalClarity"`
	ConstraintDensity float64 `json:"constraintDensity"`
}

// Hybrid arbitrates among the other four strategies, recomputing the
// switch signals from the shared store and the incoming request before
// every delegation. An explicit strategy request from the caller always
// overrides the computed choice, applied after the automatic switch.
type Hybrid struct {
	store      *store.Store
	thresholds Thresholds
	logger     *slog.Logger

	delegates map[Type]Strategy
	active    Type

	switches int64
}

// NewHybrid creates a hybrid arbiter owning one live instance of each of
// the four base strategies, all bound to the same store.
func NewHybrid(st *store.Store, delegates map[Type]Strategy, thresholds Thresholds, logger *slog.Logger) *Hybrid {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hybrid{
		store:      st,
		thresholds: thresholds,
		logger:     logger,
		delegates:  delegates,
		active:     TypeBeamSearch,
	}
}

// Name implements Strategy.
func (h *Hybrid) Name() Type {
	return TypeHybrid
}

// Active returns the currently delegated-to strategy.
func (h *Hybrid) Active() Type {
	return h.active
}

// ComputeSignals derives the three switch signals for a request.
func (h *Hybrid) ComputeSignals(req *Request) Signals {
	return Signals{
		Uncertainty:       h.uncertainty(),
		GoalClarity:       goalClarity(req),
		ConstraintDensity: constraintDensity(req),
	}
}

// uncertainty is the normalized variance of scores over the most recent
// window of nodes, clamped to [0,1]. Defined as 0.5 below two nodes.
func (h *Hybrid) uncertainty() float64 {
	recent := h.store.Recent(uncertaintyWindow)
	if len(recent) < 2 {
		return uncertaintyDefault
	}

	var sum float64
	for _, n := range recent {
		sum += n.Score
	}
	mean := sum / float64(len(recent))

	var variance float64
	for _, n := range recent {
		d := n.Score - mean
		variance += d * d
	}
	variance /= float64(len(recent))

	u := variance / uncertaintyScale
	if u > 1 {
		u = 1
	}
	return u
}

// goalClarity is a weighted indicator of how well-specified the request's
// objective is.
func goalClarity(req *Request) float64 {
	clarity := goalClarityBaseline
	if len(req.Evaluations) > 0 || len(req.EvaluationMetrics) > 0 {
		clarity += goalClarityEvaluations
	}
	if req.TotalThoughts > 0 {
		clarity += goalClarityStepBudget
	}
	return clarity
}

// constraintDensity counts explicit constraint keys plus obligation terms
// in the thought text.
func constraintDensity(req *Request) float64 {
	density := float64(len(req.Constraints))
	density += float64(len(obligationPattern.FindAllStringIndex(req.Thought, -1)))
	return density
}

// Route applies the switch policy in fixed priority order; the first
// matching rule wins.
func (h *Hybrid) Route(sig Signals) Type {
	switch {
	case sig.ConstraintDensity >= h.thresholds.ConstraintDensity:
		return TypeCSP
	case sig.GoalClarity >= h.thresholds.GoalClarity:
		return TypeAStar
	case sig.Uncertainty >= h.thresholds.Uncertainty:
		return TypeMCTS
	default:
		return TypeBeamSearch
	}
}

// ProcessThought implements Strategy.
func (h *Hybrid) ProcessThought(ctx context.Context, req *Request) (*Response, error) {
	sig := h.ComputeSignals(req)
	next := h.Route(sig)

	// The caller's explicit choice lands after the automatic switch.
	if req.StrategyType != "" && req.StrategyType != TypeHybrid {
		if _, ok := h.delegates[req.StrategyType]; ok {
			next = req.StrategyType
		}
	}

	if next != h.active {
		h.logger.Info("hybrid strategy switch",
			slog.String("from", h.active.String()),
			slog.String("to", next.String()),
			slog.Float64("uncertainty", sig.Uncertainty),
			slog.Float64("goal_clarity", sig.GoalClarity),
			slog.Float64("constraint_density", sig.ConstraintDensity))
		h.switches++
	}
	h.active = next

	resp, err := h.delegates[next].ProcessThought(ctx, req)
	if err != nil {
		return nil, err
	}

	resp.StrategyUsed = TypeHybrid
	resp.ActiveStrategy = next
	resp.AvailableStrategies = h.availableStrategies()
	resp.Uncertainty = fptr(sig.Uncertainty)
	resp.GoalClarity = fptr(sig.GoalClarity)
	resp.ConstraintDensity = fptr(sig.ConstraintDensity)
	return resp, nil
}

func (h *Hybrid) availableStrategies() []Type {
	out := make([]Type, 0, len(h.delegates))
	for _, t := range Types() {
		if _, ok := h.delegates[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

// BestPath implements Strategy, delegating to the active strategy's
// selection rule.
func (h *Hybrid) BestPath() ([]*store.Node, error) {
	return h.delegates[h.active].BestPath()
}

// Metrics implements Strategy.
func (h *Hybrid) Metrics() map[string]float64 {
	return map[string]float64{
		"switches":                   float64(h.switches),
		"constraintDensityThreshold": h.thresholds.ConstraintDensity,
		"goalClarityThreshold":       h.thresholds.GoalClarity,
		"uncertaintyThreshold":       h.thresholds.Uncertainty,
	}
}

// Clear implements Strategy, resetting every delegate's auxiliary index
// along with the arbiter's own state.
func (h *Hybrid) Clear() {
	for _, d := range h.delegates {
		d.Clear()
	}
	h.active = TypeBeamSearch
	h.switches = 0
}
