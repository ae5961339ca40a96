// Copyright (C) 2026 Treelight Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package strategy

import (
	"context"
	"errors"
	"fmt"

	"github.com/treelight/reasoner/services/reasoner/store"
)

// Sentinel errors for the strategy layer.
var (
	// ErrUnknownStrategy indicates an unregistered strategy identifier.
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrInvalidRequest indicates a request missing a required field.
	ErrInvalidRequest = errors.New("invalid request")
)

// Type identifies a search strategy.
type Type string

const (
	TypeBeamSearch Type = "beam_search"
	TypeMCTS       Type = "mcts"
	TypeAStar      Type = "a_star"
	TypeCSP        Type = "csp"
	TypeHybrid     Type = "hybrid"
)

// String returns the wire identifier of the strategy type.
func (t Type) String() string {
	return string(t)
}

// Types returns every registered strategy identifier in a stable order.
func Types() []Type {
	return []Type{TypeBeamSearch, TypeMCTS, TypeAStar, TypeCSP, TypeHybrid}
}

// ParseType resolves a wire identifier to a strategy type.
//
// Outputs:
//   - Type: The resolved type.
//   - error: ErrUnknownStrategy for unregistered identifiers.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeBeamSearch, TypeMCTS, TypeAStar, TypeCSP, TypeHybrid:
		return Type(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// Request is one incoming reasoning step.
//
// Thought content is opaque: strategies score and link it but never
// interpret it beyond the hybrid arbiter's keyword scan.
type Request struct {
	Thought           string             `json:"thought"`
	ThoughtNumber     int                `json:"thoughtNumber"`
	TotalThoughts     int                `json:"totalThoughts"`
	NextThoughtNeeded bool               `json:"nextThoughtNeeded"`
	ParentID          string             `json:"parentId,omitempty"`
	StrategyType      Type               `json:"strategyType,omitempty"`
	BranchingFactor   int                `json:"branchingFactor,omitempty"`
	Evaluations       map[string]float64 `json:"evaluations,omitempty"`
	EvaluationMetrics []string           `json:"evaluationMetrics,omitempty"`
	Constraints       map[string]any     `json:"constraints,omitempty"`
	ProblemType       string             `json:"problemType,omitempty"`
}

// Validate checks the required fields of the request contract.
func (r *Request) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	if r.Thought == "" {
		return fmt.Errorf("%w: thought is required", ErrInvalidRequest)
	}
	if r.ThoughtNumber < 1 {
		return fmt.Errorf("%w: thoughtNumber must be >= 1", ErrInvalidRequest)
	}
	if r.TotalThoughts < 1 {
		return fmt.Errorf("%w: totalThoughts must be >= 1", ErrInvalidRequest)
	}
	return nil
}

// Depth returns the zero-based tree depth for this step.
func (r *Request) Depth() int {
	return r.ThoughtNumber - 1
}

// Response is the outcome of processing one reasoning step.
//
// Strategy-specific fields are pointers so only the fields belonging to
// the strategy that ran are serialized.
type Response struct {
	NodeID            string  `json:"nodeId"`
	Thought           string  `json:"thought"`
	Score             float64 `json:"score"`
	Depth             int     `json:"depth"`
	IsComplete        bool    `json:"isComplete"`
	NextThoughtNeeded bool    `json:"nextThoughtNeeded"`
	StrategyUsed      Type    `json:"strategyUsed,omitempty"`

	// Beam search
	BestScore     *float64 `json:"bestScore,omitempty"`
	PossiblePaths *int     `json:"possiblePaths,omitempty"`

	// MCTS
	SimulationVisits *int64   `json:"simulationVisits,omitempty"`
	AverageReward    *float64 `json:"averageReward,omitempty"`

	// A*
	OpenSetSize             *int     `json:"openSetSize,omitempty"`
	ClosedSetSize           *int     `json:"closedSetSize,omitempty"`
	EstimatedDistanceToGoal *float64 `json:"estimatedDistanceToGoal,omitempty"`
	TotalCost               *float64 `json:"totalCost,omitempty"`

	// CSP
	ConstraintsSatisfied *bool    `json:"constraintsSatisfied,omitempty"`
	UnassignedVariables  []string `json:"unassignedVariables,omitempty"`

	// Hybrid
	ActiveStrategy      Type     `json:"activeStrategy,omitempty"`
	AvailableStrategies []Type   `json:"availableStrategies,omitempty"`
	Uncertainty         *float64 `json:"uncertainty,omitempty"`
	GoalClarity         *float64 `json:"goalClarity,omitempty"`
	ConstraintDensity   *float64 `json:"constraintDensity,omitempty"`

	// Category enrichment (set by the dispatcher, not by strategies)
	RecommendedNextSteps []string           `json:"recommendedNextSteps,omitempty"`
	CategoryAlignment    map[string]float64 `json:"categoryAlignment,omitempty"`

	// Boundary error shaping
	Error   bool   `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Strategy is the capability contract shared by all five search variants.
//
// Implementations own an auxiliary index alongside the shared store
// (open/closed sets, domains and assignments, simulation statistics) and
// must clear it together with the store.
type Strategy interface {
	// Name returns the wire identifier of this strategy.
	Name() Type

	// ProcessThought creates, scores and links one node, updates the
	// strategy's auxiliary index, and returns algorithm-specific progress.
	ProcessThought(ctx context.Context, req *Request) (*Response, error)

	// BestPath returns the root-to-node path to the currently-best node
	// under this strategy's selection rule. Empty when the store is empty.
	BestPath() ([]*store.Node, error)

	// Metrics reports the strategy's auxiliary-index sizes and derived
	// figures for stats aggregation.
	Metrics() map[string]float64

	// Clear resets the auxiliary index. The shared store is cleared by
	// its owner.
	Clear()
}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func i64ptr(v int64) *int64   { return &v }
func bptr(v bool) *bool       { return &v }
