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
	"sort"

	"github.com/treelight/reasoner/services/reasoner/store"
)

// Predicate checks one candidate value against the full assignment
// snapshot. Predicates are registered programmatically; the wire payload
// only carries domains and assignments.
type Predicate func(value any, assignment map[string]any) bool

// ConstraintSatisfaction maintains a classic finite-domain CSP state
// alongside the shared store: variable domains, registered predicates and
// the current assignment, merged last-write-wins from each node's
// constraint payload.
type ConstraintSatisfaction struct {
	store  *store.Store
	scorer *Scorer
	logger *slog.Logger

	domains     map[string][]any
	predicates  map[string][]Predicate
	assignments map[string]any
}

// NewConstraintSatisfaction creates a CSP strategy over the given store.
func NewConstraintSatisfaction(st *store.Store, sc *Scorer, logger *slog.Logger) *ConstraintSatisfaction {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConstraintSatisfaction{
		store:       st,
		scorer:      sc,
		logger:      logger,
		domains:     make(map[string][]any),
		predicates:  make(map[string][]Predicate),
		assignments: make(map[string]any),
	}
}

// Name implements Strategy.
func (c *ConstraintSatisfaction) Name() Type {
	return TypeCSP
}

// RegisterConstraint attaches a predicate to a variable. Checking is
// conjunctive: every registered predicate must accept the assigned value.
func (c *ConstraintSatisfaction) RegisterConstraint(variable string, pred Predicate) {
	c.predicates[variable] = append(c.predicates[variable], pred)
}

// ProcessThought implements Strategy.
func (c *ConstraintSatisfaction) ProcessThought(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n, _, err := createNode(c.store, c.scorer, req)
	if err != nil {
		return nil, err
	}

	contributed := c.merge(req.Constraints)
	satisfied := c.Check()

	n.Constraints = contributed
	n.Constraints.Satisfied = satisfied

	resp := baseResponse(n, TypeCSP)
	resp.ConstraintsSatisfied = bptr(satisfied)
	resp.UnassignedVariables = c.UnassignedVariables()
	if best := c.bestNode(); best != nil {
		resp.BestScore = fptr(best.Score)
	}

	c.logger.Debug("csp processed thought",
		slog.String("node", n.ID),
		slog.Bool("satisfied", satisfied),
		slog.Int("unassigned", len(resp.UnassignedVariables)))

	return resp, nil
}

// merge folds the node's constraint payload into the strategy state.
// Later nodes overwrite earlier entries for the same variable: last write
// wins, no versioning.
func (c *ConstraintSatisfaction) merge(payload map[string]any) *store.ConstraintState {
	contributed := &store.ConstraintState{}
	if len(payload) == 0 {
		return contributed
	}

	if raw, ok := payload["domains"].(map[string]any); ok {
		contributed.Domains = make(map[string][]any, len(raw))
		for variable, values := range raw {
			domain := asSlice(values)
			c.domains[variable] = domain
			contributed.Domains[variable] = domain
		}
	}

	if raw, ok := payload["assignments"].(map[string]any); ok {
		contributed.Assignments = make(map[string]any, len(raw))
		for variable, value := range raw {
			c.assignments[variable] = value
			contributed.Assignments[variable] = value
		}
	}

	return contributed
}

// asSlice normalizes a payload domain into a candidate-value sequence.
func asSlice(v any) []any {
	switch vv := v.(type) {
	case []any:
		return vv
	case []string:
		out := make([]any, len(vv))
		for i, s := range vv {
			out[i] = s
		}
		return out
	case nil:
		return nil
	default:
		return []any{vv}
	}
}

// Check runs every registered predicate against the current assignment.
//
// Semantics are conjunctive with short-circuit on first failure: for each
// variable with at least one predicate, if that variable is assigned,
// every predicate must accept (value, snapshot). Unassigned variables and
// variables without predicates are skipped, so a state with no
// constraints is vacuously satisfied.
func (c *ConstraintSatisfaction) Check() bool {
	variables := make([]string, 0, len(c.predicates))
	for v := range c.predicates {
		variables = append(variables, v)
	}
	sort.Strings(variables)

	snapshot := c.assignmentSnapshot()
	for _, variable := range variables {
		value, assigned := c.assignments[variable]
		if !assigned {
			continue
		}
		for _, pred := range c.predicates[variable] {
			if !pred(value, snapshot) {
				return false
			}
		}
	}
	return true
}

func (c *ConstraintSatisfaction) assignmentSnapshot() map[string]any {
	snapshot := make(map[string]any, len(c.assignments))
	for k, v := range c.assignments {
		snapshot[k] = v
	}
	return snapshot
}

// UnassignedVariables returns every domain variable without a current
// assignment, sorted for stable output.
func (c *ConstraintSatisfaction) UnassignedVariables() []string {
	out := make([]string, 0, len(c.domains))
	for variable := range c.domains {
		if _, assigned := c.assignments[variable]; !assigned {
			out = append(out, variable)
		}
	}
	sort.Strings(out)
	return out
}

// NextVariable selects the unassigned variable with the smallest domain
// (minimum remaining values), ties broken lexicographically. Exposed as a
// queryable helper: the request cycle does not drive expansion itself.
//
// Outputs:
//   - string: The selected variable, empty when everything is assigned.
func (c *ConstraintSatisfaction) NextVariable() string {
	selected := ""
	selectedSize := -1
	for _, variable := range c.UnassignedVariables() {
		size := len(c.domains[variable])
		if selectedSize == -1 || size < selectedSize {
			selected = variable
			selectedSize = size
		}
	}
	return selected
}

// bestNode prefers the highest-scoring complete node whose constraints
// were satisfied at creation time. A satisfied flag is a necessary but
// not sufficient optimality signal, so the fallback is the
// highest-scoring complete node overall, then the best node of any kind.
func (c *ConstraintSatisfaction) bestNode() *store.Node {
	var satisfied, complete, any_ *store.Node
	for _, n := range c.store.All() {
		if any_ == nil || n.Score > any_.Score {
			any_ = n
		}
		if !n.IsComplete {
			continue
		}
		if complete == nil || n.Score > complete.Score {
			complete = n
		}
		if n.Constraints != nil && n.Constraints.Satisfied {
			if satisfied == nil || n.Score > satisfied.Score {
				satisfied = n
			}
		}
	}
	if satisfied != nil {
		return satisfied
	}
	if complete != nil {
		return complete
	}
	return any_
}

// BestPath implements Strategy.
func (c *ConstraintSatisfaction) BestPath() ([]*store.Node, error) {
	best := c.bestNode()
	if best == nil {
		return nil, nil
	}
	return c.store.Path(best.ID)
}

// Metrics implements Strategy.
func (c *ConstraintSatisfaction) Metrics() map[string]float64 {
	predicates := 0
	for _, ps := range c.predicates {
		predicates += len(ps)
	}
	return map[string]float64{
		"domains":     float64(len(c.domains)),
		"assignments": float64(len(c.assignments)),
		"predicates":  float64(predicates),
		"unassigned":  float64(len(c.UnassignedVariables())),
	}
}

// Clear implements Strategy.
func (c *ConstraintSatisfaction) Clear() {
	c.domains = make(map[string][]any)
	c.predicates = make(map[string][]Predicate)
	c.assignments = make(map[string]any)
}
