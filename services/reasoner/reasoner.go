// Copyright (C) 2026 Treelight Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package reasoner dispatches reasoning requests to search strategies
// over one shared thought store and exposes the HTTP boundary.
package reasoner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/treelight/reasoner/services/reasoner/category"
	"github.com/treelight/reasoner/services/reasoner/config"
	"github.com/treelight/reasoner/services/reasoner/store"
	"github.com/treelight/reasoner/services/reasoner/strategy"
)

// Reasoner owns one session's thought store, its strategy set, the
// mutable current strategy, and the category library.
//
// Description:
//
//	Each request is routed per the dispatch policy: a problem-category
//	tag merges category defaults into the unset request fields before
//	delegation; otherwise an explicit strategy switch is honored first
//	and the current strategy runs. Internal failures never escape:
//	ProcessThought always returns a well-formed response, shaping
//	errors into an empty node id plus an error flag and message.
//
// Thread Safety: Safe for concurrent use. All state mutation is
// serialized on one mutex, because auxiliary indices are
// read-modify-write across a whole call.
type Reasoner struct {
	mu sync.Mutex

	store      *store.Store
	strategies map[strategy.Type]strategy.Strategy
	current    strategy.Type
	categories *category.Library
	logger     *slog.Logger

	evictionsSeen int64
}

// New creates a Reasoner from the service configuration.
func New(cfg config.Config, logger *slog.Logger) *Reasoner {
	if logger == nil {
		logger = slog.Default()
	}

	st := store.New(cfg.Search.StoreCapacity)
	factory := strategy.NewFactory(cfg.Params(), logger)

	current, err := strategy.ParseType(cfg.Search.DefaultStrategy)
	if err != nil {
		current = strategy.TypeHybrid
	}

	return &Reasoner{
		store:      st,
		strategies: factory.NewSet(st),
		current:    current,
		categories: category.NewLibrary(cfg.Categories),
		logger:     logger,
	}
}

// ProcessThought routes one reasoning step and returns its response.
//
// Inputs:
//   - ctx: Carries the request span and cancellation.
//   - req: The reasoning step. Mutated in place when category defaults
//     fill unset fields.
//
// Outputs:
//   - *strategy.Response: Never nil. On internal failure the response
//     carries an empty node id, isComplete=false, the error flag and a
//     human-readable message.
func (r *Reasoner) ProcessThought(ctx context.Context, req *strategy.Request) *strategy.Response {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	ctx, span := tracer.Start(ctx, "reasoner.ProcessThought")
	defer span.End()

	target, bundle := r.resolve(req)
	delegate, ok := r.strategies[target]
	if !ok {
		// The set always contains every parseable type; an unknown
		// target means the resolver regressed.
		delegate = r.strategies[r.current]
		target = r.current
	}

	resp, err := delegate.ProcessThought(ctx, req)
	if err != nil {
		r.logger.Warn("thought processing failed",
			slog.String("strategy", target.String()),
			slog.String("error", err.Error()))
		recordThought(ctx, target.String(), start, true)
		return errorResponse(req, target, err)
	}

	if bundle != nil {
		resp.RecommendedNextSteps = bundle.NextSteps
		resp.CategoryAlignment = bundle.Alignment(req.Evaluations)
	}

	span.SetAttributes(
		attribute.String("reasoner.strategy", target.String()),
		attribute.Float64("reasoner.score", resp.Score),
		attribute.Int("reasoner.depth", resp.Depth),
	)

	recordThought(ctx, target.String(), start, false)
	if evictions := r.store.Evictions(); evictions > r.evictionsSeen {
		recordEvictions(ctx, evictions-r.evictionsSeen)
		r.evictionsSeen = evictions
	}

	r.logger.Debug("thought processed",
		slog.String("node", resp.NodeID),
		slog.String("strategy", target.String()),
		slog.Float64("score", resp.Score),
		slog.Int("depth", resp.Depth))

	return resp
}

// resolve applies the dispatch policy and returns the delegation target
// plus the category bundle when the request carried a problem type.
//
// A problem-category tag fills category defaults into the unset request
// fields and delegates to the bundle's strategy without moving the
// session default. An explicit strategy switch without a category moves
// the session default; unknown identifiers are silently ignored and the
// current strategy retained.
func (r *Reasoner) resolve(req *strategy.Request) (strategy.Type, *category.Bundle) {
	if req.ProblemType != "" {
		b, exact := r.categories.Lookup(req.ProblemType)
		if !exact {
			r.logger.Debug("unknown problem type, using fallback bundle",
				slog.String("problem_type", req.ProblemType))
		}
		if req.StrategyType == "" {
			req.StrategyType = b.Strategy
		}
		if req.BranchingFactor == 0 {
			req.BranchingFactor = b.BranchingFactor
		}
		if len(req.EvaluationMetrics) == 0 {
			req.EvaluationMetrics = b.EvaluationMetrics
		}
		if req.TotalThoughts == 0 {
			req.TotalThoughts = b.ExplorationDepth
		}

		target := req.StrategyType
		if _, ok := r.strategies[target]; !ok {
			target = r.current
		}
		return target, &b
	}

	if req.StrategyType != "" {
		if _, ok := r.strategies[req.StrategyType]; ok && req.StrategyType != r.current {
			recordStrategySwitch(context.Background(), r.current.String(), req.StrategyType.String())
			r.logger.Info("strategy switch",
				slog.String("from", r.current.String()),
				slog.String("to", req.StrategyType.String()))
			r.current = req.StrategyType
		}
	}
	return r.current, nil
}

// errorResponse shapes an internal failure into the wire contract.
func errorResponse(req *strategy.Request, target strategy.Type, err error) *strategy.Response {
	depth := 0
	if req != nil && req.ThoughtNumber >= 1 {
		depth = req.Depth()
	}
	resp := &strategy.Response{
		Depth:        depth,
		IsComplete:   false,
		StrategyUsed: target,
		Error:        true,
		Message:      err.Error(),
	}
	if req != nil {
		resp.Thought = req.Thought
		resp.NextThoughtNeeded = req.NextThoughtNeeded
	}
	return resp
}

// SetStrategy changes the session's current strategy.
//
// Outputs:
//   - error: strategy.ErrUnknownStrategy for unregistered identifiers.
func (r *Reasoner) SetStrategy(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := strategy.ParseType(name)
	if err != nil {
		return err
	}
	if t != r.current {
		recordStrategySwitch(context.Background(), r.current.String(), t.String())
		r.current = t
	}
	return nil
}

// Current returns the session's current strategy.
func (r *Reasoner) Current() strategy.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// AvailableStrategies lists every registered strategy identifier.
func (r *Reasoner) AvailableStrategies() []strategy.Type {
	return strategy.Types()
}

// BestPath returns the current strategy's best root-to-node path.
func (r *Reasoner) BestPath() ([]*store.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.strategies[r.current].BestPath()
}

// PathTo reconstructs the root-to-node path for one node id.
func (r *Reasoner) PathTo(id string) ([]*store.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Path(id)
}

// Tree renders the whole store as an ASCII tree for debugging.
func (r *Reasoner) Tree() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.store.Len() == 0 {
		return "", ErrEmptyTree
	}
	return r.store.Format(), nil
}

// Clear resets the store and every strategy's auxiliary index. The
// strategy set and the current strategy survive.
func (r *Reasoner) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store.Clear()
	for _, s := range r.strategies {
		s.Clear()
	}
	r.evictionsSeen = 0
	r.logger.Info("session cleared", slog.String("strategy", r.current.String()))
}
