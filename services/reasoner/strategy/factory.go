// Copyright (C) 2026 Treelight Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package strategy

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/treelight/reasoner/services/reasoner/store"
)

// Params carries the process-wide strategy tunables. Fixed at process
// start, never reloaded at runtime.
type Params struct {
	BeamWidth           int
	MaxDepth            int
	MinViableScore      float64
	Temperature         float64
	ExplorationConstant float64
	Thresholds          Thresholds
}

// DefaultParams returns the policy defaults.
func DefaultParams() Params {
	return Params{
		BeamWidth:           3,
		MaxDepth:            10,
		MinViableScore:      3.0,
		Temperature:         1.0,
		ExplorationConstant: math.Sqrt2,
		Thresholds:          DefaultThresholds(),
	}
}

// Factory builds fresh strategy instances bound to a given store.
type Factory struct {
	params Params
	logger *slog.Logger
}

// NewFactory creates a factory with the given tunables.
func NewFactory(params Params, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{params: params, logger: logger}
}

func (f *Factory) scorer() *Scorer {
	sc := DefaultScorer()
	sc.MaxDepth = f.params.MaxDepth
	sc.Temperature = f.params.Temperature
	return sc
}

// New builds one strategy of the given type over the store.
//
// Outputs:
//   - Strategy: A fresh instance with an empty auxiliary index.
//   - error: ErrUnknownStrategy for unregistered identifiers.
func (f *Factory) New(t Type, st *store.Store) (Strategy, error) {
	switch t {
	case TypeBeamSearch:
		return NewBeamSearch(st, f.scorer(), f.params.BeamWidth, f.params.MinViableScore, f.logger), nil
	case TypeMCTS:
		return NewMonteCarloTreeSearch(st, f.scorer(), f.params.ExplorationConstant, f.logger), nil
	case TypeAStar:
		return NewAStar(st, f.scorer(), f.logger), nil
	case TypeCSP:
		return NewConstraintSatisfaction(st, f.scorer(), f.logger), nil
	case TypeHybrid:
		return NewHybrid(st, f.baseSet(st), f.params.Thresholds, f.logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, t)
	}
}

// baseSet builds the four non-hybrid strategies over a shared store.
func (f *Factory) baseSet(st *store.Store) map[Type]Strategy {
	return map[Type]Strategy{
		TypeBeamSearch: NewBeamSearch(st, f.scorer(), f.params.BeamWidth, f.params.MinViableScore, f.logger),
		TypeMCTS:       NewMonteCarloTreeSearch(st, f.scorer(), f.params.ExplorationConstant, f.logger),
		TypeAStar:      NewAStar(st, f.scorer(), f.logger),
		TypeCSP:        NewConstraintSatisfaction(st, f.scorer(), f.logger),
	}
}

// NewSet builds the full strategy set over one shared store. The hybrid
// instance delegates to the same base instances the set exposes directly,
// so auxiliary indices stay consistent when the session switches between
// hybrid routing and an explicitly selected strategy.
func (f *Factory) NewSet(st *store.Store) map[Type]Strategy {
	base := f.baseSet(st)
	set := make(map[Type]Strategy, len(Types()))
	for t, s := range base {
		set[t] = s
	}
	set[TypeHybrid] = NewHybrid(st, base, f.params.Thresholds, f.logger)
	return set
}
