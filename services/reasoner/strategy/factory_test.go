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
	"testing"

	"github.com/treelight/reasoner/services/reasoner/store"
)

func TestFactory_NewBuildsEachType(t *testing.T) {
	f := NewFactory(DefaultParams(), nil)
	st := store.New(10)

	for _, typ := range Types() {
		s, err := f.New(typ, st)
		if err != nil {
			t.Fatalf("New(%v) error = %v", typ, err)
		}
		if s.Name() != typ {
			t.Errorf("New(%v).Name() = %v", typ, s.Name())
		}
	}
}

func TestFactory_UnknownType(t *testing.T) {
	f := NewFactory(DefaultParams(), nil)

	_, err := f.New(Type("simulated_annealing"), store.New(10))
	if !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("New(unknown) error = %v, want ErrUnknownStrategy", err)
	}
}

func TestFactory_ParamsReachStrategies(t *testing.T) {
	params := DefaultParams()
	params.BeamWidth = 7
	params.ExplorationConstant = 2.5
	f := NewFactory(params, nil)
	st := store.New(10)

	beam, err := f.New(TypeBeamSearch, st)
	if err != nil {
		t.Fatalf("New(beam) error = %v", err)
	}
	if got := beam.Metrics()["beamWidth"]; got != 7 {
		t.Errorf("beamWidth = %v, want 7", got)
	}

	mcts, err := f.New(TypeMCTS, st)
	if err != nil {
		t.Fatalf("New(mcts) error = %v", err)
	}
	if got := mcts.Metrics()["explorationConstant"]; got != 2.5 {
		t.Errorf("explorationConstant = %v, want 2.5", got)
	}
}

func TestFactory_NewSetSharesDelegates(t *testing.T) {
	f := NewFactory(DefaultParams(), nil)
	st := store.New(20)
	set := f.NewSet(st)

	if len(set) != len(Types()) {
		t.Fatalf("NewSet() has %d strategies, want %d", len(set), len(Types()))
	}

	h := set[TypeHybrid].(*Hybrid)
	for _, typ := range []Type{TypeBeamSearch, TypeMCTS, TypeAStar, TypeCSP} {
		if h.delegates[typ] != set[typ] {
			t.Errorf("hybrid delegate %v is a separate instance from the directly addressable one", typ)
		}
	}

	// Auxiliary indices stay consistent across routing modes: a thought
	// processed through the hybrid's MCTS delegate is visible when the
	// session later addresses MCTS directly.
	resp, err := h.ProcessThought(context.Background(), &Request{
		Thought: "probe", ThoughtNumber: 1, NextThoughtNeeded: true,
		StrategyType: TypeMCTS,
	})
	if err != nil {
		t.Fatalf("ProcessThought() error = %v", err)
	}
	direct := set[TypeMCTS].(*MonteCarloTreeSearch)
	if direct.Metrics()["simulatedNodes"] != 1 {
		t.Errorf("direct MCTS does not see the hybrid-routed node %q", resp.NodeID)
	}
}
