// Copyright (C) 2026 Treelight Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package reasoner

import (
	"log/slog"
	"sync"

	"github.com/treelight/reasoner/services/reasoner/config"
)

// DefaultSessionID is used when a caller supplies no session id.
const DefaultSessionID = "default"

// Registry hands out one Reasoner per session id, created on demand.
// Sessions live until explicitly cleared or the process exits; no idle
// sweep runs.
//
// Thread Safety: Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Reasoner

	cfg    config.Config
	logger *slog.Logger
}

// NewRegistry creates a session registry over one service configuration.
func NewRegistry(cfg config.Config, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions: make(map[string]*Reasoner),
		cfg:      cfg,
		logger:   logger,
	}
}

// Get returns the session's Reasoner, creating it on first use. An
// empty id maps to DefaultSessionID.
func (g *Registry) Get(sessionID string) *Reasoner {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	g.mu.RLock()
	r, ok := g.sessions[sessionID]
	g.mu.RUnlock()
	if ok {
		return r
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.sessions[sessionID]; ok {
		return r
	}
	r = New(g.cfg, g.logger.With(slog.String("session_id", sessionID)))
	g.sessions[sessionID] = r
	g.logger.Info("session created", slog.String("session_id", sessionID))
	return r
}

// Len reports the number of live sessions.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.sessions)
}
