// Copyright (C) 2026 Treelight Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package reasoner

import "errors"

// Sentinel errors for the reasoner service boundary. The store and
// strategy layers carry their own sentinels (store.ErrNotFound,
// store.ErrCycleDetected, strategy.ErrUnknownStrategy,
// strategy.ErrInvalidRequest).
var (
	// ErrEmptyTree indicates a path or tree query against a session with
	// no recorded thoughts.
	ErrEmptyTree = errors.New("no thoughts recorded")
)
