// Copyright (C) 2026 Treelight Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"fmt"
	"strings"
)

// Format renders the thought forest as an indented tree for debugging.
// Roots are printed in insertion order; children follow their recorded
// order on each node. Evicted children are skipped silently.
func (s *Store) Format() string {
	all := s.All()
	if len(all) == 0 {
		return "Empty store"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Nodes: %d (capacity %d, evicted %d)\n\n",
		len(all), s.capacity, s.Evictions()))

	for _, n := range all {
		if !n.IsRoot() && s.Has(n.ParentID) {
			continue // rendered under its parent
		}
		s.formatNode(&sb, n, "", true)
	}
	return sb.String()
}

func (s *Store) formatNode(sb *strings.Builder, n *Node, prefix string, isLast bool) {
	branch := "├── "
	if isLast {
		branch = "└── "
	}

	marker := " "
	if n.IsComplete {
		marker = "✓"
	}

	sb.WriteString(fmt.Sprintf("%s%s%s (score: %.2f, depth: %d) %s\n",
		prefix, branch, truncate(n.Thought, 48), n.Score, n.Depth, marker))

	childPrefix := prefix
	if isLast {
		childPrefix += "    "
	} else {
		childPrefix += "│   "
	}

	live := make([]*Node, 0, len(n.Children))
	for _, id := range n.Children {
		if child, err := s.Get(id); err == nil {
			live = append(live, child)
		}
	}
	for i, child := range live {
		s.formatNode(sb, child, childPrefix, i == len(live)-1)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
