// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package family provides the in-memory family tree and its relationship queries.
//
// The package is split into three layers that mirror how a query flows:
//
//	┌─────────────────────────────────────────────────────────────────────────┐
//	│                      Family Query Flow                                   │
//	├─────────────────────────────────────────────────────────────────────────┤
//	│                                                                          │
//	│  ┌─────────────┐    ┌─────────────┐    ┌─────────────┐                  │
//	│  │  Querier    │───▶│  Traverser  │───▶│  Registry   │                  │
//	│  │ (reports)   │    │ (worklists) │    │ (id arena)  │                  │
//	│  └─────────────┘    └─────────────┘    └─────────────┘                  │
//	│         │                                                                │
//	│         ▼                                                                │
//	│  ┌─────────────┐                                                         │
//	│  │ GroupReport │  "Cara has 2 parents:"                                  │
//	│  │ HeightReport│  "With the height of 180, Dad is the tallest ..."       │
//	│  └─────────────┘                                                         │
//	│                                                                          │
//	└─────────────────────────────────────────────────────────────────────────┘
//
// # Ownership Model
//
// The Registry owns every Person. Parent and child links are stored as plain
// ids and resolved through the Registry on every hop, so there are no pointers
// between Person values and no lifetime coupling between nodes.
//
// # Edge Consistency
//
// AddRelation writes both directions of an edge in one call. Re-linking a
// child overwrites its parent slots but leaves the child listed under the
// previous parents. Those stale one-directional edges are kept as observed
// behaviour and are covered by tests.
//
// # Thread Safety
//
// Registry, Traverser and Querier are NOT safe for concurrent use. The whole
// package assumes a single goroutine owns the tree for its lifetime.
package family
