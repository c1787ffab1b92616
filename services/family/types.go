// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package family

import (
	"fmt"
	"maps"
	"slices"
)

// NoParent marks an unlinked parent slot.
const NoParent = ""

// Person is a single member of the family tree.
//
// Parents holds up to two parent ids; a slot equal to NoParent is unknown.
// Children is populated only as a side effect of AddRelation and may contain
// the same id more than once if the relation was added repeatedly.
type Person struct {
	ID       string
	Height   int
	Parents  [2]string
	Children []string
}

// PersonSummary is one row of the persons listing.
type PersonSummary struct {
	ID     string `json:"id"`
	Height int    `json:"height"`
}

// Direction selects which edges a traversal follows.
type Direction int

const (
	// Up follows parent slots.
	Up Direction = iota

	// Down follows children.
	Down
)

// String returns the string representation of the Direction.
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}

// Superlative selects which extremum a lineage height query looks for.
type Superlative int

const (
	// Tallest selects the maximum height.
	Tallest Superlative = iota

	// Shortest selects the minimum height.
	Shortest
)

// String returns the word used in rendered reports.
func (s Superlative) String() string {
	switch s {
	case Tallest:
		return "tallest"
	case Shortest:
		return "shortest"
	default:
		return "unknown"
	}
}

// MarshalText renders the superlative for JSON output.
func (s Superlative) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses "tallest" or "shortest".
func (s *Superlative) UnmarshalText(text []byte) error {
	switch string(text) {
	case "tallest":
		*s = Tallest
	case "shortest":
		*s = Shortest
	default:
		return fmt.Errorf("unknown superlative %q", text)
	}
	return nil
}

// IDSet is an unordered set of person ids.
//
// Sorted returns the members in ascending lexicographic order, which is the
// order every report lists them in.
type IDSet map[string]struct{}

// NewIDSet creates a set holding ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id.
func (s IDSet) Add(id string) {
	s[id] = struct{}{}
}

// Has reports whether id is a member.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Remove deletes id if present.
func (s IDSet) Remove(id string) {
	delete(s, id)
}

// Union adds every member of other to s.
func (s IDSet) Union(other IDSet) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// Subtract removes every member of other from s.
func (s IDSet) Subtract(other IDSet) {
	for id := range other {
		delete(s, id)
	}
}

// Len returns the number of members.
func (s IDSet) Len() int {
	return len(s)
}

// Sorted returns the members in ascending order.
func (s IDSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}
