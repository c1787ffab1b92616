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

// Traverser runs read-only traversals over a Registry.
//
// # Description
//
// Two primitives, CollectDescendants and CollectAtDepth, are composed into
// the derived relations (siblings, cousins, N-th level grand relations) and
// the lineage height search.
//
// # Thread Safety
//
// Traverser is NOT safe for use while the Registry is being mutated.
type Traverser struct {
	reg *Registry
}

// NewTraverser creates a Traverser over reg.
func NewTraverser(reg *Registry) *Traverser {
	return &Traverser{reg: reg}
}

// Extremum is the result of a lineage height search.
type Extremum struct {
	ID     string
	Height int
}

// CollectDescendants returns every id reachable downward from id.
//
// # Description
//
// Unbounded worklist traversal along children. The result is a set and
// never contains id itself. A visited set keeps each person expanded once.
//
// # Inputs
//
//   - id: Start of the traversal. An unknown id yields an empty set.
//
// # Outputs
//
//   - IDSet: All descendants of id.
func (t *Traverser) CollectDescendants(id string) IDSet {
	result := NewIDSet()
	if !t.reg.Contains(id) {
		return result
	}

	visited := NewIDSet(id)
	queue := []string{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, child := range t.reg.neighbours(current, Down) {
			if visited.Has(child) {
				continue
			}
			visited.Add(child)
			result.Add(child)
			queue = append(queue, child)
		}
	}

	result.Remove(id)
	return result
}

// CollectAtDepth returns the ids exactly depth edges away from id.
//
// # Description
//
// Worklist traversal keyed by (id, remaining depth). Every non-empty edge in
// the given direction is followed with remaining-1; only items that reach
// remaining == 0 are added to the result. Unknown ids and empty parent slots
// end their branch without contributing. Items already queued at the same
// remaining depth are not queued again, which keeps diamond-shaped trees
// from multiplying work without changing the result set.
//
// # Inputs
//
//   - id: Start of the traversal. An unknown id yields an empty set.
//   - dir: Up follows parents, Down follows children.
//   - depth: Number of edges. 0 returns {id}; negative returns an empty set.
//
// # Outputs
//
//   - IDSet: The ids at exactly that distance.
//
// # Example
//
//	parents := t.CollectAtDepth("Cara", Up, 1)
//	grandchildren := t.CollectAtDepth("Grandpa", Down, 2)
func (t *Traverser) CollectAtDepth(id string, dir Direction, depth int) IDSet {
	result := NewIDSet()
	if depth < 0 || !t.reg.Contains(id) {
		return result
	}

	type queueItem struct {
		id        string
		remaining int
	}

	start := queueItem{id: id, remaining: depth}
	queued := map[queueItem]bool{start: true}
	queue := []queueItem{start}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if item.remaining == 0 {
			result.Add(item.id)
			continue
		}

		for _, next := range t.reg.neighbours(item.id, dir) {
			nextItem := queueItem{id: next, remaining: item.remaining - 1}
			if queued[nextItem] {
				continue
			}
			queued[nextItem] = true
			queue = append(queue, nextItem)
		}
	}

	return result
}

// Parents returns the direct, linked parents of id.
func (t *Traverser) Parents(id string) IDSet {
	return t.CollectAtDepth(id, Up, 1)
}

// Children returns the direct children of id.
func (t *Traverser) Children(id string) IDSet {
	return t.CollectAtDepth(id, Down, 1)
}

// Siblings returns the children of id's parents, without id.
//
// Half siblings are included. A person without linked parents has none.
func (t *Traverser) Siblings(id string) IDSet {
	result := NewIDSet()
	for parent := range t.Parents(id) {
		result.Union(t.Children(parent))
	}
	result.Remove(id)
	return result
}

// Cousins returns the children of id's aunts and uncles.
//
// # Description
//
// Aunts and uncles are the children of id's grandparents minus id's own
// parents. A person without linked grandparents has no cousins.
//
// # Outputs
//
//   - IDSet: The cousins of id.
func (t *Traverser) Cousins(id string) IDSet {
	parents := t.Parents(id)
	grandparents := t.CollectAtDepth(id, Up, 2)

	auntsUncles := NewIDSet()
	for gp := range grandparents {
		auntsUncles.Union(t.Children(gp))
	}
	auntsUncles.Subtract(parents)

	cousins := NewIDSet()
	for au := range auntsUncles {
		cousins.Union(t.Children(au))
	}
	return cousins
}

// GrandchildrenAtLevel returns descendants level+1 edges below id.
//
// Level 1 is grandchildren, level 2 great-grandchildren and so on.
// Returns *WrongLevelError if level < 1.
func (t *Traverser) GrandchildrenAtLevel(id string, level int) (IDSet, error) {
	if level < 1 {
		return nil, &WrongLevelError{Level: level}
	}
	return t.CollectAtDepth(id, Down, level+1), nil
}

// GrandparentsAtLevel returns ancestors level+1 edges above id.
//
// Level 1 is grandparents, level 2 great-grandparents and so on.
// Returns *WrongLevelError if level < 1.
func (t *Traverser) GrandparentsAtLevel(id string, level int) (IDSet, error) {
	if level < 1 {
		return nil, &WrongLevelError{Level: level}
	}
	return t.CollectAtDepth(id, Up, level+1), nil
}

// ExtremalInLineage finds the tallest or shortest person in id's lineage.
//
// # Description
//
// The lineage is id plus all of its descendants. The extremal height is
// computed first, seeded with id's own height. The result id is then chosen
// by scanning the descendants in ascending id order with last-seen-wins, so
// among tied descendants the greatest id is returned. id itself is returned
// only when no descendant has the extremal height.
//
// # Inputs
//
//   - id: Subject of the query.
//   - mode: Tallest or Shortest.
//
// # Outputs
//
//   - Extremum: Result id and its height.
//   - error: *PersonNotFoundError if id is not registered.
func (t *Traverser) ExtremalInLineage(id string, mode Superlative) (Extremum, error) {
	best, ok := t.reg.height(id)
	if !ok {
		return Extremum{}, &PersonNotFoundError{ID: id}
	}

	descendants := t.CollectDescendants(id).Sorted()
	for _, d := range descendants {
		h, _ := t.reg.height(d)
		if better(mode, h, best) {
			best = h
		}
	}

	result := Extremum{ID: id, Height: best}
	for _, d := range descendants {
		if h, _ := t.reg.height(d); h == best {
			result.ID = d
		}
	}
	return result, nil
}

// better reports whether candidate beats current under mode.
func better(mode Superlative, candidate, current int) bool {
	if mode == Shortest {
		return candidate < current
	}
	return candidate > current
}
