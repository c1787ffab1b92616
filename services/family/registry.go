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
	"slices"
	"strings"
)

// Registry owns every Person, indexed by id.
//
// # Description
//
// Registry is the arena of the family tree. Persons are inserted once with
// AddPerson, linked with AddRelation and never removed. All links are ids
// resolved through the people map.
//
// # Thread Safety
//
// Registry is NOT safe for concurrent use.
type Registry struct {
	people map[string]*Person
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		people: make(map[string]*Person),
	}
}

// AddPerson inserts a new person with empty parent slots and no children.
//
// # Description
//
// Fails without side effects if the id is already registered. Height is
// stored as given and never changes afterwards.
//
// # Inputs
//
//   - id: Unique person id. Must not be empty.
//   - height: Height of the person.
//
// # Outputs
//
//   - error: *PersonAlreadyExistsError (wraps ErrPersonAlreadyExists) on a
//     duplicate id, ErrInvalidID for an empty id, nil otherwise.
func (r *Registry) AddPerson(id string, height int) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	if _, exists := r.people[id]; exists {
		return &PersonAlreadyExistsError{ID: id}
	}
	r.people[id] = &Person{
		ID:      id,
		Height:  height,
		Parents: [2]string{NoParent, NoParent},
	}
	return nil
}

// AddRelation links a child to up to two parents.
//
// # Description
//
// Resolves the child first; an unknown child fails the call before anything
// is mutated. Each parent id is resolved independently and an id that is not
// registered becomes an empty slot rather than an error. The child's parent
// slots are overwritten with the resolved pair and the child is appended to
// each resolved parent's children.
//
// Appends are never deduplicated, and a previous pair of parents keeps its
// reference to the child after the slots are overwritten.
//
// # Inputs
//
//   - childID: Id of the child. Must be registered.
//   - parentIDs: The two parent ids. NoParent or an unknown id leaves the slot empty.
//
// # Outputs
//
//   - error: *PersonNotFoundError (wraps ErrPersonNotFound) if the child is
//     not registered, nil otherwise.
func (r *Registry) AddRelation(childID string, parentIDs [2]string) error {
	child, ok := r.people[childID]
	if !ok {
		return &PersonNotFoundError{ID: childID}
	}

	var resolved [2]string
	for i, parentID := range parentIDs {
		if _, ok := r.people[parentID]; ok {
			resolved[i] = parentID
		}
	}

	child.Parents = resolved
	for _, parentID := range resolved {
		if parentID == NoParent {
			continue
		}
		parent := r.people[parentID]
		parent.Children = append(parent.Children, childID)
	}
	return nil
}

// Lookup returns a copy of the person with the given id.
//
// The returned Person does not share its Children slice with the registry.
func (r *Registry) Lookup(id string) (Person, bool) {
	p, ok := r.people[id]
	if !ok {
		return Person{}, false
	}
	cp := *p
	cp.Children = slices.Clone(p.Children)
	return cp, true
}

// Contains reports whether id is registered.
func (r *Registry) Contains(id string) bool {
	_, ok := r.people[id]
	return ok
}

// Len returns the number of registered persons.
func (r *Registry) Len() int {
	return len(r.people)
}

// Persons lists every registered person in ascending id order.
func (r *Registry) Persons() []PersonSummary {
	ids := make([]string, 0, len(r.people))
	for id := range r.people {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	result := make([]PersonSummary, 0, len(ids))
	for _, id := range ids {
		result = append(result, PersonSummary{ID: id, Height: r.people[id].Height})
	}
	return result
}

// neighbours returns the ids one edge away from id in the given direction.
//
// Empty parent slots are skipped. An unknown id has no neighbours.
func (r *Registry) neighbours(id string, dir Direction) []string {
	p, ok := r.people[id]
	if !ok {
		return nil
	}
	switch dir {
	case Up:
		out := make([]string, 0, len(p.Parents))
		for _, parentID := range p.Parents {
			if parentID != NoParent {
				out = append(out, parentID)
			}
		}
		return out
	case Down:
		return p.Children
	default:
		return nil
	}
}

// height returns the height of id and whether it is registered.
func (r *Registry) height(id string) (int, bool) {
	p, ok := r.people[id]
	if !ok {
		return 0, false
	}
	return p.Height, true
}
