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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraverser_CollectAtDepth(t *testing.T) {
	trav := NewTraverser(createTestRegistry(t))

	tests := []struct {
		name     string
		id       string
		dir      Direction
		depth    int
		expected []string
	}{
		{"children", "Grandpa", Down, 1, []string{"Aunt", "Dad"}},
		{"grandchildren", "Grandpa", Down, 2, []string{"Cousin1", "Cousin2", "Kid", "Sis"}},
		{"beyond leaves", "Grandpa", Down, 3, nil},
		{"parents", "Kid", Up, 1, []string{"Dad", "Mom"}},
		{"grandparents", "Kid", Up, 2, []string{"Grandma", "Grandpa"}},
		{"one unknown branch", "Kid", Up, 3, nil},
		{"no parents", "Mom", Up, 1, nil},
		{"depth zero", "Kid", Up, 0, []string{"Kid"}},
		{"negative depth", "Kid", Up, -1, nil},
		{"unknown id", "Nobody", Down, 1, nil},
		{"unknown id depth zero", "Nobody", Down, 0, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := trav.CollectAtDepth(tc.id, tc.dir, tc.depth).Sorted()
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestTraverser_CollectAtDepth_Diamond(t *testing.T) {
	// Root's two children share a child: the shared grandchild appears once.
	reg := NewRegistry()
	for _, id := range []string{"Root", "A", "B", "C"} {
		require.NoError(t, reg.AddPerson(id, 100))
	}
	require.NoError(t, reg.AddRelation("A", [2]string{"Root", NoParent}))
	require.NoError(t, reg.AddRelation("B", [2]string{"Root", NoParent}))
	require.NoError(t, reg.AddRelation("C", [2]string{"A", "B"}))

	trav := NewTraverser(reg)
	assert.Equal(t, []string{"C"}, trav.CollectAtDepth("Root", Down, 2).Sorted())
	assert.Equal(t, []string{"Root"}, trav.CollectAtDepth("C", Up, 2).Sorted())
}

func TestTraverser_CollectDescendants(t *testing.T) {
	trav := NewTraverser(createTestRegistry(t))

	assert.Equal(t,
		[]string{"Aunt", "Cousin1", "Cousin2", "Dad", "Kid", "Sis"},
		trav.CollectDescendants("Grandpa").Sorted())
	assert.Equal(t, []string{"Kid", "Sis"}, trav.CollectDescendants("Mom").Sorted())
	assert.Empty(t, trav.CollectDescendants("Kid"))
	assert.Empty(t, trav.CollectDescendants("Nobody"))
}

func TestTraverser_CollectDescendants_ExcludesSelfOnCycle(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.AddPerson("A", 1))
	require.NoError(t, reg.AddPerson("B", 2))
	require.NoError(t, reg.AddRelation("B", [2]string{"A", NoParent}))
	require.NoError(t, reg.AddRelation("A", [2]string{"B", NoParent}))

	assert.Equal(t, []string{"B"}, NewTraverser(reg).CollectDescendants("A").Sorted())
}

func TestTraverser_Siblings(t *testing.T) {
	trav := NewTraverser(createTestRegistry(t))

	assert.Equal(t, []string{"Sis"}, trav.Siblings("Kid").Sorted())
	assert.Equal(t, []string{"Aunt"}, trav.Siblings("Dad").Sorted())
	assert.Empty(t, trav.Siblings("Mom"), "no parents means no siblings")
	assert.Empty(t, trav.Siblings("Nobody"))
}

func TestTraverser_Siblings_HalfSiblings(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"Mom", "Dad1", "Dad2", "A", "B"} {
		require.NoError(t, reg.AddPerson(id, 100))
	}
	require.NoError(t, reg.AddRelation("A", [2]string{"Mom", "Dad1"}))
	require.NoError(t, reg.AddRelation("B", [2]string{"Mom", "Dad2"}))

	assert.Equal(t, []string{"B"}, NewTraverser(reg).Siblings("A").Sorted())
}

func TestTraverser_Cousins(t *testing.T) {
	trav := NewTraverser(createTestRegistry(t))

	assert.Equal(t, []string{"Cousin1", "Cousin2"}, trav.Cousins("Kid").Sorted())
	assert.Equal(t, []string{"Kid", "Sis"}, trav.Cousins("Cousin2").Sorted())
	assert.Empty(t, trav.Cousins("Dad"), "no grandparents means no cousins")
	assert.Empty(t, trav.Cousins("Solo"))
}

func TestTraverser_LevelQueries(t *testing.T) {
	trav := NewTraverser(createTestRegistry(t))

	got, err := trav.GrandchildrenAtLevel("Grandpa", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cousin1", "Cousin2", "Kid", "Sis"}, got.Sorted())

	got, err = trav.GrandparentsAtLevel("Kid", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Grandma", "Grandpa"}, got.Sorted())

	got, err = trav.GrandparentsAtLevel("Kid", 2)
	require.NoError(t, err)
	assert.Empty(t, got)

	for _, level := range []int{0, -3} {
		_, err = trav.GrandchildrenAtLevel("Grandpa", level)
		var wrong *WrongLevelError
		require.True(t, errors.As(err, &wrong))
		assert.Equal(t, level, wrong.Level)

		_, err = trav.GrandparentsAtLevel("Kid", level)
		assert.ErrorIs(t, err, ErrWrongLevel)
	}
}

func TestTraverser_ExtremalInLineage(t *testing.T) {
	trav := NewTraverser(createTestRegistry(t))

	tests := []struct {
		name     string
		id       string
		mode     Superlative
		expected Extremum
	}{
		{"tallest descendant", "Grandpa", Tallest, Extremum{ID: "Cousin2", Height: 190}},
		{"shortest descendant", "Grandpa", Shortest, Extremum{ID: "Cousin1", Height: 140}},
		{"subject is tallest", "Dad", Tallest, Extremum{ID: "Dad", Height: 180}},
		{"subject is shortest", "Kid", Shortest, Extremum{ID: "Kid", Height: 150}},
		{"leaf tallest", "Kid", Tallest, Extremum{ID: "Kid", Height: 150}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := trav.ExtremalInLineage(tc.id, tc.mode)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestTraverser_ExtremalInLineage_TieBreak(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.AddPerson("Root", 200))
	require.NoError(t, reg.AddPerson("Bea", 200))
	require.NoError(t, reg.AddPerson("Abe", 200))
	require.NoError(t, reg.AddPerson("Cy", 100))
	for _, child := range []string{"Abe", "Bea", "Cy"} {
		require.NoError(t, reg.AddRelation(child, [2]string{"Root", NoParent}))
	}
	trav := NewTraverser(reg)

	// Tied descendants win over the subject; the greatest id wins among them.
	got, err := trav.ExtremalInLineage("Root", Tallest)
	require.NoError(t, err)
	assert.Equal(t, Extremum{ID: "Bea", Height: 200}, got)

	got, err = trav.ExtremalInLineage("Root", Shortest)
	require.NoError(t, err)
	assert.Equal(t, Extremum{ID: "Cy", Height: 100}, got)
}

func TestTraverser_ExtremalInLineage_NotFound(t *testing.T) {
	trav := NewTraverser(NewRegistry())

	_, err := trav.ExtremalInLineage("Nobody", Tallest)
	assert.ErrorIs(t, err, ErrPersonNotFound)
}

func TestIDSet(t *testing.T) {
	s := NewIDSet("b", "a")
	s.Add("c")
	s.Add("a")
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Has("c"))

	s.Subtract(NewIDSet("a", "z"))
	assert.Equal(t, []string{"b", "c"}, s.Sorted())

	s.Union(NewIDSet("d"))
	s.Remove("b")
	assert.Equal(t, []string{"c", "d"}, s.Sorted())
}
