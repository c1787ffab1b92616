// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package loader

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/AleutianAI/familytree/pkg/logging"
	"github.com/AleutianAI/familytree/services/family"
)

var metricReader *sdkmetric.ManualReader

func TestMain(m *testing.M) {
	metricReader = sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(metricReader)))
	os.Exit(m.Run())
}

const sampleText = `# persons
Grandpa;160
Dad;180
Kid ; 150

# relations
Kid;Dad;-
Dad;Grandpa;
`

func TestParseText(t *testing.T) {
	doc, err := ParseText(strings.NewReader(sampleText))
	require.NoError(t, err)

	assert.Equal(t, []PersonRecord{
		{Line: 2, ID: "Grandpa", Height: 160},
		{Line: 3, ID: "Dad", Height: 180},
		{Line: 4, ID: "Kid", Height: 150},
	}, doc.Persons)
	assert.Equal(t, []RelationRecord{
		{Line: 7, Child: "Kid", Parents: [2]string{"Dad", family.NoParent}},
		{Line: 8, Child: "Dad", Parents: [2]string{"Grandpa", family.NoParent}},
	}, doc.Relations)
}

func TestParseText_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		line   int
		reason string
	}{
		{"bad height", "Alice;tall\n", 1, "not an integer"},
		{"negative height", "Alice;-5\n", 1, "must not be negative"},
		{"too many fields", "\nA;B;C;D\n", 2, "expected 2 or 3 fields"},
		{"single field", "Alice\n", 1, "expected 2 or 3 fields"},
		{"empty id", ";170\n", 1, "invalid id"},
		{"space in id", "Mary Ann;170\n", 1, "invalid id"},
		{"empty child", ";Alice;Bob\n", 1, "invalid id"},
		{"reserved id", "-;170\n", 1, "invalid id"},
		{"trailing separator on person", "Bob;180\nAlice;170;\n", 2, "person records take 2 fields"},
		{"numeric parent", "Alice;Bob;42\n", 1, "parent \"42\" is a number"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseText(strings.NewReader(tc.input))

			var perr *ParseError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, tc.line, perr.Line)
			assert.Contains(t, perr.Reason, tc.reason)
		})
	}
}

func TestParseYAML(t *testing.T) {
	input := `people:
  - id: Grandpa
    height: 160
  - {id: Dad, height: 180, parents: [Grandpa]}
  - {id: Kid, height: 150, parents: [Dad, "-"]}
`
	doc, err := ParseYAML(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, doc.Persons, 3)
	assert.Equal(t, "Grandpa", doc.Persons[0].ID)
	assert.Equal(t, 2, doc.Persons[0].Line)
	assert.Equal(t, []RelationRecord{
		{Line: 4, Child: "Dad", Parents: [2]string{"Grandpa", family.NoParent}},
		{Line: 5, Child: "Kid", Parents: [2]string{"Dad", family.NoParent}},
	}, doc.Relations)
}

func TestParseYAML_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"three parents", "people:\n  - {id: A, height: 1, parents: [B, C, D]}\n"},
		{"bad height", "people:\n  - {id: A, height: tall}\n"},
		{"missing id", "people:\n  - {height: 3}\n"},
		{"bad parent id", "people:\n  - {id: A, height: 1, parents: [\"B C\"]}\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseYAML(strings.NewReader(tc.input))
			var perr *ParseError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, 2, perr.Line)
		})
	}

	_, err := ParseYAML(strings.NewReader("people: [unclosed\n"))
	assert.Error(t, err)
}

func TestParseYAML_Empty(t *testing.T) {
	doc, err := ParseYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, doc.Persons)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("tree.YAML"))
	assert.Equal(t, FormatYAML, FormatFromPath("dir/tree.yml"))
	assert.Equal(t, FormatText, FormatFromPath("tree.txt"))
	assert.Equal(t, FormatText, FormatFromPath("tree"))
	assert.Equal(t, "yaml", FormatYAML.String())
}

func TestApply_RelationsBeforePersonsInFile(t *testing.T) {
	input := "Kid;Dad;Mom\nKid;150\nDad;180\nMom;165\n"
	doc, err := ParseText(strings.NewReader(input))
	require.NoError(t, err)

	reg := family.NewRegistry()
	summary, err := Apply(context.Background(), reg, doc, logging.Discard())
	require.NoError(t, err)

	assert.Equal(t, Summary{Persons: 3, Relations: 1}, summary)
	kid, _ := reg.Lookup("Kid")
	assert.Equal(t, [2]string{"Dad", "Mom"}, kid.Parents)
}

func TestApply_SkipsAndCounts(t *testing.T) {
	input := `X;150
X;160
Y;170
Ghost;X;Y
Y;X;Nobody
`
	doc, err := ParseText(strings.NewReader(input))
	require.NoError(t, err)

	var logs bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelDebug, Output: &logs})
	reg := family.NewRegistry()

	summary, err := Apply(context.Background(), reg, doc, logger)
	require.NoError(t, err)

	assert.Equal(t, Summary{
		Persons:         2,
		Relations:       1,
		Duplicates:      1,
		MissingChildren: 1,
		UnknownParents:  1,
	}, summary)

	x, _ := reg.Lookup("X")
	assert.Equal(t, 150, x.Height, "first declaration wins")

	assert.Contains(t, logs.String(), "skipping duplicate person")
	assert.Contains(t, logs.String(), "skipping relation for unknown child")
	assert.Contains(t, logs.String(), "unknown parent left empty")
}

func TestApply_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc := &Document{Persons: []PersonRecord{{Line: 1, ID: "A", Height: 1}}}
	_, err := Apply(ctx, family.NewRegistry(), doc, logging.Discard())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestApply_RecordsMetric(t *testing.T) {
	doc := &Document{
		Persons:   []PersonRecord{{Line: 1, ID: "M1", Height: 1}, {Line: 2, ID: "M1", Height: 2}},
		Relations: []RelationRecord{{Line: 3, Child: "Nobody"}},
	}
	before := loaderRecords(t)

	_, err := Apply(context.Background(), family.NewRegistry(), doc, logging.Discard())
	require.NoError(t, err)

	after := loaderRecords(t)
	assert.Equal(t, int64(1), after["person/applied"]-before["person/applied"])
	assert.Equal(t, int64(1), after["person/duplicate"]-before["person/duplicate"])
	assert.Equal(t, int64(1), after["relation/missing_child"]-before["relation/missing_child"])
}

// loaderRecords returns the records counter keyed by "kind/outcome".
func loaderRecords(t *testing.T) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, metricReader.Collect(context.Background(), &rm))

	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "familytree.loader.records" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				kind, _ := dp.Attributes.Value(attribute.Key("kind"))
				outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
				out[kind.AsString()+"/"+outcome.AsString()] = dp.Value
			}
		}
	}
	return out
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	textPath := filepath.Join(dir, "family.txt")
	require.NoError(t, os.WriteFile(textPath, []byte(sampleText), 0644))
	yamlPath := filepath.Join(dir, "family.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("people:\n  - {id: Solo, height: 170}\n"), 0644))

	reg := family.NewRegistry()
	summary, err := LoadFile(context.Background(), textPath, reg, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Persons)
	assert.Equal(t, 2, summary.Relations)

	summary, err = LoadFile(context.Background(), yamlPath, reg, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, Summary{Persons: 1}, summary)
	assert.Equal(t, 4, reg.Len())

	_, err = LoadFile(context.Background(), filepath.Join(dir, "absent.txt"), reg, logging.Discard())
	assert.ErrorIs(t, err, os.ErrNotExist)

	badPath := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(badPath, []byte("A;B;C;D\n"), 0644))
	_, err = LoadFile(context.Background(), badPath, reg, logging.Discard())
	var perr *ParseError
	assert.True(t, errors.As(err, &perr))
}
