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
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/familytree/pkg/logging"
	"github.com/AleutianAI/familytree/services/family"
	"github.com/AleutianAI/familytree/services/family/telemetry"
)

const instrumentationName = "familytree.loader"

// Record outcomes used as the "outcome" attribute of the records counter.
const (
	outcomeApplied      = "applied"
	outcomeDuplicate    = "duplicate"
	outcomeMissingChild = "missing_child"
)

// Summary counts what a load did to the registry.
type Summary struct {
	Persons         int `json:"persons"`
	Relations       int `json:"relations"`
	Duplicates      int `json:"duplicates"`
	MissingChildren int `json:"missing_children"`

	// UnknownParents counts parent slots that named nobody in the registry
	// and were left empty.
	UnknownParents int `json:"unknown_parents"`
}

var (
	recordsCounter     metric.Int64Counter
	recordsCounterOnce sync.Once
)

// records returns the loader record counter, creating it on first use so
// it binds to whatever MeterProvider telemetry.Init installed.
func records() metric.Int64Counter {
	recordsCounterOnce.Do(func() {
		c, err := telemetry.Meter(instrumentationName).Int64Counter(
			"familytree.loader.records",
			metric.WithDescription("Data file records applied to the registry"),
			metric.WithUnit("{record}"),
		)
		if err != nil {
			return
		}
		recordsCounter = c
	})
	return recordsCounter
}

func countRecord(ctx context.Context, kind, outcome string) {
	if c := records(); c != nil {
		c.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("outcome", outcome),
		))
	}
}

// Apply adds the document to reg.
//
// # Description
//
// Persons are added first, then relations. A duplicate person or a relation
// whose child is unknown is logged at Warn, counted and skipped. Parent ids
// that are not registered leave their slot empty and are logged at Debug.
//
// # Inputs
//
//   - ctx: Checked between records for cancellation.
//   - reg: Destination registry. Must not be nil.
//   - doc: Parsed document.
//   - logger: Destination for per-record diagnostics.
//
// # Outputs
//
//   - Summary: What was applied and skipped.
//   - error: ctx.Err() on cancellation, or an unexpected registry error.
func Apply(ctx context.Context, reg *family.Registry, doc *Document, logger *logging.Logger) (summary Summary, err error) {
	ctx, span := telemetry.StartSpan(ctx, instrumentationName, "Loader.Apply",
		trace.WithAttributes(
			attribute.Int("doc.persons", len(doc.Persons)),
			attribute.Int("doc.relations", len(doc.Relations)),
		),
	)
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
			return
		}
		span.SetAttributes(
			attribute.Int("summary.duplicates", summary.Duplicates),
			attribute.Int("summary.missing_children", summary.MissingChildren),
		)
		telemetry.SetSpanOK(span)
	}()

	for _, rec := range doc.Persons {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		err := reg.AddPerson(rec.ID, rec.Height)
		switch {
		case err == nil:
			summary.Persons++
			countRecord(ctx, "person", outcomeApplied)
		case errors.Is(err, family.ErrPersonAlreadyExists):
			summary.Duplicates++
			countRecord(ctx, "person", outcomeDuplicate)
			logger.Warn("skipping duplicate person", "line", rec.Line, "id", rec.ID)
		default:
			return summary, fmt.Errorf("line %d: %w", rec.Line, err)
		}
	}

	for _, rec := range doc.Relations {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		for _, parent := range rec.Parents {
			if parent != family.NoParent && !reg.Contains(parent) {
				summary.UnknownParents++
				logger.Debug("unknown parent left empty", "line", rec.Line, "child", rec.Child, "parent", parent)
			}
		}
		err := reg.AddRelation(rec.Child, rec.Parents)
		switch {
		case err == nil:
			summary.Relations++
			countRecord(ctx, "relation", outcomeApplied)
		case errors.Is(err, family.ErrPersonNotFound):
			summary.MissingChildren++
			countRecord(ctx, "relation", outcomeMissingChild)
			logger.Warn("skipping relation for unknown child", "line", rec.Line, "child", rec.Child)
		default:
			return summary, fmt.Errorf("line %d: %w", rec.Line, err)
		}
	}

	logger.Debug("data applied",
		"persons", summary.Persons,
		"relations", summary.Relations,
		"duplicates", summary.Duplicates,
		"missing_children", summary.MissingChildren,
	)
	return summary, nil
}

// LoadFile parses path, choosing the format by extension, and applies it
// to reg.
func LoadFile(ctx context.Context, path string, reg *family.Registry, logger *logging.Logger) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	format := FormatFromPath(path)
	doc, err := Parse(f, format)
	if err != nil {
		return Summary{}, fmt.Errorf("%s: %w", path, err)
	}

	summary, err := Apply(ctx, reg, doc, logger)
	if err != nil {
		return summary, fmt.Errorf("%s: %w", path, err)
	}
	logger.Info("data loaded",
		"path", path,
		"format", format.String(),
		"persons", summary.Persons,
		"relations", summary.Relations,
	)
	return summary, nil
}
