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
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/familytree/services/family/telemetry"
)

// Query names used for spans and metrics labels.
const (
	QueryPersons       = "persons"
	QueryChildren      = "children"
	QueryParents       = "parents"
	QuerySiblings      = "siblings"
	QueryCousins       = "cousins"
	QueryGrandchildren = "grandchildren"
	QueryGrandparents  = "grandparents"
	QueryTallest       = "tallest_in_lineage"
	QueryShortest      = "shortest_in_lineage"
)

// Querier provides the user-facing family tree queries.
//
// # Description
//
// Each query resolves the subject first and fails with *PersonNotFoundError
// before doing any other work. Level queries then validate the level. The
// matching Traverser algorithm runs and the result is returned as a report.
//
// Every query runs inside an OTel span and is counted in the
// familytree_queries_total metric.
//
// # Thread Safety
//
// Querier is NOT safe for concurrent use with Registry mutation.
type Querier struct {
	reg  *Registry
	trav *Traverser
}

// NewQuerier creates a Querier over reg.
//
// # Inputs
//
//   - reg: The registry to query. Must not be nil.
//
// # Outputs
//
//   - *Querier: The querier instance.
func NewQuerier(reg *Registry) *Querier {
	return &Querier{
		reg:  reg,
		trav: NewTraverser(reg),
	}
}

// Registry returns the registry the querier reads from.
func (q *Querier) Registry() *Registry {
	return q.reg
}

// Persons lists every person as (id, height) in ascending id order.
func (q *Querier) Persons(ctx context.Context) []PersonSummary {
	_, span := telemetry.StartSpan(ctx, tracerName, "Querier.Persons")
	defer span.End()

	start := time.Now()
	persons := q.reg.Persons()
	queryDuration.WithLabelValues(QueryPersons).Observe(time.Since(start).Seconds())
	queryTotal.WithLabelValues(QueryPersons, resultLabel(nil, len(persons) == 0)).Inc()
	span.SetAttributes(attribute.Int("result.count", len(persons)))
	return persons
}

// Children reports the direct children of id.
func (q *Querier) Children(ctx context.Context, id string) (*GroupReport, error) {
	return q.group(ctx, QueryChildren, GroupChildren, id, 0, func() (IDSet, error) {
		return q.trav.Children(id), nil
	})
}

// Parents reports the linked parents of id.
func (q *Querier) Parents(ctx context.Context, id string) (*GroupReport, error) {
	return q.group(ctx, QueryParents, GroupParents, id, 0, func() (IDSet, error) {
		return q.trav.Parents(id), nil
	})
}

// Siblings reports the siblings of id, including half siblings.
func (q *Querier) Siblings(ctx context.Context, id string) (*GroupReport, error) {
	return q.group(ctx, QuerySiblings, GroupSiblings, id, 0, func() (IDSet, error) {
		return q.trav.Siblings(id), nil
	})
}

// Cousins reports the cousins of id.
func (q *Querier) Cousins(ctx context.Context, id string) (*GroupReport, error) {
	return q.group(ctx, QueryCousins, GroupCousins, id, 0, func() (IDSet, error) {
		return q.trav.Cousins(id), nil
	})
}

// GrandchildrenAtLevel reports the descendants of id at the given level.
//
// # Description
//
// Level 1 is grandchildren; each further level adds one "great-" to the
// group label.
//
// # Outputs
//
//   - *GroupReport: The report on success.
//   - error: *PersonNotFoundError if id is unknown, otherwise
//     *WrongLevelError if level < 1.
func (q *Querier) GrandchildrenAtLevel(ctx context.Context, id string, level int) (*GroupReport, error) {
	return q.group(ctx, QueryGrandchildren, GroupGrandchildren, id, level, func() (IDSet, error) {
		return q.trav.GrandchildrenAtLevel(id, level)
	})
}

// GrandparentsAtLevel reports the ancestors of id at the given level.
//
// Error precedence is the same as GrandchildrenAtLevel.
func (q *Querier) GrandparentsAtLevel(ctx context.Context, id string, level int) (*GroupReport, error) {
	return q.group(ctx, QueryGrandparents, GroupGrandparents, id, level, func() (IDSet, error) {
		return q.trav.GrandparentsAtLevel(id, level)
	})
}

// TallestInLineage reports the tallest person among id and its descendants.
func (q *Querier) TallestInLineage(ctx context.Context, id string) (*HeightReport, error) {
	return q.height(ctx, QueryTallest, id, Tallest)
}

// ShortestInLineage reports the shortest person among id and its descendants.
func (q *Querier) ShortestInLineage(ctx context.Context, id string) (*HeightReport, error) {
	return q.height(ctx, QueryShortest, id, Shortest)
}

// group runs a group query with the shared resolve, span and metrics steps.
func (q *Querier) group(ctx context.Context, query, group, id string, level int,
	collect func() (IDSet, error)) (report *GroupReport, err error) {

	_, span := telemetry.StartSpan(ctx, tracerName, "Querier."+query,
		trace.WithAttributes(
			attribute.String("person.id", id),
			attribute.Int("query.level", level),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		queryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
		queryTotal.WithLabelValues(query, resultLabel(err, report != nil && report.IsEmpty)).Inc()
		if err != nil {
			telemetry.RecordError(span, err)
			return
		}
		queryResultSize.WithLabelValues(query).Observe(float64(report.Count))
		span.SetAttributes(attribute.Int("result.count", report.Count))
		telemetry.SetSpanOK(span)
	}()

	if !q.reg.Contains(id) {
		return nil, &PersonNotFoundError{ID: id}
	}

	members, err := collect()
	if err != nil {
		return nil, err
	}
	return NewGroupReport(id, group, level, members), nil
}

// height runs a lineage height query.
func (q *Querier) height(ctx context.Context, query, id string, mode Superlative) (report *HeightReport, err error) {
	_, span := telemetry.StartSpan(ctx, tracerName, "Querier."+query,
		trace.WithAttributes(attribute.String("person.id", id)),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		queryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
		queryTotal.WithLabelValues(query, resultLabel(err, false)).Inc()
		if err != nil {
			telemetry.RecordError(span, err)
			return
		}
		span.SetAttributes(
			attribute.String("result.id", report.ResultID),
			attribute.Int("result.height", report.ResultHeight),
		)
		telemetry.SetSpanOK(span)
	}()

	ext, err := q.trav.ExtremalInLineage(id, mode)
	if err != nil {
		return nil, err
	}
	return &HeightReport{
		SubjectID:    id,
		ResultID:     ext.ID,
		ResultHeight: ext.Height,
		Superlative:  mode,
	}, nil
}
