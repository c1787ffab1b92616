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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// tracerName is the OTel tracer used for query spans.
const tracerName = "familytree.family"

// Query result labels.
const (
	resultOK         = "ok"
	resultEmpty      = "empty"
	resultNotFound   = "not_found"
	resultWrongLevel = "wrong_level"
	resultError      = "error"
)

var (
	// queryTotal counts queries by name and result.
	// Labels: result = "ok", "empty", "not_found", "wrong_level", "error"
	queryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "familytree_queries_total",
		Help: "Total family tree queries by query and result",
	}, []string{"query", "result"})

	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "familytree_query_duration_seconds",
		Help:    "Family tree query duration",
		Buckets: []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01, 0.1},
	}, []string{"query"})

	queryResultSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "familytree_query_result_size",
		Help:    "Members per group report",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	}, []string{"query"})
)

// resultLabel maps a query error to its metrics label.
func resultLabel(err error, empty bool) string {
	switch {
	case err == nil && empty:
		return resultEmpty
	case err == nil:
		return resultOK
	case errors.Is(err, ErrPersonNotFound):
		return resultNotFound
	case errors.Is(err, ErrWrongLevel):
		return resultWrongLevel
	default:
		return resultError
	}
}
