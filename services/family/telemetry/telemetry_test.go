// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// restoreGlobals puts the otel providers back after a test replaces them.
func restoreGlobals(t *testing.T) {
	t.Helper()
	tp := otel.GetTracerProvider()
	mp := otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetMeterProvider(mp)
	})
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("OTEL_TRACES_EXPORTER", "")
	t.Setenv("OTEL_METRICS_EXPORTER", "stdout")

	cfg := DefaultConfig()

	assert.Equal(t, "familytree", cfg.ServiceName)
	assert.Equal(t, ExporterNone, cfg.TraceExporter)
	assert.Equal(t, ExporterStdout, cfg.MetricExporter)
	assert.True(t, cfg.OTLPInsecure)
}

func TestInit_NilContext(t *testing.T) {
	var ctx context.Context

	_, err := Init(ctx, DefaultConfig())
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestInit_NoneIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{
		TraceExporter:  ExporterNone,
		MetricExporter: ExporterNone,
	})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_UnknownExporter(t *testing.T) {
	_, err := Init(context.Background(), Config{TraceExporter: "zipkin"})
	assert.True(t, errors.Is(err, ErrUnknownExporter))

	_, err = Init(context.Background(), Config{MetricExporter: "statsd"})
	assert.True(t, errors.Is(err, ErrUnknownExporter))
}

func TestInit_FailedMeterKeepsPreviousTracer(t *testing.T) {
	restoreGlobals(t)
	before := otel.GetTracerProvider()
	var buf bytes.Buffer

	_, err := Init(context.Background(), Config{
		TraceExporter:  ExporterStdout,
		MetricExporter: "statsd",
		Output:         &buf,
	})

	require.ErrorIs(t, err, ErrUnknownExporter)
	assert.Same(t, before, otel.GetTracerProvider())
}

func TestInit_StdoutTraces(t *testing.T) {
	restoreGlobals(t)
	var buf bytes.Buffer

	shutdown, err := Init(context.Background(), Config{
		ServiceName:   "familytree-test",
		TraceExporter: ExporterStdout,
		Output:        &buf,
	})
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "test", "Querier.cousins")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, buf.String(), "Querier.cousins")
	assert.Contains(t, buf.String(), "familytree-test")
}

func TestInit_PrometheusMetrics(t *testing.T) {
	restoreGlobals(t)

	shutdown, err := Init(context.Background(), Config{
		ServiceName:    "familytree-test",
		MetricExporter: ExporterPrometheus,
	})
	require.NoError(t, err)
	defer func() { _ = shutdown(context.Background()) }()

	counter, err := Meter("test").Int64Counter("loader.records")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	handler := MetricsHandler()
	require.NotNil(t, handler)

	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "loader_records")
}

func TestRecordErrorAndSetSpanOK(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	_, failed := tracer.Start(context.Background(), "failed")
	RecordError(failed, errors.New("boom"))
	failed.End()

	_, ok := tracer.Start(context.Background(), "ok")
	SetSpanOK(ok)
	ok.End()

	// Nil inputs are ignored.
	RecordError(nil, errors.New("ignored"))
	RecordError(ok, nil)
	SetSpanOK(nil)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)
	assert.Equal(t, codes.Ok, spans[1].Status().Code)
}
