// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

// Config is the top-level familytree.yaml structure.
type Config struct {
	// DataFile is loaded into the registry before any command runs.
	DataFile  string          `yaml:"data_file"`
	Logging   LoggingConfig   `yaml:"logging"`
	REPL      REPLConfig      `yaml:"repl"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
}

type REPLConfig struct {
	Prompt string `yaml:"prompt"`
	Color  string `yaml:"color" validate:"omitempty,oneof=auto always never"`

	// Watch reloads DataFile between commands after it changes on disk.
	Watch bool `yaml:"watch"`
}

// TelemetryConfig selects exporters. Empty fields defer to the standard
// OTEL_TRACES_EXPORTER, OTEL_METRICS_EXPORTER and OTEL_EXPORTER_OTLP_ENDPOINT
// variables, and exporters are off when those are unset too.
type TelemetryConfig struct {
	TraceExporter  string `yaml:"trace_exporter" validate:"omitempty,oneof=none stdout otlp"`
	MetricExporter string `yaml:"metric_exporter" validate:"omitempty,oneof=none stdout prometheus"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`

	// MetricsAddr is where /metrics is served when MetricExporter is
	// "prometheus". Empty disables the listener.
	MetricsAddr string `yaml:"metrics_addr"`
}

// DefaultConfig returns the configuration written by "familytree init-config".
func DefaultConfig() Config {
	return Config{
		DataFile: "",
		Logging: LoggingConfig{
			Level: "warn",
		},
		REPL: REPLConfig{
			Prompt: "> ",
			Color:  "auto",
		},
		Telemetry: TelemetryConfig{
		},
	}
}
