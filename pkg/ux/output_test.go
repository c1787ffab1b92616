// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseColorMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ColorMode
		wantErr bool
	}{
		{"", ColorAuto, false},
		{"auto", ColorAuto, false},
		{"ALWAYS", ColorAlways, false},
		{" never ", ColorNever, false},
		{"sometimes", ColorAuto, true},
	}
	for _, tt := range tests {
		got, err := ParseColorMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseColorMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseColorMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStyler_AutoOnBufferIsPlain(t *testing.T) {
	var buf bytes.Buffer
	s := NewStyler(&buf, ColorAuto)

	for _, got := range []string{
		s.Title("t"), s.Prompt("t"), s.Muted("t"), s.Warning("t"), s.Error("t"),
	} {
		if got != "t" {
			t.Errorf("plain styler returned %q", got)
		}
	}
}

func TestStyler_Never(t *testing.T) {
	s := NewStyler(&bytes.Buffer{}, ColorNever)
	if got := s.Error("Error. Ghost not found."); got != "Error. Ghost not found." {
		t.Errorf("Error() = %q", got)
	}
}

func TestStyler_AlwaysAddsEscapes(t *testing.T) {
	s := NewStyler(&bytes.Buffer{}, ColorAlways)

	got := s.Error("boom")
	if !strings.Contains(got, "boom") || !strings.Contains(got, "\x1b[") {
		t.Errorf("Error() = %q, want ANSI styled text", got)
	}
}

func TestIsTerminal_NonFile(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("IsTerminal(bytes.Buffer) = true")
	}
}
