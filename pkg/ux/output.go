// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the familytree CLI.
package ux

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Palette
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7")
	ColorTealPrimary = lipgloss.Color("#20B9B4")
	ColorSlate       = lipgloss.Color("#2C4A54")

	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// ColorMode selects when styled output is used.
type ColorMode string

const (
	// ColorAuto styles output only when the writer is a terminal.
	ColorAuto ColorMode = "auto"

	// ColorAlways styles output even when redirected.
	ColorAlways ColorMode = "always"

	// ColorNever disables styling.
	ColorNever ColorMode = "never"
)

// ParseColorMode converts a configuration string to a ColorMode.
func ParseColorMode(s string) (ColorMode, error) {
	switch mode := ColorMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return mode, nil
	default:
		return ColorAuto, fmt.Errorf("unknown color mode %q", s)
	}
}

// Styler renders text for one output stream.
//
// When styling is disabled every method returns its input unchanged, so
// redirected output and golden files never contain escape sequences.
type Styler struct {
	enabled bool

	title   lipgloss.Style
	prompt  lipgloss.Style
	muted   lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
}

// NewStyler creates a Styler for out.
//
// In ColorAuto mode styling is enabled only when out is an *os.File
// attached to a terminal.
func NewStyler(out io.Writer, mode ColorMode) *Styler {
	enabled := false
	switch mode {
	case ColorAlways:
		enabled = true
	case ColorNever:
		enabled = false
	default:
		enabled = IsTerminal(out)
	}

	r := lipgloss.NewRenderer(out)
	if enabled {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	return &Styler{
		enabled: enabled,
		title:   r.NewStyle().Bold(true).Foreground(ColorTealBright),
		prompt:  r.NewStyle().Foreground(ColorTealPrimary),
		muted:   r.NewStyle().Foreground(ColorSlate),
		warning: r.NewStyle().Foreground(ColorWarning),
		err:     r.NewStyle().Foreground(ColorError),
	}
}

// Title styles a heading.
func (s *Styler) Title(text string) string { return s.render(s.title, text) }

// Prompt styles the interactive prompt.
func (s *Styler) Prompt(text string) string { return s.render(s.prompt, text) }

// Muted styles secondary text.
func (s *Styler) Muted(text string) string { return s.render(s.muted, text) }

// Warning styles a warning line.
func (s *Styler) Warning(text string) string { return s.render(s.warning, text) }

// Error styles an error line.
func (s *Styler) Error(text string) string { return s.render(s.err, text) }

func (s *Styler) render(style lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return style.Render(text)
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
