// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"fmt"

	"github.com/AleutianAI/familytree/services/family"
)

// Exit codes.
const (
	ExitSuccess = 0 // Success, including empty results
	ExitError   = 1 // Query or load failure
	ExitBadArgs = 2 // Invalid arguments or flags
)

// CommandError attaches an exit code to a command failure.
//
// # Example
//
//	return &CommandError{Command: "grandparents", ExitCode: ExitBadArgs, Wrapped: err}
type CommandError struct {
	// Command is the name of the failing command.
	Command string

	// ExitCode is the process exit code to use.
	ExitCode int

	// Wrapped is the underlying error.
	Wrapped error
}

// Error returns the wrapped error's message.
func (e *CommandError) Error() string {
	if e.Wrapped == nil {
		return fmt.Sprintf("%s failed (exit %d)", e.Command, e.ExitCode)
	}
	return e.Wrapped.Error()
}

// Unwrap returns the underlying error.
func (e *CommandError) Unwrap() error {
	return e.Wrapped
}

// badArgs marks err as a usage error.
func badArgs(command string, err error) error {
	return &CommandError{Command: command, ExitCode: ExitBadArgs, Wrapped: err}
}

// exitCodeFor maps err to a process exit code.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	return ExitError
}

// errorMessage renders err for stderr. Family errors keep their fixed
// phrasing; everything else is prefixed with "Error: ".
func errorMessage(err error) string {
	var notFound *family.PersonNotFoundError
	switch {
	case errors.As(err, &notFound),
		errors.Is(err, family.ErrWrongLevel),
		errors.Is(err, family.ErrPersonAlreadyExists):
		return family.Message(err)
	default:
		return "Error: " + err.Error()
	}
}
