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
	"fmt"
)

// Sentinel errors for registry and query operations.
var (
	// ErrPersonAlreadyExists is returned by AddPerson for a duplicate id.
	// The registry is left unchanged.
	ErrPersonAlreadyExists = errors.New("person already added")

	// ErrPersonNotFound is returned when a query subject or a relation
	// child is not registered.
	ErrPersonNotFound = errors.New("person not found")

	// ErrWrongLevel is returned by level queries when level < 1.
	ErrWrongLevel = errors.New("level can't be less than 1")

	// ErrInvalidID is returned by AddPerson for an empty id.
	ErrInvalidID = errors.New("person id must not be empty")
)

// PersonNotFoundError provides the id that could not be resolved.
type PersonNotFoundError struct {
	ID string
}

// Error implements the error interface.
func (e *PersonNotFoundError) Error() string {
	return fmt.Sprintf("person %q not found", e.ID)
}

// Unwrap returns the sentinel error.
func (e *PersonNotFoundError) Unwrap() error {
	return ErrPersonNotFound
}

// PersonAlreadyExistsError provides the duplicated id.
type PersonAlreadyExistsError struct {
	ID string
}

// Error implements the error interface.
func (e *PersonAlreadyExistsError) Error() string {
	return fmt.Sprintf("person %q already added", e.ID)
}

// Unwrap returns the sentinel error.
func (e *PersonAlreadyExistsError) Unwrap() error {
	return ErrPersonAlreadyExists
}

// WrongLevelError provides the rejected level.
type WrongLevelError struct {
	Level int
}

// Error implements the error interface.
func (e *WrongLevelError) Error() string {
	return fmt.Sprintf("level %d: %v", e.Level, ErrWrongLevel)
}

// Unwrap returns the sentinel error.
func (e *WrongLevelError) Unwrap() error {
	return ErrWrongLevel
}
