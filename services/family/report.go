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
	"io"
	"strings"
)

// Base relation group names used in reports.
const (
	GroupChildren      = "children"
	GroupParents       = "parents"
	GroupSiblings      = "siblings"
	GroupCousins       = "cousins"
	GroupGrandchildren = "grandchildren"
	GroupGrandparents  = "grandparents"
)

// greatPrefix is repeated level-1 times in front of grand relation names.
const greatPrefix = "great-"

// QualifyGroup prefixes group with level-1 "great-" qualifiers.
//
// Levels below 2 leave the group unchanged:
//
//	QualifyGroup("grandparents", 1) // "grandparents"
//	QualifyGroup("grandparents", 3) // "great-great-grandparents"
func QualifyGroup(group string, level int) string {
	if level < 2 {
		return group
	}
	return strings.Repeat(greatPrefix, level-1) + group
}

// GroupReport is the structured result of a relationship query.
type GroupReport struct {
	// SubjectID is the person the query was about.
	SubjectID string `json:"subject_id"`

	// GroupLabel is the pluralised group name including "great-" qualifiers.
	GroupLabel string `json:"group_label"`

	// MemberIDs lists the members in ascending id order.
	MemberIDs []string `json:"member_ids"`

	// Count is len(MemberIDs).
	Count int `json:"count"`

	// IsEmpty is true when the group has no members.
	IsEmpty bool `json:"is_empty"`
}

// NewGroupReport builds a report for subject from members.
//
// level is only meaningful for grand relations; pass 0 otherwise.
func NewGroupReport(subject, group string, level int, members IDSet) *GroupReport {
	ids := members.Sorted()
	if ids == nil {
		ids = make([]string, 0)
	}
	return &GroupReport{
		SubjectID:  subject,
		GroupLabel: QualifyGroup(group, level),
		MemberIDs:  ids,
		Count:      len(ids),
		IsEmpty:    len(ids) == 0,
	}
}

// Render writes the report in its text form.
//
// Empty groups render as "<id> has no <label>." and populated groups as
// "<id> has <n> <label>:" followed by one member per line.
func (r *GroupReport) Render(w io.Writer) error {
	if r.IsEmpty {
		_, err := fmt.Fprintf(w, "%s has no %s.\n", r.SubjectID, r.GroupLabel)
		return err
	}
	if _, err := fmt.Fprintf(w, "%s has %d %s:\n", r.SubjectID, r.Count, r.GroupLabel); err != nil {
		return err
	}
	for _, id := range r.MemberIDs {
		if _, err := fmt.Fprintln(w, id); err != nil {
			return err
		}
	}
	return nil
}

// String returns the rendered report.
func (r *GroupReport) String() string {
	var sb strings.Builder
	_ = r.Render(&sb)
	return sb.String()
}

// HeightReport is the structured result of a lineage height query.
type HeightReport struct {
	SubjectID    string      `json:"subject_id"`
	ResultID     string      `json:"result_id"`
	ResultHeight int         `json:"result_height"`
	Superlative  Superlative `json:"superlative"`
}

// Render writes the report in its text form.
//
// The subject is referred to as "his/her lineage" when it is the result
// itself, and as "<subject>'s lineage" otherwise.
func (r *HeightReport) Render(w io.Writer) error {
	if r.ResultID == r.SubjectID {
		_, err := fmt.Fprintf(w, "With the height of %d, %s is the %s person in his/her lineage.\n",
			r.ResultHeight, r.ResultID, r.Superlative)
		return err
	}
	_, err := fmt.Fprintf(w, "With the height of %d, %s is the %s person in %s's lineage.\n",
		r.ResultHeight, r.ResultID, r.Superlative, r.SubjectID)
	return err
}

// String returns the rendered report.
func (r *HeightReport) String() string {
	var sb strings.Builder
	_ = r.Render(&sb)
	return sb.String()
}

// Message returns the user-facing line for a query or registry error.
//
// Known errors map to the fixed phrasings of the tool; anything else falls
// back to "Error. <err>.".
func Message(err error) string {
	var notFound *PersonNotFoundError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &notFound):
		return fmt.Sprintf("Error. %s not found.", notFound.ID)
	case errors.Is(err, ErrPersonAlreadyExists):
		return "Error. Person already added."
	case errors.Is(err, ErrWrongLevel):
		return "Error. Level can't be less than 1."
	default:
		return fmt.Sprintf("Error. %v.", err)
	}
}
