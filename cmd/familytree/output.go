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
	"encoding/json"
	"fmt"
	"io"

	"github.com/AleutianAI/familytree/cmd/familytree/internal/loader"
	"github.com/AleutianAI/familytree/services/family"
)

// renderer is implemented by family.GroupReport and family.HeightReport.
type renderer interface {
	Render(w io.Writer) error
}

func (a *app) printReport(r renderer) error {
	if a.jsonOutput {
		return a.printJSON(r)
	}
	return r.Render(a.stdout)
}

func (a *app) printPersons(persons []family.PersonSummary) error {
	if a.jsonOutput {
		return a.printJSON(persons)
	}
	for _, p := range persons {
		if _, err := fmt.Fprintf(a.stdout, "%s, %d\n", p.ID, p.Height); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) printSummary(path string, s loader.Summary) error {
	if a.jsonOutput {
		return a.printJSON(s)
	}
	_, err := fmt.Fprintf(a.stdout,
		"%s: %d persons, %d relations, %d duplicates, %d missing children, %d unknown parents\n",
		path, s.Persons, s.Relations, s.Duplicates, s.MissingChildren, s.UnknownParents)
	return err
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
