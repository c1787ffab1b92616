// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package loader reads family data files into a family.Registry.
//
// Two formats are supported. The semicolon format has one record per line:
//
//	# persons
//	Alice;170
//	Bob;180
//	# relations: child;parent;parent ("-" or empty for unknown)
//	Cara;Alice;Bob
//
// The YAML format lists people with optional parents:
//
//	people:
//	  - {id: Alice, height: 170}
//	  - {id: Cara, height: 160, parents: [Alice, Bob]}
//
// Parent fields in the semicolon format must not be bare integers, which
// catches person lines with a trailing separator.
//
// Parsing is strict: a malformed record stops the load with a *ParseError.
// Applying is lenient: duplicates and relations for unknown children are
// logged, counted in the Summary and skipped.
package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/familytree/services/family"
)

// Format identifies a data file format.
type Format int

const (
	// FormatText is the semicolon separated line format.
	FormatText Format = iota

	// FormatYAML is the "people:" YAML document.
	FormatYAML
)

// String returns "text" or "yaml".
func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "text"
}

// FormatFromPath picks the format by file extension. Anything that is not
// .yaml or .yml is read as text.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatText
	}
}

// unknownParent marks an empty parent slot in data files.
const unknownParent = "-"

// PersonRecord is one person declaration.
type PersonRecord struct {
	Line   int    `validate:"-"`
	ID     string `validate:"familyid"`
	Height int    `validate:"gte=0"`
}

// RelationRecord links a child to up to two parents. Empty parent slots are
// family.NoParent.
type RelationRecord struct {
	Line    int       `validate:"-"`
	Child   string    `validate:"familyid"`
	Parents [2]string `validate:"dive,omitempty,familyid"`
}

// Document is a parsed data file. Persons are always applied before
// relations, whatever their order in the file.
type Document struct {
	Persons   []PersonRecord
	Relations []RelationRecord
}

// ParseError reports a malformed record.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("familyid", validateFamilyID)
	return v
}

// validateFamilyID accepts non-empty ids without whitespace or semicolons.
// "-" is reserved for unknown parents.
func validateFamilyID(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	if id == "" || id == unknownParent {
		return false
	}
	return !strings.ContainsFunc(id, func(r rune) bool {
		return r == ';' || unicode.IsSpace(r)
	})
}

// Parse reads a document in the given format.
func Parse(r io.Reader, format Format) (*Document, error) {
	if format == FormatYAML {
		return ParseYAML(r)
	}
	return ParseText(r)
}

// ParseText reads the semicolon separated format.
func ParseText(r io.Reader) (*Document, error) {
	doc := &Document{}
	scanner := bufio.NewScanner(r)
	line := 0

	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Split(text, ";")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		switch len(fields) {
		case 2:
			height, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, &ParseError{Line: line, Reason: fmt.Sprintf("height %q is not an integer", fields[1])}
			}
			rec := PersonRecord{Line: line, ID: fields[0], Height: height}
			if err := checkRecord(line, rec); err != nil {
				return nil, err
			}
			doc.Persons = append(doc.Persons, rec)

		case 3:
			// "Alice;170;" would otherwise relink Alice to a parent named 170.
			for _, parent := range fields[1:] {
				if _, err := strconv.Atoi(parent); err == nil {
					return nil, &ParseError{Line: line, Reason: fmt.Sprintf("parent %q is a number, person records take 2 fields", parent)}
				}
			}
			rec := RelationRecord{
				Line:    line,
				Child:   fields[0],
				Parents: [2]string{parentSlot(fields[1]), parentSlot(fields[2])},
			}
			if err := checkRecord(line, rec); err != nil {
				return nil, err
			}
			doc.Relations = append(doc.Relations, rec)

		default:
			return nil, &ParseError{Line: line, Reason: fmt.Sprintf("expected 2 or 3 fields, got %d", len(fields))}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	return doc, nil
}

// yamlPerson is one entry of the "people" list.
type yamlPerson struct {
	ID      string   `yaml:"id"`
	Height  int      `yaml:"height"`
	Parents []string `yaml:"parents"`
}

// ParseYAML reads the YAML format. ParseError lines refer to the start of
// the offending list entry.
func ParseYAML(r io.Reader) (*Document, error) {
	var raw struct {
		People []yaml.Node `yaml:"people"`
	}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	doc := &Document{}
	for i := range raw.People {
		node := &raw.People[i]
		var p yamlPerson
		if err := node.Decode(&p); err != nil {
			return nil, &ParseError{Line: node.Line, Reason: err.Error()}
		}
		if len(p.Parents) > 2 {
			return nil, &ParseError{Line: node.Line, Reason: fmt.Sprintf("%s has %d parents, at most 2 allowed", p.ID, len(p.Parents))}
		}

		person := PersonRecord{Line: node.Line, ID: strings.TrimSpace(p.ID), Height: p.Height}
		if err := checkRecord(node.Line, person); err != nil {
			return nil, err
		}
		doc.Persons = append(doc.Persons, person)

		if len(p.Parents) == 0 {
			continue
		}
		rel := RelationRecord{Line: node.Line, Child: person.ID}
		for j, parent := range p.Parents {
			rel.Parents[j] = parentSlot(parent)
		}
		if err := checkRecord(node.Line, rel); err != nil {
			return nil, err
		}
		doc.Relations = append(doc.Relations, rel)
	}
	return doc, nil
}

// parentSlot maps the unknown-parent markers to family.NoParent.
func parentSlot(field string) string {
	field = strings.TrimSpace(field)
	if field == unknownParent {
		return family.NoParent
	}
	return field
}

// checkRecord validates rec and converts the first failure to a ParseError.
func checkRecord(line int, rec any) error {
	err := validate.Struct(rec)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ParseError{Line: line, Reason: fieldReason(fe)}
	}
	return &ParseError{Line: line, Reason: err.Error()}
}

func fieldReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "familyid":
		return fmt.Sprintf("invalid id %q in %s", fe.Value(), fe.Field())
	case "gte":
		return fmt.Sprintf("%s must not be negative", strings.ToLower(fe.Field()))
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
