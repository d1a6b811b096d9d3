// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation for security-critical values.
//
// Dataset IDs, subject IDs, profile names and column names flow into Badger
// keys, Flux queries and output file paths. Validating them here prevents
// Flux injection and path traversal from user-supplied request bodies.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// namePattern matches profile, domain and therapeutic-area names:
// lowercase snake_case, 1-64 chars, starting with a letter.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// columnPattern matches dataset column names. Uppercase CDISC-style names
// (USUBJID, AESEV) and snake_case both pass.
var columnPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,63}$`)

// subjectPattern matches generated subject identifiers: an uppercase
// site prefix, a dash, and a UUID.
var subjectPattern = regexp.MustCompile(`^S[0-9]{3}-[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidateDatasetID checks that id is a canonical UUID string.
//
// Dataset IDs are used verbatim in Badger keys, so anything that is not a
// UUID is rejected before it reaches storage.
func ValidateDatasetID(id string) error {
	if id == "" {
		return fmt.Errorf("dataset id cannot be empty")
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid dataset id %q: %w", id, err)
	}
	if parsed.String() != strings.ToLower(id) {
		return fmt.Errorf("dataset id %q is not in canonical form", id)
	}
	return nil
}

// ValidateName checks a profile, domain or benchmark-area name.
//
// Valid names are lowercase snake_case, 1-64 characters, and start with
// a letter, e.g. "hypertension_phase3" or "adverse_events".
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid name %q (must be lowercase snake_case, max 64 chars)", name)
	}
	return nil
}

// ValidateColumn checks a dataset column name before it is interpolated
// into a Flux filter or used as a CSV header.
func ValidateColumn(name string) error {
	if name == "" {
		return fmt.Errorf("column name cannot be empty")
	}
	if !columnPattern.MatchString(name) {
		return fmt.Errorf("invalid column name %q", name)
	}
	return nil
}

// ValidateColumns checks multiple column names and reports every invalid
// one in a single error.
func ValidateColumns(names []string) error {
	var invalid []string
	for _, n := range names {
		if err := ValidateColumn(n); err != nil {
			invalid = append(invalid, n)
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid column names: %v", invalid)
	}
	return nil
}

// ValidateSubjectID checks a generated subject identifier such as
// "S001-7c2e...". Subject IDs appear as Flux tag filters for vitals
// queries.
func ValidateSubjectID(id string) error {
	if id == "" {
		return fmt.Errorf("subject id cannot be empty")
	}
	if !subjectPattern.MatchString(id) {
		return fmt.Errorf("invalid subject id %q", id)
	}
	return nil
}

// SanitizeName normalizes and validates a name in one call, returning
// the lowercase trimmed value.
func SanitizeName(name string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if err := ValidateName(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
