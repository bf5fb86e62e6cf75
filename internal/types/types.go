// Package types holds the shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// the menu, the importer, validation and storage all import types without
// depending on each other.
package types

import "strings"

// Student is a persisted roster record.
//
// ID is assigned by the database on insert and never changes afterwards,
// so a Student value always carries a real ID.
type Student struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// NewStudent is the transfer object handed to storage when adding a
// student. It deliberately has no ID field: a student that has not been
// inserted yet has no ID, and the type says so.
//
// validate:"required" is checked by go-playground/validator and rejects
// empty strings.
type NewStudent struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"  validate:"required"`
}

// Normalize returns a copy with surrounding whitespace removed from both
// names, so "  " counts as empty.
func (n NewStudent) Normalize() NewStudent {
	return NewStudent{
		FirstName: strings.TrimSpace(n.FirstName),
		LastName:  strings.TrimSpace(n.LastName),
	}
}
