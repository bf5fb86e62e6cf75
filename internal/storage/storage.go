// Package storage defines the Storage interface: the contract any roster
// backend must satisfy to work with the menu and the importer.
//
// The menu loop only depends on this interface, so tests can drive it with
// a fake and the SQLite implementation stays swappable.
package storage

import (
	"iter"

	"github.com/aanand-mishra/student-roster/internal/types"
)

// Storage is the roster contract.
type Storage interface {
	// AddStudent validates and inserts a new student and returns the
	// ID assigned by the database.
	AddStudent(firstName, lastName string) (int64, error)

	// GetStudent fetches a single student by primary key. A missing
	// student is reported with an error matching ErrNotFound.
	GetStudent(id int64) (types.Student, error)

	// ListStudents returns a lazy, one-shot sequence over every student
	// in storage order. A failure is yielded as the last pair.
	ListStudents() iter.Seq2[types.Student, error]
}

// Collect drains seq into a slice. On failure the students read so far are
// discarded and only the error is returned. An empty roster yields an empty,
// non-nil slice.
func Collect(seq iter.Seq2[types.Student, error]) ([]types.Student, error) {
	students := make([]types.Student, 0)

	for student, err := range seq {
		if err != nil {
			return nil, err
		}
		students = append(students, student)
	}

	return students, nil
}
