// Package validate turns go-playground/validator struct checks into
// readable errors.
//
// The validator package returns one FieldError per failing struct field.
// Each one is converted to a plain English sentence and the sentences are
// joined with ", ", so callers get a single descriptive message such as:
//
//	field FirstName is required, field LastName is required
package validate

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aanand-mishra/student-roster/internal/types"
	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// validate returns the shared validator. validator.Validate caches struct
// metadata, so building it once is enough.
func validate() *validator.Validate {
	once.Do(func() {
		instance = validator.New()
	})
	return instance
}

// Error reports every field that failed validation.
type Error struct {
	Messages []string
}

func (e *Error) Error() string {
	return strings.Join(e.Messages, ", ")
}

// Struct checks all validate:"..." tags on v. It returns nil when v is
// valid and an *Error otherwise.
func Struct(v any) error {
	err := validate().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// InvalidValidationError: v was not a struct.
		return fmt.Errorf("validate: %w", err)
	}

	return &Error{Messages: messages(fieldErrs)}
}

// NewStudent normalizes and validates the transfer object used for inserts.
// The normalized value is returned so the caller stores exactly what was
// validated.
func NewStudent(student types.NewStudent) (types.NewStudent, error) {
	student = student.Normalize()
	if err := Struct(student); err != nil {
		return student, err
	}
	return student, nil
}

func messages(errs validator.ValidationErrors) []string {
	msgs := make([]string, 0, len(errs))

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is required", e.Field()))
		case "oneof":
			msgs = append(msgs,
				fmt.Sprintf("field %s must be one of [%s]", e.Field(), e.Param()))
		case "gt":
			msgs = append(msgs,
				fmt.Sprintf("field %s must be greater than %s", e.Field(), e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return msgs
}
