package storage

import (
	"errors"
	"fmt"

	"github.com/orsinium-labs/enum"
)

// Kind classifies a storage failure.
type Kind enum.Member[string]

var (
	KindStorageUnavailable = Kind{Value: "storage unavailable"}
	KindOpenFailed         = Kind{Value: "open failed"}
	KindSchemaError        = Kind{Value: "schema error"}
	KindValidation         = Kind{Value: "validation error"}
	KindInsertFailed       = Kind{Value: "insert failed"}
	KindNotFound           = Kind{Value: "not found"}
	KindQueryFailed        = Kind{Value: "query failed"}

	Kinds = enum.New(
		KindStorageUnavailable,
		KindOpenFailed,
		KindSchemaError,
		KindValidation,
		KindInsertFailed,
		KindNotFound,
		KindQueryFailed,
	)

	// expectedKinds are outcomes of user input, not faults of the store.
	expectedKinds = enum.New(KindNotFound, KindValidation)
)

func (k Kind) String() string {
	return k.Value
}

// Expected reports whether k describes a miss or rejected input rather
// than a broken database. Callers log expected failures as warnings.
func (k Kind) Expected() bool {
	return expectedKinds.Contains(k)
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrStorageUnavailable = &Error{Kind: KindStorageUnavailable}
	ErrOpenFailed         = &Error{Kind: KindOpenFailed}
	ErrSchema             = &Error{Kind: KindSchemaError}
	ErrValidation         = &Error{Kind: KindValidation}
	ErrInsertFailed       = &Error{Kind: KindInsertFailed}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrQueryFailed        = &Error{Kind: KindQueryFailed}
)

// Error is returned by every storage operation that fails. Op names the
// operation (e.g. "AddStudent") and Err carries the underlying cause, if any.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// E builds an *Error.
func E(op string, kind Kind, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return e.Kind.Value
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind.Value)
	case e.Op == "":
		return fmt.Sprintf("%s: %v", e.Kind.Value, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind.Value, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var serr *Error
	if errors.As(err, &serr) {
		return serr.Kind, true
	}
	return Kind{}, false
}
