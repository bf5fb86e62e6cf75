package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIs(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := fmt.Errorf("menu: %w", E("GetStudent", KindQueryFailed, cause))

	assert.ErrorIs(t, err, ErrQueryFailed)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{name: "kind only", err: ErrNotFound, want: "not found"},
		{name: "with op", err: E("GetStudent", KindNotFound, nil), want: "GetStudent: not found"},
		{name: "with cause", err: &Error{Kind: KindOpenFailed, Err: errors.New("boom")}, want: "open failed: boom"},
		{
			name: "op and cause",
			err:  E("Initialize", KindOpenFailed, errors.New("unable to open database file")),
			want: "Initialize: open failed: unable to open database file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(fmt.Errorf("wrapped: %w", E("AddStudent", KindValidation, nil)))
	assert.True(t, ok)
	assert.Equal(t, KindValidation, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestKindsAreDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range Kinds.Members() {
		assert.False(t, seen[k.Value], "duplicate kind %q", k.Value)
		seen[k.Value] = true
	}
	assert.Equal(t, 7, Kinds.Len())
	assert.True(t, Kinds.Contains(KindNotFound))
}

func TestKindExpected(t *testing.T) {
	for _, k := range Kinds.Members() {
		want := k == KindNotFound || k == KindValidation
		assert.Equal(t, want, k.Expected(), k.String())
	}
}
