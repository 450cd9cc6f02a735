package client

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	tests := []struct {
		name     string
		class    ErrorClass
		target   error
		expected bool
	}{
		{"transport matches transport", ErrorClassTransport, ErrTransport, true},
		{"transport is not shape", ErrorClassTransport, ErrShapeMismatch, false},
		{"shape matches shape", ErrorClassShape, ErrShapeMismatch, true},
		{"shape is not empty", ErrorClassShape, ErrEmptyResult, false},
		{"empty matches empty", ErrorClassEmpty, ErrEmptyResult, true},
		{"empty matches shape", ErrorClassEmpty, ErrShapeMismatch, true},
		{"precondition matches precondition", ErrorClassPrecondition, ErrPrecondition, true},
		{"precondition is not transport", ErrorClassPrecondition, ErrTransport, false},
		{"unrelated sentinel", ErrorClassTransport, ErrBaseURLRequired, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", &Error{Op: OpListProjects, Class: tt.class})
			assert.Equal(t, tt.expected, errors.Is(err, tt.target))
		})
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "class only",
			err:      &Error{Op: OpListProjects, Class: ErrorClassEmpty},
			expected: "codebeamer list_projects: empty_result",
		},
		{
			name: "status and message",
			err: &Error{
				Op:         OpDeleteItem,
				Class:      ErrorClassShape,
				StatusCode: 404,
				Message:    "Item is not found",
			},
			expected: "codebeamer delete_item: shape_mismatch (status 404): Item is not found",
		},
		{
			name: "with cause",
			err: &Error{
				Op:    OpCreateItem,
				Class: ErrorClassPrecondition,
				Err:   errors.New("item requires a name and a description"),
			},
			expected: "codebeamer create_item: precondition: item requires a name and a description",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &Error{Op: OpListProjects, Class: ErrorClassTransport, Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestClassOf(t *testing.T) {
	assert.Equal(t, ErrorClassShape, ClassOf(fmt.Errorf("outer: %w", &Error{Class: ErrorClassShape})))
	assert.Equal(t, ErrorClass(""), ClassOf(errors.New("plain")))
	assert.Equal(t, ErrorClass(""), ClassOf(nil))
}
