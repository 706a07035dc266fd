package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string   `json:"name" validate:"required,max=5"`
	Items []string `json:"items" validate:"min=1,max=2"`
	Plain string   `validate:"omitempty,oneof=a b"`
}

func TestValidate_Valid(t *testing.T) {
	v := New()

	err := v.Validate(&sample{Name: "go", Items: []string{"x"}})

	assert.NoError(t, err)
}

func TestValidate_Messages(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		in      sample
		field   string
		message string
	}{
		{"required", sample{Items: []string{"x"}}, "name", "name is required"},
		{"string max", sample{Name: "toolong", Items: []string{"x"}}, "name", "name must be at most 5 characters"},
		{"slice min", sample{Name: "go", Items: []string{}}, "items", "items must contain at least 1 items"},
		{"slice max", sample{Name: "go", Items: []string{"a", "b", "c"}}, "items", "items must contain at most 2 items"},
		{"untagged field keeps go name", sample{Name: "go", Items: []string{"x"}, Plain: "c"}, "Plain", "Plain must be one of: a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.in)
			require.Error(t, err)

			errs, ok := err.(ValidationErrors)
			require.True(t, ok)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
			assert.Equal(t, tt.message, errs[0].Message)
		})
	}
}

func TestValidate_TruncatesLongValues(t *testing.T) {
	v := New()

	err := v.Validate(&sample{Name: strings.Repeat("x", 100), Items: []string{"x"}})
	require.Error(t, err)

	errs := err.(ValidationErrors)
	assert.Len(t, errs[0].Value, 67)
	assert.True(t, strings.HasSuffix(errs[0].Value, "..."))
}

func TestValidate_NotAStruct(t *testing.T) {
	v := New()

	err := v.Validate("just a string")

	require.Error(t, err)
	_, ok := err.(ValidationErrors)
	assert.False(t, ok)
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{{Message: "a is required"}, {Message: "b is required"}}

	assert.Equal(t, "a is required; b is required", errs.Error())
}
