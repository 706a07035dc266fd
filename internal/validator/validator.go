// Package validator provides request validation using go-playground/validator.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator with JSON field naming.
type Validator struct {
	v *validator.Validate
}

// ValidationError represents a single field validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (ve ValidationErrors) Error() string {
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = e.Message
	}

	return strings.Join(msgs, "; ")
}

// New creates a new Validator. Errors name fields by their JSON key.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}

		return name
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns ValidationErrors if it is invalid.
func (v *Validator) Validate(i interface{}) error {
	err := v.v.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	errs := make(ValidationErrors, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		errs = append(errs, ValidationError{
			Field:   e.Field(),
			Tag:     e.Tag(),
			Value:   valueString(e),
			Message: formatErrorMessage(e),
		})
	}

	return errs
}

// valueString renders the rejected value, truncated to keep responses small.
func valueString(e validator.FieldError) string {
	const maxLen = 64

	switch e.Kind() {
	case reflect.Slice, reflect.Map, reflect.Struct:
		return ""
	}

	s := fmt.Sprintf("%v", e.Value())
	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}

	return s
}

// formatErrorMessage generates a human-readable error message.
func formatErrorMessage(e validator.FieldError) string {
	field := e.Field()
	counted := e.Kind() == reflect.Slice || e.Kind() == reflect.Map

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if counted {
			return fmt.Sprintf("%s must contain at least %s items", field, e.Param())
		}

		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		if counted {
			return fmt.Sprintf("%s must contain at most %s items", field, e.Param())
		}

		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, e.Tag())
	}
}
