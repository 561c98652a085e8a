package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig    Category = "config"
	CategoryManifest  Category = "manifest"
	CategoryBuild     Category = "build"
	CategoryTransport Category = "transport"
	CategoryHost      Category = "host"
	CategoryStorage   Category = "storage"
	CategoryImport    Category = "import"
	CategoryCLI       Category = "cli"
)

// PluginError is a structured error with a code, suggestion and cause.
type PluginError struct {
	// Code is a unique error identifier (e.g., "P001").
	Code string

	// Category is the error type (config, manifest, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of this occurrence.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *PluginError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *PluginError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a PluginError with the same code.
func (e *PluginError) Is(target error) bool {
	t, ok := target.(*PluginError)
	if !ok || t.Code == "" {
		return false
	}
	return t.Code == e.Code
}

// WithSuggestion adds a fix suggestion to the error.
func (e *PluginError) WithSuggestion(s string) *PluginError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *PluginError) WithDetail(d string) *PluginError {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted detail to the error.
func (e *PluginError) WithDetailf(format string, args ...any) *PluginError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *PluginError) Wrap(err error) *PluginError {
	e.Wrapped = err
	return e
}

// New creates a PluginError from a registered error code.
func New(code string) *PluginError {
	template, ok := registry[code]
	if !ok {
		return &PluginError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &PluginError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new PluginError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *PluginError {
	return &PluginError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a PluginError.
// An error that already is a *PluginError is returned unchanged.
func FromError(err error, code string) *PluginError {
	if err == nil {
		return nil
	}
	if pe, ok := err.(*PluginError); ok {
		return pe
	}
	return New(code).Wrap(err)
}
