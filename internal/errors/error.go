package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Category represents the type of error.
type Category string

const (
	CategoryRender     Category = "render"
	CategoryValidation Category = "validation"
	CategoryDelivery   Category = "delivery"
	CategoryHandler    Category = "handler"
	CategoryStartup    Category = "startup"
	CategoryConfig     Category = "config"
	CategoryCLI        Category = "cli"
)

// Location represents a source code location.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// TauError is a structured error with a code, an optional source location
// and a fix suggestion.
type TauError struct {
	// Code is a unique error identifier (e.g., "E200").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation, for example compiler output.
	Detail string

	// Location is the source location the error points at, if any.
	Location *Location

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *TauError) Error() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Wrapped != nil {
		b.WriteString(": ")
		b.WriteString(e.Wrapped.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *TauError) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds a source location to the error.
func (e *TauError) WithLocation(file string, line, column int) *TauError {
	e.Location = &Location{File: file, Line: line, Column: column}
	return e
}

// WithLocationFromOutput extracts the first "file.go:line:col:" location
// from Go toolchain output.
func (e *TauError) WithLocationFromOutput(output string) *TauError {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 4)
		if len(parts) < 3 || !strings.HasSuffix(parts[0], ".go") {
			continue
		}
		var ln, col int
		fmt.Sscanf(parts[1], "%d", &ln)
		fmt.Sscanf(parts[2], "%d", &col)
		if ln > 0 {
			e.Location = &Location{File: parts[0], Line: ln, Column: col}
			return e
		}
	}
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *TauError) WithSuggestion(s string) *TauError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *TauError) WithDetail(d string) *TauError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *TauError) Wrap(err error) *TauError {
	e.Wrapped = err
	return e
}

// New creates a TauError from a registered error code.
func New(code string) *TauError {
	template, ok := registry[code]
	if !ok {
		return &TauError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &TauError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a TauError with a formatted message and no code.
func Newf(category Category, format string, args ...any) *TauError {
	return &TauError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a TauError. An error that already
// contains a TauError is returned as that TauError.
func FromError(err error, code string) *TauError {
	if err == nil {
		return nil
	}
	var te *TauError
	if errors.As(err, &te) {
		return te
	}
	return New(code).Wrap(err)
}

// Is reports whether err carries a TauError with the given code.
func Is(err error, code string) bool {
	var te *TauError
	if !errors.As(err, &te) {
		return false
	}
	return te.Code == code
}

// CategoryOf returns the category of the TauError in err, or "".
func CategoryOf(err error) Category {
	var te *TauError
	if !errors.As(err, &te) {
		return ""
	}
	return te.Category
}
