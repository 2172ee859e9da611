package errors

import "fmt"

// Codes of the runtime error kinds.
const (
	CodeRender       = "E100"
	CodeValidation   = "E200"
	CodeDelivery     = "E300"
	CodeHandler      = "E400"
	CodeFatalStartup = "E500"
)

// NewRenderError reports a failed navigation or render of path.
func NewRenderError(path string, err error) *TauError {
	return New(CodeRender).
		WithDetail(fmt.Sprintf("rendering %q failed", path)).
		Wrap(err)
}

// NewValidationError reports changed sources that failed to compile.
// output is the raw toolchain output.
func NewValidationError(output string, err error) *TauError {
	return New(CodeValidation).
		WithDetail(output).
		WithLocationFromOutput(output).
		WithSuggestion("Fix the error and save again; the app keeps running the previous build").
		Wrap(err)
}

// NewDeliveryError reports a failed send to one connection.
func NewDeliveryError(connID string, err error) *TauError {
	return New(CodeDelivery).
		WithDetail("connection " + connID).
		Wrap(err)
}

// NewHandlerError reports a handler failure for (widgetID, kind).
func NewHandlerError(widgetID, kind string, err error) *TauError {
	return New(CodeHandler).
		WithDetail(fmt.Sprintf("%s handler of %s", kind, widgetID)).
		Wrap(err)
}

// NewFatalStartupError reports a startup failure that stops the app.
func NewFatalStartupError(detail string, err error) *TauError {
	return New(CodeFatalStartup).
		WithDetail(detail).
		Wrap(err)
}
