// Package apperr defines the error taxonomy shared by the generation and
// evaluation pipelines. Every error carries a stable kind, a human-readable
// message and a structured details payload so callers can render a precise
// diagnostic without digging through logs.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	// KindModel: the upstream generation call failed (network, provider, quota).
	KindModel Kind = "model_error"
	// KindJSONParse: the model output could not be recovered as JSON.
	KindJSONParse Kind = "json_parse_error"
	// KindValidation: a generated object or caller input is structurally
	// non-conformant. Details carries the full violation list.
	KindValidation Kind = "validation_error"
	// KindConfiguration: a required secret or setting is absent at startup.
	// Never retried; aborts initialization.
	KindConfiguration Kind = "configuration_error"
)

type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string, details map[string]any) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}

func Wrap(kind Kind, message string, details map[string]any, err error) *Error {
	return &Error{Kind: kind, Message: message, Details: details, Err: err}
}

// Model builds a KindModel error carrying a truncated prompt preview.
func Model(err error, promptPreview string) *Error {
	return &Error{
		Kind:    KindModel,
		Message: err.Error(),
		Details: map[string]any{"prompt_preview": promptPreview},
		Err:     err,
	}
}

// Validation builds a KindValidation error from an accumulated violation list.
func Validation(message string, violations []string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: message,
		Details: map[string]any{"errors": violations},
	}
}

// InvalidInput builds a KindValidation error for bad caller input, as
// opposed to a non-conformant generated object. Input errors map to 4xx at
// the HTTP boundary and are never retried.
func InvalidInput(message string, details map[string]any) *Error {
	if details == nil {
		details = map[string]any{}
	}
	details["input"] = true
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

// IsInput reports whether a validation error was caused by caller input.
func (e *Error) IsInput() bool {
	if e.Details == nil {
		return false
	}
	v, _ := e.Details["input"].(bool)
	return v
}

// Violations returns the violation list of a KindValidation error, or nil.
func (e *Error) Violations() []string {
	if e.Kind != KindValidation || e.Details == nil {
		return nil
	}
	switch v := e.Details["errors"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	}
	return nil
}

// As unwraps err into an *Error if possible.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}
