package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the categories of document generation errors
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeMissingData
	ErrorTypeTemplateLoad
	ErrorTypeTemplateSyntax
	ErrorTypeImageDecode
	ErrorTypeRender
)

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeMissingData:
		return "MISSING_DATA"
	case ErrorTypeTemplateLoad:
		return "TEMPLATE_LOAD"
	case ErrorTypeTemplateSyntax:
		return "TEMPLATE_SYNTAX"
	case ErrorTypeImageDecode:
		return "IMAGE_DECODE"
	case ErrorTypeRender:
		return "RENDER"
	default:
		return "UNKNOWN"
	}
}

// MissingDataError is returned when the form record or the signature has not
// been captured yet. Step names the wizard step that has to be revisited.
type MissingDataError struct {
	Field string `json:"field"`
	Step  string `json:"step"`
}

func (e *MissingDataError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("[%s] %s is missing (complete the %q step first)", ErrorTypeMissingData, e.Field, e.Step)
	}
	return fmt.Sprintf("[%s] %s is missing", ErrorTypeMissingData, e.Field)
}

// NewMissingDataError creates a MissingDataError for the given field
func NewMissingDataError(field, step string) *MissingDataError {
	return &MissingDataError{Field: field, Step: step}
}

// TemplateLoadError reports that the template asset could not be obtained
type TemplateLoadError struct {
	Source string `json:"source"`
	Err    error  `json:"-"`
}

func (e *TemplateLoadError) Error() string {
	return fmt.Sprintf("[%s] cannot load template %s: %v", ErrorTypeTemplateLoad, e.Source, e.Err)
}

func (e *TemplateLoadError) Unwrap() error {
	return e.Err
}

// NewTemplateLoadError wraps err as a TemplateLoadError for source
func NewTemplateLoadError(source string, err error) *TemplateLoadError {
	return &TemplateLoadError{Source: source, Err: err}
}

// TemplateSyntaxError describes a malformed or unresolved placeholder.
// Offset is the byte offset into File, or -1 when the problem has no
// location (for example a data entry without a matching placeholder).
type TemplateSyntaxError struct {
	File        string `json:"file"`
	Offset      int64  `json:"offset"`
	Context     string `json:"context,omitempty"`
	Tag         string `json:"tag,omitempty"`
	Explanation string `json:"explanation"`
}

func (e *TemplateSyntaxError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", ErrorTypeTemplateSyntax, e.Explanation)
	if e.File != "" {
		fmt.Fprintf(&b, " in %s", e.File)
	}
	if e.Offset >= 0 {
		fmt.Fprintf(&b, " at offset %d", e.Offset)
	}
	if e.Context != "" {
		fmt.Fprintf(&b, ": %q", e.Context)
	}
	return b.String()
}

// NewTemplateSyntaxError creates a TemplateSyntaxError without location
func NewTemplateSyntaxError(file, explanation string) *TemplateSyntaxError {
	return &TemplateSyntaxError{File: file, Offset: -1, Explanation: explanation}
}

// WithLocation adds the byte offset and surrounding context
func (e *TemplateSyntaxError) WithLocation(offset int64, context string) *TemplateSyntaxError {
	e.Offset = offset
	e.Context = context
	return e
}

// WithTag records the placeholder name involved
func (e *TemplateSyntaxError) WithTag(tag string) *TemplateSyntaxError {
	e.Tag = tag
	return e
}

// ImageDecodeError reports a signature that cannot be turned into image bytes
type ImageDecodeError struct {
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

func (e *ImageDecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", ErrorTypeImageDecode, e.Reason, e.Err)
	}
	return fmt.Sprintf("[%s] %s", ErrorTypeImageDecode, e.Reason)
}

func (e *ImageDecodeError) Unwrap() error {
	return e.Err
}

// NewImageDecodeError creates an ImageDecodeError
func NewImageDecodeError(reason string, err error) *ImageDecodeError {
	return &ImageDecodeError{Reason: reason, Err: err}
}

// RenderError reports a failure while emitting the final document bytes
type RenderError struct {
	Format string `json:"format"`
	Err    error  `json:"-"`
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("[%s] cannot render %s: %v", ErrorTypeRender, e.Format, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// NewRenderError wraps err as a RenderError for format
func NewRenderError(format string, err error) *RenderError {
	return &RenderError{Format: format, Err: err}
}

// TypeOf classifies err by the first typed error found in its chain
func TypeOf(err error) ErrorType {
	var (
		missing *MissingDataError
		load    *TemplateLoadError
		syntax  *TemplateSyntaxError
		decode  *ImageDecodeError
		render  *RenderError
	)
	switch {
	case err == nil:
		return ErrorTypeUnknown
	case errors.As(err, &missing):
		return ErrorTypeMissingData
	case errors.As(err, &load):
		return ErrorTypeTemplateLoad
	case errors.As(err, &syntax):
		return ErrorTypeTemplateSyntax
	case errors.As(err, &decode):
		return ErrorTypeImageDecode
	case errors.As(err, &render):
		return ErrorTypeRender
	default:
		return ErrorTypeUnknown
	}
}

// SyntaxErrors flattens err (which may be a joined error) into every
// TemplateSyntaxError it carries, in order.
func SyntaxErrors(err error) []*TemplateSyntaxError {
	if err == nil {
		return nil
	}
	var out []*TemplateSyntaxError
	if multi, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range multi.Unwrap() {
			out = append(out, SyntaxErrors(e)...)
		}
		return out
	}
	if syntax, ok := err.(*TemplateSyntaxError); ok {
		return append(out, syntax)
	}
	if inner := errors.Unwrap(err); inner != nil {
		return SyntaxErrors(inner)
	}
	return out
}
