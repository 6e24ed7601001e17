package core

import (
	"errors"
	"fmt"
	"os"
)

// General error codes
const (
	NOERROR   int = 0
	EMISSING  int = 122 // resource does not exist
	EINVALID  int = 123 // validation failed
	EINTERNAL int = 125 // internal error
)

func errorText(ecode int) string {
	switch ecode {
	case NOERROR:
		return "OK"
	case EMISSING:
		return "not found"
	case EINVALID:
		return "invalid"
	case EINTERNAL:
		return "internal error"
	}
	return "undefined error"
}

// AppError is an error with an associated error code and a user-message.
type AppError interface {
	error
	ErrorCode() int
	UserMessage() string
}

type coreError struct {
	error
	code int
	msg  string
}

func (e coreError) Unwrap() error {
	return e.error
}

func (e coreError) Error() string {
	return fmt.Sprintf("[%d] %v", e.code, e.error)
}

func (e coreError) ErrorCode() int {
	return e.code
}

func (e coreError) UserMessage() string {
	return e.msg
}

var _ AppError = coreError{}

// ErrorWithCode adds an error code to err's error chain.
// Unlike pkg/errors, ErrorWithCode will wrap nil error.
func ErrorWithCode(err error, code int) error {
	if err == nil {
		err = errors.New(errorText(code))
	}
	return coreError{err, code, errorText(code)}
}

// WrapError wraps an error in a core error, featuring an error code and
// a user message.
// If err is nil, an error denoting NOERROR is returned.
func WrapError(err error, code int, format string, v ...interface{}) error {
	if err == nil {
		err = errors.New(errorText(code))
	}
	msg := fmt.Sprintf(format, v...)
	return coreError{err, code, msg}
}

// Code returns the status code associated with an error.
// If no status code is found, it returns EINTERNAL.
// If err is nil, NOERROR is returned.
func Code(err error) (code int) {
	if err == nil {
		return NOERROR
	}
	if e := AppError(nil); errors.As(err, &e) {
		return e.ErrorCode()
	}
	return EINTERNAL
}

// UserMessage returns the user message associated with an error.
// If no message is found, it checks StatusCode and returns that message.
// If err is nil, it returns "".
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if e := AppError(nil); errors.As(err, &e) {
		return e.UserMessage()
	}
	return errorText(Code(err))
}

// Error creates an error with an error code and a user-message.
func Error(code int, format string, v ...interface{}) error {
	return coreError{
		errors.New(errorText(code)),
		code,
		fmt.Sprintf(format, v...),
	}
}

func UserError(err error) {
	if e, ok := err.(AppError); ok {
		fmt.Fprintf(os.Stderr, "[%d] %s\n", e.ErrorCode(), e.UserMessage())
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
}

// --- Conversion error taxonomy ---------------------------------------------
//
// Text-to-path conversion distinguishes a small set of error categories.
// Fatal categories abort the whole document conversion with no partial
// output; recoverable ones are handled where they occur.

// MissingFontError reports that no font could be resolved for a set of CSS
// font properties, or that a glyph was missing in the primary font and every
// configured fallback. Fatal for a document conversion.
type MissingFontError struct {
	Family string
	Weight int
	Style  string
	Detail string
}

func (e MissingFontError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("font %q (weight=%d style=%s): %s", e.Family, e.Weight, e.Style, e.Detail)
	}
	return fmt.Sprintf("font %q (weight=%d style=%s) not found", e.Family, e.Weight, e.Style)
}

// ErrorCode returns EMISSING.
func (e MissingFontError) ErrorCode() int { return EMISSING }

// UserMessage implements AppError.
func (e MissingFontError) UserMessage() string { return e.Error() }

var _ AppError = MissingFontError{}

// ShapingError reports a failure inside the shaping engine, e.g. a malformed
// font table. Not recoverable mid-run; fatal for the document.
type ShapingError struct {
	Font string
	Err  error
}

func (e ShapingError) Error() string {
	return fmt.Sprintf("shaping with font %q failed: %v", e.Font, e.Err)
}

func (e ShapingError) Unwrap() error { return e.Err }

// ErrorCode returns EINTERNAL.
func (e ShapingError) ErrorCode() int { return EINTERNAL }

// UserMessage implements AppError.
func (e ShapingError) UserMessage() string { return e.Error() }

var _ AppError = ShapingError{}

// GlyphNotFoundError reports a glyph id without outline data in a font.
// Recoverable: the affected span is reshaped once with a fallback font;
// if that fails too, it escalates to MissingFontError.
type GlyphNotFoundError struct {
	Font string
	GID  uint16
}

func (e GlyphNotFoundError) Error() string {
	return fmt.Sprintf("glyph %d not found in font %q", e.GID, e.Font)
}

// ErrorCode returns EMISSING.
func (e GlyphNotFoundError) ErrorCode() int { return EMISSING }

// UserMessage implements AppError.
func (e GlyphNotFoundError) UserMessage() string { return e.Error() }

var _ AppError = GlyphNotFoundError{}

// LayoutInputError reports malformed positional attributes on a text node.
// Note that x/y/dx/dy/rotate lists shorter than the character count are not
// an error: the last list value is reused for remaining characters.
type LayoutInputError struct {
	Attr   string
	Detail string
}

func (e LayoutInputError) Error() string {
	return fmt.Sprintf("layout input, attribute %q: %s", e.Attr, e.Detail)
}

// ErrorCode returns EINVALID.
func (e LayoutInputError) ErrorCode() int { return EINVALID }

// UserMessage implements AppError.
func (e LayoutInputError) UserMessage() string { return e.Error() }

var _ AppError = LayoutInputError{}

// PathGeometryError reports an invalid or empty `d` attribute on a textPath
// target. It degrades gracefully: characters bound to the path are hidden,
// the rest of the document converts normally.
type PathGeometryError struct {
	PathID string
	Detail string
}

func (e PathGeometryError) Error() string {
	return fmt.Sprintf("path geometry %q: %s", e.PathID, e.Detail)
}

// ErrorCode returns EINVALID.
func (e PathGeometryError) ErrorCode() int { return EINVALID }

// UserMessage implements AppError.
func (e PathGeometryError) UserMessage() string { return e.Error() }

var _ AppError = PathGeometryError{}
