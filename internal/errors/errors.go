package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mcncl/gridcall/internal/models"
)

// Standard application errors
var (
	ErrEmptyInput      = errors.New("input is empty or contains only whitespace")
	ErrInvalidJSON     = errors.New("invalid JSON format")
	ErrMultipleJSON    = errors.New("multiple JSON values found at the root, only one is allowed")
	ErrFileNotFound    = errors.New("file not found")
	ErrFileEmpty       = errors.New("file is empty")
	ErrNoInput         = errors.New("no input provided: please specify a file with -i or pipe JSON data to stdin")
	ErrInvalidFilePath = errors.New("invalid file path")
	ErrNoToken         = errors.New("no authentication token configured")
	ErrValidation      = errors.New("response does not match the declared schema")
)

// ErrorType categorizes errors
type ErrorType string

const (
	ErrorTypeInput     ErrorType = "input"
	ErrorTypeParsing   ErrorType = "parsing"
	ErrorTypeConfig    ErrorType = "config"
	ErrorTypeArgument  ErrorType = "argument"
	ErrorTypeTransport ErrorType = "transport"
	ErrorTypeSchema    ErrorType = "schema"
	ErrorTypeOutput    ErrorType = "output"
	ErrorTypeUnknown   ErrorType = "unknown"
)

// AppError is an application-specific error with context
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// NewInputError creates a new error related to input processing
func NewInputError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeInput, Message: message, Err: err}
}

// NewParsingError creates a new error related to JSON decoding
func NewParsingError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeParsing, Message: message, Err: err}
}

// NewConfigError creates a new error related to loading or checking configuration
func NewConfigError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeConfig, Message: message, Err: err}
}

// NewArgumentError creates a new error for call arguments rejected before any
// request is made.
func NewArgumentError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeArgument, Message: message, Err: err}
}

// NewTransportError creates a new error for a call that could not be completed:
// network failure, non-success status or malformed payload.
func NewTransportError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeTransport, Message: message, Err: err}
}

// NewSchemaError creates a new error for malformed schema definitions
func NewSchemaError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeSchema, Message: message, Err: err}
}

// NewOutputError creates a new error related to output processing
func NewOutputError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeOutput, Message: message, Err: err}
}

// IsTransport reports whether err is, or wraps, a transport failure.
func IsTransport(err error) bool {
	return errors.Is(err, &AppError{Type: ErrorTypeTransport})
}

// IsArgument reports whether err is, or wraps, a caller-side argument error.
func IsArgument(err error) bool {
	return errors.Is(err, &AppError{Type: ErrorTypeArgument})
}

// ValidationError reports the first place where a value did not match its
// schema.
type ValidationError struct {
	// Path locates the offending value, e.g. ".Regions[3].owner_uuid".
	// The empty path is the root.
	Path string
	// Expected lists the tags the schema accepts at Path.
	Expected []models.Tag
	// Actual is the runtime tag found, or models.Missing.
	Actual models.Tag
	// Literals is set when the tag matched but the value was not whitelisted.
	Literals []interface{}
	// Value is the offending value (nil when missing).
	Value interface{}
	// Reason carries extra detail, e.g. a tuple length mismatch.
	Reason string
}

// Error implements error interface
func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation failed at ")
	b.WriteString(DisplayPath(e.Path))
	b.WriteString(": ")
	switch {
	case e.Reason != "":
		b.WriteString(e.Reason)
	case len(e.Literals) > 0:
		fmt.Fprintf(&b, "expected %s in %v, got %v", e.Actual, e.Literals, e.Value)
	case e.Actual == models.Missing:
		fmt.Fprintf(&b, "required property is missing (expected %s)", joinTags(e.Expected))
	default:
		fmt.Fprintf(&b, "expected %s, got %s", joinTags(e.Expected), e.Actual)
	}
	return b.String()
}

// Unwrap lets errors.Is(err, ErrValidation) match every ValidationError.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// AsValidation extracts a *ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// DisplayPath renders a validation path for humans.
func DisplayPath(path string) string {
	if path == "" {
		return "(root)"
	}
	return path
}

func joinTags(tags []models.Tag) string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = string(t)
	}
	return strings.Join(names, "|")
}

// UserFriendlyError returns a user-friendly error message
func UserFriendlyError(err error) string {
	if ve, ok := AsValidation(err); ok {
		return fmt.Sprintf("Response error: the service answered, but %s", ve.Error())
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case ErrorTypeInput:
			return fmt.Sprintf("Input error: %s", appErr.Message)
		case ErrorTypeParsing:
			return fmt.Sprintf("JSON parsing error: %s", appErr.Message)
		case ErrorTypeConfig:
			return fmt.Sprintf("Configuration error: %s", appErr.Message)
		case ErrorTypeArgument:
			return fmt.Sprintf("Argument error: %s", appErr.Message)
		case ErrorTypeTransport:
			if appErr.Err != nil {
				return fmt.Sprintf("Transport error: %s: %v", appErr.Message, appErr.Err)
			}
			return fmt.Sprintf("Transport error: %s", appErr.Message)
		case ErrorTypeSchema:
			return fmt.Sprintf("Schema error: %s", appErr.Message)
		case ErrorTypeOutput:
			return fmt.Sprintf("Output error: %s", appErr.Message)
		default:
			return fmt.Sprintf("Error: %s", appErr.Message)
		}
	}

	if errors.Is(err, ErrEmptyInput) {
		return "Error: The input is empty. Please provide valid JSON data."
	}
	if errors.Is(err, ErrInvalidJSON) {
		return "Error: The input contains invalid JSON. Please check your JSON syntax."
	}
	if errors.Is(err, ErrMultipleJSON) {
		return "Error: Multiple JSON values found. Please provide a single JSON object or array."
	}
	if errors.Is(err, ErrFileNotFound) {
		return "Error: The specified file could not be found. Please check the file path."
	}
	if errors.Is(err, ErrFileEmpty) {
		return "Error: The specified file is empty. Please provide a file with valid JSON content."
	}
	if errors.Is(err, ErrNoInput) {
		return "Error: No input provided. Please specify a file with -i or pipe JSON data to stdin."
	}
	if errors.Is(err, ErrInvalidFilePath) {
		return "Error: Invalid file path. Please provide a valid file path."
	}

	return fmt.Sprintf("Error: %v", err)
}
