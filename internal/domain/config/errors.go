package config

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorization.
const (
	ErrCodeConfigNotFound  = "CONFIG_NOT_FOUND"
	ErrCodeConfigMalformed = "CONFIG_MALFORMED"
	ErrCodeManifestInvalid = "MANIFEST_INVALID"
)

// ErrMalformedConfig matches any error raised while loading a malformed
// document, via errors.Is.
var ErrMalformedConfig = &UserError{Code: ErrCodeConfigMalformed}

// UserError represents a user-friendly error with actionable suggestions.
type UserError struct {
	Code       string // Error code for categorization (e.g., "CONFIG_MALFORMED")
	Message    string // User-friendly error message
	Context    string // Document and location, e.g. "apps.yaml: steps[1]"
	Suggestion string // Actionable suggestion to fix the error
	Underlying error  // Wrapped error for error chain
}

// Error returns the formatted error message.
func (e *UserError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Context != "" {
		fmt.Fprintf(&b, " (at %s)", e.Context)
	}
	if e.Underlying != nil {
		fmt.Fprintf(&b, ": %v", e.Underlying)
	}
	return b.String()
}

// Unwrap returns the underlying error for error chain support.
func (e *UserError) Unwrap() error {
	return e.Underlying
}

// Is supports errors.Is() for comparing error codes.
func (e *UserError) Is(target error) bool {
	if t, ok := target.(*UserError); ok {
		return e.Code == t.Code
	}
	return false
}

// Format returns a fully formatted error with all details.
func (e *UserError) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Underlying != nil {
		fmt.Fprintf(&b, ": %v", e.Underlying)
	}
	if e.Context != "" {
		fmt.Fprintf(&b, "\n  Location: %s", e.Context)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", e.Suggestion)
	}

	return b.String()
}

// NewConfigNotFoundError creates an error for a missing document or manifest.
func NewConfigNotFoundError(path string) *UserError {
	return &UserError{
		Code:       ErrCodeConfigNotFound,
		Message:    fmt.Sprintf("configuration file not found: %s", path),
		Context:    path,
		Suggestion: "Check the path, or pass documents explicitly: jumpstart apply config/apps.yaml",
	}
}

// NewMalformedError creates an error for a document that cannot be turned
// into steps. location is a path inside the document such as "steps[2].kind".
func NewMalformedError(doc, location string, err error) *UserError {
	ctx := doc
	if location != "" {
		ctx = doc + ": " + location
	}
	return &UserError{
		Code:       ErrCodeConfigMalformed,
		Message:    "malformed configuration",
		Context:    ctx,
		Suggestion: suggestionFor(err),
		Underlying: err,
	}
}

// NewParseError translates a decoder error into a malformed-config error.
func NewParseError(doc string, err error) *UserError {
	errStr := err.Error()
	ue := NewMalformedError(doc, "", err)
	ue.Message = "invalid document syntax"

	switch {
	case strings.Contains(errStr, "did not find expected key"):
		ue.Suggestion = "YAML is sensitive to indentation. Use 2 spaces (not tabs) for each level."
	case strings.Contains(errStr, "mapping values are not allowed"):
		ue.Suggestion = "Check for missing colons after keys, or incorrect indentation."
	case strings.Contains(errStr, "found character that cannot start"):
		ue.Suggestion = "Quote string values that contain special characters like ':', '#', or '{'."
	default:
		ue.Suggestion = "Check the document syntax for its file extension (.yaml, .toml, .json, .jsonc)."
	}

	if _, after, ok := strings.Cut(errStr, "line "); ok {
		line, _, _ := strings.Cut(after, ":")
		ue.Context = fmt.Sprintf("%s (line %s)", doc, line)
	}
	return ue
}

func suggestionFor(err error) string {
	switch {
	case err == nil:
		return ""
	case strings.Contains(err.Error(), "unknown step kind"):
		return "Valid kinds: package, folder, file-sync, automated-setup, interactive-setup."
	case strings.Contains(err.Error(), "missing required field"):
		return "Add the missing field to the step."
	default:
		return "Fix the step definition and run 'jumpstart validate' again."
	}
}

// IsUserError checks if an error is a UserError with a specific code.
func IsUserError(err error, code string) bool {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Code == code
	}
	return false
}

// GetUserError extracts a UserError from an error chain, if present.
func GetUserError(err error) *UserError {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue
	}
	return nil
}
