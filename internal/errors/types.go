package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error is a structured picopack error.
type Error struct {
	Kind    Kind
	Path    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string

	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("%q:", e.Path))
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}

	return false
}

// Error creation functions

// NewInvalidInput creates an input validation error for path.
func NewInvalidInput(path, message string) *Error {
	return &Error{Kind: KindInvalidInput, Path: path, Message: message}
}

// NewNoSourcesFound reports a directory without any fragment files.
func NewNoSourcesFound(dir, extension string) *Error {
	return &Error{
		Kind:    KindNoSourcesFound,
		Path:    dir,
		Message: fmt.Sprintf("no *%s files found in the input directory", extension),
	}
}

// NewReadFailure wraps a failed read of path.
func NewReadFailure(path string, cause error) *Error {
	return &Error{Kind: KindReadFailure, Path: path, Message: "failed to read from file", Cause: cause}
}

// NewMalformedContainer reports a cartridge missing the named section marker.
func NewMalformedContainer(path, marker string) *Error {
	return &Error{
		Kind:    KindMalformedContainer,
		Path:    path,
		Message: fmt.Sprintf("cartridge format seems to be incorrect: missing %q marker", strings.TrimSpace(marker)),
	}
}

// NewAmbiguousOutput reports more than one candidate cartridge.
func NewAmbiguousOutput(dir string, candidates []string) *Error {
	return &Error{
		Kind: KindAmbiguousOutput,
		Path: dir,
		Message: fmt.Sprintf("found more than one *.p8 file (%s), please specify the desired output in the arguments",
			strings.Join(candidates, ", ")),
	}
}

// NewWriteFailure wraps a failed write of path.
func NewWriteFailure(path string, cause error) *Error {
	return &Error{Kind: KindWriteFailure, Path: path, Message: "failed to write to the output file", Cause: cause}
}

// KindOf returns the kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}

// ExitCode maps an error to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	return 1
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// Handler reports errors that must not stop the caller, such as a failed
// rebuild in watch mode.
type Handler struct {
	logger Logger
}

// NewHandler creates a new error handler.
func NewHandler(logger Logger) *Handler {
	return &Handler{logger: logger}
}

// Handle logs err with its kind and path.
func (h *Handler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var e *Error
	if !errors.As(err, &e) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	switch e.Kind {
	case KindNoSourcesFound, KindMalformedContainer:
		h.logger.Warn(ctx, err, "Rebuild skipped",
			"kind", e.Kind.String(),
			"path", e.Path)
	default:
		h.logger.Error(ctx, err, "Rebuild failed",
			"kind", e.Kind.String(),
			"path", e.Path)
	}
}
