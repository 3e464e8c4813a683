// Package errors defines the failure kinds picopack reports while resolving
// fragments, splicing cartridges and writing them back to disk.
package errors

// Kind classifies a picopack failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindNoSourcesFound
	KindReadFailure
	KindMalformedContainer
	KindAmbiguousOutput
	KindWriteFailure
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNoSourcesFound:
		return "no_sources_found"
	case KindReadFailure:
		return "read_failure"
	case KindMalformedContainer:
		return "malformed_container"
	case KindAmbiguousOutput:
		return "ambiguous_output"
	case KindWriteFailure:
		return "write_failure"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is comparisons. Any *Error of the same kind matches.
var (
	InvalidInput       = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	NoSourcesFound     = &Error{Kind: KindNoSourcesFound, Message: "no sources found"}
	ReadFailure        = &Error{Kind: KindReadFailure, Message: "read failure"}
	MalformedContainer = &Error{Kind: KindMalformedContainer, Message: "malformed container"}
	AmbiguousOutput    = &Error{Kind: KindAmbiguousOutput, Message: "ambiguous output"}
	WriteFailure       = &Error{Kind: KindWriteFailure, Message: "write failure"}
)
