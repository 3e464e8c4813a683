package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorSuggestion represents a suggestion for fixing an error
type ErrorSuggestion struct {
	Title       string
	Description string
	Command     string
	Example     string
}

// Suggest returns fixes for the kind of err. Unknown errors get none.
func Suggest(err error) []ErrorSuggestion {
	var e *Error
	if !errors.As(err, &e) {
		return nil
	}

	switch e.Kind {
	case KindInvalidInput:
		return []ErrorSuggestion{
			{
				Title:       "Point --input at the fragment directory",
				Description: "Fragments are read from src/ unless configured otherwise",
				Command:     "picopack -i path/to/lua",
			},
			{
				Title:   "Name the cartridge with a .p8 extension",
				Example: "picopack game.p8",
			},
		}
	case KindNoSourcesFound:
		return []ErrorSuggestion{
			{
				Title:       "Add a fragment",
				Description: "Only files directly inside the source directory with the fragment extension are bundled",
				Example:     e.Path + "/main.lua",
			},
			{
				Title:   "Check the extension and exclude settings",
				Command: "picopack config show",
			},
		}
	case KindReadFailure:
		return []ErrorSuggestion{
			{
				Title:       "Check that the file exists and is readable",
				Description: "Every fragment and the cartridge are read again on each build",
				Command:     "ls -l " + e.Path,
			},
		}
	case KindMalformedContainer:
		return []ErrorSuggestion{
			{
				Title:       "Restore the section markers",
				Description: "The cartridge needs a __lua__ line followed later by a __gfx__ line",
			},
			{
				Title:       "Start from an empty cartridge",
				Description: "An empty .p8 file is bootstrapped with a fresh header",
				Command:     ": > " + e.Path,
			},
		}
	case KindAmbiguousOutput:
		return []ErrorSuggestion{
			{
				Title:   "Name the cartridge explicitly",
				Command: "picopack game.p8",
			},
			{
				Title:   "Or set it once in .picopack.yml",
				Example: "output: {path: game.p8}",
			},
		}
	default:
		return nil
	}
}

// FormatSuggestions formats suggestions into a user-friendly string
func FormatSuggestions(title string, suggestions []ErrorSuggestion) string {
	if len(suggestions) == 0 {
		return title
	}

	var output strings.Builder
	output.WriteString(title + "\n\n")
	output.WriteString("Suggestions:\n")

	for i, suggestion := range suggestions {
		output.WriteString(fmt.Sprintf("  %d. %s\n", i+1, suggestion.Title))
		if suggestion.Description != "" {
			output.WriteString(fmt.Sprintf("     %s\n", suggestion.Description))
		}
		if suggestion.Command != "" {
			output.WriteString(fmt.Sprintf("     Run: %s\n", suggestion.Command))
		}
		if suggestion.Example != "" {
			output.WriteString(fmt.Sprintf("     Example: %s\n", suggestion.Example))
		}
	}

	return strings.TrimRight(output.String(), "\n")
}

// EnhancedError wraps an error with suggestions
type EnhancedError struct {
	OriginalError error
	Suggestions   []ErrorSuggestion
}

// Error implements the error interface
func (e *EnhancedError) Error() string {
	return FormatSuggestions(e.OriginalError.Error(), e.Suggestions)
}

// Unwrap returns the original error
func (e *EnhancedError) Unwrap() error {
	return e.OriginalError
}

// Enhance attaches suggestions to err when there are any.
func Enhance(err error) error {
	if err == nil {
		return nil
	}
	suggestions := Suggest(err)
	if len(suggestions) == 0 {
		return err
	}
	return &EnhancedError{OriginalError: err, Suggestions: suggestions}
}
