package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/conneroisu/picopack/internal/cart"
	"github.com/conneroisu/picopack/internal/logging"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// Validate checks config and returns the first problem found.
func Validate(config *Config) error {
	if errs := ValidateAll(config); len(errs) > 0 {
		return &errs[0]
	}
	return nil
}

// ValidateAll reports every problem in config.
func ValidateAll(config *Config) []ValidationError {
	var errs []ValidationError

	if !strings.HasPrefix(config.Source.Extension, ".") {
		errs = append(errs, ValidationError{
			Field:   KeySourceExtension,
			Value:   config.Source.Extension,
			Message: "extension must start with a dot",
			Suggestions: []string{
				"Use '.lua' for plain Lua fragments",
			},
		})
	}

	for _, pattern := range config.Source.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, ValidationError{
				Field:   KeySourceExclude,
				Value:   pattern,
				Message: fmt.Sprintf("invalid glob pattern %q", pattern),
				Suggestions: []string{
					"Patterns match file names, e.g. '*_test.lua'",
				},
			})
		}
	}

	if config.Output.Path != "" && filepath.Ext(config.Output.Path) != cart.Extension {
		errs = append(errs, ValidationError{
			Field:   KeyOutputPath,
			Value:   config.Output.Path,
			Message: fmt.Sprintf("cartridge must have the %s extension", cart.Extension),
		})
	}

	if config.Cart.Version <= 0 {
		errs = append(errs, ValidationError{
			Field:   KeyCartVersion,
			Value:   config.Cart.Version,
			Message: "version must be positive",
		})
	}

	if config.Watch.Debounce < 0 {
		errs = append(errs, ValidationError{
			Field:   KeyWatchDebounce,
			Value:   config.Watch.Debounce,
			Message: "debounce cannot be negative",
			Suggestions: []string{
				"Use 0 to rebuild on every event",
			},
		})
	}

	if _, err := logging.ParseLevel(config.Log.Level); err != nil {
		errs = append(errs, ValidationError{
			Field:   KeyLogLevel,
			Value:   config.Log.Level,
			Message: err.Error(),
			Suggestions: []string{
				"Available levels: debug, info, warn, error",
			},
		})
	}

	switch config.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   KeyLogFormat,
			Value:   config.Log.Format,
			Message: fmt.Sprintf("unknown log format %q", config.Log.Format),
			Suggestions: []string{
				"Available formats: text, json",
			},
		})
	}

	return errs
}
