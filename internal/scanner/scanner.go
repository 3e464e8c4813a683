// Package scanner discovers the Lua fragments that make up a cartridge.
//
// A fragment directory is read non-recursively. Files carrying the fragment
// extension are kept, exclude globs are applied to their names, and the
// result is sorted by name so every build concatenates fragments in the same
// order regardless of how the filesystem lists them.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/conneroisu/picopack/internal/errors"
)

// DefaultExtension is the extension of fragment files.
const DefaultExtension = ".lua"

// Fragment is one source file contributing to the code section.
type Fragment struct {
	// Path is the file path as found under the scanned directory.
	Path string
	// Name is the base name; fragments are ordered by it.
	Name string
}

// FragmentSet is an ordered, non-empty list of fragments. Treat it as
// read-only once returned by Resolve.
type FragmentSet []Fragment

// Paths returns the fragment paths in build order.
func (s FragmentSet) Paths() []string {
	paths := make([]string, len(s))
	for i, f := range s {
		paths[i] = f.Path
	}
	return paths
}

// Names returns the fragment names in build order.
func (s FragmentSet) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// FragmentScanner resolves fragment sets from a directory.
type FragmentScanner struct {
	extension string
	exclude   []string
}

// NewFragmentScanner creates a scanner for files ending in extension. Names
// matching any exclude glob are skipped.
func NewFragmentScanner(extension string, exclude ...string) (*FragmentScanner, error) {
	if extension == "" {
		extension = DefaultExtension
	}
	if !strings.HasPrefix(extension, ".") {
		return nil, fmt.Errorf("fragment extension %q must start with a dot", extension)
	}
	for _, pattern := range exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	return &FragmentScanner{
		extension: extension,
		exclude:   slices.Clone(exclude),
	}, nil
}

// Extension returns the fragment extension the scanner selects.
func (s *FragmentScanner) Extension() string {
	return s.extension
}

// Matches reports whether a file name qualifies as a fragment.
func (s *FragmentScanner) Matches(name string) bool {
	if filepath.Ext(name) != s.extension {
		return false
	}
	for _, pattern := range s.exclude {
		if matched, err := doublestar.Match(pattern, name); err == nil && matched {
			return false
		}
	}
	return true
}

// Resolve lists the fragments directly inside dir, sorted by name.
func (s *FragmentScanner) Resolve(dir string) (FragmentSet, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.NewInvalidInput(dir, "needs to be a valid directory")
	}
	if !info.IsDir() {
		return nil, errors.NewInvalidInput(dir, "is a file, not a directory")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewReadFailure(dir, err)
	}

	var set FragmentSet
	for _, entry := range entries {
		if entry.IsDir() || !s.Matches(entry.Name()) {
			continue
		}
		set = append(set, Fragment{
			Path: filepath.Join(dir, entry.Name()),
			Name: entry.Name(),
		})
	}

	if len(set) == 0 {
		return nil, errors.NewNoSourcesFound(dir, s.extension)
	}

	slices.SortFunc(set, func(a, b Fragment) int {
		return strings.Compare(a.Name, b.Name)
	})
	return set, nil
}
