package cart

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/conneroisu/picopack/internal/errors"
)

// Location is the resolved output cartridge.
type Location struct {
	Path    string
	Created bool // an empty file was created for bootstrapping
	Found   bool // discovered by searching the directory
}

// Locate resolves the output cartridge. An explicit path must be a .p8
// file; a missing one is created empty. Without a path, dir is searched for
// exactly one .p8 file, and a new cart named after dir is created when there
// is none.
func Locate(dir, path string) (Location, error) {
	if path != "" {
		return locateExplicit(path)
	}

	candidates, err := Candidates(dir)
	if err != nil {
		return Location{}, err
	}

	switch len(candidates) {
	case 0:
		abs, err := filepath.Abs(dir)
		if err != nil {
			return Location{}, errors.NewInvalidInput(dir, err.Error())
		}
		name := filepath.Join(dir, filepath.Base(abs)+Extension)
		if err := createEmpty(name); err != nil {
			return Location{}, err
		}
		return Location{Path: name, Created: true}, nil
	case 1:
		return Location{Path: filepath.Join(dir, candidates[0]), Found: true}, nil
	default:
		return Location{}, errors.NewAmbiguousOutput(dir, candidates)
	}
}

// Candidates lists the names of the regular .p8 files in dir, sorted.
func Candidates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewReadFailure(dir, err)
	}

	var candidates []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && filepath.Ext(entry.Name()) == Extension {
			candidates = append(candidates, entry.Name())
		}
	}
	sort.Strings(candidates)
	return candidates, nil
}

func locateExplicit(path string) (Location, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if filepath.Ext(path) != Extension {
			return Location{}, errors.NewInvalidInput(path, "output file needs to have the .p8 extension")
		}
		if err := createEmpty(path); err != nil {
			return Location{}, err
		}
		return Location{Path: path, Created: true}, nil
	}
	if err != nil {
		return Location{}, errors.NewReadFailure(path, err)
	}
	if !info.Mode().IsRegular() || filepath.Ext(path) != Extension {
		return Location{}, errors.NewInvalidInput(path, "is not a valid *.p8 cartridge")
	}
	return Location{Path: path}, nil
}

func createEmpty(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.NewWriteFailure(path, err)
	}
	if err := f.Close(); err != nil {
		return errors.NewWriteFailure(path, err)
	}
	return nil
}
