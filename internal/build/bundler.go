package build

import (
	"bytes"
	"os"

	"github.com/conneroisu/picopack/internal/errors"
	"github.com/conneroisu/picopack/internal/scanner"
)

// Concatenate joins the contents of every fragment in set order. Bytes are
// copied verbatim with no separators. A single unreadable fragment fails the
// whole bundle.
func Concatenate(set scanner.FragmentSet) ([]byte, error) {
	if len(set) == 0 {
		return nil, errors.NewNoSourcesFound("", scanner.DefaultExtension)
	}

	var buf bytes.Buffer
	for _, fragment := range set {
		content, err := os.ReadFile(fragment.Path)
		if err != nil {
			return nil, errors.NewReadFailure(fragment.Path, err)
		}
		buf.Write(content)
	}
	return buf.Bytes(), nil
}
