package cart

import (
	"bytes"
	"regexp"
)

// Section is one marker-delimited span of a cartridge.
type Section struct {
	Name   string // marker without underscores, e.g. "lua"
	Offset int    // byte offset of the marker line
	Size   int    // body bytes up to the next marker or EOF
}

var markerLine = regexp.MustCompile(`(?m)^__([a-z0-9]+)__\r?$`)

// Sections lists the marker lines found at line starts, in file order.
// Bytes before the first marker are the header and are not reported.
func Sections(text []byte) []Section {
	locs := markerLine.FindAllSubmatchIndex(text, -1)
	sections := make([]Section, 0, len(locs))
	for i, loc := range locs {
		bodyStart := loc[1]
		if bodyStart < len(text) && text[bodyStart] == '\n' {
			bodyStart++
		}
		bodyEnd := len(text)
		if i+1 < len(locs) {
			bodyEnd = locs[i+1][0]
		}
		sections = append(sections, Section{
			Name:   string(text[loc[2]:loc[3]]),
			Offset: loc[0],
			Size:   bodyEnd - bodyStart,
		})
	}
	return sections
}

// HeaderVersion returns the value of the "version N" header line, or "".
func HeaderVersion(text []byte) string {
	lines := bytes.SplitN(text, []byte("\n"), 3)
	if len(lines) > 2 {
		lines = lines[:2]
	}
	for _, line := range lines {
		if v, ok := bytes.CutPrefix(bytes.TrimRight(line, "\r"), []byte("version ")); ok {
			return string(v)
		}
	}
	return ""
}
