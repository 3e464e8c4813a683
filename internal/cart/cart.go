// Package cart reads and rewrites PICO-8 text cartridges.
//
// A cartridge is a header followed by marker-delimited sections:
//
//	pico-8 cartridge // http://www.pico-8.com
//	version 16
//	__lua__
//	...code...
//	__gfx__
//	...sprites, then __gff__, __map__, __sfx__, __music__...
//
// picopack owns only the body of the __lua__ section. Everything before the
// __lua__ marker line and everything from the first __gfx__ marker line
// onward is copied through untouched.
package cart

import (
	"bytes"
	"fmt"

	"github.com/conneroisu/picopack/internal/errors"
)

const (
	// Extension is the file extension of text cartridges.
	Extension = ".p8"

	// DefaultVersion is the cartridge format version written into new carts.
	DefaultVersion = 16

	CodeMarker  = "__lua__\n"
	AssetMarker = "__gfx__\n"
)

// Format describes how a cartridge is laid out.
type Format struct {
	Header      string
	CodeMarker  string
	AssetMarker string
}

// PICO8 is the format produced by PICO-8 with version 16 headers.
var PICO8 = NewFormat(DefaultVersion)

// NewFormat returns the PICO-8 format with the given header version.
func NewFormat(version int) Format {
	return Format{
		Header:      fmt.Sprintf("pico-8 cartridge // http://www.pico-8.com\nversion %d\n", version),
		CodeMarker:  CodeMarker,
		AssetMarker: AssetMarker,
	}
}

// Bootstrap returns a cart holding only code and an empty asset section.
func (f Format) Bootstrap(code []byte) []byte {
	out := make([]byte, 0, len(f.Header)+len(f.CodeMarker)+len(code)+len(f.AssetMarker))
	out = append(out, f.Header...)
	out = append(out, f.CodeMarker...)
	out = append(out, code...)
	out = append(out, f.AssetMarker...)
	return out
}

// Bounds locates the code body of existing. The body spans
// existing[start:end]; existing[:start] ends with the code marker and
// existing[end:] begins with the asset marker.
//
// Markers count only at the start of a line, so marker text inside a Lua
// comment or string stays part of the code. When no line starts with the
// asset marker (code without a trailing newline runs into it), the last
// occurrence after the code marker is used instead.
func (f Format) Bounds(existing []byte) (start, end int, err error) {
	code := lineIndex(existing, f.CodeMarker)
	if code < 0 {
		code = bytes.Index(existing, []byte(f.CodeMarker))
	}
	if code < 0 {
		return 0, 0, errors.NewMalformedContainer("", f.CodeMarker)
	}
	start = code + len(f.CodeMarker)

	body := existing[start:]
	asset := lineIndex(body, f.AssetMarker)
	if asset < 0 {
		asset = bytes.LastIndex(body, []byte(f.AssetMarker))
	}
	if asset < 0 {
		return 0, 0, errors.NewMalformedContainer("", f.AssetMarker)
	}
	return start, start + asset, nil
}

// lineIndex returns the offset of the first marker that begins a line of
// data, or -1. data[0] is taken to be at a line start.
func lineIndex(data []byte, marker string) int {
	if bytes.HasPrefix(data, []byte(marker)) {
		return 0
	}
	i := bytes.Index(data, []byte("\n"+marker))
	if i < 0 {
		return -1
	}
	return i + 1
}

// Splice replaces the code section of existing with code. An empty
// existing cart is bootstrapped from the header. The input slices are never
// modified.
func (f Format) Splice(existing, code []byte) ([]byte, error) {
	if len(existing) == 0 {
		return f.Bootstrap(code), nil
	}

	start, end, err := f.Bounds(existing)
	if err != nil {
		return nil, err
	}

	header, footer := existing[:start], existing[end:]
	out := make([]byte, 0, len(header)+len(code)+len(footer))
	out = append(out, header...)
	out = append(out, code...)
	out = append(out, footer...)
	return out, nil
}

// Code returns the current code body of a cart.
func (f Format) Code(existing []byte) ([]byte, error) {
	if len(existing) == 0 {
		return nil, nil
	}
	start, end, err := f.Bounds(existing)
	if err != nil {
		return nil, err
	}
	return existing[start:end], nil
}
