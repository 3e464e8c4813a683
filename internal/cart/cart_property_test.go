//go:build property

package cart

import (
	"bytes"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var fragments = []string{"0123\n", "__sfx__\n", "__gfx__\n", "__lua__\n", "\r\n", " \t", "--[[x]]\n", "-- "}

// body generates section bodies, occasionally containing marker lookalikes.
func body() gopter.Gen {
	return gen.OneGenOf(
		gen.AlphaString(),
		gen.AnyString(),
		gen.SliceOf(gen.IntRange(0, len(fragments)-1)).Map(func(idx []int) string {
			var sb strings.Builder
			for _, i := range idx {
				sb.WriteString(fragments[i])
			}
			return sb.String()
		}),
	)
}

// code generates bundles of newline-terminated lines. Marker text may appear
// anywhere inside a line but no line is exactly the asset marker.
func code() gopter.Gen {
	return body().Map(func(s string) string {
		if s != "" && !strings.HasSuffix(s, "\n") {
			s += "\n"
		}
		for {
			next := strings.TrimPrefix(strings.ReplaceAll(s, "\n"+AssetMarker, "\n"), AssetMarker)
			if next == s {
				return s
			}
			s = next
		}
	})
}

func TestSpliceProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1616)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	// Property: header and footer spans survive splicing byte-for-byte
	properties.Property("splice preserves header and footer", prop.ForAll(
		func(oldCode, newCode, assets string) bool {
			header := PICO8.Header + CodeMarker
			footer := AssetMarker + assets
			existing := []byte(header + oldCode + footer)

			out, err := PICO8.Splice(existing, []byte(newCode))
			if err != nil {
				return false
			}
			return bytes.HasPrefix(out, []byte(header)) &&
				bytes.HasSuffix(out, []byte(footer)) &&
				len(out) == len(header)+len(newCode)+len(footer)
		},
		code(), code(), body(),
	))

	// Property: splicing the same bundle twice is a no-op the second time
	properties.Property("splice is idempotent", prop.ForAll(
		func(oldCode, newCode, assets string) bool {
			existing := []byte(PICO8.Header + CodeMarker + oldCode + AssetMarker + assets)

			once, err := PICO8.Splice(existing, []byte(newCode))
			if err != nil {
				return false
			}
			twice, err := PICO8.Splice(once, []byte(newCode))
			if err != nil {
				return false
			}
			return bytes.Equal(once, twice)
		},
		code(), code(), body(),
	))

	// Property: bootstrap output is always a well-formed cart
	properties.Property("bootstrap round-trips through Code", prop.ForAll(
		func(newCode string) bool {
			out, err := PICO8.Splice(nil, []byte(newCode))
			if err != nil {
				return false
			}
			got, err := PICO8.Code(out)
			return err == nil && string(got) == newCode
		},
		code(),
	))

	properties.TestingRun(t)
}
