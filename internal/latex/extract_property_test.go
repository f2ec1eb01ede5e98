package latex

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// literalGen produces text that never contains an open or close marker.
func literalGen() gopter.Gen {
	return gen.RegexMatch(`[a-z0-9 ()=+\n]{0,12}`)
}

func equationGen() gopter.Gen {
	return gen.OneGenOf(
		gen.RegexMatch(`[a-z0-9 ^_{}+=\n]{0,10}`).Map(func(s string) string {
			return BlockOpen + s + BlockClose
		}),
		gen.RegexMatch(`[a-z0-9 ^_{}+=]{0,10}`).Map(func(s string) string {
			return InlineOpen + s + InlineClose
		}),
	)
}

func balancedTextGen() gopter.Gen {
	return gen.SliceOf(gen.OneGenOf(literalGen(), equationGen())).Map(func(parts []string) string {
		return strings.Join(parts, "")
	})
}

func TestExtractProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(4242)
	parameters.MinSuccessfulTests = 300

	properties := gopter.NewProperties(parameters)

	properties.Property("balanced text reconstructs byte-for-byte", prop.ForAll(
		func(text string) bool {
			spans, err := Extract(text)
			if err != nil {
				return false
			}
			return Reconstruct(spans) == text
		},
		balancedTextGen(),
	))

	properties.Property("no empty literal spans are produced", prop.ForAll(
		func(text string) bool {
			spans, err := Extract(text)
			if err != nil {
				return false
			}
			for _, s := range spans {
				if s.Kind == Literal && s.Text == "" {
					return false
				}
			}
			return true
		},
		balancedTextGen(),
	))

	properties.Property("unmatched open marker fails with no spans", prop.ForAll(
		func(prefix, tail string, block bool) bool {
			open := InlineOpen
			if block {
				open = BlockOpen
			}
			spans, err := Extract(prefix + open + tail)
			if err == nil || spans != nil {
				return false
			}
			de, ok := err.(*DelimiterError)
			return ok && de.Offset == len(prefix) && de.Open == open
		},
		balancedTextGen(),
		literalGen(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
