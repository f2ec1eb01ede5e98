package pipeline

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// eventGroup is a run of events that the transformer treats as a unit:
// a single event, or a whole fence.
type eventGroup struct {
	events      []Event
	intercepted bool
}

func passthroughGroupGen() gopter.Gen {
	return gen.OneGenOf(
		gen.AlphaString().Map(func(s string) eventGroup {
			return eventGroup{events: []Event{{Kind: EventOther, Text: "<" + s + ">"}}}
		}),
		gen.AlphaString().Map(func(s string) eventGroup {
			return eventGroup{events: []Event{{Kind: EventText, Text: s}}}
		}),
		gen.AlphaString().Map(func(s string) eventGroup {
			return eventGroup{events: []Event{{Kind: EventCode, Text: s}}}
		}),
		gen.SliceOf(gen.AlphaString()).Map(func(lines []string) eventGroup {
			events := []Event{{Kind: EventFenceStart}}
			for _, l := range lines {
				events = append(events, Event{Kind: EventText, Text: l})
			}
			return eventGroup{events: append(events, Event{Kind: EventFenceEnd})}
		}),
	)
}

func interceptedGroupGen() gopter.Gen {
	return gen.OneGenOf(
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }).Map(func(s string) eventGroup {
			return eventGroup{events: []Event{{Kind: EventCode, Text: "$" + s + "$"}}, intercepted: true}
		}),
		gen.SliceOf(gen.AlphaString()).Map(func(lines []string) eventGroup {
			events := []Event{{Kind: EventFenceStart, Tag: "latex"}}
			for _, l := range lines {
				events = append(events, Event{Kind: EventText, Text: l})
			}
			return eventGroup{events: append(events, Event{Kind: EventFenceEnd}), intercepted: true}
		}),
		gen.SliceOf(gen.AlphaString()).Map(func(lines []string) eventGroup {
			events := []Event{{Kind: EventFenceStart, Tag: "klingon"}}
			for _, l := range lines {
				events = append(events, Event{Kind: EventText, Text: l})
			}
			return eventGroup{events: append(events, Event{Kind: EventFenceEnd}), intercepted: true}
		}),
	)
}

func TestTransformerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1717)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("non-intercepted events keep their relative order", prop.ForAll(
		func(groups []eventGroup) bool {
			var input, wantPassthrough []Event
			interceptions := 0
			for _, g := range groups {
				input = append(input, g.events...)
				if g.intercepted {
					interceptions++
				} else {
					wantPassthrough = append(wantPassthrough, g.events...)
				}
			}

			tr := &Transformer{Equations: fakeEquations}
			out, err := tr.Rewrite(input)
			if err != nil || tr.Close() != nil {
				return false
			}

			var gotPassthrough []Event
			html := 0
			for _, ev := range out {
				if ev.Kind == EventHTML {
					html++
					continue
				}
				gotPassthrough = append(gotPassthrough, ev)
			}
			return html == interceptions && reflect.DeepEqual(gotPassthrough, wantPassthrough)
		},
		gen.SliceOf(gen.OneGenOf(passthroughGroupGen(), interceptedGroupGen())),
	))

	properties.Property("each intercepted group yields exactly one fragment in place", prop.ForAll(
		func(groups []eventGroup) bool {
			tr := &Transformer{Equations: fakeEquations}
			for _, g := range groups {
				out, err := tr.Rewrite(g.events)
				if err != nil {
					return false
				}
				if g.intercepted {
					if len(out) != 1 || out[0].Kind != EventHTML {
						return false
					}
				} else if !reflect.DeepEqual(out, g.events) {
					return false
				}
			}
			return tr.Close() == nil
		},
		gen.SliceOf(gen.OneGenOf(passthroughGroupGen(), interceptedGroupGen())),
	))

	properties.TestingRun(t)
}
