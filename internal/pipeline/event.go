package pipeline

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark/util"
)

// EventKind classifies a Markdown event.
type EventKind int

const (
	// EventOther is a structural event (paragraph, list, heading, ...)
	// carried opaquely. Its Text is emitted as-is.
	EventOther EventKind = iota
	// EventText is a run of text.
	EventText
	// EventCode is an inline code span.
	EventCode
	// EventFenceStart opens a code block. Tag holds the language tag,
	// empty for untagged and indented blocks.
	EventFenceStart
	// EventFenceEnd closes the most recent code block.
	EventFenceEnd
	// EventHTML is a rendered fragment produced by the transformer.
	EventHTML
)

var eventKindNames = [...]string{
	EventOther:      "other",
	EventText:       "text",
	EventCode:       "code",
	EventFenceStart: "fence-start",
	EventFenceEnd:   "fence-end",
	EventHTML:       "html",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
	return eventKindNames[k]
}

// Event is one element of the linear Markdown event stream.
type Event struct {
	Kind EventKind
	Text string
	Tag  string
}

// WriteEvents serializes events the way goldmark's default HTML renderer
// serializes the equivalent nodes.
func WriteEvents(w util.BufWriter, events []Event) error {
	for _, ev := range events {
		if err := writeEvent(w, ev); err != nil {
			return err
		}
	}
	return nil
}

// RenderEvents is WriteEvents into a string.
func RenderEvents(events []Event) string {
	var b strings.Builder
	for _, ev := range events {
		b.WriteString(eventHTML(ev))
	}
	return b.String()
}

func writeEvent(w util.BufWriter, ev Event) error {
	_, err := w.WriteString(eventHTML(ev))
	return err
}

func eventHTML(ev Event) string {
	switch ev.Kind {
	case EventText:
		return escape(ev.Text)
	case EventCode:
		return "<code>" + escape(ev.Text) + "</code>"
	case EventFenceStart:
		return "<pre><code>"
	case EventFenceEnd:
		return "</code></pre>\n"
	default:
		return ev.Text
	}
}

func escape(s string) string {
	return string(util.EscapeHTML([]byte(s)))
}
