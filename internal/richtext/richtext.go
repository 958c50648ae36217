// Package richtext handles the HTML markup produced by the description,
// deliverables and acceptance-criteria editors.
package richtext

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// Sanitize strips scripts, event handlers and other unsafe markup while
// keeping ordinary formatting (paragraphs, lists, emphasis, links).
func Sanitize(markup string) string {
	return ugcPolicy.Sanitize(markup)
}

// PlainText removes all markup and collapses whitespace, for one-line
// previews. Block-level tags become spaces so words do not run together.
func PlainText(markup string) string {
	spaced := blockBreaks.Replace(markup)
	text := html.UnescapeString(strictPolicy.Sanitize(spaced))
	return strings.Join(strings.Fields(text), " ")
}

var blockBreaks = strings.NewReplacer(
	"</p>", "</p> ",
	"<br>", " <br>",
	"<br/>", " <br/>",
	"<br />", " <br />",
	"</li>", "</li> ",
	"</h1>", "</h1> ",
	"</h2>", "</h2> ",
	"</h3>", "</h3> ",
)

// IsBlank reports whether markup has no visible text, e.g. "<p><br></p>".
func IsBlank(markup string) bool {
	return PlainText(markup) == ""
}

// Editor is a rich-text editing surface. The wizard only needs its current
// markup and change notifications.
type Editor interface {
	Markup() string
	OnChange(fn func(markup string))
}

// BufferEditor is an in-memory Editor. Every change is sanitized before it
// is stored or announced.
type BufferEditor struct {
	mu       sync.Mutex
	markup   string
	handlers []func(string)
}

// NewBufferEditor creates an editor seeded with initial markup.
func NewBufferEditor(initial string) *BufferEditor {
	return &BufferEditor{markup: Sanitize(initial)}
}

func (e *BufferEditor) Markup() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.markup
}

func (e *BufferEditor) OnChange(fn func(markup string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, fn)
}

// SetMarkup replaces the content and notifies handlers when it changed.
func (e *BufferEditor) SetMarkup(markup string) {
	clean := Sanitize(markup)

	e.mu.Lock()
	if clean == e.markup {
		e.mu.Unlock()
		return
	}
	e.markup = clean
	handlers := append(([]func(string))(nil), e.handlers...)
	e.mu.Unlock()

	for _, fn := range handlers {
		fn(clean)
	}
}

// SetText replaces the content with plain text, one paragraph per line.
func (e *BufferEditor) SetText(text string) {
	e.SetMarkup(FromPlainText(text))
}

// FromPlainText wraps each non-empty line of text in a paragraph, escaping
// any markup characters.
func FromPlainText(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(line))
		b.WriteString("</p>")
	}
	return b.String()
}
