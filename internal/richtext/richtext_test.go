package richtext

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		keep    []string
		removed []string
	}{
		{"paragraph kept", "<p>abc</p>", []string{"<p>abc</p>"}, nil},
		{"script removed", `<p>hi</p><script>alert(1)</script>`, []string{"<p>hi</p>"}, []string{"<script", "alert"}},
		{"handler removed", `<p onclick="steal()">x</p>`, []string{"<p>x</p>"}, []string{"onclick"}},
		{"list kept", "<ul><li>one</li></ul>", []string{"<ul>", "<li>one</li>"}, nil},
		{"javascript link removed", `<a href="javascript:evil()">go</a>`, []string{"go"}, []string{"javascript:"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.in)
			for _, want := range tt.keep {
				if !strings.Contains(got, want) {
					t.Errorf("expected %q in %q", want, got)
				}
			}
			for _, bad := range tt.removed {
				if strings.Contains(got, bad) {
					t.Errorf("did not expect %q in %q", bad, got)
				}
			}
		})
	}
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<p>abc</p>", "abc"},
		{"<p>one</p><p>two</p>", "one two"},
		{"<ul><li>a</li><li>b</li></ul>", "a b"},
		{"<p>Tom &amp; Jerry</p>", "Tom & Jerry"},
		{"line<br>break", "line break"},
		{"  plain   text ", "plain text"},
		{"<p><br></p>", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := PlainText(tt.in); got != tt.want {
			t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsBlank(t *testing.T) {
	if !IsBlank("<p><br></p>") {
		t.Error("expected empty paragraph to be blank")
	}
	if IsBlank("<p>x</p>") {
		t.Error("expected text to be non-blank")
	}
}

func TestFromPlainText(t *testing.T) {
	got := FromPlainText("first\n\n second \n<b>")
	want := "<p>first</p><p>second</p><p>&lt;b&gt;</p>"
	if got != want {
		t.Fatalf("FromPlainText = %q, want %q", got, want)
	}
}

func TestBufferEditor(t *testing.T) {
	e := NewBufferEditor(`<p>start</p><script>x</script>`)
	if e.Markup() != "<p>start</p>" {
		t.Fatalf("initial markup not sanitized: %q", e.Markup())
	}

	var seen []string
	e.OnChange(func(m string) { seen = append(seen, m) })

	e.SetMarkup("<p>next</p>")
	e.SetMarkup("<p>next</p>")
	e.SetText("plain")

	if len(seen) != 2 {
		t.Fatalf("expected 2 change notifications, got %d: %v", len(seen), seen)
	}
	if seen[0] != "<p>next</p>" || seen[1] != "<p>plain</p>" {
		t.Fatalf("unexpected notifications %v", seen)
	}
	if e.Markup() != "<p>plain</p>" {
		t.Fatalf("unexpected markup %q", e.Markup())
	}
}

var _ Editor = (*BufferEditor)(nil)
