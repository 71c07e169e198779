package ansi

import (
	"strings"
	"testing"
	"testing/quick"
)

func TestColorizeRoundTrip(t *testing.T) {
	f := func(text string) bool {
		for _, name := range ColorNames() {
			if Strip(Colorize(text, name)) != text {
				return false
			}
		}
		return true
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestColorizeWidthInvariant(t *testing.T) {
	f := func(text string) bool {
		for _, name := range ColorNames() {
			if Width(Colorize(text, name)) != Width(text) {
				return false
			}
		}
		return true
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestColorizeEndsWithReset(t *testing.T) {
	for _, name := range ColorNames() {
		out := Colorize("x", name)
		if !strings.HasSuffix(out, Reset) {
			t.Fatalf("color %s: expected suffix %q, got %q", name, Reset, out)
		}
	}
}

func TestColorizeUnknownNameTreatedAsLiteralEscape(t *testing.T) {
	out := Colorize("x", "\x1b[1m")
	if Strip(out) != "x" {
		t.Fatalf("expected stripped text x, got %q", Strip(out))
	}
}

func TestToHTMLNeverEmitsEscapeByte(t *testing.T) {
	f := func(text string) bool {
		for _, name := range ColorNames() {
			html := ToHTML(Colorize(text, name))
			if strings.ContainsRune(html, '\x1b') {
				return false
			}
		}
		return true
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestToHTMLOpensAndClosesSpan(t *testing.T) {
	html := ToHTML(Colorize("hi", "red"))
	if !strings.Contains(html, `<span style="color:`) {
		t.Fatalf("expected opening span, got %q", html)
	}
	if !strings.HasSuffix(html, "</span>") {
		t.Fatalf("expected closing span, got %q", html)
	}
}

func TestToHTMLDropsUnknownCodes(t *testing.T) {
	html := ToHTML("\x1b[1mbold\x1b[0m")
	if strings.Contains(html, "<span") {
		t.Fatalf("expected no span for unknown-only code, got %q", html)
	}
	if !strings.Contains(html, "bold") {
		t.Fatalf("expected text preserved, got %q", html)
	}
}

func TestToHTMLEscapesSpecialCharacters(t *testing.T) {
	html := ToHTML("a < b & c > d")
	if strings.ContainsAny(html, "<>") {
		t.Fatalf("expected no raw angle brackets, got %q", html)
	}
	if !strings.Contains(html, "&lt;") || !strings.Contains(html, "&gt;") || !strings.Contains(html, "&amp;") {
		t.Fatalf("expected escaped entities, got %q", html)
	}
}
