package ansi

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Reset is the SGR sequence that clears all active attributes.
const Reset = "\x1b[0m"

// paletteEntry pairs a terminal color with its HTML hex equivalent and a
// ready-to-use fatih/color instance forced to always emit codes — the
// renderer runs over arbitrary connections, not necessarily a TTY that
// fatih/color's auto-detection would recognize.
type paletteEntry struct {
	code *color.Color
	hex  string
}

var palette = map[string]paletteEntry{
	"red":     {color.New(color.FgRed), "#e06c75"},
	"green":   {color.New(color.FgGreen), "#98c379"},
	"yellow":  {color.New(color.FgYellow), "#e5c07b"},
	"blue":    {color.New(color.FgBlue), "#61afef"},
	"magenta": {color.New(color.FgMagenta), "#c678dd"},
	"cyan":    {color.New(color.FgCyan), "#56b6c2"},
	"white":   {color.New(color.FgWhite), "#d0d0d0"},
	"gray":    {color.New(color.FgHiBlack), "#5c6370"},
}

func init() {
	for _, entry := range palette {
		entry.code.EnableColor()
	}
}

// codeToColorName maps the numeric SGR parameter fatih/color assigns each
// foreground attribute back to a palette name, used by ToHTML.
var codeToColorName = map[string]string{
	"31": "red",
	"32": "green",
	"33": "yellow",
	"34": "blue",
	"35": "magenta",
	"36": "cyan",
	"37": "white",
	"90": "gray",
}

// Colorize wraps text in the named color's escape sequence, followed by a
// reset. An unknown color name is treated as a raw escape sequence supplied
// by the caller and applied literally.
func Colorize(text string, colorName string) string {
	if entry, ok := palette[colorName]; ok {
		return entry.code.Sprint(text)
	}
	// Not a palette name: treat it as a literal escape sequence prefix.
	return colorName + text + Reset
}

// ToHTML converts a string containing CSI-m escapes into HTML, replacing
// each color code with a <span style="color:#rrggbb"> and closing any open
// span on reset or at end of string. Unknown codes are dropped silently.
// The output never contains an ESC byte.
func ToHTML(s string) string {
	var b strings.Builder
	open := false
	i := 0
	for i < len(s) {
		if s[i] == '\x1b' {
			loc := csiSGR.FindStringIndex(s[i:])
			if loc == nil || loc[0] != 0 {
				i++
				continue
			}
			seq := s[i+loc[0] : i+loc[1]]
			i += loc[1]
			params := seq[2 : len(seq)-1] // strip ESC[ and trailing m

			if open {
				b.WriteString("</span>")
				open = false
			}
			if params == "" || params == "0" {
				continue // reset or empty SGR: already closed above
			}
			name := lastColorName(params)
			if name == "" {
				continue
			}
			b.WriteString(fmt.Sprintf(`<span style="color:%s">`, palette[name].hex))
			open = true
			continue
		}

		// Literal text run up to the next escape (or end of string): escape
		// it for safe HTML embedding without touching the markup just written.
		j := i
		for j < len(s) && s[j] != '\x1b' {
			j++
		}
		b.WriteString(htmlEscape(s[i:j]))
		i = j
	}
	if open {
		b.WriteString("</span>")
	}
	return b.String()
}

// lastColorName finds the last semicolon-separated numeric parameter in an
// SGR parameter list that maps to a known palette color.
func lastColorName(params string) string {
	parts := strings.Split(params, ";")
	for i := len(parts) - 1; i >= 0; i-- {
		if name, ok := codeToColorName[parts[i]]; ok {
			return name
		}
	}
	return ""
}

// htmlEscape escapes the handful of characters that are meaningful in HTML
// text content. ToHTML calls this only on literal text runs between
// escapes, never on the <span> markup it writes itself.
func htmlEscape(s string) string {
	if !strings.ContainsAny(s, "&<>") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ColorNames returns the known palette color names in a stable order, used
// by validation and documentation.
func ColorNames() []string {
	names := make([]string, 0, len(palette))
	for _, n := range []string{"red", "green", "yellow", "blue", "magenta", "cyan", "white", "gray"} {
		if _, ok := palette[n]; ok {
			names = append(names, n)
		}
	}
	return names
}

// HexFor returns the HTML hex color for a palette name, and whether it
// exists.
func HexFor(name string) (string, bool) {
	entry, ok := palette[name]
	return entry.hex, ok
}
