// Package frame builds and validates fixed-width bordered text boxes using
// CP437 box-drawing glyphs, on top of the ansi package's width-aware
// padding and coloring.
package frame

import (
	"fmt"
	"strings"

	"github.com/boardops/boardops/internal/ansi"
)

// Style selects the box-drawing glyph set a Builder uses.
type Style int

const (
	// StyleSingle draws with the single-line glyph set ┌┐└┘─│├┤.
	StyleSingle Style = iota
	// StyleDouble draws with the double-line glyph set ╔╗╚╝═║╠╣.
	StyleDouble
)

// Align controls how a Line's text is padded within the content area.
type Align int

const (
	// AlignInherit defers to the Builder's configured default alignment.
	AlignInherit Align = iota
	AlignLeft
	AlignCenter
)

type glyphs struct {
	topLeft, topRight       string
	bottomLeft, bottomRight string
	horizontal, vertical    string
	teeLeft, teeRight       string
}

var glyphSets = map[Style]glyphs{
	StyleSingle: {"┌", "┐", "└", "┘", "─", "│", "├", "┤"},
	StyleDouble: {"╔", "╗", "╚", "╝", "═", "║", "╠", "╣"},
}

// Line is a single logical row of content passed into a Builder. It is
// never mutated once constructed.
type Line struct {
	Text  string
	Align Align
	Color string // palette name, or a raw escape sequence applied literally
}

// WidthExceeded is returned when a built frame's line width would exceed
// the Builder's configured maximum.
type WidthExceeded struct {
	Actual int
	Max    int
}

func (e *WidthExceeded) Error() string {
	return fmt.Sprintf("frame line width %d exceeds maximum %d", e.Actual, e.Max)
}

// Builder assembles bordered frames of a fixed outer width.
type Builder struct {
	width    int
	maxWidth int
	padding  int
	style    Style
	align    Align
}

// New creates a Builder. It rejects width values greater than maxWidth.
func New(width, maxWidth, padding int, style Style, align Align) (*Builder, error) {
	if width > maxWidth {
		return nil, &WidthExceeded{Actual: width, Max: maxWidth}
	}
	if align == AlignInherit {
		align = AlignLeft
	}
	return &Builder{width: width, maxWidth: maxWidth, padding: padding, style: style, align: align}, nil
}

func (b *Builder) glyphs() glyphs {
	return glyphSets[b.style]
}

func (b *Builder) contentWidth() int {
	return b.width - 2 - 2*b.padding
}

func (b *Builder) topRow() string {
	g := b.glyphs()
	return g.topLeft + strings.Repeat(g.horizontal, b.width-2) + g.topRight
}

func (b *Builder) bottomRow() string {
	g := b.glyphs()
	return g.bottomLeft + strings.Repeat(g.horizontal, b.width-2) + g.bottomRight
}

func (b *Builder) dividerRow() string {
	g := b.glyphs()
	return g.teeLeft + strings.Repeat(g.horizontal, b.width-2) + g.teeRight
}

func (b *Builder) emptyRow() string {
	return b.contentRow(Line{Text: ""})
}

// contentRow renders a single Line as a bordered, padded, colored row whose
// visual width is exactly b.width.
func (b *Builder) contentRow(line Line) string {
	g := b.glyphs()
	cw := b.contentWidth()

	text := ansi.Truncate(line.Text, cw, "...")
	align := line.Align
	if align == AlignInherit {
		align = b.align
	}

	padded := padTo(text, cw, align)
	if line.Color != "" {
		padded = ansi.Colorize(padded, line.Color)
	}

	sidePad := strings.Repeat(" ", b.padding)
	return g.vertical + sidePad + padded + sidePad + g.vertical
}

// padTo pads text to exactly w visual cells using the given alignment.
func padTo(text string, w int, align Align) string {
	deficit := w - ansi.Width(text)
	if deficit <= 0 {
		return text
	}
	switch align {
	case AlignCenter:
		left := deficit / 2
		right := deficit - left
		return strings.Repeat(" ", left) + text + strings.Repeat(" ", right)
	default: // AlignLeft
		return text + strings.Repeat(" ", deficit)
	}
}

// Build renders lines into a bordered frame: top border, one row per line,
// bottom border. No trailing separators are appended.
func (b *Builder) Build(lines []Line) ([]string, error) {
	out := make([]string, 0, len(lines)+2)
	out = append(out, b.topRow())
	for _, l := range lines {
		out = append(out, b.contentRow(l))
	}
	out = append(out, b.bottomRow())
	return b.checkWidths(out)
}

// BuildWithTitle renders a centered title (surrounded by blank rows and
// separated from the content by a divider row) above the given lines.
func (b *Builder) BuildWithTitle(title string, lines []Line, titleColor string) ([]string, error) {
	out := make([]string, 0, len(lines)+6)
	out = append(out, b.topRow())
	out = append(out, b.emptyRow())
	out = append(out, b.contentRow(Line{Text: title, Align: AlignCenter, Color: titleColor}))
	out = append(out, b.emptyRow())
	out = append(out, b.dividerRow())
	for _, l := range lines {
		out = append(out, b.contentRow(l))
	}
	out = append(out, b.bottomRow())
	return b.checkWidths(out)
}

// BuildMessage renders a single centered line bordered on all sides.
func (b *Builder) BuildMessage(message string, color string) ([]string, error) {
	out := []string{
		b.topRow(),
		b.contentRow(Line{Text: message, Align: AlignCenter, Color: color}),
		b.bottomRow(),
	}
	return b.checkWidths(out)
}

// checkWidths verifies every rendered line is within maxWidth, failing with
// WidthExceeded on the first violation.
func (b *Builder) checkWidths(lines []string) ([]string, error) {
	for _, l := range lines {
		if w := ansi.Width(l); w > b.maxWidth {
			return nil, &WidthExceeded{Actual: w, Max: b.maxWidth}
		}
	}
	return lines, nil
}

// Validate is a light sanity wrapper around the independent frame
// validator, kept for callers that only need a single boolean-ish result
// without importing the frame validator's full report type.
func Validate(frameText string) bool {
	report := ValidateFrame(frameText)
	return report.Valid
}
