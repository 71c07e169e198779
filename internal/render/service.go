// Package render turns frame and template content into the final byte
// stream a given client surface receives, picking line endings and HTML
// conversion based on the kind of connection being served.
package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/boardops/boardops/internal/ansi"
	"github.com/boardops/boardops/internal/frame"
)

// SurfaceKind identifies which client surface a Context renders for.
type SurfaceKind int

const (
	SurfaceTelnet SurfaceKind = iota
	SurfaceTerminal
	SurfaceWeb
)

// Context carries the per-connection rendering parameters: which surface
// is being served, the frame width to render at, and whether structural
// validation should run before the frame is returned.
type Context struct {
	Surface  SurfaceKind
	Width    int
	MaxWidth int
	Style    frame.Style
	Align    frame.Align
	Padding  int
	Validate bool
}

// lineEnding returns the byte sequence used to join rendered lines for a
// given surface: telnet is CRLF per RFC 854, terminal and web contexts
// join with a plain LF.
func (c Context) lineEnding() string {
	if c.Surface == SurfaceTelnet {
		return "\r\n"
	}
	return "\n"
}

// GetLineEnding exposes the line ending a context would use, for callers
// that need to frame output themselves (e.g. a telnet write loop flushing
// partial lines).
func GetLineEnding(ctx Context) string {
	return ctx.lineEnding()
}

// MissingVariable is returned when a template is rendered without a value
// for one of its declared variables.
type MissingVariable struct {
	Name string
}

func (e *MissingVariable) Error() string {
	return fmt.Sprintf("missing value for template variable %q", e.Name)
}

// FrameInvalid wraps a frame.Report describing why a rendered frame failed
// structural validation.
type FrameInvalid struct {
	Report frame.Report
}

func (e *FrameInvalid) Error() string {
	return fmt.Sprintf("frame failed validation: %v", e.Report.Violations)
}

func builderFor(ctx Context) (*frame.Builder, error) {
	return frame.New(ctx.Width, ctx.MaxWidth, ctx.Padding, ctx.Style, ctx.Align)
}

// RenderFrame builds lines via the frame builder, converts them to HTML
// when the context targets the web surface, validates structure when
// requested, and joins everything with the context's line ending.
func RenderFrame(lines []frame.Line, ctx Context) (string, error) {
	b, err := builderFor(ctx)
	if err != nil {
		return "", err
	}
	built, err := b.Build(lines)
	if err != nil {
		return "", err
	}
	return finish(built, ctx)
}

// RenderFrameWithTitle is RenderFrame with a titled, divided header.
func RenderFrameWithTitle(title string, lines []frame.Line, titleColor string, ctx Context) (string, error) {
	b, err := builderFor(ctx)
	if err != nil {
		return "", err
	}
	built, err := b.BuildWithTitle(title, lines, titleColor)
	if err != nil {
		return "", err
	}
	return finish(built, ctx)
}

// RenderText renders a single line of plain text, colorizing it and, on
// the web surface, converting the result to HTML.
func RenderText(text string, color string, ctx Context) string {
	out := text
	if color != "" {
		out = ansi.Colorize(out, color)
	}
	if ctx.Surface == SurfaceWeb {
		out = ansi.ToHTML(out)
	}
	return out
}

// finish applies the web-surface HTML pass, validates structure if asked,
// checks the raw per-line width budget, and joins with the line ending.
func finish(lines []string, ctx Context) (string, error) {
	if ctx.Validate {
		report := frame.ValidateFrame(strings.Join(lines, "\n"))
		if !report.Valid {
			return "", &FrameInvalid{Report: report}
		}
	}
	for _, l := range lines {
		if w := ansi.Width(l); w > ctx.Width {
			return "", &frame.WidthExceeded{Actual: w, Max: ctx.Width}
		}
	}
	rendered := lines
	if ctx.Surface == SurfaceWeb {
		rendered = make([]string, len(lines))
		for i, l := range lines {
			rendered[i] = ansi.ToHTML(l)
		}
	}
	return strings.Join(rendered, ctx.lineEnding()), nil
}

// Template is a reusable frame shape: named placeholder lines substituted
// with caller-supplied values before being built and rendered.
type Template struct {
	Name      string
	Width     int
	Style     frame.Style
	Content   []frame.Line
	Variables []string
}

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// RenderTemplate verifies every declared variable has a value, substitutes
// `{{name}}` placeholders in each content line, and delegates to
// RenderFrame. Replacement values are inserted verbatim, so literal
// dollar signs in a replacement are never treated as a regexp
// back-reference.
func RenderTemplate(tpl Template, vars map[string]string, ctx Context, validate bool) (string, error) {
	for _, name := range tpl.Variables {
		if _, ok := vars[name]; !ok {
			return "", &MissingVariable{Name: name}
		}
	}

	substituted := make([]frame.Line, len(tpl.Content))
	for i, line := range tpl.Content {
		substituted[i] = frame.Line{
			Text:  substitute(line.Text, vars),
			Align: line.Align,
			Color: line.Color,
		}
	}

	ctx.Validate = validate
	return RenderFrame(substituted, ctx)
}

// substitute replaces every `{{name}}` occurrence in text with its value
// from vars. ReplaceAllStringFunc inserts the callback's return value
// verbatim, so a `$` in a replacement value is never reinterpreted as a
// regexp back-reference the way ReplaceAllString's template syntax would.
func substitute(text string, vars map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		return match
	})
}
