package frame

import (
	"fmt"
	"strings"

	"github.com/boardops/boardops/internal/ansi"
)

// Report describes the outcome of validating a rendered frame: the
// uniform width it expected (taken from the first line), the number of
// lines it examined, and the specific violations that made it invalid,
// if any.
type Report struct {
	Valid      bool
	Width      int
	Height     int
	Violations []string
}

// ValidateFrame checks a rendered multi-line frame (as produced by a
// Builder, or reconstructed from stored text) against the structural
// invariants every frame must hold: every line has the same visual width,
// the first and last lines are borders, side borders are present and
// balanced on every row, corner glyphs belong to one consistent style, and
// no line mixes glyphs from both known styles.
func ValidateFrame(frameText string) Report {
	lines := splitLines(frameText)
	report := Report{Valid: true}

	if len(lines) < 2 {
		report.Valid = false
		report.Violations = append(report.Violations, "frame has fewer than two lines")
		return report
	}

	report.Height = len(lines)
	report.Width = ansi.Width(lines[0])
	for i, line := range lines {
		if w := ansi.Width(line); w != report.Width {
			report.Valid = false
			report.Violations = append(report.Violations,
				fmt.Sprintf("line %d width %d does not match frame width %d", i, w, report.Width))
		}
	}

	style, ok := detectStyle(lines[0])
	if !ok {
		report.Valid = false
		report.Violations = append(report.Violations, "top border does not use a recognized glyph style")
	} else {
		if !isTopRow(lines[0], style) {
			report.Valid = false
			report.Violations = append(report.Violations, "first line is not a valid top border")
		}
		last := lines[len(lines)-1]
		if !isBottomRow(last, style) {
			report.Valid = false
			report.Violations = append(report.Violations, "last line is not a valid bottom border")
		}
		for i := 1; i < len(lines)-1; i++ {
			if !hasBalancedSides(lines[i], style) {
				report.Valid = false
				report.Violations = append(report.Violations,
					fmt.Sprintf("line %d is missing balanced side borders", i))
			}
		}
	}

	if issue, mixed := detectMixedStyle(lines); mixed {
		report.Valid = false
		report.Violations = append(report.Violations, issue)
	}

	return report
}

// splitLines normalizes CRLF to LF before splitting, so a frame rendered
// for the telnet surface (which joins its lines with "\r\n") validates the
// same way a LF-joined web or terminal frame does, and drops any trailing
// blank lines left by a final line ending.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// detectStyle reports which glyph style a border line uses, identified by
// its corner/tee glyphs, and whether it recognized one at all.
func detectStyle(line string) (Style, bool) {
	plain := ansi.Strip(line)
	switch {
	case strings.HasPrefix(plain, glyphSets[StyleSingle].topLeft) ||
		strings.HasPrefix(plain, glyphSets[StyleSingle].teeLeft) ||
		strings.HasPrefix(plain, glyphSets[StyleSingle].bottomLeft):
		return StyleSingle, true
	case strings.HasPrefix(plain, glyphSets[StyleDouble].topLeft) ||
		strings.HasPrefix(plain, glyphSets[StyleDouble].teeLeft) ||
		strings.HasPrefix(plain, glyphSets[StyleDouble].bottomLeft):
		return StyleDouble, true
	default:
		return 0, false
	}
}

func isTopRow(line string, style Style) bool {
	plain := ansi.Strip(line)
	g := glyphSets[style]
	return strings.HasPrefix(plain, g.topLeft) && strings.HasSuffix(plain, g.topRight) && allHorizontal(plain, g)
}

func isBottomRow(line string, style Style) bool {
	plain := ansi.Strip(line)
	g := glyphSets[style]
	return strings.HasPrefix(plain, g.bottomLeft) && strings.HasSuffix(plain, g.bottomRight) && allHorizontal(plain, g)
}

// allHorizontal checks that everything between the first and last glyph of
// a border row is the style's horizontal rule (used for top/bottom/divider
// rows, which never carry content).
func allHorizontal(plain string, g glyphs) bool {
	runes := []rune(plain)
	if len(runes) < 2 {
		return false
	}
	inner := string(runes[1 : len(runes)-1])
	return inner == strings.Repeat(g.horizontal, len(runes)-2)
}

// hasBalancedSides checks that a middle row opens and closes with a
// vertical-or-T glyph: ordinary content rows are bordered by the plain
// vertical glyph on both sides, while a divider row (as BuildWithTitle
// inserts between a title and its body) opens and closes with the tee
// glyphs instead.
func hasBalancedSides(line string, style Style) bool {
	plain := ansi.Strip(line)
	g := glyphSets[style]
	left := strings.HasPrefix(plain, g.vertical) || strings.HasPrefix(plain, g.teeLeft)
	right := strings.HasSuffix(plain, g.vertical) || strings.HasSuffix(plain, g.teeRight)
	return left && right
}

// verticalGlyphOwner maps every vertical-or-T glyph from either style to
// the style it belongs to, for mixed-style detection.
var verticalGlyphOwner = buildVerticalGlyphOwner()

func buildVerticalGlyphOwner() map[string]Style {
	owner := make(map[string]Style)
	for _, style := range []Style{StyleSingle, StyleDouble} {
		g := glyphSets[style]
		owner[g.vertical] = style
		owner[g.teeLeft] = style
		owner[g.teeRight] = style
	}
	return owner
}

// detectMixedStyle inspects the first and last glyph of every line for a
// vertical-or-T glyph and reports an issue if both a single-style and a
// double-style glyph were observed anywhere in the frame.
func detectMixedStyle(lines []string) (string, bool) {
	seen := make(map[Style]bool)
	for _, line := range lines {
		plain := ansi.Strip(line)
		runes := []rune(plain)
		if len(runes) == 0 {
			continue
		}
		if style, ok := verticalGlyphOwner[string(runes[0])]; ok {
			seen[style] = true
		}
		if style, ok := verticalGlyphOwner[string(runes[len(runes)-1])]; ok {
			seen[style] = true
		}
	}
	if seen[StyleSingle] && seen[StyleDouble] {
		return "frame mixes single-style and double-style border glyphs", true
	}
	return "", false
}

// validateMultiple scans text for more than one frame by detecting each
// top-border occurrence and validating the block it opens against its own
// matching bottom border, catching cases a single ValidateFrame call
// would miss: a nested or sibling frame embedded in a larger block of
// rendered text.
func validateMultiple(text string) []string {
	lines := splitLines(text)
	var issues []string

	blockStart := -1
	var style Style
	frameIndex := 0
	for i, line := range lines {
		lineStyle, ok := detectStyle(line)
		if ok && isTopRow(line, lineStyle) {
			if blockStart != -1 {
				issues = append(issues, fmt.Sprintf("line %d opens a new frame before the one at line %d closed", i, blockStart))
			}
			blockStart = i
			style = lineStyle
			frameIndex++
			continue
		}
		if blockStart != -1 && ok && isBottomRow(line, style) {
			block := strings.Join(lines[blockStart:i+1], "\n")
			report := ValidateFrame(block)
			if !report.Valid {
				for _, v := range report.Violations {
					issues = append(issues, fmt.Sprintf("frame %d: %s", frameIndex, v))
				}
			}
			blockStart = -1
		}
	}
	if blockStart != -1 {
		issues = append(issues, fmt.Sprintf("frame opened at line %d was never closed by a matching bottom border", blockStart))
	}
	return issues
}

// validateBorders performs a stricter check than ValidateFrame's own style
// detection: it verifies that every border-bearing line in text uses only
// glyphs from the given style, flagging any line that leaks a glyph from
// the other style's set even if ValidateFrame's looser per-row check would
// have passed it.
func validateBorders(text string, style Style) []string {
	lines := splitLines(text)
	other := otherStyle(style)
	otherGlyphs := glyphSets[other]
	foreign := []string{
		otherGlyphs.topLeft, otherGlyphs.topRight,
		otherGlyphs.bottomLeft, otherGlyphs.bottomRight,
		otherGlyphs.horizontal, otherGlyphs.vertical,
		otherGlyphs.teeLeft, otherGlyphs.teeRight,
	}

	var issues []string
	for i, line := range lines {
		plain := ansi.Strip(line)
		for _, glyph := range foreign {
			if strings.Contains(plain, glyph) {
				issues = append(issues, fmt.Sprintf("line %d uses a glyph from the other border style", i))
				break
			}
		}
	}
	return issues
}

func otherStyle(style Style) Style {
	if style == StyleSingle {
		return StyleDouble
	}
	return StyleSingle
}

// validateMaxWidth reports every line in text whose visual width exceeds
// w, independent of whether the frame itself is otherwise structurally
// valid.
func validateMaxWidth(text string, w int) []string {
	lines := splitLines(text)
	var issues []string
	for i, line := range lines {
		if width := ansi.Width(line); width > w {
			issues = append(issues, fmt.Sprintf("line %d width %d exceeds maximum %d", i, width, w))
		}
	}
	return issues
}
