// Package ansi computes the visual cell width of strings that mix SGR color
// escapes, CP437 box-drawing glyphs, and wide Unicode code points, and
// applies or strips 16-color ANSI formatting.
package ansi

import (
	"regexp"
	"strings"
)

// csiSGR matches a CSI "set graphics" escape: ESC [ then digits/semicolons
// then a final 'm'. This is the only escape form the renderer ever emits or
// expects to encounter.
var csiSGR = regexp.MustCompile("\x1b\\[[0-9;]*m")

// wideRanges lists the inclusive Unicode code point ranges that occupy two
// terminal cells instead of one.
var wideRanges = [][2]rune{
	{0x1F300, 0x1F9FF}, // misc symbols & pictographs, supplemental symbols
	{0x2600, 0x26FF},   // misc symbols
	{0x2700, 0x27BF},   // dingbats
	{0x4E00, 0x9FFF},   // CJK unified ideographs
	{0x3400, 0x4DBF},   // CJK extension A
}

func isWide(r rune) bool {
	for _, rng := range wideRanges {
		if r >= rng[0] && r <= rng[1] {
			return true
		}
	}
	return false
}

// Strip removes every CSI-m escape sequence from s, leaving the rest
// untouched.
func Strip(s string) string {
	if !strings.ContainsRune(s, '\x1b') {
		return s
	}
	return csiSGR.ReplaceAllString(s, "")
}

// Width returns the number of terminal cells s occupies once all ANSI
// escapes are stripped. Box-drawing glyphs (U+2500..U+257F) count as one
// cell; the ranges in wideRanges count as two.
func Width(s string) int {
	if s == "" {
		return 0
	}
	plain := Strip(s)
	width := 0
	for _, r := range plain {
		if isWide(r) {
			width += 2
		} else {
			width++
		}
	}
	return width
}

// Fits reports whether s occupies at most w cells.
func Fits(s string, w int) bool {
	return Width(s) <= w
}

// Truncate shortens s so that its visual width, including ellipsis, is at
// most w cells. If s already fits it is returned unchanged. ellipsis
// defaults to "..." when empty.
func Truncate(s string, w int, ellipsis string) string {
	if ellipsis == "" {
		ellipsis = "..."
	}
	if Fits(s, w) {
		return s
	}
	ellWidth := Width(ellipsis)
	if w <= ellWidth {
		// Not enough room even for the ellipsis; return as much of it as fits.
		return truncatePlain(ellipsis, w)
	}
	budget := w - ellWidth
	return truncatePlain(Strip(s), budget) + ellipsis
}

// truncatePlain trims a plain (escape-free) string to at most w visual cells,
// taking care not to split a wide rune.
func truncatePlain(s string, w int) string {
	if w <= 0 {
		return ""
	}
	var b strings.Builder
	used := 0
	for _, r := range s {
		rw := 1
		if isWide(r) {
			rw = 2
		}
		if used+rw > w {
			break
		}
		b.WriteRune(r)
		used += rw
	}
	return b.String()
}
