package frame

import (
	"strings"
	"testing"
)

func TestValidateFrameAcceptsSimpleBox(t *testing.T) {
	b, _ := New(20, 80, 1, StyleSingle, AlignLeft)
	lines, _ := b.Build([]Line{{Text: "hello"}})
	report := ValidateFrame(strings.Join(lines, "\n"))
	if !report.Valid {
		t.Fatalf("expected valid, got violations: %v", report.Violations)
	}
	if report.Width != 20 {
		t.Fatalf("expected width 20, got %d", report.Width)
	}
}

func TestValidateFrameRejectsRaggedWidth(t *testing.T) {
	bad := "┌────┐\n│ hi │\n└───┘" // bottom row one column short
	report := ValidateFrame(bad)
	if report.Valid {
		t.Fatal("expected invalid frame")
	}
}

func TestValidateFrameRejectsMissingBorder(t *testing.T) {
	bad := "plain text\nmore plain text"
	report := ValidateFrame(bad)
	if report.Valid {
		t.Fatal("expected invalid frame for missing border glyphs")
	}
}

func TestValidateFrameRejectsSingleLine(t *testing.T) {
	report := ValidateFrame("┌────┐")
	if report.Valid {
		t.Fatal("expected invalid frame for a single line")
	}
}

func TestValidateFrameAcceptsDoubleStyle(t *testing.T) {
	b, _ := New(20, 80, 1, StyleDouble, AlignLeft)
	lines, _ := b.Build([]Line{{Text: "hello"}})
	report := ValidateFrame(strings.Join(lines, "\n"))
	if !report.Valid {
		t.Fatalf("expected valid double-style frame, got violations: %v", report.Violations)
	}
}

func TestValidateFrameAcceptsFrameWithTitle(t *testing.T) {
	b, _ := New(30, 80, 1, StyleSingle, AlignLeft)
	lines, _ := b.BuildWithTitle("Welcome", []Line{{Text: "body text"}}, "cyan")
	report := ValidateFrame(strings.Join(lines, "\n"))
	if !report.Valid {
		t.Fatalf("expected valid, got violations: %v", report.Violations)
	}
}

func TestValidateFrameRejectsUnbalancedSides(t *testing.T) {
	bad := "┌────┐\n  hi  \n└────┘"
	report := ValidateFrame(bad)
	if report.Valid {
		t.Fatal("expected invalid frame for missing side borders")
	}
}

func TestValidateFrameReportsHeight(t *testing.T) {
	b, _ := New(20, 80, 1, StyleSingle, AlignLeft)
	lines, _ := b.Build([]Line{{Text: "hello"}, {Text: "world"}})
	report := ValidateFrame(strings.Join(lines, "\n"))
	if report.Height != len(lines) {
		t.Fatalf("expected height %d, got %d", len(lines), report.Height)
	}
}

func TestValidateFrameHandlesCRLF(t *testing.T) {
	b, _ := New(20, 80, 1, StyleSingle, AlignLeft)
	lines, _ := b.Build([]Line{{Text: "hello"}})
	report := ValidateFrame(strings.Join(lines, "\r\n"))
	if !report.Valid {
		t.Fatalf("expected CRLF-joined frame to validate, got violations: %v", report.Violations)
	}
	if report.Width != 20 {
		t.Fatalf("expected width 20 unaffected by stray \\r, got %d", report.Width)
	}
}

func TestValidateFrameAcceptsDividerRow(t *testing.T) {
	b, _ := New(30, 80, 1, StyleSingle, AlignLeft)
	lines, _ := b.BuildWithTitle("Title", []Line{{Text: "body"}}, "")
	report := ValidateFrame(strings.Join(lines, "\n"))
	if !report.Valid {
		t.Fatalf("expected a frame with a tee-bordered divider row to validate, got: %v", report.Violations)
	}
}

func TestValidateFrameRejectsMixedStyle(t *testing.T) {
	bad := "┌────┐\n│ hi ║\n└────┘"
	report := ValidateFrame(bad)
	if report.Valid {
		t.Fatal("expected invalid frame for mixed single/double border glyphs")
	}
	found := false
	for _, v := range report.Violations {
		if strings.Contains(v, "mixes single-style and double-style") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a mixed-style violation, got: %v", report.Violations)
	}
}

func TestValidateMultipleDetectsSiblingFrames(t *testing.T) {
	text := "┌────┐\n│ hi │\n└────┘\n┌────┐\n│ yo │\n└────┘"
	issues := validateMultiple(text)
	if len(issues) != 0 {
		t.Fatalf("expected two well-formed sibling frames to produce no issues, got: %v", issues)
	}
}

func TestValidateMultipleFlagsUnclosedFrame(t *testing.T) {
	text := "┌────┐\n│ hi │\n┌────┐\n│ yo │\n└────┘"
	issues := validateMultiple(text)
	if len(issues) == 0 {
		t.Fatal("expected an issue for a frame opened before the previous one closed")
	}
}

func TestValidateBordersFlagsForeignGlyph(t *testing.T) {
	text := "┌────┐\n│ hi ║\n└────┘"
	issues := validateBorders(text, StyleSingle)
	if len(issues) == 0 {
		t.Fatal("expected an issue for a double-style glyph inside a single-style frame")
	}
}

func TestValidateBordersAcceptsUniformStyle(t *testing.T) {
	b, _ := New(20, 80, 1, StyleDouble, AlignLeft)
	lines, _ := b.Build([]Line{{Text: "hello"}})
	text := strings.Join(lines, "\n")
	if issues := validateBorders(text, StyleDouble); len(issues) != 0 {
		t.Fatalf("expected no issues for a uniformly double-style frame, got: %v", issues)
	}
}

func TestValidateMaxWidthReportsOverflowingLines(t *testing.T) {
	text := "short\nthis line is much longer than the limit"
	issues := validateMaxWidth(text, 10)
	if len(issues) != 1 {
		t.Fatalf("expected exactly one overflowing line, got: %v", issues)
	}
}
