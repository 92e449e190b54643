package output

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	indent     = "    "
	frameWidth = 61 // columns after the left border
)

// ANSI styles.
const (
	ansiReset  = "\033[0m"
	ansiHeader = "\033[2;36m"
	ansiGreen  = "\033[32m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiGrey   = "\033[90m"
)

func paint(text, style string, color bool) string {
	if !color || style == "" {
		return text
	}
	return style + text + ansiReset
}

// Section is a box-framed block of job output:
//
//	── Name ─────────────── 1.2s ──
//	│ row
//	├──────────────────────────────
//	└──────────────────────────────
type Section struct {
	w io.Writer
}

// NewSection writes the header for name and returns the open section. A
// non-zero elapsed is shown at the right end of the header.
func NewSection(w io.Writer, name string, elapsed time.Duration, color bool) *Section {
	fmt.Fprintf(w, "\n%s%s\n", indent, paint(headerLine(name, elapsed), ansiHeader, color))
	return &Section{w: w}
}

func headerLine(name string, elapsed time.Duration) string {
	left := "── " + name + " "
	right := "──"
	if elapsed > 0 {
		right = " " + FormatElapsed(elapsed) + " ──"
	}
	fill := frameWidth + 4 - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	return left + strings.Repeat("─", max(fill, 1)) + right
}

func (s *Section) rule(corner string) {
	fmt.Fprintf(s.w, "%s%s%s\n", indent, corner, strings.Repeat("─", frameWidth))
}

// Row writes one framed line.
func (s *Section) Row(format string, args ...any) {
	fmt.Fprintf(s.w, "%s│ %s\n", indent, fmt.Sprintf(format, args...))
}

// Separator divides the section.
func (s *Section) Separator() { s.rule("├") }

// Close writes the footer.
func (s *Section) Close() { s.rule("└") }

type glyph struct {
	plain string
	style string
}

var statusGlyphs = map[string]glyph{
	"success":   {"✓", ansiGreen},
	"failed":    {"✗", ansiRed},
	"tolerated": {"~", ansiYellow},
	"skipped":   {"⊘", ansiYellow},
}

// StatusIcon is the glyph for a step or job status. Unknown statuses read
// as skipped.
func StatusIcon(status string, color bool) string {
	g, ok := statusGlyphs[status]
	if !ok {
		g = statusGlyphs["skipped"]
	}
	return paint(g.plain, g.style, color)
}

// Dimmed greys text out.
func Dimmed(text string, color bool) string {
	return paint(text, ansiGrey, color)
}

// KV is one entry of a context block.
type KV struct {
	Key   string
	Value string
}

// ContextBlock prints pairs two to a line, keys and first values padded to
// line up.
func ContextBlock(w io.Writer, kv []KV) {
	if len(kv) == 0 {
		return
	}
	keyWidth, valueWidth := 11, 29
	for i, p := range kv {
		keyWidth = max(keyWidth, len(p.Key))
		if i%2 == 0 {
			valueWidth = max(valueWidth, len(p.Value))
		}
	}

	fmt.Fprintln(w)
	for i := 0; i < len(kv); i += 2 {
		var b strings.Builder
		fmt.Fprintf(&b, "%s%-*s %-*s", indent, keyWidth, kv[i].Key, valueWidth, kv[i].Value)
		if i+1 < len(kv) {
			fmt.Fprintf(&b, " %-*s %s", keyWidth, kv[i+1].Key, kv[i+1].Value)
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

// FormatElapsed renders a duration as <1ms, 250ms, 4.2s or 3m7.5s.
func FormatElapsed(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return "<1ms"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	mins := int(d.Minutes())
	return fmt.Sprintf("%dm%.1fs", mins, (d - time.Duration(mins)*time.Minute).Seconds())
}

// SummaryRow writes one job line of the run summary.
func SummaryRow(w io.Writer, name, status, detail string, color bool) {
	fmt.Fprintf(w, "%s│ %-16s%s  %s\n", indent, name, StatusIcon(status, color), detail)
}

// SummaryTotal closes the run summary with the wall time and overall status.
func SummaryTotal(w io.Writer, elapsed time.Duration, status string, color bool) {
	fmt.Fprintf(w, "%s│ %-16s%36s   %s\n", indent, "total", FormatElapsed(elapsed), StatusIcon(status, color))
}
