package serialmon

import (
	"fmt"
	"io"
	"strings"
)

const TimestampLayout = "15:04:05.000"

const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
	colorCyan   = "\x1b[36m"
)

var severityColors = map[Severity]string{
	Error: colorRed,
	Warn:  colorYellow,
	Info:  colorCyan,
}

// Printer renders records as console lines.
//
// Decoded lines look like "[12:00:01.250] WARN:  text"; plain lines carry only the
// timestamp. Lines that failed to decode are printed as "[RAW] <hex>" with no
// timestamp. Bare drops both timestamp and label.
type Printer struct {
	Out   io.Writer
	Color bool
	Bare  bool
}

func (p Printer) Print(rec Record) error {
	_, err := fmt.Fprintln(p.Out, p.Format(rec))
	return err
}

func (p Printer) Format(rec Record) string {
	if !rec.Decoded {
		return "[RAW] " + rec.Hex()
	}
	if p.Bare {
		return rec.Text
	}

	body := rec.Text
	if rec.Severity != Plain {
		body = label(rec.Severity) + " " + rec.Text
	}
	if color, ok := severityColors[rec.Severity]; ok && p.Color {
		body = color + body + colorReset
	}
	return fmt.Sprintf("[%s] %s", rec.Time.Format(TimestampLayout), body)
}

// label pads severities to a common width so text columns line up.
func label(s Severity) string {
	return fmt.Sprintf("%-6s", s.String()+":")
}

func PrintBanner(w io.Writer, title string, board string) {
	rule := strings.Repeat("=", 40)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  %s\n", title)
	if board != "" {
		fmt.Fprintf(w, "  Board: %s\n", board)
	}
	fmt.Fprintln(w, rule)
}
