package serialmon

import (
	"encoding/hex"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

type Severity int

const (
	Plain Severity = iota
	Info
	Warn
	Error
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "ERROR"
	case Warn:
		return "WARN"
	case Info:
		return "INFO"
	default:
		return "PLAIN"
	}
}

// Ordered by priority, the first matching group wins.
var severityTokens = []struct {
	severity Severity
	tokens   []string
}{
	{Error, []string{"ERR", "ERROR"}},
	{Warn, []string{"WRN", "WARNING"}},
	{Info, []string{"INF", "INFO"}},
}

// Classify tags a decoded line by case-insensitive substring match.
func Classify(text string) Severity {
	upper := strings.ToUpper(text)
	for _, group := range severityTokens {
		for _, token := range group.tokens {
			if strings.Contains(upper, token) {
				return group.severity
			}
		}
	}
	return Plain
}

// Record is one line read off the wire. Raw never includes the terminator.
type Record struct {
	Raw      []byte
	Decoded  bool
	Text     string
	Severity Severity
	Time     time.Time
}

func NewRecord(raw []byte, captured time.Time) Record {
	rec := Record{Raw: raw, Time: captured}
	if !utf8.Valid(raw) {
		return rec
	}
	rec.Decoded = true
	rec.Text = strings.TrimRightFunc(string(raw), unicode.IsSpace)
	rec.Severity = Classify(rec.Text)
	return rec
}

// Empty reports whether the line decoded to nothing but whitespace.
func (r Record) Empty() bool {
	return r.Decoded && r.Text == ""
}

func (r Record) Hex() string {
	return hex.EncodeToString(r.Raw)
}
