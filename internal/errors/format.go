package errors

import (
	"fmt"
	"strings"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// colorEnabled controls whether ANSI colors are used.
var colorEnabled = true

// DisableColors disables ANSI color output.
func DisableColors() {
	colorEnabled = false
}

// EnableColors enables ANSI color output.
func EnableColors() {
	colorEnabled = true
}

func color(code, text string) string {
	if !colorEnabled {
		return text
	}
	return code + text + colorReset
}

// Format renders the error for terminal output: headline, detail,
// underlying cause, suggestion, and documentation link.
func (e *Error) Format() string {
	var b strings.Builder

	headline := e.Message
	if e.Code != "" {
		headline = fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	b.WriteString(color(colorRed+colorBold, "error"))
	if e.Category != "" {
		b.WriteString(color(colorGray, fmt.Sprintf(" (%s)", e.Category)))
	}
	b.WriteString(": ")
	b.WriteString(headline)
	b.WriteString("\n")

	if e.Detail != "" {
		b.WriteString("  ")
		b.WriteString(e.Detail)
		b.WriteString("\n")
	}
	if e.Wrapped != nil {
		b.WriteString(color(colorGray, "  cause: "))
		b.WriteString(e.Wrapped.Error())
		b.WriteString("\n")
	}
	if e.Suggestion != "" {
		b.WriteString(color(colorYellow, "  hint: "))
		b.WriteString(e.Suggestion)
		b.WriteString("\n")
	}
	if e.DocURL != "" {
		b.WriteString(color(colorCyan, "  docs: "))
		b.WriteString(e.DocURL)
		b.WriteString("\n")
	}

	return b.String()
}
