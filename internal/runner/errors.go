package runner

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sandkit/playground/internal/sandbox"
	"github.com/sandkit/playground/internal/transform"
)

// Phase tags which pipeline stage raised an error.
type Phase string

const (
	PhaseValidation     Phase = "validation"
	PhaseTransformation Phase = "transformation"
	PhaseExecution      Phase = "execution"
)

// ErrorInfo is the normalized error shape surfaced to callers. Message is
// always "."-terminated and carries explanatory hints for common mistakes.
type ErrorInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Stack   string `json:"stack,omitempty"`
	Phase   Phase  `json:"phase"`
}

var (
	undefinedRefPattern = regexp.MustCompile(`'?(\w+)'? is not defined`)
	pathPrefixPattern   = regexp.MustCompile(`^[\w./\\-]+\.(?:js|ts|jsx|tsx):\d+(?::\d+)?:?\s*`)
	locationSuffix      = regexp.MustCompile(`\s*\(playground\.js:\d+(?::\d+)?\)`)
)

// parseError normalizes any pipeline failure into an ErrorInfo.
func parseError(err error, phase Phase) *ErrorInfo {
	info := &ErrorInfo{Type: "Error", Phase: phase}

	var execErr *sandbox.ExecError
	var parse *transform.ParseError
	switch {
	case errors.As(err, &execErr):
		info.Type = execErr.Type
		info.Message = execErr.Message
		info.Line = execErr.Line
		info.Column = execErr.Column
		info.Stack = execErr.Stack
	case errors.As(err, &parse):
		info.Type = "SyntaxError"
		info.Message = parse.Message
		info.Line = parse.Line
		info.Column = parse.Column
	default:
		info.Message = err.Error()
	}

	info.Type = normalizeType(info.Type, info.Message)
	info.Message = normalizeMessage(info.Type, info.Message)
	return info
}

func normalizeType(kind, message string) string {
	switch kind {
	case "SyntaxError", "ReferenceError", "TypeError", "RangeError", "TimeoutError":
		return kind
	}
	lower := strings.ToLower(message)
	if strings.Contains(lower, "timed out") || strings.Contains(lower, "timeout") {
		return "TimeoutError"
	}
	return "Error"
}

// normalizeMessage strips internal path prefixes and location parentheticals,
// appends the hint for known error shapes, and guarantees a terminal period.
func normalizeMessage(kind, message string) string {
	message = pathPrefixPattern.ReplaceAllString(message, "")
	message = locationSuffix.ReplaceAllString(message, "")
	message = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(message), "."))

	if hint := hintFor(kind, message); hint != "" {
		message += " (" + hint + ")"
	}
	return message + "."
}

func hintFor(kind, message string) string {
	switch kind {
	case "ReferenceError":
		if m := undefinedRefPattern.FindStringSubmatch(message); m != nil {
			return fmt.Sprintf("ensure '%s' is declared or imported", m[1])
		}
	case "TypeError":
		lower := strings.ToLower(message)
		if strings.Contains(lower, "of undefined") || strings.Contains(lower, "of null") ||
			strings.Contains(lower, "null or undefined") {
			return "check if the object is initialized"
		}
	case "RangeError":
		if strings.Contains(strings.ToLower(message), "call stack") {
			return "possible infinite recursion"
		}
	}
	return ""
}

// Display renders the user-facing message: emoji prefix keyed by type, the
// normalized message, and a location suffix when known.
func (e *ErrorInfo) Display() string {
	var b strings.Builder
	b.WriteString(errorEmoji(e))
	b.WriteString(" ")
	b.WriteString(e.Message)
	if e.Line > 0 {
		if e.Column > 0 {
			fmt.Fprintf(&b, " (line %d:%d)", e.Line, e.Column)
		} else {
			fmt.Fprintf(&b, " (line %d)", e.Line)
		}
	}
	return b.String()
}

func errorEmoji(e *ErrorInfo) string {
	if strings.Contains(e.Message, "Loop stopped") {
		return "🔄"
	}
	switch e.Type {
	case "SyntaxError":
		return "🚫"
	case "ReferenceError":
		return "❓"
	case "TypeError":
		return "🔢"
	case "RangeError":
		return "📊"
	case "TimeoutError":
		return "⏱️"
	default:
		return "❌"
	}
}
