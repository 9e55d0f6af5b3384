package transform

import (
	"regexp"
	"strings"
)

// Suspicious loop headers for the pre-execution static guard.
var infiniteLoopHeads = []*regexp.Regexp{
	regexp.MustCompile(`while\s*\(\s*true\s*\)`),
	regexp.MustCompile(`while\s*\(\s*1\s*\)`),
	regexp.MustCompile(`for\s*\(\s*;\s*;\s*\)`),
}

// Source-level patterns that downgrade a suspicious loop to "safe": the
// program either yields to the event loop or has an intentional long-running
// structure the runtime guard handles better than an up-front block.
var loopSafePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bfunction\s*\*`),             // generator functions
	regexp.MustCompile(`\basync\b`),                   // async functions
	regexp.MustCompile(`\bawait\b`),                   // awaited work
	regexp.MustCompile(`\bnew\s+Promise\b|\bPromise\.`),
	regexp.MustCompile(`\bset(Timeout|Interval|Immediate)\s*\(`),
	regexp.MustCompile(`\brequestAnimationFrame\s*\(`),
	regexp.MustCompile(`\b(addEventListener|onmessage|postMessage)\b`), // worker/event patterns
	regexp.MustCompile(`\}\s*\)\s*\(\s*\)`),           // IIFE wrapping
	regexp.MustCompile(`\(\s*\(\s*\)\s*=>`),           // arrow IIFE
}

var escapeKeywords = regexp.MustCompile(`\b(break|return|throw|yield)\b`)

// DetectInfiniteLoops reports whether the source contains an unconditional
// loop with no visible way out. It is the pre-transformation static guard:
// a true verdict short-circuits the run before the transformer or the
// executor is ever invoked.
//
// The verdict is deliberately conservative. Any escape keyword inside the
// loop body, or any async/generator/event structure anywhere in the source,
// downgrades to safe and defers to the runtime loop guard instead.
func DetectInfiniteLoops(code string) bool {
	if strings.TrimSpace(code) == "" {
		return false
	}

	var suspect bool
	for _, head := range infiniteLoopHeads {
		for _, loc := range head.FindAllStringIndex(code, -1) {
			body, ok := loopBodyAfter(code, loc[1])
			if !ok {
				// Unparseable body; let the runtime guard deal with it.
				continue
			}
			if escapeKeywords.MatchString(body) {
				continue
			}
			suspect = true
		}
	}
	if !suspect {
		return false
	}

	for _, safe := range loopSafePatterns {
		if safe.MatchString(code) {
			return false
		}
	}
	return true
}

// loopBodyAfter extracts the brace-balanced loop body starting at or after
// offset. A single-statement body extends to the next semicolon or newline.
// ok is false when no body could be isolated.
func loopBodyAfter(code string, offset int) (string, bool) {
	i := offset
	for i < len(code) && (code[i] == ' ' || code[i] == '\t' || code[i] == '\n' || code[i] == '\r') {
		i++
	}
	if i >= len(code) {
		return "", false
	}
	if code[i] != '{' {
		end := strings.IndexAny(code[i:], ";\n")
		if end < 0 {
			return code[i:], true
		}
		return code[i : i+end], true
	}

	depth := 0
	for j := i; j < len(code); j++ {
		switch code[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return code[i+1 : j], true
			}
		}
	}
	return code[i:], true
}
