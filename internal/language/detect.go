// Package language classifies playground source text as JavaScript,
// TypeScript, JSX, or TSX using ordered pattern heuristics. Detection drives
// which transpilation preset the transformer applies.
package language

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Detection is the result of classifying a source text or filename.
type Detection struct {
	Extension     string // ".js", ".jsx", ".ts", ".tsx"
	LanguageID    string // "javascript", "javascriptreact", "typescript", "typescriptreact"
	HasJSX        bool
	HasTypeScript bool
}

// minContentLength is the shortest source considered worth classifying.
// Anything shorter resolves to plain JavaScript.
const minContentLength = 10

// JSX-positive patterns, checked in order. A match suggests JSX syntax.
var jsxPositive = []*regexp.Regexp{
	regexp.MustCompile(`<[A-Z][A-Za-z0-9]*(\s[^>]*)?/?>`),       // component tags
	regexp.MustCompile(`<[a-z][a-z0-9]*\s+[^>]*className\s*=`),  // className attribute
	regexp.MustCompile(`<[a-z][a-z0-9]*\s+[^>]*on[A-Z]\w+\s*=`), // event-handler attributes
	regexp.MustCompile(`return\s*\(\s*<`),                       // return (<...
	regexp.MustCompile(`=>\s*\(?\s*<[A-Za-z]`),                  // arrow returning JSX
	regexp.MustCompile(`</[A-Za-z][A-Za-z0-9]*>`),               // closing tags
	regexp.MustCompile(`use(State|Effect|Ref|Memo|Callback|Context|Reducer)\s*\(`),
}

// JSX-negative patterns. A match short-circuits to "no JSX": these cover
// comparison operators and generic-type angle brackets that the positive
// patterns tend to misread.
var jsxNegative = []*regexp.Regexp{
	regexp.MustCompile(`[\w)\]]\s*<\s*\d`),                  // x < 5
	regexp.MustCompile(`\d\s*>\s*[\w(]`),                    // 5 > x
	regexp.MustCompile(`<\s*(number|string|boolean|any|unknown|never|void)\s*[,>]`), // generic args
	regexp.MustCompile(`\w+<\w+(,\s*\w+)*>\s*\(`),           // call with type args
}

// TypeScript patterns, independent of the JSX set.
var tsPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\binterface\s+[A-Z]\w*\s*(extends\s+[\w.,\s]+)?\{`),
	regexp.MustCompile(`\btype\s+[A-Z]\w*(<[^>]+>)?\s*=`),
	regexp.MustCompile(`\benum\s+[A-Z]\w*\s*\{`),
	regexp.MustCompile(`\b(private|public|protected|readonly)\s+\w+`),
	regexp.MustCompile(`:\s*(number|string|boolean|any|unknown|never|void|object)\b`),
	regexp.MustCompile(`\bkeyof\s+\w`),
	regexp.MustCompile(`:\s*typeof\s+\w`),
	regexp.MustCompile(`\bas\s+(const|number|string|boolean|any|unknown)\b`),
	regexp.MustCompile(`\w+\s*:\s*[A-Z]\w*(<[^>]+>)?\s*[,)=;]`),
	regexp.MustCompile(`\bimplements\s+[A-Z]\w*`),
	regexp.MustCompile(`\babstract\s+class\b`),
	regexp.MustCompile(`<[A-Z]\w*(\s+extends\s+[^>]+)?>\s*\(`),             // generic function
	regexp.MustCompile(`\w+<(number|string|boolean|any|unknown)(\[\])?>\s*\(`), // builtin type argument
	regexp.MustCompile(`\bdeclare\s+(const|let|var|function|module)\b`),
}

// DetectJSX reports whether the source appears to contain JSX syntax.
// Negative patterns win over positive ones to suppress false positives from
// TypeScript generics and math comparisons.
func DetectJSX(source string) bool {
	if len(strings.TrimSpace(source)) < minContentLength {
		return false
	}
	for _, re := range jsxNegative {
		if re.MatchString(source) {
			return false
		}
	}
	for _, re := range jsxPositive {
		if re.MatchString(source) {
			return true
		}
	}
	return false
}

// DetectTypeScript reports whether the source appears to contain TypeScript
// syntax.
func DetectTypeScript(source string) bool {
	if len(strings.TrimSpace(source)) < minContentLength {
		return false
	}
	for _, re := range tsPatterns {
		if re.MatchString(source) {
			return true
		}
	}
	return false
}

// Detect classifies source text. Priority when both families match:
// TS+JSX resolves to .tsx, TS alone to .ts, JSX alone to .jsx, else .js.
func Detect(source string) Detection {
	if len(strings.TrimSpace(source)) < minContentLength {
		return Detection{Extension: ".js", LanguageID: "javascript"}
	}

	hasJSX := DetectJSX(source)
	hasTS := DetectTypeScript(source)

	switch {
	case hasTS && hasJSX:
		return Detection{Extension: ".tsx", LanguageID: "typescriptreact", HasJSX: true, HasTypeScript: true}
	case hasTS:
		return Detection{Extension: ".ts", LanguageID: "typescript", HasTypeScript: true}
	case hasJSX:
		return Detection{Extension: ".jsx", LanguageID: "javascriptreact", HasJSX: true}
	default:
		return Detection{Extension: ".js", LanguageID: "javascript"}
	}
}

// DetectFromFilename classifies by file extension alone.
func DetectFromFilename(name string) Detection {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tsx":
		return Detection{Extension: ".tsx", LanguageID: "typescriptreact", HasJSX: true, HasTypeScript: true}
	case ".ts", ".mts", ".cts":
		return Detection{Extension: ".ts", LanguageID: "typescript", HasTypeScript: true}
	case ".jsx":
		return Detection{Extension: ".jsx", LanguageID: "javascriptreact", HasJSX: true}
	default:
		return Detection{Extension: ".js", LanguageID: "javascript"}
	}
}

// FromLanguageID maps an editor language identifier to a Detection. Unknown
// identifiers fall back to content detection by the caller.
func FromLanguageID(id string) (Detection, bool) {
	switch id {
	case "typescriptreact", "tsx":
		return Detection{Extension: ".tsx", LanguageID: "typescriptreact", HasJSX: true, HasTypeScript: true}, true
	case "typescript", "ts":
		return Detection{Extension: ".ts", LanguageID: "typescript", HasTypeScript: true}, true
	case "javascriptreact", "jsx":
		return Detection{Extension: ".jsx", LanguageID: "javascriptreact", HasJSX: true}, true
	case "javascript", "js":
		return Detection{Extension: ".js", LanguageID: "javascript"}, true
	default:
		return Detection{}, false
	}
}
