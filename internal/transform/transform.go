// Package transform instruments playground source for sandboxed execution.
//
// TypeScript and JSX inputs are first transpiled to plain JavaScript with
// esbuild, then three independent rewrite passes run over a goja parse of
// the result: console-call redirection into the debug channel, loose
// top-level expression capture, and loop iteration guarding. Each pass is a
// pure scan emitting text splices against the same source, applied once.
package transform

import (
	"fmt"

	"github.com/dop251/goja/parser"
	"github.com/evanw/esbuild/pkg/api"

	"github.com/sandkit/playground/internal/language"
)

// Options tunes the instrumentation passes.
type Options struct {
	// LoopIterationCeiling is the per-loop iteration budget. Zero means the
	// default of 100000.
	LoopIterationCeiling int
}

// DefaultLoopCeiling is the iteration budget applied when none is set.
const DefaultLoopCeiling = 100000

// ParseError describes a syntax failure during transpilation or parsing.
// The runner maps it onto its SyntaxError taxonomy with phase
// "transformation".
type ParseError struct {
	Message string
	Line    int
	Column  int
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d:%d)", e.Message, e.Line, e.Column)
	}
	return e.Message
}

// Transform rewrites source into instrumented JavaScript ready for the
// sandbox. All console activity and loose top-level expressions are routed
// through the injected debug(line, method, ...args) channel, and synchronous
// loops are iteration-bounded.
func Transform(code string, det language.Detection, opts Options) (string, error) {
	ceiling := opts.LoopIterationCeiling
	if ceiling <= 0 {
		ceiling = DefaultLoopCeiling
	}

	js := code
	if det.HasTypeScript || det.HasJSX {
		transpiled, err := transpile(code, det)
		if err != nil {
			return "", err
		}
		js = transpiled
	}

	prg, err := parser.ParseFile(nil, "playground"+det.Extension, js, 0)
	if err != nil {
		return "", asParseError(err)
	}

	edits := newEditList(js)
	rewriteConsole(prg, edits)
	captureLooseExpressions(prg, edits)
	guardLoops(prg, edits, ceiling)
	return edits.apply(), nil
}

// transpile lowers TypeScript and JSX to plain JavaScript. Line structure is
// preserved on a best-effort basis only; captured line numbers for TS/JSX
// inputs refer to the transpiled text.
func transpile(code string, det language.Detection) (string, error) {
	loader := api.LoaderJS
	switch {
	case det.HasTypeScript && det.HasJSX:
		loader = api.LoaderTSX
	case det.HasTypeScript:
		loader = api.LoaderTS
	case det.HasJSX:
		loader = api.LoaderJSX
	}

	result := api.Transform(code, api.TransformOptions{
		Loader:      loader,
		Target:      api.ES2017,
		Format:      api.FormatDefault,
		JSXFactory:  "React.createElement",
		JSXFragment: "React.Fragment",
	})
	if len(result.Errors) > 0 {
		msg := result.Errors[0]
		perr := &ParseError{Message: msg.Text}
		if msg.Location != nil {
			perr.Line = msg.Location.Line
			perr.Column = msg.Location.Column
		}
		return "", perr
	}
	return string(result.Code), nil
}

// asParseError converts goja parser failures into a ParseError carrying the
// first reported position.
func asParseError(err error) error {
	if list, ok := err.(parser.ErrorList); ok && len(list) > 0 {
		first := list[0]
		return &ParseError{
			Message: first.Message,
			Line:    first.Position.Line,
			Column:  first.Position.Column,
		}
	}
	if perr, ok := err.(*parser.Error); ok {
		return &ParseError{
			Message: perr.Message,
			Line:    perr.Position.Line,
			Column:  perr.Position.Column,
		}
	}
	return &ParseError{Message: err.Error()}
}
