package transform

import (
	"fmt"
	"strings"

	"github.com/dop251/goja/ast"
)

// consoleMethods is the allow list of rewritable console methods.
var consoleMethods = map[string]bool{
	"log": true, "warn": true, "error": true, "info": true, "debug": true,
	"table": true, "dir": true, "dirxml": true, "trace": true,
	"group": true, "groupCollapsed": true, "groupEnd": true,
	"count": true, "countReset": true,
	"time": true, "timeEnd": true, "timeLog": true, "timeStamp": true,
	"assert": true, "clear": true,
	"profile": true, "profileEnd": true,
	"context": true, "createTask": true,
}

// ConsoleMethodNames returns the allow list in a stable order. The sandbox
// console shim installs exactly these methods.
func ConsoleMethodNames() []string {
	return []string{
		"log", "warn", "error", "info", "debug", "table", "dir", "dirxml",
		"trace", "group", "groupCollapsed", "groupEnd", "count", "countReset",
		"time", "timeEnd", "timeLog", "timeStamp", "assert", "clear",
		"profile", "profileEnd", "context", "createTask",
	}
}

// rewriteConsole redirects console activity into the debug channel:
//
//	console.log(a, b)  ->  debug(line, "log", a, b)
//	console.log        ->  debug(line, "_reference", {type:"method", ...})
//	console            ->  debug(line, "_reference", {type:"object", ...})
//
// Member accesses with non-allow-listed names are left for the sandbox
// console shim to resolve at runtime.
//
// The pass is not scope-aware: a local binding named console (var console =
// 5) is rewritten like the global. Shadowing the one identifier the sandbox
// replaces is left imprecise rather than paying for full scope analysis.
func rewriteConsole(prg *ast.Program, edits *editList) {
	consumed := map[ast.Node]bool{}

	walk(prg, func(node ast.Node) bool {
		switch n := node.(type) {
		case *ast.CallExpression:
			dot, ok := n.Callee.(*ast.DotExpression)
			if !ok {
				return true
			}
			ident, ok := dot.Left.(*ast.Identifier)
			if !ok || ident.Name != "console" {
				return true
			}
			consumed[dot] = true
			consumed[ident] = true
			method := dot.Identifier.Name.String()
			if !consoleMethods[method] {
				return true
			}
			line := edits.lineOf(n.Idx0())
			head := fmt.Sprintf("debug(%d, %q", line, method)
			if len(n.ArgumentList) > 0 {
				head += ", "
			}
			// Covers "console.method(" up to and including the paren.
			edits.replace(n.Idx0(), n.LeftParenthesis+1, head)

		case *ast.DotExpression:
			if consumed[n] {
				return true
			}
			ident, ok := n.Left.(*ast.Identifier)
			if !ok || ident.Name != "console" {
				return true
			}
			consumed[ident] = true
			method := n.Identifier.Name.String()
			if !consoleMethods[method] {
				return true
			}
			line := edits.lineOf(n.Idx0())
			edits.replace(n.Idx0(), n.Idx1(),
				fmt.Sprintf(`debug(%d, "_reference", {type:"method", object:"console", method:%q})`, line, method))

		case *ast.BracketExpression:
			// console["log"] stays dynamic; the shim console handles it,
			// but the base identifier must not be treated as a bare ref.
			if ident, ok := n.Left.(*ast.Identifier); ok && ident.Name == "console" {
				consumed[ident] = true
			}

		case *ast.AssignExpression:
			// Assignment targets must survive verbatim: `console = x`
			// shadows the global, `console.log = fn` patches the shim.
			switch left := n.Left.(type) {
			case *ast.Identifier:
				if left.Name == "console" {
					consumed[left] = true
				}
			case *ast.DotExpression:
				if ident, ok := left.Left.(*ast.Identifier); ok && ident.Name == "console" {
					consumed[left] = true
					consumed[ident] = true
				}
			}

		case *ast.Identifier:
			if n.Name != "console" || consumed[n] {
				return true
			}
			line := edits.lineOf(n.Idx0())
			edits.replace(n.Idx0(), n.Idx1(),
				fmt.Sprintf(`debug(%d, "_reference", {type:"object", object:"console"})`, line))
		}
		return true
	})
}

// captureLooseExpressions wraps bare top-level expression statements so they
// behave like an implicit console.log, mirroring REPL semantics:
//
//	1 + 1  ->  debug(line, "log", 1 + 1)
//
// Only direct children of the program root qualify; console/debug calls and
// bare console references are already routed by the console pass.
func captureLooseExpressions(prg *ast.Program, edits *editList) {
	for _, stmt := range prg.Body {
		es, ok := stmt.(*ast.ExpressionStatement)
		if !ok {
			continue
		}
		if isDirective(es.Expression) || touchesDebugChannel(es.Expression) {
			continue
		}
		line := edits.lineOf(es.Expression.Idx0())
		edits.insert(es.Expression.Idx0(), fmt.Sprintf(`debug(%d, "log", `, line))
		edits.insert(es.Expression.Idx1(), ")")
	}
}

func isDirective(expr ast.Expression) bool {
	s, ok := expr.(*ast.StringLiteral)
	return ok && s.Value == "use strict"
}

// touchesDebugChannel reports whether the expression is already a console or
// debug capture and must not be double-instrumented.
func touchesDebugChannel(expr ast.Expression) bool {
	switch e := expr.(type) {
	case *ast.CallExpression:
		switch callee := e.Callee.(type) {
		case *ast.Identifier:
			return callee.Name == "debug"
		case *ast.DotExpression:
			if ident, ok := callee.Left.(*ast.Identifier); ok {
				return ident.Name == "console" || ident.Name == "debug"
			}
		}
	case *ast.DotExpression:
		if ident, ok := e.Left.(*ast.Identifier); ok {
			return ident.Name == "console"
		}
	case *ast.Identifier:
		return e.Name == "console"
	}
	return false
}

// Tokens that mark a loop body as asynchronous. A body containing any of
// them is left unguarded: its iterations yield to the event loop, so the
// counter would misfire on legitimate long-running async loops. This is a
// coarse source-text scan, so false negatives are possible.
var asyncBodyTokens = []string{
	"await", "async", "Promise", "setTimeout", "setInterval",
	"setImmediate", "requestAnimationFrame",
}

// guardLoops bounds every synchronous while/for/do-while with an iteration
// counter that throws once the ceiling is exceeded. Each loop is wrapped in
// a block declaring a fresh counter, so the count resets every time control
// re-enters the loop and the wrap stays valid in single-statement positions:
//
//	while (c) { ... }  ->  { let __iterGuard1 = 0; while (c) { check; ... } }
//
// Labelled loops are wrapped outside their label so continue/break targets
// keep working.
func guardLoops(prg *ast.Program, edits *editList, ceiling int) {
	guarded := 0
	labelStart := map[ast.Node]ast.Node{}

	walk(prg, func(node ast.Node) bool {
		if lbl, ok := node.(*ast.LabelledStatement); ok {
			switch lbl.Statement.(type) {
			case *ast.WhileStatement, *ast.DoWhileStatement, *ast.ForStatement:
				labelStart[lbl.Statement] = lbl
			}
			return true
		}

		var body ast.Statement
		switch n := node.(type) {
		case *ast.WhileStatement:
			body = n.Body
		case *ast.DoWhileStatement:
			body = n.Body
		case *ast.ForStatement:
			body = n.Body
		default:
			return true
		}
		if body == nil {
			return true
		}

		bodySrc := edits.slice(body.Idx0(), body.Idx1())
		for _, tok := range asyncBodyTokens {
			if strings.Contains(bodySrc, tok) {
				return true
			}
		}

		guarded++
		counter := fmt.Sprintf("__iterGuard%d", guarded)
		check := fmt.Sprintf(
			` if (++%s > %d) throw new Error("Loop stopped: executed more than %d iterations (possible infinite loop)");`,
			counter, ceiling, ceiling)

		// Counter check at loop-body entry.
		if block, ok := body.(*ast.BlockStatement); ok {
			edits.insert(block.LeftBrace+1, check)
		} else {
			end := edits.statementEnd(body)
			edits.insert(body.Idx0(), "{"+check+" ")
			edits.insertOffset(end, " }")
		}

		// Counter declaration in a block wrapping the whole loop (or its
		// label, when present).
		wrap := ast.Node(node)
		if lbl, ok := labelStart[node]; ok {
			wrap = lbl
		}
		edits.insert(wrap.Idx0(), fmt.Sprintf("{ let %s = 0; ", counter))
		edits.insertOffset(edits.statementEnd(wrap), " }")
		return true
	})
}
