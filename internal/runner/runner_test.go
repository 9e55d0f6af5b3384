package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandkit/playground/internal/infrastructure/config"
	"github.com/sandkit/playground/internal/inspect"
	"github.com/sandkit/playground/internal/sandbox"
)

func testRunner() *Runner {
	cfg := config.Default()
	cfg.Execution.Timeout = 3 * time.Second
	cfg.Execution.DrainInterval = 50 * time.Millisecond
	cfg.Execution.MaxWaitSync = 300 * time.Millisecond
	cfg.Execution.MaxWaitAsync = 2 * time.Second
	return New(cfg, nil, nil)
}

func TestRunEmptyInput(t *testing.T) {
	r := testRunner()
	for _, code := range []string{"", "   ", "\n\t\n"} {
		results, err := r.Run(context.Background(), code, "")
		require.NoError(t, err)
		assert.Empty(t, results)
	}
}

func TestRunConsoleRoundTrip(t *testing.T) {
	results, err := testRunner().Run(context.Background(), "\n\nconsole.log(\"x\")", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 3, results[0].LineNumber)
	assert.Equal(t, "log", results[0].Method)
	assert.Equal(t, `"x"`, results[0].Element.Content)
	assert.Equal(t, TypeExecution, results[0].Type)
}

func TestRunBareReferenceNotInvoked(t *testing.T) {
	results, err := testRunner().Run(context.Background(), "console.log", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ƒ log()", results[0].Element.Content)
}

func TestRunLooseExpression(t *testing.T) {
	results, err := testRunner().Run(context.Background(), "1 + 1", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "2", results[0].Element.Content)
	assert.Equal(t, 1, results[0].LineNumber)
}

func TestRunInfiniteLoopPreScan(t *testing.T) {
	results, err := testRunner().Run(context.Background(), "while (true) {}", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, TypeError, results[0].Type)
	assert.Equal(t, inspect.ColorWarning, results[0].Element.Color)
	require.NotNil(t, results[0].ErrorInfo)
	assert.Equal(t, PhaseValidation, results[0].ErrorInfo.Phase)
}

func TestRunAsyncLoopNotBlocked(t *testing.T) {
	code := `async function f() { while (true) { await x(); if (done) break; } }
console.log("defined")`
	results, err := testRunner().Run(context.Background(), code, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, TypeExecution, results[0].Type)
}

func TestRunLoopGuardTermination(t *testing.T) {
	// No escape keyword, but an IIFE downgrades the pre-scan; the injected
	// guard must stop it instead of hanging.
	code := "(function() { for (;;) { var x = 1; } })()"
	results, err := testRunner().Run(context.Background(), code, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, TypeError, results[0].Type)
	assert.Contains(t, results[0].ErrorInfo.Message, "Loop stopped")
}

func TestRunSyntaxError(t *testing.T) {
	results, err := testRunner().Run(context.Background(), "const = 5", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, TypeError, results[0].Type)
	require.NotNil(t, results[0].ErrorInfo)
	assert.Equal(t, "SyntaxError", results[0].ErrorInfo.Type)
	assert.Equal(t, PhaseTransformation, results[0].ErrorInfo.Phase)
	assert.Contains(t, results[0].Element.Content, "🚫")
}

func TestRunRuntimeErrorWithHint(t *testing.T) {
	results, err := testRunner().Run(context.Background(), "foo()", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].ErrorInfo)
	assert.Equal(t, "ReferenceError", results[0].ErrorInfo.Type)
	assert.Equal(t, "foo is not defined (ensure 'foo' is declared or imported).",
		results[0].ErrorInfo.Message)
	assert.Contains(t, results[0].Element.Content, "❓")
}

func TestRunOrderingLinelessErrorFirst(t *testing.T) {
	// The capture on line 3 lands before the parse of the bad call on line
	// 4 fails at runtime with no usable location.
	code := "\n\nconsole.log(\"b\")\nthrow \"broken\""
	results, err := testRunner().Run(context.Background(), code, "")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, TypeError, results[0].Type)
	assert.Equal(t, 3, results[1].LineNumber)
	assert.Equal(t, `"b"`, results[1].Element.Content)
}

func TestRunSameLineEmissionOrder(t *testing.T) {
	code := `for (var i = 0; i < 3; i++) { console.log(i) }`
	results, err := testRunner().Run(context.Background(), code, "")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "0", results[0].Element.Content)
	assert.Equal(t, "1", results[1].Element.Content)
	assert.Equal(t, "2", results[2].Element.Content)
}

func TestRunTypeScript(t *testing.T) {
	code := "interface Point { x: number }\nconst p: Point = { x: 1 };\nconsole.log(p.x)"
	results, err := testRunner().Run(context.Background(), code, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "1", results[0].Element.Content)
}

func TestRunForcedLanguage(t *testing.T) {
	// Without the override the angle brackets parse as comparisons.
	code := "const x: number = 2;\nconsole.log(x)"
	results, err := testRunner().Run(context.Background(), code, "typescript")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "2", results[0].Element.Content)
}

func TestRunAsyncOutputDrained(t *testing.T) {
	code := `setTimeout(function() { console.log("late") }, 100)`
	results, err := testRunner().Run(context.Background(), code, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, `"late"`, results[0].Element.Content)
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	code := `(function() { while (1 === 1) { var burn = Math.random(); if (burn < 0) { break; } } })()`
	cfg := config.Default()
	cfg.Transform.LoopIterationCeiling = 1 << 30
	cfg.Execution.Timeout = 5 * time.Second
	results, err := New(cfg, nil, nil).Run(ctx, code, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, TypeInfo, results[0].Type)
	assert.Contains(t, results[0].Element.Content, "cancelled")
}

func TestTransformCode(t *testing.T) {
	r := testRunner()
	out, err := r.TransformCode(`console.log("x")`, "")
	require.NoError(t, err)
	assert.Contains(t, out, `debug(1, "log", "x")`)

	_, err = r.TransformCode("const = 5", "")
	require.Error(t, err)
}

func TestPredicateReExports(t *testing.T) {
	assert.True(t, DetectTypeScript("interface Foo { x: number }"))
	assert.False(t, DetectJSX("if (a < b && c > d) {}"))
	assert.True(t, DetectInfiniteLoops("while (true) {}"))
	assert.False(t, DetectInfiniteLoops("while (true) { break; }"))
}

func TestSetEnvironmentVariables(t *testing.T) {
	SetEnvironmentVariables(map[string]string{"RUNNER_ENV_KEY": "v"})
	defer sandbox.ResetEnvironment()

	results, err := testRunner().Run(context.Background(),
		"console.log(process.env.RUNNER_ENV_KEY)", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, `"v"`, results[0].Element.Content)
}

func TestColoredElementFlatten(t *testing.T) {
	tree := ColoredElement{
		Color: inspect.ColorWarning,
		Children: []ColoredElement{
			{Content: "plain"},
			{Content: "red", Color: inspect.ColorError},
			{Children: []ColoredElement{{Content: "nested"}}},
		},
	}
	flat := tree.Flatten()
	require.Len(t, flat, 3)
	assert.Equal(t, inspect.ColorWarning, flat[0].Color)
	assert.Equal(t, inspect.ColorError, flat[1].Color)
	assert.Equal(t, inspect.ColorWarning, flat[2].Color)
}
