package sandbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandkit/playground/internal/infrastructure/config"
	"github.com/sandkit/playground/internal/inspect"
)

func testExecConfig() config.ExecutionConfig {
	return config.ExecutionConfig{
		Timeout:          3 * time.Second,
		DrainInterval:    50 * time.Millisecond,
		StablePolls:      2,
		MaxWaitSync:      300 * time.Millisecond,
		MaxWaitAsync:     2 * time.Second,
		MaxCallStackSize: 512,
	}
}

func newTestExecutor(caps ContextConfig) *Executor {
	return NewExecutor(testExecConfig(), inspect.DefaultLimits(), caps, nil, nil)
}

func TestExecuteDebugCapture(t *testing.T) {
	caps, err := newTestExecutor(ContextConfig{}).Execute(context.Background(), `debug(1, "log", "x")`)
	require.NoError(t, err)
	require.Len(t, caps, 1)
	assert.Equal(t, 1, caps[0].Line)
	assert.Equal(t, "log", caps[0].Method)
	assert.Equal(t, `"x"`, caps[0].Element.Content)
}

func TestExecuteConsoleShimCaptures(t *testing.T) {
	// Direct console calls, e.g. from module code the transformer never
	// saw, still land in the capture channel at line 0.
	caps, err := newTestExecutor(ContextConfig{}).Execute(context.Background(), `console.warn("careful")`)
	require.NoError(t, err)
	require.Len(t, caps, 1)
	assert.Equal(t, 0, caps[0].Line)
	assert.Equal(t, "warn", caps[0].Method)
}

func TestExecuteMultipleArgs(t *testing.T) {
	caps, err := newTestExecutor(ContextConfig{}).Execute(context.Background(),
		`debug(2, "log", "count:", 3, true)`)
	require.NoError(t, err)
	require.Len(t, caps, 1)
	assert.Equal(t, `"count:" 3 true`, caps[0].Element.Content)
}

func TestExecuteMethodReference(t *testing.T) {
	caps, err := newTestExecutor(ContextConfig{}).Execute(context.Background(),
		`debug(1, "_reference", {type: "method", object: "console", method: "log"})`)
	require.NoError(t, err)
	require.Len(t, caps, 1)
	assert.Equal(t, "ƒ log()", caps[0].Element.Content)
	assert.Equal(t, inspect.ColorInfo, caps[0].Element.Color)
	assert.Equal(t, "log", caps[0].Method)
}

func TestExecuteObjectReference(t *testing.T) {
	caps, err := newTestExecutor(ContextConfig{}).Execute(context.Background(),
		`debug(1, "_reference", {type: "object", object: "console"})`)
	require.NoError(t, err)
	require.Len(t, caps, 1)
	assert.Contains(t, caps[0].Element.Content, "console {")
}

func TestExecuteRuntimeError(t *testing.T) {
	caps, err := newTestExecutor(ContextConfig{}).Execute(context.Background(),
		"debug(1, \"log\", \"before\")\nthrow new TypeError(\"bad\")")
	require.Error(t, err)

	var execErr *ExecError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "TypeError", execErr.Type)
	assert.Equal(t, "bad", execErr.Message)

	// Output captured before the failure is preserved.
	require.Len(t, caps, 1)
	assert.Equal(t, `"before"`, caps[0].Element.Content)
}

func TestExecuteReferenceError(t *testing.T) {
	_, err := newTestExecutor(ContextConfig{}).Execute(context.Background(), "missingThing()")
	var execErr *ExecError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "ReferenceError", execErr.Type)
	assert.Contains(t, execErr.Message, "missingThing")
	assert.Equal(t, 1, execErr.Line)
}

func TestExecuteStackOverflow(t *testing.T) {
	_, err := newTestExecutor(ContextConfig{}).Execute(context.Background(),
		"function f() { return f(); }\nf()")
	var execErr *ExecError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "RangeError", execErr.Type)
}

func TestExecuteTimeout(t *testing.T) {
	cfg := testExecConfig()
	cfg.Timeout = 200 * time.Millisecond
	exec := NewExecutor(cfg, inspect.DefaultLimits(), ContextConfig{}, nil, nil)

	_, err := exec.Execute(context.Background(), "for (;;) {}")
	var execErr *ExecError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "TimeoutError", execErr.Type)
}

func TestExecuteCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	_, err := newTestExecutor(ContextConfig{}).Execute(ctx, "for (;;) {}")
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestExecuteDrainsTimerOutput(t *testing.T) {
	caps, err := newTestExecutor(ContextConfig{}).Execute(context.Background(),
		`setTimeout(function() { debug(2, "log", "late") }, 100)`)
	require.NoError(t, err)
	require.Len(t, caps, 1)
	assert.Equal(t, `"late"`, caps[0].Element.Content)
}

func TestExecutePromiseSettlesDuringDrain(t *testing.T) {
	caps, err := newTestExecutor(ContextConfig{}).Execute(context.Background(), `
		var p = new Promise(function(res) { setTimeout(function() { res(42) }, 50) });
		debug(1, "log", p);
	`)
	require.NoError(t, err)
	require.Len(t, caps, 1)
	assert.Equal(t, "Promise { <resolved: 42> }", caps[0].Element.Content)
}

func TestExecuteRequireLodash(t *testing.T) {
	caps, err := newTestExecutor(ContextConfig{EnableNodeAPIs: true}).Execute(context.Background(),
		`var _ = require("lodash"); debug(1, "log", _.uniq([1, 1, 2]).length)`)
	require.NoError(t, err)
	require.Len(t, caps, 1)
	assert.Equal(t, "2", caps[0].Element.Content)
}

func TestExecuteRequireUnknownModule(t *testing.T) {
	_, err := newTestExecutor(ContextConfig{EnableNodeAPIs: true}).Execute(context.Background(),
		`require("left-pad")`)
	var execErr *ExecError
	require.True(t, errors.As(err, &execErr))
	assert.Contains(t, execErr.Message, "left-pad")
}

func TestExecuteProcessEnv(t *testing.T) {
	SetEnvironmentVariables(map[string]string{"PLAYGROUND_TEST_KEY": "hello"})
	defer ResetEnvironment()

	caps, err := newTestExecutor(ContextConfig{EnableNodeAPIs: true}).Execute(context.Background(),
		`debug(1, "log", process.env.PLAYGROUND_TEST_KEY)`)
	require.NoError(t, err)
	require.Len(t, caps, 1)
	assert.Equal(t, `"hello"`, caps[0].Element.Content)
}

func TestExecuteReactHooks(t *testing.T) {
	caps, err := newTestExecutor(ContextConfig{EnableReactAPIs: true}).Execute(context.Background(), `
		var pair = useState(5);
		debug(1, "log", pair[0]);
		pair[1](6);
	`)
	require.NoError(t, err)
	require.Len(t, caps, 2)
	assert.Equal(t, "5", caps[0].Element.Content)
	assert.Contains(t, caps[1].Element.Content, "useState")
}

func TestExecuteDialogsSuppressedAtHighLevel(t *testing.T) {
	caps, err := newTestExecutor(ContextConfig{Level: LevelHigh}).Execute(context.Background(),
		`debug(1, "log", typeof alert)`)
	require.NoError(t, err)
	require.Len(t, caps, 1)
	assert.Equal(t, `"undefined"`, caps[0].Element.Content)
}

func TestExecuteDialogShim(t *testing.T) {
	caps, err := newTestExecutor(ContextConfig{}).Execute(context.Background(), `alert("hi")`)
	require.NoError(t, err)
	require.Len(t, caps, 1)
	assert.Contains(t, caps[0].Element.Content, "[alert] hi")
	assert.Equal(t, "info", caps[0].Method)
}

func TestExecuteFetchInstalled(t *testing.T) {
	caps, err := newTestExecutor(ContextConfig{EnableWebAPIs: true}).Execute(context.Background(),
		`debug(1, "log", typeof fetch)`)
	require.NoError(t, err)
	require.Len(t, caps, 1)
	assert.Equal(t, `"function"`, caps[0].Element.Content)
}

func TestSessionCancelIdempotent(t *testing.T) {
	s := NewSession(newTestExecutor(ContextConfig{}), nil)
	assert.NotEmpty(t, s.ID())

	s.Cancel()
	s.Cancel()

	caps, err := s.Run(context.Background(), `debug(1, "log", 1)`)
	require.NoError(t, err)
	assert.Len(t, caps, 1)

	// Cancelling after natural completion is a no-op.
	s.Cancel()
}

func TestSessionLastRequestWins(t *testing.T) {
	s := NewSession(newTestExecutor(ContextConfig{}), nil)

	firstErr := make(chan error, 1)
	go func() {
		_, err := s.Run(context.Background(), "for (;;) {}")
		firstErr <- err
	}()
	time.Sleep(150 * time.Millisecond)

	caps, err := s.Run(context.Background(), `debug(1, "log", "second")`)
	require.NoError(t, err)
	require.Len(t, caps, 1)

	assert.ErrorIs(t, <-firstErr, ErrCancelled)
}

func TestRegistryRegisterResolve(t *testing.T) {
	r := NewRegistry()
	r.Register("answer", "42")

	src, ok := r.Source("answer")
	require.True(t, ok)
	assert.Equal(t, "42", src)
	assert.Contains(t, r.Names(), "lodash")

	_, ok = r.Source("nope")
	assert.False(t, ok)
}
