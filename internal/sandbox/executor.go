// Package sandbox executes instrumented JavaScript inside an isolated goja
// runtime on a per-execution event loop. Output flows through the debug
// capture channel the transformer targets; values are serialized at capture
// time because the runtime is only safe to touch on its loop goroutine.
package sandbox

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"go.uber.org/zap"

	"github.com/sandkit/playground/internal/infrastructure/config"
	"github.com/sandkit/playground/internal/infrastructure/logging"
	"github.com/sandkit/playground/internal/infrastructure/monitoring"
	"github.com/sandkit/playground/internal/inspect"
)

// Capture is one emission from the debug channel, already rendered. The
// assembler turns captures into ordered results.
type Capture struct {
	Line    int
	Method  string
	Element inspect.Element
}

// Executor runs instrumented source. Safe for concurrent use; each Execute
// call owns a private VM and event loop.
type Executor struct {
	cfg          config.ExecutionConfig
	limits       inspect.Limits
	capabilities ContextConfig
	log          *logging.Logger
	metrics      *monitoring.Metrics
}

// NewExecutor builds an executor. Logger and metrics may be nil.
func NewExecutor(cfg config.ExecutionConfig, limits inspect.Limits, caps ContextConfig, log *logging.Logger, metrics *monitoring.Metrics) *Executor {
	if log == nil {
		log = logging.NewNop()
	}
	return &Executor{
		cfg:          cfg,
		limits:       limits,
		capabilities: caps,
		log:          log,
		metrics:      metrics,
	}
}

// Execute runs instrumented code and returns every capture emitted before
// completion, failure, or cancellation. Runtime failures come back as
// *ExecError alongside any output captured before the failure; cancellation
// comes back as ErrCancelled.
func (e *Executor) Execute(ctx context.Context, code string) ([]Capture, error) {
	start := time.Now()
	st := &execState{ser: inspect.New(e.limits, e.log)}

	loop := eventloop.NewEventLoop()
	loop.Start()
	defer loop.StopNoWait()

	var vmMu sync.Mutex
	var vmRef *goja.Runtime
	interrupt := func(reason string) {
		vmMu.Lock()
		defer vmMu.Unlock()
		if vmRef != nil {
			vmRef.Interrupt(reason)
		}
	}

	hardStop := time.AfterFunc(e.cfg.Timeout, func() { interrupt(interruptTimeout) })
	defer hardStop.Stop()

	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			interrupt(interruptCancel)
		case <-watchDone:
		}
	}()

	errCh := make(chan error, 1)
	loop.RunOnLoop(func(vm *goja.Runtime) {
		vmMu.Lock()
		vmRef = vm
		vmMu.Unlock()
		errCh <- e.runScript(vm, loop, st, code)
	})

	if err := <-errCh; err != nil {
		e.observe(err, time.Since(start), st.count())
		return st.snapshot(), err
	}

	if e.needsDrain(st, code) {
		if err := e.drain(ctx, st, code, start); err != nil {
			e.observe(err, time.Since(start), st.count())
			return st.snapshot(), err
		}
	}

	e.observe(nil, time.Since(start), st.count())
	return st.snapshot(), nil
}

// runScript installs the context and the debug channel, then runs the
// instrumented source. Always called on the loop goroutine.
func (e *Executor) runScript(vm *goja.Runtime, loop *eventloop.EventLoop, st *execState, code string) error {
	if e.cfg.MaxCallStackSize > 0 {
		vm.SetMaxCallStackSize(e.cfg.MaxCallStackSize)
	}

	capture := func(line int, method string, args []goja.Value) {
		st.capture(vm, line, method, args)
	}
	gc := BuildContext(e.capabilities, e.log)
	if err := gc.Install(vm, loop, capture); err != nil {
		return err
	}
	if err := vm.Set("debug", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			return goja.Undefined()
		}
		line := int(call.Arguments[0].ToInteger())
		method := call.Arguments[1].String()
		capture(line, method, call.Arguments[2:])
		return goja.Undefined()
	}); err != nil {
		return err
	}

	_, err := vm.RunScript(scriptName, code)
	return mapRuntimeError(err)
}

// needsDrain reports whether late asynchronous output is plausible: nothing
// was captured synchronously, or the source textually mentions async
// machinery.
func (e *Executor) needsDrain(st *execState, code string) bool {
	return st.count() == 0 || asyncSource(code)
}

// drain polls the capture count until it is stable for StablePolls
// consecutive polls, bounded by the async-or-sync max wait and the hard
// timeout. A heuristic, not a completion signal: output arriving after the
// window closes is lost.
func (e *Executor) drain(ctx context.Context, st *execState, code string, start time.Time) error {
	maxWait := e.cfg.MaxWaitSync
	if asyncSource(code) {
		maxWait = e.cfg.MaxWaitAsync
	}
	if remaining := e.cfg.Timeout - time.Since(start); remaining < maxWait {
		maxWait = remaining
	}
	if maxWait <= 0 {
		return nil
	}

	deadline := time.After(maxWait)
	ticker := time.NewTicker(e.cfg.DrainInterval)
	defer ticker.Stop()

	last := st.count()
	stable := 0
	polls := 0
	for {
		select {
		case <-ctx.Done():
			e.observeDrain(polls)
			return ErrCancelled
		case <-deadline:
			e.observeDrain(polls)
			return nil
		case <-ticker.C:
			polls++
			now := st.count()
			if now == last && now > 0 {
				stable++
				if stable >= e.cfg.StablePolls {
					e.observeDrain(polls)
					return nil
				}
			} else {
				stable = 0
			}
			last = now
		}
	}
}

func (e *Executor) observe(err error, elapsed time.Duration, results int) {
	status := "success"
	switch {
	case err == ErrCancelled:
		status = "cancelled"
		e.metrics.ObserveCancellation()
	case err != nil:
		status = "error"
	}
	e.metrics.ObserveExecution(status, elapsed, results)
	e.log.Debug("execution finished",
		zap.String("status", status),
		zap.Duration("elapsed", elapsed))
}

func (e *Executor) observeDrain(polls int) {
	e.metrics.ObserveDrainPolls(polls)
}

var asyncTokens = []string{
	"await", "async", "Promise",
	"setTimeout", "setInterval", "setImmediate",
	"requestAnimationFrame", "fetch", ".then(",
}

func asyncSource(code string) bool {
	for _, tok := range asyncTokens {
		if strings.Contains(code, tok) {
			return true
		}
	}
	return false
}

// execState accumulates captures for one execution. capture runs on the
// loop goroutine; count and snapshot are read from the host goroutine.
type execState struct {
	mu       sync.Mutex
	ser      *inspect.Serializer
	captures []Capture
}

func (st *execState) capture(vm *goja.Runtime, line int, method string, args []goja.Value) {
	var el inspect.Element
	switch {
	case method == "_reference":
		el = referenceElement(vm, st.ser, args)
		method = "log"
	case len(args) == 0:
		el = inspect.Element{Content: ""}
	case len(args) == 1:
		el = st.ser.Stringify(vm, args[0])
	default:
		el = st.ser.StringifyAll(vm, args)
	}

	st.mu.Lock()
	st.captures = append(st.captures, Capture{Line: line, Method: method, Element: el})
	idx := len(st.captures) - 1
	st.mu.Unlock()

	if len(args) == 1 {
		st.watchPromise(vm, args[0], idx)
	}
}

// watchPromise re-renders a pending promise capture in place once it
// settles. The then handlers run on the loop goroutine, inside the drain
// window.
func (st *execState) watchPromise(vm *goja.Runtime, v goja.Value, idx int) {
	p, ok := v.Export().(*goja.Promise)
	if !ok || p.State() != goja.PromiseStatePending {
		return
	}
	obj := v.ToObject(vm)
	if obj == nil {
		return
	}
	then, ok := goja.AssertFunction(obj.Get("then"))
	if !ok {
		return
	}
	update := func(goja.FunctionCall) goja.Value {
		el := st.ser.Stringify(vm, v)
		st.mu.Lock()
		if idx < len(st.captures) {
			st.captures[idx].Element = el
		}
		st.mu.Unlock()
		return goja.Undefined()
	}
	then(obj, vm.ToValue(update), vm.ToValue(update))
}

// referenceElement renders the uninvoked console / console.method markers
// the transformer emits.
func referenceElement(vm *goja.Runtime, ser *inspect.Serializer, args []goja.Value) inspect.Element {
	if len(args) == 0 {
		return inspect.Element{Content: "undefined", Color: inspect.ColorMuted}
	}
	marker, ok := args[0].(*goja.Object)
	if !ok {
		return ser.Stringify(vm, args[0])
	}
	if kind := marker.Get("type"); kind != nil && kind.String() == "method" {
		name := "anonymous"
		if m := marker.Get("method"); m != nil && !goja.IsUndefined(m) {
			name = m.String()
		}
		return inspect.Element{Content: "ƒ " + name + "()", Color: inspect.ColorInfo}
	}
	return ser.Stringify(vm, vm.GlobalObject().Get("console"))
}

func (st *execState) count() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.captures)
}

func (st *execState) snapshot() []Capture {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]Capture, len(st.captures))
	copy(out, st.captures)
	return out
}
