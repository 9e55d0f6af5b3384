package sandbox

import (
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/sandkit/playground/internal/infrastructure/logging"
	"github.com/sandkit/playground/internal/infrastructure/resilience"
	"github.com/sandkit/playground/internal/transform"
)

// fetchBreaker guards all sandbox-originated outbound requests. A snippet
// hammering a dead endpoint in a loop trips it instead of stacking up
// timeouts.
var fetchBreaker = resilience.New("fetch", resilience.Settings{
	FailureThreshold: 5,
	Cooldown:         15 * time.Second,
})

// SandboxLevel gates the capability surface exposed to executed code.
type SandboxLevel string

const (
	LevelLow    SandboxLevel = "low"
	LevelMedium SandboxLevel = "medium"
	LevelHigh   SandboxLevel = "high"
)

// ContextConfig enumerates the capabilities a context exposes.
type ContextConfig struct {
	EnableWebAPIs   bool
	EnableNodeAPIs  bool
	EnableReactAPIs bool
	Level           SandboxLevel
}

// CaptureFunc receives every console-channel emission from sandboxed code.
// It always runs on the event loop goroutine, so implementations may touch
// the runtime but must serialize values before handing them off.
type CaptureFunc func(line int, method string, args []goja.Value)

// GlobalContext assembles the globals bound into a fresh VM. Build one per
// execution; the registry and env snapshot are the only shared inputs.
type GlobalContext struct {
	cfg      ContextConfig
	registry *Registry
	env      map[string]string
	http     *resty.Client
	log      *logging.Logger
}

// BuildContext creates a context from the process-wide registry and env
// overlay. A nil logger is replaced with a no-op one.
func BuildContext(cfg ContextConfig, log *logging.Logger) *GlobalContext {
	if cfg.Level == "" {
		cfg.Level = LevelMedium
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &GlobalContext{
		cfg:      cfg,
		registry: defaultRegistry,
		env:      EnvironmentSnapshot(),
		http:     resty.New().SetTimeout(5 * time.Second),
		log:      log,
	}
}

// WithRegistry overrides the module registry. Intended for tests.
func (g *GlobalContext) WithRegistry(r *Registry) *GlobalContext {
	g.registry = r
	return g
}

// Install binds the context's globals into vm. The loop is needed for
// promise-returning APIs and may be nil when none are enabled.
func (g *GlobalContext) Install(vm *goja.Runtime, loop *eventloop.EventLoop, capture CaptureFunc) error {
	if err := g.installConsole(vm, capture); err != nil {
		return err
	}
	if g.cfg.Level != LevelHigh {
		g.installDialogs(vm, capture)
	}
	if g.cfg.EnableWebAPIs && loop != nil {
		g.installFetch(vm, loop)
	}
	if g.cfg.EnableNodeAPIs {
		g.installRequire(vm)
		g.installProcess(vm)
	}
	if g.cfg.EnableReactAPIs {
		g.installReact(vm, capture)
	}
	return nil
}

// installConsole replaces console with a shim whose every allow-listed
// method routes into the capture path at line 0. Code that calls console
// directly, including required module code, is still captured.
func (g *GlobalContext) installConsole(vm *goja.Runtime, capture CaptureFunc) error {
	console := vm.NewObject()
	for _, name := range transform.ConsoleMethodNames() {
		method := name
		fn := func(call goja.FunctionCall) goja.Value {
			capture(0, method, call.Arguments)
			return goja.Undefined()
		}
		if err := console.Set(method, fn); err != nil {
			return err
		}
	}
	return vm.Set("console", console)
}

func (g *GlobalContext) installDialogs(vm *goja.Runtime, capture CaptureFunc) {
	vm.Set("alert", func(call goja.FunctionCall) goja.Value {
		capture(0, "info", dialogArgs(vm, "alert", call))
		return goja.Undefined()
	})
	vm.Set("confirm", func(call goja.FunctionCall) goja.Value {
		capture(0, "info", dialogArgs(vm, "confirm", call))
		return vm.ToValue(true)
	})
	vm.Set("prompt", func(call goja.FunctionCall) goja.Value {
		capture(0, "info", dialogArgs(vm, "prompt", call))
		return goja.Null()
	})
}

func dialogArgs(vm *goja.Runtime, kind string, call goja.FunctionCall) []goja.Value {
	msg := ""
	if len(call.Arguments) > 0 {
		msg = call.Arguments[0].String()
	}
	return []goja.Value{vm.ToValue(fmt.Sprintf("[%s] %s", kind, msg))}
}

// installFetch exposes a promise-returning fetch backed by the resty client.
// The request runs off-loop; resolution is marshalled back onto the loop.
func (g *GlobalContext) installFetch(vm *goja.Runtime, loop *eventloop.EventLoop) {
	vm.Set("fetch", func(call goja.FunctionCall) goja.Value {
		promise, resolve, reject := vm.NewPromise()
		if len(call.Arguments) == 0 {
			reject(vm.NewTypeError("fetch requires a URL"))
			return vm.ToValue(promise)
		}
		url := call.Arguments[0].String()
		method, body, headers := fetchInit(call)

		go func() {
			var resp *resty.Response
			err := fetchBreaker.Execute(func() error {
				req := g.http.R().SetHeaders(headers)
				if body != "" {
					req.SetBody(body)
				}
				var reqErr error
				resp, reqErr = req.Execute(method, url)
				return reqErr
			})
			loop.RunOnLoop(func(vm *goja.Runtime) {
				if err != nil {
					reject(vm.NewGoError(err))
					return
				}
				resolve(responseObject(vm, resp))
			})
		}()
		return vm.ToValue(promise)
	})
}

func fetchInit(call goja.FunctionCall) (method, body string, headers map[string]string) {
	method = "GET"
	headers = map[string]string{}
	if len(call.Arguments) < 2 {
		return
	}
	init, ok := call.Arguments[1].(*goja.Object)
	if !ok {
		return
	}
	if m := init.Get("method"); m != nil && !goja.IsUndefined(m) {
		method = strings.ToUpper(m.String())
	}
	if b := init.Get("body"); b != nil && !goja.IsUndefined(b) {
		body = b.String()
	}
	if h := init.Get("headers"); h != nil && !goja.IsUndefined(h) {
		if ho, ok := h.(*goja.Object); ok {
			for _, key := range ho.Keys() {
				headers[key] = ho.Get(key).String()
			}
		}
	}
	return
}

// responseObject builds a Response-shaped value: the serializer and user
// code both read status, ok, statusText and url, plus text()/json() getters.
func responseObject(vm *goja.Runtime, resp *resty.Response) *goja.Object {
	obj := vm.NewObject()
	obj.Set("status", resp.StatusCode())
	obj.Set("ok", resp.IsSuccess())
	obj.Set("statusText", resp.Status())
	obj.Set("url", resp.Request.URL)
	raw := string(resp.Body())
	obj.Set("text", func(goja.FunctionCall) goja.Value {
		p, resolve, _ := vm.NewPromise()
		resolve(vm.ToValue(raw))
		return vm.ToValue(p)
	})
	obj.Set("json", func(goja.FunctionCall) goja.Value {
		p, resolve, reject := vm.NewPromise()
		parsed, err := vm.RunString("(" + raw + ")")
		if err != nil {
			reject(vm.NewTypeError("invalid JSON in response body"))
		} else {
			resolve(parsed)
		}
		return vm.ToValue(p)
	})
	return obj
}

// installRequire wires a require() resolver over the module registry with a
// per-context cache, so each module's snippet evaluates at most once per run.
func (g *GlobalContext) installRequire(vm *goja.Runtime) {
	cache := map[string]goja.Value{}
	vm.Set("require", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(vm.NewTypeError("require expects a module name"))
		}
		name := call.Arguments[0].String()
		if v, ok := cache[name]; ok {
			return v
		}
		src, ok := g.registry.Source(name)
		if !ok {
			panic(vm.NewTypeError(fmt.Sprintf("Cannot find module '%s'", name)))
		}
		v, err := vm.RunString(src)
		if err != nil {
			g.log.Warn("module evaluation failed", zap.String("module", name), zap.Error(err))
			panic(vm.NewTypeError(fmt.Sprintf("Failed to load module '%s'", name)))
		}
		cache[name] = v
		return v
	})
}

func (g *GlobalContext) installProcess(vm *goja.Runtime) {
	env := vm.NewObject()
	for k, v := range g.env {
		env.Set(k, v)
	}
	process := vm.NewObject()
	process.Set("env", env)
	process.Set("platform", "sandbox")
	vm.Set("process", process)
}

// installReact exposes a simulated React: hooks execute synchronously and
// log their invocation instead of scheduling renders. State lives in
// closures scoped to this context, so nothing leaks across executions.
func (g *GlobalContext) installReact(vm *goja.Runtime, capture CaptureFunc) {
	useState := func(call goja.FunctionCall) goja.Value {
		var initial goja.Value = goja.Undefined()
		if len(call.Arguments) > 0 {
			initial = call.Arguments[0]
		}
		cell := initial
		setter := func(set goja.FunctionCall) goja.Value {
			if len(set.Arguments) > 0 {
				cell = set.Arguments[0]
			}
			capture(0, "info", []goja.Value{
				vm.ToValue("[useState] state updated to " + cell.String()),
			})
			return goja.Undefined()
		}
		return vm.ToValue([]interface{}{cell, setter})
	}

	useEffect := func(call goja.FunctionCall) goja.Value {
		capture(0, "info", []goja.Value{vm.ToValue("[useEffect] running effect")})
		if len(call.Arguments) > 0 {
			if fn, ok := goja.AssertFunction(call.Arguments[0]); ok {
				fn(goja.Undefined())
			}
		}
		return goja.Undefined()
	}

	useMemo := func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			if fn, ok := goja.AssertFunction(call.Arguments[0]); ok {
				if v, err := fn(goja.Undefined()); err == nil {
					return v
				}
			}
		}
		return goja.Undefined()
	}

	useCallback := func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			return call.Arguments[0]
		}
		return goja.Undefined()
	}

	useRef := func(call goja.FunctionCall) goja.Value {
		ref := vm.NewObject()
		if len(call.Arguments) > 0 {
			ref.Set("current", call.Arguments[0])
		} else {
			ref.Set("current", goja.Undefined())
		}
		return ref
	}

	createElement := func(call goja.FunctionCall) goja.Value {
		el := vm.NewObject()
		if len(call.Arguments) > 0 {
			el.Set("type", call.Arguments[0])
		}
		if len(call.Arguments) > 1 {
			el.Set("props", call.Arguments[1])
		}
		if len(call.Arguments) > 2 {
			children := make([]goja.Value, 0, len(call.Arguments)-2)
			children = append(children, call.Arguments[2:]...)
			el.Set("children", children)
		}
		return el
	}

	react := vm.NewObject()
	react.Set("useState", useState)
	react.Set("useEffect", useEffect)
	react.Set("useMemo", useMemo)
	react.Set("useCallback", useCallback)
	react.Set("useRef", useRef)
	react.Set("createElement", createElement)
	vm.Set("React", react)
	vm.Set("useState", useState)
	vm.Set("useEffect", useEffect)
	vm.Set("useMemo", useMemo)
	vm.Set("useCallback", useCallback)
	vm.Set("useRef", useRef)
}
