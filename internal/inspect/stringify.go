// Package inspect renders arbitrary JavaScript runtime values into colorized
// text approximating a browser devtools inspector.
//
// Rendering is best-effort by design: every formatter is bounded in depth,
// enumeration count, string length, and wall time, and a failure inside any
// of them degrades to a fixed per-type fallback string instead of aborting
// the surrounding result set. Callers must invoke the serializer on the
// goroutine that owns the goja runtime.
package inspect

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/sandkit/playground/internal/infrastructure/logging"
)

// Serializer converts runtime values into Elements. Safe to reuse across
// executions; it holds no per-run state.
type Serializer struct {
	limits Limits
	log    *logging.Logger
}

// New creates a serializer with the given bounds. A nil logger is replaced
// with a no-op one.
func New(limits Limits, log *logging.Logger) *Serializer {
	if log == nil {
		log = logging.NewNop()
	}
	return &Serializer{limits: limits.withDefaults(), log: log}
}

// Stringify renders a single runtime value. It never panics and never
// returns an error; failures degrade to type-specific fallback text.
func (s *Serializer) Stringify(vm *goja.Runtime, v goja.Value) Element {
	w := &walker{s: s, vm: vm, seen: map[*goja.Object]bool{}, start: time.Now()}
	return w.element(v)
}

// StringifyAll renders each argument of a multi-argument console call and
// joins them with single spaces, mirroring console.log(a, b, c).
func (s *Serializer) StringifyAll(vm *goja.Runtime, values []goja.Value) Element {
	if len(values) == 1 {
		return s.Stringify(vm, values[0])
	}
	parts := make([]string, 0, len(values))
	color := ColorDefault
	for i, v := range values {
		el := s.Stringify(vm, v)
		parts = append(parts, el.Content)
		if i == 0 {
			color = el.Color
		}
	}
	return Element{Content: strings.Join(parts, " "), Color: color}
}

type walker struct {
	s     *Serializer
	vm    *goja.Runtime
	seen  map[*goja.Object]bool
	start time.Time
	props int
}

func (w *walker) limits() Limits { return w.s.limits }

// expired reports whether this Stringify call has used up its time budget.
func (w *walker) expired() bool {
	return time.Since(w.start) > w.s.limits.OpTimeout
}

// overBudget counts one enumeration step against the per-call ceiling.
func (w *walker) overBudget() bool {
	w.props++
	return w.props > w.s.limits.MaxProperties
}

// element renders a top-level value with its color token.
func (w *walker) element(v goja.Value) (el Element) {
	defer func() {
		if r := recover(); r != nil {
			w.s.log.Debug("stringify recovered", zap.Any("panic", r))
			el = Element{Content: "[inspection failed]", Color: ColorMuted}
		}
	}()

	if v == nil || goja.IsUndefined(v) {
		return Element{Content: "undefined", Color: ColorMuted}
	}
	if goja.IsNull(v) {
		return Element{Content: "null", Color: ColorMuted}
	}

	switch exported := v.Export().(type) {
	case string:
		// Pre-rendered function-reference markers pass through verbatim.
		if strings.HasPrefix(exported, "ƒ ") {
			return Element{Content: exported, Color: ColorInfo}
		}
		return Element{Content: w.truncate(strconv.Quote(exported)), Color: ColorString}
	case bool:
		return Element{Content: strconv.FormatBool(exported), Color: ColorBoolean}
	case int64:
		return Element{Content: strconv.FormatInt(exported, 10), Color: ColorNumber}
	case float64:
		return Element{Content: formatNumber(exported), Color: ColorNumber}
	case *big.Int:
		return Element{Content: exported.String() + "n", Color: ColorNumber}
	}

	if _, ok := v.(*goja.Symbol); ok {
		return Element{Content: v.String(), Color: ColorInfo}
	}

	obj := v.ToObject(w.vm)
	if obj == nil {
		return Element{Content: v.String(), Color: ColorDefault}
	}
	return w.object(obj, v)
}

// object dispatches on the runtime class tag, which is robust across realms
// unlike a bare typeof check.
func (w *walker) object(obj *goja.Object, v goja.Value) Element {
	if mathObj := w.vm.GlobalObject().Get("Math"); mathObj != nil && v.StrictEquals(mathObj) {
		return Element{Content: w.renderMathObject(obj), Color: ColorDefault}
	}
	if consoleObj := w.vm.GlobalObject().Get("console"); consoleObj != nil && v.StrictEquals(consoleObj) {
		return Element{Content: w.renderConsoleObject(obj), Color: ColorInfo}
	}

	switch cls := obj.ClassName(); {
	case cls == "Array":
		return Element{Content: w.safe("Array", func() string { return w.renderValue(v, 0) })}
	case cls == "Function":
		return Element{Content: w.safe("Function", func() string { return w.renderFunction(obj, v) }), Color: ColorFunction}
	case cls == "Error":
		return Element{Content: w.safe("Error", func() string { return w.renderError(obj) }), Color: ColorError}
	case cls == "Date":
		return Element{Content: w.safe("Date", func() string { return w.renderDate(obj) })}
	case cls == "RegExp":
		return Element{Content: w.safe("RegExp", func() string { return w.renderRegExp(obj) })}
	case cls == "Map":
		return Element{Content: w.safe("Map", func() string { return w.renderMap(obj) })}
	case cls == "Set":
		return Element{Content: w.safe("Set", func() string { return w.renderSet(obj) })}
	case cls == "WeakMap":
		return Element{Content: "WeakMap { <items unknown> }", Color: ColorMuted}
	case cls == "WeakSet":
		return Element{Content: "WeakSet { <items unknown> }", Color: ColorMuted}
	case cls == "Promise":
		return Element{Content: w.safe("Promise", func() string { return w.renderPromise(v) }), Color: ColorInfo}
	case cls == "ArrayBuffer":
		return Element{Content: w.safe("ArrayBuffer", func() string { return w.renderArrayBuffer(obj) })}
	case typedArrayClasses[cls]:
		return Element{Content: w.safe(cls, func() string { return w.renderTypedArray(obj, cls) })}
	default:
		return Element{Content: w.safe("Object", func() string { return w.renderObject(obj) })}
	}
}

// safe runs a formatter with panic and time-budget protection, falling back
// to "Kind { [inspection failed] }" on any failure.
func (w *walker) safe(kind string, f func() string) (out string) {
	fallback := kind + " { [inspection failed] }"
	defer func() {
		if r := recover(); r != nil {
			out = fallback
		}
	}()
	if w.expired() {
		return fallback
	}
	out = w.truncate(f())
	if w.expired() {
		// Overran mid-format: the partial rendering may be corrupt.
		return fallback
	}
	return out
}

func (w *walker) truncate(s string) string {
	if len(s) > w.s.limits.MaxStringLen {
		return s[:w.s.limits.MaxStringLen] + "... [truncated]"
	}
	return s
}

var typedArrayClasses = map[string]bool{
	"Int8Array": true, "Uint8Array": true, "Uint8ClampedArray": true,
	"Int16Array": true, "Uint16Array": true,
	"Int32Array": true, "Uint32Array": true,
	"Float32Array": true, "Float64Array": true,
	"BigInt64Array": true, "BigUint64Array": true,
}

// formatNumber renders a float the way JavaScript displays it.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == math.Trunc(f) && math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}
