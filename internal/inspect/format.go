package inspect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/dop251/goja"
)

const (
	errMessageCap   = 200
	errStackLines   = 3
	promiseJSONCap  = 500
	hybridValueCap  = 5
	hybridTotalCap  = 10
	protoMethodsCap = 4
)

// renderFunction shows native functions as a bare reference, short user
// functions in full, and long ones as their signature line.
func (w *walker) renderFunction(obj *goja.Object, v goja.Value) string {
	name := "anonymous"
	if n := obj.Get("name"); n != nil && n.String() != "" {
		name = n.String()
	}

	src := v.String()
	if strings.Contains(src, "[native code]") {
		return "ƒ " + name + "()"
	}
	lines := strings.Split(src, "\n")
	if len(lines) <= 3 {
		return src
	}
	return strings.TrimRight(lines[0], " {") + " { ... }"
}

func (w *walker) renderError(obj *goja.Object) string {
	name := stringProp(obj, "name", "Error")
	message := stringProp(obj, "message", "")
	if len(message) > errMessageCap {
		message = message[:errMessageCap] + "..."
	}

	var b strings.Builder
	b.WriteString(name + " {\n")
	fmt.Fprintf(&b, "  message: %s,\n", strconv.Quote(message))
	if stack := stringProp(obj, "stack", ""); stack != "" {
		lines := strings.Split(stack, "\n")
		if len(lines) > errStackLines {
			lines = lines[:errStackLines]
		}
		fmt.Fprintf(&b, "  stack: %s,\n", strconv.Quote(strings.Join(lines, "\n")))
	}
	b.WriteString(w.prototypeBlock([]string{"toString", "name", "message"}, nil))
	b.WriteString("}")
	return b.String()
}

func (w *walker) renderDate(obj *goja.Object) string {
	var b strings.Builder
	b.WriteString("Date {\n")
	fmt.Fprintf(&b, "  toString: %s,\n", strconv.Quote(w.callMethod(obj, "toString")))
	fmt.Fprintf(&b, "  toISOString: %s,\n", strconv.Quote(w.callMethod(obj, "toISOString")))
	fmt.Fprintf(&b, "  getTime: %s,\n", w.callMethod(obj, "getTime"))
	b.WriteString(w.prototypeBlock([]string{"getFullYear", "getMonth", "getDate", "getHours"}, nil))
	b.WriteString("}")
	return b.String()
}

func (w *walker) renderRegExp(obj *goja.Object) string {
	var b strings.Builder
	b.WriteString("RegExp {\n")
	fmt.Fprintf(&b, "  source: %s,\n", strconv.Quote(stringProp(obj, "source", "")))
	fmt.Fprintf(&b, "  flags: %s,\n", strconv.Quote(stringProp(obj, "flags", "")))
	fmt.Fprintf(&b, "  global: %s,\n", boolProp(obj, "global"))
	fmt.Fprintf(&b, "  ignoreCase: %s,\n", boolProp(obj, "ignoreCase"))
	fmt.Fprintf(&b, "  multiline: %s,\n", boolProp(obj, "multiline"))
	b.WriteString(w.prototypeBlock([]string{"test", "exec", "toString", "compile"}, nil))
	b.WriteString("}")
	return b.String()
}

func (w *walker) renderMap(obj *goja.Object) string {
	size := int(obj.Get("size").ToInteger())
	entries := w.collectEntries(obj, `(function(c){var out=[];c.forEach(function(v,k){out.push([k,v])});return out;})`)

	var b strings.Builder
	fmt.Fprintf(&b, "Map(%d) {", size)
	if len(entries) == 0 {
		b.WriteString("}")
		return b.String()
	}
	b.WriteString("\n")
	shown := 0
	for _, entry := range entries {
		if shown >= w.limits().MaxEntries {
			break
		}
		pair := entry.ToObject(w.vm)
		key := w.renderValue(pair.Get("0"), 1)
		val := w.renderValue(pair.Get("1"), 1)
		fmt.Fprintf(&b, "  %s => %s,\n", key, val)
		shown++
	}
	if size > shown {
		fmt.Fprintf(&b, "  ... %d more entries,\n", size-shown)
	}
	b.WriteString(w.prototypeBlock([]string{"get", "set", "has", "delete"}, map[string]string{"size": strconv.Itoa(size)}))
	b.WriteString("}")
	return b.String()
}

func (w *walker) renderSet(obj *goja.Object) string {
	size := int(obj.Get("size").ToInteger())
	entries := w.collectEntries(obj, `(function(c){var out=[];c.forEach(function(v){out.push(v)});return out;})`)

	var b strings.Builder
	fmt.Fprintf(&b, "Set(%d) {", size)
	if len(entries) == 0 {
		b.WriteString("}")
		return b.String()
	}
	b.WriteString("\n")
	shown := 0
	for _, entry := range entries {
		if shown >= w.limits().MaxEntries {
			break
		}
		fmt.Fprintf(&b, "  %s,\n", w.renderValue(entry, 1))
		shown++
	}
	if size > shown {
		fmt.Fprintf(&b, "  ... %d more entries,\n", size-shown)
	}
	b.WriteString(w.prototypeBlock([]string{"add", "has", "delete", "clear"}, map[string]string{"size": strconv.Itoa(size)}))
	b.WriteString("}")
	return b.String()
}

// collectEntries drains a Map/Set through an in-realm forEach helper,
// bounded by the enumeration budget.
func (w *walker) collectEntries(obj *goja.Object, helper string) []goja.Value {
	helperVal, err := w.vm.RunString(helper)
	if err != nil {
		return nil
	}
	fn, ok := goja.AssertFunction(helperVal)
	if !ok {
		return nil
	}
	res, err := fn(goja.Undefined(), obj)
	if err != nil {
		return nil
	}
	arr := res.ToObject(w.vm)
	length := int(arr.Get("length").ToInteger())

	var out []goja.Value
	for i := 0; i < length; i++ {
		if w.overBudget() || i > w.limits().MaxEntries {
			break
		}
		out = append(out, arr.Get(strconv.Itoa(i)))
	}
	return out
}

func (w *walker) renderPromise(v goja.Value) string {
	p, ok := v.Export().(*goja.Promise)
	if !ok {
		return "Promise { <pending> }"
	}

	switch p.State() {
	case goja.PromiseStatePending:
		return "Promise { <pending> }"
	case goja.PromiseStateRejected:
		return fmt.Sprintf("Promise { <rejected: %s> }", w.renderValue(p.Result(), 1))
	default:
		return fmt.Sprintf("Promise { <resolved: %s> }", w.renderResolved(p.Result()))
	}
}

// renderResolved special-cases Response-shaped and JSON-shaped resolutions
// the way a devtools network inspector would.
func (w *walker) renderResolved(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return w.renderValue(v, 1)
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return w.renderValue(v, 1)
	}

	if isResponseShaped(obj) {
		return fmt.Sprintf("Response { status: %s, ok: %s, statusText: %s, url: %s }",
			obj.Get("status").String(), obj.Get("ok").String(),
			strconv.Quote(stringProp(obj, "statusText", "")),
			strconv.Quote(stringProp(obj, "url", "")))
	}

	if cls := obj.ClassName(); cls == "Object" || cls == "Array" {
		if data, err := sonic.MarshalIndent(obj.Export(), "", "  "); err == nil {
			out := string(data)
			if len(out) > promiseJSONCap {
				out = out[:promiseJSONCap] + "... [truncated]"
			}
			return out
		}
	}
	return w.renderValue(v, 1)
}

func isResponseShaped(obj *goja.Object) bool {
	for _, key := range []string{"status", "ok", "statusText", "url"} {
		if v := obj.Get(key); v == nil || goja.IsUndefined(v) {
			return false
		}
	}
	return true
}

func (w *walker) renderArrayBuffer(obj *goja.Object) string {
	return fmt.Sprintf("ArrayBuffer { byteLength: %s }", obj.Get("byteLength").String())
}

func (w *walker) renderTypedArray(obj *goja.Object, cls string) string {
	length := int(obj.Get("length").ToInteger())

	var b strings.Builder
	fmt.Fprintf(&b, "%s(%d) [", cls, length)
	shown := 0
	for i := 0; i < length && shown < w.limits().MaxEntries; i++ {
		if shown > 0 {
			b.WriteString(", ")
		}
		b.WriteString(obj.Get(strconv.Itoa(i)).String())
		shown++
	}
	if length > shown {
		fmt.Fprintf(&b, ", ... %d more", length-shown)
	}
	b.WriteString("]")
	return b.String()
}

// renderObject picks between the hybrid block (objects carrying methods) and
// the general pretty-printer.
func (w *walker) renderObject(obj *goja.Object) string {
	keys := obj.Keys()
	hasFunction := false
	for _, key := range keys {
		if blockedProperty(key) {
			continue
		}
		if prop := obj.Get(key); prop != nil {
			if po, ok := prop.(*goja.Object); ok && po.ClassName() == "Function" {
				hasFunction = true
				break
			}
		}
	}
	if !hasFunction {
		return w.renderValue(obj, 0)
	}
	return w.renderHybrid(obj, keys)
}

// renderHybrid shows up to five data properties and five methods, with an
// elision marker beyond ten own properties total.
func (w *walker) renderHybrid(obj *goja.Object, keys []string) string {
	var values, funcs []string
	total := 0
	for _, key := range keys {
		if blockedProperty(key) || w.overBudget() {
			continue
		}
		total++
		prop := obj.Get(key)
		if po, ok := prop.(*goja.Object); ok && po.ClassName() == "Function" {
			if len(funcs) < hybridValueCap {
				name := stringProp(po, "name", key)
				funcs = append(funcs, fmt.Sprintf("  %s: ƒ %s(),", key, name))
			}
			continue
		}
		if len(values) < hybridValueCap {
			values = append(values, fmt.Sprintf("  %s: %s,", key, w.renderValue(prop, 1)))
		}
	}

	var b strings.Builder
	b.WriteString("{\n")
	for _, line := range values {
		b.WriteString(line + "\n")
	}
	for _, line := range funcs {
		b.WriteString(line + "\n")
	}
	if total > hybridTotalCap {
		fmt.Fprintf(&b, "  ... %d more properties,\n", total-hybridTotalCap)
	}
	b.WriteString("}")
	return b.String()
}

// renderMathObject renders the Math namespace as its named constants.
func (w *walker) renderMathObject(obj *goja.Object) string {
	return "Math { " + strings.Join(mathConstants(obj), ", ") + " }"
}

func mathConstants(obj *goja.Object) []string {
	out := []string{}
	for _, name := range []string{"E", "LN2", "LN10", "PI", "SQRT2"} {
		if v := obj.Get(name); v != nil && !goja.IsUndefined(v) {
			out = append(out, fmt.Sprintf("%s: %s", name, v.String()))
		}
	}
	out = append(out, "...")
	return out
}

// renderConsoleObject renders the sandbox console as a synthetic listing of
// its captured method names.
func (w *walker) renderConsoleObject(obj *goja.Object) string {
	names := []string{}
	for i, key := range obj.Keys() {
		if i >= w.limits().MaxEntries {
			names = append(names, "...")
			break
		}
		names = append(names, key+": ƒ")
	}
	return "console {" + strings.Join(names, ", ") + "}"
}

// prototypeBlock renders the synthetic [Prototype] section listing a few
// representative prototype methods plus any extra fields such as size.
func (w *walker) prototypeBlock(methods []string, extra map[string]string) string {
	if len(methods) > protoMethodsCap {
		methods = methods[:protoMethodsCap]
	}
	var b strings.Builder
	b.WriteString("  [Prototype]: {")
	for i, m := range methods {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(" " + m + ": ƒ")
	}
	for k, v := range extra {
		fmt.Fprintf(&b, ", %s: %s", k, v)
	}
	b.WriteString(" }\n")
	return b.String()
}

func (w *walker) callMethod(obj *goja.Object, name string) string {
	fn, ok := goja.AssertFunction(obj.Get(name))
	if !ok {
		return "undefined"
	}
	res, err := fn(obj)
	if err != nil {
		return "undefined"
	}
	return res.String()
}

func stringProp(obj *goja.Object, name, fallback string) string {
	v := obj.Get(name)
	if v == nil || goja.IsUndefined(v) {
		return fallback
	}
	return v.String()
}

func boolProp(obj *goja.Object, name string) string {
	v := obj.Get(name)
	if v == nil || goja.IsUndefined(v) {
		return "false"
	}
	return strconv.FormatBool(v.ToBoolean())
}
