package inspect

import (
	"strconv"
	"strings"

	"github.com/dop251/goja"
)

// renderValue is the general recursive printer for arrays, plain objects and
// the primitives nested inside them. Two-space indent per level, [Circular]
// markers on revisited objects, and a hard depth ceiling.
func (w *walker) renderValue(v goja.Value, depth int) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	if depth >= w.limits().MaxDepth {
		return "..."
	}

	switch exported := v.Export().(type) {
	case string:
		return strconv.Quote(w.truncate(exported))
	case bool:
		return strconv.FormatBool(exported)
	case int64:
		return strconv.FormatInt(exported, 10)
	case float64:
		return formatNumber(exported)
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		return w.truncate(v.String())
	}
	if w.seen[obj] {
		return "[Circular]"
	}
	w.seen[obj] = true
	defer delete(w.seen, obj)

	switch cls := obj.ClassName(); cls {
	case "Array":
		return w.renderArray(obj, depth)
	case "Function":
		name := stringProp(obj, "name", "anonymous")
		return "ƒ " + name + "()"
	case "Date":
		return w.callMethod(obj, "toISOString")
	case "RegExp":
		return v.String()
	case "Error":
		return stringProp(obj, "name", "Error") + ": " + stringProp(obj, "message", "")
	case "Map":
		return "Map(" + obj.Get("size").String() + ")"
	case "Set":
		return "Set(" + obj.Get("size").String() + ")"
	case "Promise":
		return "Promise"
	default:
		return w.renderObjectBody(obj, depth)
	}
}

func (w *walker) renderArray(obj *goja.Object, depth int) string {
	length := int(obj.Get("length").ToInteger())
	if length == 0 {
		return "[]"
	}

	indent := strings.Repeat("  ", depth+1)
	var b strings.Builder
	b.WriteString("[\n")
	shown := 0
	for i := 0; i < length; i++ {
		if w.overBudget() || w.expired() {
			break
		}
		b.WriteString(indent)
		b.WriteString(w.renderValue(obj.Get(strconv.Itoa(i)), depth+1))
		if i < length-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
		shown++
	}
	if shown < length {
		b.WriteString(indent + "... " + strconv.Itoa(length-shown) + " more items\n")
	}
	b.WriteString(strings.Repeat("  ", depth) + "]")
	return b.String()
}

func (w *walker) renderObjectBody(obj *goja.Object, depth int) string {
	keys := obj.Keys()
	if len(keys) == 0 {
		return "{}"
	}

	indent := strings.Repeat("  ", depth+1)
	var b strings.Builder
	b.WriteString("{\n")
	written := 0
	skipped := 0
	for i, key := range keys {
		if blockedProperty(key) {
			skipped++
			continue
		}
		if w.overBudget() || w.expired() {
			skipped += len(keys) - i
			break
		}
		b.WriteString(indent)
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(w.renderValue(obj.Get(key), depth+1))
		if i < len(keys)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
		written++
	}
	if written == 0 {
		return "{}"
	}
	if skipped > 0 {
		b.WriteString(indent + "... " + strconv.Itoa(skipped) + " more properties\n")
	}
	b.WriteString(strings.Repeat("  ", depth) + "}")
	return b.String()
}
