package inspect

import (
	"strings"
	"testing"
	"time"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSerializer() *Serializer {
	return New(DefaultLimits(), nil)
}

func eval(t *testing.T, vm *goja.Runtime, src string) goja.Value {
	t.Helper()
	v, err := vm.RunString(src)
	require.NoError(t, err)
	return v
}

func TestStringifyPrimitives(t *testing.T) {
	vm := goja.New()
	s := newTestSerializer()

	tests := []struct {
		name    string
		src     string
		content string
		color   Color
	}{
		{"null", "null", "null", ColorMuted},
		{"undefined", "undefined", "undefined", ColorMuted},
		{"true", "true", "true", ColorBoolean},
		{"false", "false", "false", ColorBoolean},
		{"integer", "42", "42", ColorNumber},
		{"negative", "-7", "-7", ColorNumber},
		{"float", "3.14", "3.14", ColorNumber},
		{"nan", "0/0", "NaN", ColorNumber},
		{"infinity", "1/0", "Infinity", ColorNumber},
		{"negative infinity", "-1/0", "-Infinity", ColorNumber},
		{"string", `"hello"`, `"hello"`, ColorString},
		{"bigint", "123n", "123n", ColorNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := s.Stringify(vm, eval(t, vm, tt.src))
			assert.Equal(t, tt.content, el.Content)
			assert.Equal(t, tt.color, el.Color)
		})
	}
}

func TestStringifyNilValue(t *testing.T) {
	vm := goja.New()
	el := newTestSerializer().Stringify(vm, nil)
	assert.Equal(t, "undefined", el.Content)
	assert.Equal(t, ColorMuted, el.Color)
}

func TestStringifyFunctionReferencePassthrough(t *testing.T) {
	vm := goja.New()
	el := newTestSerializer().Stringify(vm, vm.ToValue("ƒ log()"))
	assert.Equal(t, "ƒ log()", el.Content)
	assert.Equal(t, ColorInfo, el.Color)
}

func TestStringifyArray(t *testing.T) {
	vm := goja.New()
	s := newTestSerializer()

	el := s.Stringify(vm, eval(t, vm, "[1, 2, 3]"))
	assert.Contains(t, el.Content, "1,")
	assert.Contains(t, el.Content, "3")
	assert.True(t, strings.HasPrefix(el.Content, "["))
	assert.True(t, strings.HasSuffix(el.Content, "]"))

	el = s.Stringify(vm, eval(t, vm, "[]"))
	assert.Equal(t, "[]", el.Content)
}

func TestStringifyNestedObject(t *testing.T) {
	vm := goja.New()
	s := newTestSerializer()

	el := s.Stringify(vm, eval(t, vm, `({a: 1, b: {c: "x"}})`))
	assert.Contains(t, el.Content, "a: 1")
	assert.Contains(t, el.Content, `c: "x"`)
}

func TestStringifyCircularReference(t *testing.T) {
	vm := goja.New()
	s := newTestSerializer()

	el := s.Stringify(vm, eval(t, vm, `(function(){var a = {name: "a"}; a.self = a; return a;})()`))
	assert.Contains(t, el.Content, "[Circular]")
	assert.Contains(t, el.Content, `name: "a"`)
}

func TestStringifyDeterministic(t *testing.T) {
	vm := goja.New()
	s := newTestSerializer()
	v := eval(t, vm, `({x: [1, {y: 2}], z: "s"})`)

	first := s.Stringify(vm, v)
	second := s.Stringify(vm, v)
	assert.Equal(t, first, second)
}

func TestStringifyDepthLimit(t *testing.T) {
	vm := goja.New()
	s := New(Limits{MaxDepth: 2}, nil)

	el := s.Stringify(vm, eval(t, vm, `({a: {b: {c: {d: 1}}}})`))
	assert.Contains(t, el.Content, "...")
	assert.NotContains(t, el.Content, "d: 1")
}

func TestStringifyStringTruncation(t *testing.T) {
	vm := goja.New()
	s := New(Limits{MaxStringLen: 20}, nil)

	el := s.Stringify(vm, vm.ToValue(strings.Repeat("x", 100)))
	assert.Contains(t, el.Content, "... [truncated]")
	assert.Less(t, len(el.Content), 60)
}

func TestStringifyFunction(t *testing.T) {
	vm := goja.New()
	s := newTestSerializer()

	el := s.Stringify(vm, eval(t, vm, "(function add(a, b) { return a + b; })"))
	assert.Equal(t, ColorFunction, el.Color)
	assert.Contains(t, el.Content, "add")

	el = s.Stringify(vm, eval(t, vm, "Math.max"))
	assert.Equal(t, "ƒ max()", el.Content)
}

func TestStringifyError(t *testing.T) {
	vm := goja.New()
	s := newTestSerializer()

	el := s.Stringify(vm, eval(t, vm, `new TypeError("bad input")`))
	assert.Equal(t, ColorError, el.Color)
	assert.Contains(t, el.Content, "TypeError")
	assert.Contains(t, el.Content, "bad input")
	assert.Contains(t, el.Content, "[Prototype]")
}

func TestStringifyDate(t *testing.T) {
	vm := goja.New()
	s := newTestSerializer()

	el := s.Stringify(vm, eval(t, vm, `new Date(0)`))
	assert.Contains(t, el.Content, "Date {")
	assert.Contains(t, el.Content, "1970-01-01T00:00:00.000Z")
	assert.Contains(t, el.Content, "getTime: 0")
}

func TestStringifyRegExp(t *testing.T) {
	vm := goja.New()
	s := newTestSerializer()

	el := s.Stringify(vm, eval(t, vm, `/ab+c/gi`))
	assert.Contains(t, el.Content, `source: "ab+c"`)
	assert.Contains(t, el.Content, `flags: "gi"`)
	assert.Contains(t, el.Content, "global: true")
	assert.Contains(t, el.Content, "multiline: false")
}

func TestStringifyMap(t *testing.T) {
	vm := goja.New()
	s := newTestSerializer()

	el := s.Stringify(vm, eval(t, vm, `new Map([["a", 1], ["b", 2]])`))
	assert.Contains(t, el.Content, "Map(2)")
	assert.Contains(t, el.Content, `"a" => 1`)
	assert.Contains(t, el.Content, "size: 2")

	el = s.Stringify(vm, eval(t, vm, `new Map()`))
	assert.Equal(t, "Map(0) {}", el.Content)
}

func TestStringifyMapEntryCap(t *testing.T) {
	vm := goja.New()
	s := newTestSerializer()

	el := s.Stringify(vm, eval(t, vm,
		`new Map(Array.from({length: 25}, function(_, i) { return [i, i]; }))`))
	assert.Contains(t, el.Content, "Map(25)")
	assert.Contains(t, el.Content, "more entries")
}

func TestStringifySet(t *testing.T) {
	vm := goja.New()
	s := newTestSerializer()

	el := s.Stringify(vm, eval(t, vm, `new Set([1, 2, 3])`))
	assert.Contains(t, el.Content, "Set(3)")
	assert.Contains(t, el.Content, "size: 3")
}

func TestStringifyWeakCollections(t *testing.T) {
	vm := goja.New()
	s := newTestSerializer()

	el := s.Stringify(vm, eval(t, vm, `new WeakMap()`))
	assert.Equal(t, "WeakMap { <items unknown> }", el.Content)

	el = s.Stringify(vm, eval(t, vm, `new WeakSet()`))
	assert.Equal(t, "WeakSet { <items unknown> }", el.Content)
}

func TestStringifyPromise(t *testing.T) {
	vm := goja.New()
	s := newTestSerializer()

	el := s.Stringify(vm, eval(t, vm, `new Promise(function(){})`))
	assert.Equal(t, "Promise { <pending> }", el.Content)

	el = s.Stringify(vm, eval(t, vm, `Promise.resolve(42)`))
	assert.Equal(t, "Promise { <resolved: 42> }", el.Content)
}

func TestStringifyPromiseResolvedJSON(t *testing.T) {
	vm := goja.New()
	s := newTestSerializer()

	el := s.Stringify(vm, eval(t, vm, `Promise.resolve({a: 1})`))
	assert.Contains(t, el.Content, "<resolved:")
	assert.Contains(t, el.Content, `"a"`)
}

func TestStringifyPromiseResponseShape(t *testing.T) {
	vm := goja.New()
	s := newTestSerializer()

	el := s.Stringify(vm, eval(t, vm,
		`Promise.resolve({status: 200, ok: true, statusText: "OK", url: "https://example.com"})`))
	assert.Contains(t, el.Content, "Response { status: 200, ok: true")
	assert.Contains(t, el.Content, "https://example.com")
}

func TestStringifyTypedArray(t *testing.T) {
	vm := goja.New()
	s := newTestSerializer()

	el := s.Stringify(vm, eval(t, vm, `new Uint8Array([1, 2, 3])`))
	assert.Contains(t, el.Content, "Uint8Array(3)")
	assert.Contains(t, el.Content, "[1, 2, 3]")

	el = s.Stringify(vm, eval(t, vm, `new Float64Array(30)`))
	assert.Contains(t, el.Content, "Float64Array(30)")
	assert.Contains(t, el.Content, "more")
}

func TestStringifyArrayBuffer(t *testing.T) {
	vm := goja.New()
	s := newTestSerializer()

	el := s.Stringify(vm, eval(t, vm, `new ArrayBuffer(16)`))
	assert.Equal(t, "ArrayBuffer { byteLength: 16 }", el.Content)
}

func TestStringifyHybridObject(t *testing.T) {
	vm := goja.New()
	s := newTestSerializer()

	el := s.Stringify(vm, eval(t, vm,
		`({count: 1, name: "x", greet: function greet() { return "hi"; }})`))
	assert.Contains(t, el.Content, "count: 1")
	assert.Contains(t, el.Content, "greet: ƒ greet()")
}

func TestStringifyMathIdentity(t *testing.T) {
	vm := goja.New()
	s := newTestSerializer()

	el := s.Stringify(vm, eval(t, vm, "Math"))
	assert.Contains(t, el.Content, "Math {")
	assert.Contains(t, el.Content, "PI:")
}

func TestStringifySymbol(t *testing.T) {
	vm := goja.New()
	s := newTestSerializer()

	el := s.Stringify(vm, eval(t, vm, `Symbol("tag")`))
	assert.Equal(t, "Symbol(tag)", el.Content)
	assert.Equal(t, ColorInfo, el.Color)
}

func TestStringifyAllJoinsWithSpaces(t *testing.T) {
	vm := goja.New()
	s := newTestSerializer()

	el := s.StringifyAll(vm, []goja.Value{
		vm.ToValue("count:"), vm.ToValue(int64(3)), vm.ToValue(true),
	})
	assert.Equal(t, `"count:" 3 true`, el.Content)
	assert.Equal(t, ColorString, el.Color)
}

func TestStringifyTimeBudget(t *testing.T) {
	vm := goja.New()
	s := New(Limits{OpTimeout: time.Nanosecond}, nil)

	el := s.Stringify(vm, eval(t, vm, `({a: 1})`))
	assert.NotEmpty(t, el.Content)
}
