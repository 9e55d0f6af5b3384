package sandbox

import (
	"sort"
	"sync"
)

// Registry maps module names to JavaScript source snippets. Each snippet is
// an expression that evaluates to the module's export value; require()
// evaluates it once per context and caches the result.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]string
}

// NewRegistry returns a registry pre-seeded with the bundled modules.
func NewRegistry() *Registry {
	r := &Registry{modules: map[string]string{}}
	r.Register("lodash", lodashSource)
	r.Register("_", lodashSource)
	return r
}

func (r *Registry) Register(name, source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[name] = source
}

func (r *Registry) Source(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.modules[name]
	return src, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

// RegisterModule adds a module to the process-wide registry consumed by
// every context built without an explicit registry.
func RegisterModule(name, source string) {
	defaultRegistry.Register(name, source)
}

// DefaultRegistry exposes the process-wide registry.
func DefaultRegistry() *Registry { return defaultRegistry }

// lodashSource is a small pure-JS subset of lodash covering the helpers
// playground snippets reach for most. Evaluates to the exports object.
const lodashSource = `(function() {
	function chunk(arr, size) {
		size = size || 1;
		var out = [];
		for (var i = 0; i < arr.length; i += size) {
			out.push(arr.slice(i, i + size));
		}
		return out;
	}
	function uniq(arr) {
		var out = [];
		for (var i = 0; i < arr.length; i++) {
			if (out.indexOf(arr[i]) === -1) out.push(arr[i]);
		}
		return out;
	}
	function flatten(arr) {
		var out = [];
		for (var i = 0; i < arr.length; i++) {
			if (Array.isArray(arr[i])) {
				out = out.concat(arr[i]);
			} else {
				out.push(arr[i]);
			}
		}
		return out;
	}
	function flattenDeep(arr) {
		var out = [];
		for (var i = 0; i < arr.length; i++) {
			if (Array.isArray(arr[i])) {
				out = out.concat(flattenDeep(arr[i]));
			} else {
				out.push(arr[i]);
			}
		}
		return out;
	}
	function groupBy(arr, fn) {
		var key = typeof fn === 'function' ? fn : function(x) { return x[fn]; };
		var out = {};
		for (var i = 0; i < arr.length; i++) {
			var k = String(key(arr[i]));
			if (!out[k]) out[k] = [];
			out[k].push(arr[i]);
		}
		return out;
	}
	function pick(obj, keys) {
		var out = {};
		for (var i = 0; i < keys.length; i++) {
			if (Object.prototype.hasOwnProperty.call(obj, keys[i])) {
				out[keys[i]] = obj[keys[i]];
			}
		}
		return out;
	}
	function omit(obj, keys) {
		var out = {};
		for (var k in obj) {
			if (Object.prototype.hasOwnProperty.call(obj, k) && keys.indexOf(k) === -1) {
				out[k] = obj[k];
			}
		}
		return out;
	}
	// No real scheduling in the sandbox: debounce degrades to an
	// immediately-invoking wrapper.
	function debounce(fn) {
		return function() { return fn.apply(this, arguments); };
	}
	return {
		chunk: chunk,
		uniq: uniq,
		flatten: flatten,
		flattenDeep: flattenDeep,
		groupBy: groupBy,
		pick: pick,
		omit: omit,
		debounce: debounce
	};
})()`
