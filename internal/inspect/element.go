package inspect

import "time"

// Color is a presentation token attached to rendered output. The caller
// decides how tokens map to an actual palette (ANSI, CSS classes).
type Color string

const (
	ColorDefault  Color = ""
	ColorMuted    Color = "muted"
	ColorNumber   Color = "number"
	ColorString   Color = "string"
	ColorBoolean  Color = "boolean"
	ColorFunction Color = "function"
	ColorInfo     Color = "info"
	ColorWarning  Color = "warning"
	ColorError    Color = "error"
)

// Element is one rendered value: devtools-style text plus a color token.
type Element struct {
	Content string `json:"content"`
	Color   Color  `json:"color,omitempty"`
}

// Limits bounds every introspection path of the serializer. All values have
// working defaults via DefaultLimits.
type Limits struct {
	// MaxDepth bounds recursion into nested structures.
	MaxDepth int
	// MaxProperties is the iteration ceiling when enumerating one object.
	MaxProperties int
	// MaxEntries caps rendered Map/Set/typed-array entries.
	MaxEntries int
	// MaxStringLen truncates rendered output beyond this many characters.
	MaxStringLen int
	// OpTimeout bounds the wall time of a single Stringify call. On overrun
	// the current value degrades to its type fallback.
	OpTimeout time.Duration
}

// DefaultLimits returns the standard security bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxDepth:      10,
		MaxProperties: 1000,
		MaxEntries:    10,
		MaxStringLen:  10000,
		OpTimeout:     100 * time.Millisecond,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxDepth <= 0 {
		l.MaxDepth = d.MaxDepth
	}
	if l.MaxProperties <= 0 {
		l.MaxProperties = d.MaxProperties
	}
	if l.MaxEntries <= 0 {
		l.MaxEntries = d.MaxEntries
	}
	if l.MaxStringLen <= 0 {
		l.MaxStringLen = d.MaxStringLen
	}
	if l.OpTimeout <= 0 {
		l.OpTimeout = d.OpTimeout
	}
	return l
}

// blockedProperty is the enumeration blacklist: prototype-pollution flavored
// names are never walked.
func blockedProperty(name string) bool {
	switch name {
	case "__proto__", "constructor", "prototype":
		return true
	}
	if len(name) >= 4 && name[:2] == "__" && name[len(name)-2:] == "__" {
		return true
	}
	return false
}
