package runner

import "github.com/sandkit/playground/internal/inspect"

// ResultType labels how a result should be presented.
type ResultType string

const (
	TypeExecution ResultType = "execution"
	TypeError     ResultType = "error"
	TypeWarning   ResultType = "warning"
	TypeInfo      ResultType = "info"
)

// Result is one observable output unit. Immutable once assembled; ordered
// ascending by line number with location-less errors first.
type Result struct {
	LineNumber int             `json:"lineNumber,omitempty"`
	Element    inspect.Element `json:"element"`
	Type       ResultType      `json:"type"`
	Method     string          `json:"method,omitempty"`
	ErrorInfo  *ErrorInfo      `json:"errorInfo,omitempty"`
}

// ColoredElement is either a string leaf or a list of children. Composite
// console output flattens to leaves, with the parent color distributed to
// leaves that carry none of their own.
type ColoredElement struct {
	Content  string           `json:"content,omitempty"`
	Color    inspect.Color    `json:"color,omitempty"`
	Children []ColoredElement `json:"children,omitempty"`
}

// Flatten yields the leaf elements in order. A leaf without a color
// inherits the nearest ancestor color.
func (c ColoredElement) Flatten() []inspect.Element {
	return c.flattenWith(c.Color)
}

func (c ColoredElement) flattenWith(inherited inspect.Color) []inspect.Element {
	color := c.Color
	if color == inspect.ColorDefault {
		color = inherited
	}
	if len(c.Children) == 0 {
		return []inspect.Element{{Content: c.Content, Color: color}}
	}
	var out []inspect.Element
	for _, child := range c.Children {
		out = append(out, child.flattenWith(color)...)
	}
	return out
}
