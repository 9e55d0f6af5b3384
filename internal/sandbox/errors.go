package sandbox

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dop251/goja"
)

// ErrCancelled reports that an execution was stopped by its context, either
// an explicit Cancel or a superseding run on the same session.
var ErrCancelled = errors.New("execution cancelled")

// ExecError is a failure raised by sandboxed code or by an executor-enforced
// ceiling. Type carries the JavaScript error class name, or a synthetic one
// such as TimeoutError.
type ExecError struct {
	Type    string
	Message string
	Line    int
	Column  int
	Stack   string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

const (
	interruptTimeout = "timeout"
	interruptCancel  = "cancelled"

	// scriptName labels compiled source so stack frames carry positions
	// we can parse back out.
	scriptName = "playground.js"
)

var framePattern = regexp.MustCompile(`playground\.js:(\d+):(\d+)`)

// mapRuntimeError converts a goja execution failure into the sandbox error
// taxonomy. Returns nil when err is nil.
func mapRuntimeError(err error) error {
	if err == nil {
		return nil
	}
	switch ex := err.(type) {
	case *goja.StackOverflowError:
		return &ExecError{Type: "RangeError", Message: "Maximum call stack size exceeded"}
	case *goja.InterruptedError:
		reason := fmt.Sprintf("%v", ex.Value())
		if strings.Contains(reason, interruptCancel) {
			return ErrCancelled
		}
		return &ExecError{Type: "TimeoutError", Message: "Execution timed out"}
	case *goja.Exception:
		return execErrorFromException(ex)
	default:
		return &ExecError{Type: "Error", Message: err.Error()}
	}
}

func execErrorFromException(ex *goja.Exception) *ExecError {
	out := &ExecError{Type: "Error"}
	val := ex.Value()
	if obj, ok := val.(*goja.Object); ok {
		if n := obj.Get("name"); n != nil && !goja.IsUndefined(n) && n.String() != "" {
			out.Type = n.String()
		}
		if m := obj.Get("message"); m != nil && !goja.IsUndefined(m) {
			out.Message = m.String()
		}
		if s := obj.Get("stack"); s != nil && !goja.IsUndefined(s) {
			out.Stack = s.String()
		}
	}
	if out.Message == "" && val != nil {
		out.Message = val.String()
	}
	if out.Line == 0 {
		out.Line, out.Column = positionFromStack(out.Stack)
	}
	return out
}

// positionFromStack pulls the first in-script frame position out of a goja
// stack trace. Returns zeros when no frame matches.
func positionFromStack(stack string) (line, column int) {
	m := framePattern.FindStringSubmatch(stack)
	if m == nil {
		return 0, 0
	}
	line, _ = strconv.Atoi(m[1])
	column, _ = strconv.Atoi(m[2])
	return line, column
}
