package eventreporter

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// maxStackDepth bounds the number of frames captured at the call site
const maxStackDepth = 64

// Reportable is an error that can describe its own class, location and trace.
// Errors that don't implement it are described from their Go type and stack.
type Reportable interface {
	error
	Class() string
	File() string
	Line() int
	Trace() []TraceFrame
}

// TraceFrame is a raw stack frame.  Any field may be empty.
type TraceFrame struct {
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Class    string `json:"class,omitempty"`
	Type     string `json:"type,omitempty"`
	Function string `json:"function,omitempty"`
}

// method joins class, call type and function into a qualified method name
func (f TraceFrame) method() string {
	if f.Class == "" {
		return f.Function
	}
	return f.Class + f.Type + f.Function
}

// HostError is an error described field by field, either synthesized from a
// runtime error (see NewErrorException) or received from a host process.
type HostError struct {
	ErrorClass string
	Message    string
	Filename   string
	Lineno     int
	Severity   Severity
	Frames     []TraceFrame
}

// NewErrorException synthesizes the exception raised for a reportable runtime
// error.  Its trace is the single frame the error was raised at.
func NewErrorException(severity Severity, message, file string, line int) *HostError {
	return &HostError{
		ErrorClass: "ErrorException",
		Message:    message,
		Filename:   file,
		Lineno:     line,
		Severity:   severity,
		Frames:     []TraceFrame{{File: file, Line: line}},
	}
}

// newShutdownException describes the fatal error a host died with
func newShutdownException(last *LastError) *HostError {
	return &HostError{
		ErrorClass: "Exception",
		Message:    fmt.Sprintf("Error Occurred: %s of type %d in %s at line %d", last.Message, uint32(last.Type), last.File, last.Line),
		Filename:   last.File,
		Lineno:     last.Line,
		Severity:   last.Type,
		Frames:     []TraceFrame{{File: last.File, Line: last.Line}},
	}
}

func (e *HostError) Error() string { return e.Message }

// Class returns the error class
func (e *HostError) Class() string { return e.ErrorClass }

// File returns the file the error was raised in
func (e *HostError) File() string { return e.Filename }

// Line returns the line the error was raised on
func (e *HostError) Line() int { return e.Lineno }

// Trace returns the frames supplied with the error
func (e *HostError) Trace() []TraceFrame { return e.Frames }

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// goError adapts a plain Go error to Reportable
type goError struct {
	err   error
	trace []TraceFrame
}

// describe returns err as a Reportable.  skip is the number of caller frames
// to drop when the stack has to be captured here.
func describe(err error, skip int) Reportable {
	if r, ok := err.(Reportable); ok {
		return r
	}

	g := &goError{err: err}

	var st stackTracer
	if errors.As(err, &st) {
		pcs := make([]uintptr, 0, len(st.StackTrace()))
		for _, f := range st.StackTrace() {
			pcs = append(pcs, uintptr(f))
		}
		g.trace = framesFromPCs(pcs)
		return g
	}

	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(skip+2, pcs)
	g.trace = framesFromPCs(pcs[:n])
	return g
}

func (g *goError) Error() string { return g.err.Error() }

// Class is the type of the root cause, so wrapping doesn't change grouping
func (g *goError) Class() string {
	return fmt.Sprintf("%T", errors.Cause(g.err))
}

func (g *goError) File() string {
	if len(g.trace) == 0 {
		return ""
	}
	return g.trace[0].File
}

func (g *goError) Line() int {
	if len(g.trace) == 0 {
		return 0
	}
	return g.trace[0].Line
}

func (g *goError) Trace() []TraceFrame { return g.trace }

func framesFromPCs(pcs []uintptr) []TraceFrame {
	trace := []TraceFrame{}
	if len(pcs) == 0 {
		return trace
	}

	frames := runtime.CallersFrames(pcs)
	for {
		f, more := frames.Next()
		if f.Function != "" {
			trace = append(trace, frameFromRuntime(f))
		}
		if !more {
			break
		}
	}
	return trace
}

// frameFromRuntime splits a Go symbol like "example.com/pkg.(*T).Method" into
// its receiver class and function name.  Plain functions and closures have no class.
func frameFromRuntime(f runtime.Frame) TraceFrame {
	tf := TraceFrame{
		File:     f.File,
		Line:     f.Line,
		Function: f.Function,
	}

	name := f.Function
	slash := strings.LastIndex(name, "/")
	dot := strings.Index(name[slash+1:], ".")
	if dot < 0 {
		return tf
	}
	pkg := name[:slash+1+dot]
	rest := name[slash+1+dot+1:]

	if strings.HasPrefix(rest, "(") {
		end := strings.Index(rest, ").")
		if end < 0 {
			return tf
		}
		tf.Class = pkg + "." + rest[:end+1]
		tf.Type = "."
		tf.Function = rest[end+2:]
		return tf
	}

	parts := strings.SplitN(rest, ".", 2)
	if len(parts) == 2 && !isClosure(parts[1]) {
		tf.Class = pkg + "." + parts[0]
		tf.Type = "."
		tf.Function = parts[1]
	}
	return tf
}

func isClosure(s string) bool {
	if strings.HasPrefix(s, "func") {
		return true
	}
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
