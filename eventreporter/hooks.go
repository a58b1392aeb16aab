package eventreporter

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Adapter bridges a host's exception, error and shutdown hooks to a reporter
type Adapter interface {
	// OnException reports a caught error
	OnException(ctx context.Context, err error)

	// OnError returns the exception to raise for a runtime error, or nil if
	// the severity isn't reportable
	OnError(ctx context.Context, severity Severity, message, file string, line int) error

	// OnShutdown reports the last runtime error if it was fatal
	OnShutdown(ctx context.Context, last *LastError)
}

// LastError is the last runtime error recorded before shutdown
type LastError struct {
	Type    Severity `json:"type"`
	Message string   `json:"message"`
	File    string   `json:"file"`
	Line    int      `json:"line"`
}

// ErrorReporter is the part of a Reporter the hooks depend on
type ErrorReporter interface {
	Report(ctx context.Context, err error) (*Payload, error)
}

// HookAdapter is the Adapter for a reporter
type HookAdapter struct {
	Reporter ErrorReporter

	// Reportable is the mask of severities OnError raises for
	Reportable Severity

	// Fatal is the set of severities OnShutdown reports, FatalSeverities
	// plus any host specific codes
	Fatal Severity
}

// NewHookAdapter creates hooks for the reporter.  extraFatal is ORed into
// the default fatal severities.
func NewHookAdapter(r ErrorReporter, reportable, extraFatal Severity) *HookAdapter {
	return &HookAdapter{
		Reporter:   r,
		Reportable: reportable,
		Fatal:      FatalSeverities | extraFatal,
	}
}

// OnException forwards err to the reporter
func (h *HookAdapter) OnException(ctx context.Context, err error) {
	if _, rerr := h.Reporter.Report(ctx, err); rerr != nil {
		log.Errorf("failed to report exception: %s", rerr)
	}
}

// OnError synthesizes an ErrorException when severity is in the reportable
// mask.  The caller is expected to raise it.
func (h *HookAdapter) OnError(ctx context.Context, severity Severity, message, file string, line int) error {
	if !severity.Has(h.Reportable) {
		log.Debugf("not raising %s error (mask %s): %s", severity, h.Reportable, message)
		return nil
	}

	return NewErrorException(severity, message, file, line)
}

// OnShutdown reports last when it's one of the fatal severities
func (h *HookAdapter) OnShutdown(ctx context.Context, last *LastError) {
	if last == nil {
		return
	}

	if !last.Type.Has(h.Fatal) {
		log.Debugf("last error at shutdown isn't fatal (%s), not reporting", last.Type)
		return
	}

	h.OnException(ctx, newShutdownException(last))
}

// Recover is deferred at the top of a goroutine.  A panic is reported with
// the panicking goroutine's stack and then re-raised.
func (h *HookAdapter) Recover(ctx context.Context) {
	r := recover()
	if r == nil {
		return
	}

	h.OnException(ctx, panicError(r))
	panic(r)
}

// panicError describes a recovered value, located at the frame that panicked
func panicError(r interface{}) *HostError {
	e := &HostError{
		ErrorClass: "panic",
		Message:    fmt.Sprintf("%v", r),
		Severity:   SeverityError,
		Frames:     []TraceFrame{},
	}
	if err, ok := r.(error); ok {
		e.ErrorClass = fmt.Sprintf("%T", errors.Cause(err))
	}

	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(3, pcs)
	for _, f := range framesFromPCs(pcs[:n]) {
		// skip the runtime's own panic machinery
		if strings.HasPrefix(f.Function, "runtime.") || strings.HasPrefix(f.Class, "runtime.") {
			continue
		}
		e.Frames = append(e.Frames, f)
	}

	if len(e.Frames) > 0 {
		e.Filename = e.Frames[0].File
		e.Lineno = e.Frames[0].Line
	}

	return e
}
