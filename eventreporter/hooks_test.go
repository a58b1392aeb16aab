package eventreporter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHookAdapter(t *testing.T) {
	r := &recordingReporter{}
	h := NewHookAdapter(r, SeverityAll, Severity(1<<20))

	assert.Equal(t, SeverityAll, h.Reportable)
	assert.Equal(t, FatalSeverities|Severity(1<<20), h.Fatal)
}

func TestOnException(t *testing.T) {
	r := &recordingReporter{}
	h := NewHookAdapter(r, SeverityAll, 0)

	boom := errors.New("boom")
	h.OnException(context.Background(), boom)

	assert.Equal(t, []error{boom}, r.errs)
}

func TestOnExceptionMissingAPIKey(t *testing.T) {
	client := NewMockClient(nil, http.StatusOK)
	rep := NewReporter(Config{}, Providers{})
	rep.Client = client

	h := NewHookAdapter(rep, SeverityAll, 0)
	assert.NotPanics(t, func() {
		h.OnException(context.Background(), errors.New("boom"))
	})
	assert.Equal(t, 0, client.calls())
}

func TestOnErrorMask(t *testing.T) {
	masks := []Severity{0, SeverityError, SeverityAll &^ (SeverityNotice | SeverityDeprecated), SeverityAll}
	severities := []Severity{SeverityError, SeverityWarning, SeverityNotice, SeverityDeprecated, SeverityUserError}

	for _, m := range masks {
		for _, s := range severities {
			r := &recordingReporter{}
			h := NewHookAdapter(r, m, 0)

			raised := h.OnError(context.Background(), s, "something happened", "/srv/job.x", 3)
			if s&m != 0 {
				require.Error(t, raised, "expected %s to be raised with mask %s", s, m)

				he, ok := raised.(*HostError)
				require.True(t, ok, "expected *HostError, got %T", raised)
				assert.Equal(t, "ErrorException", he.ErrorClass)
				assert.Equal(t, "something happened", he.Message)
				assert.Equal(t, "/srv/job.x", he.Filename)
				assert.Equal(t, 3, he.Lineno)
				assert.Equal(t, s, he.Severity)
				assert.Equal(t, []TraceFrame{{File: "/srv/job.x", Line: 3}}, he.Trace())
			} else {
				assert.NoError(t, raised, "expected %s to be filtered with mask %s", s, m)
			}

			assert.Empty(t, r.errs, "OnError should never report directly")
		}
	}
}

func TestOnShutdown(t *testing.T) {
	tests := []struct {
		name     string
		last     *LastError
		extra    Severity
		reported bool
	}{
		{"no last error", nil, 0, false},
		{"fatal error", &LastError{Type: SeverityError, Message: "out of memory", File: "/srv/big.x", Line: 120}, 0, true},
		{"core error", &LastError{Type: SeverityCoreError, Message: "core", File: "a.x", Line: 1}, 0, true},
		{"compile error", &LastError{Type: SeverityCompileError, Message: "compile", File: "a.x", Line: 1}, 0, true},
		{"parse error", &LastError{Type: SeverityParse, Message: "unexpected '}'", File: "a.x", Line: 1}, 0, true},
		{"notice", &LastError{Type: SeverityNotice, Message: "undefined variable", File: "a.x", Line: 1}, 0, false},
		{"warning", &LastError{Type: SeverityWarning, Message: "warn", File: "a.x", Line: 1}, 0, false},
		{"host fatal", &LastError{Type: Severity(1 << 16), Message: "host", File: "a.x", Line: 1}, Severity(1 << 16), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recordingReporter{}
			h := NewHookAdapter(r, SeverityAll, tt.extra)

			h.OnShutdown(context.Background(), tt.last)

			if !tt.reported {
				assert.Empty(t, r.errs)
				return
			}

			require.Len(t, r.errs, 1)
			he, ok := r.errs[0].(*HostError)
			require.True(t, ok, "expected *HostError, got %T", r.errs[0])
			assert.Equal(t, "Exception", he.ErrorClass)
			assert.Equal(t, fmt.Sprintf("Error Occurred: %s of type %d in %s at line %d", tt.last.Message, tt.last.Type, tt.last.File, tt.last.Line), he.Message)
			assert.Equal(t, tt.last.File, he.Filename)
			assert.Equal(t, tt.last.Line, he.Lineno)
			assert.Equal(t, tt.last.Type, he.Severity)
			assert.Equal(t, []TraceFrame{{File: tt.last.File, Line: tt.last.Line}}, he.Trace())
		})
	}
}

func TestRecover(t *testing.T) {
	r := &recordingReporter{}
	h := NewHookAdapter(r, SeverityAll, 0)

	func() {
		defer func() {
			assert.Equal(t, "boom", recover(), "Recover should re-panic with the original value")
		}()
		defer h.Recover(context.Background())
		panic("boom")
	}()

	require.Len(t, r.errs, 1)
	he, ok := r.errs[0].(*HostError)
	require.True(t, ok, "expected *HostError, got %T", r.errs[0])
	assert.Equal(t, "panic", he.ErrorClass)
	assert.Equal(t, "boom", he.Message)
	assert.Equal(t, SeverityError, he.Severity)
	assert.True(t, strings.HasSuffix(he.Filename, "hooks_test.go"), "got file %s", he.Filename)
	assert.NotZero(t, he.Lineno)

	require.NotEmpty(t, he.Trace())
	assert.Equal(t, he.Filename, he.Trace()[0].File)
	assert.Equal(t, he.Lineno, he.Trace()[0].Line)
	for _, f := range he.Trace() {
		assert.False(t, strings.HasPrefix(f.Function, "runtime."), "runtime frame %s in panic trace", f.Function)
	}
}

func TestRecoverErrorValue(t *testing.T) {
	client := NewMockClient(nil, http.StatusOK)
	rep := NewReporter(Config{APIKey: "k1", Endpoint: "http://127.0.0.1:8888/notify"}, Providers{})
	rep.Client = client
	h := NewHookAdapter(rep, SeverityAll, 0)

	func() {
		defer func() {
			assert.Equal(t, io.ErrClosedPipe, recover())
		}()
		defer h.Recover(context.Background())
		panic(io.ErrClosedPipe)
	}()

	require.Equal(t, 1, client.calls())

	var sent Payload
	require.NoError(t, json.Unmarshal(client.bodies[0], &sent))
	ex := sent.Events[0].Exceptions[0]
	assert.Equal(t, "*errors.errorString", ex.ErrorClass)
	assert.Equal(t, "io: read/write on closed pipe", ex.Message)
	require.NotEmpty(t, ex.Stacktrace)
	assert.True(t, strings.HasSuffix(ex.Stacktrace[0].File, "hooks_test.go"), "got file %s", ex.Stacktrace[0].File)
	assert.NotZero(t, ex.Stacktrace[0].LineNumber)
}

func TestRecoverNoPanic(t *testing.T) {
	r := &recordingReporter{}
	h := NewHookAdapter(r, SeverityAll, 0)

	func() {
		defer h.Recover(context.Background())
	}()

	assert.Empty(t, r.errs)
}
