package eventreporter

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Severity is a bit flag describing the kind of a runtime error.  Values match
// the error levels used by the hosts that relay through us, so masks can be
// passed through unchanged.
type Severity uint32

const (
	SeverityError            Severity = 1
	SeverityWarning          Severity = 2
	SeverityParse            Severity = 4
	SeverityNotice           Severity = 8
	SeverityCoreError        Severity = 16
	SeverityCoreWarning      Severity = 32
	SeverityCompileError     Severity = 64
	SeverityCompileWarning   Severity = 128
	SeverityUserError        Severity = 256
	SeverityUserWarning      Severity = 512
	SeverityUserNotice       Severity = 1024
	SeverityStrict           Severity = 2048
	SeverityRecoverableError Severity = 4096
	SeverityDeprecated       Severity = 8192
	SeverityUserDeprecated   Severity = 16384
	SeverityAll              Severity = 32767
)

// FatalSeverities are the severities that count as fatal at shutdown
const FatalSeverities = SeverityError | SeverityCoreError | SeverityCompileError | SeverityParse

var severityNames = map[string]Severity{
	"error":             SeverityError,
	"warning":           SeverityWarning,
	"parse":             SeverityParse,
	"notice":            SeverityNotice,
	"core_error":        SeverityCoreError,
	"core_warning":      SeverityCoreWarning,
	"compile_error":     SeverityCompileError,
	"compile_warning":   SeverityCompileWarning,
	"user_error":        SeverityUserError,
	"user_warning":      SeverityUserWarning,
	"user_notice":       SeverityUserNotice,
	"strict":            SeverityStrict,
	"recoverable_error": SeverityRecoverableError,
	"deprecated":        SeverityDeprecated,
	"user_deprecated":   SeverityUserDeprecated,
	"all":               SeverityAll,
}

// ParseSeverityMask ORs together a list of severity names.  An empty list is
// an empty mask.
func ParseSeverityMask(names []string) (Severity, error) {
	var mask Severity
	for _, n := range names {
		s, ok := severityNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return 0, errors.Errorf("unknown severity %q", n)
		}
		mask |= s
	}
	return mask, nil
}

// Has reports whether any bit of s is set in mask
func (s Severity) Has(mask Severity) bool {
	return s&mask != 0
}

// String returns the names of the set flags joined with '|'
func (s Severity) String() string {
	if s == SeverityAll {
		return "all"
	}

	var names []string
	for n, v := range severityNames {
		if v != SeverityAll && s&v != 0 {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}
