package recschema

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType    = "invalid_type"
	CodeRequired       = "required"
	CodeNullNotAllowed = "null_not_allowed"
	CodeUnknownKey     = "unknown_key"
	CodeDuplicateItem  = "duplicate_item"
	CodeTooSmall       = "too_small"
	CodeTooBig         = "too_big"
	CodeTooShort       = "too_short"
	CodeTooLong        = "too_long"
	CodePattern        = "pattern"
	CodeNotEqual       = "not_equal"
	CodeInvalidChoice  = "invalid_choice"
	CodeInvalidEnum    = "invalid_enum"
	CodeInvalidFormat  = "invalid_format"
	CodeUnionNoMatch   = "union_no_match"
	CodeParseError     = "parse_error"
)

// EscapePointer escapes a key for use as a JSON Pointer reference token
// per RFC 6901 ('~' -> '~0', '/' -> '~1').
func EscapePointer(name string) string {
	return strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
}

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /other_buildings/2/height).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints, format names, etc.
	Cause   error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"min":1, "max":10, "got":42})
	// for i18n and observability.
	Params map[string]any
	// Rule optionally records the rule name that produced this issue.
	Rule string
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at /path
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// ByField groups issue messages by the first path segment, producing the
// field-name -> messages mapping surfaced from Load. Issues at the schema root
// (path "/" or "") are grouped under "_schema".
func (iss Issues) ByField() map[string][]string {
	out := make(map[string][]string, len(iss))
	for _, it := range iss {
		key := "_schema"
		p := strings.TrimPrefix(it.Path, "/")
		if p != "" {
			if i := strings.IndexByte(p, '/'); i >= 0 {
				p = p[:i]
			}
			key = p
		}
		msg := it.Message
		if msg == "" {
			msg = it.Code
		}
		out[key] = append(out[key], msg)
	}
	return out
}

// RebaseIssues prefixes every issue path with base, used when folding issues
// from a child value into its parent.
func RebaseIssues(base string, iss Issues) Issues {
	if len(iss) == 0 {
		return nil
	}
	out := make(Issues, 0, len(iss))
	for _, it := range iss {
		p := it.Path
		switch {
		case p == "" || p == "/":
			p = base
		case p[0] == '/':
			p = base + p
		default:
			p = base + "/" + p
		}
		it.Path = p
		out = append(out, it)
	}
	return out
}

// IssuesFromErr converts an error into Issues, wrapping non-Issues errors with
// CodeParseError at the given path.
func IssuesFromErr(path string, err error) Issues {
	if err == nil {
		return nil
	}
	if iss, ok := AsIssues(err); ok {
		return iss
	}
	return Issues{Issue{Path: path, Code: CodeParseError, Message: err.Error(), Cause: err}}
}

// UnboundTypeVarError reports a type variable reachable from a record's fields
// that has no concrete binding after chain and default resolution. It is a
// user configuration error and is never retried.
type UnboundTypeVarError struct {
	Record string   // declaring record type, when known
	Fields []string // field names whose declared types remained unresolved
	Var    string   // variable name, for stray variables outside a record
}

func (e *UnboundTypeVarError) Error() string {
	if e.Record != "" && len(e.Fields) > 0 {
		return fmt.Sprintf("recschema: %s has unbound fields: %s", e.Record, strings.Join(e.Fields, ", "))
	}
	if e.Var != "" {
		return fmt.Sprintf("recschema: can not resolve type variable %s", e.Var)
	}
	return "recschema: unbound type variable"
}

// ConfigError reports a misused API: compiling a non-record descriptor,
// requesting a class schema for a non-specialized generic, arity mismatches
// in type arguments, and similar caller mistakes.
type ConfigError struct {
	Msg   string
	Cause error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return "recschema: " + e.Msg + ": " + e.Cause.Error()
	}
	return "recschema: " + e.Msg
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// Configf builds a ConfigError with a formatted message.
func Configf(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}
