package recschema

import (
	"context"
	"fmt"
	"sort"

	"github.com/mvanderlee/recschema/i18n"
)

// Rule is a single value validator. It receives the JSON-Pointer path of the
// value for error reporting and returns any violations.
type Rule func(path string, v any) Issues

// Field is the runtime translation unit for one type shape: it converts the
// dynamic representation to the validated in-memory form and back. Nullability
// and per-field validators are enforced inside the field; presence, required
// and defaults are the enclosing schema's concern.
type Field interface {
	Deserialize(ctx context.Context, path string, v any) (any, Issues)
	Serialize(ctx context.Context, path string, v any) (any, Issues)
}

// FieldOptions carries the merged per-field options handed to field
// factories.
type FieldOptions struct {
	AllowNil bool
	Rules    []Rule
	Metadata map[string]any
}

// FieldFactory constructs a runtime field from merged options. Custom
// factories are attached to aliases and annotated types, and installed in
// base-schema type mappings.
type FieldFactory func(FieldOptions) Field

// FieldSpec is the compiled per-attribute translation unit. Immutable after
// synthesis.
type FieldSpec struct {
	Name        string
	Type        Type  // declared descriptor
	Field       Field // runtime converter, nil only for user-override misuse
	Required    bool
	AllowNil    bool
	DumpDefault any // Missing when unset; func() any is invoked per dump
	LoadDefault any // Missing when unset; func() any is invoked per load
	Metadata    map[string]any
}

// UnknownPolicy decides what happens to input keys without a field spec.
type UnknownPolicy int

const (
	UnknownRaise UnknownPolicy = iota
	UnknownExclude
	UnknownInclude
)

// SchemaRef is a late-bound reference to a schema registered in a resolution
// context under its display name. Nested fields hold a SchemaRef so that
// self-referential record types can be compiled without recursing.
type SchemaRef struct {
	name string
	s    *Schema
}

// NewSchemaRef registers a display name for a schema still being compiled.
func NewSchemaRef(name string) *SchemaRef { return &SchemaRef{name: name} }

// Name returns the display name the reference was registered under.
func (r *SchemaRef) Name() string { return r.name }

// Resolve binds the compiled schema. Called exactly once by the compiler.
func (r *SchemaRef) Resolve(s *Schema) { r.s = s }

// Schema returns the compiled schema, or nil while compilation is still in
// flight.
func (r *SchemaRef) Schema() *Schema { return r.s }

// Getter extracts the named attribute from a record value during Dump.
type Getter func(v any, name string) (any, bool)

// Schema is the compiled bidirectional translator for one record type.
// Created once by the compiler, cached, and never mutated afterwards.
type Schema struct {
	Name       string
	Record     *RecordType
	TypeArgs   []Type
	FieldOrder []string
	Fields     map[string]*FieldSpec
	Hooks      []Hook
	Attrs      map[string]any // whitelisted record members copied verbatim
	Unknown    UnknownPolicy
	Construct  Constructor
	Getter     Getter // nil means the built-in accessor
}

// Validate checks data against the schema without constructing a record.
func (s *Schema) Validate(ctx context.Context, data map[string]any) error {
	if _, iss := s.check(ctx, data); len(iss) > 0 {
		return iss
	}
	return nil
}

// Load validates data and constructs the typed record.
func (s *Schema) Load(ctx context.Context, data map[string]any) (any, error) {
	out, iss := s.check(ctx, data)
	if len(iss) > 0 {
		return nil, iss
	}
	v, err := s.Construct(out)
	if err != nil {
		return nil, IssuesFromErr("/", err)
	}
	return v, nil
}

// LoadMany validates and constructs a batch, one record per input mapping.
// Issues are rebased under the input index.
func (s *Schema) LoadMany(ctx context.Context, data []map[string]any) ([]any, error) {
	out := make([]any, 0, len(data))
	var iss Issues
	for i, d := range data {
		v, err := s.Load(ctx, d)
		if err != nil {
			iss = AppendIssues(iss, RebaseIssues(fmt.Sprintf("/%d", i), IssuesFromErr("/", err))...)
			continue
		}
		out = append(out, v)
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

// Dump serializes a record value into the dynamic representation. Dump is
// best-effort on the value's shape and does not run validators.
func (s *Schema) Dump(ctx context.Context, v any) (map[string]any, error) {
	get := s.Getter
	if get == nil {
		get = defaultGetter
	}
	out := make(map[string]any, len(s.FieldOrder))
	var iss Issues
	for _, name := range s.FieldOrder {
		spec := s.Fields[name]
		av, ok := get(v, name)
		if !ok || IsMissing(av) {
			dd := spec.DumpDefault
			if IsMissing(dd) {
				continue
			}
			if f, isf := dd.(func() any); isf {
				av = f()
			} else {
				av = dd
			}
		}
		if av == nil {
			out[name] = nil
			continue
		}
		sv, child := spec.Field.Serialize(ctx, "/"+EscapePointer(name), av)
		if len(child) > 0 {
			iss = AppendIssues(iss, child...)
			continue
		}
		out[name] = sv
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

// DumpMany serializes a batch of record values.
func (s *Schema) DumpMany(ctx context.Context, vs []any) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(vs))
	var iss Issues
	for i, v := range vs {
		m, err := s.Dump(ctx, v)
		if err != nil {
			iss = AppendIssues(iss, RebaseIssues(fmt.Sprintf("/%d", i), IssuesFromErr("/", err))...)
			continue
		}
		out = append(out, m)
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func (s *Schema) check(ctx context.Context, data map[string]any) (map[string]any, Issues) {
	out := make(map[string]any, len(data))
	var iss Issues
	for _, name := range s.FieldOrder {
		spec := s.Fields[name]
		v, present := data[name]
		if !present {
			ld := spec.LoadDefault
			switch {
			case IsMissing(ld):
				if spec.Required {
					iss = AppendIssues(iss, Issue{
						Path:    "/" + EscapePointer(name),
						Code:    CodeRequired,
						Message: i18n.T(CodeRequired, nil),
					})
				}
			default:
				if f, isf := ld.(func() any); isf {
					out[name] = f()
				} else {
					out[name] = ld
				}
			}
			continue
		}
		dv, child := spec.Field.Deserialize(ctx, "/"+EscapePointer(name), v)
		if len(child) > 0 {
			iss = AppendIssues(iss, child...)
			continue
		}
		out[name] = dv
	}
	// unknown keys in sorted order for deterministic issue output
	var unknown []string
	for k := range data {
		if _, known := s.Fields[k]; !known {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		switch s.Unknown {
		case UnknownRaise:
			iss = AppendIssues(iss, Issue{Path: "/" + EscapePointer(k), Code: CodeUnknownKey, Message: i18n.T(CodeUnknownKey, nil)})
		case UnknownExclude:
			// drop
		case UnknownInclude:
			out[k] = data[k]
		}
	}
	if len(iss) > 0 {
		return out, iss
	}
	for _, h := range s.Hooks {
		if hi := h(ctx, out); len(hi) > 0 {
			iss = AppendIssues(iss, hi...)
		}
	}
	return out, iss
}
