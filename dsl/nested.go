package dsl

import (
	"context"

	recschema "github.com/mvanderlee/recschema"
)

// nestedField delegates to another schema through a reference. The
// indirection breaks record cycles: the reference is registered before the
// target schema finishes compiling and resolved afterwards.
type nestedField struct {
	baseField
	ref *recschema.SchemaRef
}

func newNestedField(ref *recschema.SchemaRef, o recschema.FieldOptions) recschema.Field {
	return nestedField{newBaseField(o), ref}
}

func (f nestedField) unresolved(path string) recschema.Issues {
	return recschema.Issues{{
		Path:    path,
		Code:    recschema.CodeParseError,
		Message: "schema reference " + f.ref.Name() + " is not resolved",
	}}
}

func (f nestedField) Deserialize(ctx context.Context, path string, v any) (any, recschema.Issues) {
	if done, iss := f.checkNil(path, v); done {
		return nil, iss
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, invalidType(path, "object")
	}
	s := f.ref.Schema()
	if s == nil {
		return nil, f.unresolved(path)
	}
	got, err := s.Load(ctx, m)
	if err != nil {
		return nil, recschema.RebaseIssues(path, recschema.IssuesFromErr("/", err))
	}
	if iss := f.runRules(path, got); len(iss) > 0 {
		return nil, iss
	}
	return got, nil
}

func (f nestedField) Serialize(ctx context.Context, path string, v any) (any, recschema.Issues) {
	if v == nil {
		return nil, nil
	}
	s := f.ref.Schema()
	if s == nil {
		return nil, f.unresolved(path)
	}
	out, err := s.Dump(ctx, v)
	if err != nil {
		return nil, recschema.RebaseIssues(path, recschema.IssuesFromErr("/", err))
	}
	return out, nil
}
