package dsl

import (
	"context"
	"reflect"
	"strings"

	recschema "github.com/mvanderlee/recschema"
	"github.com/mvanderlee/recschema/i18n"
)

// enumField loads enumeration members by name and dumps member values back
// to their names.
type enumField struct {
	baseField
	enum *recschema.EnumType
}

func newEnumField(e *recschema.EnumType, o recschema.FieldOptions) recschema.Field {
	return enumField{newBaseField(o), e}
}

func (f enumField) choices() string {
	names := make([]string, 0, len(f.enum.Members))
	for _, m := range f.enum.Members {
		names = append(names, m.Name)
	}
	return strings.Join(names, ", ")
}

func (f enumField) invalid(path string) recschema.Issues {
	choices := f.choices()
	return recschema.Issues{{
		Path:    path,
		Code:    recschema.CodeInvalidEnum,
		Message: i18n.T(recschema.CodeInvalidEnum, map[string]string{"choices": choices}),
		Params:  map[string]any{"choices": choices},
	}}
}

func (f enumField) Deserialize(_ context.Context, path string, v any) (any, recschema.Issues) {
	if done, iss := f.checkNil(path, v); done {
		return nil, iss
	}
	name, ok := v.(string)
	if !ok {
		return nil, invalidType(path, f.enum.Name)
	}
	m, ok := f.enum.Member(name)
	if !ok {
		return nil, f.invalid(path)
	}
	if iss := f.runRules(path, m.Value); len(iss) > 0 {
		return nil, iss
	}
	return m.Value, nil
}

func (f enumField) Serialize(_ context.Context, path string, v any) (any, recschema.Issues) {
	if v == nil {
		return nil, nil
	}
	// a member name is serialized as-is, a member value maps back to its name
	if name, ok := v.(string); ok {
		if _, isMember := f.enum.Member(name); isMember {
			return name, nil
		}
	}
	for _, m := range f.enum.Members {
		if reflect.DeepEqual(m.Value, v) {
			return m.Name, nil
		}
	}
	return nil, f.invalid(path)
}
