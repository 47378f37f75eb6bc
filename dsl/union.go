package dsl

import (
	"context"
	"reflect"
	"strings"
	"time"

	recschema "github.com/mvanderlee/recschema"
	"github.com/mvanderlee/recschema/i18n"
)

type unionAlt struct {
	typ   recschema.Type
	field recschema.Field
}

// unionField tries each alternative in declaration order on load. On dump
// it prefers the alternative whose declared type matches the value and
// falls back to try-in-order serialization.
type unionField struct {
	baseField
	alts []unionAlt
}

func newUnionField(alts []unionAlt, o recschema.FieldOptions) recschema.Field {
	return unionField{newBaseField(o), alts}
}

func (f unionField) noMatch(path string) recschema.Issues {
	names := make([]string, 0, len(f.alts))
	for _, a := range f.alts {
		names = append(names, a.typ.String())
	}
	return recschema.Issues{{
		Path:    path,
		Code:    recschema.CodeUnionNoMatch,
		Message: i18n.T(recschema.CodeUnionNoMatch, nil),
		Hint:    "tried: " + strings.Join(names, ", "),
	}}
}

func (f unionField) Deserialize(ctx context.Context, path string, v any) (any, recschema.Issues) {
	if done, iss := f.checkNil(path, v); done {
		return nil, iss
	}
	for _, alt := range f.alts {
		got, sub := alt.field.Deserialize(ctx, path, v)
		if len(sub) == 0 {
			if iss := f.runRules(path, got); len(iss) > 0 {
				return nil, iss
			}
			return got, nil
		}
	}
	return nil, f.noMatch(path)
}

func (f unionField) Serialize(ctx context.Context, path string, v any) (any, recschema.Issues) {
	if v == nil {
		return nil, nil
	}
	for _, alt := range f.alts {
		if !valueMatches(alt.typ, v) {
			continue
		}
		got, sub := alt.field.Serialize(ctx, path, v)
		if len(sub) == 0 {
			return got, nil
		}
	}
	for _, alt := range f.alts {
		got, sub := alt.field.Serialize(ctx, path, v)
		if len(sub) == 0 {
			return got, nil
		}
	}
	return nil, f.noMatch(path)
}

// valueMatches reports whether a loaded value plausibly originated from the
// given declared type. It is a disambiguation heuristic, not a validation.
func valueMatches(t recschema.Type, v any) bool {
	switch t.Kind() {
	case recschema.KindPrimitive:
		switch t.(*recschema.Primitive).Name {
		case "string":
			_, ok := v.(string)
			return ok
		case "bool":
			_, ok := v.(bool)
			return ok
		case "int":
			switch v.(type) {
			case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
				return true
			}
			return false
		case "float":
			switch v.(type) {
			case float32, float64:
				return true
			}
			return false
		case "time":
			_, ok := v.(time.Time)
			return ok
		}
		return false
	case recschema.KindEnum:
		e := t.(*recschema.EnumType)
		for _, m := range e.Members {
			if reflect.DeepEqual(m.Value, v) {
				return true
			}
		}
		return false
	case recschema.KindRecord:
		rec, _, _ := recschema.AsRecord(t)
		if inst, ok := v.(*recschema.Instance); ok {
			return inst.Record() == rec
		}
		rv := reflect.ValueOf(v)
		for rv.Kind() == reflect.Pointer {
			rv = rv.Elem()
		}
		return rv.IsValid() && rv.Kind() == reflect.Struct
	case recschema.KindContainer:
		if t.(*recschema.Container).CKind == recschema.MapKind {
			rv := reflect.ValueOf(v)
			return rv.Kind() == reflect.Map
		}
		rv := reflect.ValueOf(v)
		return rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array
	case recschema.KindNewType:
		return valueMatches(t.(*recschema.Alias).Super, v)
	case recschema.KindLiteral:
		for _, lv := range t.(*recschema.Literal).Values {
			if reflect.DeepEqual(lv, v) {
				return true
			}
		}
		return false
	case recschema.KindAny:
		return true
	}
	return false
}
