package dsl

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"

	recschema "github.com/mvanderlee/recschema"
	"github.com/mvanderlee/recschema/codec"
	"github.com/mvanderlee/recschema/i18n"
)

// baseField carries the behavior shared by every field implementation:
// null handling and user validator execution. Presence and defaults are
// the schema's concern, not the field's.
type baseField struct {
	allowNil bool
	rules    []recschema.Rule
}

func newBaseField(o recschema.FieldOptions) baseField {
	return baseField{allowNil: o.AllowNil, rules: o.Rules}
}

// checkNil reports whether a nil input was fully handled. When it was
// not allowed the returned issues carry the violation.
func (b baseField) checkNil(path string, v any) (bool, recschema.Issues) {
	if v != nil {
		return false, nil
	}
	if b.allowNil {
		return true, nil
	}
	return true, recschema.Issues{{
		Path:    path,
		Code:    recschema.CodeNullNotAllowed,
		Message: i18n.T(recschema.CodeNullNotAllowed, nil),
	}}
}

func (b baseField) runRules(path string, v any) recschema.Issues {
	var iss recschema.Issues
	for _, r := range b.rules {
		iss = recschema.AppendIssues(iss, r(path, v)...)
	}
	return iss
}

func invalidType(path, expected string) recschema.Issues {
	return recschema.Issues{{
		Path:    path,
		Code:    recschema.CodeInvalidType,
		Message: i18n.T(recschema.CodeInvalidType, map[string]string{"expected": expected}),
		Params:  map[string]any{"expected": expected},
	}}
}

// ---- raw ----

// rawField passes values through untouched. It backs the universal type
// and literal-constrained declarations.
type rawField struct{ baseField }

func newRawField(o recschema.FieldOptions) recschema.Field {
	return rawField{newBaseField(o)}
}

func (f rawField) Deserialize(_ context.Context, path string, v any) (any, recschema.Issues) {
	if done, iss := f.checkNil(path, v); done {
		return nil, iss
	}
	if iss := f.runRules(path, v); len(iss) > 0 {
		return nil, iss
	}
	return v, nil
}

func (f rawField) Serialize(_ context.Context, path string, v any) (any, recschema.Issues) {
	return v, nil
}

// ---- string ----

type stringField struct{ baseField }

func newStringField(o recschema.FieldOptions) recschema.Field {
	return stringField{newBaseField(o)}
}

func (f stringField) Deserialize(_ context.Context, path string, v any) (any, recschema.Issues) {
	if done, iss := f.checkNil(path, v); done {
		return nil, iss
	}
	s, ok := v.(string)
	if !ok {
		return nil, invalidType(path, "string")
	}
	if iss := f.runRules(path, s); len(iss) > 0 {
		return nil, iss
	}
	return s, nil
}

func (f stringField) Serialize(_ context.Context, path string, v any) (any, recschema.Issues) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, invalidType(path, "string")
	}
	return s, nil
}

// ---- integer ----

type intField struct{ baseField }

func newIntField(o recschema.FieldOptions) recschema.Field {
	return intField{newBaseField(o)}
}

func coerceInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float32:
		return coerceInt(float64(n))
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		return int(n), true
	case gojson.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if fv, err := n.Float64(); err == nil {
			return coerceInt(fv)
		}
		return 0, false
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return int(i), true
		}
		return 0, false
	case bool:
		return 0, false
	}
	return 0, false
}

func (f intField) Deserialize(_ context.Context, path string, v any) (any, recschema.Issues) {
	if done, iss := f.checkNil(path, v); done {
		return nil, iss
	}
	n, ok := coerceInt(v)
	if !ok {
		return nil, invalidType(path, "integer")
	}
	if iss := f.runRules(path, n); len(iss) > 0 {
		return nil, iss
	}
	return n, nil
}

func (f intField) Serialize(_ context.Context, path string, v any) (any, recschema.Issues) {
	if v == nil {
		return nil, nil
	}
	n, ok := coerceInt(v)
	if !ok {
		return nil, invalidType(path, "integer")
	}
	return n, nil
}

// ---- float ----

type floatField struct{ baseField }

func newFloatField(o recschema.FieldOptions) recschema.Field {
	return floatField{newBaseField(o)}
}

func coerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case gojson.Number:
		if fv, err := n.Float64(); err == nil {
			return fv, true
		}
		return 0, false
	case string:
		if fv, err := strconv.ParseFloat(n, 64); err == nil {
			return fv, true
		}
		return 0, false
	case bool:
		return 0, false
	}
	return 0, false
}

func (f floatField) Deserialize(_ context.Context, path string, v any) (any, recschema.Issues) {
	if done, iss := f.checkNil(path, v); done {
		return nil, iss
	}
	n, ok := coerceFloat(v)
	if !ok {
		return nil, invalidType(path, "number")
	}
	if iss := f.runRules(path, n); len(iss) > 0 {
		return nil, iss
	}
	return n, nil
}

func (f floatField) Serialize(_ context.Context, path string, v any) (any, recschema.Issues) {
	if v == nil {
		return nil, nil
	}
	n, ok := coerceFloat(v)
	if !ok {
		return nil, invalidType(path, "number")
	}
	return n, nil
}

// ---- boolean ----

type boolField struct{ baseField }

func newBoolField(o recschema.FieldOptions) recschema.Field {
	return boolField{newBaseField(o)}
}

func coerceBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(b) {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		}
		return false, false
	case int:
		if b == 0 || b == 1 {
			return b == 1, true
		}
		return false, false
	case float64:
		if b == 0 || b == 1 {
			return b == 1, true
		}
		return false, false
	case gojson.Number:
		switch b.String() {
		case "0":
			return false, true
		case "1":
			return true, true
		}
		return false, false
	}
	return false, false
}

func (f boolField) Deserialize(_ context.Context, path string, v any) (any, recschema.Issues) {
	if done, iss := f.checkNil(path, v); done {
		return nil, iss
	}
	b, ok := coerceBool(v)
	if !ok {
		return nil, invalidType(path, "boolean")
	}
	if iss := f.runRules(path, b); len(iss) > 0 {
		return nil, iss
	}
	return b, nil
}

func (f boolField) Serialize(_ context.Context, path string, v any) (any, recschema.Issues) {
	if v == nil {
		return nil, nil
	}
	b, ok := v.(bool)
	if !ok {
		return nil, invalidType(path, "boolean")
	}
	return b, nil
}

// ---- timestamp ----

type timeField struct{ baseField }

func newTimeField(o recschema.FieldOptions) recschema.Field {
	return timeField{newBaseField(o)}
}

func (f timeField) Deserialize(_ context.Context, path string, v any) (any, recschema.Issues) {
	if done, iss := f.checkNil(path, v); done {
		return nil, iss
	}
	switch t := v.(type) {
	case time.Time:
		if iss := f.runRules(path, t); len(iss) > 0 {
			return nil, iss
		}
		return t, nil
	case string:
		parsed, err := codec.ParseRFC3339(t)
		if err != nil {
			return nil, recschema.Issues{{
				Path:    path,
				Code:    recschema.CodeInvalidFormat,
				Message: i18n.T(recschema.CodeInvalidFormat, map[string]string{"format": "RFC 3339 timestamp"}),
				Cause:   err,
			}}
		}
		if iss := f.runRules(path, parsed); len(iss) > 0 {
			return nil, iss
		}
		return parsed, nil
	}
	return nil, invalidType(path, "timestamp")
}

func (f timeField) Serialize(_ context.Context, path string, v any) (any, recschema.Issues) {
	if v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case time.Time:
		return codec.FormatRFC3339(t), nil
	case string:
		return t, nil
	}
	return nil, invalidType(path, "timestamp")
}
