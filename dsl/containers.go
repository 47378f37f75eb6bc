package dsl

import (
	"context"
	"reflect"
	"sort"
	"strconv"

	recschema "github.com/mvanderlee/recschema"
	"github.com/mvanderlee/recschema/i18n"
)

func childPath(path string, i int) string {
	return path + "/" + strconv.Itoa(i)
}

func keyPath(path, k string) string {
	return path + "/" + recschema.EscapePointer(k)
}

// asSlice normalizes the supported sequence inputs to []any.
func asSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// ---- list / sequence ----

type listField struct {
	baseField
	elem recschema.Field
	name string
}

func newListField(elem recschema.Field, o recschema.FieldOptions) recschema.Field {
	return listField{newBaseField(o), elem, "list"}
}

func newSequenceField(elem recschema.Field, o recschema.FieldOptions) recschema.Field {
	return listField{newBaseField(o), elem, "sequence"}
}

func (f listField) Deserialize(ctx context.Context, path string, v any) (any, recschema.Issues) {
	if done, iss := f.checkNil(path, v); done {
		return nil, iss
	}
	items, ok := asSlice(v)
	if !ok {
		return nil, invalidType(path, f.name)
	}
	out := make([]any, 0, len(items))
	var iss recschema.Issues
	for i, item := range items {
		got, sub := f.elem.Deserialize(ctx, childPath(path, i), item)
		if len(sub) > 0 {
			iss = recschema.AppendIssues(iss, sub...)
			continue
		}
		out = append(out, got)
	}
	if len(iss) > 0 {
		return nil, iss
	}
	if iss := f.runRules(path, out); len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func (f listField) Serialize(ctx context.Context, path string, v any) (any, recschema.Issues) {
	if v == nil {
		return nil, nil
	}
	items, ok := asSlice(v)
	if !ok {
		return nil, invalidType(path, f.name)
	}
	out := make([]any, 0, len(items))
	var iss recschema.Issues
	for i, item := range items {
		got, sub := f.elem.Serialize(ctx, childPath(path, i), item)
		if len(sub) > 0 {
			iss = recschema.AppendIssues(iss, sub...)
			continue
		}
		out = append(out, got)
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

// ---- set ----

// setField is a list that additionally rejects duplicate elements after
// element deserialization. frozen only changes the reported type name.
type setField struct {
	baseField
	elem   recschema.Field
	frozen bool
}

func newSetField(elem recschema.Field, frozen bool, o recschema.FieldOptions) recschema.Field {
	return setField{newBaseField(o), elem, frozen}
}

func (f setField) typeName() string {
	if f.frozen {
		return "frozen set"
	}
	return "set"
}

func (f setField) Deserialize(ctx context.Context, path string, v any) (any, recschema.Issues) {
	if done, iss := f.checkNil(path, v); done {
		return nil, iss
	}
	items, ok := asSlice(v)
	if !ok {
		return nil, invalidType(path, f.typeName())
	}
	out := make([]any, 0, len(items))
	var iss recschema.Issues
	for i, item := range items {
		got, sub := f.elem.Deserialize(ctx, childPath(path, i), item)
		if len(sub) > 0 {
			iss = recschema.AppendIssues(iss, sub...)
			continue
		}
		dup := false
		for _, prev := range out {
			if reflect.DeepEqual(prev, got) {
				dup = true
				break
			}
		}
		if dup {
			iss = recschema.AppendIssues(iss, recschema.Issue{
				Path:    childPath(path, i),
				Code:    recschema.CodeDuplicateItem,
				Message: i18n.T(recschema.CodeDuplicateItem, nil),
			})
			continue
		}
		out = append(out, got)
	}
	if len(iss) > 0 {
		return nil, iss
	}
	if iss := f.runRules(path, out); len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func (f setField) Serialize(ctx context.Context, path string, v any) (any, recschema.Issues) {
	return listField{f.baseField, f.elem, f.typeName()}.Serialize(ctx, path, v)
}

// ---- tuple ----

// tupleField validates a fixed-length heterogeneous sequence, one element
// field per position.
type tupleField struct {
	baseField
	elems []recschema.Field
}

func newTupleField(elems []recschema.Field, o recschema.FieldOptions) recschema.Field {
	return tupleField{newBaseField(o), elems}
}

func (f tupleField) lengthIssue(path string, n int) recschema.Issues {
	code := recschema.CodeTooShort
	if n > len(f.elems) {
		code = recschema.CodeTooLong
	}
	return recschema.Issues{{
		Path:    path,
		Code:    code,
		Message: i18n.T(code, nil),
		Params:  map[string]any{"want": len(f.elems), "got": n},
	}}
}

func (f tupleField) Deserialize(ctx context.Context, path string, v any) (any, recschema.Issues) {
	if done, iss := f.checkNil(path, v); done {
		return nil, iss
	}
	items, ok := asSlice(v)
	if !ok {
		return nil, invalidType(path, "tuple")
	}
	if len(items) != len(f.elems) {
		return nil, f.lengthIssue(path, len(items))
	}
	out := make([]any, 0, len(items))
	var iss recschema.Issues
	for i, item := range items {
		got, sub := f.elems[i].Deserialize(ctx, childPath(path, i), item)
		if len(sub) > 0 {
			iss = recschema.AppendIssues(iss, sub...)
			continue
		}
		out = append(out, got)
	}
	if len(iss) > 0 {
		return nil, iss
	}
	if iss := f.runRules(path, out); len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func (f tupleField) Serialize(ctx context.Context, path string, v any) (any, recschema.Issues) {
	if v == nil {
		return nil, nil
	}
	items, ok := asSlice(v)
	if !ok {
		return nil, invalidType(path, "tuple")
	}
	if len(items) != len(f.elems) {
		return nil, f.lengthIssue(path, len(items))
	}
	out := make([]any, 0, len(items))
	var iss recschema.Issues
	for i, item := range items {
		got, sub := f.elems[i].Serialize(ctx, childPath(path, i), item)
		if len(sub) > 0 {
			iss = recschema.AppendIssues(iss, sub...)
			continue
		}
		out = append(out, got)
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

// ---- map ----

// mapField validates string-keyed mappings. Keys stay strings in the
// loaded value; the key field only validates them. Values are converted
// by the value field.
type mapField struct {
	baseField
	key recschema.Field
	val recschema.Field
}

func newMapField(key, val recschema.Field, o recschema.FieldOptions) recschema.Field {
	return mapField{newBaseField(o), key, val}
}

func asStringMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (f mapField) Deserialize(ctx context.Context, path string, v any) (any, recschema.Issues) {
	if done, iss := f.checkNil(path, v); done {
		return nil, iss
	}
	m, ok := asStringMap(v)
	if !ok {
		return nil, invalidType(path, "mapping")
	}
	out := make(map[string]any, len(m))
	var iss recschema.Issues
	for _, k := range sortedKeys(m) {
		p := keyPath(path, k)
		if _, sub := f.key.Deserialize(ctx, p, k); len(sub) > 0 {
			iss = recschema.AppendIssues(iss, sub...)
			continue
		}
		got, sub := f.val.Deserialize(ctx, p, m[k])
		if len(sub) > 0 {
			iss = recschema.AppendIssues(iss, sub...)
			continue
		}
		out[k] = got
	}
	if len(iss) > 0 {
		return nil, iss
	}
	if iss := f.runRules(path, out); len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func (f mapField) Serialize(ctx context.Context, path string, v any) (any, recschema.Issues) {
	if v == nil {
		return nil, nil
	}
	m, ok := asStringMap(v)
	if !ok {
		return nil, invalidType(path, "mapping")
	}
	out := make(map[string]any, len(m))
	var iss recschema.Issues
	for _, k := range sortedKeys(m) {
		got, sub := f.val.Serialize(ctx, keyPath(path, k), m[k])
		if len(sub) > 0 {
			iss = recschema.AppendIssues(iss, sub...)
			continue
		}
		out[k] = got
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}
