package recschema

import (
	"reflect"
	"strings"
)

// ResolveStructKey applies the repository-wide rule to resolve a struct
// field's external key used by struct binding and Dump.
// Priority: recschema:"name=..." > json tag name > field name; "-" disables
// the field.
func ResolveStructKey(sf reflect.StructField) string {
	if gt := sf.Tag.Get("recschema"); gt != "" {
		parts := strings.Split(gt, ",")
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if strings.HasPrefix(p, "name=") {
				return strings.TrimPrefix(p, "name=")
			}
		}
	}
	if jt := sf.Tag.Get("json"); jt != "" {
		if jt == "-" {
			return "-"
		}
		if i := strings.IndexByte(jt, ','); i >= 0 {
			return jt[:i]
		}
		return jt
	}
	return sf.Name
}

// defaultGetter reads the named attribute from dynamic instances, plain
// mappings, and (by reflection) struct values.
func defaultGetter(v any, name string) (any, bool) {
	switch rec := v.(type) {
	case *Instance:
		return rec.Attr(name)
	case map[string]any:
		av, ok := rec[name]
		return av, ok
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		key := ResolveStructKey(sf)
		if key == "-" || key != name {
			continue
		}
		fv := rv.Field(i)
		// nil pointers surface as present nulls
		if fv.Kind() == reflect.Pointer && fv.IsNil() {
			return nil, true
		}
		if fv.Kind() == reflect.Pointer {
			return fv.Elem().Interface(), true
		}
		return fv.Interface(), true
	}
	return nil, false
}
