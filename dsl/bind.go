package dsl

import (
	"reflect"
	"sync"
	"time"

	recschema "github.com/mvanderlee/recschema"
)

// structRecords memoizes record descriptors derived from Go struct types,
// one per reflect.Type. Identity matters: repeated derivations must hit the
// same schema cache entries.
var structRecords = struct {
	sync.Mutex
	m map[reflect.Type]*recschema.RecordType
}{m: map[reflect.Type]*recschema.RecordType{}}

// ForStruct compiles a schema straight from a Go struct type. Field keys
// follow the recschema tag, then the json tag, then the field name; "-"
// excludes a field. Loaded values construct *T.
func ForStruct[T any](opts ...CompileOption) (*recschema.Schema, error) {
	rec, err := StructRecord[T]()
	if err != nil {
		return nil, err
	}
	return ClassSchema(rec, opts...)
}

// StructRecord derives the record descriptor of a Go struct type. The
// descriptor is memoized, so repeated calls return the same value.
func StructRecord[T any]() (*recschema.RecordType, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, recschema.Configf("struct binding requires a struct type, got %T", zero)
	}
	return recordForStructType(t)
}

func recordForStructType(t reflect.Type) (*recschema.RecordType, error) {
	structRecords.Lock()
	if rec, ok := structRecords.m[t]; ok {
		structRecords.Unlock()
		return rec, nil
	}
	// register before walking fields so self-referential structs terminate
	rec := recschema.NewRecord(t.Name())
	structRecords.m[t] = rec
	structRecords.Unlock()

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		key := recschema.ResolveStructKey(sf)
		if key == "-" {
			continue
		}
		ft, err := typeForGo(sf.Type)
		if err != nil {
			structRecords.Lock()
			delete(structRecords.m, t)
			structRecords.Unlock()
			return nil, recschema.Configf("field %s.%s: %v", t.Name(), sf.Name, err)
		}
		rec.Field(key, ft)
	}
	rec.Constructor(structConstructor(t))
	return rec, nil
}

// typeForGo maps a Go type to its declared-type descriptor. Pointers become
// optional, slices become lists, string-keyed maps become mappings, and
// nested structs become nested records.
func typeForGo(t reflect.Type) (recschema.Type, error) {
	if t == reflect.TypeOf(time.Time{}) {
		return recschema.Time(), nil
	}
	switch t.Kind() {
	case reflect.String:
		return recschema.Str(), nil
	case reflect.Bool:
		return recschema.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return recschema.Int(), nil
	case reflect.Float32, reflect.Float64:
		return recschema.Float(), nil
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return recschema.Any(), nil
		}
	case reflect.Pointer:
		elem, err := typeForGo(t.Elem())
		if err != nil {
			return nil, err
		}
		return recschema.Optional(elem), nil
	case reflect.Slice, reflect.Array:
		elem, err := typeForGo(t.Elem())
		if err != nil {
			return nil, err
		}
		return recschema.ListOf(elem), nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, recschema.Configf("unsupported map key type %s", t.Key())
		}
		val, err := typeForGo(t.Elem())
		if err != nil {
			return nil, err
		}
		return recschema.MapOf(recschema.Str(), val), nil
	case reflect.Struct:
		return recordForStructType(t)
	}
	return nil, recschema.Configf("unsupported Go type %s", t)
}

// structConstructor builds *T from loaded keyword values by reflection.
func structConstructor(t reflect.Type) recschema.Constructor {
	return func(kw map[string]any) (any, error) {
		pv := reflect.New(t)
		rv := pv.Elem()
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() {
				continue
			}
			key := recschema.ResolveStructKey(sf)
			if key == "-" {
				continue
			}
			v, ok := kw[key]
			if !ok {
				continue
			}
			if err := assignValue(rv.Field(i), v); err != nil {
				return nil, recschema.Configf("field %s.%s: %v", t.Name(), sf.Name, err)
			}
		}
		return pv.Interface(), nil
	}
}

func assignValue(fv reflect.Value, v any) error {
	if v == nil {
		fv.SetZero()
		return nil
	}
	if fv.Kind() == reflect.Pointer {
		p := reflect.New(fv.Type().Elem())
		if err := assignValue(p.Elem(), v); err != nil {
			return err
		}
		fv.Set(p)
		return nil
	}
	rv := reflect.ValueOf(v)
	// loaded nested structs arrive as *T
	if rv.Kind() == reflect.Pointer && rv.Type().Elem() == fv.Type() {
		fv.Set(rv.Elem())
		return nil
	}
	if rv.Type().AssignableTo(fv.Type()) {
		fv.Set(rv)
		return nil
	}
	switch fv.Kind() {
	case reflect.Slice:
		items, ok := v.([]any)
		if !ok {
			return recschema.Configf("cannot assign %T to %s", v, fv.Type())
		}
		out := reflect.MakeSlice(fv.Type(), len(items), len(items))
		for i, item := range items {
			if err := assignValue(out.Index(i), item); err != nil {
				return err
			}
		}
		fv.Set(out)
		return nil
	case reflect.Map:
		m, ok := v.(map[string]any)
		if !ok {
			return recschema.Configf("cannot assign %T to %s", v, fv.Type())
		}
		out := reflect.MakeMapWithSize(fv.Type(), len(m))
		for k, item := range m {
			ev := reflect.New(fv.Type().Elem()).Elem()
			if err := assignValue(ev, item); err != nil {
				return err
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(fv.Type().Key()), ev)
		}
		fv.Set(out)
		return nil
	}
	if rv.Type().ConvertibleTo(fv.Type()) {
		switch fv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			fv.Set(rv.Convert(fv.Type()))
			return nil
		}
	}
	return recschema.Configf("cannot assign %T to %s", v, fv.Type())
}
