package dsl

import (
	"fmt"

	recschema "github.com/mvanderlee/recschema"
)

// ContainerFactory constructs a container field from its element fields and
// merged options. Element order: one element for list/seq/set, one per
// position for tuple, key then value for map.
type ContainerFactory func(elems []recschema.Field, o recschema.FieldOptions) recschema.Field

// Base customizes how schemas derived from it construct their fields: the
// primitive type mapping, the container field implementations, and the
// unknown-key policy. Compiled schemas are memoized per (record, Base)
// identity, so reuse one Base value rather than rebuilding it per call.
type Base struct {
	Name             string
	TypeMapping      map[string]recschema.FieldFactory
	ContainerMapping map[recschema.ContainerKind]ContainerFactory
	Unknown          recschema.UnknownPolicy
}

// identity key for cache partitioning; nil base compiles against the default
// mapping under the empty key.
func baseKey(b *Base) string {
	if b == nil {
		return ""
	}
	return fmt.Sprintf("%s@%p", b.Name, b)
}

// defaultTypeMapping is the framework's primitive mapping, consulted after
// any Base override.
var defaultTypeMapping = map[string]recschema.FieldFactory{
	"string": func(o recschema.FieldOptions) recschema.Field { return newStringField(o) },
	"int":    func(o recschema.FieldOptions) recschema.Field { return newIntField(o) },
	"float":  func(o recschema.FieldOptions) recschema.Field { return newFloatField(o) },
	"bool":   func(o recschema.FieldOptions) recschema.Field { return newBoolField(o) },
	"time":   func(o recschema.FieldOptions) recschema.Field { return newTimeField(o) },
}

func (b *Base) typeFactory(name string) (recschema.FieldFactory, bool) {
	if b != nil {
		if f, ok := b.TypeMapping[name]; ok {
			return f, true
		}
	}
	f, ok := defaultTypeMapping[name]
	return f, ok
}

func (b *Base) containerFactory(kind recschema.ContainerKind) ContainerFactory {
	if b != nil {
		if f, ok := b.ContainerMapping[kind]; ok {
			return f
		}
	}
	switch kind {
	case recschema.ListKind:
		return func(elems []recschema.Field, o recschema.FieldOptions) recschema.Field {
			return newListField(elems[0], o)
		}
	case recschema.SeqKind:
		return func(elems []recschema.Field, o recschema.FieldOptions) recschema.Field {
			return newSequenceField(elems[0], o)
		}
	case recschema.SetKind:
		return func(elems []recschema.Field, o recschema.FieldOptions) recschema.Field {
			return newSetField(elems[0], false, o)
		}
	case recschema.FrozenSetKind:
		return func(elems []recschema.Field, o recschema.FieldOptions) recschema.Field {
			return newSetField(elems[0], true, o)
		}
	case recschema.TupleKind:
		return func(elems []recschema.Field, o recschema.FieldOptions) recschema.Field {
			return newTupleField(elems, o)
		}
	case recschema.MapKind:
		return func(elems []recschema.Field, o recschema.FieldOptions) recschema.Field {
			return newMapField(elems[0], elems[1], o)
		}
	}
	return nil
}
