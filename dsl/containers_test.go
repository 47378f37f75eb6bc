package dsl

import (
	"context"
	"reflect"
	"testing"

	recschema "github.com/mvanderlee/recschema"
)

func TestListFieldElementPaths(t *testing.T) {
	ctx := context.Background()
	f := newListField(newIntField(recschema.FieldOptions{}), recschema.FieldOptions{})

	v, iss := f.Deserialize(ctx, "/xs", []any{1, 2, 3})
	if len(iss) != 0 {
		t.Fatalf("Deserialize: %v", iss)
	}
	if !reflect.DeepEqual(v, []any{1, 2, 3}) {
		t.Fatalf("loaded %v", v)
	}

	_, iss = f.Deserialize(ctx, "/xs", []any{1, "two", 3, "four"})
	if len(iss) != 2 {
		t.Fatalf("expected one issue per bad element, got %v", iss)
	}
	if iss[0].Path != "/xs/1" || iss[1].Path != "/xs/3" {
		t.Fatalf("element paths = %s, %s", iss[0].Path, iss[1].Path)
	}

	if _, iss := f.Deserialize(ctx, "/xs", "not a list"); len(iss) == 0 {
		t.Fatalf("scalars are not lists")
	}
}

func TestListFieldTypedSliceInput(t *testing.T) {
	ctx := context.Background()
	f := newListField(newIntField(recschema.FieldOptions{}), recschema.FieldOptions{})
	v, iss := f.Deserialize(ctx, "/xs", []int{4, 5})
	if len(iss) != 0 || !reflect.DeepEqual(v, []any{4, 5}) {
		t.Fatalf("typed slices normalize: %v, %v", v, iss)
	}
}

func TestSetFieldRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	f := newSetField(newStringField(recschema.FieldOptions{}), false, recschema.FieldOptions{})

	v, iss := f.Deserialize(ctx, "/tags", []any{"a", "b"})
	if len(iss) != 0 || !reflect.DeepEqual(v, []any{"a", "b"}) {
		t.Fatalf("Deserialize = %v, %v", v, iss)
	}

	_, iss = f.Deserialize(ctx, "/tags", []any{"a", "b", "a"})
	if len(iss) != 1 || iss[0].Code != recschema.CodeDuplicateItem {
		t.Fatalf("duplicate detection: %v", iss)
	}
	if iss[0].Path != "/tags/2" {
		t.Fatalf("duplicate path = %s", iss[0].Path)
	}
}

func TestTupleFieldFixedShape(t *testing.T) {
	ctx := context.Background()
	f := newTupleField([]recschema.Field{
		newStringField(recschema.FieldOptions{}),
		newIntField(recschema.FieldOptions{}),
	}, recschema.FieldOptions{})

	v, iss := f.Deserialize(ctx, "/pair", []any{"a", 1})
	if len(iss) != 0 || !reflect.DeepEqual(v, []any{"a", 1}) {
		t.Fatalf("Deserialize = %v, %v", v, iss)
	}

	if _, iss := f.Deserialize(ctx, "/pair", []any{"a"}); len(iss) == 0 || iss[0].Code != recschema.CodeTooShort {
		t.Fatalf("short tuples fail: %v", iss)
	}
	if _, iss := f.Deserialize(ctx, "/pair", []any{"a", 1, 2}); len(iss) == 0 || iss[0].Code != recschema.CodeTooLong {
		t.Fatalf("long tuples fail: %v", iss)
	}
	if _, iss := f.Deserialize(ctx, "/pair", []any{1, "a"}); len(iss) != 2 {
		t.Fatalf("positions validate independently: %v", iss)
	}
}

func TestMapFieldKeysStayStrings(t *testing.T) {
	ctx := context.Background()
	f := newMapField(
		newStringField(recschema.FieldOptions{}),
		newIntField(recschema.FieldOptions{}),
		recschema.FieldOptions{},
	)

	v, iss := f.Deserialize(ctx, "/counts", map[string]any{"a": 1, "b": float64(2)})
	if len(iss) != 0 {
		t.Fatalf("Deserialize: %v", iss)
	}
	if !reflect.DeepEqual(v, map[string]any{"a": 1, "b": 2}) {
		t.Fatalf("values convert, keys stay: %v", v)
	}

	_, iss = f.Deserialize(ctx, "/counts", map[string]any{"a": "one"})
	if len(iss) != 1 || iss[0].Path != "/counts/a" {
		t.Fatalf("value errors carry the key path: %v", iss)
	}

	if _, iss := f.Deserialize(ctx, "/counts", []any{}); len(iss) == 0 {
		t.Fatalf("sequences are not mappings")
	}
}

func TestMapFieldPointerEscapedKeys(t *testing.T) {
	ctx := context.Background()
	f := newMapField(
		newStringField(recschema.FieldOptions{}),
		newIntField(recschema.FieldOptions{}),
		recschema.FieldOptions{},
	)
	_, iss := f.Deserialize(ctx, "/m", map[string]any{"a/b": "x"})
	if len(iss) != 1 || iss[0].Path != "/m/a~1b" {
		t.Fatalf("keys escape per RFC 6901: %v", iss)
	}
}

func TestContainerNullHandling(t *testing.T) {
	ctx := context.Background()
	f := newListField(newIntField(recschema.FieldOptions{}), recschema.FieldOptions{AllowNil: true})
	if v, iss := f.Deserialize(ctx, "/xs", nil); len(iss) != 0 || v != nil {
		t.Fatalf("nullable list: %v, %v", v, iss)
	}
	strict := newListField(newIntField(recschema.FieldOptions{}), recschema.FieldOptions{})
	if _, iss := strict.Deserialize(ctx, "/xs", nil); len(iss) == 0 {
		t.Fatalf("lists reject null by default")
	}
}
