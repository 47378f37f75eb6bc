package recschema

import (
	"errors"
	"strings"
	"testing"
)

func fieldTypes(fields []ResolvedField) map[string]Type {
	out := make(map[string]Type, len(fields))
	for _, f := range fields {
		out[f.Decl.Name] = f.Type
	}
	return out
}

func fieldNames(fields []ResolvedField) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Decl.Name
	}
	return out
}

func TestResolveFieldsDirectBinding(t *testing.T) {
	tv := Var("T")
	box := NewRecord("Box").TypeParams(tv).Field("content", tv)

	fields, err := ResolveFields(box, []Type{Int()})
	if err != nil {
		t.Fatalf("ResolveFields: %v", err)
	}
	if got := fieldTypes(fields)["content"]; got != Int() {
		t.Fatalf("content resolved to %s, want int", got)
	}
}

func TestResolveFieldsThroughBase(t *testing.T) {
	tv := Var("T")
	base := NewRecord("Base").TypeParams(tv).Field("data", tv)
	child := NewRecord("Child").Embed(base, Int()).Field("extra", Str())

	fields, err := ResolveFields(child, nil)
	if err != nil {
		t.Fatalf("ResolveFields: %v", err)
	}
	types := fieldTypes(fields)
	if types["data"] != Int() {
		t.Fatalf("data resolved to %s, want int", types["data"])
	}
	if types["extra"] != Str() {
		t.Fatalf("extra resolved to %s, want string", types["extra"])
	}
}

// A variable bound through a chain of parametrized bases must resolve to the
// outermost concrete argument.
func TestResolveFieldsChainedSubstitution(t *testing.T) {
	u := Var("U")
	v := Var("V")
	grand := NewRecord("Grand").TypeParams(u).Field("answer", u)
	mid := NewRecord("Mid").TypeParams(v).Embed(grand, v)
	leaf := NewRecord("Leaf").Embed(mid, Str())

	fields, err := ResolveFields(leaf, nil)
	if err != nil {
		t.Fatalf("ResolveFields: %v", err)
	}
	if got := fieldTypes(fields)["answer"]; got != Str() {
		t.Fatalf("answer resolved to %s, want string", got)
	}
}

func TestResolveFieldsOverrideKeepsPosition(t *testing.T) {
	base := NewRecord("Base").
		Field("first", Str()).
		Field("second", Str())
	child := NewRecord("Child").
		Embed(base).
		Field("third", Str()).
		Field("first", LiteralOf("x"))

	fields, err := ResolveFields(child, nil)
	if err != nil {
		t.Fatalf("ResolveFields: %v", err)
	}
	want := []string{"first", "second", "third"}
	got := fieldNames(fields)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("field order = %v, want %v", got, want)
	}
	if _, ok := fields[0].Type.(*Literal); !ok {
		t.Fatalf("override must keep the most specific type, got %s", fields[0].Type)
	}
}

func TestResolveFieldsVariableDefaults(t *testing.T) {
	u := Var("U").WithDefault(Int())
	v := Var("V")
	v.WithDefault(u)
	rec := NewRecord("Rec").TypeParams(u, v).Field("a", u).Field("b", v)

	fields, err := ResolveFields(rec, nil)
	if err != nil {
		t.Fatalf("ResolveFields: %v", err)
	}
	types := fieldTypes(fields)
	if types["a"] != Int() || types["b"] != Int() {
		t.Fatalf("defaults not chained: a=%s b=%s", types["a"], types["b"])
	}
}

func TestResolveFieldsPartialArgs(t *testing.T) {
	u := Var("U")
	v := Var("V").WithDefault(Str())
	rec := NewRecord("Rec").TypeParams(u, v).Field("a", u).Field("b", v)

	fields, err := ResolveFields(rec, []Type{Bool()})
	if err != nil {
		t.Fatalf("ResolveFields: %v", err)
	}
	types := fieldTypes(fields)
	if types["a"] != Bool() || types["b"] != Str() {
		t.Fatalf("partial application failed: a=%s b=%s", types["a"], types["b"])
	}
}

func TestResolveFieldsUnbound(t *testing.T) {
	tv := Var("T")
	rec := NewRecord("Base1").TypeParams(tv).Field("answer", tv)

	_, err := ResolveFields(rec, nil)
	var ub *UnboundTypeVarError
	if !errors.As(err, &ub) {
		t.Fatalf("expected UnboundTypeVarError, got %v", err)
	}
	if !strings.Contains(ub.Error(), "Base1 has unbound fields: answer") {
		t.Fatalf("unexpected message: %s", ub.Error())
	}
}

func TestResolveFieldsBindingCycle(t *testing.T) {
	p := Var("P")
	q := Var("Q")
	rec := NewRecord("Pair").TypeParams(p, q).Field("first", p).Field("second", q)

	// binding each variable to the other must resolve to an error, not
	// recurse forever
	_, err := ResolveFields(rec, []Type{q, p})
	var ub *UnboundTypeVarError
	if !errors.As(err, &ub) {
		t.Fatalf("expected UnboundTypeVarError, got %v", err)
	}
	if !strings.Contains(ub.Error(), "Pair has unbound fields: first, second") {
		t.Fatalf("unexpected message: %s", ub.Error())
	}
}

func TestResolveFieldsDefaultCycle(t *testing.T) {
	u := Var("U")
	v := Var("V")
	u.WithDefault(v)
	v.WithDefault(u)
	rec := NewRecord("Rec").TypeParams(u, v).Field("a", u)

	_, err := ResolveFields(rec, nil)
	var ub *UnboundTypeVarError
	if !errors.As(err, &ub) {
		t.Fatalf("expected UnboundTypeVarError, got %v", err)
	}
}

func TestResolveFieldsArity(t *testing.T) {
	tv := Var("T")
	rec := NewRecord("Box").TypeParams(tv).Field("content", tv)

	_, err := ResolveFields(rec, []Type{Int(), Str()})
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError for too many arguments, got %v", err)
	}
}

func TestContainsTypeVar(t *testing.T) {
	tv := Var("T")
	if !ContainsTypeVar(ListOf(tv)) {
		t.Fatalf("list[T] contains a variable")
	}
	if ContainsTypeVar(ListOf(Str())) {
		t.Fatalf("list[string] contains no variable")
	}
	if !ContainsTypeVar(Optional(MapOf(Str(), tv))) {
		t.Fatalf("optional map values can carry variables")
	}
}
