package recschema

import (
	"fmt"
	"strings"
	"sync"
)

// Kind identifies a type descriptor variant. The set is closed: all dispatch
// in the classifier is a switch over these kinds.
type Kind int

const (
	KindPrimitive Kind = iota
	KindAny
	KindNil
	KindTypeVar
	KindLiteral
	KindFinal
	KindAnnotated
	KindUnion
	KindContainer
	KindNewType
	KindEnum
	KindRecord
	KindRef
)

// Type is an opaque handle to a declared type shape. Descriptors are built
// once per distinct shape and never mutated; structural shapes (primitives,
// unions, containers, literals, refs) are interned so that equal shapes
// compare equal with ==. Nominal shapes (type variables, aliases, enums,
// records) keep pointer identity.
type Type interface {
	Kind() Kind
	// Key returns the canonical structural key used for interning, caching
	// and equality.
	Key() string
	String() string
}

// ---- interning ----

var (
	internMu   sync.Mutex
	internPool = map[string]Type{}
)

func intern(t Type) Type {
	k := t.Key()
	internMu.Lock()
	defer internMu.Unlock()
	if v, ok := internPool[k]; ok {
		return v
	}
	internPool[k] = t
	return t
}

// TypeEq reports whether two descriptors describe the same shape.
func TypeEq(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Key() == b.Key()
}

// ---- primitives ----

// Primitive is a leaf type with a direct field mapping.
type Primitive struct{ Name string }

func (p *Primitive) Kind() Kind     { return KindPrimitive }
func (p *Primitive) Key() string    { return p.Name }
func (p *Primitive) String() string { return p.Name }

// Str returns the string primitive descriptor.
func Str() Type { return intern(&Primitive{Name: "string"}) }

// Int returns the integer primitive descriptor.
func Int() Type { return intern(&Primitive{Name: "int"}) }

// Float returns the float primitive descriptor.
func Float() Type { return intern(&Primitive{Name: "float"}) }

// Bool returns the boolean primitive descriptor.
func Bool() Type { return intern(&Primitive{Name: "bool"}) }

// Time returns the RFC3339 timestamp primitive descriptor.
func Time() Type { return intern(&Primitive{Name: "time"}) }

type anyType struct{}

func (anyType) Kind() Kind     { return KindAny }
func (anyType) Key() string    { return "any" }
func (anyType) String() string { return "any" }

// Any returns the universal descriptor: values pass through unvalidated.
func Any() Type { return intern(anyType{}) }

type nilType struct{}

func (nilType) Kind() Kind     { return KindNil }
func (nilType) Key() string    { return "nil" }
func (nilType) String() string { return "nil" }

// Nil returns the null descriptor, used as a union member for optional types.
func Nil() Type { return intern(nilType{}) }

// ---- type variables ----

// TypeVar is a placeholder type parameter of a generic record. Identity is
// the pointer: two variables with the same name are distinct.
type TypeVar struct {
	Name    string
	Default Type // consulted when no binding is found in the chain; may be nil
}

func (v *TypeVar) Kind() Kind     { return KindTypeVar }
func (v *TypeVar) Key() string    { return fmt.Sprintf("typevar:%s@%p", v.Name, v) }
func (v *TypeVar) String() string { return v.Name }

// Var declares a new type variable.
func Var(name string) *TypeVar { return &TypeVar{Name: name} }

// WithDefault sets the variable's fallback type. The default may itself
// reference other type variables; it is resolved through the same
// substitution pass as field types.
func (v *TypeVar) WithDefault(t Type) *TypeVar {
	v.Default = t
	return v
}

// ---- literals ----

// Literal restricts a value to a fixed set of literal values.
type Literal struct{ Values []any }

func (l *Literal) Kind() Kind { return KindLiteral }
func (l *Literal) Key() string {
	parts := make([]string, len(l.Values))
	for i, v := range l.Values {
		parts[i] = fmt.Sprintf("%T:%v", v, v)
	}
	return "literal[" + strings.Join(parts, "|") + "]"
}
func (l *Literal) String() string { return l.Key() }

// LiteralOf declares a literal-of-values descriptor.
func LiteralOf(values ...any) Type { return intern(&Literal{Values: values}) }

// ---- final ----

// Final marks a declaration as constant. Elem may be nil, in which case the
// synthesizer infers the shape from the field default, falling back to Any.
type Final struct{ Elem Type }

func (f *Final) Kind() Kind { return KindFinal }
func (f *Final) Key() string {
	if f.Elem == nil {
		return "final"
	}
	return "final[" + f.Elem.Key() + "]"
}
func (f *Final) String() string { return f.Key() }

// FinalOf declares a final descriptor wrapping elem. Pass nil for a bare
// final declaration.
func FinalOf(elem Type) Type { return intern(&Final{Elem: elem}) }

// ---- annotated ----

// Annotated attaches extra annotations to a type. Annotations that are a
// Field or FieldFactory override synthesis for the wrapped type; other
// annotations are ignored.
type Annotated struct {
	Elem Type
	Anns []any
}

func (a *Annotated) Kind() Kind     { return KindAnnotated }
func (a *Annotated) Key() string    { return fmt.Sprintf("annotated[%s]@%p", a.Elem.Key(), a) }
func (a *Annotated) String() string { return "annotated[" + a.Elem.String() + "]" }

// AnnotatedWith declares an annotated descriptor. Annotations carrying field
// overrides win over type-derived synthesis; the last override wins when
// several are present.
func AnnotatedWith(elem Type, anns ...any) Type { return &Annotated{Elem: elem, Anns: anns} }

// ---- unions ----

// Union is a set of alternative types tried in declared order.
type Union struct{ Alts []Type }

func (u *Union) Kind() Kind { return KindUnion }
func (u *Union) Key() string {
	parts := make([]string, len(u.Alts))
	for i, t := range u.Alts {
		parts[i] = t.Key()
	}
	return "union[" + strings.Join(parts, "|") + "]"
}
func (u *Union) String() string { return u.Key() }

// UnionOf declares a union descriptor. Nested unions are flattened and
// duplicate alternatives removed, so Union[T, nil] and Optional(T) intern to
// the same descriptor.
func UnionOf(alts ...Type) Type {
	flat := make([]Type, 0, len(alts))
	seen := map[string]bool{}
	var add func(ts []Type)
	add = func(ts []Type) {
		for _, t := range ts {
			if u, ok := t.(*Union); ok {
				add(u.Alts)
				continue
			}
			if !seen[t.Key()] {
				seen[t.Key()] = true
				flat = append(flat, t)
			}
		}
	}
	add(alts)
	if len(flat) == 1 {
		return flat[0]
	}
	return intern(&Union{Alts: flat})
}

// Optional declares Union[t, nil].
func Optional(t Type) Type { return UnionOf(t, Nil()) }

// IsOptional reports whether t is a union admitting nil.
func IsOptional(t Type) bool {
	u, ok := t.(*Union)
	if !ok {
		return t != nil && t.Kind() == KindNil
	}
	for _, a := range u.Alts {
		if a.Kind() == KindNil {
			return true
		}
	}
	return false
}

// NonNilAlts returns the union's alternatives with nil removed.
func NonNilAlts(u *Union) []Type {
	out := make([]Type, 0, len(u.Alts))
	for _, a := range u.Alts {
		if a.Kind() != KindNil {
			out = append(out, a)
		}
	}
	return out
}

// ---- containers ----

// ContainerKind distinguishes the container shapes with distinct runtime
// fields.
type ContainerKind int

const (
	ListKind ContainerKind = iota
	SeqKind
	SetKind
	FrozenSetKind
	TupleKind
	MapKind
)

func (k ContainerKind) String() string {
	switch k {
	case ListKind:
		return "list"
	case SeqKind:
		return "seq"
	case SetKind:
		return "set"
	case FrozenSetKind:
		return "frozenset"
	case TupleKind:
		return "tuple"
	case MapKind:
		return "map"
	}
	return "container"
}

// Container is a sequence/set/tuple/mapping of element types. Args is nil for
// a bare container declared without element arguments; the synthesizer treats
// that as "element type = any".
type Container struct {
	CKind ContainerKind
	Args  []Type
}

func (c *Container) Kind() Kind { return KindContainer }
func (c *Container) Key() string {
	if len(c.Args) == 0 {
		return c.CKind.String()
	}
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.Key()
	}
	return c.CKind.String() + "[" + strings.Join(parts, ",") + "]"
}
func (c *Container) String() string { return c.Key() }

func containerOf(k ContainerKind, args []Type) Type {
	return intern(&Container{CKind: k, Args: args})
}

// ListOf declares a list descriptor. ListOf() is the bare form.
func ListOf(args ...Type) Type { return containerOf(ListKind, args) }

// SeqOf declares an immutable-sequence descriptor.
func SeqOf(args ...Type) Type { return containerOf(SeqKind, args) }

// SetOf declares a set descriptor.
func SetOf(args ...Type) Type { return containerOf(SetKind, args) }

// FrozenSetOf declares a frozen set descriptor.
func FrozenSetOf(args ...Type) Type { return containerOf(FrozenSetKind, args) }

// TupleOf declares a fixed-shape tuple descriptor with one element type per
// position.
func TupleOf(args ...Type) Type { return containerOf(TupleKind, args) }

// MapOf declares a mapping descriptor. MapOf() is the bare form; otherwise
// exactly key and value types are expected.
func MapOf(args ...Type) Type { return containerOf(MapKind, args) }

// ---- indirection-typed aliases ----

// Alias is a distinct nominal type wrapping an existing type, carrying extra
// field options or a custom field factory without changing the runtime
// representation.
type Alias struct {
	Name    string
	Super   Type
	Factory FieldFactory // optional verbatim field constructor
	Opts    Options      // extra field options merged during synthesis
}

func (a *Alias) Kind() Kind     { return KindNewType }
func (a *Alias) Key() string    { return fmt.Sprintf("newtype:%s@%p", a.Name, a) }
func (a *Alias) String() string { return a.Name }

// AliasOption configures a NewType declaration.
type AliasOption func(*Alias)

// WithFieldFactory attaches a custom field constructor to the alias. When
// set, synthesis uses it instead of recursing into the supertype.
func WithFieldFactory(f FieldFactory) AliasOption {
	return func(a *Alias) { a.Factory = f }
}

// WithAliasOptions attaches extra field options (validators and the like)
// merged into the local field metadata during synthesis.
func WithAliasOptions(o Options) AliasOption {
	return func(a *Alias) { a.Opts = o }
}

// NewType declares a named indirection alias of super.
func NewType(name string, super Type, opts ...AliasOption) *Alias {
	a := &Alias{Name: name, Super: super}
	for _, o := range opts {
		o(a)
	}
	return a
}

// ---- enumerations ----

// EnumMember is one named enumeration value.
type EnumMember struct {
	Name  string
	Value any
}

// EnumType is a closed set of named values. Loading accepts member names and
// yields member values; dumping maps values back to names.
type EnumType struct {
	Name    string
	Members []EnumMember
}

func (e *EnumType) Kind() Kind     { return KindEnum }
func (e *EnumType) Key() string    { return fmt.Sprintf("enum:%s@%p", e.Name, e) }
func (e *EnumType) String() string { return e.Name }

// Member returns the member with the given name.
func (e *EnumType) Member(name string) (EnumMember, bool) {
	for _, m := range e.Members {
		if m.Name == name {
			return m, true
		}
	}
	return EnumMember{}, false
}

// MemberByValue returns the member with the given value.
func (e *EnumType) MemberByValue(v any) (EnumMember, bool) {
	for _, m := range e.Members {
		if m.Value == v {
			return m, true
		}
	}
	return EnumMember{}, false
}

// EnumOf declares an enumeration descriptor.
func EnumOf(name string, members ...EnumMember) *EnumType {
	return &EnumType{Name: name, Members: members}
}

// ---- textual forward references ----

// Ref is a reference to a type by name, resolved against the lexical
// namespaces of the active resolution context.
type Ref struct{ Name string }

func (r *Ref) Kind() Kind     { return KindRef }
func (r *Ref) Key() string    { return "ref:" + r.Name }
func (r *Ref) String() string { return r.Name }

// TypeRef declares a forward reference to a type by name.
func TypeRef(name string) Type { return intern(&Ref{Name: name}) }
