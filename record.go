package recschema

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Recognized Options keys. Unrecognized keys are carried through untouched in
// the field's Metadata.
const (
	OptRequired    = "required"     // bool
	OptAllowNil    = "allow_nil"    // bool
	OptDumpDefault = "dump_default" // any
	OptLoadDefault = "load_default" // any
	OptValidate    = "validate"     // Rule or []Rule, ordered
	OptField       = "field"        // Field used verbatim, synthesis stops
	OptMetadata    = "metadata"     // map[string]any, opaque pass-through
)

// Options is the free-form per-field options mapping supplied at declaration
// time.
type Options map[string]any

// Merged returns a copy of o with overlay entries applied on top.
func (o Options) Merged(overlay Options) Options {
	out := make(Options, len(o)+len(overlay))
	for k, v := range o {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

// Rules normalizes the OptValidate entry into an ordered rule list.
func (o Options) Rules() []Rule {
	switch v := o[OptValidate].(type) {
	case nil:
		return nil
	case Rule:
		return []Rule{v}
	case func(string, any) Issues:
		return []Rule{v}
	case []Rule:
		return v
	}
	return nil
}

// missingType is the sentinel for "no value supplied".
type missingType struct{}

func (missingType) String() string { return "<missing>" }

// Missing marks an absent default or value. It is distinct from nil, which is
// a present null.
var Missing any = missingType{}

// IsMissing reports whether v is the Missing sentinel.
func IsMissing(v any) bool {
	_, ok := v.(missingType)
	return ok
}

// FieldDecl is one declared attribute of a record type.
type FieldDecl struct {
	Name           string
	Type           Type
	Default        any        // Missing when unset
	DefaultFactory func() any // wins over Default when set
	NoInit         bool       // excluded from the constructor
	Options        Options
}

// DeclaredDefault returns the effective declared default: the factory when
// present, the plain default otherwise, Missing when neither is set.
func (d FieldDecl) DeclaredDefault() any {
	if d.DefaultFactory != nil {
		return d.DefaultFactory
	}
	return d.Default
}

// Hook is a record-level validator run against the validated mapping before
// construction.
type Hook func(ctx context.Context, data map[string]any) Issues

// Constructor builds the typed record from the validated mapping.
type Constructor func(kw map[string]any) (any, error)

// Meta carries record-level schema options.
type Meta struct {
	// IncludeNonInit includes fields excluded from the constructor in the
	// compiled schema.
	IncludeNonInit bool
	// Attrs are whitelisted members copied verbatim onto the compiled schema.
	Attrs map[string]any
}

// SchemaProvider is implemented by lazy schema accessors attached to a record
// type; the synthesizer consults it before recursing into a fresh compile.
type SchemaProvider interface {
	// SchemaFor returns the compiled schema for the record specialized with
	// the given type arguments (empty for non-generic records).
	SchemaFor(args []Type) (*Schema, error)
}

// RecordType is a user-declared structured type with named, typed attributes.
// It implements Type so records nest directly inside other declarations.
// Declare once, then treat as immutable.
type RecordType struct {
	Name   string
	Params []*TypeVar
	Bases  []*RecordInst
	Fields []FieldDecl
	Hooks  []Hook
	Meta   Meta

	// New overrides the default construction rule. The default builds an
	// *Instance; struct-bound records install a reflective constructor.
	New Constructor

	// Provider is the lazily-computed schema accessor, when attached.
	Provider SchemaProvider
}

func (r *RecordType) Kind() Kind { return KindRecord }
func (r *RecordType) Key() string {
	return fmt.Sprintf("record:%s@%p", r.Name, r)
}
func (r *RecordType) String() string { return r.Name }

// IsGeneric reports whether the record declares type parameters.
func (r *RecordType) IsGeneric() bool { return len(r.Params) > 0 }

// NewRecord starts a record type declaration.
func NewRecord(name string) *RecordType { return &RecordType{Name: name} }

// TypeParams declares the record's type variables, in order.
func (r *RecordType) TypeParams(vars ...*TypeVar) *RecordType {
	r.Params = append(r.Params, vars...)
	return r
}

// Embed declares a generic ancestor parametrized with the given arguments.
// Arguments may themselves be type variables of this record; the resolver
// chains such substitutions forward.
func (r *RecordType) Embed(base *RecordType, args ...Type) *RecordType {
	r.Bases = append(r.Bases, &RecordInst{Rec: base, Args: args})
	return r
}

// EmbedInst declares an ancestor from an existing parametrization, allowing
// inheritance from a partially-applied alias.
func (r *RecordType) EmbedInst(inst *RecordInst) *RecordType {
	r.Bases = append(r.Bases, inst)
	return r
}

// FieldOption configures a field declaration.
type FieldOption func(*FieldDecl)

// WithDefault sets the declared default value.
func WithDefault(v any) FieldOption {
	return func(d *FieldDecl) { d.Default = v }
}

// WithDefaultFactory sets a default factory invoked per load.
func WithDefaultFactory(f func() any) FieldOption {
	return func(d *FieldDecl) { d.DefaultFactory = f }
}

// WithOptions attaches the free-form options mapping.
func WithOptions(o Options) FieldOption {
	return func(d *FieldDecl) { d.Options = d.Options.Merged(o) }
}

// NoInit excludes the field from the constructor.
func NoInit() FieldOption {
	return func(d *FieldDecl) { d.NoInit = true }
}

// Field declares an attribute. Declaration order is preserved in the compiled
// schema.
func (r *RecordType) Field(name string, t Type, opts ...FieldOption) *RecordType {
	d := FieldDecl{Name: name, Type: t, Default: Missing}
	for _, o := range opts {
		o(&d)
	}
	r.Fields = append(r.Fields, d)
	return r
}

// Hook registers a record-level validator.
func (r *RecordType) Hook(h Hook) *RecordType {
	r.Hooks = append(r.Hooks, h)
	return r
}

// WithMeta sets record-level schema options.
func (r *RecordType) WithMeta(m Meta) *RecordType {
	r.Meta = m
	return r
}

// Constructor overrides the construction rule.
func (r *RecordType) Constructor(fn Constructor) *RecordType {
	r.New = fn
	return r
}

// Of parametrizes a generic record with concrete type arguments.
func (r *RecordType) Of(args ...Type) *RecordInst {
	return &RecordInst{Rec: r, Args: args}
}

// RecordInst is a record type parametrized with type arguments; it is the
// generic-alias analog and implements Type.
type RecordInst struct {
	Rec  *RecordType
	Args []Type
}

func (ri *RecordInst) Kind() Kind { return KindRecord }
func (ri *RecordInst) Key() string {
	parts := make([]string, len(ri.Args))
	for i, a := range ri.Args {
		parts[i] = a.Key()
	}
	return ri.Rec.Key() + "[" + strings.Join(parts, ",") + "]"
}
func (ri *RecordInst) String() string {
	parts := make([]string, len(ri.Args))
	for i, a := range ri.Args {
		parts[i] = a.String()
	}
	return ri.Rec.Name + "[" + strings.Join(parts, ", ") + "]"
}

// DisplayName is the cycle-breaking name registered in the resolution
// context.
func (ri *RecordInst) DisplayName() string { return ri.String() }

// AsRecord normalizes a descriptor to its record type and type arguments.
func AsRecord(t Type) (*RecordType, []Type, bool) {
	switch v := t.(type) {
	case *RecordType:
		return v, nil, true
	case *RecordInst:
		return v.Rec, v.Args, true
	}
	return nil, nil, false
}

// Instance is the dynamic record value built by the default construction
// rule: attribute values keyed by name. Two instances of the same record type
// with equal attribute maps are reflect.DeepEqual.
type Instance struct {
	rec   *RecordType
	attrs map[string]any
}

// NewInstance builds a dynamic record value for rec from attribute values.
func NewInstance(rec *RecordType, attrs map[string]any) *Instance {
	inst := &Instance{rec: rec, attrs: make(map[string]any, len(attrs))}
	for k, v := range attrs {
		inst.attrs[k] = v
	}
	return inst
}

// Record returns the declaring record type.
func (i *Instance) Record() *RecordType { return i.rec }

// Attr returns the named attribute value.
func (i *Instance) Attr(name string) (any, bool) {
	v, ok := i.attrs[name]
	return v, ok
}

// Set assigns an attribute value.
func (i *Instance) Set(name string, v any) { i.attrs[name] = v }

// Attrs returns a copy of the attribute mapping.
func (i *Instance) Attrs() map[string]any {
	out := make(map[string]any, len(i.attrs))
	for k, v := range i.attrs {
		out[k] = v
	}
	return out
}

func (i *Instance) String() string {
	keys := make([]string, 0, len(i.attrs))
	for _, d := range i.rec.Fields {
		if _, ok := i.attrs[d.Name]; ok {
			keys = append(keys, d.Name)
		}
	}
	if len(keys) < len(i.attrs) {
		declared := map[string]bool{}
		for _, k := range keys {
			declared[k] = true
		}
		extras := make([]string, 0, len(i.attrs)-len(keys))
		for k := range i.attrs {
			if !declared[k] {
				extras = append(extras, k)
			}
		}
		sort.Strings(extras)
		keys = append(keys, extras...)
	}
	b := &strings.Builder{}
	b.WriteString(i.rec.Name)
	b.WriteByte('(')
	for n, k := range keys {
		if n > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%s=%v", k, i.attrs[k])
	}
	b.WriteByte(')')
	return b.String()
}
