package dsl

import (
	recschema "github.com/mvanderlee/recschema"
)

// schemaCache memoizes compiled schemas across all requests, keyed by
// (record identity, type arguments, base identity), bounded with LRU
// eviction.
var schemaCache = recschema.NewCache(0)

// ResetCache drops all memoized schemas. Intended for tests.
func ResetCache() { schemaCache = recschema.NewCache(0) }

// compileChain is the state shared by every resolution context in one
// logical compile call chain. A provider-triggered compile of record B can
// point back at a record A that is mid-compile higher up the same chain;
// inflight lets B link A through A's forward reference instead of recursing
// forever. Chains are confined to a single call chain and never shared
// across goroutines, so no locking is needed.
//
// Finished schemas accumulate in done and reach the shared cache only when
// the whole chain succeeds. A failed compile therefore leaves no schema
// behind that still holds an unresolved forward reference.
type compileChain struct {
	inflight map[recschema.CacheKey]*recschema.SchemaRef
	done     map[recschema.CacheKey]*recschema.Schema
}

func newCompileChain() *compileChain {
	return &compileChain{
		inflight: map[recschema.CacheKey]*recschema.SchemaRef{},
		done:     map[recschema.CacheKey]*recschema.Schema{},
	}
}

// publish moves the chain's finished schemas into the shared cache. Call
// only after the top-level compile succeeded.
func (c *compileChain) publish() {
	for k, s := range c.done {
		schemaCache.Put(k, s)
	}
}

type compileConfig struct {
	base       *Base
	namespaces []map[string]recschema.Type
	unknown    *recschema.UnknownPolicy
}

// CompileOption configures a compile request.
type CompileOption func(*compileConfig)

// WithBase derives the schema from the given base: its type/container
// mappings override the defaults and its unknown-key policy applies.
func WithBase(b *Base) CompileOption {
	return func(c *compileConfig) { c.base = b }
}

// WithNamespace adds a lexical namespace used to resolve textual type
// references. Later namespaces shadow earlier ones.
func WithNamespace(ns map[string]recschema.Type) CompileOption {
	return func(c *compileConfig) { c.namespaces = append(c.namespaces, ns) }
}

// WithUnknown overrides the unknown-key policy for the compiled schema.
func WithUnknown(p recschema.UnknownPolicy) CompileOption {
	return func(c *compileConfig) { c.unknown = &p }
}

// ClassSchema compiles a record descriptor into a schema. Results are
// memoized: repeated calls for the same record, type arguments and base
// return the same schema value.
//
// The descriptor must be a record type or a parametrized record instance;
// anything else is a ConfigError. An unresolved type variable anywhere in the
// record's field graph surfaces as UnboundTypeVarError.
func ClassSchema(t recschema.Type, opts ...CompileOption) (*recschema.Schema, error) {
	var cfg compileConfig
	for _, o := range opts {
		o(&cfg)
	}
	rec, args, ok := recschema.AsRecord(t)
	if !ok {
		return nil, recschema.Configf("%s is not a record type and cannot be turned into one", t)
	}
	sc := newSchemaContext(cfg)
	s, err := sc.compile(rec, args)
	if err != nil {
		return nil, err
	}
	sc.chain.publish()
	if cached, ok := schemaCache.Get(sc.cacheKey(rec, args)); ok {
		return cached, nil
	}
	return s, nil
}

// MustClassSchema is ClassSchema panicking on error. Use for declarations
// initialized at package level.
func MustClassSchema(t recschema.Type, opts ...CompileOption) *recschema.Schema {
	s, err := ClassSchema(t, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// FieldForType synthesizes a single field specification for a declared type,
// outside of any record compilation. metadata follows the same recognized
// keys as field declarations.
func FieldForType(t recschema.Type, dflt any, metadata recschema.Options, opts ...CompileOption) (*recschema.FieldSpec, error) {
	var cfg compileConfig
	for _, o := range opts {
		o(&cfg)
	}
	sc := newSchemaContext(cfg)
	if dflt == nil {
		dflt = recschema.Missing
	}
	spec, err := sc.fieldForType(t, dflt, metadata)
	if err != nil {
		return nil, err
	}
	sc.chain.publish()
	return spec, nil
}

func (sc *schemaContext) compile(rec *recschema.RecordType, args []recschema.Type) (*recschema.Schema, error) {
	key := sc.cacheKey(rec, args)
	if s, ok := sc.chain.done[key]; ok {
		return s, nil
	}
	if s, ok := schemaCache.Get(key); ok {
		return s, nil
	}
	display := displayName(rec, args)
	ref := sc.register(instKey(rec, args), display)
	sc.chain.inflight[key] = ref
	defer delete(sc.chain.inflight, key)

	var resolved []recschema.ResolvedField
	if rec.IsGeneric() || len(rec.Bases) > 0 || len(args) > 0 {
		fields, err := recschema.ResolveFields(rec, args)
		if err != nil {
			// UnboundTypeVarError and arity errors propagate unchanged
			return nil, err
		}
		resolved = fields
	} else {
		resolved = make([]recschema.ResolvedField, 0, len(rec.Fields))
		for _, d := range rec.Fields {
			resolved = append(resolved, recschema.ResolvedField{Decl: d, Type: d.Type})
		}
	}

	s := &recschema.Schema{
		Name:     display,
		Record:   rec,
		TypeArgs: args,
		Fields:   map[string]*recschema.FieldSpec{},
		Hooks:    rec.Hooks,
		Unknown:  sc.unknown,
	}
	if len(rec.Meta.Attrs) > 0 {
		s.Attrs = make(map[string]any, len(rec.Meta.Attrs))
		for k, v := range rec.Meta.Attrs {
			s.Attrs[k] = v
		}
	}
	for _, rf := range resolved {
		if rf.Decl.NoInit && !rec.Meta.IncludeNonInit {
			continue
		}
		spec, err := sc.fieldForType(rf.Type, rf.Decl.DeclaredDefault(), rf.Decl.Options)
		if err != nil {
			return nil, err
		}
		spec.Name = rf.Decl.Name
		s.FieldOrder = append(s.FieldOrder, rf.Decl.Name)
		s.Fields[rf.Decl.Name] = spec
	}
	s.Construct = constructorFor(rec)
	ref.Resolve(s)
	sc.chain.done[key] = s
	return s, nil
}

func constructorFor(rec *recschema.RecordType) recschema.Constructor {
	if rec.New != nil {
		return rec.New
	}
	return func(kw map[string]any) (any, error) {
		return recschema.NewInstance(rec, kw), nil
	}
}
