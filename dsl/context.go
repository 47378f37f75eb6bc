package dsl

import (
	"strings"

	recschema "github.com/mvanderlee/recschema"
)

// schemaContext is the per-request resolution state: the record types
// currently being compiled in this call chain mapped to their forward
// references, and the lexical namespaces used to resolve textual type
// references.
//
// A fresh context is created for every top-level compile request; nested
// recursive compilations reuse the same context, which is what makes cycle
// detection work. The context is threaded explicitly through the recursive
// calls and never shared across independent requests, so concurrent compiles
// on different goroutines cannot observe each other's in-progress state.
type schemaContext struct {
	seen       map[string]*recschema.SchemaRef // in-progress descriptor key -> ref
	seenByName map[string]*recschema.SchemaRef // display name -> ref, for textual refs
	namespaces []map[string]recschema.Type
	base       *Base
	unknown    recschema.UnknownPolicy
	chain      *compileChain
}

func newSchemaContext(cfg compileConfig) *schemaContext {
	return newChainedContext(cfg, newCompileChain())
}

// newChainedContext builds a context joining an ongoing compile chain, so
// provider-triggered compilations share the chain's in-progress forward
// references and pending results.
func newChainedContext(cfg compileConfig, chain *compileChain) *schemaContext {
	unknown := recschema.UnknownRaise
	if cfg.base != nil {
		unknown = cfg.base.Unknown
	}
	if cfg.unknown != nil {
		unknown = *cfg.unknown
	}
	return &schemaContext{
		seen:       map[string]*recschema.SchemaRef{},
		seenByName: map[string]*recschema.SchemaRef{},
		namespaces: cfg.namespaces,
		base:       cfg.base,
		unknown:    unknown,
		chain:      chain,
	}
}

func (sc *schemaContext) cacheKey(rec *recschema.RecordType, args []recschema.Type) recschema.CacheKey {
	return recschema.CacheKey{Record: rec.Key(), Args: argsKey(args), Base: baseKey(sc.base), Unknown: sc.unknown}
}

// register records a compilation in progress under its display name before
// any field is resolved, so self-referential fields short-circuit to the
// forward reference instead of recursing.
func (sc *schemaContext) register(key, display string) *recschema.SchemaRef {
	ref := recschema.NewSchemaRef(display)
	sc.seen[key] = ref
	sc.seenByName[display] = ref
	return ref
}

// lookupName resolves a textual type reference against the lexical
// namespaces, innermost first.
func (sc *schemaContext) lookupName(name string) (recschema.Type, bool) {
	for i := len(sc.namespaces) - 1; i >= 0; i-- {
		if t, ok := sc.namespaces[i][name]; ok {
			return t, true
		}
	}
	return nil, false
}

func instKey(rec *recschema.RecordType, args []recschema.Type) string {
	if len(args) == 0 {
		return rec.Key()
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Key()
	}
	return rec.Key() + "[" + strings.Join(parts, ",") + "]"
}

func displayName(rec *recschema.RecordType, args []recschema.Type) string {
	if len(args) == 0 {
		return rec.Name
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return rec.Name + "[" + strings.Join(parts, ", ") + "]"
}

func argsKey(args []recschema.Type) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Key()
	}
	return strings.Join(parts, ",")
}
