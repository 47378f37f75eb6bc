package dsl

import (
	"sync"

	recschema "github.com/mvanderlee/recschema"
)

// LazySchema defers compilation of a record until its schema is first
// needed and memoizes the result per set of type arguments. Attaching one
// to a record lets other compilations resolve the record through the
// provider instead of compiling it inline.
type LazySchema struct {
	rec  *recschema.RecordType
	opts []CompileOption

	mu   sync.Mutex
	memo map[string]*recschema.Schema
}

// Lazy wraps a record in a deferred schema provider.
func Lazy(rec *recschema.RecordType, opts ...CompileOption) *LazySchema {
	return &LazySchema{rec: rec, opts: opts, memo: map[string]*recschema.Schema{}}
}

// Attach wraps the record and installs the wrapper as the record's schema
// provider, then returns it.
func Attach(rec *recschema.RecordType, opts ...CompileOption) *LazySchema {
	l := Lazy(rec, opts...)
	rec.Provider = l
	return l
}

// SchemaFor implements recschema.SchemaProvider. It starts a fresh compile
// chain; compilations reaching this provider from inside an ongoing chain go
// through schemaForIn instead so cycles resolve through the chain's forward
// references.
//
// Compilation runs outside the memo lock: a compile may reach this record
// again through a field cycle, and re-entering SchemaFor must not deadlock.
// The global schema cache coalesces the rare duplicate compile.
func (l *LazySchema) SchemaFor(args []recschema.Type) (*recschema.Schema, error) {
	return l.schemaForIn(newCompileChain(), args)
}

func (l *LazySchema) schemaForIn(chain *compileChain, args []recschema.Type) (*recschema.Schema, error) {
	key := argsKey(args)
	l.mu.Lock()
	if s, ok := l.memo[key]; ok {
		l.mu.Unlock()
		return s, nil
	}
	l.mu.Unlock()

	var cfg compileConfig
	for _, o := range l.opts {
		o(&cfg)
	}
	sc := newChainedContext(cfg, chain)
	s, err := sc.compile(l.rec, args)
	if err != nil {
		return nil, err
	}
	if len(chain.inflight) > 0 {
		// an enclosing compile is still running; s may hold forward
		// references that only resolve if the whole chain succeeds, so it is
		// neither memoized nor published yet
		return s, nil
	}
	chain.publish()

	l.mu.Lock()
	if prev, ok := l.memo[key]; ok {
		s = prev
	} else {
		l.memo[key] = s
	}
	l.mu.Unlock()
	return s, nil
}

// providerSchema resolves a record through its attached provider. A provider
// created by this package joins the requesting chain so mutually recursive
// records link through the chain's in-progress forward references.
func providerSchema(chain *compileChain, p recschema.SchemaProvider, args []recschema.Type) (*recschema.Schema, error) {
	if l, ok := p.(*LazySchema); ok {
		return l.schemaForIn(chain, args)
	}
	return p.SchemaFor(args)
}

// GetOrBuild returns the schema of a non-generic record. Generic records
// have no single schema; parametrize them through Of.
func (l *LazySchema) GetOrBuild() (*recschema.Schema, error) {
	if l.rec.IsGeneric() {
		return nil, recschema.Configf("%s is generic and has no schema of its own; supply type arguments", l.rec.Name)
	}
	return l.SchemaFor(nil)
}

// Of returns the schema of the record parametrized with the given type
// arguments.
func (l *LazySchema) Of(args ...recschema.Type) (*recschema.Schema, error) {
	if !l.rec.IsGeneric() {
		return nil, recschema.Configf("%s is not generic and takes no type arguments", l.rec.Name)
	}
	return l.SchemaFor(args)
}
