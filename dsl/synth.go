package dsl

import (
	"time"

	recschema "github.com/mvanderlee/recschema"
	"github.com/mvanderlee/recschema/rules"
)

// fieldForType synthesizes the field specification for one declared type.
// Resolution order, first match wins:
//
//  1. user-supplied override field (used verbatim)
//  2. bare containers are re-dispatched with "any" element arguments
//  3. primitive mapping (base overrides first, then the default mapping)
//  4. the universal type (raw passthrough, nullable by default)
//  5. literal-of-values (equality or membership validator)
//  6. final (unwrap, or infer from the default, or fall back to any)
//  7. field-override annotations embedded in the type (last one wins)
//  8. unions (optional collapsing, otherwise a try-in-order union field)
//  9. containers (list/seq/set/tuple/map, element fields synthesized
//     recursively)
// 10. indirection aliases (merge alias options, custom factory or recurse)
// 11. enumerations
// 12. nested records (forward reference when mid-compilation, attached
//     provider when available, fresh compile otherwise)
//
// A stray type variable reaching this point is an unbound-variable user
// error.
func (sc *schemaContext) fieldForType(typ recschema.Type, dflt any, meta recschema.Options) (*recschema.FieldSpec, error) {
	if tv, ok := typ.(*recschema.TypeVar); ok {
		return nil, &recschema.UnboundTypeVarError{Var: tv.Name}
	}

	meta = meta.Merged(nil)
	if !recschema.IsMissing(dflt) {
		setDefault(meta, recschema.OptDumpDefault, dflt)
		// a load default must not be set for required fields
		if !boolOpt(meta, recschema.OptRequired) {
			setDefault(meta, recschema.OptLoadDefault, dflt)
		}
	} else {
		setDefault(meta, recschema.OptRequired, !permitsAbsence(typ))
	}

	// the user fully specified the field: use it verbatim, synthesis stops
	if f, ok := meta[recschema.OptField].(recschema.Field); ok && f != nil {
		return specFrom(typ, f, meta), nil
	}

	typ = bareContainerAddAny(typ)

	switch typ.Kind() {
	case recschema.KindPrimitive:
		p := typ.(*recschema.Primitive)
		factory, ok := sc.base.typeFactory(p.Name)
		if !ok {
			return nil, recschema.Configf("no field mapping for primitive %q", p.Name)
		}
		return specFrom(typ, factory(fieldOptions(meta)), meta), nil

	case recschema.KindAny:
		setDefault(meta, recschema.OptAllowNil, true)
		return specFrom(typ, newRawField(fieldOptions(meta)), meta), nil

	case recschema.KindNil:
		setDefault(meta, recschema.OptAllowNil, true)
		setDefault(meta, recschema.OptRequired, false)
		return specFrom(typ, newRawField(fieldOptions(meta)), meta), nil

	case recschema.KindLiteral:
		lit := typ.(*recschema.Literal)
		var r recschema.Rule
		if len(lit.Values) == 1 {
			r = rules.Equal(lit.Values[0])
		} else {
			r = rules.OneOf(lit.Values...)
		}
		o := fieldOptions(meta)
		o.Rules = append([]recschema.Rule{r}, o.Rules...)
		return specFrom(typ, newRawField(o), meta), nil

	case recschema.KindFinal:
		fin := typ.(*recschema.Final)
		sub := fin.Elem
		if sub == nil {
			switch {
			case recschema.IsMissing(dflt):
				sub = recschema.Any()
			default:
				if _, isFactory := dflt.(func() any); isFactory {
					sub = recschema.Any()
					warnf("final-typed field uses a default factory; the field type cannot be inferred from it and falls back to a raw field with no validation")
				} else {
					sub = inferTypeFromValue(dflt)
					warnf("final-typed field type inferred from its default value; provide an explicit element type for accurate validation")
				}
			}
		}
		return sc.fieldForType(sub, dflt, meta)

	case recschema.KindAnnotated:
		ann := typ.(*recschema.Annotated)
		var overrides []any
		for _, a := range ann.Anns {
			switch a.(type) {
			case recschema.Field, recschema.FieldFactory:
				overrides = append(overrides, a)
			}
		}
		if len(overrides) > 0 {
			if len(overrides) > 1 {
				warnf("multiple field annotations found; using the last one")
			}
			switch f := overrides[len(overrides)-1].(type) {
			case recschema.Field:
				return specFrom(typ, f, meta), nil
			case recschema.FieldFactory:
				return specFrom(typ, f(fieldOptions(meta)), meta), nil
			}
		}
		return sc.fieldForType(ann.Elem, dflt, meta)

	case recschema.KindUnion:
		u := typ.(*recschema.Union)
		if recschema.IsOptional(u) {
			setDefault(meta, recschema.OptAllowNil, true)
			setDefault(meta, recschema.OptDumpDefault, nil)
			if !boolOpt(meta, recschema.OptRequired) {
				setDefault(meta, recschema.OptLoadDefault, nil)
			}
			setDefault(meta, recschema.OptRequired, false)
		}
		subs := recschema.NonNilAlts(u)
		if len(subs) == 1 {
			return sc.fieldForType(subs[0], recschema.Missing, meta)
		}
		alts := make([]unionAlt, 0, len(subs))
		for _, st := range subs {
			spec, err := sc.fieldForType(st, recschema.Missing, recschema.Options{recschema.OptRequired: true})
			if err != nil {
				return nil, err
			}
			alts = append(alts, unionAlt{typ: st, field: spec.Field})
		}
		return specFrom(typ, newUnionField(alts, fieldOptions(meta)), meta), nil

	case recschema.KindContainer:
		c := typ.(*recschema.Container)
		elems, err := sc.elementFields(c)
		if err != nil {
			return nil, err
		}
		factory := sc.base.containerFactory(c.CKind)
		if factory == nil {
			return nil, recschema.Configf("no field mapping for container %s", c.CKind)
		}
		return specFrom(typ, factory(elems, fieldOptions(meta)), meta), nil

	case recschema.KindNewType:
		al := typ.(*recschema.Alias)
		merged := al.Opts.Merged(meta)
		// validators from the alias and the local metadata combine, alias
		// rules first
		combined := append(append([]recschema.Rule{}, al.Opts.Rules()...), meta.Rules()...)
		if len(combined) > 0 {
			merged[recschema.OptValidate] = combined
		} else {
			delete(merged, recschema.OptValidate)
		}
		md := metadataOf(merged)
		if md == nil {
			md = map[string]any{}
		}
		if _, ok := md["description"]; !ok {
			md["description"] = al.Name
		}
		merged[recschema.OptMetadata] = md
		if al.Factory != nil {
			return specFrom(typ, al.Factory(fieldOptions(merged)), merged), nil
		}
		return sc.fieldForType(al.Super, dflt, merged)

	case recschema.KindEnum:
		e := typ.(*recschema.EnumType)
		return specFrom(typ, newEnumField(e, fieldOptions(meta)), meta), nil

	case recschema.KindRef:
		r := typ.(*recschema.Ref)
		if t, ok := sc.lookupName(r.Name); ok {
			return sc.fieldForType(t, dflt, meta)
		}
		if ref, ok := sc.seenByName[r.Name]; ok {
			return specFrom(typ, newNestedField(ref, fieldOptions(meta)), meta), nil
		}
		return nil, recschema.Configf("cannot resolve forward reference %q", r.Name)

	case recschema.KindRecord:
		rec, args, _ := recschema.AsRecord(typ)
		if ref, ok := sc.seen[instKey(rec, args)]; ok {
			// mid-compilation: short-circuit to the registered name
			return specFrom(typ, newNestedField(ref, fieldOptions(meta)), meta), nil
		}
		if ref, ok := sc.chain.inflight[sc.cacheKey(rec, args)]; ok {
			// mid-compilation in an outer context of the same chain, reached
			// through a provider
			return specFrom(typ, newNestedField(ref, fieldOptions(meta)), meta), nil
		}
		if rec.Provider != nil {
			s, err := providerSchema(sc.chain, rec.Provider, args)
			if err != nil {
				return nil, err
			}
			ref := recschema.NewSchemaRef(s.Name)
			ref.Resolve(s)
			return specFrom(typ, newNestedField(ref, fieldOptions(meta)), meta), nil
		}
		s, err := sc.compile(rec, args)
		if err != nil {
			return nil, err
		}
		ref := recschema.NewSchemaRef(s.Name)
		ref.Resolve(s)
		return specFrom(typ, newNestedField(ref, fieldOptions(meta)), meta), nil
	}

	return nil, recschema.Configf("unsupported type descriptor %s", typ)
}

func (sc *schemaContext) elementFields(c *recschema.Container) ([]recschema.Field, error) {
	want := 1
	if c.CKind == recschema.MapKind {
		want = 2
	}
	if c.CKind == recschema.TupleKind {
		want = len(c.Args)
	}
	if len(c.Args) != want {
		return nil, recschema.Configf("%s expects %d type arguments, got %d", c.CKind, want, len(c.Args))
	}
	elems := make([]recschema.Field, 0, len(c.Args))
	for _, arg := range c.Args {
		spec, err := sc.fieldForType(arg, recschema.Missing, nil)
		if err != nil {
			return nil, err
		}
		elems = append(elems, spec.Field)
	}
	return elems, nil
}

// permitsAbsence reports whether a declared type accepts a missing value,
// looking through alias, annotation and final wrappers so that an aliased
// optional is inferred not-required like a plain one.
func permitsAbsence(t recschema.Type) bool {
	for {
		switch v := t.(type) {
		case *recschema.Alias:
			t = v.Super
		case *recschema.Annotated:
			t = v.Elem
		case *recschema.Final:
			if v.Elem == nil {
				return false
			}
			t = v.Elem
		default:
			return recschema.IsOptional(t)
		}
	}
}

// bareContainerAddAny treats a container declared without element arguments
// as if parameterized with the universal type.
func bareContainerAddAny(t recschema.Type) recschema.Type {
	c, ok := t.(*recschema.Container)
	if !ok || len(c.Args) > 0 {
		return t
	}
	switch c.CKind {
	case recschema.ListKind:
		return recschema.ListOf(recschema.Any())
	case recschema.SeqKind, recschema.TupleKind:
		return recschema.SeqOf(recschema.Any())
	case recschema.SetKind:
		return recschema.SetOf(recschema.Any())
	case recschema.FrozenSetKind:
		return recschema.FrozenSetOf(recschema.Any())
	case recschema.MapKind:
		return recschema.MapOf(recschema.Any(), recschema.Any())
	}
	return t
}

func inferTypeFromValue(v any) recschema.Type {
	switch v.(type) {
	case string:
		return recschema.Str()
	case bool:
		return recschema.Bool()
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return recschema.Int()
	case float32, float64:
		return recschema.Float()
	case time.Time:
		return recschema.Time()
	}
	return recschema.Any()
}

// ---- option helpers ----

func boolOpt(o recschema.Options, key string) bool {
	b, _ := o[key].(bool)
	return b
}

func setDefault(o recschema.Options, key string, v any) {
	if _, ok := o[key]; !ok {
		o[key] = v
	}
}

func metadataOf(o recschema.Options) map[string]any {
	md, _ := o[recschema.OptMetadata].(map[string]any)
	return md
}

func fieldOptions(o recschema.Options) recschema.FieldOptions {
	return recschema.FieldOptions{
		AllowNil: boolOpt(o, recschema.OptAllowNil),
		Rules:    o.Rules(),
		Metadata: metadataOf(o),
	}
}

func specFrom(t recschema.Type, f recschema.Field, o recschema.Options) *recschema.FieldSpec {
	spec := &recschema.FieldSpec{
		Type:        t,
		Field:       f,
		Required:    boolOpt(o, recschema.OptRequired),
		AllowNil:    boolOpt(o, recschema.OptAllowNil),
		LoadDefault: recschema.Missing,
		DumpDefault: recschema.Missing,
		Metadata:    metadataOf(o),
	}
	if v, ok := o[recschema.OptLoadDefault]; ok {
		spec.LoadDefault = v
	}
	if v, ok := o[recschema.OptDumpDefault]; ok {
		spec.DumpDefault = v
	}
	return spec
}
