package recschema

// ResolvedField is one entry of the variable-free field list produced by
// ResolveFields.
type ResolvedField struct {
	Decl FieldDecl
	Type Type // concrete: contains no type variables
}

// binding is the substitution map for one resolution step: the record's own
// type variables to the (possibly still variable) types supplied by the more
// specific declaration.
type binding map[*TypeVar]Type

// ResolveFields computes the ordered field list of a record type with every
// type variable replaced by its concrete binding.
//
// Ordering follows inheritance declaration order: ancestor fields first in ancestor
// order, then own fields; a field re-declared deeper in the chain keeps the
// position of its earliest declaration and takes the type and metadata of the
// most specific one.
//
// Bindings accumulate along the inheritance chain: parametrizing an ancestor
// with a type variable of the deriving record carries the substitution
// forward rather than resolving it immediately. After the full chain is
// processed, leftover variables fall back to their declared defaults (which
// may themselves reference other variables); anything still unresolved is an
// UnboundTypeVarError naming the record and the offending fields.
//
// ResolveFields is a pure function over the record-type graph.
func ResolveFields(rec *RecordType, args []Type) ([]ResolvedField, error) {
	if len(args) > len(rec.Params) {
		return nil, Configf("%s expects at most %d type arguments, got %d", rec.Name, len(rec.Params), len(args))
	}
	subst := make(binding, len(args))
	for i, a := range args {
		subst[rec.Params[i]] = a
	}
	acc := &fieldAcc{byName: map[string]int{}}
	if err := collectFields(rec, subst, acc); err != nil {
		return nil, err
	}
	out := make([]ResolvedField, 0, len(acc.fields))
	var unbound []string
	for _, f := range acc.fields {
		t, ok := finalizeType(f.Type, subst, nil)
		if !ok {
			unbound = append(unbound, f.Decl.Name)
			continue
		}
		out = append(out, ResolvedField{Decl: f.Decl, Type: t})
	}
	if len(unbound) > 0 {
		return nil, &UnboundTypeVarError{Record: rec.Name, Fields: unbound}
	}
	return out, nil
}

type fieldAcc struct {
	fields []ResolvedField
	byName map[string]int
}

func collectFields(rec *RecordType, subst binding, acc *fieldAcc) error {
	for _, base := range rec.Bases {
		if len(base.Args) > len(base.Rec.Params) {
			return Configf("%s expects at most %d type arguments, got %d", base.Rec.Name, len(base.Rec.Params), len(base.Args))
		}
		baseSubst := make(binding, len(base.Args))
		for i, arg := range base.Args {
			// chain forward: an argument that is itself a variable of the
			// deriving record stays a variable until an outer step binds it
			baseSubst[base.Rec.Params[i]] = substituteType(arg, subst)
		}
		if err := collectFields(base.Rec, baseSubst, acc); err != nil {
			return err
		}
	}
	for _, d := range rec.Fields {
		t := substituteType(d.Type, subst)
		if i, ok := acc.byName[d.Name]; ok {
			// override keeps the inherited position
			acc.fields[i] = ResolvedField{Decl: d, Type: t}
			continue
		}
		acc.byName[d.Name] = len(acc.fields)
		acc.fields = append(acc.fields, ResolvedField{Decl: d, Type: t})
	}
	return nil
}

// substituteType rewrites t through subst, leaving unbound variables in
// place. Interning in the constructors keeps rewritten shapes canonical.
func substituteType(t Type, subst binding) Type {
	if len(subst) == 0 {
		return t
	}
	switch v := t.(type) {
	case *TypeVar:
		if b, ok := subst[v]; ok {
			return b
		}
		return v
	case *Union:
		return UnionOf(substituteAll(v.Alts, subst)...)
	case *Container:
		if len(v.Args) == 0 {
			return v
		}
		return containerOf(v.CKind, substituteAll(v.Args, subst))
	case *Final:
		if v.Elem == nil {
			return v
		}
		return FinalOf(substituteType(v.Elem, subst))
	case *Annotated:
		return &Annotated{Elem: substituteType(v.Elem, subst), Anns: v.Anns}
	case *RecordInst:
		return &RecordInst{Rec: v.Rec, Args: substituteAll(v.Args, subst)}
	}
	return t
}

func substituteAll(ts []Type, subst binding) []Type {
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = substituteType(t, subst)
	}
	return out
}

// finalizeType resolves leftover variables through their bindings and
// defaults. The visited set turns binding and default chains that loop back
// on themselves into a deterministic unbound result instead of unbounded
// recursion.
func finalizeType(t Type, subst binding, visited map[*TypeVar]bool) (Type, bool) {
	switch v := t.(type) {
	case *TypeVar:
		if visited[v] {
			return nil, false
		}
		next := make(map[*TypeVar]bool, len(visited)+1)
		for k := range visited {
			next[k] = true
		}
		next[v] = true
		if b, ok := subst[v]; ok && b != Type(v) {
			return finalizeType(b, subst, next)
		}
		if v.Default == nil {
			return nil, false
		}
		return finalizeType(v.Default, subst, next)
	case *Union:
		alts, ok := finalizeAll(v.Alts, subst, visited)
		if !ok {
			return nil, false
		}
		return UnionOf(alts...), true
	case *Container:
		if len(v.Args) == 0 {
			return v, true
		}
		args, ok := finalizeAll(v.Args, subst, visited)
		if !ok {
			return nil, false
		}
		return containerOf(v.CKind, args), true
	case *Final:
		if v.Elem == nil {
			return v, true
		}
		elem, ok := finalizeType(v.Elem, subst, visited)
		if !ok {
			return nil, false
		}
		return FinalOf(elem), true
	case *Annotated:
		elem, ok := finalizeType(v.Elem, subst, visited)
		if !ok {
			return nil, false
		}
		return &Annotated{Elem: elem, Anns: v.Anns}, true
	case *RecordInst:
		args, ok := finalizeAll(v.Args, subst, visited)
		if !ok {
			return nil, false
		}
		return &RecordInst{Rec: v.Rec, Args: args}, true
	}
	return t, true
}

func finalizeAll(ts []Type, subst binding, visited map[*TypeVar]bool) ([]Type, bool) {
	out := make([]Type, len(ts))
	for i, t := range ts {
		ft, ok := finalizeType(t, subst, visited)
		if !ok {
			return nil, false
		}
		out[i] = ft
	}
	return out, true
}

// ContainsTypeVar reports whether any type variable remains reachable in t.
func ContainsTypeVar(t Type) bool {
	switch v := t.(type) {
	case *TypeVar:
		return true
	case *Union:
		for _, a := range v.Alts {
			if ContainsTypeVar(a) {
				return true
			}
		}
	case *Container:
		for _, a := range v.Args {
			if ContainsTypeVar(a) {
				return true
			}
		}
	case *Final:
		return v.Elem != nil && ContainsTypeVar(v.Elem)
	case *Annotated:
		return ContainsTypeVar(v.Elem)
	case *RecordInst:
		for _, a := range v.Args {
			if ContainsTypeVar(a) {
				return true
			}
		}
	}
	return false
}
