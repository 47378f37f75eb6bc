package recschema

// Package recschema compiles record-type declarations into schemas that
// validate, load and dump data against those types.
//
// It provides:
//
// - An explicit type descriptor IR (primitives, optionals, unions, literals,
//   containers, aliases, enums, records) declared once per shape
// - A generic binding resolver substituting type variables across a record's
//   inheritance chain, including chained and defaulted variables
// - A schema compiler with cycle-breaking forward references and a bounded
//   LRU memo of compiled schemas
// - A stable error model via Issues (JSON Pointer, code, message)
//
// Design policy:
// - Keep only public contracts in the root package; the compiler, the field
//   synthesizer and the runtime fields live under dsl/.
// - Reusable validators live under rules/, messages under i18n/, wire-format
//   helpers under codec/.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	point := recschema.NewRecord("Point").
//		Field("x", recschema.Float()).
//		Field("y", recschema.Float())
//
//	s, err := dsl.ClassSchema(point)
//	v, err := s.Load(ctx, map[string]any{"x": 0, "y": 0})
//	m, err := s.Dump(ctx, v)
