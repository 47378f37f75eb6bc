package dsl

// Package dsl hosts the schema compiler: ClassSchema and ForStruct entry
// points, the resolution context threaded through recursive compilations, the
// field synthesizer dispatching over descriptor shapes, and the runtime field
// implementations (primitives, containers, nested records, unions, enums).
//
// The root package holds the contracts (descriptors, record declarations,
// FieldSpec, Schema, Issues); this package turns declarations into compiled
// schemas.
