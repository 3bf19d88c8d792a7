// Package contentschema provides a reusable library for defining typed
// content models at runtime: named models with ordered, typed fields,
// directed relations between models, and validation rules bound to fields.
//
// It exposes a single Service interface that orchestrates schema mutation.
// Editing a model replaces its entire field list in one atomic step; field
// positions always form a dense 0..N-1 sequence after a successful mutation,
// and relation/rule registries are kept consistent when models or fields are
// deleted. Repository implementations (memory, Postgres) are provided under
// repo/.
//
// Settings Strategy
//
// Field and rule settings are closed-tag payloads: each FieldType and
// RuleType declares which settings keys it accepts and their shapes, and
// both share one validation mechanism. Model-level Settings are an open,
// uninterpreted map; that looseness deliberately does not extend to field or
// rule settings.
package contentschema
