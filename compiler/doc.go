// Package compiler transforms a parsed schema AST into the simplified
// model graph consumed by the validator.
//
// Compilation resolves include and externalRef through a Resolver
// callback (detecting resolution cycles by canonical file identity),
// assembles grammars with combine folding and include override
// semantics, applies the simplification rewrites, and instantiates
// datatype descriptors, validating facets as it goes.
//
// Diagnostics accumulate: the compiler produces as many errors as it
// can attribute unambiguously rather than stopping at the first.
package compiler
