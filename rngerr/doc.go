// Package rngerr defines the diagnostics reported by the schema
// compiler, the restriction checker and the instance validator.
//
// A Diagnostic carries a severity, a kind naming the error category,
// an optional section 7 rule sub-code, a source span and a message.
// Constructors are provided for each category; functional options
// attach spans and messages:
//
//	d := rngerr.UnresolvedRef("item", rngerr.WithSpan(span))
package rngerr
