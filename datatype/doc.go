// Package datatype supplies the datatype libraries used by data and
// value patterns: the RELAX NG builtin library (string and token) and
// the XML Schema datatypes library.
//
// Libraries are looked up by URI in a process-wide registry fixed at
// init. A Library compiles a named type plus facet parameters into an
// immutable Descriptor; facet errors are reported at compile time.
// Descriptors test lexical validity and value-space equality under a
// namespace Context (required only by QName).
//
// Following common validator practice, xsd:anyURI is lenient: it
// accepts any string, applying only its facets. A stricter reading of
// XSD would reject whitespace and certain characters.
package datatype
