// Package xmlutil provides qualified name and XML namespace utilities
// shared by the schema compiler and the instance validator.
//
// A Name is an expanded (namespace URI, local name) pair; prefixes are
// resolved to URIs before a Name is built. PrefixMap and Scope track
// in-scope prefix bindings, with Scope layering bindings per open
// element as a document is streamed.
package xmlutil
