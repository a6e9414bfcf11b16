package datatype

import "fmt"

// BuiltinURI is the RELAX NG builtin library URI (the empty string).
const BuiltinURI = ""

// XSDURI is the XML Schema datatypes library URI.
const XSDURI = "http://www.w3.org/2001/XMLSchema-datatypes"

// Param is a facet parameter from a data pattern.
type Param struct {
	Name  string
	Value string
}

// Context supplies the namespace bindings in scope at the point a
// lexical value appears. Only QName-valued datatypes consult it.
type Context interface {
	// ResolveNS returns the URI bound to prefix, reporting whether a
	// binding exists. The empty prefix resolves to the default
	// namespace (possibly the empty URI).
	ResolveNS(prefix string) (string, bool)
}

// Descriptor is a compiled datatype: a library type with its facet
// parameters applied and checked.
type Descriptor interface {
	// Name returns the datatype name within its library.
	Name() string
	// Valid returns nil when lexical denotes a value of the type, and
	// a *Error describing the failure otherwise.
	Valid(lexical string, ctx Context) error
	// Equal reports value-space equality of two lexical forms, both
	// interpreted under ctx.
	Equal(a, b string, ctx Context) bool
}

// ValueMatcher matches document values against a value pattern whose
// schema-side lexical form was compiled with its own bindings.
type ValueMatcher interface {
	Match(lexical string, ctx Context) bool
}

// Library compiles descriptors for one datatype library.
type Library interface {
	// URI returns the library identity.
	URI() string
	// Type compiles the named datatype under params. Facet parameters
	// are validated here: unknown names, unparsable or conflicting
	// values return a *FacetError; unknown types a *UnsupportedError.
	Type(name string, params []Param) (Descriptor, error)
	// CompileValue compiles a value-pattern matcher for the named
	// type from its schema-side lexical form. bindings carries the
	// schema-side prefix bindings for QName values.
	CompileValue(name, lexical string, bindings map[string]string) (ValueMatcher, error)
}

var registry = map[string]Library{
	BuiltinURI: builtinLibrary{},
	XSDURI:     xsdLibrary{},
}

// Lookup returns the library registered for uri.
func Lookup(uri string) (Library, bool) {
	lib, ok := registry[uri]
	return lib, ok
}

// Error reports a lexical value rejected by a datatype, or a value
// unusable at validation time.
type Error struct {
	Type   string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("datatype %s: %s", e.Type, e.Reason)
}

// UnsupportedError reports a datatype the library does not supply.
type UnsupportedError struct {
	Library string
	Name    string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("datatype %q not supported by library %q", e.Name, e.Library)
}

// FacetError reports an invalid facet parameter at compile time.
type FacetError struct {
	Type   string
	Facet  string
	Reason string
}

func (e *FacetError) Error() string {
	return fmt.Sprintf("datatype %s: facet %s: %s", e.Type, e.Facet, e.Reason)
}
