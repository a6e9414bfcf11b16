package datatype

import "github.com/andaru/relaxng/xmlutil"

// builtinLibrary is the RELAX NG builtin datatype library: string and
// token, neither taking parameters.
type builtinLibrary struct{}

func (builtinLibrary) URI() string { return BuiltinURI }

func (builtinLibrary) Type(name string, params []Param) (Descriptor, error) {
	if len(params) > 0 {
		return nil, &FacetError{Type: name, Facet: params[0].Name,
			Reason: "builtin types take no parameters"}
	}
	switch name {
	case "string":
		return builtinString{}, nil
	case "token":
		return builtinToken{}, nil
	}
	return nil, &UnsupportedError{Library: BuiltinURI, Name: name}
}

func (l builtinLibrary) CompileValue(name, lexical string, bindings map[string]string) (ValueMatcher, error) {
	d, err := l.Type(name, nil)
	if err != nil {
		return nil, err
	}
	return literalValue{d: d, lexical: lexical}, nil
}

// builtinString accepts any text; equality is codepoint equality.
type builtinString struct{}

func (builtinString) Name() string                      { return "string" }
func (builtinString) Valid(string, Context) error       { return nil }
func (builtinString) Equal(a, b string, _ Context) bool { return a == b }

// builtinToken accepts any text; equality is whitespace-collapsed.
type builtinToken struct{}

func (builtinToken) Name() string                { return "token" }
func (builtinToken) Valid(string, Context) error { return nil }
func (builtinToken) Equal(a, b string, _ Context) bool {
	return xmlutil.CollapseSpace(a) == xmlutil.CollapseSpace(b)
}

// literalValue matches document values via the descriptor's value
// equality against a fixed schema-side lexical form.
type literalValue struct {
	d       Descriptor
	lexical string
}

func (v literalValue) Match(lexical string, ctx Context) bool {
	return v.d.Valid(lexical, ctx) == nil && v.d.Equal(v.lexical, lexical, ctx)
}
