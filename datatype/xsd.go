package datatype

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/andaru/relaxng/xmlutil"
)

// xsdLibrary is the XML Schema datatypes library.
type xsdLibrary struct{}

func (xsdLibrary) URI() string { return XSDURI }

func (xsdLibrary) Type(name string, params []Param) (Descriptor, error) {
	switch name {
	// string family: length facets count runes unless noted
	case "string":
		return compileString(name, params, nil, false, false)
	case "normalizedString", "token":
		return compileString(name, params, nil, true, false)
	case "language":
		return compileString(name, params, languageRE.MatchString, true, false)
	case "NMTOKEN":
		return compileString(name, params, isNmtoken, true, false)
	case "NMTOKENS":
		// length facets count tokens
		return compileString(name, params, func(s string) bool { return allTokens(s, isNmtoken) }, true, true)
	case "Name":
		return compileString(name, params, isName, true, false)
	case "NCName", "ID", "IDREF", "ENTITY":
		return compileString(name, params, IsNCName, true, false)
	case "IDREFS", "ENTITIES":
		return compileString(name, params, func(s string) bool { return allTokens(s, IsNCName) }, true, true)
	case "anyURI":
		// lenient: any string is an anyURI (see package comment)
		return compileString(name, params, nil, true, false)

	// integer family: implicit bounds precede user facets
	case "integer":
		return compileNumeric(name, params, true, nil, nil)
	case "nonNegativeInteger":
		return compileNumeric(name, params, true, ratInt("0"), nil)
	case "positiveInteger":
		return compileNumeric(name, params, true, ratInt("1"), nil)
	case "nonPositiveInteger":
		return compileNumeric(name, params, true, nil, ratInt("0"))
	case "negativeInteger":
		return compileNumeric(name, params, true, nil, ratInt("-1"))
	case "long":
		return compileNumeric(name, params, true, ratInt("-9223372036854775808"), ratInt("9223372036854775807"))
	case "unsignedLong":
		return compileNumeric(name, params, true, ratInt("0"), ratInt("18446744073709551615"))
	case "int":
		return compileNumeric(name, params, true, ratInt("-2147483648"), ratInt("2147483647"))
	case "unsignedInt":
		return compileNumeric(name, params, true, ratInt("0"), ratInt("4294967295"))
	case "short":
		return compileNumeric(name, params, true, ratInt("-32768"), ratInt("32767"))
	case "unsignedShort":
		return compileNumeric(name, params, true, ratInt("0"), ratInt("65535"))
	case "byte":
		return compileNumeric(name, params, true, ratInt("-128"), ratInt("127"))
	case "unsignedByte":
		return compileNumeric(name, params, true, ratInt("0"), ratInt("255"))
	case "decimal":
		return compileNumeric(name, params, false, nil, nil)

	// pattern-only lexical types
	case "boolean":
		return compileLexical(name, params, isBoolean)
	case "float", "double":
		return compileLexical(name, params, floatRE.MatchString)
	case "duration":
		return compileLexical(name, params, isDuration)
	case "dateTime":
		return compileLexical(name, params, dateTimeRE.MatchString)
	case "date":
		return compileLexical(name, params, isDate)
	case "time":
		return compileLexical(name, params, timeRE.MatchString)
	case "gYear":
		return compileLexical(name, params, gYearRE.MatchString)
	case "gYearMonth":
		return compileLexical(name, params, gYearMonthRE.MatchString)
	case "gMonth":
		return compileLexical(name, params, gMonthRE.MatchString)
	case "gMonthDay":
		return compileLexical(name, params, gMonthDayRE.MatchString)
	case "gDay":
		return compileLexical(name, params, gDayRE.MatchString)

	// binary types: length facets count octets
	case "base64Binary":
		return compileBinary(name, params, false)
	case "hexBinary":
		return compileBinary(name, params, true)

	case "QName":
		if len(params) > 0 {
			return nil, &FacetError{Type: name, Facet: params[0].Name,
				Reason: "QName does not support facets"}
		}
		return qnameType{}, nil
	}
	return nil, &UnsupportedError{Library: XSDURI, Name: name}
}

func (l xsdLibrary) CompileValue(name, lexical string, bindings map[string]string) (ValueMatcher, error) {
	if name == "QName" {
		want, ok := expandQName(lexical, mapContext(bindings))
		if !ok {
			return nil, &Error{Type: name, Reason: "cannot resolve QName value " + strconv.Quote(lexical)}
		}
		return qnameValue{want: want}, nil
	}
	d, err := l.Type(name, nil)
	if err != nil {
		return nil, err
	}
	if err := d.Valid(lexical, mapContext(bindings)); err != nil {
		return nil, err
	}
	return literalValue{d: d, lexical: lexical}, nil
}

func ratInt(s string) *big.Rat {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		panic("bad numeric literal " + s)
	}
	return r
}

// mapContext adapts schema-side prefix bindings to the Context
// interface used at validation time.
type mapContext map[string]string

func (m mapContext) ResolveNS(prefix string) (string, bool) {
	if prefix == "xml" {
		return xmlutil.XMLNamespaceURI, true
	}
	uri, ok := m[prefix]
	if !ok && prefix == "" {
		return "", true
	}
	return uri, ok
}

// xsdString covers the string family. check, when set, constrains the
// lexical space; collapse selects whitespace collapsing before any
// check; tokens switches length facets to counting tokens.
type xsdString struct {
	name     string
	check    func(string) bool
	collapse bool
	tokens   bool
	length   lengthFacet
	pattern  *patternFacet
}

func compileString(name string, params []Param, check func(string) bool, collapse, tokens bool) (Descriptor, error) {
	d := xsdString{name: name, check: check, collapse: collapse, tokens: tokens}
	for _, p := range params {
		switch p.Name {
		case "pattern":
			if d.pattern != nil {
				return nil, &FacetError{Type: name, Facet: "pattern", Reason: "facet repeated"}
			}
			pf, err := compilePattern(name, p.Value)
			if err != nil {
				return nil, err
			}
			d.pattern = pf
		default:
			if err := d.length.set(name, p.Name, p.Value); err != nil {
				return nil, err
			}
		}
	}
	return d, nil
}

func (d xsdString) Name() string { return d.name }

func (d xsdString) lexical(s string) string {
	if d.collapse {
		return xmlutil.CollapseSpace(s)
	}
	return s
}

func (d xsdString) Valid(lexical string, _ Context) error {
	s := d.lexical(lexical)
	if d.check != nil && !d.check(s) {
		return &Error{Type: d.name, Reason: "invalid " + d.name + " value"}
	}
	n := len([]rune(s))
	if d.tokens {
		n = len(xmlutil.Fields(s))
	}
	if !d.length.check(n) {
		return &Error{Type: d.name, Reason: "length out of range"}
	}
	if !d.pattern.match(s) {
		return &Error{Type: d.name, Reason: "value does not match pattern facet"}
	}
	return nil
}

func (d xsdString) Equal(a, b string, _ Context) bool {
	return d.lexical(a) == d.lexical(b)
}

// xsdNumeric covers decimal and the integer hierarchy. lo and hi are
// the type's implicit bounds; user facets can only narrow the range
// further since all constraints conjoin.
type xsdNumeric struct {
	name    string
	integer bool
	lo, hi  *big.Rat
	rng     rangeFacet
	pattern *patternFacet
	// decimal only
	fractionDigits, totalDigits *int
}

func compileNumeric(name string, params []Param, integer bool, lo, hi *big.Rat) (Descriptor, error) {
	d := xsdNumeric{name: name, integer: integer, lo: lo, hi: hi}
	for _, p := range params {
		switch p.Name {
		case "pattern":
			if d.pattern != nil {
				return nil, &FacetError{Type: name, Facet: "pattern", Reason: "facet repeated"}
			}
			pf, err := compilePattern(name, p.Value)
			if err != nil {
				return nil, err
			}
			d.pattern = pf
		case "fractionDigits", "totalDigits":
			if name != "decimal" {
				return nil, &FacetError{Type: name, Facet: p.Name, Reason: "unknown facet"}
			}
			n, err := strconv.Atoi(p.Value)
			if err != nil || n < 0 {
				return nil, &FacetError{Type: name, Facet: p.Name,
					Reason: "value must be a non-negative integer"}
			}
			if p.Name == "fractionDigits" {
				d.fractionDigits = &n
			} else {
				d.totalDigits = &n
			}
		default:
			if err := d.rng.set(name, p.Name, p.Value); err != nil {
				return nil, err
			}
		}
	}
	return d, nil
}

func (d xsdNumeric) Name() string { return d.name }

func (d xsdNumeric) parse(lexical string) (*big.Rat, bool) {
	s := xmlutil.CollapseSpace(lexical)
	if d.integer {
		if !integerRE.MatchString(s) {
			return nil, false
		}
	} else if !decimalRE.MatchString(s) {
		return nil, false
	}
	// big.Rat rejects a bare leading or trailing decimal point
	s = strings.TrimSuffix(s, ".")
	s = strings.Replace(s, "-.", "-0.", 1)
	s = strings.Replace(s, "+.", "+0.", 1)
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	return new(big.Rat).SetString(s)
}

func (d xsdNumeric) Valid(lexical string, _ Context) error {
	s := xmlutil.CollapseSpace(lexical)
	v, ok := d.parse(s)
	if !ok {
		return &Error{Type: d.name, Reason: strconv.Quote(s) + " is not a valid " + d.name}
	}
	if d.lo != nil && v.Cmp(d.lo) < 0 || d.hi != nil && v.Cmp(d.hi) > 0 {
		return &Error{Type: d.name, Reason: "value out of range for " + d.name}
	}
	if !d.rng.check(v) {
		return &Error{Type: d.name, Reason: "value outside facet range"}
	}
	if d.fractionDigits != nil || d.totalDigits != nil {
		digits := strings.TrimLeft(s, "+-")
		whole, frac, _ := strings.Cut(digits, ".")
		frac = strings.TrimRight(frac, "0")
		if d.fractionDigits != nil && len(frac) > *d.fractionDigits {
			return &Error{Type: d.name, Reason: "too many fraction digits"}
		}
		if d.totalDigits != nil && len(strings.TrimLeft(whole, "0"))+len(frac) > *d.totalDigits {
			return &Error{Type: d.name, Reason: "too many digits"}
		}
	}
	if !d.pattern.match(s) {
		return &Error{Type: d.name, Reason: "value does not match pattern facet"}
	}
	return nil
}

func (d xsdNumeric) Equal(a, b string, _ Context) bool {
	va, oka := d.parse(a)
	vb, okb := d.parse(b)
	return oka && okb && va.Cmp(vb) == 0
}

// xsdLexical covers types constrained by a lexical predicate with at
// most a pattern facet: calendar types, float, double and boolean.
type xsdLexical struct {
	name    string
	check   func(string) bool
	pattern *patternFacet
}

func compileLexical(name string, params []Param, check func(string) bool) (Descriptor, error) {
	d := xsdLexical{name: name, check: check}
	for _, p := range params {
		if p.Name != "pattern" {
			return nil, &FacetError{Type: name, Facet: p.Name, Reason: "unknown facet"}
		}
		if d.pattern != nil {
			return nil, &FacetError{Type: name, Facet: "pattern", Reason: "facet repeated"}
		}
		pf, err := compilePattern(name, p.Value)
		if err != nil {
			return nil, err
		}
		d.pattern = pf
	}
	return d, nil
}

func (d xsdLexical) Name() string { return d.name }

func (d xsdLexical) Valid(lexical string, _ Context) error {
	s := xmlutil.CollapseSpace(lexical)
	if !d.check(s) {
		return &Error{Type: d.name, Reason: strconv.Quote(s) + " is not a valid " + d.name}
	}
	if !d.pattern.match(s) {
		return &Error{Type: d.name, Reason: "value does not match pattern facet"}
	}
	return nil
}

func (d xsdLexical) Equal(a, b string, _ Context) bool {
	ca, cb := xmlutil.CollapseSpace(a), xmlutil.CollapseSpace(b)
	if d.name == "boolean" {
		return booleanCanon(ca) == booleanCanon(cb)
	}
	return ca == cb
}

func booleanCanon(s string) string {
	switch s {
	case "1":
		return "true"
	case "0":
		return "false"
	}
	return s
}

// xsdBinary covers hexBinary and base64Binary; length facets count
// decoded octets.
type xsdBinary struct {
	name   string
	hex    bool
	length lengthFacet
}

func compileBinary(name string, params []Param, hex bool) (Descriptor, error) {
	d := xsdBinary{name: name, hex: hex}
	for _, p := range params {
		if err := d.length.set(name, p.Name, p.Value); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d xsdBinary) Name() string { return d.name }

func (d xsdBinary) Valid(lexical string, _ Context) error {
	s := xmlutil.CollapseSpace(lexical)
	var octets int
	if d.hex {
		if !hexBinaryRE.MatchString(s) {
			return &Error{Type: d.name, Reason: "invalid hexBinary value"}
		}
		octets = len(s) / 2
	} else {
		if !base64RE.MatchString(s) {
			return &Error{Type: d.name, Reason: "invalid base64Binary value"}
		}
		octets = base64DecodedLen(s)
	}
	if !d.length.check(octets) {
		return &Error{Type: d.name, Reason: "length out of range"}
	}
	return nil
}

func (d xsdBinary) Equal(a, b string, _ Context) bool {
	ca, cb := xmlutil.CollapseSpace(a), xmlutil.CollapseSpace(b)
	if d.hex {
		return strings.EqualFold(ca, cb)
	}
	return ca == cb
}

// qnameType validates QName syntax; prefix resolution happens against
// the in-scope bindings of the value's location.
type qnameType struct{}

func (qnameType) Name() string { return "QName" }

func (qnameType) Valid(lexical string, ctx Context) error {
	s := xmlutil.CollapseSpace(lexical)
	if !isQNameSyntax(s) {
		return &Error{Type: "QName", Reason: strconv.Quote(s) + " is not a valid QName"}
	}
	if prefix, _, ok := strings.Cut(s, ":"); ok && ctx != nil {
		if _, bound := ctx.ResolveNS(prefix); !bound {
			return &Error{Type: "QName", Reason: "undefined namespace prefix " + strconv.Quote(prefix)}
		}
	}
	return nil
}

func (q qnameType) Equal(a, b string, ctx Context) bool {
	qa, oka := expandQName(a, ctx)
	qb, okb := expandQName(b, ctx)
	return oka && okb && qa == qb
}

// expandQName resolves lexical's prefix (or the default namespace for
// an unprefixed name) against ctx, returning the expanded name.
func expandQName(lexical string, ctx Context) (xmlutil.Name, bool) {
	s := xmlutil.CollapseSpace(lexical)
	prefix, local, hasPrefix := strings.Cut(s, ":")
	if !hasPrefix {
		prefix, local = "", s
	}
	if !isQNameSyntax(s) || ctx == nil {
		return xmlutil.Name{}, false
	}
	uri, ok := ctx.ResolveNS(prefix)
	if !ok {
		return xmlutil.Name{}, false
	}
	return xmlutil.Name{NS: uri, Local: local}, true
}

// qnameValue matches a QName value pattern: the schema-side name is
// expanded at compile time, the document value at match time.
type qnameValue struct {
	want xmlutil.Name
}

func (v qnameValue) Match(lexical string, ctx Context) bool {
	got, ok := expandQName(lexical, ctx)
	return ok && got == v.want
}
