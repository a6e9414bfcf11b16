package datatype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustType(t *testing.T, name string, params ...Param) Descriptor {
	t.Helper()
	lib, ok := Lookup(XSDURI)
	require.True(t, ok)
	d, err := lib.Type(name, params)
	require.NoError(t, err)
	return d
}

func TestXSDValid(t *testing.T) {
	for _, tc := range []struct {
		typ    string
		params []Param
		valid  []string
		bad    []string
	}{
		{typ: "string", valid: []string{"", "anything at all", " \t "}},
		{typ: "boolean", valid: []string{"true", "false", "1", "0", " true "}, bad: []string{"TRUE", "yes", ""}},
		{typ: "integer", valid: []string{"0", "-1", "+42", "01", "12345678901234567890123456789"}, bad: []string{"", "1.0", "1e2", "one"}},
		{typ: "positiveInteger", valid: []string{"1", "0001", "99"}, bad: []string{"0", "-1", ""}},
		{typ: "negativeInteger", valid: []string{"-1", "-99"}, bad: []string{"0", "1"}},
		{typ: "nonNegativeInteger", valid: []string{"0", "7"}, bad: []string{"-1"}},
		{typ: "nonPositiveInteger", valid: []string{"0", "-7"}, bad: []string{"1"}},
		{typ: "byte", valid: []string{"-128", "127"}, bad: []string{"-129", "128"}},
		{typ: "unsignedByte", valid: []string{"0", "255"}, bad: []string{"-1", "256"}},
		{typ: "short", valid: []string{"-32768", "32767"}, bad: []string{"32768"}},
		{typ: "unsignedShort", valid: []string{"65535"}, bad: []string{"65536"}},
		{typ: "int", valid: []string{"-2147483648", "2147483647"}, bad: []string{"2147483648"}},
		{typ: "unsignedInt", valid: []string{"4294967295"}, bad: []string{"4294967296"}},
		{typ: "long", valid: []string{"-9223372036854775808", "9223372036854775807"}, bad: []string{"9223372036854775808"}},
		{typ: "unsignedLong", valid: []string{"18446744073709551615"}, bad: []string{"18446744073709551616", "-1"}},
		{typ: "decimal", valid: []string{"1.5", "-.5", "3.", "007"}, bad: []string{"1e5", "1/2", ""}},
		{typ: "double", valid: []string{"1.5e10", "-INF", "INF", "NaN", "-0"}, bad: []string{"inf", "0x1p2", ""}},
		{typ: "float", valid: []string{"3.14", "1E3"}, bad: []string{"nan"}},
		{typ: "duration", valid: []string{"P1Y", "-P30D", "PT1.5S", "P1YT2H"}, bad: []string{"P", "PT", "1Y", ""}},
		{typ: "dateTime", valid: []string{"2024-01-02T03:04:05", "2024-01-02T03:04:05.5Z", "-0100-01-02T03:04:05+05:00"}, bad: []string{"2024-01-02", "03:04:05"}},
		{typ: "date", valid: []string{"2024-02-29", "2024-01-02Z"}, bad: []string{"2023-02-29", "2024-13-01", "24-01-01"}},
		{typ: "time", valid: []string{"23:59:59", "00:00:00.5Z"}, bad: []string{"24:00"}},
		{typ: "gYear", valid: []string{"2024", "-0042", "10000"}, bad: []string{"99", "2024-01"}},
		{typ: "gYearMonth", valid: []string{"2024-05"}, bad: []string{"2024"}},
		{typ: "gMonth", valid: []string{"--05"}, bad: []string{"05", "--5"}},
		{typ: "gMonthDay", valid: []string{"--05-31"}, bad: []string{"05-31"}},
		{typ: "gDay", valid: []string{"---31"}, bad: []string{"31", "--31"}},
		{typ: "hexBinary", valid: []string{"", "0fB8"}, bad: []string{"0fB", "zz"}},
		{typ: "base64Binary", valid: []string{"", "aGVsbG8=", "aGVs bG8="}, bad: []string{"a===", "!!"}},
		{typ: "language", valid: []string{"en", "en-US", "x-klingon"}, bad: []string{"", "toolongtag99", "en--us"}},
		{typ: "NMTOKEN", valid: []string{"a:b", "-dash", "1leading"}, bad: []string{"", "two tokens"}},
		{typ: "NMTOKENS", valid: []string{"one", "one two"}, bad: []string{""}},
		{typ: "Name", valid: []string{"a:b", "_x"}, bad: []string{"-dash", "1x"}},
		{typ: "NCName", valid: []string{"foo", "f.o-o"}, bad: []string{"a:b", "1x", ""}},
		{typ: "ID", valid: []string{"id1"}, bad: []string{"two words"}},
		{typ: "IDREFS", valid: []string{"a b c"}, bad: []string{"", "a b:c"}},
		{typ: "ENTITY", valid: []string{"ent"}, bad: []string{"a b"}},
		{typ: "anyURI", valid: []string{"", "http://example.com/{}", "not a uri at all"}},
		{typ: "QName", valid: []string{"local", "xml:lang"}, bad: []string{":x", "a:b:c", "1x"}},
	} {
		t.Run(tc.typ, func(t *testing.T) {
			d := mustType(t, tc.typ, tc.params...)
			for _, v := range tc.valid {
				assert.NoError(t, d.Valid(v, nil), "value %q", v)
			}
			for _, v := range tc.bad {
				assert.Error(t, d.Valid(v, nil), "value %q", v)
			}
		})
	}
}

func TestXSDFacets(t *testing.T) {
	a := assert.New(t)

	// pattern facets anchor to the whole lexical value
	d := mustType(t, "string", Param{Name: "pattern", Value: "[A-Z]{2}-[0-9]{4}"})
	a.NoError(d.Valid("AB-1234", nil))
	a.Error(d.Valid("AB-12345", nil))
	a.Error(d.Valid("xAB-1234", nil))

	// user facets tighten implicit bounds
	d = mustType(t, "positiveInteger", Param{Name: "maxInclusive", Value: "10"})
	a.NoError(d.Valid("10", nil))
	a.Error(d.Valid("11", nil))
	a.Error(d.Valid("0", nil))

	d = mustType(t, "integer",
		Param{Name: "minExclusive", Value: "0"},
		Param{Name: "maxInclusive", Value: "5"})
	a.Error(d.Valid("0", nil))
	a.NoError(d.Valid("1", nil))
	a.NoError(d.Valid("5", nil))
	a.Error(d.Valid("6", nil))

	d = mustType(t, "string", Param{Name: "minLength", Value: "2"}, Param{Name: "maxLength", Value: "3"})
	a.Error(d.Valid("x", nil))
	a.NoError(d.Valid("xyz", nil))
	a.Error(d.Valid("wxyz", nil))

	// NMTOKENS lengths count tokens, binary lengths count octets
	d = mustType(t, "NMTOKENS", Param{Name: "length", Value: "2"})
	a.NoError(d.Valid("one two", nil))
	a.Error(d.Valid("one", nil))

	d = mustType(t, "hexBinary", Param{Name: "length", Value: "2"})
	a.NoError(d.Valid("cafe", nil))
	a.Error(d.Valid("ca", nil))

	d = mustType(t, "base64Binary", Param{Name: "length", Value: "5"})
	a.NoError(d.Valid("aGVsbG8=", nil))

	d = mustType(t, "decimal", Param{Name: "fractionDigits", Value: "2"})
	a.NoError(d.Valid("3.14", nil))
	a.NoError(d.Valid("3.140", nil))
	a.Error(d.Valid("3.141", nil))
}

func TestXSDFacetErrors(t *testing.T) {
	lib, _ := Lookup(XSDURI)
	for _, tc := range []struct {
		typ    string
		params []Param
	}{
		{typ: "nosuchtype"},
		{typ: "integer", params: []Param{{Name: "length", Value: "3"}}},
		{typ: "string", params: []Param{{Name: "minInclusive", Value: "1"}}},
		{typ: "string", params: []Param{{Name: "minLength", Value: "-1"}}},
		{typ: "string", params: []Param{{Name: "minLength", Value: "5"}, {Name: "maxLength", Value: "2"}}},
		{typ: "string", params: []Param{{Name: "length", Value: "1"}, {Name: "minLength", Value: "1"}}},
		{typ: "string", params: []Param{{Name: "pattern", Value: "("}}},
		{typ: "integer", params: []Param{{Name: "minInclusive", Value: "5"}, {Name: "maxInclusive", Value: "1"}}},
		{typ: "integer", params: []Param{{Name: "minInclusive", Value: "1"}, {Name: "minExclusive", Value: "2"}}},
		{typ: "boolean", params: []Param{{Name: "maxLength", Value: "3"}}},
		{typ: "QName", params: []Param{{Name: "pattern", Value: "x"}}},
	} {
		_, err := lib.Type(tc.typ, tc.params)
		assert.Error(t, err, "type %s params %v", tc.typ, tc.params)
	}
}

func TestXSDValueEquality(t *testing.T) {
	a := assert.New(t)

	a.True(mustType(t, "integer").Equal("01", "1", nil))
	a.True(mustType(t, "decimal").Equal("1.50", "1.5", nil))
	a.False(mustType(t, "integer").Equal("1", "2", nil))
	a.True(mustType(t, "boolean").Equal("1", "true", nil))
	a.True(mustType(t, "token").Equal(" a  b ", "a b", nil))
	a.False(mustType(t, "string").Equal(" a", "a", nil))
	a.True(mustType(t, "hexBinary").Equal("CAFE", "cafe", nil))
}

func TestXSDQNameValue(t *testing.T) {
	a := assert.New(t)
	lib, _ := Lookup(XSDURI)

	m, err := lib.CompileValue("QName", "p:item", map[string]string{"p": "urn:x"})
	a.NoError(err)

	// same expanded name under a different document prefix
	a.True(m.Match("q:item", mapContext{"q": "urn:x"}))
	a.False(m.Match("q:item", mapContext{"q": "urn:y"}))
	a.False(m.Match("q:other", mapContext{"q": "urn:x"}))
	// undefined prefix never matches
	a.False(m.Match("r:item", mapContext{}))

	// unprefixed values resolve against the default namespace
	m, err = lib.CompileValue("QName", "item", map[string]string{"": "urn:d"})
	a.NoError(err)
	a.True(m.Match("d:item", mapContext{"d": "urn:d"}))
	a.False(m.Match("item", mapContext{}))

	_, err = lib.CompileValue("QName", "bad:item", nil)
	a.Error(err)
}

func TestBuiltinLibrary(t *testing.T) {
	a := assert.New(t)
	lib, ok := Lookup(BuiltinURI)
	a.True(ok)

	str, err := lib.Type("string", nil)
	a.NoError(err)
	a.NoError(str.Valid("anything", nil))
	a.True(str.Equal("a b", "a b", nil))
	a.False(str.Equal("a  b", "a b", nil))

	tok, err := lib.Type("token", nil)
	a.NoError(err)
	a.True(tok.Equal(" a  b ", "a b", nil))

	_, err = lib.Type("integer", nil)
	a.Error(err)
	_, err = lib.Type("string", []Param{{Name: "length", Value: "1"}})
	a.Error(err)

	m, err := lib.CompileValue("token", "one", nil)
	a.NoError(err)
	a.True(m.Match(" one ", nil))
	a.False(m.Match("two", nil))
}
