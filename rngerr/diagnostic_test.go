package rngerr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiagnostic(t *testing.T) {
	span := Span{File: "a.rng", Line: 3, Column: 7, EndLine: 3, EndColumn: 12}
	for _, tc := range []struct {
		diag *Diagnostic

		error string
		json  string
	}{
		{
			diag:  UnresolvedRef("item", WithSpan(span)),
			error: `error unresolved-ref at a.rng:3:7 no definition for "item"`,
			json:  `{"severity":"error","kind":"unresolved-ref","span":{"file":"a.rng","line":3,"column":7,"end-line":3,"end-column":12},"message":"no definition for \"item\""}`,
		},

		{
			diag:  Restriction(RuleInterleaveTextOverlap, WithMessage("text on both sides")),
			error: "error restriction-violation rule:interleave-text-overlap text on both sides",
			json:  `{"severity":"error","kind":"restriction-violation","rule":"interleave-text-overlap","message":"text on both sides"}`,
		},

		{
			diag:  DatatypeError("not a positiveInteger"),
			error: "error datatype-error not a positiveInteger",
			json:  `{"severity":"error","kind":"datatype-error","message":"not a positiveInteger"}`,
		},

		{
			diag:  IncompatibleCombine("x", WithSeverity(SeverityWarning)),
			error: `warning incompatible-combine conflicting combine modes for "x"`,
			json:  `{"severity":"warning","kind":"incompatible-combine","message":"conflicting combine modes for \"x\""}`,
		},
	} {
		t.Run(tc.diag.Kind.String(), func(t *testing.T) {
			a := assert.New(t)
			a.Equal(tc.error, tc.diag.Error())
			b, err := json.Marshal(tc.diag)
			a.NoError(err)
			a.JSONEq(tc.json, string(b))
		})
	}
}

func TestKindRoundTrip(t *testing.T) {
	a := assert.New(t)
	for kind := range kindNames {
		text, err := kind.MarshalText()
		a.NoError(err)
		var got Kind
		a.NoError(got.UnmarshalText(text))
		a.Equal(kind, got)
	}
	var k Kind
	a.Error(k.UnmarshalText([]byte("bogus")))
}

func TestDiagnostics(t *testing.T) {
	a := assert.New(t)
	var ds Diagnostics
	a.False(ds.HasErrors())
	a.NoError(ds.ErrOrNil())

	ds = append(ds, UnexpectedText(), UnexpectedElement("x"))
	a.True(ds.HasErrors())
	a.Error(ds.ErrOrNil())
	a.Contains(ds.Error(), "and 1 more")

	warnOnly := Diagnostics{ParseError("eh", WithSeverity(SeverityWarning))}
	a.False(warnOnly.HasErrors())
	a.NoError(warnOnly.ErrOrNil())
}
