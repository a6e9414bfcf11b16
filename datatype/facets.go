package datatype

import (
	"math/big"
	"regexp"
	"strconv"
)

// lengthFacet accumulates length, minLength and maxLength parameters.
// The unit measured (runes, tokens, octets) is the caller's concern.
type lengthFacet struct {
	length *int
	min    *int
	max    *int
}

func (f *lengthFacet) set(typeName, facet string, value string) *FacetError {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return &FacetError{Type: typeName, Facet: facet,
			Reason: "value must be a non-negative integer"}
	}
	var slot **int
	switch facet {
	case "length":
		slot = &f.length
	case "minLength":
		slot = &f.min
	case "maxLength":
		slot = &f.max
	default:
		return &FacetError{Type: typeName, Facet: facet, Reason: "unknown facet"}
	}
	if *slot != nil {
		return &FacetError{Type: typeName, Facet: facet, Reason: "facet repeated"}
	}
	*slot = &n
	if f.length != nil && (f.min != nil || f.max != nil) {
		return &FacetError{Type: typeName, Facet: facet,
			Reason: "length conflicts with minLength/maxLength"}
	}
	if f.min != nil && f.max != nil && *f.min > *f.max {
		return &FacetError{Type: typeName, Facet: facet,
			Reason: "minLength greater than maxLength"}
	}
	return nil
}

func (f *lengthFacet) check(n int) bool {
	if f.length != nil && n != *f.length {
		return false
	}
	if f.min != nil && n < *f.min {
		return false
	}
	if f.max != nil && n > *f.max {
		return false
	}
	return true
}

// rangeFacet accumulates the four bound parameters over an ordered
// numeric value space. All numeric types share it via *big.Rat.
type rangeFacet struct {
	min, max       *big.Rat
	minExc, maxExc bool
}

func (f *rangeFacet) set(typeName, facet string, value string) *FacetError {
	v, ok := new(big.Rat).SetString(value)
	if !ok {
		return &FacetError{Type: typeName, Facet: facet, Reason: "value is not numeric"}
	}
	switch facet {
	case "minInclusive", "minExclusive":
		if f.min != nil {
			return &FacetError{Type: typeName, Facet: facet, Reason: "lower bound already set"}
		}
		f.min, f.minExc = v, facet == "minExclusive"
	case "maxInclusive", "maxExclusive":
		if f.max != nil {
			return &FacetError{Type: typeName, Facet: facet, Reason: "upper bound already set"}
		}
		f.max, f.maxExc = v, facet == "maxExclusive"
	default:
		return &FacetError{Type: typeName, Facet: facet, Reason: "unknown facet"}
	}
	if f.min != nil && f.max != nil {
		if cmp := f.min.Cmp(f.max); cmp > 0 || (cmp == 0 && (f.minExc || f.maxExc)) {
			return &FacetError{Type: typeName, Facet: facet,
				Reason: "lower bound conflicts with upper bound"}
		}
	}
	return nil
}

func (f *rangeFacet) check(v *big.Rat) bool {
	if f.min != nil {
		if cmp := v.Cmp(f.min); cmp < 0 || (cmp == 0 && f.minExc) {
			return false
		}
	}
	if f.max != nil {
		if cmp := v.Cmp(f.max); cmp > 0 || (cmp == 0 && f.maxExc) {
			return false
		}
	}
	return true
}

// patternFacet is a compiled pattern parameter. The expression is
// anchored so the whole lexical value must match; substring matches
// admit invalid input.
type patternFacet struct {
	expr string
	re   *regexp.Regexp
}

func compilePattern(typeName, expr string) (*patternFacet, *FacetError) {
	re, err := regexp.Compile("^(?:" + expr + ")$")
	if err != nil {
		return nil, &FacetError{Type: typeName, Facet: "pattern", Reason: err.Error()}
	}
	return &patternFacet{expr: expr, re: re}, nil
}

func (p *patternFacet) match(s string) bool {
	if p == nil {
		return true
	}
	return p.re.MatchString(s)
}
