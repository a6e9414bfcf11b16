package compiler

import (
	"github.com/andaru/relaxng/model"
	"github.com/andaru/relaxng/rngerr"
	"github.com/andaru/relaxng/xmlutil"
)

// Simplification rewrites, applied as smart constructors. Patterns
// are built bottom-up, so each rule holds for all sub-patterns when a
// node is constructed and the result is already a fixed point of the
// rewrite system. Ref bodies are left alone: notAllowed behind a
// cycle is absorbed by the validator's derivative algebra instead.

func isNotAllowed(p model.Pattern) bool {
	_, ok := p.(*model.NotAllowed)
	return ok
}

func isEmpty(p model.Pattern) bool {
	_, ok := p.(*model.Empty)
	return ok
}

func choice(l, r model.Pattern, loc rngerr.Span) model.Pattern {
	switch {
	case isNotAllowed(l):
		return r
	case isNotAllowed(r):
		return l
	case isEmpty(l) && isEmpty(r):
		return l
	}
	return model.At(&model.Choice{L: l, R: r}, loc)
}

func group(l, r model.Pattern, loc rngerr.Span) model.Pattern {
	switch {
	case isNotAllowed(l) || isNotAllowed(r):
		return model.At(&model.NotAllowed{}, loc)
	case isEmpty(l):
		return r
	case isEmpty(r):
		return l
	}
	return model.At(&model.Group{L: l, R: r}, loc)
}

func interleave(l, r model.Pattern, loc rngerr.Span) model.Pattern {
	switch {
	case isNotAllowed(l) || isNotAllowed(r):
		return model.At(&model.NotAllowed{}, loc)
	case isEmpty(l):
		return r
	case isEmpty(r):
		return l
	}
	return model.At(&model.Interleave{L: l, R: r}, loc)
}

func oneOrMore(p model.Pattern, loc rngerr.Span) model.Pattern {
	if isNotAllowed(p) || isEmpty(p) {
		return p
	}
	return model.At(&model.OneOrMore{P: p}, loc)
}

func list(p model.Pattern, loc rngerr.Span) model.Pattern {
	if isNotAllowed(p) {
		return p
	}
	return model.At(&model.List{P: p}, loc)
}

func attribute(nc model.NameClass, value model.Pattern, loc rngerr.Span) model.Pattern {
	// an attribute whose value pattern is notAllowed can never match
	if isNotAllowed(value) {
		return model.At(&model.NotAllowed{}, loc)
	}
	return model.At(&model.Attribute{Name: nc, Value: value}, loc)
}

func newName(ns, local string) xmlutil.Name { return xmlutil.Name{NS: ns, Local: local} }
