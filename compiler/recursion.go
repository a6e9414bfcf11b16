package compiler

import (
	"github.com/andaru/relaxng/model"
	"github.com/andaru/relaxng/rngerr"
)

// checkRecursion rejects reference cycles that do not pass through an
// element pattern. Every legal cycle crosses an element boundary;
// anything else (a = a, a = list { a }, ...) denotes no finite
// content and would not terminate downstream.
func (c *compiler) checkRecursion(s *scope) {
	if c.recState == nil {
		c.recState = map[*model.Define]int{}
	}
	for _, slot := range s.defines {
		c.visitDefine(slot.def, slot.def.Loc)
	}
	if s.start != nil {
		c.visitDefine(s.start.def, s.start.def.Loc)
	}
}

const (
	recActive = 1
	recDone   = 2
)

func (c *compiler) visitDefine(d *model.Define, loc rngerr.Span) {
	switch c.recState[d] {
	case recActive:
		c.report(rngerr.UnresolvedRef(d.Name,
			rngerr.WithSpan(loc),
			rngerr.WithMessagef("illegal recursion: reference to %q is not contained in an element", d.Name)))
	case recDone:
	default:
		c.recState[d] = recActive
		if d.Body != nil {
			c.walkNonElement(d.Body)
		}
		c.recState[d] = recDone
	}
}

// walkNonElement visits every pattern reachable without entering
// element content.
func (c *compiler) walkNonElement(p model.Pattern) {
	switch p := p.(type) {
	case *model.Group:
		c.walkNonElement(p.L)
		c.walkNonElement(p.R)
	case *model.Interleave:
		c.walkNonElement(p.L)
		c.walkNonElement(p.R)
	case *model.Choice:
		c.walkNonElement(p.L)
		c.walkNonElement(p.R)
	case *model.OneOrMore:
		c.walkNonElement(p.P)
	case *model.List:
		c.walkNonElement(p.P)
	case *model.Attribute:
		c.walkNonElement(p.Value)
	case *model.Data:
		if p.Except != nil {
			c.walkNonElement(p.Except)
		}
	case *model.Ref:
		c.visitDefine(p.Define, p.Span())
	}
}
