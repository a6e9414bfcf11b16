package restrict

import (
	"github.com/andaru/relaxng/model"
	"github.com/andaru/relaxng/rngerr"
	"github.com/andaru/relaxng/xmlutil"
)

// Name-class overlap detection for the 7.3 and 7.4 disjointness
// rules. Classes are flattened over choice so each alternative is
// compared independently.

func flattenNameClass(nc model.NameClass, out *[]model.NameClass) {
	if choice, ok := nc.(*model.NameChoice); ok {
		flattenNameClass(choice.A, out)
		flattenNameClass(choice.B, out)
		return
	}
	*out = append(*out, nc)
}

// overlap reports whether two flattened name classes can match the
// same qualified name. nsName excepts are compared conservatively:
// two nsName classes in one namespace always overlap.
func overlap(a, b model.NameClass) bool {
	if an, ok := a.(*model.NameNamed); ok {
		return b.Contains(an.Name)
	}
	if bn, ok := b.(*model.NameNamed); ok {
		return a.Contains(bn.Name)
	}
	switch a := a.(type) {
	case *model.NameNS:
		switch b := b.(type) {
		case *model.NameNS:
			return a.NS == b.NS
		case *model.NameAny:
			return true
		}
	case *model.NameAny:
		return true
	}
	return true
}

// collectAttributes gathers the attribute name classes reachable in a
// pattern without crossing an element boundary.
func collectAttributes(p model.Pattern, seen map[*model.Define]bool, out *[]model.NameClass) {
	if dead(p) {
		return
	}
	switch p := p.(type) {
	case *model.Attribute:
		flattenNameClass(p.Name, out)
	case *model.Group:
		collectAttributes(p.L, seen, out)
		collectAttributes(p.R, seen, out)
	case *model.Interleave:
		collectAttributes(p.L, seen, out)
		collectAttributes(p.R, seen, out)
	case *model.Choice:
		collectAttributes(p.L, seen, out)
		collectAttributes(p.R, seen, out)
	case *model.OneOrMore:
		collectAttributes(p.P, seen, out)
	case *model.Ref:
		if p.Define == nil || p.Define.Body == nil || seen[p.Define] {
			return
		}
		seen[p.Define] = true
		collectAttributes(p.Define.Body, seen, out)
	}
}

// collectElements gathers the element name classes reachable in one
// interleave branch, without entering element content.
func collectElements(p model.Pattern, seen map[*model.Define]bool, out *[]model.NameClass) {
	if dead(p) {
		return
	}
	switch p := p.(type) {
	case *model.Element:
		flattenNameClass(p.Name, out)
	case *model.Group:
		collectElements(p.L, seen, out)
		collectElements(p.R, seen, out)
	case *model.Interleave:
		collectElements(p.L, seen, out)
		collectElements(p.R, seen, out)
	case *model.Choice:
		collectElements(p.L, seen, out)
		collectElements(p.R, seen, out)
	case *model.OneOrMore:
		collectElements(p.P, seen, out)
	case *model.Ref:
		if p.Define == nil || p.Define.Body == nil || seen[p.Define] {
			return
		}
		seen[p.Define] = true
		collectElements(p.Define.Body, seen, out)
	}
}

// hasText reports whether a pattern can match text without crossing
// an element boundary.
func hasText(p model.Pattern, seen map[*model.Define]bool) bool {
	if dead(p) {
		return false
	}
	switch p := p.(type) {
	case *model.Text:
		return true
	case *model.Group:
		return hasText(p.L, seen) || hasText(p.R, seen)
	case *model.Interleave:
		return hasText(p.L, seen) || hasText(p.R, seen)
	case *model.Choice:
		return hasText(p.L, seen) || hasText(p.R, seen)
	case *model.OneOrMore:
		return hasText(p.P, seen)
	case *model.Ref:
		if p.Define == nil || p.Define.Body == nil || seen[p.Define] {
			return false
		}
		seen[p.Define] = true
		return hasText(p.Define.Body, seen)
	}
	return false
}

// attributeOverlap enforces 7.3: attribute name classes must be
// disjoint across the two sides of a group or interleave.
func (c *checker) attributeOverlap(l, r model.Pattern, loc rngerr.Span) {
	var left, right []model.NameClass
	collectAttributes(l, map[*model.Define]bool{}, &left)
	collectAttributes(r, map[*model.Define]bool{}, &right)
	for _, a := range left {
		for _, b := range right {
			if overlap(a, b) {
				c.report(rngerr.RuleAttributeOverlap, loc,
					"attribute name classes overlap across group or interleave")
				return
			}
		}
	}
}

// interleaveBranches enforces 7.4: the branches of an interleave must
// not both match text, and their element name classes must be
// disjoint.
func (c *checker) interleaveBranches(l, r model.Pattern, loc rngerr.Span) {
	if hasText(l, map[*model.Define]bool{}) && hasText(r, map[*model.Define]bool{}) {
		c.report(rngerr.RuleInterleaveTextOverlap, loc,
			"text allowed on both sides of interleave")
	}
	var left, right []model.NameClass
	collectElements(l, map[*model.Define]bool{}, &left)
	collectElements(r, map[*model.Define]bool{}, &right)
	for _, a := range left {
		for _, b := range right {
			if overlap(a, b) {
				c.report(rngerr.RuleInterleaveElementOverlap, loc,
					"element name classes overlap across interleave; "+describeOverlap(a, b))
				return
			}
		}
	}
}

func describeOverlap(a, b model.NameClass) string {
	name := func(nc model.NameClass) string {
		switch nc := nc.(type) {
		case *model.NameNamed:
			return nc.Name.String()
		case *model.NameNS:
			return xmlutil.Name{NS: nc.NS, Local: "*"}.String()
		default:
			return "*"
		}
	}
	return "both branches accept " + name(a) + " and " + name(b)
}
