package restrict

import (
	"github.com/andaru/relaxng/model"
	"github.com/andaru/relaxng/rngerr"
)

// ContentType is the three-valued classification used by the section
// 7.2 groupability rules. The order matters: combining patterns take
// the maximum of their members' types.
type ContentType int

const (
	// ContentEmpty: empty, notAllowed and attribute patterns
	ContentEmpty ContentType = iota
	// ContentComplex: element and text patterns
	ContentComplex
	// ContentSimple: data, value and list patterns
	ContentSimple
)

func (t ContentType) String() string {
	switch t {
	case ContentEmpty:
		return "empty"
	case ContentComplex:
		return "complex"
	case ContentSimple:
		return "simple"
	default:
		return "unknown"
	}
}

// PatternContentType classifies a pattern. Refs resolve through the
// pointed-to body; a reference cycle is complex, since any cycle
// reachable from group or interleave context necessarily passes
// through elements.
func PatternContentType(p model.Pattern) ContentType {
	return contentType(p, map[*model.Define]bool{})
}

func contentType(p model.Pattern, seen map[*model.Define]bool) ContentType {
	if dead(p) {
		return ContentEmpty
	}
	switch p := p.(type) {
	case *model.Empty, *model.NotAllowed, *model.Attribute:
		return ContentEmpty
	case *model.Element, *model.Text:
		return ContentComplex
	case *model.Data, *model.Value, *model.List:
		return ContentSimple
	case *model.Group:
		return maxContent(contentType(p.L, seen), contentType(p.R, seen))
	case *model.Interleave:
		return maxContent(contentType(p.L, seen), contentType(p.R, seen))
	case *model.Choice:
		l, r := p.L, p.R
		switch {
		case dead(l):
			return contentType(r, seen)
		case dead(r):
			return contentType(l, seen)
		}
		return maxContent(contentType(l, seen), contentType(r, seen))
	case *model.OneOrMore:
		return contentType(p.P, seen)
	case *model.Ref:
		if p.Define == nil || p.Define.Body == nil {
			return ContentEmpty
		}
		if seen[p.Define] {
			return ContentComplex
		}
		seen[p.Define] = true
		ct := contentType(p.Define.Body, seen)
		delete(seen, p.Define)
		return ct
	}
	return ContentEmpty
}

func maxContent(a, b ContentType) ContentType {
	if a > b {
		return a
	}
	return b
}

// groupable enforces 7.2: simple content cannot combine with simple
// or complex content under group or interleave.
func (c *checker) groupable(l, r model.Pattern, loc rngerr.Span) {
	if dead(l) || dead(r) {
		return
	}
	ct1, ct2 := PatternContentType(l), PatternContentType(r)
	if ct1 == ContentEmpty || ct2 == ContentEmpty {
		return
	}
	if ct1 == ContentComplex && ct2 == ContentComplex {
		return
	}
	c.report(rngerr.RuleContentTypeConflict, loc,
		ct1.String()+" content cannot group with "+ct2.String()+" content")
}
