package restrict

import (
	"github.com/andaru/relaxng/model"
	"github.com/andaru/relaxng/rngerr"
	"github.com/andaru/relaxng/xmlutil"
)

// Check verifies the section 7 restrictions on a compiled schema,
// returning one diagnostic per violation found. Check is
// deterministic and idempotent: the graph is never modified.
func Check(s *model.Schema) rngerr.Diagnostics {
	c := &checker{}
	c.checkStart(s.Start, map[*model.Define]bool{})
	c.pattern(s.Start, walkContext{}, map[defineContext]bool{})
	return c.diags
}

type checker struct {
	diags rngerr.Diagnostics
}

func (c *checker) report(rule rngerr.Rule, loc rngerr.Span, msg string) {
	c.diags = append(c.diags, rngerr.Restriction(rule,
		rngerr.WithSpan(loc), rngerr.WithMessage(msg)))
}

// isDead reports whether a pattern simplifies to notAllowed under the
// section 4 rules. Dead patterns are skipped: they would have been
// eliminated by full simplification. Refs follow with a visited set;
// a cycle is not dead.
func isDead(p model.Pattern, seen map[*model.Define]bool) bool {
	switch p := p.(type) {
	case *model.NotAllowed:
		return true
	case *model.Group:
		return isDead(p.L, seen) || isDead(p.R, seen)
	case *model.Interleave:
		return isDead(p.L, seen) || isDead(p.R, seen)
	case *model.Choice:
		return isDead(p.L, seen) && isDead(p.R, seen)
	case *model.OneOrMore:
		return isDead(p.P, seen)
	case *model.List:
		return isDead(p.P, seen)
	case *model.Attribute:
		return isDead(p.Value, seen)
	case *model.Ref:
		if seen[p.Define] || p.Define == nil || p.Define.Body == nil {
			return false
		}
		seen[p.Define] = true
		dead := isDead(p.Define.Body, seen)
		delete(seen, p.Define)
		return dead
	}
	return false
}

func dead(p model.Pattern) bool { return isDead(p, map[*model.Define]bool{}) }

// checkStart enforces 7.1.5: after expansion through refs the start
// pattern may contain only element, choice, ref and notAllowed.
func (c *checker) checkStart(p model.Pattern, seen map[*model.Define]bool) {
	if dead(p) {
		return
	}
	switch p := p.(type) {
	case *model.Element, *model.NotAllowed:
	case *model.Choice:
		c.checkStart(p.L, seen)
		c.checkStart(p.R, seen)
	case *model.Ref:
		if seen[p.Define] || p.Define == nil || p.Define.Body == nil {
			return
		}
		seen[p.Define] = true
		c.checkStart(p.Define.Body, seen)
	default:
		c.report(rngerr.RuleStartNotElementContentful, p.Span(),
			"start must be element-contentful")
	}
}

// walkContext tracks which restriction-relevant constructs enclose
// the current pattern.
type walkContext struct {
	inList         bool
	inDataExcept   bool
	inAttribute    bool
	inOneOrMore    bool
	inOneOrMoreGrp bool
}

// defineContext keys the visited set: a define must be re-checked
// when reached under a different context.
type defineContext struct {
	def *model.Define
	ctx walkContext
}

func (c *checker) pattern(p model.Pattern, ctx walkContext, seen map[defineContext]bool) {
	if dead(p) {
		return
	}
	switch p := p.(type) {
	case *model.Element:
		switch {
		case ctx.inList:
			c.report(rngerr.RuleListContainsElement, p.Span(), "element not allowed inside list")
		case ctx.inDataExcept:
			c.report(rngerr.RuleDataExceptContents, p.Span(), "element not allowed inside data/except")
		}
		c.nameClass(p.Name)
		// element starts a fresh context
		c.pattern(p.Content, walkContext{}, seen)

	case *model.Attribute:
		switch {
		case ctx.inAttribute:
			c.report(rngerr.RuleAttributeNesting, p.Span(), "attribute not allowed inside attribute")
		case ctx.inList:
			c.report(rngerr.RuleListContainsElement, p.Span(), "attribute not allowed inside list")
		case ctx.inDataExcept:
			c.report(rngerr.RuleDataExceptContents, p.Span(), "attribute not allowed inside data/except")
		case ctx.inOneOrMoreGrp:
			c.report(rngerr.RuleAttributeInOneOrMoreGroup, p.Span(),
				"attribute not allowed under group or interleave inside oneOrMore")
		}
		c.attributeNameClass(p.Name, p.Span())
		c.nameClass(p.Name)
		if infiniteNameClass(p.Name) && !ctx.inOneOrMore {
			c.report(rngerr.RuleInfiniteAttributeName, p.Span(),
				"anyName or nsName attribute requires an enclosing oneOrMore")
		}
		child := ctx
		child.inAttribute = true
		c.pattern(p.Value, child, seen)

	case *model.List:
		switch {
		case ctx.inList:
			c.report(rngerr.RuleListContainsElement, p.Span(), "list not allowed inside list")
		case ctx.inDataExcept:
			c.report(rngerr.RuleDataExceptContents, p.Span(), "list not allowed inside data/except")
		}
		child := ctx
		child.inList = true
		c.pattern(p.P, child, seen)

	case *model.Data:
		if p.Except != nil {
			child := ctx
			child.inDataExcept = true
			c.pattern(p.Except, child, seen)
		}

	case *model.Choice:
		c.pattern(p.L, ctx, seen)
		c.pattern(p.R, ctx, seen)

	case *model.Group:
		if ctx.inDataExcept {
			c.report(rngerr.RuleDataExceptContents, p.Span(), "group not allowed inside data/except")
		}
		// inside list, a group of data patterns is the token sequence
		if !ctx.inList {
			c.groupable(p.L, p.R, p.Span())
		}
		c.attributeOverlap(p.L, p.R, p.Span())
		child := ctx
		if ctx.inOneOrMore {
			child.inOneOrMoreGrp = true
		}
		c.pattern(p.L, child, seen)
		c.pattern(p.R, child, seen)

	case *model.Interleave:
		switch {
		case ctx.inList:
			c.report(rngerr.RuleListContainsElement, p.Span(), "interleave not allowed inside list")
		case ctx.inDataExcept:
			c.report(rngerr.RuleDataExceptContents, p.Span(), "interleave not allowed inside data/except")
		}
		c.groupable(p.L, p.R, p.Span())
		c.interleaveBranches(p.L, p.R, p.Span())
		c.attributeOverlap(p.L, p.R, p.Span())
		child := ctx
		if ctx.inOneOrMore {
			child.inOneOrMoreGrp = true
		}
		c.pattern(p.L, child, seen)
		c.pattern(p.R, child, seen)

	case *model.OneOrMore:
		if ctx.inDataExcept {
			c.report(rngerr.RuleDataExceptContents, p.Span(), "oneOrMore not allowed inside data/except")
		}
		child := ctx
		child.inOneOrMore = true
		c.pattern(p.P, child, seen)

	case *model.Text:
		switch {
		case ctx.inList:
			c.report(rngerr.RuleListContainsElement, p.Span(), "text not allowed inside list")
		case ctx.inDataExcept:
			c.report(rngerr.RuleDataExceptContents, p.Span(), "text not allowed inside data/except")
		}

	case *model.Empty:
		if ctx.inDataExcept {
			c.report(rngerr.RuleDataExceptContents, p.Span(), "empty not allowed inside data/except")
		}

	case *model.Ref:
		if p.Define == nil || p.Define.Body == nil {
			return
		}
		key := defineContext{def: p.Define, ctx: ctx}
		if seen[key] {
			return
		}
		seen[key] = true
		c.pattern(p.Define.Body, ctx, seen)
	}
}

// nameClass enforces the except rules of 7.1.1: anyName may not occur
// inside an anyName except, and neither anyName nor nsName inside an
// nsName except.
func (c *checker) nameClass(nc model.NameClass) {
	switch nc := nc.(type) {
	case *model.NameAny:
		if nc.Except != nil {
			c.anyNameExcept(nc.Except)
			c.nameClass(nc.Except)
		}
	case *model.NameNS:
		if nc.Except != nil {
			c.nsNameExcept(nc.Except)
			c.nameClass(nc.Except)
		}
	case *model.NameChoice:
		c.nameClass(nc.A)
		c.nameClass(nc.B)
	}
}

func (c *checker) anyNameExcept(nc model.NameClass) {
	switch nc := nc.(type) {
	case *model.NameAny:
		c.report(rngerr.RuleAnyNameInExcept, rngerr.Span{},
			"anyName not allowed inside anyName/except")
	case *model.NameNS:
		if nc.Except != nil {
			c.anyNameExcept(nc.Except)
		}
	case *model.NameChoice:
		c.anyNameExcept(nc.A)
		c.anyNameExcept(nc.B)
	}
}

func (c *checker) nsNameExcept(nc model.NameClass) {
	switch nc := nc.(type) {
	case *model.NameAny:
		c.report(rngerr.RuleNsNameInExcept, rngerr.Span{},
			"anyName not allowed inside nsName/except")
	case *model.NameNS:
		c.report(rngerr.RuleNsNameInExcept, rngerr.Span{},
			"nsName not allowed inside nsName/except")
	case *model.NameChoice:
		c.nsNameExcept(nc.A)
		c.nsNameExcept(nc.B)
	}
}

// attributeNameClass enforces 7.1.1: no attribute may be named xmlns
// in no namespace, or carry any name in the xmlns namespace. An
// except clause can clear the offending cases.
func (c *checker) attributeNameClass(nc model.NameClass, loc rngerr.Span) {
	xmlns := xmlutil.Name{Local: "xmlns"}
	switch nc := nc.(type) {
	case *model.NameNamed:
		if nc.Name == xmlns {
			c.report(rngerr.RuleXmlnsAttributeForbidden, loc,
				"attribute must not be named xmlns")
		} else if nc.Name.NS == xmlutil.XmlnsNamespaceURI {
			c.report(rngerr.RuleXmlnsNamespaceForbidden, loc,
				"attribute must not be in the xmlns namespace")
		}
	case *model.NameNS:
		if nc.NS == xmlutil.XmlnsNamespaceURI {
			c.report(rngerr.RuleXmlnsNamespaceForbidden, loc,
				"attribute must not be in the xmlns namespace")
		}
		if nc.NS == "" && nc.Contains(xmlns) {
			c.report(rngerr.RuleXmlnsAttributeForbidden, loc,
				"attribute name class matches xmlns")
		}
	case *model.NameAny:
		if nc.Contains(xmlns) {
			c.report(rngerr.RuleXmlnsAttributeForbidden, loc,
				"attribute name class matches xmlns")
		} else if nc.Contains(xmlutil.Name{NS: xmlutil.XmlnsNamespaceURI, Local: "any"}) {
			c.report(rngerr.RuleXmlnsNamespaceForbidden, loc,
				"attribute name class matches the xmlns namespace")
		}
	case *model.NameChoice:
		c.attributeNameClass(nc.A, loc)
		c.attributeNameClass(nc.B, loc)
	}
}

func infiniteNameClass(nc model.NameClass) bool {
	switch nc := nc.(type) {
	case *model.NameAny, *model.NameNS:
		return true
	case *model.NameChoice:
		return infiniteNameClass(nc.A) || infiniteNameClass(nc.B)
	}
	return false
}
