package validate

import (
	"fmt"
	"io"
	"strings"

	"github.com/andaru/relaxng/model"
	"github.com/andaru/relaxng/rngerr"
	"github.com/andaru/relaxng/xmlutil"
)

// Validator streams document events against one compiled schema. The
// zero value is not usable; construct with New. The validator halts
// at the first event the derivative algebra collapses to notAllowed.
type Validator struct {
	store   *store
	current patID

	scope xmlutil.Scope
	// open element names, for diagnostics and the frame stack
	elements []xmlutil.Name

	text         strings.Builder
	textLoc      rngerr.Span
	lastWasStart bool
	failed       *rngerr.Diagnostic
}

// New builds a validator for schema. The schema may be shared between
// validators; the validator itself must not be.
func New(schema *model.Schema) *Validator {
	s := newStore()
	return &Validator{store: s, current: s.compile(schema.Start)}
}

// Run consumes src to exhaustion or first error.
func (v *Validator) Run(src TokenSource) *rngerr.Diagnostic {
	for {
		ev, err := src.Next()
		if err == io.EOF {
			return v.Finish()
		}
		if err != nil {
			return rngerr.ParseError(err.Error())
		}
		if d := v.Consume(ev); d != nil {
			return d
		}
	}
}

// Consume feeds one event, returning the diagnostic that ends
// validation or nil to continue.
func (v *Validator) Consume(ev Event) *rngerr.Diagnostic {
	if v.failed != nil {
		return v.failed
	}
	switch ev := ev.(type) {
	case *Comment, *ProcInst:
		// neighbouring text runs concatenate as if these were absent
		return nil
	case *Text:
		if v.text.Len() == 0 {
			v.textLoc = ev.Loc
		}
		v.text.WriteString(ev.Data)
		return nil
	case *StartElement:
		return v.fail(v.startElement(ev))
	case *EndElement:
		return v.fail(v.endElement(ev))
	}
	return nil
}

// Finish reports whether the event stream ended with all content
// satisfied.
func (v *Validator) Finish() *rngerr.Diagnostic {
	if v.failed != nil {
		return v.failed
	}
	if len(v.elements) > 0 {
		return v.fail(rngerr.PrematureEndOfContent(v.elements[len(v.elements)-1].String()))
	}
	if !v.store.nullable(v.current) {
		return v.fail(rngerr.PrematureEndOfContent("document"))
	}
	return nil
}

func (v *Validator) fail(d *rngerr.Diagnostic) *rngerr.Diagnostic {
	if d != nil && v.failed == nil {
		v.failed = d
	}
	return d
}

func (v *Validator) startElement(ev *StartElement) *rngerr.Diagnostic {
	if d := v.flushText(); d != nil {
		return d
	}
	v.scope.Push(ev.Bindings)
	v.elements = append(v.elements, ev.Name)

	next := v.store.startTagOpenDeriv(v.current, ev.Name)
	if v.store.isNotAllowed(next) {
		return rngerr.UnexpectedElement(ev.Name.String(),
			rngerr.WithSpan(ev.Loc),
			rngerr.WithMessagef("element %s not allowed here; expected %s",
				ev.Name, v.describeExpected(v.current)))
	}
	for _, att := range ev.Attrs {
		memo := map[patID]patID{}
		after := v.store.attDeriv(memo, next, att.Name, att.Value, &v.scope)
		if v.store.isNotAllowed(after) {
			if v.attrNameAllowed(next, att.Name) {
				return rngerr.DatatypeError(
					"attribute "+att.Name.String()+" has invalid value "+strings.TrimSpace(att.Value),
					rngerr.WithSpan(att.Loc))
			}
			return rngerr.UnexpectedAttribute(att.Name.String(), rngerr.WithSpan(att.Loc))
		}
		next = after
	}
	next = v.store.startTagCloseDeriv(next)
	if v.store.isNotAllowed(next) {
		return rngerr.MissingAttribute(ev.Name.String(), rngerr.WithSpan(ev.Loc))
	}
	v.current = next
	v.lastWasStart = true
	return nil
}

func (v *Validator) endElement(ev *EndElement) *rngerr.Diagnostic {
	if len(v.elements) == 0 {
		return rngerr.ParseError("end of element with no element open", rngerr.WithSpan(ev.Loc))
	}
	name := v.elements[len(v.elements)-1]

	if d := v.flushText(); d != nil {
		return d
	}
	next := v.current
	if v.lastWasStart {
		// an element with no children or text is matched as though it
		// held a text node of the empty string, so patterns like
		// token accept <e/>
		next = v.store.textDeriv(map[patID]patID{}, next, "", &v.scope)
	}
	next = v.store.endTagDeriv(next)
	if v.store.isNotAllowed(next) {
		return rngerr.PrematureEndOfContent(name.String(), rngerr.WithSpan(ev.Loc))
	}
	v.current = next
	v.lastWasStart = false
	v.elements = v.elements[:len(v.elements)-1]
	v.scope.Pop()
	return nil
}

// flushText applies the accumulated text run, if any, to the current
// pattern. Whitespace-only runs that no pattern wants are dropped by
// the derivative's whitespace permissiveness, not here.
func (v *Validator) flushText() *rngerr.Diagnostic {
	if v.text.Len() == 0 {
		return nil
	}
	text := v.text.String()
	v.text.Reset()
	next := v.store.textDeriv(map[patID]patID{}, v.current, text, &v.scope)
	if v.store.isNotAllowed(next) {
		if xmlutil.IsSpaceString(text) || v.textAllowed(v.current) {
			return rngerr.DatatypeError("text "+strings.TrimSpace(text)+" does not match its datatype",
				rngerr.WithSpan(v.textLoc))
		}
		return rngerr.UnexpectedText(rngerr.WithSpan(v.textLoc))
	}
	v.current = next
	v.lastWasStart = false
	return nil
}

// textAllowed reports whether any text-consuming pattern (text, data,
// value, list) is reachable without crossing an element boundary,
// which classifies a text failure as a datatype error rather than
// text-not-allowed.
func (v *Validator) textAllowed(id patID) bool {
	return v.scanReachable(id, map[patID]bool{}, func(p pat) bool {
		switch p.kind {
		case kText, kData, kDataExcept, kValue, kList:
			return true
		}
		return false
	})
}

// attrNameAllowed reports whether some reachable attribute pattern's
// name class contains name, which classifies an attribute failure as
// a value error rather than an unexpected attribute.
func (v *Validator) attrNameAllowed(id patID, name xmlutil.Name) bool {
	return v.scanReachable(id, map[patID]bool{}, func(p pat) bool {
		return p.kind == kAttribute && p.nc.Contains(name)
	})
}

// scanReachable walks the pattern graph without entering element or
// attribute content, applying pred to each node.
func (v *Validator) scanReachable(id patID, seen map[patID]bool, pred func(pat) bool) bool {
	if seen[id] {
		return false
	}
	seen[id] = true
	p := v.store.at(id)
	if pred(p) {
		return true
	}
	switch p.kind {
	case kChoice, kGroup, kInterleave, kAfter:
		return v.scanReachable(p.p1, seen, pred) || v.scanReachable(p.p2, seen, pred)
	case kOneOrMore, kList, kDataExcept:
		return v.scanReachable(p.p1, seen, pred)
	}
	return false
}

// heads collects the element name classes acceptable at id, following
// the derivation of nullable group heads.
func (v *Validator) heads(id patID, seen map[patID]bool, out *[]model.NameClass) {
	if seen[id] {
		return
	}
	seen[id] = true
	p := v.store.at(id)
	switch p.kind {
	case kElement:
		*out = append(*out, p.nc)
	case kChoice, kInterleave:
		v.heads(p.p1, seen, out)
		v.heads(p.p2, seen, out)
	case kGroup:
		v.heads(p.p1, seen, out)
		if v.store.nullable(p.p1) {
			v.heads(p.p2, seen, out)
		}
	case kOneOrMore, kList:
		v.heads(p.p1, seen, out)
	case kAfter:
		v.heads(p.p1, seen, out)
	}
}

// describeExpected names up to four elements acceptable at id, for
// unexpected-element diagnostics.
func (v *Validator) describeExpected(id patID) string {
	var classes []model.NameClass
	v.heads(id, map[patID]bool{}, &classes)
	if len(classes) == 0 {
		return "no element"
	}
	const maxElements = 4
	var names []string
	for _, nc := range classes {
		if len(names) == maxElements {
			break
		}
		names = append(names, describeNameClass(nc))
	}
	desc := "element " + strings.Join(names, " or ")
	if rest := len(classes) - len(names); rest > 0 {
		desc += fmt.Sprintf(" (and %d more)", rest)
	}
	return desc
}

func describeNameClass(nc model.NameClass) string {
	switch nc := nc.(type) {
	case *model.NameNamed:
		return nc.Name.String()
	case *model.NameNS:
		return "{" + nc.NS + "}*"
	case *model.NameAny:
		return "*"
	case *model.NameChoice:
		return describeNameClass(nc.A) + "|" + describeNameClass(nc.B)
	}
	return "?"
}
