package validate

import (
	"github.com/andaru/relaxng/datatype"
	"github.com/andaru/relaxng/xmlutil"
)

// The derivative recurrences. Choice distributes; group and
// interleave split per their algebras; oneOrMore unrolls one
// iteration; After threads the residual continuation installed by
// startTagOpen. Each function either consults a validator-lifetime
// memo keyed on (pattern id, event) or, for text and attribute
// derivatives whose outcome can depend on in-scope namespace
// bindings, a per-event memo keyed on pattern id.

// startTagOpenDeriv rewrites id for entry into an element named name.
func (s *store) startTagOpenDeriv(id patID, name xmlutil.Name) patID {
	key := openKey{id: id, ns: name.NS, local: name.Local}
	if out, ok := s.openMemo[key]; ok {
		return out
	}
	p := s.at(id)
	var out patID
	switch p.kind {
	case kChoice:
		out = s.choice(s.startTagOpenDeriv(p.p1, name), s.startTagOpenDeriv(p.p2, name))
	case kOneOrMore:
		inner := p.p1
		d := s.startTagOpenDeriv(inner, name)
		out = s.applyAfter(d, func(rest patID) patID {
			return s.group(rest, s.choice(s.oneOrMore(inner), s.empty()))
		})
	case kInterleave:
		d1 := s.startTagOpenDeriv(p.p1, name)
		c1 := s.applyAfter(d1, func(rest patID) patID { return s.interleave(rest, p.p2) })
		d2 := s.startTagOpenDeriv(p.p2, name)
		c2 := s.applyAfter(d2, func(rest patID) patID { return s.interleave(p.p1, rest) })
		out = s.choice(c1, c2)
	case kGroup:
		d1 := s.startTagOpenDeriv(p.p1, name)
		x := s.applyAfter(d1, func(rest patID) patID { return s.group(rest, p.p2) })
		if s.nullable(p.p1) {
			out = s.choice(x, s.startTagOpenDeriv(p.p2, name))
		} else {
			out = x
		}
	case kElement:
		if p.nc.Contains(name) {
			out = s.after(p.p1, s.empty())
		} else {
			out = s.notAllowed()
		}
	case kAfter:
		d := s.startTagOpenDeriv(p.p1, name)
		out = s.applyAfter(d, func(rest patID) patID { return s.after(rest, p.p2) })
	default:
		out = s.notAllowed()
	}
	s.openMemo[key] = out
	return out
}

// applyAfter maps f over the continuations of an After tree,
// distributing over choice. Only choice, After and notAllowed occur
// here: the start-tag-open derivative produces nothing else.
func (s *store) applyAfter(id patID, f func(patID) patID) patID {
	p := s.at(id)
	switch p.kind {
	case kAfter:
		return s.after(p.p1, f(p.p2))
	case kChoice:
		return s.choice(s.applyAfter(p.p1, f), s.applyAfter(p.p2, f))
	default:
		return s.notAllowed()
	}
}

// textDeriv rewrites id after the text run text. ctx supplies the
// namespace bindings in scope for QName-valued datatypes; memo must
// be fresh per (text, ctx) pair.
func (s *store) textDeriv(memo map[patID]patID, id patID, text string, ctx datatype.Context) patID {
	if out, ok := memo[id]; ok {
		return out
	}
	p := s.at(id)
	var out patID
	switch p.kind {
	case kChoice:
		out = s.choice(s.textDeriv(memo, p.p1, text, ctx), s.textDeriv(memo, p.p2, text, ctx))
	case kInterleave:
		a := s.interleave(s.textDeriv(memo, p.p1, text, ctx), p.p2)
		b := s.interleave(p.p1, s.textDeriv(memo, p.p2, text, ctx))
		out = s.choice(a, b)
	case kGroup:
		d := s.group(s.textDeriv(memo, p.p1, text, ctx), p.p2)
		if s.nullable(p.p1) {
			out = s.choice(d, s.textDeriv(memo, p.p2, text, ctx))
		} else {
			out = d
		}
	case kAfter:
		out = s.after(s.textDeriv(memo, p.p1, text, ctx), p.p2)
	case kOneOrMore:
		d := s.textDeriv(memo, p.p1, text, ctx)
		out = s.group(d, s.choice(s.oneOrMore(p.p1), s.empty()))
	case kText:
		out = s.text()
	case kData:
		if p.data.Desc.Valid(text, ctx) == nil {
			out = s.empty()
		} else {
			out = s.notAllowed()
		}
	case kDataExcept:
		exceptMemo := map[patID]patID{}
		d := s.textDeriv(exceptMemo, p.p1, text, ctx)
		if p.data.Desc.Valid(text, ctx) == nil && !s.nullable(d) {
			out = s.empty()
		} else {
			out = s.notAllowed()
		}
	case kValue:
		if p.value.Matcher.Match(text, ctx) {
			out = s.empty()
		} else {
			out = s.notAllowed()
		}
	case kList:
		out = s.listDeriv(p.p1, text, ctx)
	case kEmpty:
		// whitespace between markup satisfies empty content
		if xmlutil.IsSpaceString(text) {
			out = s.empty()
		} else {
			out = s.notAllowed()
		}
	case kElement:
		// whitespace between child elements is ignored
		if xmlutil.IsSpaceString(text) {
			out = id
		} else {
			out = s.notAllowed()
		}
	default:
		out = s.notAllowed()
	}
	memo[id] = out
	return out
}

// listDeriv threads the inner derivative over whitespace-separated
// tokens. Each token is a distinct event and gets a fresh memo.
func (s *store) listDeriv(inner patID, text string, ctx datatype.Context) patID {
	id := inner
	for _, token := range xmlutil.Fields(text) {
		id = s.textDeriv(map[patID]patID{}, id, token, ctx)
		if s.isNotAllowed(id) {
			return id
		}
	}
	if s.nullable(id) {
		return s.empty()
	}
	return s.notAllowed()
}

// attDeriv rewrites id after consuming the attribute (name, value).
func (s *store) attDeriv(memo map[patID]patID, id patID, name xmlutil.Name, value string, ctx datatype.Context) patID {
	if out, ok := memo[id]; ok {
		return out
	}
	p := s.at(id)
	var out patID
	switch p.kind {
	case kAfter:
		out = s.after(s.attDeriv(memo, p.p1, name, value, ctx), p.p2)
	case kChoice:
		out = s.choice(s.attDeriv(memo, p.p1, name, value, ctx), s.attDeriv(memo, p.p2, name, value, ctx))
	case kGroup:
		a := s.group(s.attDeriv(memo, p.p1, name, value, ctx), p.p2)
		b := s.group(p.p1, s.attDeriv(memo, p.p2, name, value, ctx))
		out = s.choice(a, b)
	case kInterleave:
		a := s.interleave(s.attDeriv(memo, p.p1, name, value, ctx), p.p2)
		b := s.interleave(p.p1, s.attDeriv(memo, p.p2, name, value, ctx))
		out = s.choice(a, b)
	case kOneOrMore:
		d := s.attDeriv(memo, p.p1, name, value, ctx)
		out = s.group(d, s.choice(id, s.empty()))
	case kAttribute:
		if p.nc.Contains(name) && s.valueMatch(p.p1, value, ctx) {
			out = s.empty()
		} else {
			out = s.notAllowed()
		}
	default:
		out = s.notAllowed()
	}
	memo[id] = out
	return out
}

// valueMatch tests an attribute value against its value pattern: a
// whitespace-only value against a nullable pattern matches, else the
// text derivative must be nullable.
func (s *store) valueMatch(id patID, value string, ctx datatype.Context) bool {
	if s.nullable(id) && xmlutil.IsSpaceString(value) {
		return true
	}
	d := s.textDeriv(map[patID]patID{}, id, value, ctx)
	return s.nullable(d)
}

// startTagCloseDeriv marks the end of attributes: remaining attribute
// obligations become notAllowed, so an unconsumed required attribute
// fails the element here.
func (s *store) startTagCloseDeriv(id patID) patID {
	if out, ok := s.closeMemo[id]; ok {
		return out
	}
	p := s.at(id)
	var out patID
	switch p.kind {
	case kAfter:
		out = s.after(s.startTagCloseDeriv(p.p1), p.p2)
	case kChoice:
		out = s.choice(s.startTagCloseDeriv(p.p1), s.startTagCloseDeriv(p.p2))
	case kGroup:
		out = s.group(s.startTagCloseDeriv(p.p1), s.startTagCloseDeriv(p.p2))
	case kInterleave:
		out = s.interleave(s.startTagCloseDeriv(p.p1), s.startTagCloseDeriv(p.p2))
	case kOneOrMore:
		out = s.oneOrMore(s.startTagCloseDeriv(p.p1))
	case kAttribute:
		out = s.notAllowed()
	default:
		out = id
	}
	s.closeMemo[id] = out
	return out
}

// endTagDeriv collapses the element frame: the pattern before After
// must be nullable, and the continuation after it becomes current.
func (s *store) endTagDeriv(id patID) patID {
	if out, ok := s.endMemo[id]; ok {
		return out
	}
	p := s.at(id)
	var out patID
	switch p.kind {
	case kChoice:
		out = s.choice(s.endTagDeriv(p.p1), s.endTagDeriv(p.p2))
	case kAfter:
		if s.nullable(p.p1) {
			out = p.p2
		} else {
			out = s.notAllowed()
		}
	default:
		out = s.notAllowed()
	}
	s.endMemo[id] = out
	return out
}
