package validate

import (
	"fmt"

	"github.com/andaru/relaxng/model"
)

// patID identifies an interned pattern within one store.
type patID int32

type patKind uint8

const (
	kEmpty patKind = iota
	kText
	kNotAllowed
	kChoice
	kInterleave
	kGroup
	kOneOrMore
	kAttribute
	kElement
	kData
	kDataExcept
	kValue
	kList
	kAfter
	// kShell marks a define whose body is still compiling; every
	// shell is overwritten before compile returns
	kShell
)

// pat is one interned pattern node. Children are identifiers; the
// name class, datatype and value fields alias the immutable model
// graph so interning can key on pointer identity.
type pat struct {
	kind     patKind
	p1, p2   patID
	nullable bool
	nc       model.NameClass
	data     *model.Data
	value    *model.Value
}

type patKey struct {
	kind   patKind
	p1, p2 patID
	ref    interface{}
}

// store is the hash-consing pattern table plus the derivative memo
// tables. It has the lifetime of one validator and must not be
// shared: the memos accumulate state.
type store struct {
	pats []pat
	memo map[patKey]patID
	refs map[*model.Define]patID

	// context-free derivative memos, keyed on (pattern, event)
	openMemo  map[openKey]patID
	closeMemo map[patID]patID
	endMemo   map[patID]patID

	idEmpty      patID
	idText       patID
	idNotAllowed patID
}

type openKey struct {
	id    patID
	ns    string
	local string
}

// storeLimit bounds the interned pattern count. Schemas that trigger
// pathological derivative blowup would otherwise grow the table
// without limit; the cap turns that into a clean failure.
const storeLimit = 1 << 22

func newStore() *store {
	s := &store{
		memo:      map[patKey]patID{},
		refs:      map[*model.Define]patID{},
		openMemo:  map[openKey]patID{},
		closeMemo: map[patID]patID{},
		endMemo:   map[patID]patID{},
	}
	s.idEmpty = s.push(pat{kind: kEmpty, nullable: true})
	s.idText = s.push(pat{kind: kText, nullable: true})
	s.idNotAllowed = s.push(pat{kind: kNotAllowed})
	return s
}

func (s *store) push(p pat) patID {
	if len(s.pats) > storeLimit {
		panic(fmt.Sprintf("pattern store exceeded %d entries: derivative blowup", storeLimit))
	}
	key := patKey{kind: p.kind, p1: p.p1, p2: p.p2}
	switch {
	case p.nc != nil:
		key.ref = p.nc
	case p.data != nil:
		key.ref = p.data
	case p.value != nil:
		key.ref = p.value
	}
	if id, ok := s.memo[key]; ok {
		return id
	}
	id := patID(len(s.pats))
	s.memo[key] = id
	s.pats = append(s.pats, p)
	return id
}

func (s *store) at(id patID) pat        { return s.pats[id] }
func (s *store) nullable(id patID) bool { return s.pats[id].nullable }
func (s *store) isNotAllowed(id patID) bool {
	return s.pats[id].kind == kNotAllowed
}
func (s *store) isEmpty(id patID) bool { return s.pats[id].kind == kEmpty }

func (s *store) empty() patID      { return s.idEmpty }
func (s *store) text() patID       { return s.idText }
func (s *store) notAllowed() patID { return s.idNotAllowed }

// choice builds Choice(left, right) with the absorption rules, and
// removes choice leaves of right already present under left. The
// deduplication keeps the choice tree linear in distinct leaves,
// which is what prevents exponential growth in derivatives of
// recursive and interleaved patterns.
func (s *store) choice(left, right patID) patID {
	if s.isNotAllowed(left) {
		return right
	}
	if s.isNotAllowed(right) {
		return left
	}
	if left == right {
		return left
	}
	leaves := map[patID]bool{}
	s.choiceLeaves(left, leaves)
	filtered, any := s.filterChoice(right, leaves)
	if !any {
		// every right leaf duplicates a left leaf
		return left
	}
	nullable := s.nullable(left) || s.nullable(filtered)
	return s.push(pat{kind: kChoice, p1: left, p2: filtered, nullable: nullable})
}

func (s *store) choiceLeaves(id patID, leaves map[patID]bool) {
	if p := s.at(id); p.kind == kChoice {
		s.choiceLeaves(p.p1, leaves)
		s.choiceLeaves(p.p2, leaves)
		return
	}
	leaves[id] = true
}

// filterChoice removes leaves present in exclude, reporting whether
// any leaf remains.
func (s *store) filterChoice(id patID, exclude map[patID]bool) (patID, bool) {
	if exclude[id] {
		return s.idNotAllowed, false
	}
	p := s.at(id)
	if p.kind != kChoice {
		return id, true
	}
	l, lok := s.filterChoice(p.p1, exclude)
	r, rok := s.filterChoice(p.p2, exclude)
	switch {
	case !lok && !rok:
		return s.idNotAllowed, false
	case !lok:
		return r, true
	case !rok:
		return l, true
	}
	nullable := s.nullable(l) || s.nullable(r)
	return s.push(pat{kind: kChoice, p1: l, p2: r, nullable: nullable}), true
}

func (s *store) group(left, right patID) patID {
	switch {
	case s.isNotAllowed(left) || s.isNotAllowed(right):
		return s.idNotAllowed
	case s.isEmpty(left):
		return right
	case s.isEmpty(right):
		return left
	}
	nullable := s.nullable(left) && s.nullable(right)
	return s.push(pat{kind: kGroup, p1: left, p2: right, nullable: nullable})
}

func (s *store) interleave(left, right patID) patID {
	switch {
	case s.isNotAllowed(left) || s.isNotAllowed(right):
		return s.idNotAllowed
	case s.isEmpty(left):
		return right
	case s.isEmpty(right):
		return left
	}
	nullable := s.nullable(left) && s.nullable(right)
	return s.push(pat{kind: kInterleave, p1: left, p2: right, nullable: nullable})
}

func (s *store) oneOrMore(id patID) patID {
	if s.isNotAllowed(id) {
		return s.idNotAllowed
	}
	return s.push(pat{kind: kOneOrMore, p1: id, nullable: s.nullable(id)})
}

func (s *store) after(p1, p2 patID) patID {
	if s.isNotAllowed(p1) || s.isNotAllowed(p2) {
		return s.idNotAllowed
	}
	return s.push(pat{kind: kAfter, p1: p1, p2: p2})
}

func (s *store) list(id patID) patID {
	return s.push(pat{kind: kList, p1: id})
}

func (s *store) attribute(nc model.NameClass, value patID) patID {
	return s.push(pat{kind: kAttribute, p1: value, nc: nc})
}

func (s *store) element(nc model.NameClass, content patID) patID {
	return s.push(pat{kind: kElement, p1: content, nc: nc})
}

// compile interns a model pattern. Refs compile through shells: the
// shell id registers before the body compiles, so cyclic references
// find an id to share, and the shell slot is overwritten with the
// body's pattern when it completes.
func (s *store) compile(p model.Pattern) patID {
	switch p := p.(type) {
	case *model.Empty:
		return s.idEmpty
	case *model.Text:
		return s.idText
	case *model.NotAllowed:
		return s.idNotAllowed
	case *model.Choice:
		return s.choice(s.compile(p.L), s.compile(p.R))
	case *model.Group:
		return s.group(s.compile(p.L), s.compile(p.R))
	case *model.Interleave:
		return s.interleave(s.compile(p.L), s.compile(p.R))
	case *model.OneOrMore:
		return s.oneOrMore(s.compile(p.P))
	case *model.List:
		return s.list(s.compile(p.P))
	case *model.Attribute:
		return s.attribute(p.Name, s.compile(p.Value))
	case *model.Element:
		return s.element(p.Name, s.compile(p.Content))
	case *model.Data:
		if p.Except != nil {
			return s.push(pat{kind: kDataExcept, p1: s.compile(p.Except), data: p})
		}
		return s.push(pat{kind: kData, data: p})
	case *model.Value:
		return s.push(pat{kind: kValue, value: p})
	case *model.Ref:
		if id, ok := s.refs[p.Define]; ok {
			return id
		}
		shell := patID(len(s.pats))
		s.pats = append(s.pats, pat{kind: kShell})
		s.refs[p.Define] = shell
		body := s.compile(p.Define.Body)
		if body != shell {
			s.pats[shell] = s.pats[body]
		}
		return shell
	}
	return s.idNotAllowed
}
