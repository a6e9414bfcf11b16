// Package model defines the simplified pattern graph produced by the
// compiler and consumed by the restriction checker and the validator.
//
// Patterns form a closed union; normalization has already rewritten
// optional, zeroOrMore and mixed into their choice/interleave forms.
// Defines are shared mutable handles built in two phases: the compiler
// allocates shells so refs can resolve, then fills bodies. After
// compilation the graph is immutable and may be shared across
// concurrent validators.
package model

import (
	"github.com/andaru/relaxng/datatype"
	"github.com/andaru/relaxng/rngerr"
	"github.com/andaru/relaxng/xmlutil"
)

// Pattern is a node of the compiled pattern graph.
type Pattern interface {
	// Span returns the source location of the pattern's origin.
	Span() rngerr.Span
	pattern()
}

type node struct{ Loc rngerr.Span }

func (n node) Span() rngerr.Span        { return n.Loc }
func (n *node) setSpan(loc rngerr.Span) { n.Loc = loc }

// Empty matches the empty sequence.
type Empty struct{ node }

// NotAllowed matches nothing. It may appear in intermediate terms;
// the derivative algebra absorbs it.
type NotAllowed struct{ node }

// Text matches zero or more text nodes.
type Text struct{ node }

// Element matches one element by name class and content.
type Element struct {
	node
	Name    NameClass
	Content Pattern
}

// Attribute matches one attribute by name class and value pattern.
type Attribute struct {
	node
	Name  NameClass
	Value Pattern
}

// Group matches L then R.
type Group struct {
	node
	L, R Pattern
}

// Interleave matches any interleaving of L and R.
type Interleave struct {
	node
	L, R Pattern
}

// Choice matches L or R.
type Choice struct {
	node
	L, R Pattern
}

// OneOrMore matches one or more repetitions of P.
type OneOrMore struct {
	node
	P Pattern
}

// List matches a whitespace-separated token list against P.
type List struct {
	node
	P Pattern
}

// Data matches text valid per the compiled datatype, excluding text
// matched by Except when present.
type Data struct {
	node
	Library string
	Type    string
	Desc    datatype.Descriptor
	Params  []datatype.Param
	Except  Pattern
}

// Value matches text denoting the same value as the compiled
// schema-side lexical form.
type Value struct {
	node
	Library string
	Type    string
	Lexical string
	Matcher datatype.ValueMatcher
}

// Ref is a reference to a define. Refs may form cycles; traversals
// carry a visited set keyed on the *Define handle.
type Ref struct {
	node
	Name   string
	Define *Define
}

func (*Empty) pattern()      {}
func (*NotAllowed) pattern() {}
func (*Text) pattern()       {}
func (*Element) pattern()    {}
func (*Attribute) pattern()  {}
func (*Group) pattern()      {}
func (*Interleave) pattern() {}
func (*Choice) pattern()     {}
func (*OneOrMore) pattern()  {}
func (*List) pattern()       {}
func (*Data) pattern()       {}
func (*Value) pattern()      {}
func (*Ref) pattern()        {}

// At attaches a source span to a pattern node, returning the node.
func At[P Pattern](p P, loc rngerr.Span) P {
	if s, ok := any(p).(interface{ setSpan(rngerr.Span) }); ok {
		s.setSpan(loc)
	}
	return p
}

// Combine is a define rule's combine mode.
type Combine int

const (
	// CombineNone means no combine mode was declared
	CombineNone Combine = iota
	// CombineChoice folds bodies with the choice combinator
	CombineChoice
	// CombineInterleave folds bodies with the interleave combinator
	CombineInterleave
)

// Define is a named definition shared by its refs. Body is nil for a
// freshly allocated shell and set exactly once during compilation.
type Define struct {
	Name    string
	Combine Combine
	Body    Pattern
	Loc     rngerr.Span
}

// Schema is a compiled schema: the start pattern rooting the model
// graph. The graph is kept alive by Start; defines are interior nodes
// reached through refs.
type Schema struct {
	Start Pattern
}

// NameClass is a predicate over qualified names.
type NameClass interface {
	// Contains reports whether the class matches name.
	Contains(name xmlutil.Name) bool
	nameClass()
}

// NameNamed matches exactly one qualified name.
type NameNamed struct {
	Name xmlutil.Name
}

// NameAny matches any name not matched by Except.
type NameAny struct {
	Except NameClass
}

// NameNS matches any name in namespace NS not matched by Except.
type NameNS struct {
	NS     string
	Except NameClass
}

// NameChoice matches names matched by either sub-class.
type NameChoice struct {
	A, B NameClass
}

func (*NameNamed) nameClass()  {}
func (*NameAny) nameClass()    {}
func (*NameNS) nameClass()     {}
func (*NameChoice) nameClass() {}

func (nc *NameNamed) Contains(name xmlutil.Name) bool { return nc.Name == name }

func (nc *NameAny) Contains(name xmlutil.Name) bool {
	return nc.Except == nil || !nc.Except.Contains(name)
}

func (nc *NameNS) Contains(name xmlutil.Name) bool {
	if name.NS != nc.NS {
		return false
	}
	return nc.Except == nil || !nc.Except.Contains(name)
}

func (nc *NameChoice) Contains(name xmlutil.Name) bool {
	return nc.A.Contains(name) || nc.B.Contains(name)
}
