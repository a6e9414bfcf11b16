// Package ast defines the abstract syntax tree produced by schema
// parsers and consumed by the compiler.
//
// Parsers resolve namespace prefixes to URIs and propagate the
// inherited ns and datatypeLibrary context onto every node before the
// compiler sees the tree; the compiler never handles prefixes except
// inside value bodies of QName type.
package ast

import "github.com/andaru/relaxng/rngerr"

// Context is the inherited attribute state every AST node carries: the
// node's source span, the default namespace from enclosing ns
// attributes, and the datatype library URI from enclosing
// datatypeLibrary attributes.
type Context struct {
	Loc rngerr.Span
	// NS is the inherited default namespace applied to unprefixed
	// element name classes.
	NS string
	// DatatypeLib is the inherited datatype library URI applied to
	// data and value patterns.
	DatatypeLib string
}

// Span returns the node's source span.
func (c Context) Span() rngerr.Span { return c.Loc }

// Combine is a define rule's combine mode.
type Combine int

const (
	// CombineNone means no combine attribute was present
	CombineNone Combine = iota
	// CombineChoice folds same-name defines with the choice combinator
	CombineChoice
	// CombineInterleave folds same-name defines with interleave
	CombineInterleave
)

func (c Combine) String() string {
	switch c {
	case CombineChoice:
		return "choice"
	case CombineInterleave:
		return "interleave"
	default:
		return ""
	}
}

// Pattern is a parsed schema pattern. The set of implementations is
// closed; the compiler dispatches by exhaustive type switch.
type Pattern interface {
	Span() rngerr.Span
	astPattern()
}

// NameClass is a parsed name class.
type NameClass interface {
	Span() rngerr.Span
	astNameClass()
}

// Name matches exactly one qualified name. NS has already been
// resolved from the element context or a prefix by the parser.
type Name struct {
	Context
	NS    string
	Local string
}

// AnyName matches any name, less the names matched by Except.
type AnyName struct {
	Context
	Except NameClass
}

// NsName matches any name in namespace NS, less Except.
type NsName struct {
	Context
	NS     string
	Except NameClass
}

// NameChoice matches names matched by either sub-class.
type NameChoice struct {
	Context
	A, B NameClass
}

func (*Name) astNameClass()       {}
func (*AnyName) astNameClass()    {}
func (*NsName) astNameClass()     {}
func (*NameChoice) astNameClass() {}

// Empty matches the empty sequence.
type Empty struct{ Context }

// Text matches zero or more text nodes.
type Text struct{ Context }

// NotAllowed matches nothing.
type NotAllowed struct{ Context }

// Element matches an element whose name is in NameClass and whose
// attributes and children match the implicit group of Patterns.
type Element struct {
	Context
	NameClass NameClass
	Patterns  []Pattern
}

// Attribute matches a single attribute. An absent pattern list
// defaults to text.
type Attribute struct {
	Context
	NameClass NameClass
	Patterns  []Pattern
}

// Group matches its members in order.
type Group struct {
	Context
	Patterns []Pattern
}

// Interleave matches its members in any interleaving.
type Interleave struct {
	Context
	Patterns []Pattern
}

// Choice matches any one member.
type Choice struct {
	Context
	Patterns []Pattern
}

// Optional matches its body or nothing.
type Optional struct {
	Context
	Patterns []Pattern
}

// ZeroOrMore matches zero or more repetitions of its body.
type ZeroOrMore struct {
	Context
	Patterns []Pattern
}

// OneOrMore matches one or more repetitions of its body.
type OneOrMore struct {
	Context
	Patterns []Pattern
}

// Mixed matches its body interleaved with text.
type Mixed struct {
	Context
	Patterns []Pattern
}

// List matches a whitespace-separated token list against its body.
type List struct {
	Context
	Patterns []Pattern
}

// Param is a single datatype facet parameter.
type Param struct {
	Context
	Name  string
	Value string
}

// Data matches text valid per the named datatype under Params, and,
// when Except is present, not matched by Except.
type Data struct {
	Context
	Type   string
	Params []Param
	Except Pattern
}

// Value matches text equal, in the datatype's value space, to Text.
// For QName-typed values, NSBindings carries the schema-side prefix
// bindings in scope at the value's location.
type Value struct {
	Context
	Type       string
	Text       string
	NSBindings map[string]string
}

// Ref refers to a define in the nearest enclosing grammar.
type Ref struct {
	Context
	Name string
}

// ParentRef refers to a define in the parent of the nearest grammar.
type ParentRef struct {
	Context
	Name string
}

// ExternalRef includes the start pattern of another schema file. A
// non-empty NS overrides the referenced schema's default namespace.
type ExternalRef struct {
	Context
	Href string
}

// Grammar introduces a new define scope with its own start.
type Grammar struct {
	Context
	Content []GrammarContent
}

func (*Empty) astPattern()       {}
func (*Text) astPattern()        {}
func (*NotAllowed) astPattern()  {}
func (*Element) astPattern()     {}
func (*Attribute) astPattern()   {}
func (*Group) astPattern()       {}
func (*Interleave) astPattern()  {}
func (*Choice) astPattern()      {}
func (*Optional) astPattern()    {}
func (*ZeroOrMore) astPattern()  {}
func (*OneOrMore) astPattern()   {}
func (*Mixed) astPattern()       {}
func (*List) astPattern()        {}
func (*Data) astPattern()        {}
func (*Value) astPattern()       {}
func (*Ref) astPattern()         {}
func (*ParentRef) astPattern()   {}
func (*ExternalRef) astPattern() {}
func (*Grammar) astPattern()     {}

// GrammarContent is a member of a grammar (or include or div) body.
type GrammarContent interface {
	Span() rngerr.Span
	astGrammarContent()
}

// Define binds Name to the implicit group of Patterns.
type Define struct {
	Context
	Name     string
	Combine  Combine
	Patterns []Pattern
}

// Start is a grammar's distinguished start rule.
type Start struct {
	Context
	Combine Combine
	Pattern Pattern
}

// Div groups grammar content without affecting scope; the compiler
// flattens it.
type Div struct {
	Context
	Content []GrammarContent
}

// Include splices the definitions of another grammar file. Content
// holds defines and start rules that override the same-named
// definitions of the included grammar.
type Include struct {
	Context
	Href    string
	Content []GrammarContent
}

func (*Define) astGrammarContent()  {}
func (*Start) astGrammarContent()   {}
func (*Div) astGrammarContent()     {}
func (*Include) astGrammarContent() {}
