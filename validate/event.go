package validate

import (
	"github.com/andaru/relaxng/rngerr"
	"github.com/andaru/relaxng/xmlutil"
)

// Event is one lexical event from the document tokenizer, delivered
// in document order. The tokenizer is an external collaborator; the
// adapters in this package produce Events from encoding/xml token
// streams and from xmlquery document trees.
type Event interface {
	Span() rngerr.Span
	event()
}

// Attr is one attribute of a start-element event. Namespace
// declarations are not attributes: adapters deliver those in
// StartElement.Bindings.
type Attr struct {
	Name  xmlutil.Name
	Value string
	Loc   rngerr.Span
}

// StartElement opens an element. Bindings holds the namespace
// declarations appearing on this element only; the validator layers
// them onto its scope stack.
type StartElement struct {
	Name     xmlutil.Name
	Attrs    []Attr
	Bindings xmlutil.PrefixMap
	Loc      rngerr.Span
}

// EndElement closes the most recently opened element.
type EndElement struct {
	Loc rngerr.Span
}

// Text is a contiguous run of character data, entity references
// already resolved.
type Text struct {
	Data string
	Loc  rngerr.Span
}

// Comment is delivered and ignored: it neither interrupts text
// accumulation nor affects the pattern.
type Comment struct {
	Loc rngerr.Span
}

// ProcInst is delivered and ignored, like Comment.
type ProcInst struct {
	Loc rngerr.Span
}

func (e *StartElement) Span() rngerr.Span { return e.Loc }
func (e *EndElement) Span() rngerr.Span   { return e.Loc }
func (e *Text) Span() rngerr.Span         { return e.Loc }
func (e *Comment) Span() rngerr.Span      { return e.Loc }
func (e *ProcInst) Span() rngerr.Span     { return e.Loc }

func (*StartElement) event() {}
func (*EndElement) event()   {}
func (*Text) event()         {}
func (*Comment) event()      {}
func (*ProcInst) event()     {}

// TokenSource supplies events in document order. Next returns io.EOF
// after the last event.
type TokenSource interface {
	Next() (Event, error)
}
