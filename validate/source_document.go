package validate

import (
	"io"

	"github.com/andaru/relaxng/xmlutil"
	"github.com/antchfx/xmlquery"
)

// DocumentSource replays a parsed xmlquery document tree as events.
// It serves callers that already hold a document tree, and fragment
// validation, where only selected subtrees are replayed.
type DocumentSource struct {
	queue []Event
}

// NewDocumentSource returns a source replaying doc. doc may be a
// document node or an element; for a document node the root element
// is replayed.
func NewDocumentSource(doc *xmlquery.Node) *DocumentSource {
	s := &DocumentSource{}
	if doc.Type == xmlquery.DocumentNode {
		for n := doc.FirstChild; n != nil; n = n.NextSibling {
			if n.Type == xmlquery.ElementNode {
				s.walk(n)
				break
			}
		}
	} else {
		s.walk(doc)
	}
	return s
}

// Next implements TokenSource.
func (s *DocumentSource) Next() (Event, error) {
	if len(s.queue) == 0 {
		return nil, io.EOF
	}
	ev := s.queue[0]
	s.queue = s.queue[1:]
	return ev, nil
}

func (s *DocumentSource) walk(n *xmlquery.Node) {
	switch n.Type {
	case xmlquery.ElementNode:
		ev := &StartElement{
			Name:     xmlutil.Name{NS: n.NamespaceURI, Local: n.Data},
			Bindings: xmlutil.PrefixMap{},
		}
		for _, a := range n.Attr {
			if a.Name.Space == "xmlns" {
				ev.Bindings[a.Name.Local] = a.Value
				continue
			}
			if a.Name.Space == "" && a.Name.Local == "xmlns" {
				ev.Bindings[""] = a.Value
				continue
			}
			ev.Attrs = append(ev.Attrs, Attr{
				Name:  xmlutil.Name{NS: a.NamespaceURI, Local: a.Name.Local},
				Value: a.Value,
			})
		}
		s.queue = append(s.queue, ev)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			s.walk(c)
		}
		s.queue = append(s.queue, &EndElement{})
	case xmlquery.TextNode, xmlquery.CharDataNode:
		s.queue = append(s.queue, &Text{Data: n.Data})
	case xmlquery.CommentNode:
		s.queue = append(s.queue, &Comment{})
	case xmlquery.DeclarationNode:
		s.queue = append(s.queue, &ProcInst{})
	}
}
