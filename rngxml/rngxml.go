// Package rngxml parses the XML syntax of RELAX NG (.rng files) into
// the AST consumed by the compiler.
//
// The parser resolves namespace prefixes to URIs and threads the
// inherited ns and datatypeLibrary attributes onto every node, per
// the AST contract. The compact syntax is not handled here.
package rngxml

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/andaru/relaxng/ast"
	"github.com/andaru/relaxng/compiler"
	"github.com/andaru/relaxng/rngerr"
	"github.com/andaru/relaxng/xmlutil"
)

// NamespaceURI is the RELAX NG structure namespace.
const NamespaceURI = "http://relaxng.org/ns/structure/1.0"

// ParseSchema is a compiler.ParseFunc for schemas in the XML syntax.
func ParseSchema(identity string, contents []byte, syntax compiler.Syntax, inherited ast.Context) (ast.Pattern, rngerr.Diagnostics) {
	if syntax != compiler.SyntaxXML {
		return nil, rngerr.Diagnostics{rngerr.UnsupportedSyntax(syntax.String())}
	}
	return Parse(identity, contents, inherited)
}

// Parse parses schema contents into an AST pattern. inherited seeds
// the default namespace and datatype library context, implementing
// the externalRef ns override semantics.
func Parse(identity string, contents []byte, inherited ast.Context) (ast.Pattern, rngerr.Diagnostics) {
	p := &parser{file: identity, contents: contents}
	root := p.buildTree()
	if root == nil {
		if len(p.diags) == 0 {
			p.errAt(rngerr.Span{File: identity, Line: 1, Column: 1}, "empty schema document")
		}
		return nil, p.diags
	}
	ctx := inherit{ns: inherited.NS, dtlib: inherited.DatatypeLib}
	pattern := p.pattern(root, ctx)
	return pattern, p.diags
}

type parser struct {
	file     string
	contents []byte
	diags    rngerr.Diagnostics
}

func (p *parser) errAt(loc rngerr.Span, msg string) {
	p.diags = append(p.diags, rngerr.ParseError(msg, rngerr.WithSpan(loc)))
}

// elem is a lightweight document node: just enough structure to
// transform into the AST.
type elem struct {
	name     xml.Name
	attrs    []xml.Attr
	bindings map[string]string
	children []*elem
	text     string
	loc      rngerr.Span
}

func (e *elem) attr(local string) (string, bool) {
	for _, a := range e.attrs {
		if a.Name.Local == local && a.Name.Space == "" {
			return a.Value, true
		}
	}
	return "", false
}

// span converts a byte offset into a line/column span.
func (p *parser) span(offset int64) rngerr.Span {
	if offset > int64(len(p.contents)) {
		offset = int64(len(p.contents))
	}
	head := p.contents[:offset]
	line := 1 + bytes.Count(head, []byte{'\n'})
	col := int(offset) + 1
	if idx := bytes.LastIndexByte(head, '\n'); idx >= 0 {
		col = int(offset) - idx
	}
	return rngerr.Span{File: p.file, Line: line, Column: col, EndLine: line, EndColumn: col}
}

// buildTree reads the document into an elem tree, layering xmlns
// bindings per element.
func (p *parser) buildTree() *elem {
	d := xml.NewDecoder(bytes.NewReader(p.contents))
	var root *elem
	var stack []*elem
	for {
		offset := d.InputOffset()
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			p.errAt(p.span(offset), err.Error())
			return nil
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			bindings := map[string]string{}
			if len(stack) > 0 {
				for k, v := range stack[len(stack)-1].bindings {
					bindings[k] = v
				}
			}
			for k, v := range xmlutil.NewPrefixMap(tok.Attr...) {
				bindings[k] = v
			}
			e := &elem{
				name:     tok.Name,
				attrs:    tok.Copy().Attr,
				bindings: bindings,
				loc:      p.span(offset),
			}
			if len(stack) == 0 {
				if root != nil {
					p.errAt(e.loc, "multiple root elements")
					return nil
				}
				root = e
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, e)
			}
			stack = append(stack, e)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text += string(tok)
			}
		default:
			// comments, directives and processing instructions carry
			// no schema meaning
		}
	}
	return root
}

// inherit is the inherited attribute state threaded onto AST nodes.
type inherit struct {
	ns    string
	dtlib string
}

// apply folds an element's ns and datatypeLibrary attributes into the
// inherited state.
func (in inherit) apply(e *elem) inherit {
	if v, ok := e.attr("ns"); ok {
		in.ns = v
	}
	if v, ok := e.attr("datatypeLibrary"); ok {
		in.dtlib = v
	}
	return in
}

func (p *parser) context(e *elem, in inherit) ast.Context {
	return ast.Context{Loc: e.loc, NS: in.ns, DatatypeLib: in.dtlib}
}

func (p *parser) badElement(e *elem, want string) ast.Pattern {
	p.errAt(e.loc, "unexpected element "+e.name.Local+" (expected "+want+")")
	return nil
}

func (p *parser) pattern(e *elem, in inherit) ast.Pattern {
	if e.name.Space != NamespaceURI {
		return p.badElement(e, "a RELAX NG pattern")
	}
	in = in.apply(e)
	ctx := p.context(e, in)
	switch e.name.Local {
	case "empty":
		return &ast.Empty{Context: ctx}
	case "text":
		return &ast.Text{Context: ctx}
	case "notAllowed":
		return &ast.NotAllowed{Context: ctx}
	case "element":
		nc, rest := p.nameClassHead(e, in, in.ns)
		return &ast.Element{Context: ctx, NameClass: nc, Patterns: p.patterns(rest, in)}
	case "attribute":
		// unprefixed attribute names live in no namespace
		nc, rest := p.nameClassHead(e, in, "")
		return &ast.Attribute{Context: ctx, NameClass: nc, Patterns: p.patterns(rest, in)}
	case "group":
		return &ast.Group{Context: ctx, Patterns: p.patterns(e.children, in)}
	case "interleave":
		return &ast.Interleave{Context: ctx, Patterns: p.patterns(e.children, in)}
	case "choice":
		return &ast.Choice{Context: ctx, Patterns: p.patterns(e.children, in)}
	case "optional":
		return &ast.Optional{Context: ctx, Patterns: p.patterns(e.children, in)}
	case "zeroOrMore":
		return &ast.ZeroOrMore{Context: ctx, Patterns: p.patterns(e.children, in)}
	case "oneOrMore":
		return &ast.OneOrMore{Context: ctx, Patterns: p.patterns(e.children, in)}
	case "mixed":
		return &ast.Mixed{Context: ctx, Patterns: p.patterns(e.children, in)}
	case "list":
		return &ast.List{Context: ctx, Patterns: p.patterns(e.children, in)}
	case "ref":
		return &ast.Ref{Context: ctx, Name: p.nameAttr(e)}
	case "parentRef":
		return &ast.ParentRef{Context: ctx, Name: p.nameAttr(e)}
	case "externalRef":
		href, _ := e.attr("href")
		return &ast.ExternalRef{Context: ctx, Href: href}
	case "value":
		typ, _ := e.attr("type")
		bindings := make(map[string]string, len(e.bindings)+1)
		for k, v := range e.bindings {
			bindings[k] = v
		}
		// the ns attribute, not the document's default xmlns, is the
		// default namespace for QName values
		bindings[""] = in.ns
		return &ast.Value{Context: ctx, Type: typ, Text: e.text, NSBindings: bindings}
	case "data":
		return p.data(e, ctx, in)
	case "grammar":
		return &ast.Grammar{Context: ctx, Content: p.grammarContent(e.children, in)}
	}
	return p.badElement(e, "a RELAX NG pattern")
}

func (p *parser) patterns(children []*elem, in inherit) []ast.Pattern {
	var out []ast.Pattern
	for _, c := range children {
		if pat := p.pattern(c, in); pat != nil {
			out = append(out, pat)
		}
	}
	return out
}

func (p *parser) nameAttr(e *elem) string {
	name, ok := e.attr("name")
	if !ok {
		p.errAt(e.loc, e.name.Local+" requires a name attribute")
	}
	return strings.TrimSpace(name)
}

func (p *parser) data(e *elem, ctx ast.Context, in inherit) ast.Pattern {
	typ, ok := e.attr("type")
	if !ok {
		p.errAt(e.loc, "data requires a type attribute")
	}
	d := &ast.Data{Context: ctx, Type: typ}
	for _, c := range e.children {
		switch c.name.Local {
		case "param":
			name, _ := c.attr("name")
			d.Params = append(d.Params, ast.Param{
				Context: p.context(c, in), Name: name, Value: c.text})
		case "except":
			pats := p.patterns(c.children, in)
			switch len(pats) {
			case 0:
			case 1:
				d.Except = pats[0]
			default:
				d.Except = &ast.Choice{Context: p.context(c, in), Patterns: pats}
			}
		default:
			p.badElement(c, "param or except")
		}
	}
	return d
}

// nameClassHead extracts an element or attribute pattern's name
// class, either from the name attribute (defaultNS applying to
// unprefixed names) or from the leading name-class child element. It
// returns the remaining pattern children.
func (p *parser) nameClassHead(e *elem, in inherit, defaultNS string) (ast.NameClass, []*elem) {
	if name, ok := e.attr("name"); ok {
		return p.qname(e, strings.TrimSpace(name), defaultNS), e.children
	}
	if len(e.children) == 0 {
		p.errAt(e.loc, e.name.Local+" requires a name attribute or name class")
		return nil, nil
	}
	return p.nameClass(e.children[0], in, defaultNS), e.children[1:]
}

func (p *parser) qname(e *elem, name, defaultNS string) ast.NameClass {
	ctx := ast.Context{Loc: e.loc}
	prefix, local, hasPrefix := strings.Cut(name, ":")
	if !hasPrefix {
		return &ast.Name{Context: ctx, NS: defaultNS, Local: name}
	}
	uri, ok := e.bindings[prefix]
	if !ok && prefix == "xml" {
		uri = xmlutil.XMLNamespaceURI
	} else if !ok {
		p.errAt(e.loc, "undefined namespace prefix "+prefix)
	}
	return &ast.Name{Context: ctx, NS: uri, Local: local}
}

func (p *parser) nameClass(e *elem, in inherit, defaultNS string) ast.NameClass {
	if e.name.Space != NamespaceURI {
		p.badElement(e, "a name class")
		return nil
	}
	in = in.apply(e)
	if ns, ok := e.attr("ns"); ok {
		defaultNS = ns
	}
	ctx := ast.Context{Loc: e.loc, NS: in.ns, DatatypeLib: in.dtlib}
	switch e.name.Local {
	case "name":
		return p.qname(e, strings.TrimSpace(e.text), defaultNS)
	case "anyName":
		return &ast.AnyName{Context: ctx, Except: p.exceptNameClass(e, in, defaultNS)}
	case "nsName":
		return &ast.NsName{Context: ctx, NS: defaultNS, Except: p.exceptNameClass(e, in, defaultNS)}
	case "choice":
		classes := make([]ast.NameClass, 0, len(e.children))
		for _, c := range e.children {
			if nc := p.nameClass(c, in, defaultNS); nc != nil {
				classes = append(classes, nc)
			}
		}
		return p.foldNameChoice(e, ctx, classes)
	}
	p.badElement(e, "a name class")
	return nil
}

func (p *parser) foldNameChoice(e *elem, ctx ast.Context, classes []ast.NameClass) ast.NameClass {
	switch len(classes) {
	case 0:
		p.errAt(e.loc, "empty name-class choice")
		return nil
	case 1:
		return classes[0]
	}
	acc := classes[0]
	for _, nc := range classes[1:] {
		acc = &ast.NameChoice{Context: ctx, A: acc, B: nc}
	}
	return acc
}

func (p *parser) exceptNameClass(e *elem, in inherit, defaultNS string) ast.NameClass {
	for _, c := range e.children {
		if c.name.Local != "except" || c.name.Space != NamespaceURI {
			p.badElement(c, "except")
			continue
		}
		classes := make([]ast.NameClass, 0, len(c.children))
		for _, cc := range c.children {
			if nc := p.nameClass(cc, in, defaultNS); nc != nil {
				classes = append(classes, nc)
			}
		}
		return p.foldNameChoice(c, ast.Context{Loc: c.loc}, classes)
	}
	return nil
}

func (p *parser) grammarContent(children []*elem, in inherit) []ast.GrammarContent {
	var out []ast.GrammarContent
	for _, c := range children {
		if gc := p.grammarEntry(c, in); gc != nil {
			out = append(out, gc)
		}
	}
	return out
}

func (p *parser) grammarEntry(e *elem, in inherit) ast.GrammarContent {
	if e.name.Space != NamespaceURI {
		p.badElement(e, "grammar content")
		return nil
	}
	in = in.apply(e)
	ctx := p.context(e, in)
	switch e.name.Local {
	case "define":
		return &ast.Define{
			Context:  ctx,
			Name:     p.nameAttr(e),
			Combine:  p.combine(e),
			Patterns: p.patterns(e.children, in),
		}
	case "start":
		pats := p.patterns(e.children, in)
		if len(pats) != 1 {
			p.errAt(e.loc, "start requires exactly one pattern")
			return nil
		}
		return &ast.Start{Context: ctx, Combine: p.combine(e), Pattern: pats[0]}
	case "div":
		return &ast.Div{Context: ctx, Content: p.grammarContent(e.children, in)}
	case "include":
		href, _ := e.attr("href")
		return &ast.Include{Context: ctx, Href: href, Content: p.grammarContent(e.children, in)}
	}
	p.badElement(e, "grammar content")
	return nil
}

func (p *parser) combine(e *elem) ast.Combine {
	v, ok := e.attr("combine")
	if !ok {
		return ast.CombineNone
	}
	switch strings.TrimSpace(v) {
	case "choice":
		return ast.CombineChoice
	case "interleave":
		return ast.CombineInterleave
	}
	p.errAt(e.loc, "combine must be choice or interleave")
	return ast.CombineNone
}
