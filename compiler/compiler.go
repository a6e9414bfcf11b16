package compiler

import (
	"net/url"

	"github.com/andaru/relaxng/ast"
	"github.com/andaru/relaxng/datatype"
	"github.com/andaru/relaxng/model"
	"github.com/andaru/relaxng/rngerr"
)

// Compile resolves, parses and compiles the schema located by start,
// returning the model graph or the accumulated diagnostics.
func Compile(start string, res Resolver, parse ParseFunc) (*model.Schema, rngerr.Diagnostics) {
	c := &compiler{res: res, parse: parse}
	root, identity := c.load(start, rngerr.Span{}, ast.Context{})
	if root == nil {
		return nil, c.diags
	}
	c.fileStack = append(c.fileStack, identity)
	return c.finish(root)
}

// CompilePattern compiles an already-parsed schema AST. The resolver
// and parser are consulted only for include and externalRef.
func CompilePattern(root ast.Pattern, res Resolver, parse ParseFunc) (*model.Schema, rngerr.Diagnostics) {
	c := &compiler{res: res, parse: parse}
	return c.finish(root)
}

type compiler struct {
	res       Resolver
	parse     ParseFunc
	diags     rngerr.Diagnostics
	fileStack []string
	recState  map[*model.Define]int
}

func (c *compiler) report(d *rngerr.Diagnostic) { c.diags = append(c.diags, d) }

func (c *compiler) finish(root ast.Pattern) (*model.Schema, rngerr.Diagnostics) {
	start := c.compileTop(root, nil)
	if c.diags.HasErrors() {
		return nil, c.diags
	}
	return &model.Schema{Start: start}, c.diags
}

// compileTop compiles a schema's root pattern. A non-grammar root is
// an implicit grammar whose start is the pattern itself.
func (c *compiler) compileTop(p ast.Pattern, parent *scope) model.Pattern {
	if g, ok := p.(*ast.Grammar); ok {
		return c.grammar(g, parent)
	}
	return c.pattern(p, newScope(parent))
}

// scope is one grammar's define namespace. parentRef resolves in the
// lexically enclosing scope.
type scope struct {
	parent  *scope
	defines map[string]*defineSlot
	start   *defineSlot
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, defines: map[string]*defineSlot{}}
}

// defineSlot accumulates the define rules sharing one name, plus the
// shell *model.Define refs resolve to before bodies exist.
type defineSlot struct {
	def     *model.Define
	combine model.Combine
	// plain counts definitions with no combine attribute; more than
	// one is a duplicate definition.
	plain  int
	bodies []bodyEntry
}

type bodyEntry struct {
	patterns []ast.Pattern
	loc      rngerr.Span
}

func (c *compiler) grammar(g *ast.Grammar, parent *scope) model.Pattern {
	s := newScope(parent)
	c.collect(g.Content, s)
	// bodies compile only after every shell in this scope exists, so
	// refs always have a define to point at
	for _, slot := range s.defines {
		slot.def.Body = c.foldBodies(slot, s)
	}
	if s.start == nil {
		c.report(rngerr.UnresolvedRef("start",
			rngerr.WithSpan(g.Loc),
			rngerr.WithMessage("grammar has no start rule")))
		return &model.NotAllowed{}
	}
	s.start.def.Body = c.foldBodies(s.start, s)
	c.checkRecursion(s)
	return s.start.def.Body
}

// collect registers the defines and start rules of grammar content,
// flattening div and splicing include.
func (c *compiler) collect(content []ast.GrammarContent, s *scope) {
	for _, entry := range content {
		switch entry := entry.(type) {
		case *ast.Define:
			c.registerDefine(s, entry)
		case *ast.Start:
			c.registerStart(s, entry)
		case *ast.Div:
			c.collect(entry.Content, s)
		case *ast.Include:
			c.include(entry, s)
		}
	}
}

func (c *compiler) registerDefine(s *scope, d *ast.Define) {
	if !datatype.IsNCName(d.Name) {
		c.report(rngerr.NCNameSyntax(d.Name, rngerr.WithSpan(d.Loc)))
		return
	}
	slot := s.defines[d.Name]
	if slot == nil {
		slot = &defineSlot{def: &model.Define{Name: d.Name, Loc: d.Loc}}
		s.defines[d.Name] = slot
	}
	c.mergeCombine(slot, d.Name, d.Combine, d.Loc)
	slot.bodies = append(slot.bodies, bodyEntry{patterns: d.Patterns, loc: d.Loc})
}

func (c *compiler) registerStart(s *scope, st *ast.Start) {
	if s.start == nil {
		s.start = &defineSlot{def: &model.Define{Name: "start", Loc: st.Loc}}
	}
	c.mergeCombine(s.start, "start", st.Combine, st.Loc)
	s.start.bodies = append(s.start.bodies, bodyEntry{patterns: []ast.Pattern{st.Pattern}, loc: st.Loc})
}

func (c *compiler) mergeCombine(slot *defineSlot, name string, combine ast.Combine, loc rngerr.Span) {
	mode := model.CombineNone
	switch combine {
	case ast.CombineChoice:
		mode = model.CombineChoice
	case ast.CombineInterleave:
		mode = model.CombineInterleave
	}
	if mode == model.CombineNone {
		if slot.plain++; slot.plain > 1 {
			c.report(rngerr.DuplicateDefinition(name, rngerr.WithSpan(loc)))
		}
		return
	}
	if slot.combine != model.CombineNone && slot.combine != mode {
		c.report(rngerr.IncompatibleCombine(name, rngerr.WithSpan(loc)))
		return
	}
	slot.combine = mode
	slot.def.Combine = mode
}

// foldBodies compiles a slot's bodies and folds them left to right
// under the slot's combine mode.
func (c *compiler) foldBodies(slot *defineSlot, s *scope) model.Pattern {
	var acc model.Pattern
	for _, body := range slot.bodies {
		p := c.sequence(body.patterns, body.loc, s)
		if acc == nil {
			acc = p
			continue
		}
		switch slot.combine {
		case model.CombineInterleave:
			acc = interleave(acc, p, body.loc)
		default:
			acc = choice(acc, p, body.loc)
		}
	}
	if acc == nil {
		acc = &model.NotAllowed{}
	}
	return acc
}

// include splices another grammar's definitions into s. Defines and
// start rules in the include body override the same-named definitions
// of the included grammar.
func (c *compiler) include(inc *ast.Include, s *scope) {
	parsed, identity := c.load(inc.Href, inc.Loc, ast.Context{NS: inc.NS, DatatypeLib: inc.DatatypeLib})
	if parsed == nil {
		return
	}
	g, ok := parsed.(*ast.Grammar)
	if !ok {
		c.report(rngerr.ParseError("included schema is not a grammar", rngerr.WithSpan(inc.Loc)))
		return
	}
	overridden := map[string]bool{}
	dropStart := false
	markOverrides(inc.Content, overridden, &dropStart)

	c.fileStack = append(c.fileStack, identity)
	c.collect(filterContent(g.Content, overridden, dropStart), s)
	c.fileStack = c.fileStack[:len(c.fileStack)-1]

	c.collect(inc.Content, s)
}

func markOverrides(content []ast.GrammarContent, names map[string]bool, dropStart *bool) {
	for _, entry := range content {
		switch entry := entry.(type) {
		case *ast.Define:
			names[entry.Name] = true
		case *ast.Start:
			*dropStart = true
		case *ast.Div:
			markOverrides(entry.Content, names, dropStart)
		}
	}
}

func filterContent(content []ast.GrammarContent, names map[string]bool, dropStart bool) []ast.GrammarContent {
	var out []ast.GrammarContent
	for _, entry := range content {
		switch entry := entry.(type) {
		case *ast.Define:
			if names[entry.Name] {
				continue
			}
		case *ast.Start:
			if dropStart {
				continue
			}
		case *ast.Div:
			entry = &ast.Div{Context: entry.Context, Content: filterContent(entry.Content, names, dropStart)}
			out = append(out, entry)
			continue
		}
		out = append(out, entry)
	}
	return out
}

// sequence folds patterns into a left-associative group; the empty
// sequence is empty.
func (c *compiler) sequence(patterns []ast.Pattern, loc rngerr.Span, s *scope) model.Pattern {
	if len(patterns) == 0 {
		return model.At(&model.Empty{}, loc)
	}
	acc := c.pattern(patterns[0], s)
	for _, p := range patterns[1:] {
		acc = group(acc, c.pattern(p, s), loc)
	}
	return acc
}

func (c *compiler) pattern(p ast.Pattern, s *scope) model.Pattern {
	loc := p.Span()
	switch p := p.(type) {
	case *ast.Empty:
		return model.At(&model.Empty{}, loc)
	case *ast.Text:
		return model.At(&model.Text{}, loc)
	case *ast.NotAllowed:
		return model.At(&model.NotAllowed{}, loc)
	case *ast.Element:
		return model.At(&model.Element{
			Name:    c.nameClass(p.NameClass),
			Content: c.sequence(p.Patterns, loc, s),
		}, loc)
	case *ast.Attribute:
		value := model.Pattern(&model.Text{})
		if len(p.Patterns) > 0 {
			value = c.sequence(p.Patterns, loc, s)
		}
		return attribute(c.nameClass(p.NameClass), value, loc)
	case *ast.Group:
		return c.sequence(p.Patterns, loc, s)
	case *ast.Interleave:
		return c.foldBinary(p.Patterns, loc, s, interleave)
	case *ast.Choice:
		return c.foldBinary(p.Patterns, loc, s, choice)
	case *ast.Optional:
		return choice(c.sequence(p.Patterns, loc, s), model.At(&model.Empty{}, loc), loc)
	case *ast.ZeroOrMore:
		return choice(oneOrMore(c.sequence(p.Patterns, loc, s), loc), model.At(&model.Empty{}, loc), loc)
	case *ast.OneOrMore:
		return oneOrMore(c.sequence(p.Patterns, loc, s), loc)
	case *ast.Mixed:
		return interleave(c.sequence(p.Patterns, loc, s), model.At(&model.Text{}, loc), loc)
	case *ast.List:
		return list(c.sequence(p.Patterns, loc, s), loc)
	case *ast.Data:
		return c.data(p, s)
	case *ast.Value:
		return c.value(p)
	case *ast.Ref:
		return c.ref(s, p.Name, loc)
	case *ast.ParentRef:
		if s.parent == nil {
			c.report(rngerr.UnresolvedRef(p.Name, rngerr.WithSpan(loc),
				rngerr.WithMessagef("parentRef %q outside a nested grammar", p.Name)))
			return model.At(&model.NotAllowed{}, loc)
		}
		return c.ref(s.parent, p.Name, loc)
	case *ast.ExternalRef:
		return c.externalRef(p)
	case *ast.Grammar:
		return c.grammar(p, s)
	}
	c.report(rngerr.ParseError("unknown pattern", rngerr.WithSpan(loc)))
	return model.At(&model.NotAllowed{}, loc)
}

func (c *compiler) foldBinary(patterns []ast.Pattern, loc rngerr.Span, s *scope,
	op func(l, r model.Pattern, loc rngerr.Span) model.Pattern) model.Pattern {
	if len(patterns) == 0 {
		return model.At(&model.Empty{}, loc)
	}
	acc := c.pattern(patterns[0], s)
	for _, p := range patterns[1:] {
		acc = op(acc, c.pattern(p, s), loc)
	}
	return acc
}

func (c *compiler) ref(s *scope, name string, loc rngerr.Span) model.Pattern {
	if !datatype.IsNCName(name) {
		c.report(rngerr.NCNameSyntax(name, rngerr.WithSpan(loc)))
		return model.At(&model.NotAllowed{}, loc)
	}
	slot, ok := s.defines[name]
	if !ok {
		c.report(rngerr.UnresolvedRef(name, rngerr.WithSpan(loc)))
		return model.At(&model.NotAllowed{}, loc)
	}
	return model.At(&model.Ref{Name: name, Define: slot.def}, loc)
}

func (c *compiler) externalRef(x *ast.ExternalRef) model.Pattern {
	loc := x.Loc
	parsed, identity := c.load(x.Href, loc, ast.Context{NS: x.NS, DatatypeLib: x.DatatypeLib})
	if parsed == nil {
		return model.At(&model.NotAllowed{}, loc)
	}
	c.fileStack = append(c.fileStack, identity)
	p := c.compileTop(parsed, nil)
	c.fileStack = c.fileStack[:len(c.fileStack)-1]
	return p
}

// library validates and looks up the datatype library for uri.
func (c *compiler) library(uri string, loc rngerr.Span) (datatype.Library, bool) {
	if uri != "" {
		if u, err := url.Parse(uri); err != nil || !u.IsAbs() {
			c.report(rngerr.InvalidDatatypeLibraryURI(uri, rngerr.WithSpan(loc)))
			return nil, false
		}
	}
	lib, ok := datatype.Lookup(uri)
	if !ok {
		c.report(rngerr.UnknownDatatypeLibrary(uri, rngerr.WithSpan(loc)))
		return nil, false
	}
	return lib, true
}

func (c *compiler) data(d *ast.Data, s *scope) model.Pattern {
	loc := d.Loc
	lib, ok := c.library(d.DatatypeLib, loc)
	if !ok {
		return model.At(&model.NotAllowed{}, loc)
	}
	params := make([]datatype.Param, len(d.Params))
	for i, p := range d.Params {
		params[i] = datatype.Param{Name: p.Name, Value: p.Value}
	}
	desc, err := lib.Type(d.Type, params)
	if err != nil {
		c.reportDatatypeErr(err, loc)
		return model.At(&model.NotAllowed{}, loc)
	}
	var except model.Pattern
	if d.Except != nil {
		// data - notAllowed simplifies to plain data
		if ep := c.pattern(d.Except, s); !isNotAllowed(ep) {
			except = ep
		}
	}
	return model.At(&model.Data{
		Library: lib.URI(),
		Type:    d.Type,
		Desc:    desc,
		Params:  params,
		Except:  except,
	}, loc)
}

func (c *compiler) value(v *ast.Value) model.Pattern {
	loc := v.Loc
	libURI, typ := v.DatatypeLib, v.Type
	if typ == "" {
		// value with no type means builtin token
		libURI, typ = datatype.BuiltinURI, "token"
	}
	lib, ok := c.library(libURI, loc)
	if !ok {
		return model.At(&model.NotAllowed{}, loc)
	}
	matcher, err := lib.CompileValue(typ, v.Text, v.NSBindings)
	if err != nil {
		c.reportDatatypeErr(err, loc)
		return model.At(&model.NotAllowed{}, loc)
	}
	return model.At(&model.Value{
		Library: lib.URI(),
		Type:    typ,
		Lexical: v.Text,
		Matcher: matcher,
	}, loc)
}

func (c *compiler) reportDatatypeErr(err error, loc rngerr.Span) {
	switch err := err.(type) {
	case *datatype.UnsupportedError:
		c.report(rngerr.UnknownDatatype(err.Name, rngerr.WithSpan(loc)))
	case *datatype.FacetError:
		c.report(rngerr.InvalidFacet(err.Error(), rngerr.WithSpan(loc)))
	default:
		c.report(rngerr.DatatypeError(err.Error(), rngerr.WithSpan(loc)))
	}
}

func (c *compiler) nameClass(nc ast.NameClass) model.NameClass {
	switch nc := nc.(type) {
	case *ast.Name:
		if !datatype.IsNCName(nc.Local) {
			c.report(rngerr.NCNameSyntax(nc.Local, rngerr.WithSpan(nc.Loc)))
		}
		return &model.NameNamed{Name: newName(nc.NS, nc.Local)}
	case *ast.AnyName:
		out := &model.NameAny{}
		if nc.Except != nil {
			out.Except = c.nameClass(nc.Except)
		}
		return out
	case *ast.NsName:
		out := &model.NameNS{NS: nc.NS}
		if nc.Except != nil {
			out.Except = c.nameClass(nc.Except)
		}
		return out
	case *ast.NameChoice:
		return &model.NameChoice{A: c.nameClass(nc.A), B: c.nameClass(nc.B)}
	case nil:
		c.report(rngerr.InvalidNameClass("missing name class"))
		return &model.NameAny{}
	}
	c.report(rngerr.InvalidNameClass("unknown name class"))
	return &model.NameAny{}
}
