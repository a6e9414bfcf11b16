package compiler

import (
	"fmt"

	"github.com/andaru/relaxng/ast"
	"github.com/andaru/relaxng/rngerr"
)

// Syntax tags the concrete schema syntax of a resolved file.
type Syntax int

const (
	// SyntaxXML is the XML-tagged syntax (.rng)
	SyntaxXML Syntax = iota
	// SyntaxCompact is the compact textual syntax (.rnc)
	SyntaxCompact
)

func (s Syntax) String() string {
	switch s {
	case SyntaxXML:
		return "xml"
	case SyntaxCompact:
		return "compact"
	default:
		return fmt.Sprintf("Syntax(%d)", int(s))
	}
}

// Resolved is a schema file located by a Resolver. Identity must be
// canonical: equal identities mean the same underlying file whatever
// the path spelling, which is what makes cycle detection reliable.
type Resolved struct {
	Identity string
	Contents []byte
	Syntax   Syntax
}

// Resolver locates schema files for include and externalRef. base is
// the canonical identity of the referring file, empty for the
// initial schema.
type Resolver interface {
	Resolve(base, href string) (Resolved, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(base, href string) (Resolved, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(base, href string) (Resolved, error) { return f(base, href) }

// ParseFunc parses resolved schema contents into an AST. inherited
// carries the default namespace and datatype library context the
// referencing schema imposes (externalRef ns override semantics).
type ParseFunc func(identity string, contents []byte, syntax Syntax, inherited ast.Context) (ast.Pattern, rngerr.Diagnostics)

// load resolves and parses href relative to the file at base,
// guarding against resolution cycles. It returns nil when resolution
// or parsing failed; diagnostics record why.
func (c *compiler) load(href string, loc rngerr.Span, inherited ast.Context) (ast.Pattern, string) {
	if c.res == nil {
		c.report(rngerr.ParseError("no resolver available for "+href, rngerr.WithSpan(loc)))
		return nil, ""
	}
	base := ""
	if n := len(c.fileStack); n > 0 {
		base = c.fileStack[n-1]
	}
	rv, err := c.res.Resolve(base, href)
	if err != nil {
		c.report(rngerr.ParseError(err.Error(), rngerr.WithSpan(loc)))
		return nil, ""
	}
	for _, open := range c.fileStack {
		if open == rv.Identity {
			c.report(rngerr.IncludeCycle(rv.Identity, rngerr.WithSpan(loc)))
			return nil, ""
		}
	}
	if c.parse == nil {
		c.report(rngerr.UnsupportedSyntax(rv.Syntax.String(), rngerr.WithSpan(loc)))
		return nil, ""
	}
	parsed, diags := c.parse(rv.Identity, rv.Contents, rv.Syntax, inherited)
	c.diags = append(c.diags, diags...)
	if parsed == nil || diags.HasErrors() {
		return nil, ""
	}
	return parsed, rv.Identity
}
