/*
Package relaxng is a RELAX NG schema processor: a compiler from the
XML schema syntax to a simplified pattern graph, a checker for the
section 7 schema restrictions, and a streaming validator that matches
XML documents against the compiled graph using pattern derivatives.

Compile a schema once and validate any number of documents against
it; the compiled schema is immutable and may be shared between
goroutines, with one Validator per document:

	schema, diags := relaxng.CompileFile("schema.rng")
	if diags.HasErrors() {
		// render diags
	}
	if d := schema.ValidateReader(f, "doc.xml"); d != nil {
		// d describes the first validation failure, with position
	}

The sub-packages hold the moving parts: ast and rngxml for the parsed
schema form, compiler and restrict for compilation, datatype for the
datatype libraries, validate for the derivative engine, and rngerr
for diagnostics.
*/
package relaxng

import (
	"io"

	"github.com/andaru/relaxng/compiler"
	"github.com/andaru/relaxng/model"
	"github.com/andaru/relaxng/restrict"
	"github.com/andaru/relaxng/rngerr"
	"github.com/andaru/relaxng/rngxml"
	"github.com/andaru/relaxng/validate"
	"github.com/antchfx/xmlquery"
)

// Schema is a compiled, restriction-checked schema ready for
// validation. Schemas are immutable and safe for concurrent use.
type Schema struct {
	m *model.Schema
}

// Compile compiles and restriction-checks the schema located by
// start, resolving includes and external references through res and
// parsing through parse.
func Compile(start string, res compiler.Resolver, parse compiler.ParseFunc) (*Schema, rngerr.Diagnostics) {
	m, diags := compiler.Compile(start, res, parse)
	if m == nil {
		return nil, diags
	}
	if rd := restrict.Check(m); len(rd) > 0 {
		return nil, append(diags, rd...)
	}
	return &Schema{m: m}, diags
}

// CompileFile compiles the XML-syntax schema file at path using the
// filesystem resolver.
func CompileFile(path string) (*Schema, rngerr.Diagnostics) {
	return Compile(path, NewFileResolver(), rngxml.ParseSchema)
}

// Model returns the compiled pattern graph.
func (s *Schema) Model() *model.Schema { return s.m }

// Validator returns a fresh single-use validator for one document.
func (s *Schema) Validator() *validate.Validator { return validate.New(s.m) }

// Validate streams src through a fresh validator, returning nil on
// acceptance or the first failure diagnostic.
func (s *Schema) Validate(src validate.TokenSource) *rngerr.Diagnostic {
	return s.Validator().Run(src)
}

// ValidateReader validates the XML document read from r. name labels
// the document in diagnostic spans.
func (s *Schema) ValidateReader(r io.Reader, name string) *rngerr.Diagnostic {
	return s.Validate(validate.NewDecoderSource(r, name))
}

// ValidateDocument validates a parsed document tree or element
// subtree.
func (s *Schema) ValidateDocument(doc *xmlquery.Node) *rngerr.Diagnostic {
	return s.Validate(validate.NewDocumentSource(doc))
}
