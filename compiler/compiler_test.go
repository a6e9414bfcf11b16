package compiler_test

import (
	"fmt"
	"testing"

	"github.com/andaru/relaxng/ast"
	"github.com/andaru/relaxng/compiler"
	"github.com/andaru/relaxng/model"
	"github.com/andaru/relaxng/rngerr"
	"github.com/andaru/relaxng/rngxml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFS resolves schema files from a map, the canonical identity
// being the file name itself.
type memFS map[string]string

func (m memFS) Resolve(base, href string) (compiler.Resolved, error) {
	contents, ok := m[href]
	if !ok {
		return compiler.Resolved{}, fmt.Errorf("no such schema %q", href)
	}
	return compiler.Resolved{Identity: href, Contents: []byte(contents), Syntax: compiler.SyntaxXML}, nil
}

func compileString(t *testing.T, src string, fs memFS) (*model.Schema, rngerr.Diagnostics) {
	t.Helper()
	root, diags := rngxml.Parse("main.rng", []byte(src), ast.Context{})
	require.False(t, diags.HasErrors(), "parse: %v", diags)
	return compiler.CompilePattern(root, fs, rngxml.ParseSchema)
}

func mustCompile(t *testing.T, src string, fs memFS) *model.Schema {
	t.Helper()
	s, diags := compileString(t, src, fs)
	require.NotNil(t, s, "compile failed: %v", diags)
	return s
}

func kinds(ds rngerr.Diagnostics) []rngerr.Kind {
	out := make([]rngerr.Kind, len(ds))
	for i, d := range ds {
		out[i] = d.Kind
	}
	return out
}

const rngNS = `xmlns="http://relaxng.org/ns/structure/1.0"`

func TestCompileSimpleElement(t *testing.T) {
	s := mustCompile(t, `<element name="r" `+rngNS+`><empty/></element>`, nil)
	elem, ok := s.Start.(*model.Element)
	require.True(t, ok, "got %T", s.Start)
	assert.Equal(t, "r", elem.Name.(*model.NameNamed).Name.Local)
	assert.IsType(t, &model.Empty{}, elem.Content)
}

func TestCompileNormalization(t *testing.T) {
	s := mustCompile(t, `<element name="r" `+rngNS+`>
		<optional><element name="a"><empty/></element></optional>
		<zeroOrMore><element name="b"><empty/></element></zeroOrMore>
		<mixed><element name="c"><empty/></element></mixed>
	</element>`, nil)
	group1, ok := s.Start.(*model.Element).Content.(*model.Group)
	require.True(t, ok)
	group2, ok := group1.L.(*model.Group)
	require.True(t, ok)

	// optional -> choice(p, empty)
	opt, ok := group2.L.(*model.Choice)
	require.True(t, ok)
	assert.IsType(t, &model.Empty{}, opt.R)

	// zeroOrMore -> choice(oneOrMore(p), empty)
	zom, ok := group2.R.(*model.Choice)
	require.True(t, ok)
	assert.IsType(t, &model.OneOrMore{}, zom.L)
	assert.IsType(t, &model.Empty{}, zom.R)

	// mixed -> interleave(p, text)
	mixed, ok := group1.R.(*model.Interleave)
	require.True(t, ok)
	assert.IsType(t, &model.Text{}, mixed.R)
}

func TestCompileSimplification(t *testing.T) {
	// group with notAllowed collapses, choice drops dead branches,
	// empty drops out of group
	s := mustCompile(t, `<element name="r" `+rngNS+`>
		<choice>
			<group><element name="a"><empty/></element><notAllowed/></group>
			<group><empty/><element name="b"><empty/></element></group>
		</choice>
	</element>`, nil)
	elem, ok := s.Start.(*model.Element).Content.(*model.Element)
	require.True(t, ok, "got %T", s.Start.(*model.Element).Content)
	assert.Equal(t, "b", elem.Name.(*model.NameNamed).Name.Local)
}

func TestCompileGrammarCombine(t *testing.T) {
	s := mustCompile(t, `<grammar `+rngNS+`>
		<start><ref name="root"/></start>
		<define name="root"><element name="r"><ref name="item"/><ref name="item"/></element></define>
		<define name="item" combine="choice"><element name="a"><empty/></element></define>
		<define name="item" combine="choice"><element name="b"><empty/></element></define>
	</grammar>`, nil)
	root, ok := s.Start.(*model.Ref)
	require.True(t, ok)
	elem := root.Define.Body.(*model.Element)
	group := elem.Content.(*model.Group)
	left := group.L.(*model.Ref)
	right := group.R.(*model.Ref)
	// both refs share one define handle
	assert.Same(t, left.Define, right.Define)
	choice, ok := left.Define.Body.(*model.Choice)
	require.True(t, ok, "got %T", left.Define.Body)
	assert.Equal(t, "a", choice.L.(*model.Element).Name.(*model.NameNamed).Name.Local)
	assert.Equal(t, "b", choice.R.(*model.Element).Name.(*model.NameNamed).Name.Local)
}

func TestCompileCyclicGrammar(t *testing.T) {
	s := mustCompile(t, `<grammar `+rngNS+`>
		<start><ref name="a"/></start>
		<define name="a"><element name="a"><ref name="b"/></element></define>
		<define name="b"><element name="b"><choice><ref name="a"/><empty/></choice></element></define>
	</grammar>`, nil)
	a := s.Start.(*model.Ref)
	b := a.Define.Body.(*model.Element).Content.(*model.Ref)
	back := b.Define.Body.(*model.Element).Content.(*model.Choice).L.(*model.Ref)
	assert.Same(t, a.Define, back.Define, "cycle resolves to the same handle")
}

func TestCompileDiagnostics(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
		want rngerr.Kind
	}{
		{
			name: "unresolved-ref",
			src:  `<grammar ` + rngNS + `><start><ref name="nope"/></start></grammar>`,
			want: rngerr.KindUnresolvedRef,
		},
		{
			name: "duplicate-definition",
			src: `<grammar ` + rngNS + `>
				<start><ref name="a"/></start>
				<define name="a"><element name="a"><empty/></element></define>
				<define name="a"><element name="b"><empty/></element></define>
			</grammar>`,
			want: rngerr.KindDuplicateDefinition,
		},
		{
			name: "incompatible-combine",
			src: `<grammar ` + rngNS + `>
				<start><ref name="a"/></start>
				<define name="a" combine="choice"><element name="a"><empty/></element></define>
				<define name="a" combine="interleave"><element name="b"><empty/></element></define>
			</grammar>`,
			want: rngerr.KindIncompatibleCombine,
		},
		{
			name: "unknown-datatype-library",
			src: `<element name="r" ` + rngNS + ` datatypeLibrary="http://example.com/types">
				<data type="whatever"/></element>`,
			want: rngerr.KindUnknownDatatypeLibrary,
		},
		{
			name: "invalid-datatype-library-uri",
			src: `<element name="r" ` + rngNS + ` datatypeLibrary="not a uri">
				<data type="whatever"/></element>`,
			want: rngerr.KindInvalidDatatypeLibraryURI,
		},
		{
			name: "unknown-datatype",
			src: `<element name="r" ` + rngNS + ` datatypeLibrary="http://www.w3.org/2001/XMLSchema-datatypes">
				<data type="fancyType"/></element>`,
			want: rngerr.KindUnknownDatatype,
		},
		{
			name: "invalid-facet",
			src: `<element name="r" ` + rngNS + ` datatypeLibrary="http://www.w3.org/2001/XMLSchema-datatypes">
				<data type="integer"><param name="minInclusive">5</param><param name="maxInclusive">1</param></data></element>`,
			want: rngerr.KindInvalidFacet,
		},
		{
			name: "ncname-syntax",
			src: `<grammar ` + rngNS + `>
				<start><element name="r"><empty/></element></start>
				<define name="no good"><empty/></define>
			</grammar>`,
			want: rngerr.KindNCNameSyntax,
		},
		{
			name: "parent-ref-at-top",
			src:  `<grammar ` + rngNS + `><start><parentRef name="x"/></start></grammar>`,
			want: rngerr.KindUnresolvedRef,
		},
		{
			name: "illegal-recursion",
			src: `<grammar ` + rngNS + `>
				<start><ref name="a"/></start>
				<define name="a"><choice><ref name="a"/><empty/></choice></define>
			</grammar>`,
			want: rngerr.KindUnresolvedRef,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s, diags := compileString(t, tc.src, nil)
			assert.Nil(t, s)
			assert.Contains(t, kinds(diags), tc.want, "diagnostics: %v", diags)
		})
	}
}

func TestCompileCollectsMultipleErrors(t *testing.T) {
	_, diags := compileString(t, `<grammar `+rngNS+`>
		<start><group><ref name="one"/><ref name="two"/></group></start>
	</grammar>`, nil)
	assert.GreaterOrEqual(t, len(diags), 2, "diagnostics: %v", diags)
}

func TestCompileInclude(t *testing.T) {
	fs := memFS{
		"lib.rng": `<grammar ` + rngNS + `>
			<start><ref name="root"/></start>
			<define name="root"><element name="lib"><ref name="item"/></element></define>
			<define name="item"><element name="item"><text/></element></define>
		</grammar>`,
	}
	s := mustCompile(t, `<grammar `+rngNS+`>
		<include href="lib.rng">
			<define name="item"><element name="override"><empty/></element></define>
		</include>
	</grammar>`, fs)
	root := s.Start.(*model.Ref)
	item := root.Define.Body.(*model.Element).Content.(*model.Ref)
	// the include body's define replaces the included one
	elem := item.Define.Body.(*model.Element)
	assert.Equal(t, "override", elem.Name.(*model.NameNamed).Name.Local)
}

func TestCompileIncludeCycle(t *testing.T) {
	fs := memFS{
		"a.rng": `<grammar ` + rngNS + `><include href="b.rng"/><start><element name="r"><empty/></element></start></grammar>`,
		"b.rng": `<grammar ` + rngNS + `><include href="a.rng"/></grammar>`,
	}
	s, cd := compiler.Compile("a.rng", fs, rngxml.ParseSchema)
	assert.Nil(t, s)
	assert.Contains(t, kinds(cd), rngerr.KindIncludeCycle, "diagnostics: %v", cd)
}

func TestCompileExternalRef(t *testing.T) {
	fs := memFS{
		"ext.rng": `<element name="ext" ` + rngNS + `><text/></element>`,
	}
	s := mustCompile(t, `<element name="r" `+rngNS+`>
		<externalRef href="ext.rng"/>
	</element>`, fs)
	ext, ok := s.Start.(*model.Element).Content.(*model.Element)
	require.True(t, ok)
	assert.Equal(t, "ext", ext.Name.(*model.NameNamed).Name.Local)
}

func TestCompileExternalRefNSOverride(t *testing.T) {
	fs := memFS{
		"ext.rng": `<element name="ext" ` + rngNS + `><empty/></element>`,
	}
	s := mustCompile(t, `<element name="r" ns="urn:over" `+rngNS+`>
		<externalRef href="ext.rng"/>
	</element>`, fs)
	ext := s.Start.(*model.Element).Content.(*model.Element)
	// the referencing context's ns applies to the referenced schema
	assert.Equal(t, "urn:over", ext.Name.(*model.NameNamed).Name.NS)
}

func TestCompileValueDefaultsToToken(t *testing.T) {
	s := mustCompile(t, `<element name="r" `+rngNS+`><value>go</value></element>`, nil)
	val := s.Start.(*model.Element).Content.(*model.Value)
	assert.Equal(t, "token", val.Type)
	assert.Equal(t, "", val.Library)
	assert.True(t, val.Matcher.Match(" go ", nil))
	assert.False(t, val.Matcher.Match("stop", nil))
}

func TestCompileDeterministic(t *testing.T) {
	src := `<grammar ` + rngNS + `>
		<start><ref name="a"/></start>
		<define name="a"><element name="a"><choice><ref name="a"/><empty/></choice></element></define>
	</grammar>`
	s1 := mustCompile(t, src, nil)
	s2 := mustCompile(t, src, nil)
	assert.Equal(t, model.Format(s1.Start), model.Format(s2.Start))
}
