package relaxng

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andaru/relaxng/rngerr"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, contents := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
	}
	return dir
}

const rngNS = `xmlns="http://relaxng.org/ns/structure/1.0"`

func TestCompileFileWithInclude(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.rng": `<grammar ` + rngNS + `>
			<include href="items.rng"/>
			<start><element name="doc"><oneOrMore><ref name="item"/></oneOrMore></element></start>
		</grammar>`,
		"items.rng": `<grammar ` + rngNS + `>
			<define name="item"><element name="item"><text/></element></define>
		</grammar>`,
	})
	schema, diags := CompileFile(filepath.Join(dir, "main.rng"))
	require.NotNil(t, schema, "diagnostics: %v", diags)

	d := schema.ValidateReader(strings.NewReader(`<doc><item>one</item><item>two</item></doc>`), "doc.xml")
	assert.Nil(t, d)

	d = schema.ValidateReader(strings.NewReader(`<doc/>`), "doc.xml")
	assert.NotNil(t, d)
}

func TestCompileFileIncludeCycle(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.rng": `<grammar ` + rngNS + `>
			<include href="b.rng"/>
			<start><element name="r"><empty/></element></start>
		</grammar>`,
		"b.rng": `<grammar ` + rngNS + `><include href="a.rng"/></grammar>`,
	})
	schema, diags := CompileFile(filepath.Join(dir, "a.rng"))
	assert.Nil(t, schema)
	found := false
	for _, d := range diags {
		if d.Kind == rngerr.KindIncludeCycle {
			found = true
		}
	}
	assert.True(t, found, "diagnostics: %v", diags)
}

func TestCompileFileRestrictionFailure(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"bad.rng": `<grammar ` + rngNS + `><start><text/></start></grammar>`,
	})
	schema, diags := CompileFile(filepath.Join(dir, "bad.rng"))
	assert.Nil(t, schema)
	var rule rngerr.Rule
	for _, d := range diags {
		if d.Kind == rngerr.KindRestrictionViolation {
			rule = d.Rule
		}
	}
	assert.Equal(t, rngerr.RuleStartNotElementContentful, rule, "diagnostics: %v", diags)
}

func TestValidateDocumentFragments(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"entry.rng": `<element name="entry" ` + rngNS + `>
			<attribute name="id"/><text/>
		</element>`,
	})
	schema, diags := CompileFile(filepath.Join(dir, "entry.rng"))
	require.NotNil(t, schema, "diagnostics: %v", diags)

	doc, err := xmlquery.Parse(strings.NewReader(
		`<feed><entry id="1">a</entry><entry id="2">b</entry><entry>missing</entry></feed>`))
	require.NoError(t, err)

	expr, err := xpath.Compile("//entry")
	require.NoError(t, err)

	var verdicts []bool
	for _, node := range xmlquery.QuerySelectorAll(doc, expr) {
		verdicts = append(verdicts, schema.ValidateDocument(node) == nil)
	}
	assert.Equal(t, []bool{true, true, false}, verdicts)
}

func TestCompileFileMissing(t *testing.T) {
	schema, diags := CompileFile(filepath.Join(t.TempDir(), "nope.rng"))
	assert.Nil(t, schema)
	assert.True(t, diags.HasErrors())
}

func TestCompactSyntaxUnsupported(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.rnc": `start = element r { empty }`,
	})
	schema, diags := CompileFile(filepath.Join(dir, "main.rnc"))
	assert.Nil(t, schema)
	found := false
	for _, d := range diags {
		if d.Kind == rngerr.KindUnsupportedSyntax {
			found = true
		}
	}
	assert.True(t, found, "diagnostics: %v", diags)
}
