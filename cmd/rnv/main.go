// Command rnv compiles a RELAX NG schema (XML syntax) and validates
// XML documents against it.
//
// Usage:
//
//	rnv [-v] [-xpath EXPR] schema.rng [document.xml ...]
//
// With -xpath, each document is parsed and only the subtrees selected
// by EXPR are validated, each as its own document root.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/andaru/relaxng"
	"github.com/andaru/relaxng/rngerr"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/rs/zerolog"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		verbose   = flag.Bool("v", false, "verbose output")
		xpathExpr = flag.String("xpath", "", "validate only subtrees selected by this XPath expression")
	)
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: rnv [-v] [-xpath EXPR] schema.rng [document.xml ...]")
		return 2
	}
	schemaPath := flag.Arg(0)
	schema, diags := relaxng.CompileFile(schemaPath)
	for _, d := range diags {
		logDiag(log, schemaPath, d)
	}
	if schema == nil {
		log.Error().Str("schema", schemaPath).Msg("schema failed to compile")
		return 1
	}
	log.Debug().Str("schema", schemaPath).Msg("schema compiled")

	var selector *xpath.Expr
	if *xpathExpr != "" {
		expr, err := xpath.Compile(*xpathExpr)
		if err != nil {
			log.Error().Err(err).Str("xpath", *xpathExpr).Msg("bad xpath expression")
			return 2
		}
		selector = expr
	}

	failed := 0
	for _, docPath := range flag.Args()[1:] {
		if !validateDoc(log, schema, docPath, selector) {
			failed++
		}
	}
	if failed > 0 {
		return 1
	}
	return 0
}

func validateDoc(log zerolog.Logger, schema *relaxng.Schema, path string, selector *xpath.Expr) bool {
	f, err := os.Open(path)
	if err != nil {
		log.Error().Err(err).Str("document", path).Msg("cannot open document")
		return false
	}
	defer f.Close()

	if selector == nil {
		if d := schema.ValidateReader(f, path); d != nil {
			logDiag(log, path, d)
			return false
		}
		log.Info().Str("document", path).Msg("valid")
		return true
	}

	doc, err := xmlquery.Parse(f)
	if err != nil {
		log.Error().Err(err).Str("document", path).Msg("cannot parse document")
		return false
	}
	ok := true
	for i, node := range xmlquery.QuerySelectorAll(doc, selector) {
		if node.Type != xmlquery.ElementNode {
			continue
		}
		if d := schema.ValidateDocument(node); d != nil {
			log.Error().Str("document", path).Int("fragment", i).Msg(d.Error())
			ok = false
			continue
		}
		log.Info().Str("document", path).Int("fragment", i).Msg("valid")
	}
	return ok
}

func logDiag(log zerolog.Logger, file string, d *rngerr.Diagnostic) {
	ev := log.Error()
	if d.Severity == rngerr.SeverityWarning {
		ev = log.Warn()
	}
	if loc := d.Location(); !loc.IsZero() {
		ev = ev.Str("pos", loc.String())
	} else {
		ev = ev.Str("file", file)
	}
	ev.Str("kind", d.Kind.String()).Msg(d.Message)
}
