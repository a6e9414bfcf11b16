package relaxng

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/andaru/relaxng/compiler"
	"github.com/pkg/errors"
)

// FileResolver locates schema files on the local filesystem. File
// identities are canonicalized (absolute path, symlinks resolved) so
// include cycle detection holds whatever the path spelling.
type FileResolver struct{}

// NewFileResolver returns a filesystem resolver.
func NewFileResolver() FileResolver { return FileResolver{} }

// Resolve implements compiler.Resolver. href is taken relative to the
// directory of base when base is non-empty.
func (FileResolver) Resolve(base, href string) (compiler.Resolved, error) {
	path := href
	if base != "" && !filepath.IsAbs(href) {
		path = filepath.Join(filepath.Dir(base), href)
	}
	identity, err := canonicalPath(path)
	if err != nil {
		return compiler.Resolved{}, errors.Wrapf(err, "resolving %q", href)
	}
	contents, err := os.ReadFile(identity)
	if err != nil {
		return compiler.Resolved{}, errors.Wrapf(err, "reading %q", href)
	}
	syntax := compiler.SyntaxXML
	if strings.EqualFold(filepath.Ext(identity), ".rnc") {
		syntax = compiler.SyntaxCompact
	}
	return compiler.Resolved{Identity: identity, Contents: contents, Syntax: syntax}, nil
}

func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}
