package xmlutil

import (
	"encoding/xml"
	"sort"
)

// PrefixMap is a prefix to namespace URI map
type PrefixMap map[string]string

// NewPrefixMap returns a PrefixMap, containing the xmlns bindings found
// in the passed XML attributes. Both xmlns:<prefix> and the default
// xmlns declaration (stored under the empty prefix) are collected.
func NewPrefixMap(attrs ...xml.Attr) PrefixMap {
	pmap := PrefixMap{}
	for _, attr := range attrs {
		switch {
		case attr.Name.Space == "xmlns":
			pmap[attr.Name.Local] = attr.Value
		case attr.Name.Space == "" && attr.Name.Local == "xmlns":
			pmap[""] = attr.Value
		}
	}
	return pmap
}

// Attr returns the prefix map contents as a series of xmlns:<prefix>=<nsuri>
// attributes, sorted lexically by prefix.
func (m PrefixMap) Attr() (a []xml.Attr) {
	for k, v := range m {
		if k == "" {
			a = append(a, xml.Attr{Name: xml.Name{Local: "xmlns"}, Value: v})
			continue
		}
		a = append(a, xml.Attr{Name: xml.Name{Space: "xmlns", Local: k}, Value: v})
	}
	if len(a) > 0 {
		// sort lexically by prefix
		sort.Slice(a, func(i int, j int) bool { return a[i].Name.Local < a[j].Name.Local })
	}
	return a
}

// Namespace returns the namespace URI for the given prefix
func (m PrefixMap) Namespace(prefix string) string { return m[prefix] }

// Prefix returns any prefixes found for the namespace URI
func (m PrefixMap) Prefix(nsURI string) (pfxes []string) {
	for k, v := range m {
		if nsURI == v {
			pfxes = append(pfxes, k)
		}
	}
	return pfxes
}

// Scope is a stack of prefix maps tracking the namespace bindings in
// effect at the current point of a streamed document. A frame is pushed
// for each open element and popped when the element closes.
//
// Scope implements the namespace context consumed by QName-valued
// datatypes during validation.
type Scope struct {
	frames []PrefixMap
}

// Push adds a binding frame for an element being opened.
func (s *Scope) Push(m PrefixMap) { s.frames = append(s.frames, m) }

// Pop removes the innermost binding frame.
func (s *Scope) Pop() {
	if n := len(s.frames); n > 0 {
		s.frames = s.frames[:n-1]
	}
}

// Depth returns the number of binding frames currently in scope.
func (s *Scope) Depth() int { return len(s.frames) }

// Resolve returns the namespace URI bound to prefix at the current
// point, searching innermost frames first. The "xml" prefix is always
// bound. The second result reports whether a binding was found; the
// empty prefix resolves to the in-scope default namespace, or to the
// empty URI when no default is declared.
func (s *Scope) Resolve(prefix string) (string, bool) {
	if prefix == "xml" {
		return XMLNamespaceURI, true
	}
	for i := len(s.frames) - 1; i >= 0; i-- {
		if uri, ok := s.frames[i][prefix]; ok {
			return uri, true
		}
	}
	if prefix == "" {
		return "", true
	}
	return "", false
}

// ResolveNS implements the namespace context interface consumed by
// datatype evaluation.
func (s *Scope) ResolveNS(prefix string) (string, bool) { return s.Resolve(prefix) }
