package rngerr

import "fmt"

// Span locates a diagnostic in a source file. Line and Column are
// 1-based; EndLine/EndColumn bound the range and may equal the start
// position for point diagnostics. The zero Span means "no location".
type Span struct {
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
	Column    int    `json:"column,omitempty"`
	EndLine   int    `json:"end-line,omitempty"`
	EndColumn int    `json:"end-column,omitempty"`
}

// IsZero reports whether the span carries no location.
func (s Span) IsZero() bool { return s == Span{} }

func (s Span) String() string {
	if s.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// Diagnostic is a single compiler, restriction or validation finding.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Kind     Kind     `json:"kind"`
	// Rule is set on KindRestrictionViolation diagnostics only.
	Rule    Rule   `json:"rule,omitempty"`
	Span    *Span  `json:"span,omitempty"`
	Message string `json:"message,omitempty"`
}

func (d *Diagnostic) Error() string {
	s := fmt.Sprintf("%s %s", d.Severity, d.Kind)
	if d.Rule != RuleNone {
		s += " rule:" + d.Rule.String()
	}
	if d.Span != nil && !d.Span.IsZero() {
		s += " at " + d.Span.String()
	}
	if d.Message != "" {
		s += " " + d.Message
	}
	return s
}

// Location returns the diagnostic's span, or the zero Span when the
// diagnostic carries no location.
func (d *Diagnostic) Location() Span {
	if d.Span == nil {
		return Span{}
	}
	return *d.Span
}

// Option is a constructor option for Diagnostic values.
type Option func(*Diagnostic)

// WithSpan attaches the source span
func WithSpan(span Span) Option { return func(d *Diagnostic) { d.Span = &span } }

// WithMessage attaches free-form message text
func WithMessage(msg string) Option { return func(d *Diagnostic) { d.Message = msg } }

// WithMessagef attaches formatted message text
func WithMessagef(format string, args ...interface{}) Option {
	return func(d *Diagnostic) { d.Message = fmt.Sprintf(format, args...) }
}

// WithSeverity overrides the default error severity
func WithSeverity(sev Severity) Option { return func(d *Diagnostic) { d.Severity = sev } }

func newDiag(kind Kind, opts []Option) *Diagnostic {
	d := &Diagnostic{Kind: kind}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ParseError reports a schema syntax error surfaced by a parser.
func ParseError(msg string, opts ...Option) *Diagnostic {
	d := newDiag(KindParseError, opts)
	if d.Message == "" {
		d.Message = msg
	}
	return d
}

// IncludeCycle reports that resolving name revisited a file already on
// the include resolution stack.
func IncludeCycle(name string, opts ...Option) *Diagnostic {
	d := newDiag(KindIncludeCycle, opts)
	if d.Message == "" {
		d.Message = fmt.Sprintf("include cycle through %q", name)
	}
	return d
}

// UnresolvedRef reports a ref naming no reachable define.
func UnresolvedRef(name string, opts ...Option) *Diagnostic {
	d := newDiag(KindUnresolvedRef, opts)
	if d.Message == "" {
		d.Message = fmt.Sprintf("no definition for %q", name)
	}
	return d
}

// DuplicateDefinition reports multiple defines for name without combine.
func DuplicateDefinition(name string, opts ...Option) *Diagnostic {
	d := newDiag(KindDuplicateDefinition, opts)
	if d.Message == "" {
		d.Message = fmt.Sprintf("duplicate definition of %q without combine", name)
	}
	return d
}

// IncompatibleCombine reports conflicting combine modes for name.
func IncompatibleCombine(name string, opts ...Option) *Diagnostic {
	d := newDiag(KindIncompatibleCombine, opts)
	if d.Message == "" {
		d.Message = fmt.Sprintf("conflicting combine modes for %q", name)
	}
	return d
}

// UnknownDatatypeLibrary reports an unregistered datatype library URI.
func UnknownDatatypeLibrary(uri string, opts ...Option) *Diagnostic {
	d := newDiag(KindUnknownDatatypeLibrary, opts)
	if d.Message == "" {
		d.Message = fmt.Sprintf("unknown datatype library %q", uri)
	}
	return d
}

// UnknownDatatype reports a type name its library does not supply.
func UnknownDatatype(name string, opts ...Option) *Diagnostic {
	d := newDiag(KindUnknownDatatype, opts)
	if d.Message == "" {
		d.Message = fmt.Sprintf("unknown datatype %q", name)
	}
	return d
}

// InvalidFacet reports a bad facet parameter on a data pattern.
func InvalidFacet(msg string, opts ...Option) *Diagnostic {
	d := newDiag(KindInvalidFacet, opts)
	if d.Message == "" {
		d.Message = msg
	}
	return d
}

// InvalidNameClass reports a malformed name class.
func InvalidNameClass(msg string, opts ...Option) *Diagnostic {
	d := newDiag(KindInvalidNameClass, opts)
	if d.Message == "" {
		d.Message = msg
	}
	return d
}

// InvalidDatatypeLibraryURI reports a malformed datatypeLibrary attribute.
func InvalidDatatypeLibraryURI(uri string, opts ...Option) *Diagnostic {
	d := newDiag(KindInvalidDatatypeLibraryURI, opts)
	if d.Message == "" {
		d.Message = fmt.Sprintf("invalid datatype library URI %q", uri)
	}
	return d
}

// NCNameSyntax reports an identifier that is not a valid NCName.
func NCNameSyntax(name string, opts ...Option) *Diagnostic {
	d := newDiag(KindNCNameSyntax, opts)
	if d.Message == "" {
		d.Message = fmt.Sprintf("%q is not an NCName", name)
	}
	return d
}

// UnsupportedSyntax reports a schema syntax with no available parser.
func UnsupportedSyntax(syntax string, opts ...Option) *Diagnostic {
	d := newDiag(KindUnsupportedSyntax, opts)
	if d.Message == "" {
		d.Message = fmt.Sprintf("no parser for %s syntax", syntax)
	}
	return d
}

// Restriction reports a section 7 violation identified by rule.
func Restriction(rule Rule, opts ...Option) *Diagnostic {
	d := newDiag(KindRestrictionViolation, opts)
	d.Rule = rule
	return d
}

// UnexpectedElement reports a start-element the pattern rejects.
func UnexpectedElement(name string, opts ...Option) *Diagnostic {
	d := newDiag(KindUnexpectedElement, opts)
	if d.Message == "" {
		d.Message = fmt.Sprintf("element %s not allowed here", name)
	}
	return d
}

// UnexpectedAttribute reports an attribute the pattern rejects.
func UnexpectedAttribute(name string, opts ...Option) *Diagnostic {
	d := newDiag(KindUnexpectedAttribute, opts)
	if d.Message == "" {
		d.Message = fmt.Sprintf("attribute %s not allowed here", name)
	}
	return d
}

// MissingAttribute reports required attributes left unmatched when the
// start tag closed.
func MissingAttribute(element string, opts ...Option) *Diagnostic {
	d := newDiag(KindMissingAttribute, opts)
	if d.Message == "" {
		d.Message = fmt.Sprintf("element %s is missing required attributes", element)
	}
	return d
}

// UnexpectedText reports character data the pattern rejects.
func UnexpectedText(opts ...Option) *Diagnostic {
	d := newDiag(KindUnexpectedText, opts)
	if d.Message == "" {
		d.Message = "text not allowed here"
	}
	return d
}

// TextNotAllowed reports a non-whitespace run in element-only content.
func TextNotAllowed(opts ...Option) *Diagnostic {
	d := newDiag(KindTextNotAllowed, opts)
	if d.Message == "" {
		d.Message = "character data not allowed in element-only content"
	}
	return d
}

// DatatypeError reports a lexical value its datatype rejects.
func DatatypeError(reason string, opts ...Option) *Diagnostic {
	d := newDiag(KindDatatypeError, opts)
	if d.Message == "" {
		d.Message = reason
	}
	return d
}

// UndefinedNamespacePrefix reports a prefix with no in-scope binding.
func UndefinedNamespacePrefix(prefix string, opts ...Option) *Diagnostic {
	d := newDiag(KindUndefinedNamespacePrefix, opts)
	if d.Message == "" {
		d.Message = fmt.Sprintf("namespace prefix %q is not defined", prefix)
	}
	return d
}

// PrematureEndOfContent reports an end-element before the element's
// content model was satisfied.
func PrematureEndOfContent(element string, opts ...Option) *Diagnostic {
	d := newDiag(KindPrematureEndOfContent, opts)
	if d.Message == "" {
		d.Message = fmt.Sprintf("element %s ended before its content completed", element)
	}
	return d
}

// Diagnostics is an ordered diagnostic collection.
type Diagnostics []*Diagnostic

func (ds Diagnostics) Error() string {
	switch len(ds) {
	case 0:
		return "no diagnostics"
	case 1:
		return ds[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more)", ds[0].Error(), len(ds)-1)
	}
}

// HasErrors reports whether any diagnostic has error severity.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ErrOrNil returns ds as an error when it contains error-severity
// diagnostics, and nil otherwise.
func (ds Diagnostics) ErrOrNil() error {
	if ds.HasErrors() {
		return ds
	}
	return nil
}
