package rngerr

import (
	"bytes"
	"errors"
	"fmt"
)

// Severity represents the diagnostic severity enumerate
type Severity int

const (
	// SeverityError indicates "error" level
	SeverityError Severity = iota
	// SeverityWarning indicates "warning" level
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Severity) UnmarshalText(b []byte) error {
	b = bytes.TrimSpace(b)
	switch string(b) {
	case "error":
		*s = SeverityError
	case "warning":
		*s = SeverityWarning
	default:
		return errors.New("unknown value")
	}
	return nil
}

// Kind names the diagnostic category. Compile kinds are produced by
// the compiler, the restriction kind by the section 7 checker, and
// validation kinds by the derivative validator.
type Kind int

const (
	// KindNone is the zero Kind
	KindNone Kind = iota

	// compile phase

	// KindParseError reports a schema syntax error from a parser
	KindParseError
	// KindIncludeCycle reports an include or externalRef resolution cycle
	KindIncludeCycle
	// KindUnresolvedRef reports a ref with no matching define
	KindUnresolvedRef
	// KindDuplicateDefinition reports conflicting defines for one name
	KindDuplicateDefinition
	// KindIncompatibleCombine reports mixed combine modes for one name
	KindIncompatibleCombine
	// KindUnknownDatatypeLibrary reports an unregistered datatype library URI
	KindUnknownDatatypeLibrary
	// KindUnknownDatatype reports a datatype name its library lacks
	KindUnknownDatatype
	// KindInvalidFacet reports a bad, conflicting or unknown facet parameter
	KindInvalidFacet
	// KindInvalidNameClass reports a malformed name class
	KindInvalidNameClass
	// KindInvalidDatatypeLibraryURI reports a malformed datatypeLibrary value
	KindInvalidDatatypeLibraryURI
	// KindNCNameSyntax reports an identifier that is not an NCName
	KindNCNameSyntax
	// KindUnsupportedSyntax reports a schema syntax with no available parser
	KindUnsupportedSyntax

	// restriction phase

	// KindRestrictionViolation reports a section 7 violation; the
	// diagnostic's Rule sub-code names the specific restriction
	KindRestrictionViolation

	// validation phase

	// KindUnexpectedElement reports a start-element no pattern allows
	KindUnexpectedElement
	// KindUnexpectedAttribute reports an attribute no pattern allows
	KindUnexpectedAttribute
	// KindMissingAttribute reports required attributes left unconsumed
	KindMissingAttribute
	// KindUnexpectedText reports character data no pattern allows
	KindUnexpectedText
	// KindTextNotAllowed reports a text run where only elements may appear
	KindTextNotAllowed
	// KindDatatypeError reports a lexical value rejected by its datatype
	KindDatatypeError
	// KindUndefinedNamespacePrefix reports a prefix with no in-scope binding
	KindUndefinedNamespacePrefix
	// KindPrematureEndOfContent reports an end-element before content completed
	KindPrematureEndOfContent
)

var kindNames = map[Kind]string{
	KindNone:                      "none",
	KindParseError:                "parse-error",
	KindIncludeCycle:              "include-cycle",
	KindUnresolvedRef:             "unresolved-ref",
	KindDuplicateDefinition:       "duplicate-definition",
	KindIncompatibleCombine:       "incompatible-combine",
	KindUnknownDatatypeLibrary:    "unknown-datatype-library",
	KindUnknownDatatype:           "unknown-datatype",
	KindInvalidFacet:              "invalid-facet",
	KindInvalidNameClass:          "invalid-name-class",
	KindInvalidDatatypeLibraryURI: "invalid-datatype-library-uri",
	KindNCNameSyntax:              "ncname-syntax",
	KindUnsupportedSyntax:         "unsupported-syntax",
	KindRestrictionViolation:      "restriction-violation",
	KindUnexpectedElement:         "unexpected-element",
	KindUnexpectedAttribute:       "unexpected-attribute",
	KindMissingAttribute:          "missing-attribute",
	KindUnexpectedText:            "unexpected-text",
	KindTextNotAllowed:            "text-not-allowed",
	KindDatatypeError:             "datatype-error",
	KindUndefinedNamespacePrefix:  "undefined-namespace-prefix",
	KindPrematureEndOfContent:     "premature-end-of-content",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	b = bytes.TrimSpace(b)
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return errors.New("unknown value")
}

// Rule is the section 7 restriction sub-code attached to
// KindRestrictionViolation diagnostics.
type Rule int

const (
	// RuleNone is the zero Rule, used on non-restriction diagnostics
	RuleNone Rule = iota
	// RuleStartNotElementContentful: the start pattern must reduce to elements
	RuleStartNotElementContentful
	// RuleXmlnsAttributeForbidden: attribute name class matches xmlns
	RuleXmlnsAttributeForbidden
	// RuleXmlnsNamespaceForbidden: attribute name class matches the xmlns namespace
	RuleXmlnsNamespaceForbidden
	// RuleAttributeNesting: attribute pattern inside attribute content
	RuleAttributeNesting
	// RuleAttributeInOneOrMoreGroup: attribute under group/interleave under oneOrMore
	RuleAttributeInOneOrMoreGroup
	// RuleInfiniteAttributeName: anyName/nsName attribute outside oneOrMore
	RuleInfiniteAttributeName
	// RuleListContainsElement: element (or other forbidden pattern) inside list
	RuleListContainsElement
	// RuleDataExceptContents: forbidden pattern inside data/except
	RuleDataExceptContents
	// RuleInterleaveTextOverlap: text in both interleave branches
	RuleInterleaveTextOverlap
	// RuleInterleaveElementOverlap: overlapping element name classes across interleave
	RuleInterleaveElementOverlap
	// RuleAttributeOverlap: overlapping attribute name classes in group/interleave
	RuleAttributeOverlap
	// RuleAnyNameInExcept: anyName inside an anyName except clause
	RuleAnyNameInExcept
	// RuleNsNameInExcept: anyName or nsName inside an nsName except clause
	RuleNsNameInExcept
	// RuleContentTypeConflict: group/interleave members are not groupable
	RuleContentTypeConflict
)

var ruleNames = map[Rule]string{
	RuleNone:                      "none",
	RuleStartNotElementContentful: "start-not-element-contentful",
	RuleXmlnsAttributeForbidden:   "xmlns-attribute-forbidden",
	RuleXmlnsNamespaceForbidden:   "xmlns-namespace-forbidden",
	RuleAttributeNesting:          "attribute-nesting",
	RuleAttributeInOneOrMoreGroup: "attribute-in-one-or-more-group",
	RuleInfiniteAttributeName:     "infinite-attribute-name",
	RuleListContainsElement:       "list-contents",
	RuleDataExceptContents:        "data-except-contents",
	RuleInterleaveTextOverlap:     "interleave-text-overlap",
	RuleInterleaveElementOverlap:  "interleave-element-overlap",
	RuleAttributeOverlap:          "attribute-overlap",
	RuleAnyNameInExcept:           "any-name-in-except",
	RuleNsNameInExcept:            "ns-name-in-except",
	RuleContentTypeConflict:       "content-type-conflict",
}

func (r Rule) String() string {
	if s, ok := ruleNames[r]; ok {
		return s
	}
	return fmt.Sprintf("Rule(%d)", int(r))
}

func (r Rule) MarshalText() ([]byte, error) { return []byte(r.String()), nil }
